package handlers

import (
	"net/http"

	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type ListHandler struct {
	listService    services.ListService
	taskService    services.TaskService
	sharingService services.SharingService
}

func NewListHandler(listService services.ListService, taskService services.TaskService, sharingService services.SharingService) *ListHandler {
	return &ListHandler{
		listService:    listService,
		taskService:    taskService,
		sharingService: sharingService,
	}
}

func (h *ListHandler) CreateList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var listInput struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&listInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.listService.CreateList(c.Request.Context(), userID, listInput.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to create list",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (h *ListHandler) GetLists(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	lists, err := h.listService.GetLists(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch lists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lists": lists, "total": len(lists)})
}

// ResolveList maps free text to one of the caller's lists.
func (h *ListHandler) ResolveList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query"})
		return
	}

	list, err := h.listService.FindListByName(c.Request.Context(), userID, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve list"})
		return
	}
	if list == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no matching list"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ListHandler) GetListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	tasks, err := h.taskService.GetTasksInList(c.Request.Context(), userID, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch list tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *ListHandler) GetListMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	visible, err := h.listService.IsUserInList(c.Request.Context(), userID, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch members"})
		return
	}
	if !visible {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}

	members, err := h.sharingService.GetListMembers(c.Request.Context(), listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

func (h *ListHandler) EditList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	var listInput struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&listInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edited, err := h.listService.EditList(c.Request.Context(), userID, listID, listInput.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit list"})
		return
	}
	if !edited {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "list updated successfully"})
}

func (h *ListHandler) EditListColor(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	var colorInput struct {
		Color string `json:"color" binding:"required"`
	}
	if err := c.ShouldBindJSON(&colorInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	edited, err := h.listService.EditListColor(c.Request.Context(), userID, listID, colorInput.Color)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit list"})
		return
	}
	if !edited {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "list updated successfully"})
}

func (h *ListHandler) ReorderLists(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var reorderInput struct {
		ListIDs []uint `json:"list_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&reorderInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ok, err := h.listService.ReorderLists(c.Request.Context(), userID, reorderInput.ListIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder lists"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to reorder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "lists reordered successfully"})
}

func (h *ListHandler) DeleteList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	deleted, err := h.listService.DeleteList(c.Request.Context(), userID, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete list"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *ListHandler) DeleteAllLists(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	count, err := h.listService.DeleteAllLists(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lists"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (h *ListHandler) ShareList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	var shareInput struct {
		Target string `json:"target" binding:"required"`
	}
	if err := c.ShouldBindJSON(&shareInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shared, message, err := h.sharingService.ShareList(c.Request.Context(), userID, listID, shareInput.Target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to share list"})
		return
	}
	if !shared {
		c.JSON(http.StatusConflict, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *ListHandler) LeaveList(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	left, message, err := h.sharingService.LeaveList(c.Request.Context(), userID, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave list"})
		return
	}
	if !left {
		c.JSON(http.StatusConflict, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
