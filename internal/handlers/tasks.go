package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	taskService services.TaskService
}

func NewTaskHandler(taskService services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var taskInput struct {
		Title       string     `json:"title" binding:"required"`
		Description string     `json:"description"`
		Priority    string     `json:"priority"`
		Deadline    *time.Time `json:"deadline"`
		Recurrence  string     `json:"recurrence"`
		ListName    string     `json:"list_name"`
	}
	if err := c.ShouldBindJSON(&taskInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskService.AddTask(c.Request.Context(), userID, services.NewTask{
		Title:       taskInput.Title,
		Description: taskInput.Description,
		Priority:    taskInput.Priority,
		Deadline:    taskInput.Deadline,
		Recurrence:  taskInput.Recurrence,
		ListName:    taskInput.ListName,
	})
	if err != nil {
		if errors.Is(err, services.ErrDuplicateTitle) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to create task",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) GetPendingTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter := models.ParseTimeFilter(c.DefaultQuery("filter", "ALL"))
	priority := c.Query("priority")

	tasks, err := h.taskService.GetPendingTasks(c.Request.Context(), userID, filter, priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *TaskHandler) GetAllTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tasks, err := h.taskService.GetUserTasks(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	task, err := h.taskService.GetTaskByID(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch task"})
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var statusInput struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, ok := models.ParseTaskStatus(statusInput.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	updated, err := h.taskService.UpdateTaskStatus(c.Request.Context(), userID, taskID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update task"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task updated successfully"})
}

func (h *TaskHandler) EditTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	var editInput struct {
		Title           *string    `json:"title"`
		Description     *string    `json:"description"`
		Priority        *string    `json:"priority"`
		Deadline        *time.Time `json:"deadline"`
		ClearDeadline   bool       `json:"clear_deadline"`
		Status          *string    `json:"status"`
		Recurrence      *string    `json:"recurrence"`
		ClearRecurrence bool       `json:"clear_recurrence"`
	}
	if err := c.ShouldBindJSON(&editInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	update := services.TaskUpdate{
		Title:           editInput.Title,
		Description:     editInput.Description,
		Priority:        editInput.Priority,
		Deadline:        editInput.Deadline,
		ClearDeadline:   editInput.ClearDeadline,
		ClearRecurrence: editInput.ClearRecurrence,
	}
	if editInput.Status != nil {
		status, ok := models.ParseTaskStatus(*editInput.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		update.Status = &status
	}
	if editInput.Recurrence != nil {
		update.Recurrence = models.ParseRecurrence(*editInput.Recurrence)
		if update.Recurrence == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown recurrence"})
			return
		}
	}

	edited, err := h.taskService.EditTask(c.Request.Context(), userID, taskID, update)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit task"})
		return
	}
	if !edited {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task updated successfully"})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}

	deleted, err := h.taskService.DeleteTask(c.Request.Context(), userID, taskID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete task"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}

func (h *TaskHandler) DeleteAllPendingTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	filter := models.ParseTimeFilter(c.DefaultQuery("filter", "ALL"))
	count, err := h.taskService.DeleteAllPendingTasks(c.Request.Context(), userID, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

func (h *TaskHandler) SearchTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	keyword := c.Query("q")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing search keyword"})
		return
	}

	var listID *uint
	if raw := c.Query("list_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
			return
		}
		id := uint(parsed)
		listID = &id
	}

	tasks, err := h.taskService.FindTasksByKeyword(c.Request.Context(), userID, keyword, listID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search tasks"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}

// GetAgenda returns every dated item the user can see, soonest first.
func (h *TaskHandler) GetAgenda(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	tasks, err := h.taskService.GetDatedItems(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch agenda"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks, "total": len(tasks)})
}
