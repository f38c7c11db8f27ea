package handlers

import (
	"net/http"
	"strconv"

	"taskbot/backend/internal/models"
	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	users services.UserDirectory
}

func NewAdminHandler(users services.UserDirectory) *AdminHandler {
	return &AdminHandler{users: users}
}

func (h *AdminHandler) GetPendingUsers(c *gin.Context) {
	pending, err := h.users.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch pending users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": pending, "total": len(pending)})
}

func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	externalID, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var statusInput struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&statusInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, ok := models.ParseUserStatus(statusInput.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	updated, err := h.users.UpdateStatus(c.Request.Context(), externalID, status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user status updated"})
}

func (h *AdminHandler) DeleteUser(c *gin.Context) {
	externalID, err := strconv.ParseInt(c.Param("external_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	deleted, err := h.users.DeleteUser(c.Request.Context(), externalID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete user"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
