package handlers

import (
	"net/http"
	"regexp"

	"taskbot/backend/internal/middleware"
	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

var notificationTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ProfileHandler struct {
	users services.UserDirectory
}

func NewProfileHandler(users services.UserDirectory) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) UpdateNotificationTime(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var timeInput struct {
		Time string `json:"time" binding:"required"`
	}
	if err := c.ShouldBindJSON(&timeInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !notificationTimePattern.MatchString(timeInput.Time) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "time must be HH:MM"})
		return
	}

	updated, err := h.users.UpdateNotificationTime(c.Request.Context(), user.ExternalID, timeInput.Time)
	if err != nil || !updated {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update notification time"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification time updated"})
}

func (h *ProfileHandler) UpdateReminderLead(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var leadInput struct {
		Minutes int `json:"minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&leadInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if leadInput.Minutes < 5 || leadInput.Minutes > 1440 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lead must be between 5 and 1440 minutes"})
		return
	}

	updated, err := h.users.UpdateReminderLead(c.Request.Context(), user.ExternalID, leadInput.Minutes)
	if err != nil || !updated {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update reminder lead"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "reminder lead updated"})
}
