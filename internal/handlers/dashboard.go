package handlers

import (
	"net/http"

	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(dashboardService services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	items, err := h.dashboardService.GetDashboardItems(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dashboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *DashboardHandler) ReorderDashboard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var reorderInput struct {
		Items []services.ItemRef `json:"items" binding:"required"`
	}
	if err := c.ShouldBindJSON(&reorderInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reordered, err := h.dashboardService.ReorderItems(c.Request.Context(), userID, reorderInput.Items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reorder dashboard"})
		return
	}
	if !reordered {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to reorder"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "dashboard reordered successfully"})
}
