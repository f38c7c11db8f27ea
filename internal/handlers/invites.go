package handlers

import (
	"net/http"

	"taskbot/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type InviteHandler struct {
	sharingService services.SharingService
}

func NewInviteHandler(sharingService services.SharingService) *InviteHandler {
	return &InviteHandler{sharingService: sharingService}
}

func (h *InviteHandler) GetPendingInvites(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	invites, err := h.sharingService.GetPendingInvites(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch invites"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites, "total": len(invites)})
}

func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	h.respond(c, true)
}

func (h *InviteHandler) RejectInvite(c *gin.Context) {
	h.respond(c, false)
}

func (h *InviteHandler) respond(c *gin.Context, accept bool) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	listID, ok := parseIDParam(c, "list_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid list id"})
		return
	}

	responded, message, err := h.sharingService.RespondToInvite(c.Request.Context(), userID, listID, accept)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond to invite"})
		return
	}
	if !responded {
		c.JSON(http.StatusNotFound, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}
