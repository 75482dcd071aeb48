package controllers

import (
	"context"
	"net/http"
	"strconv"

	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

// NotificationInbox is the in-app inbox.
type NotificationInbox interface {
	Inbox(ctx context.Context, actor services.Actor, unreadOnly bool, limit int) (*services.Inbox, error)
	MarkRead(ctx context.Context, actor services.Actor, notificationID uint) error
	MarkAllRead(ctx context.Context, actor services.Actor) error
}

type NotificationController struct {
	inbox NotificationInbox
}

func NewNotificationController(inbox NotificationInbox) *NotificationController {
	return &NotificationController{inbox: inbox}
}

// List handles GET /notifications
func (h *NotificationController) List(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	inbox, err := h.inbox.Inbox(c.Request.Context(), actor, c.Query("unread_only") == "true", limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    inbox.Items,
		"unread":  inbox.Unread,
	})
}

// MarkRead handles PATCH /notifications/:id/read
func (h *NotificationController) MarkRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.inbox.MarkRead(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// MarkAllRead handles PATCH /notifications/read-all
func (h *NotificationController) MarkAllRead(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	if err := h.inbox.MarkAllRead(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
