package controllers

import (
	"context"
	"net/http"
	"testing"

	"diwan-api/middleware"
	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInbox struct {
	err        error
	unreadOnly bool
	limit      int
	readID     uint
	readAll    bool
}

func (f *fakeInbox) Inbox(ctx context.Context, actor services.Actor, unreadOnly bool, limit int) (*services.Inbox, error) {
	f.unreadOnly, f.limit = unreadOnly, limit
	if f.err != nil {
		return nil, f.err
	}
	return &services.Inbox{
		Items:  []models.Notification{{NotificationID: 5, UserID: actor.ID, Type: "review_decision", Title: "تمت مراجعة المحتوى"}},
		Unread: 1,
	}, nil
}

func (f *fakeInbox) MarkRead(ctx context.Context, actor services.Actor, notificationID uint) error {
	f.readID = notificationID
	return f.err
}

func (f *fakeInbox) MarkAllRead(ctx context.Context, actor services.Actor) error {
	f.readAll = true
	return f.err
}

func notificationRouter(inbox *fakeInbox, actor *services.Actor) *gin.Engine {
	h := NewNotificationController(inbox)
	router := gin.New()
	router.Use(middleware.RequestID(), withActor(actor))
	router.GET("/notifications", h.List)
	router.PATCH("/notifications/read-all", h.MarkAllRead)
	router.PATCH("/notifications/:id/read", h.MarkRead)
	return router
}

func TestNotificationHandlers(t *testing.T) {
	inbox := &fakeInbox{}
	router := notificationRouter(inbox, &contributor)

	rec := serve(router, http.MethodGet, "/notifications?unread_only=true&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, inbox.unreadOnly)
	assert.Equal(t, 10, inbox.limit)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["unread"])
	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "review_decision", items[0].(map[string]interface{})["type"])

	rec = serve(router, http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, inbox.unreadOnly)
	assert.Equal(t, 50, inbox.limit)

	rec = serve(router, http.MethodPatch, "/notifications/5/read", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(5), inbox.readID)

	rec = serve(router, http.MethodPatch, "/notifications/read-all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, inbox.readAll)
}

func TestNotificationErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		method string
		target string
		err    error
		status int
	}{
		{"someone else's notification", http.MethodPatch, "/notifications/9/read", &services.Error{Kind: services.ErrNotFound, Message: "notification 9 not found"}, http.StatusNotFound},
		{"inbox unavailable", http.MethodGet, "/notifications", &services.Error{Kind: services.ErrInternal, Message: "list notifications"}, http.StatusInternalServerError},
		{"mark all fails", http.MethodPatch, "/notifications/read-all", &services.Error{Kind: services.ErrInternal, Message: "mark notifications read"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(notificationRouter(&fakeInbox{err: tc.err}, &contributor), tc.method, tc.target, "")
			assert.Equal(t, tc.status, rec.Code)
		})
	}

	inbox := &fakeInbox{}
	assert.Equal(t, http.StatusBadRequest, serve(notificationRouter(inbox, &contributor), http.MethodPatch, "/notifications/x/read", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(notificationRouter(inbox, nil), http.MethodGet, "/notifications", "").Code)
	assert.Zero(t, inbox.readID)
	assert.Zero(t, inbox.limit)
}
