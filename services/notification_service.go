package services

import (
	"context"

	"diwan-api/models"
)

// Inbox lists a user's notifications with the unread total.
type Inbox struct {
	Items  []models.Notification `json:"items"`
	Unread int64                 `json:"unread"`
}

// NotificationService serves the in-app inbox.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) Inbox(ctx context.Context, actor Actor, unreadOnly bool, limit int) (*Inbox, error) {
	items, err := s.store.ListNotifications(ctx, actor.ID, unreadOnly, limit)
	if err != nil {
		return nil, internal("list notifications", err)
	}
	unread, err := s.store.CountUnread(ctx, actor.ID)
	if err != nil {
		return nil, internal("count unread notifications", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &Inbox{Items: items, Unread: unread}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor Actor, notificationID uint) error {
	return internal("mark notification read", s.store.MarkRead(ctx, actor.ID, notificationID))
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor Actor) error {
	return internal("mark notifications read", s.store.MarkAllRead(ctx, actor.ID))
}
