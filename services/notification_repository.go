package services

import (
	"context"

	"diwan-api/models"

	"gorm.io/gorm"
)

// NotificationRepository is the gorm-backed NotificationStore.
type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateNotifications(ctx context.Context, items []models.Notification) error {
	if len(items) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&items).Error; err != nil {
		return internal("create notifications", err)
	}
	return nil
}

func (r *NotificationRepository) ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var items []models.Notification
	if err := q.Order("created_at DESC, notification_id DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, internal("list notifications", err)
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, internal("count unread notifications", err)
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, userID, notificationID uint) error {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return internal("mark notification read", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// MySQL reports changed rows, so an already-read notification also lands here.
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error; err != nil {
		return internal("mark notification read", err)
	}
	if count == 0 {
		return notFound("notification %d not found", notificationID)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error; err != nil {
		return internal("mark notifications read", err)
	}
	return nil
}
