package models

import "time"

type Notification struct {
	NotificationID      uint      `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID              uint      `gorm:"column:user_id;index" json:"user_id"`
	Type                string    `gorm:"column:type;size:50" json:"type"`
	Title               string    `gorm:"column:title;size:255" json:"title"`
	Message             string    `gorm:"column:message" json:"message"`
	RelatedSubmissionID *uint     `gorm:"column:related_submission_id" json:"related_submission_id,omitempty"`
	IsRead              bool      `gorm:"column:is_read" json:"is_read"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
