package models

import "time"

// WorkflowHistory is one append-only audit entry per status transition.
type WorkflowHistory struct {
	HistoryID    uint             `gorm:"primaryKey;column:history_id" json:"history_id"`
	SubmissionID uint             `gorm:"column:submission_id;index" json:"submission_id"`
	ReviewerID   *uint            `gorm:"column:reviewer_id" json:"reviewer_id"`
	Action       WorkflowAction   `gorm:"column:action;size:50" json:"action"`
	FromStatus   SubmissionStatus `gorm:"column:from_status;size:30" json:"from_status"`
	ToStatus     SubmissionStatus `gorm:"column:to_status;size:30" json:"to_status"`
	Comments     *string          `gorm:"column:comments" json:"comments"`
	CreatedAt    time.Time        `gorm:"column:created_at" json:"created_at"`

	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName specifies the table for WorkflowHistory.
func (WorkflowHistory) TableName() string {
	return "workflow_history"
}
