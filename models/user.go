package models

import (
	"time"
)

const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusDeleted   = "deleted"
)

type User struct {
	UserID    uint       `gorm:"primaryKey;column:user_id" json:"user_id"`
	Username  string     `gorm:"column:username;size:50;uniqueIndex" json:"username"`
	Email     string     `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	Password  string     `gorm:"column:password;size:255" json:"-"`
	FullName  string     `gorm:"column:full_name;size:255" json:"full_name"`
	Role      Role       `gorm:"column:role;size:20;index" json:"role"`
	Status    string     `gorm:"column:status;size:20;default:active" json:"status"`
	Bio       *string    `gorm:"column:bio" json:"bio,omitempty"`
	LastLogin *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides
func (User) TableName() string {
	return "users"
}

// IsActive reports whether the account may act in the workflow.
func (u *User) IsActive() bool {
	return u != nil && u.Status == UserStatusActive
}
