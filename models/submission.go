package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Submission is a contributed term or article moving through review.
type Submission struct {
	SubmissionID  uint             `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ContributorID uint             `gorm:"column:contributor_id;index" json:"contributor_id"`
	CategoryID    uint             `gorm:"column:category_id;index" json:"category_id"`
	Title         string           `gorm:"column:title;size:500" json:"title"`
	Slug          string           `gorm:"column:slug;size:255;uniqueIndex" json:"slug"`
	Body          string           `gorm:"column:body;type:longtext" json:"body"`
	ContentType   ContentType      `gorm:"column:content_type;size:20" json:"content_type"`
	Tags          Tags             `gorm:"column:tags;type:text" json:"tags"`
	Status        SubmissionStatus `gorm:"column:status;size:30;index;not null;default:draft" json:"status"`
	ViewCount     int64            `gorm:"column:view_count;default:0" json:"view_count"`
	SubmittedAt   *time.Time       `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	PublishedAt   *time.Time       `gorm:"column:published_at" json:"published_at,omitempty"`
	CreatedAt     time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Contributor *User     `gorm:"foreignKey:ContributorID;references:UserID" json:"contributor,omitempty"`
	Category    *Category `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
}

func (Submission) TableName() string {
	return "content_submissions"
}

// IsOwnedBy reports whether userID authored the submission.
func (s *Submission) IsOwnedBy(userID uint) bool {
	return s != nil && s.ContributorID == userID
}

// Tags is a free-form tag set persisted as a JSON array.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]string(t))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (t *Tags) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("tags: unsupported column type")
	}
	if len(raw) == 0 {
		*t = Tags{}
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return err
	}
	*t = items
	return nil
}
