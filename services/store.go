package services

import (
	"context"
	"time"

	"diwan-api/models"
)

// StatusChange is a conditional status write: it only applies while the row
// still holds From.
type StatusChange struct {
	SubmissionID     uint
	From             models.SubmissionStatus
	To               models.SubmissionStatus
	At               time.Time
	SetSubmittedAt   bool
	SetPublishedAt   bool
	ClearPublishedAt bool
}

// DraftUpdate holds the editable fields of a draft; nil means unchanged.
type DraftUpdate struct {
	Title       *string
	Slug        *string
	Body        *string
	CategoryID  *uint
	ContentType *models.ContentType
	Tags        *models.Tags
	UpdatedAt   time.Time
}

// SubmissionFilter narrows submission listings.
type SubmissionFilter struct {
	ContributorID *uint
	Statuses      []models.SubmissionStatus
	CategoryID    *uint
	ContentType   models.ContentType
	Search        string
	OldestFirst   bool
	Limit         int
	Offset        int
}

// SubmissionStore persists submissions and their workflow history.
type SubmissionStore interface {
	// WithinTx runs fn in one transaction; any error rolls everything back.
	WithinTx(ctx context.Context, fn func(tx SubmissionStore) error) error

	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GetSubmission(ctx context.Context, id uint) (*models.Submission, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error)
	SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	CategoryExists(ctx context.Context, categoryID uint) (bool, error)

	// UpdateDraft and DeleteDraft only touch rows still in draft; a miss is ErrConflict.
	UpdateDraft(ctx context.Context, id uint, update DraftUpdate) error
	DeleteDraft(ctx context.Context, id uint) error

	// TransitionStatus returns ErrConflict when the row no longer holds change.From.
	TransitionStatus(ctx context.Context, change StatusChange) error
	AppendHistory(ctx context.Context, entry *models.WorkflowHistory) error
	// ListHistory returns entries most recent first.
	ListHistory(ctx context.Context, submissionID uint) ([]models.WorkflowHistory, error)

	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error)
	CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error)
	AverageSecondsToPublish(ctx context.Context) (*float64, error)
	IncrementViews(ctx context.Context, id uint, delta int64) error
}

// CategoryStore persists the category tree.
type CategoryStore interface {
	WithinTx(ctx context.Context, fn func(tx CategoryStore) error) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	CategorySlugExists(ctx context.Context, slug string, excludeID uint) (bool, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id uint, updates map[string]interface{}) error
	DeleteCategory(ctx context.Context, id uint) error
	CountSubmissionsInCategory(ctx context.Context, categoryID uint) (int64, error)
	ListRecentPublished(ctx context.Context, categoryID uint, limit int) ([]models.Submission, error)
}

// UserFilter narrows user listings.
type UserFilter struct {
	Role   models.Role
	Status string
	Search string
	Limit  int
	Offset int
}

// UserStatistics summarises a user's workflow activity.
type UserStatistics struct {
	TotalSubmissions int64 `json:"total_submissions"`
	PublishedCount   int64 `json:"published_count"`
	ReviewsCount     int64 `json:"reviews_count"`
}

// UserStore persists accounts.
type UserStore interface {
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error)
	ListActiveByRole(ctx context.Context, role models.Role) ([]models.User, error)
	UserStatistics(ctx context.Context, id uint) (*UserStatistics, error)
}

// NotificationStore persists the in-app inbox.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, items []models.Notification) error
	ListNotifications(ctx context.Context, userID uint, unreadOnly bool, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
}
