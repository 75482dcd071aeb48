package services

import (
	"context"
	"errors"
	"strings"

	"diwan-api/models"

	"gorm.io/gorm"
)

// UserRepository is the gorm-backed UserStore.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user %d not found", id)
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	return &user, nil
}

func (r *UserRepository) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", login, login).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user not found")
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	return &user, nil
}

func (r *UserRepository) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error; err != nil {
		return false, internal("check user", err)
	}
	return count > 0, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return internal("create user", err)
	}
	return nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("user_id = ?", id).Updates(updates)
	if res.Error != nil {
		return internal("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("user %d not found", id)
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("(full_name LIKE ? OR email LIKE ? OR username LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal("count users", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	var users []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&users).Error; err != nil {
		return nil, 0, internal("list users", err)
	}
	return users, total, nil
}

func (r *UserRepository) ListActiveByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where("role = ? AND status = ?", role, models.UserStatusActive).
		Find(&users).Error; err != nil {
		return nil, internal("list users by role", err)
	}
	return users, nil
}

func (r *UserRepository) UserStatistics(ctx context.Context, id uint) (*UserStatistics, error) {
	stats := &UserStatistics{}
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.Submission{}).Where("contributor_id = ?", id).Count(&stats.TotalSubmissions).Error; err != nil {
		return nil, internal("count user submissions", err)
	}
	if err := db.Model(&models.Submission{}).
		Where("contributor_id = ? AND status = ?", id, models.StatusPublished).
		Count(&stats.PublishedCount).Error; err != nil {
		return nil, internal("count user publications", err)
	}
	if err := db.Model(&models.WorkflowHistory{}).
		Where("reviewer_id = ? AND action IN ?", id, []models.WorkflowAction{
			models.ActionApprove, models.ActionReject, models.ActionRequestChanges,
		}).
		Count(&stats.ReviewsCount).Error; err != nil {
		return nil, internal("count user reviews", err)
	}
	return stats, nil
}
