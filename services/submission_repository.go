package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"diwan-api/models"

	"gorm.io/gorm"
)

// SubmissionRepository is the gorm-backed SubmissionStore.
type SubmissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

func (r *SubmissionRepository) WithinTx(ctx context.Context, fn func(tx SubmissionStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&SubmissionRepository{db: tx})
	})
}

func (r *SubmissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	if err := r.db.WithContext(ctx).Create(submission).Error; err != nil {
		return internal("create submission", err)
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id uint) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("submission %d not found", id)
	}
	if err != nil {
		return nil, internal("load submission", err)
	}
	return &submission, nil
}

func (r *SubmissionRepository) GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Contributor").
		Preload("Category").
		Where("slug = ? AND status = ?", slug, models.StatusPublished).
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("content %q not found", slug)
	}
	if err != nil {
		return nil, internal("load published content", err)
	}
	return &submission, nil
}

func (r *SubmissionRepository) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Submission{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("submission_id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, internal("check slug", err)
	}
	return count > 0, nil
}

func (r *SubmissionRepository) CategoryExists(ctx context.Context, categoryID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return false, internal("check category", err)
	}
	return count > 0, nil
}

func (r *SubmissionRepository) UpdateDraft(ctx context.Context, id uint, update DraftUpdate) error {
	updates := map[string]interface{}{
		"updated_at": update.UpdatedAt,
	}
	if update.Title != nil {
		updates["title"] = *update.Title
	}
	if update.Slug != nil {
		updates["slug"] = *update.Slug
	}
	if update.Body != nil {
		updates["body"] = *update.Body
	}
	if update.CategoryID != nil {
		updates["category_id"] = *update.CategoryID
	}
	if update.ContentType != nil {
		updates["content_type"] = *update.ContentType
	}
	if update.Tags != nil {
		updates["tags"] = *update.Tags
	}

	res := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", id, models.StatusDraft).
		Updates(updates)
	if res.Error != nil {
		return internal("update draft", res.Error)
	}
	if res.RowsAffected == 0 {
		return conflict("submission %d is no longer a draft", id)
	}
	return nil
}

func (r *SubmissionRepository) DeleteDraft(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).
		Where("submission_id = ? AND status = ?", id, models.StatusDraft).
		Delete(&models.Submission{})
	if res.Error != nil {
		return internal("delete draft", res.Error)
	}
	if res.RowsAffected == 0 {
		return conflict("submission %d is no longer a draft", id)
	}
	return nil
}

func (r *SubmissionRepository) TransitionStatus(ctx context.Context, change StatusChange) error {
	updates := map[string]interface{}{
		"status":     change.To,
		"updated_at": change.At,
	}
	if change.SetSubmittedAt {
		updates["submitted_at"] = change.At
	}
	if change.SetPublishedAt {
		updates["published_at"] = change.At
	}
	if change.ClearPublishedAt {
		updates["published_at"] = nil
	}

	res := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submission_id = ? AND status = ?", change.SubmissionID, change.From).
		Updates(updates)
	if res.Error != nil {
		return internal("update submission status", res.Error)
	}
	if res.RowsAffected == 0 {
		return conflict("submission %d is no longer %s", change.SubmissionID, change.From)
	}
	return nil
}

func (r *SubmissionRepository) AppendHistory(ctx context.Context, entry *models.WorkflowHistory) error {
	if err := r.db.WithContext(ctx).Omit("Reviewer").Create(entry).Error; err != nil {
		return internal("append workflow history", err)
	}
	return nil
}

func (r *SubmissionRepository) ListHistory(ctx context.Context, submissionID uint) ([]models.WorkflowHistory, error) {
	var entries []models.WorkflowHistory
	if err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("submission_id = ?", submissionID).
		Order("created_at DESC, history_id DESC").
		Find(&entries).Error; err != nil {
		return nil, internal("load workflow history", err)
	}
	return entries, nil
}

func (r *SubmissionRepository) ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]models.Submission, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Submission{})
	if filter.ContributorID != nil {
		q = q.Where("contributor_id = ?", *filter.ContributorID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.CategoryID != nil {
		q = q.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ContentType != "" {
		q = q.Where("content_type = ?", filter.ContentType)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("(title LIKE ? OR body LIKE ?)", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, internal("count submissions", err)
	}

	order := "created_at DESC, submission_id DESC"
	if filter.OldestFirst {
		order = "created_at ASC, submission_id ASC"
	}
	if len(filter.Statuses) == 1 && filter.Statuses[0] == models.StatusPublished && !filter.OldestFirst {
		order = "published_at DESC, submission_id DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var items []models.Submission
	if err := q.Preload("Contributor").Preload("Category").
		Order(order).Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, internal("list submissions", err)
	}
	return items, total, nil
}

func (r *SubmissionRepository) CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error) {
	var rows []struct {
		Status models.SubmissionStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, internal("count submissions by status", err)
	}

	counts := make(map[models.SubmissionStatus]int64, len(models.AllStatuses))
	for _, status := range models.AllStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func (r *SubmissionRepository) AverageSecondsToPublish(ctx context.Context) (*float64, error) {
	var avg sql.NullFloat64
	if err := r.db.WithContext(ctx).
		Raw("SELECT AVG(TIMESTAMPDIFF(SECOND, created_at, published_at)) FROM content_submissions WHERE published_at IS NOT NULL").
		Scan(&avg).Error; err != nil {
		return nil, internal("average time to publish", err)
	}
	if !avg.Valid {
		return nil, nil
	}
	return &avg.Float64, nil
}

func (r *SubmissionRepository) IncrementViews(ctx context.Context, id uint, delta int64) error {
	if delta <= 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("submission_id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", delta)).Error; err != nil {
		return internal("increment view count", err)
	}
	return nil
}
