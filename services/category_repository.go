package services

import (
	"context"
	"errors"

	"diwan-api/models"

	"gorm.io/gorm"
)

// CategoryRepository is the gorm-backed CategoryStore.
type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) WithinTx(ctx context.Context, fn func(tx CategoryStore) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&CategoryRepository{db: tx})
	})
}

func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).
		Order("display_order ASC, name_ar ASC").
		Find(&categories).Error; err != nil {
		return nil, internal("list categories", err)
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Select("category_id, COUNT(*) AS total").
		Where("status = ?", models.StatusPublished).
		Group("category_id").
		Scan(&counts).Error; err != nil {
		return nil, internal("count category content", err)
	}

	byID := make(map[uint]int64, len(counts))
	for _, row := range counts {
		byID[row.CategoryID] = row.Total
	}
	for i := range categories {
		categories[i].ContentCount = byID[categories[i].CategoryID]
	}
	return categories, nil
}

func (r *CategoryRepository) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	return r.first(ctx, "category_id = ?", id)
}

func (r *CategoryRepository) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	category, err := r.first(ctx, "slug = ?", slug)
	if err != nil {
		return nil, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("category_id = ? AND status = ?", category.CategoryID, models.StatusPublished).
		Count(&count).Error; err != nil {
		return nil, internal("count category content", err)
	}
	category.ContentCount = count
	return category, nil
}

func (r *CategoryRepository) first(ctx context.Context, query string, arg interface{}) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Where(query, arg).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("category not found")
	}
	if err != nil {
		return nil, internal("load category", err)
	}
	return &category, nil
}

func (r *CategoryRepository) CategorySlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("category_id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, internal("check category slug", err)
	}
	return count > 0, nil
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return internal("create category", err)
	}
	return nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id uint, updates map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("category_id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return internal("update category", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("category %d not found", id)
	}
	return nil
}

func (r *CategoryRepository) DeleteCategory(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Where("category_id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return internal("delete category", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("category %d not found", id)
	}
	return nil
}

func (r *CategoryRepository) CountSubmissionsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error; err != nil {
		return 0, internal("count category submissions", err)
	}
	return count, nil
}

func (r *CategoryRepository) ListRecentPublished(ctx context.Context, categoryID uint, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 10
	}
	var items []models.Submission
	if err := r.db.WithContext(ctx).
		Where("category_id = ? AND status = ?", categoryID, models.StatusPublished).
		Order("published_at DESC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, internal("list category content", err)
	}
	return items, nil
}
