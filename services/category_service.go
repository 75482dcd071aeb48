package services

import (
	"context"
	"errors"
	"strings"

	"diwan-api/models"
	"diwan-api/utils"

	"github.com/rs/zerolog"
)

// CategoryInput creates a category.
type CategoryInput struct {
	NameAr           string  `json:"name_ar"`
	NameEn           *string `json:"name_en"`
	Slug             string  `json:"slug"`
	DescriptionAr    *string `json:"description_ar"`
	DescriptionEn    *string `json:"description_en"`
	ParentCategoryID *uint   `json:"parent_category_id"`
	DisplayOrder     int     `json:"display_order"`
}

// CategoryPatch edits a category; nil leaves a field alone. ClearParent moves
// the category to the top level.
type CategoryPatch struct {
	NameAr           *string `json:"name_ar"`
	NameEn           *string `json:"name_en"`
	Slug             *string `json:"slug"`
	DescriptionAr    *string `json:"description_ar"`
	DescriptionEn    *string `json:"description_en"`
	ParentCategoryID *uint   `json:"parent_category_id"`
	ClearParent      bool    `json:"clear_parent"`
	DisplayOrder     *int    `json:"display_order"`
}

// CategoryDetail is a category with a preview of its newest published content.
type CategoryDetail struct {
	Category models.Category     `json:"category"`
	Recent   []models.Submission `json:"recent"`
}

const recentContentLimit = 10

// maxCategoryDepth bounds the ancestor walk when checking for cycles.
const maxCategoryDepth = 64

type CategoryService struct {
	store  CategoryStore
	logger zerolog.Logger
}

func NewCategoryService(store CategoryStore, logger zerolog.Logger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, internal("list categories", err)
	}
	return categories, nil
}

func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*CategoryDetail, error) {
	category, err := s.store.GetCategoryBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, internal("load category", err)
	}
	recent, err := s.store.ListRecentPublished(ctx, category.CategoryID, recentContentLimit)
	if err != nil {
		return nil, internal("list category content", err)
	}
	return &CategoryDetail{Category: *category, Recent: recent}, nil
}

func (s *CategoryService) Create(ctx context.Context, actor Actor, input CategoryInput) (*models.Category, error) {
	if err := Authorize(actor, PermManageCategories, Resource{}); err != nil {
		return nil, err
	}

	category := models.Category{
		NameAr:           utils.SanitizeInput(input.NameAr),
		NameEn:           trimmedPtr(input.NameEn),
		Slug:             strings.ToLower(strings.TrimSpace(input.Slug)),
		DescriptionAr:    trimmedPtr(input.DescriptionAr),
		DescriptionEn:    trimmedPtr(input.DescriptionEn),
		ParentCategoryID: input.ParentCategoryID,
		DisplayOrder:     input.DisplayOrder,
	}
	problems := validationErrors{}
	if category.NameAr == "" || utils.RuneLength(category.NameAr) > 100 {
		problems.add("name_ar", "arabic name is required and must be at most 100 characters")
	}
	if !utils.ValidateCategorySlug(category.Slug) {
		problems.add("slug", "slug must be lowercase letters and digits joined by hyphens")
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(tx CategoryStore) error {
		taken, err := tx.CategorySlugExists(ctx, category.Slug, 0)
		if err != nil {
			return err
		}
		if taken {
			return conflict("category slug %q is already in use", category.Slug)
		}
		if category.ParentCategoryID != nil {
			if _, err := tx.GetCategory(ctx, *category.ParentCategoryID); err != nil {
				return parentError(err)
			}
		}
		return tx.CreateCategory(ctx, &category)
	})
	if err != nil {
		return nil, internal("create category", err)
	}
	s.logger.Info().Uint("category_id", category.CategoryID).Str("slug", category.Slug).Msg("category created")
	return &category, nil
}

func (s *CategoryService) Update(ctx context.Context, actor Actor, id uint, patch CategoryPatch) (*models.Category, error) {
	if err := Authorize(actor, PermManageCategories, Resource{}); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	problems := validationErrors{}
	if patch.NameAr != nil {
		name := utils.SanitizeInput(*patch.NameAr)
		if name == "" || utils.RuneLength(name) > 100 {
			problems.add("name_ar", "arabic name is required and must be at most 100 characters")
		}
		updates["name_ar"] = name
	}
	if patch.NameEn != nil {
		updates["name_en"] = trimmedPtr(patch.NameEn)
	}
	if patch.DescriptionAr != nil {
		updates["description_ar"] = trimmedPtr(patch.DescriptionAr)
	}
	if patch.DescriptionEn != nil {
		updates["description_en"] = trimmedPtr(patch.DescriptionEn)
	}
	if patch.DisplayOrder != nil {
		updates["display_order"] = *patch.DisplayOrder
	}
	var slug string
	if patch.Slug != nil {
		slug = strings.ToLower(strings.TrimSpace(*patch.Slug))
		if !utils.ValidateCategorySlug(slug) {
			problems.add("slug", "slug must be lowercase letters and digits joined by hyphens")
		}
		updates["slug"] = slug
	}
	if patch.ClearParent {
		updates["parent_category_id"] = nil
	} else if patch.ParentCategoryID != nil {
		if *patch.ParentCategoryID == id {
			problems.add("parent_category_id", "a category cannot be its own parent")
		}
		updates["parent_category_id"] = *patch.ParentCategoryID
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	var updated *models.Category
	err := s.store.WithinTx(ctx, func(tx CategoryStore) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		if patch.Slug != nil {
			taken, err := tx.CategorySlugExists(ctx, slug, id)
			if err != nil {
				return err
			}
			if taken {
				return conflict("category slug %q is already in use", slug)
			}
		}
		if !patch.ClearParent && patch.ParentCategoryID != nil {
			if err := s.checkParent(ctx, tx, id, *patch.ParentCategoryID); err != nil {
				return err
			}
		}
		if len(updates) > 0 {
			if err := tx.UpdateCategory(ctx, id, updates); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.GetCategory(ctx, id)
		return err
	})
	if err != nil {
		return nil, internal("update category", err)
	}
	return updated, nil
}

// checkParent rejects a parent that does not exist or that descends from id.
func (s *CategoryService) checkParent(ctx context.Context, tx CategoryStore, id, parentID uint) error {
	current := parentID
	for depth := 0; depth < maxCategoryDepth; depth++ {
		if current == id {
			return invalid("parent_category_id", "a category cannot be moved under its own descendant")
		}
		parent, err := tx.GetCategory(ctx, current)
		if err != nil {
			if depth == 0 {
				return parentError(err)
			}
			return err
		}
		if parent.ParentCategoryID == nil {
			return nil
		}
		current = *parent.ParentCategoryID
	}
	return invalid("parent_category_id", "category tree is too deep")
}

// Delete removes a category that no submission references.
func (s *CategoryService) Delete(ctx context.Context, actor Actor, id uint) error {
	if err := Authorize(actor, PermManageCategories, Resource{}); err != nil {
		return err
	}
	err := s.store.WithinTx(ctx, func(tx CategoryStore) error {
		if _, err := tx.GetCategory(ctx, id); err != nil {
			return err
		}
		count, err := tx.CountSubmissionsInCategory(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return conflict("category %d is used by %d submissions", id, count)
		}
		all, err := tx.ListCategories(ctx)
		if err != nil {
			return err
		}
		for _, other := range all {
			if other.ParentCategoryID != nil && *other.ParentCategoryID == id {
				return conflict("category %d still has subcategories", id)
			}
		}
		return tx.DeleteCategory(ctx, id)
	})
	if err != nil {
		return internal("delete category", err)
	}
	s.logger.Info().Uint("category_id", id).Uint("actor_id", actor.ID).Msg("category deleted")
	return nil
}

func parentError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return invalid("parent_category_id", "parent category does not exist")
	}
	return err
}

func trimmedPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
