package controllers

import (
	"context"
	"net/http"

	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

// Categories manages the category tree.
type Categories interface {
	List(ctx context.Context) ([]models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*services.CategoryDetail, error)
	Create(ctx context.Context, actor services.Actor, input services.CategoryInput) (*models.Category, error)
	Update(ctx context.Context, actor services.Actor, id uint, patch services.CategoryPatch) (*models.Category, error)
	Delete(ctx context.Context, actor services.Actor, id uint) error
}

type CategoryController struct {
	categories Categories
}

func NewCategoryController(categories Categories) *CategoryController {
	return &CategoryController{categories: categories}
}

func (h *CategoryController) List(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": categories, "count": len(categories)})
}

func (h *CategoryController) GetBySlug(c *gin.Context) {
	detail, err := h.categories.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

func (h *CategoryController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.categories.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, category)
}

func (h *CategoryController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.CategoryPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	category, err := h.categories.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, category)
}

func (h *CategoryController) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.categories.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Category deleted"})
}
