package controllers

import (
	"context"
	"net/http"
	"strconv"

	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

// SubmissionWorkflow is the contributor-facing lifecycle.
type SubmissionWorkflow interface {
	CreateDraft(ctx context.Context, actor services.Actor, input services.DraftInput) (*models.Submission, error)
	UpdateDraft(ctx context.Context, actor services.Actor, id uint, patch services.DraftPatch) (*models.Submission, error)
	DeleteDraft(ctx context.Context, actor services.Actor, id uint) error
	Submit(ctx context.Context, actor services.Actor, id uint) (*models.Submission, error)
	Resubmit(ctx context.Context, actor services.Actor, id uint, comment string) (*models.Submission, error)
	GetSubmission(ctx context.Context, actor services.Actor, id uint) (*services.SubmissionDetail, error)
	ListOwnSubmissions(ctx context.Context, actor services.Actor, status string, page, limit int) ([]models.Submission, int64, error)
	ListPublished(ctx context.Context, query services.PublishedQuery) ([]models.Submission, int64, error)
	SearchPublished(ctx context.Context, q string, page, limit int) ([]models.Submission, int64, error)
	GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error)
}

type SubmissionController struct {
	workflow SubmissionWorkflow
}

func NewSubmissionController(workflow SubmissionWorkflow) *SubmissionController {
	return &SubmissionController{workflow: workflow}
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// Create handles POST /submissions
func (h *SubmissionController) Create(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	var req services.DraftInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	submission, err := h.workflow.CreateDraft(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, submission)
}

// Update handles PUT /submissions/:id
func (h *SubmissionController) Update(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req services.DraftPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	submission, err := h.workflow.UpdateDraft(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, submission)
}

// Delete handles DELETE /submissions/:id
func (h *SubmissionController) Delete(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.workflow.DeleteDraft(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Submission deleted"})
}

// Submit handles POST /submissions/:id/submit
func (h *SubmissionController) Submit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	submission, err := h.workflow.Submit(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, submission)
}

// Resubmit handles POST /submissions/:id/resubmit
func (h *SubmissionController) Resubmit(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	submission, err := h.workflow.Resubmit(c.Request.Context(), actor, id, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, submission)
}

// Get handles GET /submissions/:id
func (h *SubmissionController) Get(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.workflow.GetSubmission(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, detail)
}

// ListMine handles GET /submissions/mine
func (h *SubmissionController) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	items, total, err := h.workflow.ListOwnSubmissions(c.Request.Context(), actor, c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, items, total, page, limit)
}

// ListPublished handles GET /content
func (h *SubmissionController) ListPublished(c *gin.Context) {
	page, limit := pageQuery(c)
	query := services.PublishedQuery{
		ContentType: c.Query("type"),
		Search:      c.Query("q"),
		Page:        page,
		Limit:       limit,
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		categoryID := uint(id)
		query.CategoryID = &categoryID
	}
	items, total, err := h.workflow.ListPublished(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, items, total, page, limit)
}

// Search handles GET /content/search
func (h *SubmissionController) Search(c *gin.Context) {
	page, limit := pageQuery(c)
	items, total, err := h.workflow.SearchPublished(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, items, total, page, limit)
}

// GetBySlug handles GET /content/:slug
func (h *SubmissionController) GetBySlug(c *gin.Context) {
	submission, err := h.workflow.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, submission)
}
