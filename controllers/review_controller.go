package controllers

import (
	"context"
	"net/http"

	"diwan-api/models"
	"diwan-api/services"

	"github.com/gin-gonic/gin"
)

// ReviewWorkflow is the reviewer-facing side of the workflow.
type ReviewWorkflow interface {
	Decide(ctx context.Context, actor services.Actor, input services.DecisionInput) (*services.TransitionResult, error)
	Publish(ctx context.Context, actor services.Actor, id uint) (*services.TransitionResult, error)
	Unpublish(ctx context.Context, actor services.Actor, id uint, comment string) (*services.TransitionResult, error)
	GetHistory(ctx context.Context, submissionID uint) ([]models.WorkflowHistory, error)
	ListPendingReviews(ctx context.Context, actor services.Actor, page, limit int) ([]models.Submission, int64, error)
	PendingCount(ctx context.Context, role models.Role) (int64, error)
	Statistics(ctx context.Context) (*services.WorkflowStatistics, error)
}

// SubmissionReader lets the history endpoint apply the read policy.
type SubmissionReader interface {
	GetSubmission(ctx context.Context, actor services.Actor, id uint) (*services.SubmissionDetail, error)
}

type ReviewController struct {
	reviews ReviewWorkflow
	reader  SubmissionReader
}

func NewReviewController(reviews ReviewWorkflow, reader SubmissionReader) *ReviewController {
	return &ReviewController{reviews: reviews, reader: reader}
}

type decisionRequest struct {
	Decision       string `json:"decision" binding:"required"`
	Comment        string `json:"comment"`
	ExpectedStatus string `json:"expected_status"`
}

// Decide handles POST /reviews/:id/decision
func (h *ReviewController) Decide(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result, err := h.reviews.Decide(c.Request.Context(), actor, services.DecisionInput{
		SubmissionID:   id,
		Decision:       req.Decision,
		Comment:        req.Comment,
		ExpectedStatus: req.ExpectedStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Publish handles POST /admin/submissions/:id/publish
func (h *ReviewController) Publish(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.reviews.Publish(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Unpublish handles POST /admin/submissions/:id/unpublish
func (h *ReviewController) Unpublish(c *gin.Context) {
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
	result, err := h.reviews.Unpublish(c.Request.Context(), actor, id, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// History handles GET /submissions/:id/history
func (h *ReviewController) History(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.reader.GetSubmission(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}
	history, err := h.reviews.GetHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, history)
}

// Pending handles GET /reviews/pending
func (h *ReviewController) Pending(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	page, limit := pageQuery(c)
	items, total, err := h.reviews.ListPendingReviews(c.Request.Context(), actor, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	paginated(c, items, total, page, limit)
}

// PendingCount handles GET /reviews/pending/count
func (h *ReviewController) PendingCount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	count, err := h.reviews.PendingCount(c.Request.Context(), actor.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
}

// Statistics handles GET /admin/statistics
func (h *ReviewController) Statistics(c *gin.Context) {
	stats, err := h.reviews.Statistics(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}
