package services

import (
	"context"
	"strconv"
	"strings"

	"diwan-api/models"
)

// DecisionInput is a reviewer's verdict on one submission.
type DecisionInput struct {
	SubmissionID uint
	Decision     string
	Comment      string
	// ExpectedStatus is the status the reviewer saw; a mismatch is a conflict.
	ExpectedStatus string
}

// WorkflowStatistics summarises the queue.
type WorkflowStatistics struct {
	ByStatus            map[models.SubmissionStatus]int64 `json:"by_status"`
	Total               int64                             `json:"total"`
	AvgSecondsToPublish *float64                          `json:"avg_seconds_to_publish"`
}

// ReviewService runs the reviewer side of the workflow.
type ReviewService struct {
	store   SubmissionStore
	options WorkflowOptions
	flow    *transitioner
}

func NewReviewService(store SubmissionStore, opts WorkflowOptions) *ReviewService {
	opts = opts.withDefaults()
	return &ReviewService{
		store:   store,
		options: opts,
		flow:    &transitioner{store: store, options: opts},
	}
}

// Decide applies approve, reject or request_changes. The status change and its
// history row commit together or not at all.
func (s *ReviewService) Decide(ctx context.Context, actor Actor, input DecisionInput) (*TransitionResult, error) {
	decision, ok := models.ParseDecision(input.Decision)
	if !ok {
		return nil, invalid("decision", "decision must be approve, reject or request_changes")
	}
	req := transitionRequest{
		SubmissionID: input.SubmissionID,
		Actor:        actor,
		Action:       decision.Action(),
		Permission:   PermDecide,
		Comment:      input.Comment,
	}
	if raw := strings.TrimSpace(input.ExpectedStatus); raw != "" {
		expected, ok := models.ParseStatus(raw)
		if !ok {
			return nil, invalid("expected_status", "unknown status "+strconv.Quote(raw))
		}
		req.Expected = &expected
	}
	return s.flow.apply(ctx, req)
}

// Publish makes an approved submission public. Admin only.
func (s *ReviewService) Publish(ctx context.Context, actor Actor, id uint) (*TransitionResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, forbidden("only administrators publish content")
	}
	return s.flow.apply(ctx, transitionRequest{
		SubmissionID: id,
		Actor:        actor,
		Action:       models.ActionPublish,
		Permission:   PermPublish,
	})
}

// Unpublish withdraws published content back to draft. Admin only.
func (s *ReviewService) Unpublish(ctx context.Context, actor Actor, id uint, comment string) (*TransitionResult, error) {
	if actor.Role != models.RoleAdmin {
		return nil, forbidden("only administrators unpublish content")
	}
	return s.flow.apply(ctx, transitionRequest{
		SubmissionID: id,
		Actor:        actor,
		Action:       models.ActionUnpublish,
		Permission:   PermUnpublish,
		Comment:      comment,
	})
}

// GetHistory returns the audit trail, most recent first. It never writes.
func (s *ReviewService) GetHistory(ctx context.Context, submissionID uint) ([]models.WorkflowHistory, error) {
	if _, err := s.store.GetSubmission(ctx, submissionID); err != nil {
		return nil, internal("load submission", err)
	}
	history, err := s.store.ListHistory(ctx, submissionID)
	if err != nil {
		return nil, internal("load history", err)
	}
	return history, nil
}

// pendingStatuses lists the statuses waiting on the role.
func (s *ReviewService) pendingStatuses(role models.Role) []models.SubmissionStatus {
	statuses := s.options.Rules.ActionableStatuses(role, models.ActionApprove)
	for _, status := range s.options.Rules.ActionableStatuses(role, models.ActionPublish) {
		statuses = appendStatus(statuses, status)
	}
	return statuses
}

// ListPendingReviews pages through the actor's review queue, oldest first.
func (s *ReviewService) ListPendingReviews(ctx context.Context, actor Actor, page, limit int) ([]models.Submission, int64, error) {
	if !actor.Active {
		return nil, 0, forbidden("account is not active")
	}
	statuses := s.pendingStatuses(actor.Role)
	if len(statuses) == 0 {
		return nil, 0, forbidden("role %s has no review queue", actor.Role)
	}
	filter := SubmissionFilter{Statuses: statuses, OldestFirst: true}
	filter.Limit, filter.Offset = pageWindow(page, limit)
	items, total, err := s.store.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, 0, internal("list pending reviews", err)
	}
	return items, total, nil
}

// PendingCount is the size of a role's queue.
func (s *ReviewService) PendingCount(ctx context.Context, role models.Role) (int64, error) {
	statuses := s.pendingStatuses(role)
	if len(statuses) == 0 {
		return 0, nil
	}
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return 0, internal("count pending reviews", err)
	}
	var total int64
	for _, status := range statuses {
		total += counts[status]
	}
	return total, nil
}

// Statistics counts submissions per status and the mean time to publish.
func (s *ReviewService) Statistics(ctx context.Context) (*WorkflowStatistics, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, internal("count submissions", err)
	}
	avg, err := s.store.AverageSecondsToPublish(ctx)
	if err != nil {
		return nil, internal("average publish time", err)
	}
	stats := &WorkflowStatistics{ByStatus: counts, AvgSecondsToPublish: avg}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
