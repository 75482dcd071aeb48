package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"diwan-api/models"
	"diwan-api/utils"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("diwan-api/services")

// DefaultCommentMaxLength bounds reviewer comments, in characters.
const DefaultCommentMaxLength = 1000

// TransitionResult is what a committed transition returns for display.
type TransitionResult struct {
	Status     models.SubmissionStatus `json:"status"`
	Submission models.Submission       `json:"submission"`
	Entry      models.WorkflowHistory  `json:"history_entry"`
}

// WorkflowOptions configures both the lifecycle and the review services.
type WorkflowOptions struct {
	Rules            WorkflowRules
	CommentMaxLength int
	Dispatcher       EventDispatcher
	Logger           zerolog.Logger
	Now              func() time.Time
}

func (o WorkflowOptions) withDefaults() WorkflowOptions {
	if o.CommentMaxLength <= 0 {
		o.CommentMaxLength = DefaultCommentMaxLength
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type transitionRequest struct {
	SubmissionID uint
	Actor        Actor
	Action       models.WorkflowAction
	Permission   Permission
	Comment      string
	// Expected, when set, is the status the caller last saw.
	Expected *models.SubmissionStatus
	// guard runs against the loaded row before the engine is consulted.
	guard func(*models.Submission) error
}

// transitioner performs the read-check-write cycle shared by every workflow step.
type transitioner struct {
	store   SubmissionStore
	options WorkflowOptions
}

func (t *transitioner) apply(ctx context.Context, req transitionRequest) (*TransitionResult, error) {
	ctx, span := tracer.Start(ctx, "workflow."+string(req.Action), trace.WithAttributes(
		attribute.Int64("submission.id", int64(req.SubmissionID)),
		attribute.Int64("actor.id", int64(req.Actor.ID)),
		attribute.String("actor.role", string(req.Actor.Role)),
	))
	defer span.End()

	result, err := t.run(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		t.logFailure(req, err)
		return nil, err
	}
	t.committed(ctx, req, result)
	return result, nil
}

// committed records and announces a transition once its transaction is done.
func (t *transitioner) committed(ctx context.Context, req transitionRequest, result *TransitionResult) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("workflow.from", string(result.Entry.FromStatus)),
		attribute.String("workflow.to", string(result.Entry.ToStatus)),
	)

	t.options.Logger.Info().
		Uint("submission_id", req.SubmissionID).
		Uint("actor_id", req.Actor.ID).
		Str("action", string(req.Action)).
		Str("from", string(result.Entry.FromStatus)).
		Str("to", string(result.Entry.ToStatus)).
		Msg("workflow transition committed")

	if t.options.Dispatcher != nil {
		t.options.Dispatcher.Dispatch(ctx, result)
	}
}

func (t *transitioner) run(ctx context.Context, req transitionRequest) (*TransitionResult, error) {
	if !req.Actor.Active {
		return nil, forbidden("account is not active")
	}
	comment := strings.TrimSpace(req.Comment)
	if utils.RuneLength(comment) > t.options.CommentMaxLength {
		return nil, invalid("comment", "comment must not exceed "+strconv.Itoa(t.options.CommentMaxLength)+" characters")
	}

	var result *TransitionResult
	err := t.store.WithinTx(ctx, func(tx SubmissionStore) error {
		var err error
		result, err = t.runIn(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, internal("apply workflow transition", err)
	}
	return result, nil
}

// runIn performs the transition inside an open transaction.
func (t *transitioner) runIn(ctx context.Context, tx SubmissionStore, req transitionRequest) (*TransitionResult, error) {
	submission, err := tx.GetSubmission(ctx, req.SubmissionID)
	if err != nil {
		return nil, err
	}
	if req.Expected != nil && submission.Status != *req.Expected {
		return nil, conflict("submission %d changed to %s since it was viewed as %s", submission.SubmissionID, submission.Status, *req.Expected)
	}
	if req.guard != nil {
		if err := req.guard(submission); err != nil {
			return nil, err
		}
	}

	next, err := t.options.Rules.Next(submission.Status, req.Actor.Role, req.Action)
	if err != nil {
		return nil, err
	}
	if err := Authorize(req.Actor, req.Permission, ResourceOf(submission)); err != nil {
		return nil, err
	}

	now := t.options.Now()
	change := StatusChange{
		SubmissionID:     submission.SubmissionID,
		From:             next.From,
		To:               next.To,
		At:               now,
		SetSubmittedAt:   next.To == models.StatusSubmitted,
		SetPublishedAt:   next.To == models.StatusPublished,
		ClearPublishedAt: next.From == models.StatusPublished,
	}
	if err := tx.TransitionStatus(ctx, change); err != nil {
		return nil, err
	}

	reviewerID := req.Actor.ID
	entry := models.WorkflowHistory{
		SubmissionID: submission.SubmissionID,
		ReviewerID:   &reviewerID,
		Action:       next.Action,
		FromStatus:   next.From,
		ToStatus:     next.To,
		CreatedAt:    now,
	}
	if comment := strings.TrimSpace(req.Comment); comment != "" {
		entry.Comments = &comment
	}
	if err := tx.AppendHistory(ctx, &entry); err != nil {
		return nil, err
	}

	submission.Status = next.To
	submission.UpdatedAt = now
	if change.SetSubmittedAt {
		submission.SubmittedAt = &now
	}
	if change.SetPublishedAt {
		submission.PublishedAt = &now
	}
	if change.ClearPublishedAt {
		submission.PublishedAt = nil
	}
	return &TransitionResult{Status: next.To, Submission: *submission, Entry: entry}, nil
}

func (t *transitioner) logFailure(req transitionRequest, err error) {
	event := t.options.Logger.Debug()
	if errors.Is(err, ErrInternal) {
		event = t.options.Logger.Error()
	}
	event.Err(err).
		Uint("submission_id", req.SubmissionID).
		Uint("actor_id", req.Actor.ID).
		Str("action", string(req.Action)).
		Msg("workflow transition refused")
}
