package services

import (
	"context"
	"strconv"
	"strings"

	"diwan-api/models"
	"diwan-api/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	titleMinLength = 5
	titleMaxLength = 200
	bodyMinLength  = 50
	maxTags        = 20
	tagMaxLength   = 50
	// slugAttempts bounds the numeric disambiguation loop after the timestamp suffix collides.
	slugAttempts = 20
	minSearchLen = 2
)

// DraftInput is the payload for a new submission.
type DraftInput struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	CategoryID  uint     `json:"category_id"`
	ContentType string   `json:"content_type"`
	Tags        []string `json:"tags"`
	// Submit sends the draft to review in the same transaction.
	Submit bool `json:"submit"`
}

// DraftPatch carries the fields a contributor edits; nil leaves a field alone.
type DraftPatch struct {
	Title       *string   `json:"title"`
	Body        *string   `json:"body"`
	CategoryID  *uint     `json:"category_id"`
	ContentType *string   `json:"content_type"`
	Tags        *[]string `json:"tags"`
}

// PublishedQuery filters the public listing.
type PublishedQuery struct {
	CategoryID  *uint
	ContentType string
	Search      string
	Page        int
	Limit       int
}

// SubmissionDetail is a submission together with its audit trail.
type SubmissionDetail struct {
	Submission models.Submission        `json:"submission"`
	History    []models.WorkflowHistory `json:"history"`
}

// ViewTracker records anonymous reads of published content.
type ViewTracker interface {
	Track(ctx context.Context, submissionID uint) error
}

// SubmissionService manages a submission from draft to review and serves
// published content.
type SubmissionService struct {
	store   SubmissionStore
	options WorkflowOptions
	flow    *transitioner
	views   ViewTracker
}

func NewSubmissionService(store SubmissionStore, views ViewTracker, opts WorkflowOptions) *SubmissionService {
	opts = opts.withDefaults()
	return &SubmissionService{
		store:   store,
		options: opts,
		flow:    &transitioner{store: store, options: opts},
		views:   views,
	}
}

// CreateDraft stores a new draft owned by the actor, optionally submitting it.
func (s *SubmissionService) CreateDraft(ctx context.Context, actor Actor, input DraftInput) (*models.Submission, error) {
	ctx, span := tracer.Start(ctx, "workflow.create", trace.WithAttributes(
		attribute.Int64("actor.id", int64(actor.ID)),
	))
	defer span.End()

	if !actor.Active {
		return nil, forbidden("account is not active")
	}
	if actor.Role != models.RoleContributor {
		return nil, forbidden("only contributors create submissions")
	}

	title := utils.SanitizeInput(input.Title)
	body := strings.TrimSpace(input.Body)
	problems := validationErrors{}
	validateTitle(problems, title)
	validateBody(problems, body)
	contentType, ok := models.ParseContentType(input.ContentType)
	if !ok {
		problems.add("content_type", "content type must be term or article")
	}
	if input.CategoryID == 0 {
		problems.add("category_id", "category is required")
	}
	tags, tagErr := normalizeTags(input.Tags)
	if tagErr != "" {
		problems.add("tags", tagErr)
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	var (
		created *models.Submission
		result  *TransitionResult
		submit  transitionRequest
	)
	err := s.store.WithinTx(ctx, func(tx SubmissionStore) error {
		exists, err := tx.CategoryExists(ctx, input.CategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return invalid("category_id", "category does not exist")
		}

		now := s.options.Now()
		slug, err := s.uniqueSlug(ctx, tx, title, 0)
		if err != nil {
			return err
		}
		created = &models.Submission{
			ContributorID: actor.ID,
			CategoryID:    input.CategoryID,
			Title:         title,
			Slug:          slug,
			Body:          body,
			ContentType:   contentType,
			Tags:          tags,
			Status:        models.StatusDraft,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.CreateSubmission(ctx, created); err != nil {
			return err
		}
		if !input.Submit {
			return nil
		}

		submit = transitionRequest{
			SubmissionID: created.SubmissionID,
			Actor:        actor,
			Action:       models.ActionSubmit,
			Permission:   PermSubmit,
		}
		result, err = s.flow.runIn(ctx, tx, submit)
		return err
	})
	if err != nil {
		return nil, internal("create submission", err)
	}

	s.options.Logger.Info().
		Uint("submission_id", created.SubmissionID).
		Uint("actor_id", actor.ID).
		Str("slug", created.Slug).
		Msg("submission created")
	if result != nil {
		s.flow.committed(ctx, submit, result)
		return &result.Submission, nil
	}
	return created, nil
}

// UpdateDraft edits a draft. Only its author may, and only while it is a draft.
func (s *SubmissionService) UpdateDraft(ctx context.Context, actor Actor, id uint, patch DraftPatch) (*models.Submission, error) {
	problems := validationErrors{}
	update := DraftUpdate{}
	var newTitle string
	if patch.Title != nil {
		newTitle = utils.SanitizeInput(*patch.Title)
		validateTitle(problems, newTitle)
		update.Title = &newTitle
	}
	if patch.Body != nil {
		body := strings.TrimSpace(*patch.Body)
		validateBody(problems, body)
		update.Body = &body
	}
	if patch.ContentType != nil {
		contentType, ok := models.ParseContentType(*patch.ContentType)
		if !ok {
			problems.add("content_type", "content type must be term or article")
		}
		update.ContentType = &contentType
	}
	if patch.CategoryID != nil {
		if *patch.CategoryID == 0 {
			problems.add("category_id", "category is required")
		}
		update.CategoryID = patch.CategoryID
	}
	if patch.Tags != nil {
		tags, tagErr := normalizeTags(*patch.Tags)
		if tagErr != "" {
			problems.add("tags", tagErr)
		}
		update.Tags = &tags
	}
	if err := problems.err(); err != nil {
		return nil, err
	}

	var updated *models.Submission
	err := s.store.WithinTx(ctx, func(tx SubmissionStore) error {
		submission, err := s.ownedDraft(ctx, tx, actor, id, PermUpdate)
		if err != nil {
			return err
		}
		if update.CategoryID != nil && *update.CategoryID != submission.CategoryID {
			exists, err := tx.CategoryExists(ctx, *update.CategoryID)
			if err != nil {
				return err
			}
			if !exists {
				return invalid("category_id", "category does not exist")
			}
		}
		if update.Title != nil && newTitle != submission.Title {
			slug, err := s.uniqueSlug(ctx, tx, newTitle, submission.SubmissionID)
			if err != nil {
				return err
			}
			update.Slug = &slug
		}
		update.UpdatedAt = s.options.Now()
		if err := tx.UpdateDraft(ctx, id, update); err != nil {
			return err
		}
		updated, err = tx.GetSubmission(ctx, id)
		return err
	})
	if err != nil {
		return nil, internal("update submission", err)
	}
	return updated, nil
}

// DeleteDraft removes a draft. Its history rows stay as the audit trail.
func (s *SubmissionService) DeleteDraft(ctx context.Context, actor Actor, id uint) error {
	err := s.store.WithinTx(ctx, func(tx SubmissionStore) error {
		if _, err := s.ownedDraft(ctx, tx, actor, id, PermDelete); err != nil {
			return err
		}
		return tx.DeleteDraft(ctx, id)
	})
	if err != nil {
		return internal("delete submission", err)
	}
	s.options.Logger.Info().Uint("submission_id", id).Uint("actor_id", actor.ID).Msg("draft deleted")
	return nil
}

// ownedDraft loads a submission and applies the author-only draft rule:
// a stranger is refused before the status is considered.
func (s *SubmissionService) ownedDraft(ctx context.Context, tx SubmissionStore, actor Actor, id uint, perm Permission) (*models.Submission, error) {
	if !actor.Active {
		return nil, forbidden("account is not active")
	}
	submission, err := tx.GetSubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleContributor || !submission.IsOwnedBy(actor.ID) {
		return nil, forbidden("only the author may %s submission %d", perm, id)
	}
	if submission.Status != models.StatusDraft {
		return nil, conflict("submission %d is %s and can no longer be edited", id, submission.Status)
	}
	if err := Authorize(actor, perm, ResourceOf(submission)); err != nil {
		return nil, err
	}
	return submission, nil
}

// Submit sends the author's draft to content review.
func (s *SubmissionService) Submit(ctx context.Context, actor Actor, id uint) (*models.Submission, error) {
	result, err := s.flow.apply(ctx, transitionRequest{
		SubmissionID: id,
		Actor:        actor,
		Action:       models.ActionSubmit,
		Permission:   PermSubmit,
		guard:        authorGuard(actor),
	})
	if err != nil {
		return nil, err
	}
	return &result.Submission, nil
}

// Resubmit returns a rejected submission to the review queue when enabled.
func (s *SubmissionService) Resubmit(ctx context.Context, actor Actor, id uint, comment string) (*models.Submission, error) {
	result, err := s.flow.apply(ctx, transitionRequest{
		SubmissionID: id,
		Actor:        actor,
		Action:       models.ActionResubmit,
		Permission:   PermResubmit,
		Comment:      comment,
		guard:        authorGuard(actor),
	})
	if err != nil {
		return nil, err
	}
	return &result.Submission, nil
}

func authorGuard(actor Actor) func(*models.Submission) error {
	return func(submission *models.Submission) error {
		if !submission.IsOwnedBy(actor.ID) {
			return forbidden("only the author may submit submission %d", submission.SubmissionID)
		}
		return nil
	}
}

// GetSubmission returns a submission the actor may read, with its history.
func (s *SubmissionService) GetSubmission(ctx context.Context, actor Actor, id uint) (*SubmissionDetail, error) {
	submission, err := s.store.GetSubmission(ctx, id)
	if err != nil {
		return nil, internal("load submission", err)
	}
	if err := Authorize(actor, PermRead, ResourceOf(submission)); err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, internal("load history", err)
	}
	return &SubmissionDetail{Submission: *submission, History: history}, nil
}

// ListOwnSubmissions pages through the actor's own submissions, newest first.
func (s *SubmissionService) ListOwnSubmissions(ctx context.Context, actor Actor, status string, page, limit int) ([]models.Submission, int64, error) {
	if !actor.Active {
		return nil, 0, forbidden("account is not active")
	}
	filter := SubmissionFilter{ContributorID: &actor.ID}
	if strings.TrimSpace(status) != "" {
		parsed, ok := models.ParseStatus(status)
		if !ok {
			return nil, 0, invalid("status", "unknown status "+strconv.Quote(status))
		}
		filter.Statuses = []models.SubmissionStatus{parsed}
	}
	filter.Limit, filter.Offset = pageWindow(page, limit)
	items, total, err := s.store.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, 0, internal("list submissions", err)
	}
	return items, total, nil
}

// ListPublished pages through public content, most recently published first.
func (s *SubmissionService) ListPublished(ctx context.Context, query PublishedQuery) ([]models.Submission, int64, error) {
	filter := SubmissionFilter{
		Statuses:   []models.SubmissionStatus{models.StatusPublished},
		CategoryID: query.CategoryID,
		Search:     strings.TrimSpace(query.Search),
	}
	if query.ContentType != "" {
		contentType, ok := models.ParseContentType(query.ContentType)
		if !ok {
			return nil, 0, invalid("content_type", "content type must be term or article")
		}
		filter.ContentType = contentType
	}
	filter.Limit, filter.Offset = pageWindow(query.Page, query.Limit)
	items, total, err := s.store.ListSubmissions(ctx, filter)
	if err != nil {
		return nil, 0, internal("list published", err)
	}
	return items, total, nil
}

// SearchPublished is ListPublished with a mandatory search term.
func (s *SubmissionService) SearchPublished(ctx context.Context, q string, page, limit int) ([]models.Submission, int64, error) {
	q = strings.TrimSpace(q)
	if utils.RuneLength(q) < minSearchLen {
		return nil, 0, invalid("q", "search term must be at least 2 characters")
	}
	return s.ListPublished(ctx, PublishedQuery{Search: q, Page: page, Limit: limit})
}

// GetPublishedBySlug serves a published item and counts the view.
func (s *SubmissionService) GetPublishedBySlug(ctx context.Context, slug string) (*models.Submission, error) {
	submission, err := s.store.GetPublishedBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		return nil, internal("load published submission", err)
	}
	if s.views != nil {
		if err := s.views.Track(ctx, submission.SubmissionID); err != nil {
			return nil, internal("record view", err)
		}
	}
	return submission, nil
}

// uniqueSlug derives a slug from the title and disambiguates it against
// existing rows other than excludeID.
func (s *SubmissionService) uniqueSlug(ctx context.Context, tx SubmissionStore, title string, excludeID uint) (string, error) {
	base := utils.SlugWithSuffix(title, s.options.Now())
	candidate := base
	for attempt := 2; attempt <= slugAttempts+1; attempt++ {
		taken, err := tx.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(attempt)
	}
	return "", conflict("could not derive a unique slug for %q", title)
}

func validateTitle(problems validationErrors, title string) {
	n := utils.RuneLength(title)
	if n < titleMinLength || n > titleMaxLength {
		problems.add("title", "title must be between 5 and 200 characters")
	}
}

func validateBody(problems validationErrors, body string) {
	if utils.RuneLength(body) < bodyMinLength {
		problems.add("body", "body must be at least 50 characters")
	}
}

// normalizeTags trims, drops empties and duplicates, and enforces the bounds.
func normalizeTags(raw []string) (models.Tags, string) {
	tags := models.Tags{}
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = utils.SanitizeInput(tag)
		if tag == "" {
			continue
		}
		if utils.RuneLength(tag) > tagMaxLength {
			return nil, "each tag must be at most 50 characters"
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) > maxTags {
		return nil, "at most 20 tags are allowed"
	}
	return tags, ""
}

// pageWindow turns 1-based page/limit into limit/offset with sane bounds.
func pageWindow(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return limit, (page - 1) * limit
}
