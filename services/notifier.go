package services

import (
	"context"
	"errors"
	"sync"

	"diwan-api/models"

	"github.com/rs/zerolog"
)

// EventType names a workflow notification.
type EventType string

const (
	EventSubmissionReceived EventType = "submission_received"
	EventReviewRequested    EventType = "review_requested"
	EventReviewDecision     EventType = "review_decision"
	EventContentPublished   EventType = "content_published"
	EventContentUnpublished EventType = "content_unpublished"
)

// Recipient is a user addressed by a notification.
type Recipient struct {
	UserID   uint
	Email    string
	FullName string
}

func recipientOf(user models.User) Recipient {
	return Recipient{UserID: user.UserID, Email: user.Email, FullName: user.FullName}
}

// Event is one notification: what happened, to which submission, for whom.
type Event struct {
	Type       EventType
	Submission models.Submission
	Entry      models.WorkflowHistory
	Recipients []Recipient
}

// Notifier delivers events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// MultiNotifier fans one event out to several channels and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, notifier := range m {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EventDispatcher is informed of every committed transition.
type EventDispatcher interface {
	Dispatch(ctx context.Context, result *TransitionResult)
}

// Dispatcher turns committed transitions into notification events and delivers
// them in the background. Delivery failures are logged and never reach the
// caller of the transition.
type Dispatcher struct {
	users    UserStore
	notifier Notifier
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

func NewDispatcher(users UserStore, notifier Notifier, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		users:    users,
		notifier: notifier,
		logger:   logger.With().Str("component", "notifications").Logger(),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, result *TransitionResult) {
	if d == nil || d.notifier == nil || result == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		bgCtx, cancel := detachedContext(ctx)
		defer cancel()

		for _, event := range d.events(bgCtx, result) {
			if len(event.Recipients) == 0 {
				continue
			}
			if err := d.notifier.Notify(bgCtx, event); err != nil {
				d.logger.Warn().Err(err).
					Str("event", string(event.Type)).
					Uint("submission_id", event.Submission.SubmissionID).
					Int("recipients", len(event.Recipients)).
					Msg("notification delivery failed")
			}
		}
	}()
}

// Wait blocks until in-flight dispatches finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) events(ctx context.Context, result *TransitionResult) []Event {
	base := Event{Submission: result.Submission, Entry: result.Entry}
	author := d.author(ctx, result.Submission.ContributorID)

	withType := func(eventType EventType, recipients []Recipient) Event {
		event := base
		event.Type = eventType
		event.Recipients = recipients
		return event
	}

	var events []Event
	switch result.Entry.Action {
	case models.ActionSubmit, models.ActionResubmit:
		events = append(events, withType(EventSubmissionReceived, author))
	case models.ActionPublish:
		events = append(events, withType(EventContentPublished, author))
	case models.ActionUnpublish:
		events = append(events, withType(EventContentUnpublished, author))
	default:
		events = append(events, withType(EventReviewDecision, author))
	}

	if role, ok := reviewerFor(result.Entry.ToStatus); ok {
		events = append(events, withType(EventReviewRequested, d.byRole(ctx, role)))
	}
	return events
}

// reviewerFor names the role whose queue a status lands in.
func reviewerFor(status models.SubmissionStatus) (models.Role, bool) {
	switch status {
	case models.StatusSubmitted, models.StatusUnderContentReview:
		return models.RoleContentAuditor, true
	case models.StatusUnderTechnicalReview:
		return models.RoleTechnicalAuditor, true
	case models.StatusApproved:
		return models.RoleAdmin, true
	}
	return "", false
}

func (d *Dispatcher) author(ctx context.Context, userID uint) []Recipient {
	user, err := d.users.GetUser(ctx, userID)
	if err != nil {
		d.logger.Warn().Err(err).Uint("user_id", userID).Msg("notification author lookup failed")
		return nil
	}
	if !user.IsActive() {
		return nil
	}
	return []Recipient{recipientOf(*user)}
}

func (d *Dispatcher) byRole(ctx context.Context, role models.Role) []Recipient {
	users, err := d.users.ListActiveByRole(ctx, role)
	if err != nil {
		d.logger.Warn().Err(err).Str("role", string(role)).Msg("notification recipient lookup failed")
		return nil
	}
	recipients := make([]Recipient, 0, len(users))
	for _, user := range users {
		recipients = append(recipients, recipientOf(user))
	}
	return recipients
}
