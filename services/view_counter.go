package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const viewWriteTimeout = 5 * time.Second

// ViewSink persists view counts.
type ViewSink interface {
	IncrementViews(ctx context.Context, id uint, delta int64) error
}

// ViewCounter writes every view through to the sink before the read is
// answered. A failed write is retried with backoff; when every attempt fails
// the read fails with it, so an acknowledged view is always stored.
type ViewCounter struct {
	sink     ViewSink
	attempts int
	backoff  time.Duration
	logger   zerolog.Logger
}

func NewViewCounter(sink ViewSink, attempts int, backoff time.Duration, logger zerolog.Logger) *ViewCounter {
	if attempts <= 0 {
		attempts = 3
	}
	if backoff < 0 {
		backoff = 0
	}
	return &ViewCounter{
		sink:     sink,
		attempts: attempts,
		backoff:  backoff,
		logger:   logger.With().Str("component", "view_counter").Logger(),
	}
}

// Track stores one view of the submission. The write survives the caller
// disconnecting but is bounded by its own timeout.
func (c *ViewCounter) Track(ctx context.Context, submissionID uint) error {
	if submissionID == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(persistentContext(ctx), viewWriteTimeout)
	defer cancel()

	var err error
	wait := c.backoff
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.sink.IncrementViews(ctx, submissionID, 1); err == nil {
			return nil
		}
		if attempt == c.attempts {
			break
		}
		c.logger.Debug().Err(err).Uint("submission_id", submissionID).Int("attempt", attempt).Msg("view write failed; retrying")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("record view of %d: %w", submissionID, ctx.Err())
		}
		wait *= 2
	}
	c.logger.Error().Err(err).Uint("submission_id", submissionID).Int("attempts", c.attempts).Msg("view write failed")
	return fmt.Errorf("record view of %d: %w", submissionID, err)
}
