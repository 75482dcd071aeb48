package services

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"

	"diwan-api/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	selectSubmission = regexp.MustCompile("SELECT \\* FROM `content_submissions` WHERE submission_id = \\?")
	updateStatus     = regexp.MustCompile("UPDATE `content_submissions` SET .*submission_id = \\? AND status = \\?")
	insertHistory    = regexp.MustCompile("INSERT INTO `workflow_history`")
)

func submittedRow(id int64) *queryStep {
	return &queryStep{
		kind:    kindQuery,
		pattern: selectSubmission,
		columns: []string{"submission_id", "contributor_id", "category_id", "title", "content_type", "status"},
		rows:    [][]driver.Value{{id, int64(10), int64(1), "الطاقة الشمسية", "term", "submitted"}},
	}
}

func newRepositoryReviews(t *testing.T, steps []*queryStep) (*ReviewService, *scriptedDB, func()) {
	t.Helper()
	db, state, cleanup := newScriptedGormDB(t, steps)
	reviews := NewReviewService(NewSubmissionRepository(db), WorkflowOptions{Logger: zerolog.Nop()})
	return reviews, state, cleanup
}

func TestRepositoryTransitionCommitsStatusAndHistory(t *testing.T) {
	reviews, state, cleanup := newRepositoryReviews(t, []*queryStep{
		submittedRow(7),
		{
			kind:     kindExec,
			pattern:  updateStatus,
			argsTail: []driver.Value{int64(7), "submitted"},
			result:   scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertHistory,
			result:  scriptedResult{lastInsertID: 55, rowsAffected: 1},
		},
	})
	defer cleanup()

	result, err := reviews.Decide(context.Background(), contentAuditor, DecisionInput{SubmissionID: 7, Decision: "approve"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnderTechnicalReview, result.Status)
	assert.Equal(t, uint(55), result.Entry.HistoryID)
	assert.Equal(t, models.StatusSubmitted, result.Entry.FromStatus)

	require.NoError(t, state.verifyComplete())
	commits, rollbacks := state.txCounts()
	assert.Equal(t, 1, commits)
	assert.Zero(t, rollbacks)
}

func TestRepositoryConditionalUpdateMissIsConflict(t *testing.T) {
	reviews, state, cleanup := newRepositoryReviews(t, []*queryStep{
		submittedRow(7),
		{
			kind:     kindExec,
			pattern:  updateStatus,
			argsTail: []driver.Value{int64(7), "submitted"},
			result:   scriptedResult{rowsAffected: 0},
		},
	})
	defer cleanup()

	_, err := reviews.Decide(context.Background(), contentAuditor, DecisionInput{SubmissionID: 7, Decision: "reject"})
	assert.ErrorIs(t, err, ErrConflict)

	require.NoError(t, state.verifyComplete())
	commits, rollbacks := state.txCounts()
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestRepositoryHistoryFailureRollsBack(t *testing.T) {
	reviews, state, cleanup := newRepositoryReviews(t, []*queryStep{
		submittedRow(7),
		{
			kind:    kindExec,
			pattern: updateStatus,
			result:  scriptedResult{rowsAffected: 1},
		},
		{
			kind:    kindExec,
			pattern: insertHistory,
			err:     errors.New("disk full"),
		},
	})
	defer cleanup()

	_, err := reviews.Decide(context.Background(), contentAuditor, DecisionInput{SubmissionID: 7, Decision: "approve"})
	assert.ErrorIs(t, err, ErrInternal)

	require.NoError(t, state.verifyComplete())
	commits, rollbacks := state.txCounts()
	assert.Zero(t, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestRepositoryMissingSubmission(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{kind: kindQuery, pattern: selectSubmission, columns: []string{"submission_id"}, rows: [][]driver.Value{}},
	})
	defer cleanup()

	_, err := NewSubmissionRepository(db).GetSubmission(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, state.verifyComplete())
}

func TestRepositoryDraftWritesAreConditional(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE `content_submissions` SET .*submission_id = \\? AND status = \\?"),
			argsTail: []driver.Value{int64(3), "draft"},
			result:   scriptedResult{rowsAffected: 0},
		},
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("DELETE FROM `content_submissions` WHERE \\(?submission_id = \\? AND status = \\?"),
			argsTail: []driver.Value{int64(3), "draft"},
			result:   scriptedResult{rowsAffected: 0},
		},
	})
	defer cleanup()
	repo := NewSubmissionRepository(db)
	title := "عنوان محدث"

	err := repo.UpdateDraft(context.Background(), 3, DraftUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrConflict)
	err = repo.DeleteDraft(context.Background(), 3)
	assert.ErrorIs(t, err, ErrConflict)
	require.NoError(t, state.verifyComplete())
}

func TestRepositoryIncrementViews(t *testing.T) {
	db, state, cleanup := newScriptedGormDB(t, []*queryStep{
		{
			kind:     kindExec,
			pattern:  regexp.MustCompile("UPDATE `content_submissions` SET `view_count`=view_count \\+ \\?"),
			argsTail: []driver.Value{int64(3), int64(7)},
			result:   scriptedResult{rowsAffected: 1},
		},
	})
	defer cleanup()
	repo := NewSubmissionRepository(db)

	require.NoError(t, repo.IncrementViews(context.Background(), 7, 3))
	require.NoError(t, repo.IncrementViews(context.Background(), 7, 0))
	require.NoError(t, state.verifyComplete())
}
