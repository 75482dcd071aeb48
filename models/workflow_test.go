package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStatusAcceptsLegacyNames(t *testing.T) {
	cases := map[string]SubmissionStatus{
		"draft":                    StatusDraft,
		"needs_revision":           StatusDraft,
		" Submitted ":              StatusSubmitted,
		"pending_content_review":   StatusSubmitted,
		"pending_technical_review": StatusUnderTechnicalReview,
		"under_content_review":     StatusUnderContentReview,
		"PUBLISHED":                StatusPublished,
	}
	for raw, want := range cases {
		got, ok := ParseStatus(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseStatus("archived")
	assert.False(t, ok)
	assert.False(t, SubmissionStatus("needs_revision").Valid())
	assert.True(t, StatusApproved.Valid())
}

func TestParseDecision(t *testing.T) {
	d, ok := ParseDecision("approved")
	assert.True(t, ok)
	assert.Equal(t, DecisionApprove, d)

	d, ok = ParseDecision("needs_revision")
	assert.True(t, ok)
	assert.Equal(t, ActionRequestChanges, d.Action())

	_, ok = ParseDecision("publish")
	assert.False(t, ok)
}

func TestParseRoleAndContentType(t *testing.T) {
	role, ok := ParseRole(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, role)
	assert.True(t, role.IsReviewer())
	assert.False(t, RoleContributor.IsReviewer())

	_, ok = ParseRole("editor")
	assert.False(t, ok)

	kind, ok := ParseContentType("Article")
	assert.True(t, ok)
	assert.Equal(t, ContentTypeArticle, kind)
	_, ok = ParseContentType("poem")
	assert.False(t, ok)
}

func TestTagsRoundTripThroughColumn(t *testing.T) {
	value, err := Tags(nil).Value()
	assert.NoError(t, err)
	assert.Equal(t, "[]", value)

	var tags Tags
	assert.NoError(t, tags.Scan([]byte(`["طاقة","شمس"]`)))
	assert.Equal(t, Tags{"طاقة", "شمس"}, tags)
	assert.NoError(t, tags.Scan(nil))
	assert.Equal(t, Tags{}, tags)
	assert.Error(t, tags.Scan(42))
}
