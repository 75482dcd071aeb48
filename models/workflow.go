package models

import "strings"

// SubmissionStatus is the workflow state stored in content_submissions.status.
type SubmissionStatus string

const (
	StatusDraft                SubmissionStatus = "draft"
	StatusSubmitted            SubmissionStatus = "submitted"
	StatusUnderContentReview   SubmissionStatus = "under_content_review"
	StatusUnderTechnicalReview SubmissionStatus = "under_technical_review"
	StatusApproved             SubmissionStatus = "approved"
	StatusRejected             SubmissionStatus = "rejected"
	StatusPublished            SubmissionStatus = "published"
)

// AllStatuses lists every canonical status in pipeline order.
var AllStatuses = []SubmissionStatus{
	StatusDraft,
	StatusSubmitted,
	StatusUnderContentReview,
	StatusUnderTechnicalReview,
	StatusApproved,
	StatusRejected,
	StatusPublished,
}

// Older revisions of the platform used a second vocabulary for the same
// pipeline. Both are accepted on input and stored canonically.
var statusSynonyms = map[string]SubmissionStatus{
	"draft":                    StatusDraft,
	"needs_revision":           StatusDraft,
	"submitted":                StatusSubmitted,
	"pending_content_review":   StatusSubmitted,
	"under_content_review":     StatusUnderContentReview,
	"under_technical_review":   StatusUnderTechnicalReview,
	"pending_technical_review": StatusUnderTechnicalReview,
	"approved":                 StatusApproved,
	"rejected":                 StatusRejected,
	"published":                StatusPublished,
}

// ParseStatus normalises a raw status (canonical or legacy) to its canonical value.
func ParseStatus(raw string) (SubmissionStatus, bool) {
	status, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

// Valid reports whether s is one of the canonical statuses.
func (s SubmissionStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func (s SubmissionStatus) String() string { return string(s) }

// Role is the single workflow authority a user holds.
type Role string

const (
	RoleContributor      Role = "contributor"
	RoleContentAuditor   Role = "content_auditor"
	RoleTechnicalAuditor Role = "technical_auditor"
	RoleAdmin            Role = "admin"
)

// AllRoles lists the assignable roles.
var AllRoles = []Role{RoleContributor, RoleContentAuditor, RoleTechnicalAuditor, RoleAdmin}

// ParseRole validates a raw role name.
func ParseRole(raw string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range AllRoles {
		if role == candidate {
			return role, true
		}
	}
	return "", false
}

// IsReviewer reports whether the role takes part in review decisions.
func (r Role) IsReviewer() bool {
	return r == RoleContentAuditor || r == RoleTechnicalAuditor || r == RoleAdmin
}

// Decision is a reviewer verdict on a pending submission.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionReject         Decision = "reject"
	DecisionRequestChanges Decision = "request_changes"
)

var decisionSynonyms = map[string]Decision{
	"approve":         DecisionApprove,
	"approved":        DecisionApprove,
	"reject":          DecisionReject,
	"rejected":        DecisionReject,
	"request_changes": DecisionRequestChanges,
	"needs_revision":  DecisionRequestChanges,
}

// ParseDecision accepts both the current and the legacy decision names.
func ParseDecision(raw string) (Decision, bool) {
	decision, ok := decisionSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return decision, ok
}

// WorkflowAction is the verb written to workflow_history.action.
type WorkflowAction string

const (
	ActionSubmit         WorkflowAction = "submit"
	ActionApprove        WorkflowAction = "approve"
	ActionReject         WorkflowAction = "reject"
	ActionRequestChanges WorkflowAction = "request_changes"
	ActionPublish        WorkflowAction = "publish"
	ActionUnpublish      WorkflowAction = "unpublish"
	ActionResubmit       WorkflowAction = "resubmit"
)

// Action maps a decision to the history verb it produces.
func (d Decision) Action() WorkflowAction {
	return WorkflowAction(d)
}

// ContentType distinguishes glossary terms from long-form articles.
type ContentType string

const (
	ContentTypeTerm    ContentType = "term"
	ContentTypeArticle ContentType = "article"
)

// ParseContentType validates a raw content type.
func ParseContentType(raw string) (ContentType, bool) {
	switch ContentType(strings.ToLower(strings.TrimSpace(raw))) {
	case ContentTypeTerm:
		return ContentTypeTerm, true
	case ContentTypeArticle:
		return ContentTypeArticle, true
	}
	return "", false
}
