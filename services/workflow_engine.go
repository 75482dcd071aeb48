package services

import (
	"diwan-api/models"
)

// WorkflowRules decides the next status for (current status, role, action).
// It holds no state besides policy switches and never touches storage.
type WorkflowRules struct {
	// AllowResubmission enables rejected --resubmit--> submitted for the author.
	AllowResubmission bool
}

// Transition is the outcome of a permitted workflow step.
type Transition struct {
	From   models.SubmissionStatus
	To     models.SubmissionStatus
	Action models.WorkflowAction
}

type transitionRule struct {
	from   models.SubmissionStatus
	action models.WorkflowAction
	to     models.SubmissionStatus
	roles  []models.Role
}

var (
	contentReviewers   = []models.Role{models.RoleContentAuditor, models.RoleAdmin}
	technicalReviewers = []models.Role{models.RoleTechnicalAuditor, models.RoleAdmin}
	adminOnly          = []models.Role{models.RoleAdmin}
	authorOnly         = []models.Role{models.RoleContributor}
)

var transitionRules = []transitionRule{
	{models.StatusDraft, models.ActionSubmit, models.StatusSubmitted, authorOnly},

	{models.StatusSubmitted, models.ActionApprove, models.StatusUnderTechnicalReview, contentReviewers},
	{models.StatusSubmitted, models.ActionReject, models.StatusRejected, contentReviewers},
	{models.StatusSubmitted, models.ActionRequestChanges, models.StatusDraft, contentReviewers},

	// Reached when the technical auditor sends an item back.
	{models.StatusUnderContentReview, models.ActionApprove, models.StatusUnderTechnicalReview, contentReviewers},
	{models.StatusUnderContentReview, models.ActionReject, models.StatusRejected, contentReviewers},
	{models.StatusUnderContentReview, models.ActionRequestChanges, models.StatusDraft, contentReviewers},

	{models.StatusUnderTechnicalReview, models.ActionApprove, models.StatusApproved, technicalReviewers},
	{models.StatusUnderTechnicalReview, models.ActionReject, models.StatusRejected, technicalReviewers},
	{models.StatusUnderTechnicalReview, models.ActionRequestChanges, models.StatusUnderContentReview, technicalReviewers},

	{models.StatusApproved, models.ActionPublish, models.StatusPublished, adminOnly},
	{models.StatusApproved, models.ActionReject, models.StatusRejected, adminOnly},
	{models.StatusApproved, models.ActionRequestChanges, models.StatusUnderTechnicalReview, adminOnly},

	{models.StatusPublished, models.ActionUnpublish, models.StatusDraft, adminOnly},

	{models.StatusRejected, models.ActionResubmit, models.StatusSubmitted, authorOnly},
}

// Next resolves a transition. It fails with ErrForbidden when the role has no
// authority of the action's kind over the current status, and with
// ErrConflict when it has but the requested action is not a valid move from
// it. Authoring (submit, resubmit) and editorial actions are separate kinds: a
// contributor owning a draft still has no say in reviewing it.
func (r WorkflowRules) Next(current models.SubmissionStatus, role models.Role, action models.WorkflowAction) (Transition, error) {
	if !current.Valid() {
		return Transition{}, &Error{Kind: ErrInternal, Message: "unknown submission status " + string(current)}
	}

	roleActsHere := false
	for _, rule := range r.rules() {
		if rule.from != current {
			continue
		}
		allowed := hasRole(rule.roles, role)
		if allowed && authoring(rule.action) == authoring(action) {
			roleActsHere = true
		}
		if rule.action != action {
			continue
		}
		if !allowed {
			return Transition{}, forbidden("role %s cannot %s a submission in status %s", role, action, current)
		}
		return Transition{From: current, To: rule.to, Action: action}, nil
	}

	if action == models.ActionResubmit && current == models.StatusRejected && !r.AllowResubmission {
		return Transition{}, conflict("resubmission of rejected submissions is disabled")
	}
	if roleActsHere || (role == models.RoleAdmin && !authoring(action)) {
		return Transition{}, conflict("cannot %s a submission in status %s", action, current)
	}
	return Transition{}, forbidden("role %s has no authority over submissions in status %s", role, current)
}

// ActionableStatuses lists the statuses in which role can perform action.
func (r WorkflowRules) ActionableStatuses(role models.Role, action models.WorkflowAction) []models.SubmissionStatus {
	var statuses []models.SubmissionStatus
	for _, rule := range r.rules() {
		if rule.action == action && hasRole(rule.roles, role) {
			statuses = appendStatus(statuses, rule.from)
		}
	}
	return statuses
}

func (r WorkflowRules) rules() []transitionRule {
	if r.AllowResubmission {
		return transitionRules
	}
	filtered := make([]transitionRule, 0, len(transitionRules))
	for _, rule := range transitionRules {
		if rule.action == models.ActionResubmit {
			continue
		}
		filtered = append(filtered, rule)
	}
	return filtered
}

func authoring(action models.WorkflowAction) bool {
	return action == models.ActionSubmit || action == models.ActionResubmit
}

func hasRole(roles []models.Role, role models.Role) bool {
	for _, candidate := range roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func appendStatus(statuses []models.SubmissionStatus, status models.SubmissionStatus) []models.SubmissionStatus {
	for _, existing := range statuses {
		if existing == status {
			return statuses
		}
	}
	return append(statuses, status)
}
