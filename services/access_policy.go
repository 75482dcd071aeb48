package services

import (
	"diwan-api/models"
)

// Actor is the authenticated user invoking an operation.
type Actor struct {
	ID     uint
	Role   models.Role
	Active bool
}

// ActorFromUser builds an Actor from a loaded account.
func ActorFromUser(user *models.User) Actor {
	if user == nil {
		return Actor{}
	}
	return Actor{ID: user.UserID, Role: user.Role, Active: user.IsActive()}
}

// Permission names an operation checked by the access policy.
type Permission string

const (
	PermRead             Permission = "read"
	PermUpdate           Permission = "update"
	PermDelete           Permission = "delete"
	PermSubmit           Permission = "submit"
	PermResubmit         Permission = "resubmit"
	PermDecide           Permission = "decide"
	PermPublish          Permission = "publish"
	PermUnpublish        Permission = "unpublish"
	PermManageUsers      Permission = "manage_users"
	PermManageCategories Permission = "manage_categories"
)

// Resource is the part of a submission the policy looks at. The zero value
// stands for "no submission" (user and category management).
type Resource struct {
	OwnerID uint
	Status  models.SubmissionStatus
}

// ResourceOf extracts the policy view of a submission.
func ResourceOf(submission *models.Submission) Resource {
	return Resource{OwnerID: submission.ContributorID, Status: submission.Status}
}

var decideStatuses = map[models.Role][]models.SubmissionStatus{
	models.RoleContentAuditor:   {models.StatusSubmitted, models.StatusUnderContentReview},
	models.RoleTechnicalAuditor: {models.StatusUnderTechnicalReview},
	models.RoleAdmin: {
		models.StatusSubmitted,
		models.StatusUnderContentReview,
		models.StatusUnderTechnicalReview,
		models.StatusApproved,
	},
}

// Allow is the role gate. It is a pure function of its inputs and is applied
// on top of the workflow engine's own status checks.
func Allow(actor Actor, perm Permission, res Resource) bool {
	if !actor.Active || actor.ID == 0 {
		return false
	}
	owner := res.OwnerID != 0 && res.OwnerID == actor.ID

	switch perm {
	case PermManageUsers, PermManageCategories, PermPublish, PermUnpublish:
		if actor.Role != models.RoleAdmin {
			return false
		}
		switch perm {
		case PermPublish:
			return res.Status == models.StatusApproved
		case PermUnpublish:
			return res.Status == models.StatusPublished
		}
		return true

	case PermUpdate, PermDelete, PermSubmit:
		return actor.Role == models.RoleContributor && owner && res.Status == models.StatusDraft

	case PermResubmit:
		return actor.Role == models.RoleContributor && owner && res.Status == models.StatusRejected

	case PermDecide:
		return statusIn(res.Status, decideStatuses[actor.Role])

	case PermRead:
		if res.Status == models.StatusPublished {
			return true
		}
		switch actor.Role {
		case models.RoleAdmin:
			return true
		case models.RoleContributor:
			return owner
		default:
			return statusIn(res.Status, decideStatuses[actor.Role])
		}
	}
	return false
}

// Authorize is Allow with an ErrForbidden on denial.
func Authorize(actor Actor, perm Permission, res Resource) error {
	if !actor.Active {
		return forbidden("account is not active")
	}
	if !Allow(actor, perm, res) {
		return forbidden("role %s may not %s this resource", actor.Role, perm)
	}
	return nil
}

func statusIn(status models.SubmissionStatus, statuses []models.SubmissionStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
