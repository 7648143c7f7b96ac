// Package authz centralizes capability checks for marketplace
// moderation. Handlers and services call Can instead of comparing role
// fields inline, so the rules live in one unit-testable place.
package authz

// Action names something an actor tries to do to a business or its
// moderation requests.
type Action string

const (
	// ActionViewRequests is reading a business's moderation history.
	ActionViewRequests Action = "view_requests"
	// ActionAppeal is submitting an unsuspension appeal.
	ActionAppeal Action = "appeal"
	// ActionModerate covers all admin lifecycle and review operations.
	ActionModerate Action = "moderate"
)

// Actor identifies who is attempting an action.
type Actor struct {
	ID      uint
	IsAdmin bool
}

// Can reports whether the actor may perform action on a resource owned
// by ownerID.
//
// Admins may moderate and view anything. Owners may appeal and view
// their own businesses. Everyone else is denied.
func Can(actor Actor, ownerID uint, action Action) bool {
	switch action {
	case ActionModerate:
		return actor.IsAdmin
	case ActionAppeal:
		return actor.ID == ownerID
	case ActionViewRequests:
		return actor.IsAdmin || actor.ID == ownerID
	default:
		return false
	}
}
