// Package auth checks what an identified actor may do to a project.
package auth

import (
	"fmt"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
)

// Actor is the identity supplied by the identity provider for one command.
type Actor struct {
	ID           string
	DisplayName  string
	IsFreelancer bool
}

// ForbiddenError indicates the actor lacks rights for an action.
type ForbiddenError struct {
	ActorID string
	Action  string
	Reason  string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s not allowed for %s: %s", e.Action, e.ActorID, e.Reason)
}

func (e ForbiddenError) Unwrap() error { return apperrors.ErrForbidden }

func (e ForbiddenError) Details() map[string]any {
	return map[string]any{"action": e.Action, "actor_id": e.ActorID}
}

// RequireIdentity rejects an anonymous actor.
func RequireIdentity(a Actor, action string) error {
	if a.ID == "" {
		return ForbiddenError{Action: action, Reason: "identity required"}
	}
	return nil
}

// RequireClient allows only non-freelancer accounts.
func RequireClient(a Actor, action string) error {
	if err := RequireIdentity(a, action); err != nil {
		return err
	}
	if a.IsFreelancer {
		return ForbiddenError{ActorID: a.ID, Action: action, Reason: "only clients may do this"}
	}
	return nil
}

// RequireFreelancer allows only freelancer accounts.
func RequireFreelancer(a Actor, action string) error {
	if err := RequireIdentity(a, action); err != nil {
		return err
	}
	if !a.IsFreelancer {
		return ForbiddenError{ActorID: a.ID, Action: action, Reason: "only freelancers may do this"}
	}
	return nil
}

// RequireOwner allows only the client who posted p.
func RequireOwner(a Actor, p domain.Project, action string) error {
	if err := RequireIdentity(a, action); err != nil {
		return err
	}
	if a.ID != p.ClientID {
		return ForbiddenError{ActorID: a.ID, Action: action, Reason: "not the project owner"}
	}
	return nil
}

// RequireAssignedFreelancer allows only the freelancer whose bid was accepted on p.
func RequireAssignedFreelancer(a Actor, p domain.Project, action string) error {
	if err := RequireIdentity(a, action); err != nil {
		return err
	}
	if p.AssignedFreelancerID == nil || *p.AssignedFreelancerID != a.ID {
		return ForbiddenError{ActorID: a.ID, Action: action, Reason: "not the assigned freelancer"}
	}
	return nil
}

// RequireRole checks a lifecycle action against the role that may perform it.
func RequireRole(a Actor, p domain.Project, action lifecycle.Action) error {
	switch lifecycle.RoleFor(action) {
	case lifecycle.RoleAssignedFreelancer:
		return RequireAssignedFreelancer(a, p, string(action))
	default:
		return RequireOwner(a, p, string(action))
	}
}

// RoleOn returns the lifecycle role a holds on p, if any.
func RoleOn(a Actor, p domain.Project) (lifecycle.Role, bool) {
	switch {
	case a.ID == "":
		return "", false
	case a.ID == p.ClientID:
		return lifecycle.RoleOwner, true
	case p.AssignedFreelancerID != nil && *p.AssignedFreelancerID == a.ID:
		return lifecycle.RoleAssignedFreelancer, true
	}
	return "", false
}

// Counterpart returns the party a reviewer rates on p, or false if a is not a party.
func Counterpart(a Actor, p domain.Project) (string, bool) {
	role, ok := RoleOn(a, p)
	if !ok || p.AssignedFreelancerID == nil {
		return "", false
	}
	if role == lifecycle.RoleOwner {
		return *p.AssignedFreelancerID, true
	}
	return p.ClientID, true
}
