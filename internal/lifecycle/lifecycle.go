// Package lifecycle holds the project engagement state machine.
package lifecycle

import (
	"fmt"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

// Action is a named command that may move a project between statuses.
type Action string

const (
	ActionAcceptBid           Action = "accept_bid"
	ActionCompleteWork        Action = "complete_work"
	ActionRequestRevision     Action = "request_revision"
	ActionAcceptCompletedWork Action = "accept_completed_work"
)

// Actions lists every lifecycle action in table order.
var Actions = []Action{ActionAcceptBid, ActionCompleteWork, ActionRequestRevision, ActionAcceptCompletedWork}

// Role is the party allowed to perform an action.
type Role string

const (
	RoleOwner              Role = "owner"
	RoleAssignedFreelancer Role = "assigned_freelancer"
)

// TransitionError reports an action attempted from a status that does not allow it.
// It matches both apperrors.ErrIllegalTransition and apperrors.ErrInvalidState.
type TransitionError struct {
	From   domain.Status
	Action Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s while project is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() []error {
	return []error{apperrors.ErrIllegalTransition, apperrors.ErrInvalidState}
}

func (e *TransitionError) Details() map[string]any {
	return map[string]any{"status": string(e.From), "action": string(e.Action)}
}

// Next returns the status reached by applying action to from.
func Next(from domain.Status, action Action) (domain.Status, error) {
	switch action {
	case ActionAcceptBid:
		if from == domain.StatusOpen {
			return domain.StatusInProgress, nil
		}
	case ActionCompleteWork:
		if from == domain.StatusInProgress || from == domain.StatusNeedsRevision {
			return domain.StatusPendingReview, nil
		}
	case ActionRequestRevision:
		if from == domain.StatusPendingReview {
			return domain.StatusNeedsRevision, nil
		}
	case ActionAcceptCompletedWork:
		if from == domain.StatusPendingReview {
			return domain.StatusCompleted, nil
		}
	default:
		return "", apperrors.InvalidInput("unknown action %q", action)
	}
	return "", &TransitionError{From: from, Action: action}
}

// RoleFor names who may perform action.
func RoleFor(action Action) Role {
	if action == ActionCompleteWork {
		return RoleAssignedFreelancer
	}
	return RoleOwner
}

// CanPerform lists the actions legal from status for a party holding role.
func CanPerform(status domain.Status, role Role) []Action {
	var out []Action
	for _, a := range Actions {
		if RoleFor(a) != role {
			continue
		}
		if _, err := Next(status, a); err == nil {
			out = append(out, a)
		}
	}
	return out
}

// Terminal reports whether no action leaves status.
func Terminal(status domain.Status) bool {
	for _, a := range Actions {
		if _, err := Next(status, a); err == nil {
			return false
		}
	}
	return true
}

// Assigned reports whether a project in status must carry an assigned freelancer.
func Assigned(status domain.Status) bool {
	return status != domain.StatusOpen
}

// Valid reports whether status is one of the known lifecycle statuses.
func Valid(status domain.Status) bool {
	switch status {
	case domain.StatusOpen, domain.StatusInProgress, domain.StatusPendingReview,
		domain.StatusNeedsRevision, domain.StatusCompleted:
		return true
	}
	return false
}
