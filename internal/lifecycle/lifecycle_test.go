package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

var statuses = []domain.Status{
	domain.StatusOpen,
	domain.StatusInProgress,
	domain.StatusPendingReview,
	domain.StatusNeedsRevision,
	domain.StatusCompleted,
}

func TestNextTable(t *testing.T) {
	legal := map[domain.Status]map[Action]domain.Status{
		domain.StatusOpen:          {ActionAcceptBid: domain.StatusInProgress},
		domain.StatusInProgress:    {ActionCompleteWork: domain.StatusPendingReview},
		domain.StatusNeedsRevision: {ActionCompleteWork: domain.StatusPendingReview},
		domain.StatusPendingReview: {
			ActionRequestRevision:     domain.StatusNeedsRevision,
			ActionAcceptCompletedWork: domain.StatusCompleted,
		},
	}
	for _, from := range statuses {
		for _, action := range Actions {
			got, err := Next(from, action)
			want, ok := legal[from][action]
			if ok {
				require.NoError(t, err, "%s from %s", action, from)
				assert.Equal(t, want, got)
				continue
			}
			require.Error(t, err, "%s from %s", action, from)
			var te *TransitionError
			require.True(t, errors.As(err, &te))
			assert.Equal(t, from, te.From)
			assert.Equal(t, action, te.Action)
			assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
			assert.ErrorIs(t, err, apperrors.ErrInvalidState)
			assert.Equal(t, apperrors.KindIllegalTransition, apperrors.KindOf(err))
		}
	}
}

func TestRevisionCycle(t *testing.T) {
	status := domain.StatusOpen
	steps := []Action{ActionAcceptBid, ActionCompleteWork, ActionRequestRevision, ActionCompleteWork, ActionAcceptCompletedWork}
	var seen []domain.Status
	for _, a := range steps {
		next, err := Next(status, a)
		require.NoError(t, err)
		status = next
		seen = append(seen, status)
	}
	assert.Equal(t, []domain.Status{
		domain.StatusInProgress,
		domain.StatusPendingReview,
		domain.StatusNeedsRevision,
		domain.StatusPendingReview,
		domain.StatusCompleted,
	}, seen)
	assert.True(t, Terminal(status))
}

func TestUnknownAction(t *testing.T) {
	_, err := Next(domain.StatusOpen, Action("withdraw_bid"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCanPerform(t *testing.T) {
	assert.Equal(t, []Action{ActionAcceptBid}, CanPerform(domain.StatusOpen, RoleOwner))
	assert.Empty(t, CanPerform(domain.StatusOpen, RoleAssignedFreelancer))
	assert.Equal(t, []Action{ActionRequestRevision, ActionAcceptCompletedWork}, CanPerform(domain.StatusPendingReview, RoleOwner))
	assert.Equal(t, []Action{ActionCompleteWork}, CanPerform(domain.StatusNeedsRevision, RoleAssignedFreelancer))
	assert.Empty(t, CanPerform(domain.StatusCompleted, RoleOwner))
}

func TestAssignedOnlyWhenNotOpen(t *testing.T) {
	for _, s := range statuses {
		assert.Equal(t, s != domain.StatusOpen, Assigned(s))
		assert.True(t, Valid(s))
	}
	assert.False(t, Valid("archived"))
}
