package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
)

func project(assigned string) domain.Project {
	p := domain.Project{ID: "p1", ClientID: "client", Status: domain.StatusOpen}
	if assigned != "" {
		p.AssignedFreelancerID = &assigned
		p.Status = domain.StatusInProgress
	}
	return p
}

func TestRequireRole(t *testing.T) {
	owner := Actor{ID: "client"}
	free := Actor{ID: "free", IsFreelancer: true}
	other := Actor{ID: "other", IsFreelancer: true}
	p := project("free")

	assert.NoError(t, RequireRole(owner, p, lifecycle.ActionRequestRevision))
	assert.NoError(t, RequireRole(free, p, lifecycle.ActionCompleteWork))

	err := RequireRole(free, p, lifecycle.ActionAcceptCompletedWork)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	assert.ErrorIs(t, RequireRole(other, p, lifecycle.ActionCompleteWork), apperrors.ErrForbidden)
	assert.ErrorIs(t, RequireRole(Actor{}, p, lifecycle.ActionAcceptBid), apperrors.ErrForbidden)
}

func TestAccountKinds(t *testing.T) {
	assert.NoError(t, RequireClient(Actor{ID: "c"}, "create_project"))
	assert.ErrorIs(t, RequireClient(Actor{ID: "f", IsFreelancer: true}, "create_project"), apperrors.ErrForbidden)
	assert.NoError(t, RequireFreelancer(Actor{ID: "f", IsFreelancer: true}, "submit_bid"))
	assert.ErrorIs(t, RequireFreelancer(Actor{ID: "c"}, "submit_bid"), apperrors.ErrForbidden)
}

func TestCounterpart(t *testing.T) {
	p := project("free")
	got, ok := Counterpart(Actor{ID: "client"}, p)
	assert.True(t, ok)
	assert.Equal(t, "free", got)

	got, ok = Counterpart(Actor{ID: "free"}, p)
	assert.True(t, ok)
	assert.Equal(t, "client", got)

	_, ok = Counterpart(Actor{ID: "stranger"}, p)
	assert.False(t, ok)
	_, ok = Counterpart(Actor{ID: "client"}, project(""))
	assert.False(t, ok)
}
