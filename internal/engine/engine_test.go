package engine_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/config"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
	"github.com/Someesvaar/Freelance-Hub/internal/migrate"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
)

var (
	client = auth.Actor{ID: "client-1", DisplayName: "Carol"}
	alice  = auth.Actor{ID: "alice", DisplayName: "Alice", IsFreelancer: true}
	bob    = auth.Actor{ID: "bob", DisplayName: "Bob", IsFreelancer: true}
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	require.NoError(t, err, "open db")
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, migrate.Migrate(conn), "migrate")
	eng := engine.New(conn, config.Default())
	eng.Now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func (env testEnv) openProject(t *testing.T) domain.Project {
	t.Helper()
	v, err := env.Engine.CreateProject(env.Ctx, client, engine.ProjectCreateOptions{
		Title: "Marketing site", Description: "five pages", Budget: 500, RequiredSkills: []string{"html", "css"},
	})
	require.NoError(t, err)
	return v.Project
}

func (env testEnv) bid(t *testing.T, who auth.Actor, projectID string, amount float64, proposal string) domain.Bid {
	t.Helper()
	b, err := env.Engine.SubmitBid(env.Ctx, who, projectID, engine.BidOptions{Amount: amount, Proposal: proposal})
	require.NoError(t, err)
	return b
}

func assertAssignmentInvariant(t *testing.T, p domain.Project) {
	t.Helper()
	assert.Equal(t, p.Status == domain.StatusOpen, p.AssignedFreelancerID == nil, "status %s assigned %v", p.Status, p.AssignedFreelancerID)
}

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	assert.Equal(t, domain.StatusOpen, p.Status)
	assert.Equal(t, client.ID, p.ClientID)
	assert.Equal(t, []string{"html", "css"}, p.RequiredSkills)
	assertAssignmentInvariant(t, p)

	_, err := env.Engine.CreateProject(env.Ctx, alice, engine.ProjectCreateOptions{Title: "x", Budget: 10})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = env.Engine.CreateProject(env.Ctx, client, engine.ProjectCreateOptions{Title: "x", Budget: 0})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	_, err = env.Engine.CreateProject(env.Ctx, client, engine.ProjectCreateOptions{Title: " ", Budget: 10})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	list, err := env.Engine.ListProjects(env.Ctx, repo.ProjectFilters{Skill: "CSS"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEngagementLifecycle(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	b := env.bid(t, alice, p.ID, 400, "fast delivery")
	env.bid(t, bob, p.ID, 450, "premium quality")

	v, err := env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)
	require.NotNil(t, v.Project.AssignedFreelancerID)
	assigned := *v.Project.AssignedFreelancerID
	assert.Equal(t, alice.ID, assigned)
	assert.Equal(t, b.ID, *v.Project.AcceptedBidID)

	steps := []struct {
		actor auth.Actor
		run   func(context.Context, auth.Actor, string) (engine.ProjectView, error)
		want  domain.Status
	}{
		{alice, env.Engine.CompleteWork, domain.StatusPendingReview},
		{client, env.Engine.RequestRevision, domain.StatusNeedsRevision},
		{alice, env.Engine.CompleteWork, domain.StatusPendingReview},
		{client, env.Engine.AcceptCompletedWork, domain.StatusCompleted},
	}
	seen := []domain.Status{v.Project.Status}
	for _, s := range steps {
		v, err = s.run(env.Ctx, s.actor, p.ID)
		require.NoError(t, err)
		assert.Equal(t, s.want, v.Project.Status)
		assert.Equal(t, assigned, *v.Project.AssignedFreelancerID)
		assertAssignmentInvariant(t, v.Project)
		seen = append(seen, v.Project.Status)
	}
	assert.Equal(t, []domain.Status{
		domain.StatusInProgress, domain.StatusPendingReview, domain.StatusNeedsRevision,
		domain.StatusPendingReview, domain.StatusCompleted,
	}, seen)

	// bids survive acceptance for audit
	bids, err := env.Engine.ListBids(env.Ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 2)

	u, err := env.Engine.GetUser(env.Ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, u.ProjectsAccepted)
	assert.Equal(t, 1, u.ProjectsCompleted)

	_, err = env.Engine.RequestRevision(env.Ctx, client, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestDuplicateBidRejected(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	env.bid(t, alice, p.ID, 400, "first")

	_, err := env.Engine.SubmitBid(env.Ctx, alice, p.ID, engine.BidOptions{Amount: 380, Proposal: "second"})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBid)
	assert.Equal(t, apperrors.KindDuplicateBid, apperrors.KindOf(err))

	bids, err := env.Engine.ListBids(env.Ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}

func TestBidValidation(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)

	_, err := env.Engine.SubmitBid(env.Ctx, alice, p.ID, engine.BidOptions{Amount: -5})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	zero := 0
	_, err = env.Engine.SubmitBid(env.Ctx, alice, p.ID, engine.BidOptions{Amount: 5, TimelineDays: &zero})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = env.Engine.SubmitBid(env.Ctx, client, p.ID, engine.BidOptions{Amount: 5})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = env.Engine.SubmitBid(env.Ctx, alice, "missing", engine.BidOptions{Amount: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBidOnClosedProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	b := env.bid(t, alice, p.ID, 400, "fast delivery")
	_, err := env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)

	_, err = env.Engine.SubmitBid(env.Ctx, bob, p.ID, engine.BidOptions{Amount: 300})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestAcceptBidRequiresOpen(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	a := env.bid(t, alice, p.ID, 400, "fast delivery")
	b := env.bid(t, bob, p.ID, 450, "premium quality")
	_, err := env.Engine.AcceptBid(env.Ctx, client, p.ID, a.ID)
	require.NoError(t, err)

	_, err = env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	var te *lifecycle.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, domain.StatusInProgress, te.From)

	v, err := env.Engine.GetProject(env.Ctx, p.ID, auth.Actor{})
	require.NoError(t, err)
	assert.Equal(t, a.ID, *v.Project.AcceptedBidID)
	assert.Equal(t, alice.ID, *v.Project.AssignedFreelancerID)
}

func TestForbiddenIsDistinctFromIllegalTransition(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	b := env.bid(t, alice, p.ID, 400, "fast delivery")

	_, err := env.Engine.AcceptBid(env.Ctx, bob, p.ID, b.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))

	_, err = env.Engine.CompleteWork(env.Ctx, alice, p.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err), "alice is not assigned yet")

	_, err = env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)
	_, err = env.Engine.AcceptCompletedWork(env.Ctx, client, p.ID)
	assert.Equal(t, apperrors.KindIllegalTransition, apperrors.KindOf(err))
	_, err = env.Engine.CompleteWork(env.Ctx, bob, p.ID)
	assert.Equal(t, apperrors.KindForbidden, apperrors.KindOf(err))
}

func TestAcceptBidFromOtherProject(t *testing.T) {
	env := newTestEnv(t)
	p1 := env.openProject(t)
	p2 := env.openProject(t)
	foreign := env.bid(t, alice, p2.ID, 100, "elsewhere")

	_, err := env.Engine.AcceptBid(env.Ctx, client, p1.ID, foreign.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	v, err := env.Engine.GetProject(env.Ctx, p1.ID, client)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOpen, v.Project.Status)
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionAcceptBid}, v.AvailableActions)
}

func TestConcurrentBidsFromSameFreelancer(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Engine.SubmitBid(env.Ctx, alice, p.ID, engine.BidOptions{Amount: float64(100 + i), Proposal: fmt.Sprintf("try %d", i)})
		}(i)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrDuplicateBid)
	}
	assert.Equal(t, 1, ok)
	bids, err := env.Engine.ListBids(env.Ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}

func TestConcurrentAcceptsPickOneBid(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	bids := []domain.Bid{
		env.bid(t, alice, p.ID, 400, "a"),
		env.bid(t, bob, p.ID, 450, "b"),
	}
	var wg sync.WaitGroup
	errs := make([]error, len(bids))
	for i, b := range bids {
		wg.Add(1)
		go func(i int, bidID string) {
			defer wg.Done()
			_, errs[i] = env.Engine.AcceptBid(env.Ctx, client, p.ID, bidID)
		}(i, b.ID)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	}
	assert.Equal(t, 1, ok)
	v, err := env.Engine.GetProject(env.Ctx, p.ID, client)
	require.NoError(t, err)
	assertAssignmentInvariant(t, v.Project)
}

func TestRankBids(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)

	empty, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityBalanced)
	require.NoError(t, err)
	assert.Empty(t, empty.Bids)

	a := env.bid(t, alice, p.ID, 400, "fast delivery")
	b := env.bid(t, bob, p.ID, 450, "premium quality")

	byPrice, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityPrice)
	require.NoError(t, err)
	require.Len(t, byPrice.Bids, 2)
	assert.Equal(t, a.ID, byPrice.Bids[0].BidID)
	assert.Equal(t, "Alice", byPrice.Bids[0].FreelancerName)

	first, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityBalanced)
	require.NoError(t, err)
	second, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityBalanced)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	for _, rb := range first.Bids {
		if rb.BidID == b.ID {
			assert.Less(t, rb.PriceScore, byPrice.Bids[0].PriceScore)
		}
	}

	_, err = env.Engine.RankBids(env.Ctx, p.ID, domain.Priority("cheapest"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = env.Engine.RankBids(env.Ctx, "missing", domain.PriorityBalanced)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// ranking writes nothing
	evts, err := env.Engine.ProjectEvents(env.Ctx, p.ID, 100, 0)
	require.NoError(t, err)
	assert.Len(t, evts, 3)
}

func TestRankingUsesReputation(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	a := env.bid(t, alice, p.ID, 400, "fast delivery")
	b := env.bid(t, bob, p.ID, 450, "premium quality")

	ext := 4.5
	_, err := env.Engine.SetExternalRating(env.Ctx, bob.ID, &ext)
	require.NoError(t, err)

	res, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityRatings)
	require.NoError(t, err)
	assert.Equal(t, b.ID, res.Bids[0].BidID)
	require.NotNil(t, res.Bids[0].Reputation)
	assert.InDelta(t, 0.9, *res.Bids[0].Reputation, 1e-9)
	assert.Equal(t, a.ID, res.Bids[1].BidID)

	bad := 7.0
	_, err = env.Engine.SetExternalRating(env.Ctx, bob.ID, &bad)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRating)
}

func completedProject(t *testing.T, env testEnv) domain.Project {
	t.Helper()
	p := env.openProject(t)
	b := env.bid(t, alice, p.ID, 400, "fast delivery")
	_, err := env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)
	_, err = env.Engine.CompleteWork(env.Ctx, alice, p.ID)
	require.NoError(t, err)
	v, err := env.Engine.AcceptCompletedWork(env.Ctx, client, p.ID)
	require.NoError(t, err)
	return v.Project
}

func TestReviewGate(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	b := env.bid(t, alice, p.ID, 400, "fast delivery")
	_, err := env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)

	ok, err := env.Engine.CanReview(env.Ctx, p.ID, client.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = env.Engine.PostReview(env.Ctx, client, p.ID, engine.ReviewOptions{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	_, err = env.Engine.CompleteWork(env.Ctx, alice, p.ID)
	require.NoError(t, err)
	_, err = env.Engine.AcceptCompletedWork(env.Ctx, client, p.ID)
	require.NoError(t, err)

	ok, err = env.Engine.CanReview(env.Ctx, p.ID, client.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.Engine.CanReview(env.Ctx, p.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.Engine.PostReview(env.Ctx, client, p.ID, engine.ReviewOptions{Rating: 6})
	assert.ErrorIs(t, err, apperrors.ErrInvalidRating)

	rv, err := env.Engine.PostReview(env.Ctx, client, p.ID, engine.ReviewOptions{Rating: 4, Comment: "solid"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, rv.RevieweeID)

	_, err = env.Engine.PostReview(env.Ctx, client, p.ID, engine.ReviewOptions{Rating: 5})
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	rv, err = env.Engine.PostReview(env.Ctx, alice, p.ID, engine.ReviewOptions{Rating: 5})
	require.NoError(t, err)
	assert.Equal(t, client.ID, rv.RevieweeID)

	_, err = env.Engine.PostReview(env.Ctx, bob, p.ID, engine.ReviewOptions{Rating: 3})
	assert.ErrorIs(t, err, apperrors.ErrNotEligible)

	v, err := env.Engine.GetProject(env.Ctx, p.ID, client)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, v.Project.Status)
	assert.Len(t, v.Reviews, 2)
	assert.False(t, v.CanReview)

	u, err := env.Engine.GetUser(env.Ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, u.AvgRating)
	assert.Equal(t, 1, u.ReviewCount)
	require.NotNil(t, u.Reputation)
	assert.InDelta(t, 0.8, *u.Reputation, 1e-9)
}

func TestConcurrentReviewsRecordOnce(t *testing.T) {
	env := newTestEnv(t)
	p := completedProject(t, env)

	const n = 6
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.Engine.PostReview(env.Ctx, client, p.ID, engine.ReviewOptions{Rating: 5})
		}(i)
	}
	wg.Wait()
	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrNotEligible)
	}
	assert.Equal(t, 1, ok)
}

func TestProjectEventsAudit(t *testing.T) {
	env := newTestEnv(t)
	p := completedProject(t, env)
	evts, err := env.Engine.ProjectEvents(env.Ctx, p.ID, 10, 0)
	require.NoError(t, err)
	var types []string
	for _, e := range evts {
		types = append(types, e.Type)
	}
	// newest first
	assert.Equal(t, []string{
		"project.transitioned", "project.transitioned", "project.transitioned",
		"bid.submitted", "project.created",
	}, types)

	_, err = env.Engine.ProjectEvents(env.Ctx, "missing", 10, 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAPIKeyAndSkills(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.EnsureUser(env.Ctx, alice)
	require.NoError(t, err)

	u, err := env.Engine.SetSkills(env.Ctx, alice, []string{"go", "postgres"})
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "postgres"}, u.Skills)

	raw, key, err := env.Engine.CreateAPIKey(env.Ctx, alice.ID, "ci")
	require.NoError(t, err)
	assert.NotEqual(t, raw, key.KeyHash)
	owner, err := env.Engine.Repo.UserForAPIKey(env.Ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, owner.ID)

	_, _, err = env.Engine.CreateAPIKey(env.Ctx, "ghost", "ci")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCallerChosenIDClash(t *testing.T) {
	env := newTestEnv(t)
	opts := engine.ProjectCreateOptions{ID: "p-1", Title: "Logo", Budget: 50}
	_, err := env.Engine.CreateProject(env.Ctx, client, opts)
	require.NoError(t, err)
	_, err = env.Engine.CreateProject(env.Ctx, client, opts)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))

	_, err = env.Engine.CreateProject(env.Ctx, client, engine.ProjectCreateOptions{ID: "p-2", Title: "Banner", Budget: 80})
	require.NoError(t, err)
	_, err = env.Engine.SubmitBid(env.Ctx, alice, "p-1", engine.BidOptions{ID: "b-1", Amount: 40})
	require.NoError(t, err)

	// bob never bid on p-2, so reusing alice's bid id is not a duplicate bid
	_, err = env.Engine.SubmitBid(env.Ctx, bob, "p-2", engine.BidOptions{ID: "b-1", Amount: 70})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.NotErrorIs(t, err, apperrors.ErrDuplicateBid)

	b, err := env.Engine.SubmitBid(env.Ctx, bob, "p-2", engine.BidOptions{ID: "b-2", Amount: 70})
	require.NoError(t, err)
	assert.Equal(t, "b-2", b.ID)

	_, err = env.Engine.SubmitBid(env.Ctx, alice, "p-1", engine.BidOptions{ID: "b-3", Amount: 45})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateBid)
}

func TestUpdateProject(t *testing.T) {
	env := newTestEnv(t)
	p := env.openProject(t)
	title, budget := "Online shop", 750.0
	skills := []string{"Go", "go", "SQL"}

	v, err := env.Engine.UpdateProject(env.Ctx, client, p.ID, engine.ProjectUpdateOptions{
		Title: &title, Budget: &budget, RequiredSkills: &skills,
	})
	require.NoError(t, err)
	assert.Equal(t, "Online shop", v.Project.Title)
	assert.Equal(t, "five pages", v.Project.Description)
	assert.Equal(t, 750.0, v.Project.Budget)
	assert.Equal(t, []string{"Go", "SQL"}, v.Project.RequiredSkills)
	assert.Equal(t, domain.StatusOpen, v.Project.Status)
	assert.Equal(t, p.Version+1, v.Project.Version)

	// nothing to change writes nothing
	same, err := env.Engine.UpdateProject(env.Ctx, client, p.ID, engine.ProjectUpdateOptions{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, v.Project.Version, same.Project.Version)

	evts, err := env.Engine.ProjectEvents(env.Ctx, p.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, "project.updated", evts[0].Type)

	_, err = env.Engine.UpdateProject(env.Ctx, alice, p.ID, engine.ProjectUpdateOptions{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	other := auth.Actor{ID: "client-2", DisplayName: "Dana"}
	_, err = env.Engine.UpdateProject(env.Ctx, other, p.ID, engine.ProjectUpdateOptions{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	zero, blank := 0.0, " "
	_, err = env.Engine.UpdateProject(env.Ctx, client, p.ID, engine.ProjectUpdateOptions{Budget: &zero})
	assert.ErrorIs(t, err, apperrors.ErrInvalidAmount)
	_, err = env.Engine.UpdateProject(env.Ctx, client, p.ID, engine.ProjectUpdateOptions{Title: &blank})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = env.Engine.UpdateProject(env.Ctx, client, "missing", engine.ProjectUpdateOptions{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	b := env.bid(t, alice, p.ID, 700, "on it")
	_, err = env.Engine.AcceptBid(env.Ctx, client, p.ID, b.ID)
	require.NoError(t, err)
	_, err = env.Engine.UpdateProject(env.Ctx, client, p.ID, engine.ProjectUpdateOptions{Budget: &budget})
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, apperrors.KindInvalidState, apperrors.KindOf(err))
	got, err := env.Engine.GetProject(env.Ctx, p.ID, client)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, got.Project.Status)
}

func TestRankingReportsSkillMatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.Engine.SetSkills(env.Ctx, alice, []string{"HTML", "css"})
	require.NoError(t, err)
	_, err = env.Engine.SetSkills(env.Ctx, bob, []string{"go", "html"})
	require.NoError(t, err)
	p := env.openProject(t)
	a := env.bid(t, alice, p.ID, 400, "fast delivery")
	b := env.bid(t, bob, p.ID, 400, "premium quality")

	res, err := env.Engine.RankBids(env.Ctx, p.ID, domain.PriorityBalanced)
	require.NoError(t, err)
	require.Len(t, res.Bids, 2)
	assert.Zero(t, res.Weights.Skills)
	for _, rb := range res.Bids {
		switch rb.BidID {
		case a.ID:
			assert.Equal(t, 1.0, rb.SkillMatch)
		case b.ID:
			assert.InDelta(t, 1.0/3, rb.SkillMatch, 1e-4)
		}
	}
}
