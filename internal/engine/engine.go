package engine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/config"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/events"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
	"github.com/Someesvaar/Freelance-Hub/internal/ranking"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
	"github.com/Someesvaar/Freelance-Hub/internal/retry"
)

// Engine is the engagement service: every project command goes through it.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Retry  *retry.Config
	Now    func() time.Time

	locks *keyedLocks
}

func New(conn *sql.DB, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	rc := retry.DefaultConfig()
	if cfg.Retry.MaxRetries > 0 {
		rc.MaxRetries = cfg.Retry.MaxRetries
	}
	if cfg.Retry.InitialDelay > 0 {
		rc.InitialDelay = cfg.Retry.InitialDelay
	}
	if cfg.Retry.MaxDelay > 0 {
		rc.MaxDelay = cfg.Retry.MaxDelay
	}
	e := Engine{
		DB:     conn,
		Repo:   repo.Repo{DB: conn},
		Config: cfg,
		Retry:  rc,
		Now:    time.Now,
		locks:  newKeyedLocks(),
	}
	e.Events = events.Writer{Now: e.now}
	return e
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) timestamp() string {
	return e.now().UTC().Format(time.RFC3339)
}

func (e Engine) policy() ranking.Policy {
	return e.Config.RankingPolicy()
}

// ProjectView is a project with its ledger, reviews and what the viewer may do next.
type ProjectView struct {
	Project          domain.Project     `json:"project"`
	Bids             []domain.Bid       `json:"bids"`
	Reviews          []domain.Review    `json:"reviews"`
	ViewerRole       string             `json:"viewer_role,omitempty"`
	AvailableActions []lifecycle.Action `json:"available_actions"`
	CanReview        bool               `json:"can_review"`
}

// classify marks lock contention as Unavailable so the retry loop replays it.
func classify(err error) error {
	if err != nil && db.IsTransient(err) {
		return apperrors.Unavailable(err)
	}
	return err
}

// write runs fn in a fresh transaction under the project's lock, replaying the
// whole transaction on Unavailable faults. Nothing is visible unless fn and the
// commit both succeed.
func (e Engine) write(ctx context.Context, op, projectID string, fn func(tx *sql.Tx) error) error {
	unlock := e.locks.Lock(projectID)
	defer unlock()
	_, err := retry.Do(ctx, e.Retry, func(attempt int, err error, wait time.Duration) {
		logger.Warn().Err(err).Str("op", op).Str("project_id", projectID).Int("attempt", attempt).Dur("wait", wait).Msg("retrying unavailable storage")
	}, func() (struct{}, error) {
		tx, err := e.DB.BeginTx(ctx, nil)
		if err != nil {
			return struct{}{}, classify(err)
		}
		defer tx.Rollback()
		if err := fn(tx); err != nil {
			return struct{}{}, classify(err)
		}
		return struct{}{}, classify(tx.Commit())
	})
	return err
}

// read runs fn against one consistent snapshot.
func (e Engine) read(ctx context.Context, fn func(tx *sql.Tx) error) error {
	_, err := retry.Do(ctx, e.Retry, nil, func() (struct{}, error) {
		tx, err := e.DB.BeginTx(ctx, nil)
		if err != nil {
			return struct{}{}, classify(err)
		}
		defer tx.Rollback()
		return struct{}{}, classify(fn(tx))
	})
	return err
}

// ensureActor records the caller's identity before it is referenced by a row.
func (e Engine) ensureActor(ctx context.Context, tx *sql.Tx, a auth.Actor) error {
	if a.ID == "" {
		return nil
	}
	return e.Repo.EnsureUser(ctx, tx, domain.User{ID: a.ID, DisplayName: a.DisplayName, IsFreelancer: a.IsFreelancer, CreatedAt: e.timestamp()})
}

// GetProject returns the project view as seen by viewer, who may be anonymous.
func (e Engine) GetProject(ctx context.Context, projectID string, viewer auth.Actor) (ProjectView, error) {
	var v ProjectView
	err := e.read(ctx, func(tx *sql.Tx) error {
		var err error
		v, err = e.loadView(ctx, tx, projectID, viewer)
		return err
	})
	return v, err
}

func (e Engine) loadView(ctx context.Context, tx *sql.Tx, projectID string, viewer auth.Actor) (ProjectView, error) {
	p, err := e.Repo.GetProject(ctx, tx, projectID)
	if err != nil {
		return ProjectView{}, err
	}
	bids, err := e.Repo.ListBids(ctx, tx, projectID)
	if err != nil {
		return ProjectView{}, err
	}
	reviews, err := e.Repo.ListReviews(ctx, tx, projectID)
	if err != nil {
		return ProjectView{}, err
	}
	v := ProjectView{Project: p, Bids: bids, Reviews: reviews, AvailableActions: []lifecycle.Action{}}
	if role, ok := auth.RoleOn(viewer, p); ok {
		v.ViewerRole = string(role)
		v.AvailableActions = append(v.AvailableActions, lifecycle.CanPerform(p.Status, role)...)
		v.CanReview = reviewable(p, viewer.ID, reviews)
	}
	return v, nil
}

// checkAssignment guards the invariant tying the open status to an empty assignment.
func checkAssignment(p domain.Project) error {
	assigned := p.AssignedFreelancerID != nil
	if lifecycle.Assigned(p.Status) != assigned {
		return fmt.Errorf("project %s: status %s with assigned=%t", p.ID, p.Status, assigned)
	}
	return nil
}
