package engine

import (
	"context"
	"database/sql"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/events"
	"github.com/Someesvaar/Freelance-Hub/internal/lifecycle"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
)

// ProjectCreateOptions are parameters for posting a project.
type ProjectCreateOptions struct {
	ID             string
	Title          string
	Description    string
	Budget         float64
	RequiredSkills []string
}

// CreateProject posts a new open project owned by the acting client.
func (e Engine) CreateProject(ctx context.Context, actor auth.Actor, opts ProjectCreateOptions) (ProjectView, error) {
	if err := auth.RequireClient(actor, "create_project"); err != nil {
		return ProjectView{}, err
	}
	opts.Title = strings.TrimSpace(opts.Title)
	if opts.Title == "" {
		return ProjectView{}, apperrors.InvalidInput("title is required")
	}
	if !validAmount(opts.Budget) {
		return ProjectView{}, apperrors.New(apperrors.ErrInvalidAmount, "budget must be a positive number").
			WithDetails(map[string]any{"budget": opts.Budget})
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := e.timestamp()
	p := domain.Project{
		ID:             id,
		ClientID:       actor.ID,
		Title:          opts.Title,
		Description:    opts.Description,
		Budget:         opts.Budget,
		RequiredSkills: repo.SplitSkills(repo.JoinSkills(opts.RequiredSkills)),
		Status:         domain.StatusOpen,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	var v ProjectView
	err := e.write(ctx, "create_project", id, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		if err := e.Repo.InsertProject(ctx, tx, p); err != nil {
			return err
		}
		if _, err := e.Events.Append(ctx, tx, events.ProjectCreated, p.ID, "project", p.ID, actor.ID, events.EventPayload{
			"title":  p.Title,
			"budget": p.Budget,
			"status": p.Status,
		}); err != nil {
			return err
		}
		var err error
		v, err = e.loadView(ctx, tx, p.ID, actor)
		return err
	})
	if err != nil {
		return ProjectView{}, err
	}
	logger.Info().Str("project_id", p.ID).Str("client_id", actor.ID).Msg("project created")
	return v, nil
}

// ProjectUpdateOptions carries the fields an owner may edit. Nil fields are kept.
type ProjectUpdateOptions struct {
	Title          *string
	Description    *string
	Budget         *float64
	RequiredSkills *[]string
}

// UpdateProject edits an open project's details. Only the owner may edit, and
// only before a bid is accepted; status is never set here.
func (e Engine) UpdateProject(ctx context.Context, actor auth.Actor, projectID string, opts ProjectUpdateOptions) (ProjectView, error) {
	if err := auth.RequireIdentity(actor, "update_project"); err != nil {
		return ProjectView{}, err
	}
	if opts.Title != nil {
		t := strings.TrimSpace(*opts.Title)
		if t == "" {
			return ProjectView{}, apperrors.InvalidInput("title must not be empty")
		}
		opts.Title = &t
	}
	if opts.Budget != nil && !validAmount(*opts.Budget) {
		return ProjectView{}, apperrors.New(apperrors.ErrInvalidAmount, "budget must be a positive number").
			WithDetails(map[string]any{"budget": *opts.Budget})
	}
	var v ProjectView
	err := e.write(ctx, "update_project", projectID, func(tx *sql.Tx) error {
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := auth.RequireOwner(actor, p, "update_project"); err != nil {
			return err
		}
		if p.Status != domain.StatusOpen {
			return apperrors.New(apperrors.ErrInvalidState, "project %s is %s; details are editable only while open", p.ID, p.Status).
				WithDetails(map[string]any{"status": string(p.Status)})
		}
		changed := events.EventPayload{}
		if opts.Title != nil && *opts.Title != p.Title {
			p.Title = *opts.Title
			changed["title"] = p.Title
		}
		if opts.Description != nil && *opts.Description != p.Description {
			p.Description = *opts.Description
			changed["description"] = p.Description
		}
		if opts.Budget != nil && *opts.Budget != p.Budget {
			p.Budget = *opts.Budget
			changed["budget"] = p.Budget
		}
		if opts.RequiredSkills != nil {
			skills := repo.SplitSkills(repo.JoinSkills(*opts.RequiredSkills))
			if repo.JoinSkills(skills) != repo.JoinSkills(p.RequiredSkills) {
				p.RequiredSkills = skills
				changed["required_skills"] = skills
			}
		}
		if len(changed) > 0 {
			p.UpdatedAt = e.timestamp()
			if _, err := e.Repo.UpdateProjectDetails(ctx, tx, p); err != nil {
				return err
			}
			if _, err := e.Events.Append(ctx, tx, events.ProjectUpdated, p.ID, "project", p.ID, actor.ID, changed); err != nil {
				return err
			}
		}
		v, err = e.loadView(ctx, tx, p.ID, actor)
		return err
	})
	if err != nil {
		return ProjectView{}, err
	}
	logger.Info().Str("project_id", projectID).Str("client_id", actor.ID).Msg("project updated")
	return v, nil
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ListProjects returns projects matching f, newest first.
func (e Engine) ListProjects(ctx context.Context, f repo.ProjectFilters) ([]domain.Project, error) {
	if f.Status != "" && !lifecycle.Valid(f.Status) {
		return nil, apperrors.InvalidInput("unknown status %q", f.Status)
	}
	res, err := e.Repo.ListProjects(ctx, f)
	return res, classify(err)
}

// AcceptBid assigns the project to the bid's freelancer and starts the work.
func (e Engine) AcceptBid(ctx context.Context, actor auth.Actor, projectID, bidID string) (ProjectView, error) {
	return e.transition(ctx, actor, projectID, lifecycle.ActionAcceptBid, func(tx *sql.Tx, p *domain.Project, payload events.EventPayload) error {
		bid, err := e.Repo.GetBid(ctx, tx, bidID)
		if err != nil {
			return err
		}
		if bid.ProjectID != p.ID {
			return apperrors.New(apperrors.ErrNotFound, "bid %s does not belong to project %s", bidID, p.ID).
				WithDetails(map[string]any{"entity": "bid", "id": bidID, "project_id": p.ID})
		}
		p.AssignedFreelancerID = &bid.FreelancerID
		p.AcceptedBidID = &bid.ID
		payload["bid_id"] = bid.ID
		payload["freelancer_id"] = bid.FreelancerID
		payload["amount"] = bid.Amount
		return e.Repo.IncProjectsAccepted(ctx, tx, bid.FreelancerID)
	})
}

// CompleteWork submits the assigned freelancer's work for the client's review.
func (e Engine) CompleteWork(ctx context.Context, actor auth.Actor, projectID string) (ProjectView, error) {
	return e.transition(ctx, actor, projectID, lifecycle.ActionCompleteWork, nil)
}

// RequestRevision sends submitted work back to the freelancer.
func (e Engine) RequestRevision(ctx context.Context, actor auth.Actor, projectID string) (ProjectView, error) {
	return e.transition(ctx, actor, projectID, lifecycle.ActionRequestRevision, nil)
}

// AcceptCompletedWork closes the engagement.
func (e Engine) AcceptCompletedWork(ctx context.Context, actor auth.Actor, projectID string) (ProjectView, error) {
	return e.transition(ctx, actor, projectID, lifecycle.ActionAcceptCompletedWork, func(tx *sql.Tx, p *domain.Project, _ events.EventPayload) error {
		return e.Repo.IncProjectsCompleted(ctx, tx, *p.AssignedFreelancerID)
	})
}

type applyFunc func(tx *sql.Tx, p *domain.Project, payload events.EventPayload) error

// transition authorizes actor, validates action against the current status and
// applies it with a version-checked update plus one audit event.
func (e Engine) transition(ctx context.Context, actor auth.Actor, projectID string, action lifecycle.Action, apply applyFunc) (ProjectView, error) {
	var (
		v    ProjectView
		from domain.Status
	)
	err := e.write(ctx, string(action), projectID, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if err := auth.RequireRole(actor, p, action); err != nil {
			return err
		}
		next, err := lifecycle.Next(p.Status, action)
		if err != nil {
			return err
		}
		from = p.Status
		payload := events.EventPayload{"action": action, "from": from, "to": next}
		if apply != nil {
			if err := apply(tx, &p, payload); err != nil {
				return err
			}
		}
		p.Status = next
		p.UpdatedAt = e.timestamp()
		if err := checkAssignment(p); err != nil {
			return err
		}
		if _, err := e.Repo.UpdateProjectState(ctx, tx, p); err != nil {
			return err
		}
		if _, err := e.Events.Append(ctx, tx, events.ProjectTransitioned, p.ID, "project", p.ID, actor.ID, payload); err != nil {
			return err
		}
		v, err = e.loadView(ctx, tx, p.ID, actor)
		return err
	})
	if err != nil {
		return ProjectView{}, err
	}
	logger.Info().
		Str("project_id", projectID).
		Str("actor_id", actor.ID).
		Str("action", string(action)).
		Str("from", string(from)).
		Str("to", string(v.Project.Status)).
		Msg("project transitioned")
	return v, nil
}

// ProjectEvents returns a project's audit log, newest first.
func (e Engine) ProjectEvents(ctx context.Context, projectID string, limit int, before int64) ([]domain.Event, error) {
	var res []domain.Event
	err := e.read(ctx, func(tx *sql.Tx) error {
		if _, err := e.Repo.GetProject(ctx, tx, projectID); err != nil {
			return err
		}
		var err error
		res, err = e.Repo.ListEvents(ctx, tx, repo.EventFilters{ProjectID: projectID, Limit: limit, Before: before})
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
