package engine

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/events"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
	"github.com/Someesvaar/Freelance-Hub/internal/ranking"
)

// BidOptions are parameters for submitting a bid.
type BidOptions struct {
	ID           string
	Amount       float64
	Proposal     string
	TimelineDays *int
}

// SubmitBid appends the acting freelancer's bid to an open project's ledger.
// Bids are never updated or withdrawn.
func (e Engine) SubmitBid(ctx context.Context, actor auth.Actor, projectID string, opts BidOptions) (domain.Bid, error) {
	if err := auth.RequireFreelancer(actor, "submit_bid"); err != nil {
		return domain.Bid{}, err
	}
	if !validAmount(opts.Amount) {
		return domain.Bid{}, apperrors.New(apperrors.ErrInvalidAmount, "bid amount must be a positive number").
			WithDetails(map[string]any{"amount": opts.Amount})
	}
	if opts.TimelineDays != nil && *opts.TimelineDays <= 0 {
		return domain.Bid{}, apperrors.InvalidInput("timeline_days must be positive").
			WithDetails(map[string]any{"timeline_days": *opts.TimelineDays})
	}
	bid := domain.Bid{
		ID:           opts.ID,
		ProjectID:    projectID,
		FreelancerID: actor.ID,
		Amount:       opts.Amount,
		Proposal:     opts.Proposal,
		TimelineDays: opts.TimelineDays,
	}
	if bid.ID == "" {
		bid.ID = uuid.NewString()
	}
	err := e.write(ctx, "submit_bid", projectID, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if p.ClientID == actor.ID {
			return auth.ForbiddenError{ActorID: actor.ID, Action: "submit_bid", Reason: "cannot bid on own project"}
		}
		if p.Status != domain.StatusOpen {
			return apperrors.New(apperrors.ErrInvalidState, "project %s is %s; bids are accepted only while open", p.ID, p.Status).
				WithDetails(map[string]any{"status": string(p.Status)})
		}
		dup, err := e.Repo.HasBid(ctx, tx, projectID, actor.ID)
		if err != nil {
			return err
		}
		if dup {
			return apperrors.New(apperrors.ErrDuplicateBid, "freelancer %s already bid on project %s", actor.ID, projectID).
				WithDetails(map[string]any{"project_id": projectID, "freelancer_id": actor.ID})
		}
		bid.SubmittedAt = e.timestamp()
		bid, err = e.Repo.InsertBid(ctx, tx, bid)
		if err != nil {
			return err
		}
		_, err = e.Events.Append(ctx, tx, events.BidSubmitted, projectID, "bid", bid.ID, actor.ID, events.EventPayload{
			"amount":        bid.Amount,
			"timeline_days": bid.TimelineDays,
		})
		return err
	})
	if err != nil {
		return domain.Bid{}, err
	}
	logger.Info().Str("project_id", projectID).Str("bid_id", bid.ID).Str("freelancer_id", actor.ID).Float64("amount", bid.Amount).Msg("bid submitted")
	return bid, nil
}

// ListBids returns a project's bids in submission order.
func (e Engine) ListBids(ctx context.Context, projectID string) ([]domain.Bid, error) {
	var bids []domain.Bid
	err := e.read(ctx, func(tx *sql.Tx) error {
		if _, err := e.Repo.GetProject(ctx, tx, projectID); err != nil {
			return err
		}
		var err error
		bids, err = e.Repo.ListBids(ctx, tx, projectID)
		return err
	})
	return bids, err
}

// Ranking is the scored order of a project's bids under one priority.
type Ranking struct {
	ProjectID string `json:"project_id"`
	ranking.Result
}

// RankBids scores a project's bids under priority. The bid set and the
// freelancers' reputations are read from one snapshot and nothing is written.
// An empty priority means balanced.
func (e Engine) RankBids(ctx context.Context, projectID string, priority domain.Priority) (Ranking, error) {
	if priority == "" {
		priority = domain.PriorityBalanced
	}
	policy := e.policy()
	if _, err := policy.WeightsFor(priority); err != nil {
		return Ranking{}, err
	}
	var candidates []ranking.Candidate
	err := e.read(ctx, func(tx *sql.Tx) error {
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		bids, err := e.Repo.ListBids(ctx, tx, projectID)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(bids))
		for _, b := range bids {
			ids = append(ids, b.FreelancerID)
		}
		users, err := e.Repo.GetUsers(ctx, tx, ids)
		if err != nil {
			return err
		}
		candidates = make([]ranking.Candidate, 0, len(bids))
		for _, b := range bids {
			u := users[b.FreelancerID]
			name := u.DisplayName
			if name == "" {
				name = b.FreelancerID
			}
			candidates = append(candidates, ranking.Candidate{
				Bid:            b,
				FreelancerName: name,
				Reputation:     ranking.Reputation(u),
				SkillMatch:     ranking.SkillMatch(p.RequiredSkills, u.Skills),
			})
		}
		return nil
	})
	if err != nil {
		return Ranking{}, err
	}
	res, err := ranking.Rank(candidates, priority, policy)
	if err != nil {
		return Ranking{}, err
	}
	return Ranking{ProjectID: projectID, Result: res}, nil
}
