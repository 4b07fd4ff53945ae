package engine

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/events"
	"github.com/Someesvaar/Freelance-Hub/internal/logger"
)

// reviewable reports whether userID may still review p given its existing reviews.
func reviewable(p domain.Project, userID string, reviews []domain.Review) bool {
	if p.Status != domain.StatusCompleted || userID == "" {
		return false
	}
	if _, ok := auth.Counterpart(auth.Actor{ID: userID}, p); !ok {
		return false
	}
	for _, r := range reviews {
		if r.ReviewerID == userID {
			return false
		}
	}
	return true
}

// CanReview reports whether userID may review the counterpart on projectID.
func (e Engine) CanReview(ctx context.Context, projectID, userID string) (bool, error) {
	var ok bool
	err := e.read(ctx, func(tx *sql.Tx) error {
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		reviews, err := e.Repo.ListReviews(ctx, tx, projectID)
		if err != nil {
			return err
		}
		ok = reviewable(p, userID, reviews)
		return nil
	})
	return ok, err
}

// ReviewOptions are parameters for posting a review.
type ReviewOptions struct {
	ID      string
	Rating  int
	Comment string
}

// PostReview records the actor's rating of their counterpart on a completed
// project and refreshes the reviewee's average. Project status is untouched.
func (e Engine) PostReview(ctx context.Context, actor auth.Actor, projectID string, opts ReviewOptions) (domain.Review, error) {
	if err := auth.RequireIdentity(actor, "post_review"); err != nil {
		return domain.Review{}, err
	}
	if opts.Rating < 1 || opts.Rating > 5 {
		return domain.Review{}, apperrors.New(apperrors.ErrInvalidRating, "rating must be between 1 and 5").
			WithDetails(map[string]any{"rating": opts.Rating})
	}
	rv := domain.Review{ID: opts.ID, ProjectID: projectID, ReviewerID: actor.ID, Rating: opts.Rating, Comment: strings.TrimSpace(opts.Comment)}
	if rv.ID == "" {
		rv.ID = uuid.NewString()
	}
	err := e.write(ctx, "post_review", projectID, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		p, err := e.Repo.GetProject(ctx, tx, projectID)
		if err != nil {
			return err
		}
		reviews, err := e.Repo.ListReviews(ctx, tx, projectID)
		if err != nil {
			return err
		}
		if !reviewable(p, actor.ID, reviews) {
			return notEligible(p, actor.ID)
		}
		rv.RevieweeID, _ = auth.Counterpart(actor, p)
		rv.CreatedAt = e.timestamp()
		if err := e.Repo.InsertReview(ctx, tx, rv); err != nil {
			return err
		}
		avg, count, err := e.Repo.RatingStats(ctx, tx, rv.RevieweeID)
		if err != nil {
			return err
		}
		if err := e.Repo.SetRating(ctx, tx, rv.RevieweeID, avg, count); err != nil {
			return err
		}
		if _, err := e.Events.Append(ctx, tx, events.ReviewPosted, projectID, "review", rv.ID, actor.ID, events.EventPayload{
			"reviewee_id": rv.RevieweeID,
			"rating":      rv.Rating,
		}); err != nil {
			return err
		}
		_, err = e.Events.Append(ctx, tx, events.UserRatingUpdated, projectID, "user", rv.RevieweeID, actor.ID, events.EventPayload{
			"avg_rating":   avg,
			"review_count": count,
		})
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}
	logger.Info().Str("project_id", projectID).Str("reviewer_id", actor.ID).Str("reviewee_id", rv.RevieweeID).Int("rating", rv.Rating).Msg("review posted")
	return rv, nil
}

func notEligible(p domain.Project, userID string) error {
	reason := "already reviewed"
	switch {
	case p.Status != domain.StatusCompleted:
		reason = "project is not completed"
	case !isParty(p, userID):
		reason = "not a party to this project"
	}
	return apperrors.New(apperrors.ErrNotEligible, "user %s cannot review project %s: %s", userID, p.ID, reason).
		WithDetails(map[string]any{"project_id": p.ID, "status": string(p.Status), "reason": reason})
}

func isParty(p domain.Project, userID string) bool {
	_, ok := auth.Counterpart(auth.Actor{ID: userID}, p)
	return ok
}
