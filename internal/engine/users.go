package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"math"

	"github.com/google/uuid"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
	"github.com/Someesvaar/Freelance-Hub/internal/engine/auth"
	"github.com/Someesvaar/Freelance-Hub/internal/events"
	"github.com/Someesvaar/Freelance-Hub/internal/ranking"
	"github.com/Someesvaar/Freelance-Hub/internal/repo"
)

// UserProfile is a user with the reputation used when ranking their bids.
type UserProfile struct {
	domain.User
	Reputation *float64        `json:"reputation,omitempty"`
	Reviews    []domain.Review `json:"reviews"`
}

// EnsureUser provisions the actor from its identity and returns the stored record.
func (e Engine) EnsureUser(ctx context.Context, actor auth.Actor) (domain.User, error) {
	if err := auth.RequireIdentity(actor, "ensure_user"); err != nil {
		return domain.User{}, err
	}
	var u domain.User
	err := e.write(ctx, "ensure_user", "user:"+actor.ID, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		var err error
		u, err = e.Repo.GetUser(ctx, tx, actor.ID)
		return err
	})
	return u, err
}

// GetUser returns a public profile.
func (e Engine) GetUser(ctx context.Context, id string) (UserProfile, error) {
	var prof UserProfile
	err := e.read(ctx, func(tx *sql.Tx) error {
		u, err := e.Repo.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		prof = UserProfile{User: u, Reputation: ranking.Reputation(u)}
		return nil
	})
	if err != nil {
		return UserProfile{}, err
	}
	reviews, err := e.Repo.ListReviewsFor(ctx, id)
	if err != nil {
		return UserProfile{}, classify(err)
	}
	prof.Reviews = reviews
	return prof, nil
}

// SetExternalRating stores a rating imported from an outside reputation source
// on the 0..5 scale. A nil rating clears it.
func (e Engine) SetExternalRating(ctx context.Context, userID string, rating *float64) (domain.User, error) {
	if rating != nil && (math.IsNaN(*rating) || *rating < 0 || *rating > 5) {
		return domain.User{}, apperrors.New(apperrors.ErrInvalidRating, "external rating must be between 0 and 5").
			WithDetails(map[string]any{"rating": *rating})
	}
	var u domain.User
	err := e.write(ctx, "set_external_rating", "user:"+userID, func(tx *sql.Tx) error {
		if err := e.Repo.SetExternalRating(ctx, tx, userID, rating); err != nil {
			return err
		}
		if _, err := e.Events.Append(ctx, tx, events.UserRatingUpdated, "", "user", userID, "system", events.EventPayload{
			"external_rating": rating,
		}); err != nil {
			return err
		}
		var err error
		u, err = e.Repo.GetUser(ctx, tx, userID)
		return err
	})
	return u, err
}

// SetSkills replaces the actor's advertised skills.
func (e Engine) SetSkills(ctx context.Context, actor auth.Actor, skills []string) (domain.User, error) {
	if err := auth.RequireIdentity(actor, "set_skills"); err != nil {
		return domain.User{}, err
	}
	var u domain.User
	err := e.write(ctx, "set_skills", "user:"+actor.ID, func(tx *sql.Tx) error {
		if err := e.ensureActor(ctx, tx, actor); err != nil {
			return err
		}
		if err := e.Repo.SetSkills(ctx, tx, actor.ID, skills); err != nil {
			return err
		}
		var err error
		u, err = e.Repo.GetUser(ctx, tx, actor.ID)
		return err
	})
	return u, err
}

// CreateAPIKey mints a key for userID. The raw key is returned once and only its hash is stored.
func (e Engine) CreateAPIKey(ctx context.Context, userID, name string) (string, domain.APIKey, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", domain.APIKey{}, err
	}
	raw := "fh_" + hex.EncodeToString(buf)
	key := domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		KeyHash:   repo.HashAPIKey(raw),
		CreatedAt: e.timestamp(),
	}
	err := e.write(ctx, "create_api_key", "user:"+userID, func(tx *sql.Tx) error {
		if _, err := e.Repo.GetUser(ctx, tx, userID); err != nil {
			return err
		}
		return e.Repo.InsertAPIKey(ctx, tx, key)
	})
	if err != nil {
		return "", domain.APIKey{}, err
	}
	return raw, key, nil
}
