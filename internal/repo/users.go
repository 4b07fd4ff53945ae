package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

const userColumns = `id,display_name,is_freelancer,COALESCE(skills,''),avg_rating,review_count,external_rating,projects_accepted,projects_completed,created_at`

func scanUser(row rowScanner) (domain.User, error) {
	var u domain.User
	var skills string
	var ext sql.NullFloat64
	if err := row.Scan(&u.ID, &u.DisplayName, &u.IsFreelancer, &skills, &u.AvgRating, &u.ReviewCount, &ext,
		&u.ProjectsAccepted, &u.ProjectsCompleted, &u.CreatedAt); err != nil {
		return u, err
	}
	u.Skills = SplitSkills(skills)
	if ext.Valid {
		v := ext.Float64
		u.ExternalRating = &v
	}
	return u, nil
}

// EnsureUser creates the user on first sight and refreshes identity-provided fields afterwards.
// Ratings and counters are left untouched.
func (r Repo) EnsureUser(ctx context.Context, tx *sql.Tx, u domain.User) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO users(id,display_name,is_freelancer,created_at) VALUES (?,?,?,?)
ON CONFLICT(id) DO UPDATE SET
  display_name=CASE WHEN excluded.display_name<>'' THEN excluded.display_name ELSE users.display_name END,
  is_freelancer=excluded.is_freelancer`,
		u.ID, u.DisplayName, u.IsFreelancer, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

func (r Repo) GetUser(ctx context.Context, tx *sql.Tx, id string) (domain.User, error) {
	u, err := scanUser(r.q(tx).QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, apperrors.NotFound("user", id)
	}
	return u, err
}

// GetUsers loads the given users keyed by id. Unknown ids are absent from the map.
func (r Repo) GetUsers(ctx context.Context, tx *sql.Tx, ids []string) (map[string]domain.User, error) {
	out := map[string]domain.User{}
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, rows.Err()
}

// SetRating stores a recomputed review mean for a user.
func (r Repo) SetRating(ctx context.Context, tx *sql.Tx, userID string, avg float64, count int) error {
	return r.updateUser(ctx, tx, userID, `avg_rating=?, review_count=?`, avg, count)
}

func (r Repo) SetExternalRating(ctx context.Context, tx *sql.Tx, userID string, rating *float64) error {
	return r.updateUser(ctx, tx, userID, `external_rating=?`, nullableFloatPtr(rating))
}

func (r Repo) SetSkills(ctx context.Context, tx *sql.Tx, userID string, skills []string) error {
	return r.updateUser(ctx, tx, userID, `skills=?`, nullable(JoinSkills(skills)))
}

func (r Repo) IncProjectsAccepted(ctx context.Context, tx *sql.Tx, userID string) error {
	return r.updateUser(ctx, tx, userID, `projects_accepted=projects_accepted+1`)
}

func (r Repo) IncProjectsCompleted(ctx context.Context, tx *sql.Tx, userID string) error {
	return r.updateUser(ctx, tx, userID, `projects_completed=projects_completed+1`)
}

func (r Repo) updateUser(ctx context.Context, tx *sql.Tx, userID, set string, args ...any) error {
	args = append(args, userID)
	res, err := r.q(tx).ExecContext(ctx, `UPDATE users SET `+set+` WHERE id=?`, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("user", userID)
	}
	return nil
}
