package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

func (r Repo) InsertReview(ctx context.Context, tx *sql.Tx, rv domain.Review) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO reviews(id,project_id,reviewer_id,reviewee_id,rating,comment,created_at) VALUES (?,?,?,?,?,?,?)`,
		rv.ID, rv.ProjectID, rv.ReviewerID, rv.RevieweeID, rv.Rating, rv.Comment, rv.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.New(apperrors.ErrNotEligible, "user %s already reviewed project %s", rv.ReviewerID, rv.ProjectID).
				WithDetails(map[string]any{"project_id": rv.ProjectID, "reviewer_id": rv.ReviewerID})
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

func (r Repo) ListReviews(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.Review, error) {
	return r.listReviews(ctx, tx, `project_id=?`, projectID)
}

// ListReviewsFor returns reviews received by a user, newest first.
func (r Repo) ListReviewsFor(ctx context.Context, revieweeID string) ([]domain.Review, error) {
	return r.listReviews(ctx, nil, `reviewee_id=?`, revieweeID)
}

func (r Repo) listReviews(ctx context.Context, tx *sql.Tx, where string, arg string) ([]domain.Review, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT id,project_id,reviewer_id,reviewee_id,rating,comment,created_at FROM reviews WHERE `+where+` ORDER BY created_at ASC, id ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Review{}
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.ProjectID, &rv.ReviewerID, &rv.RevieweeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, rv)
	}
	return res, rows.Err()
}

func (r Repo) HasReviewed(ctx context.Context, tx *sql.Tx, projectID, reviewerID string) (bool, error) {
	var n int
	err := r.q(tx).QueryRowContext(ctx, `SELECT COUNT(1) FROM reviews WHERE project_id=? AND reviewer_id=?`, projectID, reviewerID).Scan(&n)
	return n > 0, err
}

// RatingStats returns the mean and count of ratings received by a user.
func (r Repo) RatingStats(ctx context.Context, tx *sql.Tx, revieweeID string) (float64, int, error) {
	var avg sql.NullFloat64
	var count int
	err := r.q(tx).QueryRowContext(ctx, `SELECT AVG(rating), COUNT(1) FROM reviews WHERE reviewee_id=?`, revieweeID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}
