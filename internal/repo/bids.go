package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

const bidColumns = `seq,id,project_id,freelancer_id,amount,proposal,timeline_days,submitted_at`

func scanBid(row rowScanner) (domain.Bid, error) {
	var b domain.Bid
	var timeline sql.NullInt64
	if err := row.Scan(&b.Seq, &b.ID, &b.ProjectID, &b.FreelancerID, &b.Amount, &b.Proposal, &timeline, &b.SubmittedAt); err != nil {
		return b, err
	}
	if timeline.Valid {
		v := int(timeline.Int64)
		b.TimelineDays = &v
	}
	return b, nil
}

// InsertBid appends b to the ledger and returns it with its ledger position.
// A second bid by the same freelancer on the same project is a DuplicateBid;
// reusing another bid's id is InvalidInput.
func (r Repo) InsertBid(ctx context.Context, tx *sql.Tx, b domain.Bid) (domain.Bid, error) {
	res, err := r.q(tx).ExecContext(ctx, `INSERT INTO bids(id,project_id,freelancer_id,amount,proposal,timeline_days,submitted_at) VALUES (?,?,?,?,?,?,?)`,
		b.ID, b.ProjectID, b.FreelancerID, b.Amount, b.Proposal, nullableIntPtr(b.TimelineDays), b.SubmittedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return b, r.bidConflict(ctx, tx, b, err)
		}
		return b, fmt.Errorf("insert bid: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return b, err
	}
	b.Seq = seq
	return b, nil
}

// bidConflict names which uniqueness rule b broke.
func (r Repo) bidConflict(ctx context.Context, tx *sql.Tx, b domain.Bid, cause error) error {
	dup, err := r.HasBid(ctx, tx, b.ProjectID, b.FreelancerID)
	if err != nil {
		return fmt.Errorf("insert bid: %w", cause)
	}
	if dup {
		return duplicateBid(b.ProjectID, b.FreelancerID)
	}
	return apperrors.InvalidInput("bid id %s is already taken", b.ID).
		WithDetails(map[string]any{"bid_id": b.ID})
}

func duplicateBid(projectID, freelancerID string) *apperrors.Error {
	return apperrors.New(apperrors.ErrDuplicateBid, "freelancer %s already bid on project %s", freelancerID, projectID).
		WithDetails(map[string]any{"project_id": projectID, "freelancer_id": freelancerID})
}

// ListBids returns a project's bids in submission order.
func (r Repo) ListBids(ctx context.Context, tx *sql.Tx, projectID string) ([]domain.Bid, error) {
	rows, err := r.q(tx).QueryContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE project_id=? ORDER BY seq ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Bid{}
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, b)
	}
	return res, rows.Err()
}

func (r Repo) GetBid(ctx context.Context, tx *sql.Tx, id string) (domain.Bid, error) {
	b, err := scanBid(r.q(tx).QueryRowContext(ctx, `SELECT `+bidColumns+` FROM bids WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, apperrors.NotFound("bid", id)
	}
	return b, err
}

// HasBid reports whether freelancerID already bid on projectID.
func (r Repo) HasBid(ctx context.Context, tx *sql.Tx, projectID, freelancerID string) (bool, error) {
	var n int
	err := r.q(tx).QueryRowContext(ctx, `SELECT COUNT(1) FROM bids WHERE project_id=? AND freelancer_id=?`, projectID, freelancerID).Scan(&n)
	return n > 0, err
}
