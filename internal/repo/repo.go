package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Someesvaar/Freelance-Hub/internal/apperrors"
	"github.com/Someesvaar/Freelance-Hub/internal/db"
	"github.com/Someesvaar/Freelance-Hub/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = apperrors.ErrNotFound

// ErrStale is returned when a version-checked update lost a race.
var ErrStale = errors.New("stale project version")

// q returns tx when non-nil so the same method serves both transactional and plain reads.
func (r Repo) q(tx *sql.Tx) db.DBTX {
	if tx != nil {
		return tx
	}
	return r.DB
}

const projectColumns = `id,client_id,title,description,budget,COALESCE(required_skills,''),status,assigned_freelancer_id,accepted_bid_id,version,created_at,updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (domain.Project, error) {
	var p domain.Project
	var skills string
	var assigned, accepted sql.NullString
	err := row.Scan(&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Budget, &skills, &p.Status,
		&assigned, &accepted, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return p, err
	}
	p.RequiredSkills = SplitSkills(skills)
	p.AssignedFreelancerID = stringPtr(assigned)
	p.AcceptedBidID = stringPtr(accepted)
	return p, nil
}

func (r Repo) InsertProject(ctx context.Context, tx *sql.Tx, p domain.Project) error {
	_, err := r.q(tx).ExecContext(ctx, `INSERT INTO projects(id,client_id,title,description,budget,required_skills,status,assigned_freelancer_id,accepted_bid_id,version,created_at,updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.ClientID, p.Title, p.Description, p.Budget, nullable(JoinSkills(p.RequiredSkills)), p.Status,
		nullableStringPtr(p.AssignedFreelancerID), nullableStringPtr(p.AcceptedBidID), p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.InvalidInput("project id %s is already taken", p.ID).
				WithDetails(map[string]any{"project_id": p.ID})
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r Repo) GetProject(ctx context.Context, tx *sql.Tx, id string) (domain.Project, error) {
	p, err := scanProject(r.q(tx).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return p, apperrors.NotFound("project", id)
	}
	return p, err
}

// ProjectFilters narrows ListProjects. Empty fields match everything.
type ProjectFilters struct {
	Status       domain.Status
	Skill        string
	ClientID     string
	FreelancerID string
	Limit        int
}

func (r Repo) ListProjects(ctx context.Context, f ProjectFilters) ([]domain.Project, error) {
	clauses := []string{"1=1"}
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status=?")
		args = append(args, f.Status)
	}
	if skill := normalizeSkill(f.Skill); skill != "" {
		clauses = append(clauses, "(',' || lower(COALESCE(required_skills,'')) || ',') LIKE ?")
		args = append(args, "%,"+skill+",%")
	}
	if f.ClientID != "" {
		clauses = append(clauses, "client_id=?")
		args = append(args, f.ClientID)
	}
	if f.FreelancerID != "" {
		clauses = append(clauses, "assigned_freelancer_id=?")
		args = append(args, f.FreelancerID)
	}
	query := `SELECT ` + projectColumns + ` FROM projects WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

// UpdateProjectState writes the lifecycle fields of p if the stored version still
// equals p.Version, bumping the version. A lost race returns ErrStale wrapped as Unavailable.
func (r Repo) UpdateProjectState(ctx context.Context, tx *sql.Tx, p domain.Project) (domain.Project, error) {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET status=?, assigned_freelancer_id=?, accepted_bid_id=?, version=version+1, updated_at=?
WHERE id=? AND version=?`,
		p.Status, nullableStringPtr(p.AssignedFreelancerID), nullableStringPtr(p.AcceptedBidID), p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return p, fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return p, apperrors.Unavailable(fmt.Errorf("project %s: %w", p.ID, ErrStale))
	}
	p.Version++
	return p, nil
}

// UpdateProjectDetails writes the editable fields of p under the same version
// check as UpdateProjectState. Lifecycle fields are left untouched.
func (r Repo) UpdateProjectDetails(ctx context.Context, tx *sql.Tx, p domain.Project) (domain.Project, error) {
	res, err := r.q(tx).ExecContext(ctx, `UPDATE projects SET title=?, description=?, budget=?, required_skills=?, version=version+1, updated_at=?
WHERE id=? AND version=?`,
		p.Title, p.Description, p.Budget, nullable(JoinSkills(p.RequiredSkills)), p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return p, fmt.Errorf("update project details: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return p, apperrors.Unavailable(fmt.Errorf("project %s: %w", p.ID, ErrStale))
	}
	p.Version++
	return p, nil
}

// SplitSkills parses the stored comma list.
func SplitSkills(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// JoinSkills normalizes and joins skills for storage, dropping blanks and duplicates.
func JoinSkills(skills []string) string {
	seen := map[string]bool{}
	var out []string
	for _, s := range skills {
		v := strings.TrimSpace(s)
		if v == "" || strings.Contains(v, ",") || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return strings.Join(out, ",")
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullableStringPtr(v *string) any {
	if v == nil || *v == "" {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloatPtr(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}
