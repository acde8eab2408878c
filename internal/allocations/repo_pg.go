package allocations

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGRepo implements Repo using Postgres. The partial unique index on
// (job_system_id, role) WHERE status = 'active' backs the
// at-most-one-active invariant at the storage layer.
type PGRepo struct {
	DB *sql.DB
}

const allocationColumns = `id, job_system_id, assignee_id, assigned_by, role, status, start_at, end_at,
       assigned_at, completed_at, notes, updated_at`

func (r *PGRepo) Create(ctx context.Context, allocation Allocation) error {
	const query = `
INSERT INTO job_allocations (id, job_system_id, assignee_id, assigned_by, role, status, start_at, end_at, assigned_at, notes, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $9)`
	var assignedBy any
	if allocation.AssignedBy != "" {
		assignedBy = allocation.AssignedBy
	}
	var notes any
	if allocation.Notes != "" {
		notes = allocation.Notes
	}
	_, err := r.DB.ExecContext(ctx, query,
		allocation.ID,
		allocation.JobSystemID,
		allocation.AssigneeID,
		assignedBy,
		string(allocation.Role),
		allocation.Status,
		allocation.StartAt,
		allocation.EndAt,
		allocation.AssignedAt,
		notes,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateActiveAllocation
		}
		return err
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, allocationID string) (Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM job_allocations WHERE id = $1 LIMIT 1`
	allocation, err := scanAllocation(r.DB.QueryRowContext(ctx, query, allocationID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Allocation{}, ErrNotFound
		}
		return Allocation{}, err
	}
	return allocation, nil
}

func (r *PGRepo) FindActive(ctx context.Context, jobSystemID string, role Role) (Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM job_allocations WHERE job_system_id = $1 AND role = $2 AND status = 'active' LIMIT 1`
	allocation, err := scanAllocation(r.DB.QueryRowContext(ctx, query, jobSystemID, string(role)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Allocation{}, ErrNotFound
		}
		return Allocation{}, err
	}
	return allocation, nil
}

func (r *PGRepo) ListByJob(ctx context.Context, jobSystemID string) ([]Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM job_allocations WHERE job_system_id = $1 ORDER BY assigned_at`
	return r.list(ctx, query, jobSystemID)
}

func (r *PGRepo) ListActiveByJob(ctx context.Context, jobSystemID string) ([]Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM job_allocations WHERE job_system_id = $1 AND status = 'active' ORDER BY assigned_at`
	return r.list(ctx, query, jobSystemID)
}

func (r *PGRepo) UpdateAssignee(ctx context.Context, allocationID, newAssigneeID string) error {
	const query = `
UPDATE job_allocations SET assignee_id = $2, updated_at = now()
WHERE id = $1 AND status = 'active'`
	res, err := r.DB.ExecContext(ctx, query, allocationID, newAssigneeID)
	if err != nil {
		return err
	}
	return activeOutcome(res)
}

func (r *PGRepo) CloseAllocation(ctx context.Context, allocationID, outcome string, completedAt time.Time) error {
	const query = `
UPDATE job_allocations SET status = $2, completed_at = $3, updated_at = now()
WHERE id = $1 AND status = 'active'`
	res, err := r.DB.ExecContext(ctx, query, allocationID, outcome, completedAt)
	if err != nil {
		return err
	}
	return activeOutcome(res)
}

func (r *PGRepo) ListActiveForCompletedJobs(ctx context.Context) ([]Allocation, error) {
	const query = `
SELECT a.id, a.job_system_id, a.assignee_id, a.assigned_by, a.role, a.status, a.start_at, a.end_at,
       a.assigned_at, a.completed_at, a.notes, a.updated_at
FROM job_allocations a
JOIN jobs j ON j.system_id = a.job_system_id
WHERE a.status = 'active' AND j.status = 'completed'
ORDER BY a.assigned_at`
	return r.list(ctx, query)
}

func (r *PGRepo) list(ctx context.Context, query string, args ...any) ([]Allocation, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Allocation{}
	for rows.Next() {
		allocation, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, allocation)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAllocation(row rowScanner) (Allocation, error) {
	var a Allocation
	var assignedBy, notes sql.NullString
	var completedAt sql.NullTime
	err := row.Scan(
		&a.ID,
		&a.JobSystemID,
		&a.AssigneeID,
		&assignedBy,
		&a.Role,
		&a.Status,
		&a.StartAt,
		&a.EndAt,
		&a.AssignedAt,
		&completedAt,
		&notes,
		&a.UpdatedAt,
	)
	if err != nil {
		return Allocation{}, err
	}
	a.AssignedBy = assignedBy.String
	a.Notes = notes.String
	if completedAt.Valid {
		t := completedAt.Time
		a.CompletedAt = &t
	}
	return a, nil
}

func activeOutcome(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAllocationNotActive
	}
	return nil
}
