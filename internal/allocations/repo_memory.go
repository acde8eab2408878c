package allocations

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobtrack-backend/internal/jobs"
)

// MemoryRepo implements Repo in memory for tests and local development.
// JobStatus supplies job statuses for the reconciliation query; wire it
// to the jobs repo at construction.
type MemoryRepo struct {
	mu          sync.RWMutex
	allocations map[string]Allocation

	JobStatus func(ctx context.Context, jobSystemID string) (jobs.Status, error)
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{allocations: make(map[string]Allocation)}
}

func (r *MemoryRepo) Create(ctx context.Context, allocation Allocation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if allocation.Status == StatusActive {
		for _, existing := range r.allocations {
			if existing.JobSystemID == allocation.JobSystemID &&
				existing.Role == allocation.Role &&
				existing.Status == StatusActive {
				return ErrDuplicateActiveAllocation
			}
		}
	}
	allocation.UpdatedAt = allocation.AssignedAt
	r.allocations[allocation.ID] = allocation
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, allocationID string) (Allocation, error) {
	if err := ctx.Err(); err != nil {
		return Allocation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	allocation, ok := r.allocations[allocationID]
	if !ok {
		return Allocation{}, ErrNotFound
	}
	return allocation, nil
}

func (r *MemoryRepo) FindActive(ctx context.Context, jobSystemID string, role Role) (Allocation, error) {
	if err := ctx.Err(); err != nil {
		return Allocation{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, allocation := range r.allocations {
		if allocation.JobSystemID == jobSystemID && allocation.Role == role && allocation.Status == StatusActive {
			return allocation, nil
		}
	}
	return Allocation{}, ErrNotFound
}

func (r *MemoryRepo) ListByJob(ctx context.Context, jobSystemID string) ([]Allocation, error) {
	return r.filtered(ctx, func(a Allocation) bool { return a.JobSystemID == jobSystemID })
}

func (r *MemoryRepo) ListActiveByJob(ctx context.Context, jobSystemID string) ([]Allocation, error) {
	return r.filtered(ctx, func(a Allocation) bool {
		return a.JobSystemID == jobSystemID && a.Status == StatusActive
	})
}

func (r *MemoryRepo) filtered(ctx context.Context, keep func(Allocation) bool) ([]Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Allocation{}
	for _, allocation := range r.allocations {
		if keep(allocation) {
			out = append(out, allocation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssignedAt.Before(out[j].AssignedAt) })
	return out, nil
}

func (r *MemoryRepo) UpdateAssignee(ctx context.Context, allocationID, newAssigneeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	allocation, ok := r.allocations[allocationID]
	if !ok || allocation.Status != StatusActive {
		return ErrAllocationNotActive
	}
	allocation.AssigneeID = newAssigneeID
	allocation.UpdatedAt = time.Now().UTC()
	r.allocations[allocationID] = allocation
	return nil
}

func (r *MemoryRepo) CloseAllocation(ctx context.Context, allocationID, outcome string, completedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	allocation, ok := r.allocations[allocationID]
	if !ok || allocation.Status != StatusActive {
		return ErrAllocationNotActive
	}
	allocation.Status = outcome
	allocation.CompletedAt = &completedAt
	allocation.UpdatedAt = time.Now().UTC()
	r.allocations[allocationID] = allocation
	return nil
}

func (r *MemoryRepo) ListActiveForCompletedJobs(ctx context.Context) ([]Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.JobStatus == nil {
		return []Allocation{}, nil
	}
	active, err := r.filtered(ctx, func(a Allocation) bool { return a.Status == StatusActive })
	if err != nil {
		return nil, err
	}
	out := []Allocation{}
	for _, allocation := range active {
		status, err := r.JobStatus(ctx, allocation.JobSystemID)
		if err != nil {
			continue
		}
		if status == jobs.StatusCompleted {
			out = append(out, allocation)
		}
	}
	return out, nil
}
