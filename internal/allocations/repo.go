package allocations

import (
	"context"
	"time"
)

type Repo interface {
	// Create inserts a new active allocation. A second active
	// allocation for the same (job, role) fails with
	// ErrDuplicateActiveAllocation.
	Create(ctx context.Context, allocation Allocation) error
	GetByID(ctx context.Context, allocationID string) (Allocation, error)
	FindActive(ctx context.Context, jobSystemID string, role Role) (Allocation, error)
	ListByJob(ctx context.Context, jobSystemID string) ([]Allocation, error)
	ListActiveByJob(ctx context.Context, jobSystemID string) ([]Allocation, error)

	// UpdateAssignee swaps the assignee on an allocation that is still
	// active; ErrAllocationNotActive otherwise.
	UpdateAssignee(ctx context.Context, allocationID, newAssigneeID string) error

	// CloseAllocation moves an active allocation to completed or
	// cancelled; ErrAllocationNotActive otherwise.
	CloseAllocation(ctx context.Context, allocationID, outcome string, completedAt time.Time) error

	// ListActiveForCompletedJobs returns allocations still active on
	// jobs whose status is completed, for the reconciliation sweep.
	ListActiveForCompletedJobs(ctx context.Context) ([]Allocation, error)
}
