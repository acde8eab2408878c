package allocations

import (
	"context"
	"errors"

	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/shared/telemetry"
)

// Reconcile closes every allocation still active on a completed job.
// It is idempotent: once the anomalies are repaired, subsequent runs
// find nothing and report zero.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	stale, err := s.Repo.ListActiveForCompletedJobs(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	now := s.clock()
	for _, allocation := range stale {
		if err := s.Repo.CloseAllocation(ctx, allocation.ID, StatusCompleted, now); err != nil {
			if errors.Is(err, ErrAllocationNotActive) {
				continue
			}
			return repaired, err
		}
		repaired++
		metrics.IncAllocationClosed()
		telemetry.Warn("reconcile.closed_stale_allocation", map[string]any{
			"allocation_id": allocation.ID,
			"system_id":     allocation.JobSystemID,
			"role":          string(allocation.Role),
		})
		s.Audit.Action(ctx, audit.SubjectAllocation, allocation.ID, "closed", audit.PerformerSystem, map[string]string{
			"outcome": StatusCompleted,
			"reason":  "reconcile",
		})
		s.Audit.Event(ctx, "allocation.completed", allocation.JobSystemID, audit.PerformerSystem, map[string]string{
			"allocation_id": allocation.ID,
			"reason":        "reconcile",
		})
	}
	if repaired > 0 {
		metrics.AddReconcileRepairs(repaired)
	}
	return repaired, nil
}
