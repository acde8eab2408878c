package allocations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/jobs"
	"jobtrack-backend/internal/queue"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/shared/telemetry"
	"jobtrack-backend/internal/users"
)

// Service is the allocation engine. It is the only component that
// drives the job transitions tied to assignment and the single writer
// of the job's denormalized assignee pointers.
type Service struct {
	Repo  Repo
	Jobs  jobs.Repo
	Users *users.Service
	Audit *audit.Recorder
	Queue queue.Client

	// now is swappable for tests.
	now func() time.Time
}

func NewService(repo Repo, jobsRepo jobs.Repo, audit *audit.Recorder) *Service {
	return &Service{Repo: repo, Jobs: jobsRepo, Audit: audit, now: time.Now}
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}

type AllocateInput struct {
	SystemID   string `json:"systemId"`
	AssigneeID string `json:"assigneeId"`
	Role       Role   `json:"role"`
	Window     Window `json:"window"`
	AssignedBy string `json:"-"`
	Notes      string `json:"notes"`
}

// Allocate grants the job to one person for one role and advances the
// job status. The conditional status update on the job is what
// serializes concurrent attempts: of N racing calls for the same
// (job, role), exactly one wins and the rest see a conflict.
func (s *Service) Allocate(ctx context.Context, input AllocateInput) (Allocation, error) {
	if !input.Role.Valid() {
		return Allocation{}, fmt.Errorf("%w: %q", ErrInvalidRole, input.Role)
	}
	if input.AssigneeID == "" {
		return Allocation{}, fmt.Errorf("%w: assignee is required", ErrInvalidRole)
	}
	now := s.clock()
	if !input.Window.End.After(input.Window.Start) {
		return Allocation{}, fmt.Errorf("%w: end must be after start", ErrInvalidWindow)
	}
	if input.Window.Start.Before(now) {
		return Allocation{}, fmt.Errorf("%w: start must not be in the past", ErrInvalidWindow)
	}

	job, err := s.Jobs.GetBySystemID(ctx, input.SystemID)
	if err != nil {
		return Allocation{}, err
	}
	from, event := allocationTransition(input.Role)
	if job.Status != from {
		return Allocation{}, fmt.Errorf("%w: job is %s, want %s", ErrJobNotInAssignableState, job.Status, from)
	}
	if job.ExpectedDeadline != nil && input.Window.End.After(*job.ExpectedDeadline) {
		return Allocation{}, fmt.Errorf("%w: end is beyond the expected deadline", ErrInvalidWindow)
	}

	if _, err := s.Repo.FindActive(ctx, input.SystemID, input.Role); err == nil {
		return Allocation{}, ErrDuplicateActiveAllocation
	} else if !errors.Is(err, ErrNotFound) {
		return Allocation{}, err
	}

	s.warnOnRoleMismatch(ctx, input.AssigneeID, input.Role, input.SystemID)

	to, err := jobs.Next(from, event)
	if err != nil {
		return Allocation{}, err
	}
	if err := s.Jobs.UpdateForAllocation(ctx, input.SystemID, from, to, string(input.Role), input.AssigneeID); err != nil {
		if errors.Is(err, jobs.ErrStatusConflict) {
			metrics.IncStatusConflict()
			return Allocation{}, fmt.Errorf("%w: lost status race", ErrJobNotInAssignableState)
		}
		return Allocation{}, err
	}

	allocation := Allocation{
		ID:          uuid.NewString(),
		JobSystemID: input.SystemID,
		AssigneeID:  input.AssigneeID,
		AssignedBy:  input.AssignedBy,
		Role:        input.Role,
		Status:      StatusActive,
		StartAt:     input.Window.Start.UTC(),
		EndAt:       input.Window.End.UTC(),
		AssignedAt:  now,
		Notes:       input.Notes,
	}
	if err := s.Repo.Create(ctx, allocation); err != nil {
		// Job already advanced; the insert is the second leg of the
		// dual write. Surface the failure and leave repair to the
		// reconciliation sweep and operators.
		telemetry.Error("allocation.create_failed_after_transition", map[string]any{
			"system_id": input.SystemID,
			"role":      string(input.Role),
			"error":     err.Error(),
		})
		return Allocation{}, err
	}

	metrics.IncAllocationCreated()
	s.Audit.Action(ctx, audit.SubjectAllocation, allocation.ID, "created", input.AssignedBy, map[string]string{
		"system_id": input.SystemID,
		"assignee":  input.AssigneeID,
		"role":      string(input.Role),
	})
	s.Audit.Action(ctx, audit.SubjectJob, input.SystemID, "status_changed", input.AssignedBy, map[string]string{
		"from":  string(from),
		"to":    string(to),
		"event": string(event),
	})
	s.Audit.Event(ctx, allocationEventKey(input.Role), input.SystemID, input.AssignedBy, map[string]string{
		"allocation_id": allocation.ID,
		"assignee":      input.AssigneeID,
	})
	telemetry.Info("job.allocated", map[string]any{
		"system_id":         input.SystemID,
		"allocation_id":     allocation.ID,
		"role":              string(input.Role),
		"status_transition": string(from) + "->" + string(to),
	})
	return allocation, nil
}

func allocationTransition(role Role) (jobs.Status, jobs.Event) {
	if role == RoleWriter {
		return jobs.StatusUnallocated, jobs.EventWriterAllocated
	}
	return jobs.StatusReview, jobs.EventProcessAllocated
}

func allocationEventKey(role Role) string {
	if role == RoleWriter {
		return "job.allocated_to_writer"
	}
	return "job.allocated_to_process"
}

// A mismatch between the assignee's directory role and the allocation
// role is tolerated for legacy data; it is logged, never rejected.
func (s *Service) warnOnRoleMismatch(ctx context.Context, assigneeID string, role Role, systemID string) {
	if s.Users == nil {
		return
	}
	user, err := s.Users.GetByID(ctx, assigneeID)
	if err != nil {
		return
	}
	if string(user.Role) != string(role) {
		telemetry.Warn("allocation.role_mismatch", map[string]any{
			"system_id":     systemID,
			"assignee":      assigneeID,
			"assignee_role": string(user.Role),
			"wanted_role":   string(role),
		})
	}
}

// Reassign swaps the assignee on an active allocation and the job's
// pointer. The window and status stay as they are; exactly one
// reassigned entry is appended.
func (s *Service) Reassign(ctx context.Context, allocationID, newAssigneeID, performedBy string) (Allocation, error) {
	if newAssigneeID == "" {
		return Allocation{}, fmt.Errorf("%w: assignee is required", ErrInvalidRole)
	}
	allocation, err := s.Repo.GetByID(ctx, allocationID)
	if err != nil {
		return Allocation{}, err
	}
	if allocation.Status != StatusActive {
		return Allocation{}, ErrAllocationNotActive
	}

	s.warnOnRoleMismatch(ctx, newAssigneeID, allocation.Role, allocation.JobSystemID)

	if err := s.Repo.UpdateAssignee(ctx, allocationID, newAssigneeID); err != nil {
		return Allocation{}, err
	}
	if err := s.Jobs.SetAssignee(ctx, allocation.JobSystemID, string(allocation.Role), newAssigneeID); err != nil {
		// Second leg of the dual write failed; the job still names the
		// old assignee, so put the allocation back to match.
		if revertErr := s.Repo.UpdateAssignee(ctx, allocationID, allocation.AssigneeID); revertErr != nil {
			telemetry.Error("allocation.reassign_revert_failed", map[string]any{
				"allocation_id": allocationID,
				"system_id":     allocation.JobSystemID,
				"old_assignee":  allocation.AssigneeID,
				"new_assignee":  newAssigneeID,
				"error":         revertErr.Error(),
			})
		}
		return Allocation{}, err
	}

	metrics.IncAllocationReassigned()
	s.Audit.Action(ctx, audit.SubjectAllocation, allocationID, "reassigned", performedBy, map[string]string{
		"old_assignee": allocation.AssigneeID,
		"new_assignee": newAssigneeID,
	})
	s.Audit.Event(ctx, "allocation.reassigned", allocation.JobSystemID, performedBy, map[string]string{
		"allocation_id": allocationID,
		"old_assignee":  allocation.AssigneeID,
		"new_assignee":  newAssigneeID,
	})

	allocation.AssigneeID = newAssigneeID
	return allocation, nil
}

// Close ends an active allocation with an outcome. Job status is never
// touched here; the state machine drives that separately.
func (s *Service) Close(ctx context.Context, allocationID, outcome, performedBy string) error {
	if outcome != StatusCompleted && outcome != StatusCancelled {
		return fmt.Errorf("%w: outcome must be completed or cancelled", ErrInvalidRole)
	}
	allocation, err := s.Repo.GetByID(ctx, allocationID)
	if err != nil {
		return err
	}
	if err := s.Repo.CloseAllocation(ctx, allocationID, outcome, s.clock()); err != nil {
		return err
	}

	metrics.IncAllocationClosed()
	s.Audit.Action(ctx, audit.SubjectAllocation, allocationID, "closed", performedBy, map[string]string{
		"outcome": outcome,
	})
	s.Audit.Event(ctx, "allocation."+outcome, allocation.JobSystemID, performedBy, map[string]string{
		"allocation_id": allocationID,
	})
	return nil
}

// CompleteJob drives in_review -> completed and closes every active
// allocation on the job. The two legs are not atomic; a reconcile hint
// is enqueued so the sweeper can repair a crash in between.
func (s *Service) CompleteJob(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Jobs.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	to, err := jobs.Next(job.Status, jobs.EventProcessSubmitted)
	if err != nil {
		return err
	}
	if err := s.Jobs.TransitionStatus(ctx, systemID, job.Status, to, jobs.StampNone); err != nil {
		if errors.Is(err, jobs.ErrStatusConflict) {
			metrics.IncStatusConflict()
		}
		return err
	}
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "status_changed", performedBy, map[string]string{
		"from":  string(job.Status),
		"to":    string(to),
		"event": string(jobs.EventProcessSubmitted),
	})
	s.Audit.Event(ctx, "job.status.changed", systemID, performedBy, map[string]string{
		"from": string(job.Status),
		"to":   string(to),
	})

	s.enqueueReconcileHint(ctx, systemID)

	active, err := s.Repo.ListActiveByJob(ctx, systemID)
	if err != nil {
		return err
	}
	for _, allocation := range active {
		if err := s.Close(ctx, allocation.ID, StatusCompleted, performedBy); err != nil {
			if errors.Is(err, ErrAllocationNotActive) {
				continue
			}
			return err
		}
	}
	return nil
}

func (s *Service) enqueueReconcileHint(ctx context.Context, systemID string) {
	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		SystemID:   systemID,
		RequestID:  uuid.NewString(),
		EnqueuedAt: s.clock().Format(time.RFC3339),
		Version:    1,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Warn("allocation.reconcile_hint_failed", map[string]any{
			"system_id": systemID,
			"error":     err.Error(),
		})
	}
}

// Get returns one allocation.
func (s *Service) Get(ctx context.Context, allocationID string) (Allocation, error) {
	return s.Repo.GetByID(ctx, allocationID)
}

// ListByJob returns every allocation recorded against a job.
func (s *Service) ListByJob(ctx context.Context, systemID string) ([]Allocation, error) {
	return s.Repo.ListByJob(ctx, systemID)
}
