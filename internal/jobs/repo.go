package jobs

import (
	"context"
	"time"
)

// Assignment roles, shared with the allocation engine.
const (
	RoleWriter  = "writer"
	RoleProcess = "process"
)

// TransitionStamp names an optional timestamp column written together
// with a status transition.
type TransitionStamp string

const (
	StampNone               TransitionStamp = ""
	StampFinalized          TransitionStamp = "finalized_at"
	StampWriterSelected     TransitionStamp = "writer_selected_at"
	StampFinalCopySubmitted TransitionStamp = "final_copy_submitted_at"
)

// FinalizeFields is the mandatory intake-completion data written when a
// job leaves pending, or is entered through the manual path.
type FinalizeFields struct {
	Category             string
	Level                string
	WordCount            int
	ReferencingStyle     string
	WritingStyle         string
	Topic                string
	ExpectedDeadline     time.Time
	StrictDeadline       time.Time
	CustomerID           string
	CustomerName         string
	ProjectGroup         string
	Amount               float64
	SystemExpectedAmount float64
}

// SummaryFields is the denormalized copy of one summary attempt onto
// the job row. Empty fields leave the existing value untouched.
type SummaryFields struct {
	Topic            string
	WordCount        int
	ReferencingStyle string
	WritingStyle     string
	Category         string
	Level            string
	Software         []string
	SummaryText      string
	Degree           int
	GeneratedAt      time.Time
}

type Repo interface {
	Create(ctx context.Context, job Job) error
	GetBySystemID(ctx context.Context, systemID string) (Job, error)
	GetByJobID(ctx context.Context, jobID string) (Job, error)
	CountJobsWithSystemID(ctx context.Context, systemID string) (int, error)
	JobIDExists(ctx context.Context, jobID string) (bool, error)

	// TransitionStatus applies a compare-and-set status update and
	// returns ErrStatusConflict when the job is no longer in from.
	// The conditional update is what serializes concurrent writers of
	// the same job.
	TransitionStatus(ctx context.Context, systemID string, from, to Status, stamp TransitionStamp) error

	// FinalizeTransition is TransitionStatus plus the finalize fields,
	// applied in one statement.
	FinalizeTransition(ctx context.Context, systemID string, from, to Status, fields FinalizeFields) error

	// UpdateForAllocation CASes the status and sets the role's
	// assignee pointer together.
	UpdateForAllocation(ctx context.Context, systemID string, from, to Status, role, assigneeID string) error

	// SetAssignee overwrites the role's pointer without touching
	// status, for reassignment.
	SetAssignee(ctx context.Context, systemID, role, assigneeID string) error

	// ApplySummary appends the version record and updates the job's
	// summary bookkeeping atomically. The job must still be in draft
	// at the record's previous version, otherwise ErrStatusConflict.
	ApplySummary(ctx context.Context, record SummaryVersionRecord, fields SummaryFields) error

	MarkSummaryAccepted(ctx context.Context, systemID string, acceptedAt time.Time) error
	ListSummaryVersions(ctx context.Context, systemID string) ([]SummaryVersionRecord, error)
	ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Job, error)
}
