package allocations

import (
	"time"

	"jobtrack-backend/internal/jobs"
)

// Role is the assignment track an allocation belongs to.
type Role string

const (
	RoleWriter  Role = jobs.RoleWriter
	RoleProcess Role = jobs.RoleProcess
)

func (r Role) Valid() bool {
	return r == RoleWriter || r == RoleProcess
}

// Allocation statuses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Window is the time span an allocation grants.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Allocation is a time-bounded grant of a job to one person for one
// role. For a given (job, role) at most one allocation is active.
type Allocation struct {
	ID          string     `json:"id"`
	JobSystemID string     `json:"jobSystemId"`
	AssigneeID  string     `json:"assigneeId"`
	AssignedBy  string     `json:"assignedBy,omitempty"`
	Role        Role       `json:"role"`
	Status      string     `json:"status"`
	StartAt     time.Time  `json:"startAt"`
	EndAt       time.Time  `json:"endAt"`
	AssignedAt  time.Time  `json:"assignedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
