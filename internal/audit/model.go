package audit

import "time"

// Subject types accepted in action logs.
const (
	SubjectJob        = "job"
	SubjectAllocation = "allocation"
	SubjectCustomer   = "customer"
)

// Performer types.
const (
	PerformerUser   = "user"
	PerformerSystem = "system"
)

// ActionLogEntry is an immutable record of a state-changing action.
type ActionLogEntry struct {
	ID              string            `json:"id"`
	SubjectType     string            `json:"subjectType"`
	SubjectID       string            `json:"subjectId"`
	Action          string            `json:"action"`
	PerformedBy     string            `json:"performedBy,omitempty"`
	PerformedByType string            `json:"performedByType"`
	Details         map[string]string `json:"details,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// ActivityEvent is a named business event emitted alongside action logs.
type ActivityEvent struct {
	ID          string            `json:"id"`
	EventKey    string            `json:"eventKey"`
	SubjectID   string            `json:"subjectId"`
	PerformedBy string            `json:"performedBy,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}
