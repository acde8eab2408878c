package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"jobtrack-backend/internal/shared/telemetry"
)

// Recorder appends audit records after business writes have committed.
// A failed append is logged and swallowed so it never rolls back the
// action it describes.
type Recorder struct {
	Repo Repo
}

func NewRecorder(repo Repo) *Recorder {
	return &Recorder{Repo: repo}
}

// Action records a state-changing action against an audited subject.
func (r *Recorder) Action(ctx context.Context, subjectType, subjectID, action, performedBy string, details map[string]string) {
	if r == nil || r.Repo == nil {
		return
	}
	entry := ActionLogEntry{
		ID:              uuid.NewString(),
		SubjectType:     subjectType,
		SubjectID:       subjectID,
		Action:          action,
		PerformedBy:     performedBy,
		PerformedByType: performerType(performedBy),
		Details:         details,
		CreatedAt:       time.Now().UTC(),
	}
	if err := r.Repo.AppendAction(ctx, entry); err != nil {
		telemetry.Error("audit.action.append_failed", map[string]any{
			"subject_type": subjectType,
			"subject_id":   subjectID,
			"action":       action,
			"error":        err.Error(),
		})
	}
}

// Event records a named business event.
func (r *Recorder) Event(ctx context.Context, eventKey, subjectID, performedBy string, metadata map[string]string) {
	if r == nil || r.Repo == nil {
		return
	}
	event := ActivityEvent{
		ID:          uuid.NewString(),
		EventKey:    eventKey,
		SubjectID:   subjectID,
		PerformedBy: performedBy,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
	if err := r.Repo.AppendEvent(ctx, event); err != nil {
		telemetry.Error("audit.event.append_failed", map[string]any{
			"event_key":  eventKey,
			"subject_id": subjectID,
			"error":      err.Error(),
		})
	}
}

func performerType(performedBy string) string {
	if performedBy == "" || performedBy == "system" {
		return PerformerSystem
	}
	return PerformerUser
}
