package audit

import "context"

type Repo interface {
	AppendAction(ctx context.Context, entry ActionLogEntry) error
	AppendEvent(ctx context.Context, event ActivityEvent) error
	ListActionsForSubject(ctx context.Context, subjectType, subjectID string, limit int) ([]ActionLogEntry, error)
	ListEventsByKey(ctx context.Context, eventKey string, limit int) ([]ActivityEvent, error)
}
