package audit

import (
	"context"
	"sync"
)

// MemoryRepo implements Repo in memory for tests and local development.
type MemoryRepo struct {
	mu      sync.RWMutex
	actions []ActionLogEntry
	events  []ActivityEvent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) AppendAction(ctx context.Context, entry ActionLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, entry)
	return nil
}

func (r *MemoryRepo) AppendEvent(ctx context.Context, event ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *MemoryRepo) ListActionsForSubject(ctx context.Context, subjectType, subjectID string, limit int) ([]ActionLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := normalizeLimit(limit)
	out := []ActionLogEntry{}
	for i := len(r.actions) - 1; i >= 0 && len(out) < max; i-- {
		if r.actions[i].SubjectType == subjectType && r.actions[i].SubjectID == subjectID {
			out = append(out, r.actions[i])
		}
	}
	return out, nil
}

func (r *MemoryRepo) ListEventsByKey(ctx context.Context, eventKey string, limit int) ([]ActivityEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	max := normalizeLimit(limit)
	out := []ActivityEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < max; i-- {
		if r.events[i].EventKey == eventKey {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}
