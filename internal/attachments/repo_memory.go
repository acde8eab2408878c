package attachments

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for tests and local development.
type MemoryRepo struct {
	mu    sync.RWMutex
	byID  map[string]Attachment
	byJob map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:  make(map[string]Attachment),
		byJob: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, attachment Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[attachment.ID] = attachment
	r.byJob[attachment.JobSystemID] = append(r.byJob[attachment.JobSystemID], attachment.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, attachmentID string) (Attachment, error) {
	if err := ctx.Err(); err != nil {
		return Attachment{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	attachment, ok := r.byID[attachmentID]
	if !ok {
		return Attachment{}, ErrNotFound
	}
	return attachment, nil
}

func (r *MemoryRepo) ListByJob(ctx context.Context, jobSystemID string) ([]Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []Attachment{}
	for _, id := range r.byJob[jobSystemID] {
		out = append(out, r.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) MarkExtracted(ctx context.Context, attachmentID, extractedTextKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	attachment, ok := r.byID[attachmentID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	attachment.ExtractedTextKey = extractedTextKey
	attachment.ExtractedAt = &now
	r.byID[attachmentID] = attachment
	return nil
}
