package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo implements Repo in memory for tests and local development.
// The repo mutex plays the role of the database's conditional update:
// status checks and writes happen under one critical section.
type MemoryRepo struct {
	mu       sync.RWMutex
	jobs     map[string]Job
	byJobID  map[string]string
	versions map[string][]SummaryVersionRecord
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		jobs:     make(map[string]Job),
		byJobID:  make(map[string]string),
		versions: make(map[string][]SummaryVersionRecord),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byJobID[job.JobID]; ok {
		return ErrJobIDTaken
	}
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.SystemID] = job
	r.byJobID[job.JobID] = job.SystemID
	return nil
}

func (r *MemoryRepo) GetBySystemID(ctx context.Context, systemID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[systemID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return job, nil
}

func (r *MemoryRepo) GetByJobID(ctx context.Context, jobID string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	systemID, ok := r.byJobID[jobID]
	if !ok {
		return Job{}, ErrNotFound
	}
	return r.jobs[systemID], nil
}

func (r *MemoryRepo) CountJobsWithSystemID(ctx context.Context, systemID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.jobs[systemID]; ok {
		return 1, nil
	}
	return 0, nil
}

func (r *MemoryRepo) JobIDExists(ctx context.Context, jobID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byJobID[jobID]
	return ok, nil
}

func (r *MemoryRepo) TransitionStatus(ctx context.Context, systemID string, from, to Status, stamp TransitionStamp) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[systemID]
	if !ok || job.Status != from {
		return ErrStatusConflict
	}
	now := time.Now().UTC()
	job.Status = to
	job.UpdatedAt = now
	switch stamp {
	case StampFinalized:
		job.FinalizedAt = &now
	case StampWriterSelected:
		job.WriterSelectedAt = &now
	case StampFinalCopySubmitted:
		job.FinalCopySubmittedAt = &now
	}
	r.jobs[systemID] = job
	return nil
}

func (r *MemoryRepo) FinalizeTransition(ctx context.Context, systemID string, from, to Status, fields FinalizeFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[systemID]
	if !ok || job.Status != from {
		return ErrStatusConflict
	}
	now := time.Now().UTC()
	job.Status = to
	job.Category = fields.Category
	job.Level = fields.Level
	job.WordCount = fields.WordCount
	if fields.ReferencingStyle != "" {
		job.ReferencingStyle = fields.ReferencingStyle
	}
	if fields.WritingStyle != "" {
		job.WritingStyle = fields.WritingStyle
	}
	if fields.Topic != "" {
		job.Topic = fields.Topic
	}
	exp, strict := fields.ExpectedDeadline, fields.StrictDeadline
	job.ExpectedDeadline = &exp
	job.StrictDeadline = &strict
	job.CustomerID = fields.CustomerID
	job.CustomerName = fields.CustomerName
	job.ProjectGroup = fields.ProjectGroup
	job.Amount = fields.Amount
	job.SystemExpectedAmount = fields.SystemExpectedAmount
	job.FinalizedAt = &now
	job.UpdatedAt = now
	r.jobs[systemID] = job
	return nil
}

func (r *MemoryRepo) UpdateForAllocation(ctx context.Context, systemID string, from, to Status, role, assigneeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[systemID]
	if !ok || job.Status != from {
		return ErrStatusConflict
	}
	assignee := assigneeID
	switch role {
	case RoleWriter:
		job.WriterAssignee = &assignee
	case RoleProcess:
		job.ProcessAssignee = &assignee
	default:
		return ErrStatusConflict
	}
	job.Status = to
	job.UpdatedAt = time.Now().UTC()
	r.jobs[systemID] = job
	return nil
}

func (r *MemoryRepo) SetAssignee(ctx context.Context, systemID, role, assigneeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[systemID]
	if !ok {
		return ErrNotFound
	}
	assignee := assigneeID
	switch role {
	case RoleWriter:
		job.WriterAssignee = &assignee
	case RoleProcess:
		job.ProcessAssignee = &assignee
	}
	job.UpdatedAt = time.Now().UTC()
	r.jobs[systemID] = job
	return nil
}

func (r *MemoryRepo) ApplySummary(ctx context.Context, record SummaryVersionRecord, fields SummaryFields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[record.JobSystemID]
	if !ok || job.Status != StatusDraft || job.SummaryVersion != record.VersionNumber-1 {
		return ErrStatusConflict
	}
	job.SummaryVersion = record.VersionNumber
	job.SummaryGeneratedAt = append(job.SummaryGeneratedAt, fields.GeneratedAt)
	job.CompletenessDegree = fields.Degree
	if fields.Topic != "" {
		job.Topic = fields.Topic
	}
	if fields.WordCount > 0 {
		job.WordCount = fields.WordCount
	}
	if fields.ReferencingStyle != "" {
		job.ReferencingStyle = fields.ReferencingStyle
	}
	if fields.WritingStyle != "" {
		job.WritingStyle = fields.WritingStyle
	}
	if fields.Category != "" {
		job.Category = fields.Category
	}
	if fields.Level != "" {
		job.Level = fields.Level
	}
	if len(fields.Software) > 0 {
		job.Software = fields.Software
	}
	if fields.SummaryText != "" {
		job.JobSummary = fields.SummaryText
	}
	job.UpdatedAt = time.Now().UTC()
	r.jobs[record.JobSystemID] = job
	r.versions[record.JobSystemID] = append(r.versions[record.JobSystemID], record)
	return nil
}

func (r *MemoryRepo) MarkSummaryAccepted(ctx context.Context, systemID string, acceptedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[systemID]
	if !ok {
		return ErrNotFound
	}
	if job.SummaryAcceptedAt == nil {
		job.SummaryAcceptedAt = &acceptedAt
		job.UpdatedAt = time.Now().UTC()
		r.jobs[systemID] = job
	}
	return nil
}

func (r *MemoryRepo) ListSummaryVersions(ctx context.Context, systemID string) ([]SummaryVersionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := r.versions[systemID]
	out := make([]SummaryVersionRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (r *MemoryRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := []Job{}
	for _, job := range r.jobs {
		if status == "" || job.Status == status {
			matched = append(matched, job)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if offset >= len(matched) {
		return []Job{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}
