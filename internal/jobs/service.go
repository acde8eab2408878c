package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/shared/telemetry"
	"jobtrack-backend/internal/summarize"
)

const minInstructionLength = 50

// TextSource supplies extracted attachment text for the summarizer.
type TextSource interface {
	ExtractedTexts(ctx context.Context, jobSystemID string) ([]string, error)
}

// Service owns the job lifecycle: intake, the summary gate, the
// finalize guards and every status transition that is not driven by
// the allocation engine.
type Service struct {
	Repo       Repo
	Sysid      *Generator
	Audit      *audit.Recorder
	Summarizer summarize.Client
	Texts      TextSource
	Model      string
}

type CreateInput struct {
	JobID       string `json:"jobId"`
	Instruction string `json:"instruction"`
	CreatedBy   string `json:"-"`
}

// Create opens a job in draft for the AI-summary intake path.
func (s *Service) Create(ctx context.Context, input CreateInput) (Job, error) {
	if strings.TrimSpace(input.JobID) == "" {
		return Job{}, fmt.Errorf("%w: job id is required", ErrValidation)
	}
	if strings.TrimSpace(input.Instruction) == "" {
		return Job{}, fmt.Errorf("%w: instruction is required", ErrValidation)
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return Job{}, fmt.Errorf("%w: creator is required", ErrValidation)
	}

	taken, err := s.Repo.JobIDExists(ctx, input.JobID)
	if err != nil {
		return Job{}, err
	}
	if taken {
		return Job{}, ErrJobIDTaken
	}

	systemID, err := s.Sysid.GenerateSystemID(ctx)
	if err != nil {
		return Job{}, err
	}

	job := Job{
		SystemID:           systemID,
		JobID:              input.JobID,
		Instruction:        input.Instruction,
		Status:             StatusDraft,
		CreationMethod:     CreationAISummary,
		CreatedBy:          input.CreatedBy,
		CompletenessDegree: 5,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}

	metrics.IncJobCreated()
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "created", input.CreatedBy, map[string]string{"job_id": input.JobID})
	s.Audit.Event(ctx, "job.created", systemID, input.CreatedBy, map[string]string{"creation_method": CreationAISummary})
	return job, nil
}

type FinalizeInput struct {
	Category         string    `json:"category"`
	Level            string    `json:"level"`
	WordCount        int       `json:"wordCount"`
	ReferencingStyle string    `json:"referencingStyle"`
	WritingStyle     string    `json:"writingStyle"`
	Topic            string    `json:"topic"`
	ExpectedDeadline time.Time `json:"expectedDeadline"`
	StrictDeadline   time.Time `json:"strictDeadline"`
	CustomerID       string    `json:"customerId"`
	CustomerName     string    `json:"customerName"`
	ProjectGroup     string    `json:"projectGroup"`
	Amount           float64   `json:"amount"`
}

// Finalize moves a pending job to unallocated once the intake form is
// complete.
func (s *Service) Finalize(ctx context.Context, systemID string, input FinalizeInput, performedBy string) (Job, error) {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return Job{}, err
	}
	fields, err := validateFinalize(job.Instruction, input, time.Now().UTC())
	if err != nil {
		return Job{}, err
	}

	next, err := Next(job.Status, EventFinalized)
	if err != nil {
		return Job{}, err
	}
	if err := s.Repo.FinalizeTransition(ctx, systemID, job.Status, next, fields); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			metrics.IncStatusConflict()
		}
		return Job{}, err
	}

	s.logTransition(ctx, systemID, job.Status, next, EventFinalized, performedBy)
	s.Audit.Event(ctx, "job.finalized", systemID, performedBy, map[string]string{
		"category": fields.Category,
		"level":    fields.Level,
	})
	return s.Repo.GetBySystemID(ctx, systemID)
}

type ManualCreateInput struct {
	CreateInput
	FinalizeInput
}

// CreateManual enters a complete job in one shot, skipping the summary
// gate. The job lands in unallocated with jobCreationMethod=manual.
func (s *Service) CreateManual(ctx context.Context, input ManualCreateInput) (Job, error) {
	if strings.TrimSpace(input.JobID) == "" {
		return Job{}, fmt.Errorf("%w: job id is required", ErrValidation)
	}
	if strings.TrimSpace(input.CreatedBy) == "" {
		return Job{}, fmt.Errorf("%w: creator is required", ErrValidation)
	}
	fields, err := validateFinalize(input.Instruction, input.FinalizeInput, time.Now().UTC())
	if err != nil {
		return Job{}, err
	}

	taken, err := s.Repo.JobIDExists(ctx, input.JobID)
	if err != nil {
		return Job{}, err
	}
	if taken {
		return Job{}, ErrJobIDTaken
	}

	systemID, err := s.Sysid.GenerateSystemID(ctx)
	if err != nil {
		return Job{}, err
	}

	now := time.Now().UTC()
	job := Job{
		SystemID:       systemID,
		JobID:          input.JobID,
		Instruction:    input.Instruction,
		Status:         StatusDraft,
		CreationMethod: CreationManual,
		CreatedBy:      input.CreatedBy,
		CreatedAt:      now,
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return Job{}, err
	}
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "created", input.CreatedBy, map[string]string{"job_id": input.JobID})
	s.Audit.Event(ctx, "job.created", systemID, input.CreatedBy, map[string]string{"creation_method": CreationManual})
	metrics.IncJobCreated()

	next, err := Next(StatusDraft, EventManualFinalized)
	if err != nil {
		return Job{}, err
	}
	if err := s.Repo.FinalizeTransition(ctx, systemID, StatusDraft, next, fields); err != nil {
		return Job{}, err
	}
	s.logTransition(ctx, systemID, StatusDraft, next, EventManualFinalized, input.CreatedBy)
	s.Audit.Event(ctx, "job.finalized", systemID, input.CreatedBy, map[string]string{
		"category": fields.Category,
		"level":    fields.Level,
	})
	return s.Repo.GetBySystemID(ctx, systemID)
}

func validateFinalize(instruction string, input FinalizeInput, now time.Time) (FinalizeFields, error) {
	if strings.TrimSpace(input.Category) == "" {
		return FinalizeFields{}, fmt.Errorf("%w: category is required", ErrValidation)
	}
	level := NormalizeLevel(input.Level)
	if level == "" {
		return FinalizeFields{}, fmt.Errorf("%w: level must be basic, intermediate or advanced", ErrValidation)
	}
	if input.WordCount <= 0 {
		return FinalizeFields{}, fmt.Errorf("%w: word count must be positive", ErrValidation)
	}
	if input.ExpectedDeadline.IsZero() || input.StrictDeadline.IsZero() {
		return FinalizeFields{}, fmt.Errorf("%w: both deadlines are required", ErrValidation)
	}
	if input.StrictDeadline.Before(now.Add(24 * time.Hour)) {
		return FinalizeFields{}, fmt.Errorf("%w: strict deadline must be at least 24h away", ErrValidation)
	}
	if !input.ExpectedDeadline.Before(input.StrictDeadline) {
		return FinalizeFields{}, fmt.Errorf("%w: expected deadline must be before strict deadline", ErrValidation)
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return FinalizeFields{}, fmt.Errorf("%w: customer is required", ErrValidation)
	}
	if strings.TrimSpace(input.ProjectGroup) == "" {
		return FinalizeFields{}, fmt.Errorf("%w: project group is required", ErrValidation)
	}
	if input.Amount <= 0 {
		return FinalizeFields{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if len(strings.TrimSpace(instruction)) < minInstructionLength {
		return FinalizeFields{}, fmt.Errorf("%w: instruction must be at least %d characters", ErrValidation, minInstructionLength)
	}
	price, ok := PricePerWord(input.Category, level)
	if !ok {
		return FinalizeFields{}, fmt.Errorf("%w: pricing not configured for category %q level %q", ErrValidation, input.Category, level)
	}

	return FinalizeFields{
		Category:             input.Category,
		Level:                level,
		WordCount:            input.WordCount,
		ReferencingStyle:     input.ReferencingStyle,
		WritingStyle:         input.WritingStyle,
		Topic:                input.Topic,
		ExpectedDeadline:     input.ExpectedDeadline.UTC(),
		StrictDeadline:       input.StrictDeadline.UTC(),
		CustomerID:           input.CustomerID,
		CustomerName:         input.CustomerName,
		ProjectGroup:         input.ProjectGroup,
		Amount:               input.Amount,
		SystemExpectedAmount: price * float64(input.WordCount),
	}, nil
}

// SelectWriterTask marks the writer as having started; calling it again
// once the job is in progress is a no-op.
func (s *Service) SelectWriterTask(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	if job.Status == StatusInProgress {
		return nil
	}
	return s.applyEvent(ctx, job, EventWriterSelected, StampWriterSelected, performedBy)
}

// SubmitFinalCopy moves an in-progress job to review.
func (s *Service) SubmitFinalCopy(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	return s.applyEvent(ctx, job, EventFinalCopySubmitted, StampFinalCopySubmitted, performedBy)
}

// SelectProcessTask marks the process member as having started.
func (s *Service) SelectProcessTask(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	return s.applyEvent(ctx, job, EventProcessSelected, StampNone, performedBy)
}

// Hold parks a job from any non-terminal state.
func (s *Service) Hold(ctx context.Context, systemID, performedBy, reason string) error {
	return s.sideExit(ctx, systemID, EventHold, performedBy, reason)
}

// MarkQuery parks a job awaiting clarification.
func (s *Service) MarkQuery(ctx context.Context, systemID, performedBy, reason string) error {
	return s.sideExit(ctx, systemID, EventQuery, performedBy, reason)
}

// Cancel terminates a job. Cancelled is terminal; records are never
// physically deleted.
func (s *Service) Cancel(ctx context.Context, systemID, performedBy, reason string) error {
	return s.sideExit(ctx, systemID, EventCancelled, performedBy, reason)
}

func (s *Service) sideExit(ctx context.Context, systemID string, event Event, performedBy, reason string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	next, err := Next(job.Status, event)
	if err != nil {
		return err
	}
	if err := s.Repo.TransitionStatus(ctx, systemID, job.Status, next, StampNone); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			metrics.IncStatusConflict()
		}
		return err
	}
	details := map[string]string{"from": string(job.Status), "to": string(next), "event": string(event)}
	if reason != "" {
		details["reason"] = reason
	}
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "status_changed", performedBy, details)
	s.Audit.Event(ctx, "job.status.changed", systemID, performedBy, details)
	return nil
}

// ResumeWriting returns a held or queried job to the writing track.
func (s *Service) ResumeWriting(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	return s.applyEvent(ctx, job, EventResumeWriting, StampNone, performedBy)
}

// ResumeProcess returns a held or queried job to the process track.
func (s *Service) ResumeProcess(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	return s.applyEvent(ctx, job, EventResumeProcess, StampNone, performedBy)
}

func (s *Service) applyEvent(ctx context.Context, job Job, event Event, stamp TransitionStamp, performedBy string) error {
	next, err := Next(job.Status, event)
	if err != nil {
		return err
	}
	if err := s.Repo.TransitionStatus(ctx, job.SystemID, job.Status, next, stamp); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			metrics.IncStatusConflict()
		}
		return err
	}
	s.logTransition(ctx, job.SystemID, job.Status, next, event, performedBy)
	return nil
}

func (s *Service) logTransition(ctx context.Context, systemID string, from, to Status, event Event, performedBy string) {
	details := map[string]string{"from": string(from), "to": string(to), "event": string(event)}
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "status_changed", performedBy, details)
	s.Audit.Event(ctx, "job.status.changed", systemID, performedBy, details)
	telemetry.Info("job.status.changed", map[string]any{
		"system_id":         systemID,
		"status_transition": string(from) + "->" + string(to),
		"event":             string(event),
		"actor_id":          performedBy,
	})
}

// Get returns a job by its system ID.
func (s *Service) Get(ctx context.Context, systemID string) (Job, error) {
	return s.Repo.GetBySystemID(ctx, systemID)
}

// GetByJobID returns a job by its user-supplied label.
func (s *Service) GetByJobID(ctx context.Context, jobID string) (Job, error) {
	return s.Repo.GetByJobID(ctx, jobID)
}

// CheckJobIDAvailable reports whether the label is free.
func (s *Service) CheckJobIDAvailable(ctx context.Context, jobID string) (bool, error) {
	if strings.TrimSpace(jobID) == "" {
		return false, fmt.Errorf("%w: job id is required", ErrValidation)
	}
	exists, err := s.Repo.JobIDExists(ctx, jobID)
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// List returns jobs in a given status, newest first.
func (s *Service) List(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListByStatus(ctx, status, limit, offset)
}
