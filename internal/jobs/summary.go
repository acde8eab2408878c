package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobtrack-backend/internal/audit"
	"jobtrack-backend/internal/shared/metrics"
	"jobtrack-backend/internal/summarize"
)

const maxSummaryVersions = 3

// RequestSummary runs one AI-summary attempt against the job brief.
// The returned bool reports whether the job auto-advanced to pending.
// A fourth attempt fails with ErrVersionLimitExceeded.
func (s *Service) RequestSummary(ctx context.Context, systemID, performedBy string) (SummaryVersionRecord, bool, error) {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return SummaryVersionRecord{}, false, err
	}
	if job.Status != StatusDraft {
		return SummaryVersionRecord{}, false, fmt.Errorf("%w: summary generation only applies to draft jobs", ErrStatusConflict)
	}
	if job.SummaryVersion >= maxSummaryVersions {
		return SummaryVersionRecord{}, false, ErrVersionLimitExceeded
	}
	if s.Summarizer == nil {
		return SummaryVersionRecord{}, false, fmt.Errorf("summarizer not configured")
	}

	var texts []string
	if s.Texts != nil {
		texts, err = s.Texts.ExtractedTexts(ctx, systemID)
		if err != nil {
			return SummaryVersionRecord{}, false, err
		}
	}

	start := time.Now()
	result, err := s.Summarizer.Summarize(ctx, summarize.Input{
		Instruction:     job.Instruction,
		AttachmentTexts: texts,
	})
	metrics.ObserveSummarizeDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return SummaryVersionRecord{}, false, err
	}

	degree := completenessDegree(result)
	wordCount := 0
	if result.WordCount != nil && *result.WordCount > 0 {
		wordCount = *result.WordCount
	}
	level := NormalizeLevel(result.Level)
	if level == "" {
		level = InferLevel(wordCount, job.Instruction, result.Category)
	}

	now := time.Now().UTC()
	record := SummaryVersionRecord{
		ID:               uuid.NewString(),
		JobSystemID:      systemID,
		VersionNumber:    job.SummaryVersion + 1,
		Topic:            result.Topic,
		WordCount:        wordCount,
		ReferencingStyle: result.ReferencingStyle,
		WritingStyle:     result.WritingStyle,
		SummaryText:      result.SummaryText,
		Degree:           degree,
		Model:            s.Model,
		GeneratedAt:      now,
	}
	fields := SummaryFields{
		Topic:            result.Topic,
		WordCount:        wordCount,
		ReferencingStyle: result.ReferencingStyle,
		WritingStyle:     result.WritingStyle,
		Category:         result.Category,
		Level:            level,
		Software:         result.Software,
		SummaryText:      result.SummaryText,
		Degree:           degree,
		GeneratedAt:      now,
	}
	if err := s.Repo.ApplySummary(ctx, record, fields); err != nil {
		return SummaryVersionRecord{}, false, err
	}

	metrics.IncSummaryGenerated()
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "summary_generated", performedBy, map[string]string{
		"version": fmt.Sprintf("%d", record.VersionNumber),
		"degree":  fmt.Sprintf("%d", degree),
	})
	s.Audit.Event(ctx, "job.summary.generated", systemID, performedBy, map[string]string{
		"version": fmt.Sprintf("%d", record.VersionNumber),
		"degree":  fmt.Sprintf("%d", degree),
	})

	// Auto-accept policy: a fully populated result advances the job
	// immediately; a final exhausted attempt is accepted but waits for
	// an operator to advance it.
	if degree == 0 {
		if err := s.AcceptSummary(ctx, systemID, performedBy); err != nil {
			return record, false, err
		}
		return record, true, nil
	}
	if record.VersionNumber >= maxSummaryVersions {
		if err := s.markAccepted(ctx, systemID, performedBy); err != nil {
			return record, false, err
		}
	}
	return record, false, nil
}

// AcceptSummary marks the summary accepted and performs draft->pending.
// Idempotent: accepting an already-advanced job is a no-op.
func (s *Service) AcceptSummary(ctx context.Context, systemID, performedBy string) error {
	job, err := s.Repo.GetBySystemID(ctx, systemID)
	if err != nil {
		return err
	}
	if job.SummaryAcceptedAt == nil {
		if err := s.markAccepted(ctx, systemID, performedBy); err != nil {
			return err
		}
	}
	if job.Status != StatusDraft {
		return nil
	}
	next, err := Next(StatusDraft, EventSummaryAccepted)
	if err != nil {
		return err
	}
	if err := s.Repo.TransitionStatus(ctx, systemID, StatusDraft, next, StampNone); err != nil {
		return err
	}
	s.logTransition(ctx, systemID, StatusDraft, next, EventSummaryAccepted, performedBy)
	return nil
}

func (s *Service) markAccepted(ctx context.Context, systemID, performedBy string) error {
	if err := s.Repo.MarkSummaryAccepted(ctx, systemID, time.Now().UTC()); err != nil {
		return err
	}
	metrics.IncSummaryAccepted()
	s.Audit.Action(ctx, audit.SubjectJob, systemID, "summary_accepted", performedBy, nil)
	s.Audit.Event(ctx, "job.summary.accepted", systemID, performedBy, nil)
	return nil
}

// SummaryVersions lists every generation attempt for a job.
func (s *Service) SummaryVersions(ctx context.Context, systemID string) ([]SummaryVersionRecord, error) {
	if _, err := s.Repo.GetBySystemID(ctx, systemID); err != nil {
		return nil, err
	}
	return s.Repo.ListSummaryVersions(ctx, systemID)
}

// completenessDegree counts the missing fields among topic, word
// count, referencing style, writing style and summary text. Zero means
// fully populated.
func completenessDegree(result summarize.Result) int {
	missing := 0
	if strings.TrimSpace(result.Topic) == "" {
		missing++
	}
	if result.WordCount == nil || *result.WordCount <= 0 {
		missing++
	}
	if strings.TrimSpace(result.ReferencingStyle) == "" {
		missing++
	}
	if strings.TrimSpace(result.WritingStyle) == "" {
		missing++
	}
	if strings.TrimSpace(result.SummaryText) == "" {
		missing++
	}
	return missing
}
