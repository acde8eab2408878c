package jobs

import (
	"context"
	"errors"
	"testing"

	"jobtrack-backend/internal/summarize"
)

type stubSummarizer struct {
	results []summarize.Result
	err     error
	calls   int
	inputs  []summarize.Input
}

func (s *stubSummarizer) Summarize(ctx context.Context, input summarize.Input) (summarize.Result, error) {
	s.inputs = append(s.inputs, input)
	if s.err != nil {
		return summarize.Result{}, s.err
	}
	idx := s.calls
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	s.calls++
	return s.results[idx], nil
}

type stubTexts struct {
	texts []string
	err   error
}

func (s stubTexts) ExtractedTexts(ctx context.Context, jobSystemID string) ([]string, error) {
	return s.texts, s.err
}

func intPtr(v int) *int { return &v }

func fullResult() summarize.Result {
	return summarize.Result{
		Topic:            "Market analysis FY21-23",
		WordCount:        intPtr(2000),
		ReferencingStyle: "APA",
		WritingStyle:     "report",
		Category:         "FINANCE",
		Level:            "intermediate",
		SummaryText:      "Three-year market analysis with APA referencing.",
	}
}

func partialResult() summarize.Result {
	return summarize.Result{
		Topic:       "Market analysis FY21-23",
		SummaryText: "Partial summary, several fields unknown.",
	}
}

func newSummaryTestService(t *testing.T, summarizer summarize.Client) (*Service, *MemoryRepo, string) {
	t.Helper()
	svc, repo, _ := newTestService(t)
	svc.Summarizer = summarizer
	svc.Model = "gpt-4o-mini"

	job, err := svc.Create(context.Background(), CreateInput{
		JobID:       "ORD-S1",
		Instruction: testInstruction,
		CreatedBy:   "user-1",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return svc, repo, job.SystemID
}

func TestRequestSummaryCompleteResultAutoAccepts(t *testing.T) {
	svc, repo, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{fullResult()}})
	ctx := context.Background()

	record, advanced, err := svc.RequestSummary(ctx, systemID, "user-1")
	if err != nil {
		t.Fatalf("RequestSummary: %v", err)
	}
	if !advanced {
		t.Fatalf("complete result did not auto-advance")
	}
	if record.Degree != 0 {
		t.Fatalf("degree = %d, want 0", record.Degree)
	}
	if record.VersionNumber != 1 {
		t.Fatalf("version = %d, want 1", record.VersionNumber)
	}

	job, _ := repo.GetBySystemID(ctx, systemID)
	if job.Status != StatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	if job.SummaryAcceptedAt == nil {
		t.Fatalf("summaryAcceptedAt not set")
	}
	if job.CompletenessDegree != 0 {
		t.Fatalf("completeness degree = %d, want 0", job.CompletenessDegree)
	}
	if job.Level != "intermediate" {
		t.Fatalf("level = %q, want intermediate", job.Level)
	}
}

func TestRequestSummaryThirdPartialAttemptAcceptsWithoutAdvancing(t *testing.T) {
	svc, repo, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{partialResult()}})
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		record, advanced, err := svc.RequestSummary(ctx, systemID, "user-1")
		if err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if advanced {
			t.Fatalf("attempt %d auto-advanced a partial result", i)
		}
		if record.VersionNumber != i {
			t.Fatalf("attempt %d version = %d", i, record.VersionNumber)
		}
		if record.Degree != 3 {
			t.Fatalf("attempt %d degree = %d, want 3", i, record.Degree)
		}
	}

	job, _ := repo.GetBySystemID(ctx, systemID)
	if job.Status != StatusDraft {
		t.Fatalf("status = %s, want draft", job.Status)
	}
	if job.SummaryAcceptedAt == nil {
		t.Fatalf("exhausted attempt was not marked accepted")
	}

	versions, err := svc.SummaryVersions(ctx, systemID)
	if err != nil {
		t.Fatalf("SummaryVersions: %v", err)
	}
	if len(versions) != 3 {
		t.Fatalf("versions = %d, want 3", len(versions))
	}
}

func TestRequestSummaryFourthAttemptFails(t *testing.T) {
	svc, _, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{partialResult()}})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := svc.RequestSummary(ctx, systemID, "user-1"); err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
	}
	if _, _, err := svc.RequestSummary(ctx, systemID, "user-1"); !errors.Is(err, ErrVersionLimitExceeded) {
		t.Fatalf("err = %v, want ErrVersionLimitExceeded", err)
	}
}

func TestRequestSummaryRejectsNonDraft(t *testing.T) {
	svc, repo, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{fullResult()}})
	ctx := context.Background()

	seedStatus(t, repo, systemID, StatusPending)
	if _, _, err := svc.RequestSummary(ctx, systemID, "user-1"); !errors.Is(err, ErrStatusConflict) {
		t.Fatalf("err = %v, want ErrStatusConflict", err)
	}
}

func TestRequestSummaryPassesAttachmentTexts(t *testing.T) {
	stub := &stubSummarizer{results: []summarize.Result{fullResult()}}
	svc, _, systemID := newSummaryTestService(t, stub)
	svc.Texts = stubTexts{texts: []string{"extracted brief text"}}

	if _, _, err := svc.RequestSummary(context.Background(), systemID, "user-1"); err != nil {
		t.Fatalf("RequestSummary: %v", err)
	}
	if len(stub.inputs) != 1 || len(stub.inputs[0].AttachmentTexts) != 1 {
		t.Fatalf("attachment texts not forwarded: %+v", stub.inputs)
	}
	if stub.inputs[0].Instruction != testInstruction {
		t.Fatalf("instruction not forwarded")
	}
}

func TestRequestSummaryPropagatesTextSourceError(t *testing.T) {
	svc, _, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{fullResult()}})
	svc.Texts = stubTexts{err: errors.New("store offline")}

	if _, _, err := svc.RequestSummary(context.Background(), systemID, "user-1"); err == nil {
		t.Fatalf("expected error from text source")
	}
}

func TestRequestSummaryInfersLevelWhenMissing(t *testing.T) {
	result := fullResult()
	result.Level = ""
	result.Category = "HISTORY"
	svc, repo, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{result}})
	ctx := context.Background()

	if _, _, err := svc.RequestSummary(ctx, systemID, "user-1"); err != nil {
		t.Fatalf("RequestSummary: %v", err)
	}
	job, _ := repo.GetBySystemID(ctx, systemID)
	// 2000 words with no keyword hits lands on intermediate.
	if job.Level != "intermediate" {
		t.Fatalf("level = %q, want intermediate", job.Level)
	}
}

func TestAcceptSummaryIsIdempotent(t *testing.T) {
	svc, repo, systemID := newSummaryTestService(t, &stubSummarizer{results: []summarize.Result{partialResult()}})
	ctx := context.Background()

	if _, _, err := svc.RequestSummary(ctx, systemID, "user-1"); err != nil {
		t.Fatalf("RequestSummary: %v", err)
	}
	if err := svc.AcceptSummary(ctx, systemID, "user-1"); err != nil {
		t.Fatalf("AcceptSummary: %v", err)
	}
	job, _ := repo.GetBySystemID(ctx, systemID)
	if job.Status != StatusPending {
		t.Fatalf("status = %s, want pending", job.Status)
	}
	first := job.SummaryAcceptedAt

	if err := svc.AcceptSummary(ctx, systemID, "user-1"); err != nil {
		t.Fatalf("second AcceptSummary: %v", err)
	}
	job, _ = repo.GetBySystemID(ctx, systemID)
	if job.Status != StatusPending {
		t.Fatalf("status moved on repeat accept: %s", job.Status)
	}
	if job.SummaryAcceptedAt == nil || !job.SummaryAcceptedAt.Equal(*first) {
		t.Fatalf("acceptedAt changed on repeat accept")
	}
}

func TestCompletenessDegree(t *testing.T) {
	if got := completenessDegree(fullResult()); got != 0 {
		t.Fatalf("full result degree = %d, want 0", got)
	}
	if got := completenessDegree(partialResult()); got != 3 {
		t.Fatalf("partial result degree = %d, want 3", got)
	}
	if got := completenessDegree(summarize.Result{}); got != 5 {
		t.Fatalf("empty result degree = %d, want 5", got)
	}
	zero := fullResult()
	zero.WordCount = intPtr(0)
	if got := completenessDegree(zero); got != 1 {
		t.Fatalf("zero word count degree = %d, want 1", got)
	}
}
