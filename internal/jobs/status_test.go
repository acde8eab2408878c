package jobs

import (
	"errors"
	"testing"
)

func TestNextCorePath(t *testing.T) {
	steps := []struct {
		from  Status
		event Event
		want  Status
	}{
		{StatusDraft, EventSummaryAccepted, StatusPending},
		{StatusPending, EventFinalized, StatusUnallocated},
		{StatusUnallocated, EventWriterAllocated, StatusAllocated},
		{StatusAllocated, EventWriterSelected, StatusInProgress},
		{StatusInProgress, EventFinalCopySubmitted, StatusReview},
		{StatusReview, EventProcessAllocated, StatusProcess},
		{StatusProcess, EventProcessSelected, StatusInReview},
		{StatusInReview, EventProcessSubmitted, StatusCompleted},
	}
	for _, step := range steps {
		got, err := Next(step.from, step.event)
		if err != nil {
			t.Fatalf("Next(%s, %s): %v", step.from, step.event, err)
		}
		if got != step.want {
			t.Fatalf("Next(%s, %s) = %s, want %s", step.from, step.event, got, step.want)
		}
	}
}

func TestNextRejectsIllegalTransitions(t *testing.T) {
	cases := []struct {
		from  Status
		event Event
	}{
		{StatusDraft, EventFinalized},
		{StatusDraft, EventWriterAllocated},
		{StatusUnallocated, EventWriterSelected},
		{StatusInProgress, EventProcessSubmitted},
		{StatusCompleted, EventHold},
		{StatusCancelled, EventResumeWriting},
	}
	for _, c := range cases {
		if _, err := Next(c.from, c.event); err == nil {
			t.Fatalf("Next(%s, %s) allowed, want error", c.from, c.event)
		} else if !errors.Is(err, ErrStatusConflict) {
			t.Fatalf("Next(%s, %s) error %v does not match ErrStatusConflict", c.from, c.event, err)
		}
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	events := []Event{
		EventSummaryAccepted, EventFinalized, EventManualFinalized,
		EventWriterAllocated, EventWriterSelected, EventFinalCopySubmitted,
		EventProcessAllocated, EventProcessSelected, EventProcessSubmitted,
		EventHold, EventQuery, EventCancelled, EventResumeWriting, EventResumeProcess,
	}
	for _, status := range []Status{StatusCompleted, StatusCancelled} {
		for _, event := range events {
			if _, err := Next(status, event); err == nil {
				t.Fatalf("Next(%s, %s) allowed from terminal status", status, event)
			}
		}
	}
}

func TestSideExitsFromEveryNonTerminalStatus(t *testing.T) {
	for _, status := range AllStatuses {
		if status.Terminal() {
			continue
		}
		if status != StatusHold {
			if got, err := Next(status, EventHold); err != nil || got != StatusHold {
				t.Fatalf("Next(%s, hold) = %s, %v", status, got, err)
			}
		}
		if status != StatusQuery {
			if got, err := Next(status, EventQuery); err != nil || got != StatusQuery {
				t.Fatalf("Next(%s, query) = %s, %v", status, got, err)
			}
		}
		if got, err := Next(status, EventCancelled); err != nil || got != StatusCancelled {
			t.Fatalf("Next(%s, cancelled) = %s, %v", status, got, err)
		}
	}
}

func TestResumeTracks(t *testing.T) {
	for _, from := range []Status{StatusHold, StatusQuery} {
		if got, err := Next(from, EventResumeWriting); err != nil || got != StatusAllocated {
			t.Fatalf("Next(%s, resume_writing) = %s, %v", from, got, err)
		}
		if got, err := Next(from, EventResumeProcess); err != nil || got != StatusProcess {
			t.Fatalf("Next(%s, resume_process) = %s, %v", from, got, err)
		}
	}
}
