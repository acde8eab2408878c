package jobs

import "fmt"

// Status enumerates the job workflow states.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPending     Status = "pending"
	StatusUnallocated Status = "unallocated"
	StatusAllocated   Status = "allocated"
	StatusInProgress  Status = "in_progress"
	StatusReview      Status = "review"
	StatusProcess     Status = "process"
	StatusInReview    Status = "in_review"
	StatusCompleted   Status = "completed"
	StatusHold        Status = "hold"
	StatusQuery       Status = "query"
	StatusCancelled   Status = "cancelled"
)

// AllStatuses lists every defined status.
var AllStatuses = []Status{
	StatusDraft, StatusPending, StatusUnallocated, StatusAllocated,
	StatusInProgress, StatusReview, StatusProcess, StatusInReview,
	StatusCompleted, StatusHold, StatusQuery, StatusCancelled,
}

func (s Status) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions leave this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Event names the triggers that move a job between statuses.
type Event string

const (
	EventSummaryAccepted    Event = "summary_accepted"
	EventFinalized          Event = "finalized"
	EventManualFinalized    Event = "manual_finalized"
	EventWriterAllocated    Event = "writer_allocated"
	EventWriterSelected     Event = "writer_selected"
	EventFinalCopySubmitted Event = "final_copy_submitted"
	EventProcessAllocated   Event = "process_allocated"
	EventProcessSelected    Event = "process_selected"
	EventProcessSubmitted   Event = "process_submitted"
	EventHold               Event = "hold"
	EventQuery              Event = "query"
	EventCancelled          Event = "cancelled"
	EventResumeWriting      Event = "resume_writing"
	EventResumeProcess      Event = "resume_process"
)

type transitionKey struct {
	From  Status
	Event Event
}

// transitions is the single source of truth for the status graph.
// Anything absent here is an illegal transition.
var transitions = buildTransitions()

func buildTransitions() map[transitionKey]Status {
	t := map[transitionKey]Status{
		{StatusDraft, EventSummaryAccepted}:         StatusPending,
		{StatusDraft, EventManualFinalized}:         StatusUnallocated,
		{StatusPending, EventFinalized}:             StatusUnallocated,
		{StatusUnallocated, EventWriterAllocated}:   StatusAllocated,
		{StatusAllocated, EventWriterSelected}:      StatusInProgress,
		{StatusInProgress, EventFinalCopySubmitted}: StatusReview,
		{StatusReview, EventProcessAllocated}:       StatusProcess,
		{StatusProcess, EventProcessSelected}:       StatusInReview,
		{StatusInReview, EventProcessSubmitted}:     StatusCompleted,
		{StatusHold, EventResumeWriting}:            StatusAllocated,
		{StatusQuery, EventResumeWriting}:           StatusAllocated,
		{StatusHold, EventResumeProcess}:            StatusProcess,
		{StatusQuery, EventResumeProcess}:           StatusProcess,
	}
	// Side exits reachable from every non-terminal status.
	for _, s := range AllStatuses {
		if s.Terminal() {
			continue
		}
		if s != StatusHold {
			t[transitionKey{s, EventHold}] = StatusHold
		}
		if s != StatusQuery {
			t[transitionKey{s, EventQuery}] = StatusQuery
		}
		t[transitionKey{s, EventCancelled}] = StatusCancelled
	}
	return t
}

// Next resolves the status an event leads to from the current status.
// Illegal transitions are rejected here, centrally.
func Next(current Status, event Event) (Status, error) {
	next, ok := transitions[transitionKey{current, event}]
	if !ok {
		return "", &TransitionError{From: current, Event: event}
	}
	return next, nil
}

// TransitionError reports an event not defined for the current status.
type TransitionError struct {
	From  Status
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q not allowed from status %q", e.Event, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrStatusConflict
}
