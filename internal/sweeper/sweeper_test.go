package sweeper

import (
	"context"
	"errors"
	"testing"

	"jobtrack-backend/internal/queue"
)

type stubReconciler struct {
	repaired int
	err      error
	calls    int
}

func (s *stubReconciler) Reconcile(ctx context.Context) (int, error) {
	s.calls++
	return s.repaired, s.err
}

func TestParseMessage(t *testing.T) {
	body := `{"systemId":"CH-4K2Q9Z","requestId":"req-1","version":1}`
	msg, meta, err := ParseMessage(body)
	if err != nil {
		t.Fatalf("ParseMessage: %v", err)
	}
	if msg.SystemID != "CH-4K2Q9Z" || msg.RequestID != "req-1" {
		t.Fatalf("decoded = %+v", msg)
	}
	if meta.BodyLen != len(body) || meta.BodySHA == "" {
		t.Fatalf("meta = %+v", meta)
	}
}

func TestParseMessageEmptyBody(t *testing.T) {
	_, _, err := ParseMessage("   ")
	var empty ErrEmptyBody
	if !errors.As(err, &empty) {
		t.Fatalf("err = %v, want ErrEmptyBody", err)
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if meta.BodyLen == 0 {
		t.Fatalf("meta not populated")
	}
}

func TestParseMessageMissingSystemID(t *testing.T) {
	_, _, err := ParseMessage(`{"requestId":"req-1"}`)
	var missing ErrMissingSystemID
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want ErrMissingSystemID", err)
	}
	if missing.RequestID != "req-1" {
		t.Fatalf("request id = %q", missing.RequestID)
	}
}

func TestHandleMessageRunsSweep(t *testing.T) {
	reconciler := &stubReconciler{repaired: 2}
	body := `{"systemId":"CH-4K2Q9Z","requestId":"req-1","version":1}`

	if err := HandleMessage(context.Background(), reconciler, body); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reconciler.calls != 1 {
		t.Fatalf("reconcile calls = %d, want 1", reconciler.calls)
	}
}

func TestHandleMessageReusesParsedMessage(t *testing.T) {
	reconciler := &stubReconciler{}
	ctx := WithParsedMessage(context.Background(), queue.Message{SystemID: "CH-4K2Q9Z", RequestID: "req-1"})

	// The body is garbage; the pre-parsed message must win.
	if err := HandleMessage(ctx, reconciler, "{not json"); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if reconciler.calls != 1 {
		t.Fatalf("reconcile calls = %d, want 1", reconciler.calls)
	}
}

func TestHandleMessageWrapsSweepFailure(t *testing.T) {
	reconciler := &stubReconciler{err: errors.New("db down")}
	body := `{"systemId":"CH-4K2Q9Z","requestId":"req-1","version":1}`

	err := HandleMessage(context.Background(), reconciler, body)
	var sweepErr ErrSweep
	if !errors.As(err, &sweepErr) {
		t.Fatalf("err = %v, want ErrSweep", err)
	}
	if sweepErr.SystemID != "CH-4K2Q9Z" || sweepErr.RequestID != "req-1" {
		t.Fatalf("sweep error = %+v", sweepErr)
	}
}

func TestHandleMessageNilReconciler(t *testing.T) {
	if err := HandleMessage(context.Background(), nil, "{}"); err == nil {
		t.Fatalf("expected error for nil reconciler")
	}
}
