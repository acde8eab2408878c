package sweeper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"jobtrack-backend/internal/queue"
)

// Reconciler closes allocations left active on completed jobs.
type Reconciler interface {
	Reconcile(ctx context.Context) (int, error)
}

// MessageMeta captures details useful for logging and diagnostics.
type MessageMeta struct {
	BodyLen int
	BodySHA string
}

// ComputeMeta returns the body length and SHA-256 hash.
func ComputeMeta(body string) MessageMeta {
	if body == "" {
		return MessageMeta{BodyLen: 0, BodySHA: ""}
	}
	sum := sha256.Sum256([]byte(body))
	return MessageMeta{BodyLen: len(body), BodySHA: hex.EncodeToString(sum[:])}
}

// ErrEmptyBody indicates an empty queue payload.
type ErrEmptyBody struct {
	Meta MessageMeta
}

func (e ErrEmptyBody) Error() string { return "empty message body" }

// ErrDecode indicates a JSON decode failure.
type ErrDecode struct {
	Meta MessageMeta
	Err  error
}

func (e ErrDecode) Error() string {
	if e.Err == nil {
		return "decode message"
	}
	return "decode message: " + e.Err.Error()
}

// ErrMissingSystemID indicates a hint missing the job system id.
type ErrMissingSystemID struct {
	Meta      MessageMeta
	RequestID string
}

func (e ErrMissingSystemID) Error() string { return "missing system id" }

// ErrSweep indicates the sweep failed after successful parsing.
type ErrSweep struct {
	SystemID  string
	RequestID string
	Err       error
}

func (e ErrSweep) Error() string {
	if e.Err == nil {
		return "run sweep"
	}
	return "run sweep: " + e.Err.Error()
}

// ParseMessage validates and decodes the queue payload.
func ParseMessage(body string) (queue.Message, MessageMeta, error) {
	meta := ComputeMeta(body)
	if strings.TrimSpace(body) == "" {
		return queue.Message{}, meta, ErrEmptyBody{Meta: meta}
	}

	msg, err := queue.DecodeMessage([]byte(body))
	if err != nil {
		return queue.Message{}, meta, ErrDecode{Meta: meta, Err: err}
	}
	if strings.TrimSpace(msg.SystemID) == "" {
		return msg, meta, ErrMissingSystemID{Meta: meta, RequestID: msg.RequestID}
	}
	return msg, meta, nil
}

type parsedMessageKey struct{}

// WithParsedMessage stores a decoded message in the context for reuse.
func WithParsedMessage(ctx context.Context, msg queue.Message) context.Context {
	return context.WithValue(ctx, parsedMessageKey{}, msg)
}

func parsedMessageFromContext(ctx context.Context) (queue.Message, bool) {
	if ctx == nil {
		return queue.Message{}, false
	}
	msg, ok := ctx.Value(parsedMessageKey{}).(queue.Message)
	return msg, ok
}

// HandleMessage parses a reconcile hint and runs a sweep. The hint
// names the job whose completion triggered it, but the sweep itself is
// global so a stale hint never misses newer anomalies.
func HandleMessage(ctx context.Context, reconciler Reconciler, body string) error {
	if reconciler == nil {
		return errors.New("reconciler not configured")
	}

	msg, ok := parsedMessageFromContext(ctx)
	if !ok {
		var err error
		msg, _, err = ParseMessage(body)
		if err != nil {
			return err
		}
	}

	if strings.TrimSpace(msg.SystemID) == "" {
		return ErrMissingSystemID{Meta: ComputeMeta(body), RequestID: msg.RequestID}
	}

	if _, err := reconciler.Reconcile(ctx); err != nil {
		return ErrSweep{SystemID: msg.SystemID, RequestID: msg.RequestID, Err: err}
	}
	return nil
}
