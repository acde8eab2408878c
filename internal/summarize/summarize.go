package summarize

import (
	"context"
	"errors"
)

// Client abstracts AI providers for job brief summarization.
type Client interface {
	Summarize(ctx context.Context, input Input) (Result, error)
}

// Input captures the raw material for a summarization request.
type Input struct {
	Instruction     string
	AttachmentTexts []string
}

// Result is the structured summary extracted from a job brief. Fields
// the model could not determine are left zero; callers decide what a
// missing field means.
type Result struct {
	Topic            string   `json:"topic"`
	WordCount        *int     `json:"wordCount"`
	ReferencingStyle string   `json:"referencingStyle"`
	WritingStyle     string   `json:"writingStyle"`
	Category         string   `json:"category"`
	Level            string   `json:"level"`
	Software         []string `json:"software"`
	SummaryText      string   `json:"summaryText"`
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("summarizer not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

func (PlaceholderClient) Summarize(ctx context.Context, input Input) (Result, error) {
	_ = ctx
	_ = input
	return Result{}, ErrNotImplemented
}
