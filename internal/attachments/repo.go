package attachments

import "context"

type Repo interface {
	Create(ctx context.Context, attachment Attachment) error
	GetByID(ctx context.Context, attachmentID string) (Attachment, error)
	ListByJob(ctx context.Context, jobSystemID string) ([]Attachment, error)
	MarkExtracted(ctx context.Context, attachmentID, extractedTextKey string) error
}
