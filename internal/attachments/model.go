package attachments

import "time"

// Attachment is a client-supplied file stored against a job.
type Attachment struct {
	ID               string     `json:"id"`
	JobSystemID      string     `json:"jobSystemId"`
	FileName         string     `json:"fileName"`
	MimeType         string     `json:"mimeType"`
	SizeBytes        int64      `json:"sizeBytes"`
	StorageKey       string     `json:"-"`
	ExtractedTextKey string     `json:"-"`
	ExtractedAt      *time.Time `json:"extractedAt,omitempty"`
	UploadedBy       string     `json:"uploadedBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}
