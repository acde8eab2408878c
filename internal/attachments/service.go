package attachments

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"jobtrack-backend/internal/extract"
	"jobtrack-backend/internal/shared/storage/object"
	"jobtrack-backend/internal/shared/telemetry"
)

// MaxUploadBytes caps a single brief attachment.
const MaxUploadBytes = 10 << 20 // 10MB

var allowedExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
	".jpg":  {},
	".jpeg": {},
	".png":  {},
}

var extractableExtensions = map[string]struct{}{
	".pdf":  {},
	".docx": {},
}

// Service stores brief attachments and extracts their text for the
// summarizer.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo}
}

// Save persists the file against the job and, for documents, extracts
// text in the same call. Extraction failure is tolerated: the upload
// stands and the summarizer just sees one less attachment.
func (s *Service) Save(ctx context.Context, jobSystemID, uploadedBy, fileName string, size int64, r io.Reader) (Attachment, error) {
	if strings.TrimSpace(jobSystemID) == "" || strings.TrimSpace(fileName) == "" {
		return Attachment{}, ErrInvalidInput
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if _, ok := allowedExtensions[ext]; !ok {
		return Attachment{}, fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
	if size > MaxUploadBytes {
		return Attachment{}, ErrTooLarge
	}

	storageKey, sizeBytes, mimeType, err := s.Store.Save(ctx, jobSystemID, fileName, io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return Attachment{}, err
	}
	if sizeBytes > MaxUploadBytes {
		return Attachment{}, ErrTooLarge
	}

	attachment := Attachment{
		ID:          uuid.NewString(),
		JobSystemID: jobSystemID,
		FileName:    fileName,
		MimeType:    mimeType,
		SizeBytes:   sizeBytes,
		StorageKey:  storageKey,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, attachment); err != nil {
		return Attachment{}, err
	}

	if _, ok := extractableExtensions[ext]; ok {
		if _, err := extract.ExtractText(ctx, s.Store, storageKey, mimeType, fileName); err != nil {
			telemetry.Warn("attachment.extract_failed", map[string]any{
				"attachment_id": attachment.ID,
				"system_id":     jobSystemID,
				"error":         err.Error(),
			})
		} else {
			extractedKey := storageKey + ".extracted.txt"
			if err := s.Repo.MarkExtracted(ctx, attachment.ID, extractedKey); err != nil {
				telemetry.Warn("attachment.mark_extracted_failed", map[string]any{
					"attachment_id": attachment.ID,
					"error":         err.Error(),
				})
			} else {
				attachment.ExtractedTextKey = extractedKey
				now := time.Now().UTC()
				attachment.ExtractedAt = &now
			}
		}
	}

	return attachment, nil
}

// ListByJob returns the attachments recorded against a job.
func (s *Service) ListByJob(ctx context.Context, jobSystemID string) ([]Attachment, error) {
	if strings.TrimSpace(jobSystemID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByJob(ctx, jobSystemID)
}

// Open streams a stored attachment.
func (s *Service) Open(ctx context.Context, attachmentID string) (Attachment, io.ReadCloser, error) {
	attachment, err := s.Repo.GetByID(ctx, attachmentID)
	if err != nil {
		return Attachment{}, nil, err
	}
	body, err := s.Store.Open(ctx, attachment.StorageKey)
	if err != nil {
		return Attachment{}, nil, err
	}
	return attachment, body, nil
}

// ExtractedTexts loads the extracted text of every document attachment
// on a job, skipping attachments that never extracted.
func (s *Service) ExtractedTexts(ctx context.Context, jobSystemID string) ([]string, error) {
	list, err := s.Repo.ListByJob(ctx, jobSystemID)
	if err != nil {
		return nil, err
	}
	texts := []string{}
	for _, attachment := range list {
		if attachment.ExtractedTextKey == "" {
			continue
		}
		body, err := s.Store.Open(ctx, attachment.ExtractedTextKey)
		if err != nil {
			telemetry.Warn("attachment.extracted_open_failed", map[string]any{
				"attachment_id": attachment.ID,
				"error":         err.Error(),
			})
			continue
		}
		raw, err := io.ReadAll(body)
		body.Close()
		if err != nil {
			return nil, err
		}
		if text := strings.TrimSpace(string(raw)); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
