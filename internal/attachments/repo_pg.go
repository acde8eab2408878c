package attachments

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, attachment Attachment) error {
	const query = `
INSERT INTO job_attachments (id, job_system_id, file_name, mime_type, size_bytes, storage_key, uploaded_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	var uploadedBy any
	if attachment.UploadedBy != "" {
		uploadedBy = attachment.UploadedBy
	}
	_, err := r.DB.ExecContext(ctx, query,
		attachment.ID,
		attachment.JobSystemID,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
		attachment.StorageKey,
		uploadedBy,
		attachment.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, attachmentID string) (Attachment, error) {
	const query = `
SELECT id, job_system_id, file_name, mime_type, size_bytes, storage_key, extracted_text_key, extracted_at, uploaded_by, created_at
FROM job_attachments
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, attachmentID)
	attachment, err := scanAttachment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attachment{}, ErrNotFound
		}
		return Attachment{}, err
	}
	return attachment, nil
}

func (r *PGRepo) ListByJob(ctx context.Context, jobSystemID string) ([]Attachment, error) {
	const query = `
SELECT id, job_system_id, file_name, mime_type, size_bytes, storage_key, extracted_text_key, extracted_at, uploaded_by, created_at
FROM job_attachments
WHERE job_system_id = $1
ORDER BY created_at`
	rows, err := r.DB.QueryContext(ctx, query, jobSystemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attachment{}
	for rows.Next() {
		attachment, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, attachment)
	}
	return out, rows.Err()
}

func (r *PGRepo) MarkExtracted(ctx context.Context, attachmentID, extractedTextKey string) error {
	const query = `
UPDATE job_attachments
SET extracted_text_key = $2, extracted_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, attachmentID, extractedTextKey)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttachment(row rowScanner) (Attachment, error) {
	var a Attachment
	var extractedTextKey sql.NullString
	var extractedAt sql.NullTime
	var uploadedBy sql.NullString
	err := row.Scan(
		&a.ID,
		&a.JobSystemID,
		&a.FileName,
		&a.MimeType,
		&a.SizeBytes,
		&a.StorageKey,
		&extractedTextKey,
		&extractedAt,
		&uploadedBy,
		&a.CreatedAt,
	)
	if err != nil {
		return Attachment{}, err
	}
	a.ExtractedTextKey = extractedTextKey.String
	if extractedAt.Valid {
		t := extractedAt.Time
		a.ExtractedAt = &t
	}
	a.UploadedBy = uploadedBy.String
	return a, nil
}
