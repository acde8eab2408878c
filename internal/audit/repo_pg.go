package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) AppendAction(ctx context.Context, entry ActionLogEntry) error {
	const query = `
INSERT INTO action_logs (id, subject_type, subject_id, action, performed_by, performed_by_type, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	details, err := marshalDetails(entry.Details)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.SubjectType,
		entry.SubjectID,
		entry.Action,
		nullableString(entry.PerformedBy),
		entry.PerformedByType,
		details,
		entry.CreatedAt,
	)
	return err
}

func (r *PGRepo) AppendEvent(ctx context.Context, event ActivityEvent) error {
	const query = `
INSERT INTO activity_events (id, event_key, subject_id, performed_by, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	metadata, err := marshalDetails(event.Metadata)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		event.ID,
		event.EventKey,
		event.SubjectID,
		nullableString(event.PerformedBy),
		metadata,
		event.CreatedAt,
	)
	return err
}

func (r *PGRepo) ListActionsForSubject(ctx context.Context, subjectType, subjectID string, limit int) ([]ActionLogEntry, error) {
	const query = `
SELECT id, subject_type, subject_id, action, performed_by, performed_by_type, details, created_at
FROM action_logs
WHERE subject_type = $1 AND subject_id = $2
ORDER BY created_at DESC
LIMIT $3`
	rows, err := r.DB.QueryContext(ctx, query, subjectType, subjectID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []ActionLogEntry{}
	for rows.Next() {
		var entry ActionLogEntry
		var performedBy sql.NullString
		var details sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.SubjectType,
			&entry.SubjectID,
			&entry.Action,
			&performedBy,
			&entry.PerformedByType,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		entry.PerformedBy = performedBy.String
		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *PGRepo) ListEventsByKey(ctx context.Context, eventKey string, limit int) ([]ActivityEvent, error) {
	const query = `
SELECT id, event_key, subject_id, performed_by, metadata, created_at
FROM activity_events
WHERE event_key = $1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.DB.QueryContext(ctx, query, eventKey, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []ActivityEvent{}
	for rows.Next() {
		var event ActivityEvent
		var performedBy sql.NullString
		var metadata sql.NullString
		if err := rows.Scan(
			&event.ID,
			&event.EventKey,
			&event.SubjectID,
			&performedBy,
			&metadata,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		event.PerformedBy = performedBy.String
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &event.Metadata); err != nil {
				return nil, err
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func marshalDetails(details map[string]string) (string, error) {
	if len(details) == 0 {
		return "{}", nil
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
