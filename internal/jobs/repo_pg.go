package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `system_id, job_id, instruction, category, level, word_count, referencing_style,
       writing_style, software, topic, job_summary, customer_id, customer_name, project_group,
       amount, system_expected_amount, status, creation_method, created_by, writer_assignee,
       process_assignee, expected_deadline, strict_deadline, summary_version, summary_generated_at,
       summary_accepted_at, completeness_degree, finalized_at, writer_selected_at,
       final_copy_submitted_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, job Job) error {
	const query = `
INSERT INTO jobs (
	system_id, job_id, instruction, category, level, word_count, referencing_style,
	writing_style, software, topic, job_summary, customer_id, customer_name, project_group,
	amount, system_expected_amount, status, creation_method, created_by,
	expected_deadline, strict_deadline, summary_version, completeness_degree,
	finalized_at, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $25)`
	_, err := r.DB.ExecContext(ctx, query,
		job.SystemID,
		job.JobID,
		job.Instruction,
		nullIfEmpty(job.Category),
		nullIfEmpty(job.Level),
		nullIfZero(job.WordCount),
		nullIfEmpty(job.ReferencingStyle),
		nullIfEmpty(job.WritingStyle),
		nullIfEmpty(joinSoftware(job.Software)),
		nullIfEmpty(job.Topic),
		nullIfEmpty(job.JobSummary),
		nullIfEmpty(job.CustomerID),
		nullIfEmpty(job.CustomerName),
		nullIfEmpty(job.ProjectGroup),
		nullIfZeroFloat(job.Amount),
		nullIfZeroFloat(job.SystemExpectedAmount),
		string(job.Status),
		job.CreationMethod,
		job.CreatedBy,
		job.ExpectedDeadline,
		job.StrictDeadline,
		job.SummaryVersion,
		job.CompletenessDegree,
		job.FinalizedAt,
		job.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetBySystemID(ctx context.Context, systemID string) (Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE system_id = $1 LIMIT 1`, jobColumns)
	return r.getOne(ctx, query, systemID)
}

func (r *PGRepo) GetByJobID(ctx context.Context, jobID string) (Job, error) {
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE job_id = $1 LIMIT 1`, jobColumns)
	return r.getOne(ctx, query, jobID)
}

func (r *PGRepo) getOne(ctx context.Context, query string, arg any) (Job, error) {
	job, err := scanJob(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

func (r *PGRepo) CountJobsWithSystemID(ctx context.Context, systemID string) (int, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE system_id = $1`, systemID).Scan(&count)
	return count, err
}

func (r *PGRepo) JobIDExists(ctx context.Context, jobID string) (bool, error) {
	var count int
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM jobs WHERE job_id = $1`, jobID).Scan(&count)
	return count > 0, err
}

func (r *PGRepo) TransitionStatus(ctx context.Context, systemID string, from, to Status, stamp TransitionStamp) error {
	query := `UPDATE jobs SET status = $3, updated_at = now()` + stampClause(stamp) + ` WHERE system_id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, systemID, string(from), string(to))
	if err != nil {
		return err
	}
	return casOutcome(res)
}

func stampClause(stamp TransitionStamp) string {
	switch stamp {
	case StampFinalized:
		return `, finalized_at = now()`
	case StampWriterSelected:
		return `, writer_selected_at = now()`
	case StampFinalCopySubmitted:
		return `, final_copy_submitted_at = now()`
	default:
		return ""
	}
}

func (r *PGRepo) FinalizeTransition(ctx context.Context, systemID string, from, to Status, fields FinalizeFields) error {
	const query = `
UPDATE jobs SET
	status = $3,
	category = $4,
	level = $5,
	word_count = $6,
	referencing_style = COALESCE(NULLIF($7, ''), referencing_style),
	writing_style = COALESCE(NULLIF($8, ''), writing_style),
	topic = COALESCE(NULLIF($9, ''), topic),
	expected_deadline = $10,
	strict_deadline = $11,
	customer_id = $12,
	customer_name = $13,
	project_group = $14,
	amount = $15,
	system_expected_amount = $16,
	finalized_at = now(),
	updated_at = now()
WHERE system_id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query,
		systemID,
		string(from),
		string(to),
		fields.Category,
		fields.Level,
		fields.WordCount,
		fields.ReferencingStyle,
		fields.WritingStyle,
		fields.Topic,
		fields.ExpectedDeadline,
		fields.StrictDeadline,
		fields.CustomerID,
		fields.CustomerName,
		fields.ProjectGroup,
		fields.Amount,
		fields.SystemExpectedAmount,
	)
	if err != nil {
		return err
	}
	return casOutcome(res)
}

func (r *PGRepo) UpdateForAllocation(ctx context.Context, systemID string, from, to Status, role, assigneeID string) error {
	column, err := assigneeColumn(role)
	if err != nil {
		return err
	}
	query := `UPDATE jobs SET status = $3, ` + column + ` = $4, updated_at = now() WHERE system_id = $1 AND status = $2`
	res, err := r.DB.ExecContext(ctx, query, systemID, string(from), string(to), assigneeID)
	if err != nil {
		return err
	}
	return casOutcome(res)
}

func (r *PGRepo) SetAssignee(ctx context.Context, systemID, role, assigneeID string) error {
	column, err := assigneeColumn(role)
	if err != nil {
		return err
	}
	query := `UPDATE jobs SET ` + column + ` = $2, updated_at = now() WHERE system_id = $1`
	res, err := r.DB.ExecContext(ctx, query, systemID, assigneeID)
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

func assigneeColumn(role string) (string, error) {
	switch role {
	case RoleWriter:
		return "writer_assignee", nil
	case RoleProcess:
		return "process_assignee", nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// ApplySummary writes the version record and the job bookkeeping in one
// transaction. The version guard in the WHERE clause rejects a
// concurrent generation that already claimed the same version number.
func (r *PGRepo) ApplySummary(ctx context.Context, record SummaryVersionRecord, fields SummaryFields) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const updateQuery = `
UPDATE jobs SET
	summary_version = $2,
	summary_generated_at = summary_generated_at || to_jsonb($3::timestamptz),
	completeness_degree = $4,
	topic = COALESCE(NULLIF($5, ''), topic),
	word_count = CASE WHEN $6 > 0 THEN $6 ELSE word_count END,
	referencing_style = COALESCE(NULLIF($7, ''), referencing_style),
	writing_style = COALESCE(NULLIF($8, ''), writing_style),
	category = COALESCE(NULLIF($9, ''), category),
	level = COALESCE(NULLIF($10, ''), level),
	software = COALESCE(NULLIF($11, ''), software),
	job_summary = COALESCE(NULLIF($12, ''), job_summary),
	updated_at = now()
WHERE system_id = $1 AND summary_version = $13 AND status = 'draft'`
	res, err := tx.ExecContext(ctx, updateQuery,
		record.JobSystemID,
		record.VersionNumber,
		fields.GeneratedAt,
		fields.Degree,
		fields.Topic,
		fields.WordCount,
		fields.ReferencingStyle,
		fields.WritingStyle,
		fields.Category,
		fields.Level,
		joinSoftware(fields.Software),
		fields.SummaryText,
		record.VersionNumber-1,
	)
	if err != nil {
		return err
	}
	if err := casOutcome(res); err != nil {
		return err
	}

	const insertQuery = `
INSERT INTO job_summary_versions (id, job_system_id, version_number, topic, word_count, referencing_style, writing_style, summary_text, degree, model, generated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	if _, err := tx.ExecContext(ctx, insertQuery,
		record.ID,
		record.JobSystemID,
		record.VersionNumber,
		nullIfEmpty(record.Topic),
		nullIfZero(record.WordCount),
		nullIfEmpty(record.ReferencingStyle),
		nullIfEmpty(record.WritingStyle),
		nullIfEmpty(record.SummaryText),
		record.Degree,
		record.Model,
		record.GeneratedAt,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGRepo) MarkSummaryAccepted(ctx context.Context, systemID string, acceptedAt time.Time) error {
	const query = `
UPDATE jobs SET summary_accepted_at = COALESCE(summary_accepted_at, $2), updated_at = now()
WHERE system_id = $1`
	res, err := r.DB.ExecContext(ctx, query, systemID, acceptedAt)
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

func (r *PGRepo) ListSummaryVersions(ctx context.Context, systemID string) ([]SummaryVersionRecord, error) {
	const query = `
SELECT id, job_system_id, version_number, topic, word_count, referencing_style, writing_style, summary_text, degree, model, generated_at
FROM job_summary_versions
WHERE job_system_id = $1
ORDER BY version_number`
	rows, err := r.DB.QueryContext(ctx, query, systemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SummaryVersionRecord{}
	for rows.Next() {
		var rec SummaryVersionRecord
		var topic, referencingStyle, writingStyle, summaryText sql.NullString
		var wordCount sql.NullInt64
		if err := rows.Scan(
			&rec.ID,
			&rec.JobSystemID,
			&rec.VersionNumber,
			&topic,
			&wordCount,
			&referencingStyle,
			&writingStyle,
			&summaryText,
			&rec.Degree,
			&rec.Model,
			&rec.GeneratedAt,
		); err != nil {
			return nil, err
		}
		rec.Topic = topic.String
		rec.WordCount = int(wordCount.Int64)
		rec.ReferencingStyle = referencingStyle.String
		rec.WritingStyle = writingStyle.String
		rec.SummaryText = summaryText.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]Job, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM jobs WHERE ($1 = '' OR status = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`, jobColumns)
	rows, err := r.DB.QueryContext(ctx, query, string(status), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var category, level, referencingStyle, writingStyle, software, topic, jobSummary sql.NullString
	var customerID, customerName, projectGroup sql.NullString
	var wordCount sql.NullInt64
	var amount, systemExpectedAmount sql.NullFloat64
	var writerAssignee, processAssignee sql.NullString
	var expectedDeadline, strictDeadline, summaryAcceptedAt sql.NullTime
	var finalizedAt, writerSelectedAt, finalCopySubmittedAt sql.NullTime
	var generatedAtRaw []byte

	err := row.Scan(
		&job.SystemID,
		&job.JobID,
		&job.Instruction,
		&category,
		&level,
		&wordCount,
		&referencingStyle,
		&writingStyle,
		&software,
		&topic,
		&jobSummary,
		&customerID,
		&customerName,
		&projectGroup,
		&amount,
		&systemExpectedAmount,
		&job.Status,
		&job.CreationMethod,
		&job.CreatedBy,
		&writerAssignee,
		&processAssignee,
		&expectedDeadline,
		&strictDeadline,
		&job.SummaryVersion,
		&generatedAtRaw,
		&summaryAcceptedAt,
		&job.CompletenessDegree,
		&finalizedAt,
		&writerSelectedAt,
		&finalCopySubmittedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}

	job.Category = category.String
	job.Level = level.String
	job.WordCount = int(wordCount.Int64)
	job.ReferencingStyle = referencingStyle.String
	job.WritingStyle = writingStyle.String
	job.Software = splitSoftware(software.String)
	job.Topic = topic.String
	job.JobSummary = jobSummary.String
	job.CustomerID = customerID.String
	job.CustomerName = customerName.String
	job.ProjectGroup = projectGroup.String
	job.Amount = amount.Float64
	job.SystemExpectedAmount = systemExpectedAmount.Float64
	job.WriterAssignee = nullableStringPtr(writerAssignee)
	job.ProcessAssignee = nullableStringPtr(processAssignee)
	job.ExpectedDeadline = nullableTimePtr(expectedDeadline)
	job.StrictDeadline = nullableTimePtr(strictDeadline)
	job.SummaryAcceptedAt = nullableTimePtr(summaryAcceptedAt)
	job.FinalizedAt = nullableTimePtr(finalizedAt)
	job.WriterSelectedAt = nullableTimePtr(writerSelectedAt)
	job.FinalCopySubmittedAt = nullableTimePtr(finalCopySubmittedAt)

	if len(generatedAtRaw) > 0 {
		if err := json.Unmarshal(generatedAtRaw, &job.SummaryGeneratedAt); err != nil {
			return Job{}, fmt.Errorf("parse summary_generated_at: %w", err)
		}
	}
	return job, nil
}

func casOutcome(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func joinSoftware(software []string) string {
	return strings.Join(software, ", ")
}

func splitSoftware(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullIfZeroFloat(f float64) any {
	if f == 0 {
		return nil
	}
	return f
}

func nullableStringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullableTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
