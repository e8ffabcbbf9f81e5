// Package store persists the last known engine state to SQLite so status
// commands answer instantly after a daemon restart, before the first
// refresh lands.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"dubwatch/internal/config"
	"dubwatch/internal/job"
)

// Store manages snapshot persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the snapshot database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// UpsertSnapshot writes one job snapshot, replacing any previous row for
// the same job.
func (s *Store) UpsertSnapshot(ctx context.Context, scope string, j *job.Job) error {
	if j == nil || j.ID == "" {
		return errors.New("snapshot requires a job with an id")
	}
	languagesJSON, err := json.Marshal(j.TargetLanguages)
	if err != nil {
		return fmt.Errorf("marshal target languages: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO job_snapshots (
            job_id, scope, status, progress, target_languages_json,
            source_video_id, source_channel_id, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            scope = excluded.scope,
            status = excluded.status,
            progress = excluded.progress,
            target_languages_json = excluded.target_languages_json,
            source_video_id = excluded.source_video_id,
            source_channel_id = excluded.source_channel_id,
            error_message = excluded.error_message,
            created_at = excluded.created_at,
            updated_at = excluded.updated_at`,
		j.ID,
		scope,
		string(j.Status),
		j.Progress,
		string(languagesJSON),
		nullableString(j.SourceVideoID),
		nullableString(j.SourceChannelID),
		nullableString(j.ErrorMessage),
		nullableTimeValue(j.CreatedAt),
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// ReplaceScope atomically swaps the non-terminal snapshots for a scope
// with the given set. Mirrors the wholesale-replace semantics of the
// active set: jobs missing from the new list are deleted, not left to rot.
// Terminal snapshots are kept as history.
func (s *Store) ReplaceScope(ctx context.Context, scope string, jobs []*job.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM job_snapshots WHERE scope = ? AND status NOT IN (?, ?)`,
		scope,
		string(job.StatusCompleted),
		string(job.StatusFailed),
	); err != nil {
		return fmt.Errorf("clear scope: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, j := range jobs {
		if j == nil || j.ID == "" {
			continue
		}
		languagesJSON, err := json.Marshal(j.TargetLanguages)
		if err != nil {
			return fmt.Errorf("marshal target languages: %w", err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO job_snapshots (
                job_id, scope, status, progress, target_languages_json,
                source_video_id, source_channel_id, error_message, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT(job_id) DO UPDATE SET
                scope = excluded.scope,
                status = excluded.status,
                progress = excluded.progress,
                target_languages_json = excluded.target_languages_json,
                source_video_id = excluded.source_video_id,
                source_channel_id = excluded.source_channel_id,
                error_message = excluded.error_message,
                created_at = excluded.created_at,
                updated_at = excluded.updated_at`,
			j.ID,
			scope,
			string(j.Status),
			j.Progress,
			string(languagesJSON),
			nullableString(j.SourceVideoID),
			nullableString(j.SourceChannelID),
			nullableString(j.ErrorMessage),
			nullableTimeValue(j.CreatedAt),
			now,
		); err != nil {
			return fmt.Errorf("insert snapshot %s: %w", j.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// GetByJobID fetches one snapshot, nil when unknown.
func (s *Store) GetByJobID(ctx context.Context, jobID string) (*job.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM job_snapshots WHERE job_id = ?`, jobID)
	snapshot, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snapshot, nil
}

// ListScope returns every stored snapshot for a scope ordered by creation
// time.
func (s *Store) ListScope(ctx context.Context, scope string) ([]*job.Job, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+snapshotColumns+` FROM job_snapshots WHERE scope = ? ORDER BY created_at, job_id`,
		scope,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var jobs []*job.Job
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, snapshot)
	}
	return jobs, rows.Err()
}

// SaveWorkflowState attaches the latest per-stage breakdown to a stored
// snapshot. A no-op when the job has no snapshot yet.
func (s *Store) SaveWorkflowState(ctx context.Context, jobID string, state job.WorkflowState) error {
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal workflow state: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE job_snapshots SET workflow_json = ?, updated_at = ? WHERE job_id = ?`,
		string(encoded),
		time.Now().UTC().Format(time.RFC3339Nano),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("save workflow state: %w", err)
	}
	return nil
}

// WorkflowState returns the stored per-stage breakdown for a job. The
// second result is false when none was recorded.
func (s *Store) WorkflowState(ctx context.Context, jobID string) (job.WorkflowState, bool, error) {
	var encoded sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT workflow_json FROM job_snapshots WHERE job_id = ?`, jobID).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return job.WorkflowState{}, false, nil
	}
	if err != nil {
		return job.WorkflowState{}, false, fmt.Errorf("get workflow state: %w", err)
	}
	if !encoded.Valid || encoded.String == "" {
		return job.WorkflowState{}, false, nil
	}
	var state job.WorkflowState
	if err := json.Unmarshal([]byte(encoded.String), &state); err != nil {
		return job.WorkflowState{}, false, fmt.Errorf("decode workflow state: %w", err)
	}
	return state, true, nil
}

// RecordApproval appends an approval attempt to the audit trail.
func (s *Store) RecordApproval(ctx context.Context, jobID string, attemptErr error) error {
	message := ""
	succeeded := 1
	if attemptErr != nil {
		message = attemptErr.Error()
		succeeded = 0
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO approvals (job_id, succeeded, error_message, recorded_at) VALUES (?, ?, ?, ?)`,
		jobID,
		succeeded,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record approval: %w", err)
	}
	return nil
}

// ApprovalRecord is one entry in the approval audit trail.
type ApprovalRecord struct {
	JobID        string
	Succeeded    bool
	ErrorMessage string
	RecordedAt   time.Time
}

// Approvals returns the audit trail for a job, newest first.
func (s *Store) Approvals(ctx context.Context, jobID string) ([]ApprovalRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT job_id, succeeded, error_message, recorded_at FROM approvals WHERE job_id = ? ORDER BY id DESC`,
		jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	defer rows.Close()

	var records []ApprovalRecord
	for rows.Next() {
		var (
			record      ApprovalRecord
			succeeded   int
			message     sql.NullString
			recordedRaw string
		)
		if err := rows.Scan(&record.JobID, &succeeded, &message, &recordedRaw); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		record.Succeeded = succeeded != 0
		record.ErrorMessage = message.String
		if recorded, err := parseTimeString(recordedRaw); err == nil {
			record.RecordedAt = recorded
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Health verifies the database responds.
func (s *Store) Health(ctx context.Context) error {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("store health: %w", err)
	}
	return nil
}
