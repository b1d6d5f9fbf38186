package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a call record does not exist
var ErrNotFound = errors.New("calls: record not found")

// Repository persists call records
type Repository interface {
	// UpsertStarted creates the record in_progress, or idempotently
	// refreshes it when the event is a duplicate. Completed records are
	// left untouched.
	UpsertStarted(ctx context.Context, callID, callerNumber string, startedAt time.Time) error

	// UpsertCompleted transitions the record to completed with all derived
	// fields, creating it first if call-started was never seen. Records
	// already completed are left untouched.
	UpsertCompleted(ctx context.Context, record *Record) error

	// Get returns the record for a call ID, or ErrNotFound
	Get(ctx context.Context, callID string) (*Record, error)
}

// SQLRepository implements Repository on Postgres
type SQLRepository struct {
	db *sqlx.DB
}

// NewSQLRepository creates a new call record repository
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

// UpsertStarted creates or refreshes an in-progress record by call ID
func (r *SQLRepository) UpsertStarted(ctx context.Context, callID, callerNumber string, startedAt time.Time) error {
	query := `
		INSERT INTO calls (call_id, caller_number, status, started_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (call_id) DO UPDATE SET
			caller_number = COALESCE(NULLIF(EXCLUDED.caller_number, ''), calls.caller_number),
			started_at = EXCLUDED.started_at,
			updated_at = NOW()
		WHERE calls.status <> $5
	`

	_, err := r.db.ExecContext(ctx, query, callID, callerNumber, StatusInProgress, startedAt, StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to upsert started call %s: %w", callID, err)
	}

	return nil
}

// UpsertCompleted transitions a record to completed exactly once
func (r *SQLRepository) UpsertCompleted(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO calls (call_id, caller_number, status, started_at, ended_at,
			duration_seconds, recording_url, transcript, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (call_id) DO UPDATE SET
			caller_number = COALESCE(NULLIF(EXCLUDED.caller_number, ''), calls.caller_number),
			status = EXCLUDED.status,
			ended_at = EXCLUDED.ended_at,
			duration_seconds = EXCLUDED.duration_seconds,
			recording_url = EXCLUDED.recording_url,
			transcript = EXCLUDED.transcript,
			summary = EXCLUDED.summary,
			updated_at = NOW()
		WHERE calls.status <> $3
	`

	_, err := r.db.ExecContext(ctx, query,
		record.CallID,
		record.CallerNumber,
		StatusCompleted,
		record.StartedAt,
		record.EndedAt,
		record.DurationSeconds,
		record.RecordingURL,
		record.Transcript,
		record.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert completed call %s: %w", record.CallID, err)
	}

	return nil
}

// Get returns the record for a call ID
func (r *SQLRepository) Get(ctx context.Context, callID string) (*Record, error) {
	query := `
		SELECT call_id, caller_number, status, started_at, ended_at,
			duration_seconds, recording_url, transcript, summary, created_at, updated_at
		FROM calls
		WHERE call_id = $1
	`

	var record Record
	err := r.db.GetContext(ctx, &record, query, callID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get call %s: %w", callID, err)
	}

	return &record, nil
}
