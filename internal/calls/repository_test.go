package calls

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepository(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewSQLRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestUpsertStartedSQL(t *testing.T) {
	repo, mock := setupRepository(t)
	startedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO calls").
		WithArgs("call-1", "+15551234567", string(StatusInProgress), startedAt, string(StatusCompleted)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertStarted(context.Background(), "call-1", "+15551234567", startedAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCompletedSQL(t *testing.T) {
	repo, mock := setupRepository(t)

	startedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(time.Minute)
	duration := int64(60)
	transcript := "user: hello"
	summary := "Short greeting call."

	mock.ExpectExec("INSERT INTO calls").
		WithArgs("call-1", "+15551234567", string(StatusCompleted), startedAt, endedAt,
			duration, nil, transcript, summary).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertCompleted(context.Background(), &Record{
		CallID:          "call-1",
		CallerNumber:    "+15551234567",
		Status:          StatusCompleted,
		StartedAt:       startedAt,
		EndedAt:         &endedAt,
		DurationSeconds: &duration,
		Transcript:      &transcript,
		Summary:         &summary,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	repo, mock := setupRepository(t)

	mock.ExpectQuery("SELECT (.+) FROM calls").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"call_id"}))

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
