package vector

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, dimensions int) (*PgStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPgStore(sqlx.NewDb(db, "sqlmock"), dimensions), mock
}

func TestEncodeDecodeVector(t *testing.T) {
	original := []float32{0.25, -1, 0, 3.5}

	encoded := encodeVector(original)
	assert.Equal(t, "[0.25,-1,0,3.5]", encoded)

	decoded, err := decodeVector(encoded)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeVectorInvalid(t *testing.T) {
	for _, literal := range []string{"", "0.1,0.2", "[0.1,abc]", "[", "]"} {
		_, err := decodeVector(literal)
		assert.Error(t, err, "literal %q should not parse", literal)
	}
}

func TestUpsertDimensionMismatch(t *testing.T) {
	store, _ := setupStore(t, 3)

	err := store.Upsert(context.Background(), []Chunk{
		{ID: "chunk-1", Vector: []float32{1, 2}},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestUpsertSQL(t *testing.T) {
	store, mock := setupStore(t, 3)
	ingestedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("chunk-1", "[1,0,0]", "hours are 9 to 5", "Hours", "faq.md", ingestedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Upsert(context.Background(), []Chunk{
		{
			ID:     "chunk-1",
			Vector: []float32{1, 0, 0},
			Metadata: Metadata{
				Content:    "hours are 9 to 5",
				Title:      "Hours",
				Source:     "faq.md",
				IngestedAt: ingestedAt,
			},
		},
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuerySQL(t *testing.T) {
	store, mock := setupStore(t, 3)
	ingestedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "score", "content", "title", "source", "ingested_at"}).
		AddRow("chunk-1", 0.92, "hours are 9 to 5", "Hours", "faq.md", ingestedAt).
		AddRow("chunk-2", 0.81, "we close on sundays", "Hours", "faq.md", ingestedAt)

	mock.ExpectQuery("SELECT id, 1 - \\(embedding <=> \\$1\\) AS score").
		WithArgs("[1,0,0]", 2).
		WillReturnRows(rows)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 2, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "chunk-1", results[0].ID)
	assert.InDelta(t, 0.92, results[0].Score, 1e-9)
	assert.Equal(t, "hours are 9 to 5", results[0].Metadata.Content)
}

func TestQueryWithoutMetadata(t *testing.T) {
	store, mock := setupStore(t, 3)

	rows := sqlmock.NewRows([]string{"id", "score", "content", "title", "source", "ingested_at"}).
		AddRow("chunk-1", 0.92, "content", "title", "source", time.Now())

	mock.ExpectQuery("SELECT id, 1 - \\(embedding <=> \\$1\\) AS score").
		WithArgs("[1,0,0]", 1).
		WillReturnRows(rows)

	results, err := store.Query(context.Background(), []float32{1, 0, 0}, 1, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Metadata.Content)
}

func TestQueryDimensionMismatch(t *testing.T) {
	store, _ := setupStore(t, 3)

	_, err := store.Query(context.Background(), []float32{1, 0}, 3, true)
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	store, mock := setupStore(t, 3)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM document_chunks").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
}

func TestDeleteEmptyIDs(t *testing.T) {
	store, mock := setupStore(t, 3)

	// No statement expected for an empty ID list
	assert.NoError(t, store.Delete(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}
