package vector

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PgStore implements Store on Postgres with the pgvector extension.
// Similarity uses cosine distance; score is reported as 1 - distance so
// higher is better.
type PgStore struct {
	db         *sqlx.DB
	dimensions int
}

// NewPgStore creates a new pgvector-backed store enforcing the given
// vector dimensionality
func NewPgStore(db *sqlx.DB, dimensions int) *PgStore {
	return &PgStore{
		db:         db,
		dimensions: dimensions,
	}
}

// chunkRow maps a document_chunks row
type chunkRow struct {
	ID         string    `db:"id"`
	Embedding  string    `db:"embedding"`
	Content    string    `db:"content"`
	Title      string    `db:"title"`
	Source     string    `db:"source"`
	IngestedAt time.Time `db:"ingested_at"`
}

// resultRow maps a similarity search row
type resultRow struct {
	ID         string    `db:"id"`
	Score      float64   `db:"score"`
	Content    string    `db:"content"`
	Title      string    `db:"title"`
	Source     string    `db:"source"`
	IngestedAt time.Time `db:"ingested_at"`
}

// Upsert inserts or fully replaces chunks by ID
func (s *PgStore) Upsert(ctx context.Context, chunks []Chunk) error {
	query := `
		INSERT INTO document_chunks (id, embedding, content, title, source, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			content = EXCLUDED.content,
			title = EXCLUDED.title,
			source = EXCLUDED.source,
			ingested_at = EXCLUDED.ingested_at
	`

	for _, chunk := range chunks {
		if len(chunk.Vector) != s.dimensions {
			return fmt.Errorf("chunk %s has %d dimensions, index requires %d", chunk.ID, len(chunk.Vector), s.dimensions)
		}

		ingestedAt := chunk.Metadata.IngestedAt
		if ingestedAt.IsZero() {
			ingestedAt = time.Now().UTC()
		}

		_, err := s.db.ExecContext(ctx, query,
			chunk.ID,
			encodeVector(chunk.Vector),
			chunk.Metadata.Content,
			chunk.Metadata.Title,
			chunk.Metadata.Source,
			ingestedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", chunk.ID, err)
		}
	}

	return nil
}

// Query returns the topK most similar chunks to the given vector
func (s *PgStore) Query(ctx context.Context, queryVector []float32, topK int, includeMetadata bool) ([]Result, error) {
	if len(queryVector) != s.dimensions {
		return nil, fmt.Errorf("query vector has %d dimensions, index requires %d", len(queryVector), s.dimensions)
	}

	query := `
		SELECT id, 1 - (embedding <=> $1) AS score, content, title, source, ingested_at
		FROM document_chunks
		ORDER BY embedding <=> $1
		LIMIT $2
	`

	var rows []resultRow
	err := s.db.SelectContext(ctx, &rows, query, encodeVector(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}

	results := make([]Result, 0, len(rows))
	for _, row := range rows {
		result := Result{
			ID:    row.ID,
			Score: row.Score,
		}
		if includeMetadata {
			result.Metadata = Metadata{
				Content:    row.Content,
				Title:      row.Title,
				Source:     row.Source,
				IngestedAt: row.IngestedAt,
			}
		}
		results = append(results, result)
	}

	return results, nil
}

// Fetch retrieves chunks by ID; missing IDs are omitted
func (s *PgStore) Fetch(ctx context.Context, ids []string) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, embedding::text AS embedding, content, title, source, ingested_at
		FROM document_chunks
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build fetch query: %w", err)
	}

	var rows []chunkRow
	err = s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chunks: %w", err)
	}

	chunks := make([]Chunk, 0, len(rows))
	for _, row := range rows {
		embedding, err := decodeVector(row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for chunk %s: %w", row.ID, err)
		}
		chunks = append(chunks, Chunk{
			ID:     row.ID,
			Vector: embedding,
			Metadata: Metadata{
				Content:    row.Content,
				Title:      row.Title,
				Source:     row.Source,
				IngestedAt: row.IngestedAt,
			},
		})
	}

	return chunks, nil
}

// Delete removes chunks by ID
func (s *PgStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`DELETE FROM document_chunks WHERE id IN (?)`, ids)
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	_, err = s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}

	return nil
}

// Count returns the number of stored chunks
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_chunks`)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// encodeVector converts a Go slice to the pgvector text representation
func encodeVector(vector []float32) string {
	parts := make([]string, len(vector))
	for i, v := range vector {
		parts[i] = strconv.FormatFloat(float64(v), 'f', -1, 32)
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, ","))
}

// decodeVector parses the pgvector text representation into a Go slice
func decodeVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, fmt.Errorf("invalid vector literal: %q", s)
	}

	body := s[1 : len(s)-1]
	if body == "" {
		return nil, nil
	}

	parts := strings.Split(body, ",")
	vector := make([]float32, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		vector[i] = float32(f)
	}

	return vector, nil
}
