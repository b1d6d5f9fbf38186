// Package vector provides nearest-neighbor search over stored document
// chunks with attached metadata.
package vector

import (
	"context"
	"time"
)

// Metadata carries the textual payload attached to a stored chunk
type Metadata struct {
	Content    string    `json:"content"`
	Title      string    `json:"title,omitempty"`
	Source     string    `json:"source"`
	IngestedAt time.Time `json:"ingested_at"`
}

// Chunk is a stored vector record. IDs are unique within the index and
// upsert by ID replaces prior content.
type Chunk struct {
	ID       string    `json:"id"`
	Vector   []float32 `json:"vector"`
	Metadata Metadata  `json:"metadata"`
}

// Result is a single similarity search hit. Higher score means more
// similar. Results are computed per query and never persisted.
type Result struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// Store defines nearest-neighbor search over stored chunks
type Store interface {
	// Upsert inserts or fully replaces chunks by ID
	Upsert(ctx context.Context, chunks []Chunk) error

	// Query returns the topK most similar chunks to the given vector
	Query(ctx context.Context, queryVector []float32, topK int, includeMetadata bool) ([]Result, error)

	// Fetch retrieves chunks by ID; missing IDs are omitted
	Fetch(ctx context.Context, ids []string) ([]Chunk, error)

	// Delete removes chunks by ID
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored chunks
	Count(ctx context.Context) (int, error)
}
