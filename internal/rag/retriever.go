// Package rag implements the retrieval-augmented-generation context
// pipeline: embed the query, search the vector store, filter and compose
// the retrieved content into a bounded prompt context.
package rag

import (
	"context"
	"strings"

	"github.com/voicedesk/voicedesk/internal/embedding"
	"github.com/voicedesk/voicedesk/internal/observability"
	"github.com/voicedesk/voicedesk/internal/vector"
)

// contextHeader identifies the retrieved block inside the system prompt
const contextHeader = "Relevant knowledge base context:"

// contextDelimiter separates retrieved content blocks
const contextDelimiter = "\n\n---\n\n"

// DefaultTopK is the number of neighbors fetched per query
const DefaultTopK = 3

// Retriever produces a bounded textual context block for a query.
// Retrieval is fail-open: any provider or store failure degrades to an
// empty context instead of erroring the request.
type Retriever struct {
	embedder embedding.Provider
	store    vector.Store
	logger   observability.Logger
}

// NewRetriever creates a new context retriever
func NewRetriever(embedder embedding.Provider, store vector.Store, logger observability.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		logger:   logger,
	}
}

// RetrieveContext returns the knowledge-base context for the query, or an
// empty string when nothing relevant is found or retrieval fails. It never
// returns an error to its caller.
func (r *Retriever) RetrieveContext(ctx context.Context, query string, topK int) string {
	ctx, span := observability.StartSpan(ctx, "rag.retrieve_context")
	defer span.End()
	span.SetAttributes(observability.RetrievalQueryAttributeKey.Int(len(query)))

	if topK <= 0 {
		topK = DefaultTopK
	}

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		r.logger.Error("Failed to embed query, degrading to empty context", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	results, err := r.store.Query(ctx, queryVector, topK, true)
	if err != nil {
		r.logger.Error("Vector search failed, degrading to empty context", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	span.SetAttributes(observability.RetrievalHitsAttributeKey.Int(len(results)))

	// Drop hits without usable textual content
	blocks := make([]string, 0, len(results))
	for _, result := range results {
		content := strings.TrimSpace(result.Metadata.Content)
		if content == "" {
			continue
		}
		blocks = append(blocks, content)
	}

	if len(blocks) == 0 {
		return ""
	}

	return contextHeader + "\n\n" + strings.Join(blocks, contextDelimiter)
}

// HasDocuments reports whether the knowledge base holds any chunks at all.
// Store errors are treated as "unknown, assume yes" so a transient failure
// does not flip the assistant into setup mode.
func (r *Retriever) HasDocuments(ctx context.Context) bool {
	count, err := r.store.Count(ctx)
	if err != nil {
		r.logger.Error("Failed to count knowledge base chunks", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}
	return count > 0
}
