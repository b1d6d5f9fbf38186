package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voicedesk/voicedesk/internal/rag"
	"github.com/voicedesk/voicedesk/internal/vector"
)

// IngestDocument is one chunk to add to the knowledge base
type IngestDocument struct {
	ID      string `json:"id,omitempty"`
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
	Source  string `json:"source"`
}

// IngestRequest is the POST /api/v1/documents request body
type IngestRequest struct {
	Documents []IngestDocument `json:"documents"`
}

// SearchRequest is the POST /api/v1/documents/search request body
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK,omitempty"`
}

// ingestDocumentsHandler embeds and upserts document chunks
func (s *Server) ingestDocumentsHandler(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(req.Documents) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "documents must not be empty"})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	chunks := make([]vector.Chunk, 0, len(req.Documents))
	for _, doc := range req.Documents {
		if doc.Content == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "document content must not be empty"})
			return
		}

		embedding, err := s.deps.Embedder.Embed(ctx, doc.Content)
		if err != nil {
			s.logger.Error("Failed to embed document", map[string]interface{}{
				"source": doc.Source,
				"error":  err.Error(),
			})
			c.JSON(http.StatusBadGateway, gin.H{"error": "embedding provider unavailable"})
			return
		}

		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}

		chunks = append(chunks, vector.Chunk{
			ID:     id,
			Vector: embedding,
			Metadata: vector.Metadata{
				Content:    doc.Content,
				Title:      doc.Title,
				Source:     doc.Source,
				IngestedAt: now,
			},
		})
	}

	if err := s.deps.VectorStore.Upsert(ctx, chunks); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ids := make([]string, len(chunks))
	for i, chunk := range chunks {
		ids[i] = chunk.ID
	}

	c.JSON(http.StatusOK, gin.H{"ids": ids})
}

// searchDocumentsHandler runs a similarity search over the knowledge base
func (s *Server) searchDocumentsHandler(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query must not be empty"})
		return
	}

	topK := req.TopK
	if topK <= 0 {
		topK = rag.DefaultTopK
	}

	ctx := c.Request.Context()
	queryVector, err := s.deps.Embedder.Embed(ctx, req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "embedding provider unavailable"})
		return
	}

	results, err := s.deps.VectorStore.Query(ctx, queryVector, topK, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// getDocumentHandler fetches a single chunk by ID
func (s *Server) getDocumentHandler(c *gin.Context) {
	chunks, err := s.deps.VectorStore.Fetch(c.Request.Context(), []string{c.Param("id")})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if len(chunks) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not found"})
		return
	}

	c.JSON(http.StatusOK, chunks[0])
}

// deleteDocumentHandler removes a chunk by ID
func (s *Server) deleteDocumentHandler(c *gin.Context) {
	if err := s.deps.VectorStore.Delete(c.Request.Context(), []string{c.Param("id")}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
