package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voicedesk/voicedesk/internal/llm"
)

// ChatMessage is a single message in a chat session
type ChatMessage struct {
	ID        string                 `json:"id,omitempty"`
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ChatRequest is the POST /chat request body
type ChatRequest struct {
	Messages  []ChatMessage `json:"messages"`
	SessionID string        `json:"sessionId,omitempty"`
}

// ChatResponse is the POST /chat response body
type ChatResponse struct {
	ID        string      `json:"id"`
	Message   ChatMessage `json:"message"`
	SessionID string      `json:"sessionId"`
}

// chatHandler runs the retrieval pipeline and returns a completion.
// Retrieval failures degrade to an empty context; only a completion
// failure errors the request.
func (s *Server) chatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "messages must not be empty"})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	ctx := c.Request.Context()
	userMessage := req.Messages[len(req.Messages)-1]

	context := s.deps.Retriever.RetrieveContext(ctx, userMessage.Content, s.deps.TopK)
	hasDocuments := s.deps.Retriever.HasDocuments(ctx)

	// History excludes the new user message; the composer emits the system
	// message plus history, and the user message is appended here so the
	// final ordering lives in one place
	history := make([]llm.Message, 0, len(req.Messages)-1)
	for _, msg := range req.Messages[:len(req.Messages)-1] {
		if msg.Role != llm.RoleUser && msg.Role != llm.RoleAssistant {
			continue
		}
		history = append(history, llm.Message{Role: msg.Role, Content: msg.Content})
	}

	messages := s.deps.Composer.BuildMessages(history, context, &s.deps.Persona, hasDocuments)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage.Content})

	reply, err := s.deps.Completions.Complete(ctx, messages)
	if err != nil {
		s.logger.Error("Completion request failed", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "completion provider unavailable"})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		ID: uuid.New().String(),
		Message: ChatMessage{
			ID:        uuid.New().String(),
			Role:      llm.RoleAssistant,
			Content:   reply,
			Timestamp: time.Now().UTC(),
		},
		SessionID: sessionID,
	})
}
