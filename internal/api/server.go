// Package api exposes the HTTP surface: the chat endpoint, the call
// lifecycle webhook, and the knowledge-base document API.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voicedesk/voicedesk/internal/calls"
	"github.com/voicedesk/voicedesk/internal/embedding"
	"github.com/voicedesk/voicedesk/internal/llm"
	"github.com/voicedesk/voicedesk/internal/observability"
	"github.com/voicedesk/voicedesk/internal/rag"
	"github.com/voicedesk/voicedesk/internal/ratelimit"
	"github.com/voicedesk/voicedesk/internal/vector"
	"github.com/voicedesk/voicedesk/internal/worker"
)

// Deps bundles the collaborators the server routes requests to
type Deps struct {
	Retriever   *rag.Retriever
	Composer    *rag.Composer
	Persona     rag.Persona
	TopK        int
	Completions llm.Provider
	Embedder    embedding.Provider
	VectorStore vector.Store
	Processor   *calls.Processor
	CallsRepo   calls.Repository
	Limiter     ratelimit.Limiter
	Pool        *worker.Pool
	Logger      observability.Logger
}

// Server represents the API server
type Server struct {
	router *gin.Engine
	server *http.Server
	config Config
	deps   Deps
	logger observability.Logger
}

// NewServer creates a new API server
func NewServer(cfg Config, deps Deps) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))

	if cfg.EnableCORS {
		router.Use(CORSMiddleware())
	}

	s := &Server{
		router: router,
		config: cfg,
		deps:   deps,
		logger: deps.Logger,
		server: &http.Server{
			Addr:         cfg.ListenAddress,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}

	if cfg.Webhook.Secret == "" && cfg.Webhook.AllowUnverified {
		s.logger.Warn("WEBHOOK SIGNATURE VERIFICATION DISABLED: allow_unverified is set with no secret configured. Never run this configuration in production.", nil)
	}

	s.setupRoutes()

	return s
}

// setupRoutes initializes all API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	// Chat endpoint with per-identity rate limiting
	chat := s.router.Group("/chat")
	if s.config.RateLimit.Enabled {
		chat.Use(RateLimitMiddleware(s.deps.Limiter, s.config.RateLimit))
	}
	chat.POST("", s.chatHandler)

	// Webhook endpoint authenticates via signature, not middleware
	s.router.POST("/webhooks/calls", s.callWebhookHandler)

	// Knowledge base document API
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/documents", s.ingestDocumentsHandler)
		v1.POST("/documents/search", s.searchDocumentsHandler)
		v1.GET("/documents/:id", s.getDocumentHandler)
		v1.DELETE("/documents/:id", s.deleteDocumentHandler)

		v1.GET("/calls/:id", s.getCallHandler)
	}
}

// Start starts the API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the underlying router for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// healthHandler reports component health
func (s *Server) healthHandler(c *gin.Context) {
	components := gin.H{"api": "healthy"}

	status := http.StatusOK
	if _, err := s.deps.VectorStore.Count(c.Request.Context()); err != nil {
		components["vector_store"] = "unhealthy"
		status = http.StatusServiceUnavailable
	} else {
		components["vector_store"] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":     overall,
		"components": components,
	})
}

// getCallHandler returns a stored call record
func (s *Server) getCallHandler(c *gin.Context) {
	record, err := s.deps.CallsRepo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == calls.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "call not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}
