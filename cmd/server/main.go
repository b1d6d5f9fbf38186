package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voicedesk/voicedesk/internal/api"
	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/calls"
	"github.com/voicedesk/voicedesk/internal/config"
	"github.com/voicedesk/voicedesk/internal/database"
	"github.com/voicedesk/voicedesk/internal/embedding"
	"github.com/voicedesk/voicedesk/internal/llm"
	"github.com/voicedesk/voicedesk/internal/notifications"
	"github.com/voicedesk/voicedesk/internal/observability"
	"github.com/voicedesk/voicedesk/internal/rag"
	"github.com/voicedesk/voicedesk/internal/ratelimit"
	"github.com/voicedesk/voicedesk/internal/vector"
	"github.com/voicedesk/voicedesk/internal/worker"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger("server")

	shutdownTracing, err := observability.InitTracing(cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()

	// Database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{"error": err.Error()})
	}
	defer func() { _ = db.Close() }()

	if path := os.Getenv("VOICEDESK_MIGRATIONS_PATH"); path != "" {
		if err := database.MigrateUp(db, path); err != nil {
			logger.Fatal("Failed to apply migrations", map[string]interface{}{"error": err.Error()})
		}
	}

	// Rate limit counters live in Redis when available; otherwise fall
	// back to in-process token buckets
	var limiter ratelimit.Limiter
	redisCache, err := cache.NewRedisCache(cfg.Cache)
	if err != nil {
		logger.Warn("Redis unavailable, using in-process rate limiting", map[string]interface{}{
			"address": cfg.Cache.Address,
			"error":   err.Error(),
		})
		limiter = ratelimit.NewLocalLimiter()
	} else {
		defer func() { _ = redisCache.Close() }()
		limiter = ratelimit.NewCounterLimiter(redisCache, logger.WithPrefix("ratelimit"))
	}

	// Embedding and retrieval
	embedder, err := embedding.NewProvider(cfg.Embedding)
	if err != nil {
		logger.Fatal("Failed to create embedding provider", map[string]interface{}{"error": err.Error()})
	}

	store := vector.NewPgStore(db, embedder.Dimensions())
	retriever := rag.NewRetriever(embedder, store, logger.WithPrefix("rag"))
	composer := rag.NewComposer()

	// Completions
	completions := llm.NewResilientProvider(llm.NewOpenAIClient(cfg.LLM), logger.WithPrefix("llm"))

	// Notifications
	emailSender, smsSender, err := notifications.NewAWSSenders(ctx, cfg.Notifications)
	if err != nil {
		logger.Fatal("Failed to initialize notification senders", map[string]interface{}{"error": err.Error()})
	}
	dispatcher := notifications.NewDispatcher(cfg.Notifications, emailSender, smsSender, logger.WithPrefix("notifications"))

	// Call processing
	callsRepo := calls.NewSQLRepository(db)
	processor := calls.NewProcessor(callsRepo, completions, dispatcher, logger.WithPrefix("calls"))

	pool := worker.NewPool(cfg.Worker.Workers, cfg.Worker.QueueSize, logger.WithPrefix("worker"))

	server := api.NewServer(cfg.API, api.Deps{
		Retriever:   retriever,
		Composer:    composer,
		Persona:     cfg.Persona,
		TopK:        cfg.Retrieval.TopK,
		Completions: completions,
		Embedder:    embedder,
		VectorStore: store,
		Processor:   processor,
		CallsRepo:   callsRepo,
		Limiter:     limiter,
		Pool:        pool,
		Logger:      logger.WithPrefix("api"),
	})

	go func() {
		logger.Info("Server listening", map[string]interface{}{"address": cfg.API.ListenAddress})
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Shutting down", nil)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", map[string]interface{}{"error": err.Error()})
	}

	// Drain queued webhook work before exiting so accepted events are not
	// silently dropped
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Worker pool drain error", map[string]interface{}{"error": err.Error()})
	}
}
