package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voicedesk/voicedesk/internal/observability"
	"github.com/voicedesk/voicedesk/internal/ratelimit"
)

// RequestLogger middleware logs HTTP requests
func RequestLogger(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("Request handled", map[string]interface{}{
			"client_ip": c.ClientIP(),
			"status":    c.Writer.Status(),
			"latency":   time.Since(start).String(),
			"method":    c.Request.Method,
			"path":      path,
		})

		if len(c.Errors) > 0 {
			logger.Error("Request errors", map[string]interface{}{
				"path":   path,
				"errors": c.Errors.String(),
			})
		}
	}
}

// RateLimitMiddleware rejects requests over the per-identity quota with
// 429. Identity is the session ID when the client supplies one, else the
// client IP.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg ratelimit.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetHeader("X-Session-ID")
		if identity == "" {
			identity = c.ClientIP()
		}

		if !limiter.Allow(c.Request.Context(), identity, cfg.Limit, cfg.Window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

// CORSMiddleware enables Cross-Origin Resource Sharing
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Session-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
