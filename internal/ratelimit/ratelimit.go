// Package ratelimit bounds request frequency per caller identity using a
// fixed-window counter held in the shared cache. The limiter fails open:
// if the counter store is unreachable the request is allowed and the error
// is logged, so quota enforcement never takes down the primary feature.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/voicedesk/voicedesk/internal/cache"
	"github.com/voicedesk/voicedesk/internal/observability"
)

// Limiter decides whether a request from a given identity is allowed
type Limiter interface {
	Allow(ctx context.Context, identity string, limit int, window time.Duration) bool
}

// Config holds rate limiting settings
type Config struct {
	Enabled bool          `mapstructure:"enabled"`
	Limit   int           `mapstructure:"limit"`
	Window  time.Duration `mapstructure:"window"`
}

// CounterLimiter implements fixed-window rate limiting on the shared cache.
// Increments are atomic at the store level, so concurrent requests for the
// same identity never under-count.
type CounterLimiter struct {
	store  cache.Cache
	logger observability.Logger
}

// NewCounterLimiter creates a limiter backed by the given counter store
func NewCounterLimiter(store cache.Cache, logger observability.Logger) *CounterLimiter {
	return &CounterLimiter{
		store:  store,
		logger: logger,
	}
}

// Allow increments the identity's window counter and reports whether the
// request is within the limit. Counter-store errors fail open.
func (l *CounterLimiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) bool {
	key := fmt.Sprintf("ratelimit:%s", identity)

	count, err := l.store.Incr(ctx, key)
	if err != nil {
		l.logger.Error("Rate limit counter unavailable, failing open", map[string]interface{}{
			"identity": identity,
			"error":    err.Error(),
		})
		return true
	}

	// First request in a fresh window starts the expiry clock
	if count == 1 {
		if err := l.store.Expire(ctx, key, window); err != nil {
			l.logger.Error("Failed to set rate limit window expiry", map[string]interface{}{
				"identity": identity,
				"error":    err.Error(),
			})
		}
	}

	return count <= int64(limit)
}
