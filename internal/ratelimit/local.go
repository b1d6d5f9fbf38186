package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LocalLimiter implements rate limiting with in-process token buckets.
// Used when no Redis counter store is configured; state does not survive
// process restarts and is not shared across instances.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	expiry   map[string]time.Time
}

// NewLocalLimiter creates a new in-process limiter
func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{
		limiters: make(map[string]*rate.Limiter),
		expiry:   make(map[string]time.Time),
	}
}

// Allow reports whether a request from the identity is within the limit
func (l *LocalLimiter) Allow(ctx context.Context, identity string, limit int, window time.Duration) bool {
	return l.getLimiter(identity, limit, window).Allow()
}

// getLimiter returns the token bucket for an identity, creating or
// replacing it when the previous window has expired
func (l *LocalLimiter) getLimiter(identity string, limit int, window time.Duration) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[identity]; exists {
		if time.Now().Before(l.expiry[identity]) {
			return limiter
		}
		delete(l.limiters, identity)
		delete(l.expiry, identity)
	}

	limiter := rate.NewLimiter(rate.Limit(float64(limit)/window.Seconds()), limit)
	l.limiters[identity] = limiter
	l.expiry[identity] = time.Now().Add(window)

	return limiter
}
