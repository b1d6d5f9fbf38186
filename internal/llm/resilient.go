package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"

	"github.com/voicedesk/voicedesk/internal/observability"
)

// ResilientProvider wraps a Provider with a circuit breaker and bounded
// retry. Transient upstream failures are retried with exponential backoff;
// sustained failures trip the breaker so callers fail fast instead of
// piling up on a degraded provider.
type ResilientProvider struct {
	inner   Provider
	breaker *gobreaker.CircuitBreaker
	logger  observability.Logger
}

// NewResilientProvider wraps the given provider with resilience controls
func NewResilientProvider(inner Provider, logger observability.Logger) *ResilientProvider {
	settings := gobreaker.Settings{
		Name:        "completion-provider",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", map[string]interface{}{
				"name": name,
				"from": from.String(),
				"to":   to.String(),
			})
		},
	}

	return &ResilientProvider{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Complete executes the completion through the circuit breaker, retrying
// transient failures up to two times
func (p *ResilientProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	result, err := p.breaker.Execute(func() (interface{}, error) {
		var text string
		operation := func() error {
			var err error
			text, err = p.inner.Complete(ctx, messages)
			return err
		}

		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
		if err := backoff.Retry(operation, policy); err != nil {
			return "", err
		}
		return text, nil
	})
	if err != nil {
		return "", err
	}

	return result.(string), nil
}
