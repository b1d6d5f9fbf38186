// Package worker runs background tasks handed off by request handlers.
// Webhook processing is fire-and-forget from the caller's point of view:
// the handler enqueues and returns, and the pool owns the task's lifetime
// through graceful shutdown.
package worker

import (
	"context"
	"sync"

	"github.com/voicedesk/voicedesk/internal/observability"
)

// Task is a unit of background work
type Task func(ctx context.Context)

// Pool is a bounded in-process task queue with a fixed number of workers
type Pool struct {
	tasks   chan Task
	logger  observability.Logger
	wg      sync.WaitGroup
	closing chan struct{}
	once    sync.Once
}

// NewPool creates and starts a pool with the given worker count and queue
// capacity
func NewPool(workers, queueSize int, logger observability.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	p := &Pool{
		tasks:   make(chan Task, queueSize),
		logger:  logger,
		closing: make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}

	return p
}

// Enqueue submits a task for background execution. Returns false when the
// queue is full or the pool is shutting down; the task is dropped and the
// caller has already responded, so the drop is logged rather than retried.
func (p *Pool) Enqueue(task Task) bool {
	select {
	case <-p.closing:
		p.logger.Warn("Task dropped: worker pool is shutting down", nil)
		return false
	default:
	}

	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Error("Task dropped: worker queue is full", map[string]interface{}{
			"capacity": cap(p.tasks),
		})
		return false
	}
}

// Shutdown stops intake and waits for queued tasks to drain, or for the
// context to expire
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		close(p.closing)
		close(p.tasks)
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run drains the task channel until it is closed
func (p *Pool) run() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.execute(task)
	}
}

// execute runs one task, containing panics so a bad task cannot take the
// worker down
func (p *Pool) execute(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Background task panicked", map[string]interface{}{
				"panic": r,
			})
		}
	}()
	task(context.Background())
}
