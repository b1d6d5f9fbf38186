package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/internal/observability"
)

func TestPoolExecutesTasks(t *testing.T) {
	pool := NewPool(2, 8, observability.NewNoopLogger())

	var executed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		ok := pool.Enqueue(func(ctx context.Context) {
			defer wg.Done()
			executed.Add(1)
		})
		require.True(t, ok)
	}

	wg.Wait()
	assert.Equal(t, int64(5), executed.Load())

	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPoolContainsPanic(t *testing.T) {
	pool := NewPool(1, 4, observability.NewNoopLogger())

	done := make(chan struct{})
	require.True(t, pool.Enqueue(func(ctx context.Context) {
		defer close(done)
		panic("bad task")
	}))
	<-done

	// The worker survives the panic and keeps executing
	ran := make(chan struct{})
	require.True(t, pool.Enqueue(func(ctx context.Context) {
		close(ran)
	}))

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("worker did not recover after panic")
	}

	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	pool := NewPool(1, 1, observability.NewNoopLogger())

	release := make(chan struct{})
	started := make(chan struct{})

	// Occupy the single worker, then fill the single queue slot
	require.True(t, pool.Enqueue(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.True(t, pool.Enqueue(func(ctx context.Context) {}))

	assert.False(t, pool.Enqueue(func(ctx context.Context) {}))

	close(release)
	require.NoError(t, pool.Shutdown(context.Background()))
}

func TestShutdownDrainsQueuedTasks(t *testing.T) {
	pool := NewPool(1, 8, observability.NewNoopLogger())

	var executed atomic.Int64
	for i := 0; i < 4; i++ {
		require.True(t, pool.Enqueue(func(ctx context.Context) {
			time.Sleep(10 * time.Millisecond)
			executed.Add(1)
		}))
	}

	require.NoError(t, pool.Shutdown(context.Background()))
	assert.Equal(t, int64(4), executed.Load())
}

func TestEnqueueAfterShutdown(t *testing.T) {
	pool := NewPool(1, 4, observability.NewNoopLogger())
	require.NoError(t, pool.Shutdown(context.Background()))

	assert.False(t, pool.Enqueue(func(ctx context.Context) {}))
}

func TestShutdownHonorsContext(t *testing.T) {
	pool := NewPool(1, 4, observability.NewNoopLogger())

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, pool.Enqueue(func(ctx context.Context) {
		close(started)
		<-release
	}))
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := pool.Shutdown(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
}
