package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDrainsOnStop(t *testing.T) {
	var mu sync.Mutex
	var seen []string
	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.ID)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8})

	q.Start(context.Background())
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.TryEnqueue(Job{ID: id}))
	}
	q.Stop()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, seen)
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	var calls int32
	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Millisecond})

	q.Start(context.Background())
	require.NoError(t, q.TryEnqueue(Job{ID: "j1"}))
	q.Stop()

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueRejectsWhenNotRunning(t *testing.T) {
	q := NewQueue("idle", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})
	require.Error(t, q.TryEnqueue(Job{ID: "x"}))

	q.Start(context.Background())
	q.Stop()
	require.Error(t, q.TryEnqueue(Job{ID: "y"}))
}

func TestQueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.TryEnqueue(Job{ID: "running"}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.TryEnqueue(Job{ID: "buffered"}))

	err := q.TryEnqueue(Job{ID: "overflow"})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueDrainsWithLiveContextAfterParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var ctxErrs []error
	var done []string
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		if job.ID == "first" {
			close(started)
			<-release
		}
		mu.Lock()
		defer mu.Unlock()
		ctxErrs = append(ctxErrs, ctx.Err())
		done = append(done, job.ID)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 4})

	q.Start(parent)
	require.NoError(t, q.TryEnqueue(Job{ID: "first"}))
	<-started
	require.NoError(t, q.TryEnqueue(Job{ID: "buffered"}))

	cancel()
	close(release)
	q.Stop()

	assert.Equal(t, []string{"first", "buffered"}, done)
	assert.Equal(t, []error{nil, nil}, ctxErrs)
}

func TestQueueRetriesAfterParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	q := NewQueue("retry-drain", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return errors.New("transient")
		}
		return ctx.Err()
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond})

	q.Start(parent)
	require.NoError(t, q.TryEnqueue(Job{ID: "late"}))
	q.Stop()

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
