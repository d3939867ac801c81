package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestQueueProcessesEveryJob(t *testing.T) {
	defer goleak.VerifyNone(t)

	var (
		mu   sync.Mutex
		seen []string
	)
	proc := ProcessorFunc(func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Path)
		if job.TraceID == "" || job.SubmittedAt.IsZero() {
			return errors.New("job not stamped")
		}
		return nil
	})
	q := NewProcessorQueue(proc, quiet(), WithWorkers(3), WithQueueSize(1))

	ctx := context.Background()
	for _, p := range []string{"a.pdf", "b.pdf", "c.png", "d.jpg"} {
		require.NoError(t, q.Enqueue(ctx, Job{Path: p}))
	}
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	sort.Strings(seen)
	assert.Equal(t, []string{"a.pdf", "b.pdf", "c.png", "d.jpg"}, seen)
}

func TestEnqueueAfterShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := NewProcessorQueue(ProcessorFunc(func(context.Context, Job) error { return nil }), quiet())
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{Path: "x.pdf"}), ErrQueueClosed)
}

func TestEnqueueBackpressureHonoursContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	proc := ProcessorFunc(func(context.Context, Job) error {
		started <- struct{}{}
		<-release
		return nil
	})
	q := NewProcessorQueue(proc, quiet(), WithWorkers(1), WithQueueSize(1))

	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "busy.pdf"}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "buffered.pdf"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Enqueue(ctx, Job{Path: "blocked.pdf"}), context.DeadlineExceeded)

	close(release)
	q.Shutdown(context.Background())
}

func TestBaseContextCancelsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	base, cancel := context.WithCancel(context.Background())
	got := make(chan error, 1)
	proc := ProcessorFunc(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		got <- ctx.Err()
		return ctx.Err()
	})
	q := NewProcessorQueue(proc, quiet(), WithBaseContext(base), WithProcessTimeout(time.Minute))
	require.NoError(t, q.Enqueue(context.Background(), Job{Path: "a.pdf"}))
	cancel()

	assert.ErrorIs(t, <-got, context.Canceled)
	q.Shutdown(context.Background())
}
