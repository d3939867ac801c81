package poll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/entity"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 30
)

// CheckFunc performs one status probe for jobID.
type CheckFunc func(ctx context.Context, jobID string) (entity.ExtractionJob, error)

// UpdateFunc receives every state the watch passes through. The last call
// carries a terminal job.
type UpdateFunc func(job entity.ExtractionJob)

// Options tune a single watch. Zero values take the monitor defaults.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
}

// Monitor starts watches over extraction jobs.
type Monitor struct {
	clock    Clock
	log      *slog.Logger
	defaults Options
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock swaps the time source.
func WithClock(c Clock) Option {
	return func(m *Monitor) {
		if c != nil {
			m.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.log = l
		}
	}
}

// WithDefaults sets the options used when a watch leaves them zero.
func WithDefaults(o Options) Option {
	return func(m *Monitor) {
		if o.Interval > 0 {
			m.defaults.Interval = o.Interval
		}
		if o.MaxAttempts > 0 {
			m.defaults.MaxAttempts = o.MaxAttempts
		}
	}
}

func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		clock:    RealClock{},
		log:      slog.Default(),
		defaults: Options{Interval: DefaultInterval, MaxAttempts: DefaultMaxAttempts},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Watch is a running poll loop for one job.
type Watch struct {
	jobID    string
	opts     Options
	check    CheckFunc
	onUpdate UpdateFunc
	clock    Clock
	log      *slog.Logger

	stop       chan struct{}
	done       chan struct{}
	cancelOnce sync.Once
	cancelled  atomic.Bool
	inDelivery atomic.Bool
	// mu serializes deliveries against Cancel.
	mu sync.Mutex
}

// Watch starts polling jobID. The first check runs one interval after the call;
// the next timer is armed only after the previous check returns. Cancelling ctx
// behaves like Cancel.
func (m *Monitor) Watch(ctx context.Context, jobID string, check CheckFunc, opts Options, onUpdate UpdateFunc) *Watch {
	if opts.Interval <= 0 {
		opts.Interval = m.defaults.Interval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = m.defaults.MaxAttempts
	}
	if onUpdate == nil {
		onUpdate = func(entity.ExtractionJob) {}
	}
	w := &Watch{
		jobID:    jobID,
		opts:     opts,
		check:    check,
		onUpdate: onUpdate,
		clock:    m.clock,
		log:      m.log.With("job_id", jobID),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run(common.WithJobID(ctx, jobID))
	return w
}

// Cancel stops the watch. After it returns no new update is started; a check
// already in flight finishes but its result is dropped. Safe to call more than
// once, after the terminal update, and from inside the update callback.
func (w *Watch) Cancel() {
	w.cancelOnce.Do(func() {
		w.cancelled.Store(true)
		close(w.stop)
	})
	if !w.inDelivery.Load() {
		// wait out a delivery that is already running on the loop goroutine
		w.mu.Lock()
		w.mu.Unlock()
	}
}

// Done is closed once the loop goroutine has exited.
func (w *Watch) Done() <-chan struct{} { return w.done }

// Wait blocks until the loop goroutine has exited.
func (w *Watch) Wait() { <-w.done }

func (w *Watch) JobID() string { return w.jobID }

func (w *Watch) run(ctx context.Context) {
	defer close(w.done)

	state := entity.ExtractionJob{ID: w.jobID, Status: constants.JobStatusPending}
	for {
		timer := w.clock.NewTimer(w.opts.Interval)
		select {
		case <-w.stop:
			timer.Stop()
			w.log.Debug("poll.watch.cancelled", "attempts", state.Attempts)
			return
		case <-ctx.Done():
			timer.Stop()
			w.log.Debug("poll.watch.context_done", "attempts", state.Attempts, "error", ctx.Err())
			return
		case <-timer.C():
		}

		start := w.clock.Now()
		job, err := w.safeCheck(ctx)
		if w.cancelled.Load() || ctx.Err() != nil {
			w.log.Debug("poll.watch.result_discarded", "attempts", state.Attempts)
			return
		}

		state = advance(state, job, err, w.opts.MaxAttempts, w.clock.Now())
		w.log.Debug("poll.watch.tick",
			"attempt", state.Attempts,
			"status", state.Status,
			"elapsed_ms", w.clock.Now().Sub(start).Milliseconds(),
		)
		if state.Terminal() {
			w.log.Info("poll.watch.finished",
				"status", state.Status,
				"failure", state.FailureKind,
				"attempts", state.Attempts,
			)
		}

		w.deliver(state)
		if state.Terminal() || w.cancelled.Load() {
			return
		}
	}
}

func (w *Watch) safeCheck(ctx context.Context) (job entity.ExtractionJob, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("status check panicked: %v", r)
		}
	}()
	return w.check(ctx, w.jobID)
}

func (w *Watch) deliver(state entity.ExtractionJob) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancelled.Load() {
		return
	}
	w.inDelivery.Store(true)
	defer w.inDelivery.Store(false)
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("poll.watch.update_panic", "panic", r)
		}
	}()
	w.onUpdate(state)
}

// advance applies one probe outcome to prev. prev must not be terminal.
func advance(prev, probed entity.ExtractionJob, err error, maxAttempts int, now time.Time) entity.ExtractionJob {
	next := prev
	next.Attempts = prev.Attempts + 1
	next.UpdatedAt = now

	switch {
	case err != nil:
		next.Status = constants.JobStatusFailed
		next.FailureKind = constants.FailureProbe
		next.Reason = err.Error()
	case probed.Status == constants.JobStatusCompleted:
		next.Status = constants.JobStatusCompleted
		next.Result = probed.Result
	case probed.Status == constants.JobStatusFailed:
		next.Status = constants.JobStatusFailed
		next.FailureKind = constants.FailureProcessing
		next.Reason = constants.ReasonProcessingFailed
	case next.Attempts >= maxAttempts:
		next.Status = constants.JobStatusFailed
		next.FailureKind = constants.FailureTimeout
		next.Reason = constants.ReasonTimeout
	default:
		next.Status = constants.JobStatusPending
	}
	return next
}
