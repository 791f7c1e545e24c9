package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultInterval is the time between two ticks.
const DefaultInterval = time.Second

// Option configures a Timer or LiveCountdown.
type Option func(*options)

type options struct {
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger
}

// WithClock sets the time source. In production, use clockwork.NewRealClock().
// In tests, a FakeClock.
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) { o.clock = clock }
}

// WithInterval overrides the tick period for tests. Every tick still counts
// as one elapsed second, so anything but DefaultInterval drifts from the wall
// clock.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the logger used for lifecycle and recovered panics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func newOptions(opts []Option) options {
	o := options{
		clock:    clockwork.NewRealClock(),
		interval: DefaultInterval,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Timer counts down to a target Unix timestamp, one tick per interval.
// A Timer runs at most one countdown at a time: starting a new one cancels
// the previous run before the new ticker is created.
type Timer struct {
	clock    clockwork.Clock
	interval time.Duration
	logger   zerolog.Logger

	mu     sync.Mutex
	active *run
}

type tickFunc func(r *run, rem Remaining)

// run is a single countdown started by Timer.start.
type run struct {
	id      uuid.UUID
	current int64
	target  int64
	elapsed int64

	ticker   clockwork.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func (r *run) stop() {
	r.stopOnce.Do(func() {
		r.ticker.Stop()
		close(r.done)
	})
}

func (r *run) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// NewTimer creates an idle Timer.
func NewTimer(opts ...Option) *Timer {
	o := newOptions(opts)
	return &Timer{
		clock:    o.clock,
		interval: o.interval,
		logger:   o.logger,
	}
}

// Start begins counting down from currentTimestamp to targetTimestamp (Unix
// seconds) and calls l once per tick, the first time one interval from now.
// Any countdown already running on t is cancelled first. The run also stops
// when ctx is done. A nil listener is a no-op and returns uuid.Nil.
func (t *Timer) Start(ctx context.Context, currentTimestamp, targetTimestamp int64, l Listener) uuid.UUID {
	if l == nil {
		return uuid.Nil
	}
	r := t.start(ctx, currentTimestamp, targetTimestamp, func(r *run, rem Remaining) {
		t.guard(r, "countdown listener", func() {
			l.OnCountDown(rem.String(), rem.Hours, rem.Minutes, rem.Seconds)
		})
	})
	return r.id
}

func (t *Timer) start(ctx context.Context, currentTimestamp, targetTimestamp int64, fn tickFunc) *run {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &run{
		id:      uuid.New(),
		current: currentTimestamp,
		target:  targetTimestamp,
		done:    make(chan struct{}),
	}

	t.mu.Lock()
	if t.active != nil {
		t.active.stop()
		t.logger.Debug().
			Str("run_id", t.active.id.String()).
			Str("replaced_by", r.id.String()).
			Msg("replaced existing countdown")
	}
	r.ticker = t.clock.NewTicker(t.interval)
	t.active = r
	t.mu.Unlock()

	go t.loop(ctx, r, fn)

	t.logger.Debug().
		Str("run_id", r.id.String()).
		Int64("remaining_sec", targetTimestamp-currentTimestamp).
		Dur("interval", t.interval).
		Msg("countdown started")

	return r
}

func (t *Timer) loop(ctx context.Context, r *run, fn tickFunc) {
	defer t.release(r)

	for {
		select {
		case <-r.done:
			return
		case <-ctx.Done():
			t.logger.Debug().Str("run_id", r.id.String()).Msg("countdown cancelled due to context cancellation")
			return
		case <-r.ticker.Chan():
			// A tick may already be buffered when the run is stopped.
			if r.stopped() {
				return
			}
			r.elapsed++
			fn(r, Decompose(r.target-(r.current+r.elapsed)))
		}
	}
}

// guard runs f and recovers a panic so one bad callback does not kill the run.
func (t *Timer) guard(r *run, what string, f func()) {
	defer func() {
		if p := recover(); p != nil {
			t.logger.Error().
				Str("run_id", r.id.String()).
				Interface("panic", p).
				Msgf("recovered panic in %s", what)
		}
	}()
	f()
}

// release stops r and clears it if it is still the active run.
func (t *Timer) release(r *run) {
	t.mu.Lock()
	defer t.mu.Unlock()

	r.stop()
	if t.active == r {
		t.active = nil
	}
}

// Stop cancels the active countdown, if any. It never blocks on an in-flight
// callback and is safe to call on an idle Timer.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil {
		return
	}
	t.active.stop()
	t.logger.Debug().Str("run_id", t.active.id.String()).Msg("countdown stopped")
	t.active = nil
}

// Cancel stops the countdown identified by runID if it is still the active
// one and reports whether it did.
func (t *Timer) Cancel(runID uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.active == nil || t.active.id != runID {
		return false
	}
	t.active.stop()
	t.active = nil
	return true
}

// Active reports whether a countdown is running.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != nil
}

// RunID returns the ID of the running countdown or uuid.Nil when idle.
func (t *Timer) RunID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return uuid.Nil
	}
	return t.active.id
}
