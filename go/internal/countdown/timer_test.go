package countdown

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type tick struct {
	formatted string
	hours     int
	minutes   int
	seconds   int
}

type recorder struct {
	ticks   chan tick
	live    chan struct{}
	panicOn string
	onTick  func(formatted string)
}

func newRecorder() *recorder {
	return &recorder{
		ticks: make(chan tick, 64),
		live:  make(chan struct{}, 8),
	}
}

func (r *recorder) OnCountDown(formatted string, hours, minutes, seconds int) {
	r.ticks <- tick{formatted, hours, minutes, seconds}
	if r.onTick != nil {
		r.onTick(formatted)
	}
	if r.panicOn == formatted {
		panic("listener failure")
	}
}

func (r *recorder) OnLiveStart() {
	r.live <- struct{}{}
}

func (r *recorder) nextTick(t *testing.T) tick {
	t.Helper()
	select {
	case got := <-r.ticks:
		return got
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for tick")
		return tick{}
	}
}

func (r *recorder) assertNoTick(t *testing.T) {
	t.Helper()
	select {
	case got := <-r.ticks:
		t.Fatalf("unexpected tick %q", got.formatted)
	case <-time.After(50 * time.Millisecond):
	}
}

func newTestTimer() (*Timer, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClock()
	return NewTimer(WithClock(fc), WithLogger(zerolog.Nop())), fc
}

func TestTimerTicksOncePerSecond(t *testing.T) {
	timer, fc := newTestTimer()
	rec := newRecorder()

	id := timer.Start(context.Background(), 1000, 1000+3661, rec)
	require.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, id, timer.RunID())
	defer timer.Stop()

	// Nothing fires before the first interval elapses.
	fc.Advance(999 * time.Millisecond)
	rec.assertNoTick(t)

	fc.Advance(time.Millisecond)
	assert.Equal(t, tick{"01:01:00", 1, 1, 0}, rec.nextTick(t))

	fc.Advance(time.Second)
	assert.Equal(t, tick{"01:00:59", 1, 0, 59}, rec.nextTick(t))

	fc.Advance(time.Second)
	assert.Equal(t, tick{"01:00:58", 1, 0, 58}, rec.nextTick(t))
}

func TestTimerNilListenerIsNoop(t *testing.T) {
	timer, _ := newTestTimer()

	id := timer.Start(context.Background(), 0, 10, nil)
	assert.Equal(t, uuid.Nil, id)
	assert.False(t, timer.Active())
}

func TestTimerStartReplacesActiveRun(t *testing.T) {
	timer, fc := newTestTimer()
	first := newRecorder()
	second := newRecorder()

	firstID := timer.Start(context.Background(), 0, 100, first)
	secondID := timer.Start(context.Background(), 0, 50, second)
	require.NotEqual(t, firstID, secondID)
	assert.Equal(t, secondID, timer.RunID())
	defer timer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:00:49", 0, 0, 49}, second.nextTick(t))
	first.assertNoTick(t)

	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:00:48", 0, 0, 48}, second.nextTick(t))
	first.assertNoTick(t)
}

func TestTimerStop(t *testing.T) {
	timer, fc := newTestTimer()
	rec := newRecorder()

	assert.NotPanics(t, timer.Stop, "stop on idle timer")

	timer.Start(context.Background(), 0, 10, rec)
	fc.Advance(time.Second)
	rec.nextTick(t)

	timer.Stop()
	assert.False(t, timer.Active())
	assert.Equal(t, uuid.Nil, timer.RunID())

	fc.Advance(5 * time.Second)
	rec.assertNoTick(t)

	assert.NotPanics(t, timer.Stop, "second stop")
}

func TestTimerCancel(t *testing.T) {
	timer, _ := newTestTimer()
	stale := timer.Start(context.Background(), 0, 10, newRecorder())
	current := timer.Start(context.Background(), 0, 10, newRecorder())

	assert.False(t, timer.Cancel(stale))
	assert.True(t, timer.Active())
	assert.True(t, timer.Cancel(current))
	assert.False(t, timer.Active())
	assert.False(t, timer.Cancel(current))
}

func TestTimerStopsWhenContextDone(t *testing.T) {
	timer, _ := newTestTimer()
	ctx, cancel := context.WithCancel(context.Background())

	timer.Start(ctx, 0, 10, newRecorder())
	require.True(t, timer.Active())

	cancel()
	require.Eventually(t, func() bool { return !timer.Active() }, waitTimeout, 5*time.Millisecond)
}

func TestTimerRecoversListenerPanic(t *testing.T) {
	timer, fc := newTestTimer()
	rec := newRecorder()
	rec.panicOn = "00:00:09"

	timer.Start(context.Background(), 0, 10, rec)
	defer timer.Stop()

	fc.Advance(time.Second)
	assert.Equal(t, "00:00:09", rec.nextTick(t).formatted)

	fc.Advance(time.Second)
	assert.Equal(t, "00:00:08", rec.nextTick(t).formatted)
	assert.True(t, timer.Active())
}

func TestTimerCustomInterval(t *testing.T) {
	fc := clockwork.NewFakeClock()
	timer := NewTimer(WithClock(fc), WithInterval(100*time.Millisecond), WithLogger(zerolog.Nop()))
	rec := newRecorder()

	timer.Start(context.Background(), 0, 5, rec)
	defer timer.Stop()

	fc.Advance(100 * time.Millisecond)
	assert.Equal(t, "00:00:04", rec.nextTick(t).formatted)
}

func TestIndependentTimers(t *testing.T) {
	fc := clockwork.NewFakeClock()
	a := NewTimer(WithClock(fc), WithLogger(zerolog.Nop()))
	b := NewTimer(WithClock(fc), WithLogger(zerolog.Nop()))
	recA, recB := newRecorder(), newRecorder()

	a.Start(context.Background(), 0, 30, recA)
	b.Start(context.Background(), 0, 90, recB)
	defer a.Stop()
	defer b.Stop()

	fc.Advance(time.Second)
	assert.Equal(t, "00:00:29", recA.nextTick(t).formatted)
	assert.Equal(t, "00:01:29", recB.nextTick(t).formatted)
}
