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

func newTestLive() (*LiveCountdown, *clockwork.FakeClock) {
	fc := clockwork.NewFakeClock()
	return NewLiveCountdown(WithClock(fc), WithLogger(zerolog.Nop())), fc
}

func TestLiveCountdownAlreadyStarted(t *testing.T) {
	tests := []struct {
		name                string
		current, start, end int64
	}{
		{"start equals now", 100, 100, 200},
		{"start in the past", 100, 50, 200},
		{"already ended", 100, 150, 90},
		{"end equals now", 100, 150, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc, _ := newTestLive()
			rec := newRecorder()

			id := lc.Start(context.Background(), tt.current, tt.start, tt.end, rec)

			assert.Equal(t, uuid.Nil, id)
			assert.Len(t, rec.live, 1, "OnLiveStart must be called synchronously")
			assert.Empty(t, rec.ticks)
			assert.False(t, lc.Active())
		})
	}
}

func TestLiveCountdownReachesZero(t *testing.T) {
	lc, fc := newTestLive()
	rec := newRecorder()

	id := lc.Start(context.Background(), 1000, 1003, 5000, rec)
	require.NotEqual(t, uuid.Nil, id)
	require.True(t, lc.Active())

	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:00:02", 0, 0, 2}, rec.nextTick(t))
	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:00:01", 0, 0, 1}, rec.nextTick(t))
	assert.Empty(t, rec.live)

	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:00:00", 0, 0, 0}, rec.nextTick(t))

	select {
	case <-rec.live:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for live start")
	}
	assert.False(t, lc.Active())

	fc.Advance(5 * time.Second)
	rec.assertNoTick(t)
	assert.Empty(t, rec.live, "OnLiveStart must fire exactly once")
}

func TestLiveCountdownNilListener(t *testing.T) {
	lc, _ := newTestLive()
	assert.Equal(t, uuid.Nil, lc.Start(context.Background(), 0, 10, 20, nil))
	assert.False(t, lc.Active())
}

func TestLiveCountdownStop(t *testing.T) {
	lc, fc := newTestLive()
	rec := newRecorder()

	assert.NotPanics(t, lc.Stop)

	lc.Start(context.Background(), 0, 2, 10, rec)
	lc.Stop()
	assert.False(t, lc.Active())

	fc.Advance(3 * time.Second)
	rec.assertNoTick(t)
	assert.Empty(t, rec.live)
}

type panickingLive struct{ *recorder }

func (panickingLive) OnLiveStart() { panic("boom") }

func TestLiveCountdownSetupPanicIsContained(t *testing.T) {
	lc, _ := newTestLive()

	assert.NotPanics(t, func() {
		id := lc.Start(context.Background(), 100, 50, 200, panickingLive{newRecorder()})
		assert.Equal(t, uuid.Nil, id)
	})
}

func TestLiveCountdownListenerPanicStillStartsLive(t *testing.T) {
	lc, fc := newTestLive()
	rec := newRecorder()
	rec.panicOn = "00:00:00"

	lc.Start(context.Background(), 0, 1, 10, rec)
	fc.Advance(time.Second)
	rec.nextTick(t)

	select {
	case <-rec.live:
	case <-time.After(waitTimeout):
		t.Fatal("timed out waiting for live start")
	}
}

func TestLiveCountdownReplacedOnFinalTickDoesNotStartLive(t *testing.T) {
	lc, fc := newTestLive()
	first := newRecorder()
	next := newRecorder()

	first.onTick = func(formatted string) {
		if formatted == "00:00:00" {
			lc.Start(context.Background(), 1, 100, 200, next)
		}
	}

	firstID := lc.Start(context.Background(), 0, 1, 10, first)
	fc.Advance(time.Second)
	assert.Equal(t, "00:00:00", first.nextTick(t).formatted)

	require.Eventually(t, func() bool {
		id := lc.timer.RunID()
		return id != uuid.Nil && id != firstID
	}, waitTimeout, 5*time.Millisecond)
	defer lc.Stop()

	select {
	case <-first.live:
		t.Fatal("replaced run must not report the live start")
	case <-time.After(50 * time.Millisecond):
	}

	fc.Advance(time.Second)
	assert.Equal(t, tick{"00:01:38", 0, 1, 38}, next.nextTick(t))
	first.assertNoTick(t)
	assert.Empty(t, next.live)
}
