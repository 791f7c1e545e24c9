package countdown

import (
	"context"

	"github.com/google/uuid"
)

// LiveCountdown counts down to the scheduled start of a live stream and
// reports OnLiveStart once the stream begins.
type LiveCountdown struct {
	timer *Timer
}

// NewLiveCountdown creates an idle LiveCountdown with its own Timer.
func NewLiveCountdown(opts ...Option) *LiveCountdown {
	return &LiveCountdown{timer: NewTimer(opts...)}
}

// Start counts down from currentTimestamp to startTimestamp. If the stream
// has already started or already ended, l.OnLiveStart is called before Start
// returns and no countdown is scheduled. Otherwise every tick is forwarded to
// l.OnCountDown and the tick reaching 00:00:00 stops the countdown and calls
// l.OnLiveStart exactly once.
//
// Start never panics; failures are logged. A nil listener is a no-op.
func (lc *LiveCountdown) Start(ctx context.Context, currentTimestamp, startTimestamp, endTimestamp int64, l LiveListener) (runID uuid.UUID) {
	if l == nil {
		return uuid.Nil
	}

	logger := lc.timer.logger
	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Interface("panic", p).
				Int64("current", currentTimestamp).
				Int64("start", startTimestamp).
				Int64("end", endTimestamp).
				Msg("failed to start live countdown")
			runID = uuid.Nil
		}
	}()

	if startTimestamp <= currentTimestamp || endTimestamp <= currentTimestamp {
		lc.timer.Stop()
		logger.Debug().
			Int64("current", currentTimestamp).
			Int64("start", startTimestamp).
			Int64("end", endTimestamp).
			Msg("live stream already started, skipping countdown")
		l.OnLiveStart()
		return uuid.Nil
	}

	r := lc.timer.start(ctx, currentTimestamp, startTimestamp, func(r *run, rem Remaining) {
		lc.timer.guard(r, "live countdown listener", func() {
			l.OnCountDown(rem.String(), rem.Hours, rem.Minutes, rem.Seconds)
		})
		if !rem.IsZero() {
			return
		}
		// A run replaced during its final tick no longer owns the live start.
		if !lc.timer.Cancel(r.id) {
			return
		}
		logger.Info().Str("run_id", r.id.String()).Msg("live stream started")
		lc.timer.guard(r, "live start listener", l.OnLiveStart)
	})
	return r.id
}

// Stop cancels the running live countdown, if any.
func (lc *LiveCountdown) Stop() {
	lc.timer.Stop()
}

// Active reports whether a live countdown is running.
func (lc *LiveCountdown) Active() bool {
	return lc.timer.Active()
}
