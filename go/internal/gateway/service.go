package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/livecountdown/go/internal/countdown"
	"github.com/mcdev12/livecountdown/go/internal/notify"
	"github.com/mcdev12/livecountdown/go/internal/schedule"
	"github.com/rs/zerolog/log"
)

const publishTimeout = 5 * time.Second

// StreamStatus describes where a stream is relative to now.
type StreamStatus string

const (
	StatusScheduled StreamStatus = "scheduled"
	StatusLive      StreamStatus = "live"
	StatusEnded     StreamStatus = "ended"
)

// Config holds configuration for the countdown gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	Clock            clockwork.Clock
}

// DefaultConfig returns default configuration for the countdown gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Clock:            clockwork.NewRealClock(),
	}
}

// Service runs one live countdown per watched stream and pushes every tick to
// the WebSocket clients watching that stream.
type Service struct {
	connectionManager *ConnectionManager
	schedule          *schedule.Schedule
	publisher         notify.Publisher
	clock             clockwork.Clock

	mu         sync.Mutex
	ctx        context.Context
	countdowns map[string]*countdown.LiveCountdown
	published  map[string]bool
}

// NewService creates a new countdown gateway service
func NewService(config Config, sched *schedule.Schedule, publisher notify.Publisher) *Service {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if publisher == nil {
		publisher = notify.NewLogPublisher()
	}

	return &Service{
		connectionManager: NewConnectionManager(config.ConnectionConfig, config.Clock),
		schedule:          sched,
		publisher:         publisher,
		clock:             config.Clock,
		ctx:               context.Background(),
		countdowns:        make(map[string]*countdown.LiveCountdown),
		published:         make(map[string]bool),
	}
}

// Start runs the connection manager until ctx is done and then stops every
// countdown.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Int("streams", len(s.schedule.Streams)).Msg("starting countdown gateway service")

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	go s.connectionManager.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("countdown gateway service shutting down")
	s.Stop()
	return nil
}

// Stop cancels every running countdown.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, lc := range s.countdowns {
		lc.Stop()
		delete(s.countdowns, id)
	}
}

// Watch makes sure a countdown is running for stream. When the stream has
// already started, joiner alone gets the LiveStarted event; a nil joiner
// broadcasts it to every connection on the stream.
func (s *Service) Watch(stream schedule.Stream, joiner *Connection) {
	s.mu.Lock()
	lc, exists := s.countdowns[stream.ID]
	if exists && lc.Active() {
		s.mu.Unlock()
		return
	}
	if !exists {
		lc = countdown.NewLiveCountdown(
			countdown.WithClock(s.clock),
			countdown.WithLogger(log.With().Str("stream_id", stream.ID).Logger()),
		)
		s.countdowns[stream.ID] = lc
	}
	ctx := s.ctx
	s.mu.Unlock()

	now := s.clock.Now().Unix()
	listener := &streamListener{service: s, stream: stream}
	if stream.StartUnix <= now || stream.EndUnix <= now {
		// LiveCountdown reports the start synchronously on this path.
		listener.joiner = joiner
	}

	runID := lc.Start(ctx, now, stream.StartUnix, stream.EndUnix, listener)
	log.Debug().
		Str("stream_id", stream.ID).
		Str("run_id", runID.String()).
		Msg("watching stream")
}

// Status reports whether stream is scheduled, live or ended and how many
// seconds remain until it starts.
func (s *Service) Status(stream schedule.Stream) (StreamStatus, int64) {
	now := s.clock.Now().Unix()
	switch {
	case stream.EndUnix <= now:
		return StatusEnded, 0
	case stream.StartUnix <= now:
		return StatusLive, 0
	default:
		return StatusScheduled, stream.StartUnix - now
	}
}

func (s *Service) publishOnce(stream schedule.Stream, event *notify.Event) {
	s.mu.Lock()
	if s.published[stream.ID] {
		s.mu.Unlock()
		return
	}
	s.published[stream.ID] = true
	ctx := s.ctx
	s.mu.Unlock()

	// Callbacks must return quickly, so the bus publish happens off the tick.
	go func() {
		ctx, cancel := context.WithTimeout(ctx, publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, event); err != nil {
			log.Error().Err(err).Str("stream_id", stream.ID).Msg("failed to publish LiveStarted event")
		}
	}()
}

// streamListener turns countdown callbacks into stream events.
type streamListener struct {
	service *Service
	stream  schedule.Stream
	joiner  *Connection
}

func (l *streamListener) OnCountDown(formatted string, hours, minutes, seconds int) {
	remaining := countdown.Remaining{Hours: hours, Minutes: minutes, Seconds: seconds}
	event, err := notify.NewEvent(l.stream.ID, notify.EventTypeTimerTick, notify.TimerTickPayload{
		Formatted:        formatted,
		Hours:            hours,
		Minutes:          minutes,
		Seconds:          seconds,
		TimeRemainingSec: remaining.TotalSeconds(),
	}, l.service.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("stream_id", l.stream.ID).Msg("failed to build tick event")
		return
	}
	l.service.connectionManager.BroadcastToStream(l.stream.ID, event)
}

func (l *streamListener) OnLiveStart() {
	event, err := notify.NewEvent(l.stream.ID, notify.EventTypeLiveStarted, notify.LiveStartedPayload{
		Title:     l.stream.Title,
		StartUnix: l.stream.StartUnix,
		EndUnix:   l.stream.EndUnix,
	}, l.service.clock.Now())
	if err != nil {
		log.Error().Err(err).Str("stream_id", l.stream.ID).Msg("failed to build live event")
		return
	}
	if l.joiner != nil {
		l.service.connectionManager.SendToConnection(l.joiner, event)
	} else {
		l.service.connectionManager.BroadcastToStream(l.stream.ID, event)
	}
	l.service.publishOnce(l.stream, event)
}
