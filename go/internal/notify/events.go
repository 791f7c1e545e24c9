package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of live stream event
type EventType string

const (
	EventTypeTimerTick   EventType = "TimerTick"
	EventTypeLiveStarted EventType = "LiveStarted"
)

// Event is the envelope pushed to websocket clients and published on the bus.
type Event struct {
	ID        string          `json:"id"`
	StreamID  string          `json:"stream_id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// TimerTickPayload carries one countdown tick.
type TimerTickPayload struct {
	Formatted        string `json:"formatted"`
	Hours            int    `json:"hours"`
	Minutes          int    `json:"minutes"`
	Seconds          int    `json:"seconds"`
	TimeRemainingSec int64  `json:"time_remaining_sec"`
}

// LiveStartedPayload is sent once a stream's countdown reaches zero, or
// immediately when the stream had already started.
type LiveStartedPayload struct {
	Title     string `json:"title"`
	StartUnix int64  `json:"start_unix"`
	EndUnix   int64  `json:"end_unix"`
}

// NewEvent builds an Event with a fresh ID and the payload marshalled as Data.
func NewEvent(streamID string, eventType EventType, payload any, now time.Time) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &Event{
		ID:        uuid.New().String(),
		StreamID:  streamID,
		Type:      eventType,
		Timestamp: now,
		Data:      data,
	}, nil
}
