package schedule

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrStreamNotFound  = errors.New("stream not found")
)

// Stream is a scheduled live stream. Times are Unix seconds.
type Stream struct {
	ID        string `yaml:"id" json:"id"`
	Title     string `yaml:"title" json:"title"`
	StartUnix int64  `yaml:"start_unix" json:"start_unix"`
	EndUnix   int64  `yaml:"end_unix" json:"end_unix"`
}

// Schedule is the set of streams the gateway can count down to.
type Schedule struct {
	Streams []Stream `yaml:"streams"`
}

// Load reads and validates a YAML schedule file.
func Load(path string) (*Schedule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schedule file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML schedule.
func Parse(data []byte) (*Schedule, error) {
	var s Schedule
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schedule: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that stream IDs are present and unique and that every
// stream ends after it starts.
func (s *Schedule) Validate() error {
	seen := make(map[string]bool, len(s.Streams))
	for i, st := range s.Streams {
		if st.ID == "" {
			return fmt.Errorf("%w: stream %d has no id", ErrInvalidSchedule, i)
		}
		if seen[st.ID] {
			return fmt.Errorf("%w: duplicate stream id %q", ErrInvalidSchedule, st.ID)
		}
		seen[st.ID] = true
		if st.EndUnix <= st.StartUnix {
			return fmt.Errorf("%w: stream %q ends before it starts", ErrInvalidSchedule, st.ID)
		}
	}
	return nil
}

// Find returns the stream with the given ID.
func (s *Schedule) Find(id string) (Stream, error) {
	for _, st := range s.Streams {
		if st.ID == id {
			return st, nil
		}
	}
	return Stream{}, fmt.Errorf("%w: %s", ErrStreamNotFound, id)
}
