package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mcdev12/livecountdown/go/internal/progress"
	"github.com/mcdev12/livecountdown/go/internal/schedule"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// StreamView is the REST representation of a scheduled stream
type StreamView struct {
	schedule.Stream
	Status           StreamStatus `json:"status"`
	TimeRemainingSec int64        `json:"time_remaining_sec"`
	StartDate        string       `json:"start_date"`
}

// HandleCountdownConnection upgrades a client watching one stream's countdown
func (s *Service) HandleCountdownConnection(w http.ResponseWriter, r *http.Request) {
	streamID := r.URL.Query().Get("stream_id")
	if streamID == "" {
		http.Error(w, "stream_id is required", http.StatusBadRequest)
		return
	}

	stream, err := s.schedule.Find(streamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	conn, err := s.connectionManager.UpgradeConnection(w, r, userID, streamID)
	if err != nil {
		// The upgrader has already replied to the client
		log.Error().
			Err(err).
			Str("stream_id", streamID).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	s.Watch(stream, conn)
}

// HandleListStreams returns every scheduled stream with its current status
func (s *Service) HandleListStreams(w http.ResponseWriter, r *http.Request) {
	views := make([]StreamView, 0, len(s.schedule.Streams))
	for _, stream := range s.schedule.Streams {
		views = append(views, s.view(stream))
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGetStream returns one stream with its current status
func (s *Service) HandleGetStream(w http.ResponseWriter, r *http.Request) {
	stream, err := s.schedule.Find(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, schedule.ErrStreamNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s.view(stream))
}

// HandleWatchProgress formats a watch-progress label for the UI
func (s *Service) HandleWatchProgress(w http.ResponseWriter, r *http.Request) {
	lastPlayed, err := strconv.Atoi(r.URL.Query().Get("last_played"))
	if err != nil {
		http.Error(w, "invalid last_played", http.StatusBadRequest)
		return
	}
	duration, err := strconv.Atoi(r.URL.Query().Get("duration"))
	if err != nil {
		http.Error(w, "invalid duration", http.StatusBadRequest)
		return
	}

	label, err := progress.WatchProgress(lastPlayed, duration)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"progress": label})
}

// HandleStats returns connection statistics
func (s *Service) HandleStats(w http.ResponseWriter, r *http.Request) {
	connections, streams := s.connectionManager.Stats()
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": connections,
		"watched_streams":   streams,
	})
}

// RegisterRoutes registers WebSocket and REST routes with an HTTP mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/countdown", s.HandleCountdownConnection)
	mux.HandleFunc("GET /ws/stats", s.HandleStats)
	mux.HandleFunc("GET /api/streams", s.HandleListStreams)
	mux.HandleFunc("GET /api/streams/{id}", s.HandleGetStream)
	mux.HandleFunc("GET /api/progress", s.HandleWatchProgress)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// Handler returns all routes wrapped with CORS
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}

func (s *Service) view(stream schedule.Stream) StreamView {
	status, remaining := s.Status(stream)
	return StreamView{
		Stream:           stream,
		Status:           status,
		TimeRemainingSec: remaining,
		StartDate:        progress.FormatTimestampToDate(stream.StartUnix * 1000),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
