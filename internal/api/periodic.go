package api

import (
	"net/http"
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/publisher"
)

// periodicRequest is the body of POST /api/periodic. Empty fields take the
// publisher defaults.
type periodicRequest struct {
	Topic           string  `json:"topic"`
	Message         string  `json:"message"`
	IntervalSeconds float64 `json:"interval_seconds"`
}

// handleStartPeriodic (re)starts the periodic publisher.
func (s *Server) handleStartPeriodic(w http.ResponseWriter, r *http.Request) {
	if !s.requirePublisher(w) {
		return
	}

	var req periodicRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	cfg := publisher.Config{
		Topic:         req.Topic,
		MessagePrefix: req.Message,
		Interval:      time.Duration(req.IntervalSeconds * float64(time.Second)),
	}
	if err := s.publisher.Start(s.backgroundContext(), cfg); err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "started",
		"periodic": s.publisher.Status(),
	})
}

// handleStopPeriodic stops the periodic publisher. Stopping an idle
// publisher is not an error.
func (s *Server) handleStopPeriodic(w http.ResponseWriter, _ *http.Request) {
	if !s.requirePublisher(w) {
		return
	}

	s.publisher.Stop()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "stopped",
		"periodic": s.publisher.Status(),
	})
}

// handlePeriodicStatus returns the publisher status.
func (s *Server) handlePeriodicStatus(w http.ResponseWriter, _ *http.Request) {
	if !s.requirePublisher(w) {
		return
	}
	writeJSON(w, http.StatusOK, s.publisher.Status())
}

func (s *Server) requirePublisher(w http.ResponseWriter) bool {
	if s.publisher == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "Periodic publisher not available")
		return false
	}
	return true
}
