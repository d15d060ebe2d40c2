package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/session"
)

// connectRequest is the body of POST /api/connect.
type connectRequest struct {
	Broker string `json:"broker"`
	// KeepAlive is in seconds; zero uses the configured default.
	KeepAlive int `json:"keepalive,omitempty"`
}

type publishRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

type subscribeRequest struct {
	Topic string `json:"topic"`
}

// decodeJSON reads a JSON body. An empty body decodes as {} so missing
// fields are reported by the session rather than as malformed JSON.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// handleConnect discards the current session and connects to a broker.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}
	if req.KeepAlive < 0 {
		writeBadRequest(w, "keepalive must not be negative")
		return
	}

	var err error
	if req.KeepAlive > 0 {
		err = s.session.ConnectWithKeepAlive(req.Broker, time.Duration(req.KeepAlive)*time.Second)
	} else {
		err = s.session.Connect(req.Broker)
	}
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "connected",
		"broker": s.session.Status().Broker,
	})
}

// handlePublish sends one message through the session.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	if err := s.session.Publish(req.Topic, req.Message); err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "published"})
}

// handleSubscribe adds a topic filter to the session.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, msgInvalidJSON)
		return
	}

	topics, err := s.session.Subscribe(req.Topic)
	if err != nil {
		s.writeOperationError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "subscribed",
		"subscriptions": topics,
	})
}

// handleListSubscriptions returns the active topic filters.
func (s *Server) handleListSubscriptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"subscriptions": s.session.Subscriptions(),
	})
}

// handleLogs returns both message logs, newest first.
func (s *Server) handleLogs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Logs())
}

// statusResponse is the body of GET /api/status.
type statusResponse struct {
	session.Status
	LogCapacity int `json:"log_capacity"`
}

// handleStatus returns the session state.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      s.session.Status(),
		LogCapacity: s.session.LogCapacity(),
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"mqtt_connected": s.session.IsConnected(),
	})
}
