package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/mqtt-bridge/internal/publisher"
	"github.com/nerrad567/mqtt-bridge/internal/session"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest      = "bad_request"
	ErrCodeNotConnected    = "not_connected"
	ErrCodeConnection      = "connection_error"
	ErrCodeTransport       = "transport_error"
	ErrCodeNotFound        = "not_found"
	ErrCodeInternal        = "internal_error"
	ErrCodeUnavailable     = "unavailable"
	ErrCodeMethodNotAllow  = "method_not_allowed"
	msgInvalidJSON         = "Invalid JSON body"
	msgInternalServerError = "internal server error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeOperationError maps a session or publisher failure onto a response.
// Every defined failure is a 400 carrying its category; anything else is a 500
// and its text is not shown to the caller.
func (s *Server) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	if code, ok := errorCode(err); ok {
		var serr *session.Error
		message := err.Error()
		if errors.As(err, &serr) {
			message = serr.Message
		}
		writeError(w, http.StatusBadRequest, code, message)
		return
	}

	s.logger.Error("unhandled API error",
		"error", err,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
	)
	writeInternalError(w, msgInternalServerError)
}

// errorCode returns the response code for a known failure kind.
func errorCode(err error) (string, bool) {
	switch {
	case errors.Is(err, session.ErrInput), errors.Is(err, publisher.ErrInvalidConfig):
		return ErrCodeBadRequest, true
	case errors.Is(err, session.ErrNotConnected):
		return ErrCodeNotConnected, true
	case errors.Is(err, session.ErrConnection):
		return ErrCodeConnection, true
	case errors.Is(err, session.ErrTransport):
		return ErrCodeTransport, true
	default:
		return "", false
	}
}
