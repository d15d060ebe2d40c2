package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/mqtt-bridge/internal/webui"
)

// defaultWSPath is used when the websocket path is not configured.
const defaultWSPath = "/api/ws"

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "Not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllow, "Method not allowed")
		})

		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/metrics", s.handleSystemMetrics)

		// Session shim
		r.Post("/connect", s.handleConnect)
		r.Post("/publish", s.handlePublish)
		r.Post("/subscribe", s.handleSubscribe)
		r.Get("/subscriptions", s.handleListSubscriptions)
		r.Get("/logs", s.handleLogs)

		// Periodic publisher
		r.Route("/periodic", func(r chi.Router) {
			r.Get("/", s.handlePeriodicStatus)
			r.Post("/", s.handleStartPeriodic)
			r.Delete("/", s.handleStopPeriodic)
		})
	})

	wsPath := s.wsCfg.Path
	if wsPath == "" {
		wsPath = defaultWSPath
	}
	r.Get(wsPath, s.handleWebSocket)

	if s.metricsHandler != nil && s.metricsCfg.Path != "" {
		r.Handle(s.metricsCfg.Path, s.metricsHandler)
	}

	// Web UI (embedded unless a directory is configured)
	r.Handle("/*", webui.Handler(s.cfg.UIDir))

	return r
}
