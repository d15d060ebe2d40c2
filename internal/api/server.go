package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/metrics"
	"github.com/nerrad567/mqtt-bridge/internal/publisher"
	"github.com/nerrad567/mqtt-bridge/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Telemetry receives traffic and connection events for export.
// *influxdb.Client satisfies it.
type Telemetry interface {
	WriteTraffic(direction, topic string, payloadBytes int, at time.Time)
	WriteConnection(broker string, connected bool, reason string, at time.Time)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	WS      config.WebSocketConfig
	Metrics config.MetricsConfig
	Logger  *logging.Logger
	Session *session.Session

	// Publisher is optional; without it /api/periodic answers 503.
	Publisher *publisher.Runner

	// Recorder defaults to metrics.Noop(). MetricsHandler is mounted at
	// Metrics.Path when set.
	Recorder       metrics.Recorder
	MetricsHandler http.Handler

	// Telemetry is optional.
	Telemetry Telemetry

	Version string
}

// Server is the HTTP API server for the MQTT bridge.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub, and
// observes the session so traffic reaches WebSocket clients, metrics and
// telemetry. The server is created with New() and started with Start().
type Server struct {
	cfg            config.APIConfig
	wsCfg          config.WebSocketConfig
	metricsCfg     config.MetricsConfig
	logger         *logging.Logger
	session        *session.Session
	publisher      *publisher.Runner
	recorder       metrics.Recorder
	metricsHandler http.Handler
	telemetry      Telemetry
	version        string
	startTime      time.Time
	hub            *Hub

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	baseCtx  context.Context    // parent of long-running work started by handlers
	cancel   context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies and registers it
// as an observer of the session.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, session)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Session == nil {
		return nil, fmt.Errorf("session is required")
	}

	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Noop()
	}

	s := &Server{
		cfg:            deps.Config,
		wsCfg:          deps.WS,
		metricsCfg:     deps.Metrics,
		logger:         deps.Logger,
		session:        deps.Session,
		publisher:      deps.Publisher,
		recorder:       recorder,
		metricsHandler: deps.MetricsHandler,
		telemetry:      deps.Telemetry,
		version:        deps.Version,
		startTime:      time.Now(),
		baseCtx:        context.Background(),
	}
	s.hub = NewHub(deps.WS, deps.Logger, recorder)

	deps.Session.AddObserver(s)
	return s, nil
}

// Start binds the listener and serves HTTP in a background goroutine.
//
// It starts the WebSocket hub and launches the HTTP listener. The server can
// be stopped with Close().
//
// Parameters:
//   - ctx: Parent of the hub and of publishers started over the API
//
// Returns:
//   - error: If the listener cannot be bound (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Address(), err)
	}

	// Internal context so Close() can stop background goroutines
	// independently of the parent context.
	srvCtx, cancel := context.WithCancel(ctx)

	srv := &http.Server{
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	s.mu.Lock()
	s.server = srv
	s.listener = ln
	s.baseCtx = srvCtx
	s.cancel = cancel
	s.mu.Unlock()

	go s.hub.Run(srvCtx)

	s.logger.Info("API server listening", "address", ln.Addr().String())
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	s.mu.Lock()
	srv, cancel := s.server, s.cancel
	s.server, s.cancel = nil, nil
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	// Cancel background goroutines (hub, API-started publishers)
	if cancel != nil {
		cancel()
	}

	ctx, done := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer done()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}

// backgroundContext returns the context publishers started over HTTP run under.
func (s *Server) backgroundContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseCtx
}
