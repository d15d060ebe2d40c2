// MQTT Bridge - browser front end for an MQTT broker session
//
// This is the main entry point for the bridge. It serves a web UI and a small
// JSON API that connect to a broker, publish, subscribe and show recent
// traffic. Live traffic is streamed over a WebSocket.
//
// Configuration is read from configs/config.yaml (or MQTTBRIDGE_CONFIG), with
// MQTTBRIDGE_* environment variables and an optional .env file on top.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nerrad567/mqtt-bridge/internal/api"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/config"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/metrics"
	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/mqtt-bridge/internal/publisher"
	"github.com/nerrad567/mqtt-bridge/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// Default configuration file path
	defaultConfigPath = "configs/config.yaml"

	// configPathEnv overrides defaultConfigPath.
	configPathEnv = config.EnvPrefix + "CONFIG"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting MQTT bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", "error", err)
	}

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Broker session
	transport := mqtt.New(cfg.MQTT)
	transport.SetLogger(log.With("component", "mqtt"))

	sess := session.New(transport,
		session.WithConnectTimeout(cfg.MQTT.ConnectTimeout),
		session.WithKeepAlive(cfg.MQTT.KeepAlive),
		session.WithLogCapacity(cfg.MQTT.LogCapacity),
		session.WithLogger(log.With("component", "session")),
	)
	defer func() {
		log.Info("closing broker session")
		sess.Close()
	}()

	// Prometheus exposition (optional)
	var (
		recorder       metrics.Recorder
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		prom := metrics.NewPrometheus(version)
		recorder = prom
		metricsHandler = prom.Handler()
		log.Info("prometheus metrics enabled", "path", cfg.Metrics.Path)
	}

	// InfluxDB telemetry (optional)
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	}

	// Periodic publisher
	periodic := publisher.New(sess)
	periodic.SetLogger(log.With("component", "publisher"))
	if recorder != nil {
		periodic.SetRecorder(recorder)
	}
	defer func() {
		log.Info("stopping periodic publisher")
		periodic.Stop()
	}()

	// HTTP API, WebSocket and UI
	deps := api.Deps{
		Config:         cfg.API,
		WS:             cfg.WebSocket,
		Metrics:        cfg.Metrics,
		Logger:         log,
		Session:        sess,
		Publisher:      periodic,
		Recorder:       recorder,
		MetricsHandler: metricsHandler,
		Version:        version,
	}
	if influxClient != nil {
		deps.Telemetry = influxClient
	}

	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, server, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	startSession(ctx, cfg, sess, periodic, log)

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. Periodic publisher
	// 3. InfluxDB (if enabled)
	// 4. Broker session

	log.Info("MQTT bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MQTTBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the listener and optional telemetry are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - server: Started API server
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, server *api.Server, influxClient *influxdb.Client) error {
	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// The broker is not checked: the session starts disconnected and a
	// refused auto-connect is reported through the API, not treated as fatal.
	return nil
}

// startSession performs the optional auto-connect and starts the configured
// periodic publisher. Failures are logged; the UI can retry either one.
func startSession(ctx context.Context, cfg *config.Config, sess *session.Session, periodic *publisher.Runner, log *logging.Logger) {
	if cfg.MQTT.AutoConnect && cfg.MQTT.Broker != "" {
		if err := sess.Connect(cfg.MQTT.Broker); err != nil {
			log.Warn("auto-connect failed", "broker", cfg.MQTT.Broker, "error", err)
		}
	}

	if !cfg.Publisher.Enabled {
		return
	}
	err := periodic.Start(ctx, publisher.Config{
		Topic:         cfg.Publisher.Topic,
		MessagePrefix: cfg.Publisher.MessagePrefix,
		Interval:      cfg.Publisher.Interval,
	})
	if err != nil {
		log.Warn("periodic publisher not started", "error", err)
		return
	}
	log.Info("periodic publisher started",
		"topic", cfg.Publisher.Topic,
		"interval", cfg.Publisher.Interval,
	)
}
