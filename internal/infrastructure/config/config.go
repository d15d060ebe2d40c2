package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "MQTTBRIDGE_"

// Config is the root configuration structure for the MQTT bridge.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API       APIConfig       `yaml:"api" envPrefix:"API_"`
	MQTT      MQTTConfig      `yaml:"mqtt" envPrefix:"MQTT_"`
	Publisher PublisherConfig `yaml:"publisher" envPrefix:"PUBLISHER_"`
	WebSocket WebSocketConfig `yaml:"websocket" envPrefix:"WEBSOCKET_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb" envPrefix:"INFLUXDB_"`
	Logging   LoggingConfig   `yaml:"logging" envPrefix:"LOGGING_"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host" env:"HOST"`
	Port     int              `yaml:"port" env:"PORT"`
	Timeouts APITimeoutConfig `yaml:"timeouts" envPrefix:"TIMEOUT_"`
	CORS     CORSConfig       `yaml:"cors" envPrefix:"CORS_"`

	// UIDir serves the web UI from disk instead of the embedded copy.
	UIDir string `yaml:"ui_dir" env:"UI_DIR"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read" env:"READ"`
	Write int `yaml:"write" env:"WRITE"`
	Idle  int `yaml:"idle" env:"IDLE"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// MQTTConfig contains the broker session settings.
type MQTTConfig struct {
	// Broker is connected to on startup when AutoConnect is set, and is the
	// address suggested to the UI.
	Broker      string `yaml:"broker" env:"BROKER"`
	AutoConnect bool   `yaml:"auto_connect" env:"AUTO_CONNECT"`

	// ClientIDPrefix is combined with a random suffix for every connect attempt.
	ClientIDPrefix string `yaml:"client_id_prefix" env:"CLIENT_ID_PREFIX"`

	KeepAlive        time.Duration `yaml:"keepalive" env:"KEEPALIVE"`
	ConnectTimeout   time.Duration `yaml:"connect_timeout" env:"CONNECT_TIMEOUT"`
	SubscribeTimeout time.Duration `yaml:"subscribe_timeout" env:"SUBSCRIBE_TIMEOUT"`

	// LogCapacity is the number of messages kept per direction.
	LogCapacity int `yaml:"log_capacity" env:"LOG_CAPACITY"`
}

// PublisherConfig contains settings for the periodic test publisher.
type PublisherConfig struct {
	Enabled       bool          `yaml:"enabled" env:"ENABLED"`
	Topic         string        `yaml:"topic" env:"TOPIC"`
	MessagePrefix string        `yaml:"message_prefix" env:"MESSAGE_PREFIX"`
	Interval      time.Duration `yaml:"interval" env:"INTERVAL"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path" env:"PATH"`
	MaxMessageSize int    `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
	PingInterval   int    `yaml:"ping_interval" env:"PING_INTERVAL"`
	PongTimeout    int    `yaml:"pong_timeout" env:"PONG_TIMEOUT"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// InfluxDBConfig contains InfluxDB connection settings for traffic telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled" env:"ENABLED"`
	URL           string `yaml:"url" env:"URL"`
	Token         string `yaml:"token" env:"TOKEN"`
	Org           string `yaml:"org" env:"ORG"`
	Bucket        string `yaml:"bucket" env:"BUCKET"`
	BatchSize     int    `yaml:"batch_size" env:"BATCH_SIZE"`
	FlushInterval int    `yaml:"flush_interval" env:"FLUSH_INTERVAL"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
	Output string `yaml:"output" env:"OUTPUT"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// A missing file is not an error: the bridge runs on defaults plus environment.
// Environment variables follow the pattern: MQTTBRIDGE_SECTION_KEY
// For example: MQTTBRIDGE_MQTT_BROKER, MQTTBRIDGE_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be parsed, an override is malformed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 5000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		MQTT: MQTTConfig{
			Broker:           "localhost",
			ClientIDPrefix:   "mqtt-bridge",
			KeepAlive:        60 * time.Second,
			ConnectTimeout:   3 * time.Second,
			SubscribeTimeout: 5 * time.Second,
			LogCapacity:      200,
		},
		Publisher: PublisherConfig{
			Topic:         "test/topic",
			MessagePrefix: "Periodic test message",
			Interval:      2 * time.Second,
		},
		WebSocket: WebSocketConfig{
			Path:           "/api/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		InfluxDB: InfluxDBConfig{
			Bucket:        "mqtt_bridge",
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies MQTTBRIDGE_* environment variables over the
// current values. Unset variables leave the field untouched.
func applyEnvOverrides(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// API validation
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// MQTT validation
	if c.MQTT.AutoConnect && strings.TrimSpace(c.MQTT.Broker) == "" {
		errs = append(errs, "mqtt.broker is required when mqtt.auto_connect is set")
	}
	if c.MQTT.ClientIDPrefix == "" {
		errs = append(errs, "mqtt.client_id_prefix is required")
	}
	if c.MQTT.KeepAlive <= 0 {
		errs = append(errs, "mqtt.keepalive must be positive")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}
	if c.MQTT.SubscribeTimeout <= 0 {
		errs = append(errs, "mqtt.subscribe_timeout must be positive")
	}
	if c.MQTT.LogCapacity < 1 {
		errs = append(errs, "mqtt.log_capacity must be at least 1")
	}

	// Publisher validation
	if c.Publisher.Enabled && c.Publisher.Topic == "" {
		errs = append(errs, "publisher.topic is required when the publisher is enabled")
	}
	if c.Publisher.Interval < 100*time.Millisecond {
		errs = append(errs, "publisher.interval must be at least 100ms")
	}

	// Metrics validation
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		errs = append(errs, "metrics.path must start with /")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	// Logging validation
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Address returns the host:port the API server listens on.
func (c *Config) Address() string {
	return c.API.Address()
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return c.API.GetReadTimeout()
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return c.API.GetWriteTimeout()
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return c.API.GetIdleTimeout()
}

// Address returns host:port. Port 0 asks the OS for a free port.
func (a APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// GetReadTimeout returns the read timeout as a Duration.
func (a APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(a.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the write timeout as a Duration.
func (a APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(a.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the idle timeout as a Duration.
func (a APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(a.Timeouts.Idle) * time.Second
}
