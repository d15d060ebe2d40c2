package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
api:
  host: "127.0.0.1"
  port: 8081
mqtt:
  broker: "broker.local:1884"
  auto_connect: true
  keepalive: 30s
  connect_timeout: 2s
publisher:
  enabled: true
  topic: "demo/topic"
  interval: 500ms
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Address() != "127.0.0.1:8081" {
		t.Errorf("Address() = %q, want %q", cfg.Address(), "127.0.0.1:8081")
	}
	if cfg.MQTT.Broker != "broker.local:1884" || !cfg.MQTT.AutoConnect {
		t.Errorf("MQTT = %+v", cfg.MQTT)
	}
	if cfg.MQTT.KeepAlive != 30*time.Second {
		t.Errorf("MQTT.KeepAlive = %v, want 30s", cfg.MQTT.KeepAlive)
	}
	if cfg.MQTT.ConnectTimeout != 2*time.Second {
		t.Errorf("MQTT.ConnectTimeout = %v, want 2s", cfg.MQTT.ConnectTimeout)
	}
	if cfg.Publisher.Interval != 500*time.Millisecond || cfg.Publisher.Topic != "demo/topic" {
		t.Errorf("Publisher = %+v", cfg.Publisher)
	}

	// Values absent from the file keep their defaults.
	if cfg.MQTT.LogCapacity != 200 {
		t.Errorf("MQTT.LogCapacity = %d, want default 200", cfg.MQTT.LogCapacity)
	}
	if cfg.Publisher.MessagePrefix != "Periodic test message" {
		t.Errorf("Publisher.MessagePrefix = %q, want default", cfg.Publisher.MessagePrefix)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v, want defaults", err)
	}
	if cfg.API.Port != 5000 {
		t.Errorf("API.Port = %d, want 5000", cfg.API.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
api:
  port: 0
mqtt:
  log_capacity: 0
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error, got nil")
	}
	for _, want := range []string{"api.port", "mqtt.log_capacity"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Load() error = %v, want it to mention %s", err, want)
		}
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	content := `
mqtt:
  broker: "from-file"
`
	t.Setenv("MQTTBRIDGE_MQTT_BROKER", "from-env")
	t.Setenv("MQTTBRIDGE_API_PORT", "9090")

	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MQTT.Broker != "from-env" {
		t.Errorf("MQTT.Broker = %q, want %q", cfg.MQTT.Broker, "from-env")
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
}

func TestLoad_MalformedEnv(t *testing.T) {
	t.Setenv("MQTTBRIDGE_MQTT_KEEPALIVE", "forever")

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() expected error for malformed duration override")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{
			name:    "auto connect without broker",
			mutate:  func(c *Config) { c.MQTT.AutoConnect = true; c.MQTT.Broker = " " },
			wantErr: true,
		},
		{name: "empty client ID prefix", mutate: func(c *Config) { c.MQTT.ClientIDPrefix = "" }, wantErr: true},
		{name: "zero keepalive", mutate: func(c *Config) { c.MQTT.KeepAlive = 0 }, wantErr: true},
		{name: "zero connect timeout", mutate: func(c *Config) { c.MQTT.ConnectTimeout = 0 }, wantErr: true},
		{name: "zero subscribe timeout", mutate: func(c *Config) { c.MQTT.SubscribeTimeout = 0 }, wantErr: true},
		{name: "zero log capacity", mutate: func(c *Config) { c.MQTT.LogCapacity = 0 }, wantErr: true},
		{
			name:    "publisher without topic",
			mutate:  func(c *Config) { c.Publisher.Enabled = true; c.Publisher.Topic = "" },
			wantErr: true,
		},
		{name: "publisher interval too short", mutate: func(c *Config) { c.Publisher.Interval = time.Millisecond }, wantErr: true},
		{name: "relative metrics path", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, wantErr: true},
		{name: "metrics disabled ignores path", mutate: func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Path = "" }},
		{name: "influxdb without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: true},
		{
			name: "influxdb complete",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Org = "home"
			},
		},
		{name: "unknown log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}

	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}

	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("MQTTBRIDGE_API_HOST", "192.168.1.1")
	t.Setenv("MQTTBRIDGE_API_CORS_ALLOWED_ORIGINS", "http://a.local,http://b.local")
	t.Setenv("MQTTBRIDGE_MQTT_CLIENT_ID_PREFIX", "bench")
	t.Setenv("MQTTBRIDGE_MQTT_KEEPALIVE", "15s")
	t.Setenv("MQTTBRIDGE_PUBLISHER_ENABLED", "true")
	t.Setenv("MQTTBRIDGE_METRICS_PATH", "/prom")
	t.Setenv("MQTTBRIDGE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("MQTTBRIDGE_LOGGING_LEVEL", "debug")

	if err := applyEnvOverrides(cfg); err != nil {
		t.Fatalf("applyEnvOverrides() error = %v", err)
	}

	if cfg.API.Host != "192.168.1.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "192.168.1.1")
	}
	if len(cfg.API.CORS.AllowedOrigins) != 2 || cfg.API.CORS.AllowedOrigins[1] != "http://b.local" {
		t.Errorf("API.CORS.AllowedOrigins = %v", cfg.API.CORS.AllowedOrigins)
	}
	if cfg.MQTT.ClientIDPrefix != "bench" {
		t.Errorf("MQTT.ClientIDPrefix = %q, want %q", cfg.MQTT.ClientIDPrefix, "bench")
	}
	if cfg.MQTT.KeepAlive != 15*time.Second {
		t.Errorf("MQTT.KeepAlive = %v, want 15s", cfg.MQTT.KeepAlive)
	}
	if !cfg.Publisher.Enabled {
		t.Error("Publisher.Enabled = false, want true")
	}
	if cfg.Metrics.Path != "/prom" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/prom")
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}

	// Unset variables keep their defaults.
	if cfg.MQTT.Broker != "localhost" {
		t.Errorf("MQTT.Broker = %q, want default", cfg.MQTT.Broker)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
	if cfg.MQTT.ConnectTimeout != 3*time.Second {
		t.Errorf("MQTT.ConnectTimeout = %v, want 3s", cfg.MQTT.ConnectTimeout)
	}
	if cfg.Publisher.Topic != "test/topic" || cfg.Publisher.Interval != 2*time.Second {
		t.Errorf("Publisher = %+v, want test/topic every 2s", cfg.Publisher)
	}
	if cfg.Publisher.Enabled {
		t.Error("Publisher.Enabled should default to false")
	}
}
