package mqtt

import (
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// protocolVersion pins MQTT 3.1.1 so paho never falls back to 3.1.
	protocolVersion = 4

	// clientIDSuffixLen keeps "<prefix>-<suffix>" under the 23 byte limit
	// MQTT 3.1.1 brokers are required to accept.
	clientIDSuffixLen = 8
)

// newClientID returns a fresh client ID for one connect attempt.
func newClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:clientIDSuffixLen]
	if prefix == "" {
		return suffix
	}
	return prefix + "-" + suffix
}

// buildClientOptions creates paho options for a single connect attempt.
//
// This configures:
//   - Broker URL exactly as normalised by the session (tcp:// or ws://)
//   - A unique client ID per attempt
//   - Clean session, no persistent state on the broker
//   - No automatic reconnect or connect retry; the session owns reconnects
//   - Connect timeout and keepalive
func buildClientOptions(cfg config.MQTTConfig, broker string, keepAlive time.Duration) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(broker)
	opts.SetClientID(newClientID(cfg.ClientIDPrefix))
	opts.SetProtocolVersion(protocolVersion)

	// Clean session - start fresh on connect (no persistent session on broker)
	opts.SetCleanSession(true)

	// A refused or dropped session stays down until the user connects again.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetKeepAlive(keepAlive)

	// Inbound messages are handed over one at a time in arrival order.
	opts.SetOrderMatters(true)

	return opts
}
