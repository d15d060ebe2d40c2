package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementTraffic    = "mqtt_traffic"
	measurementConnection = "mqtt_connection"
)

// WriteTraffic records one logged message. Payload bodies are never exported,
// only their size.
//
// Parameters:
//   - direction: "sent" or "received"
//   - topic: The MQTT topic
//   - payloadBytes: Size of the payload in bytes
//   - at: When the message was logged
func (c *Client) WriteTraffic(direction, topic string, payloadBytes int, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(trafficPoint(direction, topic, payloadBytes, at))
}

// WriteConnection records a connect result or a dropped connection.
//
// Parameters:
//   - broker: Normalised broker URL
//   - connected: Whether the session is connected after the event
//   - reason: Empty on success, otherwise the user-facing error text
func (c *Client) WriteConnection(broker string, connected bool, reason string, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(connectionPoint(broker, connected, reason, at))
}

func trafficPoint(direction, topic string, payloadBytes int, at time.Time) *write.Point {
	return write.NewPoint(
		measurementTraffic,
		map[string]string{
			"direction": direction,
			"topic":     topic,
		},
		map[string]interface{}{
			"count":         1,
			"payload_bytes": payloadBytes,
		},
		at,
	)
}

func connectionPoint(broker string, connected bool, reason string, at time.Time) *write.Point {
	fields := map[string]interface{}{
		"connected": connected,
	}
	if reason != "" {
		fields["reason"] = reason
	}

	return write.NewPoint(
		measurementConnection,
		map[string]string{
			"broker": broker,
		},
		fields,
		at,
	)
}
