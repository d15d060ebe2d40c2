// Package mqtt implements the broker Transport used by the session shim on
// top of paho.mqtt.golang.
//
// This package manages:
//   - One paho client per connect attempt, with a unique client ID
//   - Mapping connect tokens to MQTT 3.1.1 CONNACK result codes
//   - QoS 0 publishing and SUBACK inspection for subscriptions
//   - Topic name and filter validation
//
// # Architecture
//
// The session owns connection state and retry policy; this package only
// moves packets. Automatic reconnect is disabled so a dropped connection
// stays down until the user connects again.
//
//	HTTP API → session.Session → mqtt.Transport → paho → broker
//
// # Result codes
//
//   - 0x00-0x05: CONNACK return codes from the broker
//   - 0x80: subscription rejected in SUBACK
//   - 0xFE: network error (broker unreachable, connect timeout)
//
// # Usage
//
//	transport := mqtt.New(cfg.MQTT)
//	transport.SetLogger(logger.With("component", "mqtt"))
//	sess := session.New(transport)
//	err := sess.Connect("localhost")
package mqtt
