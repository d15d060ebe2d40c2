package session

import "time"

// Transport is the MQTT protocol engine a Session drives.
//
// Implementations run their own network goroutines and report back through
// the registered handlers:
//   - the connect handler fires once per Connect call with the result code
//   - the message handler fires for every inbound message on a subscribed topic
//   - the connection-lost handler fires when an established connection drops
//
// Handlers are registered once, before the first Connect.
type Transport interface {
	SetConnectHandler(handler func(code byte))
	SetMessageHandler(handler func(topic string, payload []byte))
	SetConnectionLostHandler(handler func(err error))

	// Connect starts an asynchronous connection attempt. A returned error means
	// the attempt could not be started and no connect result will follow.
	Connect(broker string, keepAlive time.Duration) error

	// Publish sends a QoS 0 message without waiting for delivery.
	Publish(topic string, payload []byte) error

	// Subscribe registers a topic filter and returns the broker's result code.
	Subscribe(topic string) (byte, error)

	// Disconnect stops the background network loop. Safe to call when idle.
	Disconnect()
}
