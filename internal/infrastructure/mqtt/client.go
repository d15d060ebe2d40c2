package mqtt

import (
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"

	"github.com/nerrad567/mqtt-bridge/internal/infrastructure/config"
)

// Transport drives one paho client at a time on behalf of a session.
//
// Every Connect builds a new paho client; the previous one must have been
// stopped with Disconnect. Results and events from a client that is no longer
// current are dropped.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Handlers are invoked from paho goroutines, never while a Transport lock is held.
type Transport struct {
	cfg config.MQTTConfig

	// client is the paho client of the current attempt, nil when stopped.
	client pahomqtt.Client
	mu     sync.Mutex

	onConnect  func(code byte)
	onMessage  func(topic string, payload []byte)
	onLost     func(err error)
	callbackMu sync.RWMutex

	// logger for error/panic logging (optional, set via SetLogger).
	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// New creates a Transport. No network activity happens until Connect.
func New(cfg config.MQTTConfig) *Transport {
	return &Transport{cfg: cfg}
}

// SetConnectHandler sets the callback that receives the CONNACK result of
// each attempt: 0 on success, the broker's refusal code, or
// packets.ErrNetworkError when the broker could not be reached.
func (t *Transport) SetConnectHandler(handler func(code byte)) {
	t.callbackMu.Lock()
	t.onConnect = handler
	t.callbackMu.Unlock()
}

// SetMessageHandler sets the callback for every inbound message.
func (t *Transport) SetMessageHandler(handler func(topic string, payload []byte)) {
	t.callbackMu.Lock()
	t.onMessage = handler
	t.callbackMu.Unlock()
}

// SetConnectionLostHandler sets the callback for an established connection dropping.
func (t *Transport) SetConnectionLostHandler(handler func(err error)) {
	t.callbackMu.Lock()
	t.onLost = handler
	t.callbackMu.Unlock()
}

// SetLogger sets a logger for error and panic logging.
// If not set, errors in handlers are silently ignored.
func (t *Transport) SetLogger(logger Logger) {
	t.loggerMu.Lock()
	t.logger = logger
	t.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (t *Transport) getLogger() Logger {
	t.loggerMu.RLock()
	defer t.loggerMu.RUnlock()
	return t.logger
}

// Connect starts a connection attempt to broker and returns immediately.
//
// The outcome is reported once through the connect handler from a separate
// goroutine. paho bounds the attempt with cfg.ConnectTimeout.
//
// Parameters:
//   - broker: Full broker URL, e.g. "tcp://localhost:1883"
//   - keepAlive: MQTT keepalive interval
//
// Returns:
//   - error: Always nil; connect failures are reported as result codes
func (t *Transport) Connect(broker string, keepAlive time.Duration) error {
	opts := buildClientOptions(t.cfg, broker, keepAlive)

	// Both handlers need the client they belong to, which only exists after
	// NewClient copies the options.
	var client pahomqtt.Client
	opts.SetDefaultPublishHandler(func(_ pahomqtt.Client, msg pahomqtt.Message) {
		t.dispatch(client, msg)
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if t.isCurrent(client) {
			t.handleConnectionLost(err)
		}
	})

	client = pahomqtt.NewClient(opts)

	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	token := client.Connect()
	go t.awaitConnect(client, token)

	return nil
}

// awaitConnect reports the result of client's connect attempt if client is
// still the current one. A stale client that managed to connect is closed.
func (t *Transport) awaitConnect(client pahomqtt.Client, token pahomqtt.Token) {
	token.Wait()
	code := connectResult(token)

	if !t.isCurrent(client) {
		if code == packets.Accepted {
			client.Disconnect(defaultDisconnectQuiesce)
		}
		return
	}

	if code != packets.Accepted {
		if logger := t.getLogger(); logger != nil {
			logger.Warn("MQTT connect attempt failed", "code", code, "error", token.Error())
		}
	}

	t.callbackMu.RLock()
	callback := t.onConnect
	t.callbackMu.RUnlock()
	if callback != nil {
		callback(code)
	}
}

// returnCoder is implemented by paho's ConnectToken.
type returnCoder interface {
	ReturnCode() byte
}

// connectResult maps a completed connect token to a CONNACK result code.
func connectResult(token pahomqtt.Token) byte {
	if rc, ok := token.(returnCoder); ok {
		if code := rc.ReturnCode(); code != packets.Accepted {
			return code
		}
	}
	if token.Error() != nil {
		return packets.ErrNetworkError
	}
	return packets.Accepted
}

// handleConnectionLost forwards a drop of the current client.
func (t *Transport) handleConnectionLost(err error) {
	t.callbackMu.RLock()
	callback := t.onLost
	t.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// Disconnect stops the current client, if any. It is safe to call at any
// time, including while an attempt is still in flight.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	client := t.client
	t.client = nil
	t.mu.Unlock()

	if client != nil {
		client.Disconnect(defaultDisconnectQuiesce)
	}
}

func (t *Transport) current() pahomqtt.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

func (t *Transport) isCurrent(client pahomqtt.Client) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return client != nil && t.client == client
}

// connectedClient returns the current client or ErrNotConnected.
func (t *Transport) connectedClient() (pahomqtt.Client, error) {
	client := t.current()
	if client == nil || !client.IsConnectionOpen() {
		return nil, ErrNotConnected
	}
	return client, nil
}

// dispatch forwards an inbound message from client to the message handler,
// with panic recovery. Messages from a client that has been replaced or
// stopped are dropped.
func (t *Transport) dispatch(client pahomqtt.Client, msg pahomqtt.Message) {
	if !t.isCurrent(client) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			if logger := t.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", msg.Topic(),
					"panic", r,
				)
			}
		}
	}()

	t.callbackMu.RLock()
	handler := t.onMessage
	t.callbackMu.RUnlock()
	if handler != nil {
		handler(msg.Topic(), msg.Payload())
	}
}
