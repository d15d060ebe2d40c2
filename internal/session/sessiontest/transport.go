// Package sessiontest provides an in-memory Transport for exercising
// session.Session without a broker.
package sessiontest

import (
	"sync"
	"time"
)

// Message is a publish recorded by the fake Transport.
type Message struct {
	Topic   string
	Payload []byte
}

// Transport is a scriptable fake. By default Connect succeeds: the connect
// handler is invoked with code 0 on a separate goroutine, as a real MQTT
// engine would.
type Transport struct {
	mu sync.Mutex

	connectCode   byte
	connectErr    error
	silent        bool
	connectDelay  time.Duration
	publishErr    error
	subscribeCode byte
	subscribeErr  error
	subscribeHook func(topic string)

	onConnect func(code byte)
	onMessage func(topic string, payload []byte)
	onLost    func(err error)

	connectCalls    int
	disconnectCalls int
	lastBroker      string
	lastKeepAlive   time.Duration
	published       []Message
	subscribed      []string
}

// New returns a fake Transport that accepts every connection.
func New() *Transport {
	return &Transport{}
}

// SetConnectResult sets the code reported for subsequent Connect calls.
func (t *Transport) SetConnectResult(code byte) {
	t.mu.Lock()
	t.connectCode = code
	t.mu.Unlock()
}

// SetConnectError makes Connect fail synchronously.
func (t *Transport) SetConnectError(err error) {
	t.mu.Lock()
	t.connectErr = err
	t.mu.Unlock()
}

// SetSilent stops the fake from ever reporting a connect result.
func (t *Transport) SetSilent(silent bool) {
	t.mu.Lock()
	t.silent = silent
	t.mu.Unlock()
}

// SetConnectDelay delays the connect result.
func (t *Transport) SetConnectDelay(d time.Duration) {
	t.mu.Lock()
	t.connectDelay = d
	t.mu.Unlock()
}

// SetPublishError makes Publish fail.
func (t *Transport) SetPublishError(err error) {
	t.mu.Lock()
	t.publishErr = err
	t.mu.Unlock()
}

// SetSubscribeResult sets the code and error returned by Subscribe.
func (t *Transport) SetSubscribeResult(code byte, err error) {
	t.mu.Lock()
	t.subscribeCode = code
	t.subscribeErr = err
	t.mu.Unlock()
}

// SetSubscribeHook runs hook inside every Subscribe call, before the result
// is returned and without the fake's lock held.
func (t *Transport) SetSubscribeHook(hook func(topic string)) {
	t.mu.Lock()
	t.subscribeHook = hook
	t.mu.Unlock()
}

// SetConnectHandler implements session.Transport.
func (t *Transport) SetConnectHandler(handler func(code byte)) {
	t.mu.Lock()
	t.onConnect = handler
	t.mu.Unlock()
}

// SetMessageHandler implements session.Transport.
func (t *Transport) SetMessageHandler(handler func(topic string, payload []byte)) {
	t.mu.Lock()
	t.onMessage = handler
	t.mu.Unlock()
}

// SetConnectionLostHandler implements session.Transport.
func (t *Transport) SetConnectionLostHandler(handler func(err error)) {
	t.mu.Lock()
	t.onLost = handler
	t.mu.Unlock()
}

// Connect implements session.Transport.
func (t *Transport) Connect(broker string, keepAlive time.Duration) error {
	t.mu.Lock()
	t.connectCalls++
	t.lastBroker = broker
	t.lastKeepAlive = keepAlive
	err := t.connectErr
	silent := t.silent
	code := t.connectCode
	delay := t.connectDelay
	handler := t.onConnect
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if silent || handler == nil {
		return nil
	}

	go func() {
		if delay > 0 {
			time.Sleep(delay)
		}
		handler(code)
	}()
	return nil
}

// Publish implements session.Transport.
func (t *Transport) Publish(topic string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.publishErr != nil {
		return t.publishErr
	}
	t.published = append(t.published, Message{Topic: topic, Payload: append([]byte(nil), payload...)})
	return nil
}

// Subscribe implements session.Transport.
func (t *Transport) Subscribe(topic string) (byte, error) {
	t.mu.Lock()
	hook := t.subscribeHook
	t.mu.Unlock()
	if hook != nil {
		hook(topic)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.subscribeErr == nil && t.subscribeCode == 0 {
		t.subscribed = append(t.subscribed, topic)
	}
	return t.subscribeCode, t.subscribeErr
}

// Disconnect implements session.Transport.
func (t *Transport) Disconnect() {
	t.mu.Lock()
	t.disconnectCalls++
	t.mu.Unlock()
}

// Deliver simulates an inbound message on the calling goroutine.
func (t *Transport) Deliver(topic string, payload []byte) {
	t.mu.Lock()
	handler := t.onMessage
	t.mu.Unlock()
	if handler != nil {
		handler(topic, payload)
	}
}

// Lose simulates the broker dropping an established connection.
func (t *Transport) Lose(err error) {
	t.mu.Lock()
	handler := t.onLost
	t.mu.Unlock()
	if handler != nil {
		handler(err)
	}
}

// FireConnect invokes the connect handler directly, e.g. to simulate a late
// or duplicate result.
func (t *Transport) FireConnect(code byte) {
	t.mu.Lock()
	handler := t.onConnect
	t.mu.Unlock()
	if handler != nil {
		handler(code)
	}
}

// ConnectCalls returns how many times Connect was called.
func (t *Transport) ConnectCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connectCalls
}

// DisconnectCalls returns how many times Disconnect was called.
func (t *Transport) DisconnectCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.disconnectCalls
}

// LastBroker returns the address passed to the last Connect.
func (t *Transport) LastBroker() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastBroker
}

// LastKeepAlive returns the keepalive passed to the last Connect.
func (t *Transport) LastKeepAlive() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastKeepAlive
}

// Published returns a copy of every successful publish.
func (t *Transport) Published() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.published))
	copy(out, t.published)
	return out
}

// Subscribed returns every topic accepted by Subscribe, in call order.
func (t *Transport) Subscribed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.subscribed))
	copy(out, t.subscribed)
	return out
}
