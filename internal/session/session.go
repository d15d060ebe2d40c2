package session

import (
	"net"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"
)

// Session defaults.
const (
	// DefaultConnectTimeout bounds how long Connect waits for the broker's answer.
	DefaultConnectTimeout = 3 * time.Second

	// DefaultKeepAlive is the MQTT keepalive interval requested on connect.
	DefaultKeepAlive = 60 * time.Second

	// defaultPort is used when a tcp broker address has no port.
	defaultPort = "1883"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Observer receives session events. Methods are called synchronously, outside
// the session locks, from whichever goroutine produced the event; they must
// not block and must not call back into Connect.
type Observer interface {
	MessageLogged(dir Direction, entry LogEntry)
	ConnectFinished(status Status, err error)
	ConnectionLost(status Status)
}

// Status is a snapshot of the session state.
type Status struct {
	Connected     bool     `json:"connected"`
	Broker        string   `json:"broker,omitempty"`
	LastError     string   `json:"last_error,omitempty"`
	Subscriptions []string `json:"subscriptions"`
}

// Session is the single logical connection to one broker.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Connect calls are serialised; other operations never wait on a connect.
type Session struct {
	transport      Transport
	logs           *LogBuffer
	connectTimeout time.Duration
	keepAlive      time.Duration
	now            func() time.Time
	logger         Logger

	// connectMu allows one connect attempt in flight at a time.
	connectMu sync.Mutex

	// mu guards the session state below. It is written by the Transport's
	// callbacks and read by foreground calls.
	mu            sync.Mutex
	connected     bool
	broker        string
	lastError     string
	subscriptions map[string]struct{}
	pending       chan byte // result channel of the attempt in flight, nil otherwise
	generation    uint64    // incremented by every connect; subscriptions belong to one generation

	observerMu sync.RWMutex
	observers  []Observer
}

// Option configures a Session.
type Option func(*Session)

// WithConnectTimeout overrides DefaultConnectTimeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.connectTimeout = d
		}
	}
}

// WithKeepAlive overrides DefaultKeepAlive.
func WithKeepAlive(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.keepAlive = d
		}
	}
}

// WithLogCapacity sets the per-direction log capacity.
func WithLogCapacity(n int) Option {
	return func(s *Session) {
		s.logs = NewLogBuffer(n)
	}
}

// WithLogger sets a logger for lifecycle events.
func WithLogger(l Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithClock replaces time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a disconnected Session and registers its handlers on the Transport.
func New(t Transport, opts ...Option) *Session {
	s := &Session{
		transport:      t,
		logs:           NewLogBuffer(DefaultLogCapacity),
		connectTimeout: DefaultConnectTimeout,
		keepAlive:      DefaultKeepAlive,
		now:            time.Now,
		subscriptions:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	t.SetConnectHandler(s.handleConnectResult)
	t.SetMessageHandler(s.handleMessage)
	t.SetConnectionLostHandler(s.handleConnectionLost)

	return s
}

// AddObserver registers an Observer for session events.
func (s *Session) AddObserver(o Observer) {
	s.observerMu.Lock()
	s.observers = append(s.observers, o)
	s.observerMu.Unlock()
}

// Connect opens a new session to broker using the configured keepalive.
// See ConnectWithKeepAlive.
func (s *Session) Connect(broker string) error {
	return s.ConnectWithKeepAlive(broker, s.keepAlive)
}

// ConnectWithKeepAlive discards the current session and connects to broker.
//
// The address may omit the scheme (tcp:// is assumed) and the port (1883).
// The call blocks until the Transport reports the result or the connect
// timeout expires. On refusal or timeout the Transport is stopped.
//
// Returns:
//   - error: *Error of kind ErrInput, or ErrConnection
func (s *Session) ConnectWithKeepAlive(broker string, keepAlive time.Duration) error {
	addr, err := NormalizeBroker(broker)
	if err != nil {
		return err
	}

	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	// Stop whatever the previous session left running before resetting.
	s.transport.Disconnect()

	result := make(chan byte, 1)
	s.mu.Lock()
	s.connected = false
	s.lastError = ""
	s.broker = addr
	clear(s.subscriptions)
	s.pending = result
	s.generation++
	s.mu.Unlock()
	s.logs.Clear()

	if err := s.transport.Connect(addr, keepAlive); err != nil {
		s.mu.Lock()
		s.pending = nil
		s.lastError = err.Error()
		s.mu.Unlock()
		s.transport.Disconnect()
		return s.finishConnect(connectionError(err.Error(), CodeNetworkError, err))
	}

	code, ok := s.await(result)
	if !ok {
		s.transport.Disconnect()
		return s.finishConnect(connectionError(msgUnableToConnect, CodeNetworkError, nil))
	}
	if code != CodeAccepted {
		s.transport.Disconnect()
		return s.finishConnect(connectionError(Describe(code), code, nil))
	}

	if s.logger != nil {
		s.logger.Info("connected to broker", "broker", addr)
	}
	return s.finishConnect(nil)
}

// await waits for the connect result of the current attempt. It reports false
// when the timeout fired before the Transport answered.
func (s *Session) await(result chan byte) (byte, bool) {
	timer := time.NewTimer(s.connectTimeout)
	defer timer.Stop()

	select {
	case code := <-result:
		return code, true
	case <-timer.C:
	}

	s.mu.Lock()
	if s.pending == result {
		// Nobody answered: retire the attempt so a late callback is ignored.
		s.pending = nil
		s.connected = false
		s.lastError = msgUnableToConnect
		s.mu.Unlock()
		return 0, false
	}
	s.mu.Unlock()

	// The callback claimed the attempt while the timer fired; its code is buffered.
	return <-result, true
}

func (s *Session) finishConnect(err *Error) error {
	if err != nil && s.logger != nil {
		s.logger.Warn("broker connection failed", "broker", s.Status().Broker, "error", err.Message)
	}

	var cause error
	if err != nil {
		cause = err
	}

	status := s.Status()
	for _, o := range s.snapshotObservers() {
		o.ConnectFinished(status, cause)
	}
	return cause
}

// handleConnectResult is the Transport's connect callback. Only the first
// result for the attempt in flight is used.
func (s *Session) handleConnectResult(code byte) {
	s.mu.Lock()
	result := s.pending
	if result == nil {
		s.mu.Unlock()
		return
	}
	s.pending = nil
	if code == CodeAccepted {
		s.connected = true
		s.lastError = ""
	} else {
		s.connected = false
		s.lastError = Describe(code)
	}
	s.mu.Unlock()

	result <- code
}

// handleConnectionLost marks an established session as dropped.
func (s *Session) handleConnectionLost(err error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	s.lastError = "Connection lost"
	if err != nil {
		s.lastError += ": " + err.Error()
	}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Warn("broker connection lost", "error", err)
	}

	status := s.Status()
	for _, o := range s.snapshotObservers() {
		o.ConnectionLost(status)
	}
}

// handleMessage records an inbound message. Invalid UTF-8 is replaced, never rejected.
func (s *Session) handleMessage(topic string, payload []byte) {
	text := strings.ToValidUTF8(string(payload), "\uFFFD")
	entry := s.logs.Add(DirectionReceived, topic, text, s.now())
	s.notifyLogged(DirectionReceived, entry)
}

// Publish sends message to topic and records it in the sent log.
//
// Returns:
//   - error: *Error of kind ErrNotConnected, ErrInput or ErrTransport
func (s *Session) Publish(topic, message string) error {
	if !s.IsConnected() {
		return notConnectedError("publish")
	}
	if topic == "" {
		return inputError("publish", msgTopicRequired)
	}

	if err := s.transport.Publish(topic, []byte(message)); err != nil {
		return transportError("publish", CodeAccepted, err)
	}

	entry := s.logs.Add(DirectionSent, topic, message, s.now())
	s.notifyLogged(DirectionSent, entry)
	return nil
}

// Subscribe adds a topic filter to the session and returns the active set.
// Re-subscribing to a tracked topic is not an error.
//
// Returns:
//   - []string: active subscriptions, sorted
//   - error: *Error of kind ErrInput, ErrNotConnected or ErrTransport
func (s *Session) Subscribe(topic string) ([]string, error) {
	if topic == "" {
		return nil, inputError("subscribe", msgTopicRequired)
	}
	s.mu.Lock()
	connected, generation := s.connected, s.generation
	s.mu.Unlock()
	if !connected {
		return nil, notConnectedError("subscribe")
	}

	code, err := s.transport.Subscribe(topic)
	if err != nil || code != CodeAccepted {
		return nil, transportError("subscribe", code, err)
	}

	s.mu.Lock()
	if s.generation != generation {
		// A connect replaced the session while the broker was answering.
		s.mu.Unlock()
		return nil, notConnectedError("subscribe")
	}
	s.subscriptions[topic] = struct{}{}
	topics := s.subscriptionList()
	s.mu.Unlock()

	return topics, nil
}

// Subscriptions returns the active topic filters, sorted.
func (s *Session) Subscriptions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscriptionList()
}

// subscriptionList must be called with s.mu held.
func (s *Session) subscriptionList() []string {
	topics := make([]string, 0, len(s.subscriptions))
	for topic := range s.subscriptions {
		topics = append(topics, topic)
	}
	slices.Sort(topics)
	return topics
}

// Logs returns a copy of both message logs, newest first.
func (s *Session) Logs() Logs {
	return s.logs.Snapshot()
}

// LogCounts returns the number of entries held in each log.
func (s *Session) LogCounts() (sent, received int) {
	return s.logs.Len()
}

// LogCapacity returns the per-direction log capacity.
func (s *Session) LogCapacity() int {
	return s.logs.Capacity()
}

// IsConnected reports whether the last connect succeeded and has not dropped.
func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// LastError returns the reason for the last failed connect or drop.
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Connected:     s.connected,
		Broker:        s.broker,
		LastError:     s.lastError,
		Subscriptions: s.subscriptionList(),
	}
}

// Close stops the Transport. The session can be reconnected afterwards.
func (s *Session) Close() {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.transport.Disconnect()

	s.mu.Lock()
	s.connected = false
	s.pending = nil
	s.mu.Unlock()
}

func (s *Session) notifyLogged(dir Direction, entry LogEntry) {
	for _, o := range s.snapshotObservers() {
		o.MessageLogged(dir, entry)
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.observerMu.RLock()
	defer s.observerMu.RUnlock()
	return slices.Clone(s.observers)
}

// NormalizeBroker turns a user-supplied broker address into a Transport URL.
//
// "localhost" becomes "tcp://localhost:1883"; "mqtt://" is treated as tcp and
// ws:// addresses are passed through with their path.
func NormalizeBroker(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", inputError("connect", msgBrokerRequired)
	}
	if !strings.Contains(raw, "://") {
		raw = "tcp://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", &Error{Kind: ErrInput, Op: "connect", Message: "Invalid broker address", Err: err}
	}

	host := u.Hostname()
	if host == "" {
		return "", inputError("connect", msgBrokerRequired)
	}

	switch strings.ToLower(u.Scheme) {
	case "tcp", "mqtt":
		port := u.Port()
		if port == "" {
			port = defaultPort
		}
		return "tcp://" + net.JoinHostPort(host, port), nil
	case "ws":
		u.Scheme = "ws"
		return u.String(), nil
	default:
		return "", inputError("connect", "Unsupported broker scheme "+u.Scheme)
	}
}
