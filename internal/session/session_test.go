package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/mqtt-bridge/internal/session/sessiontest"
)

// newTestSession returns a session over a fake Transport with a short timeout.
func newTestSession(t *testing.T, opts ...Option) (*Session, *sessiontest.Transport) {
	t.Helper()
	fake := sessiontest.New()
	opts = append([]Option{WithConnectTimeout(200 * time.Millisecond)}, opts...)
	return New(fake, opts...), fake
}

// connectedSession returns a session that has completed a successful connect.
func connectedSession(t *testing.T, opts ...Option) (*Session, *sessiontest.Transport) {
	t.Helper()
	s, fake := newTestSession(t, opts...)
	if err := s.Connect("localhost"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return s, fake
}

// =============================================================================
// Connect Tests
// =============================================================================

func TestConnect_MissingHost(t *testing.T) {
	inputs := []string{"", "   ", "tcp://", "tcp://:1883", "mqtt://"}

	for _, in := range inputs {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			s, fake := newTestSession(t)

			err := s.Connect(in)
			if !errors.Is(err, ErrInput) {
				t.Fatalf("Connect(%q) error = %v, want ErrInput", in, err)
			}
			if err.Error() != msgBrokerRequired {
				t.Errorf("Connect(%q) message = %q, want %q", in, err.Error(), msgBrokerRequired)
			}
			if fake.ConnectCalls() != 0 || fake.DisconnectCalls() != 0 {
				t.Errorf("Transport touched: connect=%d disconnect=%d, want 0/0",
					fake.ConnectCalls(), fake.DisconnectCalls())
			}
		})
	}
}

func TestNormalizeBroker(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "localhost", want: "tcp://localhost:1883"},
		{input: "  broker.local  ", want: "tcp://broker.local:1883"},
		{input: "localhost:1884", want: "tcp://localhost:1884"},
		{input: "tcp://10.0.0.5", want: "tcp://10.0.0.5:1883"},
		{input: "mqtt://10.0.0.5:2883", want: "tcp://10.0.0.5:2883"},
		{input: "[::1]:1883", want: "tcp://[::1]:1883"},
		{input: "ws://broker:9001/mqtt", want: "ws://broker:9001/mqtt"},
		{input: "ssl://broker:8883", wantErr: true},
		{input: "tcp://", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeBroker(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInput) {
					t.Errorf("NormalizeBroker(%q) error = %v, want ErrInput", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeBroker(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeBroker(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestConnect_Success(t *testing.T) {
	s, fake := newTestSession(t, WithKeepAlive(30*time.Second))

	if err := s.Connect("localhost"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if !s.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if s.LastError() != "" {
		t.Errorf("LastError() = %q, want empty", s.LastError())
	}
	if got := s.Subscriptions(); len(got) != 0 {
		t.Errorf("Subscriptions() = %v, want empty", got)
	}
	if fake.LastBroker() != "tcp://localhost:1883" {
		t.Errorf("Transport broker = %q, want %q", fake.LastBroker(), "tcp://localhost:1883")
	}
	if fake.LastKeepAlive() != 30*time.Second {
		t.Errorf("Transport keepalive = %v, want 30s", fake.LastKeepAlive())
	}
	if st := s.Status(); st.Broker != "tcp://localhost:1883" || !st.Connected {
		t.Errorf("Status() = %+v", st)
	}
}

func TestConnect_ResetsPreviousSession(t *testing.T) {
	s, fake := connectedSession(t)

	if _, err := s.Subscribe("a/b"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := s.Publish("a/b", "hello"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	fake.Deliver("a/b", []byte("hello"))

	if err := s.Connect("other-broker"); err != nil {
		t.Fatalf("second Connect() error = %v", err)
	}

	if !s.IsConnected() {
		t.Error("IsConnected() = false after reconnect, want true")
	}
	if got := s.Subscriptions(); len(got) != 0 {
		t.Errorf("Subscriptions() = %v after reconnect, want empty", got)
	}
	logs := s.Logs()
	if len(logs.Sent) != 0 || len(logs.Received) != 0 {
		t.Errorf("Logs() = %d sent / %d received after reconnect, want 0/0", len(logs.Sent), len(logs.Received))
	}
	if fake.DisconnectCalls() < 2 {
		t.Errorf("DisconnectCalls() = %d, want the previous session stopped", fake.DisconnectCalls())
	}
}

func TestConnect_Refused(t *testing.T) {
	s, fake := newTestSession(t)
	fake.SetConnectResult(CodeRefusedCredentials)

	err := s.Connect("localhost")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}

	var se *Error
	if !errors.As(err, &se) || se.Code != CodeRefusedCredentials {
		t.Errorf("Connect() error = %#v, want Code %d", err, CodeRefusedCredentials)
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true after refusal, want false")
	}
	if s.LastError() == "" {
		t.Error("LastError() is empty after refusal")
	}
	if err.Error() != s.LastError() {
		t.Errorf("error message %q differs from LastError %q", err.Error(), s.LastError())
	}
	// One Disconnect resets the previous session, one tears down the refused attempt.
	if fake.DisconnectCalls() != 2 {
		t.Errorf("DisconnectCalls() = %d, want 2", fake.DisconnectCalls())
	}

	if err := s.Publish("a/b", "x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after refusal error = %v, want ErrNotConnected", err)
	}
}

func TestConnect_Timeout(t *testing.T) {
	s, fake := newTestSession(t, WithConnectTimeout(50*time.Millisecond))
	fake.SetSilent(true)

	start := time.Now()
	err := s.Connect("localhost")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}
	if err.Error() != msgUnableToConnect {
		t.Errorf("Connect() message = %q, want %q", err.Error(), msgUnableToConnect)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("Connect() returned after %v, before the timeout", elapsed)
	}
	if s.LastError() != msgUnableToConnect {
		t.Errorf("LastError() = %q, want %q", s.LastError(), msgUnableToConnect)
	}
	if fake.DisconnectCalls() != 2 {
		t.Errorf("DisconnectCalls() = %d, want 2", fake.DisconnectCalls())
	}

	// A result arriving after the timeout belongs to an abandoned attempt.
	fake.FireConnect(CodeAccepted)
	if s.IsConnected() {
		t.Error("IsConnected() = true after late callback, want false")
	}
}

func TestConnect_SlowButWithinTimeout(t *testing.T) {
	s, fake := newTestSession(t, WithConnectTimeout(time.Second))
	fake.SetConnectDelay(30 * time.Millisecond)

	if err := s.Connect("localhost"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !s.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
}

func TestConnect_TransportStartFailure(t *testing.T) {
	s, fake := newTestSession(t)
	fake.SetConnectError(errors.New("invalid client options"))

	err := s.Connect("localhost")
	if !errors.Is(err, ErrConnection) {
		t.Fatalf("Connect() error = %v, want ErrConnection", err)
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true, want false")
	}
	if s.LastError() == "" {
		t.Error("LastError() is empty")
	}
}

func TestConnect_DuplicateResultIgnored(t *testing.T) {
	s, fake := connectedSession(t)

	fake.FireConnect(CodeRefusedUnavailable)

	if !s.IsConnected() {
		t.Error("IsConnected() = false after duplicate callback, want true")
	}
	if s.LastError() != "" {
		t.Errorf("LastError() = %q after duplicate callback, want empty", s.LastError())
	}
}

func TestConnectionLost(t *testing.T) {
	s, fake := connectedSession(t)
	if _, err := s.Subscribe("a/#"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fake.Lose(errors.New("EOF"))

	if s.IsConnected() {
		t.Error("IsConnected() = true after connection loss")
	}
	if s.LastError() != "Connection lost: EOF" {
		t.Errorf("LastError() = %q, want %q", s.LastError(), "Connection lost: EOF")
	}
	if got := s.Subscriptions(); len(got) != 1 {
		t.Errorf("Subscriptions() = %v, want subscriptions kept", got)
	}
	if err := s.Publish("a/b", "x"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestClose(t *testing.T) {
	s, fake := connectedSession(t)
	before := fake.DisconnectCalls()

	s.Close()

	if s.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if fake.DisconnectCalls() != before+1 {
		t.Errorf("DisconnectCalls() = %d, want %d", fake.DisconnectCalls(), before+1)
	}
}

// =============================================================================
// Publish Tests
// =============================================================================

func TestPublish_NotConnected(t *testing.T) {
	s, fake := newTestSession(t)

	err := s.Publish("a/b", "hello")
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("Publish() error = %v, want ErrNotConnected", err)
	}
	if err.Error() != msgNotConnected {
		t.Errorf("Publish() message = %q, want %q", err.Error(), msgNotConnected)
	}
	if len(fake.Published()) != 0 {
		t.Error("Transport.Publish was called while disconnected")
	}
	if len(s.Logs().Sent) != 0 {
		t.Error("sent log modified by failed publish")
	}
}

func TestPublish_RecordsEntry(t *testing.T) {
	s, fake := connectedSession(t)

	before := time.Now().UTC().Truncate(time.Nanosecond)
	for i := range 3 {
		if err := s.Publish("a/b", fmt.Sprintf("m%d", i)); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}

	sent := s.Logs().Sent
	if len(sent) != 3 {
		t.Fatalf("len(Sent) = %d, want 3", len(sent))
	}
	if sent[0].Payload != "m2" || sent[0].Topic != "a/b" {
		t.Errorf("Sent[0] = %+v, want newest publish first", sent[0])
	}

	ts, err := time.Parse(time.RFC3339Nano, sent[0].Timestamp)
	if err != nil {
		t.Fatalf("timestamp %q is not RFC 3339: %v", sent[0].Timestamp, err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v is before the call at %v", ts, before)
	}

	published := fake.Published()
	if len(published) != 3 || string(published[2].Payload) != "m2" {
		t.Errorf("Transport received %+v", published)
	}
}

func TestPublish_EmptyTopic(t *testing.T) {
	s, fake := connectedSession(t)

	if err := s.Publish("", "x"); !errors.Is(err, ErrInput) {
		t.Errorf("Publish(\"\") error = %v, want ErrInput", err)
	}
	if len(fake.Published()) != 0 {
		t.Error("Transport.Publish was called for an empty topic")
	}
}

func TestPublish_TransportFailure(t *testing.T) {
	s, fake := connectedSession(t)
	fake.SetPublishError(errors.New("queue full"))

	err := s.Publish("a/b", "x")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("Publish() error = %v, want ErrTransport", err)
	}
	if len(s.Logs().Sent) != 0 {
		t.Error("failed publish was recorded in the sent log")
	}
}

// =============================================================================
// Subscribe Tests
// =============================================================================

func TestSubscribe_EmptyTopic(t *testing.T) {
	s, fake := connectedSession(t)

	_, err := s.Subscribe("")
	if !errors.Is(err, ErrInput) {
		t.Fatalf("Subscribe(\"\") error = %v, want ErrInput", err)
	}
	if err.Error() != msgTopicRequired {
		t.Errorf("Subscribe(\"\") message = %q, want %q", err.Error(), msgTopicRequired)
	}
	if len(fake.Subscribed()) != 0 {
		t.Error("Transport.Subscribe was called for an empty topic")
	}
}

func TestSubscribe_NotConnected(t *testing.T) {
	s, _ := newTestSession(t)

	if _, err := s.Subscribe("a/b"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Idempotent(t *testing.T) {
	s, _ := connectedSession(t)

	for range 2 {
		if _, err := s.Subscribe("a/b"); err != nil {
			t.Fatalf("Subscribe() error = %v", err)
		}
	}
	topics, err := s.Subscribe("a/a")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []string{"a/a", "a/b"}
	if len(topics) != len(want) {
		t.Fatalf("Subscribe() = %v, want %v", topics, want)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Errorf("Subscribe()[%d] = %q, want %q", i, topics[i], want[i])
		}
	}
}

func TestSubscribe_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		code     byte
		err      error
		wantCode byte
	}{
		{name: "suback failure", code: CodeSubscribeFailure, wantCode: CodeSubscribeFailure},
		{name: "transport error", err: errors.New("timeout"), wantCode: CodeAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fake := connectedSession(t)
			if _, err := s.Subscribe("keep/me"); err != nil {
				t.Fatalf("Subscribe() error = %v", err)
			}
			fake.SetSubscribeResult(tt.code, tt.err)

			_, err := s.Subscribe("a/b")
			if !errors.Is(err, ErrTransport) {
				t.Fatalf("Subscribe() error = %v, want ErrTransport", err)
			}
			var se *Error
			if !errors.As(err, &se) || se.Code != tt.wantCode {
				t.Errorf("Subscribe() error code = %v, want %d", err, tt.wantCode)
			}

			got := s.Subscriptions()
			if len(got) != 1 || got[0] != "keep/me" {
				t.Errorf("Subscriptions() = %v, want unchanged [keep/me]", got)
			}
		})
	}
}

func TestSubscribe_ReconnectDuringCall(t *testing.T) {
	s, fake := connectedSession(t)

	// Another caller reconnects while the broker is answering the subscribe.
	fake.SetSubscribeHook(func(string) {
		fake.SetSubscribeHook(nil)
		if err := s.Connect("other-host"); err != nil {
			t.Errorf("Connect() error = %v", err)
		}
	})

	_, err := s.Subscribe("old/topic")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("Subscribe() error = %v, want ErrNotConnected", err)
	}
	if got := s.Subscriptions(); len(got) != 0 {
		t.Errorf("Subscriptions() = %v after reconnect, want empty", got)
	}
	if !s.IsConnected() {
		t.Error("IsConnected() = false, want the new session connected")
	}

	topics, err := s.Subscribe("new/topic")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if len(topics) != 1 || topics[0] != "new/topic" {
		t.Errorf("Subscribe() = %v, want [new/topic]", topics)
	}
}

func TestSubscriptions_WhileDisconnected(t *testing.T) {
	s, _ := newTestSession(t)

	if got := s.Subscriptions(); got == nil || len(got) != 0 {
		t.Errorf("Subscriptions() = %#v, want empty non-nil slice", got)
	}
}

// =============================================================================
// Log Tests
// =============================================================================

func TestLogCounts(t *testing.T) {
	s, fake := connectedSession(t, WithLogCapacity(2))

	for _, msg := range []string{"1", "2", "3"} {
		if err := s.Publish("a/b", msg); err != nil {
			t.Fatalf("Publish() error = %v", err)
		}
	}
	fake.Deliver("a/b", []byte("in"))

	sent, received := s.LogCounts()
	if sent != 2 || received != 1 {
		t.Errorf("LogCounts() = (%d, %d), want (2, 1)", sent, received)
	}

	if err := s.Connect("localhost"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	sent, received = s.LogCounts()
	if sent != 0 || received != 0 {
		t.Errorf("LogCounts() after reconnect = (%d, %d), want (0, 0)", sent, received)
	}
}

// =============================================================================
// Inbound Message Tests
// =============================================================================

func TestInbound_RecordsReceived(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s, fake := connectedSession(t, WithClock(func() time.Time { return fixed }))

	fake.Deliver("sensors/1", []byte(`{"t":21.5}`))
	fake.Deliver("sensors/2", []byte("second"))

	received := s.Logs().Received
	if len(received) != 2 {
		t.Fatalf("len(Received) = %d, want 2", len(received))
	}
	want := LogEntry{Topic: "sensors/2", Payload: "second", Timestamp: "2026-10-16T12:00:00Z"}
	if received[0] != want {
		t.Errorf("Received[0] = %+v, want %+v", received[0], want)
	}
}

func TestInbound_InvalidUTF8(t *testing.T) {
	s, fake := connectedSession(t)

	fake.Deliver("bin", []byte{'o', 'k', 0xff, 0xfe, '!'})

	received := s.Logs().Received
	if len(received) != 1 {
		t.Fatalf("len(Received) = %d, want 1", len(received))
	}
	if received[0].Payload != "ok\uFFFD!" {
		t.Errorf("Payload = %q, want %q", received[0].Payload, "ok\uFFFD!")
	}
}

// =============================================================================
// Observer Tests
// =============================================================================

type recordingObserver struct {
	mu       sync.Mutex
	logged   []Direction
	finished []error
	lost     int
}

func (o *recordingObserver) MessageLogged(dir Direction, _ LogEntry) {
	o.mu.Lock()
	o.logged = append(o.logged, dir)
	o.mu.Unlock()
}

func (o *recordingObserver) ConnectFinished(_ Status, err error) {
	o.mu.Lock()
	o.finished = append(o.finished, err)
	o.mu.Unlock()
}

func (o *recordingObserver) ConnectionLost(_ Status) {
	o.mu.Lock()
	o.lost++
	o.mu.Unlock()
}

func TestObserver_ReceivesEvents(t *testing.T) {
	s, fake := newTestSession(t)
	obs := &recordingObserver{}
	s.AddObserver(obs)

	fake.SetConnectResult(CodeRefusedNotAuthorised)
	_ = s.Connect("localhost")
	fake.SetConnectResult(CodeAccepted)
	if err := s.Connect("localhost"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := s.Publish("a", "1"); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	fake.Deliver("a", []byte("1"))
	fake.Lose(nil)

	obs.mu.Lock()
	defer obs.mu.Unlock()

	if len(obs.finished) != 2 || obs.finished[0] == nil || obs.finished[1] != nil {
		t.Errorf("ConnectFinished errors = %v, want [error, nil]", obs.finished)
	}
	if len(obs.logged) != 2 || obs.logged[0] != DirectionSent || obs.logged[1] != DirectionReceived {
		t.Errorf("MessageLogged directions = %v, want [sent received]", obs.logged)
	}
	if obs.lost != 1 {
		t.Errorf("ConnectionLost calls = %d, want 1", obs.lost)
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

// TestConcurrentTraffic interleaves publishes and inbound callbacks from many
// goroutines and checks that nothing is lost, duplicated or reordered per writer.
func TestConcurrentTraffic(t *testing.T) {
	const (
		writers   = 4
		perWriter = 25 // writers*perWriter stays within capacity
	)

	s, fake := connectedSession(t)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			for i := range perWriter {
				if err := s.Publish("out", fmt.Sprintf("%d-%d", w, i)); err != nil {
					t.Errorf("Publish() error = %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			for i := range perWriter {
				fake.Deliver("in", []byte(fmt.Sprintf("%d-%d", w, i)))
			}
		}()
	}
	close(start)
	wg.Wait()

	logs := s.Logs()
	for name, entries := range map[string][]LogEntry{"sent": logs.Sent, "received": logs.Received} {
		if len(entries) != writers*perWriter {
			t.Fatalf("len(%s) = %d, want %d", name, len(entries), writers*perWriter)
		}

		seen := make(map[string]bool, len(entries))
		lastIndex := make(map[int]int)
		// Walk oldest to newest: each writer's sequence numbers must increase.
		for i := len(entries) - 1; i >= 0; i-- {
			p := entries[i].Payload
			if seen[p] {
				t.Fatalf("%s: duplicate entry %q", name, p)
			}
			seen[p] = true

			var w, n int
			if _, err := fmt.Sscanf(p, "%d-%d", &w, &n); err != nil {
				t.Fatalf("%s: malformed payload %q", name, p)
			}
			if prev, ok := lastIndex[w]; ok && n != prev+1 {
				t.Fatalf("%s: writer %d went from %d to %d", name, w, prev, n)
			}
			lastIndex[w] = n
		}
	}
}

func TestConcurrentTraffic_Overflow(t *testing.T) {
	const (
		writers   = 8
		perWriter = 60
	)

	s, fake := connectedSession(t)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for w := range writers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			for i := range perWriter {
				_ = s.Publish("out", fmt.Sprintf("%d-%d", w, i))
			}
		}()
		go func() {
			defer wg.Done()
			<-start
			for i := range perWriter {
				fake.Deliver("in", []byte(fmt.Sprintf("%d-%d", w, i)))
			}
		}()
	}
	close(start)
	wg.Wait()

	logs := s.Logs()
	if len(logs.Sent) != DefaultLogCapacity || len(logs.Received) != DefaultLogCapacity {
		t.Fatalf("lengths = %d/%d, want %d each", len(logs.Sent), len(logs.Received), DefaultLogCapacity)
	}
	for _, entries := range [][]LogEntry{logs.Sent, logs.Received} {
		seen := make(map[string]bool)
		for _, e := range entries {
			if seen[e.Payload] {
				t.Fatalf("duplicate entry %q", e.Payload)
			}
			seen[e.Payload] = true
		}
	}
}

// TestLogs_ConcurrentReaders reads snapshots while writers are active and
// checks that no snapshot contains a partially written entry.
func TestLogs_ConcurrentReaders(t *testing.T) {
	s, fake := connectedSession(t)

	done := make(chan struct{})
	var writers sync.WaitGroup
	for w := range 4 {
		writers.Add(1)
		go func() {
			defer writers.Done()
			for i := range 500 {
				if w%2 == 0 {
					_ = s.Publish("out", fmt.Sprintf("p%d", i))
				} else {
					fake.Deliver("in", []byte(fmt.Sprintf("r%d", i)))
				}
			}
		}()
	}

	var readers sync.WaitGroup
	for range 2 {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				logs := s.Logs()
				for _, e := range append(logs.Sent, logs.Received...) {
					if e.Topic == "" || e.Payload == "" || e.Timestamp == "" {
						t.Errorf("partial entry in snapshot: %+v", e)
						return
					}
				}
				if len(logs.Sent) > DefaultLogCapacity || len(logs.Received) > DefaultLogCapacity {
					t.Errorf("snapshot exceeds capacity: %d/%d", len(logs.Sent), len(logs.Received))
					return
				}
			}
		}()
	}

	writers.Wait()
	close(done)
	readers.Wait()
}
