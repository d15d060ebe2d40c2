package session

import (
	"sync"
	"time"
)

// DefaultLogCapacity is the number of entries kept per direction.
const DefaultLogCapacity = 200

// Direction identifies which log sequence an entry belongs to.
type Direction string

// Log directions.
const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// LogEntry is one recorded message. Timestamp is ISO-8601 UTC.
type LogEntry struct {
	Topic     string `json:"topic"`
	Payload   string `json:"payload"`
	Timestamp string `json:"timestamp"`
}

func newLogEntry(topic, payload string, at time.Time) LogEntry {
	return LogEntry{
		Topic:     topic,
		Payload:   payload,
		Timestamp: at.UTC().Format(time.RFC3339Nano),
	}
}

// Logs is a point-in-time copy of both log sequences, newest first.
type Logs struct {
	Sent     []LogEntry `json:"sent"`
	Received []LogEntry `json:"received"`
}

// ring is a fixed-capacity FIFO that overwrites its oldest entry when full.
type ring struct {
	entries []LogEntry
	next    int
	size    int
}

func newRing(capacity int) ring {
	return ring{entries: make([]LogEntry, capacity)}
}

func (r *ring) push(e LogEntry) {
	r.entries[r.next] = e
	r.next = (r.next + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

// newestFirst copies the live entries, most recent first.
func (r *ring) newestFirst() []LogEntry {
	out := make([]LogEntry, r.size)
	n := len(r.entries)
	for i := range r.size {
		out[i] = r.entries[(r.next-1-i+n)%n]
	}
	return out
}

func (r *ring) reset() {
	clear(r.entries)
	r.next = 0
	r.size = 0
}

// LogBuffer records sent and received messages in two bounded sequences.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Snapshot copies both sequences under a single lock acquisition.
type LogBuffer struct {
	mu       sync.Mutex
	sent     ring
	received ring
}

// NewLogBuffer creates a buffer holding up to capacity entries per direction.
// A non-positive capacity selects DefaultLogCapacity.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogBuffer{
		sent:     newRing(capacity),
		received: newRing(capacity),
	}
}

// Add records an entry in the given direction and returns it.
func (b *LogBuffer) Add(dir Direction, topic, payload string, at time.Time) LogEntry {
	entry := newLogEntry(topic, payload, at)

	b.mu.Lock()
	defer b.mu.Unlock()
	if dir == DirectionReceived {
		b.received.push(entry)
	} else {
		b.sent.push(entry)
	}
	return entry
}

// Snapshot returns copies of both sequences, newest first.
func (b *LogBuffer) Snapshot() Logs {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Logs{
		Sent:     b.sent.newestFirst(),
		Received: b.received.newestFirst(),
	}
}

// Len returns the number of entries in each sequence.
func (b *LogBuffer) Len() (sent, received int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent.size, b.received.size
}

// Capacity returns the per-direction capacity.
func (b *LogBuffer) Capacity() int {
	return len(b.sent.entries)
}

// Clear drops every entry in both sequences.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent.reset()
	b.received.reset()
}
