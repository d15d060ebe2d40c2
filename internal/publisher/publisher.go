// Package publisher runs the periodic test publisher: a numbered message
// sent to one topic at a fixed interval through the shared session.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Defaults match the bridge's demo sender.
const (
	DefaultTopic         = "test/topic"
	DefaultMessagePrefix = "Periodic test message"
	DefaultInterval      = 2 * time.Second

	// MinInterval bounds how fast the publisher may run.
	MinInterval = 100 * time.Millisecond
)

// ErrInvalidConfig is returned by Start for an unusable Config.
var ErrInvalidConfig = errors.New("publisher: invalid config")

// Publisher sends one message. *session.Session satisfies it.
type Publisher interface {
	Publish(topic, message string) error
}

// Logger interface for optional logging support.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Recorder receives the outcome of every attempt.
type Recorder interface {
	PeriodicPublish(success bool)
}

// Config selects what the runner publishes and how often.
type Config struct {
	Topic         string
	MessagePrefix string
	Interval      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.MessagePrefix == "" {
		c.MessagePrefix = DefaultMessagePrefix
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	return c
}

// Status is a snapshot of the runner.
type Status struct {
	Running         bool    `json:"running"`
	Topic           string  `json:"topic,omitempty"`
	MessagePrefix   string  `json:"message_prefix,omitempty"`
	IntervalSeconds float64 `json:"interval_seconds,omitempty"`
	Sent            int     `json:"sent"`
	Failed          int     `json:"failed"`
	LastError       string  `json:"last_error,omitempty"`
}

// Runner publishes "<prefix> <n>" every interval, starting immediately.
// n starts at 0 and advances only after a successful publish, so a run of
// failures while disconnected does not leave gaps in the sequence.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Runner struct {
	pub      Publisher
	logger   Logger
	recorder Recorder

	// runMu serialises Start and Stop so a loop is never orphaned.
	runMu sync.Mutex

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a stopped Runner.
func New(pub Publisher) *Runner {
	return &Runner{pub: pub}
}

// SetLogger sets a logger for publish failures.
func (r *Runner) SetLogger(logger Logger) {
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// SetRecorder sets a metrics recorder.
func (r *Runner) SetRecorder(rec Recorder) {
	r.mu.Lock()
	r.recorder = rec
	r.mu.Unlock()
}

// Start begins publishing with cfg. A running publisher is stopped first and
// its counters reset. The loop ends when ctx is cancelled or Stop is called.
//
// Returns:
//   - error: ErrInvalidConfig for a malformed topic or too short an interval
func (r *Runner) Start(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()
	if strings.ContainsAny(cfg.Topic, "+#") {
		return fmt.Errorf("%w: topic %q contains wildcards", ErrInvalidConfig, cfg.Topic)
	}
	if cfg.Interval < MinInterval {
		return fmt.Errorf("%w: interval %v is below %v", ErrInvalidConfig, cfg.Interval, MinInterval)
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.stop()

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	r.cancel = cancel
	r.done = done
	r.status = Status{
		Running:         true,
		Topic:           cfg.Topic,
		MessagePrefix:   cfg.MessagePrefix,
		IntervalSeconds: cfg.Interval.Seconds(),
	}
	logger := r.logger
	r.mu.Unlock()

	if logger != nil {
		logger.Info("periodic publisher started", "topic", cfg.Topic, "interval", cfg.Interval)
	}

	go r.loop(loopCtx, cfg, done)
	return nil
}

// Stop ends the loop and waits for it to exit. Safe to call when stopped.
func (r *Runner) Stop() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	r.stop()
}

func (r *Runner) stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	logger := r.logger
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	if logger != nil {
		logger.Info("periodic publisher stopped")
	}
}

// Status returns a snapshot of the runner.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// loop runs until ctx is done.
func (r *Runner) loop(ctx context.Context, cfg Config, done chan struct{}) {
	defer close(done)
	defer func() {
		r.mu.Lock()
		if r.done == done || r.done == nil {
			r.status.Running = false
		}
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	r.publishNext(cfg)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.publishNext(cfg)
		}
	}
}

func (r *Runner) publishNext(cfg Config) {
	r.mu.Lock()
	n := r.status.Sent
	r.mu.Unlock()

	err := r.pub.Publish(cfg.Topic, fmt.Sprintf("%s %d", cfg.MessagePrefix, n))

	r.mu.Lock()
	if err != nil {
		r.status.Failed++
		r.status.LastError = err.Error()
	} else {
		r.status.Sent++
		r.status.LastError = ""
	}
	logger, recorder := r.logger, r.recorder
	r.mu.Unlock()

	if recorder != nil {
		recorder.PeriodicPublish(err == nil)
	}
	if err != nil && logger != nil {
		logger.Warn("periodic publish failed", "topic", cfg.Topic, "error", err)
	}
}
