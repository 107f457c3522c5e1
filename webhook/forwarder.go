package webhook

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/jobscout/config"
	"github.com/use-agent/jobscout/engine"
)

// DefaultRetryDelays are the waits before each redelivery attempt.
var DefaultRetryDelays = []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}

const queueSize = 256

// Forwarder is an engine.Sink that delivers events one at a time from a
// single worker, so the endpoint sees them in emission order. Emit blocks
// when the queue is full.
type Forwarder struct {
	url     string
	secret  string
	client  *http.Client
	timeout time.Duration
	delays  []time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan *Event
	done   chan struct{}
}

// Option configures a Forwarder.
type Option func(*Forwarder)

// WithRetryDelays replaces DefaultRetryDelays.
func WithRetryDelays(delays ...time.Duration) Option {
	return func(f *Forwarder) { f.delays = delays }
}

// WithClient sets the HTTP client used for deliveries.
func WithClient(c *http.Client) Option {
	return func(f *Forwarder) { f.client = c }
}

// NewForwarder starts the delivery worker. Call Close to drain and stop it.
func NewForwarder(cfg config.WebhookConfig, opts ...Option) *Forwarder {
	f := &Forwarder{
		url:     cfg.URL,
		secret:  cfg.Secret,
		timeout: cfg.Timeout,
		delays:  DefaultRetryDelays,
		queue:   make(chan *Event, queueSize),
		done:    make(chan struct{}),
	}
	if f.timeout <= 0 {
		f.timeout = 10 * time.Second
	}
	for _, o := range opts {
		o(f)
	}
	if f.client == nil {
		f.client = &http.Client{Timeout: f.timeout}
	}
	go f.loop()
	return f
}

// Emit queues e for delivery. Events emitted after Close are dropped.
func (f *Forwarder) Emit(e engine.Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		slog.Warn("webhook forwarder closed, event dropped", "event", e.Type, "run", e.RunID)
		return
	}
	f.queue <- FromEngine(e)
}

// Close stops accepting events and waits until every queued event has been
// delivered or has exhausted its retries.
func (f *Forwarder) Close() {
	f.mu.Lock()
	if !f.closed {
		f.closed = true
		close(f.queue)
	}
	f.mu.Unlock()
	<-f.done
}

func (f *Forwarder) loop() {
	defer close(f.done)
	for ev := range f.queue {
		f.deliver(ev)
	}
}

// deliver tries once, then once more after each retry delay.
func (f *Forwarder) deliver(event *Event) {
	attempts := append([]time.Duration{0}, f.delays...)
	for attempt, delay := range attempts {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
		err := Deliver(ctx, f.client, f.url, f.secret, event)
		cancel()
		if err == nil {
			slog.Debug("webhook delivered",
				"url", f.url,
				"event", event.Type,
				"run", event.RunID,
				"attempt", attempt+1,
			)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", f.url,
			"event", event.Type,
			"run", event.RunID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries",
		"url", f.url,
		"event", event.Type,
		"run", event.RunID,
	)
}

var _ engine.Sink = (*Forwarder)(nil)
