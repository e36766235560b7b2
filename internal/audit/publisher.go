package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink receives every persisted event, in addition to the Store. Used to
// fan events out to external systems (the Kafka sink).
type Sink interface {
	Deliver(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. It is append-only and uses
// the storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	sink   Sink
	events chan Event
	wg     sync.WaitGroup
	logger *slog.Logger
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
// Events are queued and persisted in a background goroutine.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan Event, size)
			p.async = true
		}
	}
}

// WithSink adds an external delivery sink alongside the store.
func WithSink(sink Sink) PublisherOption {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// WithPublisherLogger sets a logger for async error reporting.
func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

// processEvents runs in a goroutine and persists events from the channel.
func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		p.persist(context.Background(), event)
	}
}

func (p *Publisher) persist(ctx context.Context, event Event) {
	if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.Error("failed to persist audit event",
			"error", err,
			"action", event.Action,
			"actor", event.Actor,
		)
	}
	if p.sink == nil {
		return
	}
	if err := p.sink.Deliver(ctx, event); err != nil && p.logger != nil {
		p.logger.Error("failed to deliver audit event to sink",
			"error", err,
			"action", event.Action,
			"actor", event.Actor,
		)
	}
}

// Close shuts down the async publisher and waits for pending events to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if p.async {
		// Non-blocking send; drop event if buffer is full to avoid blocking hot path
		select {
		case p.events <- base:
			return nil
		default:
			if p.logger != nil {
				p.logger.Warn("audit buffer full, event dropped",
					"action", base.Action,
					"actor", base.Actor,
				)
			}
			return nil
		}
	}
	p.persist(ctx, base)
	return nil
}
