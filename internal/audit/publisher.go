package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"safeguard/internal/platform/metrics"
)

// Publisher is the single write path into the audit trail. Every entry is
// appended to the fast in-memory window synchronously (this cannot fail)
// and attempted against the durable store asynchronously. A slow or down
// durable backend never blocks a compliance decision: the queue is bounded
// and full-queue events are dropped with a warning.
type Publisher struct {
	window  *MemoryStore
	durable Store
	logger  *slog.Logger
	metrics *metrics.Metrics

	events chan Entry
	wg     sync.WaitGroup
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithDurable attaches a durable store written behind a bounded queue of
// the given size.
func WithDurable(store Store, queueSize int) PublisherOption {
	return func(p *Publisher) {
		if store == nil || queueSize <= 0 {
			return
		}
		p.durable = store
		p.events = make(chan Entry, queueSize)
		p.async = true
	}
}

// WithMetrics sets the metrics instance for drop and failure counters.
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// NewPublisher constructs a publisher over the fast window.
func NewPublisher(window *MemoryStore, logger *slog.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{window: window, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.drainDurable()
	}
	return p
}

// drainDurable runs in a goroutine and persists queued entries. Each write
// gets one retry before the failure is logged and the entry abandoned from
// the durable path (it remains in the fast window).
func (p *Publisher) drainDurable() {
	defer p.wg.Done()
	for entry := range p.events {
		if err := p.appendDurable(entry); err != nil {
			p.logger.Warn("durable audit write failed",
				"error", err,
				"entry_id", entry.ID,
				"action", entry.Action,
			)
			if p.metrics != nil {
				p.metrics.IncrementAuditWriteFailures()
			}
		}
	}
}

func (p *Publisher) appendDurable(entry Entry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.durable.Append(ctx, entry); err == nil {
		return nil
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	return p.durable.Append(ctx2, entry)
}

// Emit finalizes and records an entry, returning it with ID and timestamp
// assigned. Emit never fails: durable persistence is best-effort by design,
// availability of compliance decisions wins over durability of the trail.
func (p *Publisher) Emit(_ context.Context, entry Entry) Entry {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	// The fast window append cannot fail.
	_ = p.window.Append(context.Background(), entry)
	if p.metrics != nil {
		p.metrics.IncrementAuditEntriesWritten()
	}

	if p.async {
		select {
		case p.events <- entry:
		default:
			p.logger.Warn("audit queue full, durable write dropped",
				"entry_id", entry.ID,
				"action", entry.Action,
			)
			if p.metrics != nil {
				p.metrics.IncrementAuditEventsDropped()
			}
		}
	}
	return entry
}

// List queries the fast-access window.
func (p *Publisher) List(ctx context.Context, filter Filter) ([]Entry, error) {
	return p.window.List(ctx, filter)
}

// Stats reports trail counters for the dashboard surface.
func (p *Publisher) Stats() Stats {
	return p.window.Stats()
}

// Close shuts down the async queue and waits for pending writes to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}
