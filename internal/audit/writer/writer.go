// Package writer implements the batching audit writer. Log is fire-and-forget
// for business code: events are buffered in memory and flushed to the store on
// a timer or when the buffer reaches its high-water mark. A flush that fails
// transiently is retried with the same batch on the next tick; a flush the
// store rejects as unauthorized is dropped, since retrying a permission
// failure would loop forever.
package writer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"finbooks/internal/audit"
	"finbooks/internal/platform/metrics"
	"finbooks/pkg/platform/sentinel"
	"finbooks/pkg/requestcontext"
)

const (
	defaultFlushInterval = 5 * time.Second
	defaultHighWaterMark = 10
	defaultDrainTimeout  = 5 * time.Second
)

// Writer owns the event buffer and its flush policy. Construct one per
// process in the composition root and run it with Run; there is no implicit
// global instance.
type Writer struct {
	store   audit.Store
	queue   *queue
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time

	flushInterval time.Duration
	highWater     int
	drainTimeout  time.Duration

	// flushMu serializes flushes so a timer tick and a high-water flush
	// cannot interleave their swap/requeue pairs.
	flushMu sync.Mutex
}

// Option configures the Writer.
type Option func(*Writer)

// WithLogger sets the structured logger for internal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Writer) { w.clock = clock }
}

// WithFlushInterval overrides the periodic flush interval.
func WithFlushInterval(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.flushInterval = d
		}
	}
}

// WithHighWaterMark overrides the queue length that triggers an immediate flush.
func WithHighWaterMark(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.highWater = n
		}
	}
}

// WithQueueCap bounds the buffer; the oldest events are dropped past the cap.
func WithQueueCap(n int) Option {
	return func(w *Writer) { w.queue = newQueue(n) }
}

// WithDrainTimeout bounds the final flush during shutdown.
func WithDrainTimeout(d time.Duration) Option {
	return func(w *Writer) {
		if d > 0 {
			w.drainTimeout = d
		}
	}
}

// New creates a Writer flushing into store.
func New(store audit.Store, opts ...Option) *Writer {
	w := &Writer{
		store:         store,
		queue:         newQueue(0),
		tracer:        otel.Tracer("finbooks/audit"),
		clock:         time.Now,
		flushInterval: defaultFlushInterval,
		highWater:     defaultHighWaterMark,
		drainTimeout:  defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Log buffers an event and returns immediately. It never fails the caller:
// persistence is best-effort and all internal errors surface only through
// logging and metrics. Unset context fields (actor, team, client metadata,
// timestamp) are filled from the request context when available.
func (w *Writer) Log(ctx context.Context, e audit.Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		if t, ok := requestcontext.Time(ctx); ok {
			e.Timestamp = t
		} else {
			e.Timestamp = w.clock()
		}
	}
	if e.ActorID == "" {
		e.ActorID = requestcontext.ActorID(ctx)
	}
	if e.TeamID == "" {
		e.TeamID = requestcontext.TeamID(ctx)
	}
	if e.IPAddress == "" {
		e.IPAddress = requestcontext.ClientIP(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = requestcontext.UserAgent(ctx)
	}

	n := w.queue.append(e)
	w.metrics.IncEventsLogged()
	w.metrics.SetQueueLength(n)
	w.reportDropped(ctx)

	if n >= w.highWater {
		w.flush(ctx)
	}
}

// Query reads back persisted events, newest-first. Filters are conjunctive.
func (w *Writer) Query(ctx context.Context, filter audit.Filter) ([]audit.Event, error) {
	return w.store.Query(ctx, filter)
}

// Run drives the periodic flush until ctx is cancelled, then attempts one
// final flush bounded by the drain timeout.
func (w *Writer) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			drainCtx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
			w.flush(drainCtx)
			cancel()
			return ctx.Err()
		}
	}
}

// Pending returns the number of buffered events. Intended for observability
// and tests.
func (w *Writer) Pending() int {
	return w.queue.len()
}

// flush swaps the live queue for an empty one and attempts a single batched
// insert of the captured events.
func (w *Writer) flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	batch := w.queue.swap()
	if len(batch) == 0 {
		return
	}

	ctx, span := w.tracer.Start(ctx, "audit.flush")
	defer span.End()

	err := w.store.InsertBatch(ctx, batch)
	if err == nil {
		w.metrics.IncFlushes()
		w.metrics.SetQueueLength(w.queue.len())
		return
	}

	span.RecordError(err)

	if errors.Is(err, sentinel.ErrUnauthorized) {
		// Retrying a permission failure would never succeed; drop the batch.
		w.metrics.IncBatchesRejected()
		w.metrics.AddEventsDropped(len(batch))
		if w.logger != nil {
			w.logger.WarnContext(ctx, "audit store rejected batch, dropping",
				"events", len(batch),
				"error", err,
			)
		}
		return
	}

	// Transient failure: put the batch back at the head so the next flush
	// retries it in original order.
	w.queue.requeue(batch)
	w.metrics.IncFlushRetries()
	w.metrics.SetQueueLength(w.queue.len())
	w.reportDropped(ctx)
	if w.logger != nil {
		w.logger.WarnContext(ctx, "audit flush failed, will retry",
			"events", len(batch),
			"error", err,
		)
	}
}

func (w *Writer) reportDropped(ctx context.Context) {
	if n := w.queue.takeDropped(); n > 0 {
		w.metrics.AddEventsDropped(n)
		if w.logger != nil {
			w.logger.WarnContext(ctx, "audit queue overflow, dropped oldest events",
				"dropped", n,
			)
		}
	}
}
