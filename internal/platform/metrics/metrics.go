package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the compliance pipeline.
type Metrics struct {
	EventsLogged      prometheus.Counter
	EventsDropped     prometheus.Counter
	QueueLength       prometheus.Gauge
	Flushes           prometheus.Counter
	FlushRetries      prometheus.Counter
	BatchesRejected   prometheus.Counter
	DeadlineScans     prometheus.Counter
	WarningsSent      prometheus.Counter
	EscalationsSent   prometheus.Counter
	DispatchFailures  prometheus.Counter
	ScanFetchFailures prometheus.Counter
}

// New creates and registers all pipeline metrics with the default registry.
// Call once from the composition root; components treat a nil *Metrics as
// "metrics disabled".
func New() *Metrics {
	return &Metrics{
		EventsLogged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_audit_events_logged_total",
			Help: "Total audit events accepted by the writer",
		}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_audit_events_dropped_total",
			Help: "Audit events dropped due to queue overflow or permanent store rejection",
		}),
		QueueLength: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finbooks_audit_queue_length",
			Help: "Audit events currently buffered in memory",
		}),
		Flushes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_audit_flushes_total",
			Help: "Successful batched inserts into the audit store",
		}),
		FlushRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_audit_flush_retries_total",
			Help: "Flush attempts requeued after a transient store failure",
		}),
		BatchesRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_audit_batches_rejected_total",
			Help: "Batches dropped after a permanent authorization failure",
		}),
		DeadlineScans: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_deadline_scans_total",
			Help: "Completed breach-deadline scans",
		}),
		WarningsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_deadline_warnings_sent_total",
			Help: "SLA warning notifications dispatched",
		}),
		EscalationsSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_deadline_escalations_sent_total",
			Help: "Deadline-passed escalation notifications dispatched",
		}),
		DispatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_deadline_dispatch_failures_total",
			Help: "Notification dispatch attempts that failed",
		}),
		ScanFetchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finbooks_deadline_scan_fetch_failures_total",
			Help: "Scans abandoned because the incident fetch failed",
		}),
	}
}

// IncEventsLogged increments the logged-events counter. Nil-safe.
func (m *Metrics) IncEventsLogged() {
	if m != nil {
		m.EventsLogged.Inc()
	}
}

// AddEventsDropped adds n to the dropped-events counter. Nil-safe.
func (m *Metrics) AddEventsDropped(n int) {
	if m != nil && n > 0 {
		m.EventsDropped.Add(float64(n))
	}
}

// SetQueueLength records the current buffer depth. Nil-safe.
func (m *Metrics) SetQueueLength(n int) {
	if m != nil {
		m.QueueLength.Set(float64(n))
	}
}

// IncFlushes increments the successful-flush counter. Nil-safe.
func (m *Metrics) IncFlushes() {
	if m != nil {
		m.Flushes.Inc()
	}
}

// IncFlushRetries increments the transient-failure counter. Nil-safe.
func (m *Metrics) IncFlushRetries() {
	if m != nil {
		m.FlushRetries.Inc()
	}
}

// IncBatchesRejected increments the permanent-rejection counter. Nil-safe.
func (m *Metrics) IncBatchesRejected() {
	if m != nil {
		m.BatchesRejected.Inc()
	}
}

// IncDeadlineScans increments the completed-scan counter. Nil-safe.
func (m *Metrics) IncDeadlineScans() {
	if m != nil {
		m.DeadlineScans.Inc()
	}
}

// IncWarningsSent increments the warning-dispatch counter. Nil-safe.
func (m *Metrics) IncWarningsSent() {
	if m != nil {
		m.WarningsSent.Inc()
	}
}

// IncEscalationsSent increments the escalation-dispatch counter. Nil-safe.
func (m *Metrics) IncEscalationsSent() {
	if m != nil {
		m.EscalationsSent.Inc()
	}
}

// IncDispatchFailures increments the dispatch-failure counter. Nil-safe.
func (m *Metrics) IncDispatchFailures() {
	if m != nil {
		m.DispatchFailures.Inc()
	}
}

// IncScanFetchFailures increments the abandoned-scan counter. Nil-safe.
func (m *Metrics) IncScanFetchFailures() {
	if m != nil {
		m.ScanFetchFailures.Inc()
	}
}
