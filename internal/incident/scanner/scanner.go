// Package scanner polls open breach incidents against the 72-hour regulator
// notification window and raises each warning/escalation at most once.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"finbooks/internal/incident"
	"finbooks/internal/incident/dedup"
	"finbooks/internal/notify"
	"finbooks/internal/platform/metrics"
)

const (
	defaultInterval      = 30 * time.Minute
	defaultWarningWindow = 24 * time.Hour
)

// Scanner is the recurring deadline monitor. It never mutates incidents:
// marking an incident as regulator-notified is the caller's job, and a marked
// incident simply stops appearing in the scanner's input on the next poll.
type Scanner struct {
	store      incident.Store
	deduper    dedup.Deduper
	dispatcher notify.Dispatcher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
	clock      func() time.Time

	interval      time.Duration
	warningWindow time.Duration
}

// Option configures the Scanner.
type Option func(*Scanner)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scanner) { s.logger = logger }
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scanner) { s.clock = clock }
}

// WithInterval overrides the poll period.
func WithInterval(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWarningWindow overrides how close to the deadline the warning fires.
func WithWarningWindow(d time.Duration) Option {
	return func(s *Scanner) {
		if d > 0 {
			s.warningWindow = d
		}
	}
}

// New creates a Scanner.
func New(store incident.Store, deduper dedup.Deduper, dispatcher notify.Dispatcher, opts ...Option) *Scanner {
	s := &Scanner{
		store:         store,
		deduper:       deduper,
		dispatcher:    dispatcher,
		tracer:        otel.Tracer("finbooks/incident"),
		clock:         time.Now,
		interval:      defaultInterval,
		warningWindow: defaultWarningWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans once immediately, then on every tick until ctx is cancelled.
func (s *Scanner) Run(ctx context.Context) error {
	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Scan(ctx)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Scan evaluates every open incident once. A fetch failure abandons the whole
// scan (nothing was mutated); a dispatch failure skips only that incident's
// dedup mark so the next scan retries it.
func (s *Scanner) Scan(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "incident.deadline_scan")
	defer span.End()

	open, err := s.store.ListOpenICOIncidents(ctx)
	if err != nil {
		span.RecordError(err)
		s.metrics.IncScanFetchFailures()
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "deadline scan: fetching open incidents failed", "error", err)
		}
		return
	}

	now := s.clock()
	for _, inc := range open {
		s.evaluate(ctx, inc, now)
	}
	s.metrics.IncDeadlineScans()
}

// evaluate applies the two-threshold policy to one incident. The branches are
// mutually exclusive per scan: an incident past the deadline is never also
// warned.
func (s *Scanner) evaluate(ctx context.Context, inc *incident.BreachIncident, now time.Time) {
	remaining := incident.HoursRemaining(inc.DetectedAt, now)

	switch {
	case remaining == 0:
		s.escalate(ctx, inc, now)
	case remaining < s.warningWindow.Hours():
		s.warn(ctx, inc, remaining)
	}
}

func (s *Scanner) escalate(ctx context.Context, inc *incident.BreachIncident, now time.Time) {
	already, err := s.deduper.Marked(ctx, inc.IncidentID, dedup.PhasePassed)
	if err != nil {
		s.logDedupFailure(ctx, inc, dedup.PhasePassed, err)
		return
	}
	if already {
		return
	}

	escalation := notify.Escalation{
		IncidentID:   inc.IncidentID,
		BreachType:   inc.BreachType,
		Severity:     inc.Severity,
		HoursOverdue: incident.HoursOverdue(inc.DetectedAt, now),
	}
	if err := s.dispatcher.SendEscalation(ctx, escalation); err != nil {
		s.logDispatchFailure(ctx, inc, dedup.PhasePassed, err)
		return
	}
	s.metrics.IncEscalationsSent()

	if err := s.deduper.Mark(ctx, inc.IncidentID, dedup.PhasePassed); err != nil {
		s.logDedupFailure(ctx, inc, dedup.PhasePassed, err)
	}
}

func (s *Scanner) warn(ctx context.Context, inc *incident.BreachIncident, remaining float64) {
	already, err := s.deduper.Marked(ctx, inc.IncidentID, dedup.PhaseWarning)
	if err != nil {
		s.logDedupFailure(ctx, inc, dedup.PhaseWarning, err)
		return
	}
	if already {
		return
	}

	warning := notify.Warning{
		IncidentID:     inc.IncidentID,
		BreachType:     inc.BreachType,
		Severity:       inc.Severity,
		HoursRemaining: remaining,
		AffectedUsers:  len(inc.AffectedUserIDs),
	}
	if err := s.dispatcher.SendWarning(ctx, warning); err != nil {
		s.logDispatchFailure(ctx, inc, dedup.PhaseWarning, err)
		return
	}
	s.metrics.IncWarningsSent()

	if err := s.deduper.Mark(ctx, inc.IncidentID, dedup.PhaseWarning); err != nil {
		s.logDedupFailure(ctx, inc, dedup.PhaseWarning, err)
	}
}

func (s *Scanner) logDispatchFailure(ctx context.Context, inc *incident.BreachIncident, phase dedup.Phase, err error) {
	s.metrics.IncDispatchFailures()
	if s.logger != nil {
		s.logger.WarnContext(ctx, "deadline notification dispatch failed, will retry next scan",
			"incident_id", inc.IncidentID,
			"phase", phase,
			"error", err,
		)
	}
}

func (s *Scanner) logDedupFailure(ctx context.Context, inc *incident.BreachIncident, phase dedup.Phase, err error) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, "deadline dedup check failed, will retry next scan",
			"incident_id", inc.IncidentID,
			"phase", phase,
			"error", err,
		)
	}
}
