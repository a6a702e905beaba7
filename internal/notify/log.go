package notify

import (
	"context"
	"log/slog"
)

// LogDispatcher writes notifications to the structured log. Development
// fallback when no webhook is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendWarning(ctx context.Context, w Warning) error {
	d.logger.WarnContext(ctx, "breach reporting deadline approaching",
		"incident_id", w.IncidentID,
		"breach_type", w.BreachType,
		"severity", w.Severity,
		"hours_remaining", w.HoursRemaining,
		"affected_users", w.AffectedUsers,
	)
	return nil
}

func (d *LogDispatcher) SendEscalation(ctx context.Context, e Escalation) error {
	d.logger.ErrorContext(ctx, "breach reporting deadline passed",
		"incident_id", e.IncidentID,
		"breach_type", e.BreachType,
		"severity", e.Severity,
		"hours_overdue", e.HoursOverdue,
	)
	return nil
}
