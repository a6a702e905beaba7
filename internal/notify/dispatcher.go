// Package notify delivers breach-deadline notifications. The scanner treats
// delivery as fire-and-forget: a failed send is logged and retried on the
// next scan by virtue of the incident staying un-deduped.
package notify

import (
	"context"

	"finbooks/internal/incident"
)

// Warning tells the compliance team an incident is inside the final stretch
// of its reporting window.
type Warning struct {
	IncidentID     string
	BreachType     string
	Severity       incident.Severity
	HoursRemaining float64
	AffectedUsers  int
}

// Escalation tells the compliance team an incident has blown its reporting
// deadline.
type Escalation struct {
	IncidentID   string
	BreachType   string
	Severity     incident.Severity
	HoursOverdue float64
}

// Dispatcher delivers composed notifications to the configured recipients.
type Dispatcher interface {
	SendWarning(ctx context.Context, w Warning) error
	SendEscalation(ctx context.Context, e Escalation) error
}
