package incident

import "context"

// Store is the durable home of breach incidents. Incidents are created once
// by a reporting flow and mutated only by marking notification timestamps or
// advancing the investigation status; this core never deletes them.
type Store interface {
	Create(ctx context.Context, inc *BreachIncident) error
	GetByIncidentID(ctx context.Context, incidentID string) (*BreachIncident, error)

	// ListOpenICOIncidents returns incidents whose regulator track is still
	// open (ICONotifiedAt is null). This is the scanner's entire input.
	ListOpenICOIncidents(ctx context.Context) ([]*BreachIncident, error)

	// MarkICONotified and MarkUsersNotified set the respective timestamp to
	// now. Both are idempotent: marking twice keeps the first timestamp.
	MarkICONotified(ctx context.Context, incidentID string) error
	MarkUsersNotified(ctx context.Context, incidentID string) error

	UpdateStatus(ctx context.Context, incidentID string, status Status) error
}
