package audit

import (
	"context"
	"log/slog"
)

// Fanout writes every batch to a primary store and mirrors it to additional
// sinks best-effort. The primary's error is the batch's fate: the writer's
// retry rule sees only primary failures, so mirrors never cause duplicates in
// the durable store. Mirror failures are logged and forgotten.
//
// Queries go to the primary only.
type Fanout struct {
	primary Store
	mirrors []Sink
	logger  *slog.Logger
}

// NewFanout wraps a primary store with best-effort mirror sinks.
func NewFanout(logger *slog.Logger, primary Store, mirrors ...Sink) *Fanout {
	return &Fanout{primary: primary, mirrors: mirrors, logger: logger}
}

func (f *Fanout) InsertBatch(ctx context.Context, events []Event) error {
	if err := f.primary.InsertBatch(ctx, events); err != nil {
		return err
	}
	for _, mirror := range f.mirrors {
		if err := mirror.InsertBatch(ctx, events); err != nil && f.logger != nil {
			f.logger.WarnContext(ctx, "audit mirror sink failed",
				"events", len(events),
				"error", err,
			)
		}
	}
	return nil
}

func (f *Fanout) Query(ctx context.Context, filter Filter) ([]Event, error) {
	return f.primary.Query(ctx, filter)
}
