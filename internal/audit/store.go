package audit

import "context"

// Sink accepts batched audit inserts. InsertBatch is all-or-nothing for a
// batch: an error means no event in the batch may be assumed durable. Errors
// wrap sentinel.ErrUnauthorized when the rejection is permanent; anything else
// is treated as transient by the writer.
type Sink interface {
	InsertBatch(ctx context.Context, events []Event) error
}

// Store is a durable, queryable audit sink. Results are ordered newest-first.
type Store interface {
	Sink
	Query(ctx context.Context, filter Filter) ([]Event, error)
}
