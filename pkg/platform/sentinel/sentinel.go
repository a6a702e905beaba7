package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, sinks, and dispatchers
// return these (optionally wrapped) so callers can classify failures without
// depending on driver-specific error types.
//
// The audit writer's retry rule hinges on the distinction between
// ErrUnauthorized (permanent, never retried) and everything else (transient,
// retried on the next flush tick).
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)
