package writer

import (
	"context"
	"errors"

	"finbooks/internal/audit"
	"finbooks/pkg/requestcontext"
)

// ErrMissingActor is returned by the convenience constructors when no acting
// principal can be resolved. The bare Log primitive tolerates anything; the
// constructors reject synchronously so call sites notice broken wiring.
var ErrMissingActor = errors.New("audit: no actor in context")

// LogCreate records the creation of an entity.
func (w *Writer) LogCreate(ctx context.Context, entityType audit.EntityType, entityID, entityName string) error {
	return w.logEntity(ctx, audit.ActionCreate, entityType, entityID, entityName, nil)
}

// LogUpdate records an entity update, diffing the old and new snapshots into
// per-field changes. Missing snapshots yield an empty change set, not an error.
func (w *Writer) LogUpdate(ctx context.Context, entityType audit.EntityType, entityID, entityName string, oldData, newData map[string]any) error {
	return w.logEntity(ctx, audit.ActionUpdate, entityType, entityID, entityName, audit.Diff(oldData, newData))
}

// LogDelete records the deletion of an entity.
func (w *Writer) LogDelete(ctx context.Context, entityType audit.EntityType, entityID, entityName string) error {
	return w.logEntity(ctx, audit.ActionDelete, entityType, entityID, entityName, nil)
}

// LogView records read access to an entity.
func (w *Writer) LogView(ctx context.Context, entityType audit.EntityType, entityID, entityName string) error {
	return w.logEntity(ctx, audit.ActionView, entityType, entityID, entityName, nil)
}

// LogExport records a data export.
func (w *Writer) LogExport(ctx context.Context, entityType audit.EntityType, entityID, entityName string) error {
	return w.logEntity(ctx, audit.ActionExport, entityType, entityID, entityName, nil)
}

// LogLogin records a successful sign-in for the actor in context.
func (w *Writer) LogLogin(ctx context.Context) error {
	return w.logEntity(ctx, audit.ActionLogin, "", "", "", nil)
}

// LogLogout records a sign-out for the actor in context.
func (w *Writer) LogLogout(ctx context.Context) error {
	return w.logEntity(ctx, audit.ActionLogout, "", "", "", nil)
}

// LogLoginFailed records a failed sign-in attempt. The actor is passed
// explicitly because failed logins have no authenticated context.
func (w *Writer) LogLoginFailed(ctx context.Context, actorID, reason string) error {
	if actorID == "" {
		return ErrMissingActor
	}
	e := audit.Event{
		ActorID: actorID,
		Action:  audit.ActionLoginFailed,
	}
	if reason != "" {
		e.Metadata = map[string]any{"reason": reason}
	}
	w.Log(ctx, e)
	return nil
}

func (w *Writer) logEntity(ctx context.Context, action audit.Action, entityType audit.EntityType, entityID, entityName string, changes map[string]audit.Change) error {
	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		return ErrMissingActor
	}
	w.Log(ctx, audit.Event{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		EntityName: entityName,
		Changes:    changes,
	})
	return nil
}
