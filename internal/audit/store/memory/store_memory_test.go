package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbooks/internal/audit"
)

func seedStore(t *testing.T) *InMemoryStore {
	t.Helper()
	base := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	store := NewInMemoryStore()
	err := store.InsertBatch(context.Background(), []audit.Event{
		{ID: "e1", ActorID: "alice", TeamID: "t1", Action: audit.ActionCreate, EntityType: audit.EntityInvoice, EntityID: "inv-1", Timestamp: base},
		{ID: "e2", ActorID: "bob", TeamID: "t1", Action: audit.ActionUpdate, EntityType: audit.EntityInvoice, EntityID: "inv-1", Timestamp: base.Add(time.Hour)},
		{ID: "e3", ActorID: "alice", TeamID: "t2", Action: audit.ActionDelete, EntityType: audit.EntityClient, EntityID: "cl-1", Timestamp: base.Add(2 * time.Hour)},
		{ID: "e4", ActorID: "alice", TeamID: "t1", Action: audit.ActionView, EntityType: audit.EntityInvoice, EntityID: "inv-2", Timestamp: base.Add(3 * time.Hour)},
	})
	require.NoError(t, err)
	return store
}

func ids(events []audit.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

func TestQuery(t *testing.T) {
	ctx := context.Background()
	store := seedStore(t)

	t.Run("no filter returns everything newest-first", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Filter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"e4", "e3", "e2", "e1"}, ids(events))
	})

	t.Run("filters combine conjunctively", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Filter{ActorID: "alice", TeamID: "t1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"e4", "e1"}, ids(events))
	})

	t.Run("filter by entity", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Filter{EntityType: audit.EntityInvoice, EntityID: "inv-1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"e2", "e1"}, ids(events))
	})

	t.Run("time range is inclusive", func(t *testing.T) {
		since := time.Date(2026, 4, 1, 13, 0, 0, 0, time.UTC)
		until := time.Date(2026, 4, 1, 14, 0, 0, 0, time.UTC)
		events, err := store.Query(ctx, audit.Filter{Since: &since, Until: &until})
		require.NoError(t, err)
		assert.Equal(t, []string{"e3", "e2"}, ids(events))
	})

	t.Run("limit truncates after ordering", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Filter{Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"e4", "e3"}, ids(events))
	})

	t.Run("no match yields empty result", func(t *testing.T) {
		events, err := store.Query(ctx, audit.Filter{ActorID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}

func TestClear(t *testing.T) {
	store := seedStore(t)
	require.Equal(t, 4, store.Len())
	store.Clear()
	assert.Zero(t, store.Len())
}
