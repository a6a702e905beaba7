package writer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbooks/internal/audit"
	memorystore "finbooks/internal/audit/store/memory"
	"finbooks/internal/audit/writer"
	"finbooks/pkg/requestcontext"
	"finbooks/pkg/testutil"
)

// Exercises the public surface the way a service would: log a handful of
// events, let the periodic flush run, read them back.
func TestWriterFlow(t *testing.T) {
	testutil.Given(t, "a running writer over the in-memory store", func(t *testing.T) {
		store := memorystore.NewInMemoryStore()
		w := writer.New(store,
			writer.WithFlushInterval(20*time.Millisecond),
			writer.WithHighWaterMark(100),
		)

		runCtx := testutil.Context(t)
		go func() { _ = w.Run(runCtx) }()

		testutil.When(t, "a service logs entity activity", func(t *testing.T) {
			ctx := requestcontext.WithActorID(testutil.Context(t), "user-1")
			ctx = requestcontext.WithTeamID(ctx, "team-1")

			require.NoError(t, w.LogCreate(ctx, audit.EntityInvoice, "inv-1", "March invoice"))
			require.NoError(t, w.LogView(ctx, audit.EntityInvoice, "inv-1", "March invoice"))

			testutil.Then(t, "the events become queryable after a flush", func(t *testing.T) {
				queryCtx := testutil.ContextWithTimeout(t, 2*time.Second)
				assert.Eventually(t, func() bool {
					events, err := w.Query(queryCtx, audit.Filter{ActorID: "user-1"})
					return err == nil && len(events) == 2
				}, 2*time.Second, 10*time.Millisecond)

				events, err := w.Query(queryCtx, audit.Filter{ActorID: "user-1", Action: audit.ActionCreate})
				require.NoError(t, err)
				require.Len(t, events, 1)
				assert.Equal(t, "team-1", events[0].TeamID)
				assert.Equal(t, "inv-1", events[0].EntityID)
			})
		})
	})
}
