//go:build integration

package dedup_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbooks/internal/incident/dedup"
	"finbooks/pkg/testutil/containers"
)

func TestRedisDeduper(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	t.Run("mark then check", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		d := dedup.NewRedis(rc.Client)

		marked, err := d.Marked(ctx, "BR-1", dedup.PhaseWarning)
		require.NoError(t, err)
		assert.False(t, marked)

		require.NoError(t, d.Mark(ctx, "BR-1", dedup.PhaseWarning))

		marked, err = d.Marked(ctx, "BR-1", dedup.PhaseWarning)
		require.NoError(t, err)
		assert.True(t, marked)

		marked, err = d.Marked(ctx, "BR-1", dedup.PhasePassed)
		require.NoError(t, err)
		assert.False(t, marked, "phases must not share keys")
	})

	t.Run("marks are visible across instances", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		first := dedup.NewRedis(rc.Client)
		second := dedup.NewRedis(rc.Client)

		require.NoError(t, first.Mark(ctx, "BR-2", dedup.PhasePassed))

		marked, err := second.Marked(ctx, "BR-2", dedup.PhasePassed)
		require.NoError(t, err)
		assert.True(t, marked)
	})

	t.Run("marks carry an expiry", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		d := dedup.NewRedis(rc.Client)
		require.NoError(t, d.Mark(ctx, "BR-3", dedup.PhaseWarning))

		ttl, err := rc.Client.TTL(ctx, "finbooks:dedup:incident:BR-3:warning").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, 13*24*time.Hour)
		assert.LessOrEqual(t, ttl, 14*24*time.Hour)
	})
}
