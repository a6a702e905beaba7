package tx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTx(t *testing.T) {
	ctx := context.Background()

	t.Run("empty context carries no transaction", func(t *testing.T) {
		got, ok := From(ctx)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("nil transaction leaves the context untouched", func(t *testing.T) {
		assert.Equal(t, ctx, WithTx(ctx, nil))
	})

	t.Run("stored transaction round-trips", func(t *testing.T) {
		sqlTx := &sql.Tx{}
		got, ok := From(WithTx(ctx, sqlTx))
		assert.True(t, ok)
		assert.Same(t, sqlTx, got)
	})
}
