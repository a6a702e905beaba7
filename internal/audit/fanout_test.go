package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSink struct {
	batches int
	err     error
}

func (s *stubSink) InsertBatch(context.Context, []Event) error {
	s.batches++
	return s.err
}

type stubStore struct {
	stubSink
	queried Filter
}

func (s *stubStore) Query(_ context.Context, filter Filter) ([]Event, error) {
	s.queried = filter
	return []Event{{ID: "e1"}}, nil
}

func TestFanout(t *testing.T) {
	ctx := context.Background()
	batch := []Event{{ID: "e1"}, {ID: "e2"}}

	t.Run("mirrors receive every successful batch", func(t *testing.T) {
		primary := &stubStore{}
		mirror := &stubSink{}
		f := NewFanout(nil, primary, mirror)

		require.NoError(t, f.InsertBatch(ctx, batch))
		assert.Equal(t, 1, primary.batches)
		assert.Equal(t, 1, mirror.batches)
	})

	t.Run("primary failure skips the mirrors", func(t *testing.T) {
		primary := &stubStore{stubSink: stubSink{err: errors.New("insert failed")}}
		mirror := &stubSink{}
		f := NewFanout(nil, primary, mirror)

		require.Error(t, f.InsertBatch(ctx, batch))
		assert.Zero(t, mirror.batches)
	})

	t.Run("mirror failure does not fail the batch", func(t *testing.T) {
		primary := &stubStore{}
		mirror := &stubSink{err: errors.New("broker unreachable")}
		f := NewFanout(nil, primary, mirror)

		assert.NoError(t, f.InsertBatch(ctx, batch))
		assert.Equal(t, 1, primary.batches)
	})

	t.Run("queries go to the primary only", func(t *testing.T) {
		primary := &stubStore{}
		f := NewFanout(nil, primary)

		events, err := f.Query(ctx, Filter{ActorID: "alice"})
		require.NoError(t, err)
		assert.Len(t, events, 1)
		assert.Equal(t, "alice", primary.queried.ActorID)
	})
}
