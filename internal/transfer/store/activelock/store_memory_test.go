package activelock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "fowlgate/pkg/domain"
	"fowlgate/pkg/platform/sentinel"
)

func TestInMemoryLock(t *testing.T) {
	ctx := context.Background()
	fowl := id.FowlID(uuid.New())
	first := id.TransferID(uuid.New())
	second := id.TransferID(uuid.New())

	t.Run("first acquisition wins", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Acquire(ctx, fowl, first))
	})

	t.Run("second transfer is rejected while held", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Acquire(ctx, fowl, first))
		assert.ErrorIs(t, l.Acquire(ctx, fowl, second), sentinel.ErrConflict)
	})

	t.Run("re-acquisition by the holder is idempotent", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Acquire(ctx, fowl, first))
		assert.NoError(t, l.Acquire(ctx, fowl, first))
	})

	t.Run("release frees the fowl", func(t *testing.T) {
		l := NewInMemory()
		require.NoError(t, l.Acquire(ctx, fowl, first))
		require.NoError(t, l.Release(ctx, fowl))
		assert.NoError(t, l.Acquire(ctx, fowl, second))
	})

	t.Run("releasing an unheld lock is a no-op", func(t *testing.T) {
		l := NewInMemory()
		assert.NoError(t, l.Release(ctx, fowl))
	})

	t.Run("locks are per fowl", func(t *testing.T) {
		l := NewInMemory()
		otherFowl := id.FowlID(uuid.New())
		require.NoError(t, l.Acquire(ctx, fowl, first))
		assert.NoError(t, l.Acquire(ctx, otherFowl, second))
	})
}
