package history

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActivityIndex(t *testing.T) *RedisActivityIndex {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisActivityIndex(rdb)
}

func TestActivityIndexOldestOrdering(t *testing.T) {
	idx := newTestActivityIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Touch(ctx, "mid", 200))
	require.NoError(t, idx.Touch(ctx, "old", 100))
	require.NoError(t, idx.Touch(ctx, "new", 300))

	got, err := idx.Oldest(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "mid"}, got)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestActivityIndexTouchUpserts(t *testing.T) {
	idx := newTestActivityIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Touch(ctx, "u1", 100))
	require.NoError(t, idx.Touch(ctx, "u2", 200))
	// u1 becomes the most recently active; u2 is now the eviction candidate.
	require.NoError(t, idx.Touch(ctx, "u1", 300))

	got, err := idx.Oldest(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, got)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestActivityIndexRemoveIdempotent(t *testing.T) {
	idx := newTestActivityIndex(t)
	ctx := context.Background()

	require.NoError(t, idx.Touch(ctx, "u1", 100))
	require.NoError(t, idx.Remove(ctx, "u1"))
	require.NoError(t, idx.Remove(ctx, "u1"))
	require.NoError(t, idx.Remove(ctx, "never-seen"))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestActivityIndexOldestZero(t *testing.T) {
	idx := newTestActivityIndex(t)

	got, err := idx.Oldest(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
