package cache

import (
	"context"
	"testing"
	"time"

	"ecochamps/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(t *testing.T) Cache {
	t.Helper()
	c := NewMemoryCache(&config.CacheConfig{
		TTL:             time.Minute,
		MaxKeys:         100,
		CleanupInterval: time.Minute,
	}, zap.NewNop())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	val, found := c.Get(ctx, "k")
	assert.True(t, found)
	assert.Equal(t, "v", val)

	_, found = c.Get(ctx, "missing")
	assert.False(t, found)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "short", 1, 10*time.Millisecond))
	time.Sleep(20 * time.Millisecond)
	_, found := c.Get(ctx, "short")
	assert.False(t, found)
}

func TestMemoryCacheDeletePattern(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	require.NoError(t, c.Set(ctx, "user:1:stats", "a", time.Minute))
	require.NoError(t, c.Set(ctx, "user:1:logs", "b", time.Minute))
	require.NoError(t, c.Set(ctx, "leaderboard:20", "c", time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "user:1:*"))

	assert.False(t, c.Exists(ctx, "user:1:stats"))
	assert.False(t, c.Exists(ctx, "user:1:logs"))
	assert.True(t, c.Exists(ctx, "leaderboard:20"))
}

func TestMemoryCacheIncrement(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)

	n, err := c.Increment(ctx, "counter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = c.Increment(ctx, "counter", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestMemoryCacheHealth(t *testing.T) {
	c := newTestCache(t)
	assert.NoError(t, c.Health(context.Background()))
}
