package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type parsedFixture struct {
	Value int
}

func TestInMemoryCacheManager_GetSet(t *testing.T) {
	cache := NewInMemoryCacheManager[string, parsedFixture]("test", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	_, found := cache.Get(ctx, "missing")
	require.False(t, found)

	cache.Set(ctx, "key", parsedFixture{Value: 7}, time.Minute)
	got, found := cache.Get(ctx, "key")
	require.True(t, found)
	require.Equal(t, 7, got.Value)
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := NewInMemoryCacheManager[string, parsedFixture]("test", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "a", parsedFixture{Value: 1}, time.Minute)
	cache.Set(ctx, "b", parsedFixture{Value: 2}, time.Minute)
	require.NoError(t, cache.Delete(ctx, "a"))

	_, found := cache.Get(ctx, "a")
	require.False(t, found)
	_, found = cache.Get(ctx, "b")
	require.True(t, found)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, parsedFixture]("test", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "a", parsedFixture{Value: 1}, time.Minute)
	require.NoError(t, cache.Flush(ctx))

	_, found := cache.Get(ctx, "a")
	require.False(t, found)
}

func TestInMemoryCacheManager_Expiration(t *testing.T) {
	cache := NewInMemoryCacheManager[string, parsedFixture]("test", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "key", parsedFixture{Value: 1}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, found := cache.Get(ctx, "key")
	require.False(t, found)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, parsedFixture]("test", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "key", parsedFixture{Value: 1}, 50*time.Millisecond)

	// Refresh extends the ttl past the original deadline.
	time.Sleep(30 * time.Millisecond)
	_, found := cache.GetWithRefresh(ctx, "key", time.Minute)
	require.True(t, found)

	time.Sleep(30 * time.Millisecond)
	_, found = cache.Get(ctx, "key")
	require.True(t, found)
}
