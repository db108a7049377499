package storage

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/govdesk/govdesk/pkg/store"
)

func testCacheConfig() Config {
	cfg := DefaultConfig()
	cfg.L1CacheSize = 16
	cfg.CacheTTL = time.Minute
	return cfg
}

func newRedisBackedCache(t *testing.T) (*TieredCache, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	cache, err := NewTieredCache(testCacheConfig(), client, logger, nil)
	require.NoError(t, err)
	return cache, srv
}

func TestTieredCache_L1Only(t *testing.T) {
	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	cache, err := NewTieredCache(testCacheConfig(), nil, logger, nil)
	require.NoError(t, err)
	ctx := context.Background()

	record := store.Record{"id": int64(1), "title": "cached"}
	cache.Set(ctx, "objectives", 1, record)

	got, ok := cache.Get(ctx, "objectives", 1)
	require.True(t, ok)
	assert.Equal(t, "cached", got.String("title"))

	cache.Invalidate(ctx, "objectives", 1)
	_, ok = cache.Get(ctx, "objectives", 1)
	assert.False(t, ok)
}

func TestTieredCache_RedisTier(t *testing.T) {
	t.Run("set populates both tiers", func(t *testing.T) {
		cache, srv := newRedisBackedCache(t)
		ctx := context.Background()

		cache.Set(ctx, "committees", 5, store.Record{"id": int64(5), "name": "Bidding"})

		assert.True(t, srv.Exists("record:committees:5"))
		got, ok := cache.Get(ctx, "committees", 5)
		require.True(t, ok)
		assert.Equal(t, "Bidding", got.String("name"))
	})

	t.Run("redis hit is promoted into L1", func(t *testing.T) {
		cache, _ := newRedisBackedCache(t)
		ctx := context.Background()

		cache.Set(ctx, "committees", 5, store.Record{"id": int64(5), "name": "Bidding"})
		cache.Purge()

		got, ok := cache.Get(ctx, "committees", 5)
		require.True(t, ok, "served from redis after L1 purge")
		assert.Equal(t, "Bidding", got.String("name"))

		_, ok = cache.l1.Get(cacheKey("committees", 5))
		assert.True(t, ok, "promoted back into L1")
	})

	t.Run("invalidate clears both tiers", func(t *testing.T) {
		cache, srv := newRedisBackedCache(t)
		ctx := context.Background()

		cache.Set(ctx, "committees", 5, store.Record{"id": int64(5)})
		cache.Invalidate(ctx, "committees", 5)

		assert.False(t, srv.Exists("record:committees:5"))
		_, ok := cache.Get(ctx, "committees", 5)
		assert.False(t, ok)
	})

	t.Run("corrupt redis payload is dropped", func(t *testing.T) {
		cache, srv := newRedisBackedCache(t)
		ctx := context.Background()

		require.NoError(t, srv.Set("record:personnel:9", "{not json"))

		_, ok := cache.Get(ctx, "personnel", 9)
		assert.False(t, ok)
		assert.False(t, srv.Exists("record:personnel:9"), "corrupt entry removed")
	})

	t.Run("redis outage degrades to miss", func(t *testing.T) {
		cache, srv := newRedisBackedCache(t)
		ctx := context.Background()

		cache.Set(ctx, "personnel", 1, store.Record{"id": int64(1)})
		cache.Purge()
		srv.Close()

		_, ok := cache.Get(ctx, "personnel", 1)
		assert.False(t, ok)
	})
}

func TestNewRedisClient(t *testing.T) {
	t.Run("connects", func(t *testing.T) {
		srv := miniredis.RunT(t)
		cfg := testCacheConfig()
		cfg.RedisURL = srv.Addr()

		client, err := NewRedisClient(context.Background(), cfg)
		require.NoError(t, err)
		defer client.Close()
		assert.NoError(t, client.Ping(context.Background()).Err())
	})

	t.Run("unreachable server", func(t *testing.T) {
		cfg := testCacheConfig()
		cfg.RedisURL = "127.0.0.1:1"
		cfg.RedisMaxRetries = 0

		client, err := NewRedisClient(context.Background(), cfg)
		assert.Error(t, err)
		assert.Nil(t, client)
	})
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "record:objectives:42", cacheKey("objectives", 42))
}
