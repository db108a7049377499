package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/govdesk/govdesk/pkg/observability"
	"github.com/govdesk/govdesk/pkg/store"
)

// TieredCache is a two-tier record cache: an in-process LRU backed by an
// optional Redis tier. It implements store.Cache. Redis failures are logged
// and treated as misses.
type TieredCache struct {
	l1      *lru.Cache[string, store.Record]
	redis   *redis.Client
	ttl     time.Duration
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewTieredCache builds the cache. redisClient may be nil for L1-only
// operation; metrics may be nil.
func NewTieredCache(config Config, redisClient *redis.Client, logger *observability.Logger, metrics *observability.Metrics) (*TieredCache, error) {
	l1, err := lru.New[string, store.Record](config.L1CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create L1 cache: %w", err)
	}

	return &TieredCache{
		l1:      l1,
		redis:   redisClient,
		ttl:     config.CacheTTL,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, config Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       config.RedisURL,
		Password:   config.RedisPassword,
		DB:         config.RedisDB,
		MaxRetries: config.RedisMaxRetries,
		PoolSize:   config.RedisPoolSize,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

func cacheKey(table string, id int64) string {
	return fmt.Sprintf("record:%s:%d", table, id)
}

// Get looks up a record, L1 first then Redis. A Redis hit is promoted
// into L1.
func (c *TieredCache) Get(ctx context.Context, table string, id int64) (store.Record, bool) {
	key := cacheKey(table, id)

	if record, ok := c.l1.Get(key); ok {
		c.hit("l1")
		return record, true
	}
	c.miss("l1")

	if c.redis == nil {
		return nil, false
	}

	cached, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("Redis cache read failed")
		}
		c.miss("l2")
		return nil, false
	}

	var record store.Record
	if err := json.Unmarshal([]byte(cached), &record); err != nil {
		c.logger.WithError(err).Warn("Failed to decode cached record, invalidating")
		c.redis.Del(ctx, key)
		c.miss("l2")
		return nil, false
	}

	c.hit("l2")
	c.l1.Add(key, record)
	return record, true
}

// Set stores a record in both tiers.
func (c *TieredCache) Set(ctx context.Context, table string, id int64, record store.Record) {
	key := cacheKey(table, id)
	c.l1.Add(key, record)

	if c.redis == nil {
		return
	}

	data, err := json.Marshal(record)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to encode record for cache")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis cache write failed")
	}
}

// Invalidate removes a record from both tiers.
func (c *TieredCache) Invalidate(ctx context.Context, table string, id int64) {
	key := cacheKey(table, id)
	c.l1.Remove(key)

	if c.redis == nil {
		return
	}
	if err := c.redis.Del(ctx, key).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis cache invalidation failed")
	}
}

// Purge clears the L1 tier. Redis entries expire via TTL.
func (c *TieredCache) Purge() {
	c.l1.Purge()
}

func (c *TieredCache) hit(tier string) {
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (c *TieredCache) miss(tier string) {
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.WithLabelValues(tier).Inc()
	}
}
