package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.Cache = (*Cache)(nil)

// defaultTTL is applied when a Set is issued with no explicit TTL.
// The fast tier always expires; durable storage is the durable tier's job.
const defaultTTL = time.Hour

// CacheConfig holds configuration for the Redis cache tier
type CacheConfig struct {
	// DefaultTTL is applied when Set is called with ttl <= 0.
	// Zero means one hour.
	DefaultTTL time.Duration
}

// Cache implements driven.Cache using Redis.
// Expiration is delegated entirely to Redis TTLs, so reads never see
// stale entries and no sweeper is needed for this tier.
type Cache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewCache creates a new Redis-backed Cache
func NewCache(client *redis.Client, config CacheConfig) *Cache {
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{
		client:     client,
		defaultTTL: ttl,
	}
}

// Get retrieves a value by key.
// Returns domain.ErrCacheMiss when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, nil
}

// Set stores a value with the given TTL.
// A ttl <= 0 falls back to the configured default; entries in this
// tier always expire.
func (c *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Exists reports whether a key is present and not expired
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check key %s: %w", key, err)
	}
	return count > 0, nil
}

// Flush removes all keys from the current database
func (c *Cache) Flush(ctx context.Context) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("failed to flush cache: %w", err)
	}
	return nil
}

// DefaultTTL returns the TTL applied when Set receives no explicit TTL
func (c *Cache) DefaultTTL() time.Duration {
	return c.defaultTTL
}
