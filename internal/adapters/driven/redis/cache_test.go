package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

// setupTestCache creates a test Redis client and Cache
func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewCache(client, CacheConfig{})

	return cache, mr, func() {
		client.Close()
		mr.Close()
	}
}

func TestNewCache(t *testing.T) {
	client, _ := setupTestRedis(t)

	cache := NewCache(client, CacheConfig{})

	if cache == nil {
		t.Fatal("expected non-nil Cache")
	}
	if cache.DefaultTTL() != time.Hour {
		t.Errorf("expected default TTL of 1h, got %v", cache.DefaultTTL())
	}
}

func TestNewCache_CustomDefaultTTL(t *testing.T) {
	client, _ := setupTestRedis(t)

	cache := NewCache(client, CacheConfig{DefaultTTL: 5 * time.Minute})

	if cache.DefaultTTL() != 5*time.Minute {
		t.Errorf("expected default TTL of 5m, got %v", cache.DefaultTTL())
	}
}

func TestCache_SetGet(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error setting key: %v", err)
	}

	value, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error getting key: %v", err)
	}
	if value != "value-1" {
		t.Errorf("expected value-1, got %s", value)
	}
}

func TestCache_Get_Miss(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	_, err := cache.Get(ctx, "nonexistent")
	if err != domain.ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss, got %v", err)
	}
}

func TestCache_Set_DefaultTTLApplied(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	// ttl <= 0 must fall back to the default, never persist forever
	err := cache.Set(ctx, "key-1", "value-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ttl := mr.TTL("key-1")
	if ttl != time.Hour {
		t.Errorf("expected TTL of 1h, got %v", ttl)
	}
}

func TestCache_Set_NegativeTTLUsesDefault(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", -5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ttl := mr.TTL("key-1")
	if ttl != time.Hour {
		t.Errorf("expected TTL of 1h, got %v", ttl)
	}
}

func TestCache_Set_ExplicitTTL(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", 30*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ttl := mr.TTL("key-1")
	if ttl != 30*time.Second {
		t.Errorf("expected TTL of 30s, got %v", ttl)
	}
}

func TestCache_Expiration(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Still present before expiry
	_, err = cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error before expiry: %v", err)
	}

	// Fast-forward past the TTL
	mr.FastForward(3 * time.Second)

	_, err = cache.Get(ctx, "key-1")
	if err != domain.ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after expiry, got %v", err)
	}
}

func TestCache_Set_Overwrite(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "old", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = cache.Set(ctx, "key-1", "new", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "new" {
		t.Errorf("expected new, got %s", value)
	}
}

func TestCache_Delete(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = cache.Delete(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error deleting key: %v", err)
	}

	_, err = cache.Get(ctx, "key-1")
	if err != domain.ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestCache_Delete_NotFound(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	// Deleting an absent key should not error
	err := cache.Delete(ctx, "nonexistent")
	if err != nil {
		t.Errorf("unexpected error deleting absent key: %v", err)
	}
}

func TestCache_Exists(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	exists, err := cache.Exists(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected key to not exist")
	}

	err = cache.Set(ctx, "key-1", "value-1", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exists, err = cache.Exists(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected key to exist")
	}
}

func TestCache_Exists_AfterExpiry(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.FastForward(2 * time.Second)

	exists, err := cache.Exists(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected expired key to not exist")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	for _, key := range []string{"key-1", "key-2", "key-3"} {
		if err := cache.Set(ctx, key, "value", time.Minute); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	err := cache.Flush(ctx)
	if err != nil {
		t.Fatalf("unexpected error flushing: %v", err)
	}

	for _, key := range []string{"key-1", "key-2", "key-3"} {
		_, err := cache.Get(ctx, key)
		if err != domain.ErrCacheMiss {
			t.Errorf("expected ErrCacheMiss for %s after flush, got %v", key, err)
		}
	}
}

func TestCache_EmptyValue(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "", time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "" {
		t.Errorf("expected empty value, got %q", value)
	}
}

func TestCache_UnicodeValue(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx := context.Background()

	payload := `{"name":"café","emoji":"🚀"}`
	err := cache.Set(ctx, "key-1", payload, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	value, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != payload {
		t.Errorf("expected %q, got %q", payload, value)
	}
}

func TestCache_Get_RedisError(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	// Close miniredis to simulate Redis connection error
	mr.Close()

	ctx := context.Background()

	_, err := cache.Get(ctx, "key-1")
	if err == nil {
		t.Error("expected error when Redis is unavailable")
	}
	if err == domain.ErrCacheMiss {
		t.Error("expected Redis error, not ErrCacheMiss")
	}
}

func TestCache_Set_RedisError(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	mr.Close()

	ctx := context.Background()

	err := cache.Set(ctx, "key-1", "value-1", time.Minute)
	if err == nil {
		t.Error("expected error when Redis is unavailable")
	}
}

func TestCache_Exists_RedisError(t *testing.T) {
	cache, mr, cleanup := setupTestCache(t)
	defer cleanup()

	mr.Close()

	ctx := context.Background()

	_, err := cache.Exists(ctx, "key-1")
	if err == nil {
		t.Error("expected error when Redis is unavailable")
	}
}

func TestCache_ContextCancellation(t *testing.T) {
	cache, _, cleanup := setupTestCache(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := cache.Set(ctx, "key-1", "value-1", time.Minute)
	if err == nil {
		t.Error("expected error with cancelled context")
	}
}
