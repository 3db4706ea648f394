package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Typed is a namespaced, typed view over a string cache. Keys take the
// form "{namespace}:{subkey}" and values pass through the namespace's
// codec, so callers never handle raw strings or cast blindly.
//
// Get deliberately collapses every failure into a miss: absent keys,
// tier outages and undecodable payloads all return (zero, false).
// Cached data is an optimization, never a source of truth, so callers
// only need to know whether to recompute.
type Typed[T any] struct {
	cache     driven.Cache
	namespace string
	codec     Codec[T]
	logger    *slog.Logger
}

// NewTyped creates a typed view for one namespace
func NewTyped[T any](cache driven.Cache, namespace string, codec Codec[T], logger *slog.Logger) *Typed[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Typed[T]{
		cache:     cache,
		namespace: namespace,
		codec:     codec,
		logger:    logger,
	}
}

// Key returns the full cache key for a subkey
func (t *Typed[T]) Key(subkey string) string {
	return t.namespace + ":" + subkey
}

// Get retrieves and decodes the value for a subkey.
// The second return is false on miss, backend failure or decode
// failure; non-miss problems are logged.
func (t *Typed[T]) Get(ctx context.Context, subkey string) (T, bool) {
	var zero T

	key := t.Key(subkey)
	raw, err := t.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			t.logger.Warn("typed cache read failed", "key", key, "error", err)
		}
		return zero, false
	}

	value, err := t.codec.Unmarshal([]byte(raw))
	if err != nil {
		t.logger.Warn("typed cache entry is not decodable", "key", key, "error", err)
		return zero, false
	}

	return value, true
}

// Set encodes and stores the value under a subkey
func (t *Typed[T]) Set(ctx context.Context, subkey string, value T, ttl time.Duration) error {
	key := t.Key(subkey)
	data, err := t.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	return t.cache.Set(ctx, key, string(data), ttl)
}

// Delete removes the value for a subkey
func (t *Typed[T]) Delete(ctx context.Context, subkey string) error {
	return t.cache.Delete(ctx, t.Key(subkey))
}
