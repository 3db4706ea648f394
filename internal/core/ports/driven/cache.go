package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// Cache is the operation surface shared by every cache layer: the fast
// tier, the durable tier and the hybrid composition of the two.
type Cache interface {
	// Get retrieves the value for a key.
	// Returns domain.ErrCacheMiss when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Set stores a value under a key. A ttl of zero selects the layer's
	// default behaviour: the fast tier applies its default TTL, the
	// durable tier stores the entry without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a live (non-expired) entry exists for the key.
	Exists(ctx context.Context, key string) (bool, error)

	// Flush removes all entries.
	Flush(ctx context.Context) error
}

// DurableCache is the persistent second tier backed by SQL. Expired rows
// are invisible to Get and Exists even before cleanup runs.
type DurableCache interface {
	Cache

	// Entry returns the raw stored row regardless of expiry, for
	// inspection tooling.
	Entry(ctx context.Context, key string) (*domain.CacheEntry, error)

	// CleanupExpired deletes rows whose expiry has passed and returns
	// how many were removed.
	CleanupExpired(ctx context.Context) (int64, error)
}

// ExpiryCleaner is the janitor-facing slice of the durable tier.
type ExpiryCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}
