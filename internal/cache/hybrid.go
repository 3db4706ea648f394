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

// Verify interface compliance
var (
	_ driven.Cache         = (*Hybrid)(nil)
	_ driven.ExpiryCleaner = (*Hybrid)(nil)
)

// HybridConfig holds configuration for the two-tier cache
type HybridConfig struct {
	// BackfillTTL is the fast-tier TTL applied when a durable hit
	// repopulates the fast tier. Zero lets the fast tier apply its
	// own default.
	BackfillTTL time.Duration

	// Logger for tier degradation events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Hybrid is a two-tier cache: a volatile fast tier in front of a
// durable tier. Reads try the fast tier first and fall back to the
// durable tier, backfilling the fast tier on the way out. Writes go to
// both tiers.
//
// Tier outages degrade reads instead of failing them: a broken fast
// tier is skipped, a broken durable tier turns the read into a miss.
// Writes report tier failures to the caller, who decides whether a
// lost cache write matters.
type Hybrid struct {
	fast        driven.Cache
	durable     driven.DurableCache
	backfillTTL time.Duration
	logger      *slog.Logger
}

// NewHybrid creates a two-tier cache over the given tiers
func NewHybrid(fast driven.Cache, durable driven.DurableCache, config HybridConfig) *Hybrid {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hybrid{
		fast:        fast,
		durable:     durable,
		backfillTTL: config.BackfillTTL,
		logger:      logger,
	}
}

// Get retrieves a value, trying the fast tier first.
//
// A durable-tier hit backfills the fast tier best-effort, so a value
// evicted from the fast tier (expiry, restart) is resurrected by the
// next read for as long as the durable row is live. Returns
// domain.ErrCacheMiss when neither tier has a live value.
func (h *Hybrid) Get(ctx context.Context, key string) (string, error) {
	value, err := h.fast.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		h.logger.Warn("fast tier read failed, falling back to durable tier",
			"key", key, "error", err)
	}

	value, err = h.durable.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			h.logger.Warn("durable tier read failed, treating as miss",
				"key", key, "error", err)
		}
		return "", domain.ErrCacheMiss
	}

	if backfillErr := h.fast.Set(ctx, key, value, h.backfillTTL); backfillErr != nil {
		h.logger.Warn("fast tier backfill failed",
			"key", key, "error", backfillErr)
	}

	return value, nil
}

// Set writes the value to both tiers, fast first.
//
// The ttl is handed to each tier unchanged: the fast tier substitutes
// its default for ttl <= 0 while the durable tier stores the entry
// without expiry. Both writes are always attempted; an error from
// either tier is returned after both have run.
func (h *Hybrid) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	fastErr := h.fast.Set(ctx, key, value, ttl)
	durableErr := h.durable.Set(ctx, key, value, ttl)

	switch {
	case fastErr != nil && durableErr != nil:
		return fmt.Errorf("set %s failed in both tiers: fast: %v, durable: %v", key, fastErr, durableErr)
	case fastErr != nil:
		return fmt.Errorf("set %s failed in fast tier: %w", key, fastErr)
	case durableErr != nil:
		return fmt.Errorf("set %s failed in durable tier: %w", key, durableErr)
	}
	return nil
}

// Delete removes the key from both tiers.
// Both deletes are always attempted so a durable copy cannot
// resurrect a key the fast tier already dropped.
func (h *Hybrid) Delete(ctx context.Context, key string) error {
	fastErr := h.fast.Delete(ctx, key)
	durableErr := h.durable.Delete(ctx, key)

	switch {
	case fastErr != nil && durableErr != nil:
		return fmt.Errorf("delete %s failed in both tiers: fast: %v, durable: %v", key, fastErr, durableErr)
	case fastErr != nil:
		return fmt.Errorf("delete %s failed in fast tier: %w", key, fastErr)
	case durableErr != nil:
		return fmt.Errorf("delete %s failed in durable tier: %w", key, durableErr)
	}
	return nil
}

// Exists reports whether either tier holds a live value for the key.
// Tier failures degrade to false rather than erroring.
func (h *Hybrid) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := h.fast.Exists(ctx, key)
	if err != nil {
		h.logger.Warn("fast tier exists check failed",
			"key", key, "error", err)
	} else if exists {
		return true, nil
	}

	exists, err = h.durable.Exists(ctx, key)
	if err != nil {
		h.logger.Warn("durable tier exists check failed",
			"key", key, "error", err)
		return false, nil
	}
	return exists, nil
}

// Flush clears both tiers
func (h *Hybrid) Flush(ctx context.Context) error {
	fastErr := h.fast.Flush(ctx)
	durableErr := h.durable.Flush(ctx)

	switch {
	case fastErr != nil && durableErr != nil:
		return fmt.Errorf("flush failed in both tiers: fast: %v, durable: %v", fastErr, durableErr)
	case fastErr != nil:
		return fmt.Errorf("flush failed in fast tier: %w", fastErr)
	case durableErr != nil:
		return fmt.Errorf("flush failed in durable tier: %w", durableErr)
	}
	return nil
}

// CleanupExpired sweeps expired rows from the durable tier and returns
// the number removed. The fast tier expires entries on its own.
func (h *Hybrid) CleanupExpired(ctx context.Context) (int64, error) {
	return h.durable.CleanupExpired(ctx)
}
