package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// janitorLockName is the lock coordinating cleanup across instances
const janitorLockName = "cache-janitor"

// Janitor periodically deletes expired rows from the durable cache
// tier. The fast tier expires entries on its own; the durable tier only
// filters expired rows at read time, so without the janitor they
// accumulate forever.
//
// For multi-instance deployments, configure a DistributedLock so only
// one instance performs each cleanup run.
type Janitor struct {
	cleaner driven.ExpiryCleaner
	lock    driven.DistributedLock
	logger  *slog.Logger

	// Internal state
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	interval time.Duration
	lockTTL  time.Duration
}

// JanitorConfig holds configuration for the janitor.
type JanitorConfig struct {
	Cleaner  driven.ExpiryCleaner
	Lock     driven.DistributedLock // Optional: skip runs another instance owns
	Logger   *slog.Logger
	Interval time.Duration // How often to clean up (default: 1h)
	LockTTL  time.Duration // TTL for the distributed lock (default: 2x interval)
}

// NewJanitor creates a new expiry janitor.
func NewJanitor(cfg JanitorConfig) *Janitor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	interval := cfg.Interval
	if interval == 0 {
		interval = time.Hour
	}

	lockTTL := cfg.LockTTL
	if lockTTL == 0 {
		lockTTL = 2 * interval
	}

	return &Janitor{
		cleaner:  cfg.Cleaner,
		lock:     cfg.Lock,
		logger:   logger,
		interval: interval,
		lockTTL:  lockTTL,
	}
}

// Start begins the cleanup loop. The first cleanup runs immediately,
// then on every tick. Calling Start on a running janitor is a no-op.
func (j *Janitor) Start(ctx context.Context) error {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return nil
	}
	j.running = true
	j.stopCh = make(chan struct{})
	j.doneCh = make(chan struct{})
	j.mu.Unlock()

	j.logger.Info("janitor starting", "interval", j.interval)

	go j.run(ctx)

	return nil
}

// Stop gracefully stops the janitor and waits for the loop to exit.
// Safe to call on a stopped janitor.
func (j *Janitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopCh)
	j.mu.Unlock()

	<-j.doneCh

	j.mu.Lock()
	j.running = false
	j.mu.Unlock()

	j.logger.Info("janitor stopped")
}

// run is the main cleanup loop.
func (j *Janitor) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// Run immediately on start
	j.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("janitor context cancelled")
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

// cleanup performs one cleanup run. Errors are logged and the loop
// continues; a failed run just leaves rows for the next one.
func (j *Janitor) cleanup(ctx context.Context) {
	if j.lock != nil {
		acquired, err := j.lock.Acquire(ctx, janitorLockName, j.lockTTL)
		if err != nil {
			j.logger.Warn("failed to acquire janitor lock", "error", err)
			return
		}
		if !acquired {
			j.logger.Debug("janitor lock held by another instance, skipping run")
			return
		}
		defer func() {
			if err := j.lock.Release(ctx, janitorLockName); err != nil {
				j.logger.Warn("failed to release janitor lock", "error", err)
			}
		}()
	}

	removed, err := j.cleaner.CleanupExpired(ctx)
	if err != nil {
		j.logger.Error("cache cleanup failed", "error", err)
		return
	}

	if removed > 0 {
		j.logger.Info("cleaned up expired cache entries", "removed", removed)
	} else {
		j.logger.Debug("no expired cache entries")
	}
}
