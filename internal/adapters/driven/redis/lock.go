package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockKeyPrefix = "ragna:lock:"

// Redis-side ownership checks. Release and extend only act when the
// stored token matches the caller's, so an expired lock taken over by
// another instance is never touched.
var (
	lockReleaseScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0
	`)

	lockExtendScript = redis.NewScript(`
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("PEXPIRE", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Lock implements driven.DistributedLock with Redis SET NX.
//
// Each successful Acquire stores a fresh random token as the lock
// value and remembers it locally; Release and Extend pass that token
// to the ownership scripts. Tokens are per acquisition, not per
// instance, so a lock lost to expiry and re-acquired elsewhere cannot
// be released by its previous holder.
type Lock struct {
	client *redis.Client

	mu   sync.Mutex
	held map[string]string // lock name -> token
}

// NewLock creates a Redis-backed distributed lock
func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client: client,
		held:   make(map[string]string),
	}
}

// Acquire takes the named lock for at most ttl.
// Returns false when another holder has it.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	token := newToken()

	ok, err := l.client.SetNX(ctx, lockKeyPrefix+name, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.held[name] = token
	l.mu.Unlock()
	return true, nil
}

// Release frees the named lock if this instance still holds it
func (l *Lock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	token, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()

	if !ok {
		return nil
	}

	_, err := lockReleaseScript.Run(ctx, l.client, []string{lockKeyPrefix + name}, token).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

// Extend pushes the expiry of a held lock out to ttl from now
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	token, ok := l.held[name]
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("lock %s is not held", name)
	}

	result, err := lockExtendScript.Run(ctx, l.client,
		[]string{lockKeyPrefix + name}, token, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("failed to extend lock %s: %w", name, err)
	}
	if extended, _ := result.(int64); extended == 0 {
		// Expired between acquire and extend; drop the stale token
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
		return fmt.Errorf("lock %s expired before extend", name)
	}
	return nil
}

// newToken returns a random acquisition token
func newToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
