package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements driven.DistributedLock with PostgreSQL
// advisory locks, for deployments that run without Redis.
//
// Advisory locks are session-scoped, so each held lock pins a
// dedicated connection from the pool until released; losing that
// connection releases the lock. There is no TTL: Acquire ignores the
// ttl argument and Extend is a no-op, which is safe for the janitor's
// short cleanup runs but makes the Redis lock the better choice when
// both backends are available.
type AdvisoryLock struct {
	db *DB

	mu   sync.Mutex
	held map[string]*sql.Conn // lock name -> pinned session
}

// NewAdvisoryLock creates an advisory-lock adapter over the given pool
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{
		db:   db,
		held: make(map[string]*sql.Conn),
	}
}

// Acquire takes the named lock without blocking.
// Returns false when another session holds it.
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	_, already := l.held[name]
	l.mu.Unlock()
	if already {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to pin connection for lock %s: %w", name, err)
	}

	var acquired bool
	err = conn.QueryRowContext(ctx, `SELECT pg_try_advisory_lock($1)`, lockKey(name)).Scan(&acquired)
	if err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to acquire lock %s: %w", name, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.mu.Lock()
	l.held[name] = conn
	l.mu.Unlock()
	return true, nil
}

// Release frees the named lock and returns its connection to the pool
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	l.mu.Lock()
	conn, ok := l.held[name]
	delete(l.held, name)
	l.mu.Unlock()

	if !ok {
		return nil
	}
	defer conn.Close()

	var released bool
	err := conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, lockKey(name)).Scan(&released)
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", name, err)
	}
	return nil
}

// Extend is a no-op: advisory locks have no expiry to push out
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// lockKey folds a lock name into the int64 key space advisory locks
// require
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("ragna:lock:" + name))
	return int64(h.Sum64())
}
