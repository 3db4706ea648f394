package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DurableCache = (*CacheStore)(nil)

// CacheStore implements driven.DurableCache using PostgreSQL.
//
// Unlike the Redis tier, expiry is evaluated at read time: expired rows
// stay in the table until CleanupExpired sweeps them, but reads never
// return them. A ttl <= 0 stores the entry without an expiry, which is
// how long-lived artifacts (embeddings, extraction results) survive
// fast-tier eviction.
type CacheStore struct {
	db *DB
}

// NewCacheStore creates a new CacheStore
func NewCacheStore(db *DB) *CacheStore {
	return &CacheStore{db: db}
}

// Get retrieves a live value by key.
// Returns domain.ErrCacheMiss when the key is absent or expired.
func (s *CacheStore) Get(ctx context.Context, key string) (string, error) {
	query := `
		SELECT value
		FROM cache_entries
		WHERE key = $1
		  AND (expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP)
	`

	var value string
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores a value. A ttl <= 0 means the entry never expires.
func (s *CacheStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt *time.Time
	if ttl > 0 {
		t := time.Now().Add(ttl)
		expiresAt = &t
	}

	query := `
		INSERT INTO cache_entries (key, value, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			expires_at = EXCLUDED.expires_at,
			updated_at = NOW()
	`

	_, err := s.db.ExecContext(ctx, query, key, value, NullTime(expiresAt))
	return err
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *CacheStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM cache_entries WHERE key = $1`
	_, err := s.db.ExecContext(ctx, query, key)
	return err
}

// Exists reports whether a live entry exists for the key
func (s *CacheStore) Exists(ctx context.Context, key string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM cache_entries
			WHERE key = $1
			  AND (expires_at IS NULL OR expires_at > CURRENT_TIMESTAMP)
		)
	`

	var exists bool
	err := s.db.QueryRowContext(ctx, query, key).Scan(&exists)
	return exists, err
}

// Flush removes all entries
func (s *CacheStore) Flush(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries`)
	return err
}

// Entry returns the raw stored row for a key, expired or not.
// Inspection tooling uses this to see entries that reads will refuse.
// Returns domain.ErrNotFound when no row exists.
func (s *CacheStore) Entry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	query := `
		SELECT key, value, expires_at, created_at, updated_at
		FROM cache_entries
		WHERE key = $1
	`

	var entry domain.CacheEntry
	var expiresAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&entry.Key,
		&entry.Value,
		&expiresAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	entry.ExpiresAt = TimePtr(expiresAt)

	return &entry, nil
}

// CleanupExpired deletes rows whose expiry has passed and returns the
// number removed. Rows with a NULL expiry are never touched.
func (s *CacheStore) CleanupExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM cache_entries WHERE expires_at < CURRENT_TIMESTAMP`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
