package domain

import "time"

// CacheEntry represents a row in the durable cache tier.
// ExpiresAt is nil for entries that never expire.
type CacheEntry struct {
	Key       string     `json:"key"`
	Value     string     `json:"value"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Expired reports whether the entry has an expiry in the past.
// Entries without an expiry never expire.
func (e *CacheEntry) Expired(now time.Time) bool {
	return e.ExpiresAt != nil && !e.ExpiresAt.After(now)
}
