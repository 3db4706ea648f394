package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockCache is an in-memory Cache implementation for testing.
// Entries honour TTLs against the real clock; failure injection via the
// Fn hooks simulates backend outages.
type MockCache struct {
	mu      sync.RWMutex
	entries map[string]mockCacheEntry

	// Custom behavior hooks (optional)
	GetFn    func(key string) (string, error)
	SetFn    func(key, value string, ttl time.Duration) error
	DeleteFn func(key string) error
	ExistsFn func(key string) (bool, error)
	FlushFn  func() error

	// Call counters
	GetCalls    int
	SetCalls    int
	DeleteCalls int
	ExistsCalls int
	FlushCalls  int
}

type mockCacheEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// NewMockCache creates a new empty MockCache
func NewMockCache() *MockCache {
	return &MockCache{
		entries: make(map[string]mockCacheEntry),
	}
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	m.GetCalls++
	m.mu.Unlock()

	if m.GetFn != nil {
		return m.GetFn(key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(time.Now()) {
		return "", domain.ErrCacheMiss
	}
	return entry.value, nil
}

func (m *MockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetCalls++

	if m.SetFn != nil {
		return m.SetFn(key, value, ttl)
	}

	entry := mockCacheEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[key] = entry
	return nil
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++

	if m.DeleteFn != nil {
		return m.DeleteFn(key)
	}

	delete(m.entries, key)
	return nil
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	m.ExistsCalls++
	m.mu.Unlock()

	if m.ExistsFn != nil {
		return m.ExistsFn(key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return false, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(time.Now()) {
		return false, nil
	}
	return true, nil
}

func (m *MockCache) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++

	if m.FlushFn != nil {
		return m.FlushFn()
	}

	m.entries = make(map[string]mockCacheEntry)
	return nil
}

// Len returns the number of stored entries, expired or not
func (m *MockCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Reset clears all entries, hooks and counters
func (m *MockCache) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]mockCacheEntry)
	m.GetFn = nil
	m.SetFn = nil
	m.DeleteFn = nil
	m.ExistsFn = nil
	m.FlushFn = nil
	m.GetCalls = 0
	m.SetCalls = 0
	m.DeleteCalls = 0
	m.ExistsCalls = 0
	m.FlushCalls = 0
}

// MockDurableCache extends MockCache with the durable-tier operations
type MockDurableCache struct {
	MockCache

	// Custom behavior hooks (optional)
	CleanupFn func() (int64, error)
	EntryFn   func(key string) (*domain.CacheEntry, error)

	CleanupCalls int
}

// NewMockDurableCache creates a new empty MockDurableCache
func NewMockDurableCache() *MockDurableCache {
	m := &MockDurableCache{}
	m.entries = make(map[string]mockCacheEntry)
	return m
}

func (m *MockDurableCache) Entry(ctx context.Context, key string) (*domain.CacheEntry, error) {
	if m.EntryFn != nil {
		return m.EntryFn(key)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec := &domain.CacheEntry{Key: key, Value: entry.value}
	if !entry.expiresAt.IsZero() {
		expires := entry.expiresAt
		rec.ExpiresAt = &expires
	}
	return rec, nil
}

func (m *MockDurableCache) CleanupExpired(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleanupCalls++

	if m.CleanupFn != nil {
		return m.CleanupFn()
	}

	var removed int64
	now := time.Now()
	for key, entry := range m.entries {
		if !entry.expiresAt.IsZero() && !entry.expiresAt.After(now) {
			delete(m.entries, key)
			removed++
		}
	}
	return removed, nil
}
