package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDistributedLock is an in-memory DistributedLock for testing.
// Held locks expire against the real clock; the Fn hooks inject
// contention or backend failures.
type MockDistributedLock struct {
	mu     sync.Mutex
	expiry map[string]time.Time

	// Custom behavior hooks (optional)
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error

	// Call counters
	AcquireCalls int
	ReleaseCalls int
	ExtendCalls  int
}

// NewMockDistributedLock creates a new MockDistributedLock
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		expiry: make(map[string]time.Time),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.AcquireCalls++
	m.mu.Unlock()

	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if until, held := m.expiry[name]; held && time.Now().Before(until) {
		return false, nil
	}
	m.expiry[name] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name string) error {
	m.mu.Lock()
	m.ReleaseCalls++
	m.mu.Unlock()

	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.expiry, name)
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExtendCalls++

	until, held := m.expiry[name]
	if !held || time.Now().After(until) {
		return fmt.Errorf("lock %s is not held", name)
	}
	m.expiry[name] = time.Now().Add(ttl)
	return nil
}

// IsHeld reports whether a live hold exists for the name
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, held := m.expiry[name]
	return held && time.Now().Before(until)
}

// Reset clears all holds, hooks and counters
func (m *MockDistributedLock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.expiry = make(map[string]time.Time)
	m.AcquireFn = nil
	m.ReleaseFn = nil
	m.AcquireCalls = 0
	m.ReleaseCalls = 0
	m.ExtendCalls = 0
}
