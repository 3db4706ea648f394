package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// StoredVector captures a single StoreVector call for assertions
type StoredVector struct {
	Key      string
	Vector   []float32
	Metadata domain.ChunkMetadata
}

// MockVectorStore records stored vectors and serves configurable search hits
type MockVectorStore struct {
	mu      sync.Mutex
	vectors map[string]StoredVector

	// SearchHits is returned by SearchVectors in order
	SearchHits []domain.RetrievalHit

	// RejectKeys marks keys for which StoreVector reports not-stored
	// without returning an error
	RejectKeys map[string]bool

	// Custom behavior hooks (optional)
	StoreFn  func(key string, vector []float32, metadata domain.ChunkMetadata) (bool, error)
	SearchFn func(vector []float32) ([]domain.RetrievalHit, error)

	// Call counters
	StoreCalls  int
	SearchCalls int
}

// NewMockVectorStore creates a new empty MockVectorStore
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{
		vectors:    make(map[string]StoredVector),
		RejectKeys: make(map[string]bool),
	}
}

func (m *MockVectorStore) StoreVector(ctx context.Context, key string, vector []float32, metadata domain.ChunkMetadata) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreCalls++

	if m.StoreFn != nil {
		return m.StoreFn(key, vector, metadata)
	}
	if m.RejectKeys[key] {
		return false, nil
	}
	m.vectors[key] = StoredVector{Key: key, Vector: vector, Metadata: metadata}
	return true, nil
}

func (m *MockVectorStore) SearchVectors(ctx context.Context, vector []float32) ([]domain.RetrievalHit, error) {
	m.mu.Lock()
	m.SearchCalls++
	m.mu.Unlock()

	if m.SearchFn != nil {
		return m.SearchFn(vector)
	}
	return m.SearchHits, nil
}

// Stored returns the recorded vector for key, if any
func (m *MockVectorStore) Stored(key string) (StoredVector, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vectors[key]
	return v, ok
}

// StoredCount returns the number of vectors accepted so far
func (m *MockVectorStore) StoredCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.vectors)
}
