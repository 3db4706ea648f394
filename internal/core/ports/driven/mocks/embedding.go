package mocks

import (
	"context"
	"hash/fnv"
	"sync"
)

const mockEmbeddingDims = 384

// MockEmbeddingService is a deterministic EmbeddingService for testing.
// The same text always embeds to the same vector, so content-addressed
// cache keys stay stable across a test run.
type MockEmbeddingService struct {
	mu sync.Mutex

	// Custom behavior hook (optional)
	GenerateFn func(text string) ([]float32, error)

	GenerateCalls int
}

// NewMockEmbeddingService creates a new MockEmbeddingService
func NewMockEmbeddingService() *MockEmbeddingService {
	return &MockEmbeddingService{}
}

func (m *MockEmbeddingService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(text)
	}

	// Seed a tiny LCG from the text so each text maps to its own
	// repeatable vector
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	vec := make([]float32, mockEmbeddingDims)
	for i := range vec {
		state = state*6364136223846793005 + 1442695040888963407
		vec[i] = float32(state>>40) / float32(1<<24)
	}
	return vec, nil
}
