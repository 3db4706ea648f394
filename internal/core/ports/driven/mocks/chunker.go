package mocks

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockChunker reads the file and splits its contents into fixed-size
// chunks for testing
type MockChunker struct {
	mu sync.Mutex

	// ChunkSize controls the default splitting behavior (runes per chunk)
	ChunkSize int

	// Custom behavior hook (optional)
	ChunkFn func(filePath string) ([]domain.Chunk, error)

	ChunkCalls int
}

// NewMockChunker creates a MockChunker with a small default chunk size
func NewMockChunker() *MockChunker {
	return &MockChunker{ChunkSize: 50}
}

func (m *MockChunker) ChunkDocument(ctx context.Context, filePath string) ([]domain.Chunk, error) {
	m.mu.Lock()
	m.ChunkCalls++
	m.mu.Unlock()

	if m.ChunkFn != nil {
		return m.ChunkFn(filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return nil, nil
	}

	size := m.ChunkSize
	if size <= 0 {
		size = 50
	}

	runes := []rune(trimmed)
	var chunks []domain.Chunk
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Text:  string(runes[i:end]),
		})
	}
	return chunks, nil
}
