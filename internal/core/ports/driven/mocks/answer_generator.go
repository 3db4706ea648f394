package mocks

import (
	"context"
	"sync"
)

// MockAnswerGenerator returns a fixed answer and captures the context
// block it was handed so tests can assert on prompt assembly
type MockAnswerGenerator struct {
	mu sync.Mutex

	// Answer is returned by both generation methods when no hook is set
	Answer string

	// Custom behavior hooks (optional)
	GenerateFn func(query, contextBlock string) (string, error)
	DirectFn   func(query string) (string, error)

	// Captured inputs
	LastQuery   string
	LastContext string

	// Call counters
	GenerateCalls int
	DirectCalls   int
}

// NewMockAnswerGenerator creates a generator with a placeholder answer
func NewMockAnswerGenerator() *MockAnswerGenerator {
	return &MockAnswerGenerator{Answer: "mock answer"}
}

func (m *MockAnswerGenerator) GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.LastQuery = query
	m.LastContext = contextBlock
	m.mu.Unlock()

	if m.GenerateFn != nil {
		return m.GenerateFn(query, contextBlock)
	}
	return m.Answer, nil
}

func (m *MockAnswerGenerator) GenerateDirectAnswer(ctx context.Context, query string) (string, error) {
	m.mu.Lock()
	m.DirectCalls++
	m.LastQuery = query
	m.mu.Unlock()

	if m.DirectFn != nil {
		return m.DirectFn(query)
	}
	return m.Answer, nil
}
