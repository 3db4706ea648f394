package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockEntityExtractor returns canned entities and relationships keyed by
// substrings of the input text. When no canned answer matches it falls
// back to a simple capitalised-word heuristic so pipeline tests get
// plausible output without configuring anything.
type MockEntityExtractor struct {
	mu sync.Mutex

	// Entities maps a substring to the entities returned for any text
	// containing that substring
	Entities map[string][]domain.Entity

	// Relationships returned by ExtractRelationships regardless of input
	Relationships []domain.Relationship

	// Keywords returned by ExtractKeywords; nil falls back to splitting
	// the input on whitespace
	Keywords []string

	// Custom behavior hooks (optional)
	EntitiesFn      func(text string) ([]domain.Entity, error)
	RelationshipsFn func(prev, next []domain.Entity) ([]domain.Relationship, error)
	KeywordsFn      func(text string) ([]string, error)

	// Call counters
	EntitiesCalls      int
	RelationshipsCalls int
	KeywordsCalls      int
}

// NewMockEntityExtractor creates an extractor with no canned answers
func NewMockEntityExtractor() *MockEntityExtractor {
	return &MockEntityExtractor{
		Entities: make(map[string][]domain.Entity),
	}
}

func (m *MockEntityExtractor) ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error) {
	m.mu.Lock()
	m.EntitiesCalls++
	m.mu.Unlock()

	if m.EntitiesFn != nil {
		return m.EntitiesFn(text)
	}

	for substr, entities := range m.Entities {
		if strings.Contains(text, substr) {
			return entities, nil
		}
	}

	// Fallback: every capitalised word becomes a Concept entity
	var entities []domain.Entity
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		word = strings.Trim(word, ".,;:!?")
		if word == "" || seen[word] {
			continue
		}
		if word[0] >= 'A' && word[0] <= 'Z' {
			seen[word] = true
			entities = append(entities, domain.Entity{
				Name:       word,
				Type:       "Concept",
				Confidence: 0.5,
			})
		}
	}
	return entities, nil
}

func (m *MockEntityExtractor) ExtractRelationships(ctx context.Context, prev, next []domain.Entity) ([]domain.Relationship, error) {
	m.mu.Lock()
	m.RelationshipsCalls++
	m.mu.Unlock()

	if m.RelationshipsFn != nil {
		return m.RelationshipsFn(prev, next)
	}
	return m.Relationships, nil
}

func (m *MockEntityExtractor) ExtractKeywords(ctx context.Context, text string) ([]string, error) {
	m.mu.Lock()
	m.KeywordsCalls++
	m.mu.Unlock()

	if m.KeywordsFn != nil {
		return m.KeywordsFn(text)
	}
	if m.Keywords != nil {
		return m.Keywords, nil
	}
	return strings.Fields(strings.ToLower(text)), nil
}
