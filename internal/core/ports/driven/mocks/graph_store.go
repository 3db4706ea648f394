package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockGraphStore records stored nodes and edges and serves configurable
// entity and keyword search hits
type MockGraphStore struct {
	mu    sync.Mutex
	nodes map[string]domain.GraphNode
	edges []domain.GraphEdge

	// EntityHits maps entity name to the hits returned for it
	EntityHits map[string][]domain.RetrievalHit

	// KeywordHits maps keyword to the hits returned for it
	KeywordHits map[string][]domain.RetrievalHit

	// Custom behavior hooks (optional)
	StoreNodeFn func(node domain.GraphNode) error
	StoreEdgeFn func(edge domain.GraphEdge) error

	// Call counters
	StoreNodeCalls int
	StoreEdgeCalls int
	SearchCalls    int
}

// NewMockGraphStore creates a new empty MockGraphStore
func NewMockGraphStore() *MockGraphStore {
	return &MockGraphStore{
		nodes:       make(map[string]domain.GraphNode),
		EntityHits:  make(map[string][]domain.RetrievalHit),
		KeywordHits: make(map[string][]domain.RetrievalHit),
	}
}

func (m *MockGraphStore) StoreNode(ctx context.Context, node domain.GraphNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreNodeCalls++

	if m.StoreNodeFn != nil {
		return m.StoreNodeFn(node)
	}
	m.nodes[node.ID] = node
	return nil
}

func (m *MockGraphStore) StoreEdge(ctx context.Context, edge domain.GraphEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreEdgeCalls++

	if m.StoreEdgeFn != nil {
		return m.StoreEdgeFn(edge)
	}
	m.edges = append(m.edges, edge)
	return nil
}

func (m *MockGraphStore) SearchEntities(ctx context.Context, name string) ([]domain.RetrievalHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	return m.EntityHits[name], nil
}

func (m *MockGraphStore) SearchKeywords(ctx context.Context, keyword string) ([]domain.RetrievalHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SearchCalls++
	return m.KeywordHits[keyword], nil
}

// Node returns the stored node with the given ID, if any
func (m *MockGraphStore) Node(id string) (domain.GraphNode, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.nodes[id]
	return n, ok
}

// NodeCount returns the number of distinct stored nodes
func (m *MockGraphStore) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// Edges returns a copy of all stored edges in insertion order
func (m *MockGraphStore) Edges() []domain.GraphEdge {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.GraphEdge, len(m.edges))
	copy(out, m.edges)
	return out
}

// EdgesByRelation returns stored edges with the given relation type
func (m *MockGraphStore) EdgesByRelation(relationType string) []domain.GraphEdge {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GraphEdge
	for _, e := range m.edges {
		if e.RelationType == relationType {
			out = append(out, e)
		}
	}
	return out
}
