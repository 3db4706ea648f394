package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// GraphStore persists the knowledge graph and answers traversal queries
type GraphStore interface {
	// StoreNode writes or updates a graph node
	StoreNode(ctx context.Context, node domain.GraphNode) error

	// StoreEdge writes a directed edge. Both endpoints must already
	// exist; the ingestion pipeline guarantees this by dropping
	// relationships whose endpoints were not stored.
	StoreEdge(ctx context.Context, edge domain.GraphEdge) error

	// SearchEntities returns hits for chunks related to an entity name
	SearchEntities(ctx context.Context, name string) ([]domain.RetrievalHit, error)

	// SearchKeywords returns hits for chunks related to a keyword
	SearchKeywords(ctx context.Context, keyword string) ([]domain.RetrievalHit, error)
}
