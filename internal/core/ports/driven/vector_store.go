package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// VectorStore persists chunk embeddings and answers similarity queries
type VectorStore interface {
	// StoreVector stores one embedding under the chunk key. A false
	// return means the store declined the write without failing (the
	// chunk is skipped); an error aborts the storage stage.
	StoreVector(ctx context.Context, key string, vector []float32, metadata domain.ChunkMetadata) (bool, error)

	// SearchVectors returns stored chunks ranked by similarity to the
	// query vector.
	SearchVectors(ctx context.Context, vector []float32) ([]domain.RetrievalHit, error)
}
