package driven

import (
	"context"
)

// EmbeddingService generates text embeddings
type EmbeddingService interface {
	// GenerateEmbedding generates an embedding for a single text.
	// The same text always produces a vector of the same dimension.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}
