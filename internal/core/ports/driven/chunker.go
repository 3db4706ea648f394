package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// Chunker splits documents into ordered chunks
type Chunker interface {
	// ChunkDocument reads the file and splits its text into ordered chunks.
	// An empty result means the document yielded no usable text.
	ChunkDocument(ctx context.Context, filePath string) ([]domain.Chunk, error)
}
