package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// EntityExtractor pulls structured knowledge out of text.
// Implementations are typically LLM-backed and therefore slow; callers
// cache extraction results by content hash.
type EntityExtractor interface {
	// ExtractEntities returns the named entities found in the text
	ExtractEntities(ctx context.Context, text string) ([]domain.Entity, error)

	// ExtractRelationships relates entities from two adjacent chunks.
	// Only adjacent chunks are ever passed; cross-document or skip-level
	// relationships are not part of the ingestion model.
	ExtractRelationships(ctx context.Context, prev, next []domain.Entity) ([]domain.Relationship, error)

	// ExtractKeywords returns salient keywords for a query
	ExtractKeywords(ctx context.Context, text string) ([]string, error)
}
