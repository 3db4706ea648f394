package driving

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// QueryService answers user queries over the ingested corpus
type QueryService interface {
	// ProcessQuery runs the query pipeline in the given mode.
	// It never returns an error: failures are captured in the result's
	// Error field so callers always get the query, mode and timing back.
	ProcessQuery(ctx context.Context, query string, mode domain.QueryMode) *domain.QueryResult
}
