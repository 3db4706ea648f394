package driving

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// DocumentService drives documents through the ingestion pipeline
type DocumentService interface {
	// ProcessDocument runs the full ingestion pipeline for one file.
	// Returns true when every stage completed; failures are recorded in
	// the processing log rather than returned.
	ProcessDocument(ctx context.Context, filePath string) bool

	// Status returns the latest processing record per stage for a document
	Status(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error)

	// FailedDocuments lists document IDs whose last run failed
	FailedDocuments(ctx context.Context) ([]string, error)
}
