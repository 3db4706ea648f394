package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// ProcessingLog records document pipeline progress.
// The log is append-only: observations are added in pipeline order and
// never modified, so the full history of a run stays inspectable.
type ProcessingLog interface {
	// Record appends one observation
	Record(ctx context.Context, record domain.ProcessingRecord) error

	// History returns all records for a document in insertion order
	History(ctx context.Context, documentID string) ([]domain.ProcessingRecord, error)

	// LatestByStage returns the most recent record per stage for a document.
	// Returns domain.ErrNotFound when the document has no records at all.
	LatestByStage(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error)

	// FailedDocuments lists document IDs whose most recent overall
	// record is failed.
	FailedDocuments(ctx context.Context) ([]string, error)
}
