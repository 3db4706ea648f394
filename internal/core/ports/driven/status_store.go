package driven

import (
	"context"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// DocumentStatusStore tracks the coarse lifecycle status of documents
// in the index (the external engine's view, as opposed to the
// stage-level processing log).
type DocumentStatusStore interface {
	// UpdateStatus upserts the status row for a document
	UpdateStatus(ctx context.Context, documentID string, status domain.DocumentStatus, metadata map[string]any) error

	// GetStatus returns the current status row for a document.
	// Returns domain.ErrNotFound for unknown documents.
	GetStatus(ctx context.Context, documentID string) (*domain.DocumentStatusRecord, error)

	// ListByStatus returns all documents currently in the given status
	ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]*domain.DocumentStatusRecord, error)
}
