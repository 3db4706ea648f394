package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockDocumentStatusStore is an in-memory DocumentStatusStore
type MockDocumentStatusStore struct {
	mu       sync.Mutex
	statuses map[string]*domain.DocumentStatusRecord

	// Custom behavior hook (optional)
	UpdateFn func(documentID string, status domain.DocumentStatus, metadata map[string]any) error

	UpdateCalls int
}

// NewMockDocumentStatusStore creates a new empty MockDocumentStatusStore
func NewMockDocumentStatusStore() *MockDocumentStatusStore {
	return &MockDocumentStatusStore{
		statuses: make(map[string]*domain.DocumentStatusRecord),
	}
}

func (m *MockDocumentStatusStore) UpdateStatus(ctx context.Context, documentID string, status domain.DocumentStatus, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++

	if m.UpdateFn != nil {
		return m.UpdateFn(documentID, status, metadata)
	}
	m.statuses[documentID] = &domain.DocumentStatusRecord{
		DocumentID: documentID,
		Status:     status,
		Metadata:   metadata,
		UpdatedAt:  time.Now(),
	}
	return nil
}

func (m *MockDocumentStatusStore) GetStatus(ctx context.Context, documentID string) (*domain.DocumentStatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.statuses[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (m *MockDocumentStatusStore) ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]*domain.DocumentStatusRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*domain.DocumentStatusRecord
	for _, rec := range m.statuses {
		if rec.Status == status {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}
