package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
)

// MockProcessingLog is an append-only in-memory ProcessingLog
type MockProcessingLog struct {
	mu      sync.Mutex
	records []domain.ProcessingRecord

	// Custom behavior hook (optional)
	RecordFn func(record domain.ProcessingRecord) error

	RecordCalls int
}

// NewMockProcessingLog creates a new empty MockProcessingLog
func NewMockProcessingLog() *MockProcessingLog {
	return &MockProcessingLog{}
}

func (m *MockProcessingLog) Record(ctx context.Context, record domain.ProcessingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordCalls++

	if m.RecordFn != nil {
		return m.RecordFn(record)
	}
	m.records = append(m.records, record)
	return nil
}

func (m *MockProcessingLog) History(ctx context.Context, documentID string) ([]domain.ProcessingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.ProcessingRecord
	for _, r := range m.records {
		if r.DocumentID == documentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockProcessingLog) LatestByStage(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := make(map[domain.ProcessingStage]domain.ProcessingRecord)
	for _, r := range m.records {
		if r.DocumentID == documentID {
			latest[r.Stage] = r
		}
	}
	if len(latest) == 0 {
		return nil, domain.ErrNotFound
	}
	return latest, nil
}

func (m *MockProcessingLog) FailedDocuments(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	overall := make(map[string]domain.ProcessingStatus)
	var order []string
	for _, r := range m.records {
		if r.Stage != domain.StageOverall {
			continue
		}
		if _, seen := overall[r.DocumentID]; !seen {
			order = append(order, r.DocumentID)
		}
		overall[r.DocumentID] = r.Status
	}

	var failed []string
	for _, id := range order {
		if overall[id] == domain.ProcessingFailed {
			failed = append(failed, id)
		}
	}
	return failed, nil
}

// Records returns a copy of all recorded observations in order
func (m *MockProcessingLog) Records() []domain.ProcessingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ProcessingRecord, len(m.records))
	copy(out, m.records)
	return out
}

// RecordsForStage returns all records for a document and stage in order
func (m *MockProcessingLog) RecordsForStage(documentID string, stage domain.ProcessingStage) []domain.ProcessingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ProcessingRecord
	for _, r := range m.records {
		if r.DocumentID == documentID && r.Stage == stage {
			out = append(out, r)
		}
	}
	return out
}

// LastRecord returns the most recent record for a document and stage
func (m *MockProcessingLog) LastRecord(documentID string, stage domain.ProcessingStage) (domain.ProcessingRecord, bool) {
	records := m.RecordsForStage(documentID, stage)
	if len(records) == 0 {
		return domain.ProcessingRecord{}, false
	}
	return records[len(records)-1], true
}
