package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ProcessingLog = (*ProcessingLog)(nil)

// ProcessingLog implements driven.ProcessingLog using PostgreSQL.
// Every observation is a new row; the insertion-ordered id column
// decides which record is latest for a stage.
type ProcessingLog struct {
	db *DB
}

// NewProcessingLog creates a new ProcessingLog
func NewProcessingLog(db *DB) *ProcessingLog {
	return &ProcessingLog{db: db}
}

// Record appends one observation
func (l *ProcessingLog) Record(ctx context.Context, record domain.ProcessingRecord) error {
	metadataJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO processing_records (document_id, stage, status, error, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = l.db.ExecContext(ctx, query,
		record.DocumentID,
		record.Stage,
		record.Status,
		record.Error,
		metadataJSON,
		record.Timestamp,
	)
	return err
}

// History returns all records for a document in insertion order
func (l *ProcessingLog) History(ctx context.Context, documentID string) ([]domain.ProcessingRecord, error) {
	query := `
		SELECT document_id, stage, status, error, metadata, created_at
		FROM processing_records
		WHERE document_id = $1
		ORDER BY id
	`

	rows, err := l.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanRecords(rows)
}

// LatestByStage returns the most recent record per stage for a document.
// Returns domain.ErrNotFound when the document has no records at all.
func (l *ProcessingLog) LatestByStage(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error) {
	query := `
		SELECT DISTINCT ON (stage) document_id, stage, status, error, metadata, created_at
		FROM processing_records
		WHERE document_id = $1
		ORDER BY stage, id DESC
	`

	rows, err := l.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := l.scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.ErrNotFound
	}

	latest := make(map[domain.ProcessingStage]domain.ProcessingRecord, len(records))
	for _, record := range records {
		latest[record.Stage] = record
	}
	return latest, nil
}

// FailedDocuments lists document IDs whose most recent overall record
// is failed
func (l *ProcessingLog) FailedDocuments(ctx context.Context) ([]string, error) {
	query := `
		SELECT document_id FROM (
			SELECT DISTINCT ON (document_id) document_id, status
			FROM processing_records
			WHERE stage = $1
			ORDER BY document_id, id DESC
		) latest
		WHERE status = $2
	`

	rows, err := l.db.QueryContext(ctx, query, domain.StageOverall, domain.ProcessingFailed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

func (l *ProcessingLog) scanRecords(rows *sql.Rows) ([]domain.ProcessingRecord, error) {
	var records []domain.ProcessingRecord
	for rows.Next() {
		var record domain.ProcessingRecord
		var metadataJSON []byte

		err := rows.Scan(
			&record.DocumentID,
			&record.Stage,
			&record.Status,
			&record.Error,
			&metadataJSON,
			&record.Timestamp,
		)
		if err != nil {
			return nil, err
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, err
			}
		}

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
