package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStatusStore = (*StatusStore)(nil)

// StatusStore implements driven.DocumentStatusStore using PostgreSQL
type StatusStore struct {
	db *DB
}

// NewStatusStore creates a new StatusStore
func NewStatusStore(db *DB) *StatusStore {
	return &StatusStore{db: db}
}

// UpdateStatus upserts the status row for a document
func (s *StatusStore) UpdateStatus(ctx context.Context, documentID string, status domain.DocumentStatus, metadata map[string]any) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO document_status (document_id, status, metadata, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (document_id) DO UPDATE SET
			status = EXCLUDED.status,
			metadata = EXCLUDED.metadata,
			updated_at = NOW()
	`

	_, err = s.db.ExecContext(ctx, query, documentID, status, metadataJSON)
	return err
}

// GetStatus retrieves the current status row for a document
func (s *StatusStore) GetStatus(ctx context.Context, documentID string) (*domain.DocumentStatusRecord, error) {
	query := `
		SELECT document_id, status, metadata, updated_at
		FROM document_status
		WHERE document_id = $1
	`

	return s.scanStatus(s.db.QueryRowContext(ctx, query, documentID))
}

// ListByStatus returns all documents currently in the given status
func (s *StatusStore) ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]*domain.DocumentStatusRecord, error) {
	query := `
		SELECT document_id, status, metadata, updated_at
		FROM document_status
		WHERE status = $1
		ORDER BY updated_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DocumentStatusRecord
	for rows.Next() {
		var record domain.DocumentStatusRecord
		var metadataJSON []byte

		err := rows.Scan(
			&record.DocumentID,
			&record.Status,
			&metadataJSON,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
				return nil, err
			}
		}

		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *StatusStore) scanStatus(row *sql.Row) (*domain.DocumentStatusRecord, error) {
	var record domain.DocumentStatusRecord
	var metadataJSON []byte

	err := row.Scan(
		&record.DocumentID,
		&record.Status,
		&metadataJSON,
		&record.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &record.Metadata); err != nil {
			return nil, err
		}
	}

	return &record, nil
}
