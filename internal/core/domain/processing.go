package domain

import "time"

// ProcessingStage identifies a step of the document ingestion pipeline
type ProcessingStage string

const (
	StageStart               ProcessingStage = "start"
	StageChunking            ProcessingStage = "chunking"
	StageEntityExtraction    ProcessingStage = "entity_extraction"
	StageEmbeddingGeneration ProcessingStage = "embedding_generation"
	StageVectorStorage       ProcessingStage = "vector_storage"
	StageGraphStorage        ProcessingStage = "graph_storage"
	StageIndexing            ProcessingStage = "indexing"

	// StageOverall is the terminal record summarising the whole run
	StageOverall ProcessingStage = "overall"
)

// ProcessingStatus represents the state of a pipeline stage
type ProcessingStatus string

const (
	ProcessingInProgress ProcessingStatus = "in_progress"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// ProcessingRecord is one append-only observation of pipeline progress.
// Records are never updated in place; a stage that starts and later
// completes produces two records.
type ProcessingRecord struct {
	// DocumentID is the deterministic ID of the document being processed
	DocumentID string `json:"document_id"`

	// Stage is the pipeline step this record describes
	Stage ProcessingStage `json:"stage"`

	// Status is the observed state of the stage
	Status ProcessingStatus `json:"status"`

	// Timestamp is when the observation was made
	Timestamp time.Time `json:"timestamp"`

	// Error holds the failure message for failed stages
	Error string `json:"error,omitempty"`

	// Metadata carries stage-specific counts (chunk_count, entity_count, ...)
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DocumentStatus is the coarse lifecycle state of a document in the index
type DocumentStatus string

const (
	DocumentPending    DocumentStatus = "pending"
	DocumentProcessing DocumentStatus = "processing"
	DocumentProcessed  DocumentStatus = "processed"
	DocumentFailed     DocumentStatus = "failed"
)

// DocumentStatusRecord is the stored status row for a document
type DocumentStatusRecord struct {
	DocumentID string         `json:"document_id"`
	Status     DocumentStatus `json:"status"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
