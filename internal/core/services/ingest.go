package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/custodia-labs/ragna-core/internal/cache"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.DocumentService = (*DocumentPipeline)(nil)

// DocumentPipeline coordinates the staged document ingestion flow:
//  1. Chunk the document
//  2. Extract entities per chunk and relationships between adjacent chunks
//  3. Generate embeddings per chunk
//  4. Store vectors
//  5. Store the knowledge graph (document, chunk and entity nodes plus edges)
//  6. Index the document status
//
// Every stage writes in-progress and terminal records to the processing
// log, so a partially failed run stays diagnosable. Entity extractions
// and embeddings are cached by content hash, so reprocessing a document
// (or processing another document with identical chunks) skips the
// expensive calls.
type DocumentPipeline struct {
	chunker       driven.Chunker
	extractor     driven.EntityExtractor
	embedder      driven.EmbeddingService
	vectorStore   driven.VectorStore
	graphStore    driven.GraphStore
	processingLog driven.ProcessingLog
	statusStore   driven.DocumentStatusStore
	cache         *cache.Store
	logger        *slog.Logger
}

// DocumentPipelineConfig holds dependencies for DocumentPipeline.
type DocumentPipelineConfig struct {
	Chunker       driven.Chunker
	Extractor     driven.EntityExtractor
	Embedder      driven.EmbeddingService
	VectorStore   driven.VectorStore
	GraphStore    driven.GraphStore
	ProcessingLog driven.ProcessingLog
	StatusStore   driven.DocumentStatusStore
	Cache         *cache.Store
	Logger        *slog.Logger
}

// NewDocumentPipeline creates a new document pipeline.
func NewDocumentPipeline(cfg DocumentPipelineConfig) *DocumentPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DocumentPipeline{
		chunker:       cfg.Chunker,
		extractor:     cfg.Extractor,
		embedder:      cfg.Embedder,
		vectorStore:   cfg.VectorStore,
		graphStore:    cfg.GraphStore,
		processingLog: cfg.ProcessingLog,
		statusStore:   cfg.StatusStore,
		cache:         cfg.Cache,
		logger:        logger,
	}
}

// ProcessDocument runs the full ingestion pipeline for one file.
// Returns true when every stage completed. Failures are recorded in the
// processing log (the failed stage plus a terminal overall record)
// rather than returned; callers that need the reason read the log.
func (p *DocumentPipeline) ProcessDocument(ctx context.Context, filePath string) bool {
	startTime := time.Now()

	info, err := os.Stat(filePath)
	if err != nil {
		// No stat means no stable document ID, so nothing to record
		p.logger.Error("cannot stat document", "file_path", filePath, "error", err)
		return false
	}
	docID := domain.DocumentID(filePath, info.ModTime())

	logger := p.logger.With("document_id", docID, "file_path", filePath)
	logger.Info("processing document")

	p.record(ctx, docID, domain.StageStart, domain.ProcessingInProgress, "", nil)

	// Step 1: Chunking
	p.record(ctx, docID, domain.StageChunking, domain.ProcessingInProgress, "", nil)
	chunks, err := p.chunker.ChunkDocument(ctx, filePath)
	if err != nil {
		p.fail(ctx, docID, domain.StageChunking, fmt.Errorf("chunking failed: %w", err))
		return false
	}
	if len(chunks) == 0 {
		p.fail(ctx, docID, domain.StageChunking, errors.New("no chunks generated"))
		return false
	}
	p.record(ctx, docID, domain.StageChunking, domain.ProcessingCompleted, "", map[string]any{
		"chunk_count": len(chunks),
	})

	// Step 2: Entity extraction
	p.record(ctx, docID, domain.StageEntityExtraction, domain.ProcessingInProgress, "", nil)
	chunkEntities := make([][]domain.Entity, len(chunks))
	entityCount := 0
	var relationships []domain.Relationship

	for i, chunk := range chunks {
		entities, ok := p.cache.GetEntities(ctx, chunk.Text)
		if !ok {
			entities, err = p.extractor.ExtractEntities(ctx, chunk.Text)
			if err != nil {
				p.fail(ctx, docID, domain.StageEntityExtraction,
					fmt.Errorf("entity extraction failed for chunk %d: %w", chunk.Index, err))
				return false
			}
			if err := p.cache.SetEntities(ctx, chunk.Text, entities); err != nil {
				logger.Warn("failed to cache entity extraction", "chunk_index", chunk.Index, "error", err)
			}
		}
		chunkEntities[i] = entities
		entityCount += len(entities)

		// Relationships are extracted between adjacent chunks only, and
		// only when both chunks yielded entities
		if i > 0 && len(chunkEntities[i-1]) > 0 && len(entities) > 0 {
			rels, err := p.extractor.ExtractRelationships(ctx, chunkEntities[i-1], entities)
			if err != nil {
				p.fail(ctx, docID, domain.StageEntityExtraction,
					fmt.Errorf("relationship extraction failed for chunk %d: %w", chunk.Index, err))
				return false
			}
			relationships = append(relationships, rels...)
		}
	}
	p.record(ctx, docID, domain.StageEntityExtraction, domain.ProcessingCompleted, "", map[string]any{
		"entity_count":       entityCount,
		"relationship_count": len(relationships),
	})

	// Step 3: Embedding generation
	p.record(ctx, docID, domain.StageEmbeddingGeneration, domain.ProcessingInProgress, "", nil)
	embeddings := make([][]float32, len(chunks))
	for i, chunk := range chunks {
		vector, ok := p.cache.GetEmbedding(ctx, chunk.Text)
		if !ok {
			vector, err = p.embedder.GenerateEmbedding(ctx, chunk.Text)
			if err != nil {
				p.fail(ctx, docID, domain.StageEmbeddingGeneration,
					fmt.Errorf("embedding generation failed for chunk %d: %w", chunk.Index, err))
				return false
			}
			if err := p.cache.SetEmbedding(ctx, chunk.Text, vector); err != nil {
				logger.Warn("failed to cache embedding", "chunk_index", chunk.Index, "error", err)
			}
		}
		embeddings[i] = vector
	}
	p.record(ctx, docID, domain.StageEmbeddingGeneration, domain.ProcessingCompleted, "", map[string]any{
		"embedding_count": len(embeddings),
	})

	// Step 4: Vector storage
	p.record(ctx, docID, domain.StageVectorStorage, domain.ProcessingInProgress, "", nil)
	storedVectors := 0
	for i, chunk := range chunks {
		key := domain.ChunkKey(docID, chunk.Index)
		metadata := domain.ChunkMetadata{
			DocumentID: docID,
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
			Entities:   chunkEntities[i],
		}
		stored, err := p.vectorStore.StoreVector(ctx, key, embeddings[i], metadata)
		if err != nil {
			p.fail(ctx, docID, domain.StageVectorStorage,
				fmt.Errorf("vector storage failed for chunk %d: %w", chunk.Index, err))
			return false
		}
		if !stored {
			logger.Warn("vector store declined chunk", "chunk_index", chunk.Index)
			continue
		}
		storedVectors++
	}
	p.record(ctx, docID, domain.StageVectorStorage, domain.ProcessingCompleted, "", map[string]any{
		"vector_count": storedVectors,
	})

	// Step 5: Graph storage
	p.record(ctx, docID, domain.StageGraphStorage, domain.ProcessingInProgress, "", nil)
	uniqueEntities, err := p.storeGraph(ctx, docID, filePath, chunks, chunkEntities, relationships)
	if err != nil {
		p.fail(ctx, docID, domain.StageGraphStorage, err)
		return false
	}
	p.record(ctx, docID, domain.StageGraphStorage, domain.ProcessingCompleted, "", map[string]any{
		"entity_count":       uniqueEntities,
		"relationship_count": len(relationships),
	})

	// Step 6: Indexing
	p.record(ctx, docID, domain.StageIndexing, domain.ProcessingInProgress, "", nil)
	err = p.statusStore.UpdateStatus(ctx, docID, domain.DocumentProcessed, map[string]any{
		"file_path":          filePath,
		"chunk_count":        len(chunks),
		"entity_count":       uniqueEntities,
		"relationship_count": len(relationships),
		"processed_at":       time.Now().Format(time.RFC3339),
	})
	if err != nil {
		p.fail(ctx, docID, domain.StageIndexing, fmt.Errorf("failed to update document status: %w", err))
		return false
	}
	p.record(ctx, docID, domain.StageIndexing, domain.ProcessingCompleted, "", nil)

	p.record(ctx, docID, domain.StageOverall, domain.ProcessingCompleted, "", nil)

	logger.Info("document processed",
		"duration_seconds", time.Since(startTime).Seconds(),
		"chunk_count", len(chunks),
		"entity_count", uniqueEntities,
		"relationship_count", len(relationships),
	)

	return true
}

// Status returns the latest processing record per stage for a document.
func (p *DocumentPipeline) Status(ctx context.Context, documentID string) (map[domain.ProcessingStage]domain.ProcessingRecord, error) {
	return p.processingLog.LatestByStage(ctx, documentID)
}

// FailedDocuments lists document IDs whose last run failed.
func (p *DocumentPipeline) FailedDocuments(ctx context.Context) ([]string, error) {
	return p.processingLog.FailedDocuments(ctx)
}

// storeGraph writes the document node, one node and CONTAINS edge per
// chunk, entity nodes deduplicated across the document, a MENTIONS edge
// per chunk entity occurrence, and relationship edges whose endpoints
// were both seen in this document. Returns the number of unique entity
// nodes stored.
func (p *DocumentPipeline) storeGraph(
	ctx context.Context,
	docID, filePath string,
	chunks []domain.Chunk,
	chunkEntities [][]domain.Entity,
	relationships []domain.Relationship,
) (int, error) {
	if err := p.graphStore.StoreNode(ctx, domain.NewDocumentNode(docID, filePath, time.Now())); err != nil {
		return 0, fmt.Errorf("failed to store document node: %w", err)
	}

	storedEntities := make(map[string]bool)
	for i, chunk := range chunks {
		chunkID := domain.ChunkKey(docID, chunk.Index)
		if err := p.graphStore.StoreNode(ctx, domain.NewChunkNode(docID, chunk.Index, chunk.Text)); err != nil {
			return 0, fmt.Errorf("failed to store chunk node %d: %w", chunk.Index, err)
		}
		if err := p.graphStore.StoreEdge(ctx, domain.NewContainsEdge(docID, chunkID, chunk.Index)); err != nil {
			return 0, fmt.Errorf("failed to store contains edge for chunk %d: %w", chunk.Index, err)
		}

		for _, entity := range chunkEntities[i] {
			entityID := domain.EntityID(entity.Name)
			if !storedEntities[entityID] {
				if err := p.graphStore.StoreNode(ctx, domain.NewEntityNode(entity)); err != nil {
					return 0, fmt.Errorf("failed to store entity node %q: %w", entity.Name, err)
				}
				storedEntities[entityID] = true
			}
			if err := p.graphStore.StoreEdge(ctx, domain.NewMentionsEdge(chunkID, entityID, entity.Confidence)); err != nil {
				return 0, fmt.Errorf("failed to store mentions edge for chunk %d: %w", chunk.Index, err)
			}
		}
	}

	for _, rel := range relationships {
		edge := domain.NewRelationshipEdge(rel)
		// Dangling relationships are dropped, not stored
		if !storedEntities[edge.SourceID] || !storedEntities[edge.TargetID] {
			continue
		}
		if err := p.graphStore.StoreEdge(ctx, edge); err != nil {
			return 0, fmt.Errorf("failed to store relationship edge %q -> %q: %w", rel.Source, rel.Target, err)
		}
	}

	return len(storedEntities), nil
}

// record appends one processing observation. Log failures never fail
// the pipeline.
func (p *DocumentPipeline) record(
	ctx context.Context,
	docID string,
	stage domain.ProcessingStage,
	status domain.ProcessingStatus,
	errMsg string,
	metadata map[string]any,
) {
	rec := domain.ProcessingRecord{
		DocumentID: docID,
		Stage:      stage,
		Status:     status,
		Timestamp:  time.Now(),
		Error:      errMsg,
		Metadata:   metadata,
	}
	if err := p.processingLog.Record(ctx, rec); err != nil {
		p.logger.Warn("failed to record processing stage",
			"document_id", docID,
			"stage", stage,
			"status", status,
			"error", err,
		)
	}
}

// fail records the failed stage and the terminal overall failure.
func (p *DocumentPipeline) fail(ctx context.Context, docID string, stage domain.ProcessingStage, err error) {
	p.logger.Error("document processing failed", "document_id", docID, "stage", stage, "error", err)
	p.record(ctx, docID, stage, domain.ProcessingFailed, err.Error(), nil)
	p.record(ctx, docID, domain.StageOverall, domain.ProcessingFailed, err.Error(), nil)
}
