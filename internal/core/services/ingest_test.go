package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/custodia-labs/ragna-core/internal/cache"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven/mocks"
)

// ingestHarness bundles a DocumentPipeline with its mocks
type ingestHarness struct {
	pipeline    *DocumentPipeline
	chunker     *mocks.MockChunker
	extractor   *mocks.MockEntityExtractor
	embedder    *mocks.MockEmbeddingService
	vectorStore *mocks.MockVectorStore
	graphStore  *mocks.MockGraphStore
	log         *mocks.MockProcessingLog
	statusStore *mocks.MockDocumentStatusStore
}

func newIngestHarness(t *testing.T) *ingestHarness {
	t.Helper()

	h := &ingestHarness{
		chunker:     mocks.NewMockChunker(),
		extractor:   mocks.NewMockEntityExtractor(),
		embedder:    mocks.NewMockEmbeddingService(),
		vectorStore: mocks.NewMockVectorStore(),
		graphStore:  mocks.NewMockGraphStore(),
		log:         mocks.NewMockProcessingLog(),
		statusStore: mocks.NewMockDocumentStatusStore(),
	}

	h.pipeline = NewDocumentPipeline(DocumentPipelineConfig{
		Chunker:       h.chunker,
		Extractor:     h.extractor,
		Embedder:      h.embedder,
		VectorStore:   h.vectorStore,
		GraphStore:    h.graphStore,
		ProcessingLog: h.log,
		StatusStore:   h.statusStore,
		Cache:         cache.NewStore(mocks.NewMockCache(), cache.StoreConfig{}),
	})

	return h
}

// writeTestDocument creates a real file so the pipeline can stat it
func writeTestDocument(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test document: %v", err)
	}
	return path
}

// documentIDFor derives the ID the pipeline will use for the file
func documentIDFor(t *testing.T, path string) string {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat test document: %v", err)
	}
	return domain.DocumentID(path, info.ModTime())
}

func metadataInt(t *testing.T, rec domain.ProcessingRecord, key string) int {
	t.Helper()
	v, ok := rec.Metadata[key].(int)
	if !ok {
		t.Fatalf("expected int metadata %q, got %T (%v)", key, rec.Metadata[key], rec.Metadata[key])
	}
	return v
}

// The canonical three-chunk document: two entities in chunk 0, three in
// chunk 1 with one name overlapping chunk 0, none in chunk 2.
func setupInvoiceScenario(t *testing.T, h *ingestHarness) (chunkTexts [3]string) {
	t.Helper()

	chunkTexts = [3]string{
		"alpha invoice from acme corporation",
		"invoice payment deadline and settlement terms",
		"closing remarks without anything notable",
	}

	h.chunker.ChunkFn = func(filePath string) ([]domain.Chunk, error) {
		return []domain.Chunk{
			{Index: 0, Text: chunkTexts[0]},
			{Index: 1, Text: chunkTexts[1]},
			{Index: 2, Text: chunkTexts[2]},
		}, nil
	}

	h.extractor.Entities = map[string][]domain.Entity{
		chunkTexts[0]: {
			{Name: "Acme", Type: "Organization", Confidence: 0.9},
			{Name: "Invoice", Type: "Document", Confidence: 0.8},
		},
		chunkTexts[1]: {
			{Name: "Invoice", Type: "Document", Confidence: 0.85},
			{Name: "Payment", Type: "Concept", Confidence: 0.7},
			{Name: "Deadline", Type: "Concept", Confidence: 0.6},
		},
		chunkTexts[2]: {},
	}

	h.extractor.Relationships = []domain.Relationship{
		{Source: "Acme", Target: "Payment", Description: "acme owes a payment", Confidence: 0.75},
	}

	return chunkTexts
}

func TestDocumentPipeline_ProcessDocument_Success(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	path := writeTestDocument(t, "invoice.pdf", "irrelevant, chunker is canned")
	docID := documentIDFor(t, path)

	ctx := context.Background()

	if ok := h.pipeline.ProcessDocument(ctx, path); !ok {
		t.Fatal("expected processing to succeed")
	}

	// Only the adjacent (0,1) pair has entities on both sides
	if h.extractor.RelationshipsCalls != 1 {
		t.Errorf("expected 1 relationship extraction, got %d", h.extractor.RelationshipsCalls)
	}

	// One document, three chunks, four unique entities
	if got := h.graphStore.NodeCount(); got != 8 {
		t.Errorf("expected 8 graph nodes, got %d", got)
	}
	if _, ok := h.graphStore.Node(docID); !ok {
		t.Error("expected document node")
	}
	for i := 0; i < 3; i++ {
		if _, ok := h.graphStore.Node(domain.ChunkKey(docID, i)); !ok {
			t.Errorf("expected chunk node %d", i)
		}
	}
	for _, name := range []string{"Acme", "Invoice", "Payment", "Deadline"} {
		if _, ok := h.graphStore.Node(domain.EntityID(name)); !ok {
			t.Errorf("expected entity node for %s", name)
		}
	}

	contains := h.graphStore.EdgesByRelation(domain.RelationContains)
	if len(contains) != 3 {
		t.Errorf("expected 3 CONTAINS edges, got %d", len(contains))
	}
	for _, edge := range contains {
		if edge.SourceID != docID {
			t.Errorf("CONTAINS edge should point from document, got source %s", edge.SourceID)
		}
	}

	if mentions := h.graphStore.EdgesByRelation(domain.RelationMentions); len(mentions) != 5 {
		t.Errorf("expected 5 MENTIONS edges, got %d", len(mentions))
	}

	related := h.graphStore.EdgesByRelation(domain.RelationRelatedTo)
	if len(related) != 1 {
		t.Fatalf("expected 1 RELATED_TO edge, got %d", len(related))
	}
	if related[0].SourceID != domain.EntityID("Acme") || related[0].TargetID != domain.EntityID("Payment") {
		t.Error("RELATED_TO edge endpoints do not match the extracted relationship")
	}

	// All three chunk vectors stored under their chunk keys
	if got := h.vectorStore.StoredCount(); got != 3 {
		t.Errorf("expected 3 stored vectors, got %d", got)
	}
	stored, ok := h.vectorStore.Stored(domain.ChunkKey(docID, 1))
	if !ok {
		t.Fatal("expected vector for chunk 1")
	}
	if stored.Metadata.DocumentID != docID || stored.Metadata.ChunkIndex != 1 {
		t.Error("chunk 1 vector metadata mismatch")
	}
	if len(stored.Metadata.Entities) != 3 {
		t.Errorf("expected 3 entities on chunk 1 metadata, got %d", len(stored.Metadata.Entities))
	}

	// Stage records carry the pipeline counts
	if rec, ok := h.log.LastRecord(docID, domain.StageChunking); !ok || rec.Status != domain.ProcessingCompleted {
		t.Error("expected completed chunking record")
	} else if metadataInt(t, rec, "chunk_count") != 3 {
		t.Error("chunking chunk_count mismatch")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageEntityExtraction); !ok || rec.Status != domain.ProcessingCompleted {
		t.Error("expected completed entity extraction record")
	} else {
		// Five extracted occurrences, duplicates included
		if metadataInt(t, rec, "entity_count") != 5 {
			t.Error("entity extraction entity_count mismatch")
		}
		if metadataInt(t, rec, "relationship_count") != 1 {
			t.Error("entity extraction relationship_count mismatch")
		}
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageGraphStorage); !ok || rec.Status != domain.ProcessingCompleted {
		t.Error("expected completed graph storage record")
	} else if metadataInt(t, rec, "entity_count") != 4 {
		t.Error("graph storage unique entity_count mismatch")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageOverall); !ok || rec.Status != domain.ProcessingCompleted {
		t.Error("expected completed overall record")
	}

	// Index status carries the document summary
	status, err := h.statusStore.GetStatus(ctx, docID)
	if err != nil {
		t.Fatalf("expected status row: %v", err)
	}
	if status.Status != domain.DocumentProcessed {
		t.Errorf("expected processed status, got %s", status.Status)
	}
	if status.Metadata["file_path"] != path {
		t.Error("status file_path mismatch")
	}
}

func TestDocumentPipeline_ProcessDocument_StatFailure(t *testing.T) {
	h := newIngestHarness(t)

	ok := h.pipeline.ProcessDocument(context.Background(), "/nonexistent/file.txt")
	if ok {
		t.Fatal("expected processing to fail")
	}

	// No document ID could be derived, so nothing is recorded
	if n := len(h.log.Records()); n != 0 {
		t.Errorf("expected no processing records, got %d", n)
	}
	if h.chunker.ChunkCalls != 0 {
		t.Error("chunker should not run for an unreadable file")
	}
}

func TestDocumentPipeline_ProcessDocument_NoChunks(t *testing.T) {
	h := newIngestHarness(t)
	h.chunker.ChunkFn = func(filePath string) ([]domain.Chunk, error) {
		return nil, nil
	}
	path := writeTestDocument(t, "empty.txt", "")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	rec, ok := h.log.LastRecord(docID, domain.StageChunking)
	if !ok || rec.Status != domain.ProcessingFailed {
		t.Fatal("expected failed chunking record")
	}
	if rec.Error != "no chunks generated" {
		t.Errorf("unexpected chunking error: %q", rec.Error)
	}

	overall, ok := h.log.LastRecord(docID, domain.StageOverall)
	if !ok || overall.Status != domain.ProcessingFailed {
		t.Fatal("expected failed overall record")
	}

	failed, err := h.pipeline.FailedDocuments(context.Background())
	if err != nil {
		t.Fatalf("FailedDocuments: %v", err)
	}
	if len(failed) != 1 || failed[0] != docID {
		t.Errorf("expected %s in failed documents, got %v", docID, failed)
	}
}

func TestDocumentPipeline_ProcessDocument_ExtractorError(t *testing.T) {
	h := newIngestHarness(t)
	h.extractor.EntitiesFn = func(text string) ([]domain.Entity, error) {
		return nil, errors.New("llm unavailable")
	}
	path := writeTestDocument(t, "doc.txt", "some document content for chunking")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	rec, ok := h.log.LastRecord(docID, domain.StageEntityExtraction)
	if !ok || rec.Status != domain.ProcessingFailed {
		t.Fatal("expected failed entity extraction record")
	}
	overall, ok := h.log.LastRecord(docID, domain.StageOverall)
	if !ok || overall.Status != domain.ProcessingFailed {
		t.Fatal("expected failed overall record")
	}
	if overall.Error != rec.Error {
		t.Error("overall record should carry the stage error")
	}

	// Later stages never ran
	if h.embedder.GenerateCalls != 0 {
		t.Error("embedding should not run after extraction failure")
	}
	if h.vectorStore.StoreCalls != 0 {
		t.Error("vector storage should not run after extraction failure")
	}
}

func TestDocumentPipeline_ProcessDocument_EmbeddingError(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	h.embedder.GenerateFn = func(text string) ([]float32, error) {
		return nil, errors.New("embedding backend down")
	}
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageEmbeddingGeneration); !ok || rec.Status != domain.ProcessingFailed {
		t.Error("expected failed embedding record")
	}
	if h.vectorStore.StoreCalls != 0 {
		t.Error("vector storage should not run after embedding failure")
	}
}

func TestDocumentPipeline_ProcessDocument_VectorStoreError(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	h.vectorStore.StoreFn = func(key string, vector []float32, metadata domain.ChunkMetadata) (bool, error) {
		return false, errors.New("vector db write refused")
	}
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageVectorStorage); !ok || rec.Status != domain.ProcessingFailed {
		t.Error("expected failed vector storage record")
	}
	if h.graphStore.StoreNodeCalls != 0 {
		t.Error("graph storage should not run after vector storage failure")
	}
}

func TestDocumentPipeline_ProcessDocument_VectorDeclined(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	// A declined write skips the chunk without failing the stage
	h.vectorStore.RejectKeys[domain.ChunkKey(docID, 1)] = true

	if ok := h.pipeline.ProcessDocument(context.Background(), path); !ok {
		t.Fatal("expected processing to succeed")
	}

	if got := h.vectorStore.StoredCount(); got != 2 {
		t.Errorf("expected 2 stored vectors, got %d", got)
	}
	rec, ok := h.log.LastRecord(docID, domain.StageVectorStorage)
	if !ok || rec.Status != domain.ProcessingCompleted {
		t.Fatal("expected completed vector storage record")
	}
	if metadataInt(t, rec, "vector_count") != 2 {
		t.Error("vector_count should count only accepted writes")
	}
}

func TestDocumentPipeline_ProcessDocument_GraphStoreError(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	h.graphStore.StoreNodeFn = func(node domain.GraphNode) error {
		return errors.New("graph db down")
	}
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageGraphStorage); !ok || rec.Status != domain.ProcessingFailed {
		t.Error("expected failed graph storage record")
	}
	if _, err := h.statusStore.GetStatus(context.Background(), docID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("status should not be written after graph failure")
	}
}

func TestDocumentPipeline_ProcessDocument_StatusStoreError(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	h.statusStore.UpdateFn = func(documentID string, status domain.DocumentStatus, metadata map[string]any) error {
		return errors.New("status db down")
	}
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); ok {
		t.Fatal("expected processing to fail")
	}

	if rec, ok := h.log.LastRecord(docID, domain.StageIndexing); !ok || rec.Status != domain.ProcessingFailed {
		t.Error("expected failed indexing record")
	}
	if rec, ok := h.log.LastRecord(docID, domain.StageOverall); !ok || rec.Status != domain.ProcessingFailed {
		t.Error("expected failed overall record")
	}
}

func TestDocumentPipeline_ProcessDocument_DanglingRelationshipDropped(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	// Ghost was never extracted from any chunk
	h.extractor.Relationships = []domain.Relationship{
		{Source: "Acme", Target: "Ghost"},
	}
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	if ok := h.pipeline.ProcessDocument(context.Background(), path); !ok {
		t.Fatal("expected processing to succeed")
	}

	if related := h.graphStore.EdgesByRelation(domain.RelationRelatedTo); len(related) != 0 {
		t.Errorf("expected dangling relationship to be dropped, got %d edges", len(related))
	}

	// The extraction count still reports what the extractor returned
	rec, ok := h.log.LastRecord(docID, domain.StageGraphStorage)
	if !ok {
		t.Fatal("expected graph storage record")
	}
	if metadataInt(t, rec, "relationship_count") != 1 {
		t.Error("relationship_count should count extracted relationships")
	}
}

func TestDocumentPipeline_ProcessDocument_CachedExtractionSkipsCollaborators(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	path := writeTestDocument(t, "doc.txt", "content")

	ctx := context.Background()

	if ok := h.pipeline.ProcessDocument(ctx, path); !ok {
		t.Fatal("expected first run to succeed")
	}
	entityCalls := h.extractor.EntitiesCalls
	embedCalls := h.embedder.GenerateCalls

	if ok := h.pipeline.ProcessDocument(ctx, path); !ok {
		t.Fatal("expected second run to succeed")
	}

	// Chunk texts are unchanged, so extractions and embeddings come
	// from the cache
	if h.extractor.EntitiesCalls != entityCalls {
		t.Errorf("expected no new entity extractions, got %d more", h.extractor.EntitiesCalls-entityCalls)
	}
	if h.embedder.GenerateCalls != embedCalls {
		t.Errorf("expected no new embeddings, got %d more", h.embedder.GenerateCalls-embedCalls)
	}

	// Relationships are not cached; the adjacent pair runs again
	if h.extractor.RelationshipsCalls != 2 {
		t.Errorf("expected 2 relationship extractions, got %d", h.extractor.RelationshipsCalls)
	}
}

func TestDocumentPipeline_ProcessDocument_LogFailuresNonFatal(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	h.log.RecordFn = func(record domain.ProcessingRecord) error {
		return errors.New("log db down")
	}
	path := writeTestDocument(t, "doc.txt", "content")

	if ok := h.pipeline.ProcessDocument(context.Background(), path); !ok {
		t.Fatal("log failures must not fail the pipeline")
	}
}

func TestDocumentPipeline_Status(t *testing.T) {
	h := newIngestHarness(t)
	setupInvoiceScenario(t, h)
	path := writeTestDocument(t, "doc.txt", "content")
	docID := documentIDFor(t, path)

	ctx := context.Background()

	if _, err := h.pipeline.Status(ctx, "doc:unknown"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown document, got %v", err)
	}

	if ok := h.pipeline.ProcessDocument(ctx, path); !ok {
		t.Fatal("expected processing to succeed")
	}

	status, err := h.pipeline.Status(ctx, docID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status[domain.StageOverall].Status != domain.ProcessingCompleted {
		t.Error("expected completed overall stage")
	}
	if status[domain.StageChunking].Status != domain.ProcessingCompleted {
		t.Error("expected completed chunking stage")
	}
}
