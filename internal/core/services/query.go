package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/ragna-core/internal/cache"
	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driving"
)

// Verify interface compliance
var _ driving.QueryService = (*QueryPipeline)(nil)

const (
	// maxMergedResults caps the ranked context passed to the answer generator
	maxMergedResults = 10

	// sourcePreviewLen caps the chunk text echoed back on answer sources
	sourcePreviewLen = 200
)

// QueryPipeline coordinates the staged query flow:
//  1. Analyze the query (entities and keywords, cached)
//  2. Generate the query embedding (cached)
//  3. Retrieve per mode (vector similarity, graph traversal, or both)
//  4. Merge and rank results
//  5. Generate the answer
//
// Full results are cached per (query, mode); a repeated query is served
// from cache without touching the retrieval stores.
type QueryPipeline struct {
	extractor   driven.EntityExtractor
	embedder    driven.EmbeddingService
	vectorStore driven.VectorStore
	graphStore  driven.GraphStore
	generator   driven.AnswerGenerator
	cache       *cache.Store
	logger      *slog.Logger
}

// QueryPipelineConfig holds dependencies for QueryPipeline.
type QueryPipelineConfig struct {
	Extractor   driven.EntityExtractor
	Embedder    driven.EmbeddingService
	VectorStore driven.VectorStore
	GraphStore  driven.GraphStore
	Generator   driven.AnswerGenerator
	Cache       *cache.Store
	Logger      *slog.Logger
}

// NewQueryPipeline creates a new query pipeline.
func NewQueryPipeline(cfg QueryPipelineConfig) *QueryPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueryPipeline{
		extractor:   cfg.Extractor,
		embedder:    cfg.Embedder,
		vectorStore: cfg.VectorStore,
		graphStore:  cfg.GraphStore,
		generator:   cfg.Generator,
		cache:       cfg.Cache,
		logger:      logger,
	}
}

// ProcessQuery runs the query pipeline in the given mode. It never
// returns an error: failures are captured in the result's Error field
// so callers always get the query, mode and timing back. An unknown
// mode falls back to the default.
func (p *QueryPipeline) ProcessQuery(ctx context.Context, query string, mode domain.QueryMode) *domain.QueryResult {
	startTime := time.Now()

	if !mode.Valid() {
		p.logger.Warn("unknown query mode, using default",
			"mode", mode,
			"default", domain.DefaultQueryMode,
		)
		mode = domain.DefaultQueryMode
	}

	logger := p.logger.With("mode", mode)

	// Cached results keep the timing of the run that produced them;
	// only the hit marker is added on the way out
	if cached, ok := p.cache.GetQueryResult(ctx, query, mode); ok {
		logger.Info("query served from cache")
		cached.CacheHit = true
		return &cached
	}

	result, err := p.runQuery(ctx, query, mode)
	if err != nil {
		logger.Error("query failed", "error", err)
		return &domain.QueryResult{
			Query:            query,
			Mode:             mode,
			Error:            err.Error(),
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
		}
	}

	result.ProcessingTimeMs = time.Since(startTime).Milliseconds()

	if err := p.cache.SetQueryResult(ctx, query, mode, *result); err != nil {
		logger.Warn("failed to cache query result", "error", err)
	}

	logger.Debug("query processed",
		"processing_time_ms", result.ProcessingTimeMs,
		"vector_results", result.VectorResultsCount,
		"graph_results", result.GraphResultsCount,
	)

	return result
}

// runQuery executes the pipeline stages for a cache miss.
func (p *QueryPipeline) runQuery(ctx context.Context, query string, mode domain.QueryMode) (*domain.QueryResult, error) {
	// Analysis and embedding run for every mode, direct included, so
	// later retrieval queries find them cached
	analysis, err := p.analyzeQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	embedding, err := p.queryEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}

	if mode == domain.QueryModeDirect {
		answer, err := p.generator.GenerateDirectAnswer(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("direct answer generation failed: %w", err)
		}
		return &domain.QueryResult{
			Query:  query,
			Mode:   mode,
			Answer: answer,
		}, nil
	}

	var vectorHits, graphHits []domain.RetrievalHit

	if mode == domain.QueryModeVector || mode == domain.QueryModeHybrid {
		vectorHits, err = p.vectorStore.SearchVectors(ctx, embedding)
		if err != nil {
			return nil, fmt.Errorf("vector search failed: %w", err)
		}
	}

	if mode == domain.QueryModeGraph || mode == domain.QueryModeHybrid {
		graphHits, err = p.searchGraph(ctx, analysis)
		if err != nil {
			return nil, err
		}
	}

	// naive and mix retrieve nothing here; the answer is generated from
	// an empty context block

	merged := mergeResults(vectorHits, graphHits)

	answer, err := p.generator.GenerateAnswer(ctx, query, buildContextBlock(merged))
	if err != nil {
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	return &domain.QueryResult{
		Query:              query,
		Mode:               mode,
		Answer:             answer,
		Sources:            buildSources(merged),
		VectorResultsCount: len(vectorHits),
		GraphResultsCount:  len(graphHits),
	}, nil
}

// analyzeQuery extracts entities and keywords from the query, serving
// repeated queries from the analysis cache.
func (p *QueryPipeline) analyzeQuery(ctx context.Context, query string) (domain.QueryAnalysis, error) {
	if analysis, ok := p.cache.GetAnalysis(ctx, query); ok {
		return analysis, nil
	}

	entities, err := p.extractor.ExtractEntities(ctx, query)
	if err != nil {
		return domain.QueryAnalysis{}, fmt.Errorf("query entity extraction failed: %w", err)
	}

	keywords, err := p.extractor.ExtractKeywords(ctx, query)
	if err != nil {
		return domain.QueryAnalysis{}, fmt.Errorf("keyword extraction failed: %w", err)
	}

	analysis := domain.QueryAnalysis{Entities: entities, Keywords: keywords}
	if err := p.cache.SetAnalysis(ctx, query, analysis); err != nil {
		p.logger.Warn("failed to cache query analysis", "error", err)
	}

	return analysis, nil
}

// queryEmbedding returns the embedding for the query text, serving
// repeated queries from the embedding cache.
func (p *QueryPipeline) queryEmbedding(ctx context.Context, query string) ([]float32, error) {
	if vector, ok := p.cache.GetEmbedding(ctx, query); ok {
		return vector, nil
	}

	vector, err := p.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query embedding failed: %w", err)
	}

	if err := p.cache.SetEmbedding(ctx, query, vector); err != nil {
		p.logger.Warn("failed to cache query embedding", "error", err)
	}

	return vector, nil
}

// searchGraph queries the graph store for every analysis entity, then
// every keyword, concatenating hits in that order.
func (p *QueryPipeline) searchGraph(ctx context.Context, analysis domain.QueryAnalysis) ([]domain.RetrievalHit, error) {
	var hits []domain.RetrievalHit

	for _, entity := range analysis.Entities {
		found, err := p.graphStore.SearchEntities(ctx, entity.Name)
		if err != nil {
			return nil, fmt.Errorf("graph entity search failed for %q: %w", entity.Name, err)
		}
		hits = append(hits, found...)
	}

	for _, keyword := range analysis.Keywords {
		found, err := p.graphStore.SearchKeywords(ctx, keyword)
		if err != nil {
			return nil, fmt.Errorf("graph keyword search failed for %q: %w", keyword, err)
		}
		hits = append(hits, found...)
	}

	return hits, nil
}

// mergeResults combines vector and graph hits into one ranked list.
// The vector pass claims each key first; a later graph hit for the same
// key averages the two scores. Keys only the graph pass saw enter at
// half their score, ranking pure graph matches below comparable vector
// matches. The sort is stable, so equal scores keep first-encounter
// order, and the list is truncated to maxMergedResults.
func mergeResults(vectorHits, graphHits []domain.RetrievalHit) []domain.ScoredResult {
	index := make(map[string]int)
	var merged []domain.ScoredResult

	for _, hit := range vectorHits {
		if _, seen := index[hit.Key]; seen {
			continue
		}
		index[hit.Key] = len(merged)
		merged = append(merged, domain.ScoredResult{
			Key:           hit.Key,
			Text:          hit.Text,
			Metadata:      hit.Metadata,
			VectorScore:   hit.Score,
			CombinedScore: hit.Score,
		})
	}

	for _, hit := range graphHits {
		if i, seen := index[hit.Key]; seen {
			merged[i].GraphScore = hit.Score
			merged[i].CombinedScore = (merged[i].VectorScore + hit.Score) / 2
			continue
		}
		index[hit.Key] = len(merged)
		merged = append(merged, domain.ScoredResult{
			Key:           hit.Key,
			Text:          hit.Text,
			Metadata:      hit.Metadata,
			GraphScore:    hit.Score,
			CombinedScore: hit.Score / 2,
		})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CombinedScore > merged[j].CombinedScore
	})

	if len(merged) > maxMergedResults {
		merged = merged[:maxMergedResults]
	}

	return merged
}

// buildContextBlock renders ranked results as the numbered context
// block handed to the answer generator.
func buildContextBlock(results []domain.ScoredResult) string {
	if len(results) == 0 {
		return ""
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, r.Text)
	}
	return strings.Join(parts, "\n\n")
}

// buildSources maps ranked results to answer sources.
func buildSources(results []domain.ScoredResult) []domain.Source {
	if len(results) == 0 {
		return nil
	}

	sources := make([]domain.Source, len(results))
	for i, r := range results {
		preview := r.Text
		if len(preview) > sourcePreviewLen {
			preview = preview[:sourcePreviewLen] + "..."
		}
		sources[i] = domain.Source{
			DocumentID:  r.Metadata.DocumentID,
			ChunkIndex:  r.Metadata.ChunkIndex,
			TextPreview: preview,
			Score:       r.CombinedScore,
		}
	}
	return sources
}
