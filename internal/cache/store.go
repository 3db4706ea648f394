package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/custodia-labs/ragna-core/internal/core/domain"
	"github.com/custodia-labs/ragna-core/internal/core/ports/driven"
)

// Cache namespaces. Each data family gets its own prefix and codec.
const (
	NamespaceEntity    = "entity"
	NamespaceEmbedding = "embedding"
	NamespaceAnalysis  = "query_analysis"
	NamespaceQuery     = "query"
)

// StoreConfig holds configuration for the namespaced store
type StoreConfig struct {
	// TTL applied to every write. Zero lets each tier apply its
	// default (the fast tier expires, the durable tier keeps forever).
	TTL time.Duration

	// Logger for cache degradation events. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is the namespaced cache the pipelines consume. Entries are
// addressed by content hash, so identical text shares one cached
// extraction or embedding across documents and runs.
type Store struct {
	entities   *Typed[[]domain.Entity]
	embeddings *Typed[[]float32]
	analyses   *Typed[domain.QueryAnalysis]
	results    *Typed[domain.QueryResult]
	ttl        time.Duration
}

// NewStore creates a namespaced store over the given cache
func NewStore(c driven.Cache, config StoreConfig) *Store {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		entities:   NewTyped(c, NamespaceEntity, JSONCodec[[]domain.Entity]{}, logger),
		embeddings: NewTyped(c, NamespaceEmbedding, JSONCodec[[]float32]{}, logger),
		analyses:   NewTyped(c, NamespaceAnalysis, JSONCodec[domain.QueryAnalysis]{}, logger),
		results:    NewTyped(c, NamespaceQuery, JSONCodec[domain.QueryResult]{}, logger),
		ttl:        config.TTL,
	}
}

// GetEntities retrieves cached entity extractions for a text
func (s *Store) GetEntities(ctx context.Context, text string) ([]domain.Entity, bool) {
	return s.entities.Get(ctx, domain.ContentHash(text))
}

// SetEntities caches entity extractions for a text
func (s *Store) SetEntities(ctx context.Context, text string, entities []domain.Entity) error {
	return s.entities.Set(ctx, domain.ContentHash(text), entities, s.ttl)
}

// GetEmbedding retrieves a cached embedding for a text
func (s *Store) GetEmbedding(ctx context.Context, text string) ([]float32, bool) {
	return s.embeddings.Get(ctx, domain.ContentHash(text))
}

// SetEmbedding caches an embedding for a text
func (s *Store) SetEmbedding(ctx context.Context, text string, vector []float32) error {
	return s.embeddings.Set(ctx, domain.ContentHash(text), vector, s.ttl)
}

// GetAnalysis retrieves a cached query analysis
func (s *Store) GetAnalysis(ctx context.Context, query string) (domain.QueryAnalysis, bool) {
	return s.analyses.Get(ctx, domain.ContentHash(query))
}

// SetAnalysis caches a query analysis
func (s *Store) SetAnalysis(ctx context.Context, query string, analysis domain.QueryAnalysis) error {
	return s.analyses.Set(ctx, domain.ContentHash(query), analysis, s.ttl)
}

// GetQueryResult retrieves a cached query result for a (query, mode) pair
func (s *Store) GetQueryResult(ctx context.Context, query string, mode domain.QueryMode) (domain.QueryResult, bool) {
	return s.results.Get(ctx, queryResultSubkey(query, mode))
}

// SetQueryResult caches a query result for a (query, mode) pair
func (s *Store) SetQueryResult(ctx context.Context, query string, mode domain.QueryMode, result domain.QueryResult) error {
	return s.results.Set(ctx, queryResultSubkey(query, mode), result, s.ttl)
}

// queryResultSubkey keys results by mode so the same query asked in
// different modes caches separately
func queryResultSubkey(query string, mode domain.QueryMode) string {
	return string(mode) + ":" + domain.ContentHash(query)
}
