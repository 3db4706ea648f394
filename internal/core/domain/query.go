package domain

import "fmt"

// QueryMode determines the retrieval strategy
type QueryMode string

const (
	QueryModeNaive  QueryMode = "naive"  // engine-owned chunk retrieval (no core retrieval)
	QueryModeVector QueryMode = "vector" // vector similarity only
	QueryModeGraph  QueryMode = "graph"  // graph traversal only
	QueryModeHybrid QueryMode = "hybrid" // vector + graph (default)
	QueryModeDirect QueryMode = "direct" // no retrieval, answer directly
	QueryModeMix    QueryMode = "mix"    // engine-owned mixed retrieval (no core retrieval)
)

// DefaultQueryMode is the mode used when none (or an unknown one) is given
const DefaultQueryMode = QueryModeHybrid

// Valid reports whether the mode is one of the supported values
func (m QueryMode) Valid() bool {
	switch m {
	case QueryModeNaive, QueryModeVector, QueryModeGraph,
		QueryModeHybrid, QueryModeDirect, QueryModeMix:
		return true
	}
	return false
}

// ParseQueryMode converts a string to a QueryMode, rejecting unknown values
func ParseQueryMode(s string) (QueryMode, error) {
	mode := QueryMode(s)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return mode, nil
}

// QueryAnalysis holds the entities and keywords extracted from a query
type QueryAnalysis struct {
	Entities []Entity `json:"entities"`
	Keywords []string `json:"keywords"`
}

// RetrievalHit is a single result from a vector or graph search
type RetrievalHit struct {
	Key      string        `json:"key"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
	Score    float64       `json:"score"`
}

// ScoredResult is a merged retrieval result carrying both per-source
// scores and the combined ranking score
type ScoredResult struct {
	Key           string        `json:"key"`
	Text          string        `json:"text"`
	Metadata      ChunkMetadata `json:"metadata"`
	VectorScore   float64       `json:"vector_score"`
	GraphScore    float64       `json:"graph_score"`
	CombinedScore float64       `json:"combined_score"`
}

// Source describes where part of an answer came from
type Source struct {
	DocumentID  string  `json:"document_id"`
	ChunkIndex  int     `json:"chunk_index"`
	TextPreview string  `json:"text_preview"`
	Score       float64 `json:"score"`
}

// QueryResult is the outcome of one query pipeline run. The cached form
// never carries CacheHit; it is set only on results served from cache.
// A failed run carries Error plus the query, mode and elapsed time.
type QueryResult struct {
	Query              string    `json:"query"`
	Mode               QueryMode `json:"mode"`
	Answer             string    `json:"answer,omitempty"`
	Sources            []Source  `json:"sources,omitempty"`
	ProcessingTimeMs   int64     `json:"processing_time_ms"`
	VectorResultsCount int       `json:"vector_results_count,omitempty"`
	GraphResultsCount  int       `json:"graph_results_count,omitempty"`
	CacheHit           bool      `json:"cache_hit,omitempty"`
	Error              string    `json:"error,omitempty"`
}
