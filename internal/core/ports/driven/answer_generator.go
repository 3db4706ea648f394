package driven

import (
	"context"
)

// AnswerGenerator produces natural-language answers via an LLM
type AnswerGenerator interface {
	// GenerateAnswer answers the query grounded in the retrieved context
	// block. An empty context block is valid; the generator answers from
	// model knowledge alone.
	GenerateAnswer(ctx context.Context, query, contextBlock string) (string, error)

	// GenerateDirectAnswer answers the query without any retrieval
	GenerateDirectAnswer(ctx context.Context, query string) (string, error)
}
