package driving

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// RetrievalService exposes the hybrid retrieval engine.
type RetrievalService interface {
	// Search runs the requested branches, fuses and validates the results.
	// Returns only fatal errors (dimension mismatch, store unreachable).
	Search(ctx context.Context, req domain.RetrievalRequest) ([]domain.ScoredDocument, error)

	// Query is the tool entry point. It always returns a well-formed response;
	// failures are reported through Success and Error.
	Query(ctx context.Context, req domain.RetrievalRequest) domain.RetrievalResponse

	// Retrieve returns the rendered context block for a free-text query, or
	// one of the sentinel messages.
	Retrieve(ctx context.Context, query string) string
}

// EmbeddingToolService exposes on-demand embedding generation.
type EmbeddingToolService interface {
	// Generate embeds text. When persist is set the result is stored as a record.
	Generate(ctx context.Context, text string, taskType domain.TaskType, persist bool, metadata map[string]any) (*domain.EmbeddingRecord, error)

	// Get retrieves a stored record.
	Get(ctx context.Context, id string) (*domain.EmbeddingRecord, error)

	// Delete removes a stored record.
	Delete(ctx context.Context, id string) error

	// Compare embeds both texts with the similarity task type and returns
	// their cosine similarity.
	Compare(ctx context.Context, a, b string) (float64, error)
}
