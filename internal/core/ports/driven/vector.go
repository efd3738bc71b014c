package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// VectorStore exposes stored embeddings for similarity search.
// Similarity is computed in the core, so implementations only filter.
type VectorStore interface {
	// ListEmbedded returns every document with a non-null embedding that
	// passes the filters. Parent and chunk rows are both returned.
	ListEmbedded(ctx context.Context, filters domain.SearchFilters) ([]*domain.KnowledgeDocument, error)
}

// EmbeddingStore persists embedding records created on request.
type EmbeddingStore interface {
	// SaveEmbedding stores or updates a record.
	SaveEmbedding(ctx context.Context, rec *domain.EmbeddingRecord) error

	// GetEmbedding retrieves a record by ID.
	GetEmbedding(ctx context.Context, id string) (*domain.EmbeddingRecord, error)

	// DeleteEmbedding removes a record.
	DeleteEmbedding(ctx context.Context, id string) error
}
