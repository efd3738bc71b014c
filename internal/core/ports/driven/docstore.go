package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// DocumentStore persists knowledge documents and their chunks.
type DocumentStore interface {
	// SaveDocument stores or replaces a parent document together with its
	// chunks in one transaction. Existing chunks of the parent are removed.
	SaveDocument(ctx context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) error

	// GetDocument retrieves a document or chunk by ID.
	GetDocument(ctx context.Context, id string) (*domain.KnowledgeDocument, error)

	// GetChunks retrieves all chunks of a parent ordered by chunk index.
	GetChunks(ctx context.Context, parentID string) ([]*domain.KnowledgeDocument, error)

	// FindByURL returns the parent document with the given URL.
	// Returns domain.ErrNotFound if none exists.
	FindByURL(ctx context.Context, url string) (*domain.KnowledgeDocument, error)

	// ListDocuments returns parent documents matching the filters, newest first.
	ListDocuments(ctx context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
