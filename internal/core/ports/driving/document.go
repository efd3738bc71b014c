package driving

import (
	"context"
	"time"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// DocumentService manages stored knowledge documents.
type DocumentService interface {
	// List returns parent documents matching the filters.
	List(ctx context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error)

	// GetContent returns the document body, rebuilt from chunks when the
	// parent content is empty.
	GetContent(ctx context.Context, id string) (string, error)

	// GetDetails returns metadata for display.
	GetDetails(ctx context.Context, id string) (*DocumentDetails, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, id string) error
}

// DocumentDetails provides a standardised view of document metadata.
type DocumentDetails struct {
	ID         string
	Title      string
	URL        string
	Source     string
	SourceType string
	Language   string
	Model      string
	Dimensions int
	ChunkCount int
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Metadata contains flattened key-value pairs for display.
	Metadata map[string]string
}

// IngestService writes documents into the store.
type IngestService interface {
	// Ingest stores a parent document, chunking and embedding it.
	// A document whose URL is stored with identical content is skipped
	// unless force is set; changed content replaces the stored parent.
	Ingest(ctx context.Context, doc *domain.KnowledgeDocument, force bool) (*IngestResult, error)

	// IngestRaw normalises raw bytes and ingests the result.
	IngestRaw(ctx context.Context, raw *domain.RawDocument, force bool) (*IngestResult, error)

	// RemoveByURL deletes the parent stored under url with its chunks and
	// returns its ID. Returns domain.ErrNotFound if nothing is stored there.
	RemoveByURL(ctx context.Context, url string) (string, error)
}

// IngestResult reports what an ingestion did.
type IngestResult struct {
	DocumentID string
	Chunks     int
	Embedded   int
	Skipped    bool
	Replaced   bool
}
