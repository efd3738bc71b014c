package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// PostProcessor transforms a parent document into chunk rows.
// PostProcessors are chained in a pipeline.
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process receives the parent and the chunks produced so far (nil for
	// the first processor) and returns the new chunk set.
	Process(ctx context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) ([]*domain.KnowledgeDocument, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.KnowledgeDocument) ([]*domain.KnowledgeDocument, error)
}
