package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// Normaliser transforms raw bytes into a knowledge document.
// Each normaliser handles specific MIME types (e.g., Markdown, HTML).
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers return 50-89, fallbacks 1-9.
	Priority() int

	// Normalise transforms a raw document into a parent document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Normalisation only produces a parent with Content; chunking is handled
// by the PostProcessor pipeline.
type NormaliseResult struct {
	Document domain.KnowledgeDocument
}
