// Package chunker splits oversized documents into overlapping chunk rows.
package chunker

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Processor turns a parent document into chunk documents.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured window size.
func (p *Processor) ChunkSize() int {
	return p.chunkSize
}

// Overlap returns the configured overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Process splits the parent content into chunk documents.
// Content that fits in one window produces no chunks: the parent itself is
// the searchable unit. Input chunks are ignored.
func (p *Processor) Process(_ context.Context, doc *domain.KnowledgeDocument, _ []*domain.KnowledgeDocument) ([]*domain.KnowledgeDocument, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: parent document has no id", domain.ErrInvalidInput)
	}

	segments := Split(doc.Content, p.chunkSize, p.overlap)
	if len(segments) <= 1 {
		return nil, nil
	}

	parentID := doc.ID
	chunks := make([]*domain.KnowledgeDocument, 0, len(segments))

	for _, seg := range segments {
		meta := make(map[string]any, len(doc.Metadata)+1)
		maps.Copy(meta, doc.Metadata)
		meta[domain.MetaParentTitle] = doc.Title

		chunks = append(chunks, &domain.KnowledgeDocument{
			ID:          uuid.New().String(),
			Title:       fmt.Sprintf("%s (part %d/%d)", doc.Title, seg.Index+1, seg.Total),
			Content:     seg.Content,
			URL:         doc.URL,
			Source:      doc.Source,
			SourceType:  doc.SourceType,
			Language:    doc.Language,
			Metadata:    meta,
			ParentID:    &parentID,
			ChunkIndex:  seg.Index,
			ChunkSize:   seg.Size,
			TotalChunks: seg.Total,
			CreatedAt:   doc.CreatedAt,
			UpdatedAt:   doc.UpdatedAt,
		})
	}

	return chunks, nil
}
