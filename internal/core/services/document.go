package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages stored knowledge documents.
type DocumentService struct {
	docStore driven.DocumentStore
}

// NewDocumentService creates a new document service.
func NewDocumentService(docStore driven.DocumentStore) *DocumentService {
	return &DocumentService{docStore: docStore}
}

// List returns parent documents matching the filters.
func (s *DocumentService) List(ctx context.Context, filters domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return s.docStore.ListDocuments(ctx, filters, limit)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.KnowledgeDocument, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreUnavailable
	}
	return s.docStore.GetDocument(ctx, id)
}

// GetContent returns the document body. When the stored parent has no
// content, the chunks are stitched back together with their overlaps removed.
func (s *DocumentService) GetContent(ctx context.Context, id string) (string, error) {
	if s.docStore == nil {
		return "", domain.ErrStoreUnavailable
	}

	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return "", err
	}
	if doc.Content != "" {
		return doc.Content, nil
	}

	chunks, err := s.docStore.GetChunks(ctx, id)
	if err != nil {
		return "", err
	}

	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})

	var builder strings.Builder
	prev := ""
	for _, chunk := range chunks {
		builder.WriteString(strings.TrimPrefix(chunk.Content, overlapOf(prev, chunk.Content)))
		prev = chunk.Content
	}

	return builder.String(), nil
}

// GetDetails returns metadata for display.
func (s *DocumentService) GetDetails(ctx context.Context, id string) (*driving.DocumentDetails, error) {
	if s.docStore == nil {
		return nil, domain.ErrStoreUnavailable
	}

	doc, err := s.docStore.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	chunkCount := 0
	if !doc.IsChunk() {
		chunks, err := s.docStore.GetChunks(ctx, id)
		if err == nil {
			chunkCount = len(chunks)
		}
	}

	// Flatten metadata to string map
	metadata := make(map[string]string, len(doc.Metadata))
	for key, value := range doc.Metadata {
		metadata[key] = fmt.Sprintf("%v", value)
	}

	return &driving.DocumentDetails{
		ID:         doc.ID,
		Title:      doc.Title,
		URL:        doc.URL,
		Source:     doc.Source,
		SourceType: doc.SourceType.String(),
		Language:   doc.Language,
		Model:      doc.Model,
		Dimensions: doc.Dimensions,
		ChunkCount: chunkCount,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		Metadata:   metadata,
	}, nil
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	if s.docStore == nil {
		return domain.ErrStoreUnavailable
	}
	return s.docStore.DeleteDocument(ctx, id)
}

// overlapOf returns the longest suffix of prev that is also a prefix of next.
func overlapOf(prev, next string) string {
	maxLen := len(prev)
	if len(next) < maxLen {
		maxLen = len(next)
	}
	for n := maxLen; n > 0; n-- {
		if strings.HasPrefix(next, prev[len(prev)-n:]) {
			return next[:n]
		}
	}
	return ""
}
