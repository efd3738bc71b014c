package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// maxEmbedRunes caps the text sent to the provider for a parent document.
// Chunks carry the full body.
const maxEmbedRunes = 8000

// defaultLanguage is applied when ingestion does not detect one.
const defaultLanguage = "en"

// IngestService writes documents and their chunks into the store.
type IngestService struct {
	docStore    driven.DocumentStore
	embedder    driven.EmbeddingService
	pipeline    driven.PostProcessorPipeline
	normalisers driven.NormaliserRegistry
	now         func() time.Time
}

// NewIngestService creates a new ingest service.
// embedder may be nil, in which case documents are stored without vectors.
// pipeline may be nil to store parents without chunking.
func NewIngestService(
	docStore driven.DocumentStore,
	embedder driven.EmbeddingService,
	pipeline driven.PostProcessorPipeline,
	normalisers driven.NormaliserRegistry,
) *IngestService {
	return &IngestService{
		docStore:    docStore,
		embedder:    embedder,
		pipeline:    pipeline,
		normalisers: normalisers,
		now:         time.Now,
	}
}

// IngestRaw normalises raw bytes and ingests the result.
func (s *IngestService) IngestRaw(ctx context.Context, raw *domain.RawDocument, force bool) (*driving.IngestResult, error) {
	if s.normalisers == nil {
		return nil, fmt.Errorf("%w: no normalisers registered", domain.ErrUnsupportedType)
	}
	res, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.URI, err)
	}
	doc := res.Document
	return s.Ingest(ctx, &doc, force)
}

// Ingest stores a parent document. A document whose URL is already stored
// with the same content hash is skipped unless force is set. Otherwise it
// replaces the stored parent and its chunks, keeping the original ID and
// creation time.
func (s *IngestService) Ingest(ctx context.Context, doc *domain.KnowledgeDocument, force bool) (*driving.IngestResult, error) {
	logger.Section("Ingest")

	if doc == nil || strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%w: document content is required", domain.ErrInvalidInput)
	}
	if doc.IsChunk() {
		return nil, fmt.Errorf("%w: cannot ingest a chunk directly", domain.ErrInvalidInput)
	}

	hash, err := ContentHash(doc.Content)
	if err != nil {
		return nil, fmt.Errorf("hash content: %w", err)
	}

	result := &driving.IngestResult{}

	if doc.URL != "" {
		existing, err := s.docStore.FindByURL(ctx, doc.URL)
		switch {
		case err == nil && !force && existing.Metadata[domain.MetaContentHash] == hash:
			logger.Info("Skipping %s: unchanged, stored as %s", doc.URL, existing.ID)
			result.DocumentID = existing.ID
			result.Skipped = true
			return result, nil
		case err == nil:
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
			result.Replaced = true
		case !errors.Is(err, domain.ErrNotFound):
			return nil, fmt.Errorf("check duplicate %s: %w", doc.URL, err)
		}
	}

	s.fillDefaults(doc)
	doc.Metadata[domain.MetaContentHash] = hash
	result.DocumentID = doc.ID

	var chunks []*domain.KnowledgeDocument
	if s.pipeline != nil {
		chunks, err = s.pipeline.Process(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("chunk document %s: %w", doc.ID, err)
		}
	}
	result.Chunks = len(chunks)

	result.Embedded = s.embed(ctx, doc, chunks)

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	if err := s.docStore.SaveDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("save document %s: %w", doc.ID, err)
	}

	logger.Info("Ingested %s (%d chunks, %d embedded)", doc.ID, result.Chunks, result.Embedded)
	return result, nil
}

// RemoveByURL deletes the parent stored under url together with its chunks.
func (s *IngestService) RemoveByURL(ctx context.Context, url string) (string, error) {
	doc, err := s.docStore.FindByURL(ctx, url)
	if err != nil {
		return "", err
	}
	if err := s.docStore.DeleteDocument(ctx, doc.ID); err != nil {
		return "", fmt.Errorf("delete document %s: %w", doc.ID, err)
	}
	logger.Info("Removed %s (%s)", doc.ID, url)
	return doc.ID, nil
}

// fillDefaults sets identity, timestamps, language and source.
func (s *IngestService) fillDefaults(doc *domain.KnowledgeDocument) {
	now := s.now()
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now
	if doc.Title == "" {
		doc.Title = "Untitled"
	}
	if doc.Language == "" {
		doc.Language = defaultLanguage
	}
	if doc.Source == "" && doc.URL != "" {
		if u, err := url.Parse(doc.URL); err == nil {
			doc.Source = u.Hostname()
		}
	}
	if doc.SourceType == "" {
		doc.SourceType = domain.SourceTypeDocument
	}
	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
}

// embed attaches document-task embeddings to the parent and its chunks.
// Provider failures leave the documents without vectors.
func (s *IngestService) embed(ctx context.Context, doc *domain.KnowledgeDocument, chunks []*domain.KnowledgeDocument) int {
	if s.embedder == nil {
		logger.Debug("No embedding service, storing %s without vectors", doc.ID)
		return 0
	}

	texts := make([]string, 0, len(chunks)+1)
	texts = append(texts, embedText(doc))
	for _, c := range chunks {
		texts = append(texts, c.Content)
	}

	vecs, err := s.embedder.EmbedBatch(ctx, texts, domain.TaskTypeDocument)
	if err != nil {
		logger.Warn("Embedding failed for %s, storing without vectors: %v", doc.ID, err)
		return 0
	}
	if len(vecs) != len(texts) {
		logger.Warn("Embedding returned %d vectors for %d texts, storing without vectors", len(vecs), len(texts))
		return 0
	}

	model := s.embedder.ModelName()
	embedded := 0
	targets := append([]*domain.KnowledgeDocument{doc}, chunks...)
	for i, target := range targets {
		target.SetEmbedding(vecs[i], model)
		if target.HasEmbedding() {
			embedded++
		}
	}
	return embedded
}

// embedText is the text embedded for a parent: its title and the start of
// its body.
func embedText(doc *domain.KnowledgeDocument) string {
	body := []rune(doc.Content)
	if len(body) > maxEmbedRunes {
		body = body[:maxEmbedRunes]
	}
	if doc.Title == "" {
		return string(body)
	}
	return doc.Title + "\n\n" + string(body)
}
