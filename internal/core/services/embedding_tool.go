package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// Ensure EmbeddingToolService implements the interface.
var _ driving.EmbeddingToolService = (*EmbeddingToolService)(nil)

// EmbeddingToolService generates embeddings on request and manages the
// record cache.
type EmbeddingToolService struct {
	embedder driven.EmbeddingService
	store    driven.EmbeddingStore
	now      func() time.Time
}

// NewEmbeddingToolService creates a new embedding tool service.
// Both parameters are optional; operations needing a missing one fail with
// domain.ErrEmbeddingUnavailable or domain.ErrNotFound.
func NewEmbeddingToolService(embedder driven.EmbeddingService, store driven.EmbeddingStore) *EmbeddingToolService {
	return &EmbeddingToolService{
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
}

// Generate embeds text and optionally persists the result.
func (s *EmbeddingToolService) Generate(
	ctx context.Context, text string, taskType domain.TaskType, persist bool, metadata map[string]any,
) (*domain.EmbeddingRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidInput)
	}
	if taskType == "" {
		taskType = domain.TaskTypeDocument
	}
	if !taskType.IsValid() {
		return nil, fmt.Errorf("%w: unknown task type %q", domain.ErrInvalidInput, taskType)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	vec, err := s.embedder.Embed(ctx, text, taskType)
	if err != nil {
		return nil, fmt.Errorf("generate embedding: %w", err)
	}

	now := s.now()
	rec := &domain.EmbeddingRecord{
		ID:         uuid.New().String(),
		Text:       text,
		Embedding:  vec,
		Model:      s.embedder.ModelName(),
		TaskType:   taskType,
		Dimensions: len(vec),
		Metadata:   metadata,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if persist {
		if s.store == nil {
			return nil, fmt.Errorf("persist embedding: %w", domain.ErrStoreUnavailable)
		}
		if err := s.store.SaveEmbedding(ctx, rec); err != nil {
			return nil, fmt.Errorf("persist embedding: %w", err)
		}
		logger.Debug("Stored embedding %s (%d dims, %s)", rec.ID, rec.Dimensions, rec.TaskType)
	}

	return rec, nil
}

// Get retrieves a stored record.
func (s *EmbeddingToolService) Get(ctx context.Context, id string) (*domain.EmbeddingRecord, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.GetEmbedding(ctx, id)
}

// Delete removes a stored record.
func (s *EmbeddingToolService) Delete(ctx context.Context, id string) error {
	if s.store == nil {
		return domain.ErrNotFound
	}
	return s.store.DeleteEmbedding(ctx, id)
}

// Compare returns the cosine similarity of two texts embedded with the
// similarity task type.
func (s *EmbeddingToolService) Compare(ctx context.Context, a, b string) (float64, error) {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return 0, fmt.Errorf("%w: both texts are required", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}

	vecs, err := s.embedder.EmbedBatch(ctx, []string{a, b}, domain.TaskTypeSimilarity)
	if err != nil {
		return 0, fmt.Errorf("compare: %w", err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("compare: expected 2 embeddings, got %d", len(vecs))
	}
	return CosineSimilarity(vecs[0], vecs[1])
}
