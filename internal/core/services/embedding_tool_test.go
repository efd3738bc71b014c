package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/storage/memory"
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func TestEmbeddingToolService_Generate(t *testing.T) {
	embedder := &mockEmbeddingService{fallback: []float32{0.1, 0.2, 0.3}}
	store := memory.NewEmbeddingStore()
	svc := NewEmbeddingToolService(embedder, store)
	ctx := context.Background()

	rec, err := svc.Generate(ctx, "hello", "", false, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeDocument, rec.TaskType)
	assert.Equal(t, 3, rec.Dimensions)
	assert.Equal(t, "mock-embed", rec.Model)

	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "not persisted unless asked")

	rec, err = svc.Generate(ctx, "hello", domain.TaskTypeClustering, true, map[string]any{"tag": "x"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskTypeClustering, got.TaskType)
	assert.Equal(t, "x", got.Metadata["tag"])

	require.NoError(t, svc.Delete(ctx, rec.ID))
	assert.True(t, errors.Is(svc.Delete(ctx, rec.ID), domain.ErrNotFound))
}

func TestEmbeddingToolService_Generate_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewEmbeddingToolService(&mockEmbeddingService{fallback: []float32{1}}, nil)

	_, err := svc.Generate(ctx, " ", "", false, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = svc.Generate(ctx, "text", "telepathy", false, nil)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = svc.Generate(ctx, "text", "", true, nil)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))

	_, err = NewEmbeddingToolService(nil, nil).Generate(ctx, "text", "", false, nil)
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))

	failing := NewEmbeddingToolService(&mockEmbeddingService{embedErr: domain.ErrRateLimited}, nil)
	_, err = failing.Generate(ctx, "text", "", false, nil)
	assert.True(t, errors.Is(err, domain.ErrRateLimited))
}

func TestEmbeddingToolService_Compare(t *testing.T) {
	embedder := &mockEmbeddingService{
		vectors: map[string][]float32{
			"cat":    {1, 0},
			"kitten": {0.9, 0.1},
			"tax":    {0, 1},
		},
	}
	svc := NewEmbeddingToolService(embedder, nil)
	ctx := context.Background()

	near, err := svc.Compare(ctx, "cat", "kitten")
	require.NoError(t, err)
	far, err := svc.Compare(ctx, "cat", "tax")
	require.NoError(t, err)

	assert.Greater(t, near, far)
	assert.InDelta(t, 0, far, 1e-9)
	assert.Equal(t, domain.TaskTypeSimilarity, embedder.taskTypes[0])

	_, err = svc.Compare(ctx, "cat", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = NewEmbeddingToolService(nil, nil).Compare(ctx, "a", "b")
	assert.True(t, errors.Is(err, domain.ErrEmbeddingUnavailable))
}

func TestEmbeddingToolService_NoStore(t *testing.T) {
	svc := NewEmbeddingToolService(nil, nil)

	_, err := svc.Get(context.Background(), "id")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(svc.Delete(context.Background(), "id"), domain.ErrNotFound))
}
