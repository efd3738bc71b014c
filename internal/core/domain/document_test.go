package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// TestKnowledgeDocument_Fields tests KnowledgeDocument structure fields
func TestKnowledgeDocument_Fields(t *testing.T) {
	now := time.Now()

	doc := KnowledgeDocument{
		ID:         "doc-123",
		Title:      "F2P Monetization Guide",
		Content:    "How free-to-play games earn revenue.",
		URL:        "https://blog.aloha-corp.com/f2p",
		Source:     "blog.aloha-corp.com",
		SourceType: SourceTypeBlog,
		Metadata:   map[string]any{MetaTags: []string{"games"}},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	assert.Equal(t, "doc-123", doc.ID)
	assert.Equal(t, SourceTypeBlog, doc.SourceType)
	assert.False(t, doc.IsChunk())
	assert.False(t, doc.HasEmbedding())
	assert.Equal(t, "https://blog.aloha-corp.com/f2p", doc.EffectiveSource())
}

func TestKnowledgeDocument_EffectiveSource_FallsBackToSource(t *testing.T) {
	doc := KnowledgeDocument{ID: "d", Source: "internal-wiki"}
	assert.Equal(t, "internal-wiki", doc.EffectiveSource())
}

func TestKnowledgeDocument_SetEmbedding(t *testing.T) {
	doc := KnowledgeDocument{ID: "d"}

	doc.SetEmbedding([]float32{0.1, 0.2, 0.3}, "text-embedding-004")
	assert.True(t, doc.HasEmbedding())
	assert.Equal(t, "text-embedding-004", doc.Model)
	assert.Equal(t, 3, doc.Dimensions)
	require.NoError(t, doc.Validate())

	doc.SetEmbedding(nil, "ignored")
	assert.False(t, doc.HasEmbedding())
	assert.Empty(t, doc.Model)
	assert.Zero(t, doc.Dimensions)
}

func TestKnowledgeDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     KnowledgeDocument
		wantErr error
	}{
		{
			name: "valid parent",
			doc:  KnowledgeDocument{ID: "p"},
		},
		{
			name:    "missing id",
			doc:     KnowledgeDocument{},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "embedding without model",
			doc:     KnowledgeDocument{ID: "p", Embedding: []float32{1}, Dimensions: 1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "dimensions disagree with vector",
			doc:     KnowledgeDocument{ID: "p", Embedding: []float32{1, 2}, Model: "m", Dimensions: 3},
			wantErr: ErrDimensionMismatch,
		},
		{
			name: "valid chunk",
			doc:  KnowledgeDocument{ID: "c", ParentID: strPtr("p"), ChunkIndex: 1, TotalChunks: 2},
		},
		{
			name:    "chunk pointing at itself",
			doc:     KnowledgeDocument{ID: "c", ParentID: strPtr("c"), TotalChunks: 1},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "chunk index out of range",
			doc:     KnowledgeDocument{ID: "c", ParentID: strPtr("p"), ChunkIndex: 2, TotalChunks: 2},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
