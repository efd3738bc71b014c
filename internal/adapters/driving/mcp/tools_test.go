package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

func newTestServer(t *testing.T, ports *Ports) *Server {
	t.Helper()
	if ports.Retrieval == nil {
		ports.Retrieval = &mockRetrievalService{}
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleSearchKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("maps request and results", func(t *testing.T) {
		sim := 0.91
		retrieval := &mockRetrievalService{
			response: domain.RetrievalResponse{
				Success: true,
				Results: []domain.RetrievalRecord{{
					ID:         "doc-1",
					Title:      "F2P Monetization Guide",
					Content:    "Battle passes...",
					URL:        "https://blog.aloha-corp.com/f2p",
					Source:     "blog.aloha-corp.com",
					SourceType: "blog",
					Similarity: &sim,
					CreatedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
				}},
				Context: "[1] F2P Monetization Guide",
				Message: "Found 1 relevant document",
			},
		}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		threshold := 0.7
		_, output, err := server.handleSearchKnowledge(ctx, nil, SearchKnowledgeInput{
			Query:      "game monetization",
			Limit:      2,
			Threshold:  &threshold,
			Source:     "blog.aloha-corp.com",
			SourceType: "blog",
			SearchMode: "vector",
			DateFrom:   "2026-01-01",
			DateTo:     "2026-06-30",
		})
		require.NoError(t, err)

		req := retrieval.lastRequest
		assert.Equal(t, "game monetization", req.Query)
		assert.Equal(t, 2, req.Limit)
		assert.Equal(t, domain.SearchModeVector, req.Mode)
		require.NotNil(t, req.Threshold)
		assert.Equal(t, 0.7, *req.Threshold)
		assert.Equal(t, "blog.aloha-corp.com", req.Filters.Source)
		assert.Equal(t, "blog", req.Filters.SourceType)
		require.NotNil(t, req.Filters.DateFrom)
		require.NotNil(t, req.Filters.DateTo)
		assert.Equal(t, time.Date(2026, 6, 30, 23, 59, 59, 999999999, time.UTC), *req.Filters.DateTo)

		assert.True(t, output.Success)
		assert.Equal(t, "[1] F2P Monetization Guide", output.Context)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "doc-1", output.Results[0].ID)
		assert.Equal(t, "2026-05-01T12:00:00Z", output.Results[0].CreatedAt)
		assert.Equal(t, &sim, output.Results[0].Similarity)
	})

	t.Run("default mode is hybrid", func(t *testing.T) {
		retrieval := &mockRetrievalService{response: domain.RetrievalResponse{Success: true}}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearchKnowledge(ctx, nil, SearchKnowledgeInput{Query: "q"})
		require.NoError(t, err)
		assert.True(t, output.Success)
		assert.Equal(t, domain.SearchModeHybrid, retrieval.lastRequest.Mode)
		assert.Nil(t, retrieval.lastRequest.Threshold)
	})

	t.Run("invalid input becomes error payload", func(t *testing.T) {
		tests := []struct {
			name  string
			input SearchKnowledgeInput
		}{
			{"bad mode", SearchKnowledgeInput{Query: "q", SearchMode: "fuzzy"}},
			{"bad date", SearchKnowledgeInput{Query: "q", DateFrom: "yesterday"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := newTestServer(t, &Ports{})
				_, output, err := server.handleSearchKnowledge(ctx, nil, tt.input)
				require.NoError(t, err)
				assert.False(t, output.Success)
				assert.NotEmpty(t, output.Error)
			})
		}
	})

	t.Run("service failure is passed through", func(t *testing.T) {
		retrieval := &mockRetrievalService{
			response: domain.RetrievalResponse{Success: false, Error: "store unavailable"},
		}
		server := newTestServer(t, &Ports{Retrieval: retrieval})

		_, output, err := server.handleSearchKnowledge(ctx, nil, SearchKnowledgeInput{Query: "q"})
		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Equal(t, "store unavailable", output.Error)
		assert.Empty(t, output.Results)
	})
}

func TestServer_handleSearchKnowledge_EmptyResultsSerialized(t *testing.T) {
	retrieval := &mockRetrievalService{
		response: domain.RetrievalResponse{Success: true, Message: domain.NoResultsMessage},
	}
	server := newTestServer(t, &Ports{Retrieval: retrieval})

	_, output, err := server.handleSearchKnowledge(context.Background(), nil, SearchKnowledgeInput{Query: "q"})
	require.NoError(t, err)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"results":[],"message":"`+domain.NoResultsMessage+`"}`, string(data))
}

func TestServer_handleRetrieveContext(t *testing.T) {
	retrieval := &mockRetrievalService{context: domain.NoResultsMessage}
	server := newTestServer(t, &Ports{Retrieval: retrieval})

	result, output, err := server.handleRetrieveContext(context.Background(), nil, RetrieveContextInput{Query: "pricing"})
	require.NoError(t, err)
	assert.Equal(t, "pricing", retrieval.lastQuery)
	assert.Equal(t, domain.NoResultsMessage, output.Context)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, domain.NoResultsMessage, text.Text)
}

func TestServer_handleGenerateEmbedding(t *testing.T) {
	ctx := context.Background()
	record := &domain.EmbeddingRecord{ID: "emb-1", Embedding: []float32{0.1, 0.2}, Model: "text-embedding-004", Dimensions: 2}

	t.Run("stored embedding keeps id", func(t *testing.T) {
		embedding := &mockEmbeddingToolService{record: record}
		server := newTestServer(t, &Ports{Embedding: embedding})

		_, output, err := server.handleGenerateEmbedding(ctx, nil, GenerateEmbeddingInput{
			Text: "hello", TaskType: "similarity", Store: true, Metadata: map[string]any{"k": "v"},
		})
		require.NoError(t, err)
		assert.True(t, output.Success)
		assert.True(t, output.Stored)
		assert.Equal(t, "emb-1", output.ID)
		assert.Equal(t, "similarity", output.TaskType)
		assert.Equal(t, 2, output.Dimensions)
		assert.Equal(t, map[string]any{"k": "v"}, output.Metadata)
		assert.Equal(t, domain.TaskTypeSimilarity, embedding.lastTaskType)
		assert.True(t, embedding.lastPersist)
	})

	t.Run("unstored embedding has no id", func(t *testing.T) {
		embedding := &mockEmbeddingToolService{record: record}
		server := newTestServer(t, &Ports{Embedding: embedding})

		_, output, err := server.handleGenerateEmbedding(ctx, nil, GenerateEmbeddingInput{Text: "hello"})
		require.NoError(t, err)
		assert.True(t, output.Success)
		assert.Empty(t, output.ID)
		assert.Equal(t, domain.TaskTypeDocument, embedding.lastTaskType)
	})

	t.Run("errors become payloads", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, output, err := server.handleGenerateEmbedding(ctx, nil, GenerateEmbeddingInput{Text: "hello"})
		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Contains(t, output.Error, "embedding")

		server = newTestServer(t, &Ports{Embedding: &mockEmbeddingToolService{record: record}})
		_, output, err = server.handleGenerateEmbedding(ctx, nil, GenerateEmbeddingInput{Text: "hello", TaskType: "poetry"})
		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Contains(t, output.Error, "poetry")

		server = newTestServer(t, &Ports{Embedding: &mockEmbeddingToolService{err: errors.New("quota exceeded")}})
		_, output, err = server.handleGenerateEmbedding(ctx, nil, GenerateEmbeddingInput{Text: "hello"})
		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Equal(t, "quota exceeded", output.Error)
	})
}

func TestServer_handleGetAndDeleteEmbedding(t *testing.T) {
	ctx := context.Background()

	t.Run("get returns stored record", func(t *testing.T) {
		embedding := &mockEmbeddingToolService{record: &domain.EmbeddingRecord{
			ID: "emb-1", Embedding: []float32{1}, Model: "m", TaskType: domain.TaskTypeClustering, Dimensions: 1,
		}}
		server := newTestServer(t, &Ports{Embedding: embedding})

		_, output, err := server.handleGetEmbedding(ctx, nil, EmbeddingIDInput{ID: "emb-1"})
		require.NoError(t, err)
		assert.True(t, output.Success)
		assert.True(t, output.Stored)
		assert.Equal(t, "clustering", output.TaskType)
		assert.Equal(t, []float32{1}, output.Embedding)
	})

	t.Run("missing record", func(t *testing.T) {
		embedding := &mockEmbeddingToolService{err: domain.ErrNotFound}
		server := newTestServer(t, &Ports{Embedding: embedding})

		_, output, err := server.handleGetEmbedding(ctx, nil, EmbeddingIDInput{ID: "nope"})
		require.NoError(t, err)
		assert.False(t, output.Success)
		assert.Equal(t, "embedding not found", output.Error)

		_, output, err = server.handleDeleteEmbedding(ctx, nil, EmbeddingIDInput{ID: "nope"})
		require.NoError(t, err)
		assert.False(t, output.Success)
	})

	t.Run("delete succeeds", func(t *testing.T) {
		embedding := &mockEmbeddingToolService{}
		server := newTestServer(t, &Ports{Embedding: embedding})

		_, output, err := server.handleDeleteEmbedding(ctx, nil, EmbeddingIDInput{ID: "emb-9"})
		require.NoError(t, err)
		assert.True(t, output.Success)
		assert.Equal(t, "emb-9", embedding.deleted)
	})

	t.Run("no embedding service", func(t *testing.T) {
		server := newTestServer(t, &Ports{})
		_, output, err := server.handleGetEmbedding(ctx, nil, EmbeddingIDInput{ID: "x"})
		require.NoError(t, err)
		assert.False(t, output.Success)
	})
}
