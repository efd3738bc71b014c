package services

import (
	"context"
	"sync"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector; everything else gets fallback.
type mockEmbeddingService struct {
	mu        sync.Mutex
	vectors   map[string][]float32
	fallback  []float32
	embedErr  error
	calls     int
	taskTypes []domain.TaskType
}

func (m *mockEmbeddingService) vectorFor(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	return m.fallback
}

func (m *mockEmbeddingService) Embed(_ context.Context, text string, taskType domain.TaskType) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.taskTypes = append(m.taskTypes, taskType)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vectorFor(text), nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string, taskType domain.TaskType) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.taskTypes = append(m.taskTypes, taskType)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, t := range texts {
		result[i] = m.vectorFor(t)
	}
	return result, nil
}

func (m *mockEmbeddingService) Dimensions() int {
	return len(m.fallback)
}

func (m *mockEmbeddingService) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbeddingService) Ping(_ context.Context) error {
	return m.embedErr
}

func (m *mockEmbeddingService) Close() error {
	return nil
}

// failingSearchEngine implements driven.SearchEngine and driven.VectorStore
// and fails every call.
type failingSearchEngine struct {
	err   error
	calls int
}

func (f *failingSearchEngine) Search(_ context.Context, _ string, _ domain.SearchFilters, _ int) ([]driven.LexicalHit, error) {
	f.calls++
	return nil, f.err
}

func (f *failingSearchEngine) ListEmbedded(_ context.Context, _ domain.SearchFilters) ([]*domain.KnowledgeDocument, error) {
	f.calls++
	return nil, f.err
}

// countingDocStore wraps a DocumentStore and counts Ping calls.
type countingDocStore struct {
	driven.DocumentStore
	pings int
}

func (c *countingDocStore) Ping(ctx context.Context) error {
	c.pings++
	return c.DocumentStore.Ping(ctx)
}
