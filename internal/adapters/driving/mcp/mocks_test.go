package mcp

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
)

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	response    domain.RetrievalResponse
	context     string
	lastRequest domain.RetrievalRequest
	lastQuery   string
}

func (m *mockRetrievalService) Search(_ context.Context, req domain.RetrievalRequest) ([]domain.ScoredDocument, error) {
	m.lastRequest = req
	return nil, nil
}

func (m *mockRetrievalService) Query(_ context.Context, req domain.RetrievalRequest) domain.RetrievalResponse {
	m.lastRequest = req
	return m.response
}

func (m *mockRetrievalService) Retrieve(_ context.Context, query string) string {
	m.lastQuery = query
	return m.context
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []*domain.KnowledgeDocument
	document  *domain.KnowledgeDocument
	content   string
	details   *driving.DocumentDetails
	lastLimit int
	err       error
}

func (m *mockDocumentService) List(_ context.Context, _ domain.SearchFilters, limit int) ([]*domain.KnowledgeDocument, error) {
	m.lastLimit = limit
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.KnowledgeDocument, error) {
	return m.document, m.err
}

func (m *mockDocumentService) GetContent(_ context.Context, _ string) (string, error) {
	return m.content, m.err
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockEmbeddingToolService is a mock implementation of driving.EmbeddingToolService.
type mockEmbeddingToolService struct {
	record       *domain.EmbeddingRecord
	err          error
	lastTaskType domain.TaskType
	lastPersist  bool
	deleted      string
}

func (m *mockEmbeddingToolService) Generate(
	_ context.Context, text string, taskType domain.TaskType, persist bool, metadata map[string]any,
) (*domain.EmbeddingRecord, error) {
	m.lastTaskType = taskType
	m.lastPersist = persist
	if m.err != nil {
		return nil, m.err
	}
	rec := *m.record
	rec.Text = text
	rec.TaskType = taskType
	rec.Metadata = metadata
	return &rec, nil
}

func (m *mockEmbeddingToolService) Get(_ context.Context, _ string) (*domain.EmbeddingRecord, error) {
	return m.record, m.err
}

func (m *mockEmbeddingToolService) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

func (m *mockEmbeddingToolService) Compare(_ context.Context, _, _ string) (float64, error) {
	return 0, m.err
}
