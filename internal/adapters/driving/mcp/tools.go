package mcp

import (
	"context"
	"errors"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// SearchKnowledgeInput is the input schema for the search_knowledge tool.
type SearchKnowledgeInput struct {
	Query      string   `json:"query" jsonschema:"the question or keywords to search for"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results (default 3, at most 5)"`
	Threshold  *float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity for vector matches between 0 and 1 (default 0.8)"`
	Source     string   `json:"source,omitempty" jsonschema:"only return documents from this source domain"`
	SourceType string   `json:"sourceType,omitempty" jsonschema:"only return documents of this type such as blog or newsletter"`
	SearchMode string   `json:"searchMode,omitempty" jsonschema:"text or vector or hybrid (default hybrid)"`
	DateFrom   string   `json:"dateFrom,omitempty" jsonschema:"earliest creation date, YYYY-MM-DD"`
	DateTo     string   `json:"dateTo,omitempty" jsonschema:"latest creation date, YYYY-MM-DD"`
}

// SearchKnowledgeOutput is the output schema for the search_knowledge tool.
type SearchKnowledgeOutput struct {
	Success bool                  `json:"success"`
	Results []KnowledgeResultItem `json:"results"`
	Context string                `json:"context,omitempty"`
	Message string                `json:"message,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// KnowledgeResultItem represents a single retrieved document.
type KnowledgeResultItem struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	URL        string   `json:"url,omitempty"`
	Source     string   `json:"source"`
	SourceType string   `json:"sourceType"`
	Summary    string   `json:"summary,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
	CreatedAt  string   `json:"createdAt"`
}

// RetrieveContextInput is the input schema for the retrieve_context tool.
type RetrieveContextInput struct {
	Query string `json:"query" jsonschema:"the question to gather context for"`
}

// RetrieveContextOutput is the output schema for the retrieve_context tool.
type RetrieveContextOutput struct {
	Context string `json:"context"`
}

// GenerateEmbeddingInput is the input schema for the generate_embedding tool.
type GenerateEmbeddingInput struct {
	Text     string         `json:"text" jsonschema:"the text to embed"`
	TaskType string         `json:"taskType,omitempty" jsonschema:"document, search_query, similarity, clustering or classification (default document)"`
	Store    bool           `json:"store,omitempty" jsonschema:"persist the embedding so it can be fetched by id later"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"free-form metadata stored with the embedding"`
}

// EmbeddingIDInput identifies a stored embedding.
type EmbeddingIDInput struct {
	ID string `json:"id" jsonschema:"the embedding id returned by generate_embedding"`
}

// EmbeddingOutput is the output schema for the embedding tools.
type EmbeddingOutput struct {
	Success    bool           `json:"success"`
	ID         string         `json:"id,omitempty"`
	Embedding  []float32      `json:"embedding,omitempty"`
	Model      string         `json:"model,omitempty"`
	TaskType   string         `json:"taskType,omitempty"`
	Dimensions int            `json:"dimensions,omitempty"`
	Stored     bool           `json:"stored,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_knowledge",
		Description: "Search the knowledge base with full-text and semantic search and return ranked documents plus a formatted context block",
	}, s.handleSearchKnowledge)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve_context",
		Description: "Return a formatted context block of the most relevant documents for a question",
	}, s.handleRetrieveContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_embedding",
		Description: "Generate a vector embedding for text, optionally storing it",
	}, s.handleGenerateEmbedding)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_embedding",
		Description: "Fetch a stored embedding by id",
	}, s.handleGetEmbedding)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_embedding",
		Description: "Delete a stored embedding by id",
	}, s.handleDeleteEmbedding)
}

// handleSearchKnowledge handles the search_knowledge tool invocation.
// Failures are reported in the payload, never as protocol errors.
func (s *Server) handleSearchKnowledge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchKnowledgeInput,
) (*mcp.CallToolResult, SearchKnowledgeOutput, error) {
	req, err := toRetrievalRequest(input)
	if err != nil {
		return nil, SearchKnowledgeOutput{
			Success: false,
			Results: []KnowledgeResultItem{},
			Error:   err.Error(),
		}, nil
	}

	resp := s.ports.Retrieval.Query(ctx, req)

	output := SearchKnowledgeOutput{
		Success: resp.Success,
		Results: make([]KnowledgeResultItem, 0, len(resp.Results)),
		Context: resp.Context,
		Message: resp.Message,
		Error:   resp.Error,
	}
	for _, r := range resp.Results {
		output.Results = append(output.Results, KnowledgeResultItem{
			ID:         r.ID,
			Title:      r.Title,
			Content:    r.Content,
			URL:        r.URL,
			Source:     r.Source,
			SourceType: r.SourceType,
			Summary:    r.Summary,
			Similarity: r.Similarity,
			CreatedAt:  r.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return nil, output, nil
}

// toRetrievalRequest validates tool input into a retrieval request.
func toRetrievalRequest(input SearchKnowledgeInput) (domain.RetrievalRequest, error) {
	mode, err := domain.ParseSearchMode(input.SearchMode)
	if err != nil {
		return domain.RetrievalRequest{}, err
	}
	from, err := domain.ParseFilterDate(input.DateFrom, false)
	if err != nil {
		return domain.RetrievalRequest{}, err
	}
	to, err := domain.ParseFilterDate(input.DateTo, true)
	if err != nil {
		return domain.RetrievalRequest{}, err
	}

	return domain.RetrievalRequest{
		Query:     input.Query,
		Limit:     input.Limit,
		Mode:      mode,
		Threshold: input.Threshold,
		Filters: domain.SearchFilters{
			Source:     input.Source,
			SourceType: input.SourceType,
			DateFrom:   from,
			DateTo:     to,
		},
	}, nil
}

// handleRetrieveContext handles the retrieve_context tool invocation.
func (s *Server) handleRetrieveContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveContextInput,
) (*mcp.CallToolResult, RetrieveContextOutput, error) {
	text := s.ports.Retrieval.Retrieve(ctx, input.Query)
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, RetrieveContextOutput{Context: text}, nil
}

// handleGenerateEmbedding handles the generate_embedding tool invocation.
func (s *Server) handleGenerateEmbedding(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateEmbeddingInput,
) (*mcp.CallToolResult, EmbeddingOutput, error) {
	if s.ports.Embedding == nil {
		return nil, embeddingError(domain.ErrEmbeddingUnavailable), nil
	}

	taskType, err := domain.ParseTaskType(input.TaskType)
	if err != nil {
		return nil, embeddingError(err), nil
	}

	rec, err := s.ports.Embedding.Generate(ctx, input.Text, taskType, input.Store, input.Metadata)
	if err != nil {
		return nil, embeddingError(err), nil
	}

	out := embeddingOutput(rec)
	out.Stored = input.Store
	if !input.Store {
		// Unstored records cannot be fetched by ID.
		out.ID = ""
	}
	return nil, out, nil
}

// handleGetEmbedding handles the get_embedding tool invocation.
func (s *Server) handleGetEmbedding(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmbeddingIDInput,
) (*mcp.CallToolResult, EmbeddingOutput, error) {
	if s.ports.Embedding == nil {
		return nil, embeddingError(domain.ErrNotFound), nil
	}

	rec, err := s.ports.Embedding.Get(ctx, input.ID)
	if err != nil {
		return nil, embeddingError(err), nil
	}

	out := embeddingOutput(rec)
	out.Stored = true
	return nil, out, nil
}

// handleDeleteEmbedding handles the delete_embedding tool invocation.
func (s *Server) handleDeleteEmbedding(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EmbeddingIDInput,
) (*mcp.CallToolResult, EmbeddingOutput, error) {
	if s.ports.Embedding == nil {
		return nil, embeddingError(domain.ErrNotFound), nil
	}
	if err := s.ports.Embedding.Delete(ctx, input.ID); err != nil {
		return nil, embeddingError(err), nil
	}
	return nil, EmbeddingOutput{Success: true, ID: input.ID}, nil
}

func embeddingOutput(rec *domain.EmbeddingRecord) EmbeddingOutput {
	return EmbeddingOutput{
		Success:    true,
		ID:         rec.ID,
		Embedding:  rec.Embedding,
		Model:      rec.Model,
		TaskType:   rec.TaskType.String(),
		Dimensions: rec.Dimensions,
		Metadata:   rec.Metadata,
	}
}

// embeddingError maps an error to a payload. Not-found is reported plainly.
func embeddingError(err error) EmbeddingOutput {
	if errors.Is(err, domain.ErrNotFound) {
		return EmbeddingOutput{Success: false, Error: "embedding not found"}
	}
	return EmbeddingOutput{Success: false, Error: err.Error()}
}
