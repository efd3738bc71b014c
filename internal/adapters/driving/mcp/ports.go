package mcp

import (
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Retrieval runs hybrid searches.
	Retrieval driving.RetrievalService

	// Document reads stored documents. Optional.
	Document driving.DocumentService

	// Embedding generates and stores embeddings. Optional; the embedding
	// tools report an error payload without it.
	Embedding driving.EmbeddingToolService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
