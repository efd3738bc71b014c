// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

// EmbeddingService generates vector embeddings from text.
// This is an optional service - when nil, the vector branch of retrieval is empty.
//
// Implementations may include:
//   - Gemini (text-embedding-004), which honours the task type
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	// Providers that do not support task types ignore the hint.
	Embed(ctx context.Context, text string, taskType domain.TaskType) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts with one task type.
	EmbedBatch(ctx context.Context, texts []string, taskType domain.TaskType) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
