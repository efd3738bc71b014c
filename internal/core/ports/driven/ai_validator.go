package driven

import "github.com/aloha-corp/aloha-rag/internal/core/domain"

// AIConfigValidator verifies an embedding configuration by building the
// provider and pinging it.
type AIConfigValidator interface {
	// ValidateEmbedding returns nil if the configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error
}
