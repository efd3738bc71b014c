package domain

// AIProvider identifies an embedding service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Generative Language API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderGemini
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// SupportsTaskType returns true if the provider biases vectors by task type.
func (p AIProvider) SupportsTaskType() bool {
	return p == AIProviderGemini
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Gemini (cloud, task-type aware)"
	default:
		return unknownDescription
	}
}

// StorageDriver identifies the document store backend.
type StorageDriver string

// Available storage drivers.
const (
	StorageDriverSQLite   StorageDriver = "sqlite"
	StorageDriverPostgres StorageDriver = "postgres"
)

// IsValid returns true if the driver is recognised.
func (d StorageDriver) IsValid() bool {
	return d == StorageDriverSQLite || d == StorageDriverPostgres
}

// String returns the string representation.
func (d StorageDriver) String() string {
	return string(d)
}

// SearchSettings holds retrieval behaviour configuration.
type SearchSettings struct {
	// Mode is the default search mode for requests that omit one.
	Mode SearchMode

	// Limit is the default result count.
	Limit int

	// Threshold is the default minimum cosine similarity.
	Threshold float64

	// RecencyWeight scales the recency bonus applied during fusion.
	RecencyWeight float64
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is the API key (for OpenAI and Gemini).
	APIKey string

	// Dimensions requests a reduced output size where the provider supports it.
	// Zero keeps the model default.
	Dimensions int

	// RequestsPerSecond throttles outbound calls. Zero disables throttling.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// StorageSettings selects and locates the document store.
type StorageSettings struct {
	// Driver is the backend.
	Driver StorageDriver

	// DSN is the postgres connection string. Unused for sqlite.
	DSN string
}

// ChunkingSettings controls how oversized documents are split at ingestion.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// ValidationSettings holds source validation policy.
type ValidationSettings struct {
	// BlockedHosts are placeholder hosts whose documents are never returned.
	// Subdomains of a blocked host are blocked too.
	BlockedHosts []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Search     SearchSettings
	Embedding  EmbeddingSettings
	Storage    StorageSettings
	Chunking   ChunkingSettings
	Validation ValidationSettings
}

// Chunking defaults.
const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// DefaultBlockedHosts returns the placeholder hosts rejected by default.
func DefaultBlockedHosts() []string {
	return []string{
		"example.com",
		"example.org",
		"example.net",
		"test.com",
		"mock.com",
		"placeholder.com",
		"demo.com",
		"fake.com",
		"sample.com",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// Embedding is left unconfigured, so retrieval runs lexical only until a
// provider is set.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			Mode:          SearchModeHybrid,
			Limit:         DefaultRetrievalLimit,
			Threshold:     DefaultThreshold,
			RecencyWeight: DefaultRecencyWeight,
		},
		Embedding: EmbeddingSettings{},
		Storage: StorageSettings{
			Driver: StorageDriverSQLite,
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Validation: ValidationSettings{
			BlockedHosts: DefaultBlockedHosts(),
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderGemini,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderGemini: "text-embedding-004",
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Gemini models
		"text-embedding-004":   768,
		"gemini-embedding-001": 3072,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor builds the pipeline configuration from chunking settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}
