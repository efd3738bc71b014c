package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/ai"
	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/config/file"
	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/storage/postgres"
	"github.com/aloha-corp/aloha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/aloha-corp/aloha-rag/internal/adapters/driving/cli"
	"github.com/aloha-corp/aloha-rag/internal/connectors/web"
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driven"
	"github.com/aloha-corp/aloha-rag/internal/core/services"
	"github.com/aloha-corp/aloha-rag/internal/logger"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/docx"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/eml"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/html"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/markdown"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/pdf"
	"github.com/aloha-corp/aloha-rag/internal/normalisers/plaintext"
	"github.com/aloha-corp/aloha-rag/internal/postprocessors"
)

// store is implemented by the sqlite and postgres backends.
type store interface {
	DocumentStore() driven.DocumentStore
	SearchEngine() driven.SearchEngine
	VectorStore() driven.VectorStore
	EmbeddingStore() driven.EmbeddingStore
	Close() error
}

// Provider keys read when the config leaves the embedding API key empty.
var providerKeyEnv = map[domain.AIProvider][]string{
	domain.AIProviderGemini: {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	domain.AIProviderOpenAI: {"OPENAI_API_KEY"},
}

// databaseURLEnv is read when the config leaves the postgres DSN empty.
var databaseURLEnv = []string{"ALOHA_DATABASE_URL", "DATABASE_URL"}

func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	loadDotEnv(opts.ConfigDir)

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	applyEnvFallbacks(settings, os.LookupEnv)

	st, err := openStore(ctx, settings.Storage, opts.DataDir)
	if err != nil {
		return nil, nil, err
	}

	emb := ai.InitEmbedding(ctx, &settings.Embedding)
	for _, w := range emb.Warnings {
		logger.Debug("embedding fallback: %s", w)
	}

	pipeline, err := postprocessors.BuildPipeline(newPostProcessorRegistry(), settingsService.GetPipelineConfig())
	if err != nil {
		emb.Close()
		st.Close()
		return nil, nil, fmt.Errorf("building pipeline: %w", err)
	}

	registry := newNormaliserRegistry()

	retrieval := services.NewRetrievalService(
		st.DocumentStore(),
		st.SearchEngine(),
		st.VectorStore(),
		emb.EmbeddingService,
		services.NewSourceValidator(settings.Validation.BlockedHosts),
	)
	retrieval.SetConfig(services.RetrievalConfigFrom(settings.Search))

	svcs := &cli.Services{
		Retrieval: retrieval,
		Document:  services.NewDocumentService(st.DocumentStore()),
		Ingest:    services.NewIngestService(st.DocumentStore(), emb.EmbeddingService, pipeline, registry),
		Embedding: services.NewEmbeddingToolService(emb.EmbeddingService, st.EmbeddingStore()),
		Settings:  settingsService,
		Files:     registry,
		Fetcher:   web.NewFetcher(nil),
	}

	cleanup := func() {
		emb.Close()
		if err := st.Close(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}
	return svcs, cleanup, nil
}

// loadDotEnv loads .env from the working directory and the config
// directory. Variables already set in the environment win.
func loadDotEnv(configDir string) {
	files := []string{".env"}
	if configDir != "" {
		files = append(files, filepath.Join(configDir, ".env"))
	} else if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".aloha", ".env"))
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("loading %s: %v", f, err)
		}
	}
}

// applyEnvFallbacks fills secrets the config leaves empty from the
// conventional provider variables.
func applyEnvFallbacks(s *domain.AppSettings, lookup func(string) (string, bool)) {
	if s.Embedding.APIKey == "" {
		if v := firstEnv(lookup, providerKeyEnv[s.Embedding.Provider]); v != "" {
			s.Embedding.APIKey = v
		}
	}
	if s.Storage.DSN == "" {
		s.Storage.DSN = firstEnv(lookup, databaseURLEnv)
	}
}

func firstEnv(lookup func(string) (string, bool), keys []string) string {
	for _, k := range keys {
		if v, ok := lookup(k); ok && v != "" {
			return v
		}
	}
	return ""
}

func openStore(ctx context.Context, cfg domain.StorageSettings, dataDir string) (store, error) {
	switch cfg.Driver {
	case domain.StorageDriverPostgres:
		st, err := postgres.NewStore(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return st, nil
	case domain.StorageDriverSQLite, "":
		st, err := sqlite.NewStore(dataDir)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		logger.Debug("using sqlite store at %s", st.Path())
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage driver %q", domain.ErrInvalidInput, cfg.Driver)
	}
}

func newNormaliserRegistry() *normalisers.Registry {
	return normalisers.NewRegistry(
		markdown.New(),
		html.New(),
		plaintext.New(),
		pdf.New(),
		docx.New(),
		eml.New(),
	)
}

func newPostProcessorRegistry() *postprocessors.Registry {
	r := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(r)
	return r
}
