// Package cli provides the cobra command tree for the aloha binary.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
	"github.com/aloha-corp/aloha-rag/internal/logger"
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "skip-bootstrap"

var version = "dev"

var (
	verbose   bool
	configDir string
	dataDir   string
)

// Services injected by SetServices. Any of them may be nil; commands that
// need a missing one fail with "<name> service not configured".
var (
	retrievalService driving.RetrievalService
	documentService  driving.DocumentService
	ingestService    driving.IngestService
	embeddingService driving.EmbeddingToolService
	settingsService  driving.SettingsService
	fileMatcher      FileMatcher
	pageFetcher      Fetcher
)

// FileMatcher reports which local files can be ingested.
type FileMatcher interface {
	Supports(path string) bool
	Extensions() []string
}

// Fetcher downloads web pages for ingestion.
type Fetcher interface {
	Fetch(ctx context.Context, url, source string) (*domain.RawDocument, error)
}

// Services bundles the driving ports the commands use.
type Services struct {
	Retrieval driving.RetrievalService
	Document  driving.DocumentService
	Ingest    driving.IngestService
	Embedding driving.EmbeddingToolService
	Settings  driving.SettingsService
	Files     FileMatcher
	Fetcher   Fetcher
}

// Options are the global flag values handed to the bootstrap function.
type Options struct {
	ConfigDir string
	DataDir   string
	Verbose   bool
}

// BootstrapFunc builds the services once flags are parsed. The returned
// cleanup runs when Execute returns.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, func(), error)

var (
	bootstrap BootstrapFunc
	cleanup   func()
)

var rootCmd = &cobra.Command{
	Use:   "aloha",
	Short: "Hybrid knowledge retrieval for LLM agents",
	Long: `aloha indexes articles, newsletters and documents, and retrieves the
most relevant ones for a query by combining full-text search with
embedding similarity.

Use it from the command line, or run 'aloha mcp serve' to expose the
knowledge base to an AI assistant.`,
	SilenceUsage:      true,
	PersistentPreRunE: runBootstrap,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.aloha)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.aloha/data)")
}

// SetVersion sets the version reported by 'aloha version'.
func SetVersion(v string) {
	version = v
}

// SetBootstrap registers the function that builds services before each command.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	retrievalService = s.Retrieval
	documentService = s.Document
	ingestService = s.Ingest
	embeddingService = s.Embedding
	settingsService = s.Settings
	fileMatcher = s.Files
	pageFetcher = s.Fetcher
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if cleanup != nil {
		cleanup()
		cleanup = nil
	}
	return err
}

func runBootstrap(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	if bootstrap == nil || cmd.Annotations[skipBootstrap] == "true" {
		return nil
	}

	svcs, done, err := bootstrap(cmd.Context(), Options{
		ConfigDir: configDir,
		DataDir:   dataDir,
		Verbose:   verbose,
	})
	if err != nil {
		return err
	}
	SetServices(svcs)
	cleanup = done
	return nil
}

func notConfigured(name string) error {
	return errors.New(name + " service not configured")
}
