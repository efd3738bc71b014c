package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/connectors/filesystem"
	"github.com/aloha-corp/aloha-rag/internal/core/domain"
	"github.com/aloha-corp/aloha-rag/internal/core/ports/driving"
	"github.com/aloha-corp/aloha-rag/internal/logger"
	"github.com/aloha-corp/aloha-rag/internal/normalisers"
)

// defaultLocalSource is recorded on local files ingested without --source.
const defaultLocalSource = "local"

var (
	ingestForce      bool
	ingestSource     string
	ingestSourceType string
	ingestSince      string
	ingestWatch      bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path|url...]",
	Short: "Add files, directories or web pages to the knowledge base",
	Long: `Normalises each file or page, splits oversized bodies into chunks,
embeds them when a provider is configured, and stores the result.

Directories are walked recursively; hidden files and unsupported formats
are skipped. Content already stored under the same URL is skipped when
unchanged and replaced otherwise. Use --force to always replace.

With --watch, local paths keep being watched after the first pass:
new and modified files are ingested and deleted files are removed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVarP(&ingestForce, "force", "f", false, "replace documents even when unchanged")
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source name recorded on the documents")
	ingestCmd.Flags().StringVarP(&ingestSourceType, "type", "t", "", "source type, e.g. blog or newsletter (default detected)")
	ingestCmd.Flags().StringVar(&ingestSince, "since", "", "only local files modified after this date (YYYY-MM-DD)")
	ingestCmd.Flags().BoolVarP(&ingestWatch, "watch", "w", false, "keep watching local paths for changes")
	rootCmd.AddCommand(ingestCmd)
}

// ingestTally counts outcomes across a run.
type ingestTally struct {
	added    int
	replaced int
	skipped  int
	failed   int
	chunks   int
}

func (t *ingestTally) record(res *driving.IngestResult) {
	switch {
	case res.Skipped:
		t.skipped++
	case res.Replaced:
		t.replaced++
	default:
		t.added++
	}
	t.chunks += res.Chunks
}

func (t *ingestTally) total() int {
	return t.added + t.replaced + t.skipped
}

func (t *ingestTally) String() string {
	s := fmt.Sprintf("%d added, %d replaced, %d unchanged", t.added, t.replaced, t.skipped)
	if t.chunks > 0 {
		s += fmt.Sprintf(", %d chunks", t.chunks)
	}
	if t.failed > 0 {
		s += ", " + render(warnStyle, fmt.Sprintf("%d failed", t.failed))
	}
	return s
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return notConfigured("ingest")
	}

	since, err := domain.ParseFilterDate(ingestSince, false)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tally := &ingestTally{}
	var watched []*filesystem.Connector

	for _, arg := range args {
		if normalisers.IsWebURL(arg) {
			if ingestWatch {
				logger.Warn("Not watching %s: only local paths can be watched", arg)
			}
			ingestURL(cmd, arg, tally)
			continue
		}

		conn := newFileConnector(arg, since)
		if err := ingestPath(cmd, conn, tally); err != nil {
			return err
		}
		watched = append(watched, conn)
	}

	if tally.total() == 0 && tally.failed == 0 {
		if exts := supportedExtensions(); exts != "" {
			cmd.Printf("No supported files found. Supported extensions: %s\n", exts)
		}
	}
	cmd.Printf("Ingest complete: %s\n", tally)

	if !ingestWatch || len(watched) == 0 || ctx.Err() != nil {
		return nil
	}
	return watchPaths(ctx, cmd, watched)
}

func newFileConnector(path string, since *time.Time) *filesystem.Connector {
	opts := []filesystem.Option{}
	if fileMatcher != nil {
		opts = append(opts, filesystem.WithFilter(fileMatcher.Supports))
	}
	if since != nil {
		opts = append(opts, filesystem.WithModifiedSince(*since))
	}
	source := ingestSource
	if source == "" {
		source = defaultLocalSource
	}
	return filesystem.New(source, path, opts...)
}

func ingestURL(cmd *cobra.Command, url string, tally *ingestTally) {
	if pageFetcher == nil {
		cmd.PrintErrf("  %s: web fetching not configured\n", url)
		tally.failed++
		return
	}

	raw, err := pageFetcher.Fetch(cmd.Context(), url, ingestSource)
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", url, err)
		tally.failed++
		return
	}
	ingestOne(cmd, raw, tally)
}

func ingestPath(cmd *cobra.Command, conn *filesystem.Connector, tally *ingestTally) error {
	docs, errs := conn.FullSync(cmd.Context())
	for raw := range docs {
		ingestOne(cmd, &raw, tally)
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("ingest failed: %w", err)
	}
	return nil
}

func ingestOne(cmd *cobra.Command, raw *domain.RawDocument, tally *ingestTally) {
	if ingestSourceType != "" {
		if raw.Metadata == nil {
			raw.Metadata = make(map[string]any)
		}
		raw.Metadata[normalisers.MetaSourceType] = ingestSourceType
	}

	res, err := ingestService.IngestRaw(cmd.Context(), raw, ingestForce)
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", raw.URI, err)
		tally.failed++
		return
	}
	tally.record(res)

	if res.Skipped {
		logger.Debug("Unchanged: %s", raw.URI)
		return
	}
	verb := "added"
	if res.Replaced {
		verb = "replaced"
	}
	cmd.Printf("  %s %s %s\n", render(scoreStyle, verb), raw.URI, render(dimStyle, res.DocumentID))
}

// watchPaths applies changes under the given roots until the context ends.
func watchPaths(ctx context.Context, cmd *cobra.Command, conns []*filesystem.Connector) error {
	merged := make(chan filesystem.Change)
	var wg sync.WaitGroup

	for _, conn := range conns {
		changes, err := conn.Watch(ctx)
		if err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		defer conn.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			for change := range changes {
				select {
				case merged <- change:
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	cmd.Println("Watching for changes. Press Ctrl+C to stop.")

	tally := &ingestTally{}
	for change := range merged {
		applyChange(cmd, change, tally)
	}

	cmd.Printf("Stopped watching: %s\n", tally)
	return nil
}

func applyChange(cmd *cobra.Command, change filesystem.Change, tally *ingestTally) {
	if change.Type != filesystem.ChangeDeleted {
		ingestOne(cmd, &change.Document, tally)
		return
	}

	url, _ := change.Document.Metadata[normalisers.MetaURL].(string)
	id, err := ingestService.RemoveByURL(cmd.Context(), url)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Deleted file was not stored: %s", change.Document.URI)
	case err != nil:
		cmd.PrintErrf("  %s: %v\n", change.Document.URI, err)
	default:
		cmd.Printf("  %s %s %s\n", render(warnStyle, "removed"), change.Document.URI, render(dimStyle, id))
	}
}

// supportedExtensions lists the file extensions ingest accepts.
func supportedExtensions() string {
	if fileMatcher == nil {
		return ""
	}
	return strings.Join(fileMatcher.Extensions(), ", ")
}
