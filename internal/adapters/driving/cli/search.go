package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

var (
	searchLimit      int
	searchThreshold  float64
	searchMode       string
	searchSource     string
	searchSourceType string
	searchFrom       string
	searchTo         string
	searchJSON       bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge base",
	Long: `Runs full-text and embedding similarity search concurrently and fuses
the results. Documents from placeholder hosts are dropped.

Without an embedding provider only full-text search runs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Print the context block for a query",
	Long: `Prints the numbered context block an agent would receive for the query,
or a fixed message when the query is empty or nothing relevant is found.`,
	RunE: runRetrieve,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default 3, at most 5)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", domain.DefaultThreshold, "minimum cosine similarity for vector hits")
	searchCmd.Flags().StringVarP(&searchMode, "mode", "m", "", "search mode: text, vector or hybrid")
	searchCmd.Flags().StringVar(&searchSource, "source", "", "only documents from this source")
	searchCmd.Flags().StringVar(&searchSourceType, "type", "", "only documents of this source type")
	searchCmd.Flags().StringVar(&searchFrom, "from", "", "only documents created on or after this date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&searchTo, "to", "", "only documents created on or before this date (YYYY-MM-DD)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the tool payload as JSON")
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(retrieveCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}

	req, err := buildSearchRequest(cmd, strings.Join(args, " "))
	if err != nil {
		return err
	}

	resp := retrievalService.Query(cmd.Context(), req)

	if searchJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if !resp.Success {
		return fmt.Errorf("search failed: %s", resp.Error)
	}
	outputSearchResults(cmd, resp)
	return nil
}

func buildSearchRequest(cmd *cobra.Command, query string) (domain.RetrievalRequest, error) {
	req := domain.RetrievalRequest{
		Query: query,
		Limit: searchLimit,
		Filters: domain.SearchFilters{
			Source:     searchSource,
			SourceType: searchSourceType,
		},
	}

	if searchMode != "" {
		mode, err := domain.ParseSearchMode(searchMode)
		if err != nil {
			return req, err
		}
		req.Mode = mode
	}
	if cmd.Flags().Changed("threshold") {
		threshold := searchThreshold
		req.Threshold = &threshold
	}

	from, err := domain.ParseFilterDate(searchFrom, false)
	if err != nil {
		return req, err
	}
	to, err := domain.ParseFilterDate(searchTo, true)
	if err != nil {
		return req, err
	}
	req.Filters.DateFrom = from
	req.Filters.DateTo = to

	return req, nil
}

func outputSearchResults(cmd *cobra.Command, resp domain.RetrievalResponse) {
	if len(resp.Results) == 0 {
		cmd.Println(resp.Message)
		return
	}

	cmd.Println(render(dimStyle, resp.Message))
	cmd.Println()
	for i, r := range resp.Results {
		title := r.Title
		if title == "" {
			title = r.ID
		}
		line := fmt.Sprintf("  [%d] %s", i+1, render(titleStyle, title))
		if r.Similarity != nil {
			line += " " + render(scoreStyle, fmt.Sprintf("(%.2f)", *r.Similarity))
		}
		cmd.Println(line)
		if r.URL != "" {
			cmd.Printf("      %s\n", render(dimStyle, r.URL))
		}
		cmd.Printf("      Source: %s (%s)  %s\n", r.Source, r.SourceType, r.CreatedAt.Format(dateLayout))
		if snippet := snippetOf(r); snippet != "" {
			cmd.Printf("      %s\n", snippet)
		}
		cmd.Println()
	}
}

// snippetOf prefers the summary and falls back to the start of the content.
func snippetOf(r domain.RetrievalRecord) string {
	text := r.Summary
	if text == "" {
		text = r.Content
	}
	text = strings.Join(strings.Fields(text), " ")
	const maxRunes = 160
	if runes := []rune(text); len(runes) > maxRunes {
		return string(runes[:maxRunes]) + "..."
	}
	return text
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return notConfigured("retrieval")
	}
	cmd.Println(retrievalService.Retrieve(cmd.Context(), strings.Join(args, " ")))
	return nil
}
