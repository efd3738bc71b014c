package cli

import (
	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Browse the knowledge base interactively",
	Long: `Opens a terminal browser: type a query, move through the results,
open a document or view the context block an agent would receive.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	app, err := tui.NewApp(&tui.Ports{
		Retrieval: retrievalService,
		Document:  documentService,
	})
	if err != nil {
		return err
	}
	return app.Run(cmd.Context())
}
