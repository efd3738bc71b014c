package cli

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02 15:04:05"
)

var (
	documentListLimit      int
	documentListSource     string
	documentListSourceType string
	documentShowContent    bool
)

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage stored documents",
	Long:    `List, show, or delete documents in the knowledge base.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document details",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

func init() {
	documentListCmd.Flags().IntVarP(&documentListLimit, "limit", "n", 20, "maximum number of documents")
	documentListCmd.Flags().StringVar(&documentListSource, "source", "", "only documents from this source")
	documentListCmd.Flags().StringVar(&documentListSourceType, "type", "", "only documents of this source type")
	documentShowCmd.Flags().BoolVarP(&documentShowContent, "content", "c", false, "print the full content")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	filters := domain.SearchFilters{
		Source:     documentListSource,
		SourceType: documentListSourceType,
	}
	docs, err := documentService.List(cmd.Context(), filters, documentListLimit)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("  %s  %s\n", render(dimStyle, doc.ID), render(titleStyle, doc.Title))
		cmd.Printf("    %s (%s)  %s\n", doc.Source, doc.SourceType, doc.CreatedAt.Format(dateLayout))
		if doc.URL != "" {
			cmd.Printf("    %s\n", doc.URL)
		}
	}
	cmd.Println()
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	details, err := documentService.GetDetails(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found", args[0])
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Println(render(headingStyle, details.Title))
	cmd.Println()
	cmd.Printf("  ID:          %s\n", details.ID)
	if details.URL != "" {
		cmd.Printf("  URL:         %s\n", details.URL)
	}
	cmd.Printf("  Source:      %s (%s)\n", details.Source, details.SourceType)
	if details.Language != "" {
		cmd.Printf("  Language:    %s\n", details.Language)
	}
	if details.Model != "" {
		cmd.Printf("  Embedding:   %s (%d dims)\n", details.Model, details.Dimensions)
	} else {
		cmd.Printf("  Embedding:   %s\n", render(warnStyle, "none"))
	}
	cmd.Printf("  Chunks:      %d\n", details.ChunkCount)
	cmd.Printf("  Created:     %s\n", details.CreatedAt.Format(timeLayout))
	cmd.Printf("  Updated:     %s\n", details.UpdatedAt.Format(timeLayout))

	if len(details.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		for _, k := range slices.Sorted(maps.Keys(details.Metadata)) {
			cmd.Printf("    %s: %s\n", k, details.Metadata[k])
		}
	}

	if documentShowContent {
		content, err := documentService.GetContent(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get document content: %w", err)
		}
		cmd.Println()
		cmd.Println(content)
	}

	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return notConfigured("document")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found", args[0])
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}
