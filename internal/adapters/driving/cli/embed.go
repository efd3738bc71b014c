package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/core/domain"
)

var (
	embedTaskType string
	embedStore    bool
	embedJSON     bool
	embedFull     bool
)

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Generate and manage embeddings",
	Long:  `Generate embeddings with the configured provider, and read or delete stored ones.`,
}

var embedGenerateCmd = &cobra.Command{
	Use:   "generate [text]",
	Short: "Generate an embedding for text",
	Long: `Generates an embedding for the given text.

Task types bias the vector for its use: document, search_query,
similarity, clustering or classification. Only providers that support
task types (gemini) use them; others embed the text as is.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEmbedGenerate,
}

var embedGetCmd = &cobra.Command{
	Use:   "get [embedding-id]",
	Short: "Show a stored embedding",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedGet,
}

var embedDeleteCmd = &cobra.Command{
	Use:   "delete [embedding-id]",
	Short: "Delete a stored embedding",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmbedDelete,
}

var embedCompareCmd = &cobra.Command{
	Use:   "compare [text-a] [text-b]",
	Short: "Print the cosine similarity of two texts",
	Args:  cobra.ExactArgs(2),
	RunE:  runEmbedCompare,
}

func init() {
	embedGenerateCmd.Flags().StringVarP(&embedTaskType, "task", "t", string(domain.TaskTypeDocument), "task type")
	embedGenerateCmd.Flags().BoolVar(&embedStore, "store", false, "persist the embedding and print its ID")
	embedGenerateCmd.Flags().BoolVar(&embedJSON, "json", false, "output the record as JSON")
	embedGetCmd.Flags().BoolVar(&embedJSON, "json", false, "output the record as JSON")
	embedGetCmd.Flags().BoolVar(&embedFull, "full", false, "print every vector component")

	embedCmd.AddCommand(embedGenerateCmd)
	embedCmd.AddCommand(embedGetCmd)
	embedCmd.AddCommand(embedDeleteCmd)
	embedCmd.AddCommand(embedCompareCmd)
	rootCmd.AddCommand(embedCmd)
}

func runEmbedGenerate(cmd *cobra.Command, args []string) error {
	if embeddingService == nil {
		return notConfigured("embedding")
	}

	taskType, err := domain.ParseTaskType(embedTaskType)
	if err != nil {
		return err
	}

	rec, err := embeddingService.Generate(cmd.Context(), strings.Join(args, " "), taskType, embedStore, nil)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}
	if !embedStore {
		rec.ID = ""
	}

	if embedJSON {
		return printJSON(cmd, toEmbeddingJSON(rec))
	}
	printEmbedding(cmd, rec, false)
	return nil
}

func runEmbedGet(cmd *cobra.Command, args []string) error {
	if embeddingService == nil {
		return notConfigured("embedding")
	}

	rec, err := embeddingService.Get(cmd.Context(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("embedding %s not found", args[0])
		}
		return fmt.Errorf("failed to get embedding: %w", err)
	}

	if embedJSON {
		return printJSON(cmd, toEmbeddingJSON(rec))
	}
	printEmbedding(cmd, rec, embedFull)
	return nil
}

func runEmbedDelete(cmd *cobra.Command, args []string) error {
	if embeddingService == nil {
		return notConfigured("embedding")
	}

	if err := embeddingService.Delete(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("embedding %s not found", args[0])
		}
		return fmt.Errorf("failed to delete embedding: %w", err)
	}

	cmd.Printf("Embedding %s deleted.\n", args[0])
	return nil
}

func runEmbedCompare(cmd *cobra.Command, args []string) error {
	if embeddingService == nil {
		return notConfigured("embedding")
	}

	sim, err := embeddingService.Compare(cmd.Context(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("failed to compare texts: %w", err)
	}

	cmd.Printf("Similarity: %s\n", render(scoreStyle, fmt.Sprintf("%.4f", sim)))
	return nil
}

type embeddingJSON struct {
	ID         string    `json:"id,omitempty"`
	Model      string    `json:"model"`
	TaskType   string    `json:"taskType"`
	Dimensions int       `json:"dimensions"`
	Embedding  []float32 `json:"embedding"`
	Text       string    `json:"text,omitempty"`
	CreatedAt  string    `json:"createdAt,omitempty"`
}

func toEmbeddingJSON(rec *domain.EmbeddingRecord) embeddingJSON {
	out := embeddingJSON{
		ID:         rec.ID,
		Model:      rec.Model,
		TaskType:   rec.TaskType.String(),
		Dimensions: rec.Dimensions,
		Embedding:  rec.Embedding,
		Text:       rec.Text,
	}
	if !rec.CreatedAt.IsZero() {
		out.CreatedAt = rec.CreatedAt.Format(time.RFC3339)
	}
	return out
}

func printEmbedding(cmd *cobra.Command, rec *domain.EmbeddingRecord, full bool) {
	if rec.ID != "" {
		cmd.Printf("ID:         %s\n", rec.ID)
	}
	cmd.Printf("Model:      %s\n", rec.Model)
	cmd.Printf("Task type:  %s\n", rec.TaskType)
	cmd.Printf("Dimensions: %d\n", rec.Dimensions)
	if !rec.CreatedAt.IsZero() {
		cmd.Printf("Created:    %s\n", rec.CreatedAt.Format(timeLayout))
	}
	cmd.Printf("Vector:     %s\n", formatVector(rec.Embedding, full))
}

// formatVector prints the first few components unless full is set.
func formatVector(vec []float32, full bool) string {
	const preview = 5
	n := len(vec)
	if !full {
		n = min(n, preview)
	}

	parts := make([]string, 0, n+1)
	for _, v := range vec[:n] {
		parts = append(parts, fmt.Sprintf("%.6f", v))
	}
	if n < len(vec) {
		parts = append(parts, fmt.Sprintf("... (%d more)", len(vec)-n))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
