package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aloha-corp/aloha-rag/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so an agent can call the
knowledge base as a tool.

Tools:
  search_knowledge   - ranked results with a formatted context block
  retrieve_context   - the context block for a free-text query
  generate_embedding, get_embedding, delete_embedding

Resources:
  aloha://documents        - recently stored documents
  aloha://documents/{id}   - a document's full text

By default the server speaks JSON-RPC over stdio. Use --port to serve
streamable HTTP instead.

Examples:
  # Stdio mode (for desktop assistants)
  aloha mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  aloha mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "aloha": {
        "command": "/path/to/aloha",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	ports := &mcp.Ports{
		Retrieval: retrievalService,
		Document:  documentService,
		Embedding: embeddingService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
