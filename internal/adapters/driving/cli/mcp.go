package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sales-support-ai/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

The server acts as the --owner user. It exposes catalog search, the
support assistant and document listings as tools, and each document as a
resource at ssai://documents/{documentId}.

By default, the server communicates over stdio using JSON-RPC. Use --port
to serve over HTTP instead.

Examples:
  # Stdio mode
  ssai mcp serve --owner rep@example.com

  # HTTP mode (for MCP Inspector, remote access)
  ssai mcp serve --port 8081`,
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
	who, err := owner()
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Chat:     chatService,
		Document: documentService,
		Owner:    who,
	})
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
