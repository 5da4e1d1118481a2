package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/watch"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	serveHTTP    string
	serveNoWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools:
  retrieve - nearest chunks for a question, optionally with assembled context
  ask      - answer a question from the stored documents
  ingest   - add a file or a piece of text

By default, the server communicates over stdio using JSON-RPC. Use --http
to serve the streamable HTTP transport instead.

While serving, edits to the config file are picked up and the embedding
provider is rebuilt when its settings change.

Examples:
  # Stdio mode (default)
  sercha-rag serve

  # HTTP mode
  sercha-rag serve --http :8080

MCP client configuration:
  {
    "mcpServers": {
      "sercha-rag": {
        "command": "/path/to/sercha-rag",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "HTTP listen address (empty = use stdio)")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "do not reload on config file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if retrievalService == nil {
		return errNoRetrieval
	}

	ports := &mcp.Ports{
		Retrieval:  retrievalService,
		Answer:     answerService,
		Collection: collectionService,
		Embedding:  embeddingService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	// The server runs until interrupted; --timeout does not apply.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if !serveNoWatch && configPath != "" && reloadFunc != nil {
		watcher := watch.New(configPath, reloadOnChange)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Warn("config watcher stopped: %v", err)
			}
		}()
	}

	if serveHTTP != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://%s\n", serveHTTP)
		return server.RunHTTP(ctx, serveHTTP)
	}

	return server.Run(ctx)
}

func reloadOnChange(ctx context.Context) {
	logger.Info("Config changed, reloading")
	if err := reloadFunc(ctx); err != nil {
		logger.Error("reload failed: %v", err)
	}
}
