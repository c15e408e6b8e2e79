package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/lexgate/internal/adapters/driving/mcp"
)

var (
	mcpPort          int
	mcpHost          string
	mcpWithScheduler bool
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve grounded retrieval to MCP clients",
	Long: `Start the Model Context Protocol server.

The server exposes the "retrieve" tool, the "answer" tool when a generator
is configured, and the lexgate://sources resource. Clients are told to
state that no reliable source exists when a verdict is ungrounded.

Without --port the server speaks JSON-RPC over stdio, which is what
desktop assistants launch:

  {
    "mcpServers": {
      "lexgate": {"command": "/path/to/lexgate", "args": ["mcp", "serve"]}
    }
  }

With --port it serves streamable HTTP on --host (default localhost), for
MCP Inspector or a shared deployment.

  lexgate mcp serve
  lexgate mcp serve --port 8080 --with-scheduler`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "localhost", "HTTP bind address")
	mcpServeCmd.Flags().BoolVar(&mcpWithScheduler, "with-scheduler", false,
		"run scheduled ingestion while serving")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if retriever == nil {
		return errors.New("retrieval service not configured")
	}
	if mcpPort < 0 || mcpPort > 65535 {
		return fmt.Errorf("invalid port %d", mcpPort)
	}

	server, err := mcp.NewServer(&mcp.Ports{
		Retriever: retriever,
		Answerer:  answerer,
		Source:    sourceService,
		Document:  documentService,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if mcpWithScheduler {
		stop, err := startBackgroundScheduler(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	if mcpPort == 0 {
		return server.Run(ctx)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.Printf("MCP server listening on http://%s\n", addr)
	return server.RunHTTP(ctx, addr)
}
