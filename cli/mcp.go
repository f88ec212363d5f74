// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server for Claude Desktop integration
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/harperreed/taxdesk/handlers"
)

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App) error {
	app.Logger.Info("starting taxdesk MCP server")

	desk, agent := app.AgentDesk(ctx)
	if agent == "" {
		agent = "mcp"
	}
	app.Logger.Debug("mcp agent", zap.String("agent", agent))

	server := handlers.NewServer(desk, app.Practice, app.Generator, agent, app.Config.Server.PublicURL)

	// Run server on stdio transport
	return server.Run(ctx, &mcp.StdioTransport{})
}
