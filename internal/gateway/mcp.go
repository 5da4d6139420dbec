package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"toolgate/internal/api"
	"toolgate/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCPServer exposes the meta-tool surface over the streamable HTTP
// transport. Exactly the provider's tools are registered; adapters' native
// tools are reachable only through gateway.execute.
type MCPServer struct {
	server   *server.MCPServer
	http     *server.StreamableHTTPServer
	provider api.ToolProvider
}

// NewMCPServer builds the MCP server and registers every tool the provider
// offers.
func NewMCPServer(version string, provider api.ToolProvider) *MCPServer {
	mcpServer := server.NewMCPServer(
		"toolgate",
		version,
		server.WithToolCapabilities(true),
	)

	s := &MCPServer{
		server:   mcpServer,
		provider: provider,
	}

	var tools []server.ServerTool
	for _, meta := range provider.GetTools() {
		tools = append(tools, server.ServerTool{
			Tool: mcp.Tool{
				Name:        meta.Name,
				Description: meta.Description,
				InputSchema: convertToMCPSchema(meta.Args),
			},
			Handler: s.toolHandler(meta.Name),
		})
	}
	mcpServer.AddTools(tools...)
	logging.Info("MCP", "Registered %d meta-tools", len(tools))

	s.http = server.NewStreamableHTTPServer(mcpServer)
	return s
}

// Handler returns the HTTP handler for the /mcp mount point.
func (s *MCPServer) Handler() http.Handler {
	return s.http
}

// ServeStdio serves the meta-tools over stdin/stdout for local MCP clients.
// Blocks until the client closes the connection.
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.server)
}

func (s *MCPServer) toolHandler(name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]interface{})
		if req.Params.Arguments != nil {
			if argsMap, ok := req.Params.Arguments.(map[string]interface{}); ok {
				args = argsMap
			}
		}

		result, err := s.provider.ExecuteTool(ctx, name, args)
		if err != nil {
			logging.Error("MCP", err, "Meta-tool %s failed", name)
			return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", name, err)), nil
		}
		return convertToMCPResult(result), nil
	}
}

// convertToMCPSchema renders arg metadata as the object schema the MCP
// protocol expects.
func convertToMCPSchema(args []api.ArgMetadata) mcp.ToolInputSchema {
	properties := make(map[string]interface{})
	required := []string{}

	for _, arg := range args {
		propSchema := map[string]interface{}{
			"type":        arg.Type,
			"description": arg.Description,
		}
		if arg.Default != nil {
			propSchema["default"] = arg.Default
		}
		properties[arg.Name] = propSchema
		if arg.Required {
			required = append(required, arg.Name)
		}
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// convertToMCPResult translates the internal result into MCP content.
// Strings pass through as text; anything else is serialized to JSON.
func convertToMCPResult(result *api.CallToolResult) *mcp.CallToolResult {
	out := &mcp.CallToolResult{IsError: result.IsError}
	for _, content := range result.Content {
		switch v := content.(type) {
		case string:
			out.Content = append(out.Content, mcp.NewTextContent(v))
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				out.Content = append(out.Content, mcp.NewTextContent(fmt.Sprintf("%v", v)))
				continue
			}
			out.Content = append(out.Content, mcp.NewTextContent(string(raw)))
		}
	}
	return out
}
