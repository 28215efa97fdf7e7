package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	sdk_mcp "github.com/mark3labs/mcp-go/mcp"
	sdk_server "github.com/mark3labs/mcp-go/server"

	"github.com/isa-group/harvey-agent-core/internal/tool"
)

// ToolServer exposes a tool.Registry over the MCP protocol, so the same
// pricing tools the agent loop calls in-process can also be driven by an
// external MCP-speaking client. This is the optional alternative deployment
// surface for the tool host (spec.md §5).
type ToolServer struct {
	registry *tool.Registry
	inner    *sdk_server.MCPServer
}

// NewToolServer builds a ToolServer exposing every tool currently in
// registry. Tools registered after construction are not picked up; build the
// server once the registry is fully populated.
func NewToolServer(registry *tool.Registry) *ToolServer {
	inner := sdk_server.NewMCPServer(
		"harvey-agent-core",
		"0.1.0",
		sdk_server.WithToolCapabilities(false),
	)

	s := &ToolServer{registry: registry, inner: inner}
	for _, t := range registry.List() {
		s.addTool(t)
	}
	return s
}

func (s *ToolServer) addTool(t tool.Tool) {
	var schema sdk_mcp.ToolInputSchema
	if raw := t.InputSchema(); len(raw) > 0 {
		_ = json.Unmarshal(raw, &schema)
	}
	if schema.Type == "" {
		schema.Type = "object"
	}

	def := sdk_mcp.Tool{
		Name:        t.Name(),
		Description: t.Description(),
		InputSchema: schema,
	}

	s.inner.AddTool(def, func(ctx context.Context, req sdk_mcp.CallToolRequest) (*sdk_mcp.CallToolResult, error) {
		args, err := json.Marshal(req.Params.Arguments)
		if err != nil {
			return nil, fmt.Errorf("mcp serve: marshal args for %q: %w", t.Name(), err)
		}
		if verr := tool.ValidateArguments(t, args); verr != nil {
			return &sdk_mcp.CallToolResult{
				IsError: true,
				Content: []sdk_mcp.Content{sdk_mcp.TextContent{Type: "text", Text: verr.Error()}},
			}, nil
		}
		result, err := t.Execute(ctx, args)
		if err != nil {
			return nil, err
		}
		text := result.Output
		if result.Error != "" {
			return &sdk_mcp.CallToolResult{
				IsError: true,
				Content: []sdk_mcp.Content{sdk_mcp.TextContent{Type: "text", Text: result.Error}},
			}, nil
		}
		return &sdk_mcp.CallToolResult{
			Content: []sdk_mcp.Content{sdk_mcp.TextContent{Type: "text", Text: text}},
		}, nil
	})
}

// ServeStdio blocks, serving the registry's tools over stdio until the
// transport closes. ctx is not consulted.
func (s *ToolServer) ServeStdio(ctx context.Context) error {
	log.Println("[MCP] serving tool registry on stdio")
	return sdk_server.ServeStdio(s.inner)
}
