package gateway

import (
	"context"
	"testing"

	"toolgate/internal/api"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider offers one tool and records executions.
type fakeProvider struct {
	lastTool string
	lastArgs map[string]interface{}
	result   *api.CallToolResult
	err      error
}

func (f *fakeProvider) GetTools() []api.ToolMetadata {
	return []api.ToolMetadata{
		{
			Name:        "gateway.intent",
			Description: "Search operations by intent.",
			Args: []api.ArgMetadata{
				{Name: "query", Type: "string", Required: true, Description: "What you want to do."},
				{Name: "limit", Type: "integer", Description: "Max results.", Default: 3},
			},
		},
	}
}

func (f *fakeProvider) ExecuteTool(_ context.Context, toolName string, args map[string]interface{}) (*api.CallToolResult, error) {
	f.lastTool = toolName
	f.lastArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestConvertToMCPSchema(t *testing.T) {
	provider := &fakeProvider{}
	schema := convertToMCPSchema(provider.GetTools()[0].Args)

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"query"}, schema.Required)

	limit := schema.Properties["limit"].(map[string]interface{})
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, 3, limit["default"])
}

func TestToolHandlerDispatchesToProvider(t *testing.T) {
	provider := &fakeProvider{
		result: &api.CallToolResult{Content: []interface{}{`{"recommended":null}`}},
	}
	s := NewMCPServer("test", provider)
	require.NotNil(t, s.Handler())

	handler := s.toolHandler("gateway.intent")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"query": "send money"}

	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "gateway.intent", provider.lastTool)
	assert.Equal(t, "send money", provider.lastArgs["query"])
	assert.False(t, result.IsError)
	require.Len(t, result.Content, 1)
}

func TestToolHandlerWrapsErrors(t *testing.T) {
	provider := &fakeProvider{err: api.NewGatewayError(api.CodeToolNotFound, "no such tool")}
	s := NewMCPServer("test", provider)

	result, err := s.toolHandler("gateway.intent")(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err, "tool failures surface as MCP error results, not transport errors")
	assert.True(t, result.IsError)
}

func TestConvertToMCPResultSerializesValues(t *testing.T) {
	result := convertToMCPResult(&api.CallToolResult{
		Content: []interface{}{"plain", map[string]interface{}{"a": float64(1)}},
		IsError: true,
	})

	assert.True(t, result.IsError)
	require.Len(t, result.Content, 2)
	first := result.Content[0].(mcp.TextContent)
	assert.Equal(t, "plain", first.Text)
	second := result.Content[1].(mcp.TextContent)
	assert.JSONEq(t, `{"a":1}`, second.Text)
}
