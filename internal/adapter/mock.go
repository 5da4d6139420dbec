package adapter

import (
	"context"
	"fmt"

	"toolgate/internal/api"
)

// MockConfig declares a placeholder adapter: present in catalog views and the
// operation index, never executable.
type MockConfig struct {
	ID        string
	Name      string
	ToolCount int
	AuthType  string
	Category  string
}

// MockAdapter stands in for an integration that is planned but not yet built.
// Its tools are synthesized placeholders and CallTool always fails with
// MOCK_ADAPTER.
type MockAdapter struct {
	cfg   MockConfig
	tools []api.Tool
	statsTracker
}

// NewMock creates a mock adapter from its config.
func NewMock(cfg MockConfig) *MockAdapter {
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	if cfg.Category == "" {
		cfg.Category = "general"
	}
	if cfg.AuthType == "" {
		cfg.AuthType = "none"
	}

	tools := make([]api.Tool, 0, cfg.ToolCount)
	for i := 1; i <= cfg.ToolCount; i++ {
		tools = append(tools, api.Tool{
			Name:        fmt.Sprintf("tool-%d", i),
			Description: fmt.Sprintf("Placeholder tool %d of mock adapter %s", i, cfg.ID),
		})
	}

	return &MockAdapter{cfg: cfg, tools: tools}
}

func (m *MockAdapter) ID() string   { return m.cfg.ID }
func (m *MockAdapter) Name() string { return m.cfg.Name }

func (m *MockAdapter) Description() string {
	return fmt.Sprintf("Mock adapter %s (%d placeholder tools)", m.cfg.Name, m.cfg.ToolCount)
}

func (m *MockAdapter) Category() string       { return m.cfg.Category }
func (m *MockAdapter) Capabilities() []string { return nil }
func (m *MockAdapter) Tools() []api.Tool      { return m.tools }

func (m *MockAdapter) Initialize(ctx context.Context) error { return nil }

// CallTool always fails: mocks exist for discovery, not execution.
func (m *MockAdapter) CallTool(ctx context.Context, tool string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error) {
	err := api.NewGatewayError(api.CodeMockAdapter, "adapter %s is a mock and cannot execute %s", m.cfg.ID, tool)
	m.record(err)
	return nil, err
}

func (m *MockAdapter) Metadata() Metadata {
	return Metadata{AuthType: m.cfg.AuthType}
}
