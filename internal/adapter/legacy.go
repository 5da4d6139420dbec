package adapter

import (
	"context"

	"toolgate/internal/api"
)

// LegacyFunc is the single-argument calling convention of pre-gateway
// adapters: the tool name plus one wrapped payload {data, headers}, returning
// a result to be wrapped the same way.
type LegacyFunc func(ctx context.Context, tool string, payload map[string]interface{}) (map[string]interface{}, error)

// LegacyConfig declares a legacy adapter wrapped into the canonical calling
// convention.
type LegacyConfig struct {
	ID           string
	Name         string
	Description  string
	Category     string
	Capabilities []string
	Tools        []api.Tool
}

// legacyAdapter bridges the legacy single-argument convention: args and
// context headers are folded into one payload before the call, and the return
// value is wrapped as {data, headers} after it.
type legacyAdapter struct {
	cfg LegacyConfig
	fn  LegacyFunc
	statsTracker
}

// WrapLegacy adapts a legacy adapter function into the Adapter interface.
func WrapLegacy(cfg LegacyConfig, fn LegacyFunc) Adapter {
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	if cfg.Category == "" {
		cfg.Category = "general"
	}
	return &legacyAdapter{cfg: cfg, fn: fn}
}

func (l *legacyAdapter) ID() string             { return l.cfg.ID }
func (l *legacyAdapter) Name() string           { return l.cfg.Name }
func (l *legacyAdapter) Description() string    { return l.cfg.Description }
func (l *legacyAdapter) Category() string       { return l.cfg.Category }
func (l *legacyAdapter) Capabilities() []string { return l.cfg.Capabilities }
func (l *legacyAdapter) Tools() []api.Tool      { return l.cfg.Tools }

func (l *legacyAdapter) Initialize(ctx context.Context) error { return nil }

func (l *legacyAdapter) CallTool(ctx context.Context, tool string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error) {
	headers := call.Headers()
	payload := map[string]interface{}{
		"data":    args,
		"headers": headers,
	}

	out, err := l.fn(ctx, tool, payload)
	l.record(err)
	if err != nil {
		return nil, err
	}

	wrapped := map[string]interface{}{
		"data":    out,
		"headers": headers,
	}
	return &api.CallToolResult{Content: []interface{}{wrapped}}, nil
}
