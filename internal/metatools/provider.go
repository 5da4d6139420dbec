package metatools

import (
	"toolgate/internal/api"
)

// Provider implements the api.ToolProvider interface for the five gateway
// meta-tools. It is the only tool surface the MCP layer exposes; every
// adapter tool behind it is reached through gateway.intent search and
// gateway.execute dispatch.
//
// The Provider is stateless except for the formatters and can be safely used
// concurrently across multiple requests. It reaches the adapter and operation
// registries through the API layer's service locator.
type Provider struct {
	formatters *Formatters
}

// NewProvider creates a new meta-tools provider instance.
func NewProvider() *Provider {
	return &Provider{
		formatters: NewFormatters(),
	}
}

// GetTools returns metadata for all five meta-tools.
// This implements the api.ToolProvider interface for tool discovery.
func (p *Provider) GetTools() []api.ToolMetadata {
	return []api.ToolMetadata{
		{
			Name:        ToolIntent,
			Description: "Find the right tool from a natural-language description of what you want to do",
			Args: []api.ArgMetadata{
				{
					Name:        "query",
					Type:        "string",
					Required:    true,
					Description: "What you want to accomplish, in plain language",
				},
				{
					Name:        "adapter",
					Type:        "string",
					Required:    false,
					Description: "Restrict the search to one adapter ID",
				},
				{
					Name:        "context",
					Type:        "object",
					Required:    false,
					Description: "Optional hints: {country, currency, capability}",
				},
				{
					Name:        "limit",
					Type:        "integer",
					Required:    false,
					Description: "Maximum number of results (default: 3)",
					Default:     3,
				},
			},
		},
		{
			Name:        ToolExecute,
			Description: "Execute a tool by its canonical ID with policy enforcement (idempotency, confirmation, schema validation)",
			Args: []api.ArgMetadata{
				{
					Name:        "tool_id",
					Type:        "string",
					Required:    true,
					Description: "Canonical tool ID in adapter:tool-name form",
				},
				{
					Name:        "params",
					Type:        "object",
					Required:    false,
					Description: "Tool parameters, validated against the tool's input schema",
				},
				{
					Name:        "options",
					Type:        "object",
					Required:    false,
					Description: "Execution options: {idempotency_key, confirmed, dry_run}",
				},
			},
		},
		{
			Name:        ToolAdapters,
			Description: "List available adapters with their capabilities, countries, and common operations",
			Args: []api.ArgMetadata{
				{
					Name:        "category",
					Type:        "string",
					Required:    false,
					Description: "Filter by adapter category (payments, banking, messaging, ...)",
				},
				{
					Name:        "capability",
					Type:        "string",
					Required:    false,
					Description: "Filter by declared capability",
				},
				{
					Name:        "country",
					Type:        "string",
					Required:    false,
					Description: "Filter by supported country code",
				},
			},
		},
		{
			Name:        ToolTools,
			Description: "Page through one adapter's tools with short summaries",
			Args: []api.ArgMetadata{
				{
					Name:        "adapter",
					Type:        "string",
					Required:    true,
					Description: "Adapter ID to list tools for",
				},
				{
					Name:        "category",
					Type:        "string",
					Required:    false,
					Description: "Filter by tool category",
				},
				{
					Name:        "search",
					Type:        "string",
					Required:    false,
					Description: "Substring filter over names and descriptions",
				},
				{
					Name:        "limit",
					Type:        "integer",
					Required:    false,
					Description: "Page size (default: 20)",
					Default:     20,
				},
				{
					Name:        "offset",
					Type:        "integer",
					Required:    false,
					Description: "Page offset (default: 0)",
					Default:     0,
				},
			},
		},
		{
			Name:        ToolReference,
			Description: "Curated documentation for an adapter ID, a tool ID, or a gateway concept (authentication, idempotency, risk-levels)",
			Args: []api.ArgMetadata{
				{
					Name:        "topic",
					Type:        "string",
					Required:    true,
					Description: "Adapter ID, canonical tool ID, or concept name",
				},
				{
					Name:        "section",
					Type:        "string",
					Required:    false,
					Description: "One of overview, auth, examples, errors, best_practices (default: all)",
					Default:     "all",
				},
			},
		},
	}
}

// GetFormatters returns the formatters instance used by this provider.
func (p *Provider) GetFormatters() *Formatters {
	return p.formatters
}
