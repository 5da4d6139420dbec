package api

import (
	"context"
	"time"
)

// CallToolResult represents the result of a tool call anywhere in the system.
// Content entries are either strings (already-serialized JSON or plain text)
// or JSON-marshalable values.
type CallToolResult struct {
	Content []interface{} `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

// Tool describes one adapter tool: a name, a human description, and a
// JSON-Schema-style input schema kept as a generic tree. The schema is
// interpreted by the small validator in the meta-tools layer; a full
// JSON-Schema implementation is deliberately not required.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Method      string                 `json:"method,omitempty"`
	InputSchema map[string]interface{} `json:"inputSchema,omitempty"`
}

// ToolMetadata describes a meta-tool exposed on the MCP surface.
type ToolMetadata struct {
	Name        string
	Description string
	Args        []ArgMetadata
}

// ArgMetadata describes a single meta-tool argument.
type ArgMetadata struct {
	Name        string
	Type        string // "string", "number", "boolean", "object", "integer"
	Required    bool
	Description string
	Default     interface{}
}

// ToolProvider is implemented by packages that contribute tools to the MCP
// surface (the meta-tools provider is the only production implementation).
type ToolProvider interface {
	// GetTools returns all tools this provider offers.
	GetTools() []ToolMetadata

	// ExecuteTool executes a tool by name.
	ExecuteTool(ctx context.Context, toolName string, args map[string]interface{}) (*CallToolResult, error)
}

// CallContext is the structured context bag that travels with every tool
// dispatch. Values present are translated into HTTP-style headers before the
// adapter call; missing values are never synthesized.
type CallContext struct {
	Authorization string `json:"authorization,omitempty"`
	APIKey        string `json:"apiKey,omitempty"`
	ProjectScope  string `json:"projectScope,omitempty"`
	RequestID     string `json:"requestId,omitempty"`
	SessionID     string `json:"sessionId,omitempty"`
}

// Headers translates the context bag into HTTP-style headers. Only fields
// with values produce entries.
func (c CallContext) Headers() map[string]string {
	headers := make(map[string]string, 5)
	if c.Authorization != "" {
		headers["Authorization"] = c.Authorization
	}
	if c.APIKey != "" {
		headers["X-API-Key"] = c.APIKey
	}
	if c.ProjectScope != "" {
		headers["X-Project-Scope"] = c.ProjectScope
	}
	if c.RequestID != "" {
		headers["X-Request-ID"] = c.RequestID
	}
	if c.SessionID != "" {
		headers["X-Session-ID"] = c.SessionID
	}
	return headers
}

// AdapterStats tracks per-adapter call accounting.
type AdapterStats struct {
	Calls    int64     `json:"calls"`
	Errors   int64     `json:"errors"`
	LastCall time.Time `json:"lastCall,omitzero"`
}

// RiskLevel is the risk tier of an operation. It controls the idempotency and
// confirmation gates enforced by gateway.execute.
type RiskLevel string

const (
	RiskLow         RiskLevel = "low"
	RiskMedium      RiskLevel = "medium"
	RiskHigh        RiskLevel = "high"
	RiskDestructive RiskLevel = "destructive"
)

// Operation is one entry in the operation registry: a tool's contract, risk
// tier, and schema, derived from its adapter at initialization.
type Operation struct {
	ToolID         string                 `json:"tool_id"`
	Adapter        string                 `json:"adapter"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description"`
	Category       string                 `json:"category"`
	Method         string                 `json:"method,omitempty"`
	RiskLevel      RiskLevel              `json:"risk_level"`
	RequiredParams []string               `json:"required_params"`
	OptionalParams []string               `json:"optional_params"`
	InputSchema    map[string]interface{} `json:"input_schema,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Mock           bool                   `json:"mock,omitempty"`
}

// ToolResolution is the result of resolving a tool identifier through the
// adapter registry.
type ToolResolution struct {
	CanonicalID string
	AdapterID   string
	Tool        Tool
}

// AdapterSummary is the catalog view of one adapter returned by
// gateway.adapters.
type AdapterSummary struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Category            string   `json:"category"`
	Capabilities        []string `json:"capabilities"`
	SupportedCountries  []string `json:"supported_countries,omitempty"`
	SupportedCurrencies []string `json:"supported_currencies,omitempty"`
	ToolCount           int      `json:"tool_count"`
	ToolCategories      []string `json:"tool_categories,omitempty"`
	AuthType            string   `json:"auth_type"`
	Status              string   `json:"status"`
	IsMock              bool     `json:"is_mock"`
	CommonOperations    []string `json:"common_operations,omitempty"`
}

// SearchContext carries optional hints that bias operation search scoring.
type SearchContext struct {
	Country    string `json:"country,omitempty"`
	Currency   string `json:"currency,omitempty"`
	Capability string `json:"capability,omitempty"`
}

// SearchResult is one scored hit from the operation search engine.
type SearchResult struct {
	Operation  Operation
	Confidence float64
	Why        string
}

// ComplianceResult is the aggregated outcome of running every enabled
// regulation validator against a service.
type ComplianceResult struct {
	Overall         string                       `json:"overall"` // "COMPLIANT" or "NON_COMPLIANT"
	Regulations     map[string]RegulationOutcome `json:"regulations"`
	Violations      []string                     `json:"violations"`
	Recommendations []string                     `json:"recommendations"`
	LastChecked     time.Time                    `json:"lastChecked"`
}

// RegulationOutcome is a single validator's verdict.
type RegulationOutcome struct {
	Compliant       bool     `json:"compliant"`
	Violations      []string `json:"violations,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AuditEntry is one append-only audit log record. Entries are never modified
// or deleted, and details must not contain raw PCI fields.
type AuditEntry struct {
	ID        string                 `json:"id"`
	Sequence  uint64                 `json:"sequence"`
	Timestamp time.Time              `json:"timestamp"`
	Action    string                 `json:"action"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
