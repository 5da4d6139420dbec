package metatools

// Meta-tool name constants. These five tools are the entire MCP surface; the
// thousands of adapter tools behind them are reached by search and ID.
const (
	// ToolIntent searches operations from a natural-language query.
	ToolIntent = "gateway.intent"

	// ToolExecute executes one tool by canonical ID with policy enforcement.
	ToolExecute = "gateway.execute"

	// ToolAdapters lists the adapter catalog with optional filters.
	ToolAdapters = "gateway.adapters"

	// ToolTools pages through one adapter's tools.
	ToolTools = "gateway.tools"

	// ToolReference serves curated documentation for adapters, tools, and
	// gateway concepts.
	ToolReference = "gateway.reference"
)

// Recommendation is one scored search hit in an intent response.
type Recommendation struct {
	ToolID     string  `json:"tool_id"`
	Confidence float64 `json:"confidence"`
	Why        string  `json:"why"`
}

// Constraints describes the policy gates a tool execution must satisfy.
type Constraints struct {
	RiskLevel            string `json:"risk_level"`
	RequiresIdempotency  bool   `json:"requires_idempotency"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
}

// ReadyToExecute is the execution contract for the recommended tool.
type ReadyToExecute struct {
	ToolID         string                 `json:"tool_id"`
	RequiredParams []string               `json:"required_params"`
	OptionalParams []string               `json:"optional_params"`
	ParamSchemas   map[string]interface{} `json:"param_schemas,omitempty"`
	Example        map[string]interface{} `json:"example,omitempty"`
	Constraints    Constraints            `json:"constraints"`
}

// IntentResponse is the gateway.intent payload.
type IntentResponse struct {
	Recommended    *Recommendation  `json:"recommended,omitempty"`
	ReadyToExecute *ReadyToExecute  `json:"ready_to_execute,omitempty"`
	MissingInputs  []string         `json:"missing_inputs"`
	NextStep       string           `json:"next_step"`
	Alternatives   []Recommendation `json:"alternatives"`
	NeedsSelection bool             `json:"needs_selection"`
}

// OperationMeta is the operation slice attached to execution responses.
type OperationMeta struct {
	RiskLevel  string `json:"risk_level"`
	Idempotent bool   `json:"idempotent"`
	Category   string `json:"category"`
}

// ExecuteMeta is the metadata attached to a successful execution.
type ExecuteMeta struct {
	Adapter   string        `json:"adapter"`
	Tool      string        `json:"tool"`
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
	Operation OperationMeta `json:"operation"`
}

// ExecuteError is the error block of a failed execution.
type ExecuteError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Adapter string `json:"adapter,omitempty"`
	Tool    string `json:"tool,omitempty"`
}

// ExecuteResponse is the gateway.execute payload.
type ExecuteResponse struct {
	Success         bool           `json:"success"`
	Data            interface{}    `json:"data,omitempty"`
	Error           *ExecuteError  `json:"error,omitempty"`
	Meta            *ExecuteMeta   `json:"meta,omitempty"`
	DryRun          bool           `json:"dry_run,omitempty"`
	Validation      string         `json:"validation,omitempty"`
	OperationMeta   *OperationMeta `json:"operation_meta,omitempty"`
	ExecutionTimeMs int64          `json:"execution_time_ms"`
}

// ToolSummary is one entry in a gateway.tools page.
type ToolSummary struct {
	ToolID         string   `json:"tool_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RiskLevel      string   `json:"risk_level"`
	RequiredParams []string `json:"required_params,omitempty"`
}

// ToolsResponse is the gateway.tools payload.
type ToolsResponse struct {
	Adapter string        `json:"adapter"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
	Tools   []ToolSummary `json:"tools"`
}

// AdaptersResponse is the gateway.adapters payload.
type AdaptersResponse struct {
	Total    int         `json:"total"`
	Adapters interface{} `json:"adapters"`
}

// ReferenceResponse is the gateway.reference payload. Sections not requested
// are omitted.
type ReferenceResponse struct {
	Topic         string                 `json:"topic"`
	Kind          string                 `json:"kind"` // "adapter", "tool", or "concept"
	Overview      string                 `json:"overview,omitempty"`
	Auth          map[string]interface{} `json:"auth,omitempty"`
	Examples      []interface{}          `json:"examples,omitempty"`
	CommonErrors  []map[string]string    `json:"common_errors,omitempty"`
	BestPractices []string               `json:"best_practices,omitempty"`
}
