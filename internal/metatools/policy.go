package metatools

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"time"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
	pkgstrings "toolgate/pkg/strings"

	"github.com/google/uuid"
)

var (
	// toolIDRe is the canonical tool ID format enforced before resolution.
	toolIDRe = regexp.MustCompile(`^[a-z0-9-]+:[a-z0-9-]+$`)

	// confirmationNameRe selects tool names that require options.confirmed.
	confirmationNameRe = regexp.MustCompile(`delete|cancel|remove|revoke`)
)

// handleExecute handles gateway.execute. The policy chain runs in a fixed
// order before any dispatch: ID format, resolution, idempotency gate,
// confirmation gate, schema validation, dry-run short circuit. A dry run
// never reaches the adapter.
func (p *Provider) handleExecute(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	toolID, _ := args["tool_id"].(string)
	if !toolIDRe.MatchString(toolID) {
		return codedErrorResult(api.CodeInvalidToolIDFormat,
			fmt.Sprintf("tool_id %q must match adapter:tool-name (lowercase, digits, hyphens)", toolID)), nil
	}

	adapters, operations, errResult := p.getRegistries()
	if errResult != nil {
		return errResult, nil
	}

	op, found := operations.GetOperation(toolID)
	if !found {
		return codedErrorResult(api.CodeToolNotFound, fmt.Sprintf("tool %s not found", toolID)), nil
	}

	params, _ := args["params"].(map[string]interface{})
	options, _ := args["options"].(map[string]interface{})

	if op.RiskLevel == api.RiskHigh {
		if key, _ := options["idempotency_key"].(string); key == "" {
			return codedErrorResult(api.CodeIdempotencyRequired,
				fmt.Sprintf("%s is high risk; options.idempotency_key is required", toolID)), nil
		}
	}

	if confirmationNameRe.MatchString(pkgstrings.Kebab(op.Name)) {
		if confirmed, _ := options["confirmed"].(bool); !confirmed {
			return codedErrorResult(api.CodeConfirmationRequired,
				fmt.Sprintf("%s is destructive; set options.confirmed to true to proceed", toolID)), nil
		}
	}

	if op.InputSchema != nil {
		if code, message, details := validateParams(op.InputSchema, params); code != "" {
			return codedErrorDetails(code, message, details), nil
		}
	}

	if dryRun, _ := options["dry_run"].(bool); dryRun {
		jsonData, err := p.formatters.FormatJSON(ExecuteResponse{
			Success:    true,
			DryRun:     true,
			Validation: "passed",
			OperationMeta: &OperationMeta{
				RiskLevel:  string(op.RiskLevel),
				Idempotent: op.RiskLevel == api.RiskHigh,
				Category:   op.Category,
			},
		})
		if err != nil {
			return api.HandleError(err), nil
		}
		return textResult(jsonData), nil
	}

	call := api.CallContextFrom(ctx)
	if call.RequestID == "" {
		call.RequestID = uuid.New().String()
	}

	start := time.Now()
	result, err := adapters.CallTool(ctx, toolID, params, call)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		code := api.CodeExecutionError
		if api.IsCode(err, api.CodeMockAdapter) {
			code = api.CodeMockAdapter
		}
		logging.Warn("MetaTools", "Execution of %s failed after %dms: %v", toolID, elapsed, err)
		jsonData, ferr := p.formatters.FormatJSON(ExecuteResponse{
			Success: false,
			Error: &ExecuteError{
				Code:    code,
				Message: err.Error(),
				Adapter: op.Adapter,
				Tool:    op.Name,
			},
			ExecutionTimeMs: elapsed,
		})
		if ferr != nil {
			return api.HandleError(ferr), nil
		}
		return &api.CallToolResult{Content: []interface{}{jsonData}, IsError: true}, nil
	}

	response := ExecuteResponse{
		Success: true,
		Data:    executionData(result),
		Meta: &ExecuteMeta{
			Adapter:   op.Adapter,
			Tool:      op.Name,
			RequestID: call.RequestID,
			Timestamp: start.UTC().Format(time.RFC3339),
			Operation: OperationMeta{
				RiskLevel:  string(op.RiskLevel),
				Idempotent: op.RiskLevel == api.RiskHigh,
				Category:   op.Category,
			},
		},
		ExecutionTimeMs: elapsed,
	}

	jsonData, err := p.formatters.FormatJSON(response)
	if err != nil {
		return api.HandleError(err), nil
	}
	return textResult(jsonData), nil
}

// executionData unwraps a single-content tool result for the response body.
func executionData(result *api.CallToolResult) interface{} {
	if result == nil || len(result.Content) == 0 {
		return nil
	}
	if len(result.Content) == 1 {
		return result.Content[0]
	}
	return result.Content
}

// validateParams checks params against a JSON-schema-style object schema:
// required keys present, scalar types match, enum membership holds, and
// integer is distinct from number. Returns ("", "", nil) on success; type
// mismatches carry the expected and received type names in details.
func validateParams(schema map[string]interface{}, params map[string]interface{}) (code, message string, details map[string]string) {
	switch required := schema["required"].(type) {
	case []string:
		for _, name := range required {
			if _, ok := params[name]; !ok {
				return api.CodeMissingRequiredParam, fmt.Sprintf("required parameter %q is missing", name), nil
			}
		}
	case []interface{}:
		for _, raw := range required {
			name, _ := raw.(string)
			if _, ok := params[name]; name != "" && !ok {
				return api.CodeMissingRequiredParam, fmt.Sprintf("required parameter %q is missing", name), nil
			}
		}
	}

	properties, _ := schema["properties"].(map[string]interface{})
	for name, value := range params {
		propRaw, declared := properties[name]
		if !declared {
			continue
		}
		prop, ok := propRaw.(map[string]interface{})
		if !ok {
			continue
		}

		wantType, _ := prop["type"].(string)
		if wantType != "" && !matchesType(value, wantType) {
			return api.CodeInvalidParamType,
				fmt.Sprintf("parameter %q must be of type %s", name, wantType),
				map[string]string{"expected": wantType, "received": typeName(value)}
		}

		if enum, ok := prop["enum"].([]interface{}); ok && len(enum) > 0 {
			if !enumContains(enum, value) {
				return api.CodeInvalidParamValue,
					fmt.Sprintf("parameter %q must be one of the declared enum values", name), nil
			}
		}
	}
	return "", "", nil
}

// typeName reports the JSON type name of a decoded value for error payloads.
func typeName(value interface{}) string {
	switch v := value.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]interface{}:
		return "object"
	case []interface{}:
		return "array"
	case float64:
		if v == math.Trunc(v) {
			return "integer"
		}
		return "number"
	case int, int32, int64, float32:
		return "number"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", value)
}

// matchesType checks a decoded JSON value against a schema type name.
// JSON numbers decode as float64, so integer checks the value is whole.
func matchesType(value interface{}, wantType string) bool {
	switch wantType {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "number":
		return isNumeric(value)
	case "integer":
		switch n := value.(type) {
		case int, int32, int64:
			return true
		case float64:
			return n == math.Trunc(n)
		}
		return false
	}
	return true
}

func isNumeric(value interface{}) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	}
	return false
}

func enumContains(enum []interface{}, value interface{}) bool {
	for _, candidate := range enum {
		if candidate == value {
			return true
		}
		// Schema literals and decoded params may disagree on int vs float64.
		if isNumeric(candidate) && isNumeric(value) && asFloat(candidate) == asFloat(value) {
			return true
		}
	}
	return false
}

func asFloat(value interface{}) float64 {
	switch n := value.(type) {
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}
