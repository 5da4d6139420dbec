package metatools

import (
	"encoding/json"
	"fmt"

	"toolgate/internal/api"
)

// Formatters renders meta-tool responses as structured JSON. The instance is
// stateless and safe for concurrent use.
type Formatters struct{}

// NewFormatters creates a new formatters instance.
func NewFormatters() *Formatters {
	return &Formatters{}
}

// FormatJSON marshals any response payload with indentation.
func (f *Formatters) FormatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format response: %w", err)
	}
	return string(data), nil
}

// textResult wraps a string as a successful tool result.
func textResult(text string) *api.CallToolResult {
	return &api.CallToolResult{
		Content: []interface{}{text},
	}
}

// errorResult wraps a message as a failed tool result.
func errorResult(text string) *api.CallToolResult {
	return &api.CallToolResult{
		Content: []interface{}{text},
		IsError: true,
	}
}

// codedErrorResult renders a machine-readable error payload as a failed tool
// result. Policy rejections use this so callers can branch on the code.
func codedErrorResult(code, message string) *api.CallToolResult {
	return codedErrorDetails(code, message, nil)
}

// codedErrorDetails is codedErrorResult with extra keys merged into the
// error object, e.g. expected/received type names on validation failures.
func codedErrorDetails(code, message string, details map[string]string) *api.CallToolResult {
	errObj := map[string]string{
		"code":    code,
		"message": message,
	}
	for k, v := range details {
		errObj[k] = v
	}
	payload, _ := json.MarshalIndent(map[string]interface{}{
		"success": false,
		"error":   errObj,
	}, "", "  ")
	return &api.CallToolResult{
		Content: []interface{}{string(payload)},
		IsError: true,
	}
}
