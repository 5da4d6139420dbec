package metatools

import (
	"strings"

	"toolgate/internal/api"
)

// synthesizeExample builds a plausible params object for an operation from
// its parameter names and schema. Name heuristics win over type fallbacks;
// enum values win over both.
func synthesizeExample(op api.Operation) map[string]interface{} {
	if op.InputSchema == nil {
		return nil
	}
	properties, ok := op.InputSchema["properties"].(map[string]interface{})
	if !ok || len(properties) == 0 {
		return nil
	}

	example := make(map[string]interface{}, len(op.RequiredParams))
	for _, name := range op.RequiredParams {
		prop, _ := properties[name].(map[string]interface{})
		example[name] = exampleValue(name, prop)
	}
	if len(example) == 0 {
		return nil
	}
	return example
}

// exampleValue picks an example for one parameter.
func exampleValue(name string, prop map[string]interface{}) interface{} {
	if prop != nil {
		if enum, ok := prop["enum"].([]interface{}); ok && len(enum) > 0 {
			return enum[0]
		}
	}

	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "email"):
		return "customer@example.com"
	case strings.Contains(lower, "amount"):
		return 500000
	case strings.Contains(lower, "currency"):
		return "NGN"
	case strings.Contains(lower, "reference"):
		return "ref_8a23b1"
	case strings.Contains(lower, "phone"):
		return "+2348012345678"
	case strings.Contains(lower, "url"):
		return "https://example.com/callback"
	}

	wantType := "string"
	if prop != nil {
		if t, ok := prop["type"].(string); ok && t != "" {
			wantType = t
		}
	}
	switch wantType {
	case "integer":
		return 1
	case "number":
		return 1.5
	case "boolean":
		return true
	case "object":
		return map[string]interface{}{}
	case "array":
		return []interface{}{}
	default:
		return "example"
	}
}
