package vendors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// applyTransform converts validated client input into vendor input. Without
// a template or transform the input is copied through unchanged; the
// caller's map is never returned directly.
func applyTransform(mapping Mapping, input map[string]interface{}) (map[string]interface{}, error) {
	if mapping.Transform != nil {
		return mapping.Transform(input)
	}
	if mapping.Template != "" {
		return renderTemplate(mapping.Template, input)
	}

	out := make(map[string]interface{}, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out, nil
}

// renderTemplate executes a sprig-equipped text template over the client
// input and decodes the output as a JSON object.
func renderTemplate(tmpl string, input map[string]interface{}) (map[string]interface{}, error) {
	parsed, err := template.New("transform").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("transform template is invalid: %w", err)
	}

	var buf bytes.Buffer
	if err := parsed.Execute(&buf, input); err != nil {
		return nil, fmt.Errorf("transform template failed: %w", err)
	}

	out := make(map[string]interface{})
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("transform template did not produce a JSON object: %w", err)
	}
	return out, nil
}
