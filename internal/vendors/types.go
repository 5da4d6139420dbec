package vendors

import "time"

// FieldSpec declares one field of a client operation schema.
type FieldSpec struct {
	// Type is "string", "number", "integer", "boolean", "object", or
	// "array".
	Type string `json:"type"`

	// Required fields must be present in client input.
	Required bool `json:"required"`

	// Default is applied when an optional field is absent.
	Default interface{} `json:"default,omitempty"`
}

// OperationSchema is the stable client-facing contract of one abstracted
// operation. Client input is validated against it before any vendor sees the
// call.
type OperationSchema struct {
	Description string               `json:"description,omitempty"`
	Fields      map[string]FieldSpec `json:"fields"`
}

// TransformFunc is the programmatic escape hatch for vendor input mapping,
// used when a template cannot express the conversion.
type TransformFunc func(input map[string]interface{}) (map[string]interface{}, error)

// Mapping converts validated client input into one vendor's tool call.
// Transform wins over Template when both are set; a mapping with neither
// passes the input through unchanged.
type Mapping struct {
	// Tool is the canonical tool ID dispatched through the adapter
	// registry.
	Tool string

	// Template is a text/template (with sprig functions) rendering the
	// vendor input as JSON. The validated client input is the template
	// context.
	Template string

	// Transform is the programmatic alternative to Template.
	Transform TransformFunc
}

// Vendor is one interchangeable provider inside a category.
type Vendor struct {
	// Name is the vendor identifier. It never appears in client-facing
	// responses.
	Name string

	// Mappings maps operation names to this vendor's tool calls.
	Mappings map[string]Mapping

	// DeprecatedAt marks the vendor deprecated; the zero time means active.
	// Deprecated vendors are skipped by default selection and cannot be
	// removed within 30 days of the mark.
	DeprecatedAt time.Time
}

// Category groups a client schema with its interchangeable vendors. Vendor
// order is the default selection order.
type Category struct {
	Name    string
	Schemas map[string]OperationSchema
	Vendors []Vendor
}
