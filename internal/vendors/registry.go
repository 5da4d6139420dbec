package vendors

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
)

// removalGrace is how long a deprecated vendor must stay in the registry
// before removal is allowed.
const removalGrace = 30 * 24 * time.Hour

// Dispatcher is the slice of the adapter registry the vendor layer needs:
// resolution doubles as the health signal for vendor selection.
type Dispatcher interface {
	ResolveTool(id string) *api.ToolResolution
	CallTool(ctx context.Context, id string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error)
}

// Registry holds the declared abstraction categories and executes abstracted
// calls against interchangeable vendors. Safe for concurrent use.
type Registry struct {
	dispatcher Dispatcher

	mu         sync.RWMutex
	categories map[string]*Category
}

// NewRegistry creates an empty vendor registry over a dispatcher.
func NewRegistry(dispatcher Dispatcher) *Registry {
	return &Registry{
		dispatcher: dispatcher,
		categories: make(map[string]*Category),
	}
}

// RegisterCategory declares a category with its client schemas and vendors.
// Re-registering a category replaces it.
func (r *Registry) RegisterCategory(category Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := category
	r.categories[category.Name] = &copied
	logging.Info("VendorRegistry", "Registered category %s with %d vendors", category.Name, len(category.Vendors))
}

// Categories lists the declared category names, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.categories))
	for name := range r.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// DeprecateVendor marks a vendor deprecated as of now.
func (r *Registry) DeprecateVendor(category, vendor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categories[category]
	if !ok {
		return api.NewGatewayError(api.CodeAbstractionNotFound, "category %s not found", category)
	}
	for i := range cat.Vendors {
		if cat.Vendors[i].Name == vendor {
			if cat.Vendors[i].DeprecatedAt.IsZero() {
				cat.Vendors[i].DeprecatedAt = time.Now()
			}
			return nil
		}
	}
	return api.NewGatewayError(api.CodeNoVendorAvailable, "vendor %s not found in category %s", vendor, category)
}

// RemoveVendor deletes a vendor from a category. Removal requires a
// deprecation mark at least 30 days old.
func (r *Registry) RemoveVendor(category, vendor string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cat, ok := r.categories[category]
	if !ok {
		return api.NewGatewayError(api.CodeAbstractionNotFound, "category %s not found", category)
	}
	for i := range cat.Vendors {
		if cat.Vendors[i].Name != vendor {
			continue
		}
		deprecatedAt := cat.Vendors[i].DeprecatedAt
		if deprecatedAt.IsZero() {
			return fmt.Errorf("vendor %s must be deprecated before removal", vendor)
		}
		if elapsed := time.Since(deprecatedAt); elapsed < removalGrace {
			return fmt.Errorf("vendor %s was deprecated %s ago; removal requires 30 days", vendor, elapsed.Round(time.Hour))
		}
		cat.Vendors = append(cat.Vendors[:i], cat.Vendors[i+1:]...)
		return nil
	}
	return api.NewGatewayError(api.CodeNoVendorAvailable, "vendor %s not found in category %s", vendor, category)
}

// Execute runs one abstracted call: schema validation, vendor selection,
// input transformation, dispatch, and response shaping. The response never
// carries the vendor's name.
func (r *Registry) Execute(ctx context.Context, category, operation string, input map[string]interface{}, vendorPreference string, call api.CallContext) (map[string]interface{}, error) {
	r.mu.RLock()
	cat, ok := r.categories[category]
	if !ok {
		r.mu.RUnlock()
		return nil, api.NewGatewayError(api.CodeAbstractionNotFound, "category %s not found", category)
	}
	schema, ok := cat.Schemas[operation]
	if !ok {
		r.mu.RUnlock()
		return nil, api.NewGatewayError(api.CodeAbstractionNotFound, "operation %s.%s not found", category, operation)
	}

	validated, err := validateInput(schema, input)
	if err != nil {
		r.mu.RUnlock()
		return nil, err
	}

	vendor, mapping, err := r.selectVendor(cat, operation, vendorPreference)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	vendorInput, err := applyTransform(mapping, validated)
	if err != nil {
		return nil, api.NewGatewayError(api.CodeExecutionError, "transform for %s.%s failed: %v", category, operation, err)
	}

	// Vendor names appear in logs only, never in the response shape.
	logging.Debug("VendorRegistry", "Executing %s.%s via vendor %s tool %s", category, operation, vendor.Name, mapping.Tool)
	result, err := r.dispatcher.CallTool(ctx, mapping.Tool, vendorInput, call)
	if err != nil {
		return nil, err
	}

	return shapeResponse(category, operation, result), nil
}

// selectVendor picks the preferred vendor when it is healthy, otherwise the
// first non-deprecated vendor that supports the operation and resolves.
// Callers hold the read lock.
func (r *Registry) selectVendor(cat *Category, operation, preference string) (*Vendor, Mapping, error) {
	healthy := func(v *Vendor) (Mapping, bool) {
		mapping, ok := v.Mappings[operation]
		if !ok {
			return Mapping{}, false
		}
		if r.dispatcher.ResolveTool(mapping.Tool) == nil {
			return Mapping{}, false
		}
		return mapping, true
	}

	if preference != "" {
		for i := range cat.Vendors {
			if cat.Vendors[i].Name != preference {
				continue
			}
			if mapping, ok := healthy(&cat.Vendors[i]); ok {
				return &cat.Vendors[i], mapping, nil
			}
			// Unhealthy preference falls through to default selection.
			break
		}
	}

	for i := range cat.Vendors {
		if !cat.Vendors[i].DeprecatedAt.IsZero() {
			continue
		}
		if mapping, ok := healthy(&cat.Vendors[i]); ok {
			return &cat.Vendors[i], mapping, nil
		}
	}
	return nil, Mapping{}, api.NewGatewayError(api.CodeNoVendorAvailable, "no vendor available for %s", operation)
}

// validateInput checks client input against the operation schema and returns
// a copy with defaults applied.
func validateInput(schema OperationSchema, input map[string]interface{}) (map[string]interface{}, error) {
	for name := range input {
		if _, declared := schema.Fields[name]; !declared {
			return nil, api.NewGatewayError(api.CodeSchemaViolation, "unknown field %q", name)
		}
	}

	out := make(map[string]interface{}, len(schema.Fields))
	for name, spec := range schema.Fields {
		value, present := input[name]
		if !present {
			if spec.Required {
				return nil, api.NewGatewayError(api.CodeSchemaViolation, "required field %q is missing", name)
			}
			if spec.Default != nil {
				out[name] = spec.Default
			}
			continue
		}
		if !fieldMatchesType(value, spec.Type) {
			return nil, api.NewGatewayError(api.CodeSchemaViolation, "field %q must be of type %s", name, spec.Type)
		}
		out[name] = value
	}
	return out, nil
}

func fieldMatchesType(value interface{}, wantType string) bool {
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
		switch value.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
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

// shapeResponse wraps the adapter result for the client surface. Vendor
// identifiers stay out of the shape by construction.
func shapeResponse(category, operation string, result *api.CallToolResult) map[string]interface{} {
	var data interface{}
	if result != nil && len(result.Content) > 0 {
		if len(result.Content) == 1 {
			data = result.Content[0]
		} else {
			data = result.Content
		}
	}
	return map[string]interface{}{
		"category":  category,
		"operation": operation,
		"data":      data,
	}
}
