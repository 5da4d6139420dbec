package adapter

import (
	"context"
	"sort"
	"sync/atomic"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/httpclient"
	"toolgate/pkg/logging"
)

// HTTPAdapter is the standard adapter: one catalog service descriptor, one
// universal HTTP client, one tool per declared endpoint.
type HTTPAdapter struct {
	desc   catalog.ServiceDescriptor
	client *httpclient.Client
	tools  []api.Tool

	initialized atomic.Bool
	statsTracker
}

// NewHTTP creates an HTTP adapter over a descriptor and its client.
func NewHTTP(desc catalog.ServiceDescriptor, client *httpclient.Client) *HTTPAdapter {
	return &HTTPAdapter{desc: desc, client: client}
}

func (h *HTTPAdapter) ID() string   { return h.desc.Name }
func (h *HTTPAdapter) Name() string { return h.desc.Name }

func (h *HTTPAdapter) Description() string {
	if d, ok := h.desc.Metadata["description"].(string); ok && d != "" {
		return d
	}
	return "HTTP integration for " + h.desc.Name
}

func (h *HTTPAdapter) Category() string       { return h.desc.Category() }
func (h *HTTPAdapter) Capabilities() []string { return h.desc.Capabilities }
func (h *HTTPAdapter) Tools() []api.Tool      { return h.tools }

// Initialize binds the descriptor's endpoints on the client and derives one
// tool per endpoint. Idempotent.
func (h *HTTPAdapter) Initialize(ctx context.Context) error {
	if !h.initialized.CompareAndSwap(false, true) {
		return nil
	}

	h.client.BindEndpoints(h.desc.Endpoints)

	tools := make([]api.Tool, 0, len(h.desc.Endpoints))
	for _, ep := range h.desc.Endpoints {
		tools = append(tools, api.Tool{
			Name:        ep.Name,
			Description: ep.Description,
			Method:      ep.Method,
			InputSchema: schemaFromEndpoint(ep),
		})
	}
	h.tools = tools

	logging.Info("Adapter", "Initialized %s with %d tools", h.desc.Name, len(tools))
	return nil
}

// CallTool invokes the endpoint behind a tool. Context headers travel on the
// outbound request; the upstream JSON body becomes the result content.
func (h *HTTPAdapter) CallTool(ctx context.Context, tool string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error) {
	resp, err := h.client.Call(ctx, tool, args, call.Headers())
	h.record(err)
	if err != nil {
		return nil, err
	}

	data, jsonErr := resp.JSONMap()
	if jsonErr != nil {
		return &api.CallToolResult{Content: []interface{}{string(resp.Body)}}, nil
	}
	return &api.CallToolResult{Content: []interface{}{data}}, nil
}

// HealthCheck probes the upstream through the client.
func (h *HTTPAdapter) HealthCheck(ctx context.Context) httpclient.HealthResult {
	return h.client.HealthCheck(ctx)
}

func (h *HTTPAdapter) Metadata() Metadata {
	return Metadata{
		AuthType:            string(h.desc.Authentication.Type),
		SupportedCountries:  h.desc.MetadataStrings("countries"),
		SupportedCurrencies: h.desc.MetadataStrings("currencies"),
	}
}

// schemaFromEndpoint derives a tool input schema from an endpoint's parameter
// declarations. A declaration that already is a JSON schema object passes
// through; the flat {name: {type, required, description, enum}} form is
// converted.
func schemaFromEndpoint(ep catalog.Endpoint) map[string]interface{} {
	if len(ep.Parameters) == 0 {
		return nil
	}
	if t, ok := ep.Parameters["type"].(string); ok && t == "object" {
		return ep.Parameters
	}

	properties := make(map[string]interface{}, len(ep.Parameters))
	var required []string

	for name, raw := range ep.Parameters {
		spec, ok := raw.(map[string]interface{})
		if !ok {
			properties[name] = map[string]interface{}{"type": "string"}
			continue
		}

		prop := map[string]interface{}{"type": "string"}
		if t, ok := spec["type"].(string); ok && t != "" {
			prop["type"] = t
		}
		if d, ok := spec["description"].(string); ok && d != "" {
			prop["description"] = d
		}
		if e, ok := spec["enum"]; ok {
			prop["enum"] = e
		}
		properties[name] = prop

		if req, _ := spec["required"].(bool); req {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
