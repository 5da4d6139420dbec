package app

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/compliance"
	"toolgate/internal/httpclient"
	"toolgate/pkg/logging"
)

// WebhookFunc handles one inbound webhook delivery for a service.
type WebhookFunc func(ctx context.Context, headers map[string]string, payload []byte) (*api.ProxyResponse, error)

// propagatedHeaders are forwarded verbatim to the upstream; everything else
// the caller sent stays at the gateway boundary.
var propagatedHeaders = []string{
	"Authorization", "X-Api-Key", "X-Project-Scope", "X-Request-Id", "X-Session-Id", "Content-Type",
}

// ServiceProxy backs the REST facade: catalog views, activation toggles,
// proxied upstream calls with the compliance filters around them, and
// webhook dispatch. Implements api.ServiceProxyHandler.
type ServiceProxy struct {
	mu       sync.RWMutex
	services map[string]*proxiedService
	webhooks map[string]WebhookFunc
}

type proxiedService struct {
	desc   catalog.ServiceDescriptor
	client *httpclient.Client
	active bool
}

// NewServiceProxy creates an empty proxy.
func NewServiceProxy() *ServiceProxy {
	return &ServiceProxy{
		services: make(map[string]*proxiedService),
		webhooks: make(map[string]WebhookFunc),
	}
}

// AddService registers a service with its outbound client. Services start
// active.
func (p *ServiceProxy) AddService(desc catalog.ServiceDescriptor, client *httpclient.Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.services[desc.Name] = &proxiedService{desc: desc, client: client, active: true}
}

// RegisterWebhook binds a webhook handler to a service name.
func (p *ServiceProxy) RegisterWebhook(service string, fn WebhookFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.webhooks[service] = fn
}

// ListServices returns the catalog summary, sorted by name.
func (p *ServiceProxy) ListServices() []map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]map[string]interface{}, 0, len(p.services))
	for _, svc := range p.services {
		out = append(out, map[string]interface{}{
			"name":      svc.desc.Name,
			"baseUrl":   svc.desc.BaseURL,
			"category":  svc.desc.Category(),
			"active":    svc.active,
			"endpoints": len(svc.desc.Endpoints),
			"authType":  string(svc.desc.Authentication.Type),
		})
	}
	sortSummaries(out)
	return out
}

// GetService returns one descriptor view with secret material redacted.
func (p *ServiceProxy) GetService(name string) (map[string]interface{}, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	svc, ok := p.services[name]
	if !ok {
		return nil, api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", name)
	}

	endpoints := make([]map[string]interface{}, 0, len(svc.desc.Endpoints))
	for _, ep := range svc.desc.Endpoints {
		endpoints = append(endpoints, map[string]interface{}{
			"name":        ep.Name,
			"method":      ep.Method,
			"path":        ep.Path,
			"description": ep.Description,
		})
	}

	return map[string]interface{}{
		"name":         svc.desc.Name,
		"baseUrl":      svc.desc.BaseURL,
		"category":     svc.desc.Category(),
		"active":       svc.active,
		"authType":     string(svc.desc.Authentication.Type),
		"capabilities": svc.desc.Capabilities,
		"compliance": map[string]bool{
			"pci":   svc.desc.Compliance.PCI,
			"gdpr":  svc.desc.Compliance.GDPR,
			"psd2":  svc.desc.Compliance.PSD2,
			"sox":   svc.desc.Compliance.SOX,
			"hipaa": svc.desc.Compliance.HIPAA,
		},
		"endpoints": endpoints,
	}, nil
}

// SetServiceActive toggles a service.
func (p *ServiceProxy) SetServiceActive(name string, active bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	svc, ok := p.services[name]
	if !ok {
		return api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", name)
	}
	svc.active = active
	logging.Info("ServiceProxy", "Service %s set active=%t", name, active)
	return nil
}

// ServiceCount returns the number of loaded services.
func (p *ServiceProxy) ServiceCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.services)
}

// ProxyRequest forwards one REST call to the named service: compliance
// request filter, endpoint match, retried upstream call, compliance response
// filter. Upstream status and body are preserved, including 4xx responses.
func (p *ServiceProxy) ProxyRequest(ctx context.Context, service, method, path string, headers map[string]string, body []byte) (*api.ProxyResponse, error) {
	p.mu.RLock()
	svc, ok := p.services[service]
	p.mu.RUnlock()
	if !ok {
		return nil, api.NewGatewayError(api.CodeServiceNotFound, "service %s not found", service)
	}
	if !svc.active {
		return nil, api.NewGatewayError(api.CodeAdapterNotExecutable, "service %s is deactivated", service)
	}

	endpoint, matched := matchEndpoint(svc.desc.Endpoints, method, path)
	operation := path
	if matched {
		operation = endpoint.Name
	}
	ctx = compliance.WithOperation(ctx, operation)

	payload, isJSON := decodeObject(body)
	if isJSON {
		filtered, err := p.filterRequest(ctx, service, payload)
		if err != nil {
			return nil, err
		}
		payload = filtered
	}

	opts := httpclient.RequestOptions{Headers: filterHeaders(headers)}
	if isJSON && method != http.MethodGet && method != http.MethodDelete {
		opts.Data = payload
	}

	resp, err := svc.client.Request(ctx, httpclient.RequestSpec{Method: method, Path: path}, opts)
	if err != nil {
		// 4xx responses pass through with upstream status and body intact.
		if ge, isGateway := api.AsGatewayError(err); isGateway && ge.Code == api.CodeUpstream4xx {
			if upstreamBody, hasBody := ge.Details["body"].(string); hasBody {
				return &api.ProxyResponse{Status: ge.Status, Body: []byte(upstreamBody)}, nil
			}
		}
		return nil, err
	}

	out := &api.ProxyResponse{
		Status:  resp.Status,
		Headers: map[string]string{"Content-Type": resp.Header.Get("Content-Type")},
		Body:    resp.Body,
	}
	if respPayload, ok := decodeObject(resp.Body); ok {
		filtered, err := p.filterResponse(ctx, service, respPayload)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(filtered)
		if err == nil {
			out.Body = raw
		}
	}
	return out, nil
}

// HandleWebhook hands the payload to the service's registered handler.
func (p *ServiceProxy) HandleWebhook(ctx context.Context, service string, headers map[string]string, payload []byte) (*api.ProxyResponse, error) {
	p.mu.RLock()
	fn, ok := p.webhooks[service]
	p.mu.RUnlock()
	if !ok {
		return nil, api.NewGatewayError(api.CodeServiceNotFound, "no webhook handler registered for %s", service)
	}
	return fn(ctx, headers, payload)
}

// inboundWebhook is the default webhook handler: the compliance request
// filter runs over the delivery payload before acknowledgement, so webhook
// bodies obey the same field rules as proxied calls.
func (p *ServiceProxy) inboundWebhook(service string) WebhookFunc {
	return func(ctx context.Context, headers map[string]string, payload []byte) (*api.ProxyResponse, error) {
		body := map[string]interface{}{"received": true}
		if obj, ok := decodeObject(payload); ok {
			ctx = compliance.WithOperation(ctx, "webhook")
			filtered, err := p.filterRequest(ctx, service, obj)
			if err != nil {
				return nil, err
			}
			body["event"] = filtered
		}
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		return &api.ProxyResponse{
			Status:  http.StatusOK,
			Headers: map[string]string{"Content-Type": "application/json"},
			Body:    raw,
		}, nil
	}
}

func (p *ServiceProxy) filterRequest(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error) {
	handler := api.GetCompliance()
	if handler == nil {
		return payload, nil
	}
	return handler.FilterRequest(ctx, service, payload)
}

func (p *ServiceProxy) filterResponse(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error) {
	handler := api.GetCompliance()
	if handler == nil {
		return payload, nil
	}
	return handler.FilterResponse(ctx, service, payload)
}

// matchEndpoint finds the declared endpoint for a method+path, matching the
// full path first and the trailing segment against endpoint names second.
func matchEndpoint(endpoints []catalog.Endpoint, method, path string) (catalog.Endpoint, bool) {
	for _, ep := range endpoints {
		if strings.EqualFold(ep.Method, method) && ep.Path == path {
			return ep, true
		}
	}
	trailing := path[strings.LastIndex(path, "/")+1:]
	for _, ep := range endpoints {
		if strings.EqualFold(ep.Method, method) && ep.Name == trailing {
			return ep, true
		}
	}
	return catalog.Endpoint{}, false
}

// decodeObject decodes a JSON object body; anything else reports false.
func decodeObject(body []byte) (map[string]interface{}, bool) {
	if len(body) == 0 {
		return nil, false
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, false
	}
	return out, true
}

func filterHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(propagatedHeaders))
	for _, want := range propagatedHeaders {
		for key, value := range headers {
			if strings.EqualFold(key, want) && value != "" {
				out[want] = value
			}
		}
	}
	return out
}

func sortSummaries(list []map[string]interface{}) {
	sort.Slice(list, func(i, j int) bool {
		return list[i]["name"].(string) < list[j]["name"].(string)
	})
}
