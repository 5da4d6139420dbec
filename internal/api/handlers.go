package api

import (
	"context"
	"sync"
)

// Handler registry variables store the registered implementations.
// These variables are protected by handlerMutex for thread-safe access.
var (
	adapterRegistryHandler   AdapterRegistryHandler
	operationRegistryHandler OperationRegistryHandler
	complianceHandler        ComplianceHandler
	vendorRegistryHandler    VendorRegistryHandler
	serviceProxyHandler      ServiceProxyHandler
	toolProvider             ToolProvider

	// handlerMutex protects all handler registry operations for thread-safe
	// registration and access.
	handlerMutex sync.RWMutex
)

// AdapterRegistryHandler provides access to the set of live adapters: catalog
// views, tool resolution (canonical and alias), and dispatch with context
// header propagation.
type AdapterRegistryHandler interface {
	// ListAdapters returns the catalog view of every registered adapter,
	// mocks included.
	ListAdapters() []AdapterSummary

	// GetAdapter returns the catalog view of one adapter.
	GetAdapter(id string) (AdapterSummary, bool)

	// AdapterTools returns the declared tools of one adapter. Mock adapters
	// return synthesized placeholder tools.
	AdapterTools(id string) ([]Tool, error)

	// ResolveTool resolves a tool identifier (canonical, verbatim, or
	// snake/kebab alias) to its binding. Returns nil when unknown.
	ResolveTool(id string) *ToolResolution

	// CallTool resolves and dispatches a tool call with the given context
	// bag. Mock adapters fail with MOCK_ADAPTER.
	CallTool(ctx context.Context, id string, args map[string]interface{}, call CallContext) (*CallToolResult, error)

	// Stats returns per-adapter call accounting, keyed by adapter ID.
	Stats() map[string]AdapterStats
}

// OperationRegistryHandler provides the derived operation index and the
// search engine over it.
type OperationRegistryHandler interface {
	// Operations returns every indexed operation.
	Operations() []Operation

	// GetOperation returns the operation for a canonical tool ID.
	GetOperation(toolID string) (Operation, bool)

	// Search runs the scoring search over the index. adapter narrows to one
	// adapter when non-empty; limit caps results.
	Search(query string, adapter string, sc SearchContext, limit int) []SearchResult

	// Reindex rebuilds the index from the adapter registry. The index is
	// otherwise immutable.
	Reindex(ctx context.Context) error
}

// ComplianceHandler runs regulation validators and data-handling filters and
// exposes the audit trail.
type ComplianceHandler interface {
	// ValidateService runs all enabled validators for a service and caches
	// the result.
	ValidateService(name string) (ComplianceResult, error)

	// FilterRequest applies the request-side data handling filters for a
	// service to a payload, returning the filtered copy.
	FilterRequest(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error)

	// FilterResponse applies the response-side filters.
	FilterResponse(ctx context.Context, service string, payload map[string]interface{}) (map[string]interface{}, error)

	// RecentAuditEntries returns up to n entries from the in-memory ring,
	// newest last.
	RecentAuditEntries(n int) []AuditEntry
}

// VendorRegistryHandler executes category-scoped abstracted calls against
// interchangeable vendors.
type VendorRegistryHandler interface {
	// Execute validates input against the client schema, selects a vendor,
	// transforms the input, and dispatches through the adapter registry.
	Execute(ctx context.Context, category, operation string, input map[string]interface{}, vendorPreference string, call CallContext) (map[string]interface{}, error)

	// Categories lists the declared abstraction categories.
	Categories() []string
}

// ProxyResponse is the upstream result of a proxied REST call. Status and
// body are preserved from the upstream response.
type ProxyResponse struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// ServiceProxyHandler backs the REST facade: service catalog views,
// activation toggles, proxied calls, and webhook dispatch.
type ServiceProxyHandler interface {
	// ListServices returns a summary of every loaded service descriptor.
	ListServices() []map[string]interface{}

	// GetService returns one service descriptor view.
	GetService(name string) (map[string]interface{}, error)

	// SetServiceActive toggles a service on or off.
	SetServiceActive(name string, active bool) error

	// ServiceCount returns the number of loaded services (readiness).
	ServiceCount() int

	// ProxyRequest runs a proxied call: compliance request filter, endpoint
	// match, retried upstream call, compliance response filter.
	ProxyRequest(ctx context.Context, service, method, path string, headers map[string]string, body []byte) (*ProxyResponse, error)

	// HandleWebhook hands a webhook payload to the service's registered
	// handler. Services without a handler fail with SERVICE_NOT_FOUND.
	HandleWebhook(ctx context.Context, service string, headers map[string]string, payload []byte) (*ProxyResponse, error)
}

// RegisterAdapterRegistry registers the adapter registry handler
// implementation. Thread-safe; later registrations replace earlier ones.
func RegisterAdapterRegistry(h AdapterRegistryHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	adapterRegistryHandler = h
}

// GetAdapterRegistry returns the registered adapter registry handler, or nil.
func GetAdapterRegistry() AdapterRegistryHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return adapterRegistryHandler
}

// RegisterOperationRegistry registers the operation registry handler
// implementation. Thread-safe; later registrations replace earlier ones.
func RegisterOperationRegistry(h OperationRegistryHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	operationRegistryHandler = h
}

// GetOperationRegistry returns the registered operation registry handler, or
// nil.
func GetOperationRegistry() OperationRegistryHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return operationRegistryHandler
}

// RegisterCompliance registers the compliance handler implementation.
// Thread-safe; later registrations replace earlier ones.
func RegisterCompliance(h ComplianceHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	complianceHandler = h
}

// GetCompliance returns the registered compliance handler, or nil.
func GetCompliance() ComplianceHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return complianceHandler
}

// RegisterVendorRegistry registers the vendor abstraction handler
// implementation. Thread-safe; later registrations replace earlier ones.
func RegisterVendorRegistry(h VendorRegistryHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	vendorRegistryHandler = h
}

// GetVendorRegistry returns the registered vendor abstraction handler, or
// nil.
func GetVendorRegistry() VendorRegistryHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return vendorRegistryHandler
}

// RegisterServiceProxy registers the service proxy handler implementation.
// Thread-safe; later registrations replace earlier ones.
func RegisterServiceProxy(h ServiceProxyHandler) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	serviceProxyHandler = h
}

// GetServiceProxy returns the registered service proxy handler, or nil.
func GetServiceProxy() ServiceProxyHandler {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return serviceProxyHandler
}

// RegisterToolProvider registers the MCP tool provider implementation.
// Thread-safe; later registrations replace earlier ones.
func RegisterToolProvider(p ToolProvider) {
	handlerMutex.Lock()
	defer handlerMutex.Unlock()
	toolProvider = p
}

// GetToolProvider returns the registered MCP tool provider, or nil.
func GetToolProvider() ToolProvider {
	handlerMutex.RLock()
	defer handlerMutex.RUnlock()
	return toolProvider
}
