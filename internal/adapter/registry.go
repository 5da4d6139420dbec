package adapter

import (
	"context"
	"sort"
	"strings"
	"sync"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
	pkgstrings "toolgate/pkg/strings"
)

// commonOperationMarkers select which tool names surface as an adapter's
// common operations in catalog views.
var commonOperationMarkers = []string{"list", "get", "create", "initialize", "verify"}

// Registry owns the set of live adapters and the tool index over them. Every
// declared tool is reachable under its canonical ID
// ("<adapter>:<kebab-name>"), its verbatim ID, and its snake_case alias.
// Registries are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	// byCanonical maps canonical tool IDs to bindings; index additionally
	// holds the verbatim and snake aliases.
	byCanonical map[string]*api.ToolResolution
	index       map[string]*api.ToolResolution
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters:    make(map[string]Adapter),
		byCanonical: make(map[string]*api.ToolResolution),
		index:       make(map[string]*api.ToolResolution),
	}
}

// Register initializes an adapter and indexes its tools. A tool whose
// canonical ID collides with one from an already-registered adapter fails the
// whole registration with ADAPTER_NAME_COLLISION and leaves the registry
// unchanged.
func (r *Registry) Register(ctx context.Context, a Adapter) error {
	if err := a.Initialize(ctx); err != nil {
		return api.NewGatewayError(api.CodeExecutionError, "adapter %s failed to initialize: %v", a.ID(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[a.ID()]; exists {
		return api.NewGatewayError(api.CodeAdapterNameCollision, "adapter %s is already registered", a.ID())
	}

	tools := a.Tools()
	staged := make(map[string]*api.ToolResolution, len(tools)*3)
	stagedCanonical := make(map[string]*api.ToolResolution, len(tools))

	for _, tool := range tools {
		canonical := a.ID() + ":" + pkgstrings.Kebab(tool.Name)
		if _, taken := r.byCanonical[canonical]; taken {
			return api.NewGatewayError(api.CodeAdapterNameCollision, "tool %s is already registered", canonical)
		}
		if _, taken := stagedCanonical[canonical]; taken {
			return api.NewGatewayError(api.CodeAdapterNameCollision, "adapter %s declares %s twice", a.ID(), canonical)
		}

		binding := &api.ToolResolution{
			CanonicalID: canonical,
			AdapterID:   a.ID(),
			Tool:        tool,
		}
		stagedCanonical[canonical] = binding
		staged[canonical] = binding
		staged[a.ID()+":"+tool.Name] = binding
		staged[a.ID()+":"+pkgstrings.Snake(tool.Name)] = binding
	}

	r.adapters[a.ID()] = a
	for canonical, binding := range stagedCanonical {
		r.byCanonical[canonical] = binding
	}
	for key, binding := range staged {
		r.index[key] = binding
	}

	logging.Info("AdapterRegistry", "Registered adapter %s with %d tools", a.ID(), len(tools))
	return nil
}

// RegisterMock registers a placeholder adapter. Its tools are synthesized
// from the declared count and cannot be executed.
func (r *Registry) RegisterMock(ctx context.Context, cfg MockConfig) error {
	return r.Register(ctx, NewMock(cfg))
}

// ResolveTool resolves a tool identifier to its binding. Canonical IDs,
// verbatim IDs, and snake/kebab variants of the tool name all resolve to the
// same binding. Returns nil for unknown identifiers.
func (r *Registry) ResolveTool(id string) *api.ToolResolution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if binding, ok := r.index[id]; ok {
		return binding
	}

	// Fall back to normalizing the tool part: camelCase and other casings
	// that were never indexed verbatim still land on the canonical ID.
	adapterID, toolName, ok := strings.Cut(id, ":")
	if !ok {
		return nil
	}
	return r.byCanonical[adapterID+":"+pkgstrings.Kebab(toolName)]
}

// CallTool resolves a tool identifier and dispatches the call to its adapter.
func (r *Registry) CallTool(ctx context.Context, id string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error) {
	binding := r.ResolveTool(id)
	if binding == nil {
		return nil, api.NewGatewayError(api.CodeToolNotFound, "tool %s not found", id)
	}

	r.mu.RLock()
	a := r.adapters[binding.AdapterID]
	r.mu.RUnlock()

	logging.Debug("AdapterRegistry", "Dispatching %s to adapter %s", binding.CanonicalID, binding.AdapterID)
	return a.CallTool(ctx, binding.Tool.Name, args, call)
}

// Adapter returns a registered adapter by ID.
func (r *Registry) Adapter(id string) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	return a, ok
}

// AdapterTools returns the declared tools of one adapter.
func (r *Registry) AdapterTools(id string) ([]api.Tool, error) {
	r.mu.RLock()
	a, ok := r.adapters[id]
	r.mu.RUnlock()
	if !ok {
		return nil, api.NewGatewayError(api.CodeAdapterNotFound, "adapter %s not found", id)
	}
	return a.Tools(), nil
}

// ListAdapters returns the catalog view of every registered adapter, sorted
// by ID.
func (r *Registry) ListAdapters() []api.AdapterSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]api.AdapterSummary, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, summarize(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetAdapter returns the catalog view of one adapter.
func (r *Registry) GetAdapter(id string) (api.AdapterSummary, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return api.AdapterSummary{}, false
	}
	return summarize(a), true
}

// Stats returns per-adapter call accounting, keyed by adapter ID.
func (r *Registry) Stats() map[string]api.AdapterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]api.AdapterStats, len(r.adapters))
	for id, a := range r.adapters {
		out[id] = a.Stats()
	}
	return out
}

// summarize builds the catalog view of an adapter. Callers hold r.mu.
func summarize(a Adapter) api.AdapterSummary {
	tools := a.Tools()
	_, isMock := a.(*MockAdapter)

	summary := api.AdapterSummary{
		ID:               a.ID(),
		Name:             a.Name(),
		Category:         a.Category(),
		Capabilities:     a.Capabilities(),
		ToolCount:        len(tools),
		ToolCategories:   toolCategories(tools),
		Status:           "active",
		IsMock:           isMock,
		CommonOperations: commonOperations(tools),
	}
	if mp, ok := a.(metadataProvider); ok {
		md := mp.Metadata()
		summary.AuthType = md.AuthType
		summary.SupportedCountries = md.SupportedCountries
		summary.SupportedCurrencies = md.SupportedCurrencies
	}
	if summary.AuthType == "" {
		summary.AuthType = "none"
	}
	return summary
}

// toolCategories groups an adapter's tools by the noun segment of their
// kebab-case names ("initialize-transaction" -> "transaction"), sorted.
func toolCategories(tools []api.Tool) []string {
	seen := make(map[string]struct{})
	for _, tool := range tools {
		segments := strings.Split(pkgstrings.Kebab(tool.Name), "-")
		seen[segments[len(segments)-1]] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// commonOperations picks up to five tool names containing a common-operation
// marker, in declaration order.
func commonOperations(tools []api.Tool) []string {
	var out []string
	for _, tool := range tools {
		name := strings.ToLower(tool.Name)
		for _, marker := range commonOperationMarkers {
			if strings.Contains(name, marker) {
				out = append(out, tool.Name)
				break
			}
		}
		if len(out) == 5 {
			break
		}
	}
	return out
}
