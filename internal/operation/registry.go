package operation

import (
	"context"
	"regexp"
	"sort"
	"sync"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
	pkgstrings "toolgate/pkg/strings"
)

// Risk classification, applied in order: low names, high names or a financial
// category, destructive names, medium otherwise.
var (
	lowNameRe         = regexp.MustCompile(`list|get|fetch|search|health|read|view`)
	highNameRe        = regexp.MustCompile(`pay|transfer|charge|disburse|payout|authorize`)
	destructiveNameRe = regexp.MustCompile(`delete|cancel|remove|revoke|rotate`)
	highCategoryRe    = regexp.MustCompile(`^(payments|banking|financial)$`)
)

// Source is the slice of the adapter registry the operation index is built
// from.
type Source interface {
	ListAdapters() []api.AdapterSummary
	AdapterTools(id string) ([]api.Tool, error)
}

// Registry is the derived operation index plus the search engine over it.
// The index is immutable between Reindex calls; reads take the read lock.
type Registry struct {
	source Source

	mu   sync.RWMutex
	ops  []api.Operation
	byID map[string]api.Operation
	// adapters caches the catalog view per adapter for search hints.
	adapters map[string]api.AdapterSummary
}

// NewRegistry creates an operation registry over an adapter source. Call
// Reindex before first use.
func NewRegistry(source Source) *Registry {
	return &Registry{
		source:   source,
		byID:     make(map[string]api.Operation),
		adapters: make(map[string]api.AdapterSummary),
	}
}

// Reindex rebuilds the operation index from the adapter source.
func (r *Registry) Reindex(ctx context.Context) error {
	summaries := r.source.ListAdapters()

	ops := make([]api.Operation, 0, len(summaries)*8)
	byID := make(map[string]api.Operation)
	adapters := make(map[string]api.AdapterSummary, len(summaries))

	for _, summary := range summaries {
		adapters[summary.ID] = summary

		tools, err := r.source.AdapterTools(summary.ID)
		if err != nil {
			return err
		}
		for _, tool := range tools {
			op := derive(summary, tool)
			ops = append(ops, op)
			byID[op.ToolID] = op
		}
	}

	sort.Slice(ops, func(i, j int) bool { return ops[i].ToolID < ops[j].ToolID })

	r.mu.Lock()
	r.ops = ops
	r.byID = byID
	r.adapters = adapters
	r.mu.Unlock()

	logging.Info("OperationRegistry", "Indexed %d operations from %d adapters", len(ops), len(summaries))
	return nil
}

// Operations returns every indexed operation, sorted by tool ID.
func (r *Registry) Operations() []api.Operation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]api.Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// GetOperation returns the operation for a canonical tool ID.
func (r *Registry) GetOperation(toolID string) (api.Operation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.byID[toolID]
	return op, ok
}

// derive builds the operation record for one adapter tool.
func derive(summary api.AdapterSummary, tool api.Tool) api.Operation {
	kebabName := pkgstrings.Kebab(tool.Name)
	required, optional := splitParams(tool.InputSchema)

	return api.Operation{
		ToolID:         summary.ID + ":" + kebabName,
		Adapter:        summary.ID,
		Name:           tool.Name,
		Description:    tool.Description,
		Category:       summary.Category,
		Method:         tool.Method,
		RiskLevel:      classify(kebabName, summary.Category),
		RequiredParams: required,
		OptionalParams: optional,
		InputSchema:    tool.InputSchema,
		Tags:           summary.Capabilities,
		Mock:           summary.IsMock,
	}
}

// classify assigns the risk tier from the tool name and adapter category.
func classify(kebabName, category string) api.RiskLevel {
	switch {
	case lowNameRe.MatchString(kebabName):
		return api.RiskLow
	case highNameRe.MatchString(kebabName) || highCategoryRe.MatchString(category):
		return api.RiskHigh
	case destructiveNameRe.MatchString(kebabName):
		return api.RiskDestructive
	default:
		return api.RiskMedium
	}
}

// splitParams separates schema properties into required and optional name
// lists, both sorted.
func splitParams(schema map[string]interface{}) (required, optional []string) {
	if schema == nil {
		return nil, nil
	}

	requiredSet := make(map[string]struct{})
	switch reqs := schema["required"].(type) {
	case []string:
		for _, name := range reqs {
			requiredSet[name] = struct{}{}
		}
	case []interface{}:
		for _, raw := range reqs {
			if name, ok := raw.(string); ok {
				requiredSet[name] = struct{}{}
			}
		}
	}

	properties, _ := schema["properties"].(map[string]interface{})
	for name := range properties {
		if _, ok := requiredSet[name]; ok {
			required = append(required, name)
		} else {
			optional = append(optional, name)
		}
	}
	sort.Strings(required)
	sort.Strings(optional)
	return required, optional
}
