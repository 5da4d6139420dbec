package metatools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"toolgate/internal/api"
	"toolgate/pkg/logging"
	pkgstrings "toolgate/pkg/strings"
)

// selectionGap is the confidence distance below which the intent response
// asks the caller to choose between the top candidates.
const selectionGap = 0.1

// getRegistries retrieves the adapter and operation registries from the API
// layer. Either being unavailable is a deployment fault surfaced as an error
// result.
func (p *Provider) getRegistries() (api.AdapterRegistryHandler, api.OperationRegistryHandler, *api.CallToolResult) {
	adapters := api.GetAdapterRegistry()
	if adapters == nil {
		return nil, nil, errorResult("Adapter registry not available")
	}
	operations := api.GetOperationRegistry()
	if operations == nil {
		return nil, nil, errorResult("Operation registry not available")
	}
	return adapters, operations, nil
}

// ExecuteTool executes a specific meta-tool by name with the provided
// arguments. This implements the api.ToolProvider interface.
func (p *Provider) ExecuteTool(ctx context.Context, toolName string, args map[string]interface{}) (*api.CallToolResult, error) {
	logging.Debug("MetaTools", "Executing %s with args: %v", toolName, args)

	switch toolName {
	case ToolIntent:
		return p.handleIntent(ctx, args)
	case ToolExecute:
		return p.handleExecute(ctx, args)
	case ToolAdapters:
		return p.handleAdapters(ctx, args)
	case ToolTools:
		return p.handleTools(ctx, args)
	case ToolReference:
		return p.handleReference(ctx, args)
	default:
		return nil, fmt.Errorf("unknown meta-tool: %s", toolName)
	}
}

// handleIntent handles gateway.intent: search the operation index and shape
// the best hit into an execution contract.
func (p *Provider) handleIntent(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return errorResult("query argument is required"), nil
	}

	_, operations, errResult := p.getRegistries()
	if errResult != nil {
		return errResult, nil
	}

	adapter, _ := args["adapter"].(string)
	limit := intArg(args, "limit", 3)
	sc := searchContextArg(args)

	results := operations.Search(query, adapter, sc, limit)
	if len(results) == 0 {
		jsonData, err := p.formatters.FormatJSON(IntentResponse{
			MissingInputs: []string{},
			Alternatives:  []Recommendation{},
			NextStep:      "No matching tools. Try gateway.adapters to browse the catalog, or rephrase the query.",
		})
		if err != nil {
			return api.HandleErrorWithPrefix(err, "gateway.intent"), nil
		}
		return textResult(jsonData), nil
	}

	top := results[0]
	response := IntentResponse{
		Recommended: &Recommendation{
			ToolID:     top.Operation.ToolID,
			Confidence: top.Confidence,
			Why:        top.Why,
		},
		ReadyToExecute: readyToExecute(top.Operation),
		MissingInputs:  missingInputs(top.Operation),
		Alternatives:   []Recommendation{},
	}

	for _, alt := range results[1:] {
		response.Alternatives = append(response.Alternatives, Recommendation{
			ToolID:     alt.Operation.ToolID,
			Confidence: alt.Confidence,
			Why:        alt.Why,
		})
	}
	if len(results) > 1 && top.Confidence-results[1].Confidence < selectionGap {
		response.NeedsSelection = true
	}
	response.NextStep = nextStep(top.Operation, response.NeedsSelection)

	jsonData, err := p.formatters.FormatJSON(response)
	if err != nil {
		return api.HandleErrorWithPrefix(err, "gateway.intent"), nil
	}
	return textResult(jsonData), nil
}

// handleAdapters handles gateway.adapters: the filtered adapter catalog.
func (p *Provider) handleAdapters(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	adapters, _, errResult := p.getRegistries()
	if errResult != nil {
		return errResult, nil
	}

	category, _ := args["category"].(string)
	capability, _ := args["capability"].(string)
	country, _ := args["country"].(string)

	all := adapters.ListAdapters()
	filtered := make([]api.AdapterSummary, 0, len(all))
	for _, summary := range all {
		if category != "" && !strings.EqualFold(summary.Category, category) {
			continue
		}
		if capability != "" && !containsFold(summary.Capabilities, capability) {
			continue
		}
		if country != "" && !containsFold(summary.SupportedCountries, country) {
			continue
		}
		filtered = append(filtered, summary)
	}

	jsonData, err := p.formatters.FormatJSON(AdaptersResponse{
		Total:    len(filtered),
		Adapters: filtered,
	})
	if err != nil {
		return api.HandleErrorWithPrefix(err, "gateway.adapters"), nil
	}
	return textResult(jsonData), nil
}

// handleTools handles gateway.tools: a paginated per-adapter tool list.
func (p *Provider) handleTools(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	adapterID, ok := args["adapter"].(string)
	if !ok || adapterID == "" {
		return codedErrorResult(api.CodeAdapterRequired, "adapter argument is required"), nil
	}

	adapters, operations, errResult := p.getRegistries()
	if errResult != nil {
		return errResult, nil
	}

	if _, found := adapters.GetAdapter(adapterID); !found {
		return codedErrorResult(api.CodeAdapterNotFound, fmt.Sprintf("adapter %s not found", adapterID)), nil
	}

	category, _ := args["category"].(string)
	search, _ := args["search"].(string)
	limit := intArg(args, "limit", 20)
	offset := intArg(args, "offset", 0)

	var matched []ToolSummary
	for _, op := range operations.Operations() {
		if op.Adapter != adapterID {
			continue
		}
		if category != "" && !strings.EqualFold(toolCategory(op.Name), category) {
			continue
		}
		if search != "" {
			needle := strings.ToLower(search)
			if !strings.Contains(strings.ToLower(op.Name), needle) &&
				!strings.Contains(strings.ToLower(op.Description), needle) {
				continue
			}
		}
		matched = append(matched, ToolSummary{
			ToolID:         op.ToolID,
			Name:           op.Name,
			Description:    pkgstrings.TruncateDescription(op.Description, pkgstrings.DefaultDescriptionMaxLen),
			RiskLevel:      string(op.RiskLevel),
			RequiredParams: op.RequiredParams,
		})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ToolID < matched[j].ToolID })

	total := len(matched)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	jsonData, err := p.formatters.FormatJSON(ToolsResponse{
		Adapter: adapterID,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		Tools:   matched[offset:end],
	})
	if err != nil {
		return api.HandleErrorWithPrefix(err, "gateway.tools"), nil
	}
	return textResult(jsonData), nil
}

// readyToExecute shapes an operation into its execution contract.
func readyToExecute(op api.Operation) *ReadyToExecute {
	ready := &ReadyToExecute{
		ToolID:         op.ToolID,
		RequiredParams: op.RequiredParams,
		OptionalParams: op.OptionalParams,
		Example:        synthesizeExample(op),
		Constraints: Constraints{
			RiskLevel:            string(op.RiskLevel),
			RequiresIdempotency:  op.RiskLevel == api.RiskHigh,
			RequiresConfirmation: confirmationNameRe.MatchString(pkgstrings.Kebab(op.Name)),
		},
	}
	if op.InputSchema != nil {
		if props, ok := op.InputSchema["properties"].(map[string]interface{}); ok {
			ready.ParamSchemas = props
		}
	}
	if ready.RequiredParams == nil {
		ready.RequiredParams = []string{}
	}
	if ready.OptionalParams == nil {
		ready.OptionalParams = []string{}
	}
	return ready
}

// missingInputs lists what the caller still has to supply: every required
// parameter of the recommended tool.
func missingInputs(op api.Operation) []string {
	if len(op.RequiredParams) == 0 {
		return []string{}
	}
	out := make([]string, len(op.RequiredParams))
	copy(out, op.RequiredParams)
	return out
}

// nextStep produces the instruction line of an intent response.
func nextStep(op api.Operation, needsSelection bool) string {
	if needsSelection {
		return "Multiple tools match closely. Pick one from alternatives, then call gateway.execute with its tool_id."
	}
	if op.Mock {
		return fmt.Sprintf("%s belongs to a mock adapter and cannot be executed yet.", op.ToolID)
	}
	var extras []string
	if op.RiskLevel == api.RiskHigh {
		extras = append(extras, "options.idempotency_key is required")
	}
	if confirmationNameRe.MatchString(pkgstrings.Kebab(op.Name)) {
		extras = append(extras, "options.confirmed:true is required")
	}
	step := fmt.Sprintf("Call gateway.execute with tool_id %q and the required params.", op.ToolID)
	if len(extras) > 0 {
		step += " Note: " + strings.Join(extras, "; ") + "."
	}
	return step
}

// toolCategory is the noun segment of a kebab-case tool name.
func toolCategory(name string) string {
	segments := strings.Split(pkgstrings.Kebab(name), "-")
	return segments[len(segments)-1]
}

func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func searchContextArg(args map[string]interface{}) api.SearchContext {
	raw, ok := args["context"].(map[string]interface{})
	if !ok {
		return api.SearchContext{}
	}
	sc := api.SearchContext{}
	sc.Country, _ = raw["country"].(string)
	sc.Currency, _ = raw["currency"].(string)
	sc.Capability, _ = raw["capability"].(string)
	return sc
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
