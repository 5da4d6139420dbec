package metatools

import (
	"context"
	"fmt"
	"strings"

	"toolgate/internal/api"
	pkgstrings "toolgate/pkg/strings"
)

// conceptDocs is the static documentation for gateway-level concepts.
var conceptDocs = map[string]ReferenceResponse{
	"authentication": {
		Topic: "authentication",
		Kind:  "concept",
		Overview: "Each adapter authenticates outbound calls with its configured scheme " +
			"(bearer, apikey, basic, hmac, or oauth2). Caller identity travels separately: " +
			"the Authorization and X-API-Key headers you send are placed in the call context " +
			"and forwarded only when the adapter's auth type is none.",
		Auth: map[string]interface{}{
			"header":       "Authorization",
			"env_var":      "TOOLGATE_<SERVICE>_TOKEN",
			"token_format": "Bearer <token>",
		},
		BestPractices: []string{
			"Configure service credentials in the catalog, not per call.",
			"Use ${VAR} references in descriptors so secrets stay in the environment.",
			"Bearer tokens with a refreshUrl are refreshed automatically on 401.",
		},
	},
	"idempotency": {
		Topic: "idempotency",
		Kind:  "concept",
		Overview: "High-risk operations (payments, transfers, payouts) require " +
			"options.idempotency_key on gateway.execute. The key makes retries safe: " +
			"the same key for the same operation must not produce a second side effect.",
		Examples: []interface{}{
			map[string]interface{}{
				"tool_id": "paystack:initialize-transaction",
				"options": map[string]interface{}{"idempotency_key": "order-2219-attempt-1"},
			},
		},
		CommonErrors: []map[string]string{
			{"code": api.CodeIdempotencyRequired, "fix": "Add options.idempotency_key and retry."},
		},
		BestPractices: []string{
			"Derive the key from your business entity (order ID), not a random value per attempt.",
			"Reuse the same key when retrying a failed call.",
		},
	},
	"risk-levels": {
		Topic: "risk-levels",
		Kind:  "concept",
		Overview: "Every operation carries a risk level derived from its name and category. " +
			"low: read-style operations (list, get, fetch, search, health, read, view). " +
			"high: money movement (pay, transfer, charge, disburse, payout, authorize) or " +
			"financial categories; requires an idempotency key. " +
			"destructive: delete, cancel, remove, revoke, rotate; requires options.confirmed. " +
			"medium: everything else.",
		CommonErrors: []map[string]string{
			{"code": api.CodeIdempotencyRequired, "fix": "High-risk tools need options.idempotency_key."},
			{"code": api.CodeConfirmationRequired, "fix": "Destructive tools need options.confirmed:true."},
		},
	},
}

// handleReference handles gateway.reference: curated documentation for an
// adapter ID, a canonical tool ID, or a concept name.
func (p *Provider) handleReference(ctx context.Context, args map[string]interface{}) (*api.CallToolResult, error) {
	topic, ok := args["topic"].(string)
	if !ok || topic == "" {
		return errorResult("topic argument is required"), nil
	}
	section, _ := args["section"].(string)
	if section == "" {
		section = "all"
	}

	response, errResult := p.referenceFor(topic)
	if errResult != nil {
		return errResult, nil
	}

	trimToSection(response, section)

	jsonData, err := p.formatters.FormatJSON(response)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(jsonData), nil
}

// referenceFor resolves a topic to its reference content: concepts first,
// then tool IDs, then adapter IDs.
func (p *Provider) referenceFor(topic string) (*ReferenceResponse, *api.CallToolResult) {
	if doc, ok := conceptDocs[strings.ToLower(topic)]; ok {
		response := doc
		return &response, nil
	}

	adapters, operations, errResult := p.getRegistries()
	if errResult != nil {
		return nil, errResult
	}

	if strings.Contains(topic, ":") {
		op, found := operations.GetOperation(topic)
		if !found {
			return nil, errorResult(fmt.Sprintf("Unknown topic: %s", topic))
		}
		return toolReference(op), nil
	}

	summary, found := adapters.GetAdapter(topic)
	if !found {
		return nil, errorResult(fmt.Sprintf("Unknown topic: %s", topic))
	}
	return adapterReference(summary), nil
}

// toolReference builds the reference entry for one operation.
func toolReference(op api.Operation) *ReferenceResponse {
	overview := op.Description
	if overview == "" {
		overview = fmt.Sprintf("Tool %s of adapter %s.", op.Name, op.Adapter)
	}

	response := &ReferenceResponse{
		Topic:    op.ToolID,
		Kind:     "tool",
		Overview: overview,
		BestPractices: []string{
			fmt.Sprintf("Risk level is %s.", op.RiskLevel),
			"Validate with options.dry_run before executing for the first time.",
		},
	}

	if example := synthesizeExample(op); example != nil {
		response.Examples = []interface{}{
			map[string]interface{}{"tool_id": op.ToolID, "params": example},
		}
	}

	switch op.RiskLevel {
	case api.RiskHigh:
		response.CommonErrors = append(response.CommonErrors, map[string]string{
			"code": api.CodeIdempotencyRequired, "fix": "Add options.idempotency_key.",
		})
	case api.RiskDestructive:
		response.CommonErrors = append(response.CommonErrors, map[string]string{
			"code": api.CodeConfirmationRequired, "fix": "Set options.confirmed to true.",
		})
	}
	if len(op.RequiredParams) > 0 {
		response.CommonErrors = append(response.CommonErrors, map[string]string{
			"code": api.CodeMissingRequiredParam,
			"fix":  "Supply all of: " + strings.Join(op.RequiredParams, ", "),
		})
	}
	return response
}

// adapterReference builds the reference entry for one adapter. Detailed
// vendor API semantics live in the provider's own docs; this entry covers
// only the gateway-side contract.
func adapterReference(summary api.AdapterSummary) *ReferenceResponse {
	overview := fmt.Sprintf("%s (%s): %d tools.", summary.Name, summary.Category, summary.ToolCount)
	if summary.IsMock {
		overview += " This adapter is a mock placeholder and cannot execute tools."
	}
	if len(summary.SupportedCountries) > 0 {
		overview += " Countries: " + strings.Join(summary.SupportedCountries, ", ") + "."
	}

	response := &ReferenceResponse{
		Topic:    summary.ID,
		Kind:     "adapter",
		Overview: overview,
		Auth: map[string]interface{}{
			"type":    summary.AuthType,
			"env_var": "TOOLGATE_" + strings.ToUpper(strings.ReplaceAll(summary.ID, "-", "_")) + "_TOKEN",
		},
		BestPractices: []string{
			fmt.Sprintf("Browse tools with gateway.tools {adapter: %q}.", summary.ID),
			"See the provider's own documentation for upstream API semantics.",
		},
	}

	if len(summary.CommonOperations) > 0 {
		examples := make([]interface{}, 0, len(summary.CommonOperations))
		for _, name := range summary.CommonOperations {
			examples = append(examples, map[string]interface{}{
				"tool_id": summary.ID + ":" + pkgstrings.Kebab(name),
			})
		}
		response.Examples = examples
	}
	return response
}

// trimToSection clears every section a caller did not ask for.
func trimToSection(response *ReferenceResponse, section string) {
	if section == "all" {
		return
	}
	if section != "overview" {
		response.Overview = ""
	}
	if section != "auth" {
		response.Auth = nil
	}
	if section != "examples" {
		response.Examples = nil
	}
	if section != "errors" {
		response.CommonErrors = nil
	}
	if section != "best_practices" {
		response.BestPractices = nil
	}
}
