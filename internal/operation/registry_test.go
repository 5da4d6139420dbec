package operation

import (
	"context"
	"testing"

	"toolgate/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is a canned adapter registry view.
type fakeSource struct {
	summaries []api.AdapterSummary
	tools     map[string][]api.Tool
}

func (f *fakeSource) ListAdapters() []api.AdapterSummary { return f.summaries }

func (f *fakeSource) AdapterTools(id string) ([]api.Tool, error) {
	return f.tools[id], nil
}

func paymentsSource() *fakeSource {
	return &fakeSource{
		summaries: []api.AdapterSummary{
			{
				ID:                 "paystack",
				Name:               "paystack",
				Category:           "payments",
				Capabilities:       []string{"card-payments", "bank-transfers"},
				SupportedCountries: []string{"NG", "GH"},
				SupportedCurrencies: []string{"NGN", "GHS"},
			},
			{
				ID:       "sendgrid",
				Name:     "sendgrid",
				Category: "messaging",
			},
			{
				ID:       "stripe",
				Name:     "stripe",
				Category: "payments",
				IsMock:   true,
			},
		},
		tools: map[string][]api.Tool{
			"paystack": {
				{
					Name:        "initialize_transaction",
					Description: "Initialize a payment transaction",
					Method:      "POST",
					InputSchema: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"email":    map[string]interface{}{"type": "string"},
							"amount":   map[string]interface{}{"type": "integer"},
							"currency": map[string]interface{}{"type": "string"},
						},
						"required": []interface{}{"email", "amount"},
					},
				},
				{Name: "list-banks", Description: "List supported banks"},
				{Name: "cancel-subscription", Description: "Cancel a recurring subscription"},
			},
			"sendgrid": {
				{Name: "send-email", Description: "Send a transactional email"},
				{Name: "delete-template", Description: "Delete a stored template"},
			},
			"stripe": {
				{Name: "tool-1", Description: "Placeholder tool"},
			},
		},
	}
}

func newIndexed(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(paymentsSource())
	require.NoError(t, reg.Reindex(context.Background()))
	return reg
}

func TestReindexDerivesOperations(t *testing.T) {
	reg := newIndexed(t)

	ops := reg.Operations()
	assert.Len(t, ops, 6)

	op, ok := reg.GetOperation("paystack:initialize-transaction")
	require.True(t, ok, "canonical IDs use kebab-case names")
	assert.Equal(t, "paystack", op.Adapter)
	assert.Equal(t, "initialize_transaction", op.Name)
	assert.Equal(t, "payments", op.Category)
	assert.Equal(t, "POST", op.Method)
	assert.Equal(t, []string{"amount", "email"}, op.RequiredParams)
	assert.Equal(t, []string{"currency"}, op.OptionalParams)
	assert.False(t, op.Mock)

	mock, ok := reg.GetOperation("stripe:tool-1")
	require.True(t, ok)
	assert.True(t, mock.Mock, "mock adapters produce placeholder operations")

	_, ok = reg.GetOperation("paystack:nope")
	assert.False(t, ok)
}

func TestRiskClassification(t *testing.T) {
	reg := newIndexed(t)

	cases := map[string]api.RiskLevel{
		"paystack:list-banks":             api.RiskLow,
		"paystack:initialize-transaction": api.RiskHigh, // payments category
		"paystack:cancel-subscription":    api.RiskHigh, // category outranks destructive name
		"sendgrid:send-email":             api.RiskMedium,
		"sendgrid:delete-template":        api.RiskDestructive,
	}
	for toolID, want := range cases {
		op, ok := reg.GetOperation(toolID)
		require.True(t, ok, toolID)
		assert.Equal(t, want, op.RiskLevel, toolID)
	}
}

func TestSearchRanking(t *testing.T) {
	reg := newIndexed(t)

	results := reg.Search("initialize a payment transaction", "", api.SearchContext{}, 3)
	require.NotEmpty(t, results)
	assert.Equal(t, "paystack:initialize-transaction", results[0].Operation.ToolID)
	assert.Greater(t, results[0].Confidence, 0.0)
	assert.LessOrEqual(t, results[0].Confidence, 1.0)
	assert.NotEmpty(t, results[0].Why)
}

func TestSearchAdapterFilterAndLimit(t *testing.T) {
	reg := newIndexed(t)

	results := reg.Search("delete cancel transaction email banks", "sendgrid", api.SearchContext{}, 10)
	for _, res := range results {
		assert.Equal(t, "sendgrid", res.Operation.Adapter)
	}

	limited := reg.Search("transaction banks subscription email template", "", api.SearchContext{}, 2)
	assert.LessOrEqual(t, len(limited), 2)
}

func TestSearchContextHints(t *testing.T) {
	reg := newIndexed(t)

	plain := reg.Search("transaction", "", api.SearchContext{}, 1)
	hinted := reg.Search("transaction", "", api.SearchContext{Currency: "NGN"}, 1)
	require.NotEmpty(t, plain)
	require.NotEmpty(t, hinted)
	assert.Greater(t, hinted[0].Confidence, plain[0].Confidence, "currency hint boosts a supporting adapter")
	assert.Contains(t, hinted[0].Why, "NGN")
}

func TestSearchEmptyQuery(t *testing.T) {
	reg := newIndexed(t)
	assert.Nil(t, reg.Search("   ", "", api.SearchContext{}, 3))
}

func TestSearchTieBreakAlphabetical(t *testing.T) {
	source := &fakeSource{
		summaries: []api.AdapterSummary{
			{ID: "beta", Category: "misc"},
			{ID: "alpha", Category: "misc"},
		},
		tools: map[string][]api.Tool{
			"beta":  {{Name: "ping", Description: "same words here"}},
			"alpha": {{Name: "ping", Description: "same words here"}},
		},
	}
	reg := NewRegistry(source)
	require.NoError(t, reg.Reindex(context.Background()))

	results := reg.Search("same words", "", api.SearchContext{}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, results[0].Confidence, results[1].Confidence)
	assert.Equal(t, "alpha:ping", results[0].Operation.ToolID)
}
