package vendors

import (
	"context"
	"testing"
	"time"

	"toolgate/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDispatcher resolves a fixed tool set and records dispatches.
type fakeDispatcher struct {
	known   map[string]bool
	lastID  string
	lastArg map[string]interface{}
	result  *api.CallToolResult
	err     error
}

func (f *fakeDispatcher) ResolveTool(id string) *api.ToolResolution {
	if !f.known[id] {
		return nil
	}
	return &api.ToolResolution{CanonicalID: id}
}

func (f *fakeDispatcher) CallTool(ctx context.Context, id string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error) {
	f.lastID = id
	f.lastArg = args
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &api.CallToolResult{Content: []interface{}{map[string]interface{}{"status": "ok"}}}, nil
}

func paymentCategory() Category {
	return Category{
		Name: "payment",
		Schemas: map[string]OperationSchema{
			"initializeTransaction": {
				Fields: map[string]FieldSpec{
					"amount":    {Type: "number", Required: true},
					"email":     {Type: "string", Required: true},
					"currency":  {Type: "string", Default: "NGN"},
					"reference": {Type: "string"},
				},
			},
		},
		Vendors: []Vendor{
			{
				Name: "paystack",
				Mappings: map[string]Mapping{
					"initializeTransaction": {
						Tool:     "paystack:initialize-transaction",
						Template: `{"email": {{ .email | quote }}, "amount": {{ .amount }}, "currency": {{ .currency | quote }}}`,
					},
				},
			},
			{
				Name: "flutterwave",
				Mappings: map[string]Mapping{
					"initializeTransaction": {
						Tool: "flutterwave:create-charge",
						Transform: func(input map[string]interface{}) (map[string]interface{}, error) {
							return map[string]interface{}{
								"customer_email": input["email"],
								"charge_amount":  input["amount"],
							}, nil
						},
					},
				},
			},
		},
	}
}

func newTestRegistry(known ...string) (*Registry, *fakeDispatcher) {
	dispatcher := &fakeDispatcher{known: make(map[string]bool)}
	for _, id := range known {
		dispatcher.known[id] = true
	}
	reg := NewRegistry(dispatcher)
	reg.RegisterCategory(paymentCategory())
	return reg, dispatcher
}

func validInput() map[string]interface{} {
	return map[string]interface{}{
		"amount": float64(500000),
		"email":  "customer@example.com",
	}
}

func TestExecuteTransformsAndDispatches(t *testing.T) {
	reg, dispatcher := newTestRegistry("paystack:initialize-transaction")

	out, err := reg.Execute(context.Background(), "payment", "initializeTransaction", validInput(), "", api.CallContext{})
	require.NoError(t, err)

	assert.Equal(t, "paystack:initialize-transaction", dispatcher.lastID)
	assert.Equal(t, "customer@example.com", dispatcher.lastArg["email"])
	assert.Equal(t, float64(500000), dispatcher.lastArg["amount"])
	assert.Equal(t, "NGN", dispatcher.lastArg["currency"], "schema default flows into the transform")

	assert.Equal(t, "payment", out["category"])
	assert.Equal(t, "initializeTransaction", out["operation"])
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])

	_, hasVendor := out["vendor"]
	assert.False(t, hasVendor, "vendor identity never leaks to the client shape")
}

func TestExecuteAbstractionNotFound(t *testing.T) {
	reg, _ := newTestRegistry("paystack:initialize-transaction")

	_, err := reg.Execute(context.Background(), "lodging", "book", nil, "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeAbstractionNotFound))

	_, err = reg.Execute(context.Background(), "payment", "refund", nil, "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeAbstractionNotFound))
}

func TestExecuteSchemaViolations(t *testing.T) {
	reg, dispatcher := newTestRegistry("paystack:initialize-transaction")

	_, err := reg.Execute(context.Background(), "payment", "initializeTransaction", map[string]interface{}{
		"email": "a@b.com",
	}, "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeSchemaViolation), "missing required field")

	_, err = reg.Execute(context.Background(), "payment", "initializeTransaction", map[string]interface{}{
		"email":  "a@b.com",
		"amount": "lots",
	}, "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeSchemaViolation), "wrong type")

	_, err = reg.Execute(context.Background(), "payment", "initializeTransaction", map[string]interface{}{
		"email":   "a@b.com",
		"amount":  float64(10),
		"stealth": true,
	}, "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeSchemaViolation), "unknown field")

	assert.Empty(t, dispatcher.lastID, "schema violations never dispatch")
}

func TestVendorPreferenceWhenHealthy(t *testing.T) {
	reg, dispatcher := newTestRegistry("paystack:initialize-transaction", "flutterwave:create-charge")

	_, err := reg.Execute(context.Background(), "payment", "initializeTransaction", validInput(), "flutterwave", api.CallContext{})
	require.NoError(t, err)
	assert.Equal(t, "flutterwave:create-charge", dispatcher.lastID)
	assert.Equal(t, "customer@example.com", dispatcher.lastArg["customer_email"], "TransformFunc renames fields")
}

func TestUnhealthyPreferenceFallsBack(t *testing.T) {
	// flutterwave's tool does not resolve, so the preference is ignored.
	reg, dispatcher := newTestRegistry("paystack:initialize-transaction")

	_, err := reg.Execute(context.Background(), "payment", "initializeTransaction", validInput(), "flutterwave", api.CallContext{})
	require.NoError(t, err)
	assert.Equal(t, "paystack:initialize-transaction", dispatcher.lastID)
}

func TestDeprecatedVendorSkipped(t *testing.T) {
	reg, dispatcher := newTestRegistry("paystack:initialize-transaction", "flutterwave:create-charge")
	require.NoError(t, reg.DeprecateVendor("payment", "paystack"))

	_, err := reg.Execute(context.Background(), "payment", "initializeTransaction", validInput(), "", api.CallContext{})
	require.NoError(t, err)
	assert.Equal(t, "flutterwave:create-charge", dispatcher.lastID)
}

func TestNoVendorAvailable(t *testing.T) {
	reg, _ := newTestRegistry() // nothing resolves

	_, err := reg.Execute(context.Background(), "payment", "initializeTransaction", validInput(), "", api.CallContext{})
	assert.True(t, api.IsCode(err, api.CodeNoVendorAvailable))
}

func TestRemovalGuard(t *testing.T) {
	reg, _ := newTestRegistry("paystack:initialize-transaction")

	err := reg.RemoveVendor("payment", "paystack")
	require.Error(t, err, "active vendors cannot be removed")

	require.NoError(t, reg.DeprecateVendor("payment", "paystack"))
	err = reg.RemoveVendor("payment", "paystack")
	require.Error(t, err, "removal inside the 30-day window is forbidden")

	// Backdate the deprecation past the grace window.
	reg.mu.Lock()
	cat := reg.categories["payment"]
	for i := range cat.Vendors {
		if cat.Vendors[i].Name == "paystack" {
			cat.Vendors[i].DeprecatedAt = time.Now().Add(-31 * 24 * time.Hour)
		}
	}
	reg.mu.Unlock()

	require.NoError(t, reg.RemoveVendor("payment", "paystack"))
	require.Len(t, reg.categories["payment"].Vendors, 1)
}

func TestCategories(t *testing.T) {
	reg, _ := newTestRegistry()
	assert.Equal(t, []string{"payment"}, reg.Categories())
}
