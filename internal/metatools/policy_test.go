package metatools

import (
	"context"
	"testing"

	"toolgate/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeArgs(toolID string, params, options map[string]interface{}) map[string]interface{} {
	args := map[string]interface{}{"tool_id": toolID}
	if params != nil {
		args["params"] = params
	}
	if options != nil {
		args["options"] = options
	}
	return args
}

func errorCode(t *testing.T, result *api.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError)
	payload := decode(t, result)
	errBlock, ok := payload["error"].(map[string]interface{})
	require.True(t, ok, "error results carry an error block")
	code, _ := errBlock["code"].(string)
	return code
}

func validInitTxParams() map[string]interface{} {
	return map[string]interface{}{
		"email":  "a@b.com",
		"amount": float64(500000),
	}
}

func TestExecuteRejectsBadToolIDFormat(t *testing.T) {
	setupRegistries(t)
	provider := NewProvider()

	for _, id := range []string{"", "noseparator", "Upper:case", "a:b:c", "pay stack:tool"} {
		result, err := provider.ExecuteTool(context.Background(), ToolExecute, executeArgs(id, nil, nil))
		require.NoError(t, err)
		assert.Equal(t, api.CodeInvalidToolIDFormat, errorCode(t, result), "id %q", id)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	setupRegistries(t)
	provider := NewProvider()

	result, err := provider.ExecuteTool(context.Background(), ToolExecute, executeArgs("paystack:nope", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, api.CodeToolNotFound, errorCode(t, result))
}

func TestExecuteHighRiskRequiresIdempotencyKey(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()

	// Without the key: rejected before any dispatch.
	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", validInitTxParams(), nil))
	require.NoError(t, err)
	assert.Equal(t, api.CodeIdempotencyRequired, errorCode(t, result))
	assert.Empty(t, adapters.calls)

	// With the key: dispatched.
	result, err = provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", validInitTxParams(), map[string]interface{}{
			"idempotency_key": "order-1",
		}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Len(t, adapters.calls, 1)
}

func TestExecuteDestructiveRequiresConfirmation(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()

	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("sendgrid:delete-template", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, api.CodeConfirmationRequired, errorCode(t, result))
	assert.Empty(t, adapters.calls)

	result, err = provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("sendgrid:delete-template", nil, map[string]interface{}{
			"confirmed": true,
		}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Len(t, adapters.calls, 1)
}

func TestExecuteSchemaValidation(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()
	options := map[string]interface{}{"idempotency_key": "order-1"}

	// Missing required key.
	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", map[string]interface{}{
			"email": "a@b.com",
		}, options))
	require.NoError(t, err)
	assert.Equal(t, api.CodeMissingRequiredParam, errorCode(t, result))

	// Wrong scalar type.
	result, err = provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", map[string]interface{}{
			"email":  "a@b.com",
			"amount": "lots",
		}, options))
	require.NoError(t, err)
	assert.Equal(t, api.CodeInvalidParamType, errorCode(t, result))
	errObj := decode(t, result)["error"].(map[string]interface{})
	assert.Equal(t, "integer", errObj["expected"])
	assert.Equal(t, "string", errObj["received"])

	// Integer is distinct from number: a fractional amount fails.
	result, err = provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", map[string]interface{}{
			"email":  "a@b.com",
			"amount": 500.5,
		}, options))
	require.NoError(t, err)
	assert.Equal(t, api.CodeInvalidParamType, errorCode(t, result))
	errObj = decode(t, result)["error"].(map[string]interface{})
	assert.Equal(t, "integer", errObj["expected"])
	assert.Equal(t, "number", errObj["received"])

	// Enum membership.
	result, err = provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", map[string]interface{}{
			"email":    "a@b.com",
			"amount":   float64(100),
			"currency": "USD",
		}, options))
	require.NoError(t, err)
	assert.Equal(t, api.CodeInvalidParamValue, errorCode(t, result))

	assert.Empty(t, adapters.calls, "validation failures never dispatch")
}

func TestExecuteDryRunNeverDispatches(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()

	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:initialize-transaction", validInitTxParams(), map[string]interface{}{
			"idempotency_key": "order-1",
			"dry_run":         true,
		}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, true, payload["success"])
	assert.Equal(t, true, payload["dry_run"])
	assert.Equal(t, "passed", payload["validation"])

	meta := payload["operation_meta"].(map[string]interface{})
	assert.Equal(t, "high", meta["risk_level"])
	assert.Equal(t, true, meta["idempotent"])
	assert.Equal(t, "payments", meta["category"])

	assert.Empty(t, adapters.calls, "dry runs never reach the adapter")
}

func TestExecuteSuccessAttachesMeta(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()

	ctx := api.WithCallContext(context.Background(), api.CallContext{RequestID: "req-55"})
	result, err := provider.ExecuteTool(ctx, ToolExecute,
		executeArgs("paystack:initialize-transaction", validInitTxParams(), map[string]interface{}{
			"idempotency_key": "order-1",
		}))
	require.NoError(t, err)
	payload := decode(t, result)

	assert.Equal(t, true, payload["success"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, true, data["ok"])

	meta := payload["meta"].(map[string]interface{})
	assert.Equal(t, "paystack", meta["adapter"])
	assert.Equal(t, "initialize_transaction", meta["tool"])
	assert.Equal(t, "req-55", meta["request_id"])
	assert.NotEmpty(t, meta["timestamp"])

	opMeta := meta["operation"].(map[string]interface{})
	assert.Equal(t, "high", opMeta["risk_level"])

	assert.Contains(t, payload, "execution_time_ms")

	require.Len(t, adapters.calls, 1)
	assert.Equal(t, "req-55", adapters.calls[0].Call.RequestID)
}

func TestExecuteGeneratesRequestID(t *testing.T) {
	adapters, _ := setupRegistries(t)
	provider := NewProvider()

	_, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:list-banks", nil, nil))
	require.NoError(t, err)
	require.Len(t, adapters.calls, 1)
	assert.NotEmpty(t, adapters.calls[0].Call.RequestID)
}

func TestExecuteWrapsAdapterFailure(t *testing.T) {
	adapters, _ := setupRegistries(t)
	adapters.callErr = api.NewGatewayError(api.CodeUpstream5xx, "paystack returned 502")
	provider := NewProvider()

	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("paystack:list-banks", nil, nil))
	require.NoError(t, err)
	require.True(t, result.IsError)

	payload := decode(t, result)
	assert.Equal(t, false, payload["success"])
	errBlock := payload["error"].(map[string]interface{})
	assert.Equal(t, api.CodeExecutionError, errBlock["code"])
	assert.Equal(t, "paystack", errBlock["adapter"])
	assert.Contains(t, payload, "execution_time_ms")
}

func TestExecuteMockAdapter(t *testing.T) {
	adapters, _ := setupRegistries(t)
	adapters.callErr = api.NewGatewayError(api.CodeMockAdapter, "stripe is a mock")
	provider := NewProvider()

	result, err := provider.ExecuteTool(context.Background(), ToolExecute,
		executeArgs("stripe:tool-1", nil, nil))
	require.NoError(t, err)

	payload := decode(t, result)
	errBlock := payload["error"].(map[string]interface{})
	assert.Equal(t, api.CodeMockAdapter, errBlock["code"], "mock failures keep their code")
}
