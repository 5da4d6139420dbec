package compliance

import (
	"context"
	"testing"

	"toolgate/internal/api"
	"toolgate/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServices() []catalog.ServiceDescriptor {
	return []catalog.ServiceDescriptor{
		{
			Name:           "paystack",
			BaseURL:        "https://api.paystack.co",
			Authentication: catalog.AuthConfig{Type: catalog.AuthBearer, Token: "sk_test"},
			Compliance:     catalog.ComplianceFlags{PCI: true, PSD2: true},
		},
		{
			Name:           "sendgrid",
			BaseURL:        "https://api.sendgrid.com",
			Authentication: catalog.AuthConfig{Type: catalog.AuthAPIKey, Key: "SG.x", Header: "Authorization"},
			Compliance:     catalog.ComplianceFlags{GDPR: true},
		},
		{
			Name:           "legacy-bank",
			BaseURL:        "http://bank.internal",
			Authentication: catalog.AuthConfig{Type: catalog.AuthNone},
			Compliance:     catalog.ComplianceFlags{PCI: true, PSD2: true, SOX: true},
		},
	}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	fields, err := LoadFieldLists("")
	require.NoError(t, err)
	enc, err := NewEncryptor("passphrase-for-tests")
	require.NoError(t, err)
	pseudo, err := NewPseudonymizer("test-salt")
	require.NoError(t, err)

	log := NewAuditLog(nil, nil)
	t.Cleanup(func() { log.Close() })
	return NewManager(testServices(), fields, enc, pseudo, log, nil)
}

func TestValidateServiceAggregates(t *testing.T) {
	m := newTestManager(t)

	result, err := m.ValidateService("paystack")
	require.NoError(t, err)
	assert.Equal(t, "COMPLIANT", result.Overall)
	assert.Len(t, result.Regulations, 2)
	assert.True(t, result.Regulations["PCI"].Compliant)
	assert.False(t, result.LastChecked.IsZero())

	cached, ok := m.CachedResult("paystack")
	assert.True(t, ok)
	assert.Equal(t, result.Overall, cached.Overall)
}

func TestValidateServiceNonCompliant(t *testing.T) {
	m := newTestManager(t)

	result, err := m.ValidateService("legacy-bank")
	require.NoError(t, err)
	assert.Equal(t, "NON_COMPLIANT", result.Overall)
	assert.False(t, result.Regulations["PCI"].Compliant)
	assert.False(t, result.Regulations["PSD2"].Compliant)
	assert.NotEmpty(t, result.Violations)
}

func TestValidateServiceUnknown(t *testing.T) {
	m := newTestManager(t)
	_, err := m.ValidateService("nope")
	assert.True(t, api.IsCode(err, api.CodeServiceNotFound))
}

func TestFilterRequestCardScenario(t *testing.T) {
	m := newTestManager(t)

	payload := map[string]interface{}{
		"cardNumber": "4111111111111111",
		"cvv":        "123",
	}
	filtered, err := m.FilterRequest(context.Background(), "paystack", payload)
	require.NoError(t, err)

	assert.Equal(t, "411111******1111", filtered["cardNumber"])
	_, hasCVV := filtered["cvv"]
	assert.False(t, hasCVV, "cvv never reaches the adapter")

	// The caller's payload is untouched.
	assert.Equal(t, "123", payload["cvv"])
	assert.Equal(t, "4111111111111111", payload["cardNumber"])

	entries := m.RecentAuditEntries(10)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, ActionPCIFieldRemoved, last.Action)
	assert.Equal(t, "cvv", last.Details["field"])
	for _, e := range entries {
		for _, v := range e.Details {
			assert.NotEqual(t, "123", v, "raw prohibited values never appear in audit details")
		}
	}
}

func TestFilterRequestSCAGate(t *testing.T) {
	m := newTestManager(t)
	ctx := WithOperation(context.Background(), "initiate-payment")

	_, err := m.FilterRequest(ctx, "paystack", map[string]interface{}{"amount": float64(100)})
	assert.True(t, api.IsCode(err, api.CodeSCARequired))

	filtered, err := m.FilterRequest(ctx, "paystack", map[string]interface{}{
		"amount":     float64(100),
		"scaFactors": []interface{}{"password", "otp"},
	})
	require.NoError(t, err)
	assert.Equal(t, float64(100), filtered["amount"])
}

func TestFilterRequestConsentAndPseudonyms(t *testing.T) {
	m := newTestManager(t)

	_, err := m.FilterRequest(context.Background(), "sendgrid", map[string]interface{}{"email": "a@b.com"})
	assert.True(t, api.IsCode(err, api.CodeGDPRConsentRequired))

	filtered, err := m.FilterRequest(context.Background(), "sendgrid", map[string]interface{}{
		"email":     "a@b.com",
		"consentId": "c-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "a@b.com", filtered["email"], "identifiers are pseudonymized")
}

func TestFilterRequestAnalyticsMinimization(t *testing.T) {
	m := newTestManager(t)
	ctx := WithOperation(context.Background(), "usage-report")

	filtered, err := m.FilterRequest(ctx, "sendgrid", map[string]interface{}{
		"amount":    float64(10),
		"campaign":  "spring",
		"consentId": "c-1",
	})
	require.NoError(t, err)
	assert.Contains(t, filtered, "amount")
	assert.NotContains(t, filtered, "campaign", "analytics payloads shrink to the allow-list")
}

func TestFilterResponseMasksWithoutGates(t *testing.T) {
	m := newTestManager(t)

	// Responses are filtered even when the request-side gates would fire.
	filtered, err := m.FilterResponse(context.Background(), "paystack", map[string]interface{}{
		"cardNumber": "4111111111111111",
		"amount":     float64(1000),
	})
	require.NoError(t, err)
	assert.Equal(t, "411111******1111", filtered["cardNumber"])
	assert.Equal(t, float64(1000), filtered["amount"])
}

func TestFilterUnknownService(t *testing.T) {
	m := newTestManager(t)
	_, err := m.FilterRequest(context.Background(), "nope", nil)
	assert.True(t, api.IsCode(err, api.CodeServiceNotFound))
	_, err = m.FilterResponse(context.Background(), "nope", nil)
	assert.True(t, api.IsCode(err, api.CodeServiceNotFound))
}
