package compliance

import (
	"testing"

	"toolgate/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRecorder captures audit calls without a running writer.
type fakeRecorder struct {
	actions []string
	details []map[string]interface{}
}

func (f *fakeRecorder) Record(action string, details map[string]interface{}) {
	f.actions = append(f.actions, action)
	f.details = append(f.details, details)
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "411111******1111", MaskCardNumber("4111111111111111"))
	assert.Equal(t, "371449*****8431", MaskCardNumber("371449635398431"), "15-digit numbers mask too")
	assert.Equal(t, "123456789012", MaskCardNumber("123456789012"), "below 13 digits stays unchanged")
	assert.Equal(t, "not-a-card", MaskCardNumber("not-a-card"))
}

func TestPCIRemovesProhibitedFieldsAndMasks(t *testing.T) {
	audit := &fakeRecorder{}
	payload := map[string]interface{}{
		"cardNumber": "4111111111111111",
		"cvv":        "123",
		"amount":     float64(500000),
	}

	applyPCI(payload, DefaultFieldConfig(), nil, audit)

	assert.Equal(t, "411111******1111", payload["cardNumber"])
	_, hasCVV := payload["cvv"]
	assert.False(t, hasCVV, "prohibited fields are deleted")
	assert.Equal(t, float64(500000), payload["amount"])

	require.Equal(t, []string{ActionPCIFieldRemoved}, audit.actions)
	assert.Equal(t, map[string]interface{}{"field": "cvv"}, audit.details[0], "audit names the field, never the value")
}

func TestPCIRecursesIntoNestedStructures(t *testing.T) {
	audit := &fakeRecorder{}
	payload := map[string]interface{}{
		"card": map[string]interface{}{
			"pan":  "4111111111111111",
			"cvc2": "999",
		},
		"items": []interface{}{
			map[string]interface{}{"track2": ";4111..."},
		},
	}

	applyPCI(payload, DefaultFieldConfig(), nil, audit)

	card := payload["card"].(map[string]interface{})
	assert.Equal(t, "411111******1111", card["pan"])
	_, hasCVC := card["cvc2"]
	assert.False(t, hasCVC)
	item := payload["items"].([]interface{})[0].(map[string]interface{})
	_, hasTrack := item["track2"]
	assert.False(t, hasTrack)
	assert.Len(t, audit.actions, 2)
}

func TestPCIEncryptsSensitiveFields(t *testing.T) {
	enc, err := NewEncryptor("passphrase-for-tests")
	require.NoError(t, err)

	payload := map[string]interface{}{"accountNumber": "0123456789"}
	applyPCI(payload, DefaultFieldConfig(), enc, nil)

	sealed := payload["accountNumber"].(string)
	assert.NotEqual(t, "0123456789", sealed)
	plain, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", plain)
}

func TestConsentGate(t *testing.T) {
	cfg := DefaultFieldConfig()

	err := checkConsent(map[string]interface{}{"email": "a@b.com"}, cfg)
	assert.True(t, api.IsCode(err, api.CodeGDPRConsentRequired))

	err = checkConsent(map[string]interface{}{"email": "a@b.com", "consentId": "c-1"}, cfg)
	assert.NoError(t, err)

	err = checkConsent(map[string]interface{}{"amount": float64(10)}, cfg)
	assert.NoError(t, err, "no personal data means no consent needed")
}

func TestPseudonymizationIsStable(t *testing.T) {
	pseudo, err := NewPseudonymizer("test-salt")
	require.NoError(t, err)

	a := map[string]interface{}{"email": "a@b.com", "amount": float64(1)}
	b := map[string]interface{}{"email": "a@b.com"}
	applyGDPR(a, DefaultFieldConfig(), pseudo, nil)
	applyGDPR(b, DefaultFieldConfig(), pseudo, nil)

	assert.NotEqual(t, "a@b.com", a["email"])
	assert.Equal(t, a["email"], b["email"], "same input maps to the same pseudonym")
	assert.Equal(t, float64(1), a["amount"], "non-identifiers untouched")
}

func TestAnalyticsMinimization(t *testing.T) {
	audit := &fakeRecorder{}
	payload := map[string]interface{}{
		"amount":   float64(100),
		"currency": "NGN",
		"email":    "a@b.com",
		"note":     "free text",
	}

	minimizeForAnalytics(payload, DefaultFieldConfig(), audit)

	assert.Equal(t, map[string]interface{}{"amount": float64(100), "currency": "NGN"}, payload)
	require.Equal(t, []string{ActionGDPRMinimized}, audit.actions)
	assert.ElementsMatch(t, []string{"email", "note"}, audit.details[0]["dropped"])
}

func TestSCAEnforcement(t *testing.T) {
	threshold := DefaultFieldConfig().PSD2.AmountThreshold

	err := checkSCA("initiate-payment", map[string]interface{}{"amount": float64(100)}, threshold)
	assert.True(t, api.IsCode(err, api.CodeSCARequired), "above threshold without factors")

	err = checkSCA("initiate-payment", map[string]interface{}{
		"amount":     float64(100),
		"scaFactors": []interface{}{"password", "otp"},
	}, threshold)
	assert.NoError(t, err, "two distinct factor categories satisfy SCA")

	err = checkSCA("initiate-payment", map[string]interface{}{
		"amount":     float64(100),
		"scaFactors": []interface{}{"password", "pin"},
	}, threshold)
	assert.True(t, api.IsCode(err, api.CodeSCARequired), "two knowledge factors are one category")

	err = checkSCA("initiate-payment", map[string]interface{}{"amount": float64(25)}, threshold)
	assert.NoError(t, err, "at or below threshold needs no SCA")

	err = checkSCA("list-banks", map[string]interface{}{"amount": float64(100)}, threshold)
	assert.NoError(t, err, "non-payment operations are exempt")

	err = checkSCA("transfer-funds", map[string]interface{}{
		"amount": float64(100),
		"authentication": map[string]interface{}{
			"factors": []interface{}{"fingerprint", "device"},
		},
	}, threshold)
	assert.NoError(t, err, "nested authentication.factors is accepted")
}
