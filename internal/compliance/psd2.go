package compliance

import (
	"regexp"
	"strings"

	"toolgate/internal/api"
)

// scaOperationRe matches operation names that move money or expose account
// data and therefore fall under strong customer authentication rules.
var scaOperationRe = regexp.MustCompile(`payment|transfer|payout|disburse|charge|account`)

// factorCategories maps declared authentication factors onto the three SCA
// categories. Two factors from the same category do not satisfy SCA.
var factorCategories = map[string]string{
	"password":    "knowledge",
	"pin":         "knowledge",
	"secret":      "knowledge",
	"otp":         "possession",
	"sms":         "possession",
	"token":       "possession",
	"device":      "possession",
	"card":        "possession",
	"app":         "possession",
	"biometric":   "inherence",
	"fingerprint": "inherence",
	"face":        "inherence",
	"voice":       "inherence",
}

// checkSCA enforces strong customer authentication: payment, transfer, and
// account-access operations above the amount threshold require at least two
// authentication factors from distinct categories.
func checkSCA(operation string, payload map[string]interface{}, threshold float64) error {
	if !scaOperationRe.MatchString(strings.ToLower(operation)) {
		return nil
	}

	amount, ok := numericField(payload, "amount")
	if !ok || amount <= threshold {
		return nil
	}

	categories := make(map[string]bool)
	for _, factor := range declaredFactors(payload) {
		if cat, known := factorCategories[strings.ToLower(factor)]; known {
			categories[cat] = true
		}
	}
	if len(categories) >= 2 {
		return nil
	}
	return api.NewGatewayError(api.CodeSCARequired,
		"amount %.2f exceeds the SCA threshold %.2f and fewer than two distinct authentication factors were provided", amount, threshold)
}

// declaredFactors extracts the authentication factors a caller presented,
// either as a top-level scaFactors list or nested under authentication.
func declaredFactors(payload map[string]interface{}) []string {
	raw, ok := payload["scaFactors"]
	if !ok {
		if auth, isMap := payload["authentication"].(map[string]interface{}); isMap {
			raw = auth["factors"]
		}
	}

	var factors []string
	switch v := raw.(type) {
	case []string:
		factors = v
	case []interface{}:
		for _, item := range v {
			if s, isString := item.(string); isString {
				factors = append(factors, s)
			}
		}
	}
	return factors
}

func numericField(payload map[string]interface{}, key string) (float64, bool) {
	switch v := payload[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
