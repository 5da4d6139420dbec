package compliance

import (
	"strings"

	"toolgate/internal/api"
)

// Audit actions for GDPR data handling.
const (
	ActionGDPRPseudonymized = "GDPR_FIELD_PSEUDONYMIZED"
	ActionGDPRMinimized     = "GDPR_PAYLOAD_MINIMIZED"
)

// checkConsent returns a GDPR_CONSENT_REQUIRED error when the payload
// carries any consent-requiring field without an accompanying consentId.
func checkConsent(payload map[string]interface{}, cfg FieldConfig) error {
	required := toSet(cfg.GDPR.ConsentRequired)

	var found []string
	for key := range payload {
		if required[strings.ToLower(key)] {
			found = append(found, key)
		}
	}
	if len(found) == 0 {
		return nil
	}

	if id, ok := payload["consentId"].(string); ok && id != "" {
		return nil
	}
	if id, ok := payload["consent_id"].(string); ok && id != "" {
		return nil
	}
	return api.NewGatewayError(api.CodeGDPRConsentRequired,
		"payload contains personal data (%s) but no consentId", strings.Join(found, ", "))
}

// applyGDPR pseudonymizes listed personal identifiers throughout the payload.
// The same input always maps to the same token, so correlation survives while
// the raw identifier does not.
func applyGDPR(payload map[string]interface{}, cfg FieldConfig, pseudo *Pseudonymizer, audit recorder) {
	if pseudo == nil {
		return
	}
	targets := toSet(cfg.GDPR.Pseudonymize)

	var walk func(node map[string]interface{})
	walk = func(node map[string]interface{}) {
		for key, value := range node {
			switch v := value.(type) {
			case string:
				if targets[strings.ToLower(key)] {
					node[key] = pseudo.Pseudonymize(v)
					if audit != nil {
						audit.Record(ActionGDPRPseudonymized, map[string]interface{}{"field": key})
					}
				}
			case map[string]interface{}:
				walk(v)
			case []interface{}:
				for _, item := range v {
					if child, ok := item.(map[string]interface{}); ok {
						walk(child)
					}
				}
			}
		}
	}
	walk(payload)
}

// minimizeForAnalytics strips an analytics payload down to the allow-list.
// Everything else is data the analytics consumer has no basis to hold.
func minimizeForAnalytics(payload map[string]interface{}, cfg FieldConfig, audit recorder) {
	allowed := toSet(cfg.GDPR.AnalyticsAllow)

	var dropped []string
	for key := range payload {
		if !allowed[strings.ToLower(key)] {
			delete(payload, key)
			dropped = append(dropped, key)
		}
	}
	if len(dropped) > 0 && audit != nil {
		audit.Record(ActionGDPRMinimized, map[string]interface{}{"dropped": dropped})
	}
}
