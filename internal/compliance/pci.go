package compliance

import (
	"strings"

	"toolgate/pkg/logging"
)

// recorder is the slice of the audit log the filters need.
type recorder interface {
	Record(action string, details map[string]interface{})
}

// ActionPCIFieldRemoved is the audit action for a prohibited-field deletion.
// Its details carry the field name only, never the removed value.
const ActionPCIFieldRemoved = "PCI_FIELD_REMOVED"

// MaskCardNumber keeps the first six and last four digits of a card number
// and replaces the middle with asterisks. Values shorter than 13 digits are
// returned unchanged.
func MaskCardNumber(value string) string {
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 13 || digits != len(value) {
		return value
	}
	return value[:6] + strings.Repeat("*", len(value)-10) + value[len(value)-4:]
}

// applyPCI walks a payload and enforces the PCI field rules: prohibited
// fields are deleted (with an audit entry naming the field, never the value),
// card-number fields are masked, and designated sensitive fields are
// encrypted. The walk recurses into nested objects and arrays. The payload
// is mutated in place.
func applyPCI(payload map[string]interface{}, cfg FieldConfig, enc *Encryptor, audit recorder) {
	prohibited := toSet(cfg.PCI.Prohibited)
	cards := toSet(cfg.PCI.CardFields)
	sensitive := toSet(cfg.PCI.Sensitive)

	var walk func(node map[string]interface{})
	walk = func(node map[string]interface{}) {
		for key, value := range node {
			lower := strings.ToLower(key)

			if prohibited[lower] {
				delete(node, key)
				if audit != nil {
					audit.Record(ActionPCIFieldRemoved, map[string]interface{}{"field": key})
				}
				continue
			}

			switch v := value.(type) {
			case string:
				if cards[lower] {
					node[key] = MaskCardNumber(v)
				} else if sensitive[lower] && enc != nil {
					sealed, err := enc.Encrypt(v)
					if err != nil {
						logging.Error("Compliance", err, "Failed to encrypt field %s, dropping it", key)
						delete(node, key)
						continue
					}
					node[key] = sealed
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

// toSet lowercases a field list into a membership set so matching is
// case-insensitive.
func toSet(fields []string) map[string]bool {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[strings.ToLower(f)] = true
	}
	return set
}
