package strings

import (
	"strings"
)

// DefaultDescriptionMaxLen is the default maximum length for descriptions in
// formatted output. Shared across packages for consistent truncation.
const DefaultDescriptionMaxLen = 60

// MinTruncateLen is the minimum maxLen value for TruncateDescription.
// Values smaller than this would not leave room for content plus "...".
const MinTruncateLen = 4

// TruncateDescription truncates a string to maxLen characters and ensures
// single-line output. It replaces newlines with spaces, collapses repeated
// whitespace, and adds "..." when truncated.
//
// The function operates on runes rather than bytes so multi-byte characters
// are never split.
func TruncateDescription(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}

// Kebab converts a tool or operation name to its kebab-case form.
// Underscores and spaces become hyphens, camelCase boundaries are split,
// and the result is lowercased: "initializeTransaction" and
// "initialize_transaction" both become "initialize-transaction".
func Kebab(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	prevLower := false
	for _, r := range s {
		switch {
		case r == '_' || r == ' ' || r == '-':
			b.WriteByte('-')
			prevLower = false
		case r >= 'A' && r <= 'Z':
			if prevLower {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
			prevLower = false
		default:
			b.WriteRune(r)
			prevLower = r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
		}
	}

	// Collapse any doubled separators introduced by mixed input.
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// Snake converts a name to snake_case. It is the underscore twin of Kebab:
// Snake("initialize-transaction") == "initialize_transaction".
func Snake(s string) string {
	return strings.ReplaceAll(Kebab(s), "-", "_")
}
