package operation

import (
	"fmt"
	"sort"
	"strings"

	"toolgate/internal/api"
	pkgstrings "toolgate/pkg/strings"
)

const defaultSearchLimit = 3

// Search scores every indexed operation against the query and returns up to
// limit results, best first. adapter narrows the search to one adapter when
// non-empty. Ties are broken by adapter alphabetical order, then tool ID.
func (r *Registry) Search(query string, adapter string, sc api.SearchContext, limit int) []api.SearchResult {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]api.SearchResult, 0, limit)
	for _, op := range r.ops {
		if adapter != "" && op.Adapter != adapter {
			continue
		}
		confidence, why := r.score(op, query, queryTokens, sc)
		if confidence <= 0 {
			continue
		}
		results = append(results, api.SearchResult{
			Operation:  op,
			Confidence: confidence,
			Why:        why,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		if results[i].Operation.Adapter != results[j].Operation.Adapter {
			return results[i].Operation.Adapter < results[j].Operation.Adapter
		}
		return results[i].Operation.ToolID < results[j].Operation.ToolID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// score computes a confidence in [0,1] and a short explanation. Callers hold
// the read lock.
func (r *Registry) score(op api.Operation, query string, queryTokens []string, sc api.SearchContext) (float64, string) {
	doc := docTokens(op)

	matched := make([]string, 0, len(queryTokens))
	for _, token := range queryTokens {
		if _, ok := doc[token]; ok {
			matched = append(matched, token)
		}
	}

	var reasons []string
	score := 0.6 * float64(len(matched)) / float64(len(queryTokens))
	if len(matched) > 0 {
		reasons = append(reasons, fmt.Sprintf("matches %s", strings.Join(matched, ", ")))
	}

	if pkgstrings.Kebab(query) == pkgstrings.Kebab(op.Name) {
		score += 0.25
		reasons = append(reasons, "exact tool name")
	}

	for _, token := range queryTokens {
		if token == strings.ToLower(op.Adapter) {
			score += 0.15
			reasons = append(reasons, "adapter name "+op.Adapter)
			break
		}
	}

	if hint := r.contextBonus(op, sc); hint != "" {
		score += 0.1
		reasons = append(reasons, hint)
	}

	if score > 1 {
		score = 1
	}
	return score, strings.Join(reasons, "; ")
}

// contextBonus reports the first context hint the operation's adapter
// satisfies, or "".
func (r *Registry) contextBonus(op api.Operation, sc api.SearchContext) string {
	summary, ok := r.adapters[op.Adapter]
	if !ok {
		return ""
	}

	if sc.Capability != "" && containsFold(summary.Capabilities, sc.Capability) {
		return "capability " + sc.Capability
	}
	if sc.Country != "" && containsFold(summary.SupportedCountries, sc.Country) {
		return "supports " + strings.ToUpper(sc.Country)
	}
	if sc.Currency != "" && containsFold(summary.SupportedCurrencies, sc.Currency) {
		return "supports " + strings.ToUpper(sc.Currency)
	}
	return ""
}

// docTokens is the token set an operation is searched under: name,
// description, tags, category, and the adapter ID.
func docTokens(op api.Operation) map[string]struct{} {
	doc := make(map[string]struct{})
	// Kebab the name first so camelCase tools still split into words.
	for _, source := range []string{pkgstrings.Kebab(op.Name), op.Description, op.Category, op.Adapter} {
		for _, token := range tokenize(source) {
			doc[token] = struct{}{}
		}
	}
	for _, tag := range op.Tags {
		for _, token := range tokenize(tag) {
			doc[token] = struct{}{}
		}
	}
	return doc
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
