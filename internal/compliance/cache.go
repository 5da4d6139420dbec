package compliance

import (
	"sync"

	"toolgate/internal/api"
)

// resultCache holds the last validation result per service. Advisory only:
// authoritative validation runs on demand.
type resultCache struct {
	mu      sync.RWMutex
	results map[string]api.ComplianceResult
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[string]api.ComplianceResult)}
}

func (c *resultCache) put(service string, result api.ComplianceResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[service] = result
}

func (c *resultCache) get(service string) (api.ComplianceResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.results[service]
	return result, ok
}
