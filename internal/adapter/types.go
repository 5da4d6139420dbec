package adapter

import (
	"context"
	"sync"
	"time"

	"toolgate/internal/api"
)

// Adapter is one integration with an external service. Implementations must
// be safe for concurrent use; CallTool is invoked from many requests at once.
type Adapter interface {
	// ID returns the stable adapter identifier used as the tool ID prefix.
	ID() string

	// Name returns the human-readable adapter name.
	Name() string

	// Description returns a short description of what the adapter integrates.
	Description() string

	// Category returns the adapter category (payments, banking, ...).
	Category() string

	// Capabilities returns the declared capability strings.
	Capabilities() []string

	// Tools returns the declared tools. Mock adapters synthesize
	// placeholders.
	Tools() []api.Tool

	// Initialize prepares the adapter for dispatch. It must be idempotent;
	// the registry calls it on registration.
	Initialize(ctx context.Context) error

	// CallTool dispatches one tool call. tool is the adapter-local tool name
	// (no adapter prefix).
	CallTool(ctx context.Context, tool string, args map[string]interface{}, call api.CallContext) (*api.CallToolResult, error)

	// Stats returns the adapter's call accounting.
	Stats() api.AdapterStats
}

// Metadata carries the optional catalog attributes an adapter can declare
// beyond the Adapter interface.
type Metadata struct {
	AuthType            string
	SupportedCountries  []string
	SupportedCurrencies []string
}

// metadataProvider is implemented by adapters that declare extended catalog
// metadata.
type metadataProvider interface {
	Metadata() Metadata
}

// statsTracker is the shared call accounting embedded by adapter
// implementations.
type statsTracker struct {
	mu       sync.Mutex
	calls    int64
	errors   int64
	lastCall time.Time
}

func (s *statsTracker) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err != nil {
		s.errors++
	}
	s.lastCall = time.Now()
}

func (s *statsTracker) Stats() api.AdapterStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return api.AdapterStats{
		Calls:    s.calls,
		Errors:   s.errors,
		LastCall: s.lastCall,
	}
}
