package metatools

import (
	"toolgate/internal/api"
	"toolgate/pkg/logging"
)

// Adapter connects the metatools package to the central API layer. It wraps
// the provider and handles registration, so the MCP server can reach the
// meta-tools through api.GetToolProvider().
type Adapter struct {
	provider *Provider
}

// NewAdapter creates a new metatools adapter instance.
func NewAdapter() *Adapter {
	return &Adapter{
		provider: NewProvider(),
	}
}

// Register registers the provider with the API layer. Called during
// application initialization after the adapter and operation registries are
// registered.
func (a *Adapter) Register() {
	api.RegisterToolProvider(a.provider)
	logging.Debug("MetaTools", "Provider registered with API layer")
}

// GetProvider returns the underlying metatools provider.
func (a *Adapter) GetProvider() *Provider {
	return a.provider
}
