// Package app bootstraps the gateway: environment configuration, catalog
// loading, construction of the adapter/operation/vendor/compliance
// registries, api handler registration, and the HTTP+MCP server lifecycle
// with graceful shutdown.
package app
