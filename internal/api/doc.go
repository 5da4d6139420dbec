// Package api is the central service locator for toolgate's subsystems.
//
// Every subsystem (adapter registry, operation registry, compliance pipeline,
// vendor abstraction, service proxy) registers a handler implementation here
// during bootstrap. Consumers retrieve handlers through the matching Get*
// accessor instead of importing the implementing package, which keeps the
// dependency graph acyclic: implementation packages import api, never each
// other.
//
// The package also owns the shared vocabulary of the system: tool and
// operation records, the call context bag, compliance results, audit entries,
// and the typed GatewayError carrying the stable error codes surfaced on the
// HTTP and MCP surfaces.
//
// Registration happens once during startup and is replaced wholesale in
// tests; all locator access is guarded by a single RWMutex.
package api
