// Package metatools implements the five-meta-tool discovery layer.
//
// The gateway indexes thousands of adapter tools but exposes exactly five
// MCP tools: gateway.intent (natural-language search over the operation
// index), gateway.execute (policy-enforced dispatch by canonical tool ID),
// gateway.adapters (filtered adapter catalog), gateway.tools (paginated
// per-adapter tool listing), and gateway.reference (curated documentation
// for adapters, tools, and concepts).
//
// gateway.execute runs a fixed policy chain before any dispatch: tool ID
// format, resolution, the idempotency gate for high-risk operations, the
// confirmation gate for destructive names, schema validation of params, and
// the dry-run short circuit. A dry run never reaches the underlying adapter.
//
// The provider reaches the adapter and operation registries through the API
// layer's service locator and is registered there itself via Adapter.
package metatools
