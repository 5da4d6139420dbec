// Package adapter owns the set of live adapters and the tool index over
// them.
//
// Every declared tool is indexed under its canonical ID
// ("<adapter>:<kebab-tool>"), its verbatim ID, and its snake_case alias, so
// initialize_transaction and initialize-transaction resolve to the same
// binding. Duplicate canonical IDs across adapters are rejected at
// registration.
//
// Three adapter kinds exist: HTTPAdapter (a catalog descriptor plus the
// universal HTTP client, one tool per endpoint), wrapped legacy adapters
// (single-argument {data, headers} convention), and mock adapters
// (discoverable placeholders that refuse execution with MOCK_ADAPTER).
//
// Dispatch translates the call context bag into HTTP-style headers
// (Authorization, X-API-Key, X-Project-Scope, X-Request-ID, X-Session-ID)
// before the adapter call. Each adapter tracks {calls, errors, lastCall},
// aggregated by the registry for readiness reporting.
package adapter
