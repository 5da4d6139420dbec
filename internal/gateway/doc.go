// Package gateway binds the HTTP and MCP surfaces to the core: the chi
// router with request-ID, recovery, CORS, rate-limit, and metrics
// middleware; the canonical {error, message, requestId, ts} error payload;
// the Prometheus registry fed by the event bus; and the MCP server exposing
// exactly the meta-tool provider's tools over streamable HTTP.
package gateway
