// Package httpclient implements the universal outbound HTTP client used by
// every adapter.
//
// Each service gets one Client built from its descriptor. A request flows
// through a fixed pipeline:
//
//	circuit breaker -> auth injection -> retry loop -> event emission
//
// The circuit breaker (sony/gobreaker) opens after five consecutive terminal
// failures and short-circuits calls with CIRCUIT_OPEN until a half-open probe
// succeeds. Transport errors and 5xx responses count as failures; 4xx client
// errors do not.
//
// Retries use exponential backoff (cenkalti/backoff): transport errors and
// 5xx responses retry up to the configured attempt budget, and a 401 retries
// exactly once after a token refresh when the auth scheme supports one.
// Non-retryable failures surface immediately with upstream status and body
// preserved.
//
// Authentication schemes: none (per-call Authorization passes through),
// bearer (with optional refresh against the identity service), apikey
// (header or query), basic, hmac (signed method/path/body/timestamp), and
// oauth2 client credentials. Token refreshes are single-flighted per client
// and detached from caller contexts so a cancelled waiter never cancels a
// shared refresh.
//
// Every call emits request/response/error events on the bus in FIFO order
// per client; a short-circuited call emits nothing.
package httpclient
