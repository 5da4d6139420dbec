package events

import (
	"time"
)

// Type identifies the kind of an event on the bus.
type Type string

const (
	// TypeRequest is emitted immediately before an outbound call is
	// dispatched by an HTTP client.
	TypeRequest Type = "request"

	// TypeResponse is emitted after a successful outbound call.
	TypeResponse Type = "response"

	// TypeError is emitted after a failed outbound call or a surfaced
	// gateway error.
	TypeError Type = "error"

	// TypeCircuitBreakerOpen is emitted when a client's circuit breaker
	// transitions to OPEN.
	TypeCircuitBreakerOpen Type = "circuit-breaker-open"

	// TypeAuditLogged is emitted after an audit entry has been appended.
	TypeAuditLogged Type = "audit:logged"

	// TypeComplianceViolation is emitted when a compliance filter rejects a
	// payload.
	TypeComplianceViolation Type = "compliance:violation"
)

// Event is one observable boundary crossing. Service names the originating
// client or subsystem; Fields carries the event-specific payload.
type Event struct {
	Type      Type                   `json:"type"`
	Service   string                 `json:"service"`
	Timestamp time.Time              `json:"ts"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}
