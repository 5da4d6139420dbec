package httpclient

import (
	"errors"
	"sync/atomic"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/events"
	"toolgate/pkg/logging"

	"github.com/sony/gobreaker"
)

// breakerFailureThreshold is the consecutive-failure count that opens the
// circuit.
const breakerFailureThreshold = 5

// defaultBreakerTimeout is how long an OPEN circuit waits before allowing a
// half-open probe.
const defaultBreakerTimeout = 60 * time.Second

// breaker is the per-client circuit breaker. It wraps sony/gobreaker with the
// gateway's failure classification: transport errors and 5xx responses count
// toward the trip threshold, 4xx client errors do not.
type breaker struct {
	cb       *gobreaker.CircuitBreaker
	service  string
	bus      *events.Bus
	failures atomic.Uint32
}

func newBreaker(service string, timeout time.Duration, bus *events.Bus) *breaker {
	if timeout <= 0 {
		timeout = defaultBreakerTimeout
	}

	b := &breaker{
		service: service,
		bus:     bus,
	}

	b.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: service,
		// A single probe is admitted while half-open.
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			b.failures.Store(counts.ConsecutiveFailures)
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return !countsAsBreakerFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info("HTTPClient", "Circuit breaker for %s: %s -> %s", name, from, to)
			if to == gobreaker.StateOpen && bus != nil {
				bus.Publish(events.Event{
					Type:    events.TypeCircuitBreakerOpen,
					Service: service,
					Fields: map[string]interface{}{
						"failures": int(b.failures.Load()),
					},
				})
			}
		},
	})

	return b
}

// execute runs fn through the breaker. When the circuit is open (or the
// half-open probe slot is taken) it returns a CIRCUIT_OPEN error without
// invoking fn.
func (b *breaker) execute(fn func() (*Response, error)) (*Response, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, api.NewGatewayError(api.CodeCircuitOpen, "circuit breaker open for %s", b.service)
		}
		return nil, err
	}

	resp, _ := result.(*Response)
	return resp, nil
}

// state returns the breaker state as the wire-facing CLOSED/OPEN/HALF_OPEN names.
func (b *breaker) state() string {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return "OPEN"
	case gobreaker.StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "CLOSED"
	}
}

// consecutiveFailures returns the current consecutive failure count.
func (b *breaker) consecutiveFailures() uint32 {
	return b.cb.Counts().ConsecutiveFailures
}

// countsAsBreakerFailure classifies an error for breaker accounting.
// Upstream 4xx responses are the caller's problem, not upstream health, so
// they never trip the circuit.
func countsAsBreakerFailure(err error) bool {
	if err == nil {
		return false
	}
	if ge, ok := api.AsGatewayError(err); ok {
		switch ge.Code {
		case api.CodeUpstream4xx, api.CodeAuthFailed, api.CodeRateLimited:
			return false
		}
		if ge.Status >= 400 && ge.Status < 500 {
			return false
		}
	}
	return true
}
