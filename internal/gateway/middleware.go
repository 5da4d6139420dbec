package gateway

import (
	"net/http"
	"time"

	"toolgate/internal/api"
	"toolgate/pkg/logging"

	"github.com/google/uuid"
)

const (
	headerRequestID    = "X-Request-ID"
	headerAPIKey       = "X-API-Key"
	headerProjectScope = "X-Project-Scope"
	headerSessionID    = "X-Session-ID"
)

// requestIDMiddleware assigns a request ID when the caller did not send one
// and echoes it on the response.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.New().String()
			r.Header.Set(headerRequestID, id)
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r)
	})
}

// callContextMiddleware lifts the propagated headers into the structured
// call context so the MCP handlers and tool dispatch see them. Missing
// values are never synthesized (the request ID was already assigned).
func callContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := api.CallContext{
			Authorization: r.Header.Get("Authorization"),
			APIKey:        r.Header.Get(headerAPIKey),
			ProjectScope:  r.Header.Get(headerProjectScope),
			RequestID:     r.Header.Get(headerRequestID),
			SessionID:     r.Header.Get(headerSessionID),
		}
		next.ServeHTTP(w, r.WithContext(api.WithCallContext(r.Context(), call)))
	})
}

// recoveryMiddleware converts handler panics into the canonical 500 payload
// instead of dropping the connection.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Error("Gateway", nil, "Panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				writeCode(w, r, api.CodeExecutionError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(recorder, r)
			metrics.ObserveHTTP(r.Method, routePattern(r), recorder.status, time.Since(start))
		})
	}
}
