package gateway

import (
	"net/http"
	"strconv"
	"time"

	"toolgate/internal/events"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the gateway's Prometheus registry: HTTP surface metrics fed
// by middleware plus outbound/compliance metrics fed from the event bus.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	outboundEvents *prometheus.CounterVec
	breakerOpens   *prometheus.CounterVec
	auditEntries   prometheus.Counter
	violations     *prometheus.CounterVec
}

// NewMetrics builds the metric set on a private registry so tests can run
// side by side.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toolgate",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		outboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "outbound_events_total",
			Help:      "Outbound client events by service and kind.",
		}, []string{"service", "kind"}),
		breakerOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "circuit_breaker_opens_total",
			Help:      "Circuit breaker OPEN transitions by service.",
		}, []string{"service"}),
		auditEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "audit_entries_total",
			Help:      "Audit entries appended.",
		}),
		violations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toolgate",
			Name:      "compliance_violations_total",
			Help:      "Compliance filter rejections by service.",
		}, []string{"service"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.outboundEvents,
		m.breakerOpens,
		m.auditEntries,
		m.violations,
	)
	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one handled request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Observe consumes bus events until the subscription closes. Run as a
// goroutine; close the subscription to stop it.
func (m *Metrics) Observe(sub *events.Subscription) {
	for e := range sub.C {
		switch e.Type {
		case events.TypeRequest, events.TypeResponse, events.TypeError:
			m.outboundEvents.WithLabelValues(e.Service, string(e.Type)).Inc()
		case events.TypeCircuitBreakerOpen:
			m.breakerOpens.WithLabelValues(e.Service).Inc()
		case events.TypeAuditLogged:
			m.auditEntries.Inc()
		case events.TypeComplianceViolation:
			m.violations.WithLabelValues(e.Service).Inc()
		}
	}
}

// routePattern returns the chi route pattern that matched, keeping metric
// cardinality bounded regardless of path parameters.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
