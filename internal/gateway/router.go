package gateway

import (
	"io"
	"net/http"
	"time"

	"toolgate/internal/api"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterConfig carries the HTTP surface knobs.
type RouterConfig struct {
	AllowedOrigins []string
	// RateLimit is requests per window per remote address; zero disables
	// limiting.
	RateLimit  int
	RateWindow time.Duration
	Version    string
}

// NewRouter builds the chi mux for the REST surface and mounts the MCP
// handler when one is provided. Handlers resolve their dependencies through
// the api locator at request time.
func NewRouter(cfg RouterConfig, metrics *Metrics, mcpHandler http.Handler) http.Handler {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(metricsMiddleware(metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", headerRequestID, headerAPIKey, headerProjectScope, headerSessionID},
		MaxAge:         300,
	}))
	if cfg.RateLimit > 0 {
		window := cfg.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		r.Use(httprate.Limit(cfg.RateLimit, window,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				writeCode(w, req, api.CodeRateLimited, "rate limit exceeded")
			}),
		))
	}

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		services := 0
		if proxy := api.GetServiceProxy(); proxy != nil {
			services = proxy.ServiceCount()
		}
		body := map[string]interface{}{
			"status":   "ok",
			"version":  cfg.Version,
			"ts":       time.Now().UTC(),
			"services": services,
			"uptime":   time.Since(started).Round(time.Second).String(),
		}
		if adapters := api.GetAdapterRegistry(); adapters != nil {
			body["adapters"] = adapters.Stats()
		}
		writeJSON(w, http.StatusOK, body)
	})

	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		proxy := api.GetServiceProxy()
		if proxy == nil || proxy.ServiceCount() == 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{"ready": false})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"ready": true})
	})

	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/", listServices)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", getService)
			r.Post("/activate", setServiceActive(true))
			r.Post("/deactivate", setServiceActive(false))
			r.HandleFunc("/*", proxyService)
		})
	})

	r.Post("/api/webhooks/{name}", handleWebhook)

	if mcpHandler != nil {
		r.Handle("/mcp", callContextMiddleware(mcpHandler))
		r.Handle("/mcp/*", callContextMiddleware(mcpHandler))
	}

	return r
}

func listServices(w http.ResponseWriter, r *http.Request) {
	proxy := api.GetServiceProxy()
	if proxy == nil {
		writeCode(w, r, api.CodeServiceNotFound, "service proxy is not running")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": proxy.ListServices()})
}

func getService(w http.ResponseWriter, r *http.Request) {
	proxy := api.GetServiceProxy()
	if proxy == nil {
		writeCode(w, r, api.CodeServiceNotFound, "service proxy is not running")
		return
	}
	descriptor, err := proxy.GetService(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, descriptor)
}

func setServiceActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		proxy := api.GetServiceProxy()
		if proxy == nil {
			writeCode(w, r, api.CodeServiceNotFound, "service proxy is not running")
			return
		}
		name := chi.URLParam(r, "name")
		if err := proxy.SetServiceActive(name, active); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"service": name, "active": active})
	}
}

// proxyService forwards any method to the named service's matching endpoint,
// with the compliance filters applied around the upstream call. Upstream
// status and body are preserved.
func proxyService(w http.ResponseWriter, r *http.Request) {
	proxy := api.GetServiceProxy()
	if proxy == nil {
		writeCode(w, r, api.CodeServiceNotFound, "service proxy is not running")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeCode(w, r, api.CodeInvalidParams, "failed to read request body")
		return
	}

	name := chi.URLParam(r, "name")
	rest := chi.URLParam(r, "*")
	resp, err := proxy.ProxyRequest(r.Context(), name, r.Method, "/"+rest, flattenHeaders(r.Header), body)
	if err != nil {
		writeError(w, r, err)
		return
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func handleWebhook(w http.ResponseWriter, r *http.Request) {
	proxy := api.GetServiceProxy()
	if proxy == nil {
		writeCode(w, r, api.CodeServiceNotFound, "service proxy is not running")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeCode(w, r, api.CodeInvalidParams, "failed to read webhook payload")
		return
	}

	resp, err := proxy.HandleWebhook(r.Context(), chi.URLParam(r, "name"), flattenHeaders(r.Header), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(resp.Status)
	_, _ = w.Write(resp.Body)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if len(values) > 0 {
			out[key] = values[0]
		}
	}
	return out
}
