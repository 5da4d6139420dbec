package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/events"
	"toolgate/pkg/logging"

	"github.com/cenkalti/backoff/v4"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 500 * time.Millisecond

	// maxResponseBody bounds how much of an upstream body is buffered.
	maxResponseBody = 10 << 20
)

// Config is the construction config for a Client.
type Config struct {
	Name          string
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	Auth          catalog.AuthConfig
}

// ConfigFromDescriptor derives a client config from a service descriptor,
// applying the gateway defaults for unset values.
func ConfigFromDescriptor(desc catalog.ServiceDescriptor) Config {
	cfg := Config{
		Name:          desc.Name,
		BaseURL:       desc.BaseURL,
		Timeout:       defaultTimeout,
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
		Auth:          desc.Authentication,
	}
	if desc.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(desc.TimeoutSeconds) * time.Second
	}
	if desc.RetryAttempts > 0 {
		cfg.RetryAttempts = desc.RetryAttempts
	}
	if desc.RetryDelayMs > 0 {
		cfg.RetryDelay = time.Duration(desc.RetryDelayMs) * time.Millisecond
	}
	return cfg
}

// RequestSpec identifies what to call.
type RequestSpec struct {
	Method string
	Path   string
}

// RequestOptions carries the per-call payload.
type RequestOptions struct {
	// Data is JSON-marshaled into the request body when non-nil.
	Data interface{}
	// Params become query parameters.
	Params map[string]string
	// Headers are set verbatim before auth injection. With auth type "none"
	// a caller-supplied Authorization header passes through unchanged.
	Headers map[string]string
}

// Response is a buffered upstream response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// JSONMap decodes the body into a generic map, returning an empty map for
// empty bodies.
func (r *Response) JSONMap() (map[string]interface{}, error) {
	if len(r.Body) == 0 {
		return map[string]interface{}{}, nil
	}
	out := make(map[string]interface{})
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// HealthResult is the outcome of a health check.
type HealthResult struct {
	Healthy bool                   `json:"healthy"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

// Client is the universal outbound HTTP client used by every adapter. One
// client per service; it owns the service's auth state and circuit breaker.
// Clients are safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	bus     *events.Bus
	auth    injector
	breaker *breaker

	ops map[string]catalog.Endpoint
}

// Option customizes client construction.
type Option func(*options)

type options struct {
	httpClient     *http.Client
	breakerTimeout time.Duration
}

// WithHTTPClient substitutes the underlying *http.Client (tests, custom
// transports).
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// WithBreakerTimeout overrides the 60s OPEN->HALF_OPEN window.
func WithBreakerTimeout(d time.Duration) Option {
	return func(o *options) { o.breakerTimeout = d }
}

// New creates a client for a service. bus may be nil (no event emission).
func New(cfg Config, bus *events.Bus, opts ...Option) (*Client, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("client config has no name")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("client %s has invalid base URL %q", cfg.Name, cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = defaultRetryAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	auth, err := newInjector(cfg.Name, cfg.Auth, httpClient)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		bus:     bus,
		auth:    auth,
		breaker: newBreaker(cfg.Name, o.breakerTimeout, bus),
		ops:     make(map[string]catalog.Endpoint),
	}, nil
}

// Name returns the service name this client belongs to.
func (c *Client) Name() string {
	return c.cfg.Name
}

// BreakerState returns CLOSED, OPEN, or HALF_OPEN.
func (c *Client) BreakerState() string {
	return c.breaker.state()
}

// Failures returns the breaker's current consecutive failure count.
func (c *Client) Failures() uint32 {
	return c.breaker.consecutiveFailures()
}

// Request issues one outbound call through the full pipeline: circuit
// breaker, auth injection, retry with exponential backoff, and event
// emission. The request/response/error events for a call are emitted in FIFO
// order; a short-circuited call (circuit open) emits nothing.
func (c *Client) Request(ctx context.Context, spec RequestSpec, opts RequestOptions) (*Response, error) {
	return c.breaker.execute(func() (*Response, error) {
		fullURL := c.buildURL(spec.Path, opts.Params)

		c.emit(events.TypeRequest, map[string]interface{}{
			"method": spec.Method,
			"url":    fullURL,
		})

		resp, err := c.requestWithRetry(ctx, spec.Method, fullURL, opts)
		if err != nil {
			fields := map[string]interface{}{
				"type":    api.ErrorCode(err),
				"message": err.Error(),
			}
			if ge, ok := api.AsGatewayError(err); ok && ge.Status != 0 {
				fields["status"] = ge.Status
			}
			c.emit(events.TypeError, fields)
			return nil, err
		}

		c.emit(events.TypeResponse, map[string]interface{}{
			"status": resp.Status,
		})
		return resp, nil
	})
}

// requestWithRetry runs the retry loop: transport errors and 5xx responses
// retry with exponential backoff (retryDelay * 2^(attempt-1)); a 401 retries
// exactly once after a token refresh when the auth scheme supports it; other
// failures surface immediately.
func (c *Client) requestWithRetry(ctx context.Context, method, fullURL string, opts RequestOptions) (*Response, error) {
	var body []byte
	if opts.Data != nil {
		var err error
		body, err = json.Marshal(opts.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	refreshed := false
	permanent := false
	fail := func(err error) (*Response, error) {
		permanent = true
		return nil, backoff.Permanent(err)
	}

	attempt := func() (*Response, error) {
		resp, err := c.doOnce(ctx, method, fullURL, body, opts.Headers)
		if err != nil {
			// Transport-level failure: retryable unless the caller is gone.
			if ctx.Err() != nil {
				return fail(api.NewGatewayError(api.CodeTimeout, "request to %s cancelled: %v", c.cfg.Name, ctx.Err()))
			}
			return nil, api.NewGatewayError(api.CodeExecutionError, "request to %s failed: %v", c.cfg.Name, err)
		}

		switch {
		case resp.Status >= 500:
			return nil, api.NewGatewayError(api.CodeUpstream5xx, "%s returned %d", c.cfg.Name, resp.Status).
				WithStatus(resp.Status).
				WithDetail("body", truncateForDetail(resp.Body))
		case resp.Status == http.StatusUnauthorized:
			if r, ok := c.auth.(refresher); ok && !refreshed {
				refreshed = true
				if err := r.forceRefresh(ctx); err != nil {
					return fail(err)
				}
				logging.Debug("HTTPClient", "Retrying %s after 401 token refresh", c.cfg.Name)
				return nil, api.NewGatewayError(api.CodeAuthFailed, "%s returned 401, retrying after refresh", c.cfg.Name).WithStatus(resp.Status)
			}
			return fail(upstream4xxError(c.cfg.Name, resp))
		case resp.Status >= 400:
			return fail(upstream4xxError(c.cfg.Name, resp))
		}
		return resp, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.RetryDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0

	resp, err := backoff.RetryWithData(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, uint64(c.cfg.RetryAttempts-1)), ctx))
	if err != nil {
		if !permanent {
			return nil, api.NewGatewayError(api.CodeRetryExhausted, "retries exhausted for %s: %v", c.cfg.Name, err).
				WithStatus(statusOf(err)).
				WithDetail("cause", api.ErrorCode(err))
		}
		return nil, err
	}
	return resp, nil
}

// doOnce performs a single HTTP exchange.
func (c *Client) doOnce(ctx context.Context, method, fullURL string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if err := c.auth.inject(ctx, req, body); err != nil {
		return nil, err
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBody))
	if err != nil {
		return nil, err
	}

	return &Response{
		Status: httpResp.StatusCode,
		Header: httpResp.Header,
		Body:   respBody,
	}, nil
}

// HealthCheck probes the service. An endpoint named "health" is used when
// bound; otherwise the base URL itself is probed.
func (c *Client) HealthCheck(ctx context.Context) HealthResult {
	spec := RequestSpec{Method: http.MethodGet, Path: "/"}
	if ep, ok := c.ops["health"]; ok {
		spec = RequestSpec{Method: ep.Method, Path: ep.Path}
	}

	resp, err := c.Request(ctx, spec, RequestOptions{})
	if err != nil {
		return HealthResult{Healthy: false, Error: err.Error()}
	}

	data, jsonErr := resp.JSONMap()
	if jsonErr != nil {
		data = map[string]interface{}{"status": resp.Status}
	}
	return HealthResult{Healthy: true, Data: data}
}

// BindEndpoints synthesizes named operations from endpoint descriptors.
// Bound operations are invoked by name through Call, with {placeholder} path
// segments filled from arguments.
func (c *Client) BindEndpoints(endpoints []catalog.Endpoint) {
	for _, ep := range endpoints {
		c.ops[ep.Name] = ep
	}
	logging.Debug("HTTPClient", "Bound %d endpoints for %s", len(endpoints), c.cfg.Name)
}

// Endpoint returns a bound endpoint by name.
func (c *Client) Endpoint(name string) (catalog.Endpoint, bool) {
	ep, ok := c.ops[name]
	return ep, ok
}

// Endpoints returns all bound endpoints.
func (c *Client) Endpoints() []catalog.Endpoint {
	out := make([]catalog.Endpoint, 0, len(c.ops))
	for _, ep := range c.ops {
		out = append(out, ep)
	}
	return out
}

// Call invokes a bound operation by name. Path placeholders are consumed
// from args; the remainder becomes query parameters for GET/DELETE and the
// JSON body otherwise.
func (c *Client) Call(ctx context.Context, name string, args map[string]interface{}, headers map[string]string) (*Response, error) {
	ep, ok := c.ops[name]
	if !ok {
		return nil, api.NewGatewayError(api.CodeToolNotFound, "client %s has no operation %q", c.cfg.Name, name)
	}

	path, remaining := bindPath(ep.Path, args)

	opts := RequestOptions{Headers: headers}
	if ep.Method == http.MethodGet || ep.Method == http.MethodDelete {
		params := make(map[string]string, len(remaining))
		for k, v := range remaining {
			params[k] = fmt.Sprintf("%v", v)
		}
		opts.Params = params
	} else if len(remaining) > 0 {
		opts.Data = remaining
	}

	return c.Request(ctx, RequestSpec{Method: ep.Method, Path: path}, opts)
}

// bindPath substitutes {placeholder} segments from args, returning the bound
// path and the args that were not consumed.
func bindPath(path string, args map[string]interface{}) (string, map[string]interface{}) {
	remaining := make(map[string]interface{}, len(args))
	for k, v := range args {
		remaining[k] = v
	}

	for k, v := range args {
		placeholder := "{" + k + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(fmt.Sprintf("%v", v)))
			delete(remaining, k)
		}
	}
	return path, remaining
}

func (c *Client) buildURL(path string, params map[string]string) string {
	base := strings.TrimSuffix(c.cfg.BaseURL, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	full := base + path

	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + values.Encode()
	}
	return full
}

func (c *Client) emit(t events.Type, fields map[string]interface{}) {
	if c.bus == nil {
		return
	}
	c.bus.Publish(events.Event{
		Type:    t,
		Service: c.cfg.Name,
		Fields:  fields,
	})
}

// upstream4xxError surfaces a 4xx unchanged, preserving status and body.
func upstream4xxError(service string, resp *Response) *api.GatewayError {
	return api.NewGatewayError(api.CodeUpstream4xx, "%s returned %d", service, resp.Status).
		WithStatus(resp.Status).
		WithDetail("body", truncateForDetail(resp.Body))
}

func statusOf(err error) int {
	if ge, ok := api.AsGatewayError(err); ok {
		return ge.Status
	}
	return 0
}

func truncateForDetail(body []byte) string {
	const max = 2048
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
