package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"toolgate/internal/api"
	"toolgate/internal/catalog"
	"toolgate/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(name, baseURL string) Config {
	return Config{
		Name:          name,
		BaseURL:       baseURL,
		Timeout:       5 * time.Second,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	}
}

func drain(sub *events.Subscription) []events.Event {
	var out []events.Event
	for {
		select {
		case e := <-sub.C:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestRequestSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": true}`))
	}))
	defer srv.Close()

	bus := events.NewBus()
	sub := bus.Subscribe(16)
	defer sub.Close()

	client, err := New(testConfig("paystack", srv.URL), bus)
	require.NoError(t, err)

	resp, err := client.Request(context.Background(), RequestSpec{Method: http.MethodPost, Path: "/transaction/initialize"}, RequestOptions{
		Data: map[string]interface{}{"amount": 500000},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	data, err := resp.JSONMap()
	require.NoError(t, err)
	assert.Equal(t, true, data["status"])

	evs := drain(sub)
	require.Len(t, evs, 2)
	assert.Equal(t, events.TypeRequest, evs[0].Type)
	assert.Equal(t, events.TypeResponse, evs[1].Type)
	assert.Equal(t, "paystack", evs[0].Service)
}

func TestRetryOn5xxThenSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testConfig("svc", srv.URL)
	cfg.RetryAttempts = 3
	client, err := New(cfg, nil)
	require.NoError(t, err)

	resp, err := client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, int32(3), hits.Load())
}

func TestRetryExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig("svc", srv.URL)
	cfg.RetryAttempts = 3
	client, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeRetryExhausted), "got %v", err)
	assert.Equal(t, int32(3), hits.Load())

	ge, _ := api.AsGatewayError(err)
	assert.Equal(t, http.StatusBadGateway, ge.Status)
}

func TestNoRetryOn4xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad amount"}`))
	}))
	defer srv.Close()

	cfg := testConfig("svc", srv.URL)
	cfg.RetryAttempts = 3
	client, err := New(cfg, nil)
	require.NoError(t, err)

	_, err = client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeUpstream4xx))
	assert.Equal(t, int32(1), hits.Load(), "4xx must not retry")

	ge, _ := api.AsGatewayError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, ge.Status)
	assert.Contains(t, ge.Details["body"], "bad amount", "upstream body is preserved")
}

func TestCircuitBreakerOpensAfterFiveFailures(t *testing.T) {
	var hits atomic.Int32
	healthy := atomic.Bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bus := events.NewBus()
	sub := bus.Subscribe(64)
	defer sub.Close()

	client, err := New(testConfig("flaky", srv.URL), bus, WithBreakerTimeout(50*time.Millisecond))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
		require.Error(t, err)
	}
	assert.Equal(t, "OPEN", client.BreakerState())
	assert.Equal(t, int32(5), hits.Load())

	// Sixth call short-circuits without dispatching and without a request
	// event.
	before := len(drain(sub))
	_, err = client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeCircuitOpen), "got %v", err)
	assert.Equal(t, int32(5), hits.Load(), "open circuit must not dispatch")
	assert.Empty(t, drain(sub), "short-circuited call emits no events")

	// Event stream so far: 5x(request,error) + one circuit-breaker-open.
	_ = before

	// After the window, a single successful probe closes the circuit.
	healthy.Store(true)
	time.Sleep(60 * time.Millisecond)

	_, err = client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", client.BreakerState())
	assert.Equal(t, uint32(0), client.Failures())
}

func TestCircuitBreakerEventSequence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	bus := events.NewBus()
	sub := bus.Subscribe(64)
	defer sub.Close()

	client, err := New(testConfig("flaky", srv.URL), bus)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{}) //nolint:errcheck
	}

	evs := drain(sub)
	var errCount, openCount int
	for _, e := range evs {
		switch e.Type {
		case events.TypeError:
			errCount++
			assert.Equal(t, http.StatusInternalServerError, e.Fields["status"])
		case events.TypeCircuitBreakerOpen:
			openCount++
			assert.Equal(t, 5, e.Fields["failures"])
		}
	}
	assert.Equal(t, 5, errCount)
	assert.Equal(t, 1, openCount)
}

func TestFourxxDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client, err := New(testConfig("svc", srv.URL), nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		_, err := client.Request(context.Background(), RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
		require.Error(t, err)
		assert.True(t, api.IsCode(err, api.CodeUpstream4xx))
	}
	assert.Equal(t, "CLOSED", client.BreakerState())
}

func TestBindEndpointsAndCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/transaction/tx_123":
			assert.Equal(t, "NGN", r.URL.Query().Get("currency"))
			w.Write([]byte(`{"id":"tx_123"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/transaction/initialize":
			w.Write([]byte(`{"ok":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := New(testConfig("paystack", srv.URL), nil)
	require.NoError(t, err)

	client.BindEndpoints([]catalog.Endpoint{
		{Name: "get-transaction", Method: http.MethodGet, Path: "/transaction/{id}"},
		{Name: "initialize-transaction", Method: http.MethodPost, Path: "/transaction/initialize"},
	})

	resp, err := client.Call(context.Background(), "get-transaction", map[string]interface{}{
		"id":       "tx_123",
		"currency": "NGN",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	resp, err = client.Call(context.Background(), "initialize-transaction", map[string]interface{}{
		"amount": 500000,
		"email":  "a@b.com",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)

	_, err = client.Call(context.Background(), "nope", nil, nil)
	require.Error(t, err)
	assert.True(t, api.IsCode(err, api.CodeToolNotFound))
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	client, err := New(testConfig("svc", srv.URL), nil)
	require.NoError(t, err)

	res := client.HealthCheck(context.Background())
	assert.True(t, res.Healthy)
	assert.Equal(t, "ok", res.Data["status"])
}

func TestHealthCheckFailure(t *testing.T) {
	client, err := New(testConfig("svc", "http://127.0.0.1:1"), nil)
	require.NoError(t, err)

	res := client.HealthCheck(context.Background())
	assert.False(t, res.Healthy)
	assert.NotEmpty(t, res.Error)
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	client, err := New(testConfig("svc", srv.URL), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = client.Request(ctx, RequestSpec{Method: http.MethodGet, Path: "/"}, RequestOptions{})
	require.Error(t, err)
}
