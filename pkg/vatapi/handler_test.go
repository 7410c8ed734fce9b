package vatapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/traceid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/vatkit/pkg/ratelimiter"
	"github.com/dmitrymomot/vatkit/pkg/vat"
	"github.com/dmitrymomot/vatkit/pkg/vatapi"
	"github.com/dmitrymomot/vatkit/pkg/vies"
)

type registryStub struct {
	calls atomic.Int32
	valid bool
	err   error
}

func (s *registryStub) CheckVAT(context.Context, string, string) (bool, error) {
	s.calls.Add(1)
	return s.valid, s.err
}

func newAPI(t *testing.T, registry vat.Registry, opts ...vatapi.Option) http.Handler {
	t.Helper()
	v := vat.NewValidator(vat.WithRegistry(registry))
	return vatapi.New(v, opts...).Routes()
}

func get(t *testing.T, h http.Handler, target string, mutate ...func(*http.Request)) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestHandleCountry(t *testing.T) {
	t.Parallel()

	h := newAPI(t, &registryStub{})

	rec, body := get(t, h, "/countries/NL")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"country_code": "NL", "valid": true}, body)

	_, body = get(t, h, "/countries/nl")
	assert.Equal(t, false, body["valid"])

	_, body = get(t, h, "/countries/ZZ")
	assert.Equal(t, false, body["valid"])
}

func TestHandleIP(t *testing.T) {
	t.Parallel()

	h := newAPI(t, &registryStub{})

	_, body := get(t, h, "/ip/8.8.8.8")
	assert.Equal(t, map[string]any{"ip": "8.8.8.8", "public": true}, body)

	_, body = get(t, h, "/ip/10.0.0.1")
	assert.Equal(t, false, body["public"])

	_, body = get(t, h, "/ip/not-an-ip")
	assert.Equal(t, false, body["public"])
}

func TestHandleClientIP(t *testing.T) {
	t.Parallel()

	h := newAPI(t, &registryStub{})

	_, body := get(t, h, "/ip", func(r *http.Request) {
		r.Header.Set("X-Forwarded-For", "1.1.1.1, 10.0.0.1")
	})
	assert.Equal(t, map[string]any{"ip": "1.1.1.1", "public": true}, body)

	_, body = get(t, h, "/ip", func(r *http.Request) {
		r.RemoteAddr = "192.168.0.10:5555"
	})
	assert.Equal(t, map[string]any{"ip": "192.168.0.10", "public": false}, body)
}

func TestHandleFormat(t *testing.T) {
	t.Parallel()

	registry := &registryStub{valid: true}
	h := newAPI(t, registry)

	_, body := get(t, h, "/vat/nl123456789b01/format")
	assert.Equal(t, map[string]any{"vat_number": "nl123456789b01", "valid": true}, body)

	_, body = get(t, h, "/vat/DE12345678/format")
	assert.Equal(t, false, body["valid"])

	assert.Zero(t, registry.calls.Load())
}

func TestHandleVAT(t *testing.T) {
	t.Parallel()

	t.Run("existing number", func(t *testing.T) {
		t.Parallel()

		registry := &registryStub{valid: true}
		rec, body := get(t, newAPI(t, registry), "/vat/DE123456789")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"vat_number": "DE123456789", "valid": true}, body)
		assert.Equal(t, int32(1), registry.calls.Load())
	})

	t.Run("bad format skips registry", func(t *testing.T) {
		t.Parallel()

		registry := &registryStub{valid: true}
		rec, body := get(t, newAPI(t, registry), "/vat/DE1")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, false, body["valid"])
		assert.Zero(t, registry.calls.Load())
	})

	failures := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"vies timeout", fmt.Errorf("lookup: %w", vies.ErrTimeout), http.StatusGatewayTimeout, "registry_timeout"},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "registry_timeout"},
		{"member state down", vies.ErrMemberStateUnavailable, http.StatusServiceUnavailable, "registry_unavailable"},
		{"circuit open", fmt.Errorf("%w for DE", vies.ErrCircuitOpen), http.StatusServiceUnavailable, "registry_unavailable"},
		{"rate limited", vies.ErrRateLimited, http.StatusServiceUnavailable, "registry_unavailable"},
		{"blocked", vies.ErrBlocked, http.StatusBadGateway, "registry_error"},
		{"unknown", errors.New("boom"), http.StatusBadGateway, "registry_error"},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec, body := get(t, newAPI(t, &registryStub{err: tt.err}), "/vat/DE123456789")

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, body, "valid")
			require.Contains(t, body, "error")
			assert.Equal(t, tt.code, body["error"].(map[string]any)["code"])
		})
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	t.Run("no checks", func(t *testing.T) {
		rec, body := get(t, newAPI(t, &registryStub{}), "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"status": "ok"}, body)
	})

	t.Run("failing check", func(t *testing.T) {
		h := newAPI(t, &registryStub{},
			vatapi.WithHealthCheck("redis", func(context.Context) error { return errors.New("connection refused") }),
			vatapi.WithHealthCheck("vies", func(context.Context) error { return nil }),
		)

		rec, body := get(t, h, "/health")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unavailable", body["status"])
		assert.Equal(t, map[string]any{"redis": "connection refused", "vies": "ok"}, body["checks"])
	})
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	var traceID atomic.Value
	v := vat.NewValidator(vat.WithRegistry(vat.RegistryFunc(func(ctx context.Context, _, _ string) (bool, error) {
		traceID.Store(traceid.FromContext(ctx))
		return true, nil
	})))
	h := vatapi.New(v).Routes()

	rec, _ := get(t, h, "/vat/ATU12345678")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, traceID.Load())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsHandler(t *testing.T) {
	t.Parallel()

	v := vat.NewValidator(vat.WithRegistry(&registryStub{}))

	rec := httptest.NewRecorder()
	vatapi.New(v).Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("vatkit_up 1\n"))
	})
	rec = httptest.NewRecorder()
	vatapi.New(v, vatapi.WithMetricsHandler(metrics)).Routes().
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "vatkit_up 1\n", rec.Body.String())
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()

	limiter, err := ratelimiter.New(ratelimiter.NewMemoryStore(), ratelimiter.Config{
		Capacity:       2,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)

	registry := &registryStub{valid: true}
	h := newAPI(t, registry, vatapi.WithRateLimiter(limiter))
	fromIP := func(ip string) func(*http.Request) {
		return func(r *http.Request) { r.Header.Set("X-Real-IP", ip) }
	}

	for range 2 {
		rec, _ := get(t, h, "/vat/DE123456789", fromIP("203.0.113.5"))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec, body := get(t, h, "/vat/DE123456789", fromIP("203.0.113.5"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body["error"].(map[string]any)["code"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, int32(2), registry.calls.Load())

	rec, _ = get(t, h, "/vat/DE123456789/format", fromIP("203.0.113.5"))
	assert.Equal(t, http.StatusOK, rec.Code, "format checks are not limited")

	rec, _ = get(t, h, "/vat/DE123456789", fromIP("198.51.100.7"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
