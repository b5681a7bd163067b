package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront-checkout/internal/pkg/generator"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

func TestRequestIDMiddleware_KeepsInboundID(t *testing.T) {
	var seen string
	h := NewRequestIDMiddleware(generator.NewCodeGenerator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-from-client")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-from-client", seen)
	assert.Equal(t, "req-from-client", rec.Header().Get(RequestIDHeader))
}

func TestRequestIDMiddleware_GeneratesID(t *testing.T) {
	var seen string
	h := NewRequestIDMiddleware(generator.NewCodeGenerator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.True(t, strings.HasPrefix(seen, "req-"))
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestShopperMiddleware(t *testing.T) {
	var seen string
	h := NewShopperMiddleware(generator.NewCodeGenerator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ShopperIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(ShopperIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ShopperIDHeader, "shopper-7")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "shopper-7", seen)
	assert.Equal(t, "shopper-7", rec.Header().Get(ShopperIDHeader))
}

func TestRecoveryMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.LevelDebug)
	h := NewRequestIDMiddleware(generator.NewCodeGenerator())(
		NewRecoveryMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})))

	req := httptest.NewRequest(http.MethodGet, "/explode", nil)
	req.Header.Set(RequestIDHeader, "req-panic")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-panic", body["requestId"])
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "req-panic")
}

func TestLoggingMiddleware_RecordsStatusWithoutBody(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, logger.LevelDebug)
	h := NewLoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout/billing", strings.NewReader(`{"card":{"number":"4242424242424242"}}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"status":418`)
	assert.NotContains(t, buf.String(), "4242424242424242")
}
