package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v1/products/{id}", http.MethodGet, "418"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/"+id, nil))
	}

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("/api/v1/products/{id}", http.MethodGet, "418"))
	assert.Equal(t, before+2, after)
}

func TestExtractHandlerName(t *testing.T) {
	assert.Equal(t, "checkout", extractHandlerName("/api/v1/checkout/pay"))
	assert.Equal(t, "cart", extractHandlerName("/api/v1/cart/items/x"))
	assert.Equal(t, "unknown", extractHandlerName("/favicon.ico"))
}
