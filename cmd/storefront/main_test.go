package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/pkg/clock"
)

func newCatalogAPI(t *testing.T) *httptest.Server {
	t.Helper()
	products := map[string]map[string]interface{}{
		"p1": {"id": "p1", "name": "Lamp", "priceAmount": 45000, "currency": "COP", "stock": map[string]int{"units": 3}},
		"p2": {"id": "p2", "name": "Chair", "priceAmount": 120000, "stock": map[string]int{"units": 0}},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]interface{}{products["p1"], products["p2"]})
	})
	mux.HandleFunc("/products/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		p, ok := products[r.URL.Path[len("/products/"):]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "Product not found"})
			return
		}
		json.NewEncoder(w).Encode(p)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type cliHarness struct {
	apiURL  string
	dataDir string
}

func (h cliHarness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	env := map[string]string{"STOREFRONT_API_BASE_URL": h.apiURL}
	a := newApp(&out, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	a.clock = clock.NewMockClock(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	cmd := newRootCmd(a)
	cmd.SetArgs(append([]string{"--data-dir", h.dataDir}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestProductsList(t *testing.T) {
	h := cliHarness{apiURL: newCatalogAPI(t).URL, dataDir: t.TempDir()}

	out, err := h.run(t, "products", "list")

	require.NoError(t, err)
	assert.Contains(t, out, "Lamp")
	assert.Contains(t, out, "$ 45.000")
	assert.Contains(t, out, "$ 120.000")
}

func TestProductsShow_NotFound(t *testing.T) {
	h := cliHarness{apiURL: newCatalogAPI(t).URL, dataDir: t.TempDir()}

	_, err := h.run(t, "products", "show", "missing")

	assert.Error(t, err)
}

func TestCartLifecyclePersistsBetweenRuns(t *testing.T) {
	h := cliHarness{apiURL: newCatalogAPI(t).URL, dataDir: t.TempDir()}

	_, err := h.run(t, "cart", "add", "p1")
	require.NoError(t, err)
	_, err = h.run(t, "cart", "inc", "p1")
	require.NoError(t, err)

	out, err := h.run(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Subtotal (2 items): $ 90.000")

	_, err = h.run(t, "cart", "dec", "p1")
	require.NoError(t, err)
	out, err = h.run(t, "cart", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Subtotal (1 items): $ 45.000")

	out, err = h.run(t, "cart", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cart is empty")
}

func TestCartAdd_OutOfStock(t *testing.T) {
	h := cliHarness{apiURL: newCatalogAPI(t).URL, dataDir: t.TempDir()}

	_, err := h.run(t, "cart", "add", "p2")

	assert.ErrorIs(t, err, domainErrors.ErrOutOfStock)
}

func TestCartInc_UnknownItem(t *testing.T) {
	h := cliHarness{apiURL: newCatalogAPI(t).URL, dataDir: t.TempDir()}

	_, err := h.run(t, "cart", "inc", "nope")

	assert.ErrorIs(t, err, domainErrors.ErrItemNotInCart)
}

func TestProducts_MissingBaseURL(t *testing.T) {
	h := cliHarness{apiURL: "", dataDir: t.TempDir()}

	_, err := h.run(t, "products", "list")

	assert.ErrorIs(t, err, domainErrors.ErrMissingBaseURL)
}

func TestValidateCard(t *testing.T) {
	h := cliHarness{dataDir: t.TempDir()}

	out, err := h.run(t, "validate", "card", "4242 4242 4242 4242", "12/2030")
	require.NoError(t, err)
	assert.Contains(t, out, "************4242")
	assert.Contains(t, out, "Brand:  visa")
	assert.NotContains(t, out, "4242424242424242")

	_, err = h.run(t, "validate", "card", "4242424242424241", "12/30")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidCardNumber)

	_, err = h.run(t, "validate", "card", "5555555555554444", "02/2026")
	assert.ErrorIs(t, err, domainErrors.ErrInvalidExpiry)

	_, err = h.run(t, "validate", "card", "5555555555554444", "0226")
	assert.Error(t, err)
}
