package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{
		BaseURL:         srv.URL + "/",
		Timeout:         2 * time.Second,
		DefaultCurrency: "COP",
		Breaker:         BreakerConfig{ConsecutiveFailures: 2, OpenTimeout: time.Minute},
	}, nil, logger.Nop())
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, requestID string, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if requestID != "" {
		w.Header().Set("x-request-id", requestID)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "  "}, nil, logger.Nop())
	assert.ErrorIs(t, err, domainErrors.ErrMissingBaseURL)
}

func TestClient_ListProductsMapsFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Empty(t, r.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, "req-products", []map[string]interface{}{
			{"id": "p-1", "name": "Lamp", "description": "Desk lamp", "priceAmount": 129900, "currency": "COP",
				"stock": map[string]int{"units": 4}, "imageUrl": "https://img/lamp.png"},
			{"id": "p-2", "name": "Chair", "description": "Oak chair", "longDescription": "Solid oak", "priceAmount": 10.5,
				"imageUrls": []string{"https://img/a.png", "https://img/b.png"}},
			{"id": "p-3", "name": "Mystery", "description": "?", "priceAmount": 1},
		})
	})

	products, requestID, err := c.ListProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "req-products", requestID)
	require.Len(t, products, 3)

	assert.Equal(t, "129900", products[0].Price.String())
	assert.Equal(t, 4, products[0].Stock)
	assert.Equal(t, "https://img/lamp.png", products[0].Image)
	assert.Equal(t, []string{"https://img/lamp.png"}, products[0].Images)
	assert.Equal(t, "Desk lamp", products[0].LongDescription)

	assert.Equal(t, "COP", products[1].Currency)
	assert.Equal(t, 0, products[1].Stock)
	assert.Equal(t, "https://img/a.png", products[1].Image)
	assert.Len(t, products[1].Images, 2)
	assert.Equal(t, "Solid oak", products[1].LongDescription)

	assert.True(t, strings.HasPrefix(products[2].Image, "data:image/svg+xml,"))
	assert.Empty(t, products[2].Images)
}

func TestClient_GetProductCollapsesConcurrentCalls(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		writeJSON(w, http.StatusOK, "req-1", map[string]interface{}{"id": "p-1", "name": "Lamp", "priceAmount": 10, "currency": "COP"})
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, _, err := c.GetProduct(context.Background(), "p-1")
			assert.NoError(t, err)
			assert.Equal(t, "p-1", p.ID)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&hits), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&hits), int32(1))
}

func TestClient_GetProductCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			close(started)
		}
		<-release
		writeJSON(w, http.StatusOK, "req-1", map[string]interface{}{"id": "p-1", "name": "Lamp", "priceAmount": 10, "currency": "COP"})
	})

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := c.GetProduct(firstCtx, "p-1")
		firstErr <- err
	}()
	<-started

	type outcome struct {
		product string
		err     error
	}
	second := make(chan outcome, 1)
	go func() {
		p, _, err := c.GetProduct(context.Background(), "p-1")
		second <- outcome{product: p.ID, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "p-1", got.product)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_ErrorPayloads(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantCode    string
		wantMessage string
	}{
		{"top level", 409, "application/json", `{"code":"OUT_OF_STOCK","message":"Sold out"}`, "OUT_OF_STOCK", "Sold out"},
		{"nested", 409, "application/json", `{"error":{"code":"AMOUNT_MISMATCH","message":"Amount changed"}}`, "AMOUNT_MISMATCH", "Amount changed"},
		{"mixed", 402, "application/json", `{"message":"Declined","error":{"code":"PAYMENT_FAILED"}}`, "PAYMENT_FAILED", "Declined"},
		{"string error", 400, "application/json", `{"error":"bad"}`, "", "Bad Request"},
		{"plain text", 404, "text/plain", `nope`, "", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", tt.contentType)
				w.Header().Set("x-request-id", "req-err")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, requestID, err := c.CreateTransaction(context.Background(), ports.CreateTransactionRequest{Amount: decimal.NewFromInt(1)})

			var gwErr *ports.GatewayError
			require.True(t, errors.As(err, &gwErr))
			assert.Equal(t, tt.status, gwErr.StatusCode)
			assert.Equal(t, tt.wantCode, gwErr.Code)
			assert.Equal(t, tt.wantMessage, gwErr.Message)
			assert.Equal(t, "req-err", gwErr.RequestID)
			assert.Equal(t, "req-err", requestID)
		})
	}
}

func TestClient_CreateTransactionBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{
			"items":[{"productId":"p-1","quantity":2}],
			"amount":200,
			"currency":"COP",
			"customer":{"email":"a@b.co","fullName":"Ana","phone":"1"},
			"delivery":{"addressLine1":"Calle 1","city":"Bogota","country":"CO","postalCode":"110111"}
		}`, string(raw))
		writeJSON(w, http.StatusCreated, "req-tx", map[string]interface{}{"transactionId": "tx-9", "deliveryId": "dl-9", "status": "PENDING", "amount": 200})
	})

	resp, requestID, err := c.CreateTransaction(context.Background(), ports.CreateTransactionRequest{
		Items:    []ports.TransactionItem{{ProductID: "p-1", Quantity: 2}},
		Amount:   decimal.NewFromInt(200),
		Currency: "COP",
		Customer: checkout.Customer{Email: "a@b.co", FullName: "Ana", Phone: "1"},
		Delivery: checkout.Delivery{AddressLine1: "Calle 1", City: "Bogota", Country: "CO", PostalCode: "110111"},
	})

	require.NoError(t, err)
	assert.Equal(t, "req-tx", requestID)
	assert.Equal(t, "tx-9", resp.EffectiveID())
	assert.Equal(t, "dl-9", resp.DeliveryID)
	require.NotNil(t, resp.Amount)
	assert.Equal(t, "200", resp.Amount.String())
}

func TestClient_UpdateDeliveryAndPay(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		switch r.URL.Path {
		case "/deliveries/dl-1":
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.JSONEq(t, `{"transactionId":"tx-1","addressLine1":"A","city":"B","country":"C","postalCode":"D"}`, string(raw))
			writeJSON(w, http.StatusOK, "req-d", map[string]string{"id": "dl-1"})
		case "/transactions/tx-1/pay":
			assert.JSONEq(t, `{"cardNumber":"4242424242424242","expMonth":12,"expYear":2030,"cvc":"123","holderName":"ANA"}`, string(raw))
			writeJSON(w, http.StatusOK, "req-p", map[string]string{"status": "APPROVED", "transactionId": "tx-1"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	d, _, err := c.UpdateDelivery(context.Background(), "dl-1", "tx-1", checkout.Delivery{AddressLine1: "A", City: "B", Country: "C", PostalCode: "D"})
	require.NoError(t, err)
	assert.Equal(t, "dl-1", d.ID)

	p, requestID, err := c.PayTransaction(context.Background(), "tx-1", payment.CardData{Number: "4242424242424242", ExpMonth: 12, ExpYear: 2030, CVC: "123", HolderName: "ANA"})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", p.Status)
	assert.Equal(t, "req-p", requestID)
}

func TestClient_LookupAndAdminQueries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/customers/lookup":
			assert.Equal(t, "a+b@c.co", r.URL.Query().Get("email"))
			writeJSON(w, http.StatusOK, "", map[string]interface{}{
				"customer": map[string]string{"email": "a+b@c.co", "fullName": "A"},
			})
		case "/admin/transactions":
			assert.Equal(t, "50", r.URL.Query().Get("limit"))
			assert.Equal(t, "0", r.URL.Query().Get("offset"))
			writeJSON(w, http.StatusOK, "", map[string]interface{}{
				"total": 1,
				"items": []map[string]interface{}{{"id": "tx-1", "status": "PAID", "amount": 10, "currency": "COP"}},
			})
		}
	})

	profile, _, err := c.LookupCustomer(context.Background(), "a+b@c.co")
	require.NoError(t, err)
	assert.Equal(t, "A", profile.Customer.FullName)
	assert.Nil(t, profile.Delivery)

	page, _, err := c.ListAdminTransactions(context.Background(), "a+b@c.co", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "10", page.Items[0].Amount.String())
}

func TestClient_BreakerIgnoresBusinessErrorsButTripsOnOutage(t *testing.T) {
	var status int32 = http.StatusConflict
	var hits int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, int(atomic.LoadInt32(&status)), "", map[string]string{"code": "OUT_OF_STOCK", "message": "x"})
	})

	for i := 0; i < 4; i++ {
		_, _, err := c.GetProduct(context.Background(), "p")
		var gwErr *ports.GatewayError
		require.True(t, errors.As(err, &gwErr))
	}

	atomic.StoreInt32(&status, http.StatusBadGateway)
	for i := 0; i < 2; i++ {
		_, _, err := c.GetProduct(context.Background(), "p")
		require.Error(t, err)
	}

	_, _, err := c.GetProduct(context.Background(), "p")
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
	assert.Equal(t, int32(6), atomic.LoadInt32(&hits))
}

func TestClient_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, DefaultCurrency: "COP"}, nil, logger.Nop())
	require.NoError(t, err)

	_, _, err = c.ListProducts(context.Background())
	assert.ErrorIs(t, err, domainErrors.ErrGatewayUnavailable)
}
