package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
)

func TestMapDomainError_CheckoutKinds(t *testing.T) {
	cases := []struct {
		kind   domainErrors.Kind
		status int
	}{
		{domainErrors.KindValidation, http.StatusBadRequest},
		{domainErrors.KindInvalidState, http.StatusConflict},
		{domainErrors.KindBusy, http.StatusTooManyRequests},
		{domainErrors.KindStale, http.StatusConflict},
		{domainErrors.KindOutOfStock, http.StatusConflict},
		{domainErrors.KindAmountMismatch, http.StatusConflict},
		{domainErrors.KindPaymentFailed, http.StatusPaymentRequired},
		{domainErrors.KindGateway, http.StatusBadGateway},
		{domainErrors.KindUnexpected, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(string(tc.kind), func(t *testing.T) {
			err := domainErrors.NewCheckoutError(tc.kind, errors.New("x"), "something happened", "req-9")

			status, body := MapDomainError(fmt.Errorf("wrapped: %w", err))

			assert.Equal(t, tc.status, status)
			assert.Equal(t, "something happened", body.Message)
			assert.Equal(t, string(tc.kind), body.Error)
			assert.Equal(t, "req-9", body.RequestID)
		})
	}
}

func TestMapDomainError_CarriesGatewayCode(t *testing.T) {
	ge := &ports.GatewayError{StatusCode: 409, Code: ports.CodeOutOfStock, Message: "gone", RequestID: "req-1"}
	err := domainErrors.NewCheckoutError(domainErrors.KindOutOfStock, ge, "", "req-1")

	status, body := MapDomainError(err)

	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, ports.CodeOutOfStock, body.Code)
}

func TestMapDomainError_RawGatewayErrors(t *testing.T) {
	status, body := MapDomainError(&ports.GatewayError{StatusCode: 404, Message: "no such product", RequestID: "req-404"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, StatusNotFound, body.Status)
	assert.Equal(t, "req-404", body.RequestID)

	status, body = MapDomainError(&ports.GatewayError{StatusCode: 500, Message: "oops"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "oops", body.Message)
}

func TestMapDomainError_Sentinels(t *testing.T) {
	status, _ := MapDomainError(fmt.Errorf("dial: %w", domainErrors.ErrGatewayUnavailable))
	assert.Equal(t, http.StatusServiceUnavailable, status)

	status, _ = MapDomainError(domainErrors.ErrShopperRequired)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := MapDomainError(errors.New("disk on fire"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Empty(t, body.Error)
}
