package response

import (
	"errors"
	"net/http"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
)

type ErrorMapping struct {
	HTTPStatus int
	Status     Status
}

var kindMappings = map[domainErrors.Kind]ErrorMapping{
	domainErrors.KindValidation:     {HTTPStatus: http.StatusBadRequest, Status: StatusValidationError},
	domainErrors.KindInvalidState:   {HTTPStatus: http.StatusConflict, Status: StatusConflict},
	domainErrors.KindBusy:           {HTTPStatus: http.StatusTooManyRequests, Status: StatusConflict},
	domainErrors.KindStale:          {HTTPStatus: http.StatusConflict, Status: StatusConflict},
	domainErrors.KindOutOfStock:     {HTTPStatus: http.StatusConflict, Status: StatusConflict},
	domainErrors.KindAmountMismatch: {HTTPStatus: http.StatusConflict, Status: StatusConflict},
	domainErrors.KindPaymentFailed:  {HTTPStatus: http.StatusPaymentRequired, Status: StatusPaymentFailed},
	domainErrors.KindGateway:        {HTTPStatus: http.StatusBadGateway, Status: StatusBadGateway},
	domainErrors.KindUnexpected:     {HTTPStatus: http.StatusInternalServerError, Status: StatusInternalError},
}

type sentinelMapping struct {
	ErrorMapping
	Message string
}

var sentinelMappings = []struct {
	err     error
	mapping sentinelMapping
}{
	{domainErrors.ErrShopperRequired, sentinelMapping{ErrorMapping{http.StatusBadRequest, StatusValidationError}, "Shopper id is required"}},
	{domainErrors.ErrMissingProductID, sentinelMapping{ErrorMapping{http.StatusBadRequest, StatusValidationError}, "Product id is required"}},
	{domainErrors.ErrProductNotFound, sentinelMapping{ErrorMapping{http.StatusNotFound, StatusNotFound}, "Product not found"}},
	{domainErrors.ErrItemNotInCart, sentinelMapping{ErrorMapping{http.StatusNotFound, StatusNotFound}, "Item not in cart"}},
	{domainErrors.ErrGatewayUnavailable, sentinelMapping{ErrorMapping{http.StatusServiceUnavailable, StatusServiceUnavailable}, "Transaction gateway unavailable"}},
	{domainErrors.ErrMissingBaseURL, sentinelMapping{ErrorMapping{http.StatusServiceUnavailable, StatusServiceUnavailable}, "Transaction gateway not configured"}},
}

// MapDomainError picks the status code for err. Checkout errors map by kind,
// raw gateway errors keep 404 and otherwise become 502.
func MapDomainError(err error) (int, *ErrorResponse) {
	var ce *domainErrors.CheckoutError
	if errors.As(err, &ce) {
		mapping, ok := kindMappings[ce.Kind]
		if !ok {
			mapping = kindMappings[domainErrors.KindUnexpected]
		}
		resp := Error(mapping.Status, ce.Message, string(ce.Kind))
		resp.RequestID = ce.RequestID
		var ge *ports.GatewayError
		if errors.As(err, &ge) {
			resp.Code = ge.Code
		}
		return mapping.HTTPStatus, resp
	}

	for _, m := range sentinelMappings {
		if errors.Is(err, m.err) {
			return m.mapping.HTTPStatus, Error(m.mapping.Status, m.mapping.Message, err.Error())
		}
	}

	var ge *ports.GatewayError
	if errors.As(err, &ge) {
		status, httpStatus := StatusBadGateway, http.StatusBadGateway
		if ge.IsNotFound() {
			status, httpStatus = StatusNotFound, http.StatusNotFound
		}
		resp := Error(status, ge.Message, string(domainErrors.KindGateway))
		resp.Code = ge.Code
		resp.RequestID = ge.RequestID
		return httpStatus, resp
	}

	return http.StatusInternalServerError, Error(StatusInternalError, "Internal server error")
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}

// WriteDomainErrorWithDetails attaches details, such as the current checkout
// view, to the error body.
func WriteDomainErrorWithDetails(w http.ResponseWriter, err error, details interface{}) {
	statusCode, errorResponse := MapDomainError(err)
	errorResponse.Details = details
	WriteJSON(w, statusCode, errorResponse)
}
