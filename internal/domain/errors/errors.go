package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCardNumber = errors.New("card number failed validation")
	ErrInvalidExpiry     = errors.New("card expiry is invalid")
	ErrInvalidEmail      = errors.New("email is invalid")
	ErrMissingCard       = errors.New("card data is missing")
	ErrMissingCardHolder = errors.New("card holder name is required")
	ErrInvalidCVC        = errors.New("card security code must be 3 or 4 digits")
	ErrIncompleteContact = errors.New("email, full name and phone are required")
	ErrIncompleteAddress = errors.New("address, city, postal code and country are required")

	ErrEmptySelection   = errors.New("nothing to check out")
	ErrMixedCurrency    = errors.New("all items must share one currency")
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrProductNotFound  = errors.New("product not found")
	ErrItemNotInCart    = errors.New("item not in cart")
	ErrNegativeAmount   = errors.New("amount must not be negative")
	ErrMissingProductID = errors.New("product id is required")

	ErrInvalidTransition  = errors.New("step transition not allowed")
	ErrCheckoutBusy       = errors.New("a checkout call is already in flight")
	ErrStaleResponse      = errors.New("checkout session was abandoned")
	ErrMissingTransaction = errors.New("transaction id missing from response")
	ErrMissingDelivery    = errors.New("delivery id missing from session")
	ErrOutOfStock         = errors.New("one or more items are out of stock")
	ErrAmountMismatch     = errors.New("checkout amount no longer matches current prices")
	ErrPaymentDeclined    = errors.New("payment declined")

	ErrGatewayUnavailable = errors.New("transaction gateway unavailable")
	ErrMissingBaseURL     = errors.New("gateway base url is not configured")
	ErrShopperRequired    = errors.New("shopper id is required")
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindInvalidState   Kind = "invalid_state"
	KindBusy           Kind = "busy"
	KindStale          Kind = "stale"
	KindOutOfStock     Kind = "out_of_stock"
	KindAmountMismatch Kind = "amount_mismatch"
	KindPaymentFailed  Kind = "payment_failed"
	KindGateway        Kind = "gateway"
	KindUnexpected     Kind = "unexpected"
)

// CheckoutError is the tagged failure returned by checkout operations.
type CheckoutError struct {
	Kind      Kind
	Message   string
	RequestID string
	Err       error
}

func (e *CheckoutError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (request id: %s)", e.Kind, msg, e.RequestID)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

func NewCheckoutError(kind Kind, err error, message, requestID string) *CheckoutError {
	if message == "" && err != nil {
		message = err.Error()
	}
	return &CheckoutError{Kind: kind, Message: message, RequestID: requestID, Err: err}
}

// KindOf reports the kind of a CheckoutError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var ce *CheckoutError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}
