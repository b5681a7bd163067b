package ports

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
)

const (
	CodeOutOfStock     = "OUT_OF_STOCK"
	CodeAmountMismatch = "AMOUNT_MISMATCH"
	CodePaymentFailed  = "PAYMENT_FAILED"
)

// Gateway is the remote transaction API. Every successful call reports the
// correlation id of its response.
type Gateway interface {
	ListProducts(ctx context.Context) ([]catalog.Product, string, error)
	GetProduct(ctx context.Context, id string) (catalog.Product, string, error)
	LookupCustomer(ctx context.Context, email string) (CustomerProfile, string, error)
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (TransactionResponse, string, error)
	UpdateDelivery(ctx context.Context, deliveryID, transactionID string, delivery checkout.Delivery) (DeliveryResponse, string, error)
	PayTransaction(ctx context.Context, transactionID string, card payment.CardData) (PaymentResponse, string, error)
	ListAdminTransactions(ctx context.Context, email string, limit, offset int) (AdminTransactionPage, string, error)
}

type CustomerProfile struct {
	Customer checkout.Customer  `json:"customer"`
	Delivery *checkout.Delivery `json:"delivery,omitempty"`
}

type TransactionItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateTransactionRequest struct {
	Items    []TransactionItem `json:"items"`
	Amount   decimal.Decimal   `json:"amount"`
	Currency string            `json:"currency"`
	Customer checkout.Customer `json:"customer"`
	Delivery checkout.Delivery `json:"delivery"`
}

type TransactionResponse struct {
	ID            string           `json:"id,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	DeliveryID    string           `json:"deliveryId,omitempty"`
	Status        string           `json:"status,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
}

// EffectiveID prefers id and falls back to transactionId.
func (r TransactionResponse) EffectiveID() string {
	if r.ID != "" {
		return r.ID
	}
	return r.TransactionID
}

type DeliveryResponse struct {
	ID string `json:"id,omitempty"`
}

type PaymentResponse struct {
	Status        string `json:"status,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Message       string `json:"message,omitempty"`
}

type AdminTransaction struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Email     string          `json:"email,omitempty"`
	CreatedAt string          `json:"createdAt,omitempty"`
}

type AdminTransactionPage struct {
	Total int                `json:"total"`
	Items []AdminTransaction `json:"items"`
}

// GatewayError is a non-2xx answer from the gateway.
type GatewayError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *GatewayError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("gateway %d: %s", e.StatusCode, e.Message)
}

func (e *GatewayError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *GatewayError) IsPaymentFailure() bool {
	return e.Code == CodePaymentFailed || e.StatusCode == http.StatusPaymentRequired
}
