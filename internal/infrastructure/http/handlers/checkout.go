package handlers

import (
	"net/http"
	"strings"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	"github.com/yuzvak/storefront-checkout/internal/domain/checkout"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/payment"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// CheckoutHandler exposes the per-shopper checkout state machine. Every
// response carries the current session view, including on errors.
type CheckoutHandler struct {
	registry *use_cases.ShopperRegistry
	gateway  ports.Gateway
	log      *logger.Logger
}

func NewCheckoutHandler(registry *use_cases.ShopperRegistry, gateway ports.Gateway, log *logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		registry: registry,
		gateway:  gateway,
		log:      log,
	}
}

type beginRequest struct {
	ProductID string `json:"productId"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type cardRequest struct {
	Number     string `json:"number"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVC        string `json:"cvc"`
	HolderName string `json:"holderName"`
}

type billingRequest struct {
	Customer checkout.Customer `json:"customer"`
	Delivery checkout.Delivery `json:"delivery"`
	Card     cardRequest       `json:"card"`
}

type deliveryRequest struct {
	Delivery checkout.Delivery `json:"delivery"`
}

func (h *CheckoutHandler) orchestrator(w http.ResponseWriter, r *http.Request) (*use_cases.Orchestrator, bool) {
	shopper, err := h.registry.Get(r.Context(), middleware.ShopperIDFromContext(r.Context()))
	if err != nil {
		response.WriteDomainError(w, err)
		return nil, false
	}
	return shopper.Checkout, true
}

func (h *CheckoutHandler) respond(w http.ResponseWriter, r *http.Request, o *use_cases.Orchestrator, err error) {
	if err != nil {
		kind, _ := domainErrors.KindOf(err)
		h.log.WithCorrelationID(middleware.RequestIDFromContext(r.Context())).Info("Checkout action rejected",
			"path", r.URL.Path,
			"kind", string(kind),
			"error", err)
		response.WriteDomainErrorWithDetails(w, err, o.View())
		return
	}
	response.WriteSuccess(w, o.View())
}

func (h *CheckoutHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	response.WriteSuccess(w, o.View())
}

// HandleBegin starts from the cart, or from a single product when productId is set.
func (h *CheckoutHandler) HandleBegin(w http.ResponseWriter, r *http.Request) {
	var req beginRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		h.respond(w, r, o, o.BeginFromCart(r.Context()))
		return
	}

	product, requestID, err := h.gateway.GetProduct(r.Context(), productID)
	if err != nil {
		h.log.Warn("Failed to fetch product for checkout", "product_id", productID, "error", err, "gateway_request_id", requestID)
		response.WriteDomainErrorWithDetails(w, err, o.View())
		return
	}
	h.respond(w, r, o, o.BeginWithProduct(r.Context(), product))
}

func (h *CheckoutHandler) HandleContinue(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.Continue())
}

func (h *CheckoutHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.Back())
}

func (h *CheckoutHandler) HandleEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.SubmitEmail(r.Context(), req.Email))
}

func (h *CheckoutHandler) HandleBilling(w http.ResponseWriter, r *http.Request) {
	var req billingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": "invalid billing payload"})
		return
	}

	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}

	in := use_cases.BillingInput{
		Customer: req.Customer,
		Delivery: req.Delivery,
		Card: payment.CardData{
			Number:     req.Card.Number,
			ExpMonth:   req.Card.ExpMonth,
			ExpYear:    req.Card.ExpYear,
			CVC:        req.Card.CVC,
			HolderName: req.Card.HolderName,
		},
	}
	h.respond(w, r, o, o.SubmitBilling(r.Context(), in))
}

func (h *CheckoutHandler) HandleDelivery(w http.ResponseWriter, r *http.Request) {
	var req deliveryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": err.Error()})
		return
	}

	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.UpdateDelivery(r.Context(), req.Delivery))
}

func (h *CheckoutHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	_, err := o.Pay(r.Context())
	h.respond(w, r, o, err)
}

func (h *CheckoutHandler) HandleRetry(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	_, err := o.Retry(r.Context())
	h.respond(w, r, o, err)
}

func (h *CheckoutHandler) HandleEditBilling(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.EditBilling())
}

func (h *CheckoutHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	h.respond(w, r, o, o.Finish(r.Context()))
}

func (h *CheckoutHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	o, ok := h.orchestrator(w, r)
	if !ok {
		return
	}
	o.Close(r.Context())
	h.respond(w, r, o, nil)
}
