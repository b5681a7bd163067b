package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	domainErrors "github.com/yuzvak/storefront-checkout/internal/domain/errors"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

type CartHandler struct {
	registry *use_cases.ShopperRegistry
	gateway  ports.Gateway
	locale   string
	log      *logger.Logger
}

func NewCartHandler(registry *use_cases.ShopperRegistry, gateway ports.Gateway, locale string, log *logger.Logger) *CartHandler {
	return &CartHandler{
		registry: registry,
		gateway:  gateway,
		locale:   locale,
		log:      log,
	}
}

type CartItemResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	Currency           string          `json:"currency"`
	Quantity           int             `json:"quantity"`
	Image              string          `json:"image"`
	LineTotal          decimal.Decimal `json:"lineTotal"`
	FormattedLineTotal string          `json:"formattedLineTotal"`
}

type CartResponse struct {
	Items             []CartItemResponse `json:"items"`
	Count             int                `json:"count"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	Currency          string             `json:"currency,omitempty"`
	FormattedSubtotal string             `json:"formattedSubtotal,omitempty"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

type updateQuantityRequest struct {
	Delta int `json:"delta"`
}

func (h *CartHandler) cartFor(w http.ResponseWriter, r *http.Request) (*use_cases.CartService, bool) {
	shopper, err := h.registry.Get(r.Context(), middleware.ShopperIDFromContext(r.Context()))
	if err != nil {
		response.WriteDomainError(w, err)
		return nil, false
	}
	return shopper.Cart, true
}

func (h *CartHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.cartFor(w, r)
	if !ok {
		return
	}
	response.WriteSuccess(w, h.render(svc))
}

func (h *CartHandler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": err.Error()})
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		response.WriteValidationError(w, "Validation failed", map[string]string{"productId": "productId is required"})
		return
	}

	svc, ok := h.cartFor(w, r)
	if !ok {
		return
	}

	product, requestID, err := h.gateway.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		h.log.Warn("Failed to fetch product for cart", "product_id", req.ProductID, "error", err)
		response.WriteDomainError(w, err)
		return
	}
	if !product.InStock() {
		response.WriteDomainError(w, domainErrors.NewCheckoutError(domainErrors.KindOutOfStock, domainErrors.ErrOutOfStock, "", requestID))
		return
	}

	svc.AddItem(r.Context(), product)
	response.WriteSuccess(w, h.render(svc))
}

func (h *CartHandler) HandleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		response.WriteValidationError(w, "Validation failed", map[string]string{"body": err.Error()})
		return
	}
	if req.Delta == 0 {
		response.WriteValidationError(w, "Validation failed", map[string]string{"delta": "delta must not be zero"})
		return
	}

	svc, ok := h.cartFor(w, r)
	if !ok {
		return
	}
	if _, found := svc.Find(id); !found {
		response.WriteDomainError(w, domainErrors.ErrItemNotInCart)
		return
	}

	svc.UpdateQuantity(r.Context(), id, req.Delta)
	response.WriteSuccess(w, h.render(svc))
}

func (h *CartHandler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.cartFor(w, r)
	if !ok {
		return
	}
	svc.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	response.WriteSuccess(w, h.render(svc))
}

func (h *CartHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.cartFor(w, r)
	if !ok {
		return
	}
	svc.Clear(r.Context())
	response.WriteSuccess(w, h.render(svc))
}

func (h *CartHandler) render(svc *use_cases.CartService) CartResponse {
	return renderCart(svc.Items(), h.locale)
}

func renderCart(items []cart.Item, locale string) CartResponse {
	resp := CartResponse{
		Items: make([]CartItemResponse, 0, len(items)),
	}
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lineTotal := item.LineTotal()
		resp.Items = append(resp.Items, CartItemResponse{
			ID:                 item.ID,
			Name:               item.Name,
			Price:              item.Price,
			Currency:           item.Currency,
			Quantity:           item.Quantity,
			Image:              item.Image,
			LineTotal:          lineTotal,
			FormattedLineTotal: pricing.FormatCurrency(lineTotal, item.Currency, locale),
		})
		lines = append(lines, pricing.Line{Price: item.Price, Quantity: item.Quantity})
		resp.Count += item.Quantity
	}
	resp.Subtotal = pricing.Subtotal(lines)
	if len(items) > 0 {
		resp.Currency = items[0].Currency
		resp.FormattedSubtotal = pricing.FormatCurrency(resp.Subtotal, resp.Currency, locale)
	}
	return resp
}
