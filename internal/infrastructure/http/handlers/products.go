package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/domain/catalog"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

type ProductHandler struct {
	gateway ports.Gateway
	locale  string
	log     *logger.Logger
}

func NewProductHandler(gateway ports.Gateway, locale string, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		gateway: gateway,
		locale:  locale,
		log:     log,
	}
}

type ProductResponse struct {
	catalog.Product
	InStock        bool   `json:"inStock"`
	FormattedPrice string `json:"formattedPrice"`
}

func (h *ProductHandler) toResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		Product:        p,
		InStock:        p.InStock(),
		FormattedPrice: pricing.FormatCurrency(p.Price, p.Currency, h.locale),
	}
}

func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	products, requestID, err := h.gateway.ListProducts(r.Context())
	if err != nil {
		h.log.Warn("Failed to list products", "error", err, "gateway_request_id", requestID)
		response.WriteDomainError(w, err)
		return
	}

	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, h.toResponse(p))
	}
	response.WriteSuccess(w, out)
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, requestID, err := h.gateway.GetProduct(r.Context(), id)
	if err != nil {
		h.log.Warn("Failed to get product", "product_id", id, "error", err, "gateway_request_id", requestID)
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, h.toResponse(product))
}
