package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/response"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

const maxAdminPageSize = 200

// AdminHandler proxies the gateway's transaction listing for support staff.
type AdminHandler struct {
	gateway ports.Gateway
	log     *logger.Logger
}

func NewAdminHandler(gateway ports.Gateway, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		gateway: gateway,
		log:     log,
	}
}

func (h *AdminHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	errors := make(map[string]string)

	limit, err := parseIntParam(q.Get("limit"), 50)
	if err != nil || limit < 1 || limit > maxAdminPageSize {
		errors["limit"] = "limit must be between 1 and 200"
	}
	offset, err := parseIntParam(q.Get("offset"), 0)
	if err != nil || offset < 0 {
		errors["offset"] = "offset must be a non-negative integer"
	}
	if len(errors) > 0 {
		response.WriteValidationError(w, "Validation failed", errors)
		return
	}

	email := strings.TrimSpace(q.Get("email"))
	page, requestID, err := h.gateway.ListAdminTransactions(r.Context(), email, limit, offset)
	if err != nil {
		h.log.Warn("Failed to list admin transactions", "error", err, "gateway_request_id", requestID)
		response.WriteDomainError(w, err)
		return
	}

	response.WriteSuccess(w, page)
}

func parseIntParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
