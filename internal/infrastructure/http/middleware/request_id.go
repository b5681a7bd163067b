package middleware

import (
	"context"
	"net/http"

	"github.com/yuzvak/storefront-checkout/internal/pkg/generator"
)

const (
	RequestIDHeader = "X-Request-ID"
	ShopperIDHeader = "X-Shopper-ID"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	shopperIDKey
)

// NewRequestIDMiddleware keeps an inbound X-Request-ID or mints one, and
// echoes it on the response.
func NewRequestIDMiddleware(ids *generator.CodeGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" || len(requestID) > 128 {
				requestID = ids.GenerateRequestID()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NewShopperMiddleware identifies the shopper by X-Shopper-ID, assigning a
// fresh id when the header is absent.
func NewShopperMiddleware(ids *generator.CodeGenerator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopperID := r.Header.Get(ShopperIDHeader)
			if shopperID == "" || len(shopperID) > 64 {
				shopperID = ids.GenerateShopperID()
			}
			w.Header().Set(ShopperIDHeader, shopperID)

			ctx := context.WithValue(r.Context(), shopperIDKey, shopperID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func ShopperIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(shopperIDKey).(string)
	return id
}
