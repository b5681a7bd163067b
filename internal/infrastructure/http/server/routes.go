package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/middleware"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
)

const requestTimeout = 90 * time.Second

func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.corsMiddleware)
	r.Use(middleware.NewRequestIDMiddleware(s.ids))
	r.Use(middleware.NewLoggingMiddleware(s.logger))
	r.Use(monitoring.Middleware)
	r.Use(middleware.NewRecoveryMiddleware(s.logger))

	r.Handle("/metrics", monitoring.Handler())
	r.Get("/health", s.healthHandler.HandleHealth())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.timeoutMiddleware)

		r.Get("/products", s.productHandler.HandleList)
		r.Get("/products/{id}", s.productHandler.HandleGet)

		r.Get("/admin/transactions", s.adminHandler.HandleListTransactions)

		r.Group(func(r chi.Router) {
			r.Use(middleware.NewShopperMiddleware(s.ids))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", s.cartHandler.HandleGet)
				r.Delete("/", s.cartHandler.HandleClear)
				r.Post("/items", s.cartHandler.HandleAddItem)
				r.Patch("/items/{id}", s.cartHandler.HandleUpdateQuantity)
				r.Delete("/items/{id}", s.cartHandler.HandleRemoveItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", s.checkoutHandler.HandleView)
				r.Post("/begin", s.checkoutHandler.HandleBegin)
				r.Post("/continue", s.checkoutHandler.HandleContinue)
				r.Post("/back", s.checkoutHandler.HandleBack)
				r.Post("/email", s.checkoutHandler.HandleEmail)
				r.Post("/billing", s.checkoutHandler.HandleBilling)
				r.Post("/delivery", s.checkoutHandler.HandleDelivery)
				r.Post("/pay", s.checkoutHandler.HandlePay)
				r.Post("/retry", s.checkoutHandler.HandleRetry)
				r.Post("/edit-billing", s.checkoutHandler.HandleEditBilling)
				r.Post("/finish", s.checkoutHandler.HandleFinish)
				r.Post("/close", s.checkoutHandler.HandleClose)
			})
		})
	})

	return r
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID, X-Shopper-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Shopper-ID")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.TimeoutHandler(next, requestTimeout, "Request timeout")
}
