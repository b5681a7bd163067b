package server

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	"github.com/yuzvak/storefront-checkout/internal/config"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/handlers"
	"github.com/yuzvak/storefront-checkout/internal/pkg/generator"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// Dependencies are the collaborators the HTTP surface needs. DB and Redis are
// only used for health reporting and may be nil.
type Dependencies struct {
	Gateway  ports.Gateway
	Registry *use_cases.ShopperRegistry
	DB       *sql.DB
	Redis    *redis.Client
	Locale   string
}

type Server struct {
	server          *http.Server
	logger          *logger.Logger
	ids             *generator.CodeGenerator
	healthHandler   *handlers.HealthHandler
	productHandler  *handlers.ProductHandler
	cartHandler     *handlers.CartHandler
	checkoutHandler *handlers.CheckoutHandler
	adminHandler    *handlers.AdminHandler
}

func NewServer(cfg config.ServerConfig, deps Dependencies, logger *logger.Logger) *Server {
	locale := deps.Locale
	if locale == "" {
		locale = pricing.DefaultLocale
	}

	readTimeout := cfg.ReadTimeout.Duration
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout.Duration
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}

	server := &http.Server{
		Addr:         cfg.Address(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  120 * time.Second,
	}

	s := &Server{
		server:          server,
		logger:          logger,
		ids:             generator.NewCodeGenerator(),
		healthHandler:   handlers.NewHealthHandler(deps.DB, deps.Redis, logger),
		productHandler:  handlers.NewProductHandler(deps.Gateway, locale, logger),
		cartHandler:     handlers.NewCartHandler(deps.Registry, deps.Gateway, locale, logger),
		checkoutHandler: handlers.NewCheckoutHandler(deps.Registry, deps.Gateway, logger),
		adminHandler:    handlers.NewAdminHandler(deps.Gateway, logger),
	}
	s.server.Handler = s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("Starting HTTP server", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}
