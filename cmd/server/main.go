package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	"github.com/yuzvak/storefront-checkout/internal/config"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/gateway"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/http/server"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/monitoring"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/persistence/file"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/persistence/postgres"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/persistence/redis"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/scheduler"
	metricsserver "github.com/yuzvak/storefront-checkout/internal/infrastructure/server"
	"github.com/yuzvak/storefront-checkout/internal/pkg/clock"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	log := logger.NewLogger()
	log.Info("Starting storefront checkout service")

	cfg, configErr := config.LoadConfig(*configPath)
	if configErr != nil {
		log.Fatal("Failed to load configuration", "error", configErr)
	}
	log = logger.NewWithWriter(os.Stdout, logger.ParseLevel(strings.ToUpper(cfg.LogLevel)))

	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	gw, gwErr := gateway.NewClient(gateway.Config{
		BaseURL:         cfg.Gateway.BaseURL,
		Timeout:         cfg.Gateway.Timeout.Duration,
		DefaultCurrency: cfg.Gateway.DefaultCurrency,
		Breaker: gateway.BreakerConfig{
			MaxRequests:         cfg.Gateway.Breaker.MaxRequests,
			Interval:            cfg.Gateway.Breaker.Interval.Duration,
			OpenTimeout:         cfg.Gateway.Breaker.OpenTimeout.Duration,
			ConsecutiveFailures: cfg.Gateway.Breaker.ConsecutiveFailures,
		},
	}, nil, log)
	if gwErr != nil {
		log.Fatal("Failed to create gateway client", "error", gwErr)
	}

	var (
		cartStore   ports.CartStore
		redisClient *goredis.Client
	)
	if cfg.Redis.Enabled {
		redisConn, err := redis.NewConnection(serverCtx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer redisConn.Close()
		cartStore = redis.NewCartStore(redisConn)
		redisClient = redisConn.GetClient()
		log.Info("Using redis cart store", "address", cfg.Redis.Address())
	} else {
		fileStore, err := file.NewCartStore(cfg.Storage.DataDir)
		if err != nil {
			log.Fatal("Failed to open cart directory", "error", err)
		}
		cartStore = fileStore
		log.Info("Using file cart store", "dir", cfg.Storage.DataDir)
	}

	var (
		journal ports.CheckoutJournal = ports.NopJournal{}
		db      *sql.DB
	)
	if cfg.Database.Enabled {
		if err := postgres.RunMigrations(cfg.Database, log); err != nil {
			log.Fatal("Failed to run migrations", "error", err)
		}
		conn, err := postgres.NewConnection(serverCtx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", "error", err)
		}
		defer conn.Close()
		journal = postgres.NewJournalRepository(conn)
		db = conn.GetDB()
	}

	registry := use_cases.NewShopperRegistry(
		gw,
		cartStore,
		journal,
		monitoring.NewCheckoutMetrics(),
		clock.NewRealClock(),
		cfg.Gateway.DefaultCurrency,
		log,
	)

	metricsServer := metricsserver.SetupMetrics(serverCtx, cfg.Server.MetricsAddr, db)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("Metrics server failed", "error", err)
			}
		}()
	}

	janitor := scheduler.NewSessionJanitor(registry, log, cfg.Sessions.IdleTTL.Duration, cfg.Sessions.SweepInterval.Duration)
	go janitor.Start(serverCtx)

	httpServer := server.NewServer(cfg.Server, server.Dependencies{
		Gateway:  gw,
		Registry: registry,
		DB:       db,
		Redis:    redisClient,
	}, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-sigChan
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		log.Info("Shutting down server...")
		janitor.Stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				log.Error("Metrics server shutdown error", "error", err)
			}
		}
		serverStopCtx()
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed", "error", err)
	}

	<-shutdownDone
	log.Info("Server stopped")
}
