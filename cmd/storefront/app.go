package main

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuzvak/storefront-checkout/internal/application/ports"
	"github.com/yuzvak/storefront-checkout/internal/application/use_cases"
	"github.com/yuzvak/storefront-checkout/internal/config"
	"github.com/yuzvak/storefront-checkout/internal/domain/cart"
	"github.com/yuzvak/storefront-checkout/internal/domain/pricing"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/gateway"
	"github.com/yuzvak/storefront-checkout/internal/infrastructure/persistence/file"
	"github.com/yuzvak/storefront-checkout/internal/pkg/clock"
	"github.com/yuzvak/storefront-checkout/internal/pkg/logger"
)

// app carries what every command shares. Flags are bound onto cfg.
type app struct {
	out     io.Writer
	cfg     *config.Config
	locale  string
	verbose bool
	clock   clock.Clock
}

func newApp(out io.Writer, lookupEnv func(string) (string, bool)) *app {
	cfg := config.Default()
	cfg.ApplyEnv(lookupEnv)
	return &app{
		out:    out,
		cfg:    cfg,
		locale: pricing.DefaultLocale,
		clock:  clock.NewRealClock(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the catalog and manage the local cart",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfg.Gateway.BaseURL, "api-base-url", a.cfg.Gateway.BaseURL, "Transaction API base URL (env "+config.EnvAPIBaseURL+")")
	flags.StringVar(&a.cfg.Storage.DataDir, "data-dir", a.cfg.Storage.DataDir, "Directory holding the local cart")
	flags.StringVar(&a.cfg.Gateway.DefaultCurrency, "currency", a.cfg.Gateway.DefaultCurrency, "Currency assumed when the API omits one")
	flags.StringVar(&a.locale, "locale", a.locale, "Display locale for prices (es-CO, en-US)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Log to stderr")

	rootCmd.AddCommand(productsCmd(a))
	rootCmd.AddCommand(cartCmd(a))
	rootCmd.AddCommand(validateCmd(a))

	return rootCmd
}

func (a *app) logger(cmd *cobra.Command) *logger.Logger {
	if !a.verbose {
		return logger.Nop()
	}
	return logger.NewWithWriter(cmd.ErrOrStderr(), logger.LevelDebug)
}

func (a *app) gateway(cmd *cobra.Command) (ports.Gateway, error) {
	timeout := a.cfg.Gateway.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return gateway.NewClient(gateway.Config{
		BaseURL:         strings.TrimSpace(a.cfg.Gateway.BaseURL),
		Timeout:         timeout,
		DefaultCurrency: a.cfg.Gateway.DefaultCurrency,
	}, nil, a.logger(cmd))
}

func (a *app) cart(ctx context.Context, cmd *cobra.Command) (*use_cases.CartService, error) {
	store, err := file.NewCartStore(a.cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	return use_cases.NewCartService(ctx, store, cart.StorageKey, a.cfg.Gateway.DefaultCurrency, ports.NopMetrics{}, a.logger(cmd)), nil
}
