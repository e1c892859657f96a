package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/honeybadger0tter/mytropx-demo/api/routes"
	cartsvc "github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	checkoutsvc "github.com/honeybadger0tter/mytropx-demo/internal/checkout"
	"github.com/honeybadger0tter/mytropx-demo/pkg/config"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
	"github.com/honeybadger0tter/mytropx-demo/pkg/metrics"
	"github.com/honeybadger0tter/mytropx-demo/pkg/redis"
	"github.com/honeybadger0tter/mytropx-demo/pkg/stripe"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	// Prices serialize as JSON numbers, matching the storefront client.
	decimal.MarshalJSONWithoutQuotes = true

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	provider, err := loadCatalog(cfg)
	if err != nil {
		logg.Error(context.Background(), "failed to load catalog", err)
		os.Exit(1)
	}

	var cartStore cartsvc.Store
	var cartPinger redis.Pinger
	if cfg.Redis.Configured() {
		redisClient, err := redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		store, err := cartsvc.NewRedisStore(redisClient, cfg.Cart.TTL)
		if err != nil {
			logg.Error(context.Background(), "failed to build cart store", err)
			os.Exit(1)
		}
		cartStore = store
		cartPinger = redisClient
	} else {
		logg.Warn(context.Background(), "no redis configured, carts live in process memory")
		cartStore = cartsvc.NewMemoryStore()
	}

	cartService, err := cartsvc.NewService(cartStore, provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(
		checkoutsvc.NewSessionClient(stripeClient),
		provider,
		cfg.Checkout,
		cfg.App.Origin,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"demo":     stripeClient.DemoMode(),
		"products": len(provider.List()),
	})
	logg.Info(ctx, "starting storefront api")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, httpMetrics, registry, cartPinger, provider, cartService, checkoutService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func loadCatalog(cfg *config.Config) (catalog.Provider, error) {
	if cfg.Catalog.Path != "" {
		return catalog.LoadFromFile(cfg.Catalog.Path)
	}
	return catalog.Default(), nil
}
