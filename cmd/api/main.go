package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/literaryhaven-backend/api/routes"
	"github.com/angelmondragon/literaryhaven-backend/internal/cart"
	"github.com/angelmondragon/literaryhaven-backend/internal/checkout"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	"github.com/angelmondragon/literaryhaven-backend/internal/pricing"
	"github.com/angelmondragon/literaryhaven-backend/internal/products"
	"github.com/angelmondragon/literaryhaven-backend/internal/stock"
	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	"github.com/angelmondragon/literaryhaven-backend/pkg/db"
	"github.com/angelmondragon/literaryhaven-backend/pkg/instance"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	"github.com/angelmondragon/literaryhaven-backend/pkg/metrics"
	"github.com/angelmondragon/literaryhaven-backend/pkg/migrate"
	"github.com/angelmondragon/literaryhaven-backend/pkg/outbox"
	"github.com/angelmondragon/literaryhaven-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
		Env:         cfg.App.Env,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	policy := pricing.Policy{
		FreeShippingThreshold: cfg.Cart.Threshold(),
		FlatShippingFee:       cfg.Cart.ShippingFee(),
	}

	productRepo := products.NewRepository(dbClient.DB())
	productService, err := products.NewService(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	verifier, err := stock.NewVerifier(productRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock verifier", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(
		orders.NewRepository(dbClient.DB()),
		dbClient,
		outbox.NewService(outbox.NewRepository(dbClient.DB()), logg),
		orders.NewCounterNumberGenerator(redisClient, cfg.Checkout.OrderNumberPrefix),
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	cartStorage, err := cart.NewRedisStorage(redisClient, cfg.Cart.StorageTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart storage", err)
		os.Exit(1)
	}
	cartRegistry, err := cart.NewRegistry(cart.RegistryParams{
		Storage: cartStorage,
		KeyFor:  redisClient.CartKey,
		Policy:  policy,
		Logger:  logg,
		Metrics: metrics.NewCartMetrics(prometheus.DefaultRegisterer),
		IdleTTL: cfg.Cart.IdleTTL,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart registry", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Verifier: verifier,
		Orders:   ordersService,
		Policy:   policy,
		Logger:   logg,
		Metrics:  metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"addr":     addr,
		"instance": instance.ID(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:       dbClient,
			Cache:    redisClient,
			Products: productService,
			Carts:    cartRegistry,
			Checkout: checkoutService,
			Orders:   ordersService,
			Metrics:  promhttp.Handler(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}
