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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/samcart-relay/api/routes"
	"github.com/angelmondragon/samcart-relay/internal/normalize"
	"github.com/angelmondragon/samcart-relay/internal/orders"
	samcartwebhook "github.com/angelmondragon/samcart-relay/internal/webhooks/samcart"
	"github.com/angelmondragon/samcart-relay/pkg/config"
	"github.com/angelmondragon/samcart-relay/pkg/env"
	"github.com/angelmondragon/samcart-relay/pkg/instance"
	"github.com/angelmondragon/samcart-relay/pkg/logger"
	"github.com/angelmondragon/samcart-relay/pkg/metrics"
	"github.com/angelmondragon/samcart-relay/pkg/redis"
	"github.com/angelmondragon/samcart-relay/pkg/security"
	"github.com/angelmondragon/samcart-relay/pkg/utmify"
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

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		redisClient *redis.Client
		guard       *samcartwebhook.IdempotencyGuard
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		guard, err = samcartwebhook.NewIdempotencyGuard(redisClient, cfg.Webhook.DedupeTTL, "")
		if err != nil {
			logg.Error(context.Background(), "failed to create idempotency guard", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(context.Background(), "redis not configured; duplicate notifications will be relayed again")
	}

	mapper, err := orders.NewMapper(orders.MapperParams{
		Normalizer:      normalize.New(logg),
		Logger:          logg,
		PlatformName:    cfg.SamCart.PlatformName,
		GatewayFeeRate:  cfg.Mapping.GatewayFeeRate,
		DefaultCurrency: cfg.Mapping.DefaultCurrency,
		DefaultCountry:  cfg.Mapping.DefaultCountry,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order mapper", err)
		os.Exit(1)
	}

	client, err := utmify.NewClient(cfg.Utmify, logg, utmify.WithMetrics(metrics.NewDeliveryMetrics(registry)))
	if err != nil {
		logg.Error(context.Background(), "failed to create utmify client", err)
		os.Exit(1)
	}

	service, err := samcartwebhook.NewService(samcartwebhook.ServiceParams{
		Mapper: mapper,
		Sender: client,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	allowUnsigned := !cfg.App.IsProd()
	verifier := security.NewSignatureVerifier(cfg.SamCart.WebhookSecret, allowUnsigned, logg)

	addr := ":" + env.First(cfg.App.Port, "PORT")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"instance":       instance.GetID(),
		"redis":          redisClient != nil,
		"retry_attempts": client.Policy().MaxAttempts,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, redisClient, registry, metrics.NewHTTPMetrics(registry), service, verifier, guard),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logg.Info(ctx, "api server shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err = server.Shutdown(shutdownCtx)
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	if err != nil {
		logg.Error(shutdownCtx, "error during shutdown", err)
		os.Exit(1)
	}
}
