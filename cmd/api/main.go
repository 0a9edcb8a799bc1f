package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/coverlane-ai/coverlane-backend/api/routes"
	"github.com/coverlane-ai/coverlane-backend/internal/providers"
	"github.com/coverlane-ai/coverlane-backend/internal/quotes"
	"github.com/coverlane-ai/coverlane-backend/internal/vehicles"
	"github.com/coverlane-ai/coverlane-backend/pkg/config"
	"github.com/coverlane-ai/coverlane-backend/pkg/logger"
	"github.com/coverlane-ai/coverlane-backend/pkg/metrics"
	"github.com/coverlane-ai/coverlane-backend/pkg/redis"
)

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

	aggMetrics := metrics.NewAggregatorMetrics(prometheus.DefaultRegisterer)

	var redisClient *redis.Client
	var cache quotes.Cache
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		cache = quotes.NewRedisCache(redisClient, logg)
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-memory quote cache")
		cache = quotes.NewMemoryCache()
	}

	vehicleLookup := vehicles.NewLookup()
	aggregator := quotes.NewAggregator(providers.Registry(), cfg.Quotes.ProviderTimeout, logg, aggMetrics)

	quoteService, err := quotes.NewService(quotes.ServiceParams{
		Aggregator: aggregator,
		Resolver:   vehicleLookup,
		Cache:      cache,
		CacheTTL:   cfg.Quotes.CacheTTL,
		Logger:     logg,
		Metrics:    aggMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create quote service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, quoteService, vehicleLookup),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
