package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/heritageheaven/storefront-backend/internal/cron"
	"github.com/heritageheaven/storefront-backend/pkg/config"
	"github.com/heritageheaven/storefront-backend/pkg/db"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/metrics"
	"github.com/heritageheaven/storefront-backend/pkg/migrate"
	"github.com/heritageheaven/storefront-backend/pkg/outbox"
	"github.com/heritageheaven/storefront-backend/pkg/redis"
)

const serviceKind = "cron-worker"

const (
	day        = 24 * time.Hour
	jobTimeout = 10 * time.Minute
)

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceKind})
	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind
	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "serviceKind": serviceKind})

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	lock, err := cron.NewRedisLock(redisClient, cfg.App.Env, 0)
	if err != nil {
		return err
	}

	retention, err := cron.NewOutboxRetentionJob(cron.OutboxRetentionJobParams{
		Logger:          logg,
		DB:              dbClient,
		Repository:      outbox.NewRepository(dbClient.DB()),
		DLQ:             outbox.NewDLQRepository(dbClient.DB()),
		OutboxRetention: time.Duration(cfg.Outbox.RetentionDays) * day,
		DLQRetention:    time.Duration(cfg.Outbox.DLQRetentionDays) * day,
		MinAttempts:     cfg.Outbox.MaxAttempts,
	})
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(retention),
		Lock:       lock,
		Metrics:    metrics.NewJobMetrics(reg),
		Interval:   cfg.Outbox.PruneInterval,
		JobTimeout: jobTimeout,
	})
	if err != nil {
		return err
	}

	go func() {
		if err := metrics.Serve(ctx, cfg.App.WorkerMetricsAddr, reg, logg); err != nil {
			logg.Error(ctx, "metrics listener failed", err)
		}
	}()

	logg.Info(ctx, "starting cron worker")
	return service.Run(ctx)
}
