package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/heritageheaven/storefront-backend/api/controllers"
	ordercontrollers "github.com/heritageheaven/storefront-backend/api/controllers/orders"
	"github.com/heritageheaven/storefront-backend/api/routes"
	"github.com/heritageheaven/storefront-backend/internal/auth"
	"github.com/heritageheaven/storefront-backend/internal/cart"
	"github.com/heritageheaven/storefront-backend/internal/checkout"
	"github.com/heritageheaven/storefront-backend/internal/cron"
	"github.com/heritageheaven/storefront-backend/internal/notifications"
	"github.com/heritageheaven/storefront-backend/internal/orders"
	"github.com/heritageheaven/storefront-backend/pkg/auth/session"
	"github.com/heritageheaven/storefront-backend/pkg/commerce"
	"github.com/heritageheaven/storefront-backend/pkg/config"
	"github.com/heritageheaven/storefront-backend/pkg/db"
	"github.com/heritageheaven/storefront-backend/pkg/logger"
	"github.com/heritageheaven/storefront-backend/pkg/mailer"
	"github.com/heritageheaven/storefront-backend/pkg/metrics"
	"github.com/heritageheaven/storefront-backend/pkg/migrate"
	"github.com/heritageheaven/storefront-backend/pkg/outbox"
	"github.com/heritageheaven/storefront-backend/pkg/redis"
	"github.com/heritageheaven/storefront-backend/pkg/types"
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
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	sessionManager, err := session.NewManager(redisClient)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	jobMetrics := metrics.NewJobMetrics(reg)

	health := map[string]controllers.Pinger{"redis": redisClient}

	var (
		recorder checkout.Recorder = checkout.DirectRecorder{}
		archive  ordercontrollers.Archive
		marker   notifications.InvoiceMarker
	)
	if cfg.FeatureFlags.OrderArchive {
		dbClient, dbErr := db.New(ctx, cfg.DB, logg)
		if dbErr != nil {
			return dbErr
		}
		defer func() { err = multierr.Append(err, dbClient.Close()) }()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		publisher := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
		orderService, ordersErr := orders.NewService(orders.NewRepository(dbClient.DB()), dbClient, publisher)
		if ordersErr != nil {
			return ordersErr
		}
		recorder = orderService
		archive = orderService
		marker = orderService
		health["database"] = dbClient
	}

	cartRepo, err := cart.NewRedisRepository(redisClient)
	if err != nil {
		return err
	}
	carts, err := cart.NewRegistry(cartRepo, cfg.HTTP.SessionIdleTTL)
	if err != nil {
		return err
	}

	pending, err := notifications.NewPendingStore(redisClient)
	if err != nil {
		return err
	}
	ids, err := checkout.NewCounterIDs(redisClient)
	if err != nil {
		return err
	}
	flows, err := checkout.NewRegistry(checkout.Deps{
		Carts:    carts,
		Auth:     sessionManager,
		IDs:      ids,
		Recorder: recorder,
		Sinks:    []checkout.OrderSink{pending},
		Logger:   logg,
	}, cfg.HTTP.SessionIdleTTL,
		checkout.MetricsListener(checkoutMetrics),
		checkout.LoggingListener(logg),
	)
	if err != nil {
		return err
	}

	commerceClient := commerce.NewClient(cfg.Commerce.BaseURL, commerce.WithTimeout(cfg.Commerce.Timeout))
	authService, err := auth.NewService(commerceClient, sessionManager)
	if err != nil {
		return err
	}

	dispatcher, err := notifications.NewService(notifications.Options{
		Relay:   mailer.New(cfg.Sendgrid, logg),
		Pending: pending,
		Merchant: types.MerchantProfile{
			Name:    cfg.Merchant.Name,
			Address: cfg.Merchant.Address,
			Contact: cfg.Merchant.Contact,
		},
		Timeout: cfg.Checkout.DispatchTimeout,
		Archive: marker,
		Metrics: checkoutMetrics,
		Logger:  logg,
	})
	if err != nil {
		return err
	}

	sweepJob, err := cron.NewSessionSweepJob(logg, map[string]cron.Sweeper{
		"carts":     carts,
		"checkouts": flows,
	})
	if err != nil {
		return err
	}
	sweeper, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob),
		Metrics:  jobMetrics,
		Interval: cfg.HTTP.SweepInterval,
	})
	if err != nil {
		return err
	}
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "session sweeper stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Auth:       authService,
			Catalog:    commerceClient,
			Carts:      carts,
			Checkouts:  flows,
			Dispatcher: dispatcher,
			Archive:    archive,
			Throttle:   redisClient,
			Health:     health,
			Gatherer:   reg,
			Requests:   metrics.NewHTTPMetrics(reg),
		}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"order_archive": cfg.FeatureFlags.OrderArchive,
	})
	logg.Info(logCtx, "starting api server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
