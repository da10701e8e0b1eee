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

	"github.com/urbanpizzeria/pos-backend/api/routes"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/internal/catalog"
	"github.com/urbanpizzeria/pos-backend/internal/cron"
	"github.com/urbanpizzeria/pos-backend/internal/orders"
	"github.com/urbanpizzeria/pos-backend/internal/promo"
	"github.com/urbanpizzeria/pos-backend/internal/tickets"
	"github.com/urbanpizzeria/pos-backend/pkg/config"
	"github.com/urbanpizzeria/pos-backend/pkg/db"
	"github.com/urbanpizzeria/pos-backend/pkg/logger"
	"github.com/urbanpizzeria/pos-backend/pkg/metrics"
	"github.com/urbanpizzeria/pos-backend/pkg/remote"
	"github.com/urbanpizzeria/pos-backend/pkg/scratchpad"
)

const drainLockKey = "pos:lock:order-drain"

func main() {
	logg := logger.New(logger.Options{ServiceName: "pos"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "pos",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := db.MaybeAutoMigrate(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run migrations", err)
		os.Exit(1)
	}

	padClient, err := scratchpad.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap scratchpad", err)
		os.Exit(1)
	}
	defer func() {
		if err := padClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing scratchpad", err)
		}
	}()

	remoteClient, err := remote.NewClient(cfg.Remote, logg)
	if err != nil {
		logg.Error(ctx, "failed to create remote client", err)
		os.Exit(1)
	}

	promoDay, err := cfg.Promo.Weekday()
	if err != nil {
		logg.Error(ctx, "invalid promotion day", err)
		os.Exit(1)
	}
	promoEngine, err := promo.NewEngine(promo.EngineParams{
		Day:      promoDay,
		Interval: cfg.Promo.RecheckInterval,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create promotion engine", err)
		os.Exit(1)
	}

	cartAggregator, err := cart.NewAggregator(cart.AggregatorParams{
		Overlay: promoEngine,
		Pad:     padClient,
		Repo:    cart.NewDraftRepository(dbClient.DB(), dbClient),
		Logger:  logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart aggregator", err)
		os.Exit(1)
	}
	promoEngine.OnChange(func() {
		cartAggregator.Reapply(context.Background())
	})
	if err := cartAggregator.Hydrate(ctx); err != nil {
		logg.Warn(ctx, "draft cart not restored: "+err.Error())
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Cache:  catalog.NewCacheRepository(dbClient),
		Remote: remoteClient,
		Purger: cartAggregator,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	defer catalogService.Close()

	ticketStore, err := tickets.NewStore(tickets.StoreParams{
		Pad:    padClient,
		Draft:  cartAggregator,
		Expiry: cfg.Tickets.Expiry,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create ticket store", err)
		os.Exit(1)
	}
	if err := ticketStore.Hydrate(ctx); err != nil {
		logg.Warn(ctx, "ticket queues not fully restored: "+err.Error())
	}

	drainLock, err := cron.NewRedisLock(padClient, drainLockKey, 0)
	if err != nil {
		logg.Error(ctx, "failed to create drain lock", err)
		os.Exit(1)
	}
	orderService, err := orders.NewService(orders.ServiceParams{
		Queue:  orders.NewQueueRepository(dbClient),
		Remote: remoteClient,
		Lock:   drainLock,
		Logger: logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create order service", err)
		os.Exit(1)
	}

	// Cache-first publish, then a background remote refresh that supersedes
	// it whenever it lands.
	if err := catalogService.Hydrate(ctx); err != nil {
		logg.Warn(ctx, "catalog cache not restored: "+err.Error())
	}
	go catalogService.Refresh(ctx)

	jobMetrics := metrics.NewJobMetrics(prometheus.DefaultRegisterer)
	sweeper, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(tickets.NewExpiryJob(ticketStore, jobMetrics)),
		Metrics:  jobMetrics,
		Interval: cfg.Tickets.SweepInterval,
	})
	if err != nil {
		logg.Error(ctx, "failed to create sweep service", err)
		os.Exit(1)
	}

	go func() {
		if err := promoEngine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "promotion recheck loop stopped", err)
		}
	}()
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "ticket sweep loop stopped", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	}), "starting pos server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg, logg, dbClient, padClient,
			catalogService, cartAggregator, promoEngine, ticketStore, orderService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "pos server stopped unexpectedly", err)
			os.Exit(1)
		}
	}
}
