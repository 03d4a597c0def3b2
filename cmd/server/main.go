package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/example/rolo/internal/auth"
	"github.com/example/rolo/internal/booking"
	"github.com/example/rolo/internal/config"
	"github.com/example/rolo/internal/dispatch"
	"github.com/example/rolo/internal/events"
	httpapi "github.com/example/rolo/internal/http"
	"github.com/example/rolo/internal/lifecycle"
	"github.com/example/rolo/internal/logging"
	"github.com/example/rolo/internal/payments"
	"github.com/example/rolo/internal/reconcile"
	"github.com/example/rolo/internal/session"
	"github.com/example/rolo/internal/storage"
)

func main() {
	dotenvErr := config.LoadDotEnv()
	cfg, err := config.LoadServerConfig()
	logger := logging.NewLogger(cfg.LogLevel, "rolo-api")
	if dotenvErr != nil {
		logger.Warn("could not load .env", "error", dotenvErr)
	}
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checks []func(context.Context) error

	var data storage.DataService
	if cfg.PGDSN != "" {
		pg, err := storage.NewPostgresStore(cfg.PGDSN)
		if err != nil {
			logger.Error("postgres unavailable", "error", err)
			os.Exit(1)
		}
		defer pg.Close()
		if cfg.RunMigrations {
			if err := migrate(ctx, pg, filepath.Join("migrations", "001_init.sql")); err != nil {
				logger.Error("migration failed", "error", err)
				os.Exit(1)
			}
			logger.Info("migration applied", "file", "001_init.sql")
		}
		checks = append(checks, pg.DB().PingContext)
		data = pg
	} else {
		logger.Warn("PG_DSN not set, using in-memory data service")
		data = storage.NewMemoryStore()
	}

	var sessionStore session.Store = session.NewMemoryStore()
	var stateStore booking.StateStore = booking.NewMemoryStateStore()
	var activity httpapi.ActivityReader
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		sessionStore = session.NewRedisStore(rdb)
		stateStore = booking.NewRedisStateStore(rdb, cfg.SessionTTL)
		activity = events.NewActivityFeed(rdb)
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	var checkout payments.Checkout
	if cfg.StripeAPIKey != "" {
		checkout = payments.NewStripeClient(cfg.StripeAPIKey, logger)
	} else {
		logger.Warn("STRIPE_API_KEY not set, payments are simulated")
		checkout = payments.NewFakeCheckout()
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	defer publisher.Close()

	sim := dispatch.NewSimulator()
	sim.Tick = cfg.SearchTick
	sim.Ticks = cfg.SearchTicks
	sim.AssignDelay = cfg.AssignDelay
	sim.TripDwell = cfg.TripDwell
	sim.Drivers = data
	sim.Logger = logger

	hub := dispatch.NewHub(logger)
	flows := booking.NewService(stateStore)
	orch := lifecycle.New(lifecycle.Deps{
		Data:       data,
		Flows:      flows,
		Reconciler: reconcile.New(data, logger),
		Checkout:   checkout,
		Search:     sim,
		Trips:      sim,
		Events:     publisher,
		Notifier:   hub,
		Logger:     logger,
		Currency:   cfg.PaymentCurrency,
	})
	runner := lifecycle.NewRunner(ctx, orch, logger)

	srv := httpapi.NewServer(httpapi.Deps{
		Auth:         auth.NewService(data),
		Sessions:     session.NewManager(sessionStore, cfg.JWTSecret, cfg.SessionTTL),
		Flows:        flows,
		Catalog:      booking.NewCatalog(data, cfg.AssumedDistanceKm, logger),
		Data:         data,
		Orchestrator: orch,
		Runner:       runner,
		Hub:          hub,
		Activity:     activity,
		Logger:       logger,
		CORSOrigins:  cfg.CORSOrigins,
		Ready: func(ctx context.Context) error {
			var errs []error
			for _, check := range checks {
				errs = append(errs, check(ctx))
			}
			return errors.Join(errs...)
		},
	})

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("rolo api listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	runner.Wait()
}

func migrate(ctx context.Context, pg *storage.PostgresStore, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = pg.DB().ExecContext(ctx, string(b))
	return err
}
