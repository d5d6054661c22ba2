package main

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftea/order-fulfillment/shared/config"
	"github.com/draftea/order-fulfillment/shared/infrastructure"
	"github.com/draftea/order-fulfillment/shared/saga"
	"github.com/draftea/order-fulfillment/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

func setup(ctx context.Context) (*Dependencies, error) {
	cfg, err := config.ReadConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	deps, err := BuildDependencies(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build dependencies")
	}

	deps.Logger.Info("starting",
		slog.String("service", cfg.ServiceName),
		slog.String("env", cfg.Env),
		slog.String("transport", cfg.Transport),
		slog.String("store", cfg.Store.Driver),
	)
	return deps, nil
}

func closeDependencies(deps *Dependencies) {
	if err := deps.Close(); err != nil {
		deps.Logger.Error("error closing dependencies", slog.Any("error", err))
	}
}

func runIntake(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeDependencies(deps)

	return serveHTTP(ctx, deps)
}

func runStage(ctx context.Context, name string) error {
	stage := saga.Stage(name)
	switch stage {
	case saga.StageInvoice, saga.StagePayment, saga.StageShipment, saga.StageNotification:
	default:
		return errors.Errorf("unknown stage %q", name)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeDependencies(deps)

	if deps.Config.Transport == config.TransportMemory {
		return errors.New("the memory transport only connects stages inside run-all")
	}

	wait, err := deps.StartStages(ctx, stage)
	if err != nil {
		return err
	}
	return wait()
}

func runAll(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup(ctx)
	if err != nil {
		return err
	}
	defer closeDependencies(deps)

	gr, ctx := errgroup.WithContext(ctx)

	wait, err := deps.StartStages(ctx, consumingStages()...)
	if err != nil {
		return err
	}
	gr.Go(wait)
	gr.Go(func() error {
		return serveHTTP(ctx, deps)
	})

	return gr.Wait()
}

func runMigrations() error {
	cfg, err := config.ReadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	logger := telemetry.NewLogger(
		telemetry.NewConfigForService(cfg.ServiceName, cfg.Env, "").WithLogLevel(cfg.LogLevel),
	)
	return infrastructure.MigrateUp(cfg.GetDatabaseURL(), logger)
}

// serveHTTP runs the intake server until ctx ends, then shuts it down.
func serveHTTP(ctx context.Context, deps *Dependencies) error {
	server := &http.Server{
		Addr:              ":" + deps.Config.Port,
		Handler:           setupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		deps.Logger.Info("http server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(err, "failed to start server")
		}
		return nil
	case <-ctx.Done():
	}

	deps.Logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}
	return nil
}

func setupRouter(deps *Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(telemetry.Middleware(deps.Telemetry))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Handle("/metrics", telemetry.MetricsHandler())

	deps.OrderHandlers.RegisterRoutes(r)

	return r
}
