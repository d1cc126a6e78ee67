// Package main is the entry point for the health gate service. It wires all
// dependencies using samber/do v2, runs the blocking startup health pass,
// starts the background scheduler and the HTTP probe server, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	adapthttp "github.com/jsamuelsen11/healthgate/internal/adapters/http"
	"github.com/jsamuelsen11/healthgate/internal/adapters/http/handlers"
	"github.com/jsamuelsen11/healthgate/internal/adapters/http/middleware"

	"github.com/jsamuelsen11/healthgate/internal/adapters/checks"
	"github.com/jsamuelsen11/healthgate/internal/platform/config"
	"github.com/jsamuelsen11/healthgate/internal/platform/health"
	"github.com/jsamuelsen11/healthgate/internal/platform/httpclient"
	"github.com/jsamuelsen11/healthgate/internal/platform/logging"
	"github.com/jsamuelsen11/healthgate/internal/platform/telemetry"
	"github.com/jsamuelsen11/healthgate/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	startupTimeout        = 60 * time.Second
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, dev, qa, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register checks before startup; registration after Startup is an error.
	runtime := do.MustInvoke[*health.Runtime](injector)
	backend := do.MustInvoke[*httpclient.Client](injector)

	if err := runtime.Add(checks.NewBackend(backend)); err != nil {
		return fmt.Errorf("registering backend check: %w", err)
	}
	if err := runtime.Add(checks.NewMemory()); err != nil {
		return fmt.Errorf("registering memory check: %w", err)
	}

	// Blocking startup pass: resolve options, then evaluate every
	// startup-blocking check sequentially. A failure here aborts the process
	// before the probe server ever reports ready.
	startupCtx, startupCancel := context.WithTimeout(ctx, startupTimeout)
	err = runtime.Startup(startupCtx)
	startupCancel()
	if err != nil {
		return fmt.Errorf("startup health pass: %w", err)
	}

	// Background scheduler: one evaluation loop per check until shutdown.
	schedCtx, schedCancel := context.WithCancel(ctx)
	defer schedCancel()

	schedDone := make(chan error, 1)
	go func() {
		schedDone <- runtime.Run(schedCtx)
	}()

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: stop scheduling new evaluations, then drain HTTP.
	schedCancel()
	if err := <-schedDone; err != nil {
		logger.Error("scheduler stopped with error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Client, "backend-api", metrics, logger), nil
	})

	do.Provide(injector, func(_ do.Injector) (*health.Registry, error) {
		return health.NewRegistry(), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.StateReader, error) {
		return do.MustInvoke[*health.Registry](i), nil
	})

	do.Provide(injector, func(_ do.Injector) (*health.Resolver, error) {
		return health.NewResolver(cfg.Health), nil
	})

	do.Provide(injector, func(i do.Injector) (*health.Runtime, error) {
		registry := do.MustInvoke[*health.Registry](i)
		resolver := do.MustInvoke[*health.Resolver](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return health.NewRuntime(registry, resolver, logger, metrics), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		state := do.MustInvoke[ports.StateReader](i)
		return handlers.NewHealthHandler(state), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		return adapthttp.NewRouter(healthH,
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
