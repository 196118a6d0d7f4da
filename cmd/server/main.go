package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/powerlaw-overtake/internal/api"
	"github.com/irfndi/powerlaw-overtake/internal/api/handlers"
	"github.com/irfndi/powerlaw-overtake/internal/config"
	"github.com/irfndi/powerlaw-overtake/internal/logging"
	"github.com/irfndi/powerlaw-overtake/internal/metrics"
	"github.com/irfndi/powerlaw-overtake/internal/services"
	"github.com/irfndi/powerlaw-overtake/internal/telemetry"
	"github.com/sirupsen/logrus"
)

const serviceName = "powerlaw-overtake"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel, cfg.Environment)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shutdown telemetry")
		}
	}()

	m := metrics.NewMetrics()

	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer comps.Close()

	service := services.NewOvertakeService(
		comps.source,
		services.DefaultAssets(),
		services.OvertakeConfig{
			HorizonYears: cfg.Model.HorizonYears,
			SMAPeriod:    cfg.Model.SMAPeriod,
			Files:        cfg.Data,
		},
		logger,
		m,
		telemetry.NewPipelineTracer(provider.TracerProvider()),
	)

	defaults := handlers.DefaultsFromConfig(cfg.Model)
	initial, err := defaults.Resolve(handlers.ParamsRequest{})
	if err != nil {
		return fmt.Errorf("invalid model defaults: %w", err)
	}
	dashboard := services.NewDashboard(ctx, service, logger, m)
	dashboard.Select(initial)

	deps := api.Dependencies{
		Runner:         service,
		Dashboard:      dashboard,
		Assets:         services.DefaultAssets(),
		Defaults:       defaults,
		Health:         handlers.NewHealthHandler(version, comps.checks),
		Metrics:        m,
		Logger:         logger,
		TracerProvider: provider.TracerProvider(),
		ServiceName:    serviceName,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if comps.rowCache != nil {
		deps.Cache = comps.rowCache
	}

	srv := newHTTPServer(cfg.Server, api.NewRouter(deps))
	if err := serve(ctx, srv, config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second), logger, cfg.Server.Port); err != nil {
		return err
	}

	dashboard.Wait()
	logger.Info("Server exited gracefully")
	return nil
}

func newHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       config.Duration(cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      config.Duration(cfg.WriteTimeout, 30*time.Second),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration, logger *logrus.Logger, port int) error {
	errCh := make(chan error, 1)
	go func() {
		logging.LogStartup(logger, serviceName, version, port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logging.LogShutdown(logger, serviceName, "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}
