// Package app assembles the forecasting service: configuration,
// logging, data provider selection, pipeline wiring and the HTTP
// server with graceful shutdown.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"pricecast/internal/config"
	"pricecast/internal/datasource"
	"pricecast/internal/exporter"
	"pricecast/internal/infrastructure"
	"pricecast/internal/metrics"
	"pricecast/internal/pipeline"
	"pricecast/internal/services"
	handlers "pricecast/internal/transport/http"
)

// Version is set at compile time via -ldflags.
var Version = "dev"

// Application is the dependency container for the forecasting service.
type Application struct {
	Config          *config.Config
	Logger          *slog.Logger
	Server          *http.Server
	ForecastService *services.ForecastService
	HealthService   *services.HealthService
	Registry        *prometheus.Registry

	logCloser io.Closer
}

// NewApplication wires all dependencies from the loaded configuration.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, closer, err := infrastructure.NewLogger(infrastructure.LoggingSettings{
		Level:    cfg.Logging.Level,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port),
		slog.String("provider", cfg.Data.Provider))

	provider, err := newProvider(cfg.Data)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, err
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	observer := pipeline.NewMultiObserver(
		pipeline.NewSlogObserver(logger),
		metrics.NewObserver(recorder),
	)

	renderers := []exporter.Renderer{
		exporter.NewJSONRenderer(cfg.Data.ReportDir),
		exporter.NewXLSXRenderer(cfg.Data.ReportDir),
	}

	forecastService := services.NewForecastService(provider, renderers, observer, cfg.Forecast, logger)
	healthService := services.NewHealthService(provider, forecastService)

	router := handlers.NewRouter(handlers.RouterDeps{
		Forecast: handlers.NewForecastHandler(forecastService, logger),
		Health:   handlers.NewHealthHandler(healthService, logger),
		Config:   cfg.Server,
		Registry: registry,
		Logger:   logger,
	})

	app := &Application{
		Config:          cfg,
		Logger:          logger,
		ForecastService: forecastService,
		HealthService:   healthService,
		Registry:        registry,
		logCloser:       closer,
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
	return app, nil
}

// newProvider selects the price data provider named in configuration.
func newProvider(cfg config.DataConfig) (datasource.Provider, error) {
	switch cfg.Provider {
	case "yahoo":
		return datasource.NewYahooProvider(), nil
	case "csv":
		return datasource.NewCSVProvider(cfg.CSVDir), nil
	case "static":
		return datasource.NewStatic(), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.Provider)
	}
}

// Run starts the HTTP server and blocks until an interrupt arrives,
// then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "http server listening",
			slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
		_ = a.Stop(ctx)
		return err
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "shutdown signal received",
			slog.String("signal", sig.String()))
	}

	return a.Stop(ctx)
}

// Stop shuts the server down within the configured shutdown timeout.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	err := a.Server.Shutdown(shutdownCtx)
	if err != nil {
		a.Logger.ErrorContext(ctx, "shutdown error", slog.String("error", err.Error()))
	} else {
		a.Logger.InfoContext(ctx, "server stopped")
	}

	if a.logCloser != nil {
		a.logCloser.Close()
	}
	return err
}
