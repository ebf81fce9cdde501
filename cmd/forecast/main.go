// Command forecast runs a single forecast for one symbol and prints
// the result, without starting the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"pricecast/internal/app"
	"pricecast/internal/config"
	"pricecast/internal/datasource"
	"pricecast/internal/exporter"
	"pricecast/internal/forecast"
	"pricecast/internal/infrastructure"
	"pricecast/internal/pipeline"
	"pricecast/internal/services"
)

const dateLayout = "2006-01-02"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		symbol  = flag.String("symbol", "", "ticker symbol to forecast (required)")
		start   = flag.String("start", "", "history start date, YYYY-MM-DD (required)")
		end     = flag.String("end", "", "history end date, YYYY-MM-DD (required)")
		horizon = flag.Int("horizon", 0, "forecast steps (default from config)")
		seed    = flag.Int64("seed", 0, "random seed (default from config)")
	)
	flag.Parse()

	if *symbol == "" || *start == "" || *end == "" {
		flag.Usage()
		return fmt.Errorf("symbol, start and end are required")
	}

	startDate, err := time.Parse(dateLayout, *start)
	if err != nil {
		return fmt.Errorf("parse start date: %w", err)
	}
	endDate, err := time.Parse(dateLayout, *end)
	if err != nil {
		return fmt.Errorf("parse end date: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, closer, err := infrastructure.NewLogger(infrastructure.LoggingSettings{
		Level:    cfg.Logging.Level,
		Output:   cfg.Logging.Output,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	provider, err := newProvider(cfg.Data)
	if err != nil {
		return err
	}

	renderers := []exporter.Renderer{
		exporter.NewJSONRenderer(cfg.Data.ReportDir),
		exporter.NewXLSXRenderer(cfg.Data.ReportDir),
	}

	service := services.NewForecastService(
		provider,
		renderers,
		pipeline.NewSlogObserver(logger),
		cfg.Forecast,
		logger,
	)

	report, err := service.Run(context.Background(), pipeline.Request{
		Symbol:  *symbol,
		Start:   startDate,
		End:     endDate,
		Horizon: *horizon,
		Seed:    *seed,
	})
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

func newProvider(cfg config.DataConfig) (datasource.Provider, error) {
	switch cfg.Provider {
	case "yahoo":
		return datasource.NewYahooProvider(), nil
	case "csv":
		return datasource.NewCSVProvider(cfg.CSVDir), nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.Provider)
	}
}

func printReport(report *forecast.Report) {
	fmt.Printf("Run %s for %s (version %s)\n", report.RunID, report.Symbol, app.Version)
	fmt.Println(report.Summary)
	if len(report.Combined) == 0 {
		return
	}

	fmt.Println("\nCombined forecast:")
	for _, p := range report.Combined {
		fmt.Printf("  %s  %.4f\n", p.Date.Format(dateLayout), p.Value)
	}
}
