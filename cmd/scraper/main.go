package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/logging"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/pipeline"
	"github.com/aluiziolira/go-scrape-reviews/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	cfg, err := baseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		return 1
	}

	flag.StringVar(&cfg.InputFile, "input", cfg.InputFile, "Product URL list (.csv or .xlsx)")
	flag.StringVar(&cfg.InputColumn, "column", cfg.InputColumn, "Column holding product URLs")
	flag.IntVar(&cfg.MaxPagesPerProduct, "pages", cfg.MaxPagesPerProduct, "Review pages per product (exclusive upper bound)")
	flag.IntVar(&cfg.Parallelism, "parallel", cfg.Parallelism, "Products scraped concurrently")
	flag.DurationVar(&cfg.RequestDelay, "delay", cfg.RequestDelay, "Delay before every request")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", cfg.RequestTimeout, "Per-request timeout")
	flag.Float64Var(&cfg.RequestsPerSecond, "rps", cfg.RequestsPerSecond, "Shared request rate cap (0 disables)")
	flag.IntVar(&cfg.MaxRetries, "max-retries", cfg.MaxRetries, "Attempts per page before it is skipped")
	flag.DurationVar(&cfg.RetryBackoff, "retry-backoff", cfg.RetryBackoff, "Initial backoff between attempts")
	flag.DurationVar(&cfg.RetryBackoffMax, "retry-backoff-max", cfg.RetryBackoffMax, "Maximum backoff between attempts")
	flag.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file path")
	flag.StringVar(&cfg.OutputFormat, "format", cfg.OutputFormat, "Output format: csv, json, dual, xlsx, or sqlite")
	flag.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")
	flag.Parse()
	cfg.OutputFormat = strings.ToLower(cfg.OutputFormat)

	logging.Setup(os.Stdout, cfg.Verbose)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	productURLs, err := pipeline.LoadProductURLs(cfg.InputFile, cfg.InputColumn)
	if err != nil {
		slog.Error("loading product urls", slog.Any("error", err))
		return 1
	}

	slog.Info("starting scrape",
		slog.String("input", cfg.InputFile),
		slog.Int("products", len(productURLs)),
		slog.Int("max_pages", cfg.MaxPagesPerProduct),
		slog.Int("workers", cfg.Parallelism),
	)

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		return 1
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, finishing current pages")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && s.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	// The pipeline outlives ctx so reviews scraped before a signal are
	// still written. One worker keeps rows in scrape order.
	p := pipeline.NewPipeline(context.Background(), writer, cfg)
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	startTime := time.Now()
	result, runErr := s.Run(ctx, productURLs, p)
	closeErr := p.Close()

	if runErr != nil || closeErr != nil {
		slog.Error("scraping failed", slog.Any("error", errors.Join(runErr, closeErr)))
		writer.Close()
		return 1
	}

	if sw, ok := writer.(pipeline.SummaryWriter); ok {
		if err := sw.WriteSummaries(result.Summaries); err != nil {
			slog.Error("writing product summaries", slog.Any("error", err))
			writer.Close()
			return 1
		}
	}

	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		writer.Close()
		return 1
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		return 1
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile, p.GetMetrics())
	return 0
}

// baseConfig layers the optional SCRAPER_CONFIG file and SCRAPER_* variables
// over the defaults. Flags are applied on top by run.
func baseConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path, ok := config.EnvString("SCRAPER_CONFIG"); ok {
		fileCfg, _, err := config.LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "dual":
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		return pipeline.NewDualWriter(base+".csv", base+".jsonl")
	case "xlsx":
		return pipeline.NewXLSXWriter(filename)
	case "sqlite":
		return pipeline.NewSQLiteWriter(filename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ScraperResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	written := int64(0)
	if processed, ok := metrics["processed_reviews"].(int64); ok {
		written = processed
	}

	for _, summary := range result.Summaries {
		name := summary.Product
		if name == "" {
			name = summary.ProductURL
		}
		fmt.Printf("\n  %s\n", name)
		if summary.Error != "" {
			fmt.Printf("    Error:              %s\n", summary.Error)
		}
		fmt.Printf("    Global ratings:     %d\n", summary.GlobalRatings)
		fmt.Printf("    Global reviews:     %d\n", summary.GlobalReviews)
		fmt.Printf("    Errors encountered: %d\n", summary.ErrorsEncountered)
		fmt.Printf("    Pages skipped:      %d\n", summary.PagesSkipped)
		fmt.Printf("    Reviews scraped:    %d\n", summary.ReviewsScraped)
		fmt.Printf("    Reviews skipped:    %d\n", summary.ReviewsSkipped)
		fmt.Printf("    Stopped:            %s\n", summary.StopReason)
	}

	fmt.Println()
	fmt.Printf("  Products:      %d\n", len(result.Summaries))
	fmt.Printf("  Reviews:       %d (written %d)\n", len(result.Reviews), written)
	fmt.Printf("  Skipped:       %d reviews, %d pages\n", len(result.Skipped), result.PagesSkipped)
	successRate := 0.0
	if result.RequestCount > 0 {
		successRate = float64(result.RequestCount-result.ErrorCount) / float64(result.RequestCount) * 100
	}
	fmt.Printf("  Success rate:  %.2f%%\n", successRate)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}
