package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/logging"
	"github.com/aluiziolira/go-scrape-reviews/sentiment"
	"github.com/aluiziolira/go-scrape-reviews/social"
	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	// A missing .env is fine; the token may already be exported.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		return 1
	}

	cfg, err := baseConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		return 1
	}

	var since, until string
	flag.StringVar(&cfg.Query, "query", cfg.Query, "Search query")
	flag.IntVar(&cfg.Count, "count", cfg.Count, "Number of posts to fetch")
	flag.StringVar(&since, "since", "", "Only posts after this date (YYYY-MM-DD or RFC 3339)")
	flag.StringVar(&until, "until", "", "Only posts before this date (YYYY-MM-DD or RFC 3339)")
	flag.IntVar(&cfg.SampleSize, "sample", cfg.SampleSize, "Sample posts printed per label")
	flag.Float64Var(&cfg.RequestsPerSecond, "rps", cfg.RequestsPerSecond, "API request rate cap")
	flag.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")
	flag.Parse()

	logging.Setup(os.Stderr, cfg.Verbose)

	if since != "" {
		if cfg.StartTime, err = parseDate(since); err != nil {
			slog.Error("invalid -since", slog.Any("error", err))
			return 1
		}
	}
	if until != "" {
		if cfg.EndTime, err = parseDate(until); err != nil {
			slog.Error("invalid -until", slog.Any("error", err))
			return 1
		}
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		return 1
	}

	client, err := social.NewClient(
		social.Credentials{BearerToken: cfg.BearerToken},
		social.WithBaseURL(cfg.APIBaseURL),
		social.WithRateLimit(cfg.RequestsPerSecond),
		social.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		slog.Error("creating social client", slog.Any("error", err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	collector := sentiment.NewCollector(client, sentiment.NewClassifier(nil), cfg.DedupeMaxSize)
	records, err := collector.Collect(ctx, social.SearchOptions{
		Query:     cfg.Query,
		Count:     cfg.Count,
		StartTime: cfg.StartTime,
		EndTime:   cfg.EndTime,
	})
	if err != nil {
		slog.Error("collecting posts", slog.Any("error", err))
		return 1
	}

	report := sentiment.Summarize(records, cfg.SampleSize)
	if err := report.Print(os.Stdout); err != nil {
		slog.Error("printing report", slog.Any("error", err))
		return 1
	}
	return 0
}

func baseConfig() (*config.SentimentConfig, error) {
	cfg := config.DefaultSentimentConfig()
	if path, ok := config.EnvString("SCRAPER_CONFIG"); ok {
		_, fileCfg, err := config.LoadFile(path)
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

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
