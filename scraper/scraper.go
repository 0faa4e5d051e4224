package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/pipeline"
	"golang.org/x/sync/errgroup"
)

// Scraper drives review extraction for a list of products.
type Scraper struct {
	cfg     *config.Config
	fetcher *Fetcher
	Metrics *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	metrics := NewMetrics()
	return &Scraper{
		cfg:     cfg,
		fetcher: NewFetcher(cfg, metrics),
		Metrics: metrics,
	}, nil
}

// Run scrapes every product URL and streams the reviews through p, one
// product at a time. Products may run concurrently (cfg.Parallelism) but the
// pages of a single product are always fetched in order. Summaries keep the
// order of productURLs.
func (s *Scraper) Run(ctx context.Context, productURLs []string, p *pipeline.Pipeline) (*models.ScraperResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	results := make([]*ProductResult, len(productURLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for i, productURL := range productURLs {
		g.Go(func() error {
			res := s.ScrapeProduct(gctx, productURL)
			results[i] = res
			if p == nil || len(res.Reviews) == 0 {
				return nil
			}
			if err := p.Process(res.Reviews...); err != nil {
				return fmt.Errorf("process reviews for %s: %w", productURL, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &models.ScraperResult{
		StartTime:    start,
		EndTime:      time.Now(),
		Summaries:    make([]models.ProductSummary, 0, len(results)),
		ErrorCount:   s.fetcher.ErrorCount(),
		ErrorsByType: s.fetcher.ErrorsByType(),
		RetryCount:   s.fetcher.RetryCount(),
		RequestCount: s.fetcher.RequestCount(),
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		result.Reviews = append(result.Reviews, res.Reviews...)
		result.Skipped = append(result.Skipped, res.Skipped...)
		result.Summaries = append(result.Summaries, res.Summary)
		result.PagesSkipped += res.Summary.PagesSkipped
	}

	slog.Debug("scrape finished",
		slog.Int("products", len(result.Summaries)),
		slog.Int("reviews", len(result.Reviews)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Duration("elapsed", result.EndTime.Sub(result.StartTime)),
	)
	return result, nil
}
