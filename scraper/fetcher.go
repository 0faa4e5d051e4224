package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// FetchResult is the outcome of fetching one review page. Document is nil
// only when every attempt failed (Attempts == MaxRetries) or the context was
// cancelled.
type FetchResult struct {
	Document *goquery.Document
	Attempts int
	Err      error
}

// Fetcher retrieves and parses review pages, retrying transient failures.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	limiter   *rate.Limiter
	metrics   *Metrics

	requestCount int64
	retryCount   int64
	errorCount   int64

	mu           sync.Mutex
	errorsByType map[string]int
}

// NewFetcher builds a fetcher whose collector carries the configured user
// agent and timeout. Requests share one HTTP backend.
func NewFetcher(cfg *config.Config, metrics *Metrics) *Fetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.RequestTimeout)
	collector.IgnoreRobotsTxt = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Fetcher{
		cfg:          cfg,
		collector:    collector,
		limiter:      limiter,
		metrics:      metrics,
		errorsByType: make(map[string]int),
	}
}

// Fetch retrieves pageURL, trying up to MaxRetries times. The first
// successful attempt wins; Attempts counts the failures before it.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) FetchResult {
	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			atomic.AddInt64(&f.retryCount, 1)
			f.metrics.IncRetries()
			if err := sleepContext(ctx, f.backoff(attempt)); err != nil {
				return FetchResult{Attempts: attempt, Err: err}
			}
		}
		if err := f.wait(ctx); err != nil {
			return FetchResult{Attempts: attempt, Err: err}
		}

		doc, err := f.fetchOnce(pageURL)
		if err == nil {
			return FetchResult{Document: doc, Attempts: attempt}
		}
		lastErr = err
		f.recordError(err)
		slog.Warn("review page request failed",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", f.cfg.MaxRetries),
			slog.Any("error", err),
		)
	}

	slog.Error("review page failed on every attempt, moving on",
		slog.String("url", pageURL),
		slog.Int("attempts", f.cfg.MaxRetries),
	)
	return FetchResult{Attempts: f.cfg.MaxRetries, Err: lastErr}
}

func (f *Fetcher) fetchOnce(pageURL string) (*goquery.Document, error) {
	c := f.collector.Clone()

	var (
		body       []byte
		statusCode int
		reqErr     error
	)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", f.cfg.AcceptLanguage)
		r.Ctx.Put("start", time.Now())
		atomic.AddInt64(&f.requestCount, 1)
		f.metrics.IncRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		body = r.Body
		if start, ok := r.Request.Ctx.GetAny("start").(time.Time); ok {
			f.metrics.ObserveDuration(time.Since(start))
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		reqErr = err
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if err := c.Visit(pageURL); err != nil && reqErr == nil {
		reqErr = err
	}
	if classified := classifyError(reqErr, statusCode); classified != nil {
		return nil, classified
	}
	if statusCode == 0 {
		return nil, fmt.Errorf("no response for %s", pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// wait applies the fixed courtesy delay and, when configured, the shared
// request rate cap.
func (f *Fetcher) wait(ctx context.Context) error {
	if err := sleepContext(ctx, f.cfg.RequestDelay); err != nil {
		return err
	}
	if f.limiter != nil {
		return f.limiter.Wait(ctx)
	}
	return nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	base := f.cfg.RetryBackoff
	if base <= 0 || attempt <= 0 {
		return 0
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (f *Fetcher) recordError(err error) {
	atomic.AddInt64(&f.errorCount, 1)
	category := errorTypeLabel(err)

	f.mu.Lock()
	f.errorsByType[category]++
	f.mu.Unlock()

	f.metrics.IncError(category)
}

// RequestCount returns the number of HTTP requests issued.
func (f *Fetcher) RequestCount() int {
	return int(atomic.LoadInt64(&f.requestCount))
}

// RetryCount returns the number of retries issued.
func (f *Fetcher) RetryCount() int {
	return int(atomic.LoadInt64(&f.retryCount))
}

// ErrorCount returns the number of failed attempts.
func (f *Fetcher) ErrorCount() int {
	return int(atomic.LoadInt64(&f.errorCount))
}

// ErrorsByType returns a snapshot of failed attempts per error label.
func (f *Fetcher) ErrorsByType() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		out[k] = v
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
