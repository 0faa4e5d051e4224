package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	ReviewsScrapedTotal prometheus.Counter
	ReviewsSkippedTotal prometheus.Counter
	PagesSkippedTotal   prometheus.Counter
	RetriesTotal        prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for review page requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	reviewsScraped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reviews_scraped_total",
			Help: "Total number of reviews extracted from review pages.",
		},
	)
	reviewsSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_reviews_skipped_total",
			Help: "Total number of review containers that failed extraction.",
		},
	)
	pagesSkipped := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_pages_skipped_total",
			Help: "Total number of review pages skipped after exhausting retries.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts issued.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)

	registry.MustRegister(requests, requestDuration, reviewsScraped, reviewsSkipped, pagesSkipped, retries, errorsTotal)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		ReviewsScrapedTotal: reviewsScraped,
		ReviewsSkippedTotal: reviewsSkipped,
		PagesSkippedTotal:   pagesSkipped,
		RetriesTotal:        retries,
		ErrorsTotal:         errorsTotal,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddReviews records extraction outcomes for one page.
func (m *Metrics) AddReviews(scraped, skipped int) {
	if m == nil {
		return
	}
	m.ReviewsScrapedTotal.Add(float64(scraped))
	m.ReviewsSkippedTotal.Add(float64(skipped))
}

// IncPagesSkipped increments the skipped pages counter.
func (m *Metrics) IncPagesSkipped() {
	if m == nil {
		return
	}
	m.PagesSkippedTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
