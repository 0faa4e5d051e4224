// Package social is a small client for the Twitter v2 recent search API.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/models"
	"golang.org/x/time/rate"
)

const (
	searchPath     = "/2/tweets/search/recent"
	maxAttempts    = 3
	minPageResults = 10
	maxPageResults = 100
)

var (
	// ErrMissingCredentials is returned by NewClient without a bearer token.
	ErrMissingCredentials = errors.New("social: missing bearer token")
	// ErrUnauthorized is returned when the API rejects the credentials.
	ErrUnauthorized = errors.New("social: unauthorized")
	// ErrRateLimited is returned when the API keeps answering 429.
	ErrRateLimited = errors.New("social: rate limited")
	// ErrAPIFailure wraps every other unsuccessful API response.
	ErrAPIFailure = errors.New("social: api failure")
)

// Credentials authenticate against the search API.
type Credentials struct {
	BearerToken string
}

// SearchOptions describe one search. Count is the total number of posts
// wanted across pages. Zero times are omitted from the request.
type SearchOptions struct {
	Query     string
	Count     int
	StartTime time.Time
	EndTime   time.Time
}

// Client issues authenticated search requests.
type Client struct {
	httpClient   *http.Client
	token        string
	baseURL      string
	limiter      *rate.Limiter
	retryBackoff time.Duration
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL points the client at another API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithRateLimit caps requests per second. Zero or less disables the cap.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryBackoff sets the base delay between attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.retryBackoff = d
	}
}

// NewClient validates creds and builds a client.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(creds.BearerToken)
	if token == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		token:        token,
		baseURL:      "https://api.twitter.com",
		limiter:      rate.NewLimiter(rate.Limit(1), 1),
		retryBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type searchResponse struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount int `json:"retweet_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
	Errors []struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Search pages through results until opts.Count posts are collected or the
// API has no more. Any failure aborts the search and is returned.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]models.Post, error) {
	if strings.TrimSpace(opts.Query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrAPIFailure)
	}
	if opts.Count <= 0 {
		return nil, nil
	}

	posts := make([]models.Post, 0, opts.Count)
	nextToken := ""
	for len(posts) < opts.Count {
		page, err := c.searchPage(ctx, opts, opts.Count-len(posts), nextToken)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			posts = append(posts, models.Post{
				ID:           item.ID,
				Text:         item.Text,
				CreatedAt:    item.CreatedAt,
				RetweetCount: item.PublicMetrics.RetweetCount,
			})
		}
		slog.Debug("search page fetched",
			slog.String("query", opts.Query),
			slog.Int("results", len(page.Data)),
			slog.Int("total", len(posts)),
		)
		if page.Meta.NextToken == "" || len(page.Data) == 0 {
			break
		}
		nextToken = page.Meta.NextToken
	}

	if len(posts) > opts.Count {
		posts = posts[:opts.Count]
	}
	return posts, nil
}

func (c *Client) searchPage(ctx context.Context, opts SearchOptions, remaining int, nextToken string) (*searchResponse, error) {
	params := url.Values{}
	params.Set("query", opts.Query)
	params.Set("max_results", strconv.Itoa(clamp(remaining, minPageResults, maxPageResults)))
	params.Set("tweet.fields", "created_at,public_metrics")
	if !opts.StartTime.IsZero() {
		params.Set("start_time", opts.StartTime.UTC().Format(time.RFC3339))
	}
	if !opts.EndTime.IsZero() {
		params.Set("end_time", opts.EndTime.UTC().Format(time.RFC3339))
	}
	if nextToken != "" {
		params.Set("next_token", nextToken)
	}
	reqURL := c.baseURL + searchPath + "?" + params.Encode()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, time.Duration(attempt-1)*c.retryBackoff); err != nil {
				return nil, err
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		page, retry, err := c.do(ctx, reqURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !retry {
			return nil, err
		}
		slog.Warn("search request failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Any("error", err),
		)
	}
	return nil, lastErr
}

// do performs one request. The bool reports whether the failure is worth
// retrying.
func (c *Client) do(ctx context.Context, reqURL string) (*searchResponse, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: %v", ErrAPIFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("%w: read body: %v", ErrAPIFailure, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ErrAPIFailure, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrAPIFailure, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var page searchResponse
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %v", ErrAPIFailure, err)
	}
	if len(page.Data) == 0 && len(page.Errors) > 0 {
		return nil, false, fmt.Errorf("%w: %s: %s", ErrAPIFailure, page.Errors[0].Title, page.Errors[0].Detail)
	}
	return &page, false, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func sleep(ctx context.Context, d time.Duration) error {
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
