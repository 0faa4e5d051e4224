package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SentimentConfig holds configuration for the post sentiment collector.
type SentimentConfig struct {
	APIBaseURL        string        `yaml:"api_base_url"`
	BearerToken       string        `yaml:"-"` // credentials only come from the environment
	Query             string        `yaml:"query"`
	Count             int           `yaml:"count"`
	StartTime         time.Time     `yaml:"start_time"`
	EndTime           time.Time     `yaml:"end_time"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	SampleSize        int           `yaml:"sample_size"`
	DedupeMaxSize     int           `yaml:"dedupe_max_size"`
	Verbose           bool          `yaml:"verbose"`
}

// DefaultSentimentConfig returns the defaults for a single LEGO search.
func DefaultSentimentConfig() *SentimentConfig {
	return &SentimentConfig{
		APIBaseURL:        "https://api.twitter.com",
		Query:             "lego",
		Count:             200,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 1,
		SampleSize:        10,
		DedupeMaxSize:     10000,
	}
}

// Validate ensures all configuration values are coherent. Credentials are
// checked by the social client itself.
func (c *SentimentConfig) Validate() error {
	parsed, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("invalid api base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api base URL must include a host")
	}
	if strings.TrimSpace(c.Query) == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive")
	}
	if !c.StartTime.IsZero() && !c.EndTime.IsZero() && !c.StartTime.Before(c.EndTime) {
		return fmt.Errorf("start time must be before end time")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if c.SampleSize < 0 {
		return fmt.Errorf("sample size cannot be negative")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	return nil
}

// ApplyEnv reads credentials and overrides from the environment.
// SOCIAL_BEARER_TOKEN is the only source of the token.
func (c *SentimentConfig) ApplyEnv() error {
	if value, ok := EnvString("SOCIAL_BEARER_TOKEN"); ok {
		c.BearerToken = value
	}
	if value, ok := EnvString("SOCIAL_API_BASE_URL"); ok {
		c.APIBaseURL = value
	}
	if value, ok := EnvString("SENTIMENT_QUERY"); ok {
		c.Query = value
	}
	value, ok, err := EnvInt("SENTIMENT_COUNT")
	if err != nil {
		return err
	}
	if ok {
		c.Count = value
	}
	return nil
}
