package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds review scraper configuration.
type Config struct {
	InputFile          string        `yaml:"input_file"`
	InputColumn        string        `yaml:"input_column"`
	MaxPagesPerProduct int           `yaml:"max_pages_per_product"` // exclusive upper bound on page numbers
	Parallelism        int           `yaml:"parallelism"`
	RequestDelay       time.Duration `yaml:"request_delay"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	RequestsPerSecond  float64       `yaml:"requests_per_second"` // 0 disables the shared cap
	MaxRetries         int           `yaml:"max_retries"`         // attempts per page before it is skipped
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax    time.Duration `yaml:"retry_backoff_max"`
	UserAgent          string        `yaml:"user_agent"`
	AcceptLanguage     string        `yaml:"accept_language"`
	OutputFile         string        `yaml:"output_file"`
	OutputFormat       string        `yaml:"output_format"` // csv, json, dual, xlsx or sqlite
	PipelineBufferSize int           `yaml:"pipeline_buffer_size"`
	BatchSize          int           `yaml:"batch_size"`
	MetricsAddr        string        `yaml:"metrics_addr"`
	Verbose            bool          `yaml:"verbose"`
}

// DefaultConfig returns a polite single-worker configuration.
func DefaultConfig() *Config {
	return &Config{
		InputFile:          "product_urls.xlsx",
		InputColumn:        "url",
		MaxPagesPerProduct: 10,
		Parallelism:        1,
		RequestDelay:       2 * time.Second,
		RequestTimeout:     time.Second,
		RequestsPerSecond:  0,
		MaxRetries:         3,
		RetryBackoff:       0,
		RetryBackoffMax:    0,
		UserAgent:          "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:92.0) Gecko/20100101 Firefox/92.0",
		AcceptLanguage:     "en-US, en;q=0.5",
		OutputFile:         "output/product_reviews.xlsx",
		OutputFormat:       "xlsx",
		PipelineBufferSize: 512,
		BatchSize:          64,
		MetricsAddr:        "",
		Verbose:            false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.InputFile) == "" {
		return fmt.Errorf("input file cannot be empty")
	}
	if strings.TrimSpace(c.InputColumn) == "" {
		return fmt.Errorf("input column cannot be empty")
	}
	if c.MaxPagesPerProduct < 2 {
		return fmt.Errorf("max pages per product must be at least 2 (upper bound is exclusive)")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive")
	}
	if c.RequestDelay < 0 {
		return fmt.Errorf("request delay cannot be negative")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second cannot be negative")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "dual", "xlsx", "sqlite":
	default:
		return fmt.Errorf("output format must be csv, json, dual, xlsx, or sqlite")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// File is the on-disk layout accepted by LoadFile.
type File struct {
	Scraper   Config          `yaml:"scraper"`
	Sentiment SentimentConfig `yaml:"sentiment"`
}

// LoadFile reads a YAML configuration file. Keys omitted from the file keep
// their defaults.
func LoadFile(path string) (*Config, *SentimentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read config file: %w", err)
	}

	file := File{
		Scraper:   *DefaultConfig(),
		Sentiment: *DefaultSentimentConfig(),
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &file.Scraper, &file.Sentiment, nil
}

// EnvString returns the trimmed value of key when it is set and non-empty.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	return value, true
}

// EnvInt parses key as an integer when present.
func EnvInt(key string) (int, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return n, true, nil
}

// EnvDuration parses key as a Go duration ("2s", "500ms") when present.
func EnvDuration(key string) (time.Duration, bool, error) {
	value, ok := EnvString(key)
	if !ok {
		return 0, false, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return d, true, nil
}

// ApplyEnv overrides fields from SCRAPER_* environment variables.
func (c *Config) ApplyEnv() error {
	if value, ok := EnvString("SCRAPER_INPUT"); ok {
		c.InputFile = value
	}
	if value, ok := EnvString("SCRAPER_COLUMN"); ok {
		c.InputColumn = value
	}
	if value, ok := EnvString("SCRAPER_OUTPUT"); ok {
		c.OutputFile = value
	}
	if value, ok := EnvString("SCRAPER_FORMAT"); ok {
		c.OutputFormat = strings.ToLower(value)
	}
	if value, ok := EnvString("SCRAPER_METRICS_ADDR"); ok {
		c.MetricsAddr = value
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"SCRAPER_PAGES", &c.MaxPagesPerProduct},
		{"SCRAPER_PARALLEL", &c.Parallelism},
		{"SCRAPER_MAX_RETRIES", &c.MaxRetries},
	}
	for _, item := range ints {
		value, ok, err := EnvInt(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SCRAPER_DELAY", &c.RequestDelay},
		{"SCRAPER_TIMEOUT", &c.RequestTimeout},
	}
	for _, item := range durations {
		value, ok, err := EnvDuration(item.key)
		if err != nil {
			return err
		}
		if ok {
			*item.dst = value
		}
	}
	return nil
}
