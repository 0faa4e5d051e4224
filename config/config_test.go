package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "negative parallelism",
			mutate: func(cfg *Config) {
				cfg.Parallelism = -1
			},
			wantErr: "parallelism",
		},
		{
			name: "page cap below two",
			mutate: func(cfg *Config) {
				cfg.MaxPagesPerProduct = 1
			},
			wantErr: "max pages",
		},
		{
			name: "empty input column",
			mutate: func(cfg *Config) {
				cfg.InputColumn = " "
			},
			wantErr: "input column",
		},
		{
			name: "zero timeout",
			mutate: func(cfg *Config) {
				cfg.RequestTimeout = 0
			},
			wantErr: "timeout",
		},
		{
			name: "zero retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = 0
			},
			wantErr: "max retries",
		},
		{
			name: "backoff above cap",
			mutate: func(cfg *Config) {
				cfg.RetryBackoff = time.Second
				cfg.RetryBackoffMax = time.Millisecond
			},
			wantErr: "retry backoff",
		},
		{
			name: "unknown format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "parquet"
			},
			wantErr: "output format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if err := DefaultSentimentConfig().Validate(); err != nil {
		t.Fatalf("default sentiment config should validate, got %v", err)
	}
}

func TestSentimentConfigValidate(t *testing.T) {
	cfg := DefaultSentimentConfig()
	cfg.StartTime = time.Date(2019, 6, 2, 0, 0, 0, 0, time.UTC)
	cfg.EndTime = time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "start time") {
		t.Fatalf("expected start time error, got %v", err)
	}

	cfg = DefaultSentimentConfig()
	cfg.Query = ""
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "query") {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  max_pages_per_product: 5
  request_delay: 500ms
  output_format: sqlite
sentiment:
  query: "lego"
  count: 50
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, sentimentCfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.MaxPagesPerProduct != 5 {
		t.Fatalf("max pages = %d, want 5", cfg.MaxPagesPerProduct)
	}
	if cfg.RequestDelay != 500*time.Millisecond {
		t.Fatalf("request delay = %s, want 500ms", cfg.RequestDelay)
	}
	if cfg.OutputFormat != "sqlite" {
		t.Fatalf("output format = %q, want sqlite", cfg.OutputFormat)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("omitted keys should keep defaults, max retries = %d", cfg.MaxRetries)
	}
	if sentimentCfg.Count != 50 {
		t.Fatalf("count = %d, want 50", sentimentCfg.Count)
	}
	if sentimentCfg.SampleSize != 10 {
		t.Fatalf("sample size = %d, want default 10", sentimentCfg.SampleSize)
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "7")
	t.Setenv("SCRAPER_TEST_BAD", "seven")
	t.Setenv("SCRAPER_TEST_DURATION", "1500ms")
	t.Setenv("SCRAPER_TEST_BLANK", "   ")

	if n, ok, err := EnvInt("SCRAPER_TEST_INT"); err != nil || !ok || n != 7 {
		t.Fatalf("EnvInt = %d, %v, %v", n, ok, err)
	}
	if _, _, err := EnvInt("SCRAPER_TEST_BAD"); err == nil {
		t.Fatalf("expected parse error")
	}
	if d, ok, err := EnvDuration("SCRAPER_TEST_DURATION"); err != nil || !ok || d != 1500*time.Millisecond {
		t.Fatalf("EnvDuration = %s, %v, %v", d, ok, err)
	}
	if _, ok := EnvString("SCRAPER_TEST_BLANK"); ok {
		t.Fatalf("blank value should be treated as unset")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SCRAPER_PAGES", "5")
	t.Setenv("SCRAPER_DELAY", "250ms")
	t.Setenv("SCRAPER_FORMAT", "CSV")
	t.Setenv("SCRAPER_INPUT", "urls.csv")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.MaxPagesPerProduct != 5 || cfg.RequestDelay != 250*time.Millisecond {
		t.Fatalf("unexpected overrides: pages=%d delay=%v", cfg.MaxPagesPerProduct, cfg.RequestDelay)
	}
	if cfg.OutputFormat != "csv" || cfg.InputFile != "urls.csv" {
		t.Fatalf("unexpected overrides: format=%q input=%q", cfg.OutputFormat, cfg.InputFile)
	}

	t.Setenv("SCRAPER_PARALLEL", "many")
	if err := DefaultConfig().ApplyEnv(); err == nil {
		t.Fatalf("expected error for non-numeric SCRAPER_PARALLEL")
	}
}

func TestSentimentApplyEnv(t *testing.T) {
	t.Setenv("SOCIAL_BEARER_TOKEN", " secret ")
	t.Setenv("SENTIMENT_COUNT", "50")

	cfg := DefaultSentimentConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.BearerToken != "secret" || cfg.Count != 50 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
