package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	out, err := os.Create(filepath.Join(t.TempDir(), "log.jsonl"))
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}
	defer out.Close()

	logger, level := New(out, false)
	if level.Level() != slog.LevelInfo {
		t.Fatalf("level = %v, want info", level.Level())
	}
	if logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatalf("debug should be disabled without verbose")
	}

	_, verboseLevel := New(out, true)
	if verboseLevel.Level() != slog.LevelDebug {
		t.Fatalf("verbose level = %v, want debug", verboseLevel.Level())
	}
}

func TestNewWritesJSONToFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.jsonl")
	out, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log file: %v", err)
	}

	logger, _ := New(out, false)
	logger.Info("page fetched", slog.Int("page", 2))
	out.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	line := strings.TrimSpace(string(data))
	if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"page":2`) {
		t.Fatalf("expected json log line, got %q", line)
	}
}
