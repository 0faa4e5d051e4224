// Package logging builds the slog handlers shared by the command line tools.
package logging

import (
	"log/slog"
	"os"
)

// New returns a logger writing to out. Terminals get the text handler and
// everything else gets JSON lines.
func New(out *os.File, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(out) {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	return slog.New(handler), level
}

// Setup installs New(out, verbose) as the process-wide default logger.
func Setup(out *os.File, verbose bool) *slog.LevelVar {
	logger, level := New(out, verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())
	return level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
