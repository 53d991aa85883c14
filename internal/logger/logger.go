// Package logger provides the process-wide structured logger.
//
// It is a thin wrapper around log/slog with two output formats: a colored
// text format for interactive terminals and JSON for machine consumption.
// The configured level is also exported through Level() so it can be
// forwarded to managed application processes as part of their logger
// identity descriptor.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Name is the logger identity announced to managed applications.
const Name = "vitebridge"

// Config holds logger configuration.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or a file path
}

var (
	mu       sync.RWMutex
	slogger  *slog.Logger
	levelVar = new(slog.LevelVar)
	level    = "INFO"
	format   = "text"
	output   io.Writer = os.Stderr
	useColor bool
)

func init() {
	if f, ok := output.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	rebuild()
}

// rebuild swaps the slog handler for the current settings. Callers must
// hold mu.
func rebuild() {
	opts := &slog.HandlerOptions{Level: levelVar}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(output, opts)
	} else {
		h = newTextHandler(output, opts, useColor)
	}
	slogger = slog.New(h)
}

// Init configures the logger from the resolved configuration.
// Output can be "stdout", "stderr", or a file path.
func Init(cfg Config) error {
	mu.Lock()
	defer mu.Unlock()

	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		output = os.Stdout
		useColor = isTerminal(os.Stdout.Fd())
	case "stderr":
		output = os.Stderr
		useColor = isTerminal(os.Stderr.Fd())
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Output, err)
		}
		output = f
		useColor = false
	}

	if cfg.Level != "" {
		if err := setLevelLocked(cfg.Level); err != nil {
			return err
		}
	}
	if cfg.Format != "" {
		f := strings.ToLower(cfg.Format)
		if f != "text" && f != "json" {
			return fmt.Errorf("unknown log format %q", cfg.Format)
		}
		format = f
	}

	rebuild()
	return nil
}

// InitWithWriter points the logger at a custom writer. Used by tests.
func InitWithWriter(w io.Writer, lvl, fmt string) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	useColor = false
	if lvl != "" {
		_ = setLevelLocked(lvl)
	}
	if fmt == "text" || fmt == "json" {
		format = fmt
	}
	rebuild()
}

func setLevelLocked(lvl string) error {
	upper := strings.ToUpper(lvl)
	switch upper {
	case "DEBUG":
		levelVar.Set(slog.LevelDebug)
	case "INFO":
		levelVar.Set(slog.LevelInfo)
	case "WARN":
		levelVar.Set(slog.LevelWarn)
	case "ERROR":
		levelVar.Set(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level %q", lvl)
	}
	level = upper
	return nil
}

// Level returns the configured level name (DEBUG, INFO, WARN, ERROR).
func Level() string {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

func get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

// Debug logs at debug level with structured key/value fields.
func Debug(msg string, args ...any) { get().Debug(msg, args...) }

// Info logs at info level with structured key/value fields.
func Info(msg string, args ...any) { get().Info(msg, args...) }

// Warn logs at warn level with structured key/value fields.
func Warn(msg string, args ...any) { get().Warn(msg, args...) }

// Error logs at error level with structured key/value fields.
func Error(msg string, args ...any) { get().Error(msg, args...) }
