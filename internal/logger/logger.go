// Package logger provides the process-wide structured logger.
//
// It wraps log/slog with package-level helpers so protocol code can log
// without threading a logger through every call:
//
//	logger.Debug("pop3 command", "command", "STAT")
//	logger.Warn("http exchange failed", "url", rawURL, "error", err)
//
// Call Initialize once at startup; until then the slog default is used.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"protoclient/internal/config"
)

var globalLogger *slog.Logger

// Initialize installs the global logger described by cfg. When output names a
// file, the opened file is returned so the caller can close it on exit.
func Initialize(cfg config.LoggingConfig) (*os.File, error) {
	var (
		w       io.Writer
		logFile *os.File
	)

	switch cfg.Output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		path, err := config.Expand(cfg.Output)
		if err != nil {
			return nil, err
		}
		logFile, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", path, err)
		}
		w = logFile
	}

	globalLogger = slog.New(newHandler(w, cfg.Format, ParseLevel(cfg.Level)))
	slog.SetDefault(globalLogger)

	return logFile, nil
}

func newHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// ParseLevel maps a config level name to a slog level. Unknown names fall
// back to warn.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func Get() *slog.Logger {
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

func Debug(msg string, args ...any) {
	Get().Debug(msg, args...)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func Info(msg string, args ...any) {
	Get().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Get().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Get().Error(msg, args...)
}
