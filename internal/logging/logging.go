// v0
// internal/logging/logging.go
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Logger pairs a slog logger with the log file it writes to, if any.
type Logger struct {
	*slog.Logger
	file *os.File
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// New creates a text logger writing to console and to path. Commands pass
// stderr so stdout stays free for their output. An empty path logs to console
// only; a path that cannot be opened falls back to console and the failure is
// logged.
func New(console io.Writer, path string, level slog.Level) *Logger {
	if console == nil {
		console = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if path == "" {
		return &Logger{Logger: slog.New(slog.NewTextHandler(console, opts))}
	}
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l := slog.New(slog.NewTextHandler(console, opts))
		l.Error("failed to open log file", "path", path, "err", err)
		return &Logger{Logger: l}
	}
	l := slog.New(slog.NewTextHandler(io.MultiWriter(console, f), opts))
	l.Debug("logger initialized", "file", path)
	return &Logger{Logger: l, file: f}
}

// Discard returns a logger that drops everything, for tests and library callers.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Close releases the log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
