// Package logging wires log/slog to groove's log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gigurra/groove/cmd/common"
)

// Options selects where and how much to log.
type Options struct {
	Level string // debug, info, warn or error
	File  string // defaults to common.LogPath()
	// Stderr also copies records to stderr. Never set it for the TUI.
	Stderr bool
}

// ParseLevel maps a level name to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Setup configures the default slog logger to append to the log file, and to
// stderr when asked. The returned func closes the log file.
// A log file that cannot be opened is not fatal; records then go only to
// stderr, or nowhere.
func Setup(opts Options) (*slog.Logger, func()) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "groove: %v, using info\n", err)
	}

	var writers []io.Writer
	closeFn := func() {}

	path := opts.File
	if path == "" {
		path = common.LogPath()
	}
	if f, err := openLog(path); err == nil {
		writers = append(writers, f)
		closeFn = func() { _ = f.Close() }
	}
	if opts.Stderr {
		writers = append(writers, os.Stderr)
	}

	logger := New(io.MultiWriter(writers...), level)
	slog.SetDefault(logger)
	return logger, closeFn
}

// New returns a text logger on w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func openLog(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}
