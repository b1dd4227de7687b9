// Package logging configures runtime JSONL logging output.
//
// Stdout is reserved for the status wire format, so logs always go to a file
// under the user state directory.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Runtime bundles the configured logger and its open file handle lifecycle.
type Runtime struct {
	Logger zerolog.Logger
	Path   string
	closer io.Closer
}

// Close flushes and closes the logger output sink.
func (r Runtime) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// New builds a JSONL logger rooted at the resolved state path. LOG_LEVEL
// overrides the configured level when it parses.
func New(level string) (Runtime, error) {
	path, err := resolveLogPath()
	if err != nil {
		return Runtime{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return Runtime{}, err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return Runtime{}, err
	}

	zerolog.TimeFieldFormat = time.RFC3339
	logger := zerolog.New(f).Level(resolveLevel(level)).With().
		Timestamp().
		Str("service", "whisprbar").
		Logger()

	return Runtime{Logger: logger, Path: path, closer: f}, nil
}

// resolveLevel prefers LOG_LEVEL, then the configured level, then info.
func resolveLevel(configured string) zerolog.Level {
	if env := strings.TrimSpace(os.Getenv("LOG_LEVEL")); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			return parsed
		}
	}
	if configured != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(configured)); err == nil {
			return parsed
		}
	}
	return zerolog.InfoLevel
}

// resolveLogPath selects XDG_STATE_HOME when available, otherwise ~/.local/state.
func resolveLogPath() (string, error) {
	if xdg := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); xdg != "" {
		return filepath.Join(xdg, "whisprbar", "log.jsonl"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "whisprbar", "log.jsonl"), nil
}
