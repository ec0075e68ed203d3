// Package logger provides structured logging setup for travelsync.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nuaibria/travelsync/internal/config"
)

// New creates a *slog.Logger from the given Logging config writing to stderr,
// which keeps stdout free for command output. When cfg.Async is set, records are
// handed to an AsyncHandler; callers must Close the returned Closer on exit.
func New(cfg config.Logging) (*slog.Logger, Closer) {
	return NewWithWriter(cfg, os.Stderr, isTerminal(os.Stderr))
}

// NewWithWriter is New with an explicit destination. tty decides the handler
// when cfg.Format is "auto".
func NewWithWriter(cfg config.Logging, w io.Writer, tty bool) (*slog.Logger, Closer) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "auto":
		if tty {
			handler = slog.NewTextHandler(w, opts)
		} else {
			handler = slog.NewJSONHandler(w, opts)
		}
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	var closer Closer = nopCloser{}
	if cfg.Async {
		ah := NewAsyncHandler(handler, 4096, 1)
		handler = ah
		closer = ah
	}

	return slog.New(handler).With("service", cfg.Service), closer
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // fd fits in int on supported platforms
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
