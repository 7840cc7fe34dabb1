package logging

import (
	"io"
	"log/slog"
	"os"
)

type settings struct {
	out  io.Writer
	json bool
}

// Option tweaks the logger built by New.
type Option func(*settings)

// WithOutput redirects log records. The default is stderr, which keeps
// stdout free for dialogue output and the MCP stdio transport.
func WithOutput(w io.Writer) Option {
	return func(s *settings) { s.out = w }
}

// WithJSON switches to one JSON object per record.
func WithJSON() Option {
	return func(s *settings) { s.json = true }
}

// New creates the application logger. Error attributes are always emitted
// under the "err" key, whichever spelling the call site used.
func New(level slog.Level, opts ...Option) *slog.Logger {
	s := settings{out: os.Stderr}
	for _, opt := range opts {
		opt(&s)
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}
	if s.json {
		return slog.New(slog.NewJSONHandler(s.out, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(s.out, handlerOpts))
}

// NewNop returns a logger that drops everything. Components default to it
// until a logger is injected.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
