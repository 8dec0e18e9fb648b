// Package emulog wraps log/slog with a single-line text handler shared
// by every binary in this module, so CPU traps, the assembler, and the
// debugger all log in the same format.
package emulog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler formats records as "time level: message attr=val ...\n",
// optionally duplicating output to stderr when debug is enabled.
type Handler struct {
	out   io.Writer
	h     slog.Handler
	mu    *sync.Mutex
	debug bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{out: h.out, h: h.h.WithGroup(name), mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{
		r.Time.Format("2006/01/02 15:04:05"),
		r.Level.String() + ":",
		r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})
	line := strings.Join(parts, " ") + "\n"

	h.mu.Lock()
	defer h.mu.Unlock()

	var err error
	if h.out != nil {
		_, err = h.out.Write([]byte(line))
	}
	if h.debug && h.out != os.Stderr {
		_, err = os.Stderr.Write([]byte(line))
	}
	return err
}

// New builds a slog.Logger writing to w at the given level. When debug
// is true, every record is additionally written to stderr even if w is
// something else (e.g. a log file).
func New(w io.Writer, level slog.Level, debug bool) *slog.Logger {
	return slog.New(&Handler{
		out:   w,
		h:     slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}),
		mu:    &sync.Mutex{},
		debug: debug,
	})
}
