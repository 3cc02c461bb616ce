package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
)

// BufferedHandler is a slog.Handler that keeps records in memory, one line
// per record, so tests can assert on what was logged.
//
//	h := logging.NewBufferedHandler(slog.LevelWarn)
//	logging.SetLogger(slog.New(h))
//	// ... load a damaged file ...
//	if !h.Contains("skipping object") { ... }
type BufferedHandler struct {
	state  *bufferState
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
}

type bufferState struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewBufferedHandler returns a handler recording records at or above level.
// A nil level records everything.
func NewBufferedHandler(level slog.Leveler) *BufferedHandler {
	return &BufferedHandler{state: &bufferState{}, level: level}
}

// Enabled implements slog.Handler.
func (h *BufferedHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level == nil || level >= h.level.Level()
}

// Handle implements slog.Handler. Records are written as
// "LEVEL message key=value ...".
func (h *BufferedHandler) Handle(_ context.Context, r slog.Record) error {
	var line strings.Builder
	line.WriteString(r.Level.String())
	line.WriteByte(' ')
	line.WriteString(r.Message)

	write := func(a slog.Attr) {
		line.WriteByte(' ')
		if len(h.groups) > 0 {
			line.WriteString(strings.Join(h.groups, "."))
			line.WriteByte('.')
		}
		line.WriteString(a.Key)
		line.WriteByte('=')
		line.WriteString(a.Value.String())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	line.WriteByte('\n')

	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.buf.WriteString(line.String())
	return nil
}

// WithAttrs implements slog.Handler.
func (h *BufferedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

// WithGroup implements slog.Handler.
func (h *BufferedHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

// String returns everything recorded so far.
func (h *BufferedHandler) String() string {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	return h.state.buf.String()
}

// Contains reports whether the recorded output contains s.
func (h *BufferedHandler) Contains(s string) bool {
	return strings.Contains(h.String(), s)
}

// Reset discards the recorded output.
func (h *BufferedHandler) Reset() {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()
	h.state.buf.Reset()
}
