// Package logging holds the *slog.Logger used by the pdfgraph packages.
//
// Nothing is logged until a logger is installed with SetLogger. The loader
// reports objects it had to skip at Warn level and the writer reports
// summary figures at Debug level.
package logging

import (
	"log/slog"
	"sync/atomic"
)

var logger atomic.Pointer[slog.Logger]

var discard = slog.New(slog.DiscardHandler)

// SetLogger installs sl as the package logger. A nil logger turns logging off.
// SetLogger is safe for concurrent use.
//
// To see diagnostics on stderr:
//
//	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = discard
	}
	logger.Store(sl)
}

// Logger returns the installed logger, or one that discards everything.
func Logger() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return discard
}

// For returns the package logger tagged with a component attribute.
func For(component string) *slog.Logger {
	return Logger().With(slog.String("component", component))
}
