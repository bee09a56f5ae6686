package socket

import (
	"log/slog"

	"github.com/joeycumines/logiface"
	islog "github.com/joeycumines/logiface-slog"
)

// logEvent is the concrete [logiface.Event] implementation this package
// logs through; it is a type alias for the slog backend's event so callers
// never need to name islog directly.
type logEvent = islog.Event

// NewSlogLogger adapts a [log/slog.Handler] into a [logiface.Logger] usable
// with [WithLogger]. This is the only logging backend this package wires
// up directly; any other [logiface] backend works equally well since
// [WithLogger] takes the generic logger type.
func NewSlogLogger(handler slog.Handler, level logiface.Level) *logiface.Logger[*logEvent] {
	return logiface.New[*logEvent](
		islog.NewLogger(handler, islog.WithLevel(level)),
	)
}

// newNopLogger is the default logger when [WithLogger] isn't supplied: a
// logiface.Logger gated at error level whose handler writes to a
// discarding writer, so nothing is ever output and task construction never
// requires a logging dependency to be wired up by the caller.
func newNopLogger() *logiface.Logger[*logEvent] {
	return NewSlogLogger(slog.NewTextHandler(discardWriter{}, nil), logiface.LevelError)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
