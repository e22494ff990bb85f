package logger

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler copies every log record to a set of downstream handlers.
// The watch command relies on it to show pretty output on the terminal
// while appending JSON to its log file.
type teeHandler struct {
	sinks []slog.Handler
}

// Multi combines several loggers into one. A record logged through the
// returned logger reaches every sink whose level admits it.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	sinks := make([]slog.Handler, 0, len(loggers))
	for _, l := range loggers {
		sinks = append(sinks, l.Handler())
	}
	return slog.New(teeHandler{sinks: sinks})
}

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t.sinks {
		if s.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to each sink that accepts its level. Sinks
// receive their own clone so attrs added by one cannot leak into another.
func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range t.sinks {
		if !s.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.fork(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return t.fork(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

// fork derives a new tee whose sinks are each transformed by derive.
func (t teeHandler) fork(derive func(slog.Handler) slog.Handler) slog.Handler {
	sinks := make([]slog.Handler, len(t.sinks))
	for i, s := range t.sinks {
		sinks[i] = derive(s)
	}
	return teeHandler{sinks: sinks}
}
