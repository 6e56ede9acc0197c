package logging

import (
	"context"
	"errors"
	"log/slog"
)

// moduleHandler is the root handler of a module logger. The module's
// LevelVar is the only level gate; every sink below it sees the record
// already tagged with the module name.
type moduleHandler struct {
	module string
	level  slog.Leveler
	sinks  []slog.Handler
}

// newModuleHandler tags sinks with module and gates them on level. An
// empty module leaves records untagged, as for the default logger.
func newModuleHandler(module string, level slog.Leveler, sinks ...slog.Handler) *moduleHandler {
	if module != "" {
		tag := []slog.Attr{slog.String("module", module)}
		for i, s := range sinks {
			sinks[i] = s.WithAttrs(tag)
		}
	}
	return &moduleHandler{module: module, level: level, sinks: sinks}
}

func (m *moduleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= m.level.Level()
}

// Handle writes r to every sink. A failing sink, usually the journal when
// journald restarts, does not keep the record from the others.
func (m *moduleHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for i, s := range m.sinks {
		rec := r
		if i < len(m.sinks)-1 {
			rec = r.Clone()
		}
		if err := s.Handle(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *moduleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })
}

func (m *moduleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return m
	}
	return m.derive(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })
}

func (m *moduleHandler) derive(fn func(slog.Handler) slog.Handler) *moduleHandler {
	sinks := make([]slog.Handler, len(m.sinks))
	for i, s := range m.sinks {
		sinks[i] = fn(s)
	}
	return &moduleHandler{module: m.module, level: m.level, sinks: sinks}
}
