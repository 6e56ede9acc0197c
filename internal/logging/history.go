package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Entry is one recorded log line.
type Entry struct {
	Time    time.Time
	Level   slog.Level
	Module  string
	Message string
	Attrs   map[string]string
}

// History keeps the most recent log entries in a fixed-size ring.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	count   int
}

// NewHistory creates a history holding up to size entries.
func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{entries: make([]Entry, size)}
}

// Add records an entry, evicting the oldest when full.
func (h *History) Add(e Entry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[h.head] = e
	h.head = (h.head + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
}

// Entries returns the recorded entries oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, 0, h.count)
	start := (h.head - h.count + len(h.entries)) % len(h.entries)
	for i := 0; i < h.count; i++ {
		out = append(out, h.entries[(start+i)%len(h.entries)])
	}
	return out
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// HistoryHandler is a slog.Handler that records into a History.
type HistoryHandler struct {
	history *History
	level   slog.Leveler
	attrs   []slog.Attr
	groups  []string
}

// NewHistoryHandler creates a handler writing to history at level.
func NewHistoryHandler(history *History, level slog.Leveler) *HistoryHandler {
	return &HistoryHandler{history: history, level: level}
}

// Enabled implements slog.Handler.
func (h *HistoryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *HistoryHandler) Handle(_ context.Context, r slog.Record) error {
	entry := Entry{
		Time:    r.Time,
		Level:   r.Level,
		Module:  "app",
		Message: r.Message,
		Attrs:   make(map[string]string),
	}

	add := func(a slog.Attr) bool {
		if a.Key == "module" && len(h.groups) == 0 {
			entry.Module = a.Value.String()
			return true
		}
		key := a.Key
		if len(h.groups) > 0 {
			key = strings.Join(h.groups, ".") + "." + key
		}
		entry.Attrs[key] = a.Value.String()
		return true
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(add)

	h.history.Add(entry)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *HistoryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup implements slog.Handler.
func (h *HistoryHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}
