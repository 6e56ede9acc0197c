package logging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

const journalIdentifier = "camsession"

// sessionFields maps the attribute keys the session packages log to
// dedicated journal fields, so one camera's history can be read with
//
//	journalctl -t camsession CAMSESSION_DEVICE=usb-046d_HD_Pro_Webcam_C920
//	journalctl -t camsession SESSION_STATE=previewing
var sessionFields = map[string]string{
	"device":    "CAMSESSION_DEVICE",
	"path":      "CAMSESSION_NODE",
	"format":    "CAMSESSION_FORMAT",
	"target":    "CAMSESSION_TARGET",
	"reason":    "CAMSESSION_REASON",
	"to":        "SESSION_STATE",
	"from":      "SESSION_PREVIOUS_STATE",
	"exit_code": "CAPTURE_EXIT_CODE",
}

// JournalHandler is a slog.Handler that writes to the systemd journal.
type JournalHandler struct {
	level  slog.Leveler
	attrs  []slog.Attr
	groups []string
	send   func(message string, priority journal.Priority, vars map[string]string) error
}

// NewJournalHandler creates a journal handler gated on level.
func NewJournalHandler(level slog.Leveler) *JournalHandler {
	return &JournalHandler{level: level, send: journal.Send}
}

// Enabled reports whether the handler handles records at the given level.
func (h *JournalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle sends the record to the journal. journal.Send sets MESSAGE and
// PRIORITY itself.
func (h *JournalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": journalIdentifier}
	for _, a := range h.attrs {
		addJournalField(fields, a, h.groups)
	}
	r.Attrs(func(a slog.Attr) bool {
		addJournalField(fields, a, h.groups)
		return true
	})
	return h.send(r.Message, journalPriority(r.Level), fields)
}

// WithAttrs returns a handler that adds attrs to every record.
func (h *JournalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

// WithGroup returns a handler that prefixes later keys with name.
func (h *JournalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}

// addJournalField stores a as a journal field. Top-level session keys get
// their dedicated name; everything else is upper-cased and joined with its
// groups.
func addJournalField(fields map[string]string, a slog.Attr, groups []string) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			addJournalField(fields, ga, sub)
		}
		return
	}

	key, ok := "", false
	if len(groups) == 0 {
		key, ok = sessionFields[a.Key]
	}
	if !ok {
		key = journalFieldName(append(append([]string(nil), groups...), a.Key))
	}
	if key == "" {
		return
	}
	fields[key] = journalValue(a.Value)
}

// journalFieldName builds a valid field name: upper-case letters, digits
// and underscores, not starting with an underscore, which journald
// reserves for trusted fields.
func journalFieldName(parts []string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.Join(parts, "_")) {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return strings.TrimLeft(b.String(), "_0123456789")
}

func journalValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case slog.KindUint64:
		return strconv.FormatUint(v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	default:
		return v.String()
	}
}

// IsJournalAvailable checks if systemd journal is available.
func IsJournalAvailable() bool {
	return journal.Enabled()
}
