// Package logging builds the slog loggers used by the songbook CLI.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// ErrUnknownFormat is returned when an unrecognized log format is requested.
var ErrUnknownFormat = errors.New("unknown log format")

// Log formats.
const (
	FormatAuto   = "auto"
	FormatPretty = "pretty"
	FormatJSON   = "json"
	FormatText   = "text"
)

var _ slog.Handler = (*PrettyHandler)(nil)

// PrettyHandler writes one colored line per record for terminals. Context
// attributes from WithAttrs and WithGroup become a "key=val " prefix. Of the
// record's own attributes only a few are shown: the song name and duration
// in cyan, and a source position as "(line L, column C)". The json and text
// formats keep every attribute.
type PrettyHandler struct {
	out    io.Writer
	level  slog.Leveler
	mu     *sync.Mutex
	prefix string
}

// NewPrettyHandler returns a PrettyHandler that writes to out at level.
func NewPrettyHandler(out io.Writer, level slog.Leveler) *PrettyHandler {
	return &PrettyHandler{out: out, level: level, mu: &sync.Mutex{}}
}

var (
	_warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // yellow
	_errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // red
	_debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8")) // dim
	_cyanStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // cyan
)

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		b         strings.Builder
		line, col string
	)
	b.WriteString(h.prefix)
	b.WriteString(r.Message)
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "song", "duration":
			b.WriteString(" " + _cyanStyle.Render(a.Value.String()))
		case "line":
			line = a.Value.String()
		case "column":
			col = a.Value.String()
		}
		return true
	})
	if line != "" {
		b.WriteString(" (line " + line)
		if col != "" {
			b.WriteString(", column " + col)
		}
		b.WriteString(")")
	}

	msg := b.String()
	switch {
	case r.Level >= slog.LevelError:
		msg = _errorStyle.Render(msg)
	case r.Level >= slog.LevelWarn:
		msg = _warnStyle.Render(msg)
	case r.Level < slog.LevelInfo:
		msg = _debugStyle.Render(msg)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, msg+"\n")
	return err
}

// WithAttrs returns a handler that prefixes messages with attrs.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var b strings.Builder
	b.WriteString(h.prefix)
	for _, a := range attrs {
		b.WriteString(a.Key + "=" + a.Value.String() + " ")
	}
	return &PrettyHandler{out: h.out, level: h.level, mu: h.mu, prefix: b.String()}
}

// WithGroup returns a handler that prefixes messages with the group name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &PrettyHandler{out: h.out, level: h.level, mu: h.mu, prefix: h.prefix + name + "."}
}

// ResolveFormat maps "auto" to pretty on a terminal and text elsewhere.
func ResolveFormat(format string, isTTY bool) string {
	if format != FormatAuto {
		return format
	}
	if isTTY {
		return FormatPretty
	}
	return FormatText
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// NewLogger creates a logger for format ("pretty", "json", or "text").
func NewLogger(out io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	case FormatText:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	case FormatPretty:
		handler = NewPrettyHandler(out, level)
	default:
		return nil, fmt.Errorf("unknown format %q: %w", format, ErrUnknownFormat)
	}
	return slog.New(handler), nil
}
