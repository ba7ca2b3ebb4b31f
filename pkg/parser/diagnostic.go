package parser

import (
	"fmt"
	"strings"
)

// Severity grades a diagnostic.
type Severity int

// Diagnostic severities.
const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityFatal
)

// String returns the label printed in front of a diagnostic.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Fatal error"
	}
}

// Diagnostic is one problem found while parsing, positioned in the original
// source.
type Diagnostic struct {
	Severity Severity
	Line     int
	Column   int
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: line %d, column %d: %s", d.Severity, d.Line, d.Column, d.Message)
}

// DiagnosticsError aggregates every diagnostic of a failed parse.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}

// diagnostics collects entries, shifting lines by the number of source lines
// that preceded the parsed fragment.
type diagnostics struct {
	offset  int
	entries []Diagnostic
	failed  bool
}

func (d *diagnostics) add(sev Severity, line, col int, format string, args ...any) {
	d.entries = append(d.entries, Diagnostic{
		Severity: sev,
		Line:     line + d.offset,
		Column:   col,
		Message:  fmt.Sprintf(format, args...),
	})
	if sev != SeverityWarning {
		d.failed = true
	}
}

func (d *diagnostics) warnings() []Diagnostic {
	var out []Diagnostic
	for _, e := range d.entries {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}
