// Package printer renders songbook structure into an output format.
//
// A Printer is a strategy chosen when the converter is built. Each printer
// owns its entity and parameter stores, seeded with the defaults of its
// format; callers adjust the stores before rendering.
package printer

import (
	"fmt"
	"slices"
	"strings"

	"github.com/containerd/errdefs"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// ErrUnknownFormat is returned when no printer is registered for a format.
var ErrUnknownFormat = fmt.Errorf("unknown output format: %w", errdefs.ErrInvalidArgument)

// Printer renders every structural unit of a songbook.
type Printer interface {
	// Format returns the registry name of the printer.
	Format() string
	// Extension returns the file extension of rendered documents.
	Extension() string
	// Entities holds the text substitutions declared to the parser.
	Entities() *songbook.Store
	// Parameters holds the format knobs, e.g. fonts and labels.
	Parameters() *songbook.Store

	DocumentStart() string
	DocumentEnd() string
	MulticolsStart(columns string) string
	MulticolsEnd() string
	ColumnBreak() string
	VerseStart(kind songbook.VerseKind) string
	VerseEnd(kind songbook.VerseKind) string
	SongHeader(h songbook.Header) string
	SongEnd() string
	Line(items []songbook.LineItem) string
	Chord(c songbook.Chord) string
	Song(h songbook.Header, content string) string
	Document(songs []songbook.Song) string
}

// Factory builds a printer with default stores.
type Factory func() Printer

var _registry = map[string]Factory{
	FormatPlain: func() Printer { return NewPlain() },
	FormatLaTeX: func() Printer { return NewLaTeX() },
}

// Lookup returns the factory registered for format.
func Lookup(format string) (Factory, error) {
	f, ok := _registry[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%q: %w", format, ErrUnknownFormat)
	}
	return f, nil
}

// New returns a fresh printer for format.
func New(format string) (Printer, error) {
	f, err := Lookup(format)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Formats lists the registered format names in sorted order.
func Formats() []string {
	out := make([]string, 0, len(_registry))
	for k := range _registry {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// stores carries the entity and parameter stores of a printer.
type stores struct {
	entities *songbook.Store
	params   *songbook.Store
}

func newStores(entities, params map[string]string) stores {
	return stores{entities: songbook.NewStore(entities), params: songbook.NewStore(params)}
}

func (s stores) Entities() *songbook.Store   { return s.entities }
func (s stores) Parameters() *songbook.Store { return s.params }

// composeSong renders header, content, and song end through p.
func composeSong(p Printer, h songbook.Header, content string) string {
	return p.SongHeader(h) + content + p.SongEnd()
}

// composeDocument renders the document frame around the song contents.
func composeDocument(p Printer, songs []songbook.Song) string {
	var b strings.Builder
	b.WriteString(p.DocumentStart())
	for _, s := range songs {
		b.WriteString(s.Content())
	}
	b.WriteString(p.DocumentEnd())
	return b.String()
}

// renderChord renders root, type, and bass, with note applied to the root
// and bass notes. Optional chords are parenthesized.
func renderChord(c songbook.Chord, note func(string) string) string {
	out := note(c.Root())
	if t, ok := c.Type(); ok {
		out += t
	}
	if b, ok := c.Bass(); ok {
		out += "/" + note(b)
	}
	if c.Optional() {
		out = "(" + out + ")"
	}
	return out
}
