package printer

import (
	"strings"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// FormatPlain names the plain text printer.
const FormatPlain = "plain"

// Parameter names understood by the printers.
const (
	ParamChorusLabel = "chorusLabel"
	ParamLanguage    = "language"
	ParamTOCTitle    = "tocTitle"
	ParamMainFont    = "mainFont"
	ParamSansFont    = "sansFont"
)

// BaseParameters returns the parameters every printer starts from.
func BaseParameters() map[string]string {
	return map[string]string{
		ParamChorusLabel: "Ref",
		ParamLanguage:    "cs",
		ParamTOCTitle:    "Obsah",
	}
}

// BaseEntities returns the typographic entities every printer starts from.
// Values are XML text.
func BaseEntities() map[string]string {
	return map[string]string{
		"nbsp":              " ",
		"ndash":             "--",
		"mdash":             "---",
		"hellip":            "...",
		"ampersand":         "&amp;",
		"quoteEnglishOpen":  "&quot;",
		"quoteEnglishClose": "&quot;",
		"quoteCzechOpen":    "„",
		"quoteCzechClose":   "“",
		"thinsp":            " ",
		"times":             "x",
	}
}

// Plain renders songs as plain text with chords in square brackets. Layout
// units produce nothing.
type Plain struct {
	stores
}

// NewPlain returns a plain text printer with base defaults.
func NewPlain() *Plain {
	return &Plain{stores: newStores(BaseEntities(), BaseParameters())}
}

var _ Printer = (*Plain)(nil)

func (*Plain) Format() string    { return FormatPlain }
func (*Plain) Extension() string { return ".txt" }

func (*Plain) DocumentStart() string          { return "" }
func (*Plain) DocumentEnd() string            { return "" }
func (*Plain) MulticolsStart(_ string) string { return "" }
func (*Plain) MulticolsEnd() string           { return "" }
func (*Plain) ColumnBreak() string            { return "" }
func (*Plain) SongEnd() string                { return "\n" }

// VerseStart labels choruses with the chorusLabel parameter.
func (p *Plain) VerseStart(kind songbook.VerseKind) string {
	if kind == songbook.Verse {
		return ""
	}
	return p.params.Get(ParamChorusLabel) + ":\n"
}

func (*Plain) VerseEnd(_ songbook.VerseKind) string { return "\n" }

// SongHeader prints the name on its own line followed by one "tag: value"
// line per other field.
func (*Plain) SongHeader(h songbook.Header) string {
	name, _ := h.Get(songbook.HeaderName)
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('\n')
	for _, f := range h.Fields() {
		if f.Tag == songbook.HeaderName {
			continue
		}
		b.WriteString(f.Tag + ": " + f.Value + "\n")
	}
	b.WriteByte('\n')
	return b.String()
}

// Line prints lyrics as is and chords inline in brackets.
func (*Plain) Line(items []songbook.LineItem) string {
	var b strings.Builder
	for _, it := range items {
		if it.Kind == songbook.ItemLyrics {
			b.WriteString(it.Value)
			continue
		}
		b.WriteString("[" + it.Value + "]")
	}
	b.WriteByte('\n')
	return b.String()
}

func (*Plain) Chord(c songbook.Chord) string {
	return renderChord(c, func(n string) string { return n })
}

func (p *Plain) Song(h songbook.Header, content string) string {
	return composeSong(p, h, content)
}

func (p *Plain) Document(songs []songbook.Song) string {
	return composeDocument(p, songs)
}
