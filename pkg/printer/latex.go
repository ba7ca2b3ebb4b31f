package printer

import (
	_ "embed"
	"strings"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// FormatLaTeX names the LaTeX printer.
const FormatLaTeX = "latex"

// latexPreamble is the document start. @@@name@@@ placeholders are filled
// from the parameter store.
//
//go:embed latex_preamble.tex
var latexPreamble string

// LaTeXEntities returns the entity values the LaTeX printer puts over
// BaseEntities.
func LaTeXEntities() map[string]string {
	return map[string]string{
		"nbsp":              "~",
		"ndash":             "--",
		"mdash":             "---",
		"hellip":            `\ldots `,
		"ampersand":         `\&amp;`,
		"quoteEnglishOpen":  "``",
		"quoteEnglishClose": "''",
		"quoteCzechOpen":    `\quotedblbase `,
		"quoteCzechClose":   `\textquotedblleft `,
		"thinsp":            `\thinspace `,
		"times":             `$\times$`,
	}
}

// LaTeX renders a XeLaTeX source built on the macros of latexPreamble.
type LaTeX struct {
	stores
}

// NewLaTeX returns a LaTeX printer seeded with the base defaults, the LaTeX
// entities, and default fonts.
func NewLaTeX() *LaTeX {
	l := &LaTeX{stores: newStores(BaseEntities(), BaseParameters())}
	l.entities.Merge(LaTeXEntities())
	l.params.Set(ParamMainFont, "Linux Libertine O")
	l.params.Set(ParamSansFont, "Calibri")
	return l
}

var _ Printer = (*LaTeX)(nil)

func (*LaTeX) Format() string    { return FormatLaTeX }
func (*LaTeX) Extension() string { return ".tex" }

// DocumentStart returns the preamble with parameters substituted. Unknown
// placeholders stay as they are.
func (l *LaTeX) DocumentStart() string {
	return l.params.Substitute(latexPreamble)
}

func (*LaTeX) DocumentEnd() string { return "\n\\end{document}" }

func (*LaTeX) MulticolsStart(columns string) string {
	return `\begin{multicols}{` + columns + `}\raggedcolumns` + "\n"
}

func (*LaTeX) MulticolsEnd() string { return `\end{multicols}` + "\n" }
func (*LaTeX) ColumnBreak() string  { return `\columnbreak` + "\n" }
func (*LaTeX) SongEnd() string      { return "\n" }

func (*LaTeX) VerseStart(kind songbook.VerseKind) string {
	if kind == songbook.Verse {
		return `\verse{`
	}
	return `\chorus{`
}

func (*LaTeX) VerseEnd(_ songbook.VerseKind) string { return "}\n\n" }

// SongHeader emits \song{name}{authors}{album and year}. Authors are joined
// with " / ". With both album and year present the right field reads
// "Album (Year)".
func (*LaTeX) SongHeader(h songbook.Header) string {
	var name, left, right string
	for _, f := range h.Fields() {
		switch f.Tag {
		case songbook.HeaderName:
			name = f.Value
		case songbook.HeaderAuthor:
			if left == "" {
				left = f.Value
			} else {
				left += " / " + f.Value
			}
		case songbook.HeaderAlbum:
			if right == "" {
				right = f.Value
			} else {
				right = f.Value + " (" + right + ")"
			}
		case songbook.HeaderYear:
			if right == "" {
				right = f.Value
			} else {
				right += " (" + f.Value + ")"
			}
		}
	}
	return "\n\\song{" + name + "}{" + left + "}{" + right + "}\n\n"
}

// Line emits one \sbline. Whether a hyphen is actually printed is left to
// \chordslyricshyphen, which compares chord and lyric widths.
func (*LaTeX) Line(items []songbook.LineItem) string {
	var b strings.Builder
	b.WriteString(`\sbline{`)
	for _, seg := range ComposeLine(items) {
		switch seg.Kind {
		case SegmentLyrics:
			b.WriteString(seg.Lyrics)
		case SegmentChordsOnly:
			b.WriteString(seg.Chords)
		case SegmentChordsOverLyrics:
			b.WriteString(`\chordslyrics`)
			if seg.Hyphen {
				b.WriteString("hyphen")
			}
			b.WriteString("{" + seg.Chords + "}{" + seg.Lyrics + "}")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// Chord wraps the chord in \chord with sharps and flats typeset.
func (*LaTeX) Chord(c songbook.Chord) string {
	return `\chord{` + renderChord(c, latexNote) + "}"
}

func (l *LaTeX) Song(h songbook.Header, content string) string {
	return composeSong(l, h, content)
}

func (l *LaTeX) Document(songs []songbook.Song) string {
	return composeDocument(l, songs)
}

// latexNote replaces the first '#' with a sharp sign, or else the first 'b'
// after the note letter with a flat sign.
func latexNote(note string) string {
	if i := strings.IndexByte(note, '#'); i >= 0 {
		return note[:i] + `\msharp ` + note[i+1:]
	}
	if len(note) > 1 {
		if i := strings.IndexByte(note[1:], 'b'); i >= 0 {
			i++
			return note[:i] + `$\flat$` + note[i+1:]
		}
	}
	return note
}
