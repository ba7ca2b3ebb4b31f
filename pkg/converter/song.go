package converter

import (
	"fmt"
	"strings"

	"github.com/ndisidore/songbook/pkg/parser"
	"github.com/ndisidore/songbook/pkg/printer"
	"github.com/ndisidore/songbook/pkg/songbook"
)

// convertSong renders one <song>. The song is only returned whole.
func convertSong(p printer.Printer, el *parser.Element) (songbook.Song, error) {
	children := el.Children()
	if len(children) == 0 || children[0].Name() != songbook.TagHeader {
		return songbook.Song{}, fmt.Errorf("%w: song at line %d has no header", songbook.ErrData, el.Line())
	}
	h := readHeader(children[0])

	name, _ := h.Get(songbook.HeaderName)
	if name == "" {
		return songbook.Song{}, fmt.Errorf("%w: song at line %d has no name", songbook.ErrData, el.Line())
	}
	sortingName, _ := h.Get(songbook.HeaderSortingName)

	content := renderContent(p, children[1:])
	return songbook.NewSong(name, sortingName, p.Song(h, content)), nil
}

// readHeader flattens <authors> into one author field per child.
func readHeader(el *parser.Element) songbook.Header {
	var h songbook.Header
	for _, child := range el.Children() {
		if child.Name() != songbook.HeaderAuthors {
			h.Add(child.Name(), child.Text())
			continue
		}
		for _, author := range child.Children() {
			h.Add(songbook.HeaderAuthor, author.Text())
		}
	}
	return h
}

// renderContent renders a run of body elements. Anything that is not
// multicols, line, or columnbreak is framed as a verse or chorus.
func renderContent(p printer.Printer, els []*parser.Element) string {
	var b strings.Builder
	for _, el := range els {
		switch name := el.Name(); name {
		case songbook.TagMulticols:
			columns, _ := el.Attr(songbook.AttrColumns)
			b.WriteString(p.MulticolsStart(columns))
			b.WriteString(renderContent(p, el.Children()))
			b.WriteString(p.MulticolsEnd())
		case songbook.TagLine:
			b.WriteString(p.Line(readLine(p, el)))
		case songbook.TagColumnBreak:
			b.WriteString(p.ColumnBreak())
		default:
			kind := songbook.VerseKindOf(name)
			b.WriteString(p.VerseStart(kind))
			b.WriteString(renderContent(p, el.Children()))
			b.WriteString(p.VerseEnd(kind))
		}
	}
	return b.String()
}

// readLine turns mixed line content into items. Chords are rendered right
// away; text emptied by newline removal is dropped.
func readLine(p printer.Printer, el *parser.Element) []songbook.LineItem {
	var items []songbook.LineItem
	for _, n := range el.Nodes() {
		switch n.Kind {
		case parser.NodeText:
			if n.Text != "" {
				items = append(items, songbook.Lyrics(n.Text))
			}
		case parser.NodeElement:
			items = append(items, songbook.ChordItem(p.Chord(songbook.NewChord(n.Element.Attrs()))))
		}
	}
	return items
}
