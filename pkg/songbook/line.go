package songbook

// ItemKind tells lyrics and chords apart within a line.
type ItemKind int

// Line item kinds.
const (
	ItemLyrics ItemKind = iota
	ItemChord
)

// LineItem is one piece of a musical line: a lyric fragment or an already
// rendered chord.
type LineItem struct {
	Kind  ItemKind
	Value string
}

// Lyrics returns a lyric line item.
func Lyrics(text string) LineItem {
	return LineItem{Kind: ItemLyrics, Value: text}
}

// ChordItem returns a chord line item holding the chord's rendered text.
func ChordItem(rendered string) LineItem {
	return LineItem{Kind: ItemChord, Value: rendered}
}

// CountLyrics returns the number of lyric items in a line.
func CountLyrics(items []LineItem) int {
	n := 0
	for _, it := range items {
		if it.Kind == ItemLyrics {
			n++
		}
	}
	return n
}
