package printer

import (
	"strings"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// SegmentKind classifies one rendered piece of a line.
type SegmentKind int

// Segment kinds.
const (
	// SegmentLyrics is lyrics without chords above them.
	SegmentLyrics SegmentKind = iota
	// SegmentChordsOverLyrics places chords above a lyric fragment.
	SegmentChordsOverLyrics
	// SegmentChordsOnly is a run of chords with no lyrics anywhere on the line.
	SegmentChordsOnly
)

// Segment is one unit of a composed line.
type Segment struct {
	Kind   SegmentKind
	Chords string
	Lyrics string
	// Hyphen asks the typesetter to join the fragment to the next one with a
	// hyphen if the chords turn out wider than the lyrics.
	Hyphen bool
}

// ComposeLine groups consecutive chords with the lyric fragment that follows
// them. A fragment that is not the last lyric of the line and does not end in
// a space is hyphen-aware. Trailing chords are placed over empty lyrics on a
// line that has lyrics, or stand alone on a chords-only line.
func ComposeLine(items []songbook.LineItem) []Segment {
	total := songbook.CountLyrics(items)
	var (
		out    []Segment
		chords strings.Builder
		seen   int
	)
	for _, it := range items {
		if it.Kind == songbook.ItemChord {
			chords.WriteString(it.Value)
			continue
		}
		seen++
		if chords.Len() == 0 {
			out = append(out, Segment{Kind: SegmentLyrics, Lyrics: it.Value})
			continue
		}
		out = append(out, Segment{
			Kind:   SegmentChordsOverLyrics,
			Chords: chords.String(),
			Lyrics: it.Value,
			Hyphen: seen < total && !strings.HasSuffix(it.Value, " "),
		})
		chords.Reset()
	}
	if chords.Len() > 0 {
		kind := SegmentChordsOnly
		if total > 0 {
			kind = SegmentChordsOverLyrics
		}
		out = append(out, Segment{Kind: kind, Chords: chords.String()})
	}
	return out
}
