// Package songbook defines the intermediate representation shared by the
// songbook parser, converter, and printers.
package songbook

import (
	"fmt"

	"github.com/containerd/errdefs"
)

// Sentinel errors for conversion failures. Each one also wraps an errdefs
// class so callers can tell bad input apart from environment problems.
var (
	ErrIO        = fmt.Errorf("songbook unreadable: %w", errdefs.ErrUnavailable)
	ErrStructure = fmt.Errorf("malformed songbook: %w", errdefs.ErrInvalidArgument)
	ErrSchema    = fmt.Errorf("invalid songbook: %w", errdefs.ErrInvalidArgument)
	ErrData      = fmt.Errorf("incomplete song: %w", errdefs.ErrInvalidArgument)
)

// Element and attribute names of the songbook vocabulary.
const (
	TagSongbook    = "songbook"
	TagSettings    = "settings"
	TagLanguage    = "language"
	TagSortSongs   = "sortSongs"
	TagEntities    = "entities"
	TagEntity      = "entity"
	TagEntityName  = "name"
	TagEntityValue = "value"
	TagSongs       = "songs"
	TagSong        = "song"
	TagHeader      = "header"
	TagMulticols   = "multicols"
	TagVerse       = "verse"
	TagChorus      = "chorus"
	TagLine        = "line"
	TagColumnBreak = "columnbreak"
	TagChord       = "chord"

	AttrColumns = "number"
)

// VerseKind distinguishes the two song body units.
type VerseKind int

// Verse kinds.
const (
	Verse VerseKind = iota
	Chorus
)

// String returns the element name of the verse kind.
func (k VerseKind) String() string {
	if k == Verse {
		return TagVerse
	}
	return TagChorus
}

// VerseKindOf maps a body element name to its verse kind. Anything that is
// not a verse is framed as a chorus.
func VerseKindOf(tag string) VerseKind {
	if tag == TagVerse {
		return Verse
	}
	return Chorus
}
