package songbook

import "slices"

// Song is one fully rendered song. It is built once by the converter and
// never modified afterwards.
type Song struct {
	name        string
	sortingName string
	content     string
}

// NewSong returns a finalized song. An empty sortingName makes the song sort
// by its display name.
func NewSong(name, sortingName, content string) Song {
	return Song{name: name, sortingName: sortingName, content: content}
}

// Name returns the display name.
func (s Song) Name() string { return s.name }

// SortKey returns the explicit sorting name, or the display name when none
// was set.
func (s Song) SortKey() string {
	if s.sortingName == "" {
		return s.name
	}
	return s.sortingName
}

// Content returns the rendered song text.
func (s Song) Content() string { return s.content }

// Comparer orders strings according to some collation.
// *collate.Collator satisfies it.
type Comparer interface {
	CompareString(a, b string) int
}

// Compare orders two songs by their sort keys under cmp.
func Compare(a, b Song, cmp Comparer) int {
	return cmp.CompareString(a.SortKey(), b.SortKey())
}

// SortSongs stable-sorts songs in place by sort key.
func SortSongs(songs []Song, cmp Comparer) {
	slices.SortStableFunc(songs, func(a, b Song) int {
		return Compare(a, b, cmp)
	})
}
