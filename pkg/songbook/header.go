package songbook

import (
	"slices"
	"sort"
)

// Song header field names.
const (
	HeaderName        = "name"
	HeaderSortingName = "sortingName"
	HeaderAuthors     = "authors"
	HeaderAuthor      = "author"
	HeaderAlbum       = "album"
	HeaderYear        = "year"
)

// Field is one tag/value pair of a song header.
type Field struct {
	Tag   string
	Value string
}

// Header is an ordered multi-map of song header fields. Fields are kept
// sorted by tag; repeated tags (several authors) keep their source order.
type Header struct {
	fields []Field
}

// Add inserts a field after every existing field with the same or a smaller
// tag.
func (h *Header) Add(tag, value string) {
	i := sort.Search(len(h.fields), func(i int) bool {
		return h.fields[i].Tag > tag
	})
	h.fields = slices.Insert(h.fields, i, Field{Tag: tag, Value: value})
}

// Get returns the first value stored under tag.
func (h Header) Get(tag string) (string, bool) {
	for _, f := range h.fields {
		if f.Tag == tag {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns every value stored under tag in source order.
func (h Header) Values(tag string) []string {
	var out []string
	for _, f := range h.fields {
		if f.Tag == tag {
			out = append(out, f.Value)
		}
	}
	return out
}

// Fields returns a copy of all fields in tag order.
func (h Header) Fields() []Field {
	return slices.Clone(h.fields)
}

// Len returns the number of fields.
func (h Header) Len() int { return len(h.fields) }
