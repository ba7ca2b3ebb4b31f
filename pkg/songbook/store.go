package songbook

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// placeholderDelim surrounds parameter names inside printer templates.
const placeholderDelim = "@@@"

// Store is a name to value map used for both document entities and printer
// parameters. Later writes win. The zero value is ready to use.
type Store struct {
	values map[string]string
}

// NewStore returns a store seeded with defaults.
func NewStore(defaults map[string]string) *Store {
	s := &Store{}
	s.Merge(defaults)
	return s
}

// Set inserts or overwrites name.
func (s *Store) Set(name, value string) {
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[name] = value
}

// Get returns the value stored under name, or "" when absent.
func (s *Store) Get(name string) string {
	return s.values[name]
}

// Lookup returns the value stored under name and whether it exists.
func (s *Store) Lookup(name string) (string, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Merge overwrites existing names and inserts new ones from update.
func (s *Store) Merge(update map[string]string) {
	for k, v := range update {
		s.Set(k, v)
	}
}

// Len returns the number of stored names.
func (s *Store) Len() int { return len(s.values) }

// Keys returns every stored name in byte order.
func (s *Store) Keys() []string {
	return slices.Sorted(maps.Keys(s.values))
}

// All iterates the store in key order.
func (s *Store) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, k := range s.Keys() {
			if !yield(k, s.values[k]) {
				return
			}
		}
	}
}

// Map returns a copy of the stored values.
func (s *Store) Map() map[string]string {
	return maps.Clone(s.values)
}

// Clone returns an independent copy.
func (s *Store) Clone() *Store {
	return &Store{values: maps.Clone(s.values)}
}

// Substitute replaces every @@@name@@@ placeholder in text whose name is
// stored. Unknown placeholders are left verbatim.
func (s *Store) Substitute(text string) string {
	if len(s.values) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(s.values))
	for k, v := range s.All() {
		pairs = append(pairs, placeholderDelim+k+placeholderDelim, v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
