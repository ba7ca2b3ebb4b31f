package songbook

// Chord attribute names and values.
const (
	ChordRoot     = "root"
	ChordType     = "type"
	ChordBass     = "bass"
	ChordOptional = "optional"

	// RootSpecial marks a chord without a real root note (e.g. "N.C.").
	RootSpecial = "special"
	// OptionalYes marks a chord that is rendered in parentheses.
	OptionalYes = "yes"
)

// Chord holds the attributes of one chord element. Build it with NewChord so
// the root/bass invariant holds.
type Chord map[string]string

// NewChord copies attrs and normalizes them: a "special" root is blanked, and
// a chord with an empty root never carries a bass note. The root attribute is
// always present afterwards.
func NewChord(attrs map[string]string) Chord {
	c := make(Chord, len(attrs)+1)
	for k, v := range attrs {
		c[k] = v
	}
	if c[ChordRoot] == RootSpecial {
		c[ChordRoot] = ""
	}
	if c[ChordRoot] == "" {
		c[ChordRoot] = ""
		delete(c, ChordBass)
	}
	return c
}

// Root returns the root note, possibly empty.
func (c Chord) Root() string { return c[ChordRoot] }

// Type returns the chord type suffix and whether it was set.
func (c Chord) Type() (string, bool) {
	v, ok := c[ChordType]
	return v, ok
}

// Bass returns the bass note and whether it was set.
func (c Chord) Bass() (string, bool) {
	v, ok := c[ChordBass]
	return v, ok
}

// Optional reports whether the chord is marked optional.
func (c Chord) Optional() bool { return c[ChordOptional] == OptionalYes }
