package parser

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ndisidore/songbook/pkg/songbook"
)

const (
	entitiesOpen  = "<" + songbook.TagEntities + ">"
	entitiesClose = "</" + songbook.TagEntities + ">"
)

// Extracted is the entity block cut out of a raw songbook.
type Extracted struct {
	// XML is the block text from its opening tag through its closing tag.
	XML string
	// Offset is the number of newlines preceding the block in the source.
	Offset int
	// Found is false when the source has no entity block.
	Found bool
}

// ExtractEntities locates the entity block by plain string search. The rest
// of the document is not inspected, since it may not be well-formed until
// its entities are known.
func ExtractEntities(raw string) (Extracted, error) {
	start := strings.Index(raw, entitiesOpen)
	if start < 0 {
		return Extracted{}, nil
	}
	end := strings.Index(raw[start:], entitiesClose)
	if end < 0 {
		return Extracted{}, fmt.Errorf("%w: closing tag %s not found", songbook.ErrStructure, entitiesClose)
	}
	end += start + len(entitiesClose)
	return Extracted{
		XML:    raw[start:end],
		Offset: strings.Count(raw[:start], "\n"),
		Found:  true,
	}, nil
}

// dtdValueEscaper keeps generated declarations on one line and inside their
// literal, so spliced text keeps its line numbers.
var dtdValueEscaper = strings.NewReplacer(
	`"`, "&#34;",
	"%", "&#37;",
	"\r", "&#13;",
	"\n", "&#10;",
)

// GenerateDTD returns an internal subset declaring every entity in sorted
// name order, or "" when there are none. Values are taken as XML text, so
// markup characters must already be escaped (e.g. "&amp;").
func GenerateDTD(root string, entities map[string]string) string {
	if len(entities) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<!DOCTYPE ")
	b.WriteString(root)
	b.WriteString(" [")
	for _, name := range slices.Sorted(maps.Keys(entities)) {
		fmt.Fprintf(&b, `<!ENTITY %s "%s">`, name, dtdValueEscaper.Replace(entities[name]))
	}
	b.WriteString("]>")
	return b.String()
}

// InsertDTD splices dtd immediately before the first opening tag of root.
func InsertDTD(text, root, dtd string) (string, error) {
	if dtd == "" {
		return text, nil
	}
	i := strings.Index(text, "<"+root)
	if i < 0 {
		return "", fmt.Errorf("%w: opening tag <%s> not found", songbook.ErrStructure, root)
	}
	return text[:i] + dtd + text[i:], nil
}
