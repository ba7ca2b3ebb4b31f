package parser

import (
	"fmt"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// ReadEntities collects the name/value pairs of a parsed entity block. The
// name and value children may come in either order.
func ReadEntities(doc *Document) (map[string]string, error) {
	root := doc.Root()
	if root == nil || root.Name() != songbook.TagEntities {
		return nil, fmt.Errorf("%w: <%s> is not the document element", songbook.ErrStructure, songbook.TagEntities)
	}
	out := make(map[string]string)
	for _, entity := range root.Children() {
		var (
			name, value string
			hasName     bool
		)
		for _, field := range entity.Children() {
			switch field.Name() {
			case songbook.TagEntityName:
				name, hasName = field.Text(), true
			case songbook.TagEntityValue:
				value = field.Text()
			}
		}
		if !hasName {
			return nil, fmt.Errorf("%w: line %d: entity without a name", songbook.ErrStructure, entity.Line())
		}
		out[name] = value
	}
	return out, nil
}
