// Package parser turns songbook XML into a validated element tree.
//
// Parsing runs in two steps over the same text. A token pass with
// encoding/xml checks well-formedness and the songbook vocabulary, collects
// positioned diagnostics, and reads entity declarations from the DOCTYPE
// internal subset. A document that passes is then loaded into an xmlquery
// tree for XPath access.
package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// Options controls a single Parse call.
type Options struct {
	// Root is the expected document element name.
	Root string
	// Offset is added to every reported line, for fragments cut out of a
	// larger source.
	Offset int
}

// Parse validates text and builds its tree. Every problem found is reported;
// only a fatal well-formedness error stops the scan early. If any error or
// fatal entry was recorded, the returned error wraps songbook.ErrSchema and
// a *DiagnosticsError.
func Parse(text string, opts Options) (*Document, error) {
	diags := &diagnostics{offset: opts.Offset}
	entities := make(map[string]string)
	scan(text, opts.Root, entities, diags)

	if diags.failed {
		return nil, fmt.Errorf("%w: %w", songbook.ErrSchema, &DiagnosticsError{Diagnostics: diags.entries})
	}

	root, err := xmlquery.ParseWithOptions(strings.NewReader(text), xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: true,
			Entity: entities,
		},
		WithLineNumbers: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: building tree: %w", songbook.ErrSchema, err)
	}
	return &Document{root: root, offset: opts.Offset, warnings: diags.warnings()}, nil
}

// scan runs the validating token pass. Entities declared in the DOCTYPE are
// stored into entities as soon as the directive is read, so references later
// in the text resolve.
func scan(text, root string, entities map[string]string, diags *diagnostics) {
	d := xml.NewDecoder(strings.NewReader(text))
	d.Strict = true
	d.Entity = entities

	v := &validator{root: root, diags: diags}
	var (
		dt       doctype
		seenDT   bool
		rootSeen bool
	)
	for {
		line, col := d.InputPos()
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				_, col = d.InputPos()
				diags.add(SeverityFatal, se.Line, col, "%s", se.Msg)
			} else {
				diags.add(SeverityFatal, line, col, "%v", err)
			}
			return
		}

		switch t := tok.(type) {
		case xml.Directive:
			if seenDT || rootSeen {
				diags.add(SeverityError, line, col, "unexpected directive")
				continue
			}
			if dt, seenDT = readDoctype(t, entities, diags, line, col); !seenDT {
				diags.add(SeverityError, line, col, "unexpected directive")
			}
		case xml.StartElement:
			if len(v.stack) == 0 {
				if rootSeen {
					diags.add(SeverityError, line, col, "content after the document element")
				}
				rootSeen = true
				if seenDT && dt.root != t.Name.Local {
					diags.add(SeverityError, line, col, "document element <%s> does not match DOCTYPE %q", t.Name.Local, dt.root)
				}
			}
			v.start(t, line, col)
		case xml.EndElement:
			endLine, endCol := d.InputPos()
			v.end(endLine, endCol)
		case xml.CharData:
			v.charData(t, line, col)
		}
	}
	if !rootSeen {
		diags.add(SeverityFatal, 1, 1, "no document element")
	}
}
