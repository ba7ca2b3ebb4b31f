package parser

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	_doctypeRe    = regexp.MustCompile(`^DOCTYPE\s+([^\s\[>]+)`)
	_entityDeclRe = regexp.MustCompile(`<!ENTITY\s+([^\s%"']+)\s+(?:"([^"]*)"|'([^']*)')\s*>`)
	_anyEntityRe  = regexp.MustCompile(`<!ENTITY\b`)
)

// doctype is what the internal subset of a DOCTYPE directive declares.
type doctype struct {
	root     string
	declared int
}

// readDoctype reads the root name and the internal general entities of a
// DOCTYPE directive into entities. Only internal general entities are
// supported; a value may refer to any other declared entity.
func readDoctype(directive []byte, entities map[string]string, diags *diagnostics, line, col int) (doctype, bool) {
	m := _doctypeRe.FindSubmatch(directive)
	if m == nil {
		return doctype{}, false
	}
	dt := doctype{root: string(m[1])}

	decls := _entityDeclRe.FindAllSubmatch(directive, -1)
	if n := len(_anyEntityRe.FindAllIndex(directive, -1)); n != len(decls) {
		diags.add(SeverityError, line, col, "%d unsupported entity declaration(s); only internal general entities are allowed", n-len(decls))
	}

	r := &entityResolver{raw: make(map[string][]byte, len(decls)), out: entities, active: map[string]bool{}}
	var order []string
	for _, d := range decls {
		name := string(d[1])
		raw := d[2]
		if raw == nil {
			raw = d[3]
		}
		if _, dup := r.raw[name]; dup {
			// The first declaration is binding.
			diags.add(SeverityWarning, line, col, "entity %q declared more than once", name)
			continue
		}
		r.raw[name] = raw
		order = append(order, name)
	}
	for _, name := range order {
		if err := r.resolve(name); err != nil {
			diags.add(SeverityError, line, col, "entity %q: %v", name, err)
			continue
		}
		dt.declared++
	}
	return dt, true
}

var _entityRefRe = regexp.MustCompile(`&([A-Za-z_:][\w.:-]*);`)

// entityResolver expands declared entity values on demand, so declaration
// order does not matter.
type entityResolver struct {
	raw    map[string][]byte
	out    map[string]string
	active map[string]bool
}

func (r *entityResolver) resolve(name string) error {
	if _, done := r.out[name]; done {
		return nil
	}
	if r.active[name] {
		return fmt.Errorf("recursive reference to %q", name)
	}
	r.active[name] = true
	defer delete(r.active, name)

	raw := r.raw[name]
	for _, ref := range _entityRefRe.FindAllSubmatch(raw, -1) {
		if _, declared := r.raw[string(ref[1])]; declared {
			if err := r.resolve(string(ref[1])); err != nil {
				return err
			}
		}
	}
	value, err := resolveEntityValue(raw, r.out)
	if err != nil {
		return err
	}
	r.out[name] = value
	return nil
}

// resolveEntityValue expands character references and references to known
// entities inside an entity literal.
func resolveEntityValue(raw []byte, known map[string]string) (string, error) {
	var src bytes.Buffer
	src.WriteString("<v>")
	src.Write(raw)
	src.WriteString("</v>")

	d := xml.NewDecoder(&src)
	d.Strict = true
	d.Entity = known

	var out strings.Builder
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return out.String(), nil
		}
		if err != nil {
			var se *xml.SyntaxError
			if errors.As(err, &se) {
				return "", errors.New(se.Msg)
			}
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			out.Write(t)
		case xml.StartElement:
			if t.Name.Local != "v" {
				return "", errors.New("markup is not allowed in entity values")
			}
		}
	}
}
