package parser

import (
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed and validated songbook tree.
type Document struct {
	root     *xmlquery.Node
	offset   int
	warnings []Diagnostic
}

// Element is an element node of a Document.
type Element struct {
	node   *xmlquery.Node
	offset int
}

// NodeKind tells the entries of mixed content apart.
type NodeKind int

// Mixed content node kinds.
const (
	NodeText NodeKind = iota
	NodeElement
)

// Node is one entry of an element's mixed content.
type Node struct {
	Kind    NodeKind
	Text    string
	Element *Element
}

// Root returns the document element.
func (d *Document) Root() *Element {
	for n := d.root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return d.wrap(n)
		}
	}
	return nil
}

// Select returns every element matched by expr, in document order.
func (d *Document) Select(expr *xpath.Expr) []*Element {
	nodes := xmlquery.QuerySelectorAll(d.root, expr)
	out := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type == xmlquery.ElementNode {
			out = append(out, d.wrap(n))
		}
	}
	return out
}

// Warnings returns the warnings reported by a successful parse.
func (d *Document) Warnings() []Diagnostic {
	return d.warnings
}

func (d *Document) wrap(n *xmlquery.Node) *Element {
	return &Element{node: n, offset: d.offset}
}

// Name returns the element's local name.
func (e *Element) Name() string { return e.node.Data }

// Line returns the element's line in the original source.
func (e *Element) Line() int { return e.node.LineNumber + e.offset }

// Attr returns the value of the named attribute and whether it is present.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Attrs returns every unqualified attribute.
func (e *Element) Attrs() map[string]string {
	out := make(map[string]string, len(e.node.Attr))
	for _, a := range e.node.Attr {
		if a.Name.Space == "" && a.Name.Local != "xmlns" {
			out[a.Name.Local] = a.Value
		}
	}
	return out
}

// Children returns the child elements.
func (e *Element) Children() []*Element {
	var out []*Element
	for n := e.node.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			out = append(out, &Element{node: n, offset: e.offset})
		}
	}
	return out
}

// Text returns the element's own character data with line breaks removed.
func (e *Element) Text() string {
	var b strings.Builder
	for n := e.node.FirstChild; n != nil; n = n.NextSibling {
		if isText(n) {
			b.WriteString(n.Data)
		}
	}
	return StripNewlines(b.String())
}

// Nodes returns the element's mixed content in order. Text entries have line
// breaks removed; comments and processing instructions are skipped.
func (e *Element) Nodes() []Node {
	var out []Node
	for n := e.node.FirstChild; n != nil; n = n.NextSibling {
		switch {
		case isText(n):
			out = append(out, Node{Kind: NodeText, Text: StripNewlines(n.Data)})
		case n.Type == xmlquery.ElementNode:
			out = append(out, Node{Kind: NodeElement, Element: &Element{node: n, offset: e.offset}})
		}
	}
	return out
}

func isText(n *xmlquery.Node) bool {
	return n.Type == xmlquery.TextNode || n.Type == xmlquery.CharDataNode
}

var _newlineStripper = strings.NewReplacer("\r\n", "", "\n", "")

// StripNewlines removes CRLF and LF line breaks.
func StripNewlines(s string) string {
	return _newlineStripper.Replace(s)
}
