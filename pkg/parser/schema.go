package parser

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/ndisidore/songbook/pkg/songbook"
)

// rule is the content model of one element.
type rule struct {
	children     []string
	lead         string // may appear only as the first child
	leadRequired bool
	required     []string
	single       []string
	text         bool
	attrs        []string
	requiredAttr []string
	anyChildren  bool // children are free-form text parameters
}

func (r rule) allows(child string) bool {
	return r.anyChildren || contains(r.children, child)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var (
	_leaf     = rule{text: true}
	_bodyUnit = rule{children: []string{songbook.TagLine, songbook.TagColumnBreak}}
)

// _vocabulary maps element names to their content model. Children of
// <settings> other than <entities> use _leaf regardless of their name.
var _vocabulary = map[string]rule{
	songbook.TagSongbook: {
		children: []string{songbook.TagSettings, songbook.TagSongs},
		lead:     songbook.TagSettings,
		required: []string{songbook.TagSongs},
		single:   []string{songbook.TagSettings, songbook.TagSongs},
	},
	songbook.TagSettings: {
		anyChildren: true,
		single:      []string{songbook.TagEntities, songbook.TagLanguage, songbook.TagSortSongs},
	},
	songbook.TagEntities: {children: []string{songbook.TagEntity}},
	songbook.TagEntity: {
		children: []string{songbook.TagEntityName, songbook.TagEntityValue},
		required: []string{songbook.TagEntityName, songbook.TagEntityValue},
		single:   []string{songbook.TagEntityName, songbook.TagEntityValue},
	},
	songbook.TagSongs: {children: []string{songbook.TagSong}},
	songbook.TagSong: {
		children: []string{
			songbook.TagHeader, songbook.TagMulticols, songbook.TagVerse,
			songbook.TagChorus, songbook.TagLine, songbook.TagColumnBreak,
		},
		lead:         songbook.TagHeader,
		leadRequired: true,
		single:       []string{songbook.TagHeader},
	},
	songbook.TagHeader: {
		children: []string{
			songbook.HeaderName, songbook.HeaderSortingName, songbook.HeaderAuthors,
			songbook.HeaderAlbum, songbook.HeaderYear,
		},
		single: []string{
			songbook.HeaderName, songbook.HeaderSortingName, songbook.HeaderAuthors,
			songbook.HeaderAlbum, songbook.HeaderYear,
		},
	},
	songbook.HeaderAuthors: {
		children: []string{songbook.HeaderAuthor},
		required: []string{songbook.HeaderAuthor},
	},
	songbook.TagMulticols: {
		children:     []string{songbook.TagVerse, songbook.TagChorus, songbook.TagLine, songbook.TagColumnBreak},
		attrs:        []string{songbook.AttrColumns},
		requiredAttr: []string{songbook.AttrColumns},
	},
	songbook.TagVerse:       _bodyUnit,
	songbook.TagChorus:      _bodyUnit,
	songbook.TagLine:        {children: []string{songbook.TagChord}, text: true},
	songbook.TagColumnBreak: {},
	songbook.TagChord: {
		attrs:        []string{songbook.ChordRoot, songbook.ChordType, songbook.ChordBass, songbook.ChordOptional},
		requiredAttr: []string{songbook.ChordRoot},
	},
	songbook.HeaderName:        _leaf,
	songbook.HeaderSortingName: _leaf,
	songbook.HeaderAuthor:      _leaf,
	songbook.HeaderAlbum:       _leaf,
	songbook.HeaderYear:        _leaf,
	songbook.TagEntityValue:    _leaf,
}

// frame tracks one open element during validation.
type frame struct {
	name     string
	rule     rule
	line     int
	col      int
	children int
	counts   map[string]int
	text     strings.Builder
}

// validator checks a token stream against _vocabulary.
type validator struct {
	root  string
	diags *diagnostics
	stack []*frame
}

func (v *validator) start(el xml.StartElement, line, col int) {
	name := el.Name.Local
	r, known := _vocabulary[name]
	reported := false

	if len(v.stack) == 0 {
		if name != v.root {
			v.diags.add(SeverityError, line, col, "root element <%s> is not <%s>", name, v.root)
			reported = true
		}
	} else {
		parent := v.stack[len(v.stack)-1]
		switch {
		case parent.name == songbook.TagSettings && name != songbook.TagEntities:
			r, known = _leaf, true
		case !parent.rule.allows(name):
			v.diags.add(SeverityError, line, col, "element <%s> is not allowed in <%s>", name, parent.name)
			reported = true
		}
		v.placeChild(parent, name, line, col)
	}
	if !known && !reported {
		v.diags.add(SeverityError, line, col, "unknown element <%s>", name)
	}

	seen := make(map[string]bool, len(el.Attr))
	for _, a := range el.Attr {
		if a.Name.Space != "" || a.Name.Local == "xmlns" {
			continue
		}
		seen[a.Name.Local] = true
		if !contains(r.attrs, a.Name.Local) {
			v.diags.add(SeverityError, line, col, "attribute %q is not allowed on <%s>", a.Name.Local, name)
			continue
		}
		v.checkAttr(name, a, line, col)
	}
	for _, req := range r.requiredAttr {
		if !seen[req] {
			v.diags.add(SeverityError, line, col, "<%s> is missing required attribute %q", name, req)
		}
	}

	v.stack = append(v.stack, &frame{name: name, rule: r, line: line, col: col, counts: map[string]int{}})
}

func (v *validator) placeChild(parent *frame, name string, line, col int) {
	r := parent.rule
	if parent.children == 0 && r.leadRequired && name != r.lead {
		v.diags.add(SeverityError, line, col, "<%s> must start with <%s>", parent.name, r.lead)
	}
	if parent.children > 0 && r.lead == name {
		v.diags.add(SeverityError, line, col, "<%s> must be the first child of <%s>", name, parent.name)
	}
	parent.children++
	parent.counts[name]++
	if parent.counts[name] == 2 && contains(r.single, name) {
		v.diags.add(SeverityError, line, col, "<%s> may appear only once in <%s>", name, parent.name)
	}
}

func (v *validator) checkAttr(el string, a xml.Attr, line, col int) {
	switch {
	case el == songbook.TagMulticols && a.Name.Local == songbook.AttrColumns:
		if n, err := strconv.Atoi(strings.TrimSpace(a.Value)); err != nil || n < 1 {
			v.diags.add(SeverityError, line, col, "attribute %q of <%s> must be a positive integer, got %q", a.Name.Local, el, a.Value)
		}
	case el == songbook.TagChord && a.Name.Local == songbook.ChordOptional:
		if a.Value != "yes" && a.Value != "no" {
			v.diags.add(SeverityWarning, line, col, "attribute %q of <chord> should be \"yes\" or \"no\", got %q", a.Name.Local, a.Value)
		}
	}
}

func (v *validator) charData(data []byte, line, col int) {
	if len(v.stack) == 0 {
		return
	}
	top := v.stack[len(v.stack)-1]
	if top.rule.text {
		top.text.Write(data)
		return
	}
	if strings.TrimSpace(string(data)) != "" {
		v.diags.add(SeverityError, line, col, "text is not allowed in <%s>", top.name)
	}
}

func (v *validator) end(line, col int) {
	if len(v.stack) == 0 {
		return
	}
	top := v.stack[len(v.stack)-1]
	v.stack = v.stack[:len(v.stack)-1]

	for _, req := range top.rule.required {
		if top.counts[req] == 0 {
			v.diags.add(SeverityError, top.line, top.col, "<%s> is missing required element <%s>", top.name, req)
		}
	}
	if top.rule.leadRequired && top.children == 0 {
		v.diags.add(SeverityError, top.line, top.col, "<%s> must start with <%s>", top.name, top.rule.lead)
	}
	if top.name == songbook.TagSortSongs && len(v.stack) > 0 && v.stack[len(v.stack)-1].name == songbook.TagSettings {
		if s := strings.TrimSpace(top.text.String()); s != "yes" && s != "no" {
			v.diags.add(SeverityWarning, line, col, "<sortSongs> should be \"yes\" or \"no\", got %q", s)
		}
	}
}
