// Package converter turns a songbook document into a rendered document
// through a printer.Printer.
package converter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/antchfx/xpath"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ndisidore/songbook/pkg/parser"
	"github.com/ndisidore/songbook/pkg/printer"
	"github.com/ndisidore/songbook/pkg/slogctx"
	"github.com/ndisidore/songbook/pkg/songbook"
)

// ErrNotParsed is returned by Convert before a successful Parse.
var ErrNotParsed = errors.New("no songbook parsed")

var _songsExpr = xpath.MustCompile("/songbook/songs/song")

// Converter parses one songbook and renders it. A Converter is not safe for
// concurrent use.
type Converter struct {
	newPrinter printer.Factory
	entities   map[string]string
	params     map[string]string
	language   string
	sortSongs  bool

	doc      *parser.Document
	resolved *songbook.Store
	warnings []parser.Diagnostic
}

// Option configures a Converter.
type Option func(*Converter)

// WithLanguage sets the collation languages used when the document has no
// language setting. The value is a semicolon-separated candidate list.
func WithLanguage(langs string) Option {
	return func(c *Converter) { c.language = langs }
}

// WithSortSongs sets whether songs are sorted when the document does not say.
func WithSortSongs(sort bool) Option {
	return func(c *Converter) { c.sortSongs = sort }
}

// WithParameters overrides printer parameters ahead of document settings.
func WithParameters(params map[string]string) Option {
	return func(c *Converter) {
		for k, v := range params {
			c.params[k] = v
		}
	}
}

// WithEntities overrides printer entities ahead of the document's own.
func WithEntities(entities map[string]string) Option {
	return func(c *Converter) {
		for k, v := range entities {
			c.entities[k] = v
		}
	}
}

// New returns a converter rendering through printers made by newPrinter.
// Songs are sorted by default.
func New(newPrinter printer.Factory, opts ...Option) *Converter {
	c := &Converter{
		newPrinter: newPrinter,
		entities:   make(map[string]string),
		params:     make(map[string]string),
		sortSongs:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads the songbook source at path.
func Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", songbook.ErrIO, err)
	}
	return string(raw), nil
}

// ParseFile loads and parses the songbook at path.
func (c *Converter) ParseFile(ctx context.Context, path string) error {
	raw, err := Load(path)
	if err != nil {
		return err
	}
	return c.Parse(ctx, raw)
}

// Parse parses raw in two passes. The entity block, when present, is parsed
// alone first with the printer's entities declared, and the entities it
// defines are merged over them. The whole document is then parsed with the
// merged set declared, so entity references resolve anywhere in it. The
// previously parsed document is kept when Parse fails.
func (c *Converter) Parse(ctx context.Context, raw string) error {
	log := slogctx.FromContext(ctx)

	entities := c.newPrinter().Entities().Clone()
	entities.Merge(c.entities)

	ex, err := parser.ExtractEntities(raw)
	if err != nil {
		return err
	}
	var warnings []parser.Diagnostic
	if ex.Found {
		doc, err := parseFragment(ex.XML, songbook.TagEntities, entities, ex.Offset)
		if err != nil {
			return err
		}
		warnings = append(warnings, doc.Warnings()...)
		declared, err := parser.ReadEntities(doc)
		if err != nil {
			return err
		}
		entities.Merge(declared)
		log.LogAttrs(ctx, slog.LevelDebug, "read document entities", slog.Int("count", len(declared)))
	}

	doc, err := parseFragment(raw, songbook.TagSongbook, entities, 0)
	if err != nil {
		return err
	}
	warnings = append(warnings, doc.Warnings()...)
	for _, w := range warnings {
		log.LogAttrs(ctx, slog.LevelWarn, w.Message, slog.Int("line", w.Line), slog.Int("column", w.Column))
	}

	c.doc, c.resolved, c.warnings = doc, entities, warnings
	return nil
}

func parseFragment(text, root string, entities *songbook.Store, offset int) (*parser.Document, error) {
	spliced, err := parser.InsertDTD(text, root, parser.GenerateDTD(root, entities.Map()))
	if err != nil {
		return nil, err
	}
	return parser.Parse(spliced, parser.Options{Root: root, Offset: offset})
}

// Warnings returns the warnings of the last successful Parse.
func (c *Converter) Warnings() []parser.Diagnostic { return c.warnings }

// Entities returns the entity set the last successful Parse declared.
func (c *Converter) Entities() *songbook.Store { return c.resolved }

// SongCount returns the number of songs in the parsed songbook.
func (c *Converter) SongCount() int {
	if c.doc == nil {
		return 0
	}
	return len(c.doc.Select(_songsExpr))
}

// Convert renders the parsed songbook. It does not change the converter, so
// repeated calls give the same output.
func (c *Converter) Convert(ctx context.Context) (string, error) {
	if c.doc == nil {
		return "", ErrNotParsed
	}
	log := slogctx.FromContext(ctx)

	p := c.newPrinter()
	p.Parameters().Merge(c.params)
	s := settings{sortSongs: c.sortSongs, language: c.language}

	if root := c.doc.Root(); root != nil {
		if children := root.Children(); len(children) > 0 && children[0].Name() == songbook.TagSettings {
			s.apply(children[0], p.Parameters())
		}
	}

	els := c.doc.Select(_songsExpr)
	songs := make([]songbook.Song, 0, len(els))
	for _, el := range els {
		song, err := convertSong(p, el)
		if err != nil {
			return "", err
		}
		log.LogAttrs(ctx, slog.LevelDebug, "converted", slog.String("song", song.Name()))
		songs = append(songs, song)
	}

	if s.sortSongs {
		songbook.SortSongs(songs, collate.New(s.collation(ctx)))
	}
	return p.Document(songs), nil
}

// settings is the per-conversion state taken from the <settings> block.
type settings struct {
	sortSongs bool
	language  string
}

// apply reads every setting. language and sortSongs drive the conversion;
// all settings except the entity block reach the printer as parameters.
func (s *settings) apply(el *parser.Element, params *songbook.Store) {
	for _, child := range el.Children() {
		name, value := child.Name(), child.Text()
		switch name {
		case songbook.TagEntities:
			continue
		case songbook.TagSortSongs:
			s.sortSongs = value == songbook.OptionalYes
			continue
		case songbook.TagLanguage:
			s.language = value
		}
		params.Set(name, value)
	}
}

// collation resolves the language setting, falling back to the root
// collation with a warning.
func (s *settings) collation(ctx context.Context) language.Tag {
	if s.language == "" {
		return language.Und
	}
	tag, err := ResolveLanguage(s.language)
	if err != nil {
		slogctx.FromContext(ctx).LogAttrs(ctx, slog.LevelWarn, "collation language not available, using root collation",
			slog.String("languages", s.language))
	}
	return tag
}
