// Package config loads songbook CLI defaults from a KDL file.
//
//	format "latex"
//	language "cs;en"
//	sort-songs true
//	log-level "info"
//	parameter "mainFont" "TeX Gyre Pagella"
//	entity "band" "The Band"
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/ndisidore/songbook/pkg/printer"
)

// Sentinel errors for config failures.
var (
	ErrUnknownNode    = errors.New("unknown config node")
	ErrMissingField   = errors.New("missing required argument")
	ErrExtraArgs      = errors.New("too many arguments")
	ErrTypeMismatch   = errors.New("argument type mismatch")
	ErrDuplicateField = errors.New("duplicate field")
)

// Log levels accepted by LogLevel.
var _logLevels = []any{"debug", "info", "warn", "error"}

// Config holds the defaults a conversion starts from. Flags override it, and
// the settings inside a songbook override both.
type Config struct {
	Format     string
	Language   string
	SortSongs  bool
	LogLevel   string
	Parameters map[string]string
	Entities   map[string]string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Format:     printer.FormatLaTeX,
		SortSongs:  true,
		LogLevel:   "info",
		Parameters: map[string]string{},
		Entities:   map[string]string{},
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	formats := make([]any, 0, len(printer.Formats()))
	for _, f := range printer.Formats() {
		formats = append(formats, f)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Format, validation.Required, validation.In(formats...)),
		validation.Field(&c.LogLevel, validation.Required, validation.In(_logLevels...)),
	)
}

// Load reads the config file at path. An empty path yields Default.
func Load(path string) (c Config, err error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()
	return Parse(f, path)
}

// Parse reads KDL config from r over Default.
func Parse(r io.Reader, filename string) (Config, error) {
	doc, err := kdl.Parse(r)
	if err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", filename, err)
	}

	c := Default()
	seen := make(map[string]bool, len(doc.Nodes))
	for _, node := range doc.Nodes {
		name := node.Name.ValueString()
		switch name {
		case "format", "language", "log-level", "sort-songs":
			if seen[name] {
				return Config{}, fmt.Errorf("%s: %q: %w", filename, name, ErrDuplicateField)
			}
			seen[name] = true
		}
		if err := applyNode(&c, node, filename); err != nil {
			return Config{}, err
		}
	}

	c.Format = strings.ToLower(c.Format)
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return c, nil
}

func applyNode(c *Config, node *document.Node, filename string) error {
	name := node.Name.ValueString()
	switch name {
	case "format", "language", "log-level":
		v, err := singleStringArg(node, filename, name)
		if err != nil {
			return err
		}
		switch name {
		case "format":
			c.Format = v
		case "language":
			c.Language = v
		default:
			c.LogLevel = v
		}
	case "sort-songs":
		if len(node.Arguments) != 1 {
			return fmt.Errorf("%s: sort-songs requires exactly one argument: %w", filename, ErrMissingField)
		}
		b, ok := node.Arguments[0].ResolvedValue().(bool)
		if !ok {
			return fmt.Errorf("%s: sort-songs: not a boolean: %w", filename, ErrTypeMismatch)
		}
		c.SortSongs = b
	case "parameter", "entity":
		kv, err := stringArgs2(node, filename, name)
		if err != nil {
			return err
		}
		if name == "parameter" {
			c.Parameters[kv[0]] = kv[1]
		} else {
			c.Entities[kv[0]] = kv[1]
		}
	default:
		return fmt.Errorf("%s: %w: %q", filename, ErrUnknownNode, name)
	}
	return nil
}

func singleStringArg(node *document.Node, filename, field string) (string, error) {
	if len(node.Arguments) > 1 {
		return "", fmt.Errorf("%s: %s takes one argument, got %d: %w", filename, field, len(node.Arguments), ErrExtraArgs)
	}
	v, err := stringArg(node, 0)
	if err != nil {
		return "", fmt.Errorf("%s: %q requires a string value: %w", filename, field, err)
	}
	return v, nil
}

func stringArgs2(node *document.Node, filename, field string) ([2]string, error) {
	switch {
	case len(node.Arguments) < 2:
		return [2]string{}, fmt.Errorf("%s: %s requires two arguments, got %d: %w", filename, field, len(node.Arguments), ErrMissingField)
	case len(node.Arguments) > 2:
		return [2]string{}, fmt.Errorf("%s: %s requires two arguments, got %d: %w", filename, field, len(node.Arguments), ErrExtraArgs)
	}
	var out [2]string
	for i := range out {
		v, err := stringArg(node, i)
		if err != nil {
			return [2]string{}, fmt.Errorf("%s: %s: %w", filename, field, err)
		}
		out[i] = v
	}
	return out, nil
}

func stringArg(node *document.Node, idx int) (string, error) {
	if idx >= len(node.Arguments) {
		return "", fmt.Errorf("argument %d: %w", idx, ErrMissingField)
	}
	v, ok := node.Arguments[idx].ResolvedValue().(string)
	if !ok {
		return "", fmt.Errorf("argument %d: not a string: %w", idx, ErrTypeMismatch)
	}
	return v, nil
}
