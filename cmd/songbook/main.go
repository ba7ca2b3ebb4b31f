// Package main provides the CLI entry point for songbook.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/ndisidore/songbook/internal/config"
	"github.com/ndisidore/songbook/internal/logging"
	"github.com/ndisidore/songbook/internal/typeset"
	"github.com/ndisidore/songbook/pkg/converter"
	"github.com/ndisidore/songbook/pkg/printer"
	"github.com/ndisidore/songbook/pkg/slogctx"
)

var (
	errUsage       = fmt.Errorf("missing songbook file: %w", errdefs.ErrInvalidArgument)
	errBadParam    = fmt.Errorf("parameter must be name=value: %w", errdefs.ErrInvalidArgument)
	errPDFNeedsTeX = fmt.Errorf("--pdf requires the %s format: %w", printer.FormatLaTeX, errdefs.ErrInvalidArgument)
	errPDFStdout   = fmt.Errorf("--pdf cannot be combined with output to stdout: %w", errdefs.ErrInvalidArgument)
)

// Typesetter turns a generated .tex file into a PDF.
type Typesetter interface {
	Run(ctx context.Context, texPath string, passes int, force bool) (string, error)
}

// app bundles dependencies so CLI action handlers become testable methods.
type app struct {
	newTypesetter func(engine string) Typesetter
	loadConfig    func(path string) (config.Config, error)
	stdout        io.Writer
	stderr        io.Writer
	isTTY         bool
	cfg           config.Config
}

// convertOptions are the per-invocation settings of the convert command.
// Empty strings and nil maps fall back to the config file.
type convertOptions struct {
	input     string
	output    string
	format    string
	language  string
	noSort    bool
	params    map[string]string
	pdfPasses int
	force     bool
	engine    string
}

func main() {
	a := &app{
		newTypesetter: func(engine string) Typesetter { return typeset.NewRunner(typeset.WithEngine(engine)) },
		loadConfig:    config.Load,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		isTTY:         term.IsTerminal(int(os.Stderr.Fd())) && os.Getenv("CI") == "",
	}

	if err := a.command().Run(context.Background(), os.Args); err != nil {
		os.Exit(exitCode(err))
	}
}

func (a *app) command() *cli.Command {
	return &cli.Command{
		Name:  "songbook",
		Usage: "convert XML songbooks to LaTeX and other formats",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "KDL file with default settings",
				Sources: cli.EnvVars("SONGBOOK_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log format (auto, pretty, json, text)",
				Value:   logging.FormatAuto,
				Sources: cli.EnvVars("SONGBOOK_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error); overrides the config file",
				Sources: cli.EnvVars("SONGBOOK_LOG_LEVEL"),
			},
		},
		Before: a.before,
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert a songbook",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "output path, - for stdout (default: input with the format's extension)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "output format (" + strings.Join(printer.Formats(), ", ") + ")",
					},
					&cli.StringFlag{
						Name:  "language",
						Usage: "collation languages, e.g. cs_CZ;en_US, used when the songbook sets none",
					},
					&cli.BoolFlag{
						Name:  "no-sort",
						Usage: "keep songs in document order unless the songbook asks for sorting",
					},
					&cli.StringSliceFlag{
						Name:  "param",
						Usage: "printer parameter as name=value; the songbook settings still win",
					},
					&cli.IntFlag{
						Name:  "pdf",
						Usage: "typeset the LaTeX output with this many passes (1 or 2)",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "typeset even when the output is unchanged",
					},
					&cli.StringFlag{
						Name:    "engine",
						Usage:   "LaTeX engine for --pdf",
						Value:   typeset.DefaultEngine,
						Sources: cli.EnvVars("SONGBOOK_ENGINE"),
					},
				},
				Action: a.convertAction,
			},
			{
				Name:      "validate",
				Usage:     "check a songbook without writing output",
				ArgsUsage: "<file>",
				Action:    a.validateAction,
			},
			{
				Name:   "formats",
				Usage:  "list the output formats",
				Action: a.formatsAction,
			},
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if err != nil {
				_, _ = fmt.Fprintf(a.stderr, "error: %v\n", err)
			}
		},
	}
}

func (a *app) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := a.loadConfig(cmd.String("config"))
	if err != nil {
		return ctx, fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	levelName := a.cfg.LogLevel
	if cmd.IsSet("log-level") {
		levelName = cmd.String("log-level")
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return ctx, err
	}
	logger, err := logging.NewLogger(a.stderr, logging.ResolveFormat(cmd.String("log-format"), a.isTTY), level)
	if err != nil {
		return ctx, fmt.Errorf("initializing logger: %w", err)
	}
	slog.SetDefault(logger)
	return slogctx.ContextWithLogger(ctx, logger), nil
}

func (a *app) convertAction(ctx context.Context, cmd *cli.Command) error {
	params, err := parseParams(cmd.StringSlice("param"))
	if err != nil {
		return err
	}
	return a.convert(ctx, convertOptions{
		input:     cmd.Args().First(),
		output:    cmd.String("output"),
		format:    cmd.String("format"),
		language:  cmd.String("language"),
		noSort:    cmd.Bool("no-sort"),
		params:    params,
		pdfPasses: int(cmd.Int("pdf")),
		force:     cmd.Bool("force"),
		engine:    cmd.String("engine"),
	})
}

// convert renders one songbook. Config values are overridden by options,
// which are in turn overridden by the songbook's own settings.
func (a *app) convert(ctx context.Context, opts convertOptions) error {
	if opts.input == "" {
		return errUsage
	}
	format := a.cfg.Format
	if opts.format != "" {
		format = opts.format
	}
	factory, err := printer.Lookup(format)
	if err != nil {
		return err
	}
	if opts.pdfPasses != 0 {
		switch {
		case factory().Format() != printer.FormatLaTeX:
			return errPDFNeedsTeX
		case opts.output == "-":
			return errPDFStdout
		}
	}

	ctx = slogctx.With(ctx, slog.String("file", opts.input))
	log := slogctx.FromContext(ctx)
	start := time.Now()

	c := a.newConverter(factory, opts)
	if err := c.ParseFile(ctx, opts.input); err != nil {
		return fmt.Errorf("parsing %s: %w", opts.input, err)
	}
	out, err := c.Convert(ctx)
	if err != nil {
		return fmt.Errorf("converting %s: %w", opts.input, err)
	}

	output := opts.output
	if output == "" {
		output = outputPath(opts.input, factory().Extension())
	}
	if output == "-" {
		_, err := io.WriteString(a.stdout, out)
		return err
	}
	if err := os.WriteFile(output, []byte(out), 0o644); err != nil { //nolint:gosec // generated documents are shareable
		return fmt.Errorf("writing %s: %w", output, err)
	}
	log.LogAttrs(ctx, slog.LevelInfo, "converted songbook",
		slog.String("output", output),
		slog.Int("songs", c.SongCount()),
		slog.String("digest", digest.FromString(out).String()),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)

	if opts.pdfPasses == 0 {
		return nil
	}
	pdf, err := a.newTypesetter(opts.engine).Run(ctx, output, opts.pdfPasses, opts.force)
	if err != nil {
		return fmt.Errorf("typesetting %s: %w", output, err)
	}
	log.LogAttrs(ctx, slog.LevelInfo, "wrote pdf", slog.String("output", pdf))
	return nil
}

func (a *app) newConverter(factory printer.Factory, opts convertOptions) *converter.Converter {
	lang := a.cfg.Language
	if opts.language != "" {
		lang = opts.language
	}
	params := maps.Clone(a.cfg.Parameters)
	if params == nil {
		params = make(map[string]string, len(opts.params))
	}
	maps.Copy(params, opts.params)
	return converter.New(factory,
		converter.WithLanguage(lang),
		converter.WithSortSongs(a.cfg.SortSongs && !opts.noSort),
		converter.WithParameters(params),
		converter.WithEntities(a.cfg.Entities),
	)
}

func (a *app) validateAction(ctx context.Context, cmd *cli.Command) error {
	return a.validate(ctx, cmd.Args().First())
}

// validate parses and renders path with the configured format, discarding
// the output, so data errors surface as well as schema errors.
func (a *app) validate(ctx context.Context, path string) error {
	if path == "" {
		return errUsage
	}
	factory, err := printer.Lookup(a.cfg.Format)
	if err != nil {
		return err
	}
	c := a.newConverter(factory, convertOptions{})
	if err := c.ParseFile(ctx, path); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if _, err := c.Convert(ctx); err != nil {
		return fmt.Errorf("converting %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(a.stdout, "Songbook '%s' is valid\n", path)
	_, _ = fmt.Fprintf(a.stdout, "  Songs: %d\n", c.SongCount())
	_, _ = fmt.Fprintf(a.stdout, "  Warnings: %d\n", len(c.Warnings()))
	for _, w := range c.Warnings() {
		_, _ = fmt.Fprintf(a.stdout, "    - %s\n", w)
	}
	return nil
}

func (a *app) formatsAction(_ context.Context, _ *cli.Command) error {
	for _, f := range printer.Formats() {
		p, err := printer.New(f)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.stdout, "%s\t%s\n", f, p.Extension())
	}
	return nil
}

// parseParams splits name=value pairs.
func parseParams(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", errBadParam, p)
		}
		out[k] = v
	}
	return out, nil
}

// outputPath replaces a trailing .xml on src with ext, or appends ext.
func outputPath(src, ext string) string {
	if n := len(src) - len(".xml"); n > 0 && strings.EqualFold(src[n:], ".xml") {
		return src[:n] + ext
	}
	return src + ext
}

// exitCode is 2 for bad input and 1 for everything else.
func exitCode(err error) int {
	if errdefs.IsInvalidArgument(err) {
		return 2
	}
	return 1
}
