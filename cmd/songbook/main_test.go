package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/ndisidore/songbook/internal/config"
	"github.com/ndisidore/songbook/pkg/printer"
	"github.com/ndisidore/songbook/pkg/songbook"
)

const _book = `<songbook>
<settings><tocTitle>Songs</tocTitle></settings>
<songs>
<song><header><name>Zebra</name></header><verse><line><chord root="C"/>la</line></verse></song>
<song><header><name>apple</name></header><verse><line>lo</line></verse></song>
</songs>
</songbook>`

// fakeTypesetter records the calls made to it.
type fakeTypesetter struct {
	engine string
	calls  []string
	err    error
}

func (f *fakeTypesetter) Run(_ context.Context, texPath string, _ int, _ bool) (string, error) {
	f.calls = append(f.calls, texPath)
	return strings.TrimSuffix(texPath, ".tex") + ".pdf", f.err
}

func writeBook(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newTestApp(ts *fakeTypesetter) (*app, *bytes.Buffer) {
	var buf bytes.Buffer
	return &app{
		newTypesetter: func(engine string) Typesetter {
			ts.engine = engine
			return ts
		},
		loadConfig: config.Load,
		stdout:     &buf,
		stderr:     &bytes.Buffer{},
		cfg:        config.Default(),
	}, &buf
}

func TestConvert(t *testing.T) {
	t.Parallel()

	t.Run("writes next to the input", func(t *testing.T) {
		t.Parallel()
		a, _ := newTestApp(&fakeTypesetter{})
		in := writeBook(t, _book)
		require.NoError(t, a.convert(context.Background(), convertOptions{input: in}))

		out, err := os.ReadFile(strings.TrimSuffix(in, ".xml") + ".tex")
		require.NoError(t, err)
		assert.Contains(t, string(out), `\newcommand{\toctitle}{Songs}`)
		assert.Less(t, strings.Index(string(out), `\song{apple}`), strings.Index(string(out), `\song{Zebra}`))
	})

	t.Run("stdout with format flag", func(t *testing.T) {
		t.Parallel()
		a, buf := newTestApp(&fakeTypesetter{})
		in := writeBook(t, _book)
		require.NoError(t, a.convert(context.Background(), convertOptions{input: in, output: "-", format: "PLAIN"}))
		assert.Equal(t, "apple\n\nlo\n\n\nZebra\n\n[C]la\n\n\n", buf.String())
	})

	t.Run("no-sort keeps document order", func(t *testing.T) {
		t.Parallel()
		a, buf := newTestApp(&fakeTypesetter{})
		in := writeBook(t, _book)
		require.NoError(t, a.convert(context.Background(), convertOptions{input: in, output: "-", format: printer.FormatPlain, noSort: true}))
		assert.True(t, strings.HasPrefix(buf.String(), "Zebra\n"))
	})

	t.Run("config sets format and parameters", func(t *testing.T) {
		t.Parallel()
		a, buf := newTestApp(&fakeTypesetter{})
		a.cfg.Format = printer.FormatPlain
		a.cfg.Parameters = map[string]string{"chorusLabel": "R"}
		in := writeBook(t, `<songbook><songs><song><header><name>S</name></header><chorus><line>x</line></chorus></song></songs></songbook>`)
		require.NoError(t, a.convert(context.Background(), convertOptions{input: in, output: "-"}))
		assert.Contains(t, buf.String(), "R:\nx\n")
	})

	t.Run("flag parameters override config", func(t *testing.T) {
		t.Parallel()
		a, buf := newTestApp(&fakeTypesetter{})
		a.cfg.Parameters = map[string]string{"chorusLabel": "R"}
		in := writeBook(t, `<songbook><songs><song><header><name>S</name></header><chorus><line>x</line></chorus></song></songs></songbook>`)
		require.NoError(t, a.convert(context.Background(), convertOptions{
			input: in, output: "-", format: printer.FormatPlain,
			params: map[string]string{"chorusLabel": "Chorus"},
		}))
		assert.Contains(t, buf.String(), "Chorus:\nx\n")
	})

	t.Run("pdf typesets the output", func(t *testing.T) {
		t.Parallel()
		ts := &fakeTypesetter{}
		a, _ := newTestApp(ts)
		in := writeBook(t, _book)
		out := filepath.Join(t.TempDir(), "out.tex")
		require.NoError(t, a.convert(context.Background(), convertOptions{input: in, output: out, pdfPasses: 2, engine: "lualatex"}))
		assert.Equal(t, []string{out}, ts.calls)
		assert.Equal(t, "lualatex", ts.engine)
	})

	t.Run("typesetting failure propagates", func(t *testing.T) {
		t.Parallel()
		ts := &fakeTypesetter{err: errors.New("boom")}
		a, _ := newTestApp(ts)
		err := a.convert(context.Background(), convertOptions{input: writeBook(t, _book), pdfPasses: 1})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "typesetting")
	})
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    func(in string) convertOptions
		book    string
		wantErr error
	}{
		{
			name:    "missing input",
			opts:    func(string) convertOptions { return convertOptions{} },
			wantErr: errUsage,
		},
		{
			name:    "unknown format",
			opts:    func(in string) convertOptions { return convertOptions{input: in, format: "docx"} },
			wantErr: printer.ErrUnknownFormat,
		},
		{
			name:    "pdf needs latex",
			opts:    func(in string) convertOptions { return convertOptions{input: in, format: "plain", pdfPasses: 1} },
			wantErr: errPDFNeedsTeX,
		},
		{
			name:    "pdf needs a file",
			opts:    func(in string) convertOptions { return convertOptions{input: in, output: "-", pdfPasses: 1} },
			wantErr: errPDFStdout,
		},
		{
			name:    "invalid songbook",
			opts:    func(in string) convertOptions { return convertOptions{input: in} },
			book:    `<songbook><songs><song/></songs></songbook>`,
			wantErr: songbook.ErrSchema,
		},
		{
			name: "unreadable input",
			opts: func(in string) convertOptions {
				return convertOptions{input: filepath.Join(filepath.Dir(in), "missing.xml")}
			},
			wantErr: songbook.ErrIO,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			book := tt.book
			if book == "" {
				book = _book
			}
			a, _ := newTestApp(&fakeTypesetter{})
			err := a.convert(context.Background(), tt.opts(writeBook(t, book)))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	a, buf := newTestApp(&fakeTypesetter{})
	in := writeBook(t, `<songbook><settings><sortSongs>maybe</sortSongs></settings><songs><song><header><name>S</name></header></song></songs></songbook>`)
	require.NoError(t, a.validate(context.Background(), in))
	out := buf.String()
	assert.Contains(t, out, "is valid\n")
	assert.Contains(t, out, "  Songs: 1\n")
	assert.Contains(t, out, "  Warnings: 1\n")
	assert.Contains(t, out, "    - Warning: line 1")

	a, _ = newTestApp(&fakeTypesetter{})
	err := a.validate(context.Background(), writeBook(t, `<songbook><songs><song><header><year>1</year></header></song></songs></songbook>`))
	require.ErrorIs(t, err, songbook.ErrData)

	require.ErrorIs(t, a.validate(context.Background(), ""), errUsage)
}

func TestFormatsAction(t *testing.T) {
	t.Parallel()

	a, buf := newTestApp(&fakeTypesetter{})
	require.NoError(t, a.formatsAction(context.Background(), &cli.Command{}))
	assert.Equal(t, "latex\t.tex\nplain\t.txt\n", buf.String())
}

func TestCommandRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "songbook.kdl")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`format "plain"`+"\n"+`log-level "warn"`), 0o600))
	in := writeBook(t, _book)

	a, buf := newTestApp(&fakeTypesetter{})
	err := a.command().Run(context.Background(), []string{
		"songbook", "--config", cfgPath, "--log-format", "json",
		"convert", "--output=-", "--param", "chorusLabel=R", in,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "apple\n"))
	assert.Equal(t, printer.FormatPlain, a.cfg.Format)
}

func TestParseParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      []string
		want    map[string]string
		wantErr bool
	}{
		{name: "none", in: nil, want: nil},
		{name: "pairs", in: []string{"a=1", "b=x=y", "c="}, want: map[string]string{"a": "1", "b": "x=y", "c": ""}},
		{name: "missing equals", in: []string{"a"}, wantErr: true},
		{name: "empty name", in: []string{"=v"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseParams(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, errBadParam)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "book.tex", outputPath("book.xml", ".tex"))
	assert.Equal(t, "dir/Book.txt", outputPath("dir/Book.XML", ".txt"))
	assert.Equal(t, "book.sb.tex", outputPath("book.sb", ".tex"))
	assert.Equal(t, ".xml.tex", outputPath(".xml", ".tex"))
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, exitCode(errUsage))
	assert.Equal(t, 2, exitCode(songbook.ErrSchema))
	assert.Equal(t, 1, exitCode(songbook.ErrIO))
	assert.Equal(t, 1, exitCode(errors.New("x")))
	assert.True(t, errdefs.IsInvalidArgument(printer.ErrUnknownFormat))
}
