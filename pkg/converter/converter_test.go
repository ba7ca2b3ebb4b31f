package converter

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/ndisidore/songbook/pkg/parser"
	"github.com/ndisidore/songbook/pkg/printer"
	"github.com/ndisidore/songbook/pkg/songbook"
)

const fixture = "testdata/songbook.xml"

func plainFactory() printer.Printer { return printer.NewPlain() }
func latexFactory() printer.Printer { return printer.NewLaTeX() }

func convertString(t *testing.T, f printer.Factory, raw string, opts ...Option) string {
	t.Helper()
	c := New(f, opts...)
	require.NoError(t, c.Parse(context.Background(), raw))
	out, err := c.Convert(context.Background())
	require.NoError(t, err)
	return out
}

func TestConvertPlain(t *testing.T) {
	t.Parallel()

	c := New(plainFactory)
	require.NoError(t, c.ParseFile(context.Background(), fixture))
	got, err := c.Convert(context.Background())
	require.NoError(t, err)

	want := "apple\nsortingName: Apple\n\njust text\n\n" +
		"Čáp\n\n[N.C.]\n\nThe Band & me\n\n\n" +
		"Zebra\nalbum: X\nauthor: A\nauthor: B\nyear: 1973\n\n" +
		"[C]Hel[F]lo\n\n" +
		"Ref:\nla la[G/B]\n\n\n"
	assert.Equal(t, want, got)
	assert.Equal(t, "&amp;", c.Entities().Get("and"))
	assert.Empty(t, c.Warnings())
	assert.Equal(t, 3, c.SongCount())
	assert.Zero(t, New(plainFactory).SongCount())
}

func TestConvertLaTeX(t *testing.T) {
	t.Parallel()

	raw, err := Load(fixture)
	require.NoError(t, err)
	got := convertString(t, latexFactory, raw)

	assert.True(t, strings.HasPrefix(got, `\documentclass`))
	assert.True(t, strings.HasSuffix(got, "\n\\end{document}"))
	for _, want := range []string{
		`\newcommand{\toctitle}{Obsah zpěvníku}`,
		"\n\\song{Zebra}{A / B}{X (1973)}\n\n",
		`\verse{\sbline{\chordslyricshyphen{\chord{C}}{Hel}\chordslyrics{\chord{F}}{lo}}` + "\n}\n\n",
		`\chorus{\sbline{la~la\chordslyrics{\chord{G/B}}{}}` + "\n}\n\n",
		`\begin{multicols}{2}\raggedcolumns` + "\n" + `\verse{\sbline{\chord{N.C.}}` + "\n}\n\n" + `\columnbreak` + "\n",
		`\sbline{The Band & me}`,
		`\end{multicols}` + "\n",
		"\n\\song{apple}{}{}\n\n\\sbline{just text}\n\n",
	} {
		assert.Contains(t, got, want)
	}
	assert.Less(t, strings.Index(got, `\song{apple}`), strings.Index(got, `\song{Čáp}`))
	assert.Less(t, strings.Index(got, `\song{Čáp}`), strings.Index(got, `\song{Zebra}`))
}

func TestConvertIdempotent(t *testing.T) {
	t.Parallel()

	c := New(latexFactory)
	require.NoError(t, c.ParseFile(context.Background(), fixture))
	first, err := c.Convert(context.Background())
	require.NoError(t, err)
	second, err := c.Convert(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEmptyEntityBlockMatchesNone(t *testing.T) {
	t.Parallel()

	body := `<songs><song><header><name>S</name></header><verse><line>a&nbsp;b&hellip;</line></verse></song></songs></songbook>`
	without := convertString(t, latexFactory, `<songbook><settings><tocTitle>T</tocTitle></settings>`+body)
	with := convertString(t, latexFactory, `<songbook><settings><tocTitle>T</tocTitle><entities></entities></settings>`+body)
	assert.Equal(t, without, with)
	assert.Contains(t, with, `\sbline{a~b\ldots }`)
}

func TestSorting(t *testing.T) {
	t.Parallel()

	doc := func(settings string) string {
		return `<songbook>` + settings + `<songs>` +
			`<song><header><name>Zebra</name></header></song>` +
			`<song><header><name>apple</name></header></song>` +
			`<song><header><name>Čáp</name></header></song>` +
			`</songs></songbook>`
	}
	order := func(out string) []string {
		var names []string
		for _, l := range strings.Split(out, "\n") {
			if l == "Zebra" || l == "apple" || l == "Čáp" {
				names = append(names, l)
			}
		}
		return names
	}

	tests := []struct {
		name     string
		settings string
		opts     []Option
		want     []string
	}{
		{
			name:     "czech collation",
			settings: `<settings><language>cs</language></settings>`,
			want:     []string{"apple", "Čáp", "Zebra"},
		},
		{
			name: "root collation by default",
			want: []string{"apple", "Čáp", "Zebra"},
		},
		{
			name:     "sorting disabled by document",
			settings: `<settings><sortSongs>no</sortSongs></settings>`,
			want:     []string{"Zebra", "apple", "Čáp"},
		},
		{
			name: "sorting disabled by option",
			opts: []Option{WithSortSongs(false)},
			want: []string{"Zebra", "apple", "Čáp"},
		},
		{
			name:     "document re-enables sorting",
			settings: `<settings><sortSongs>yes</sortSongs></settings>`,
			opts:     []Option{WithSortSongs(false)},
			want:     []string{"apple", "Čáp", "Zebra"},
		},
		{
			name:     "unknown language falls back",
			settings: `<settings><language>xx_YY</language></settings>`,
			want:     []string{"apple", "Čáp", "Zebra"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := convertString(t, plainFactory, doc(tt.settings), tt.opts...)
			assert.Equal(t, tt.want, order(got))
		})
	}
}

func TestParameters(t *testing.T) {
	t.Parallel()

	body := `<songs><song><header><name>S</name></header><chorus><line>x</line></chorus></song></songs></songbook>`

	got := convertString(t, plainFactory, `<songbook>`+body, WithParameters(map[string]string{"chorusLabel": "R"}))
	assert.Contains(t, got, "R:\nx\n")

	got = convertString(t, plainFactory, `<songbook><settings><chorusLabel>Chorus</chorusLabel></settings>`+body,
		WithParameters(map[string]string{"chorusLabel": "R"}))
	assert.Contains(t, got, "Chorus:\nx\n")
}

func TestEntityOverrides(t *testing.T) {
	t.Parallel()

	body := `<songbook><songs><song><header><name>S</name></header><line>&times;&custom;</line></song></songs></songbook>`
	got := convertString(t, plainFactory, body, WithEntities(map[string]string{"custom": "!", "times": "*"}))
	assert.Contains(t, got, "*!\n")
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		wantErr  error
		wantText string
	}{
		{
			name:    "missing entity closing tag",
			raw:     "<songbook><settings><entities><entity></settings></songbook>",
			wantErr: songbook.ErrStructure,
		},
		{
			name:    "no songbook opening tag",
			raw:     "<book/>",
			wantErr: songbook.ErrStructure,
		},
		{
			name:     "entity block error line is offset",
			raw:      "<songbook>\n<settings>\n<entities>\n<entity><name>x</name></entity>\n</entities>\n</settings>\n<songs/>\n</songbook>",
			wantErr:  songbook.ErrSchema,
			wantText: "Error: line 4, column 1: <entity> is missing required element <value>",
		},
		{
			name:     "undefined entity",
			raw:      "<songbook>\n<songs>\n<song><header><name>&nope;</name></header></song>\n</songs>\n</songbook>",
			wantErr:  songbook.ErrSchema,
			wantText: "Fatal error: line 3",
		},
		{
			name:     "entity defined by the document",
			raw:      "<songbook><settings><entities><entity><name>x</name><value>y</value></entity></entities></settings><songs><song><header><name>&x;</name></header></song></songs></songbook>",
			wantText: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := New(plainFactory).Parse(context.Background(), tt.raw)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantText != "" {
				var derr *parser.DiagnosticsError
				require.ErrorAs(t, err, &derr)
				assert.Contains(t, derr.Error(), tt.wantText)
			}
		})
	}
}

func TestMissingEntityClosingTagStopsBeforeParsing(t *testing.T) {
	t.Parallel()

	// The rest of the text is not even well-formed; extraction must fail first.
	err := New(plainFactory).Parse(context.Background(), "<songbook><<<&bad; <entities>")
	require.ErrorIs(t, err, songbook.ErrStructure)
	var derr *parser.DiagnosticsError
	assert.NotErrorAs(t, err, &derr)
}

func TestConvertErrors(t *testing.T) {
	t.Parallel()

	t.Run("not parsed", func(t *testing.T) {
		t.Parallel()
		_, err := New(plainFactory).Convert(context.Background())
		require.ErrorIs(t, err, ErrNotParsed)
	})

	t.Run("song without name", func(t *testing.T) {
		t.Parallel()
		c := New(plainFactory)
		require.NoError(t, c.Parse(context.Background(), "<songbook>\n<songs>\n<song><header><album>A</album></header></song>\n</songs>\n</songbook>"))
		_, err := c.Convert(context.Background())
		require.ErrorIs(t, err, songbook.ErrData)
		assert.Contains(t, err.Error(), "line 3")
	})

	t.Run("failed parse keeps previous document", func(t *testing.T) {
		t.Parallel()
		c := New(plainFactory)
		require.NoError(t, c.Parse(context.Background(), `<songbook><songs><song><header><name>S</name></header></song></songs></songbook>`))
		require.Error(t, c.Parse(context.Background(), `<songbook><songs>`))
		out, err := c.Convert(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "S\n\n\n", out)
	})
}

func TestLoad(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.xml"))
	require.ErrorIs(t, err, songbook.ErrIO)

	err = New(plainFactory).ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.xml"))
	require.ErrorIs(t, err, songbook.ErrIO)
}

func TestResolveLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    language.Tag
		wantErr error
	}{
		{name: "bcp47", input: "cs", want: language.MustParse("cs")},
		{name: "locale name", input: "cs_CZ.UTF-8", want: language.MustParse("cs-CZ")},
		{name: "first usable wins", input: "xx_YY;en_US", want: language.MustParse("en-US")},
		{name: "modifier stripped", input: "de_DE@euro", want: language.MustParse("de-DE")},
		{name: "none usable", input: "xx_YY;;C", want: language.Und, wantErr: ErrUnknownLanguage},
		{name: "empty", input: "", want: language.Und, wantErr: ErrUnknownLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ResolveLanguage(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
