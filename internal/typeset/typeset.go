// Package typeset runs a LaTeX engine over generated songbook sources.
package typeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/opencontainers/go-digest"

	"github.com/ndisidore/songbook/pkg/slogctx"
)

// ErrEngineNotFound indicates the LaTeX engine binary is not in PATH.
var ErrEngineNotFound = fmt.Errorf("typesetting engine not found in PATH: %w", errdefs.ErrNotFound)

// ErrRunFailed indicates the engine exited with an error.
var ErrRunFailed = errors.New("typesetting unsuccessful")

// ErrInvalidPasses indicates a pass count outside the supported range.
var ErrInvalidPasses = fmt.Errorf("passes must be between 1 and %d: %w", MaxPasses, errdefs.ErrInvalidArgument)

const (
	// DefaultEngine is the engine used when none is configured. The
	// generated preamble loads fontspec, which needs XeLaTeX or LuaLaTeX.
	DefaultEngine = "xelatex"
	// MaxPasses is the largest pass count Run accepts. Two passes settle
	// the table of contents.
	MaxPasses = 2

	_passTimeout = 5 * time.Minute
	_logTail     = 20
)

// Runner typesets .tex files into PDFs.
// The exec and lookPath fields are injected for testability.
type Runner struct {
	engine   string
	exec     func(ctx context.Context, dir, name string, args ...string) (string, error)
	lookPath func(file string) (string, error)
}

// Option configures a Runner.
type Option func(*Runner)

// WithEngine selects the engine binary.
func WithEngine(name string) Option {
	return func(r *Runner) {
		if name != "" {
			r.engine = name
		}
	}
}

// NewRunner creates a Runner that shells out to the engine.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		engine:   DefaultEngine,
		exec:     defaultExec,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultExec(ctx context.Context, dir, name string, args ...string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, _passTimeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Engine returns the configured engine name.
func (r *Runner) Engine() string { return r.engine }

// Run typesets texPath with the given number of passes and returns the PDF
// path. A digest of the source is stored next to it; when the digest still
// matches and the PDF exists the run is skipped unless force is set.
func (r *Runner) Run(ctx context.Context, texPath string, passes int, force bool) (string, error) {
	if passes < 1 || passes > MaxPasses {
		return "", fmt.Errorf("%w: got %d", ErrInvalidPasses, passes)
	}
	if _, err := r.lookPath(r.engine); err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrEngineNotFound, r.engine, err)
	}

	src, err := os.ReadFile(texPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", texPath, err)
	}
	base := strings.TrimSuffix(texPath, filepath.Ext(texPath))
	pdfPath := base + ".pdf"
	stampPath := base + ".digest"
	dgst := digest.FromBytes(src)

	log := slogctx.FromContext(ctx)
	if !force && upToDate(stampPath, pdfPath, dgst) {
		log.LogAttrs(ctx, slog.LevelInfo, "pdf up to date",
			slog.String("pdf", pdfPath), slog.String("digest", dgst.String()))
		return pdfPath, nil
	}

	dir, file := filepath.Split(texPath)
	if dir == "" {
		dir = "."
	}
	for pass := 1; pass <= passes; pass++ {
		start := time.Now()
		out, err := r.exec(ctx, dir, r.engine, "-interaction=nonstopmode", "-halt-on-error", file)
		if err != nil {
			return "", fmt.Errorf("%w: %s pass %d: %w\n%s", ErrRunFailed, r.engine, pass, err, tail(out, _logTail))
		}
		log.LogAttrs(ctx, slog.LevelInfo, "typeset pass",
			slog.Int("pass", pass), slog.Duration("duration", time.Since(start).Round(time.Millisecond)))
	}

	if err := os.WriteFile(stampPath, []byte(dgst.String()+"\n"), 0o644); err != nil { //nolint:gosec // stamp is not sensitive
		return "", fmt.Errorf("writing %s: %w", stampPath, err)
	}
	return pdfPath, nil
}

func upToDate(stampPath, pdfPath string, want digest.Digest) bool {
	stamp, err := os.ReadFile(stampPath)
	if err != nil {
		return false
	}
	got, err := digest.Parse(string(bytes.TrimSpace(stamp)))
	if err != nil || got != want {
		return false
	}
	_, err = os.Stat(pdfPath)
	return err == nil
}

// tail returns the last n lines of s, where engines print the failing line.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
