// Package runner orchestrates the read -> lint or format -> report
// pipeline for the command line.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/rules"
	"github.com/donaldgifford/kfmt/pkg/diff"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFindings = 1
	ExitError    = 2
)

// stdinName is the path reported for source read from stdin.
const stdinName = "<stdin>"

// Options configures the runner behavior.
type Options struct {
	Files []string

	// Format fixes findings instead of only reporting them. Files are
	// written back when Write is set and neither Check nor Diff is.
	Format bool
	Check  bool
	Diff   bool
	Write  bool

	ConfigPath   string
	Reporter     string
	Color        string
	Jobs         int
	Disable      []string
	Experimental bool
	Watch        bool
	DumpTree     bool

	// Baseline is an XML file of known findings that are not reported. A
	// missing or invalid file is written with the findings of this run.
	Baseline string
	Quiet        bool
	Verbose      bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zerolog.Logger

	baseline *baseline
}

// fileResult is the outcome for one input.
type fileResult struct {
	path    string
	input   string
	result  *formatter.Result
	diff    string
	err     error
	changed bool
}

// Run executes the pipeline and returns an exit code.
func Run(ctx context.Context, opts *Options) int {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	// Formatted stdin goes to stdout, so findings move to stderr.
	repOut := opts.Stdout
	if len(opts.Files) == 0 && opts.Format && !opts.Check && !opts.Diff {
		repOut = opts.Stderr
	}
	rep, err := newReporter(opts.Reporter, opts.Color, repOut)
	if err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		return ExitError
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		return ExitError
	}
	cfg.Rules.Disabled = append(cfg.Rules.Disabled, opts.Disable...)
	cfg.Rules.Experimental = cfg.Rules.Experimental || opts.Experimental

	engine, err := formatter.New(formatter.Options{
		Factories:     rules.Factories(),
		Settings:      cfg.Settings(),
		Disabled:      cfg.Rules.Disabled,
		Enabled:       cfg.Rules.Enabled,
		Experimental:  cfg.Rules.Experimental,
		FrontEndCheck: cfg.FrontEndCheck,
		Logger:        &log,
	})
	if err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		return ExitError
	}

	if len(opts.Files) == 0 {
		if opts.Watch {
			writeErr(opts.Stderr, "kfmt: --watch needs file arguments\n")
			return ExitError
		}
		return runStdin(ctx, opts, engine, rep)
	}

	files, err := expandFiles(opts.Files)
	if err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		return ExitError
	}
	if opts.DumpTree {
		return dumpFiles(opts, files)
	}

	if opts.Baseline != "" {
		b, found, err := loadBaseline(opts.Baseline)
		if b == nil {
			writeErr(opts.Stderr, "kfmt: %v\n", err)
			return ExitError
		}
		if err != nil {
			log.Error().Err(err).Msg("baseline is regenerated")
		}
		opts.baseline = b
		if !found {
			rep = multiReporter{rep, newBaselineReporter(opts.Baseline)}
		}
	}

	code := runFiles(ctx, opts, engine, rep, files)
	if opts.Watch {
		return watch(ctx, opts, engine, rep, files, code, log)
	}
	return code
}

func runStdin(ctx context.Context, opts *Options, engine *formatter.Engine, rep reporter) int {
	src, err := io.ReadAll(opts.Stdin)
	if err != nil {
		writeErr(opts.Stderr, "kfmt: reading stdin: %v\n", err)
		return ExitError
	}
	if opts.DumpTree {
		return dumpSource(opts, stdinName, string(src))
	}

	res := processSource(ctx, opts, engine, stdinName, string(src))
	code := finish(opts, rep, []fileResult{res})
	if res.err == nil && opts.Format && !opts.Check && !opts.Diff {
		writeOut(opts.Stdout, res.result.Output)
	}
	return code
}

// runFiles processes files in parallel and reports the results in input
// order.
func runFiles(ctx context.Context, opts *Options, engine *formatter.Engine, rep reporter, files []string) int {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indexes are unique per goroutine, so results need no lock.
	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = processFile(gctx, opts, engine, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		return ExitError
	}
	return finish(opts, rep, results)
}

func processFile(ctx context.Context, opts *Options, engine *formatter.Engine, path string) fileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return fileResult{path: path, err: err}
	}
	res := processSource(ctx, opts, engine, path, string(src))
	if res.err != nil || !opts.Format || !opts.Write || opts.Check || opts.Diff || !res.result.Changed {
		return res
	}
	if err := os.WriteFile(path, []byte(res.result.Output), 0o644); err != nil {
		res.err = fmt.Errorf("writing %s: %w", path, err)
	}
	return res
}

func processSource(ctx context.Context, opts *Options, engine *formatter.Engine, path, src string) fileResult {
	req := formatter.Request{Path: path, Source: src}
	out := fileResult{path: path, input: src}

	fix := opts.Format || opts.Check || opts.Diff
	var err error
	if fix {
		out.result, err = engine.Format(ctx, req)
	} else {
		out.result, err = engine.Lint(ctx, req)
	}
	if err != nil {
		out.err = err
		return out
	}
	out.changed = out.result.Changed
	if opts.Diff && out.result.Changed {
		out.diff, out.err = diff.Unified(path, src, out.result.Output)
	}
	return out
}

// finish reports results and computes the exit code.
func finish(opts *Options, rep reporter, results []fileResult) int {
	code := ExitOK
	var patch strings.Builder
	for _, r := range results {
		if r.err != nil {
			writeErr(opts.Stderr, "kfmt: %s: %v\n", r.path, describe(r.err))
			code = ExitError
			continue
		}
		if opts.Verbose {
			writeErr(opts.Stderr, "%s\n", r.path)
		}

		findings := reported(opts, opts.baseline.filter(r.path, r.result.Findings), wantsCorrected(rep))
		if err := rep.report(r.path, findings); err != nil {
			writeErr(opts.Stderr, "kfmt: %v\n", err)
			code = ExitError
			continue
		}
		if slices.ContainsFunc(findings, func(f formatter.Finding) bool { return !f.Corrected }) {
			code = max(code, ExitFindings)
		}

		switch {
		case opts.Diff:
			if r.diff != "" {
				writeOut(opts.Stdout, r.diff)
				patch.WriteString(r.diff)
				code = max(code, ExitFindings)
			}
		case opts.Check:
			if r.changed {
				if !opts.Quiet {
					writeErr(opts.Stderr, "%s\n", r.path)
				}
				code = max(code, ExitFindings)
			}
		}
	}

	if err := rep.flush(); err != nil {
		writeErr(opts.Stderr, "kfmt: %v\n", err)
		code = ExitError
	}
	if opts.Diff && patch.Len() > 0 && !opts.Quiet {
		if st, err := diff.Stats(patch.String()); err == nil {
			writeErr(opts.Stderr, "%s\n", st)
		}
	}
	return code
}

// reported returns the findings to print: all of them when linting, the
// ones left unfixed when formatting unless corrected is set, and none next
// to a diff.
func reported(opts *Options, fs []formatter.Finding, corrected bool) []formatter.Finding {
	switch {
	case opts.Diff:
		return nil
	case !opts.Format && !opts.Check, corrected:
		return fs
	}
	out := make([]formatter.Finding, 0, len(fs))
	for _, f := range fs {
		if !f.Corrected {
			out = append(out, f)
		}
	}
	return out
}

func describe(err error) string {
	var inv *formatter.InvariantError
	if errors.As(err, &inv) {
		return "internal error in rule " + inv.RuleID + ": " + inv.Err.Error()
	}
	return err.Error()
}

// writeOut writes to stdout.
func writeOut(w io.Writer, s string) {
	fmt.Fprint(w, s)
}

// writeErr formats and writes to stderr.
func writeErr(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
