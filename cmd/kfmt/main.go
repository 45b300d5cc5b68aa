// Package main is the entry point for kfmt.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/kfmt/internal/runner"
)

// Build-time variables set via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(execute(os.Args[1:]))
}

// execute runs the root command with args and returns the exit code.
func execute(args []string) int {
	opts := &runner.Options{}
	code := runner.ExitOK

	cmd := &cobra.Command{
		Use:   "kfmt [flags] [files...]",
		Short: "Lint and format Kotlin source files",
		Long: `kfmt checks Kotlin (.kt, .kts) files against the standard rule set and,
with --format, rewrites them. Directories are searched recursively.
With no files, reads from stdin.`,
		Version:       fmt.Sprintf("%s (%s) %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, files []string) error {
			opts.Files = files
			// Formatting files writes them back unless a diff or check
			// was asked for.
			if opts.Format && len(files) > 0 {
				opts.Write = true
			}
			logger := setupLogger(opts.Verbose, opts.Quiet)
			opts.Logger = &logger

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			code = runner.Run(ctx, opts)
			return nil
		},
	}
	cmd.SetArgs(args)

	f := cmd.Flags()
	f.BoolVarP(&opts.Format, "format", "F", false, "fix findings instead of only reporting them")
	f.BoolVar(&opts.Check, "check", false, "exit 1 if any file has findings or is not formatted")
	f.BoolVar(&opts.Diff, "diff", false, "print a unified diff of the changes")
	f.BoolVarP(&opts.Write, "write", "w", false, "write the result back to the file")
	f.StringVar(&opts.ConfigPath, "config", "", "path to config file")
	f.StringVar(&opts.Reporter, "reporter", "plain", "findings format (plain|plain-summary|json)")
	f.StringVar(&opts.Baseline, "baseline", "", "XML file of known findings to ignore; written when missing")
	f.StringVar(&opts.Color, "color", "auto", "colorize findings (auto|always|never)")
	f.IntVar(&opts.Jobs, "jobs", 0, "files processed in parallel (0 = GOMAXPROCS)")
	f.StringSliceVar(&opts.Disable, "disable", nil, "rule ids to disable")
	f.BoolVar(&opts.Experimental, "experimental", false, "enable experimental rules")
	f.BoolVar(&opts.Watch, "watch", false, "reprocess files when they change")
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "suppress informational output")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "print files as they are processed")
	f.BoolVar(&opts.DumpTree, "dump-tree", false, "print the syntax tree and exit")
	_ = f.MarkHidden("dump-tree")
	cmd.MarkFlagsMutuallyExclusive("check", "diff")
	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "kfmt: %v\n", err)
		return runner.ExitError
	}
	return code
}

// setupLogger returns a console logger on stderr. Verbose enables debug
// output, quiet limits it to errors.
func setupLogger(verbose, quiet bool) zerolog.Logger {
	level := zerolog.WarnLevel
	switch {
	case verbose:
		level = zerolog.DebugLevel
	case quiet:
		level = zerolog.ErrorLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
