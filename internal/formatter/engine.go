package formatter

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/parser"
	"github.com/donaldgifford/kfmt/internal/parser/tscheck"
	"github.com/donaldgifford/kfmt/internal/suppress"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// Options configures an Engine.
type Options struct {
	// Factories in registration order.
	Factories []Factory
	Settings  *config.Settings

	// Disabled and Enabled hold rule ids; bare names are qualified with
	// the standard rule set.
	Disabled []string
	Enabled  []string
	// Experimental enables every experimental rule.
	Experimental bool

	// FrontEndCheck validates input with the tree-sitter Kotlin grammar
	// before formatting, and the formatted output after.
	FrontEndCheck bool

	Logger *zerolog.Logger
}

// Request is one source file to format or lint.
type Request struct {
	Path   string
	Source string
}

// Result is the outcome of formatting or linting one file.
type Result struct {
	Output   string
	Findings []Finding
	Changed  bool
	Runs     int
}

// Engine formats Kotlin source with a fixed, validated rule set.
type Engine struct {
	factories []Factory
	settings  *config.Settings
	order     []string
	frontEnd  bool
	log       zerolog.Logger
}

// New validates the options and resolves the rule order. Unknown rule ids
// and unsatisfiable ordering constraints are reported here, before any
// source is parsed.
func New(opts Options) (*Engine, error) {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	settings := opts.Settings
	if settings == nil {
		settings = config.DefaultConfig().Settings()
	}

	rules := make([]Rule, 0, len(opts.Factories))
	known := make(map[string]bool, len(opts.Factories))
	for _, f := range opts.Factories {
		r := f()
		if known[r.ID()] {
			return nil, fmt.Errorf("%w: rule %s registered twice", ErrConfig, r.ID())
		}
		known[r.ID()] = true
		rules = append(rules, r)
	}

	disabled := make(map[string]bool, len(opts.Disabled))
	for _, id := range opts.Disabled {
		id = suppress.Qualify(id)
		if !known[id] {
			return nil, fmt.Errorf("%w: unknown rule %s", ErrConfig, id)
		}
		disabled[id] = true
	}
	explicit := make(map[string]bool, len(opts.Enabled))
	for _, id := range opts.Enabled {
		id = suppress.Qualify(id)
		if !known[id] {
			return nil, fmt.Errorf("%w: unknown rule %s", ErrConfig, id)
		}
		explicit[id] = true
	}

	enabled := make(map[string]bool, len(rules))
	for _, r := range rules {
		id := r.ID()
		enabled[id] = !disabled[id] && (!r.Experimental() || opts.Experimental || explicit[id])
	}

	ordered, err := Schedule(rules, func(id string) bool { return enabled[id] }, log)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Factory, len(rules))
	for i, r := range rules {
		byID[r.ID()] = opts.Factories[i]
	}
	e := &Engine{
		settings: settings,
		frontEnd: opts.FrontEndCheck,
		log:      log,
	}
	for _, r := range ordered {
		e.factories = append(e.factories, byID[r.ID()])
		e.order = append(e.order, r.ID())
	}
	return e, nil
}

// RuleIDs returns the enabled rules in execution order.
func (e *Engine) RuleIDs() []string { return slices.Clone(e.order) }

// Format corrects req.Source, repeating runs until one applies no fix or
// max_format_runs is reached.
func (e *Engine) Format(ctx context.Context, req Request) (*Result, error) {
	return e.process(ctx, req, true)
}

// Lint reports findings without changing the source.
func (e *Engine) Lint(ctx context.Context, req Request) (*Result, error) {
	return e.process(ctx, req, false)
}

func (e *Engine) process(ctx context.Context, req Request, fix bool) (*Result, error) {
	log := e.log.With().Str("file", req.Path).Logger()

	text, src, err := Normalize(req.Source)
	if err != nil {
		return nil, err
	}
	if e.frontEnd {
		if err := tscheck.Check(ctx, text); err != nil {
			return nil, fmt.Errorf("front-end check: %w", err)
		}
	}
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var corrected []Finding
	if fix {
		maxRuns := max(1, e.settings.Int(config.MaxFormatRunsKey))
		for {
			d := newDriver(tree, e.settings, true, log)
			mutated, err := d.run(ctx, e.rules())
			res.Runs++
			log.Debug().Int("run", res.Runs).Bool("mutated", mutated).Int("findings", len(d.findings)).Msg("format run")
			if err != nil {
				return nil, err
			}
			if !mutated {
				corrected = append(corrected, d.findings...)
				break
			}
			corrected = append(corrected, onlyCorrected(d.findings)...)
			if res.Runs >= maxRuns {
				log.Warn().Int("runs", res.Runs).Msg("format did not converge, reporting remaining findings")
				lint := newDriver(tree, e.settings, false, log)
				if _, err := lint.run(ctx, e.rules()); err != nil {
					return nil, err
				}
				corrected = append(corrected, lint.findings...)
				break
			}
		}
	} else {
		d := newDriver(tree, e.settings, false, log)
		if _, err := d.run(ctx, e.rules()); err != nil {
			return nil, err
		}
		res.Runs = 1
		corrected = d.findings
	}

	res.Findings = dedupe(corrected)
	out, err := Write(tree, src)
	if err != nil {
		return nil, err
	}
	res.Output = out
	res.Changed = out != req.Source

	if e.frontEnd && res.Changed {
		if err := tscheck.Check(ctx, tree.String()); err != nil {
			return nil, fmt.Errorf("formatted output does not parse: %w", err)
		}
	}
	return res, nil
}

// rules instantiates a fresh rule for every run.
func (e *Engine) rules() []Rule {
	out := make([]Rule, len(e.factories))
	for i, f := range e.factories {
		out[i] = f()
	}
	return out
}

func onlyCorrected(fs []Finding) []Finding {
	var out []Finding
	for _, f := range fs {
		if f.Corrected {
			out = append(out, f)
		}
	}
	return out
}

// dedupe sorts findings by position and rule and drops exact repeats,
// which arise when a later run reports a finding again.
func dedupe(fs []Finding) []Finding {
	slices.SortStableFunc(fs, func(a, b Finding) int {
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		if a.Col != b.Col {
			return a.Col - b.Col
		}
		return strings.Compare(a.RuleID, b.RuleID)
	})
	return slices.CompactFunc(fs, func(a, b Finding) bool {
		return a.Line == b.Line && a.Col == b.Col && a.RuleID == b.RuleID &&
			a.Message == b.Message && a.Corrected == b.Corrected
	})
}

// Tree parses normalized source. It is used by callers that inspect the
// syntax tree directly, such as the parse-tree dump of the CLI.
func Tree(source string) (*syntax.Tree, error) {
	text, _, err := Normalize(source)
	if err != nil {
		return nil, err
	}
	return parser.Parse(text)
}
