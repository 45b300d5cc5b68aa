package runner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/donaldgifford/kfmt/internal/formatter"
)

// reporter prints the findings of each file and finishes with flush.
type reporter interface {
	report(path string, findings []formatter.Finding) error
	flush() error
}

func newReporter(name, colorMode string, w io.Writer) (reporter, error) {
	switch name {
	case "", "plain":
		useColor, err := colorEnabled(colorMode, w)
		if err != nil {
			return nil, err
		}
		return newPlainReporter(w, useColor), nil
	case "plain-summary":
		return newSummaryReporter(w), nil
	case "json":
		return &jsonReporter{w: w, entries: []jsonFinding{}}, nil
	}
	return nil, fmt.Errorf("unknown reporter %q (want plain, plain-summary or json)", name)
}

// wantsCorrected reports whether rep counts the findings format fixed as
// well as the ones left.
func wantsCorrected(rep reporter) bool {
	switch r := rep.(type) {
	case *summaryReporter:
		return true
	case multiReporter:
		return slices.ContainsFunc(r, wantsCorrected)
	}
	return false
}

// colorEnabled resolves --color. auto colors only a terminal.
func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "", "auto":
		f, ok := w.(*os.File)
		if !ok {
			return false, nil
		}
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()), nil
	case "always":
		return true, nil
	case "never":
		return false, nil
	}
	return false, fmt.Errorf("unknown color mode %q (want auto, always or never)", mode)
}

// plainReporter prints one finding per line as
// path:line:col: message (rule).
type plainReporter struct {
	w       io.Writer
	path    *color.Color
	message *color.Color
	rule    *color.Color
}

func newPlainReporter(w io.Writer, useColor bool) *plainReporter {
	r := &plainReporter{
		w:       w,
		path:    color.New(color.Bold),
		message: color.New(color.FgRed),
		rule:    color.New(color.FgHiBlack),
	}
	for _, c := range []*color.Color{r.path, r.message, r.rule} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return r
}

func (r *plainReporter) report(path string, findings []formatter.Finding) error {
	for _, f := range findings {
		_, err := fmt.Fprintf(r.w, "%s %s %s\n",
			r.path.Sprintf("%s:%d:%d:", path, f.Line, f.Col),
			r.message.Sprint(f.Message),
			r.rule.Sprintf("(%s)", f.RuleID),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *plainReporter) flush() error { return nil }

type jsonFinding struct {
	File string `json:"file"`
	formatter.Finding
}

// jsonReporter collects every finding and prints them as one array.
type jsonReporter struct {
	w       io.Writer
	entries []jsonFinding
}

func (r *jsonReporter) report(path string, findings []formatter.Finding) error {
	for _, f := range findings {
		r.entries = append(r.entries, jsonFinding{File: path, Finding: f})
	}
	return nil
}

func (r *jsonReporter) flush() error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r.entries)
}

// summaryReporter counts findings per rule and prints the counts, highest
// first, once every file is reported.
type summaryReporter struct {
	w         io.Writer
	corrected map[string]int
	remaining map[string]int
}

func newSummaryReporter(w io.Writer) *summaryReporter {
	return &summaryReporter{
		w:         w,
		corrected: map[string]int{},
		remaining: map[string]int{},
	}
}

func (r *summaryReporter) report(_ string, findings []formatter.Finding) error {
	for _, f := range findings {
		id := f.RuleID
		if id == "" {
			id = "Unknown"
		}
		if f.Corrected {
			r.corrected[id]++
		} else {
			r.remaining[id]++
		}
	}
	return nil
}

func (r *summaryReporter) flush() error {
	var b strings.Builder
	for _, sec := range []struct {
		title  string
		counts map[string]int
	}{
		{"Count (descending) of autocorrected errors by rule:", r.corrected},
		{"Count (descending) of errors not autocorrected by rule:", r.remaining},
	} {
		if len(sec.counts) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sec.title + "\n")
		for _, id := range byCount(sec.counts) {
			fmt.Fprintf(&b, "  %s: %d\n", id, sec.counts[id])
		}
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// byCount returns the keys of counts by descending count, then by name.
func byCount(counts map[string]int) []string {
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		if d := counts[b] - counts[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return ids
}
