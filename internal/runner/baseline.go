package runner

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/donaldgifford/kfmt/internal/formatter"
)

// baselineFile is the XML layout of a baseline, compatible with the files
// ktlint writes.
type baselineFile struct {
	XMLName xml.Name            `xml:"baseline"`
	Version string              `xml:"version,attr"`
	Files   []baselineFileEntry `xml:"file"`
}

type baselineFileEntry struct {
	Name   string          `xml:"name,attr"`
	Errors []baselineError `xml:"error"`
}

type baselineError struct {
	Line   int    `xml:"line,attr"`
	Column int    `xml:"column,attr"`
	Source string `xml:"source,attr"`
}

// baseline holds known findings by file path relative to the working
// directory, with forward slashes.
type baseline struct {
	path  string
	files map[string][]baselineError
}

// loadBaseline reads the baseline at path. A missing or unparsable file
// yields an empty baseline and found == false; the parse error is still
// returned so the caller can log it.
func loadBaseline(path string) (b *baseline, found bool, err error) {
	b = &baseline{path: path, files: map[string][]baselineError{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return b, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading baseline: %w", err)
	}

	var doc baselineFile
	if err := xml.Unmarshal(data, &doc); err != nil {
		return b, false, fmt.Errorf("unable to parse baseline file %s: %w", path, err)
	}
	for _, f := range doc.Files {
		b.files[f.Name] = append(b.files[f.Name], f.Errors...)
	}
	return b, true, nil
}

// filter drops the findings of path that the baseline already lists.
// Findings match on line, column and rule id.
func (b *baseline) filter(path string, findings []formatter.Finding) []formatter.Finding {
	if b == nil {
		return findings
	}
	known := b.files[baselineName(path)]
	if len(known) == 0 {
		return findings
	}
	out := make([]formatter.Finding, 0, len(findings))
	for _, f := range findings {
		listed := slices.ContainsFunc(known, func(e baselineError) bool {
			return e.Line == f.Line && e.Column == f.Col && e.Source == f.RuleID
		})
		if !listed {
			out = append(out, f)
		}
	}
	return out
}

// baselineName is the key of path in a baseline file.
func baselineName(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, abs); err == nil {
				path = rel
			}
		}
	}
	return filepath.ToSlash(path)
}

// baselineReporter records findings and writes them as a new baseline
// file. Only the first flush writes; later watch batches cover a subset
// of the files.
type baselineReporter struct {
	path    string
	doc     baselineFile
	written bool
}

func newBaselineReporter(path string) *baselineReporter {
	return &baselineReporter{path: path, doc: baselineFile{Version: "1.0"}}
}

func (r *baselineReporter) report(path string, findings []formatter.Finding) error {
	if r.written || len(findings) == 0 {
		return nil
	}
	entry := baselineFileEntry{Name: baselineName(path)}
	for _, f := range findings {
		if f.Corrected {
			continue
		}
		entry.Errors = append(entry.Errors, baselineError{Line: f.Line, Column: f.Col, Source: f.RuleID})
	}
	if len(entry.Errors) > 0 {
		r.doc.Files = append(r.doc.Files, entry)
	}
	return nil
}

func (r *baselineReporter) flush() error {
	if r.written {
		return nil
	}
	r.written = true
	data, err := xml.MarshalIndent(r.doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding baseline: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	data = append(data, '\n')
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing baseline: %w", err)
	}
	return nil
}

// multiReporter fans findings out to several reporters.
type multiReporter []reporter

func (m multiReporter) report(path string, findings []formatter.Finding) error {
	for _, r := range m {
		if err := r.report(path, findings); err != nil {
			return err
		}
	}
	return nil
}

func (m multiReporter) flush() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.flush())
	}
	return errors.Join(errs...)
}
