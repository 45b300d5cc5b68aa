package format

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

var backTickedIdentifier = regexp.MustCompile("^`.*`$")

// MaxLineLength reports lines wider than max_line_length. Lines that
// cannot be shortened by wrapping (package and import directives, KDoc,
// raw strings, lone string literals and lone comments) are exempt.
type MaxLineLength struct {
	formatter.Base
	max              int
	ignoreBackTicked bool
}

// NewMaxLineLength returns the max-line-length rule.
func NewMaxLineLength() formatter.Rule {
	return &MaxLineLength{Base: formatter.Base{
		RuleID: MaxLineLengthID,
		Uses:   []*config.Key{config.MaxLineLengthKey, config.IgnoreBackTickedIdentifierKey},
		Order: []formatter.Constraint{
			formatter.After(TrailingCommaOnCallSiteID),
			formatter.After(TrailingCommaOnDeclarationSiteID),
			formatter.Last,
		},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *MaxLineLength) BeforeFirstNode(cfg *config.Snapshot) {
	r.max = cfg.Int(config.MaxLineLengthKey)
	r.ignoreBackTicked = cfg.Bool(config.IgnoreBackTickedIdentifierKey)
}

// BeforeVisit implements formatter.Rule.
func (r *MaxLineLength) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if r.max <= 0 {
		return formatter.ErrStopTraversal
	}
	if !tr.IsLeaf(n) || tr.IsWhitespace(n) {
		return nil
	}
	if next := tr.NextLeaf(n); next != syntax.None && !tr.IsWhitespaceWithNewline(next) {
		return nil
	}

	start, leaves := r.lineOf(tr, n)
	if r.width(tr, leaves) <= r.max || exemptFromMaxLineLength(tr, n) {
		return nil
	}
	emit(offsetOfColumn(tr.LineText(start), start, r.max), fmt.Sprintf("Exceeded max line length (%d)", r.max), false)
	return nil
}

// lineOf returns the start offset of the line that ends with the leaf
// last, and the leaves on it in order. The first leaf may start on an
// earlier line.
func (r *MaxLineLength) lineOf(tr *syntax.Tree, last syntax.NodeID) (int, []syntax.NodeID) {
	leaves := []syntax.NodeID{last}
	start := 0
	for l := last; l != syntax.None; l = tr.PrevLeaf(l) {
		if l != last {
			leaves = append(leaves, l)
		}
		if i := strings.LastIndexByte(tr.Text(l), '\n'); i >= 0 {
			start = tr.Start(l) + i + 1
			break
		}
	}
	slices.Reverse(leaves)
	return start, leaves
}

// width is the display width of the line made of leaves, counting only
// the text after the last line break of the first leaf.
func (r *MaxLineLength) width(tr *syntax.Tree, leaves []syntax.NodeID) int {
	w := 0
	for i, l := range leaves {
		text := tr.Text(l)
		if i == 0 {
			text = text[strings.LastIndexByte(text, '\n')+1:]
		}
		if r.ignoreBackTicked && tr.Is(l, syntax.Identifier) && backTickedIdentifier.MatchString(text) {
			continue
		}
		w += runewidth.StringWidth(text)
	}
	return w
}

func exemptFromMaxLineLength(tr *syntax.Tree, n syntax.NodeID) bool {
	switch {
	case tr.Ancestor(n, syntax.PackageDirective, syntax.ImportDirective) != syntax.None:
		return true
	case tr.Is(n, syntax.KDoc):
		return true
	case inRawMultilineString(tr, n):
		return true
	case lineOnlyHoldsString(tr, n):
		return true
	case tr.Is(n, syntax.Comma) && lineOnlyHoldsString(tr, tr.PrevLeaf(n)):
		return true
	case tr.IsComment(n):
		prev := tr.PrevLeaf(n)
		return prev == syntax.None || tr.IsWhitespaceWithNewline(prev)
	}
	return false
}

func inRawMultilineString(tr *syntax.Tree, n syntax.NodeID) bool {
	tmpl := tr.Ancestor(n, syntax.StringTemplate)
	return tmpl != syntax.None && tr.LeafText(tr.FirstChild(tmpl), `"""`) && tr.TextContains(tmpl, "\n")
}

// lineOnlyHoldsString reports whether n belongs to a string literal that
// starts its line.
func lineOnlyHoldsString(tr *syntax.Tree, n syntax.NodeID) bool {
	if n == syntax.None {
		return false
	}
	tmpl := tr.Parent(n)
	if !tr.Is(tmpl, syntax.StringTemplate) {
		return false
	}
	prev := tr.PrevLeaf(tmpl)
	return prev == syntax.None || tr.IsWhitespaceWithNewline(prev)
}

// offsetOfColumn returns the byte offset of display column col of line,
// which starts at offset start, clamped to the end of the line.
func offsetOfColumn(line string, start, col int) int {
	w := 0
	for i, r := range line {
		if w >= col {
			return start + i
		}
		w += runewidth.RuneWidth(r)
	}
	return start + len(line)
}
