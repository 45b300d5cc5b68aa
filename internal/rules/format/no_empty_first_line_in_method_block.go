package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// NoEmptyFirstLineInMethodBlock removes blank lines directly after the
// opening brace of a block inside a function. Class bodies, including
// those of object literals, are not method blocks.
type NoEmptyFirstLineInMethodBlock struct {
	formatter.Base
}

// NewNoEmptyFirstLineInMethodBlock returns the experimental
// no-empty-first-line-in-method-block rule.
func NewNoEmptyFirstLineInMethodBlock() formatter.Rule {
	return &NoEmptyFirstLineInMethodBlock{Base: formatter.Base{
		RuleID:         NoEmptyFirstLineInMethodBlockID,
		IsExperimental: true,
	}}
}

// BeforeVisit implements formatter.Rule.
func (r *NoEmptyFirstLineInMethodBlock) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.IsWhitespace(n) {
		return nil
	}
	brace := tr.PrevLeaf(n)
	if !tr.Is(brace, syntax.LBrace) || !tr.Is(tr.Parent(brace), syntax.Block, syntax.FunctionLiteral) {
		return nil
	}
	if !tr.Is(tr.Ancestor(brace, syntax.Fun, syntax.ClassBody), syntax.Fun) {
		return nil
	}

	lines := strings.Split(tr.Text(n), "\n")
	if len(lines) <= 2 {
		return nil
	}
	if emit(tr.Start(n)+len(lines[0])+1, "First line in a method block should not be empty", true) == formatter.Apply {
		tr.SetText(n, lines[0]+"\n"+lines[len(lines)-1])
	}
	return nil
}
