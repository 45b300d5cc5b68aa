package format

import (
	"fmt"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

var spacedOperators = map[string]bool{
	"&&": true, "||": true, "?:": true,
	"==": true, "===": true, "!=": true, "!==": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

// OpSpacing requires a single space around assignments, arrows and binary
// operators.
type OpSpacing struct {
	formatter.Base
}

// NewOpSpacing returns the op-spacing rule.
func NewOpSpacing() formatter.Rule {
	return &OpSpacing{Base: formatter.Base{RuleID: OpSpacingID}}
}

func isSpacedOperator(tr *syntax.Tree, n syntax.NodeID) bool {
	switch tr.Kind(n) {
	case syntax.Eq, syntax.Arrow:
		return true
	case syntax.Operator:
		return spacedOperators[tr.Text(n)] && tr.Is(tr.Parent(n), syntax.BinaryExpression)
	}
	return false
}

// BeforeVisit implements formatter.Rule.
func (r *OpSpacing) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !isSpacedOperator(tr, n) {
		return nil
	}
	op := tr.Text(n)
	before := tr.IsWhitespace(tr.PrevLeaf(n))
	after := tr.IsWhitespace(tr.NextLeaf(n))

	switch {
	case !before && !after:
		if emit(tr.Start(n), fmt.Sprintf("Missing spacing around %q", op), true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(n, " ")
			tr.UpsertWhitespaceAfter(n, " ")
		}
	case !before:
		if emit(tr.Start(n), fmt.Sprintf("Missing spacing before %q", op), true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(n, " ")
		}
	case !after:
		if emit(tr.End(n), fmt.Sprintf("Missing spacing after %q", op), true) == formatter.Apply {
			tr.UpsertWhitespaceAfter(n, " ")
		}
	}
	return nil
}
