package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// NoTrailingSpaces removes spaces and tabs at the end of lines in
// whitespace and comments. String literals are left alone.
type NoTrailingSpaces struct {
	formatter.Base
}

// NewNoTrailingSpaces returns the no-trailing-spaces rule.
func NewNoTrailingSpaces() formatter.Rule {
	return &NoTrailingSpaces{Base: formatter.Base{RuleID: NoTrailingSpacesID}}
}

// BeforeVisit implements formatter.Rule.
func (r *NoTrailingSpaces) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	kind := tr.Kind(n)
	if !kind.IsTrivia() {
		return nil
	}

	lines := strings.Split(tr.Text(n), "\n")
	// The last line of whitespace is the indentation of the next token.
	check := len(lines)
	if kind != syntax.EOLComment && tr.NextLeaf(n) != syntax.None {
		check--
	}

	offset := tr.Start(n)
	changed := false
	for i := 0; i < check; i++ {
		line := lines[i]
		trimmed := strings.TrimRight(line, " \t")
		if len(trimmed) != len(line) {
			if emit(offset+len(trimmed), "Trailing space(s)", true) == formatter.Apply {
				lines[i] = trimmed
				changed = true
			}
		}
		offset += len(line) + 1
	}
	if !changed {
		return nil
	}

	text := strings.Join(lines, "\n")
	if text == "" && kind == syntax.Whitespace {
		tr.Remove(n)
		return nil
	}
	tr.SetText(n, text)
	return nil
}
