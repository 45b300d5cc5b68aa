package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// FinalNewline ensures a non-empty file ends with a line break.
type FinalNewline struct {
	formatter.Base
}

// NewFinalNewline returns the final-newline rule.
func NewFinalNewline() formatter.Rule {
	return &FinalNewline{Base: formatter.Base{RuleID: FinalNewlineID}}
}

// AfterLastNode implements formatter.Rule.
func (r *FinalNewline) AfterLastNode(tr *syntax.Tree, emit formatter.Emit) error {
	text := tr.String()
	if text == "" || strings.HasSuffix(text, "\n") {
		return nil
	}
	if emit(len(text), `File must end with a newline (\n)`, true) != formatter.Apply {
		return nil
	}

	root := tr.Root()
	if last := tr.LastLeaf(root); tr.IsWhitespace(last) {
		tr.SetText(last, tr.Text(last)+"\n")
		return nil
	}
	tr.AppendChild(root, tr.NewLeaf(syntax.Whitespace, "\n"))
	return nil
}
