package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// Directive comments that are written without a space after //.
var commentDirectives = []string{
	"//noinspection",
	"//region",
	"//endregion",
	"//language=",
}

// CommentSpacing requires a space before and after the // of an
// end-of-line comment.
type CommentSpacing struct {
	formatter.Base
}

// NewCommentSpacing returns the comment-spacing rule.
func NewCommentSpacing() formatter.Rule {
	return &CommentSpacing{Base: formatter.Base{RuleID: CommentSpacingID}}
}

// BeforeVisit implements formatter.Rule.
func (r *CommentSpacing) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.Is(n, syntax.EOLComment) {
		return nil
	}

	if prev := tr.PrevLeaf(n); prev != syntax.None && !tr.IsWhitespace(prev) {
		if emit(tr.Start(n), "Missing space before //", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(n, " ")
		}
	}

	text := tr.Text(n)
	if text == "//" || strings.HasPrefix(text, "// ") || isCommentDirective(text) {
		return nil
	}
	if emit(tr.Start(n), "Missing space after //", true) == formatter.Apply {
		tr.SetText(n, "// "+strings.TrimPrefix(text, "//"))
	}
	return nil
}

func isCommentDirective(text string) bool {
	for _, d := range commentDirectives {
		if strings.HasPrefix(text, d) {
			return true
		}
	}
	return false
}
