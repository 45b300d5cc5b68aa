package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

const (
	msgWrapArgument    = "Argument should be on a separate line (unless all arguments can fit a single line)"
	msgWrapClosing     = `Missing newline before ")"`
	msgUnwrapOpenParen = `Unnecessary newline before "("`
)

// ArgumentListWrapping puts every argument of a call on its own line, with
// the closing parenthesis on a line of its own, when any argument already
// spans lines or the call does not fit within the maximum line length.
type ArgumentListWrapping struct {
	formatter.Base
	ic            indentConfig
	maxLineLength int
	ignoreFrom    int
}

// NewArgumentListWrapping returns the argument-list-wrapping rule.
func NewArgumentListWrapping() formatter.Rule {
	return &ArgumentListWrapping{Base: formatter.Base{
		RuleID: ArgumentListWrappingID,
		Uses:   keys(config.MaxLineLengthKey, config.ArgumentListWrappingIgnoreKey),
		Order: []formatter.Constraint{
			formatter.AfterIfEnabled(WrappingID),
			formatter.After(ClassSignatureID),
			formatter.After(FunctionSignatureID),
			formatter.Last,
		},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *ArgumentListWrapping) BeforeFirstNode(cfg *config.Snapshot) {
	r.ic = newIndentConfig(cfg)
	r.maxLineLength = cfg.Int(config.MaxLineLengthKey)
	r.ignoreFrom = cfg.Int(config.ArgumentListWrappingIgnoreKey)
}

// BeforeVisit implements formatter.Rule.
func (r *ArgumentListWrapping) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.Is(n, syntax.ValueArgumentList) || !r.needsWrapping(tr, n) {
		return nil
	}
	for _, ch := range tr.Children(n) {
		switch tr.Kind(ch) {
		case syntax.LParen:
			if prev := tr.PrevLeaf(ch); tr.IsWhitespaceWithNewline(prev) {
				if emit(tr.Start(ch), msgUnwrapOpenParen, true) == formatter.Apply {
					tr.Remove(prev)
				}
			}
		case syntax.ValueArgument, syntax.RParen:
			r.wrap(tr, ch, emit)
		}
	}
	return nil
}

func (r *ArgumentListWrapping) needsWrapping(tr *syntax.Tree, list syntax.NodeID) bool {
	if tr.Is(tr.NextSibling(tr.FirstChild(list)), syntax.RParen) {
		return false
	}
	if tr.Is(tr.Parent(list), syntax.FunctionLiteral) {
		return false
	}
	if r.ignoreFrom > 0 && len(tr.ChildrenOf(list, syntax.ValueArgument)) > r.ignoreFrom {
		return false
	}
	return containsNewlineIgnoringLambda(tr, list) || r.exceedsMaxLineLength(tr, list)
}

// containsNewlineIgnoringLambda reports whether a line break separates the
// arguments of n, or occurs in a collection literal argument. Line breaks
// inside lambdas and nested calls do not count.
func containsNewlineIgnoringLambda(tr *syntax.Tree, n syntax.NodeID) bool {
	for _, ch := range tr.Children(n) {
		switch tr.Kind(ch) {
		case syntax.Whitespace, syntax.CollectionLiteral:
			if tr.TextContains(ch, "\n") {
				return true
			}
		case syntax.ValueArgument:
			for _, gc := range tr.Children(ch) {
				if !tr.IsLeaf(gc) && containsNewlineIgnoringLambda(tr, gc) {
					return true
				}
			}
		}
	}
	return false
}

// exceedsMaxLineLength reports whether the single line holding list is
// longer than allowed, not counting a trailing end-of-line comment.
func (r *ArgumentListWrapping) exceedsMaxLineLength(tr *syntax.Tree, list syntax.NodeID) bool {
	if r.maxLineLength <= 0 || tr.TextContains(list, "\n") {
		return false
	}
	line := tr.LineText(tr.Start(list))
	for l := tr.NextLeaf(tr.LastLeaf(list)); l != syntax.None && !tr.IsWhitespaceWithNewline(l); l = tr.NextLeaf(l) {
		if tr.Is(l, syntax.EOLComment) {
			line = strings.TrimRight(line[:tr.Column(l)], " \t")
			break
		}
	}
	return runeLen(line) > r.maxLineLength
}

func (r *ArgumentListWrapping) wrap(tr *syntax.Tree, ch syntax.NodeID, emit formatter.Emit) {
	msg := msgWrapClosing
	if tr.Is(ch, syntax.ValueArgument) {
		msg = msgWrapArgument
	}

	// Already on its own line; the indent rule owns the indentation.
	if prevWhitespaceWithNewline(tr, ch) != syntax.None {
		return
	}

	want := r.intendedIndent(tr, ch)
	prev := tr.PrevLeaf(ch)
	if emit(tr.Start(ch), msg, true) != formatter.Apply {
		return
	}
	if tr.IsWhitespace(prev) {
		tr.SetText(prev, want)
		return
	}
	tr.InsertBefore(ch, tr.NewLeaf(syntax.Whitespace, want))
}

// prevWhitespaceWithNewline returns the closest whitespace leaf with a
// line break before id, looking back across whitespace and comments only.
func prevWhitespaceWithNewline(tr *syntax.Tree, id syntax.NodeID) syntax.NodeID {
	for prev := tr.PrevLeaf(id); prev != syntax.None && !tr.IsCode(prev); prev = tr.PrevLeaf(prev) {
		if tr.IsWhitespaceWithNewline(prev) {
			return prev
		}
	}
	return syntax.None
}

// intendedIndent is the indentation an argument or closing parenthesis
// gets when it is wrapped. The indent rule, when enabled, has the final
// say.
func (r *ArgumentListWrapping) intendedIndent(tr *syntax.Tree, ch syntax.NodeID) string {
	list := tr.Parent(ch)
	fix := 0
	switch {
	case hasWrappedTypeArguments(tr, list):
		fix = -1
	case isDotQualifiedAssignment(tr, list):
		fix = -1
	}
	if onControlFlowLine(tr, list) {
		fix++
	}
	if tr.Is(ch, syntax.ValueArgument) {
		fix++
	}
	level := r.ic.levelFrom(tr.Indent(list)) + fix
	return "\n" + r.ic.repeat(max(level, 0))
}

func hasWrappedTypeArguments(tr *syntax.Tree, list syntax.NodeID) bool {
	targs := tr.FindChild(tr.Parent(list), syntax.TypeArgumentList)
	if targs == syntax.None {
		return false
	}
	for _, ch := range tr.Children(targs) {
		if tr.IsWhitespaceWithNewline(ch) {
			return true
		}
	}
	return false
}

func isDotQualifiedAssignment(tr *syntax.Tree, list syntax.NodeID) bool {
	call := tr.Parent(list)
	if call == syntax.None {
		return false
	}
	bin := tr.Parent(call)
	if !tr.Is(bin, syntax.BinaryExpression) {
		return false
	}
	return tr.Is(tr.FirstChild(bin), syntax.DotQualifiedExpression) && tr.FindChild(bin, syntax.Eq) != syntax.None
}

var controlFlowKeywords = map[string]bool{
	"if": true, "else": true, "for": true, "do": true, "while": true,
	"try": true, "catch": true, "finally": true,
}

// onControlFlowLine reports whether a control flow keyword precedes id on
// the same line.
func onControlFlowLine(tr *syntax.Tree, id syntax.NodeID) bool {
	for prev := tr.PrevLeaf(id); prev != syntax.None; prev = tr.PrevLeaf(prev) {
		if tr.IsWhitespaceWithNewline(prev) {
			return false
		}
		if tr.Is(prev, syntax.Keyword, syntax.Identifier) && controlFlowKeywords[tr.Text(prev)] &&
			(tr.Is(prev, syntax.Keyword) || tr.Is(tr.Parent(prev), syntax.Catch, syntax.Finally)) {
			return true
		}
	}
	return false
}
