package format

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// trailingCommaSite describes the closing token of a list-like node and
// the position where its trailing comma belongs.
type trailingCommaSite struct {
	tr        *syntax.Tree
	node      syntax.NodeID
	inspect   syntax.NodeID
	multiline bool
	allowed   bool
	// arrow is set for when entries and lambdas, where the closing token
	// is the arrow and a trailing comma needs a line break before it.
	arrow bool
}

func (s *trailingCommaSite) check(emit formatter.Emit) {
	tr := s.tr
	closing := tr.Text(s.inspect)

	comma := tr.PrevCodeLeaf(s.inspect)
	if !tr.Is(comma, syntax.Comma) {
		comma = syntax.None
	}

	switch {
	case s.multiline && comma != syntax.None:
		if !s.allowed {
			s.removeComma(emit, comma, closing)
			return
		}
		if !s.arrow || !tr.Is(s.node, syntax.WhenEntry) {
			return
		}
		beforeArrow := tr.PrevLeaf(s.inspect)
		if tr.IsWhitespaceWithNewline(beforeArrow) {
			return
		}
		msg := fmt.Sprintf("Expected a newline between the trailing comma and %q", closing)
		if emit(tr.Start(comma), msg, true) == formatter.Apply {
			tr.UpsertWhitespaceAfter(beforeArrow, "\n"+tr.Indent(s.node))
		}

	case s.multiline:
		if !s.allowed {
			return
		}
		prev := tr.PrevCodeLeaf(s.inspect)
		if prev == syntax.None {
			return
		}
		beforeArrow := syntax.None
		addNewline := false
		if s.arrow {
			beforeArrow = tr.PrevLeaf(s.inspect)
			addNewline = beforeArrow != syntax.None && !tr.IsWhitespaceWithNewline(beforeArrow)
		}
		msg := fmt.Sprintf("Missing trailing comma before %q", closing)
		if addNewline {
			msg = fmt.Sprintf("Missing trailing comma and newline before %q", closing)
		}
		if emit(tr.End(prev), msg, true) != formatter.Apply {
			return
		}
		if addNewline {
			indent := "\n" + tr.Indent(tr.Parent(prev))
			if tr.IsWhitespace(beforeArrow) {
				tr.SetText(beforeArrow, indent)
			} else {
				tr.InsertBefore(tr.NextLeaf(prev), tr.NewLeaf(syntax.Whitespace, indent))
			}
		}
		tr.InsertBefore(tr.NextLeaf(prev), tr.NewLeaf(syntax.Comma, ","))

	case comma != syntax.None:
		s.removeComma(emit, comma, closing)
	}
}

func (s *trailingCommaSite) removeComma(emit formatter.Emit, comma syntax.NodeID, closing string) {
	msg := fmt.Sprintf("Unnecessary trailing comma before %q", closing)
	if emit(s.tr.Start(comma), msg, true) == formatter.Apply {
		s.tr.Remove(comma)
	}
}

// hasNewlineInRange reports whether the text from the start of first
// through the end of last contains a line break.
func hasNewlineInRange(tr *syntax.Tree, first, last syntax.NodeID) bool {
	from, to := tr.FirstLeaf(first), tr.LastLeaf(last)
	if from == syntax.None || to == syntax.None {
		return false
	}
	return strings.Contains(textBetween(tr, from, to), "\n")
}

// TrailingCommaOnCallSite enforces a trailing comma in multiline argument
// lists, type argument lists, collection literals and indices, and
// removes it from single line ones.
type TrailingCommaOnCallSite struct {
	formatter.Base
	allowed bool
}

// NewTrailingCommaOnCallSite returns the trailing-comma-on-call-site rule.
func NewTrailingCommaOnCallSite() formatter.Rule {
	return &TrailingCommaOnCallSite{Base: formatter.Base{
		RuleID: TrailingCommaOnCallSiteID,
		Uses:   []*config.Key{config.AllowTrailingCommaOnCallSiteKey},
		Order:  []formatter.Constraint{formatter.AfterIfEnabled(WrappingID), formatter.Last},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *TrailingCommaOnCallSite) BeforeFirstNode(cfg *config.Snapshot) {
	r.allowed = cfg.Bool(config.AllowTrailingCommaOnCallSiteKey)
}

// BeforeVisit implements formatter.Rule.
func (r *TrailingCommaOnCallSite) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	site := &trailingCommaSite{tr: tr, node: n, allowed: r.allowed}
	switch tr.Kind(n) {
	case syntax.ValueArgumentList:
		site.inspect = tr.FindLastChild(n, syntax.RParen)
		site.multiline = multilineArguments(tr, n)
	case syntax.TypeArgumentList:
		site.inspect = tr.FindChild(n, syntax.RAngle)
		site.multiline = tr.TextContains(n, "\n")
	case syntax.CollectionLiteral:
		site.inspect = tr.FindLastChild(n, syntax.RBracket)
		site.multiline = tr.TextContains(n, "\n")
	case syntax.ArrayAccess:
		site.inspect = tr.FindLastChild(n, syntax.RBracket)
		if open := tr.FindChild(n, syntax.LBracket); open != syntax.None && site.inspect != syntax.None {
			site.multiline = hasNewlineInRange(tr, open, site.inspect)
		}
	default:
		return nil
	}
	if site.inspect == syntax.None {
		return nil
	}
	site.check(emit)
	return nil
}

// multilineArguments reports whether a line break follows the first
// argument of an argument list.
func multilineArguments(tr *syntax.Tree, list syntax.NodeID) bool {
	first := tr.FindChild(list, syntax.ValueArgument)
	if first == syntax.None {
		return false
	}
	for s := tr.NextSibling(first); s != syntax.None; s = tr.NextSibling(s) {
		if tr.IsWhitespaceWithNewline(s) {
			return true
		}
	}
	return false
}

// TrailingCommaOnDeclarationSite enforces a trailing comma in multiline
// parameter lists, type parameter lists, lambda parameters and when
// entries, and removes it from single line ones.
type TrailingCommaOnDeclarationSite struct {
	formatter.Base
	allowed bool
}

// NewTrailingCommaOnDeclarationSite returns the
// trailing-comma-on-declaration-site rule.
func NewTrailingCommaOnDeclarationSite() formatter.Rule {
	return &TrailingCommaOnDeclarationSite{Base: formatter.Base{
		RuleID: TrailingCommaOnDeclarationSiteID,
		Uses:   []*config.Key{config.AllowTrailingCommaKey},
		Order:  []formatter.Constraint{formatter.AfterIfEnabled(WrappingID), formatter.Last},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *TrailingCommaOnDeclarationSite) BeforeFirstNode(cfg *config.Snapshot) {
	r.allowed = cfg.Bool(config.AllowTrailingCommaKey)
}

// BeforeVisit implements formatter.Rule.
func (r *TrailingCommaOnDeclarationSite) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	site := &trailingCommaSite{tr: tr, node: n, allowed: r.allowed}
	switch tr.Kind(n) {
	case syntax.ValueParameterList:
		if tr.Is(tr.Parent(n), syntax.FunctionLiteral) {
			return nil
		}
		site.inspect = tr.FindLastChild(n, syntax.RParen)
		site.multiline = tr.FindChild(n, syntax.ValueParameter) != syntax.None && tr.TextContains(n, "\n")
	case syntax.TypeParameterList:
		site.inspect = tr.FindChild(n, syntax.RAngle)
		site.multiline = tr.TextContains(n, "\n")
	case syntax.FunctionLiteral:
		params := tr.FindChild(n, syntax.ValueParameterList)
		site.inspect = tr.FindChild(n, syntax.Arrow)
		if params == syntax.None || site.inspect == syntax.None {
			return nil
		}
		site.arrow = true
		site.multiline = hasNewlineInRange(tr, params, site.inspect)
	case syntax.WhenEntry:
		if tr.Is(tr.FirstChild(n), syntax.Keyword) || tr.FindChild(tr.Parent(n), syntax.LParen) == syntax.None {
			return nil
		}
		site.inspect = tr.FindChild(n, syntax.Arrow)
		if site.inspect == syntax.None {
			return nil
		}
		site.arrow = true
		site.multiline = hasNewlineInRange(tr, tr.FirstChild(n), site.inspect)
	default:
		return nil
	}
	if site.inspect == syntax.None {
		return nil
	}
	site.check(emit)
	return nil
}
