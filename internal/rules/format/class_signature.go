package format

import (
	"strings"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// ClassSignature formats class headers: the primary constructor
// parameters go on one line when they fit and one per line otherwise,
// super types follow the constructor, and the body brace is preceded by a
// single space.
type ClassSignature struct {
	formatter.Base
	ic             indentConfig
	style          config.CodeStyle
	maxLineLength  int
	forceMultiline int
}

// NewClassSignature returns the class-signature rule.
func NewClassSignature() formatter.Rule {
	return &ClassSignature{Base: formatter.Base{
		RuleID: ClassSignatureID,
		Uses: keys(
			config.CodeStyleKey,
			config.MaxLineLengthKey,
			config.ClassSignatureForceMultilineKey,
		),
		Order: []formatter.Constraint{formatter.Last},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *ClassSignature) BeforeFirstNode(cfg *config.Snapshot) {
	r.ic = newIndentConfig(cfg)
	r.style = config.CodeStyle(cfg.String(config.CodeStyleKey))
	r.maxLineLength = cfg.Int(config.MaxLineLengthKey)
	r.forceMultiline = cfg.Int(config.ClassSignatureForceMultilineKey)
}

// BeforeVisit implements formatter.Rule.
func (r *ClassSignature) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.Is(n, syntax.Class) {
		return nil
	}
	if kw := declarationKeyword(tr, n); kw == syntax.None || tr.LeafText(kw, "object") {
		return nil
	}

	c := &classSignature{tr: tr, class: n, ic: r.ic, emit: emit, maxLineLength: r.maxLineLength}
	c.params = syntax.None
	if ctor := tr.FindChild(n, syntax.PrimaryConstructor); ctor != syntax.None {
		c.params = tr.FindChild(ctor, syntax.ValueParameterList)
	}

	wrap := c.wrapParameters(r.forceMultiline, r.style == config.KtlintOfficial)
	c.fixParameters(wrap)
	c.fixSuperTypes(wrap)
	c.fixClassBody()
	return nil
}

// classSignature applies or measures the whitespace fixes of one class
// header. In a dry run nothing is emitted or changed and the methods
// return the change in header length the fixes would cause.
type classSignature struct {
	tr            *syntax.Tree
	class         syntax.NodeID
	params        syntax.NodeID
	ic            indentConfig
	emit          formatter.Emit
	maxLineLength int
	dryRun        bool
}

func (c *classSignature) parameters() []syntax.NodeID {
	if c.params == syntax.None {
		return nil
	}
	return c.tr.ChildrenOf(c.params, syntax.ValueParameter)
}

func (c *classSignature) wrapParameters(force int, official bool) bool {
	tr := c.tr
	params := c.parameters()
	if force > 0 && len(params) >= force {
		return true
	}
	for _, p := range params {
		if tr.TextContains(p, "\n") {
			return true
		}
		if official {
			if mods := tr.FindChild(p, syntax.ModifierList); mods != syntax.None && tr.FindChild(mods, syntax.Annotation) != syntax.None {
				return true
			}
		}
	}
	if c.maxLineLength > 0 {
		if c.signatureLength(true)+c.dryParameters() > c.maxLineLength {
			return true
		}
	} else {
		for _, l := range c.signatureLeaves(true) {
			if tr.IsWhitespaceWithNewline(l) {
				return true
			}
		}
	}
	return c.params != syntax.None && tr.FindChild(c.params, syntax.EOLComment) != syntax.None
}

func (c *classSignature) dryParameters() int {
	c.dryRun = true
	defer func() { c.dryRun = false }()
	return c.fixParameters(false)
}

// signatureStart returns the first leaf of the class header that is not
// part of an annotation or comment.
func (c *classSignature) signatureStart() syntax.NodeID {
	tr := c.tr
	mods := tr.FindChild(c.class, syntax.ModifierList)
	if mods == syntax.None {
		return firstCodeLeaf(tr, c.class)
	}
	for ch := tr.FirstChild(mods); ch != syntax.None; ch = tr.NextSibling(ch) {
		if !tr.Is(ch, syntax.Annotation, syntax.Whitespace, syntax.EOLComment) {
			return tr.FirstLeaf(ch)
		}
	}
	return tr.FirstLeaf(tr.NextCodeSibling(mods))
}

// signatureLeaves returns the header leaves through the ":" before the
// super types (when excludeSuperTypes is set) or through the opening
// brace of the body.
func (c *classSignature) signatureLeaves(excludeSuperTypes bool) []syntax.NodeID {
	tr := c.tr
	end := syntax.None
	if excludeSuperTypes {
		end = tr.FindChild(c.class, syntax.Colon)
	}
	if end == syntax.None {
		if body := tr.FindChild(c.class, syntax.ClassBody); body != syntax.None {
			end = tr.FirstChild(body)
		}
	}

	start := c.signatureStart()
	var out []syntax.NodeID
	in := false
	for _, l := range tr.Leaves(c.class) {
		if l == start {
			in = true
		}
		if in {
			out = append(out, l)
		}
		if in && l == end {
			break
		}
	}
	return out
}

func (c *classSignature) signatureLength(excludeSuperTypes bool) int {
	return runeLen(c.tr.Indent(c.class)) + runeLen(leavesText(c.tr, c.signatureLeaves(excludeSuperTypes)))
}

func (c *classSignature) fixParameters(multiline bool) int {
	if len(c.parameters()) == 0 {
		return c.fixEmptyParameters()
	}
	return c.fixFirstParameter(multiline) +
		c.fixOtherParameters(multiline) +
		c.fixClosingParenthesis(multiline)
}

// fixEmptyParameters removes "()" from a class header unless it is
// required or deliberate.
func (c *classSignature) fixEmptyParameters() int {
	tr := c.tr
	if c.params == syntax.None || hasModifier(tr, c.class, "expect") {
		return 0
	}
	for ch := tr.FirstChild(c.params); ch != syntax.None; ch = tr.NextSibling(ch) {
		if tr.IsComment(ch) {
			return 0
		}
	}
	if tr.LeafText(tr.PrevCodeSibling(c.params), "constructor") {
		return 0
	}
	if body := tr.FindChild(c.class, syntax.ClassBody); body != syntax.None {
		for _, ctor := range tr.ChildrenOf(body, syntax.SecondaryConstructor) {
			if tr.FindChild(ctor, syntax.CallExpression) != syntax.None {
				return 0
			}
		}
	}

	if c.dryRun {
		return -runeLen(tr.Text(c.params))
	}
	if c.emit(tr.Start(c.params), "No parenthesis expected", true) == formatter.Apply {
		ctor := tr.Parent(c.params)
		tr.Remove(c.params)
		if firstCodeLeaf(tr, ctor) == syntax.None {
			tr.Remove(ctor)
		}
		c.params = syntax.None
	}
	return 0
}

func (c *classSignature) fixFirstParameter(multiline bool) int {
	tr := c.tr
	first := c.parameters()[0]
	ws := whitespaceBefore(tr, first)

	if multiline {
		if ws != syntax.None && strings.Contains(tr.Text(ws), "\n") {
			return 0
		}
		want := c.ic.childIndentOf(tr, c.class)
		if c.dryRun {
			return runeLen(want) - whitespaceLen(tr, ws)
		}
		if c.emit(tr.Start(first), "Newline expected after opening parenthesis", true) == formatter.Apply {
			tr.UpsertWhitespaceAfter(tr.FirstChild(c.params), want)
		}
		return 0
	}

	if ws == syntax.None {
		return 0
	}
	if c.dryRun {
		return -whitespaceLen(tr, ws)
	}
	if c.emit(tr.Start(first), "No whitespace expected between opening parenthesis and first parameter name", true) == formatter.Apply {
		tr.Remove(ws)
	}
	return 0
}

func (c *classSignature) fixOtherParameters(multiline bool) int {
	tr := c.tr
	delta := 0
	for _, p := range c.parameters()[1:] {
		ws := whitespaceBefore(tr, p)
		if multiline {
			if ws != syntax.None && strings.Contains(tr.Text(ws), "\n") {
				continue
			}
			want := c.ic.childIndentOf(tr, c.class)
			if c.dryRun {
				delta += runeLen(want) - whitespaceLen(tr, ws)
				continue
			}
			if c.emit(tr.Start(p), "Parameter should start on a newline", true) == formatter.Apply {
				tr.UpsertWhitespaceBefore(p, want)
			}
			continue
		}

		if ws != syntax.None && tr.Text(ws) == " " {
			continue
		}
		if c.dryRun {
			delta += 1 - whitespaceLen(tr, ws)
			continue
		}
		if c.emit(tr.Start(p), "Single whitespace expected before parameter", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(p, " ")
		}
	}
	return delta
}

func (c *classSignature) fixClosingParenthesis(multiline bool) int {
	tr := c.tr
	rparen := tr.FindChild(c.params, syntax.RParen)
	if rparen == syntax.None {
		return 0
	}
	ws := tr.PrevSibling(rparen)
	if !tr.IsWhitespace(ws) {
		ws = syntax.None
	}

	if multiline {
		if ws != syntax.None && strings.Contains(tr.Text(ws), "\n") {
			return 0
		}
		want := c.ic.indentOf(tr, c.class)
		if c.dryRun {
			return runeLen(want) - whitespaceLen(tr, ws)
		}
		if c.emit(tr.Start(rparen), "Newline expected before closing parenthesis", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(rparen, want)
		}
		return 0
	}

	if ws == syntax.None {
		return 0
	}
	if c.dryRun {
		return -whitespaceLen(tr, ws)
	}
	if c.emit(tr.Start(ws), "No whitespace expected between last parameter and closing parenthesis", true) == formatter.Apply {
		tr.Remove(ws)
	}
	return 0
}

// hasMultilinePrimaryConstructor reports whether the closing parenthesis
// of the constructor starts a line.
func (c *classSignature) hasMultilinePrimaryConstructor() bool {
	tr := c.tr
	if c.params == syntax.None {
		return false
	}
	rparen := tr.FindChild(c.params, syntax.RParen)
	if rparen == syntax.None {
		return false
	}
	prev := tr.PrevLeaf(rparen)
	for prev != syntax.None && tr.IsComment(prev) {
		prev = tr.PrevLeaf(prev)
	}
	return tr.IsWhitespaceWithNewline(prev)
}

func (c *classSignature) superTypes() []syntax.NodeID {
	list := c.tr.FindChild(c.class, syntax.SuperTypeList)
	if list == syntax.None {
		return nil
	}
	return c.tr.ChildrenOf(list, syntax.SuperTypeEntry)
}

func (c *classSignature) isCallEntry(entry syntax.NodeID) bool {
	return c.tr.FindChild(entry, syntax.ValueArgumentList) != syntax.None
}

func (c *classSignature) fixSuperTypes(wrappedConstructor bool) {
	tr := c.tr
	types := c.superTypes()
	if len(types) == 0 {
		return
	}

	if !c.isCallEntry(types[0]) {
		for _, entry := range types[1:] {
			if !c.isCallEntry(entry) {
				continue
			}
			if c.emit(tr.Start(entry), "Super type call must be first super type", true) == formatter.Apply {
				c.moveFirst(entry, types[0])
				types = c.superTypes()
			}
			break
		}
	}

	if len(types) == 1 {
		c.fixSingleSuperType(types[0], wrappedConstructor)
	} else {
		c.fixSuperTypeList(types)
	}

	for _, entry := range types {
		args := tr.FindChild(entry, syntax.ValueArgumentList)
		if args == syntax.None {
			continue
		}
		if ws := tr.PrevSibling(args); tr.IsWhitespace(ws) {
			if c.emit(tr.Start(ws), "No whitespace expected", true) == formatter.Apply {
				tr.Remove(ws)
			}
		}
	}
}

// moveFirst moves the super type call entry, with the comma preceding
// it, in front of first. The whitespace around the moved entry is fixed
// by the super type list checks that follow.
func (c *classSignature) moveFirst(entry, first syntax.NodeID) {
	tr := c.tr
	list := tr.Parent(entry)
	if ws := tr.PrevSibling(entry); tr.IsWhitespace(ws) {
		tr.Remove(ws)
	}
	comma := syntax.None
	for s := tr.PrevSibling(entry); s != syntax.None; s = tr.PrevSibling(s) {
		if tr.Is(s, syntax.Comma) {
			comma = s
			break
		}
	}
	if comma == syntax.None {
		return
	}
	tr.Remove(entry)
	tr.Remove(comma)
	tr.AddChild(list, entry, first)
	tr.AddChild(list, comma, first)
}

func (c *classSignature) fixSingleSuperType(entry syntax.NodeID, wrappedConstructor bool) {
	tr := c.tr
	if wrappedConstructor {
		ws := tr.PrevLeaf(entry)
		if !tr.IsWhitespaceWithNewline(ws) || tr.Is(tr.PrevSibling(ws), syntax.EOLComment) || tr.Is(tr.PrevLeaf(ws), syntax.EOLComment) {
			return
		}
		if tr.Text(ws) != " " && c.emit(tr.Start(entry), "Expected single space before the super type", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(entry, " ")
		}
		return
	}

	ws := whitespaceBefore(tr, entry)
	list := tr.Parent(entry)
	if tr.TextContains(list, "\n") || c.exceedsWithFirstSuperType() {
		if ws == syntax.None || !strings.Contains(tr.Text(ws), "\n") {
			if c.emit(tr.Start(entry), "Super type should start on a newline", true) == formatter.Apply {
				tr.UpsertWhitespaceBefore(entry, c.ic.childIndentOf(tr, c.class))
			}
		}
		return
	}
	if ws == syntax.None || tr.Text(ws) != " " {
		if tr.Is(tr.PrevLeaf(ws), syntax.EOLComment) {
			return
		}
		if c.emit(tr.Start(entry), "Expected single space before the super type", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(entry, " ")
		}
	}
}

func (c *classSignature) fixSuperTypeList(types []syntax.NodeID) {
	tr := c.tr
	multilineCtor := c.hasMultilinePrimaryConstructor()
	for i, entry := range types {
		ws := whitespaceBefore(tr, entry)
		if i == 0 && multilineCtor {
			if ws != syntax.None && tr.Is(tr.PrevLeaf(ws), syntax.EOLComment) {
				continue
			}
			if ws == syntax.None || tr.Text(ws) != " " {
				if c.emit(tr.Start(entry), "Expected single space before the first super type", true) == formatter.Apply {
					tr.UpsertWhitespaceBefore(entry, " ")
				}
			}
			continue
		}
		if ws == syntax.None || !strings.Contains(tr.Text(ws), "\n") {
			if c.emit(tr.Start(entry), "Super type should start on a newline", true) == formatter.Apply {
				tr.UpsertWhitespaceBefore(entry, c.ic.childIndentOf(tr, c.class))
			}
		}
	}
}

// exceedsWithFirstSuperType reports whether the header through the body
// brace would exceed the maximum line length on a single line.
func (c *classSignature) exceedsWithFirstSuperType() bool {
	if c.maxLineLength <= 0 {
		return false
	}
	return c.signatureLength(false)+c.dryParameters() > c.maxLineLength
}

func (c *classSignature) fixClassBody() {
	tr := c.tr
	body := tr.FindChild(c.class, syntax.ClassBody)
	if body == syntax.None {
		return
	}
	prev := tr.PrevLeaf(body)
	if prev == syntax.None || tr.LeafText(prev, " ") {
		return
	}
	if tr.IsWhitespace(prev) && tr.Is(tr.PrevLeaf(prev), syntax.EOLComment) {
		return
	}
	if c.emit(tr.Start(body), "Expected a single space before class body", true) == formatter.Apply {
		tr.UpsertWhitespaceBefore(body, " ")
	}
}
