package format

import (
	"regexp"
	"strings"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

// closingParenWithEq matches the last line of a multiline signature that
// has no return type.
var closingParenWithEq = regexp.MustCompile(`^\s*\) =$`)

// FunctionSignature rewrites function signatures to a single line when
// they fit, and to one parameter per line otherwise. It also places the
// body block or the first line of a body expression.
type FunctionSignature struct {
	formatter.Base
	ic             indentConfig
	style          config.CodeStyle
	maxLineLength  int
	forceMultiline int
}

// NewFunctionSignature returns the function-signature rule.
func NewFunctionSignature() formatter.Rule {
	return &FunctionSignature{Base: formatter.Base{
		RuleID: FunctionSignatureID,
		Uses: keys(
			config.CodeStyleKey,
			config.MaxLineLengthKey,
			config.FunctionSignatureForceMultilineKey,
		),
		Order: []formatter.Constraint{formatter.Last},
	}}
}

// BeforeFirstNode implements formatter.Rule.
func (r *FunctionSignature) BeforeFirstNode(cfg *config.Snapshot) {
	r.ic = newIndentConfig(cfg)
	r.style = config.CodeStyle(cfg.String(config.CodeStyleKey))
	r.maxLineLength = cfg.Int(config.MaxLineLengthKey)
	r.forceMultiline = cfg.Int(config.FunctionSignatureForceMultilineKey)
}

// BeforeVisit implements formatter.Rule.
func (r *FunctionSignature) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if !tr.Is(n, syntax.Fun) {
		return nil
	}
	params := tr.FindChild(n, syntax.ValueParameterList)
	if params == syntax.None {
		return nil
	}
	sig := functionSignatureLeaves(tr, n)
	for _, l := range sig {
		if tr.Is(l, syntax.EOLComment, syntax.BlockComment) {
			return nil
		}
	}

	f := &funSignature{tr: tr, fun: n, params: params, ic: r.ic, emit: emit}
	count := len(tr.ChildrenOf(params, syntax.ValueParameter))
	force := r.forceMultiline > 0 && count >= r.forceMultiline ||
		f.hasMultilineParameter() ||
		r.style == config.KtlintOfficial && f.hasAnnotatedParameter()
	hasEq := tr.FindChild(n, syntax.Eq) != syntax.None

	if r.maxLineLength <= 0 {
		single := !force
		for _, l := range sig {
			if tr.TextContains(l, "\n") {
				single = false
				break
			}
		}
		f.fixParameters(!single)
		return nil
	}

	singleLen := f.singleLineLength()
	if force || count > 0 && singleLen > r.maxLineLength {
		f.fixParameters(true)
		if !hasEq {
			f.fixBodyBlock()
			return nil
		}
		f.fixBodyExpression(r.maxLineLength-f.lastSignatureLineLength(), r.bodyWrapping())
		return nil
	}
	f.fixParameters(false)
	if !hasEq {
		f.fixBodyBlock()
		return nil
	}
	f.fixBodyExpression(r.maxLineLength-singleLen, r.bodyWrapping())
	return nil
}

// bodyWrapping reports whether a body expression spanning several lines
// starts on its own line.
func (r *FunctionSignature) bodyWrapping() bool {
	return r.style == config.KtlintOfficial
}

// functionSignatureLeaves returns the leaves of a function from its first
// non-annotation token through the "{" of its body block or its "=".
func functionSignatureLeaves(tr *syntax.Tree, fun syntax.NodeID) []syntax.NodeID {
	start := signatureStart(tr, fun)
	end := syntax.None
	if block := tr.FindChild(fun, syntax.Block); block != syntax.None {
		end = tr.FirstChild(block)
	} else if eq := tr.FindChild(fun, syntax.Eq); eq != syntax.None {
		end = eq
	}

	var out []syntax.NodeID
	in := false
	for _, l := range tr.Leaves(fun) {
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

// signatureStart returns the first leaf of a declaration that is not part
// of an annotation.
func signatureStart(tr *syntax.Tree, decl syntax.NodeID) syntax.NodeID {
	mods := tr.FindChild(decl, syntax.ModifierList)
	if mods == syntax.None {
		return firstCodeLeaf(tr, decl)
	}
	for c := tr.FirstChild(mods); c != syntax.None; c = tr.NextSibling(c) {
		if !tr.Is(c, syntax.Annotation, syntax.Whitespace) {
			return tr.FirstLeaf(c)
		}
	}
	return tr.FirstLeaf(tr.NextCodeSibling(mods))
}

func leavesText(tr *syntax.Tree, leaves []syntax.NodeID) string {
	var b strings.Builder
	for _, l := range leaves {
		b.WriteString(tr.Text(l))
	}
	return b.String()
}

// funSignature applies or measures the whitespace fixes of one function.
// In a dry run the fixes are neither emitted nor applied; the methods
// return the change in signature length the fixes would cause.
type funSignature struct {
	tr     *syntax.Tree
	fun    syntax.NodeID
	params syntax.NodeID
	ic     indentConfig
	emit   formatter.Emit
	dryRun bool
}

func (f *funSignature) hasMultilineParameter() bool {
	for _, p := range f.tr.ChildrenOf(f.params, syntax.ValueParameter) {
		if f.tr.TextContains(p, "\n") {
			return true
		}
	}
	return false
}

func (f *funSignature) hasAnnotatedParameter() bool {
	for _, p := range f.tr.ChildrenOf(f.params, syntax.ValueParameter) {
		if mods := f.tr.FindChild(p, syntax.ModifierList); mods != syntax.None &&
			f.tr.FindChild(mods, syntax.Annotation) != syntax.None {
			return true
		}
	}
	return false
}

// singleLineLength is the length of the signature line when the
// parameters and body block are placed on a single line.
func (f *funSignature) singleLineLength() int {
	tr := f.tr
	length := runeLen(tr.Indent(f.fun)) + runeLen(leavesText(tr, functionSignatureLeaves(tr, f.fun)))

	f.dryRun = true
	defer func() { f.dryRun = false }()
	length += f.fixParameters(false)
	if tr.FindChild(f.fun, syntax.Eq) == syntax.None {
		length += f.fixBodyBlock()
	}
	return length
}

// lastSignatureLineLength is the length of the line holding the closing
// parenthesis of a multiline signature through the "=".
func (f *funSignature) lastSignatureLineLength() int {
	tr := f.tr
	rparen := tr.FindChild(f.params, syntax.RParen)
	sig := functionSignatureLeaves(tr, f.fun)
	for i, l := range sig {
		if l == rparen {
			return runeLen(tr.Indent(f.fun)) + runeLen(leavesText(tr, sig[i:]))
		}
	}
	return runeLen(tr.Indent(f.fun))
}

func (f *funSignature) fixParameters(multiline bool) int {
	if f.tr.FindChild(f.params, syntax.ValueParameter) == syntax.None {
		return f.fixEmptyParameters()
	}
	return f.fixFirstParameter(multiline) +
		f.fixOtherParameters(multiline) +
		f.fixClosingParenthesis(multiline)
}

func (f *funSignature) fixEmptyParameters() int {
	tr := f.tr
	for c := tr.FirstChild(f.params); c != syntax.None; c = tr.NextSibling(c) {
		if !tr.IsWhitespace(c) {
			continue
		}
		if f.dryRun {
			return -runeLen(tr.Text(c))
		}
		if f.emit(tr.Start(c), "No whitespace expected in empty parameter list", true) == formatter.Apply {
			tr.Remove(c)
		}
		return 0
	}
	return 0
}

// whitespaceBefore returns the whitespace leaf directly before id, or
// None.
func whitespaceBefore(tr *syntax.Tree, id syntax.NodeID) syntax.NodeID {
	if prev := tr.PrevLeaf(id); tr.IsWhitespace(prev) {
		return prev
	}
	return syntax.None
}

func whitespaceLen(tr *syntax.Tree, ws syntax.NodeID) int {
	if ws == syntax.None {
		return 0
	}
	return runeLen(tr.Text(ws))
}

func (f *funSignature) fixFirstParameter(multiline bool) int {
	tr := f.tr
	first := tr.FindChild(f.params, syntax.ValueParameter)
	ws := whitespaceBefore(tr, first)

	if multiline {
		want := f.ic.childIndentOf(tr, f.fun)
		if ws != syntax.None && tr.Text(ws) == want {
			return 0
		}
		if f.dryRun {
			return runeLen(want) - whitespaceLen(tr, ws)
		}
		if f.emit(tr.Start(first), "Newline expected after opening parenthesis", true) == formatter.Apply {
			tr.UpsertWhitespaceAfter(tr.FirstChild(f.params), want)
		}
		return 0
	}

	if ws == syntax.None {
		return 0
	}
	if f.dryRun {
		return -whitespaceLen(tr, ws)
	}
	if f.emit(tr.Start(first), "No whitespace expected between opening parenthesis and first parameter name", true) == formatter.Apply {
		tr.Remove(ws)
	}
	return 0
}

func (f *funSignature) fixOtherParameters(multiline bool) int {
	tr := f.tr
	delta := 0
	for i, p := range tr.ChildrenOf(f.params, syntax.ValueParameter) {
		if i == 0 {
			continue
		}
		ws := whitespaceBefore(tr, p)
		want := " "
		msg := "Single whitespace expected before parameter"
		if multiline {
			want = f.ic.childIndentOf(tr, f.fun)
			msg = "Parameter should start on a newline"
		}
		if ws != syntax.None && tr.Text(ws) == want {
			continue
		}
		if f.dryRun {
			delta += runeLen(want) - whitespaceLen(tr, ws)
			continue
		}
		if f.emit(tr.Start(p), msg, true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(p, want)
		}
	}
	return delta
}

func (f *funSignature) fixClosingParenthesis(multiline bool) int {
	tr := f.tr
	rparen := tr.FindChild(f.params, syntax.RParen)
	if rparen == syntax.None {
		return 0
	}
	ws := tr.PrevSibling(rparen)
	if !tr.IsWhitespace(ws) {
		ws = syntax.None
	}

	if multiline {
		want := f.ic.indentOf(tr, f.fun)
		if ws != syntax.None && tr.Text(ws) == want {
			return 0
		}
		if f.dryRun {
			return runeLen(want) - whitespaceLen(tr, ws)
		}
		if f.emit(tr.Start(rparen), "Newline expected before closing parenthesis", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(rparen, want)
		}
		return 0
	}

	if ws == syntax.None {
		return 0
	}
	if f.dryRun {
		return -whitespaceLen(tr, ws)
	}
	if f.emit(tr.Start(ws), "No whitespace expected between last parameter and closing parenthesis", true) == formatter.Apply {
		tr.Remove(ws)
	}
	return 0
}

func (f *funSignature) fixBodyBlock() int {
	tr := f.tr
	block := tr.FindChild(f.fun, syntax.Block)
	if block == syntax.None || !tr.Is(tr.FirstChild(block), syntax.LBrace) {
		return 0
	}
	ws := whitespaceBefore(tr, block)
	if ws != syntax.None && tr.Text(ws) == " " {
		return 0
	}
	if f.dryRun {
		return 1 - whitespaceLen(tr, ws)
	}
	if f.emit(tr.Start(block), "Expected a single space before body block", true) == formatter.Apply {
		tr.UpsertWhitespaceBefore(block, " ")
	}
	return 0
}

// fixBodyExpression places the first line of an expression body after
// the "=" when it fits in remaining columns, and on a new line otherwise.
// With multilineWrapping a body spanning several lines always starts on
// a new line.
func (f *funSignature) fixBodyExpression(remaining int, multilineWrapping bool) {
	tr := f.tr
	eq := tr.FindChild(f.fun, syntax.Eq)
	afterEq := tr.NextLeaf(eq)
	if eq == syntax.None || afterEq == syntax.None || !tr.Contains(f.fun, afterEq) {
		return
	}

	var body []syntax.NodeID
	for l := afterEq; l != syntax.None && tr.Contains(f.fun, l); l = tr.NextLeaf(l) {
		body = append(body, l)
	}
	ws := syntax.None
	if tr.IsWhitespace(body[0]) {
		ws = body[0]
	}
	expr := body
	for len(expr) > 0 && tr.IsWhitespace(expr[0]) {
		expr = expr[1:]
	}
	if len(expr) == 0 {
		return
	}
	lines := strings.Split(leavesText(tr, expr), "\n")
	firstLine := runeLen(lines[0])
	noReturnType := f.multilineWithoutReturnType()

	if ws != syntax.None && strings.Contains(tr.Text(ws), "\n") {
		exprNode := tr.NextCodeSibling(eq)
		if tr.Is(exprNode, syntax.PrefixExpression) && tr.Is(tr.FirstChild(exprNode), syntax.Annotation) {
			return
		}
		merge := firstLine < remaining &&
			(!multilineWrapping && !f.startsWithMultilineString(expr) ||
				multilineWrapping && len(lines) == 1 ||
				noReturnType)
		if merge && f.emit(tr.Start(ws), "First line of body expression fits on same line as function signature", true) == formatter.Apply {
			tr.SetText(ws, " ")
		}
		return
	}

	switch {
	case noReturnType && firstLine+1 <= remaining:
		if ws != syntax.None && tr.Text(ws) == " " {
			return
		}
		if f.emit(tr.Start(expr[0]), "Single whitespace expected before expression body", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(expr[0], " ")
		}
	case firstLine+1 > remaining || multilineWrapping && len(lines) > 1:
		if f.emit(tr.Start(expr[0]), "Newline expected before expression body", true) == formatter.Apply {
			tr.UpsertWhitespaceBefore(expr[0], f.ic.childIndentOf(f.tr, f.fun))
		}
	}
}

func (f *funSignature) startsWithMultilineString(expr []syntax.NodeID) bool {
	tr := f.tr
	for _, l := range expr {
		if !tr.IsCode(l) {
			continue
		}
		next := tr.NextLeaf(l)
		return tr.Is(l, syntax.OpenQuote) && next != syntax.None && strings.HasPrefix(tr.Text(next), "\n")
	}
	return false
}

// multilineWithoutReturnType reports whether the signature ends with a
// line holding only ") =".
func (f *funSignature) multilineWithoutReturnType() bool {
	text := leavesText(f.tr, functionSignatureLeaves(f.tr, f.fun))
	lines := strings.Split(text, "\n")
	return closingParenWithEq.MatchString(lines[len(lines)-1])
}
