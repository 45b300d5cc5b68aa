package format

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/donaldgifford/kfmt/internal/config"
	"github.com/donaldgifford/kfmt/internal/formatter"
	"github.com/donaldgifford/kfmt/internal/syntax"
)

const (
	msgMixedRawStringIndent   = "Indentation of multiline string should not contain both tab(s) and space(s)"
	msgRawStringClosingIndent = "Unexpected indent of multiline string closing quotes"
)

// Indentation checks the indentation of every line against a stack of
// indent scopes opened by the enclosing constructs.
type Indentation struct {
	formatter.Base
	ic    indentConfig
	style config.CodeStyle
	stack indentStack
}

// NewIndentation returns the indent rule.
func NewIndentation() formatter.Rule {
	return &Indentation{Base: formatter.Base{
		RuleID: IndentID,
		Uses:   keys(config.CodeStyleKey),
		Order: []formatter.Constraint{
			formatter.After(ClassSignatureID),
			formatter.After(FunctionSignatureID),
			formatter.After(TrailingCommaOnCallSiteID),
			formatter.After(TrailingCommaOnDeclarationSiteID),
			formatter.Last,
		},
	}}
}

// indentHandler opens the indent scopes of one kind of node.
type indentHandler func(r *Indentation, tr *syntax.Tree, n syntax.NodeID)

var indentHandlers = map[syntax.Kind]indentHandler{
	syntax.ValueArgumentList:       (*Indentation).visitOpenEnded,
	syntax.StringTemplate:          (*Indentation).visitOpenEnded,
	syntax.SuperTypeList:           (*Indentation).visitSuperTypeList,
	syntax.SuperTypeEntry:          (*Indentation).visitSuperTypeEntry,
	syntax.ValueArgument:           (*Indentation).visitValueArgument,
	syntax.SecondaryConstructor:    (*Indentation).visitSecondaryConstructor,
	syntax.ParenthesizedExpression: (*Indentation).visitParenthesized,
	syntax.TypeArgumentList:        (*Indentation).visitTypeList,
	syntax.TypeParameterList:       (*Indentation).visitTypeList,
	syntax.BinaryWithType:          (*Indentation).visitNode,
	syntax.PostfixExpression:       (*Indentation).visitNode,
	syntax.PrefixExpression:        (*Indentation).visitPrefix,
	syntax.TypeReference:           (*Indentation).visitTypeReference,
	syntax.If:                      (*Indentation).visitIf,
	syntax.LBrace:                  (*Indentation).visitLBrace,
	syntax.ValueParameterList:      (*Indentation).visitValueParameterList,
	syntax.LParen:                  (*Indentation).visitLParen,
	syntax.ValueParameter:          (*Indentation).visitValueParameter,
	syntax.Fun:                     (*Indentation).visitFun,
	syntax.Class:                   (*Indentation).visitClass,
	syntax.ObjectLiteral:           (*Indentation).visitObject,
	syntax.BinaryExpression:        (*Indentation).visitBinaryExpression,
	syntax.DotQualifiedExpression:  (*Indentation).visitChain,
	syntax.SafeAccessExpression:    (*Indentation).visitChain,
	syntax.Identifier:              (*Indentation).visitIdentifier,
	syntax.When:                    (*Indentation).visitWhen,
	syntax.WhenEntry:               (*Indentation).visitWhenEntry,
	syntax.PropertyAccessor:        (*Indentation).visitAccessor,
	syntax.TypeAlias:               (*Indentation).visitAccessor,
	syntax.For:                     (*Indentation).visitLoop,
	syntax.While:                   (*Indentation).visitLoop,
	syntax.LBracket:                (*Indentation).visitLBracket,
	syntax.Try:                     (*Indentation).visitTry,
}

// BeforeFirstNode implements formatter.Rule.
func (r *Indentation) BeforeFirstNode(cfg *config.Snapshot) {
	r.ic = newIndentConfig(cfg)
	r.style = config.CodeStyle(cfg.String(config.CodeStyleKey))
	r.stack = indentStack{}
}

func (r *Indentation) official() bool { return r.style == config.KtlintOfficial }

// BeforeVisit implements formatter.Rule.
func (r *Indentation) BeforeVisit(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) error {
	if n == tr.Root() {
		if first := tr.FirstLeaf(n); tr.IsWhitespace(first) && !strings.Contains(tr.Text(first), "\n") {
			if emit(0, "Unexpected indentation", true) == formatter.Apply {
				tr.Remove(first)
			}
		}
		last := tr.LastLeaf(n)
		if last == syntax.None {
			return formatter.ErrStopTraversal
		}
		// Nothing is indented at the top level.
		r.stack.push(indentContext{from: n, to: last, activated: true})
		return nil
	}

	if tr.IsWhitespaceWithNewline(n) {
		r.stack.top().activated = true
		r.visitNewline(tr, n, emit)
		return nil
	}

	switch tr.Kind(n) {
	case syntax.ClosingQuote:
		r.visitClosingQuote(tr, n, emit)
	case syntax.KDoc:
		r.visitKDoc(tr, n, emit)
	}
	if h := indentHandlers[tr.Kind(n)]; h != nil {
		h(r, tr, n)
	}
	return nil
}

// AfterVisit implements formatter.Rule.
func (r *Indentation) AfterVisit(_ *syntax.Tree, n syntax.NodeID, _ formatter.Emit) error {
	r.stack.popEndingAt(n)
	return nil
}

// AfterLastNode implements formatter.Rule.
func (r *Indentation) AfterLastNode(tr *syntax.Tree, _ formatter.Emit) error {
	if !r.stack.empty() {
		return &formatter.InvariantError{
			RuleID: r.ID(),
			Err:    fmt.Errorf("unbalanced indent scopes: %s", r.stack.describe(tr)),
		}
	}
	return nil
}

func (r *Indentation) currentIndent() string {
	if r.stack.empty() {
		return ""
	}
	return r.stack.top().indent()
}

// scope returns a context from from through to (the last leaf of from
// when to is None) indented one unit relative to the current scope.
func (r *Indentation) scope(tr *syntax.Tree, from, to syntax.NodeID) indentContext {
	if to == syntax.None {
		to = tr.LastLeaf(from)
	}
	if to == syntax.None {
		to = from
	}
	unit := r.ic.unit
	return indentContext{
		from:             from,
		to:               to,
		nodeIndent:       r.currentIndent(),
		firstChildIndent: unit,
		childIndent:      unit,
		lastChildIndent:  unit,
	}
}

// push opens c and returns the code leaf before it, which is where the
// scope preceding c ends.
func (r *Indentation) push(tr *syntax.Tree, c indentContext) syntax.NodeID {
	r.stack.push(c)
	return tr.PrevCodeLeaf(c.from)
}

func withChildIndent(c indentContext, indent string) indentContext {
	c.firstChildIndent, c.childIndent, c.lastChildIndent = indent, indent, indent
	return c
}

func (r *Indentation) visitNode(tr *syntax.Tree, n syntax.NodeID) {
	r.push(tr, r.scope(tr, n, syntax.None))
}

// visitOpenEnded opens a scope whose closing token is not indented.
func (r *Indentation) visitOpenEnded(tr *syntax.Tree, n syntax.NodeID) {
	c := r.scope(tr, n, syntax.None)
	c.lastChildIndent = ""
	r.push(tr, c)
}

func (r *Indentation) visitTypeReference(tr *syntax.Tree, n syntax.NodeID) {
	r.push(tr, withChildIndent(r.scope(tr, n, syntax.None), ""))
}

func (r *Indentation) visitSuperTypeList(tr *syntax.Tree, n syntax.NodeID) {
	if !r.official() || precededByComment(tr, n) {
		return
	}
	class := tr.Parent(n)
	if !tr.Is(class, syntax.Class) {
		return
	}
	ctor := tr.FindChild(class, syntax.PrimaryConstructor)
	if ctor == syntax.None || !tr.TextContains(ctor, "\n") {
		return
	}
	c := r.scope(tr, n, syntax.None)
	c.activated = true
	r.push(tr, c)
}

// visitSuperTypeEntry keeps delegated super types at the indent of the
// entry.
func (r *Indentation) visitSuperTypeEntry(tr *syntax.Tree, n syntax.NodeID) {
	for _, ch := range tr.Children(n) {
		if tr.Is(ch, syntax.Identifier) && tr.LeafText(ch, "by") {
			r.push(tr, withChildIndent(r.scope(tr, n, syntax.None), ""))
			return
		}
	}
}

func (r *Indentation) visitValueArgument(tr *syntax.Tree, n syntax.NodeID) {
	if r.official() {
		r.visitOpenEnded(tr, n)
	}
}

func (r *Indentation) visitSecondaryConstructor(tr *syntax.Tree, n syntax.NodeID) {
	call := tr.FindChild(n, syntax.CallExpression)
	if call == syntax.None {
		return
	}
	from := skipLeadingAnnotations(tr, n)
	nextTo := r.push(tr, r.scope(tr, call, syntax.None))
	if tr.FirstLeaf(from) != tr.FirstLeaf(n) {
		r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
	}
}

func (r *Indentation) visitParenthesized(tr *syntax.Tree, n syntax.NodeID) {
	switch {
	case r.official():
		r.visitOpenEnded(tr, n)
	case !tr.Is(tr.Parent(tr.Parent(n)), syntax.If):
		r.visitNode(tr, n)
	}
}

func (r *Indentation) visitTypeList(tr *syntax.Tree, n syntax.NodeID) {
	if r.official() {
		r.visitOpenEnded(tr, n)
		return
	}
	r.visitNode(tr, n)
}

// visitPrefix opens a scope for a prefix expression. An annotated
// expression keeps the indent of its annotations.
func (r *Indentation) visitPrefix(tr *syntax.Tree, n syntax.NodeID) {
	if tr.Is(tr.FirstChild(n), syntax.Annotation) {
		r.visitTypeReference(tr, n)
		return
	}
	r.visitNode(tr, n)
}

// Scopes of a construct made of consecutive parts are pushed last part
// first, so that the part being traversed is always on top.

func (r *Indentation) visitIf(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	if els := tr.FindChild(n, syntax.Else); els != syntax.None {
		nextTo = r.push(tr, r.scope(tr, els, nextTo))
	}
	if then := tr.FindChild(n, syntax.Then); then != syntax.None {
		if after := tr.NextLeaf(tr.LastLeaf(then)); tr.Contains(n, after) {
			nextTo = r.push(tr, withChildIndent(r.scope(tr, after, nextTo), ""))
		}
	}
	if rparen := tr.FindChild(n, syntax.RParen); rparen != syntax.None {
		if body := tr.NextCodeLeaf(rparen); tr.Contains(n, body) {
			nextTo = r.push(tr, r.scope(tr, body, nextTo))
		}
	}
	c := r.scope(tr, n, nextTo)
	c.lastChildIndent = ""
	r.push(tr, c)
}

func (r *Indentation) visitLBrace(tr *syntax.Tree, n syntax.NodeID) {
	rbrace := tr.NextSiblingOf(n, syntax.RBrace)
	if rbrace == syntax.None {
		return
	}
	c := r.scope(tr, n, rbrace)
	c.firstChildIndent, c.lastChildIndent = "", ""
	r.push(tr, c)

	lit := tr.Parent(n)
	if !tr.Is(lit, syntax.FunctionLiteral) {
		return
	}
	arrow := tr.FindChild(lit, syntax.Arrow)
	if arrow == syntax.None {
		return
	}
	body := r.scope(tr, arrow, rbrace)
	body.lastChildIndent = ""
	r.push(tr, body)
	r.push(tr, withChildIndent(r.scope(tr, n, tr.PrevCodeLeaf(arrow)), r.lambdaParameterIndent(tr, lit, n)))
}

// lambdaParameterIndent is the indent of wrapped lambda parameters.
func (r *Indentation) lambdaParameterIndent(tr *syntax.Tree, lit, lbrace syntax.NodeID) string {
	if params := tr.FindChild(lit, syntax.ValueParameterList); params != syntax.None {
		for s := tr.PrevSibling(params); s != syntax.None; s = tr.PrevSibling(s) {
			if tr.TextContains(s, "\n") {
				if r.official() {
					return r.ic.unit
				}
				return r.ic.repeat(2)
			}
		}
	}
	if tr.Ancestor(lit, syntax.CallExpression) == syntax.None {
		return r.ic.repeat(2)
	}
	// Align with the first parameter after "{ ".
	width := 2
	for l := tr.PrevLeaf(lbrace); l != syntax.None && !tr.IsWhitespaceWithNewline(l); l = tr.PrevLeaf(l) {
		width += runeLen(tr.Text(l))
	}
	return strings.Repeat(" ", width)
}

func (r *Indentation) visitValueParameterList(tr *syntax.Tree, n syntax.NodeID) {
	if !tr.Is(tr.Parent(n), syntax.FunctionLiteral) {
		r.visitOpenEnded(tr, n)
	}
}

// visitLParen indents a wrapped condition of if, while and do-while one
// unit deeper than the statement.
func (r *Indentation) visitLParen(tr *syntax.Tree, n syntax.NodeID) {
	cond := tr.NextCodeSibling(n)
	if !tr.Is(cond, syntax.Condition) {
		return
	}
	from := tr.NextLeaf(n)
	if from == syntax.None {
		return
	}
	c := withChildIndent(r.scope(tr, from, tr.LastLeaf(cond)), "")
	c.nodeIndent = r.currentIndent() + r.ic.unit
	r.push(tr, c)
}

func (r *Indentation) visitValueParameter(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	if eq := tr.FindChild(n, syntax.Eq); eq != syntax.None {
		nextTo = r.push(tr, r.scope(tr, eq, nextTo))
	}
	if r.official() {
		if colon := tr.FindChild(n, syntax.Colon); colon != syntax.None {
			nextTo = r.push(tr, r.scope(tr, colon, nextTo))
		}
	}

	from := skipLeadingAnnotations(tr, n)
	if from != tr.FirstChild(n) && !hasNewlineSiblingBefore(tr, n) && tr.FindChild(tr.Parent(n), syntax.ValueParameter) == n {
		r.push(tr, r.scope(tr, from, nextTo))
		return
	}
	r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
}

func (r *Indentation) visitFun(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	body := tr.FindChild(n, syntax.Eq)
	if body == syntax.None {
		body = tr.FindChild(n, syntax.Block)
	}
	if body != syntax.None {
		nextTo = r.push(tr, r.scope(tr, body, nextTo))
	}
	if colon := tr.FindChild(n, syntax.Colon); colon != syntax.None {
		if typ := tr.NextCodeSibling(colon); tr.Is(typ, syntax.TypeReference) {
			nextTo = r.push(tr, r.scope(tr, leadingTrivia(tr, typ), nextTo))
		}
	}
	// Annotations and comments before the function stay at its indent.
	r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
}

func (r *Indentation) visitClass(tr *syntax.Tree, n syntax.NodeID) {
	if tr.LeafText(declarationKeyword(tr, n), "object") {
		r.visitObject(tr, n)
		return
	}
	nextTo := tr.LastLeaf(n)
	ctor := tr.FindChild(n, syntax.PrimaryConstructor)
	if r.official() && ctor != syntax.None && hasConstructorKeyword(tr, ctor) {
		nextTo = r.push(tr, r.scope(tr, leadingTrivia(tr, ctor), nextTo))
	} else if list := tr.FindChild(n, syntax.SuperTypeList); list != syntax.None {
		nextTo = r.push(tr, r.scope(tr, leadingTrivia(tr, list), tr.LastLeaf(list)))
	}
	r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
}

func (r *Indentation) visitObject(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	if list := tr.FindChild(n, syntax.SuperTypeList); list != syntax.None {
		nextTo = r.push(tr, r.scope(tr, leadingTrivia(tr, list), tr.LastLeaf(list)))
	}
	r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
}

func (r *Indentation) visitBinaryExpression(tr *syntax.Tree, n syntax.NodeID) {
	left := tr.FirstChild(n)
	op := tr.NextCodeSibling(left)
	if op == syntax.None {
		return
	}
	if wrappedInCondition(tr, n) {
		// The operator and right-hand side continue at the indent of the
		// condition rather than nesting once per operator.
		cond := r.stack.lastWhere(func(c *indentContext) bool {
			return !tr.Is(c.from, syntax.BinaryExpression)
		})
		nodeIndent, childIndent := cond.nodeIndent, cond.childIndent
		c := withChildIndent(r.scope(tr, op, tr.LastLeaf(n)), childIndent)
		c.nodeIndent = nodeIndent
		r.push(tr, c)
		r.push(tr, r.scope(tr, left, syntax.None))
		return
	}
	if !tr.Is(tr.Parent(n), syntax.BinaryExpression) || tr.LeafText(op, "?:") {
		r.visitNode(tr, n)
	}
}

// visitChain opens one scope per chain of qualified calls. Calls further
// down the chain share it.
func (r *Indentation) visitChain(tr *syntax.Tree, n syntax.NodeID) {
	if tr.LeafText(tr.PrevCodeSibling(n), "?:") || !tr.Is(tr.Parent(n), syntax.DotQualifiedExpression, syntax.SafeAccessExpression) {
		r.visitNode(tr, n)
	}
}

// visitIdentifier indents continuation lines of a property after its
// name.
func (r *Indentation) visitIdentifier(tr *syntax.Tree, n syntax.NodeID) {
	prop := tr.Parent(n)
	if !tr.Is(prop, syntax.Property) || tr.FindChild(prop, syntax.Identifier) != n {
		return
	}
	r.push(tr, r.scope(tr, n, tr.LastLeaf(prop)))
}

func (r *Indentation) visitWhen(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	lparen := tr.FindChild(n, syntax.LParen)
	rparen := tr.FindChild(n, syntax.RParen)
	if lparen != syntax.None && rparen != syntax.None {
		c := r.scope(tr, lparen, rparen)
		c.lastChildIndent = ""
		nextTo = r.push(tr, c)
	}
	r.push(tr, r.scope(tr, n, nextTo))
}

func (r *Indentation) visitWhenEntry(tr *syntax.Tree, n syntax.NodeID) {
	arrow := tr.FindChild(n, syntax.Arrow)
	if arrow == syntax.None {
		return
	}
	if after := tr.NextLeaf(arrow); tr.Contains(n, after) {
		r.push(tr, r.scope(tr, after, tr.LastLeaf(n)))
	}
	r.push(tr, withChildIndent(r.scope(tr, n, arrow), ""))
}

func (r *Indentation) visitAccessor(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	if eq := tr.FindChild(n, syntax.Eq); eq != syntax.None {
		nextTo = r.push(tr, r.scope(tr, eq, tr.LastLeaf(n)))
	}
	r.push(tr, withChildIndent(r.scope(tr, n, nextTo), ""))
}

func (r *Indentation) visitLoop(tr *syntax.Tree, n syntax.NodeID) {
	if body := tr.FindChild(n, syntax.Body); body != syntax.None && !tr.Is(firstCodeLeaf(tr, body), syntax.LBrace) {
		r.push(tr, r.scope(tr, body, tr.LastLeaf(n)))
	}
	if cond := tr.FindChild(n, syntax.Condition); cond != syntax.None {
		r.push(tr, r.scope(tr, cond, syntax.None))
	}
}

func (r *Indentation) visitLBracket(tr *syntax.Tree, n syntax.NodeID) {
	parent := tr.Parent(n)
	if tr.Is(parent, syntax.Annotation) {
		return
	}
	rbracket := tr.FindChild(parent, syntax.RBracket)
	if rbracket == syntax.None {
		return
	}
	c := r.scope(tr, n, rbracket)
	c.firstChildIndent, c.lastChildIndent = "", ""
	r.push(tr, c)
}

func (r *Indentation) visitTry(tr *syntax.Tree, n syntax.NodeID) {
	nextTo := tr.LastLeaf(n)
	if fin := tr.FindChild(n, syntax.Finally); fin != syntax.None {
		nextTo = r.push(tr, withChildIndent(r.scope(tr, fin, nextTo), ""))
	}
	if catch := tr.FindChild(n, syntax.Catch); catch != syntax.None {
		nextTo = r.push(tr, withChildIndent(r.scope(tr, catch, nextTo), ""))
	}
	c := r.scope(tr, n, nextTo)
	c.lastChildIndent = ""
	r.push(tr, c)
}

// visitNewline checks the indent following a line break.
func (r *Indentation) visitNewline(tr *syntax.Tree, ws syntax.NodeID, emit formatter.Emit) {
	if ignoreIndent(tr, ws) {
		return
	}
	text := tr.Text(ws)
	i := strings.LastIndexByte(text, '\n')
	actual := text[i+1:]
	offset := tr.Start(ws) + i + 1

	normalized := r.normalizedIndent(actual, offset, emit)
	expected := r.stack.top().expected(tr, ws)
	if actual == normalized && normalized == expected {
		return
	}

	fix := true
	if normalized != expected {
		msg := fmt.Sprintf("Unexpected indentation (%d) (should be %d)", len(normalized), len(expected))
		fix = emit(offset, msg, true) == formatter.Apply
	}
	if fix {
		tr.SetText(ws, text[:i+1]+expected)
	}
}

// normalizedIndent reports indent characters that do not match the
// indent style and returns the indent rewritten in that style when the
// fix is applied.
func (r *Indentation) normalizedIndent(indent string, offset int, emit formatter.Emit) string {
	bad, msg := "\t", "Unexpected tab character(s)"
	if r.ic.tab {
		bad, msg = " ", "Unexpected space character(s)"
	}
	if !strings.Contains(indent, bad) {
		return indent
	}
	if emit(offset, msg, true) == formatter.Apply {
		return r.ic.normalize(indent)
	}
	return indent
}

// ignoreIndent reports whether the line after ws may start anywhere: raw
// strings and comments at column zero, and multiline block comments.
func ignoreIndent(tr *syntax.Tree, ws syntax.NodeID) bool {
	next := tr.NextLeaf(ws)
	atColumnZero := strings.HasSuffix(tr.Text(ws), "\n")
	if atColumnZero && tr.LeafText(next, `"""`) && tr.Is(next, syntax.OpenQuote) {
		return true
	}
	if !tr.IsComment(next) {
		return false
	}
	return atColumnZero || (tr.Is(next, syntax.BlockComment) && tr.TextContains(next, "\n"))
}

// visitKDoc aligns the continuation lines of a documentation comment one
// space past the indent of its opening line.
func (r *Indentation) visitKDoc(tr *syntax.Tree, n syntax.NodeID, emit formatter.Emit) {
	text := tr.Text(n)
	if !strings.Contains(text, "\n") {
		return
	}
	expected := r.currentIndent() + " "
	lines := strings.Split(text, "\n")
	offset := tr.Start(n) + len(lines[0]) + 1
	changed := false
	for i := 1; i < len(lines); i++ {
		line := lines[i]
		rest := strings.TrimLeft(line, " \t")
		indent := line[:len(line)-len(rest)]
		if strings.HasPrefix(rest, "*") && indent != expected {
			msg := fmt.Sprintf("Unexpected indentation (%d) (should be %d)", len(indent), len(expected))
			if emit(offset, msg, true) == formatter.Apply {
				lines[i] = expected + rest
				changed = true
			}
		}
		offset += len(line) + 1
	}
	if changed {
		tr.SetText(n, strings.Join(lines, "\n"))
	}
}

// visitClosingQuote checks the indent of the closing quotes of a raw
// string that is trimmed with trimIndent or trimMargin. The content of the
// string is left alone.
func (r *Indentation) visitClosingQuote(tr *syntax.Tree, cq syntax.NodeID, emit formatter.Emit) {
	tmpl := tr.Parent(cq)
	if !tr.LeafText(tr.FirstChild(tmpl), `"""`) || !trimmedRawString(tr, tmpl) || !tr.TextContains(tmpl, "\n") {
		return
	}
	if mixedIndentCharacters(tr.Text(tmpl)) {
		emit(tr.Start(tmpl), msgMixedRawStringIndent, false)
		return
	}

	expected := r.currentIndent()
	prev := tr.PrevLeaf(tmpl)
	prevCode := tr.PrevCodeLeaf(tmpl)
	switch {
	case r.official() && tr.Is(prevCode, syntax.Keyword) && tr.LeafText(prevCode, "return"):
		expected = tr.Indent(tmpl) + r.ic.unit
	case r.official() && (!tr.IsWhitespace(prev) || tr.LeafText(prev, " ")) &&
		tr.Is(prevCode, syntax.Eq) && tr.Is(tr.Parent(prevCode), syntax.Fun):
		expected = tr.Indent(tmpl) + r.ic.unit
	case tr.LeafText(prev, "\n"):
		expected = ""
	}

	last := tr.PrevSibling(cq)
	if !tr.Is(last, syntax.StringContent) {
		return
	}
	content := tr.Text(last)
	if strings.HasSuffix(content, "\n") {
		// The closing quotes start the line.
		if expected != "" && emit(tr.Start(cq), msgRawStringClosingIndent, true) == formatter.Apply {
			tr.InsertBefore(cq, tr.NewLeaf(syntax.StringContent, expected))
		}
		return
	}
	if strings.TrimLeft(content, " \t") != "" || !strings.HasSuffix(tr.Text(tr.PrevSibling(last)), "\n") {
		return
	}
	if content != expected && emit(tr.Start(last), msgRawStringClosingIndent, true) == formatter.Apply {
		if expected == "" {
			tr.Remove(last)
		} else {
			tr.SetText(last, expected)
		}
	}
}

// trimmedRawString reports whether tmpl is the receiver of a trimIndent()
// or trimMargin() call.
func trimmedRawString(tr *syntax.Tree, tmpl syntax.NodeID) bool {
	s := tr.NextSibling(tmpl)
	for tr.Is(s, syntax.Dot) || (s != syntax.None && !tr.IsCode(s)) {
		s = tr.NextSibling(s)
	}
	if !tr.Is(s, syntax.CallExpression) {
		return false
	}
	call := tr.Text(s)
	return call == "trimIndent()" || call == "trimMargin()"
}

// mixedIndentCharacters reports whether the common indent of the content
// lines of a raw string mixes tabs and spaces.
func mixedIndentCharacters(text string) bool {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, `"""`) || strings.HasSuffix(line, `"""`) || strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return false
	}
	prefix := -1
	for _, line := range lines {
		n := len(line) - len(strings.TrimLeftFunc(line, unicode.IsSpace))
		if prefix < 0 || n < prefix {
			prefix = n
		}
	}
	seen := map[byte]bool{}
	for _, line := range lines {
		for i := 0; i < prefix; i++ {
			seen[line[i]] = true
		}
	}
	return len(seen) > 1
}

func precededByComment(tr *syntax.Tree, n syntax.NodeID) bool {
	s := tr.PrevSibling(n)
	for tr.IsWhitespace(s) {
		s = tr.PrevSibling(s)
	}
	return tr.IsComment(s)
}

func hasNewlineSiblingBefore(tr *syntax.Tree, n syntax.NodeID) bool {
	for s := tr.PrevSibling(n); s != syntax.None; s = tr.PrevSibling(s) {
		if tr.IsWhitespaceWithNewline(s) {
			return true
		}
	}
	return false
}

func hasConstructorKeyword(tr *syntax.Tree, ctor syntax.NodeID) bool {
	for _, ch := range tr.Children(ctor) {
		if tr.LeafText(ch, "constructor") {
			return true
		}
	}
	return false
}

// skipLeadingAnnotations returns the first child of decl after its
// leading annotations and comments.
func skipLeadingAnnotations(tr *syntax.Tree, decl syntax.NodeID) syntax.NodeID {
	if mods := tr.FindChild(decl, syntax.ModifierList); mods != syntax.None {
		for _, ch := range tr.Children(mods) {
			if tr.IsCode(ch) && !tr.Is(ch, syntax.Annotation) {
				return ch
			}
		}
		if next := tr.NextCodeSibling(mods); next != syntax.None {
			return next
		}
		return decl
	}
	for _, ch := range tr.Children(decl) {
		if tr.IsCode(ch) {
			return ch
		}
	}
	return decl
}

// leadingTrivia returns the first of the whitespace and comment leaves
// directly before n, or n itself.
func leadingTrivia(tr *syntax.Tree, n syntax.NodeID) syntax.NodeID {
	from := n
	for prev := tr.PrevLeaf(from); prev != syntax.None && !tr.IsCode(prev); prev = tr.PrevLeaf(prev) {
		from = prev
	}
	return from
}

// wrappedInCondition reports whether n is part of a binary expression
// that forms the condition of an if, while or do-while.
func wrappedInCondition(tr *syntax.Tree, n syntax.NodeID) bool {
	last := syntax.None
	for p := tr.Parent(n); tr.Is(p, syntax.BinaryExpression, syntax.Condition); p = tr.Parent(p) {
		last = p
	}
	return tr.Is(last, syntax.Condition)
}
