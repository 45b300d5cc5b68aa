// Package parser builds a lossless syntax tree for Kotlin source. The
// parser is error tolerant: constructs it does not model are kept as leaves
// of the enclosing node, so the tree text always equals the input.
package parser

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/kfmt/internal/syntax"
)

// SyntaxError reports input the parser cannot represent faithfully, such as
// an unterminated string or an unbalanced bracket.
type SyntaxError struct {
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
}

func newSyntaxError(src string, offset int, msg string) *SyntaxError {
	if offset > len(src) {
		offset = len(src)
	}
	line := strings.Count(src[:offset], "\n") + 1
	col := offset - strings.LastIndexByte(src[:offset], '\n')
	return &SyntaxError{Line: line, Column: col, Msg: msg}
}

// Parse converts Kotlin source text into a syntax tree. The returned tree
// is always usable and its text always equals src; the error, if any, is
// the first *SyntaxError encountered.
func Parse(src string) (*syntax.Tree, error) {
	toks, lexErrs := lex(src)
	p := &parser{
		src:   src,
		toks:  toks,
		tree:  syntax.New(syntax.File),
		nlSig: true,
	}
	p.stack = []syntax.NodeID{p.tree.Root()}
	p.parseFile()

	errs := append(lexErrs, p.errs...)
	if len(errs) > 0 {
		first := errs[0]
		for _, e := range errs[1:] {
			if e.Line < first.Line || e.Line == first.Line && e.Column < first.Column {
				first = e
			}
		}
		return p.tree, first
	}
	return p.tree, nil
}

type parser struct {
	src  string
	toks []token
	pos  int // next unconsumed token, possibly trivia.
	tree *syntax.Tree

	stack []syntax.NodeID
	errs  []*SyntaxError

	// nlSig is false inside parentheses and brackets, where line breaks do
	// not terminate expressions.
	nlSig bool
	// noLambda disables trailing lambdas, as in a delegation expression
	// followed by a class body.
	noLambda bool
}

// eof is returned by peek at the end of input.
var eof = token{kind: syntax.Kind(255)}

func (p *parser) top() syntax.NodeID { return p.stack[len(p.stack)-1] }

// codeIndex returns the index of the next non-trivia token at or after i.
func (p *parser) codeIndex(i int) int {
	for i < len(p.toks) && p.toks[i].trivia() {
		i++
	}
	return i
}

// peekAt returns the n-th upcoming code token (0 = next).
func (p *parser) peekAt(n int) token {
	i := p.codeIndex(p.pos)
	for ; n > 0 && i < len(p.toks); n-- {
		i = p.codeIndex(i + 1)
	}
	if i >= len(p.toks) {
		return eof
	}
	return p.toks[i]
}

func (p *parser) peek() token { return p.peekAt(0) }

func (p *parser) atEOF() bool { return p.codeIndex(p.pos) >= len(p.toks) }

// nlBefore reports whether the trivia before the next code token contains
// a line break.
func (p *parser) nlBefore() bool {
	for i := p.pos; i < len(p.toks) && p.toks[i].trivia(); i++ {
		if strings.ContainsAny(p.toks[i].text, "\n") {
			return true
		}
	}
	return false
}

// adjacent reports whether the next token is code (no trivia in between).
func (p *parser) adjacent() bool {
	return p.pos < len(p.toks) && !p.toks[p.pos].trivia()
}

func (p *parser) at(kind syntax.Kind) bool { return p.peek().kind == kind }

func (p *parser) atText(texts ...string) bool {
	t := p.peek()
	if t.kind != syntax.Identifier && t.kind != syntax.Keyword && t.kind != syntax.Operator {
		return false
	}
	for _, s := range texts {
		if t.text == s {
			return true
		}
	}
	return false
}

func (p *parser) atKeyword(texts ...string) bool {
	return p.peek().kind == syntax.Keyword && p.atText(texts...)
}

// flush moves pending trivia tokens into the current node.
func (p *parser) flush() {
	for p.pos < len(p.toks) && p.toks[p.pos].trivia() {
		t := p.toks[p.pos]
		p.tree.AppendChild(p.top(), p.tree.NewLeaf(t.kind, t.text))
		p.pos++
	}
}

// bump consumes the next code token into the current node.
func (p *parser) bump() syntax.NodeID {
	p.flush()
	if p.pos >= len(p.toks) {
		return syntax.None
	}
	return p.bumpAs(p.toks[p.pos].kind)
}

// bumpAs consumes the next code token with an overridden kind.
func (p *parser) bumpAs(kind syntax.Kind) syntax.NodeID {
	p.flush()
	if p.pos >= len(p.toks) {
		return syntax.None
	}
	t := p.toks[p.pos]
	id := p.tree.NewLeaf(kind, t.text)
	p.tree.AppendChild(p.top(), id)
	p.pos++
	return id
}

func (p *parser) start(kind syntax.Kind) syntax.NodeID {
	p.flush()
	id := p.tree.NewNode(kind)
	p.tree.AppendChild(p.top(), id)
	p.stack = append(p.stack, id)
	return id
}

// wrap starts a node of kind that adopts from and everything after it in
// the current node.
func (p *parser) wrap(from syntax.NodeID, kind syntax.Kind) syntax.NodeID {
	id := p.tree.Wrap(from, kind)
	p.stack = append(p.stack, id)
	return id
}

func (p *parser) finish() syntax.NodeID {
	id := p.top()
	p.stack = p.stack[:len(p.stack)-1]
	return id
}

// finishOrDrop finishes the current node, removing it when it is empty.
func (p *parser) finishOrDrop() syntax.NodeID {
	id := p.finish()
	if p.tree.FirstChild(id) == syntax.None {
		p.tree.Remove(id)
		return syntax.None
	}
	return id
}

func (p *parser) errorf(format string, args ...any) {
	off := len(p.src)
	if i := p.codeIndex(p.pos); i < len(p.toks) {
		off = p.toks[i].offset
	}
	p.errs = append(p.errs, newSyntaxError(p.src, off, fmt.Sprintf(format, args...)))
}

// expect consumes a token of kind or records an error without consuming.
func (p *parser) expect(kind syntax.Kind, what string) bool {
	if p.at(kind) {
		p.bump()
		return true
	}
	p.errorf("expected %s", what)
	return false
}

// stray consumes one token that no rule recognized. Unbalanced closing
// brackets are reported.
func (p *parser) stray() {
	switch p.peek().kind {
	case syntax.RParen, syntax.RBrace, syntax.RBracket:
		p.errorf("unexpected %q", p.peek().text)
	}
	p.bump()
}

// withNewlines runs fn with line-break significance set to sig.
func (p *parser) withNewlines(sig bool, fn func()) {
	saved := p.nlSig
	p.nlSig = sig
	fn()
	p.nlSig = saved
}

func (p *parser) parseFile() {
	for p.at(syntax.At) && p.peekAt(1).text == "file" {
		p.parseAnnotation()
	}
	if p.atKeyword("package") {
		p.start(syntax.PackageDirective)
		p.bump()
		p.parseQualifiedName()
		p.finish()
	}
	if p.atText("import") {
		p.start(syntax.ImportList)
		for p.atText("import") {
			p.start(syntax.ImportDirective)
			p.bump()
			p.parseQualifiedName()
			if p.at(syntax.Dot) {
				p.bump()
				if p.atText("*") {
					p.bump()
				}
			}
			if p.atKeyword("as") {
				p.bump()
				p.bump()
			}
			p.finish()
			if p.at(syntax.Semicolon) {
				p.bump()
			}
		}
		p.finish()
	}
	p.parseStatements(syntax.Kind(255))
	p.flush()
}

func (p *parser) parseQualifiedName() {
	if p.at(syntax.Identifier) {
		p.bump()
	}
	for p.at(syntax.Dot) && p.peekAt(1).kind == syntax.Identifier && !p.nlBefore() {
		p.bump()
		p.bump()
	}
}

// parseStatements parses statements until closer (or end of input).
func (p *parser) parseStatements(closer syntax.Kind) {
	p.withNewlines(true, func() {
		for !p.atEOF() && !p.at(closer) {
			if p.at(syntax.Semicolon) {
				p.bump()
				continue
			}
			if p.parseStatement() == syntax.None {
				p.stray()
			}
		}
	})
}

func (p *parser) parseStatement() syntax.NodeID {
	if kind, ok := p.declarationStart(); ok {
		return p.parseDeclaration(kind)
	}
	switch {
	case p.atKeyword("for"):
		return p.parseFor()
	case p.atKeyword("while"):
		return p.parseWhile()
	case p.atKeyword("do"):
		return p.parseDoWhile()
	}
	left := p.parseExpression()
	if left == syntax.None {
		return syntax.None
	}
	if !p.nlBefore() && (p.at(syntax.Eq) || p.atText("+=", "-=", "*=", "/=", "%=")) {
		p.wrap(left, syntax.BinaryExpression)
		p.bump()
		p.parseExpression()
		return p.finish()
	}
	return left
}
