package parser

import "github.com/donaldgifford/kfmt/internal/syntax"

// Soft keywords that never act as infix function names.
var notInfix = map[string]bool{
	"by": true, "where": true, "get": true, "set": true, "catch": true,
	"finally": true, "constructor": true, "init": true, "import": true,
}

func (p *parser) parseExpression() syntax.NodeID { return p.parseBinary(1) }

// binaryPrecedence returns the binding strength of the upcoming binary
// operator, 0 when there is none. typed is set for operators whose right
// side is a type.
func (p *parser) binaryPrecedence() (prec int, typed bool) {
	t := p.peek()
	nl := p.nlSig && p.nlBefore()
	switch t.kind {
	case syntax.Operator:
		switch t.text {
		case "||":
			return 1, false
		case "&&":
			return 2, false
		case "?:":
			return 6, false
		}
		if nl {
			return 0, false
		}
		switch t.text {
		case "==", "!=", "===", "!==":
			return 3, false
		case "<", ">", "<=", ">=":
			return 4, false
		case "!in":
			return 5, false
		case "!is":
			return 5, true
		case "..", "..<":
			return 8, false
		case "+", "-":
			return 9, false
		case "*", "/", "%":
			return 10, false
		}
	case syntax.Keyword:
		switch t.text {
		case "as", "as?":
			return 11, true
		}
		if nl {
			return 0, false
		}
		switch t.text {
		case "in":
			return 5, false
		case "is":
			return 5, true
		}
	case syntax.Identifier:
		if !p.nlBefore() && !notInfix[t.text] && p.canStartExpression(1) {
			return 7, false
		}
	}
	return 0, false
}

// canStartExpression reports whether the n-th upcoming code token can begin
// an expression.
func (p *parser) canStartExpression(n int) bool {
	t := p.peekAt(n)
	switch t.kind {
	case syntax.Identifier, syntax.Number, syntax.CharLiteral, syntax.OpenQuote,
		syntax.LParen, syntax.LBracket, syntax.LBrace, syntax.DoubleColon, syntax.At:
		return true
	case syntax.Keyword:
		switch t.text {
		case "this", "super", "null", "true", "false", "if", "when", "try",
			"object", "fun", "return", "throw", "break", "continue":
			return true
		}
	case syntax.Operator:
		switch t.text {
		case "-", "+", "!", "++", "--":
			return true
		}
	}
	return false
}

func (p *parser) parseBinary(minPrec int) syntax.NodeID {
	left := p.parsePrefix()
	if left == syntax.None {
		return syntax.None
	}
	for {
		prec, typed := p.binaryPrecedence()
		if prec == 0 || prec < minPrec {
			return left
		}
		kind := syntax.BinaryExpression
		if typed {
			kind = syntax.BinaryWithType
		}
		p.wrap(left, kind)
		p.bump()
		if typed {
			p.parseType(-1)
		} else if p.parseBinary(prec+1) == syntax.None {
			p.errorf("expected expression")
		}
		left = p.finish()
	}
}

func (p *parser) labelAhead() bool {
	i := p.codeIndex(p.pos)
	return i+1 < len(p.toks) && p.toks[i].kind == syntax.Identifier && p.toks[i+1].kind == syntax.At
}

func (p *parser) parsePrefix() syntax.NodeID {
	switch {
	case p.atText("-", "+", "!", "++", "--"):
		p.start(syntax.PrefixExpression)
		p.bump()
		p.parsePrefix()
		return p.finish()
	case p.at(syntax.At):
		p.start(syntax.PrefixExpression)
		p.parseAnnotation()
		p.parsePrefix()
		return p.finishOrDrop()
	case p.labelAhead():
		p.start(syntax.PrefixExpression)
		p.bump()
		p.bump()
		switch {
		case p.atKeyword("for"):
			p.parseFor()
		case p.atKeyword("while"):
			p.parseWhile()
		case p.atKeyword("do"):
			p.parseDoWhile()
		default:
			p.parsePrefix()
		}
		return p.finish()
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePrimary() syntax.NodeID {
	t := p.peek()
	switch t.kind {
	case syntax.Identifier, syntax.Number, syntax.CharLiteral:
		return p.bump()
	case syntax.OpenQuote:
		return p.parseString()
	case syntax.LParen:
		return p.parseParenthesized()
	case syntax.LBracket:
		return p.parseCollectionLiteral()
	case syntax.LBrace:
		return p.parseLambda()
	case syntax.DoubleColon:
		p.start(syntax.CallableReference)
		p.bump()
		if p.at(syntax.Identifier) || p.atKeyword("class") {
			p.bump()
		}
		return p.finish()
	case syntax.Keyword:
		switch t.text {
		case "this", "super":
			id := p.bump()
			if p.adjacent() && p.atText("<") {
				p.parseTypeArguments()
			}
			if p.adjacent() && p.at(syntax.At) {
				p.bump()
				if p.adjacent() && p.at(syntax.Identifier) {
					p.bump()
				}
			}
			return id
		case "null", "true", "false", "typeof":
			return p.bump()
		case "if":
			return p.parseIf()
		case "when":
			return p.parseWhen()
		case "try":
			return p.parseTry()
		case "object":
			p.start(syntax.ObjectLiteral)
			p.bump()
			p.parseClassTail()
			return p.finish()
		case "fun":
			return p.parseFun()
		case "return", "throw", "break", "continue":
			return p.parseJump()
		}
	}
	return syntax.None
}

// callable reports whether a lambda directly after id is a trailing lambda
// argument.
func (p *parser) callable(id syntax.NodeID) bool {
	switch p.tree.Kind(id) {
	case syntax.Identifier, syntax.CallExpression:
		return true
	case syntax.DotQualifiedExpression, syntax.SafeAccessExpression:
		return p.tree.Is(p.tree.LastChild(id), syntax.Identifier, syntax.CallExpression)
	}
	return false
}

func (p *parser) parsePostfix(left syntax.NodeID) syntax.NodeID {
	for left != syntax.None {
		nl := p.nlBefore()
		t := p.peek()
		switch {
		case t.kind == syntax.Dot || t.kind == syntax.SafeAccess:
			kind := syntax.DotQualifiedExpression
			if t.kind == syntax.SafeAccess {
				kind = syntax.SafeAccessExpression
			}
			p.wrap(left, kind)
			p.bump()
			p.parseSelector()
			left = p.finish()
		case t.kind == syntax.LParen && !nl:
			p.wrap(left, syntax.CallExpression)
			p.parseCallSuffix()
			left = p.finish()
		case t.kind == syntax.LBrace && !nl && !p.noLambda && p.callable(left):
			p.wrap(left, syntax.CallExpression)
			p.parseLambdaArgument()
			left = p.finish()
		case t.kind == syntax.LBracket && !nl:
			p.wrap(left, syntax.ArrayAccess)
			p.withNewlines(false, func() {
				p.bump()
				for !p.atEOF() && !p.atCloser() {
					if p.at(syntax.Comma) {
						p.bump()
						continue
					}
					if p.parseExpression() == syntax.None {
						p.stray()
					}
				}
				p.expect(syntax.RBracket, "']'")
			})
			left = p.finish()
		case t.text == "<" && p.adjacent() && p.typeArgumentsAhead():
			p.wrap(left, syntax.CallExpression)
			p.parseTypeArguments()
			p.parseCallSuffix()
			left = p.finish()
		case t.kind == syntax.DoubleColon:
			p.wrap(left, syntax.CallableReference)
			p.bump()
			if p.at(syntax.Identifier) || p.atKeyword("class") {
				p.bump()
			}
			left = p.finish()
		case (t.text == "!!" || t.text == "++" || t.text == "--") && !nl:
			p.wrap(left, syntax.PostfixExpression)
			p.bump()
			left = p.finish()
		default:
			return left
		}
	}
	return left
}

// parseSelector parses the right side of a qualified expression: a name
// with its call suffixes.
func (p *parser) parseSelector() {
	if !p.at(syntax.Identifier) && !p.at(syntax.Keyword) {
		p.errorf("expected name")
		return
	}
	sel := p.bump()
	for {
		nl := p.nlBefore()
		switch {
		case p.at(syntax.LParen) && !nl:
			p.wrap(sel, syntax.CallExpression)
			p.parseCallSuffix()
			sel = p.finish()
		case p.at(syntax.LBrace) && !nl && !p.noLambda:
			p.wrap(sel, syntax.CallExpression)
			p.parseLambdaArgument()
			sel = p.finish()
		case p.atText("<") && p.adjacent() && p.typeArgumentsAhead():
			p.wrap(sel, syntax.CallExpression)
			p.parseTypeArguments()
			p.parseCallSuffix()
			sel = p.finish()
		default:
			return
		}
	}
}

func (p *parser) parseCallSuffix() {
	if p.at(syntax.LParen) && !p.nlBefore() {
		p.parseValueArgumentList()
	}
	if p.at(syntax.LBrace) && !p.nlBefore() && !p.noLambda {
		p.parseLambdaArgument()
	}
}

func (p *parser) parseLambdaArgument() {
	p.start(syntax.LambdaArgument)
	p.parseLambda()
	p.finish()
}

// typeArgumentsAhead reports whether the upcoming '<' opens a type argument
// list of a call rather than a comparison.
func (p *parser) typeArgumentsAhead() bool {
	i := p.codeIndex(p.pos)
	depth := 0
	for n := 0; i < len(p.toks) && n < 64; n++ {
		t := p.toks[i]
		switch {
		case t.text == "<":
			depth++
		case t.text == ">":
			depth--
			if depth == 0 {
				j := p.codeIndex(i + 1)
				if j >= len(p.toks) {
					return false
				}
				switch p.toks[j].kind {
				case syntax.LParen, syntax.LBrace, syntax.DoubleColon, syntax.Dot:
					return true
				}
				return false
			}
		case t.kind == syntax.Identifier, t.kind == syntax.Comma, t.kind == syntax.Dot,
			t.kind == syntax.LParen, t.kind == syntax.RParen, t.kind == syntax.Arrow,
			t.kind == syntax.Colon, t.kind == syntax.At, t.text == "?", t.text == "*",
			t.kind == syntax.Keyword && t.text == "in":
		default:
			return false
		}
		i = p.codeIndex(i + 1)
	}
	return false
}

func (p *parser) parseValueArgumentList() syntax.NodeID {
	p.start(syntax.ValueArgumentList)
	p.withNewlines(false, func() {
		p.bump() // (
		for !p.atEOF() && !p.atCloser() {
			if p.at(syntax.Comma) {
				p.bump()
				continue
			}
			mark := p.codeIndex(p.pos)
			p.start(syntax.ValueArgument)
			if p.at(syntax.Identifier) && p.peekAt(1).kind == syntax.Eq {
				p.bump()
				p.bump()
			}
			if p.atText("*") {
				p.bump()
			}
			p.parseExpression()
			p.finishOrDrop()
			if !p.progressed(mark) {
				p.stray()
			}
		}
		p.expect(syntax.RParen, "')'")
	})
	return p.finish()
}

func (p *parser) parseParenthesized() syntax.NodeID {
	p.start(syntax.ParenthesizedExpression)
	p.withNewlines(false, func() {
		p.bump()
		for !p.atEOF() && !p.atCloser() {
			if p.at(syntax.Comma) {
				p.bump()
				continue
			}
			if p.parseExpression() == syntax.None {
				p.stray()
			}
		}
		p.expect(syntax.RParen, "')'")
	})
	return p.finish()
}

func (p *parser) parseCollectionLiteral() syntax.NodeID {
	p.start(syntax.CollectionLiteral)
	p.withNewlines(false, func() {
		p.bump()
		for !p.atEOF() && !p.atCloser() {
			if p.at(syntax.Comma) {
				p.bump()
				continue
			}
			if p.parseExpression() == syntax.None {
				p.stray()
			}
		}
		p.expect(syntax.RBracket, "']'")
	})
	return p.finish()
}

func (p *parser) parseString() syntax.NodeID {
	p.start(syntax.StringTemplate)
	p.bump()
	for p.at(syntax.StringContent) {
		p.bump()
	}
	if p.at(syntax.ClosingQuote) {
		p.bump()
	}
	return p.finish()
}

// lambdaArrowAhead reports whether the lambda body starts with a parameter
// list terminated by "->".
func (p *parser) lambdaArrowAhead() bool {
	i := p.codeIndex(p.pos)
	depth := 0
	for n := 0; i < len(p.toks) && n < 200; n++ {
		t := p.toks[i]
		switch {
		case t.kind == syntax.Arrow && depth == 0:
			return true
		case t.kind == syntax.LParen || t.text == "<":
			depth++
		case t.kind == syntax.RParen || t.text == ">":
			depth--
			if depth < 0 {
				return false
			}
		case t.kind == syntax.Arrow, t.kind == syntax.Identifier, t.kind == syntax.Comma,
			t.kind == syntax.Colon, t.kind == syntax.Dot, t.kind == syntax.At,
			t.text == "?", t.text == "*":
		default:
			return false
		}
		i = p.codeIndex(i + 1)
	}
	return false
}

func (p *parser) parseLambda() syntax.NodeID {
	p.start(syntax.FunctionLiteral)
	p.bump() // {
	saved := p.noLambda
	p.noLambda = false
	p.withNewlines(true, func() {
		if p.lambdaArrowAhead() {
			p.start(syntax.ValueParameterList)
			for !p.atEOF() && !p.at(syntax.Arrow) {
				if p.at(syntax.Comma) {
					p.bump()
					continue
				}
				mark := p.codeIndex(p.pos)
				p.parseValueParameter()
				if !p.progressed(mark) {
					p.stray()
				}
			}
			p.finishOrDrop()
			p.bump() // ->
		}
		p.start(syntax.Block)
		p.parseStatements(syntax.RBrace)
		p.finishOrDrop()
	})
	p.noLambda = saved
	p.expect(syntax.RBrace, "'}'")
	return p.finish()
}

// parseParenCondition parses "(expr)" into a CONDITION node.
func (p *parser) parseParenCondition() {
	if !p.expect(syntax.LParen, "'('") {
		return
	}
	p.withNewlines(false, func() {
		p.start(syntax.Condition)
		p.parseExpression()
		p.finishOrDrop()
		for !p.atEOF() && !p.atCloser() {
			p.stray()
		}
		p.expect(syntax.RParen, "')'")
	})
}

func (p *parser) parseControlBody() syntax.NodeID {
	if p.at(syntax.LBrace) {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *parser) parseIf() syntax.NodeID {
	p.start(syntax.If)
	p.bump()
	p.parseParenCondition()
	if !p.atKeyword("else") {
		p.start(syntax.Then)
		p.parseControlBody()
		p.finishOrDrop()
	}
	if p.at(syntax.Semicolon) && p.peekAt(1).text == "else" {
		p.bump()
	}
	if p.atKeyword("else") {
		p.bump()
		p.start(syntax.Else)
		p.parseControlBody()
		p.finishOrDrop()
	}
	return p.finish()
}

func (p *parser) parseWhen() syntax.NodeID {
	p.start(syntax.When)
	p.bump()
	if p.at(syntax.LParen) {
		p.withNewlines(false, func() {
			p.bump()
			if kind, ok := p.declarationStart(); ok && kind == syntax.Property {
				p.parseProperty()
			} else {
				p.parseExpression()
			}
			p.expect(syntax.RParen, "')'")
		})
	}
	if p.expect(syntax.LBrace, "'{'") {
		p.withNewlines(true, func() {
			for !p.atEOF() && !p.at(syntax.RBrace) {
				if p.at(syntax.Semicolon) {
					p.bump()
					continue
				}
				mark := p.codeIndex(p.pos)
				p.parseWhenEntry()
				if !p.progressed(mark) {
					p.stray()
				}
			}
		})
		p.expect(syntax.RBrace, "'}'")
	}
	return p.finish()
}

func (p *parser) parseWhenEntry() {
	p.start(syntax.WhenEntry)
	for {
		if p.atKeyword("else") {
			p.bump()
		} else {
			p.start(syntax.WhenCondition)
			switch {
			case p.atKeyword("in") || p.atText("!in"):
				p.bump()
				p.parseExpression()
			case p.atKeyword("is") || p.atText("!is"):
				p.bump()
				p.parseType(-1)
			default:
				p.parseExpression()
			}
			if p.finishOrDrop() == syntax.None {
				break
			}
		}
		if !p.at(syntax.Comma) {
			break
		}
		p.bump()
	}
	if p.at(syntax.Arrow) {
		p.bump()
		p.parseControlBody()
	} else if !p.atCloser() && !p.atEOF() {
		p.errorf("expected '->'")
	}
	p.finishOrDrop()
}

func (p *parser) parseTry() syntax.NodeID {
	p.start(syntax.Try)
	p.bump()
	if p.at(syntax.LBrace) {
		p.parseBlock()
	} else {
		p.errorf("expected '{'")
	}
	for p.atText("catch") {
		p.start(syntax.Catch)
		p.bump()
		if p.at(syntax.LParen) {
			p.parseValueParameterList()
		}
		if p.at(syntax.LBrace) {
			p.parseBlock()
		}
		p.finish()
	}
	if p.atText("finally") {
		p.start(syntax.Finally)
		p.bump()
		if p.at(syntax.LBrace) {
			p.parseBlock()
		}
		p.finish()
	}
	return p.finish()
}

func (p *parser) parseFor() syntax.NodeID {
	p.start(syntax.For)
	p.bump()
	if p.expect(syntax.LParen, "'('") {
		p.withNewlines(false, func() {
			if p.at(syntax.LParen) {
				p.parseValueParameterList()
			} else {
				p.parseValueParameter()
			}
			if p.atKeyword("in") {
				p.bump()
				p.parseExpression()
			}
			for !p.atEOF() && !p.atCloser() {
				p.stray()
			}
			p.expect(syntax.RParen, "')'")
		})
	}
	p.parseLoopBody()
	return p.finish()
}

func (p *parser) parseLoopBody() {
	if p.at(syntax.Semicolon) || p.atCloser() || p.atEOF() {
		return
	}
	p.start(syntax.Body)
	p.parseControlBody()
	p.finishOrDrop()
}

func (p *parser) parseWhile() syntax.NodeID {
	p.start(syntax.While)
	p.bump()
	p.parseParenCondition()
	p.parseLoopBody()
	return p.finish()
}

func (p *parser) parseDoWhile() syntax.NodeID {
	p.start(syntax.DoWhile)
	p.bump()
	if !p.atKeyword("while") {
		p.parseLoopBody()
	}
	if p.atKeyword("while") {
		p.bump()
		p.parseParenCondition()
	} else {
		p.errorf("expected 'while'")
	}
	return p.finish()
}

func (p *parser) parseJump() syntax.NodeID {
	p.start(syntax.Jump)
	kw := p.peek().text
	p.bump()
	if p.adjacent() && p.at(syntax.At) {
		p.bump()
		if p.adjacent() && p.at(syntax.Identifier) {
			p.bump()
		}
	}
	if (kw == "return" || kw == "throw") && !p.nlBefore() && p.canStartExpression(0) {
		p.parseExpression()
	}
	return p.finish()
}
