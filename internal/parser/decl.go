package parser

import "github.com/donaldgifford/kfmt/internal/syntax"

// Soft modifier keywords. A word only acts as a modifier when it is
// followed by another name, keyword or annotation; "value: Int" is a
// parameter named value.
var modifierWords = map[string]bool{
	"public": true, "private": true, "internal": true, "protected": true,
	"open": true, "abstract": true, "final": true, "override": true,
	"data": true, "sealed": true, "enum": true, "inner": true,
	"inline": true, "suspend": true, "operator": true, "infix": true,
	"const": true, "lateinit": true, "tailrec": true, "external": true,
	"companion": true, "annotation": true, "value": true, "vararg": true,
	"noinline": true, "crossinline": true, "reified": true,
	"expect": true, "actual": true,
}

func (p *parser) progressed(mark int) bool { return p.codeIndex(p.pos) > mark }

func (p *parser) atCloser() bool {
	switch p.peek().kind {
	case syntax.RParen, syntax.RBrace, syntax.RBracket:
		return true
	}
	return false
}

// isModifierAt reports whether the code token at i is a modifier word.
func (p *parser) isModifierAt(i int) bool {
	t := p.toks[i]
	if t.kind != syntax.Identifier || !modifierWords[t.text] {
		return false
	}
	j := p.codeIndex(i + 1)
	if j >= len(p.toks) {
		return false
	}
	switch p.toks[j].kind {
	case syntax.Identifier, syntax.Keyword, syntax.At:
		return true
	}
	return false
}

// skipAnnotation returns the index after the annotation starting at i.
func (p *parser) skipAnnotation(i int) int {
	i++
	if i < len(p.toks) && p.toks[i].kind == syntax.LBracket {
		return p.skipBalanced(i, syntax.LBracket, syntax.RBracket)
	}
	for i < len(p.toks) {
		t := p.toks[i]
		switch {
		case t.kind == syntax.Identifier || t.kind == syntax.Keyword:
			i++
		case (t.kind == syntax.Dot || t.kind == syntax.Colon) && i+1 < len(p.toks) && p.toks[i+1].kind == syntax.Identifier:
			i++
		case t.kind == syntax.LParen:
			return p.skipBalanced(i, syntax.LParen, syntax.RParen)
		default:
			return i
		}
	}
	return i
}

func (p *parser) skipBalanced(i int, open, closeKind syntax.Kind) int {
	depth := 0
	for ; i < len(p.toks); i++ {
		switch p.toks[i].kind {
		case open:
			depth++
		case closeKind:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return i
}

// declarationStart looks past annotations and modifiers for a declaration
// keyword and returns the kind of declaration it introduces.
func (p *parser) declarationStart() (syntax.Kind, bool) {
	i := p.codeIndex(p.pos)
	for i < len(p.toks) {
		t := p.toks[i]
		next := p.codeIndex(i + 1)
		switch {
		case t.kind == syntax.At:
			i = p.codeIndex(p.skipAnnotation(i))
			continue
		case t.kind == syntax.Keyword:
			switch t.text {
			case "class", "interface", "object":
				return syntax.Class, true
			case "fun":
				if next < len(p.toks) && p.toks[next].text == "interface" {
					return syntax.Class, true
				}
				return syntax.Fun, true
			case "val", "var":
				return syntax.Property, true
			case "typealias":
				return syntax.TypeAlias, true
			}
			return 0, false
		case t.kind == syntax.Identifier:
			if next < len(p.toks) {
				switch {
				case t.text == "constructor" && p.toks[next].kind == syntax.LParen:
					return syntax.SecondaryConstructor, true
				case t.text == "init" && p.toks[next].kind == syntax.LBrace:
					return syntax.ClassInitializer, true
				}
			}
			if p.isModifierAt(i) {
				i = next
				continue
			}
			return 0, false
		default:
			return 0, false
		}
	}
	return 0, false
}

func (p *parser) parseDeclaration(kind syntax.Kind) syntax.NodeID {
	switch kind {
	case syntax.Class:
		return p.parseClass()
	case syntax.Fun:
		return p.parseFun()
	case syntax.Property:
		return p.parseProperty()
	case syntax.TypeAlias:
		return p.parseTypeAlias()
	case syntax.SecondaryConstructor:
		return p.parseSecondaryConstructor()
	case syntax.ClassInitializer:
		p.start(syntax.ClassInitializer)
		p.parseModifiers()
		p.bump()
		p.parseBlock()
		return p.finish()
	}
	return syntax.None
}

func (p *parser) modifierAhead() bool {
	if p.at(syntax.At) {
		return true
	}
	i := p.codeIndex(p.pos)
	return i < len(p.toks) && p.isModifierAt(i)
}

func (p *parser) parseModifiers() {
	if !p.modifierAhead() {
		return
	}
	p.start(syntax.ModifierList)
	for p.modifierAhead() {
		if p.at(syntax.At) {
			p.parseAnnotation()
		} else {
			p.bump()
		}
	}
	p.finish()
}

func (p *parser) parseAnnotation() syntax.NodeID {
	p.start(syntax.Annotation)
	p.bump()
	if p.adjacent() && p.at(syntax.LBracket) {
		p.parseCollectionLiteral()
		return p.finish()
	}
	if p.adjacent() && (p.at(syntax.Identifier) || p.at(syntax.Keyword)) {
		p.bump()
		if p.adjacent() && p.at(syntax.Colon) && p.peekAt(1).kind == syntax.Identifier {
			p.bump()
			p.bump()
		}
		for p.adjacent() && p.at(syntax.Dot) && p.peekAt(1).kind == syntax.Identifier {
			p.bump()
			p.bump()
		}
		if p.adjacent() && p.atText("<") {
			p.parseTypeArguments()
		}
		if p.adjacent() && p.at(syntax.LParen) {
			p.parseValueArgumentList()
		}
	}
	return p.finish()
}

func (p *parser) parseClass() syntax.NodeID {
	p.start(syntax.Class)
	p.parseModifiers()
	if p.atKeyword("fun") {
		p.bump()
	}
	p.bump() // class, interface or object
	if p.at(syntax.Identifier) && !p.nlBefore() {
		p.bump()
	}
	if p.atText("<") {
		p.parseTypeParameters()
	}
	if p.primaryConstructorAhead() {
		p.start(syntax.PrimaryConstructor)
		p.parseModifiers()
		if p.atText("constructor") {
			p.bump()
		}
		if p.at(syntax.LParen) {
			p.parseValueParameterList()
		}
		p.finish()
	}
	p.parseClassTail()
	return p.finish()
}

func (p *parser) primaryConstructorAhead() bool {
	if p.nlBefore() {
		return false
	}
	if p.at(syntax.LParen) {
		return true
	}
	i := p.codeIndex(p.pos)
	for i < len(p.toks) {
		t := p.toks[i]
		switch {
		case t.kind == syntax.At:
			i = p.codeIndex(p.skipAnnotation(i))
		case t.kind == syntax.Identifier && t.text == "constructor":
			return true
		case p.isModifierAt(i):
			i = p.codeIndex(i + 1)
		default:
			return false
		}
	}
	return false
}

// parseClassTail parses the super type list, constraints and body shared
// by class declarations and object literals.
func (p *parser) parseClassTail() {
	if p.at(syntax.Colon) {
		p.bump()
		p.parseSuperTypes()
	}
	if p.atText("where") {
		p.parseWhere()
	}
	if p.at(syntax.LBrace) {
		p.start(syntax.ClassBody)
		p.bump()
		p.parseStatements(syntax.RBrace)
		p.expect(syntax.RBrace, "'}'")
		p.finish()
	}
}

func (p *parser) parseSuperTypes() {
	p.start(syntax.SuperTypeList)
	for {
		mark := p.codeIndex(p.pos)
		p.start(syntax.SuperTypeEntry)
		p.parseType(-1)
		if p.at(syntax.LParen) && !p.nlBefore() {
			p.parseValueArgumentList()
		}
		if p.atText("by") {
			p.bump()
			saved := p.noLambda
			p.noLambda = true
			p.parseExpression()
			p.noLambda = saved
		}
		p.finishOrDrop()
		if !p.progressed(mark) {
			break
		}
		if !p.at(syntax.Comma) {
			break
		}
		p.bump()
	}
	p.finish()
}

func (p *parser) parseWhere() {
	p.bump()
	for {
		if p.at(syntax.Identifier) {
			p.bump()
		}
		if p.at(syntax.Colon) {
			p.bump()
			p.parseType(-1)
		}
		if !p.at(syntax.Comma) {
			return
		}
		p.bump()
	}
}

func (p *parser) parseFun() syntax.NodeID {
	p.start(syntax.Fun)
	p.parseModifiers()
	p.bump() // fun
	if p.atText("<") {
		p.parseTypeParameters()
	}
	p.parseReceiverAndName()
	if p.at(syntax.LParen) {
		p.parseValueParameterList()
	}
	if p.at(syntax.Colon) {
		p.bump()
		p.parseType(-1)
	}
	if p.atText("where") {
		p.parseWhere()
	}
	switch {
	case p.at(syntax.LBrace):
		p.parseBlock()
	case p.at(syntax.Eq):
		p.bump()
		p.parseExpression()
	}
	return p.finish()
}

// parseReceiverAndName parses "Receiver.name" or "name". The receiver is a
// type reference ending at the last dot of the qualified chain.
func (p *parser) parseReceiverAndName() {
	i := p.codeIndex(p.pos)
	depth := 0
	lastDot := -1
	prevName := false
	end := i
scan:
	for ; end < len(p.toks); end = p.codeIndex(end + 1) {
		t := p.toks[end]
		name := false
		switch {
		case t.text == "<":
			depth++
		case t.text == ">":
			depth--
			name = depth == 0
		case t.kind == syntax.Dot:
			if depth == 0 {
				lastDot = end
			}
		case t.kind == syntax.Identifier:
			if prevName && depth == 0 {
				break scan
			}
			name = true
		case depth > 0 && (t.kind == syntax.Comma || t.text == "?" || t.text == "*" || t.kind == syntax.Keyword):
		case t.text == "?":
		default:
			break scan
		}
		if depth < 0 {
			break
		}
		prevName = name
	}
	if lastDot > i && lastDot < end && p.codeIndex(lastDot+1) < len(p.toks) &&
		p.toks[p.codeIndex(lastDot+1)].kind == syntax.Identifier && p.codeIndex(p.codeIndex(lastDot+1)+1) == end {
		p.parseType(lastDot)
		p.bump() // .
	}
	if p.at(syntax.Identifier) {
		p.bump()
	}
}

func (p *parser) parseSecondaryConstructor() syntax.NodeID {
	p.start(syntax.SecondaryConstructor)
	p.parseModifiers()
	p.bump() // constructor
	if p.at(syntax.LParen) {
		p.parseValueParameterList()
	}
	if p.at(syntax.Colon) {
		p.bump()
		p.start(syntax.CallExpression)
		p.bump() // this or super
		if p.at(syntax.LParen) {
			p.parseValueArgumentList()
		}
		p.finish()
	}
	if p.at(syntax.LBrace) {
		p.parseBlock()
	}
	return p.finish()
}

func (p *parser) parseProperty() syntax.NodeID {
	p.start(syntax.Property)
	p.parseModifiers()
	p.bump() // val or var
	if p.atText("<") {
		p.parseTypeParameters()
	}
	if p.at(syntax.LParen) {
		p.parseValueParameterList()
	} else {
		p.parseReceiverAndName()
	}
	if p.at(syntax.Colon) {
		p.bump()
		p.parseType(-1)
	}
	if p.atText("where") {
		p.parseWhere()
	}
	switch {
	case p.at(syntax.Eq):
		p.bump()
		p.parseExpression()
	case p.atText("by"):
		p.bump()
		p.parseExpression()
	}
	for p.accessorAhead() {
		p.parsePropertyAccessor()
	}
	return p.finish()
}

// accessorAhead reports whether a getter or setter follows.
func (p *parser) accessorAhead() bool {
	i := p.codeIndex(p.pos)
	for i < len(p.toks) {
		t := p.toks[i]
		switch {
		case t.kind == syntax.At:
			i = p.codeIndex(p.skipAnnotation(i))
			continue
		case p.isModifierAt(i):
			i = p.codeIndex(i + 1)
			continue
		}
		break
	}
	if i >= len(p.toks) || p.toks[i].kind != syntax.Identifier || (p.toks[i].text != "get" && p.toks[i].text != "set") {
		return false
	}
	j := p.codeIndex(i + 1)
	if j >= len(p.toks) {
		return true
	}
	switch p.toks[j].kind {
	case syntax.LParen, syntax.Eq, syntax.LBrace, syntax.RBrace, syntax.Semicolon:
		return true
	}
	for k := i + 1; k < j; k++ {
		if p.toks[k].kind == syntax.Whitespace && containsNewline(p.toks[k].text) {
			return true
		}
	}
	return false
}

func (p *parser) parsePropertyAccessor() {
	p.start(syntax.PropertyAccessor)
	p.parseModifiers()
	p.bump() // get or set
	if p.at(syntax.LParen) {
		p.parseValueParameterList()
	}
	if p.at(syntax.Colon) {
		p.bump()
		p.parseType(-1)
	}
	switch {
	case p.at(syntax.Eq):
		p.bump()
		p.parseExpression()
	case p.at(syntax.LBrace):
		p.parseBlock()
	}
	p.finish()
}

func (p *parser) parseTypeAlias() syntax.NodeID {
	p.start(syntax.TypeAlias)
	p.parseModifiers()
	p.bump() // typealias
	if p.at(syntax.Identifier) {
		p.bump()
	}
	if p.atText("<") {
		p.parseTypeParameters()
	}
	if p.expect(syntax.Eq, "'='") {
		p.parseType(-1)
	}
	return p.finish()
}

func (p *parser) parseTypeParameters() {
	p.start(syntax.TypeParameterList)
	p.bumpAs(syntax.LAngle)
	p.withNewlines(false, func() {
		for !p.atEOF() && !p.atText(">") && !p.atCloser() {
			if p.at(syntax.Comma) {
				p.bump()
				continue
			}
			mark := p.codeIndex(p.pos)
			p.start(syntax.TypeParameter)
			for p.at(syntax.At) || p.atKeyword("in") || p.atText("out", "reified") && p.peekAt(1).kind == syntax.Identifier {
				if p.at(syntax.At) {
					p.parseAnnotation()
				} else {
					p.bump()
				}
			}
			if p.at(syntax.Identifier) {
				p.bump()
			}
			if p.at(syntax.Colon) {
				p.bump()
				p.parseType(-1)
			}
			p.finishOrDrop()
			if !p.progressed(mark) {
				p.stray()
			}
		}
	})
	if p.atText(">") {
		p.bumpAs(syntax.RAngle)
	} else {
		p.errorf("expected '>'")
	}
	p.finish()
}

func (p *parser) parseTypeArguments() {
	p.start(syntax.TypeArgumentList)
	p.bumpAs(syntax.LAngle)
	p.withNewlines(false, func() {
		for !p.atEOF() && !p.atText(">") && !p.atCloser() {
			if p.at(syntax.Comma) {
				p.bump()
				continue
			}
			mark := p.codeIndex(p.pos)
			if p.atKeyword("in") || p.atText("out") && p.peekAt(1).kind == syntax.Identifier {
				p.bump()
			}
			if p.atText("*") {
				p.bump()
			} else {
				p.parseType(-1)
			}
			if !p.progressed(mark) {
				p.stray()
			}
		}
	})
	if p.atText(">") {
		p.bumpAs(syntax.RAngle)
	} else {
		p.errorf("expected '>'")
	}
	p.finish()
}

// parseType parses a type reference. A non-negative limit stops the
// qualified name before the code token at that index.
func (p *parser) parseType(limit int) syntax.NodeID {
	within := func() bool { return limit < 0 || p.codeIndex(p.pos) < limit }
	if !within() {
		return syntax.None
	}
	p.start(syntax.TypeReference)
	for within() && (p.at(syntax.At) || p.atText("suspend") && p.peekAt(1).kind != syntax.Colon) {
		if p.at(syntax.At) {
			p.parseAnnotation()
		} else {
			p.bump()
		}
	}
	switch {
	case p.at(syntax.LParen):
		p.withNewlines(false, func() {
			p.bump()
			for !p.atEOF() && !p.atCloser() {
				if p.at(syntax.Comma) {
					p.bump()
					continue
				}
				mark := p.codeIndex(p.pos)
				if p.at(syntax.Identifier) && p.peekAt(1).kind == syntax.Colon {
					p.bump()
					p.bump()
				}
				p.parseType(-1)
				if !p.progressed(mark) {
					p.stray()
				}
			}
			p.expect(syntax.RParen, "')'")
		})
		for p.atText("?") && !p.nlBefore() {
			p.bump()
		}
		if p.at(syntax.Arrow) {
			p.bump()
			p.parseType(limit)
		}
	case p.at(syntax.Identifier) || p.atKeyword("this") || p.atText("*"):
		p.bump()
		if p.adjacent() && p.atText("<") {
			p.parseTypeArguments()
		}
		for within() && p.at(syntax.Dot) && !p.nlBefore() && p.peekAt(1).kind == syntax.Identifier {
			if limit >= 0 && p.codeIndex(p.codeIndex(p.pos)+1) >= limit {
				break
			}
			p.bump()
			p.bump()
			if p.adjacent() && p.atText("<") {
				p.parseTypeArguments()
			}
		}
		for within() && p.atText("?") && !p.nlBefore() {
			p.bump()
		}
		if within() && p.at(syntax.Dot) && p.peekAt(1).kind == syntax.LParen {
			p.bump()
			p.parseType(limit)
		}
	}
	return p.finishOrDrop()
}

func (p *parser) parseValueParameterList() syntax.NodeID {
	p.start(syntax.ValueParameterList)
	p.withNewlines(false, func() {
		p.bump() // (
		for !p.atEOF() && !p.atCloser() {
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
		p.expect(syntax.RParen, "')'")
	})
	return p.finish()
}

func (p *parser) parseValueParameter() {
	p.start(syntax.ValueParameter)
	p.parseModifiers()
	if p.atKeyword("val", "var") {
		p.bump()
	}
	switch {
	case p.at(syntax.LParen):
		p.parseValueParameterList()
	case p.at(syntax.Identifier):
		p.bump()
	}
	if p.at(syntax.Colon) {
		p.bump()
		p.parseType(-1)
	}
	if p.at(syntax.Eq) {
		p.bump()
		p.parseExpression()
	}
	p.finishOrDrop()
}

func (p *parser) parseBlock() syntax.NodeID {
	p.start(syntax.Block)
	p.bump() // {
	p.parseStatements(syntax.RBrace)
	p.expect(syntax.RBrace, "'}'")
	return p.finish()
}

func containsNewline(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return true
		}
	}
	return false
}
