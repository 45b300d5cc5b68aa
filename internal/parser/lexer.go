package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/donaldgifford/kfmt/internal/syntax"
)

// token is a lexed slice of the source. Every byte of the input belongs to
// exactly one token.
type token struct {
	kind   syntax.Kind
	text   string
	offset int
}

func (t token) trivia() bool { return t.kind.IsTrivia() }

// Hard keywords. Soft keywords (by, get, set, catch, ...) lex as
// identifiers and are recognized by the parser from context.
var keywords = map[string]bool{
	"as": true, "break": true, "class": true, "continue": true, "do": true,
	"else": true, "false": true, "for": true, "fun": true, "if": true,
	"in": true, "interface": true, "is": true, "null": true, "object": true,
	"package": true, "return": true, "super": true, "this": true,
	"throw": true, "true": true, "try": true, "typealias": true,
	"typeof": true, "val": true, "var": true, "when": true, "while": true,
}

// Multi-character operators, longest first.
var operators = []string{
	"..<", "===", "!==",
	"?.", "?:", "!!", "::", "..", "->", "==", "!=", "<=", ">=", "&&", "||",
	"++", "--", "+=", "-=", "*=", "/=", "%=",
}

var punct = map[byte]syntax.Kind{
	'(': syntax.LParen,
	')': syntax.RParen,
	'{': syntax.LBrace,
	'}': syntax.RBrace,
	'[': syntax.LBracket,
	']': syntax.RBracket,
	',': syntax.Comma,
	'.': syntax.Dot,
	':': syntax.Colon,
	';': syntax.Semicolon,
	'=': syntax.Eq,
	'@': syntax.At,
}

type lexer struct {
	src  string
	pos  int
	toks []token
	errs []*SyntaxError
}

func lex(src string) ([]token, []*SyntaxError) {
	l := &lexer{src: src}
	for l.pos < len(l.src) {
		l.next()
	}
	return l.toks, l.errs
}

func (l *lexer) emit(kind syntax.Kind, end int) {
	if end <= l.pos {
		return
	}
	l.toks = append(l.toks, token{kind: kind, text: l.src[l.pos:end], offset: l.pos})
	l.pos = end
}

func (l *lexer) fail(offset int, msg string) {
	l.errs = append(l.errs, newSyntaxError(l.src, offset, msg))
}

func (l *lexer) next() {
	s := l.src[l.pos:]
	c := s[0]
	switch {
	case isSpace(c):
		end := l.pos
		for end < len(l.src) && isSpace(l.src[end]) {
			end++
		}
		l.emit(syntax.Whitespace, end)
	case strings.HasPrefix(s, "//"):
		end := strings.IndexAny(s, "\r\n")
		if end < 0 {
			end = len(s)
		}
		l.emit(syntax.EOLComment, l.pos+end)
	case strings.HasPrefix(s, "/*"):
		l.blockComment()
	case strings.HasPrefix(s, `"""`):
		l.rawString()
	case c == '"':
		l.quotedString()
	case c == '\'':
		l.charLiteral()
	case c == '`':
		end := strings.IndexAny(s[1:], "`\n")
		if end < 0 || s[1+end] != '`' {
			l.fail(l.pos, "unterminated backticked identifier")
			l.emit(syntax.Identifier, len(l.src))
			return
		}
		l.emit(syntax.Identifier, l.pos+end+2)
	case isDigit(c):
		l.emit(syntax.Number, l.pos+numberLen(s))
	case isIdentStart(s):
		end := l.pos + identLen(s)
		word := l.src[l.pos:end]
		switch {
		case word == "as" && strings.HasPrefix(l.src[end:], "?") && !strings.HasPrefix(l.src[end:], "?."):
			l.emit(syntax.Keyword, end+1)
		case keywords[word]:
			l.emit(syntax.Keyword, end)
		default:
			l.emit(syntax.Identifier, end)
		}
	default:
		l.operator(s)
	}
}

func (l *lexer) operator(s string) {
	if strings.HasPrefix(s, "!in") || strings.HasPrefix(s, "!is") {
		if len(s) == 3 || !isIdentStart(s[3:]) && !isDigit(s[3]) {
			l.emit(syntax.Operator, l.pos+3)
			return
		}
	}
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			kind := syntax.Operator
			switch op {
			case "?.":
				kind = syntax.SafeAccess
			case "::":
				kind = syntax.DoubleColon
			case "->":
				kind = syntax.Arrow
			}
			l.emit(kind, l.pos+len(op))
			return
		}
	}
	if k, ok := punct[s[0]]; ok {
		l.emit(k, l.pos+1)
		return
	}
	_, size := utf8.DecodeRuneInString(s)
	l.emit(syntax.Operator, l.pos+size)
}

func (l *lexer) blockComment() {
	kind := syntax.BlockComment
	if strings.HasPrefix(l.src[l.pos:], "/**") && !strings.HasPrefix(l.src[l.pos:], "/**/") {
		kind = syntax.KDoc
	}
	depth := 0
	i := l.pos
	for i < len(l.src) {
		switch {
		case strings.HasPrefix(l.src[i:], "/*"):
			depth++
			i += 2
		case strings.HasPrefix(l.src[i:], "*/"):
			depth--
			i += 2
			if depth == 0 {
				l.emit(kind, i)
				return
			}
		default:
			i++
		}
	}
	l.fail(l.pos, "unterminated comment")
	l.emit(kind, len(l.src))
}

// rawString lexes a """ string, splitting the content after every line
// break that is not inside a ${} template.
func (l *lexer) rawString() {
	start := l.pos
	l.emit(syntax.OpenQuote, l.pos+3)
	i := l.pos
	for i < len(l.src) {
		switch {
		case strings.HasPrefix(l.src[i:], `"""`):
			run := 0
			for i+run < len(l.src) && l.src[i+run] == '"' {
				run++
			}
			closeAt := i + run - 3
			l.emit(syntax.StringContent, closeAt)
			l.emit(syntax.ClosingQuote, closeAt+3)
			return
		case strings.HasPrefix(l.src[i:], "${"):
			i = l.template(i)
		case l.src[i] == '\n':
			i++
			l.emit(syntax.StringContent, i)
		default:
			i++
		}
	}
	l.emit(syntax.StringContent, len(l.src))
	l.fail(start, "unterminated raw string")
}

func (l *lexer) quotedString() {
	start := l.pos
	l.emit(syntax.OpenQuote, l.pos+1)
	i := l.pos
	for i < len(l.src) {
		switch c := l.src[i]; {
		case c == '\\':
			i += 2
		case c == '"':
			l.emit(syntax.StringContent, i)
			l.emit(syntax.ClosingQuote, i+1)
			return
		case c == '\n':
			l.emit(syntax.StringContent, i)
			l.fail(start, "unterminated string")
			return
		case strings.HasPrefix(l.src[i:], "${"):
			i = l.template(i)
		default:
			i++
		}
	}
	l.emit(syntax.StringContent, len(l.src))
	l.fail(start, "unterminated string")
}

// template skips a ${...} entry starting at i and returns the offset just
// past its closing brace.
func (l *lexer) template(i int) int {
	depth := 0
	for i < len(l.src) {
		switch c := l.src[i]; c {
		case '{':
			depth++
			i++
		case '}':
			depth--
			i++
			if depth == 0 {
				return i
			}
		case '"':
			i = skipNestedString(l.src, i)
		case '\'':
			i = skipQuoted(l.src, i, '\'')
		default:
			i++
		}
	}
	return i
}

func skipNestedString(src string, i int) int {
	if strings.HasPrefix(src[i:], `"""`) {
		end := strings.Index(src[i+3:], `"""`)
		if end < 0 {
			return len(src)
		}
		return i + 3 + end + 3
	}
	return skipQuoted(src, i, '"')
}

func skipQuoted(src string, i int, quote byte) int {
	i++
	for i < len(src) {
		switch src[i] {
		case '\\':
			i += 2
		case quote:
			return i + 1
		case '\n':
			return i
		default:
			i++
		}
	}
	return len(src)
}

func (l *lexer) charLiteral() {
	end := skipQuoted(l.src, l.pos, '\'')
	if end > len(l.src) {
		end = len(l.src)
	}
	if end <= l.pos+1 || l.src[end-1] != '\'' {
		l.fail(l.pos, "unterminated character literal")
	}
	l.emit(syntax.CharLiteral, end)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || unicode.IsLetter(r)
}

func identLen(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			break
		}
		n += size
	}
	return n
}

func numberLen(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		switch {
		case isDigit(c) || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			if (c == 'e' || c == 'E') && n+1 < len(s) && (s[n+1] == '+' || s[n+1] == '-') &&
				!strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
				n += 2
				continue
			}
			n++
		case c == '.' && n+1 < len(s) && isDigit(s[n+1]):
			n++
		default:
			return n
		}
	}
	return n
}
