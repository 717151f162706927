package ast

import (
	"strconv"
	"strings"
)

// tokenKind enumerates the lexical categories of the minimal textual
// surface syntax parse.go accepts. This lexer exists only so the CLI has
// something to feed the pipeline end-to-end; it is deliberately small.
type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNum
	tokFloat
	tokString // unused by the grammar today, reserved for future literals
	tokPunct
	tokKeyword
)

type token struct {
	kind tokenKind
	text string
	pos  Position
}

var keywords = map[string]bool{
	"import": true, "export": true, "void": true, "int": true,
	"float": true, "bool": true, "true": true, "false": true,
	"if": true, "else": true, "while": true, "do": true, "for": true,
	"to": true, "step": true, "return": true,
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	column int
}

func newLexer(src string) *lexer {
	return &lexer{src: []rune(src), line: 1, column: 1}
}

func (l *lexer) peekRune() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) advance() rune {
	r := l.peekRune()
	l.pos++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *lexer) skipSpaceAndComments() {
	for {
		for l.peekRune() == ' ' || l.peekRune() == '\t' || l.peekRune() == '\n' || l.peekRune() == '\r' {
			l.advance()
		}
		if l.peekRune() == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			for l.peekRune() != '\n' && l.peekRune() != 0 {
				l.advance()
			}
			continue
		}
		break
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// next scans and returns the next token, in source order.
func (l *lexer) next() token {
	l.skipSpaceAndComments()
	pos := Position{Line: l.line, Column: l.column}

	r := l.peekRune()
	if r == 0 {
		return token{kind: tokEOF, pos: pos}
	}

	if isIdentStart(r) {
		var sb strings.Builder
		for isIdentCont(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
		text := sb.String()
		if keywords[text] {
			return token{kind: tokKeyword, text: text, pos: pos}
		}
		return token{kind: tokIdent, text: text, pos: pos}
	}

	if isDigit(r) {
		var sb strings.Builder
		isFloat := false
		for isDigit(l.peekRune()) {
			sb.WriteRune(l.advance())
		}
		if l.peekRune() == '.' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
			isFloat = true
			sb.WriteRune(l.advance())
			for isDigit(l.peekRune()) {
				sb.WriteRune(l.advance())
			}
		}
		if isFloat {
			return token{kind: tokFloat, text: sb.String(), pos: pos}
		}
		return token{kind: tokNum, text: sb.String(), pos: pos}
	}

	// Multi-rune punctuation first.
	two := string(r)
	if l.pos+1 < len(l.src) {
		two = string([]rune{r, l.src[l.pos+1]})
	}
	switch two {
	case "&&", "||", "==", "!=", "<=", ">=":
		l.advance()
		l.advance()
		return token{kind: tokPunct, text: two, pos: pos}
	}

	l.advance()
	return token{kind: tokPunct, text: string(r), pos: pos}
}

// tokenizeAll scans the entire source up front; the parser operates on the
// resulting slice with simple index-based lookahead.
func tokenizeAll(src string) []token {
	l := newLexer(src)
	var toks []token
	for {
		t := l.next()
		toks = append(toks, t)
		if t.kind == tokEOF {
			return toks
		}
	}
}

func parseIntLiteral(s string) int64 {
	v, _ := strconv.ParseInt(s, 10, 64)
	return v
}

func parseFloatLiteral(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
