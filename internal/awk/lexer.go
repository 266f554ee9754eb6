// Package awk implements a lexer/parser/AST/tree-walking interpreter for
// the subset of the awk language spec.md §4.6 describes: BEGIN/END/pattern
// rules, dual-typed string/number values, field splitting and
// reassignment, associative arrays, user functions, and the builtin
// library (length, substr, split, sub/gsub/gensub, match, sprintf/printf,
// math functions, a sandboxed getline).
package awk

import (
	"fmt"
	"strings"
)

type tokenType int

const (
	tEOF tokenType = iota
	tNewline
	tNumber
	tString
	tRegex
	tIdent
	tFuncName // ident immediately followed by '(' with no space
	tBuiltinFunc
	tKeyword
	tPunct
)

type token struct {
	typ  tokenType
	text string
	num  float64
	line int
}

var keywords = map[string]bool{
	"BEGIN": true, "END": true, "function": true, "func": true,
	"if": true, "else": true, "while": true, "for": true, "do": true,
	"break": true, "continue": true, "next": true, "nextfile": true,
	"exit": true, "return": true, "delete": true, "in": true,
	"getline": true, "print": true, "printf": true,
}

var builtinFuncs = map[string]bool{
	"length": true, "substr": true, "index": true, "split": true,
	"sub": true, "gsub": true, "gensub": true, "match": true,
	"sprintf": true, "tolower": true, "toupper": true,
	"sin": true, "cos": true, "atan2": true, "log": true, "exp": true,
	"sqrt": true, "int": true, "rand": true, "srand": true,
	"system": true, "close": true, "fflush": true,
}

type lexer struct {
	src      string
	pos      int
	line     int
	lastType tokenType
	lastText string
}

func newLexer(src string) *lexer { return &lexer{src: src, line: 1} }

func (l *lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

// regexAllowedHere decides whether a `/` at the current position begins a
// regex literal or is the division operator, based on the previous token
// (division follows an operand; regex follows an operator/keyword/start).
func (l *lexer) regexAllowedHere() bool {
	switch l.lastType {
	case tNumber, tString, tIdent, tRegex:
		return false
	case tPunct:
		return l.lastText != ")" && l.lastText != "]" && l.lastText != "$"
	default:
		return true
	}
}

func (l *lexer) next() token {
	l.skipSpaceAndComments()
	if l.pos >= len(l.src) {
		return l.emit(token{typ: tEOF, line: l.line})
	}
	c := l.src[l.pos]
	switch {
	case c == '\n':
		l.pos++
		l.line++
		return l.emit(token{typ: tNewline, line: l.line - 1})
	case c == '"':
		return l.emit(l.lexString())
	case c == '/' && l.regexAllowedHere():
		return l.emit(l.lexRegex())
	case isDigit(c) || (c == '.' && isDigit(l.peekByteAt(1))):
		return l.emit(l.lexNumber())
	case isIdentStart(c):
		return l.emit(l.lexIdent())
	default:
		return l.emit(l.lexPunct())
	}
}

func (l *lexer) emit(t token) token {
	l.lastType = t.typ
	l.lastText = t.text
	return t
}

func (l *lexer) skipSpaceAndComments() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\r' {
			l.pos++
			continue
		}
		if c == '\\' && l.peekByteAt(1) == '\n' {
			l.pos += 2
			l.line++
			continue
		}
		if c == '#' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		break
	}
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isIdentCont(c byte) bool  { return isIdentStart(c) || isDigit(c) }

func (l *lexer) lexString() token {
	start := l.line
	l.pos++ // opening quote
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '"' {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			l.pos++
			sb.WriteByte(unescapeByte(l.src[l.pos]))
			l.pos++
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	l.pos++ // closing quote
	return token{typ: tString, text: sb.String(), line: start}
}

func unescapeByte(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '\\':
		return '\\'
	case '"':
		return '"'
	case '/':
		return '/'
	default:
		return c
	}
}

func (l *lexer) lexRegex() token {
	start := l.line
	l.pos++ // opening /
	var sb strings.Builder
	for l.pos < len(l.src) && l.src[l.pos] != '/' {
		c := l.src[l.pos]
		if c == '\\' && l.pos+1 < len(l.src) {
			sb.WriteByte(c)
			sb.WriteByte(l.src[l.pos+1])
			l.pos += 2
			continue
		}
		sb.WriteByte(c)
		l.pos++
	}
	l.pos++ // closing /
	return token{typ: tRegex, text: sb.String(), line: start}
}

func (l *lexer) lexNumber() token {
	start := l.pos
	for l.pos < len(l.src) && (isDigit(l.src[l.pos]) || l.src[l.pos] == '.') {
		l.pos++
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.src) && (l.src[l.pos] == '+' || l.src[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	text := l.src[start:l.pos]
	var v float64
	fmt.Sscanf(text, "%g", &v)
	return token{typ: tNumber, text: text, num: v, line: l.line}
}

func (l *lexer) lexIdent() token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.src[l.pos]) {
		l.pos++
	}
	text := l.src[start:l.pos]
	if keywords[text] {
		return token{typ: tKeyword, text: text, line: l.line}
	}
	if builtinFuncs[text] {
		return token{typ: tBuiltinFunc, text: text, line: l.line}
	}
	if l.pos < len(l.src) && l.src[l.pos] == '(' {
		return token{typ: tFuncName, text: text, line: l.line}
	}
	return token{typ: tIdent, text: text, line: l.line}
}

var multiCharPuncts = []string{
	"**=", "<<=",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--", "+=", "-=", "*=", "/=",
	"%=", "^=", "!~", ">>", "**",
}

func (l *lexer) lexPunct() token {
	for _, p := range multiCharPuncts {
		if strings.HasPrefix(l.src[l.pos:], p) {
			l.pos += len(p)
			return token{typ: tPunct, text: p, line: l.line}
		}
	}
	c := l.src[l.pos]
	l.pos++
	return token{typ: tPunct, text: string(c), line: l.line}
}
