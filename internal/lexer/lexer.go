// Package lexer turns hdz source text into a flat token vector (spec §4.2).
//
// The scanning primitive (a one-character-lookahead cursor tracking index,
// line, and column) is grounded on the teacher's runeReader
// (_examples/bufbuild-protocompile/parser/lexer.go), but the actual literal
// rules — keyword/identifier scanning, hex/decimal integers, char/string
// escapes, comment handling, NEWLINE collapsing — are ported from
// original_source/src/lexer.py, which the spec's §4.2 contract distills.
package lexer

import (
	"strconv"
	"strings"

	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/token"
)

// Lexer scans hdz source text into a token vector.
type Lexer struct {
	src  string
	h    *diag.Handler
	pos  int // byte offset of curr
	line int
	col  int
	curr byte
	atEOF bool
}

// New constructs a Lexer over src, reporting lexical errors through h.
func New(src string, h *diag.Handler) *Lexer {
	l := &Lexer{src: src, h: h, pos: -1, line: 1, col: 0}
	l.advance()
	return l
}

func (l *Lexer) advance() {
	if !l.atEOF && l.curr == '\n' {
		l.line++
		l.col = 0
	}
	l.pos++
	l.col++
	if l.pos >= len(l.src) {
		l.atEOF = true
		l.curr = 0
		return
	}
	l.curr = l.src[l.pos]
}

func (l *Lexer) lookAhead(step int) (byte, bool) {
	idx := l.pos + step
	if idx < 0 || idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) pos1() token.Pos { return token.Pos{Line: l.line, Col: l.col} }

func isAlpha(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isKeywordCont(b byte) bool { return isAlpha(b) || isDigit(b) }

// Tokenize scans the whole source and returns the token vector, with
// consecutive newlines collapsed into at most one NEWLINE token (spec §4.2).
func (l *Lexer) Tokenize() []token.Token {
	var toks []token.Token

	for !l.atEOF {
		switch {
		case isAlpha(l.curr):
			toks = append(toks, l.lexKeywordOrIdent())
		case l.curr == '0' && peekIsX(l):
			toks = append(toks, l.lexHex())
		case isDigit(l.curr):
			toks = append(toks, l.lexNumber())
		case l.curr == '\'':
			toks = append(toks, l.lexChar())
		case l.curr == '"':
			toks = append(toks, l.lexString())
		case l.curr == '/' && peekByte(l) == '/':
			l.skipLineComment()
		case l.curr == '/' && peekByte(l) == '*':
			l.skipBlockComment()
		case l.curr == ' ' || l.curr == '\t' || l.curr == '\r':
			l.advance()
		default:
			if tok, ok := l.lexSymbol(toks); ok {
				toks = append(toks, tok)
			}
		}
	}
	return toks
}

func peekIsX(l *Lexer) bool {
	b, ok := l.lookAhead(1)
	return ok && (b == 'x' || b == 'X')
}

func peekByte(l *Lexer) byte {
	b, _ := l.lookAhead(1)
	return b
}

func (l *Lexer) lexKeywordOrIdent() token.Token {
	start := l.pos1()
	var buf strings.Builder
	buf.WriteByte(l.curr)
	l.advance()
	for !l.atEOF && isKeywordCont(l.curr) {
		buf.WriteByte(l.curr)
		l.advance()
	}
	word := buf.String()
	if kind, ok := token.Keywords[word]; ok {
		// keyword tokens are reported at the column where the word
		// started (original_source/src/lexer.py: search_for_keyword),
		// not where scanning stopped.
		return token.Token{Kind: kind, Pos: start}
	}
	return token.Token{Kind: token.Ident, Value: word, Pos: start}
}

func (l *Lexer) lexNumber() token.Token {
	start := l.pos1()
	var buf strings.Builder
	buf.WriteByte(l.curr)
	l.advance()
	for !l.atEOF && isDigit(l.curr) {
		buf.WriteByte(l.curr)
		l.advance()
	}
	return token.Token{Kind: token.IntLit, Value: buf.String(), Pos: start}
}

func (l *Lexer) lexHex() token.Token {
	start := l.pos1()
	l.advance() // consume '0'
	l.advance() // consume 'x'/'X'
	var buf strings.Builder
	for !l.atEOF && isHexDigit(l.curr) {
		buf.WriteByte(l.curr)
		l.advance()
	}
	if buf.Len() == 0 {
		l.h.Error(diag.Syntax, "invalid hexadecimal", diag.FromPos(l.pos1()))
	}
	n, err := strconv.ParseUint(buf.String(), 16, 64)
	if err != nil {
		l.h.Error(diag.Syntax, "invalid hexadecimal", diag.FromPos(start))
	}
	return token.Token{Kind: token.IntLit, Value: strconv.FormatUint(n, 10), Pos: start}
}

// escapeByte resolves a '\' escape to its ASCII value (spec §4.2):
// n -> 10, t -> 9, 0 -> 0, anything else -> ord(that char).
func (l *Lexer) escapeByte() int {
	if l.atEOF {
		l.h.Error(diag.Syntax, "expected a character after \\ escape", diag.FromPos(l.pos1()))
	}
	switch l.curr {
	case 'n':
		return 10
	case 't':
		return 9
	case '0':
		return 0
	default:
		return int(l.curr)
	}
}

func (l *Lexer) lexChar() token.Token {
	start := l.pos1()
	l.advance() // consume opening '
	var value int
	switch {
	case l.curr == '\\':
		l.advance()
		value = l.escapeByte()
	case l.curr == '\'':
		l.h.Error(diag.Syntax, "empty char literal is not supported", diag.FromPos(l.pos1()))
	case !l.atEOF:
		value = int(l.curr)
	default:
		l.h.Error(diag.Syntax, "unclosed `'` started here", diag.FromPos(start))
	}

	tok := token.Token{Kind: token.CharLit, Value: strconv.Itoa(value), Pos: l.pos1()}

	l.advance()
	if l.atEOF || l.curr != '\'' {
		l.h.Error(diag.Syntax, "expected `'`", diag.FromPos(l.pos1()))
	}
	l.advance()
	return tok
}

func (l *Lexer) lexString() token.Token {
	start := l.pos1()
	l.advance() // consume opening "
	var bytes []string
	for l.curr != '"' {
		if l.curr == '\\' {
			l.advance()
			bytes = append(bytes, strconv.Itoa(l.escapeByte()))
		} else if !l.atEOF {
			bytes = append(bytes, strconv.Itoa(int(l.curr)))
		} else {
			l.h.Error(diag.Syntax, `unclosed `+"`\"`"+` started here`, diag.FromPos(start))
		}
		l.advance()
	}
	tok := token.Token{Kind: token.StrLit, Value: strings.Join(bytes, ","), Pos: l.pos1()}
	l.advance()
	return tok
}

func (l *Lexer) skipLineComment() {
	l.advance() // first '/'
	for !l.atEOF && l.curr != '\n' {
		l.advance()
	}
}

func (l *Lexer) skipBlockComment() {
	start := l.pos1()
	l.advance() // '/'
	l.advance() // '*'
	for {
		if l.atEOF {
			l.h.Error(diag.Syntax, "unclosed multiline comment", diag.FromPos(start))
		}
		if l.curr == '*' {
			if b, ok := l.lookAhead(1); ok && b == '/' {
				l.advance()
				l.advance()
				return
			}
		}
		l.advance()
	}
}

func (l *Lexer) lexSymbol(prior []token.Token) (token.Token, bool) {
	pos := l.pos1()

	if next, ok := l.lookAhead(1); ok {
		if kind, ok := token.LookupTwoChar(string([]byte{l.curr, next})); ok {
			l.advance()
			l.advance()
			return token.Token{Kind: kind, Pos: pos}, true
		}
	}

	if l.curr == '\n' {
		l.advance()
		if len(prior) > 0 && prior[len(prior)-1].Kind == token.Newline {
			return token.Token{}, false
		}
		return token.Token{Kind: token.Newline, Pos: pos}, true
	}

	if kind, ok := token.LookupOneChar(l.curr); ok {
		l.advance()
		return token.Token{Kind: kind, Pos: pos}, true
	}

	l.h.Error(diag.Syntax, "character not included in the language grammar", diag.FromPos(pos))
	return token.Token{}, false
}
