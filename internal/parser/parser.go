// Package parser builds an *ast.Program from a token vector (spec §3, §4.3).
//
// The statement dispatch shape (a token-kind -> parse-function table driving
// a flat parse loop) and the overall grammar — scope/newline rules,
// for-loop triple, if/elif/else chains, unary-minus folding restricted to
// int terms — are ported from original_source/src/parser.py. The expression
// grammar itself is precedence-climbing rather than the teacher's
// yacc-generated parser.go (which has no hand-written equivalent to port),
// grounded instead on
// other_examples/52f0576f_vovakirdan-surge__internal-parser-expression.go.go's
// parseBinaryExpr(minPrec) loop. Array types/literals and the bitwise-not
// operator are supplemented beyond the distilled grammar (SPEC_FULL.md).
package parser

import (
	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/token"
)

// Parser consumes a flat token vector and produces an ast.Program.
type Parser struct {
	toks []token.Token
	pos  int
	h    *diag.Handler
}

// New constructs a Parser over toks, reporting syntax errors through h.
func New(toks []token.Token, h *diag.Handler) *Parser {
	return &Parser{toks: toks, h: h}
}

func (p *Parser) cur() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF}
}

func (p *Parser) atEnd() bool { return p.pos >= len(p.toks) }

func (p *Parser) peek(offset int) (token.Token, bool) {
	idx := p.pos + offset
	if idx < 0 || idx >= len(p.toks) {
		return token.Token{}, false
	}
	return p.toks[idx], true
}

func (p *Parser) advance() { p.pos++ }

func isComparisonOp(k token.Kind) bool {
	switch k {
	case token.IsEqual, token.IsNotEqual, token.LessThan, token.GreaterThan, token.LessOrEqual, token.GreaterOrEqual:
		return true
	default:
		return false
	}
}

// expect consumes the current token if it has kind k, else reports a Syntax
// diagnostic and never returns.
func (p *Parser) expect(k token.Kind, msg string) token.Token {
	if p.atEnd() || p.cur().Kind != k {
		p.h.Error(diag.Syntax, msg, diag.FromPos(p.errPos()))
	}
	t := p.cur()
	p.advance()
	return t
}

// errPos picks a sensible location for an error at the current cursor: the
// current token's position, or one past the last token's if we ran off the
// end (mirrors the Python original treating a None current_token as EOF).
func (p *Parser) errPos() token.Pos {
	if !p.atEnd() {
		return p.cur().Pos
	}
	if len(p.toks) > 0 {
		last := p.toks[len(p.toks)-1]
		return token.Pos{Line: last.Pos.Line, Col: last.Pos.Col + 1}
	}
	return token.Pos{Line: 1, Col: 1}
}

// ---- types ----

func (p *Parser) parseType() ast.Type {
	var t ast.Type
	switch p.cur().Kind {
	case token.Infer, token.Int, token.Bool, token.Char, token.Str:
		t = ast.Type{Primitive: p.cur().Kind}
		p.advance()
	default:
		p.h.Error(diag.Syntax, "expected a type", diag.FromPos(p.errPos()))
	}
	for p.cur().Kind == token.LeftBracket {
		if next, ok := p.peek(1); !ok || next.Kind != token.RightBracket {
			break
		}
		p.advance() // [
		p.advance() // ]
		sub := t
		t = ast.Type{Primitive: ast.ArrayPrimitive, Sub: &sub}
	}
	return t
}

// ---- terms and expressions ----

func (p *Parser) parseTerm() ast.Term {
	negative := false
	if p.cur().Kind == token.Minus {
		negative = true
		p.advance()
	}

	switch p.cur().Kind {
	case token.IntLit:
		lit := p.cur()
		if negative {
			lit.Value = "-" + lit.Value
		}
		p.advance()
		return p.attachIndex(&ast.IntTerm{Lit: lit})

	case token.Ident:
		if negative {
			p.h.Error(diag.Syntax, "only int literals can be negated", diag.FromPos(p.errPos()))
		}
		id := p.cur()
		p.advance()
		return p.attachIndex(&ast.IdentTerm{Ident: id})

	case token.CharLit:
		if negative {
			p.h.Error(diag.Syntax, "`znak` literal cannot be negative", diag.FromPos(p.errPos()))
		}
		lit := p.cur()
		p.advance()
		return p.attachIndex(&ast.CharTerm{Lit: lit})

	case token.StrLit:
		if negative {
			p.h.Error(diag.Syntax, "`lancok` literal cannot be negative", diag.FromPos(p.errPos()))
		}
		lit := p.cur()
		p.advance()
		return p.attachIndex(&ast.StrTerm{Lit: lit})

	case token.True, token.False:
		if negative {
			p.h.Error(diag.Syntax, "`bul` literal cannot be negative", diag.FromPos(p.errPos()))
		}
		lit := p.cur()
		p.advance()
		return p.attachIndex(&ast.BoolTerm{Lit: lit})

	case token.LeftParen:
		openPos := p.cur().Pos
		p.advance()
		inner := p.parseExpr(0)
		if inner == nil {
			p.h.Error(diag.Value, "expected expression", diag.FromPos(p.errPos()))
		}
		p.expect(token.RightParen, "expected `)`")
		return p.attachIndex(&ast.ParenTerm{OpenPos: openPos, Inner: inner})

	case token.Not:
		if negative {
			p.h.Error(diag.Syntax, "logical `ne` expression cannot be negative", diag.FromPos(p.errPos()))
		}
		kwPos := p.cur().Pos
		p.advance()
		operand := p.parseTerm()
		if operand == nil {
			p.h.Error(diag.Value, "expected term", diag.FromPos(p.errPos()))
		}
		return p.attachIndex(&ast.NotTerm{KwPos: kwPos, Operand: operand})

	case token.BNot:
		if negative {
			p.h.Error(diag.Syntax, "bitwise `~` expression cannot be negative", diag.FromPos(p.errPos()))
		}
		opPos := p.cur().Pos
		p.advance()
		operand := p.parseTerm()
		if operand == nil {
			p.h.Error(diag.Value, "expected term", diag.FromPos(p.errPos()))
		}
		return p.attachIndex(&ast.BNotTerm{OpPos: opPos, Operand: operand})

	case token.LeftBracket:
		if negative {
			p.h.Error(diag.Syntax, "array literal cannot be negative", diag.FromPos(p.errPos()))
		}
		openPos := p.cur().Pos
		p.advance()
		var elems []ast.Expr
		if p.cur().Kind != token.RightBracket {
			elems = append(elems, p.parseExpr(0))
			for p.cur().Kind == token.Comma {
				p.advance()
				elems = append(elems, p.parseExpr(0))
			}
		}
		p.expect(token.RightBracket, "expected `]`")
		return p.attachIndex(&ast.ArrayTerm{OpenPos: openPos, Elems: elems})

	case token.Infer, token.Int, token.Bool, token.Char, token.Str:
		if negative {
			p.h.Error(diag.Syntax, "cast expression cannot be negative", diag.FromPos(p.errPos()))
		}
		kwPos := p.cur().Pos
		to := p.parseType()
		p.expect(token.LeftParen, "expected a `(`")
		inner := p.parseExpr(0)
		if inner == nil {
			p.h.Error(diag.Syntax, "invalid expression", diag.FromPos(p.errPos()))
		}
		p.expect(token.RightParen, "expected a `)`")
		return p.attachIndex(&ast.CastTerm{KwPos: kwPos, Inner: inner, To: to})

	default:
		return nil
	}
}

// attachIndex optionally wraps t with a trailing `[expr]` index, mutating
// its embedded base in place. t must be a freshly built, non-nil term whose
// concrete type embeds ast's base struct by value, so this works through
// the ast.Term interface via a small type switch.
func (p *Parser) attachIndex(t ast.Term) ast.Term {
	if p.cur().Kind != token.LeftBracket {
		return t
	}
	p.advance()
	idx := p.parseExpr(0)
	if idx == nil {
		p.h.Error(diag.Value, "expected index expression", diag.FromPos(p.errPos()))
	}
	p.expect(token.RightBracket, "expected `]`")
	setIndex(t, idx)
	return t
}

func setIndex(t ast.Term, idx ast.Expr) {
	switch v := t.(type) {
	case *ast.IntTerm:
		v.Index = idx
	case *ast.IdentTerm:
		v.Index = idx
	case *ast.CharTerm:
		v.Index = idx
	case *ast.StrTerm:
		v.Index = idx
	case *ast.BoolTerm:
		v.Index = idx
	case *ast.ParenTerm:
		v.Index = idx
	case *ast.NotTerm:
		v.Index = idx
	case *ast.BNotTerm:
		v.Index = idx
	case *ast.CastTerm:
		v.Index = idx
	case *ast.ArrayTerm:
		v.Index = idx
	}
}

// parseExpr is precedence-climbing (Pratt) expression parsing: the loop
// shape follows vovakirdan/surge's parseBinaryExpr(minPrec); every level is
// left-associative (spec §4.3), so the recursive call always climbs with
// prec+1.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	lhs := p.parseTerm()
	if lhs == nil {
		return nil
	}
	var expr ast.Expr = lhs

	for {
		op := p.cur()
		prec, ok := token.Precedence(op.Kind)
		if !ok || prec < minPrec {
			break
		}
		p.advance()

		rhs := p.parseExpr(prec + 1)
		if rhs == nil {
			p.h.Error(diag.Value, "invalid expression", diag.FromPos(p.errPos()))
		}
		expr = &ast.BinExpr{LHS: expr, RHS: rhs, Op: op}
	}
	return expr
}

// ---- statements ----

func (p *Parser) parseDecl() *ast.Declare {
	isConst := false
	if p.cur().Kind == token.Const {
		isConst = true
		p.advance()
	}

	var typ ast.Type
	if isConst && p.cur().Kind == token.Ident {
		// `furt x = 5` infers the type without a leading `naj`.
		typ = ast.Type{Primitive: token.Infer}
	} else {
		typ = p.parseType()
	}

	ident := p.expect(token.Ident, "expected valid identifier")
	p.expect(token.Equals, "expected `=`")
	value := p.parseExpr(0)
	if value == nil {
		p.h.Error(diag.Syntax, "invalid expression", diag.FromPos(p.errPos()))
	}
	return &ast.Declare{Ident: ident, Expr: value, Type: typ, IsConst: isConst}
}

func (p *Parser) parseExit() *ast.Exit {
	kwPos := p.cur().Pos
	p.advance()
	p.expect(token.LeftParen, "expected `(`")
	expr := p.parseExpr(0)
	if expr == nil {
		p.h.Error(diag.Syntax, "invalid expression", diag.FromPos(p.errPos()))
	}
	p.expect(token.RightParen, "expected `)`")
	return &ast.Exit{KwPos: kwPos, Expr: expr}
}

func (p *Parser) parsePrint() *ast.Print {
	kwPos := p.cur().Pos
	p.advance()
	p.expect(token.LeftParen, "expected `(`")
	cont := p.parseExpr(0)
	if cont == nil {
		p.h.Error(diag.Syntax, "invalid print argument", diag.FromPos(p.errPos()))
	}
	p.expect(token.RightParen, "expected `)`")
	return &ast.Print{KwPos: kwPos, Expr: cont}
}

func (p *Parser) parseScope() *ast.Scope {
	if p.cur().Kind == token.Newline {
		p.advance()
	}
	openBrace := p.cur().Pos
	p.expect(token.LeftCurly, "expected '{'")

	scope := &ast.Scope{OpenBrace: openBrace}
	for {
		stmt := p.parseStatement()
		if stmt == nil {
			p.h.Error(diag.Syntax, "unclosed scope starting here", diag.FromPos(openBrace))
		}
		scope.Stmts = append(scope.Stmts, stmt)

		_, isEmpty := stmt.(*ast.Empty)
		_, isIf := stmt.(*ast.If)
		if !isEmpty && !isIf && p.cur().Kind != token.RightCurly {
			p.expect(token.Newline, "expected new line")
		}
		if p.cur().Kind == token.RightCurly {
			p.advance()
			return scope
		}
		if p.atEnd() {
			p.h.Error(diag.Syntax, "unclosed scope starting here", diag.FromPos(openBrace))
		}
	}
}

func (p *Parser) parseIfPred() ast.IfPred {
	switch p.cur().Kind {
	case token.Elif:
		kwPos := p.cur().Pos
		p.advance()
		cond := p.parseExpr(0)
		if cond == nil {
			p.h.Error(diag.Value, "not able to evaluate expression", diag.FromPos(p.errPos()))
		}
		body := p.parseScope()
		for p.cur().Kind == token.Newline {
			p.advance()
		}
		next := p.parseIfPred()
		return &ast.Elif{KwPos: kwPos, Cond: cond, Body: body, Next: next}
	case token.Else:
		kwPos := p.cur().Pos
		p.advance()
		body := p.parseScope()
		return &ast.Else{KwPos: kwPos, Body: body}
	default:
		return nil
	}
}

func (p *Parser) parseIf() *ast.If {
	kwPos := p.cur().Pos
	p.advance()
	cond := p.parseExpr(0)
	if cond == nil {
		p.h.Error(diag.Value, "not able to parse expression", diag.FromPos(p.errPos()))
	}
	body := p.parseScope()

	for p.cur().Kind == token.Newline {
		p.advance()
	}
	pred := p.parseIfPred()
	return &ast.If{KwPos: kwPos, Cond: cond, Body: body, Pred: pred}
}

func (p *Parser) parseWhile() *ast.While {
	kwPos := p.cur().Pos
	p.advance()
	cond := p.parseExpr(0)
	if cond == nil {
		p.h.Error(diag.Value, "not able to parse expression", diag.FromPos(p.errPos()))
	}
	body := p.parseScope()
	return &ast.While{KwPos: kwPos, Cond: cond, Body: body}
}

func (p *Parser) parseDoWhile() *ast.DoWhile {
	kwPos := p.cur().Pos
	p.advance()
	body := p.parseScope()
	p.expect(token.While, "expected 'kim'")
	cond := p.parseExpr(0)
	if cond == nil {
		p.h.Error(diag.Value, "invalid expression", diag.FromPos(p.errPos()))
	}
	return &ast.DoWhile{KwPos: kwPos, Body: body, Cond: cond}
}

func (p *Parser) parseReassign() ast.Reassign {
	identTok := p.expect(token.Ident, "expected identifier")
	target := p.attachIndex(&ast.IdentTerm{Ident: identTok})

	switch p.cur().Kind {
	case token.Increment:
		p.advance()
		return &ast.ReassignInc{Target: target}
	case token.Decrement:
		p.advance()
		return &ast.ReassignDec{Target: target}
	}

	p.expect(token.Equals, "expected '='")
	value := p.parseExpr(0)
	if value == nil {
		p.h.Error(diag.Value, "expected expression", diag.FromPos(p.errPos()))
	}
	return &ast.ReassignEq{Target: target, Value: value}
}

func (p *Parser) parseForLoop() *ast.For {
	kwPos := p.cur().Pos
	p.advance()
	p.expect(token.LeftParen, "expected '('")

	init := p.parseDecl()
	p.expect(token.Comma, "expected ','")

	cond := p.parseExpr(0)
	if cond == nil {
		p.h.Error(diag.Syntax, "missing condition", diag.FromPos(p.errPos()))
	}
	// mirrors original_source/src/parser.py requiring the for-loop's middle
	// clause to be a NodePredExpr (a comparison), not any expression.
	bin, ok := cond.(*ast.BinExpr)
	if !ok || !isComparisonOp(bin.Op.Kind) {
		p.h.Error(diag.Syntax, "invalid condition", diag.FromPos(p.errPos()))
	}

	p.expect(token.Comma, "expected ','")
	post := p.parseReassign()
	p.expect(token.RightParen, "expected ')'")

	body := p.parseScope()
	return &ast.For{KwPos: kwPos, Init: init, Cond: cond, Post: post, Body: body}
}

func (p *Parser) parseBreak() *ast.Break {
	kwPos := p.cur().Pos
	p.advance()
	return &ast.Break{KwPos: kwPos}
}

func (p *Parser) parseEmpty() *ast.Empty {
	at := p.cur().Pos
	p.advance() // consume the newline
	return &ast.Empty{At: at}
}

// parseStatement dispatches on the current token's kind, mirroring the
// Python original's map_parse_func table.
func (p *Parser) parseStatement() ast.Stmt {
	if p.atEnd() {
		return nil
	}

	if p.cur().Kind == token.RightCurly {
		// handles a fully empty scope: `{}`
		return &ast.Empty{At: p.cur().Pos}
	}

	switch p.cur().Kind {
	case token.Exit:
		return p.parseExit()
	case token.Print:
		return p.parsePrint()
	case token.Infer, token.Int, token.Bool, token.Char, token.Str, token.Const:
		return p.parseDecl()
	case token.LeftCurly:
		return p.parseScope()
	case token.If:
		return p.parseIf()
	case token.Ident:
		return p.parseReassign()
	case token.While:
		return p.parseWhile()
	case token.For:
		return p.parseForLoop()
	case token.Do:
		return p.parseDoWhile()
	case token.Break:
		return p.parseBreak()
	case token.Newline:
		return p.parseEmpty()
	default:
		p.h.Error(diag.Syntax, "invalid statement start", diag.FromPos(p.errPos()))
		return nil
	}
}

// Parse consumes the entire token vector and returns the resulting program.
func Parse(toks []token.Token, h *diag.Handler) *ast.Program {
	p := New(toks, h)
	prog := &ast.Program{}
	for !p.atEnd() {
		stmt := p.parseStatement()
		_, isEmpty := stmt.(*ast.Empty)
		_, isScope := stmt.(*ast.Scope)
		_, isIf := stmt.(*ast.If)
		if !isEmpty && !isScope && !isIf && !p.atEnd() {
			p.expect(token.Newline, "expected new line")
		}
		prog.Stmts = append(prog.Stmts, stmt)
	}
	return prog
}
