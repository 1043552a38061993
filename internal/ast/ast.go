// Package ast defines the tagged-union syntax tree produced by the parser
// and consumed by the type checker and code generator (spec §3).
//
// Each union (Stmt, Term, Reassign, IfPred) is modelled as a small sealed
// interface implemented only by the concrete node types declared here; a
// private marker method keeps the set closed so a switch over it can be
// exhaustive without a default case hiding a missed variant.
package ast

import "github.com/juripan/hdzc/internal/token"

// Program is the root of every compilation: a flat statement sequence.
type Program struct {
	Stmts []Stmt
}

// Stmt is implemented by every statement node.
type Stmt interface {
	stmtNode()
	Pos() token.Pos
}

// Expr is implemented by Term and BinExpr.
type Expr interface {
	exprNode()
	Pos() token.Pos
}

// Term is implemented by every term node. Indexing is a property of the
// term (spec §3), so every variant embeds an optional Index expression
// rather than indexing being its own AST node.
type Term interface {
	Expr
	termNode()
	IndexExpr() Expr
}

// Reassign is implemented by the three reassignment forms.
type Reassign interface {
	Stmt
	reassignNode()
}

// IfPred is implemented by the elif/else tail of an if-chain.
type IfPred interface {
	ifPredNode()
	Pos() token.Pos
}

// Type is a closed primitive tag plus an optional subtype, used by str
// (byte subtype) and array (element subtype). Infer is a sentinel resolved
// away during type checking (spec §3, §4.4).
type Type struct {
	Primitive token.Kind // one of token.Infer, Int, Bool, Char, Str, or a marker for Array
	Sub       *Type
}

// ArrayPrimitive is a synthetic primitive tag for array types; it is not a
// lexical keyword (arrays are spelled `T[]` at the type level, see parser),
// so it lives outside token.Kind's keyword range but reuses the same type
// for uniformity with Type.Primitive.
const ArrayPrimitive token.Kind = -1

func (t Type) String() string {
	switch t.Primitive {
	case token.Infer:
		return "naj"
	case token.Int:
		return "cif"
	case token.Bool:
		return "bul"
	case token.Char:
		return "znak"
	case token.Str:
		return "lancok"
	case ArrayPrimitive:
		if t.Sub != nil {
			return t.Sub.String() + "[]"
		}
		return "[]"
	default:
		return "?"
	}
}

// Equal reports structural type equality (primitive and, recursively, subtype).
func (t Type) Equal(other Type) bool {
	if t.Primitive != other.Primitive {
		return false
	}
	if t.Sub == nil && other.Sub == nil {
		return true
	}
	if t.Sub == nil || other.Sub == nil {
		return false
	}
	return t.Sub.Equal(*other.Sub)
}

// IsPrimitive reports whether t has no meaningful subtype.
func (t Type) IsPrimitive() bool {
	return t.Primitive != token.Str && t.Primitive != ArrayPrimitive
}

// ---- statements ----

type Declare struct {
	Ident   token.Token
	Expr    Expr
	Type    Type
	IsConst bool
}

func (*Declare) stmtNode()        {}
func (d *Declare) Pos() token.Pos { return d.Ident.Pos }

type Scope struct {
	Stmts     []Stmt
	OpenBrace token.Pos
}

func (*Scope) stmtNode()        {}
func (s *Scope) Pos() token.Pos { return s.OpenBrace }

type If struct {
	KwPos token.Pos
	Cond  Expr
	Body  *Scope
	Pred  IfPred // nil if no elif/else chain follows
}

func (*If) stmtNode()        {}
func (i *If) Pos() token.Pos { return i.KwPos }

type While struct {
	KwPos token.Pos
	Cond  Expr
	Body  *Scope
}

func (*While) stmtNode()        {}
func (w *While) Pos() token.Pos { return w.KwPos }

type DoWhile struct {
	KwPos token.Pos
	Body  *Scope
	Cond  Expr
}

func (*DoWhile) stmtNode()        {}
func (d *DoWhile) Pos() token.Pos { return d.KwPos }

type For struct {
	KwPos token.Pos
	Init  *Declare
	Cond  Expr
	Post  Reassign
	Body  *Scope
}

func (*For) stmtNode()        {}
func (f *For) Pos() token.Pos { return f.KwPos }

type Exit struct {
	KwPos token.Pos
	Expr  Expr
}

func (*Exit) stmtNode()        {}
func (e *Exit) Pos() token.Pos { return e.KwPos }

type Print struct {
	KwPos token.Pos
	Expr  Expr
	// ContentIsStr is filled in by the type checker (spec §4.4: "records
	// which to pick the right emission") so codegen never re-derives it.
	ContentIsStr bool
}

func (*Print) stmtNode()        {}
func (p *Print) Pos() token.Pos { return p.KwPos }

type Break struct {
	KwPos token.Pos
}

func (*Break) stmtNode()        {}
func (b *Break) Pos() token.Pos { return b.KwPos }

type Empty struct {
	At token.Pos
}

func (*Empty) stmtNode()        {}
func (e *Empty) Pos() token.Pos { return e.At }

// ---- reassignment ----

type ReassignEq struct {
	Target Term
	Value  Expr
}

func (*ReassignEq) stmtNode()        {}
func (*ReassignEq) reassignNode()    {}
func (r *ReassignEq) Pos() token.Pos { return r.Target.Pos() }

type ReassignInc struct {
	Target Term
}

func (*ReassignInc) stmtNode()        {}
func (*ReassignInc) reassignNode()    {}
func (r *ReassignInc) Pos() token.Pos { return r.Target.Pos() }

type ReassignDec struct {
	Target Term
}

func (*ReassignDec) stmtNode()        {}
func (*ReassignDec) reassignNode()    {}
func (r *ReassignDec) Pos() token.Pos { return r.Target.Pos() }

// ---- if-predicate chain ----

type Elif struct {
	KwPos token.Pos
	Cond  Expr
	Body  *Scope
	Next  IfPred // nil terminates the chain
}

func (*Elif) ifPredNode()       {}
func (e *Elif) Pos() token.Pos  { return e.KwPos }

type Else struct {
	KwPos token.Pos
	Body  *Scope
}

func (*Else) ifPredNode()       {}
func (e *Else) Pos() token.Pos  { return e.KwPos }

// ---- expressions ----

type BinExpr struct {
	LHS, RHS Expr
	Op       token.Token
}

func (*BinExpr) exprNode()        {}
func (b *BinExpr) Pos() token.Pos { return b.Op.Pos }

// base carries the optional index shared by every Term variant.
type base struct {
	Index Expr
}

func (b base) IndexExpr() Expr { return b.Index }
func (base) exprNode()         {}
func (base) termNode()         {}

type IntTerm struct {
	base
	Lit token.Token
}

func (t *IntTerm) Pos() token.Pos { return t.Lit.Pos }

type IdentTerm struct {
	base
	Ident token.Token
}

func (t *IdentTerm) Pos() token.Pos { return t.Ident.Pos }

type CharTerm struct {
	base
	Lit token.Token
}

func (t *CharTerm) Pos() token.Pos { return t.Lit.Pos }

type StrTerm struct {
	base
	Lit token.Token
}

func (t *StrTerm) Pos() token.Pos { return t.Lit.Pos }

type BoolTerm struct {
	base
	Lit token.Token
}

func (t *BoolTerm) Pos() token.Pos { return t.Lit.Pos }

type ParenTerm struct {
	base
	OpenPos token.Pos
	Inner   Expr
}

func (t *ParenTerm) Pos() token.Pos { return t.OpenPos }

type NotTerm struct {
	base
	KwPos   token.Pos
	Operand Term
}

func (t *NotTerm) Pos() token.Pos { return t.KwPos }

type BNotTerm struct {
	base
	OpPos   token.Pos
	Operand Term
}

func (t *BNotTerm) Pos() token.Pos { return t.OpPos }

type CastTerm struct {
	base
	KwPos token.Pos
	Inner Expr
	To    Type
}

func (t *CastTerm) Pos() token.Pos { return t.KwPos }

type ArrayTerm struct {
	base
	OpenPos token.Pos
	Elems   []Expr
}

func (t *ArrayTerm) Pos() token.Pos { return t.OpenPos }
