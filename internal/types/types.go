// Package types implements hdz's type checker (spec §4.4): a single pass
// over the AST that resolves every expression's type, fills in inferred
// declaration types, and aborts on the first mismatch.
//
// original_source/src/typechecker.py threads an explicit mutable
// stack/variables list through every check_* method and mutates each
// NodeTerm in place. This port keeps every per-operator rule and the flat
// (unscoped) variable table verbatim, but replaces the push/pop stack with
// ordinary recursive functions returning ast.Type — the generalization
// spec §9's design note calls for, and the natural shape once AST nodes
// are a closed Go interface instead of Python isinstance chains (see
// parser/validate.go's handler-threading convention for the same idea
// applied to a different pipeline stage).
package types

import (
	"fmt"

	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/token"
)

type variable struct {
	Name    string
	Type    ast.Type
	IsConst bool
	Pos     token.Pos
}

// Checker walks a Program and resolves/validates every type.
type Checker struct {
	vars []variable
	h    *diag.Handler
}

// New constructs a Checker reporting through h.
func New(h *diag.Handler) *Checker {
	return &Checker{h: h}
}

// Check type-checks the whole program, mutating Declare/Print nodes in
// place to record inferred types and printed-content kind.
func (c *Checker) Check(prog *ast.Program) {
	for _, stmt := range prog.Stmts {
		c.checkStmt(stmt)
	}
}

func (c *Checker) lookup(name string, pos token.Pos) variable {
	for i := len(c.vars) - 1; i >= 0; i-- {
		if c.vars[i].Name == name {
			return c.vars[i]
		}
	}
	c.h.Errorf(diag.Value, diag.FromPos(pos), "variable was not declared: %s", name)
	panic("unreachable: Errorf always exits")
}

func (c *Checker) checkStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Exit:
		c.checkExit(s)
	case *ast.Declare:
		c.checkDecl(s)
	case *ast.Scope:
		c.checkScope(s)
	case *ast.If:
		c.checkIf(s)
	case ast.Reassign:
		c.checkReassign(s)
	case *ast.While:
		c.checkWhile(s)
	case *ast.DoWhile:
		c.checkDoWhile(s)
	case *ast.For:
		c.checkFor(s)
	case *ast.Print:
		c.checkPrint(s)
	case *ast.Empty, *ast.Break:
		// nothing to check
	default:
		panic(fmt.Sprintf("unreachable statement kind %T", stmt))
	}
}

func (c *Checker) checkScope(s *ast.Scope) {
	for _, stmt := range s.Stmts {
		c.checkStmt(stmt)
	}
}

func (c *Checker) checkExit(e *ast.Exit) {
	got := c.exprType(e.Expr)
	c.requireType(got, token.Int, e.Expr.Pos())
}

// checkDecl resolves decl.Type (inferring it from the initializer when the
// declared type is `naj`), registers the variable, and fills in the `str`
// byte subtype so later indexing/codegen never has to re-derive it.
func (c *Checker) checkDecl(decl *ast.Declare) {
	exprType := c.exprType(decl.Expr)

	if decl.Type.Primitive == token.Str && decl.Type.Sub == nil {
		decl.Type.Sub = &ast.Type{Primitive: token.Char}
	}

	if decl.Type.Primitive == token.Infer {
		decl.Type = exprType
	} else if !decl.Type.Equal(exprType) {
		c.h.Errorf(diag.Type, diag.FromToken(decl.Ident), "expected type `%s`, got `%s`", decl.Type, exprType)
	}

	c.vars = append(c.vars, variable{
		Name:    decl.Ident.Value,
		Type:    decl.Type,
		IsConst: decl.IsConst,
		Pos:     decl.Ident.Pos,
	})
}

func (c *Checker) checkReassign(r ast.Reassign) {
	switch re := r.(type) {
	case *ast.ReassignEq:
		identTerm, ok := re.Target.(*ast.IdentTerm)
		if !ok {
			panic("unreachable: parser only ever builds ReassignEq over an IdentTerm")
		}
		v := c.lookup(identTerm.Ident.Value, identTerm.Ident.Pos)
		if v.IsConst {
			c.h.Errorf(diag.Value, diag.FromToken(identTerm.Ident), "modification of const identifier: %s", v.Name)
		}
		valType := c.exprType(re.Value)
		if re.Target.IndexExpr() != nil {
			if v.Type.Sub == nil {
				c.h.Errorf(diag.Type, diag.FromPos(v.Pos), "expected indexable type, got `%s`", v.Type)
			}
			// Indexed assignment does not check valType against the
			// element type here, mirroring original_source's
			// check_reassign — which validates only that the target is
			// indexable, not that the stored value's type matches the
			// element type.
		} else if !valType.Equal(v.Type) {
			c.h.Errorf(diag.Type, diag.FromToken(identTerm.Ident), "expected type `%s`, got `%s`", v.Type, valType)
		}
	case *ast.ReassignInc:
		c.requireIntVar(re.Target)
	case *ast.ReassignDec:
		c.requireIntVar(re.Target)
	default:
		panic(fmt.Sprintf("unreachable reassignment kind %T", r))
	}
}

func (c *Checker) requireIntVar(target ast.Term) {
	identTerm, ok := target.(*ast.IdentTerm)
	if !ok {
		panic("unreachable: parser only ever builds inc/dec over an IdentTerm")
	}
	v := c.lookup(identTerm.Ident.Value, identTerm.Ident.Pos)
	if v.Type.Primitive != token.Int {
		c.h.Errorf(diag.Type, diag.FromPos(v.Pos), "cannot increment or decrement a variable of `%s` type", v.Type)
	}
}

func (c *Checker) checkIf(i *ast.If) {
	c.requireBoolOrInt(c.exprType(i.Cond), i.Cond.Pos())
	c.checkScope(i.Body)
	if i.Pred != nil {
		c.checkIfPred(i.Pred)
	}
}

func (c *Checker) checkIfPred(pred ast.IfPred) {
	switch p := pred.(type) {
	case *ast.Elif:
		c.requireBoolOrInt(c.exprType(p.Cond), p.Cond.Pos())
		c.checkScope(p.Body)
		if p.Next != nil {
			c.checkIfPred(p.Next)
		}
	case *ast.Else:
		c.checkScope(p.Body)
	default:
		panic(fmt.Sprintf("unreachable if-predicate kind %T", pred))
	}
}

func (c *Checker) checkWhile(w *ast.While) {
	c.requireBoolOrInt(c.exprType(w.Cond), w.Cond.Pos())
	c.checkScope(w.Body)
}

func (c *Checker) checkDoWhile(d *ast.DoWhile) {
	c.checkScope(d.Body)
	c.requireBoolOrInt(c.exprType(d.Cond), d.Cond.Pos())
}

// checkFor requires a strictly-bool condition, unlike if/while/do-while
// which also accept int — a distinction original_source/src/typechecker.py
// draws deliberately (check_for uses `!= BOOL_DEF`, every other loop/branch
// form uses `not in (BOOL_DEF, INT_DEF)`), kept as-is.
func (c *Checker) checkFor(f *ast.For) {
	c.checkDecl(f.Init)
	c.requireType(c.exprType(f.Cond), token.Bool, f.Cond.Pos())
	c.checkScope(f.Body)
	c.checkReassign(f.Post)
}

func (c *Checker) checkPrint(p *ast.Print) {
	got := c.exprType(p.Expr)
	if got.Primitive != token.Char && got.Primitive != token.Str {
		c.h.Errorf(diag.Type, diag.FromPos(p.Expr.Pos()), "expected type `%s` or `%s`", ast.Type{Primitive: token.Char}, ast.Type{Primitive: token.Str})
	}
	p.ContentIsStr = got.Primitive == token.Str
}

// ---- expressions ----

func (c *Checker) exprType(e ast.Expr) ast.Type {
	switch v := e.(type) {
	case *ast.BinExpr:
		return c.binExprType(v)
	case ast.Term:
		return c.termType(v)
	default:
		panic(fmt.Sprintf("unreachable expression kind %T", e))
	}
}

func (c *Checker) termType(t ast.Term) ast.Type {
	base := c.baseTermType(t)
	idx := t.IndexExpr()
	if idx == nil {
		return base
	}

	idxType := c.exprType(idx)
	c.requireType(idxType, token.Int, idx.Pos())

	if base.Sub == nil {
		c.h.Errorf(diag.Type, diag.FromPos(t.Pos()), "expected indexable type, got `%s`", base)
	}
	return *base.Sub
}

func (c *Checker) baseTermType(t ast.Term) ast.Type {
	switch v := t.(type) {
	case *ast.IntTerm:
		return ast.Type{Primitive: token.Int}
	case *ast.IdentTerm:
		return c.lookup(v.Ident.Value, v.Ident.Pos).Type
	case *ast.CharTerm:
		return ast.Type{Primitive: token.Char}
	case *ast.StrTerm:
		return ast.Type{Primitive: token.Str, Sub: &ast.Type{Primitive: token.Char}}
	case *ast.BoolTerm:
		return ast.Type{Primitive: token.Bool}
	case *ast.ParenTerm:
		return c.exprType(v.Inner)
	case *ast.NotTerm:
		operand := c.termType(v.Operand)
		c.requireType(operand, token.Bool, v.Operand.Pos())
		return ast.Type{Primitive: token.Bool}
	case *ast.BNotTerm:
		operand := c.termType(v.Operand)
		c.requireType(operand, token.Int, v.Operand.Pos())
		return ast.Type{Primitive: token.Int}
	case *ast.CastTerm:
		return c.castType(v)
	case *ast.ArrayTerm:
		return c.arrayType(v)
	default:
		panic(fmt.Sprintf("unreachable term kind %T", t))
	}
}

// castType resolves a `T(expr)` cast. Casting anything to `lancok` is
// surfaced as a regular Type diagnostic: original_source raises a bare
// NotImplementedError for this (a Python crash, not a reported compiler
// error), which a real compiler should never do for ordinary — if
// currently unsupported — user syntax.
func (c *Checker) castType(t *ast.CastTerm) ast.Type {
	if t.To.Primitive == token.Str {
		c.h.Error(diag.Type, "casting to `lancok` is not supported", diag.FromPos(t.KwPos))
	}
	inner := c.exprType(t.Inner)
	if inner.Primitive == token.Str && t.To.Primitive == token.Char {
		c.h.Errorf(diag.Type, diag.FromPos(t.KwPos), "cannot cast `%s` to `%s`", ast.Type{Primitive: token.Str}, ast.Type{Primitive: token.Char})
	}
	return t.To
}

// arrayType requires every element to share one type (original_source's
// check_term does the same pairwise comparison) and rejects an empty
// literal outright: the parser accepts `[]` syntactically, but the
// original assumed array literals are never empty (an unchecked
// assertion), so hdzc reports it instead of risking a nil subtype later.
func (c *Checker) arrayType(t *ast.ArrayTerm) ast.Type {
	if len(t.Elems) == 0 {
		c.h.Error(diag.Type, "array literal cannot be empty", diag.FromPos(t.OpenPos))
	}
	elemType := c.exprType(t.Elems[0])
	for _, e := range t.Elems[1:] {
		got := c.exprType(e)
		if !got.Equal(elemType) {
			c.h.Errorf(diag.Type, diag.FromPos(e.Pos()), "expected `%s`, got `%s`", elemType, got)
		}
	}
	return ast.Type{Primitive: ast.ArrayPrimitive, Sub: &elemType}
}

var comparisonOps = map[token.Kind]bool{
	token.IsEqual:        true,
	token.IsNotEqual:     true,
	token.LessThan:       true,
	token.GreaterThan:    true,
	token.LessOrEqual:    true,
	token.GreaterOrEqual: true,
}

// arithOrBitwiseOps are the operators requiring two `cif` operands.
// original_source/src/typechecker.py's equivalent tuple omits `%` (PERCENT),
// which would crash the original's check_binary_expression on any modulo
// expression (it falls through to an unconditional `raise
// ValueError("Unreachable")`) even though `%` is ordinary, documented
// syntax (spec §4.3). `%` is included here rather than reproduced as a
// crash on valid input.
var arithOrBitwiseOps = map[token.Kind]bool{
	token.ShiftLeft:  true,
	token.ShiftRight: true,
	token.BOr:        true,
	token.BAnd:       true,
	token.BXor:       true,
	token.Plus:       true,
	token.Minus:      true,
	token.Star:       true,
	token.Slash:      true,
	token.Percent:    true,
}

func (c *Checker) binExprType(b *ast.BinExpr) ast.Type {
	lhs := c.exprType(b.LHS)
	rhs := c.exprType(b.RHS)

	switch {
	case comparisonOps[b.Op.Kind]:
		c.requireIntOrChar(lhs, b.LHS.Pos())
		c.requireIntOrChar(rhs, b.RHS.Pos())
		return ast.Type{Primitive: token.Bool}
	case b.Op.Kind == token.And || b.Op.Kind == token.Or:
		c.requireType(lhs, token.Bool, b.LHS.Pos())
		c.requireType(rhs, token.Bool, b.RHS.Pos())
		return ast.Type{Primitive: token.Bool}
	case arithOrBitwiseOps[b.Op.Kind]:
		c.requireType(lhs, token.Int, b.LHS.Pos())
		c.requireType(rhs, token.Int, b.RHS.Pos())
		return ast.Type{Primitive: token.Int}
	default:
		panic(fmt.Sprintf("unreachable binary operator %s", b.Op.Kind))
	}
}

// ---- shared requirement checks ----

func (c *Checker) requireType(got ast.Type, want token.Kind, pos token.Pos) {
	if got.Primitive != want {
		c.h.Errorf(diag.Type, diag.FromPos(pos), "expected type `%s`, got `%s`", ast.Type{Primitive: want}, got)
	}
}

// requireIntOrChar keeps the original's message text ("expected type
// `cif`"), even though `znak` is silently accepted too — a cosmetic quirk
// of original_source/src/typechecker.py's comparison check, harmless
// enough to leave as-is.
func (c *Checker) requireIntOrChar(got ast.Type, pos token.Pos) {
	if got.Primitive != token.Int && got.Primitive != token.Char {
		c.h.Errorf(diag.Type, diag.FromPos(pos), "expected type `%s`, got `%s`", ast.Type{Primitive: token.Int}, got)
	}
}

func (c *Checker) requireBoolOrInt(got ast.Type, pos token.Pos) {
	if got.Primitive != token.Bool && got.Primitive != token.Int {
		c.h.Errorf(diag.Type, diag.FromPos(pos), "expected type `%s` or `%s`, got `%s`", ast.Type{Primitive: token.Bool}, ast.Type{Primitive: token.Int}, got)
	}
}
