package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/lexer"
	"github.com/juripan/hdzc/internal/token"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	h := diag.New("test.hdz", src)
	h.SetExiter(func(code int) {
		t.Fatalf("parser reported a diagnostic and exited with code %d", code)
	})
	toks := lexer.New(src, h).Tokenize()
	return Parse(toks, h)
}

func TestParseDeclareInferred(t *testing.T) {
	prog := mustParse(t, "naj x = 5")
	require.Len(t, prog.Stmts, 1)
	decl, ok := prog.Stmts[0].(*ast.Declare)
	require.True(t, ok)
	assert.Equal(t, token.Infer, decl.Type.Primitive)
	assert.False(t, decl.IsConst)
	assert.Equal(t, "x", decl.Ident.Value)
}

func TestParseConstInferredWithoutNaj(t *testing.T) {
	prog := mustParse(t, "furt x = 5")
	decl := prog.Stmts[0].(*ast.Declare)
	assert.True(t, decl.IsConst)
	assert.Equal(t, token.Infer, decl.Type.Primitive)
}

func TestParseArrayType(t *testing.T) {
	prog := mustParse(t, "cif[] xs = [1, 2, 3]")
	decl := prog.Stmts[0].(*ast.Declare)
	assert.Equal(t, ast.ArrayPrimitive, decl.Type.Primitive)
	require.NotNil(t, decl.Type.Sub)
	assert.Equal(t, token.Int, decl.Type.Sub.Primitive)

	arr, ok := decl.Expr.(*ast.ArrayTerm)
	require.True(t, ok)
	assert.Len(t, arr.Elems, 3)
}

func TestParseBinaryPrecedence(t *testing.T) {
	prog := mustParse(t, "naj x = 1 + 2 * 3")
	decl := prog.Stmts[0].(*ast.Declare)
	bin, ok := decl.Expr.(*ast.BinExpr)
	require.True(t, ok)
	assert.Equal(t, token.Plus, bin.Op.Kind)

	lhs, ok := bin.LHS.(*ast.IntTerm)
	require.True(t, ok)
	assert.Equal(t, "1", lhs.Lit.Value)

	rhs, ok := bin.RHS.(*ast.BinExpr)
	require.True(t, ok)
	assert.Equal(t, token.Star, rhs.Op.Kind)
}

func TestParseIfElifElse(t *testing.T) {
	// newlines between a closing brace and a following ikec/inac are
	// skipped; here each branch sits directly against the prior brace.
	prog := mustParse(t, "kec pravda {\nhutor(1)\n}ikec klamstvo {\nhutor(2)\n}inac {\nhutor(3)\n}")
	ifStmt, ok := prog.Stmts[0].(*ast.If)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Pred)

	elif, ok := ifStmt.Pred.(*ast.Elif)
	require.True(t, ok)
	require.NotNil(t, elif.Next)

	_, ok = elif.Next.(*ast.Else)
	assert.True(t, ok)
}

func TestParseForLoop(t *testing.T) {
	prog := mustParse(t, "sicke (cif i = 0, i < 10, i++) {\nhutor(i)\n}")
	forStmt, ok := prog.Stmts[0].(*ast.For)
	require.True(t, ok)
	assert.Equal(t, "i", forStmt.Init.Ident.Value)

	_, ok = forStmt.Post.(*ast.ReassignInc)
	assert.True(t, ok)
}

func TestParseDoWhile(t *testing.T) {
	prog := mustParse(t, "zrob {\nhutor(1)\n} kim pravda")
	_, ok := prog.Stmts[0].(*ast.DoWhile)
	assert.True(t, ok)
}

func TestParseReassignIncDec(t *testing.T) {
	prog := mustParse(t, "naj x = 0\nx++\nx--")
	_, ok := prog.Stmts[1].(*ast.ReassignInc)
	assert.True(t, ok)
	_, ok = prog.Stmts[2].(*ast.ReassignDec)
	assert.True(t, ok)
}

func TestParseIndexExpr(t *testing.T) {
	prog := mustParse(t, "cif[] xs = [1, 2]\nnaj y = xs[0]")
	decl := prog.Stmts[1].(*ast.Declare)
	ident, ok := decl.Expr.(*ast.IdentTerm)
	require.True(t, ok)
	require.NotNil(t, ident.IndexExpr())
}

func TestParseCast(t *testing.T) {
	prog := mustParse(t, "naj x = cif(5)")
	decl := prog.Stmts[0].(*ast.Declare)
	cast, ok := decl.Expr.(*ast.CastTerm)
	require.True(t, ok)
	assert.Equal(t, token.Int, cast.To.Primitive)
}

func TestParseNotAndBNot(t *testing.T) {
	prog := mustParse(t, "naj a = ne pravda\nnaj b = ~5")
	not, ok := prog.Stmts[0].(*ast.Declare).Expr.(*ast.NotTerm)
	require.True(t, ok)
	assert.NotNil(t, not.Operand)

	bnot, ok := prog.Stmts[1].(*ast.Declare).Expr.(*ast.BNotTerm)
	require.True(t, ok)
	assert.NotNil(t, bnot.Operand)
}

func TestParseEmptyScope(t *testing.T) {
	prog := mustParse(t, "kec pravda {}")
	ifStmt := prog.Stmts[0].(*ast.If)
	assert.Len(t, ifStmt.Body.Stmts, 1)
	_, ok := ifStmt.Body.Stmts[0].(*ast.Empty)
	assert.True(t, ok)
}

func TestParseNegativeIntFolds(t *testing.T) {
	prog := mustParse(t, "naj x = -5")
	decl := prog.Stmts[0].(*ast.Declare)
	lit := decl.Expr.(*ast.IntTerm)
	assert.Equal(t, "-5", lit.Lit.Value)
}
