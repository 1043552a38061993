package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/token"
)

func mustTokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	h := diag.New("test.hdz", src)
	h.SetExiter(func(code int) {
		t.Fatalf("lexer reported a diagnostic and exited with code %d", code)
	})
	return New(src, h).Tokenize()
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestLexKeywordsAndIdent(t *testing.T) {
	toks := mustTokenize(t, "naj abcko furt")
	require.Len(t, toks, 3)
	assert.Equal(t, token.Infer, toks[0].Kind)
	assert.Equal(t, token.Ident, toks[1].Kind)
	assert.Equal(t, "abcko", toks[1].Value)
	assert.Equal(t, token.Const, toks[2].Kind)
}

func TestLexKeywordColumnIsWordStart(t *testing.T) {
	toks := mustTokenize(t, "  furt")
	require.Len(t, toks, 1)
	assert.Equal(t, token.Pos{Line: 1, Col: 3}, toks[0].Pos)
}

func TestLexDecimalAndHexInt(t *testing.T) {
	toks := mustTokenize(t, "42 0x2A 0X10")
	require.Len(t, toks, 3)
	assert.Equal(t, token.IntLit, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Value)
	assert.Equal(t, token.IntLit, toks[1].Kind)
	assert.Equal(t, "42", toks[1].Value)
	assert.Equal(t, token.IntLit, toks[2].Kind)
	assert.Equal(t, "16", toks[2].Value)
}

func TestLexCharLiteralAndEscapes(t *testing.T) {
	toks := mustTokenize(t, `'a' '\n' '\t' '\0'`)
	require.Len(t, toks, 4)
	assert.Equal(t, "97", toks[0].Value)
	assert.Equal(t, "10", toks[1].Value)
	assert.Equal(t, "9", toks[2].Value)
	assert.Equal(t, "0", toks[3].Value)
}

func TestLexStringLiteralAsByteList(t *testing.T) {
	toks := mustTokenize(t, `"ab\n"`)
	require.Len(t, toks, 1)
	assert.Equal(t, token.StrLit, toks[0].Kind)
	assert.Equal(t, "97,98,10", toks[0].Value)
}

func TestLexEmptyCharLiteralIsError(t *testing.T) {
	h := diag.New("test.hdz", "''")
	exited := false
	h.SetExiter(func(code int) {
		exited = true
		panic("stop")
	})
	assert.Panics(t, func() {
		New("''", h).Tokenize()
	})
	assert.True(t, exited)
}

func TestLexSymbolsTwoBeforeOne(t *testing.T) {
	// "!" alone is not in the grammar (only "!=" is), so this string never
	// produces a lone '!'.
	toks := mustTokenize(t, "== = != <= < ++ +")
	got := kinds(toks)
	want := []token.Kind{
		token.IsEqual, token.Equals, token.IsNotEqual,
		token.LessOrEqual, token.LessThan,
		token.Increment, token.Plus,
	}
	assert.Equal(t, want, got)
}

func TestLexCommentsAreSkipped(t *testing.T) {
	toks := mustTokenize(t, "naj // line comment\nabc /* block\ncomment */ def")
	got := kinds(toks)
	// one collapsed NEWLINE between "naj" and the identifiers that follow
	want := []token.Kind{token.Infer, token.Newline, token.Ident, token.Ident}
	assert.Equal(t, want, got)
}

func TestLexNewlinesCollapse(t *testing.T) {
	toks := mustTokenize(t, "naj\n\n\nabc")
	got := kinds(toks)
	assert.Equal(t, []token.Kind{token.Infer, token.Newline, token.Ident}, got)
}

func TestLexFullDeclaration(t *testing.T) {
	toks := mustTokenize(t, "cif x = 5 + 3")
	got := kinds(toks)
	want := []token.Kind{token.Int, token.Ident, token.Equals, token.IntLit, token.Plus, token.IntLit}
	assert.Equal(t, want, got)
}

// Full-token comparisons (kind, value, and position together) are asserted
// with go-cmp rather than testify's reflect.DeepEqual wrapper, so a mismatch
// prints a structural diff instead of two opaque %+v dumps.
func TestLexFullTokensIncludingPositions(t *testing.T) {
	toks := mustTokenize(t, "naj x")
	want := []token.Token{
		{Kind: token.Infer, Pos: token.Pos{Line: 1, Col: 1}},
		{Kind: token.Ident, Value: "x", Pos: token.Pos{Line: 1, Col: 5}},
	}
	if diff := cmp.Diff(want, toks); diff != "" {
		t.Errorf("token stream mismatch (-want +got):\n%s", diff)
	}
}
