package codegen

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/lexer"
	"github.com/juripan/hdzc/internal/parser"
	"github.com/juripan/hdzc/internal/types"
)

func mustGenerate(t *testing.T, src string) string {
	t.Helper()
	h := diag.New("test.hdz", src)
	h.SetExiter(func(code int) {
		t.Fatalf("codegen reported a diagnostic and exited with code %d", code)
	})
	toks := lexer.New(src, h).Tokenize()
	prog := parser.Parse(toks, h)
	types.New(h).Check(prog)
	return Generate(prog, h)
}

func expectGenDiagnostic(t *testing.T, src string) {
	t.Helper()
	h := diag.New("test.hdz", src)
	exited := false
	h.SetExiter(func(code int) {
		exited = true
		panic("diagnostic")
	})
	assert.Panics(t, func() {
		toks := lexer.New(src, h).Tokenize()
		prog := parser.Parse(toks, h)
		types.New(h).Check(prog)
		Generate(prog, h)
	})
	assert.True(t, exited)
}

func TestGenerateHasProgramSkeleton(t *testing.T) {
	asm := mustGenerate(t, "vychod(0)")
	require.True(t, strings.Contains(asm, "segment readable executable"))
	require.True(t, strings.Contains(asm, "entry _start"))
	require.True(t, strings.Contains(asm, "_start:"))
	require.False(t, strings.Contains(asm, "segment readable writeable"))
}

func TestGenerateDataSegmentOnlyEmittedWhenNeeded(t *testing.T) {
	asm := mustGenerate(t, `hutor("hi")`)
	require.True(t, strings.Contains(asm, "segment readable writeable"))
}

func TestGenerateExitLiteral(t *testing.T) {
	asm := mustGenerate(t, "vychod(0)")
	assert.Contains(t, asm, "mov DWORD [rbp - 4], 0 ;push")
	assert.Contains(t, asm, "mov rax, 60")
	assert.Contains(t, asm, "syscall")
}

func TestGenerateDefaultExitEpilogue(t *testing.T) {
	asm := mustGenerate(t, "naj x = 5")
	assert.Contains(t, asm, "mov rax, 60")
	assert.Contains(t, asm, "mov rdi, 0")
}

func TestGenerateDeclareThenReassign(t *testing.T) {
	asm := mustGenerate(t, "naj x = 5\nx = 6")
	assert.Contains(t, asm, ";; --- var reassign ---")
}

func TestGenerateIncDec(t *testing.T) {
	asm := mustGenerate(t, "naj x = 5\nx++\nx--")
	assert.Contains(t, asm, "inc ")
	assert.Contains(t, asm, "dec ")
}

func TestGeneratePrintChar(t *testing.T) {
	asm := mustGenerate(t, `hutor('h')`)
	assert.Contains(t, asm, ";; --- print char ---")
	assert.Contains(t, asm, "lea rsi,")
}

func TestGeneratePrintStr(t *testing.T) {
	asm := mustGenerate(t, `hutor("hi")`)
	assert.Contains(t, asm, ";; --- print str ---")
	assert.Contains(t, asm, "db 104,105")
}

func TestGenerateIfElse(t *testing.T) {
	asm := mustGenerate(t, "kec pravda {\nhutor('a')\n}inac {\nhutor('b')\n}")
	assert.Contains(t, asm, ";; --- if block ---")
	assert.Contains(t, asm, ";; --- else ---")
}

func TestGenerateWhileLoop(t *testing.T) {
	asm := mustGenerate(t, "naj x = 0\nkim x < 5 {\nx++\n}")
	assert.Contains(t, asm, ";; --- while loop ---")
}

func TestGenerateDoWhileLoop(t *testing.T) {
	asm := mustGenerate(t, "naj x = 0\nzrob {\nx++\n} kim x < 5")
	assert.Contains(t, asm, ";; --- do while loop ---")
}

func TestGenerateForLoop(t *testing.T) {
	asm := mustGenerate(t, "sicke (cif i = 0, i < 5, i++) {\nhutor('a')\n}")
	assert.Contains(t, asm, ";; --- for loop ---")
}

func TestGenerateBreakInsideLoop(t *testing.T) {
	asm := mustGenerate(t, "kim pravda {\nkonec\n}")
	assert.Contains(t, asm, ";; --- break ---")
}

func TestGenerateBreakOutsideLoopIsError(t *testing.T) {
	expectGenDiagnostic(t, "konec")
}

func TestGenerateArithmeticOperators(t *testing.T) {
	asm := mustGenerate(t, "naj x = 5 + 1 - 2 * 3 / 1 % 2")
	assert.Contains(t, asm, "add ")
	assert.Contains(t, asm, "sub ")
	assert.Contains(t, asm, "mul ")
	assert.Contains(t, asm, "idiv ")
}

func TestGenerateBitwiseAndShiftOperators(t *testing.T) {
	asm := mustGenerate(t, "naj x = (5 & 1) | (2 ^ 3)")
	asm2 := mustGenerate(t, "naj y = 5 << 1")
	asm3 := mustGenerate(t, "naj z = 5 >> 1")
	assert.Contains(t, asm, "and ")
	assert.Contains(t, asm, "or ")
	assert.Contains(t, asm, "xor ")
	assert.Contains(t, asm2, "shl ")
	assert.Contains(t, asm3, "shr ")
}

func TestGenerateComparison(t *testing.T) {
	asm := mustGenerate(t, "naj x = 5 > 1")
	assert.Contains(t, asm, "cmp ")
	assert.Contains(t, asm, "setg al")
}

func TestGenerateLogical(t *testing.T) {
	asm := mustGenerate(t, "naj x = pravda aj klamstvo")
	assert.Contains(t, asm, "setne al")
}

func TestGenerateNotAndBNot(t *testing.T) {
	asm := mustGenerate(t, "naj x = ne pravda")
	asm2 := mustGenerate(t, "naj y = ~5")
	assert.Contains(t, asm, "sete al")
	assert.Contains(t, asm2, "not ")
}

func TestGenerateCast(t *testing.T) {
	asm := mustGenerate(t, "naj x = cif(pravda)")
	assert.Contains(t, asm, "mov ")
}

func TestGenerateArrayLiteralIsNotImplemented(t *testing.T) {
	expectGenDiagnostic(t, "cif[] xs = [1, 2, 3]")
}

func TestGenerateIndexingIsNotImplemented(t *testing.T) {
	expectGenDiagnostic(t, "naj s = \"hi\"\nnaj c = s[0]")
}

// TestGenerateExitLiteralGolden demonstrates the exact emitted instruction
// sequence for the smallest possible program, diffed with go-difflib so a
// future regression shows a readable unified diff instead of a raw string
// mismatch.
func TestGenerateExitLiteralGolden(t *testing.T) {
	asm := mustGenerate(t, "vychod(42)")
	want := "    mov DWORD [rbp - 4], 42 ;push\n"
	if !strings.Contains(asm, want) {
		diffText, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(want),
			B:        difflib.SplitLines(asm),
			FromFile: "want (substring)",
			ToFile:   "got",
			Context:  1,
		})
		t.Fatalf("missing expected instruction:\n%s", diffText)
	}
}
