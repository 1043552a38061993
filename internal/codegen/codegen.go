// Package codegen lowers a type-checked AST to x86-64 FASM assembly
// (spec §4.5): a compile-time virtual stack model tracks where every
// pushed value lives relative to rbp, and every statement/expression emits
// straight-line instructions against it — no register allocator, no
// optimization pass.
//
// The instruction sequences themselves (push/pop bookkeeping, the
// comparison/logical/arithmetic emission shapes, the syscall helpers) are
// ported near line-for-line from original_source/src/generator.py, since
// that file *is* the codegen specification — spec §4.5 only summarizes it.
// The overall CodeGen shape (a strings.Builder output buffer with small
// line/comment helpers) is grounded on
// other_examples/213763c9_smasonuk-sicpu__pkg-compiler-codegen.go.go's
// CodeGen struct, since the teacher (bufbuild-protocompile) has no
// assembly backend to imitate.
package codegen

import (
	"fmt"
	"strings"

	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/token"
)

var registers = map[int][16]string{
	1: {"al", "bl", "cl", "dl", "sil", "dil", "spl", "bpl", "r8b", "r9b", "r10b", "r11b", "r12b", "r13b", "r14b", "r15b"},
	2: {"ax", "bx", "cx", "dx", "si", "di", "sp", "bp", "r8w", "r9w", "r10w", "r11w", "r12w", "r13w", "r14w", "r15w"},
	4: {"eax", "ebx", "ecx", "edx", "esi", "edi", "esp", "ebp", "r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d"},
	8: {"rax", "rbx", "rcx", "rdx", "rsi", "rdi", "rsp", "rbp", "r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15"},
}

func typeWordSize(t ast.Type) (word string, size int) {
	switch t.Primitive {
	case token.Int:
		return "DWORD", 4
	case token.Bool, token.Char:
		return "BYTE", 1
	case token.Str:
		return "STR", 8
	default:
		return "DWORD", 4
	}
}

type variable struct {
	name     string
	loc      int
	wordSize string
	byteSize int
}

func (v variable) isStr() bool { return v.wordSize == "STR" }

// Gen walks a checked *ast.Program and assembles FASM output.
type Gen struct {
	h    *diag.Handler
	out  strings.Builder
	data []string

	stackSize int
	itemSizes []int
	// padding holds, per pushed item, the alignment bytes align() inserted
	// immediately before that item — tracked as its own parallel stack so
	// popStack can reverse exactly what was added, instead of folding
	// padding into stackSize the way push_stack's Python original does
	// (whose pop_stack only ever subtracts the item's own size, so any
	// padding byte align_stack() inserted is never reclaimed and
	// stackSize drifts upward over the life of the program).
	padding []int

	variables []variable
	scopes    []int

	labelCount int
	loopEnds   []string
}

// New constructs a Gen reporting through h.
func New(h *diag.Handler) *Gen {
	return &Gen{h: h, scopes: []int{0}}
}

func (g *Gen) line(format string, args ...any) {
	g.out.WriteString("    ")
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

func (g *Gen) raw(s string) { g.out.WriteString(s) }

func (g *Gen) comment(text string) { g.line(";; --- %s ---", text) }

func (g *Gen) createLabel(prefix string) string {
	g.labelCount++
	return fmt.Sprintf(".lbl%s%d", prefix, g.labelCount)
}

// align pads stackSize to an even boundary, the way align_stack() does,
// and returns the pad amount so the caller can record it in g.padding.
func (g *Gen) align() int {
	if g.stackSize%2 == 0 {
		return 0
	}
	pad := 2 - g.stackSize%2
	g.stackSize += pad
	return pad
}

// pushStack mirrors push_stack: classifies src by register name or an
// explicit word-size keyword, aligns, and emits a mov into the next stack
// slot.
func (g *Gen) pushStack(src, wordSize string) {
	size, reg, word := g.classify(src, wordSize)

	pad := g.align()
	g.stackSize += size
	g.itemSizes = append(g.itemSizes, size)
	g.padding = append(g.padding, pad)

	if !strings.Contains(src, "[") {
		g.line("mov %s [rbp - %d], %s ;push", word, g.stackSize, src)
	} else {
		g.line("mov %s, %s", reg, src)
		g.line("mov %s [rbp - %d], %s ;push", word, g.stackSize, reg)
	}
}

func (g *Gen) classify(src, wordSize string) (size int, reg, word string) {
	switch {
	case contains(registers[8][:], src) || strings.HasPrefix(src, "QWORD") || wordSize == "QWORD":
		return 8, "rax", "QWORD"
	case contains(registers[4][:], src) || strings.HasPrefix(src, "DWORD") || wordSize == "DWORD":
		return 4, "eax", "DWORD"
	case contains(registers[2][:], src) || strings.HasPrefix(src, "WORD") || wordSize == "WORD":
		return 2, "ax", "WORD"
	case contains(registers[1][:], src) || strings.HasPrefix(src, "BYTE") || wordSize == "BYTE":
		return 1, "al", "BYTE"
	default:
		g.h.Error(diag.Generator, "invalid register / WORD size in codegen", diag.Location{})
		return 0, "", ""
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

// pushStackComplex pushes a multi-word value (only used for strings: a
// 4-byte length followed by a 4-byte data-label pointer) as one logical
// stack item.
func (g *Gen) pushStackComplex(items []string, wordSize string, byteSize int) {
	pad := g.align()
	for _, item := range items {
		g.stackSize += byteSize
		g.line("mov %s [rbp - %d], %s ;push", wordSize, g.stackSize, item)
	}
	total := byteSize * len(items)
	g.itemSizes = append(g.itemSizes, total)
	g.padding = append(g.padding, pad)
}

func (g *Gen) popStack(destReg string) {
	g.line("mov %s, [rbp - %d] ;pop", destReg, g.stackSize)
	n := len(g.itemSizes)
	size := g.itemSizes[n-1]
	pad := g.padding[n-1]
	g.itemSizes = g.itemSizes[:n-1]
	g.padding = g.padding[:n-1]
	g.stackSize -= size + pad
}

func (g *Gen) getReg(idx int) string {
	if len(g.itemSizes) == 0 {
		g.h.Error(diag.Generator, "stack underflow in codegen", diag.Location{})
	}
	size := g.itemSizes[len(g.itemSizes)-1]
	return registers[size][idx]
}

func (g *Gen) beginScope() { g.scopes = append(g.scopes, len(g.variables)) }

func (g *Gen) endScope() {
	n := len(g.scopes)
	keep := g.scopes[n-1]
	g.scopes = g.scopes[:n-1]

	popCount := len(g.variables) - keep
	if popCount == 0 {
		return
	}
	poppedSize := 0
	for i := len(g.itemSizes) - popCount; i < len(g.itemSizes); i++ {
		poppedSize += g.itemSizes[i] + g.padding[i]
	}
	g.stackSize -= poppedSize
	g.variables = g.variables[:len(g.variables)-popCount]
	g.itemSizes = g.itemSizes[:len(g.itemSizes)-popCount]
	g.padding = g.padding[:len(g.padding)-popCount]
}

func (g *Gen) findVar(name string) (variable, bool) {
	for i := len(g.variables) - 1; i >= 0; i-- {
		if g.variables[i].name == name {
			return g.variables[i], true
		}
	}
	return variable{}, false
}

// ---- terms ----

func (g *Gen) genTerm(t ast.Term) {
	if t.IndexExpr() != nil {
		// Array/string indexing is fully parsed and type-checked (spec
		// §4.4) but, like original_source/src/generator.py (which never
		// even inspects term.index), is not lowered to assembly.
		g.h.Error(diag.Generator, "indexing is not implemented in code generation", diag.FromPos(t.Pos()))
		return
	}

	switch v := t.(type) {
	case *ast.IntTerm:
		g.pushStack(v.Lit.Value, "DWORD")

	case *ast.IdentTerm:
		varCtx, ok := g.findVar(v.Ident.Value)
		if !ok {
			g.h.Errorf(diag.Value, diag.FromToken(v.Ident), "variable was not declared: %s", v.Ident.Value)
		}
		if varCtx.isStr() {
			g.pushStack(fmt.Sprintf("DWORD [rbp - %d]", varCtx.loc-4), "")
			g.pushStack(fmt.Sprintf("DWORD [rbp - %d]", varCtx.loc), "")
			return
		}
		g.pushStack(fmt.Sprintf("%s [rbp - %d]", varCtx.wordSize, varCtx.loc), "")

	case *ast.BoolTerm:
		val := "0"
		if v.Lit.Kind == token.True {
			val = "1"
		}
		g.pushStack(val, "BYTE")

	case *ast.CharTerm:
		g.pushStack(v.Lit.Value, "BYTE")

	case *ast.StrTerm:
		g.genStr(v)

	case *ast.ParenTerm:
		g.genExpr(v.Inner)

	case *ast.NotTerm:
		g.genTerm(v.Operand)
		ra := g.getReg(0)
		rb := g.getReg(1)
		g.popStack(rb)
		g.line("xor %s, %s", ra, ra)
		g.line("test %s, %s", rb, rb)
		g.line("sete al")
		g.pushStack(ra, "")

	case *ast.BNotTerm:
		g.genTerm(v.Operand)
		ra := g.getReg(0)
		g.popStack(ra)
		g.line("not %s", ra)
		g.pushStack(ra, "")

	case *ast.CastTerm:
		g.genExpr(v.Inner)
		ra := g.getReg(0)
		g.popStack(ra)
		_, size := typeWordSize(v.To)
		raSized := registers[size][0]
		g.pushStack(raSized, "")

	case *ast.ArrayTerm:
		// Array literal lowering was left unimplemented in
		// original_source/src/generator.py (a bare NotImplementedError);
		// hdzc reports it as a normal Generator diagnostic instead of
		// crashing (spec §9 Open Question: array codegen).
		g.h.Error(diag.Generator, "array literal codegen is not implemented", diag.FromPos(v.Pos()))

	default:
		panic(fmt.Sprintf("unreachable term kind %T", t))
	}
}

func (g *Gen) genStr(s *ast.StrTerm) {
	value := s.Lit.Value
	length := 1
	if value == "" {
		value = "0"
	} else {
		length = strings.Count(value, ",") + 1
	}
	lbl := g.createLabel("str")
	g.data = append(g.data, fmt.Sprintf("%s db %s\n", lbl, value))
	g.pushStackComplex([]string{fmt.Sprintf("%d", length), lbl}, "DWORD", 4)
}

// ---- expressions ----

var comparisonSet = map[token.Kind]string{
	token.IsEqual:        "sete",
	token.IsNotEqual:     "setne",
	token.GreaterThan:    "setg",
	token.LessThan:       "setl",
	token.GreaterOrEqual: "setge",
	token.LessOrEqual:    "setle",
}

func (g *Gen) genExpr(e ast.Expr) {
	switch v := e.(type) {
	case *ast.BinExpr:
		g.genBinExpr(v)
	case ast.Term:
		g.genTerm(v)
	default:
		panic(fmt.Sprintf("unreachable expression kind %T", e))
	}
}

func (g *Gen) genBinExpr(b *ast.BinExpr) {
	switch {
	case comparisonSet[b.Op.Kind] != "":
		g.genComparison(b)
	case b.Op.Kind == token.And || b.Op.Kind == token.Or:
		g.genLogical(b)
	default:
		g.genArith(b)
	}
}

// genComparison mirrors gen_predicate_expression: rhs is pushed before
// lhs, so the first pop lands lhs in ra.
func (g *Gen) genComparison(b *ast.BinExpr) {
	g.genExpr(b.RHS)
	g.genExpr(b.LHS)
	ra := g.getReg(0)
	rb := g.getReg(1)
	g.popStack(ra)
	g.popStack(rb)
	g.line("cmp %s, %s", ra, rb)
	setIns, ok := comparisonSet[b.Op.Kind]
	if !ok {
		g.h.Error(diag.Syntax, "invalid comparison expression", diag.FromToken(b.Op))
	}
	g.line("%s al", setIns)
	g.pushStack("al", "")
}

// genLogical mirrors gen_logical_expression verbatim.
func (g *Gen) genLogical(b *ast.BinExpr) {
	g.genExpr(b.RHS)
	g.genExpr(b.LHS)
	ra := g.getReg(0)
	rb := g.getReg(1)
	const rc = "cl"
	g.popStack(ra)
	g.popStack(rb)
	g.line("mov %s, %s", rc, ra)
	g.line("test %s, %s", rb, rb)

	label := g.createLabel("")
	switch b.Op.Kind {
	case token.And:
		g.line("jnz %s", label)
		g.line("mov %s, %s", rc, rb)
	case token.Or:
		g.line("jz %s", label)
		g.line("mov %s, %s", rc, rb)
	default:
		g.h.Error(diag.Syntax, "invalid logic expression", diag.FromToken(b.Op))
	}
	g.raw(label + ":\n")
	g.line("test %s, %s", rc, rc)
	g.line("setne al")
	g.pushStack("al", "")
}

// genArith mirrors gen_binary_expression: rhs is pushed before lhs in
// every branch, `*` uses the unsigned `mul`, `/` uses `idiv` unconditionally
// with no sign-extension into rdx (spec §9 Open Question: unconditional
// idiv; kept as documented debt rather than silently patched), and `%`
// sign-extends via cqo before idiv (the Python original does this only for
// `%`, not `/` — the asymmetry is the original's, not introduced here).
// Shift and bitwise operators are a supplemented extension beyond the
// distilled grammar and follow the same push/pop/emit/push shape.
func (g *Gen) genArith(b *ast.BinExpr) {
	g.genExpr(b.RHS)
	g.genExpr(b.LHS)
	ra := g.getReg(0)
	rb := g.getReg(1)
	g.popStack(ra)
	g.popStack(rb)

	switch b.Op.Kind {
	case token.Plus:
		g.line("add %s, %s", ra, rb)
		g.pushStack(ra, "")
	case token.Star:
		g.line("mul %s", rb)
		g.pushStack(ra, "")
	case token.Minus:
		g.line("sub %s, %s", ra, rb)
		g.pushStack(ra, "")
	case token.Slash:
		g.line("idiv %s", rb)
		g.pushStack(ra, "")
	case token.Percent:
		g.line("xor rdx, rdx")
		g.line("cqo")
		g.line("idiv %s", rb)
		g.pushStack("edx", "")
	case token.BAnd:
		g.line("and %s, %s", ra, rb)
		g.pushStack(ra, "")
	case token.BOr:
		g.line("or %s, %s", ra, rb)
		g.pushStack(ra, "")
	case token.BXor:
		g.line("xor %s, %s", ra, rb)
		g.pushStack(ra, "")
	case token.ShiftLeft:
		g.line("mov cl, %s", registers[1][1])
		g.line("shl %s, cl", ra)
		g.pushStack(ra, "")
	case token.ShiftRight:
		g.line("mov cl, %s", registers[1][1])
		g.line("shr %s, cl", ra)
		g.pushStack(ra, "")
	default:
		g.h.Error(diag.Generator, "failed to generate binary expression", diag.Location{})
	}
}

// ---- statements ----

func (g *Gen) genScope(s *ast.Scope) {
	g.beginScope()
	for _, stmt := range s.Stmts {
		g.genStmt(stmt)
	}
	g.endScope()
}

func (g *Gen) addVariable(ident token.Token, wordSize string, byteSize int) {
	g.variables = append(g.variables, variable{name: ident.Value, loc: g.stackSize, wordSize: wordSize, byteSize: byteSize})
}

func (g *Gen) genDecl(d *ast.Declare) {
	g.comment(fmt.Sprintf("%s var declaration", d.Type))
	g.genExpr(d.Expr)
	word, size := typeWordSize(d.Type)
	g.addVariable(d.Ident, word, size)
}

func (g *Gen) genReassign(r ast.Reassign) {
	switch re := r.(type) {
	case *ast.ReassignEq:
		g.comment("var reassign")
		ident := re.Target.(*ast.IdentTerm).Ident
		g.genExpr(re.Value)
		ra := g.getReg(0)
		g.popStack(ra)
		varCtx, _ := g.findVar(ident.Value)
		g.line("mov [rbp - %d], %s", varCtx.loc, ra)
	case *ast.ReassignInc, *ast.ReassignDec:
		g.comment("var inc / dec")
		var target *ast.IdentTerm
		var op string
		if inc, ok := re.(*ast.ReassignInc); ok {
			target = inc.Target.(*ast.IdentTerm)
			op = "inc"
		} else {
			target = re.(*ast.ReassignDec).Target.(*ast.IdentTerm)
			op = "dec"
		}
		varCtx, _ := g.findVar(target.Ident.Value)
		g.pushStack(fmt.Sprintf("%s [rbp - %d]", varCtx.wordSize, varCtx.loc), "")
		ra := g.getReg(0)
		g.popStack(ra)
		g.line("%s %s", op, ra)
		g.line("mov [rbp - %d], %s", varCtx.loc, ra)
	default:
		panic(fmt.Sprintf("unreachable reassignment kind %T", r))
	}
}

func (g *Gen) genExit(e *ast.Exit) {
	g.genExpr(e.Expr)
	g.comment("exit")
	g.line("mov rax, 60")
	rdi := g.getReg(5)
	g.popStack(rdi)
	g.line("syscall")
}

func (g *Gen) genIf(i *ast.If) {
	g.comment("if block")
	g.genExpr(i.Cond)
	label := g.createLabel("")

	firstReg := g.getReg(0)
	g.popStack(firstReg)
	g.line("test %s, %s", firstReg, firstReg)
	g.line("jz %s", label)
	g.genScope(i.Body)

	if i.Pred != nil {
		endLabel := g.createLabel("")
		g.line("jmp %s", endLabel)
		g.raw(label + ":\n")
		g.genIfPred(i.Pred, endLabel)
		g.raw(endLabel + ":\n")
	} else {
		g.raw(label + ":\n")
	}
}

func (g *Gen) genIfPred(pred ast.IfPred, endLabel string) {
	switch p := pred.(type) {
	case *ast.Elif:
		g.comment("elif")
		g.genExpr(p.Cond)
		label := g.createLabel("")

		firstReg := g.getReg(0)
		g.popStack(firstReg)
		g.line("test %s, %s", firstReg, firstReg)
		g.line("jz %s", label)
		g.genScope(p.Body)
		g.line("jmp %s", endLabel)
		g.raw(label + ":\n")
		if p.Next != nil {
			g.genIfPred(p.Next, endLabel)
		}
	case *ast.Else:
		g.comment("else")
		g.genScope(p.Body)
	default:
		panic(fmt.Sprintf("unreachable if-predicate kind %T", pred))
	}
}

func (g *Gen) genWhile(w *ast.While) {
	g.comment("while loop")
	endLabel := g.createLabel("")
	resetLabel := g.createLabel("")
	g.loopEnds = append(g.loopEnds, endLabel)

	g.raw(resetLabel + ":\n")
	g.genExpr(w.Cond)
	firstReg := g.getReg(0)
	g.popStack(firstReg)
	g.line("test %s, %s", firstReg, firstReg)
	g.line("jz %s", endLabel)

	g.genScope(w.Body)

	g.line("jmp %s", resetLabel)
	g.raw(endLabel + ":\n")
	g.loopEnds = g.loopEnds[:len(g.loopEnds)-1]
}

func (g *Gen) genDoWhile(d *ast.DoWhile) {
	g.comment("do while loop")
	endLabel := g.createLabel("")
	resetLabel := g.createLabel("")
	g.loopEnds = append(g.loopEnds, endLabel)

	g.raw(resetLabel + ":\n")
	g.genScope(d.Body)
	g.genExpr(d.Cond)

	firstReg := g.getReg(0)
	g.popStack(firstReg)
	g.line("test %s, %s", firstReg, firstReg)
	g.line("jz %s", endLabel)
	g.line("jmp %s", resetLabel)
	g.raw(endLabel + ":\n")
	g.loopEnds = g.loopEnds[:len(g.loopEnds)-1]
}

// genFor mirrors gen_for's single unconditional pop of the loop variable
// at the end: it pops exactly one stack item. The type of `sicke`'s
// declaration is not restricted to `cif`, so this pop covers the whole
// loop variable only when its declaration pushed a single stack item.
func (g *Gen) genFor(f *ast.For) {
	g.comment("for loop")
	endLabel := g.createLabel("end")
	resetLabel := g.createLabel("rst")
	g.loopEnds = append(g.loopEnds, endLabel)

	g.genDecl(f.Init)

	g.raw(resetLabel + ":\n")
	g.genExpr(f.Cond)

	firstReg := g.getReg(0)
	g.popStack(firstReg)
	g.line("test %s, %s", firstReg, firstReg)
	g.line("jz %s", endLabel)

	g.genScope(f.Body)
	g.genReassign(f.Post)

	g.line("jmp %s", resetLabel)
	g.raw(endLabel + ":\n")

	n := len(g.itemSizes)
	g.stackSize -= g.itemSizes[n-1] + g.padding[n-1]
	g.itemSizes = g.itemSizes[:n-1]
	g.padding = g.padding[:n-1]
	g.variables = g.variables[:len(g.variables)-1]
	g.loopEnds = g.loopEnds[:len(g.loopEnds)-1]
}

func (g *Gen) genPrint(p *ast.Print) {
	if p.ContentIsStr {
		g.comment("print str")
		g.genExpr(p.Expr)
		const ptrSize = 4
		g.line("mov rax, 1")
		g.line("mov rdi, 1")
		g.line("mov esi, [rbp - %d]", g.stackSize)
		g.line("mov edx, [rbp - %d]", g.stackSize-ptrSize)
		g.line("syscall")
		n := len(g.itemSizes)
		g.stackSize -= g.itemSizes[n-1] + g.padding[n-1]
		g.itemSizes = g.itemSizes[:n-1]
		g.padding = g.padding[:n-1]
		return
	}

	g.comment("print char")
	g.genExpr(p.Expr)
	exprLoc := fmt.Sprintf("[rbp - %d]", g.stackSize)
	g.line("mov rax, 1")
	g.line("mov rdi, 1")
	g.line("lea rsi, %s", exprLoc)
	g.line("mov rdx, 1")
	g.line("syscall")
	n := len(g.itemSizes)
	g.stackSize -= g.itemSizes[n-1] + g.padding[n-1]
	g.itemSizes = g.itemSizes[:n-1]
	g.padding = g.padding[:n-1]
}

func (g *Gen) genBreak(b *ast.Break) {
	if len(g.loopEnds) == 0 {
		g.h.Error(diag.Syntax, "cant break out of a loop when not inside one", diag.FromPos(b.KwPos))
	}
	g.comment("break")
	g.line("jmp %s", g.loopEnds[len(g.loopEnds)-1])
}

func (g *Gen) genStmt(stmt ast.Stmt) {
	switch s := stmt.(type) {
	case *ast.Exit:
		g.genExit(s)
	case *ast.Declare:
		g.genDecl(s)
	case *ast.Scope:
		g.genScope(s)
	case *ast.If:
		g.genIf(s)
	case ast.Reassign:
		g.genReassign(s)
	case *ast.While:
		g.genWhile(s)
	case *ast.DoWhile:
		g.genDoWhile(s)
	case *ast.For:
		g.genFor(s)
	case *ast.Print:
		g.genPrint(s)
	case *ast.Break:
		g.genBreak(s)
	case *ast.Empty:
		// nothing to emit
	default:
		panic(fmt.Sprintf("unreachable statement kind %T", stmt))
	}
}

// Generate assembles the whole, type-checked program into FASM source
// (spec §4.5's prologue is given in literal FASM syntax — `segment readable
// executable` / `entry _start` — rather than NASM's `section .text` /
// `global _start`, even though §1's prose calls the target "NASM/FASM"
// generically; the worked example in §4.5 is the more specific source of
// truth here).
func Generate(prog *ast.Program, h *diag.Handler) string {
	g := New(h)

	g.raw("format ELF64 executable 3\n")
	g.raw("segment readable executable\n    entry _start\n")
	g.raw("_start:\n    mov rbp, rsp\n")

	for _, stmt := range prog.Stmts {
		g.genStmt(stmt)
	}

	g.comment("default exit")
	g.line("mov rax, 60")
	g.line("mov rdi, 0")
	g.line("syscall")

	// A writeable data segment is only emitted when string literals
	// actually demanded one (spec §4.5: "if a writeable data segment is
	// needed ... it is emitted last").
	if len(g.data) > 0 {
		g.raw("segment readable writeable\n")
		for _, d := range g.data {
			g.raw(d)
		}
	}

	return g.out.String()
}
