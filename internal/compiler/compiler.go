// Package compiler wires the four pipeline stages — lexer, parser, type
// checker, code generator — into the single entry point hdzc itself calls
// (spec §2: "four sequential stages, in order, no stage recovers").
//
// The teacher's own top-level orchestration (protocompile's compiler.go)
// drives protobuf-specific linking/import-resolution stages this compiler
// has no equivalent of, so that file isn't ported; the shape kept from it
// is "one function, a shared diagnostics handler, each stage called once in
// sequence with no recovery in between."
package compiler

import (
	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/codegen"
	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/lexer"
	"github.com/juripan/hdzc/internal/parser"
	"github.com/juripan/hdzc/internal/token"
	"github.com/juripan/hdzc/internal/types"
)

// Options configures a single compilation.
type Options struct {
	// FilePath is used only for diagnostic rendering (spec §4.1's
	// "Failed here: path:line:col" prefix).
	FilePath string
	// DialectMode enables the -s localised error-kind presentation
	// (spec §6).
	DialectMode bool
	// Exiter overrides process termination on the first diagnostic; tests
	// install one to observe a failed compile without killing the test
	// binary. Nil keeps the default (os.Exit).
	Exiter diag.Exiter
}

// Result carries every intermediate artifact a caller might want, so
// internal/debugdump can render them without recompiling.
type Result struct {
	Tokens   []token.Token
	Program  *ast.Program
	Assembly string
}

// Compile runs the full pipeline over source and returns the assembled
// FASM text. The returned *diag.Handler has already reported (and, absent
// a test-installed Exiter, terminated the process on) the first error; a
// caller only ever sees a Result when every stage succeeded.
func Compile(source string, opts Options) (Result, *diag.Handler) {
	h := diag.New(opts.FilePath, source)
	h.SetDialectMode(opts.DialectMode)
	if opts.Exiter != nil {
		h.SetExiter(opts.Exiter)
	}

	toks := lexer.New(source, h).Tokenize()
	prog := parser.Parse(toks, h)
	types.New(h).Check(prog)
	asm := codegen.Generate(prog, h)

	return Result{Tokens: toks, Program: prog, Assembly: asm}, h
}
