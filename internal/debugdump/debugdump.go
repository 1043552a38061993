// Package debugdump implements the `-d` flag (spec §6): a verbose,
// human-readable dump of the token stream and the parsed AST, serialised
// as YAML. original_source/src/hdz.py does the crude equivalent with a bare
// `print(tokens)`; hdzc structures the same information instead of relying
// on Python's repr() output.
package debugdump

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/juripan/hdzc/internal/ast"
	"github.com/juripan/hdzc/internal/token"
)

// TokenDump is a YAML-friendly projection of a token.Token.
type TokenDump struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value,omitempty"`
	Line  int    `yaml:"line"`
	Col   int    `yaml:"col"`
}

func dumpTokens(toks []token.Token) []TokenDump {
	out := make([]TokenDump, len(toks))
	for i, t := range toks {
		out[i] = TokenDump{Kind: t.Kind.String(), Value: t.Value, Line: t.Pos.Line, Col: t.Pos.Col}
	}
	return out
}

// StmtDump is a YAML-friendly projection of one ast.Stmt. Node is a short
// tag naming the concrete statement kind (e.g. "Declare", "If", "While");
// Detail is a free-form one-line summary, since a full structural dump of
// every AST field would mostly just restate the source text.
type StmtDump struct {
	Node   string      `yaml:"node"`
	Detail string      `yaml:"detail,omitempty"`
	Body   []StmtDump  `yaml:"body,omitempty"`
	Pred   *StmtDump   `yaml:"pred,omitempty"`
}

func dumpStmt(s ast.Stmt) StmtDump {
	switch v := s.(type) {
	case *ast.Declare:
		kind := "const"
		if !v.IsConst {
			kind = "var"
		}
		return StmtDump{Node: "Declare", Detail: fmt.Sprintf("%s %s %s = <expr>", kind, v.Type, v.Ident.Value)}
	case *ast.Scope:
		return StmtDump{Node: "Scope", Body: dumpStmts(v.Stmts)}
	case *ast.If:
		d := StmtDump{Node: "If", Body: dumpStmts(v.Body.Stmts)}
		if v.Pred != nil {
			pd := dumpIfPred(v.Pred)
			d.Pred = &pd
		}
		return d
	case *ast.While:
		return StmtDump{Node: "While", Body: dumpStmts(v.Body.Stmts)}
	case *ast.DoWhile:
		return StmtDump{Node: "DoWhile", Body: dumpStmts(v.Body.Stmts)}
	case *ast.For:
		return StmtDump{Node: "For", Detail: fmt.Sprintf("init=%s", v.Init.Ident.Value), Body: dumpStmts(v.Body.Stmts)}
	case *ast.Exit:
		return StmtDump{Node: "Exit"}
	case *ast.Print:
		return StmtDump{Node: "Print", Detail: fmt.Sprintf("contentIsStr=%v", v.ContentIsStr)}
	case *ast.Break:
		return StmtDump{Node: "Break"}
	case *ast.Empty:
		return StmtDump{Node: "Empty"}
	case *ast.ReassignEq:
		return StmtDump{Node: "ReassignEq"}
	case *ast.ReassignInc:
		return StmtDump{Node: "ReassignInc"}
	case *ast.ReassignDec:
		return StmtDump{Node: "ReassignDec"}
	default:
		return StmtDump{Node: fmt.Sprintf("%T", s)}
	}
}

func dumpIfPred(pred ast.IfPred) StmtDump {
	switch v := pred.(type) {
	case *ast.Elif:
		d := StmtDump{Node: "Elif", Body: dumpStmts(v.Body.Stmts)}
		if v.Next != nil {
			nd := dumpIfPred(v.Next)
			d.Pred = &nd
		}
		return d
	case *ast.Else:
		return StmtDump{Node: "Else", Body: dumpStmts(v.Body.Stmts)}
	default:
		return StmtDump{Node: fmt.Sprintf("%T", pred)}
	}
}

func dumpStmts(stmts []ast.Stmt) []StmtDump {
	out := make([]StmtDump, len(stmts))
	for i, s := range stmts {
		out[i] = dumpStmt(s)
	}
	return out
}

// Dump is the top-level document written for `-d`.
type Dump struct {
	Tokens []TokenDump `yaml:"tokens"`
	Stmts  []StmtDump  `yaml:"program"`
}

// Write renders toks/prog as YAML to w.
func Write(w io.Writer, toks []token.Token, prog *ast.Program) error {
	d := Dump{Tokens: dumpTokens(toks), Stmts: dumpStmts(prog.Stmts)}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(d)
}
