// Package diag implements hdzc's single diagnostics mechanism (spec §4.1,
// §7): every stage reports through a *Handler, which renders a
// pointer-to-line excerpt and terminates the process on the first error.
//
// This is a simplification of the teacher's reporter.Handler
// (_examples/bufbuild-protocompile/reporter): that Handler lets a caller
// continue past an error if its Reporter callback returns nil, because
// protocompile wants to report as many link errors as possible in one
// pass. hdzc's own policy (spec §7: "no stage recovers... execution ends
// at the first problem") has no such callback — Error always calls the
// Handler's Exiter.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rivo/uniseg"
	"github.com/tidwall/btree"

	"github.com/juripan/hdzc/internal/token"
)

// Kind is the closed error taxonomy (spec §4.1).
type Kind int

const (
	Syntax Kind = iota
	Value
	Type
	Parsing
	Generator
)

var kindNames = [...]string{"Syntax", "Value", "Type", "Parsing", "Generator"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Exiter abstracts process termination so tests can observe a diagnostic
// without killing the test binary.
type Exiter func(code int)

// Handler holds the full source text and reports diagnostics against it.
// A Handler must not be copied after use.
type Handler struct {
	filePath string
	source   string
	lines    []string
	lineTree *btree.BTreeG[lineStart] // offset -> line index, for large sources
	out      io.Writer
	exit     Exiter
	dialect  bool // -s flag: localise error kind names (spec §6)
	translate map[Kind]string
}

type lineStart struct {
	offset int
	line   int // 1-indexed
}

func lineStartLess(a, b lineStart) bool { return a.offset < b.offset }

// New builds a Handler over the given source text. filePath is used only
// for the "Failed here:" prefix of rendered diagnostics.
func New(filePath, source string) *Handler {
	h := &Handler{
		filePath: filePath,
		source:   source,
		lines:    strings.Split(source, "\n"),
		lineTree: btree.NewBTreeG(lineStartLess),
		out:      os.Stderr,
		exit:     os.Exit,
		translate: map[Kind]string{
			Syntax:    "NapisanePlano",
			Value:     "HodnotaPlana",
			Type:      "TypPlany",
			Parsing:   "DzelenePlane",
			Generator: "VyrobaPlana",
		},
	}
	offset := 0
	for i, l := range h.lines {
		h.lineTree.Set(lineStart{offset: offset, line: i + 1})
		offset += len(l) + 1
	}
	return h
}

// SetDialectMode toggles the -s localised error-kind presentation.
func (h *Handler) SetDialectMode(on bool) { h.dialect = on }

// SetExiter overrides how the handler terminates the process; tests use
// this to capture a diagnostic instead of killing the test binary.
func (h *Handler) SetExiter(e Exiter) { h.exit = e }

// SetOutput overrides where rendered diagnostics are written; defaults to
// os.Stderr.
func (h *Handler) SetOutput(w io.Writer) { h.out = w }

// LineAt maps a byte offset into the source to its 1-indexed line number,
// via the ordered line-start index instead of a linear rescan. Used when a
// caller only has a raw offset (e.g. a lexer mark) rather than a Token's
// already-tracked (line, col).
func (h *Handler) LineAt(offset int) int {
	best := 1
	h.lineTree.Descend(lineStart{offset: offset, line: 0}, func(item lineStart) bool {
		if item.offset <= offset {
			best = item.line
			return false
		}
		return true
	})
	return best
}

// Location is an explicit (line, col) pair, used when no token is at hand.
type Location struct {
	Line, Col int
	// HasCol is false when the caret should span the whole line (spec §4.1:
	// "when absent, the caret spans the whole offending line").
	HasCol bool
}

// FromToken builds a Location that points at a token's origin.
func FromToken(t token.Token) Location {
	return Location{Line: t.Pos.Line, Col: t.Pos.Col, HasCol: true}
}

// FromPos builds a Location that points at a bare (line, col) pair.
func FromPos(p token.Pos) Location {
	return Location{Line: p.Line, Col: p.Col, HasCol: true}
}

// WholeLine builds a Location whose caret spans the entire line.
func WholeLine(line int) Location {
	return Location{Line: line}
}

// Error reports a diagnostic: it prints it and terminates the process via
// the Handler's Exiter (it returns only if an installed Exiter returns).
func (h *Handler) Error(kind Kind, message string, loc Location) {
	h.render(kind, message, loc)
	h.exit(1)
}

// Errorf is Error with fmt.Sprintf-style formatting.
func (h *Handler) Errorf(kind Kind, loc Location, format string, args ...any) {
	h.Error(kind, fmt.Sprintf(format, args...), loc)
}

func (h *Handler) lineText(line int) string {
	if line-1 < 0 {
		return ""
	}
	if line-1 >= len(h.lines) {
		if len(h.lines) == 0 {
			return ""
		}
		return h.lines[len(h.lines)-1]
	}
	return h.lines[line-1]
}

func (h *Handler) render(kind Kind, message string, loc Location) {
	lineText := h.lineText(loc.Line)
	fmt.Fprintf(h.out, "Failed here: %s:%d:%d\n", h.filePath, loc.Line, loc.Col)
	fmt.Fprintln(h.out, lineText)

	var colReport string
	if loc.HasCol {
		fmt.Fprintln(h.out, caretAt(lineText, loc.Col))
		if h.dialect {
			colReport = fmt.Sprintf(" stlupik %d", loc.Col)
		} else {
			colReport = fmt.Sprintf(" col %d", loc.Col)
		}
	} else {
		fmt.Fprintln(h.out, strings.Repeat("^", graphemeLen(lineText)))
	}

	kindLabel := kind.String()
	if h.dialect {
		kindLabel = h.translate[kind]
	}
	red := color.New(color.FgRed).SprintFunc()

	if h.dialect {
		fmt.Fprintf(h.out, "Joj bysťu %sError: (lajna %d%s) %s\n", red(kindLabel), loc.Line, colReport, message)
	} else {
		fmt.Fprintf(h.out, "%sError: (line %d%s) %s\n", red(kindLabel), loc.Line, colReport, message)
	}
}

// graphemeLen counts user-perceived characters, not bytes, so carets stay
// aligned under multi-byte Slovak diacritics (the lexer itself only ever
// needs ASCII-safe byte offsets, spec §6, but a printed excerpt still has
// to look right to a human).
func graphemeLen(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// caretAt renders a "^" under the 1-indexed column col, like the Python
// original's `"^".rjust(column_number)`. Token.Pos.Col is a byte count
// (matching the lexer), so the bytes before the column are converted to
// grapheme clusters to keep the caret under the right character when the
// line holds multi-byte text.
func caretAt(line string, col int) string {
	if col <= 1 {
		return "^"
	}
	n := col - 1
	if n <= len(line) {
		n = graphemeLen(line[:n])
	} else {
		n = graphemeLen(line) + n - len(line)
	}
	return strings.Repeat(" ", n) + "^"
}
