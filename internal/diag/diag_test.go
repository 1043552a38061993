package diag

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juripan/hdzc/internal/token"
)

func TestHandlerRendersCaretAndExits(t *testing.T) {
	src := "naj a = 2 +\n"
	h := New("prog.hdz", src)

	var buf bytes.Buffer
	h.SetOutput(&buf)

	var exitCode int
	exited := false
	h.SetExiter(func(code int) {
		exitCode = code
		exited = true
	})

	h.Error(Syntax, "expected expression", FromToken(token.Token{Kind: token.Plus, Pos: token.Pos{Line: 1, Col: 11}}))

	require.True(t, exited)
	assert.Equal(t, 1, exitCode)
	out := buf.String()
	assert.Contains(t, out, "Failed here: prog.hdz:1:11")
	assert.Contains(t, out, "SyntaxError:")
	assert.Contains(t, out, "expected expression")
}

func TestHandlerDialectMode(t *testing.T) {
	h := New("prog.hdz", "furt x = 5\nx = 7\n")
	h.SetDialectMode(true)

	var buf bytes.Buffer
	h.SetOutput(&buf)
	h.SetExiter(func(int) {})

	h.Error(Value, "premenna je furt", FromPos(token.Pos{Line: 2, Col: 1}))

	out := buf.String()
	assert.Contains(t, out, "Joj bysťu")
	assert.Contains(t, out, "HodnotaPlana")
}

func TestHandlerWholeLineCaret(t *testing.T) {
	h := New("prog.hdz", "/* unterminated\n")
	var buf bytes.Buffer
	h.SetOutput(&buf)
	h.SetExiter(func(int) {})

	h.Error(Syntax, "unclosed multiline comment", WholeLine(1))

	out := buf.String()
	assert.Contains(t, out, "^^^^^^^^^^^^^^^")
}

func TestLineAt(t *testing.T) {
	src := "aaa\nbbb\nccc\n"
	h := New("prog.hdz", src)

	assert.Equal(t, 1, h.LineAt(0))
	assert.Equal(t, 1, h.LineAt(2))
	assert.Equal(t, 2, h.LineAt(4))
	assert.Equal(t, 3, h.LineAt(9))
}
