package debugdump

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juripan/hdzc/internal/diag"
	"github.com/juripan/hdzc/internal/lexer"
	"github.com/juripan/hdzc/internal/parser"
)

func TestWriteProducesYAMLWithTokensAndProgram(t *testing.T) {
	src := "naj x = 5\nhutor('a')\n"
	h := diag.New("test.hdz", src)
	h.SetExiter(func(code int) { t.Fatalf("unexpected diagnostic, code %d", code) })
	toks := lexer.New(src, h).Tokenize()
	prog := parser.Parse(toks, h)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, toks, prog))

	out := buf.String()
	assert.Contains(t, out, "tokens:")
	assert.Contains(t, out, "program:")
	assert.Contains(t, out, "node: Declare")
	assert.Contains(t, out, "node: Print")
}

func TestWriteCoversControlFlowNodes(t *testing.T) {
	src := "kim pravda {\nkonec\n}"
	h := diag.New("test.hdz", src)
	h.SetExiter(func(code int) { t.Fatalf("unexpected diagnostic, code %d", code) })
	toks := lexer.New(src, h).Tokenize()
	prog := parser.Parse(toks, h)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, toks, prog))

	out := buf.String()
	assert.Contains(t, out, "node: While")
	assert.Contains(t, out, "node: Break")
}
