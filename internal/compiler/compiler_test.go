package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileEndToEndProgram(t *testing.T) {
	src := `naj greeting = "ahoj"
hutor(greeting)
naj x = 0
kim x < 3 {
x++
}
vychod(0)
`
	result, h := Compile(src, Options{FilePath: "greet.hdz"})
	_ = h
	require.NotEmpty(t, result.Tokens)
	require.NotNil(t, result.Program)
	assert.True(t, strings.Contains(result.Assembly, "segment readable executable"))
	assert.True(t, strings.Contains(result.Assembly, "entry _start"))
	assert.True(t, strings.Contains(result.Assembly, "syscall"))
}

func TestCompileReportsFirstSyntaxError(t *testing.T) {
	src := "naj x = \n"
	exited := false
	assert.Panics(t, func() {
		Compile(src, Options{
			FilePath: "bad.hdz",
			Exiter: func(code int) {
				exited = true
				panic("diagnostic")
			},
		})
	})
	assert.True(t, exited)
}
