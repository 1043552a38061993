package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRejectsNonHdzExtension(t *testing.T) {
	err := run("program.txt", "", false, false, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file extension")
}

func TestRunRejectsMissingFile(t *testing.T) {
	err := run(filepath.Join(t.TempDir(), "missing.hdz"), "", false, false, false)
	require.Error(t, err)
}

func TestRootCmdFlagsAreWired(t *testing.T) {
	cmd := newRootCmd()
	assert.NotNil(t, cmd.Flags().Lookup("dialect"))
	assert.NotNil(t, cmd.Flags().Lookup("run"))
	assert.NotNil(t, cmd.Flags().Lookup("name"))
	assert.NotNil(t, cmd.Flags().Lookup("debug"))
}

func TestRootCmdRequiresExactlyOneArg(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	require.Error(t, err)
}

func TestRunCompilesSmallProgram(t *testing.T) {
	srcPath := filepath.Join(t.TempDir(), "tiny.hdz")
	require.NoError(t, os.WriteFile(srcPath, []byte("vychod(0)\n"), 0o644))
	outPath := filepath.Join(t.TempDir(), "tiny")

	// No fasm toolchain is guaranteed to be on PATH in a test environment;
	// this only exercises the compile-and-write-.asm path up to the
	// external assembler invocation, matching internal/driver's own tests
	// for the external-process boundary itself.
	err := run(srcPath, outPath, false, false, false)
	if err != nil {
		assert.Contains(t, err.Error(), "fasm")
	}
}
