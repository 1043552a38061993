// Command hdzc is the Hadzik compiler's CLI entry point (spec §6):
// `hdzc <path>.hdz [flags]`. Flag parsing and the manual are built on
// github.com/spf13/cobra, the shape shared by the pack's other Cobra-based
// language tools (dphaener-conduit, vovakirdan-surge).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/juripan/hdzc/internal/compiler"
	"github.com/juripan/hdzc/internal/debugdump"
	"github.com/juripan/hdzc/internal/driver"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dialectMode bool
		runAfter    bool
		outputPath  string
		debugMode   bool
	)

	cmd := &cobra.Command{
		Use:   "hdzc <path>.hdz",
		Short: "hdzc compiles Hadzik source to an x86-64 ELF64 executable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outputPath, dialectMode, runAfter, debugMode)
		},
	}

	cmd.Flags().BoolVarP(&dialectMode, "dialect", "s", false, "localise error-kind names (dialect mode)")
	cmd.Flags().BoolVarP(&runAfter, "run", "r", false, "after a successful compile, run the binary and report its exit code")
	cmd.Flags().StringVarP(&outputPath, "name", "n", "", "set output path (default: strip .hdz from input)")
	cmd.Flags().BoolVarP(&debugMode, "debug", "d", false, "verbose debug dump of tokens and AST (no codegen stack state)")

	return cmd
}

func run(sourcePath, outputPath string, dialectMode, runAfter, debugMode bool) error {
	if !strings.HasSuffix(sourcePath, ".hdz") {
		return fmt.Errorf("file extension is missing or invalid (file extension must be .hdz)")
	}

	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading source file: %w", err)
	}

	if outputPath == "" {
		outputPath = strings.TrimSuffix(sourcePath, ".hdz")
	}

	result, _ := compiler.Compile(string(src), compiler.Options{
		FilePath:    sourcePath,
		DialectMode: dialectMode,
	})

	if debugMode {
		if err := debugdump.Write(os.Stdout, result.Tokens, result.Program); err != nil {
			return fmt.Errorf("writing debug dump: %w", err)
		}
	}

	if err := driver.Assemble(context.Background(), result.Assembly, driver.Options{
		OutputPath: outputPath,
		Run:        runAfter,
	}); err != nil {
		return err
	}

	fmt.Println("Done!")
	return nil
}
