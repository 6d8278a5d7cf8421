// Command cythanc is the CLI surface spec §6 requires for test-harness
// completeness: run, build, exe, inspect, precomp. Modeled directly on
// cmd/minzc/main.go's root command + subcommand construction (a single
// cobra root with per-subcommand flags, plain fmt.Fprintf diagnostics,
// no structured logging library — the teacher never reaches for one).
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cythanc/cythanc/pkg/builder"
	"github.com/cythanc/cythanc/pkg/codemgr"
	"github.com/cythanc/cythanc/pkg/container"
	"github.com/cythanc/cythanc/pkg/diag"
	"github.com/cythanc/cythanc/pkg/emit"
	"github.com/cythanc/cythanc/pkg/lir"
	"github.com/cythanc/cythanc/pkg/lower"
	"github.com/cythanc/cythanc/pkg/machine"
	"github.com/cythanc/cythanc/pkg/mir"
	"github.com/cythanc/cythanc/pkg/mirvm"
	"github.com/cythanc/cythanc/pkg/optimizer"
	"github.com/cythanc/cythanc/pkg/parser"
	"github.com/cythanc/cythanc/pkg/resolver"
	"github.com/cythanc/cythanc/pkg/typecheck"
	"github.com/cythanc/cythanc/pkg/version"
	"github.com/spf13/cobra"
)

// entryClass and entryMethod name the source program's entry point:
// a class Main with a method main, the only convention the builder
// and resolver need since this language has no instantiation or
// dispatch (spec §1 excludes source-level semantics beyond what the
// MIR preserves).
const (
	entryClass  = "Main"
	entryMethod = "main"
)

var (
	showVersion bool
	maxSteps    int
)

var rootCmd = &cobra.Command{
	Use:   "cythanc",
	Short: "cythanc " + version.GetVersion() + " - compiler for the Cythan-16 virtual machine",
	Long: `cythanc - a compiler for a small class-oriented source language
targeting the Cythan-16 virtual machine (4-bit words, word-addressable
memory, a 3-register I/O file).

SUBCOMMANDS:
  run <source>              compile and execute a source file
  build <source> <out>      compile a source file to a binary
  exe <binary>              execute a previously built binary
  inspect <binary> <out>    decode a binary to a human-readable word dump
  precomp <binary> <out>    advance a binary by MaxSteps and re-persist its memory

ENTRY POINT:
  every source file must declare a class Main with a method main; that
  method is the program's entry point.

ENVIRONMENT:
  MIR_MODE=1   execute the built MIR tree directly via the MIR
               interpreter instead of lowering to LIR (test-only,
               spec §6)`,
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersion())
			return
		}
		cmd.Help()
	},
}

func main() {
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")
	rootCmd.SilenceUsage = true
	for _, c := range []*cobra.Command{runCmd, buildCmd, exeCmd, inspectCmd, precompCmd} {
		c.SilenceUsage = true
	}
	rootCmd.AddCommand(runCmd, buildCmd, exeCmd, inspectCmd, precompCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var runCmd = &cobra.Command{
	Use:   "run <source>",
	Short: "compile and execute a source file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSource(args[0])
	},
}

var buildCmd = &cobra.Command{
	Use:   "build <source> <out>",
	Short: "compile a source file to a binary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return buildSource(args[0], args[1])
	},
}

var exeCmd = &cobra.Command{
	Use:   "exe <binary>",
	Short: "execute a previously built binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return exeBinary(args[0])
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <binary> <out>",
	Short: "decode a binary to a human-readable word dump",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspectBinary(args[0], args[1])
	},
}

var precompCmd = &cobra.Command{
	Use:   "precomp <binary> <out>",
	Short: "advance a binary and re-persist its memory as a new binary",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return precompBinary(args[0], args[1])
	},
}

func init() {
	precompCmd.Flags().IntVar(&maxSteps, "max-steps", 1_000_000, "instruction budget before the machine is snapshotted")
}

// compileEntry runs the full front end (lex, parse, resolve,
// typecheck) and lowers the Main.main method to a MIR block,
// discharging the construction contract spec §6 assigns the Builder.
func compileEntry(sourceFile string) (mir.Block, error) {
	src, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, diag.IO("reading %s: %v", sourceFile, err)
	}

	file, err := parser.ParseFile(sourceFile, string(src))
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	mgr := codemgr.New()
	prog, err := resolver.Resolve(file, mgr)
	if err != nil {
		return nil, fmt.Errorf("resolve error: %w", err)
	}

	if err := typecheck.Check(sourceFile, prog); err != nil {
		return nil, fmt.Errorf("type error: %w", err)
	}

	class, ok := prog.Classes[entryClass]
	if !ok {
		return nil, fmt.Errorf("entry point: no class %q declared in %s", entryClass, sourceFile)
	}
	method, ok := class.Methods[entryMethod]
	if !ok {
		return nil, fmt.Errorf("entry point: class %q has no method %q", entryClass, entryMethod)
	}

	return builder.Build(sourceFile, class, method, mgr)
}

// compileToLIR runs compileEntry, the optimizer fixpoint (spec §4.4),
// MIR→LIR lowering (spec §4.5) and the LIR peephole pass (spec §4.6).
func compileToLIR(sourceFile string) (*lir.Program, error) {
	block, err := compileEntry(sourceFile)
	if err != nil {
		return nil, err
	}

	optimized, err := optimizer.NewPipeline().Run(block)
	if err != nil {
		return nil, fmt.Errorf("optimization error: %w", err)
	}

	prog := lower.Lower(optimized)
	prog = optimizer.NewLIRPeepholePass().Run(prog)
	return prog, nil
}

func runSource(sourceFile string) error {
	if os.Getenv("MIR_MODE") != "" {
		block, err := compileEntry(sourceFile)
		if err != nil {
			return err
		}
		optimized, err := optimizer.NewPipeline().Run(block)
		if err != nil {
			return fmt.Errorf("optimization error: %w", err)
		}
		vm := mirvm.New(mirvm.Config{Input: os.Stdin, Output: os.Stdout})
		stats, err := vm.Run(optimized)
		if err != nil {
			return fmt.Errorf("mir interpreter error: %w", err)
		}
		fmt.Fprintf(os.Stderr, "executed %d MIR instructions, printed %d characters\n", stats.InstructionsExecuted, stats.CharsPrinted)
		return nil
	}

	prog, err := compileToLIR(sourceFile)
	if err != nil {
		return err
	}
	words, err := emit.Assemble(prog)
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}
	return executeWords(words, 0)
}

func buildSource(sourceFile, outFile string) error {
	prog, err := compileToLIR(sourceFile)
	if err != nil {
		return err
	}
	img, err := emit.AssembleToImage(prog, container.DefaultHeader())
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}
	if err := os.WriteFile(outFile, container.Encode(img), 0o644); err != nil {
		return diag.IO("writing %s: %v", outFile, err)
	}
	fmt.Printf("compiled %s -> %s (%d words)\n", sourceFile, outFile, len(img.Memory))
	return nil
}

func loadImage(binFile string) (container.Image, error) {
	data, err := os.ReadFile(binFile)
	if err != nil {
		return container.Image{}, diag.IO("reading %s: %v", binFile, err)
	}
	return container.Decode(data)
}

func exeBinary(binFile string) error {
	img, err := loadImage(binFile)
	if err != nil {
		return err
	}
	return executeWords(img.Memory, 0)
}

func executeWords(words []uint64, maxSteps int) error {
	m := machine.New(words, machine.Host{Input: os.Stdin, Output: os.Stdout})
	steps, halted, err := m.Run(maxSteps)
	if err != nil {
		return fmt.Errorf("execution error: %w", err)
	}
	if halted {
		fmt.Fprintf(os.Stderr, "stopped after %d steps\n", steps)
	} else {
		fmt.Fprintf(os.Stderr, "step budget exhausted after %d steps\n", steps)
	}
	return nil
}

func inspectBinary(binFile, outFile string) error {
	img, err := loadImage(binFile)
	if err != nil {
		return err
	}
	words := make([]string, len(img.Memory))
	for i, w := range img.Memory {
		words[i] = strconv.FormatUint(w, 10)
	}
	if err := os.WriteFile(outFile, []byte(strings.Join(words, " ")), 0o644); err != nil {
		return diag.IO("writing %s: %v", outFile, err)
	}
	fmt.Printf("decoded %s -> %s (%d words)\n", binFile, outFile, len(img.Memory))
	return nil
}

func precompBinary(binFile, outFile string) error {
	img, err := loadImage(binFile)
	if err != nil {
		return err
	}
	m := machine.New(img.Memory, machine.Host{})
	steps, _, err := m.Run(maxSteps)
	if err != nil {
		return fmt.Errorf("execution error: %w", err)
	}
	fmt.Fprintf(os.Stderr, "advanced machine by %d steps\n", steps)

	out := container.Image{Header: img.Header, Memory: m.Memory()}
	if err := os.WriteFile(outFile, container.Encode(out), 0o644); err != nil {
		return diag.IO("writing %s: %v", outFile, err)
	}
	return nil
}
