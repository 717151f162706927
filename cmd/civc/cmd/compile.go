package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/bytecode"
	"github.com/civc-lang/civc/internal/config"
	"github.com/civc-lang/civc/internal/diag"
	"github.com/civc-lang/civc/internal/errors"
	"github.com/civc-lang/civc/internal/opt"
	"github.com/civc-lang/civc/internal/semantic"
	"github.com/civc-lang/civc/internal/writer"
)

var (
	outputFile     string
	diagJSONFile   string
	noStrengthOpt  bool
	compileVerbose bool
	emitDisasm     bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a civc source file to bytecode",
	Long: `Compile runs context analysis over a source file and emits textual
bytecode for the stack-based virtual machine.

Examples:
  civc compile prog.civ
  civc compile prog.civ -o prog.asm
  civc compile prog.civ --diag-json prog.diag.json
  civc compile prog.civ --emit-disasm`,
	Args: cobra.ExactArgs(1),
	RunE: compileScript,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default: <input> with its extension replaced by .asm)")
	compileCmd.Flags().StringVar(&diagJSONFile, "diag-json", "", "write identifier/operator usage diagnostics to this file as JSON")
	compileCmd.Flags().BoolVar(&noStrengthOpt, "no-strength-reduction", false, "disable the integer-multiplication strength-reduction pass")
	compileCmd.Flags().BoolVarP(&compileVerbose, "verbose", "v", false, "verbose output")
	compileCmd.Flags().BoolVar(&emitDisasm, "emit-disasm", false, "echo the compiled assembly listing to stderr")
}

func compileScript(cmd *cobra.Command, args []string) error {
	filename := args[0]

	cfg, err := loadConfigFor(cmd, filename)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	verbose := compileVerbose || cfg.Verbose

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	source := string(content)

	if verbose {
		fmt.Fprintf(os.Stderr, "Compiling %s...\n", filename)
	}

	prog, perr := ast.Parse(source)
	if perr != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", filename, perr)
		return fmt.Errorf("parsing failed")
	}

	analyzer := semantic.NewAnalyzer(filename, source)
	if err := analyzer.Analyze(prog); err != nil {
		fmt.Fprint(os.Stderr, errors.FormatErrors(analyzer.Errors(), true))
		fmt.Fprintln(os.Stderr)
		if diagJSONFile != "" {
			writeDiagReport(prog, analyzer.Errors())
		}
		return fmt.Errorf("semantic analysis failed with %d error(s)", len(analyzer.Errors()))
	}

	if !noStrengthOpt {
		opt.StrengthReduceMul(prog)
	}

	if diagJSONFile != "" {
		if err := writeDiagReport(prog, analyzer.Errors()); err != nil {
			return err
		}
	}

	asm := bytecode.EmitProgram(analyzer, prog)

	outFile := outputFile
	if outFile == "" {
		outFile = cfg.OutputDir
		if outFile != "" {
			outFile = filepath.Join(outFile, defaultAsmName(filename))
		} else {
			outFile = defaultAsmName(filename)
		}
	}

	var buf strings.Builder
	if err := writer.Write(&buf, asm); err != nil {
		return fmt.Errorf("failed to write bytecode: %w", err)
	}

	f, err := os.Create(outFile)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", outFile, err)
	}
	defer f.Close()

	if _, err := f.WriteString(buf.String()); err != nil {
		return fmt.Errorf("failed to write bytecode: %w", err)
	}

	if emitDisasm || cfg.Disassemble {
		fmt.Fprintf(os.Stderr, "\n== Disassembled Bytecode (%s) ==\n", outFile)
		fmt.Fprint(os.Stderr, buf.String())
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Bytecode written to %s\n", outFile)
		fmt.Fprintf(os.Stderr, "  main instructions: %d\n", len(asm.Main))
		fmt.Fprintf(os.Stderr, "  constants: %d\n", len(asm.Constants))
	} else {
		fmt.Printf("Compiled %s -> %s\n", filename, outFile)
	}

	return nil
}

func defaultAsmName(filename string) string {
	ext := filepath.Ext(filename)
	if ext != "" {
		return strings.TrimSuffix(filename, ext) + ".asm"
	}
	return filename + ".asm"
}

func loadConfigFor(cmd *cobra.Command, sourceFile string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = filepath.Join(filepath.Dir(sourceFile), ".civcrc")
	}
	return config.Load(path)
}

func writeDiagReport(prog *ast.Program, errs []*errors.CompilerError) error {
	identCounts := diag.CountIdentifiers(prog)
	binopCounts := diag.CountBinops(prog)
	doc, err := diag.BuildReport(errs, identCounts, binopCounts)
	if err != nil {
		return fmt.Errorf("failed to build diagnostics report: %w", err)
	}
	if err := os.WriteFile(diagJSONFile, []byte(doc), 0644); err != nil {
		return fmt.Errorf("failed to write diagnostics report: %w", err)
	}
	return nil
}
