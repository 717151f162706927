// Package writer serializes an assembly model (spec §4.7) to the VM's
// bit-exact textual format: one logical section per line group, in a fixed
// order, consumed exactly once per compilation.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/civc-lang/civc/internal/bytecode"
	"github.com/civc-lang/civc/internal/types"
)

// Write serializes asm to w in the fixed section order: main instruction
// queue, blank line, constants, function exports, variable exports,
// globals, function imports, variable imports.
func Write(w io.Writer, asm *bytecode.Assembly) error {
	bw := &bufWriter{w: w}

	bw.writeInstructions(asm.Main)
	bw.line("")
	bw.writeConstants(asm.Constants)
	bw.writeFuncExports(asm.FuncExports)
	bw.writeVarExports(asm.VarExports)
	bw.writeGlobals(asm.Globals)
	bw.writeFuncImports(asm.FuncImports)
	bw.writeVarImports(asm.VarImports)

	return bw.err
}

// bufWriter accumulates the first error encountered so call sites don't
// need to check every Fprintf individually.
type bufWriter struct {
	w   io.Writer
	err error

	sawFunctionLabel bool
}

func (bw *bufWriter) line(format string, args ...interface{}) {
	if bw.err != nil {
		return
	}
	_, err := fmt.Fprintf(bw.w, format+"\n", args...)
	if err != nil {
		bw.err = err
	}
}

// writeInstructions renders the main instruction queue: labels as
// "<name>:", with a blank line before every function label except the
// first one in the queue; everything else as an indented, space-separated
// mnemonic and argument list (spec §4.7).
func (bw *bufWriter) writeInstructions(instrs []bytecode.Instruction) {
	for _, in := range instrs {
		if in.IsLabel {
			if in.IsFunctionLabel {
				if bw.sawFunctionLabel {
					bw.line("")
				}
				bw.sawFunctionLabel = true
			}
			bw.line("%s:", in.Mnemonic)
			continue
		}
		if len(in.Args) == 0 {
			bw.line("    %s", in.Mnemonic)
			continue
		}
		bw.line("    %s %s", in.Mnemonic, strings.Join(in.Args, " "))
	}
}

func (bw *bufWriter) writeConstants(consts []bytecode.Constant) {
	for _, c := range consts {
		bw.line(".const %s %s", c.Type, c.Literal)
	}
}

func (bw *bufWriter) writeFuncExports(exports []bytecode.FuncExport) {
	for _, fe := range exports {
		bw.line(".exportfun %q %s%s %s", fe.Name, fe.Ret, argList(fe.Args), fe.Label)
	}
}

func (bw *bufWriter) writeVarExports(exports []bytecode.VarExport) {
	for _, ve := range exports {
		bw.line(".exportvar %q %d", ve.Name, ve.Index)
	}
}

func (bw *bufWriter) writeGlobals(globals []bytecode.GlobalVar) {
	for _, g := range globals {
		bw.line(".global %s", g.Type)
	}
}

func (bw *bufWriter) writeFuncImports(imports []bytecode.FuncImport) {
	for _, fi := range imports {
		bw.line(".importfun %q %s%s", fi.Name, fi.Ret, argList(fi.Args))
	}
}

func (bw *bufWriter) writeVarImports(imports []bytecode.VarImport) {
	for _, vi := range imports {
		bw.line(".importvar %q %s", vi.Name, vi.Type)
	}
}

// argList renders a signature's argument types with a leading space before
// each, or "" when there are none.
func argList(args []types.ValueType) string {
	var sb strings.Builder
	for _, a := range args {
		sb.WriteString(" ")
		sb.WriteString(a.String())
	}
	return sb.String()
}
