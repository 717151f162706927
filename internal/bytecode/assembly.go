// Package bytecode implements the append-only assembly model (spec §4.5)
// and the emitter that lowers a type-checked AST into it (spec §4.6).
package bytecode

import "github.com/civc-lang/civc/internal/types"

// Instruction is either a plain opcode line or a label line; IsLabel
// distinguishes the two so the writer (§4.7) can format them differently.
type Instruction struct {
	Mnemonic        string
	Args            []string
	IsLabel         bool
	IsFunctionLabel bool // a label preceded by a blank line, except the very first
}

// Constant is one entry in the constant pool, indexed by insertion order.
type Constant struct {
	Type    types.ValueType
	Literal string
}

// FuncExport is one `.exportfun` record.
type FuncExport struct {
	Name  string
	Ret   types.ValueType
	Args  []types.ValueType
	Label string
}

// VarExport is one `.exportvar` record.
type VarExport struct {
	Name  string
	Index int
}

// FuncImport is one `.importfun` record.
type FuncImport struct {
	Name string
	Ret  types.ValueType
	Args []types.ValueType
}

// VarImport is one `.importvar` record.
type VarImport struct {
	Name string
	Type types.ValueType
}

// Assembly is the append-only program under construction. Export indices
// never change once assigned; constant indices equal their insertion order
// (spec §4.5's invariants).
type Assembly struct {
	Main []Instruction // the non-global instruction queue
	Init []Instruction // spec §4.4.8: the implicit __init function's body

	Constants   []Constant
	FuncExports []FuncExport
	VarExports  []VarExport
	Globals     []GlobalVar
	FuncImports []FuncImport
	VarImports  []VarImport

	constIndex map[string]int // literal string -> constant pool index
}

// GlobalVar is one `.global` record; globals carry only a type, since
// storage is positional (index equals declaration order).
type GlobalVar struct {
	Type types.ValueType
}

// NewAssembly constructs an empty assembly model.
func NewAssembly() *Assembly {
	return &Assembly{constIndex: make(map[string]int)}
}

// emit appends one instruction to q and returns the updated slice; kept as
// a free function rather than a method on a queue type, since Go slices
// are reassigned on append, not mutated in place.
func emit(q []Instruction, mnemonic string, args ...string) []Instruction {
	return append(q, Instruction{Mnemonic: mnemonic, Args: args})
}

// EmitMain appends a plain instruction to the main queue.
func (asm *Assembly) EmitMain(mnemonic string, args ...string) {
	asm.Main = emit(asm.Main, mnemonic, args...)
}

// EmitInit appends a plain instruction to the init queue.
func (asm *Assembly) EmitInit(mnemonic string, args ...string) {
	asm.Init = emit(asm.Init, mnemonic, args...)
}

// EmitLabelMain appends a label to the main queue.
func (asm *Assembly) EmitLabelMain(name string, isFunctionLabel bool) {
	asm.Main = append(asm.Main, Instruction{Mnemonic: name, IsLabel: true, IsFunctionLabel: isFunctionLabel})
}

// EmitLabelInit appends a label to the init queue (a scalar-broadcast array
// initializer at global scope needs its own loop labels, spec §4.6.5).
func (asm *Assembly) EmitLabelInit(name string, isFunctionLabel bool) {
	asm.Init = append(asm.Init, Instruction{Mnemonic: name, IsLabel: true, IsFunctionLabel: isFunctionLabel})
}

// FindConstant returns the existing pool index for literal, if any (spec
// §4.6.8: "a later emitter should prefer find_constant to reuse prior
// entries").
func (asm *Assembly) FindConstant(literal string) (int, bool) {
	idx, ok := asm.constIndex[literal]
	return idx, ok
}

// EmitConstant interns literal into the pool, returning its index: an
// existing entry is reused, otherwise one is appended.
func (asm *Assembly) EmitConstant(t types.ValueType, literal string) int {
	if idx, ok := asm.constIndex[literal]; ok {
		return idx
	}
	idx := len(asm.Constants)
	asm.Constants = append(asm.Constants, Constant{Type: t, Literal: literal})
	asm.constIndex[literal] = idx
	return idx
}

// EmitFunctionExport records an exported function's call signature and
// entry label.
func (asm *Assembly) EmitFunctionExport(name string, ret types.ValueType, args []types.ValueType, label string) int {
	idx := len(asm.FuncExports)
	asm.FuncExports = append(asm.FuncExports, FuncExport{Name: name, Ret: ret, Args: args, Label: label})
	return idx
}

// EmitFunctionImport records an imported function's expected signature.
func (asm *Assembly) EmitFunctionImport(name string, ret types.ValueType, args []types.ValueType) int {
	idx := len(asm.FuncImports)
	asm.FuncImports = append(asm.FuncImports, FuncImport{Name: name, Ret: ret, Args: args})
	return idx
}

// EmitVariableExport records an exported global variable's storage index.
func (asm *Assembly) EmitVariableExport(name string, index int) int {
	idx := len(asm.VarExports)
	asm.VarExports = append(asm.VarExports, VarExport{Name: name, Index: index})
	return idx
}

// EmitVariableImport records an imported global variable's expected type.
func (asm *Assembly) EmitVariableImport(name string, t types.ValueType) int {
	idx := len(asm.VarImports)
	asm.VarImports = append(asm.VarImports, VarImport{Name: name, Type: t})
	return idx
}

// EmitGlobalVariable records one non-imported, non-exported (or exported)
// global's storage slot.
func (asm *Assembly) EmitGlobalVariable(t types.ValueType) int {
	idx := len(asm.Globals)
	asm.Globals = append(asm.Globals, GlobalVar{Type: t})
	return idx
}
