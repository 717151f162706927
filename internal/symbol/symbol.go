// Package symbol implements the symbol model (spec §4.2): one record per
// named entity in some scope, with per-kind variant data for scalars,
// arrays, functions, and for-loop sentinels.
package symbol

import "github.com/civc-lang/civc/internal/types"

// Kind distinguishes the symbol variants.
type Kind uint8

const (
	Scalar Kind = iota
	Array
	Function
	ForLoopSentinel
)

// Scope is the minimal interface symbol needs from its containing scope;
// defined here (rather than importing package scope) to avoid an import
// cycle, since package scope needs *Symbol in its map values.
type Scope interface {
	NestingLevel() int
}

// Symbol is one declared name. Every field in this struct is meaningful for
// every Kind except where noted; variant-only fields are zero/nil when not
// applicable.
type Symbol struct {
	Name         string
	ValueType    types.ValueType
	OffsetInScope int
	Imported     bool
	Exported     bool
	ParentScope  Scope // set exactly once, by Scope.Insert

	Kind Kind

	// Array-only.
	DimCount int
	Dims     []*Symbol // dimension-scalar symbols, one per dimension, in order

	// Function-only.
	ReturnType         types.ValueType
	ParamCount         int
	ParamTypes         []types.ValueType // includes prepended dimension-scalar types (flattened, one entry per pushed call slot)
	ParamDimCount      []int             // per DECLARED parameter (not flattened), its array dim count (0 for scalars)
	DeclaredParamTypes []types.ValueType // per DECLARED parameter, its own declared type (an array type for array parameters) — parallel to ParamDimCount
	FuncScope          Scope
	Label              string

	// ForLoopSentinel-only.
	MangledName string
	InnerScope  Scope
}

// NewScalar constructs a scalar variable symbol. ParentScope is left unset
// until the symbol is inserted into a scope.
func NewScalar(name string, vt types.ValueType) *Symbol {
	return &Symbol{Name: name, ValueType: vt, Kind: Scalar}
}

// NewArray constructs an array variable symbol. dims must already be
// constructed scalar symbols for each dimension. For an array parameter the
// caller inserts them into the same scope, in order, before the array symbol
// itself (spec §4.4.2's "one offset per dimension scalar before the array
// offset"); an array variable declaration refers to dimension scalars that
// are already declared.
func NewArray(name string, vt types.ValueType, dims []*Symbol) *Symbol {
	return &Symbol{
		Name:      name,
		ValueType: vt,
		Kind:      Array,
		DimCount:  len(dims),
		Dims:      dims,
	}
}

// NewFunction constructs a function symbol. The scope and label are filled
// in by the analyzer once they exist (NewFunction precedes scope creation
// during the declaration pass in the recursive case of mutually-forward-
// referencing nested functions).
func NewFunction(name string, returnType types.ValueType) *Symbol {
	return &Symbol{
		Name:       name,
		ValueType:  returnType,
		ReturnType: returnType,
		Kind:       Function,
	}
}

// SetParams assigns a function symbol's flattened parameter type list
// (including any dimension-scalar types the analyzer prepends for array
// parameters), the per-declared-parameter array dimension counts, and the
// per-declared-parameter own types — used together for call-site
// argument-count and type checking (spec §4.4.3).
func (s *Symbol) SetParams(paramTypes []types.ValueType, paramDimCounts []int, declaredParamTypes []types.ValueType) {
	s.ParamTypes = paramTypes
	s.ParamDimCount = paramDimCounts
	s.DeclaredParamTypes = declaredParamTypes
	s.ParamCount = len(paramTypes)
}

// NewForLoopSentinel constructs the symbol that occupies the for-loop's
// mangled name slot in its enclosing function's scope bookkeeping; the
// loop itself does not open a new call frame (spec §4.3).
func NewForLoopSentinel(mangledName string) *Symbol {
	return &Symbol{Name: mangledName, Kind: ForLoopSentinel, MangledName: mangledName}
}

// IsArray reports whether the symbol names an array variable.
func (s *Symbol) IsArray() bool { return s.Kind == Array }

// IsFunction reports whether the symbol names a function.
func (s *Symbol) IsFunction() bool { return s.Kind == Function }

// NestingLevel returns the nesting level of the scope the symbol lives in,
// or -1 if it has not yet been inserted anywhere.
func (s *Symbol) NestingLevel() int {
	if s.ParentScope == nil {
		return -1
	}
	return s.ParentScope.NestingLevel()
}
