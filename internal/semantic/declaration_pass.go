package semantic

import (
	cerrors "github.com/civc-lang/civc/internal/errors"
	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// declarationPass discovers names and their types without checking
// bodies — the first of the two traversals spec §4.4.1 describes, kept as
// its own type (rather than a mode flag on one visitor) per spec §9's
// "prefer the former for clarity".
type declarationPass struct {
	a *Analyzer
}

// runProgram registers every top-level global and function declaration
// into the global scope.
func (dp *declarationPass) runProgram(prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.GlobalVarDecl:
			dp.registerGlobalVarDecl(d)
		case *ast.GlobalVarDef:
			dp.registerGlobalVarDef(d)
		case *ast.FunctionDecl:
			dp.registerFunction(d, dp.a.Global)
		}
	}
}

func (dp *declarationPass) registerGlobalVarDecl(d *ast.GlobalVarDecl) {
	a := dp.a
	vt, err := types.SourceTypeToValueType(d.TypeName, len(d.DimNames) > 0)
	if err != nil {
		a.addError(cerrors.InvalidType, d.Pos(), "%s", err)
		return
	}

	if a.Global.IsDeclaredInCurrentScope(d.Name) {
		a.addError(cerrors.DuplicateSymbol, d.Pos(), "%q is already declared", d.Name)
		return
	}

	var sym *symbol.Symbol
	if len(d.DimNames) > 0 {
		dims := dp.resolveDims(d.Name, d.DimNames, d.Pos())
		sym = symbol.NewArray(d.Name, vt, dims)
	} else {
		sym = symbol.NewScalar(d.Name, vt)
	}
	sym.Imported = d.Imported
	sym.Exported = d.Exported

	switch {
	case d.Imported:
		sym.OffsetInScope = a.Global.VarImportOffset
		a.Global.VarImportOffset++
	default:
		sym.OffsetInScope = a.Global.NextLocalOffset()
	}

	if err := a.Global.Insert(d.Name, sym); err != nil {
		a.addError(cerrors.DuplicateSymbol, d.Pos(), "%s", err)
	}
}

func (dp *declarationPass) registerGlobalVarDef(d *ast.GlobalVarDef) {
	a := dp.a
	vt, err := types.SourceTypeToValueType(d.TypeName, len(d.DimNames) > 0)
	if err != nil {
		a.addError(cerrors.InvalidType, d.Pos(), "%s", err)
		return
	}

	if a.Global.IsDeclaredInCurrentScope(d.Name) {
		a.addError(cerrors.DuplicateSymbol, d.Pos(), "%q is already declared", d.Name)
		return
	}

	var sym *symbol.Symbol
	if len(d.DimNames) > 0 {
		dims := dp.resolveDims(d.Name, d.DimNames, d.Pos())
		sym = symbol.NewArray(d.Name, vt, dims)
	} else {
		sym = symbol.NewScalar(d.Name, vt)
	}
	sym.Exported = d.Exported
	sym.OffsetInScope = a.Global.NextLocalOffset()

	if err := a.Global.Insert(d.Name, sym); err != nil {
		a.addError(cerrors.DuplicateSymbol, d.Pos(), "%s", err)
	}
}

func (dp *declarationPass) resolveDims(ownerName string, dimNames []string, pos ast.Position) []*symbol.Symbol {
	a := dp.a
	dims := make([]*symbol.Symbol, 0, len(dimNames))
	for _, dn := range dimNames {
		dimSym, ok := a.Global.LookupLocal(dn)
		if !ok {
			a.addError(cerrors.UndeclaredSymbol, pos, "undeclared dimension identifier %q in declaration of %q", dn, ownerName)
			continue
		}
		dims = append(dims, dimSym)
	}
	return dims
}

// registerFunction creates the function's symbol and its own scope, and
// inserts it into parentScope. Imported functions have no body to declare
// or analyze further.
func (dp *declarationPass) registerFunction(fd *ast.FunctionDecl, parentScope *scope.Scope) *symbol.Symbol {
	a := dp.a

	retType, err := types.SourceTypeToValueType(fd.ReturnType, false)
	if err != nil {
		a.addError(cerrors.InvalidType, fd.Pos(), "%s", err)
		retType = types.Void
	}

	sym := symbol.NewFunction(fd.Name, retType)
	sym.Imported = fd.Imported
	sym.Exported = fd.Exported
	fd.MangledLabel = a.mangledLabel(fd.Name, fd.Exported)
	sym.Label = fd.MangledLabel

	if !fd.Imported {
		funcScope := scope.New(parentScope, sym, false)
		sym.FuncScope = funcScope
		dp.declareParams(fd, sym, funcScope)
	} else {
		sym.OffsetInScope = parentScope.FunImportOffset
		parentScope.FunImportOffset++
		dp.computeParamTypesOnly(fd, sym)
	}

	if fd.Exported {
		sym.OffsetInScope = parentScope.FunExportOffset
		parentScope.FunExportOffset++
	}

	if parentScope.IsDeclaredInCurrentScope(fd.Name) {
		a.addError(cerrors.DuplicateSymbol, fd.Pos(), "function %q is already declared in this scope", fd.Name)
		return sym
	}
	if err := parentScope.Insert(fd.Name, sym); err != nil {
		a.addError(cerrors.DuplicateSymbol, fd.Pos(), "%s", err)
	}
	return sym
}

// declareParams inserts each parameter (and, for array parameters, its
// dimension-scalar parameters) into funcScope, in calling-convention order
// (dimension scalars before the array itself, spec §3), and records the
// function symbol's flattened parameter type/dim-count lists used for
// argument-count checking (spec §4.4.3).
func (dp *declarationPass) declareParams(fd *ast.FunctionDecl, sym *symbol.Symbol, funcScope *scope.Scope) {
	a := dp.a
	var paramTypes []types.ValueType
	var paramDimCounts []int
	var declaredParamTypes []types.ValueType

	for _, p := range fd.Params {
		vt, err := types.SourceTypeToValueType(p.TypeName, len(p.DimNames) > 0)
		if err != nil {
			a.addError(cerrors.InvalidType, p.Pos(), "%s", err)
			continue
		}

		var dimSyms []*symbol.Symbol
		for _, dn := range p.DimNames {
			dimSym := symbol.NewScalar(dn, types.Int)
			if funcScope.IsDeclaredInCurrentScope(dn) {
				a.addError(cerrors.DuplicateSymbol, p.Pos(), "parameter %q is already declared", dn)
			} else {
				dimSym.OffsetInScope = funcScope.NextLocalOffset()
				_ = funcScope.Insert(dn, dimSym)
			}
			dimSyms = append(dimSyms, dimSym)
			paramTypes = append(paramTypes, types.Int)
		}

		var paramSym *symbol.Symbol
		if len(p.DimNames) > 0 {
			paramSym = symbol.NewArray(p.Name, vt, dimSyms)
		} else {
			paramSym = symbol.NewScalar(p.Name, vt)
		}
		if funcScope.IsDeclaredInCurrentScope(p.Name) {
			a.addError(cerrors.DuplicateSymbol, p.Pos(), "parameter %q is already declared", p.Name)
		} else {
			paramSym.OffsetInScope = funcScope.NextLocalOffset()
			_ = funcScope.Insert(p.Name, paramSym)
		}

		paramTypes = append(paramTypes, vt)
		paramDimCounts = append(paramDimCounts, len(p.DimNames))
		declaredParamTypes = append(declaredParamTypes, vt)
	}

	sym.SetParams(paramTypes, paramDimCounts, declaredParamTypes)
}

// computeParamTypesOnly fills in an imported function's parameter type
// list (needed for call-site checking) without creating any scope, since
// an imported function has no body of its own to give offsets within.
func (dp *declarationPass) computeParamTypesOnly(fd *ast.FunctionDecl, sym *symbol.Symbol) {
	a := dp.a
	var paramTypes []types.ValueType
	var paramDimCounts []int
	var declaredParamTypes []types.ValueType
	for _, p := range fd.Params {
		vt, err := types.SourceTypeToValueType(p.TypeName, len(p.DimNames) > 0)
		if err != nil {
			a.addError(cerrors.InvalidType, p.Pos(), "%s", err)
			continue
		}
		for range p.DimNames {
			paramTypes = append(paramTypes, types.Int)
		}
		paramTypes = append(paramTypes, vt)
		paramDimCounts = append(paramDimCounts, len(p.DimNames))
		declaredParamTypes = append(declaredParamTypes, vt)
	}
	sym.SetParams(paramTypes, paramDimCounts, declaredParamTypes)
}

// declareBody runs the nested declaration pass for fd's own body: its
// nested function definitions, so that statements anywhere in this body
// (and sibling nested functions) may call a local function declared later
// in source (spec §4.4.1: "lets callers refer to callees declared
// later"). Local variable declarations are NOT pre-registered here — they
// are declared in place, in source order, when the analysis pass reaches
// them (ordinary imperative scoping; only callee forward-reference needs
// the two-phase split).
func (dp *declarationPass) declareBody(fd *ast.FunctionDecl, sym *symbol.Symbol) {
	for _, nested := range fd.Nested {
		dp.registerFunction(nested, sym.FuncScope)
	}
}
