package bytecode

import (
	"strconv"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// emitProgram registers every top-level declaration's export/import/storage
// bookkeeping, emits global initializers (routed to the init queue since
// e.current starts at the global scope), then emits every non-imported
// function body. Finally, if the analyzer determined an implicit init
// function is needed (spec §4.4.8), the accumulated init queue is merged
// into Main under an exported "__init" label.
func (e *Emitter) emitProgram(prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.GlobalVarDecl:
			e.registerGlobalVarDecl(d)
		case *ast.GlobalVarDef:
			e.registerGlobalVarDef(d)
		case *ast.FunctionDecl:
			e.registerFunction(d)
		}
	}

	for _, decl := range prog.Decls {
		if d, ok := decl.(*ast.GlobalVarDef); ok && d.Init != nil {
			sym, _ := e.an.Global.LookupLocal(d.Name)
			if sym == nil {
				continue
			}
			if sym.IsArray() {
				e.emitArrayAllocation(sym)
				e.emitArrayInit(sym, d.Init)
			} else {
				e.emitExpr(d.Init)
				e.storeSymbol(sym)
			}
		}
	}

	for _, decl := range prog.Decls {
		if fd, ok := decl.(*ast.FunctionDecl); ok && !fd.Imported {
			sym, ok := e.an.Global.LookupLocal(fd.Name)
			if !ok {
				continue
			}
			e.emitFunction(fd, sym)
		}
	}

	if e.an.RequiresInitFunction {
		e.asm.EmitLabelMain("__init", true)
		e.asm.Main = append(e.asm.Main, e.asm.Init...)
		e.asm.EmitMain("return")
		e.asm.EmitFunctionExport("__init", types.Void, nil, "__init")
	}
}

func (e *Emitter) registerGlobalVarDecl(d *ast.GlobalVarDecl) {
	sym, ok := e.an.Global.LookupLocal(d.Name)
	if !ok {
		return
	}
	if sym.Imported {
		e.asm.EmitVariableImport(d.Name, sym.ValueType)
		return
	}
	e.asm.EmitGlobalVariable(sym.ValueType)
	if sym.Exported {
		e.asm.EmitVariableExport(d.Name, sym.OffsetInScope)
	}
}

func (e *Emitter) registerGlobalVarDef(d *ast.GlobalVarDef) {
	sym, ok := e.an.Global.LookupLocal(d.Name)
	if !ok {
		return
	}
	e.asm.EmitGlobalVariable(sym.ValueType)
	if sym.Exported {
		e.asm.EmitVariableExport(d.Name, sym.OffsetInScope)
	}
}

func (e *Emitter) registerFunction(fd *ast.FunctionDecl) {
	sym, ok := e.an.Global.LookupLocal(fd.Name)
	if !ok {
		return
	}
	if fd.Imported {
		e.asm.EmitFunctionImport(fd.Name, sym.ReturnType, sym.DeclaredParamTypes)
		return
	}
	if fd.Exported {
		e.asm.EmitFunctionExport(fd.Name, sym.ReturnType, sym.DeclaredParamTypes, sym.Label)
	}
}

// emitFunction lowers one function body: entry label, a frame-reservation
// esr when the body declares locals beyond its parameters, the body
// statements, a synthesized trailing return for a Void function whose body
// doesn't already end with one, then recursion into nested functions
// (spec §4.6.6).
func (e *Emitter) emitFunction(fd *ast.FunctionDecl, sym *symbol.Symbol) {
	funcScope, ok := sym.FuncScope.(*scope.Scope)
	if !ok {
		return
	}

	prevScope := e.current
	prevReturn := e.currentReturnType
	e.current = funcScope
	e.currentReturnType = sym.ReturnType

	e.emitLabel(sym.Label, true)

	localCount := funcScope.LocalOffsetCounter - sym.ParamCount
	if localCount > 0 {
		e.emit("esr", strconv.Itoa(localCount))
	}

	for _, stmt := range fd.Body {
		e.emitStmt(stmt)
	}

	if sym.ReturnType == types.Void && !endsWithReturn(fd.Body) {
		e.emit("return")
	}

	funcScope.ResetForLoopCounter()

	for _, nested := range fd.Nested {
		if nested.Imported {
			continue
		}
		nestedSym, ok := funcScope.LookupLocal(nested.Name)
		if ok {
			e.emitFunction(nested, nestedSym)
		}
	}

	e.current = prevScope
	e.currentReturnType = prevReturn
}

func endsWithReturn(stmts []ast.Stmt) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ast.Return)
	return ok
}

// emitCall lowers a call (spec §4.6.7): a scope-register "save" instruction
// selecting the callee's linkage relative to the call site, argument
// pushes (dimension scalars before an array argument's reference, matching
// the callee's calling convention), then the jump-and-save instruction
// itself.
func (e *Emitter) emitCall(f *ast.FunCall) {
	sym := e.resolved(f)
	if sym == nil {
		return
	}

	if !sym.Imported {
		e.emitCallLinkage(sym)
	}

	for _, arg := range f.Args {
		if v, ok := arg.(*ast.Var); ok {
			if argSym := e.resolved(v); argSym != nil && argSym.IsArray() {
				for _, d := range argSym.Dims {
					e.loadSymbol(d)
				}
				e.loadSymbol(argSym)
				continue
			}
		}
		e.emitExpr(arg)
	}

	if sym.Imported {
		e.emit("jsre", strconv.Itoa(sym.OffsetInScope))
		return
	}
	e.emit("jsr", strconv.Itoa(sym.ParamCount), sym.Label)
}

// emitCallLinkage selects the "save scope register" instruction that tells
// the callee how to reach its lexical parent's frame (spec §4.6.7): global
// functions need no parent frame, a call to a function nested directly in
// the current scope passes the current frame itself, a call to a sibling
// at the same nesting depth passes the current frame's parent, and a call
// reaching further out walks up that many enclosing frames.
func (e *Emitter) emitCallLinkage(callee *symbol.Symbol) {
	calleeScope, ok := callee.FuncScope.(*scope.Scope)
	if !ok {
		return
	}
	calleeHome := calleeScope.Parent()

	if calleeHome == nil || calleeHome.IsGlobal() {
		e.emit("isrg")
		return
	}
	// For-loop scopes share their function's nesting level and frame, so the
	// number of frames crossed is a difference of nesting levels.
	switch k := e.current.NestingLevel() - calleeHome.NestingLevel(); {
	case k == 0:
		e.emit("isrl")
	case k == 1:
		e.emit("isr")
	case k > 1:
		e.emit("isrn", strconv.Itoa(k))
	default:
		e.emit("isrg")
	}
}
