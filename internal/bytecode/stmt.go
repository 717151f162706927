package bytecode

import (
	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

func (e *Emitter) emitStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		e.emitVarDecl(st)
	case *ast.ExprStmt:
		e.emitExprStmt(st)
	case *ast.Assign:
		e.emitAssign(st)
	case *ast.Return:
		e.emitReturn(st)
	case *ast.IfElse:
		e.emitIfElse(st)
	case *ast.While:
		e.emitWhile(st)
	case *ast.DoWhile:
		e.emitDoWhile(st)
	case *ast.For:
		e.emitFor(st)
	case *ast.Block:
		e.emitBlock(st)
	}
}

func (e *Emitter) emitBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		e.emitStmt(s)
	}
}

// emitExprStmt discards the value an expression statement produces, using
// its type prefix; Void results are never popped (spec §4.6.9).
func (e *Emitter) emitExprStmt(st *ast.ExprStmt) {
	e.emitExpr(st.X)
	t := e.exprType(st.X)
	if t == types.Void || t == types.Null {
		return
	}
	e.emit(t.ElementPrefix() + "pop")
}

func (e *Emitter) emitVarDecl(st *ast.VarDecl) {
	sym := e.resolved(st)
	if sym == nil {
		return
	}
	if sym.IsArray() {
		e.emitArrayAllocation(sym)
		e.emitArrayInit(sym, st.Init)
		return
	}
	if st.Init != nil {
		e.emitExpr(st.Init)
		e.storeSymbol(sym)
	}
}

func (e *Emitter) emitAssign(st *ast.Assign) {
	sym := e.resolved(st.Target)
	if sym == nil {
		e.emitExpr(st.Value)
		return
	}
	if len(st.Target.Indices) == 0 {
		e.emitExpr(st.Value)
		e.storeSymbol(sym)
		return
	}

	e.emitFlattenedIndex(sym, st.Target.Indices)
	e.loadSymbol(sym)
	e.emitExpr(st.Value)
	elem := types.DemoteArrayType(sym.ValueType)
	e.emit(elem.ElementPrefix() + "storea")
}

// emitReturn chooses the typed return opcode from the enclosing function's
// declared return type (spec §4.6.6).
func (e *Emitter) emitReturn(st *ast.Return) {
	if st.Value == nil {
		e.emit("return")
		return
	}
	e.emitExpr(st.Value)
	switch e.currentReturnType {
	case types.Int:
		e.emit("ireturn")
	case types.Float:
		e.emit("freturn")
	case types.Bool:
		e.emit("breturn")
	default:
		e.emit("return")
	}
}

// emitIfElse lowers spec §4.6.3's sequence: cond -> branch_f else -> then
// -> jump end -> else: -> else-branch -> end:.
func (e *Emitter) emitIfElse(st *ast.IfElse) {
	elseLabel := e.newLabel("else")
	end := e.newLabel("endif")

	e.emitExpr(st.Cond)
	e.emit("branch_f", elseLabel)
	e.emitBlock(st.Then)
	e.emit("jump", end)
	e.emitLabel(elseLabel, false)
	if st.Else != nil {
		e.emitBlock(st.Else)
	}
	e.emitLabel(end, false)
}

// emitWhile lowers spec §4.6.3's pre-tested loop.
func (e *Emitter) emitWhile(st *ast.While) {
	start := e.newLabel("while_start")
	end := e.newLabel("while_end")

	e.emitLabel(start, false)
	e.emitExpr(st.Cond)
	e.emit("branch_f", end)
	e.emitBlock(st.Body)
	e.emit("jump", start)
	e.emitLabel(end, false)
}

// emitDoWhile lowers spec §4.6.3's post-tested loop.
func (e *Emitter) emitDoWhile(st *ast.DoWhile) {
	start := e.newLabel("dowhile_start")

	e.emitLabel(start, false)
	e.emitBlock(st.Body)
	e.emitExpr(st.Cond)
	e.emit("branch_t", start)
}

// emitFor lowers spec §4.6.3's counted loop, supporting both positive and
// negative step by checking the step's sign at runtime and dispatching to
// the matching comparison.
func (e *Emitter) emitFor(st *ast.For) {
	sentinel := e.resolved(st)
	if sentinel == nil {
		return
	}
	loopScope := sentinel.InnerScope.(*scope.Scope)
	induction, _ := loopScope.LookupLocal(st.VarName)
	condSym, _ := loopScope.LookupLocal("_cond" + sentinel.MangledName)
	stepSym, _ := loopScope.LookupLocal("_step" + sentinel.MangledName)

	e.emitExpr(st.Start)
	e.storeSymbol(induction)
	e.emitExpr(st.Stop)
	e.storeSymbol(condSym)
	if st.Step != nil {
		e.emitExpr(st.Step)
	} else {
		e.loadInt(1)
	}
	e.storeSymbol(stepSym)

	prevScope := e.current
	e.current = loopScope

	start := e.newLabel("for_start")
	end := e.newLabel("for_end")
	pos := e.newLabel("for_pos")
	neg := e.newLabel("for_neg")
	check := e.newLabel("for_check")

	e.emitLabel(start, false)

	e.loadSymbol(stepSym)
	e.loadInt(0)
	e.emit("ige")
	e.emit("branch_t", pos)
	e.emit("jump", neg)

	e.emitLabel(pos, false)
	e.loadSymbol(induction)
	e.loadSymbol(condSym)
	e.emit("ilt")
	e.emit("jump", check)

	e.emitLabel(neg, false)
	e.loadSymbol(induction)
	e.loadSymbol(condSym)
	e.emit("igt")

	e.emitLabel(check, false)
	e.emit("branch_f", end)

	e.emitBlock(st.Body)

	e.loadSymbol(induction)
	e.loadSymbol(stepSym)
	e.emit("iadd")
	e.storeSymbol(induction)

	e.emit("jump", start)
	e.emitLabel(end, false)

	e.current = prevScope
}

// ---- Array allocation and initialization (spec §4.6.5) ----

func (e *Emitter) emitArrayAllocation(sym *symbol.Symbol) {
	for _, d := range sym.Dims {
		e.loadSymbol(d)
	}
	for i := 1; i < len(sym.Dims); i++ {
		e.emit("imul")
	}
	elem := types.DemoteArrayType(sym.ValueType)
	e.emit(elem.ElementPrefix() + "newa")
	e.storeSymbol(sym)
}

func (e *Emitter) emitArrayInit(sym *symbol.Symbol, init ast.Expr) {
	if init == nil {
		return
	}
	if lit, ok := init.(*ast.ArrayLit); ok {
		e.emitArrayLitInit(sym, lit)
		return
	}
	e.emitScalarBroadcastInit(sym, init)
}

// emitScalarBroadcastInit lowers a single-scalar array initializer into a
// runtime broadcast loop using the three synthetic slots the analyzer
// reserved (spec §4.4.5, §4.6.5).
func (e *Emitter) emitScalarBroadcastInit(sym *symbol.Symbol, init ast.Expr) {
	declScope, ok := sym.ParentScope.(*scope.Scope)
	if !ok {
		return
	}
	scalarSym, _ := declScope.LookupLocal("_scalar_" + sym.Name)
	counterSym, _ := declScope.LookupLocal("_counter_" + sym.Name)
	sizeSym, _ := declScope.LookupLocal("_size_" + sym.Name)

	e.emitExpr(init)
	e.storeSymbol(scalarSym)

	e.loadSymbol(sym.Dims[0])
	for i := 1; i < len(sym.Dims); i++ {
		e.loadSymbol(sym.Dims[i])
		e.emit("imul")
	}
	e.storeSymbol(sizeSym)

	e.loadInt(0)
	e.storeSymbol(counterSym)

	start := e.newLabel("arrinit_start")
	end := e.newLabel("arrinit_end")
	e.emitLabel(start, false)
	e.loadSymbol(counterSym)
	e.loadSymbol(sizeSym)
	e.emit("ilt")
	e.emit("branch_f", end)

	elem := types.DemoteArrayType(sym.ValueType)
	e.loadSymbol(counterSym)
	e.loadSymbol(sym)
	e.loadSymbol(scalarSym)
	e.emit(elem.ElementPrefix() + "storea")

	e.loadSymbol(counterSym)
	e.loadInt(1)
	e.emit("iadd")
	e.storeSymbol(counterSym)
	e.emit("jump", start)
	e.emitLabel(end, false)
}

// emitArrayLitInit flattens a (possibly nested) array literal and writes
// its leaves to successive indices starting from the last, reading values
// the sub-expressions left on the stack (spec §4.6.5).
func (e *Emitter) emitArrayLitInit(sym *symbol.Symbol, lit *ast.ArrayLit) {
	leaves := flattenArrayLit(lit)
	for _, leaf := range leaves {
		e.emitExpr(leaf)
	}
	elem := types.DemoteArrayType(sym.ValueType)
	for i := len(leaves) - 1; i >= 0; i-- {
		e.loadInt(int64(i))
		e.loadSymbol(sym)
		e.emit(elem.ElementPrefix() + "storea")
	}
}

func flattenArrayLit(lit *ast.ArrayLit) []ast.Expr {
	var out []ast.Expr
	for _, el := range lit.Elems {
		if sub, ok := el.(*ast.ArrayLit); ok {
			out = append(out, flattenArrayLit(sub)...)
			continue
		}
		out = append(out, el)
	}
	return out
}
