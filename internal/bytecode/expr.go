package bytecode

import (
	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// exprType recovers an already-analyzed expression's value type without
// re-validating it: the analyzer has already rejected anything that would
// make this ambiguous, and inserted whatever casts unification required.
func (e *Emitter) exprType(expr ast.Expr) types.ValueType {
	switch x := expr.(type) {
	case *ast.Num:
		return types.Int
	case *ast.Float:
		return types.Float
	case *ast.Bool:
		return types.Bool
	case *ast.Var:
		sym := e.resolved(x)
		if sym == nil {
			return types.Null
		}
		if len(x.Indices) > 0 {
			return types.DemoteArrayType(sym.ValueType)
		}
		return sym.ValueType
	case *ast.Cast:
		vt, _ := types.SourceTypeToValueType(x.TypeName, false)
		return vt
	case *ast.MonOp:
		if x.Op == ast.OpNot {
			return types.Bool
		}
		return e.exprType(x.X)
	case *ast.BinOp:
		switch x.Op {
		case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe, ast.OpEq, ast.OpNe, ast.OpAnd, ast.OpOr:
			return types.Bool
		default:
			return e.exprType(x.Left)
		}
	case *ast.FunCall:
		sym := e.resolved(x)
		if sym == nil {
			return types.Null
		}
		return sym.ReturnType
	default:
		return types.Null
	}
}

// emitExpr lowers expr, leaving its value on top of the stack.
func (e *Emitter) emitExpr(expr ast.Expr) {
	switch x := expr.(type) {
	case *ast.Num:
		e.loadInt(x.Value)
	case *ast.Float:
		e.loadFloat(x.Text(), x.Value)
	case *ast.Bool:
		e.loadBool(x.Value)
	case *ast.Var:
		e.emitVarLoad(x)
	case *ast.BinOp:
		e.emitBinOp(x)
	case *ast.MonOp:
		e.emitMonOp(x)
	case *ast.Cast:
		e.emitCast(x)
	case *ast.FunCall:
		e.emitCall(x)
	}
}

// emitVarLoad lowers a (possibly indexed) variable read (spec §4.6.1,
// §4.6.5): an unindexed array use pushes its dimension scalars and then
// the array reference, matching the calling convention; an indexed use
// flattens the index and loads the element.
func (e *Emitter) emitVarLoad(v *ast.Var) {
	sym := e.resolved(v)
	if sym == nil {
		return
	}
	if len(v.Indices) == 0 {
		if sym.IsArray() {
			for _, d := range sym.Dims {
				e.loadSymbol(d)
			}
		}
		e.loadSymbol(sym)
		return
	}

	e.emitFlattenedIndex(sym, v.Indices)
	e.loadSymbol(sym)
	elem := types.DemoteArrayType(sym.ValueType)
	e.emit(elem.ElementPrefix() + "loada")
}

// emitFlattenedIndex pushes the single flattened row-major offset for a
// multi-dimensional index (spec §4.6.5: idx_k * prod_{j>k} size_j, summed).
func (e *Emitter) emitFlattenedIndex(sym *symbol.Symbol, indices []ast.Expr) {
	for k, idx := range indices {
		e.emitExpr(idx)
		for j := k + 1; j < len(sym.Dims); j++ {
			e.loadSymbol(sym.Dims[j])
			e.emit("imul")
		}
		if k > 0 {
			e.emit("iadd")
		}
	}
}

// emitBinOp lowers a binary operator application (spec §4.6.2). && and ||
// are short-circuited separately (spec §4.6.3); every other operator
// evaluates both operands, left then right, then emits the typed opcode.
func (e *Emitter) emitBinOp(b *ast.BinOp) {
	if b.Op == ast.OpAnd || b.Op == ast.OpOr {
		e.emitShortCircuit(b)
		return
	}

	operandType := e.exprType(b.Left)
	e.emitExpr(b.Left)
	e.emitExpr(b.Right)
	prefix := operandType.ElementPrefix()

	switch b.Op {
	case ast.OpAdd:
		if operandType == types.Bool {
			e.emit("badd")
		} else {
			e.emit(prefix + "add")
		}
	case ast.OpMul:
		if operandType == types.Bool {
			e.emit("bmul")
		} else {
			e.emit(prefix + "mul")
		}
	case ast.OpSub:
		e.emit(prefix + "sub")
	case ast.OpDiv:
		e.emit(prefix + "div")
	case ast.OpMod:
		e.emit("irem")
	case ast.OpLt:
		e.emit(prefix + "lt")
	case ast.OpLe:
		e.emit(prefix + "le")
	case ast.OpGt:
		e.emit(prefix + "gt")
	case ast.OpGe:
		e.emit(prefix + "ge")
	case ast.OpEq:
		e.emit(prefix + "eq")
	case ast.OpNe:
		e.emit(prefix + "ne")
	}
}

// emitShortCircuit lowers && and || by branching on the left operand
// before the right is ever evaluated (spec §4.6.3).
func (e *Emitter) emitShortCircuit(b *ast.BinOp) {
	e.emitExpr(b.Left)
	end := e.newLabel("sc_end")

	if b.Op == ast.OpAnd {
		skip := e.newLabel("and_false")
		e.emit("branch_f", skip)
		e.emitExpr(b.Right)
		e.emit("jump", end)
		e.emitLabel(skip, false)
		e.emit("bloadc_f")
	} else {
		skip := e.newLabel("or_true")
		e.emit("branch_t", skip)
		e.emitExpr(b.Right)
		e.emit("jump", end)
		e.emitLabel(skip, false)
		e.emit("bloadc_t")
	}
	e.emitLabel(end, false)
}

func (e *Emitter) emitMonOp(m *ast.MonOp) {
	e.emitExpr(m.X)
	if m.Op == ast.OpNeg {
		e.emit(e.exprType(m.X).ElementPrefix() + "neg")
		return
	}
	e.emit("bnot")
}

// emitCast lowers an (implicit or explicit) cast. Numeric conversions are
// single opcodes; boolean<->numeric conversions are lowered to branchy
// if/else sequences using fresh labels (spec §4.6.2).
func (e *Emitter) emitCast(c *ast.Cast) {
	src := e.exprType(c.X)
	e.emitExpr(c.X)
	target, err := types.SourceTypeToValueType(c.TypeName, false)
	if err != nil || src == target {
		return
	}

	switch {
	case src == types.Int && target == types.Float:
		e.emit("i2f")
	case src == types.Float && target == types.Int:
		e.emit("f2i")
	case src == types.Bool:
		e.emitBoolToNumeric(target)
	case target == types.Bool:
		e.emitNumericToBool(src)
	}
}

func (e *Emitter) emitBoolToNumeric(target types.ValueType) {
	elseLabel := e.newLabel("b2n_else")
	end := e.newLabel("b2n_end")
	e.emit("branch_f", elseLabel)
	if target == types.Int {
		e.loadInt(1)
	} else {
		e.loadFloat("1", 1.0)
	}
	e.emit("jump", end)
	e.emitLabel(elseLabel, false)
	if target == types.Int {
		e.loadInt(0)
	} else {
		e.loadFloat("0", 0.0)
	}
	e.emitLabel(end, false)
}

func (e *Emitter) emitNumericToBool(src types.ValueType) {
	falseLabel := e.newLabel("n2b_false")
	end := e.newLabel("n2b_end")
	if src == types.Int {
		e.loadInt(0)
	} else {
		e.loadFloat("0", 0.0)
	}
	e.emit(src.ElementPrefix() + "eq")
	e.emit("branch_t", falseLabel)
	e.emit("bloadc_t")
	e.emit("jump", end)
	e.emitLabel(falseLabel, false)
	e.emit("bloadc_f")
	e.emitLabel(end, false)
}
