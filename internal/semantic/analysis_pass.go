package semantic

import (
	"strconv"

	cerrors "github.com/civc-lang/civc/internal/errors"
	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// analysisPass is the second traversal (spec §4.4.1): it checks
// statements and expressions against the names and types the declaration
// pass already registered, inserting implicit casts and resolving every
// variable use to its symbol as it goes.
type analysisPass struct {
	a *Analyzer

	// returnTypeStack mirrors the function nesting currently being
	// analyzed, so Return statements can check against the innermost
	// enclosing function's declared return type.
	returnTypeStack []types.ValueType
}

func (ap *analysisPass) currentReturnType() types.ValueType {
	if len(ap.returnTypeStack) == 0 {
		return types.Void
	}
	return ap.returnTypeStack[len(ap.returnTypeStack)-1]
}

func (ap *analysisPass) runProgram(prog *ast.Program) {
	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.GlobalVarDef:
			ap.analyzeGlobalVarDef(d)
		case *ast.FunctionDecl:
			if d.Imported {
				continue
			}
			sym, ok := ap.a.Global.LookupLocal(d.Name)
			if !ok {
				continue
			}
			ap.analyzeFunction(d, sym)
		}
	}
}

func (ap *analysisPass) analyzeGlobalVarDef(d *ast.GlobalVarDef) {
	a := ap.a
	sym, ok := a.Global.LookupLocal(d.Name)
	if !ok || d.Init == nil {
		return
	}
	if sym.IsArray() {
		ap.analyzeArrayInit(sym, a.Global, d.Name, &d.Init, d.Pos())
	} else {
		ap.checkAssignExpr(sym.ValueType, &d.Init, d.Pos())
	}
}

// analyzeFunction analyzes fd's body: nested-function forward declaration,
// statement-by-statement checking, the return-presence check, then
// recursion into nested function bodies.
func (ap *analysisPass) analyzeFunction(fd *ast.FunctionDecl, sym *symbol.Symbol) {
	a := ap.a
	prevScope := a.current
	a.current = sym.FuncScope
	a.nameStack = append(a.nameStack, fd.Name)
	ap.returnTypeStack = append(ap.returnTypeStack, sym.ReturnType)

	dp := &declarationPass{a: a}
	dp.declareBody(fd, sym)

	for _, stmt := range fd.Body {
		ap.analyzeStmt(stmt)
	}

	if sym.ReturnType != types.Void && !hasReturn(fd.Body) {
		a.addError(cerrors.MissingReturn, fd.Pos(), "function %q must return a %s value on at least one path", fd.Name, sym.ReturnType)
	}

	for _, nested := range fd.Nested {
		if nested.Imported {
			continue
		}
		nestedSym, ok := sym.FuncScope.LookupLocal(nested.Name)
		if ok {
			ap.analyzeFunction(nested, nestedSym)
		}
	}

	ap.returnTypeStack = ap.returnTypeStack[:len(ap.returnTypeStack)-1]
	a.nameStack = a.nameStack[:len(a.nameStack)-1]
	a.current = prevScope
}

// hasReturn reports whether at least one Return statement appears
// anywhere in stmts, including inside if/while/do-while/for bodies, but
// NOT inside a nested function's own body (spec §4.4.7's simpler
// invariant — presence, not full control-flow reachability).
func hasReturn(stmts []ast.Stmt) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.Return:
			return true
		case *ast.IfElse:
			if hasReturnBlock(st.Then) || (st.Else != nil && hasReturnBlock(st.Else)) {
				return true
			}
		case *ast.While:
			if hasReturnBlock(st.Body) {
				return true
			}
		case *ast.DoWhile:
			if hasReturnBlock(st.Body) {
				return true
			}
		case *ast.For:
			if hasReturnBlock(st.Body) {
				return true
			}
		}
	}
	return false
}

func hasReturnBlock(b *ast.Block) bool {
	return b != nil && hasReturn(b.Stmts)
}

func (ap *analysisPass) analyzeStmt(s ast.Stmt) {
	switch st := s.(type) {
	case *ast.VarDecl:
		ap.analyzeVarDecl(st)
	case *ast.ExprStmt:
		ap.analyzeExpr(st.X)
	case *ast.Assign:
		ap.analyzeAssign(st)
	case *ast.Return:
		ap.analyzeReturn(st)
	case *ast.IfElse:
		ap.analyzeIfElse(st)
	case *ast.While:
		ap.analyzeWhile(st)
	case *ast.DoWhile:
		ap.analyzeDoWhile(st)
	case *ast.For:
		ap.analyzeFor(st)
	case *ast.Block:
		for _, inner := range st.Stmts {
			ap.analyzeStmt(inner)
		}
	}
}

func (ap *analysisPass) analyzeVarDecl(st *ast.VarDecl) {
	a := ap.a
	sym := a.declareScalarOrArray(a.current, st.Name, st.TypeName, st.DimNames, st.Pos())
	if sym == nil {
		return
	}
	// Recorded so the emitter can recover the declared symbol without
	// re-walking the scope tree (spec §9's side-table design).
	a.resolved[st] = sym
	if st.Init == nil {
		return
	}
	if sym.IsArray() {
		ap.analyzeArrayInit(sym, a.current, st.Name, &st.Init, st.Pos())
	} else {
		ap.checkAssignExpr(sym.ValueType, &st.Init, st.Pos())
	}
}

// analyzeArrayInit handles both forms of array initialization (spec
// §4.4.5 / §4.6.5): an array-literal (shape-checked recursively against
// the declared dimension count) or a single scalar, broadcast into every
// element at runtime via three synthetic scalar slots reserved here.
func (ap *analysisPass) analyzeArrayInit(sym *symbol.Symbol, s *scope.Scope, name string, exprPtr *ast.Expr, pos ast.Position) {
	elemType := types.DemoteArrayType(sym.ValueType)

	if lit, ok := (*exprPtr).(*ast.ArrayLit); ok {
		ap.checkArrayLitShape(elemType, sym.DimCount, lit, pos)
		return
	}

	t := ap.analyzeExpr(*exprPtr)
	ap.coerceAssign(elemType, exprPtr, t, pos)
	ap.reserveSyntheticArrayScalars(s, name, elemType)
}

func (ap *analysisPass) reserveSyntheticArrayScalars(s *scope.Scope, name string, elemType types.ValueType) {
	declare := func(n string, vt types.ValueType) {
		if s.IsDeclaredInCurrentScope(n) {
			return
		}
		sc := symbol.NewScalar(n, vt)
		sc.OffsetInScope = s.NextLocalOffset()
		_ = s.Insert(n, sc)
	}
	declare("_scalar_"+name, elemType)
	declare("_counter_"+name, types.Int)
	declare("_size_"+name, types.Int)
}

// checkArrayLitShape recursively verifies that lit's nesting matches
// dimCount (spec §4.4.3's "ArrayShape" error: wrong dimensionality or
// inconsistent array-literal shape) and that leaf elements match elemType,
// inserting a cast where arithmetic promotion applies.
func (ap *analysisPass) checkArrayLitShape(elemType types.ValueType, dimCount int, lit *ast.ArrayLit, pos ast.Position) {
	if dimCount <= 1 {
		for i := range lit.Elems {
			t := ap.analyzeExpr(lit.Elems[i])
			ap.coerceAssign(elemType, &lit.Elems[i], t, pos)
		}
		return
	}

	for i := range lit.Elems {
		sub, ok := lit.Elems[i].(*ast.ArrayLit)
		if !ok {
			ap.a.addError(cerrors.ArrayShape, pos, "array literal is missing a nesting level")
			continue
		}
		ap.checkArrayLitShape(elemType, dimCount-1, sub, pos)
	}
}

func (ap *analysisPass) analyzeAssign(st *ast.Assign) {
	sym, targetType := ap.resolveVarLet(st.Target)
	if sym == nil {
		ap.analyzeExpr(st.Value)
		return
	}
	ap.checkAssignExpr(targetType, &st.Value, st.Pos())
}

// resolveVarLet resolves an assignment target, attaching the symbol to
// the side table and returning the type an assignment to it expects
// (element type if indexed, declared type otherwise).
func (ap *analysisPass) resolveVarLet(vl *ast.VarLet) (*symbol.Symbol, types.ValueType) {
	a := ap.a
	sym, ok := a.current.LookupInTree(vl.Name)
	if !ok {
		a.addError(cerrors.UndeclaredSymbol, vl.Pos(), "undeclared identifier %q", vl.Name)
		return nil, types.Null
	}
	a.resolved[vl] = sym

	if len(vl.Indices) == 0 {
		return sym, sym.ValueType
	}

	if !sym.IsArray() {
		a.addError(cerrors.ArrayShape, vl.Pos(), "%q is not an array", vl.Name)
		return sym, types.Null
	}
	if len(vl.Indices) != sym.DimCount {
		a.addError(cerrors.ArrayShape, vl.Pos(), "%q has %d dimension(s), %d index expression(s) given", vl.Name, sym.DimCount, len(vl.Indices))
	}
	for _, idx := range vl.Indices {
		t := ap.analyzeExpr(idx)
		if t != types.Int {
			a.addError(cerrors.TypeMismatch, idx.Pos(), "array index must be int, got %s", t)
		}
	}
	return sym, types.DemoteArrayType(sym.ValueType)
}

func (ap *analysisPass) analyzeReturn(st *ast.Return) {
	a := ap.a
	want := ap.currentReturnType()

	if st.Value == nil {
		if want != types.Void {
			a.addError(cerrors.TypeMismatch, st.Pos(), "function must return a %s value", want)
		}
		return
	}

	t := ap.analyzeExpr(st.Value)
	if want == types.Void {
		a.addError(cerrors.TypeMismatch, st.Pos(), "void function cannot return a value")
		return
	}
	ap.coerceAssign(want, &st.Value, t, st.Pos())
}

func (ap *analysisPass) analyzeIfElse(st *ast.IfElse) {
	ap.checkBoolCond(st.Cond)
	ap.analyzeBlock(st.Then)
	if st.Else != nil {
		ap.analyzeBlock(st.Else)
	}
}

func (ap *analysisPass) analyzeWhile(st *ast.While) {
	ap.checkBoolCond(st.Cond)
	ap.analyzeBlock(st.Body)
}

func (ap *analysisPass) analyzeDoWhile(st *ast.DoWhile) {
	ap.analyzeBlock(st.Body)
	ap.checkBoolCond(st.Cond)
}

func (ap *analysisPass) checkBoolCond(cond ast.Expr) {
	t := ap.analyzeExpr(cond)
	if t != types.Bool {
		ap.a.addError(cerrors.TypeMismatch, cond.Pos(), "condition must be bool, got %s", t)
	}
}

func (ap *analysisPass) analyzeBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		ap.analyzeStmt(s)
	}
}

// analyzeFor type-checks a for-loop's bounds (each must be Int, spec
// §4.4.3), declares the for-loop sentinel symbol into the enclosing scope,
// and declares the loop's induction variable and its condition/step
// scratch symbols into a new scope that shares the enclosing function's
// frame (spec §4.3, §4.4.2).
func (ap *analysisPass) analyzeFor(st *ast.For) {
	a := ap.a

	checkInt := func(e ast.Expr, what string) {
		if e == nil {
			return
		}
		t := ap.analyzeExpr(e)
		if t != types.Int {
			a.addError(cerrors.TypeMismatch, e.Pos(), "for-loop %s must be int, got %s", what, t)
		}
	}
	checkInt(st.Start, "start")
	checkInt(st.Stop, "stop")
	checkInt(st.Step, "step")

	loopIndex := a.current.NextForLoopIndex()
	mangled := forLoopSentinelName(a.nameStack, loopIndex)
	sentinel := symbol.NewForLoopSentinel(mangled)

	loopScope := scope.New(a.current, a.current.ParentFunction(), true)
	sentinel.InnerScope = loopScope
	sentinel.OffsetInScope = a.current.NextLocalOffset()
	_ = a.current.Insert(mangled, sentinel)
	// Recorded so the emitter can recover this loop's sentinel (and, via
	// its InnerScope, the loop's own scope) directly from the *ast.For
	// node on a later traversal, rather than re-deriving the mangled name.
	a.resolved[st] = sentinel

	induction := symbol.NewScalar(st.VarName, types.Int)
	induction.OffsetInScope = loopScope.NextLocalOffset()
	if err := loopScope.Insert(st.VarName, induction); err != nil {
		a.addError(cerrors.DuplicateSymbol, st.Pos(), "%s", err)
	}

	// _cond and _step hold the evaluated stop bound and step value for the
	// duration of the loop (spec §4.4.2's "induction, _cond, _step"); they
	// occupy offsets on the same shared frame as induction.
	condName := "_cond" + mangled
	stepName := "_step" + mangled
	condSym := symbol.NewScalar(condName, types.Int)
	condSym.OffsetInScope = loopScope.NextLocalOffset()
	_ = loopScope.Insert(condName, condSym)
	stepSym := symbol.NewScalar(stepName, types.Int)
	stepSym.OffsetInScope = loopScope.NextLocalOffset()
	_ = loopScope.Insert(stepName, stepSym)

	prev := a.current
	a.current = loopScope
	ap.analyzeBlock(st.Body)
	a.current = prev
}

func forLoopSentinelName(nameStack []string, idx int) string {
	prefix := "_forloop"
	for _, n := range nameStack {
		prefix += "_" + n
	}
	return prefix + strconv.Itoa(idx)
}
