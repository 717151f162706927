package semantic

import (
	"strings"
	"testing"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
)

// These tests build small AST fragments directly — the same shape
// ast.Parse hands the analyzer — rather than going through source text.

func pos() ast.Position { return ast.Position{Line: 1, Column: 1} }

func num(n int64) *ast.Num     { return &ast.Num{Base: ast.Base{Position: pos()}, Value: n} }
func flt(f float64) *ast.Float { return &ast.Float{Base: ast.Base{Position: pos()}, Value: f} }
func boolLit(b bool) *ast.Bool { return &ast.Bool{Base: ast.Base{Position: pos()}, Value: b} }
func ident(name string) *ast.Var {
	return &ast.Var{Base: ast.Base{Position: pos()}, Name: name}
}

func analyze(t *testing.T, prog *ast.Program) (*Analyzer, error) {
	t.Helper()
	a := NewAnalyzer("test.civc", "")
	err := a.Analyze(prog)
	return a, err
}

func expectNoErrors(t *testing.T, prog *ast.Program) *Analyzer {
	t.Helper()
	a, err := analyze(t, prog)
	if err != nil {
		t.Fatalf("expected no errors, got: %v", err)
	}
	return a
}

func expectError(t *testing.T, prog *ast.Program, substr string) {
	t.Helper()
	_, err := analyze(t, prog)
	if err == nil {
		t.Fatalf("expected an error containing %q, got none", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got: %v", substr, err)
	}
}

func TestGlobalVarDeclAndDuplicate(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: num(3)},
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: num(4)},
		},
	}
	expectError(t, prog, "DuplicateSymbol")
}

func TestGlobalVarInitTypeMismatch(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "ok", TypeName: "bool", Init: num(1)},
		},
	}
	expectError(t, prog, "TypeMismatch")
}

// int x = 3; float y = x + 1.5; exercises scenario 2 of the spec: the
// analyzer should splice an i2f cast around x rather than reject the mix.
func TestArithmeticPromotionInsertsCast(t *testing.T) {
	binop := ast.NewBinOp(pos(), ast.OpAdd, ident("x"), flt(1.5))
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: num(3)},
			&ast.GlobalVarDef{Name: "y", TypeName: "float", Init: binop},
		},
	}
	expectNoErrors(t, prog)

	cast, ok := binop.Left.(*ast.Cast)
	if !ok {
		t.Fatalf("expected binop.Left to be rewritten to a Cast, got %T", binop.Left)
	}
	if cast.TypeName != "float" {
		t.Errorf("cast target = %q, want %q", cast.TypeName, "float")
	}
}

func TestUndeclaredIdentifier(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "y", TypeName: "int", Init: ident("missing")},
		},
	}
	expectError(t, prog, "UndeclaredSymbol")
}

func TestArrayDeclarationResolvesDimensionScalar(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "n", TypeName: "int"},
			&ast.GlobalVarDecl{Name: "a", TypeName: "int", DimNames: []string{"n"}},
		},
	}
	a := expectNoErrors(t, prog)

	sym, ok := a.Global.LookupLocal("a")
	if !ok || !sym.IsArray() {
		t.Fatalf("expected %q to resolve to an array symbol", "a")
	}
	if sym.DimCount != 1 || sym.Dims[0].Name != "n" {
		t.Fatalf("expected array %q to reference dimension scalar %q, got dims %v", "a", "n", sym.Dims)
	}
}

func TestArrayDeclarationUndeclaredDimension(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "a", TypeName: "int", DimNames: []string{"n"}},
		},
	}
	expectError(t, prog, "UndeclaredSymbol")
}

func TestIndexedArrayUseDemotesToElementType(t *testing.T) {
	idxVar := &ast.Var{Name: "a", Indices: []ast.Expr{num(0)}}
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "n", TypeName: "int"},
			&ast.GlobalVarDecl{Name: "a", TypeName: "int", DimNames: []string{"n"}},
			&ast.GlobalVarDef{Name: "elem", TypeName: "int", Init: idxVar},
		},
	}
	expectNoErrors(t, prog)
}

// A function with a non-void return type must have at least one Return
// statement somewhere in its body (spec §4.4.7's presence check, not full
// control-flow reachability).
func TestMissingReturn(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "f",
		ReturnType: "int",
		Body:       []ast.Stmt{&ast.ExprStmt{X: num(1)}},
	}
	prog := &ast.Program{Decls: []ast.Decl{fn}}
	expectError(t, prog, "MissingReturn")
}

func TestReturnPresentInsideIf(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "f",
		ReturnType: "int",
		Body: []ast.Stmt{
			&ast.IfElse{
				Cond: boolLit(true),
				Then: &ast.Block{Stmts: []ast.Stmt{&ast.Return{Value: num(1)}}},
			},
		},
	}
	prog := &ast.Program{Decls: []ast.Decl{fn}}
	expectNoErrors(t, prog)
}

func TestReturnInsideNestedFunctionDoesNotCountForOuter(t *testing.T) {
	inner := &ast.FunctionDecl{
		Name:       "inner",
		ReturnType: "int",
		Body:       []ast.Stmt{&ast.Return{Value: num(1)}},
	}
	outer := &ast.FunctionDecl{
		Name:       "outer",
		ReturnType: "int",
		Nested:     []*ast.FunctionDecl{inner},
		Body:       []ast.Stmt{&ast.ExprStmt{X: &ast.FunCall{Name: "inner"}}},
	}
	prog := &ast.Program{Decls: []ast.Decl{outer}}
	expectError(t, prog, "MissingReturn")
}

func TestFunctionCallArgumentCountMismatch(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "add",
		ReturnType: "int",
		Params: []*ast.Param{
			{Name: "a", TypeName: "int"},
			{Name: "b", TypeName: "int"},
		},
		Body: []ast.Stmt{&ast.Return{Value: ident("a")}},
	}
	call := &ast.FunCall{Name: "add", Args: []ast.Expr{num(1)}}
	prog := &ast.Program{
		Decls: []ast.Decl{
			fn,
			&ast.GlobalVarDef{Name: "r", TypeName: "int", Init: call},
		},
	}
	expectError(t, prog, "ArgumentCountMismatch")
}

func TestFunctionCallScalarArgumentCoercion(t *testing.T) {
	fn := &ast.FunctionDecl{
		Name:       "scale",
		ReturnType: "float",
		Params: []*ast.Param{
			{Name: "a", TypeName: "float"},
		},
		Body: []ast.Stmt{&ast.Return{Value: ident("a")}},
	}
	call := &ast.FunCall{Name: "scale", Args: []ast.Expr{num(2)}}
	prog := &ast.Program{
		Decls: []ast.Decl{
			fn,
			&ast.GlobalVarDef{Name: "r", TypeName: "float", Init: call},
		},
	}
	a := expectNoErrors(t, prog)
	if _, ok := a.ResolvedSymbol(call); !ok {
		t.Errorf("expected the call to resolve to a symbol in the side table")
	}
	if _, ok := call.Args[0].(*ast.Cast); !ok {
		t.Errorf("expected the integer argument to be coerced with an implicit cast, got %T", call.Args[0])
	}
}

func TestFunctionCallArrayArgumentMustBeUnindexed(t *testing.T) {
	callee := &ast.FunctionDecl{
		Name:       "sum",
		ReturnType: "int",
		Params: []*ast.Param{
			{Name: "xs", TypeName: "int", DimNames: []string{"n"}},
		},
		Body: []ast.Stmt{&ast.Return{Value: num(0)}},
	}
	badCall := &ast.FunCall{
		Name: "sum",
		Args: []ast.Expr{&ast.Var{Name: "a", Indices: []ast.Expr{num(0)}}},
	}
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "n", TypeName: "int"},
			&ast.GlobalVarDecl{Name: "a", TypeName: "int", DimNames: []string{"n"}},
			callee,
			&ast.GlobalVarDef{Name: "total", TypeName: "int", Init: badCall},
		},
	}
	expectError(t, prog, "ArrayShape")
}

// Two local functions that call each other must both resolve despite
// source order, since the declaration pass pre-registers nested function
// signatures before either body is analyzed (spec §4.4.1).
func TestMutuallyForwardReferencingNestedFunctions(t *testing.T) {
	first := &ast.FunctionDecl{
		Name:       "first",
		ReturnType: "int",
		Body:       []ast.Stmt{&ast.Return{Value: &ast.FunCall{Name: "second"}}},
	}
	second := &ast.FunctionDecl{
		Name:       "second",
		ReturnType: "int",
		Body:       []ast.Stmt{&ast.Return{Value: num(1)}},
	}
	outer := &ast.FunctionDecl{
		Name:       "outer",
		ReturnType: "int",
		Nested:     []*ast.FunctionDecl{first, second},
		Body:       []ast.Stmt{&ast.Return{Value: &ast.FunCall{Name: "first"}}},
	}
	prog := &ast.Program{Decls: []ast.Decl{outer}}
	expectNoErrors(t, prog)
}

// For-loop variables must occupy offsets on the enclosing function's frame
// counter, not a fresh counter of their own (spec §4.4.2), so a local
// declared after a for-loop must not collide with an offset the loop used.
func TestForLoopSharesEnclosingFrameOffsets(t *testing.T) {
	forStmt := &ast.For{
		VarName: "i",
		Start:   num(0),
		Stop:    num(10),
		Body: &ast.Block{
			Stmts: []ast.Stmt{
				&ast.VarDecl{Name: "tmp", TypeName: "int", Init: num(0)},
			},
		},
	}
	fn := &ast.FunctionDecl{
		Name:       "loopy",
		ReturnType: "void",
		Body: []ast.Stmt{
			forStmt,
			&ast.VarDecl{Name: "after", TypeName: "int", Init: num(0)},
			&ast.Return{},
		},
	}
	prog := &ast.Program{Decls: []ast.Decl{fn}}
	a := expectNoErrors(t, prog)

	sym, ok := a.Global.LookupLocal("loopy")
	if !ok {
		t.Fatalf("expected function %q to be registered", "loopy")
	}
	funcScope, ok := sym.FuncScope.(*scope.Scope)
	if !ok {
		t.Fatalf("expected FuncScope to be a *scope.Scope, got %T", sym.FuncScope)
	}

	sentinel, ok := funcScope.LookupLocal("_forloop_loopy0")
	if !ok {
		t.Fatalf("expected the for-loop sentinel to be registered in the function scope")
	}
	loopScope, ok := sentinel.InnerScope.(*scope.Scope)
	if !ok {
		t.Fatalf("expected sentinel.InnerScope to be a *scope.Scope, got %T", sentinel.InnerScope)
	}

	tmpSym, ok := loopScope.LookupLocal("tmp")
	if !ok {
		t.Fatalf("expected %q declared inside the loop body to resolve in the loop scope", "tmp")
	}
	afterSym, ok := funcScope.LookupLocal("after")
	if !ok {
		t.Fatalf("expected %q declared after the loop to resolve in the function scope", "after")
	}
	if tmpSym.OffsetInScope == afterSym.OffsetInScope {
		t.Errorf("expected tmp and after to occupy distinct offsets on the shared frame counter, both got %d", tmpSym.OffsetInScope)
	}
	if loopScope.NestingLevel() != funcScope.NestingLevel() {
		t.Errorf("expected the for-loop scope to share its enclosing function's nesting level, got %d vs %d", loopScope.NestingLevel(), funcScope.NestingLevel())
	}
}

func TestTypeMismatchOnIncompatibleOperands(t *testing.T) {
	bin := ast.NewBinOp(pos(), ast.OpAdd, boolLit(true), num(1))
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: bin},
		},
	}
	expectError(t, prog, "TypeMismatch")
}

func TestBooleanAddActsAsDisjunction(t *testing.T) {
	bin := ast.NewBinOp(pos(), ast.OpAdd, boolLit(true), boolLit(false))
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "bool", Init: bin},
		},
	}
	expectNoErrors(t, prog)
}

func TestModuloRejectsFloat(t *testing.T) {
	bin := ast.NewBinOp(pos(), ast.OpMod, flt(1.5), num(2))
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: bin},
		},
	}
	expectError(t, prog, "InvalidOperator")
}

func TestExplicitCastFromInvalidSource(t *testing.T) {
	lit := &ast.ArrayLit{Elems: []ast.Expr{num(1), num(2)}}
	cast := ast.NewCast(pos(), "int", lit)
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDecl{Name: "n", TypeName: "int"},
			&ast.GlobalVarDef{Name: "a", TypeName: "int", DimNames: []string{"n"}, Init: nil},
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: cast},
		},
	}
	expectError(t, prog, "TypeMismatch")
}

func TestRequiresInitFunctionSetWhenGlobalsExist(t *testing.T) {
	prog := &ast.Program{
		Decls: []ast.Decl{
			&ast.GlobalVarDef{Name: "x", TypeName: "int", Init: num(1)},
		},
	}
	a := expectNoErrors(t, prog)
	if !a.RequiresInitFunction {
		t.Errorf("expected RequiresInitFunction to be true when a global has an initializer")
	}
}

func TestRequiresInitFunctionFalseWhenNoGlobals(t *testing.T) {
	fn := &ast.FunctionDecl{Name: "f", ReturnType: "void", Body: []ast.Stmt{&ast.Return{}}}
	prog := &ast.Program{Decls: []ast.Decl{fn}}
	a := expectNoErrors(t, prog)
	if a.RequiresInitFunction {
		t.Errorf("expected RequiresInitFunction to be false with no global variables")
	}
}
