package ast_test

import (
	"testing"

	"github.com/civc-lang/civc/internal/ast"
)

func TestParseGlobalsAndFunction(t *testing.T) {
	src := `
		int x = 3;
		export float y = 1.5;
		import int external_count();

		export int add(int a, int b) {
			return a + b;
		}
	`
	prog, err := ast.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(prog.Decls) != 4 {
		t.Fatalf("len(Decls) = %d, want 4", len(prog.Decls))
	}

	x, ok := prog.Decls[0].(*ast.GlobalVarDef)
	if !ok || x.Name != "x" || x.TypeName != "int" {
		t.Fatalf("Decls[0] = %#v, want GlobalVarDef x int", prog.Decls[0])
	}
	if _, ok := x.Init.(*ast.Num); !ok {
		t.Fatalf("x.Init = %#v, want *ast.Num", x.Init)
	}

	y, ok := prog.Decls[1].(*ast.GlobalVarDef)
	if !ok || !y.Exported {
		t.Fatalf("Decls[1] = %#v, want exported GlobalVarDef", prog.Decls[1])
	}

	imp, ok := prog.Decls[2].(*ast.FunctionDecl)
	if !ok || !imp.Imported || imp.Name != "external_count" {
		t.Fatalf("Decls[2] = %#v, want imported FunctionDecl external_count", prog.Decls[2])
	}

	add, ok := prog.Decls[3].(*ast.FunctionDecl)
	if !ok || add.Name != "add" || !add.Exported || len(add.Params) != 2 {
		t.Fatalf("Decls[3] = %#v, want exported FunctionDecl add/2", prog.Decls[3])
	}
	if len(add.Body) != 1 {
		t.Fatalf("len(add.Body) = %d, want 1", len(add.Body))
	}
	ret, ok := add.Body[0].(*ast.Return)
	if !ok {
		t.Fatalf("add.Body[0] = %#v, want *ast.Return", add.Body[0])
	}
	bin, ok := ret.Value.(*ast.BinOp)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("ret.Value = %#v, want a + binop", ret.Value)
	}
}

func TestParseNestedFunctionAndControlFlow(t *testing.T) {
	src := `
		export void run() {
			int total = 0;
			int helper(int n) {
				return n * 2;
			}
			for (i = 0 to 9) {
				if (i % 2 == 0) {
					total = total + helper(i);
				} else {
					total = total - 1;
				}
			}
			while (total > 100) {
				total = total - 1;
			}
			do {
				total = total - 1;
			} while (total > 0);
		}
	`
	prog, err := ast.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(prog.Decls) != 1 {
		t.Fatalf("len(Decls) = %d, want 1", len(prog.Decls))
	}
	run := prog.Decls[0].(*ast.FunctionDecl)
	if len(run.Nested) != 1 || run.Nested[0].Name != "helper" {
		t.Fatalf("run.Nested = %#v, want one nested func helper", run.Nested)
	}
	if len(run.Body) != 4 {
		t.Fatalf("len(run.Body) = %d, want 4 (VarDecl, For, While, DoWhile)", len(run.Body))
	}
	if _, ok := run.Body[1].(*ast.For); !ok {
		t.Fatalf("run.Body[1] = %#v, want *ast.For", run.Body[1])
	}
	if _, ok := run.Body[2].(*ast.While); !ok {
		t.Fatalf("run.Body[2] = %#v, want *ast.While", run.Body[2])
	}
	if _, ok := run.Body[3].(*ast.DoWhile); !ok {
		t.Fatalf("run.Body[3] = %#v, want *ast.DoWhile", run.Body[3])
	}
}

func TestParseArraysAndCasts(t *testing.T) {
	src := `
		export void run() {
			int[n] xs = {1, 2, 3};
			float avg = (float) xs[0] / (float) n;
		}
	`
	prog, err := ast.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	run := prog.Decls[0].(*ast.FunctionDecl)
	xs := run.Body[0].(*ast.VarDecl)
	if xs.Name != "xs" || len(xs.DimNames) != 1 || xs.DimNames[0] != "n" {
		t.Fatalf("xs = %#v, want array decl with dim n", xs)
	}
	lit, ok := xs.Init.(*ast.ArrayLit)
	if !ok || len(lit.Elems) != 3 {
		t.Fatalf("xs.Init = %#v, want 3-element array literal", xs.Init)
	}

	avg := run.Body[1].(*ast.VarDecl)
	bin, ok := avg.Init.(*ast.BinOp)
	if !ok || bin.Op != ast.OpDiv {
		t.Fatalf("avg.Init = %#v, want a division", avg.Init)
	}
	if _, ok := bin.Left.(*ast.Cast); !ok {
		t.Fatalf("bin.Left = %#v, want *ast.Cast", bin.Left)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := ast.Parse(`int x = ;`)
	if err == nil {
		t.Fatal("expected a parse error, got none")
	}
}
