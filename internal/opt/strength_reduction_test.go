package opt_test

import (
	"testing"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/opt"
)

func parseOrFatal(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return prog
}

// countAdds counts the *ast.BinOp nodes with Op == OpAdd in e.
func countAdds(e ast.Expr) int {
	switch x := e.(type) {
	case *ast.BinOp:
		n := countAdds(x.Left) + countAdds(x.Right)
		if x.Op == ast.OpAdd {
			n++
		}
		return n
	case *ast.MonOp:
		return countAdds(x.X)
	case *ast.Cast:
		return countAdds(x.X)
	}
	return 0
}

func containsMul(e ast.Expr) bool {
	switch x := e.(type) {
	case *ast.BinOp:
		if x.Op == ast.OpMul {
			return true
		}
		return containsMul(x.Left) || containsMul(x.Right)
	case *ast.MonOp:
		return containsMul(x.X)
	case *ast.Cast:
		return containsMul(x.X)
	}
	return false
}

func TestStrengthReduceEligibleFactor(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int x = 7;
			int y = x * 5;
		}
	`)
	opt.StrengthReduceMul(prog)

	fd := prog.Decls[0].(*ast.FunctionDecl)
	y := fd.Body[1].(*ast.VarDecl)

	if containsMul(y.Init) {
		t.Fatalf("y.Init = %v, still contains a multiplication", y.Init)
	}
	if got := countAdds(y.Init); got != 4 {
		t.Fatalf("countAdds(y.Init) = %d, want 4 (x*5 -> x+x+x+x+x)", got)
	}
}

func TestStrengthReduceLeavesIneligibleFactorsAlone(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int x = 7;
			int one = x * 1;
			int zero = x * 0;
			int big = x * 11;
		}
	`)
	opt.StrengthReduceMul(prog)

	fd := prog.Decls[0].(*ast.FunctionDecl)
	for _, name := range []string{"one", "zero", "big"} {
		for _, s := range fd.Body {
			vd, ok := s.(*ast.VarDecl)
			if !ok || vd.Name != name {
				continue
			}
			if !containsMul(vd.Init) {
				t.Fatalf("%s.Init = %v, multiplication was reduced but factor is out of range", name, vd.Init)
			}
		}
	}
}

func TestStrengthReduceDescendsIntoNestedFunctionsAndControlFlow(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int helper(int n) {
				return n * 3;
			}
			int total = 0;
			if (total == 0) {
				total = total * 4;
			}
		}
	`)
	opt.StrengthReduceMul(prog)

	fd := prog.Decls[0].(*ast.FunctionDecl)
	helper := fd.Nested[0]
	ret := helper.Body[0].(*ast.Return)
	if containsMul(ret.Value) {
		t.Fatalf("helper's return = %v, still contains a multiplication", ret.Value)
	}

	ifelse := fd.Body[1].(*ast.IfElse)
	assign := ifelse.Then.Stmts[0].(*ast.Assign)
	if containsMul(assign.Value) {
		t.Fatalf("assign.Value = %v, still contains a multiplication", assign.Value)
	}
}
