// Package opt implements the one optional AST-level rewrite the original
// implementation performs between context analysis and bytecode emission
// (spec §C): strength-reducing small-constant integer multiplication into
// a chain of additions.
package opt

import "github.com/civc-lang/civc/internal/ast"

const minFactor = 2
const maxFactor = 10

// StrengthReduceMul rewrites the function bodies of prog in place (global
// initializers are not visited), replacing every `var * k` or `k * var` —
// where var is an unindexed scalar read and k is an untouched integer
// literal with 2 <= |k| <= 10 — with a chain of |k|-1 additions of var to
// itself. Grounded in trav_strengthreduction.c's OSRbinop and
// isIntEligible: "can't optimise n = 1 or 0, this is for different opts".
//
// A literal whose type differs from var's has already been wrapped in an
// implicit cast by context analysis, so it no longer appears as a direct
// *ast.Num child here; such mixed-type multiplications are left alone,
// which keeps this rewrite limited to genuine integer multiplication.
//
// Negative k reduces using |k| additions whose sum is then negated. Every
// operand of the chain is var's own node, so the symbol the analyzer
// resolved for it still applies when the emitter lowers the chain.
func StrengthReduceMul(prog *ast.Program) {
	for _, decl := range prog.Decls {
		if fd, ok := decl.(*ast.FunctionDecl); ok {
			reduceFunction(fd)
		}
	}
}

func reduceFunction(fd *ast.FunctionDecl) {
	for i := range fd.Body {
		reduceStmt(&fd.Body[i])
	}
	for _, nested := range fd.Nested {
		reduceFunction(nested)
	}
}

func reduceStmt(s *ast.Stmt) {
	switch st := (*s).(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			reduceExpr(&st.Init)
		}
	case *ast.ExprStmt:
		reduceExpr(&st.X)
	case *ast.Assign:
		reduceExpr(&st.Value)
	case *ast.Return:
		if st.Value != nil {
			reduceExpr(&st.Value)
		}
	case *ast.IfElse:
		reduceExpr(&st.Cond)
		reduceBlock(st.Then)
		if st.Else != nil {
			reduceBlock(st.Else)
		}
	case *ast.While:
		reduceExpr(&st.Cond)
		reduceBlock(st.Body)
	case *ast.DoWhile:
		reduceBlock(st.Body)
		reduceExpr(&st.Cond)
	case *ast.For:
		if st.Start != nil {
			reduceExpr(&st.Start)
		}
		if st.Stop != nil {
			reduceExpr(&st.Stop)
		}
		if st.Step != nil {
			reduceExpr(&st.Step)
		}
		reduceBlock(st.Body)
	case *ast.Block:
		reduceBlock(st)
	}
}

func reduceBlock(b *ast.Block) {
	if b == nil {
		return
	}
	for i := range b.Stmts {
		reduceStmt(&b.Stmts[i])
	}
}

// reduceExpr descends into e's children first, matching OSRbinop's
// TRAVchildren-before-rewrite order, then rewrites *e itself if it is an
// eligible multiplication.
func reduceExpr(e *ast.Expr) {
	switch x := (*e).(type) {
	case *ast.BinOp:
		reduceExpr(&x.Left)
		reduceExpr(&x.Right)
		if x.Op == ast.OpMul {
			if rewritten := tryReduce(x); rewritten != nil {
				*e = rewritten
			}
		}
	case *ast.MonOp:
		reduceExpr(&x.X)
	case *ast.Cast:
		reduceExpr(&x.X)
	case *ast.FunCall:
		for i := range x.Args {
			reduceExpr(&x.Args[i])
		}
	case *ast.ArrayLit:
		for i := range x.Elems {
			reduceExpr(&x.Elems[i])
		}
	}
}

// tryReduce returns the additive chain replacing node, or nil if node isn't
// an eligible `var * k` / `k * var` integer multiplication.
func tryReduce(node *ast.BinOp) ast.Expr {
	varNode, numNode := eligibleOperands(node.Left, node.Right)
	if varNode == nil {
		return nil
	}

	k := int(numNode.Value)
	abs := k
	if abs < 0 {
		abs = -abs
	}
	if abs < minFactor || abs > maxFactor {
		return nil
	}

	var chain ast.Expr = ast.NewBinOp(node.Pos(), ast.OpAdd, varNode, varNode)
	for i := 2; i < abs; i++ {
		chain = ast.NewBinOp(node.Pos(), ast.OpAdd, chain, varNode)
	}
	if k < 0 {
		chain = &ast.MonOp{Base: ast.Base{Position: node.Pos()}, Op: ast.OpNeg, X: chain}
	}
	return chain
}

func eligibleOperands(left, right ast.Expr) (*ast.Var, *ast.Num) {
	if v, ok := left.(*ast.Var); ok && len(v.Indices) == 0 {
		if n, ok := right.(*ast.Num); ok {
			return v, n
		}
	}
	if v, ok := right.(*ast.Var); ok && len(v.Indices) == 0 {
		if n, ok := left.(*ast.Num); ok {
			return v, n
		}
	}
	return nil, nil
}
