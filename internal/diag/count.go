// Package diag implements the optional counting diagnostics (spec §C):
// identifier and binary-operator usage counts over an analyzed program,
// surfaced only through the CLI's --diag-json flag. Grounded in
// src/count/trav_countidentifiers.c and src/count/trav_countbinops.c;
// neither traversal affects the required analysis/emission pipeline.
package diag

import "github.com/civc-lang/civc/internal/ast"

// CountIdentifiers counts every Var read and VarLet write by name,
// combined into one tally per identifier (trav_countidentifiers.c's
// CIvar/CIvarlet both feed the same hashtable).
func CountIdentifiers(prog *ast.Program) map[string]int {
	counts := make(map[string]int)
	walkProgram(prog, func(s ast.Stmt) {
		countStmtIdentifiers(s, counts)
	})
	return counts
}

func countStmtIdentifiers(s ast.Stmt, counts map[string]int) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			countExprIdentifiers(st.Init, counts)
		}
	case *ast.ExprStmt:
		countExprIdentifiers(st.X, counts)
	case *ast.Assign:
		counts[st.Target.Name]++
		countExprIdentifiers(st.Value, counts)
	case *ast.Return:
		if st.Value != nil {
			countExprIdentifiers(st.Value, counts)
		}
	case *ast.IfElse:
		countExprIdentifiers(st.Cond, counts)
		countBlockIdentifiers(st.Then, counts)
		countBlockIdentifiers(st.Else, counts)
	case *ast.While:
		countExprIdentifiers(st.Cond, counts)
		countBlockIdentifiers(st.Body, counts)
	case *ast.DoWhile:
		countBlockIdentifiers(st.Body, counts)
		countExprIdentifiers(st.Cond, counts)
	case *ast.For:
		counts[st.VarName]++
		if st.Start != nil {
			countExprIdentifiers(st.Start, counts)
		}
		if st.Stop != nil {
			countExprIdentifiers(st.Stop, counts)
		}
		if st.Step != nil {
			countExprIdentifiers(st.Step, counts)
		}
		countBlockIdentifiers(st.Body, counts)
	case *ast.Block:
		countBlockIdentifiers(st, counts)
	}
}

func countBlockIdentifiers(b *ast.Block, counts map[string]int) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		countStmtIdentifiers(s, counts)
	}
}

func countExprIdentifiers(e ast.Expr, counts map[string]int) {
	switch x := e.(type) {
	case *ast.Var:
		counts[x.Name]++
		for _, idx := range x.Indices {
			countExprIdentifiers(idx, counts)
		}
	case *ast.BinOp:
		countExprIdentifiers(x.Left, counts)
		countExprIdentifiers(x.Right, counts)
	case *ast.MonOp:
		countExprIdentifiers(x.X, counts)
	case *ast.Cast:
		countExprIdentifiers(x.X, counts)
	case *ast.FunCall:
		for _, arg := range x.Args {
			countExprIdentifiers(arg, counts)
		}
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			countExprIdentifiers(el, counts)
		}
	}
}

// CountBinops counts applications of +, -, *, /, % (trav_countbinops.c's
// CBObinop; comparison and logical operators are not tallied, matching the
// original's switch statement).
func CountBinops(prog *ast.Program) map[string]int {
	counts := make(map[string]int)
	walkProgram(prog, func(s ast.Stmt) {
		countStmtBinops(s, counts)
	})
	return counts
}

func countStmtBinops(s ast.Stmt, counts map[string]int) {
	switch st := s.(type) {
	case *ast.VarDecl:
		if st.Init != nil {
			countExprBinops(st.Init, counts)
		}
	case *ast.ExprStmt:
		countExprBinops(st.X, counts)
	case *ast.Assign:
		countExprBinops(st.Value, counts)
	case *ast.Return:
		if st.Value != nil {
			countExprBinops(st.Value, counts)
		}
	case *ast.IfElse:
		countExprBinops(st.Cond, counts)
		countBlockBinops(st.Then, counts)
		countBlockBinops(st.Else, counts)
	case *ast.While:
		countExprBinops(st.Cond, counts)
		countBlockBinops(st.Body, counts)
	case *ast.DoWhile:
		countBlockBinops(st.Body, counts)
		countExprBinops(st.Cond, counts)
	case *ast.For:
		if st.Start != nil {
			countExprBinops(st.Start, counts)
		}
		if st.Stop != nil {
			countExprBinops(st.Stop, counts)
		}
		if st.Step != nil {
			countExprBinops(st.Step, counts)
		}
		countBlockBinops(st.Body, counts)
	case *ast.Block:
		countBlockBinops(st, counts)
	}
}

func countBlockBinops(b *ast.Block, counts map[string]int) {
	if b == nil {
		return
	}
	for _, s := range b.Stmts {
		countStmtBinops(s, counts)
	}
}

var countedOps = map[ast.BinOpKind]string{
	ast.OpAdd: "+",
	ast.OpSub: "-",
	ast.OpMul: "*",
	ast.OpDiv: "/",
	ast.OpMod: "%",
}

func countExprBinops(e ast.Expr, counts map[string]int) {
	switch x := e.(type) {
	case *ast.BinOp:
		countExprBinops(x.Left, counts)
		countExprBinops(x.Right, counts)
		if name, ok := countedOps[x.Op]; ok {
			counts[name]++
		}
	case *ast.MonOp:
		countExprBinops(x.X, counts)
	case *ast.Cast:
		countExprBinops(x.X, counts)
	case *ast.FunCall:
		for _, arg := range x.Args {
			countExprBinops(arg, counts)
		}
	case *ast.Var:
		for _, idx := range x.Indices {
			countExprBinops(idx, counts)
		}
	case *ast.ArrayLit:
		for _, el := range x.Elems {
			countExprBinops(el, counts)
		}
	}
}

// walkProgram visits every statement in every top-level (and nested)
// function body in prog, in source order.
func walkProgram(prog *ast.Program, visit func(ast.Stmt)) {
	var walkFunc func(fd *ast.FunctionDecl)
	walkFunc = func(fd *ast.FunctionDecl) {
		for _, s := range fd.Body {
			visit(s)
		}
		for _, nested := range fd.Nested {
			walkFunc(nested)
		}
	}

	for _, decl := range prog.Decls {
		switch d := decl.(type) {
		case *ast.FunctionDecl:
			if !d.Imported {
				walkFunc(d)
			}
		case *ast.GlobalVarDef:
			if d.Init != nil {
				visit(&ast.ExprStmt{Base: d.Base, X: d.Init})
			}
		}
	}
}
