// Package semantic implements context analysis (spec §4.4): a two-pass
// traversal over the AST that resolves names across nested scopes, checks
// types with implicit numeric promotion, tracks array dimensions, matches
// call arguments against declared parameters, and builds the symbol table
// the bytecode emitter later reads.
//
// The teacher's analyzer threaded a handful of module-level globals
// (CURRENT_SCOPE, LAST_TYPE, HAD_ERROR...) through every traversal
// function; here that state lives on a single injected *Analyzer, per
// spec §9's re-architecture note.
package semantic

import (
	"fmt"

	cerrors "github.com/civc-lang/civc/internal/errors"
	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/scope"
	"github.com/civc-lang/civc/internal/symbol"
	"github.com/civc-lang/civc/internal/types"
)

// Analyzer is the injected context threaded through both passes. Exactly
// one Analyzer should be used per compilation: it is not reentrant.
type Analyzer struct {
	File   string
	Source string

	Global  *scope.Scope
	current *scope.Scope

	errs     []*cerrors.CompilerError
	hadError bool

	// resolved is the side table mapping a variable-use node to the symbol
	// it resolved to (spec §9: "cyclic AST-symbol back-pointers → side
	// tables" — this replaces storing the Symbol inside the AST node).
	resolved map[ast.Node]*symbol.Symbol

	// returned is allocated by New but never written or read; the
	// return-presence check (spec §4.4.7) is hasReturn in analysis_pass.go.
	returned map[*ast.FunctionDecl]bool

	nameStack []string // enclosing function name chain, for label mangling

	// RequiresInitFunction is set once declaration-pass traversal of the
	// top-level program has finished (spec §4.4.8).
	RequiresInitFunction bool
}

// NewAnalyzer constructs an Analyzer for one compilation unit. file is used
// only for diagnostic messages; source is the original text, used to
// render caret-annotated error context.
func NewAnalyzer(file, source string) *Analyzer {
	global := scope.New(nil, nil, false)
	return &Analyzer{
		File:     file,
		Source:   source,
		Global:   global,
		current:  global,
		resolved: make(map[ast.Node]*symbol.Symbol),
		returned: make(map[*ast.FunctionDecl]bool),
	}
}

// ResolvedSymbol returns the symbol a prior successful Analyze run
// resolved a Var/VarLet/FunCall node to, if any.
func (a *Analyzer) ResolvedSymbol(n ast.Node) (*symbol.Symbol, bool) {
	sym, ok := a.resolved[n]
	return sym, ok
}

// Errors returns the cumulative error list collected so far.
func (a *Analyzer) Errors() []*cerrors.CompilerError { return a.errs }

// HadError reports whether any error has been recorded.
func (a *Analyzer) HadError() bool { return a.hadError }

// addError records a diagnostic and sets the "had error" flag, but does
// not stop the traversal (spec §7: "cumulative... continues, so a single
// run reports as many issues as possible").
func (a *Analyzer) addError(kind cerrors.Kind, pos ast.Position, format string, args ...interface{}) {
	a.errs = append(a.errs, cerrors.NewCompilerError(kind, pos, fmt.Sprintf(format, args...), a.Source, a.File))
	a.hadError = true
}

// Analyze runs the declaration pass then the analysis pass over prog. It
// returns a formatted, aggregated error if any diagnostic was recorded
// (spec §7: "on pass completion, if the flag is set, compilation
// terminates before emission").
func (a *Analyzer) Analyze(prog *ast.Program) error {
	dp := &declarationPass{a: a}
	dp.runProgram(prog)

	a.RequiresInitFunction = a.Global.LocalOffsetCounter > 0

	ap := &analysisPass{a: a}
	ap.runProgram(prog)

	if a.hadError {
		return fmt.Errorf("%s", cerrors.FormatErrors(a.errs, false))
	}
	return nil
}

// mangledLabel computes a function's emitted label name (spec §4.4.6):
// exported functions keep their source name; nested/local functions are
// prefixed by the chain of enclosing function names with a leading
// underscore.
func (a *Analyzer) mangledLabel(name string, exported bool) string {
	if exported || len(a.nameStack) == 0 {
		return name
	}
	mangled := ""
	for _, enclosing := range a.nameStack {
		mangled += "_" + enclosing
	}
	return mangled + "_" + name
}

// declareScalarOrArray declares a (possibly array) variable named `name`
// of syntactic type `typeName` with dimension names `dimNames` into scope
// s, returning the constructed symbol. For arrays, each entry of dimNames
// must already resolve to an existing Int-typed scalar symbol reachable
// from s (spec §4.2: "an ordered sequence of REFERENCES to the scalar
// symbols that hold the runtime sizes").
func (a *Analyzer) declareScalarOrArray(s *scope.Scope, name, typeName string, dimNames []string, pos ast.Position) *symbol.Symbol {
	vt, err := types.SourceTypeToValueType(typeName, len(dimNames) > 0)
	if err != nil {
		a.addError(cerrors.InvalidType, pos, "%s", err)
		return nil
	}

	var dims []*symbol.Symbol
	for _, dn := range dimNames {
		dimSym, ok := s.LookupInTree(dn)
		if !ok {
			a.addError(cerrors.UndeclaredSymbol, pos, "undeclared dimension identifier %q in declaration of %q", dn, name)
			continue
		}
		if dimSym.Kind != symbol.Scalar || dimSym.ValueType != types.Int {
			a.addError(cerrors.ArrayShape, pos, "dimension identifier %q for %q must be a scalar int", dn, name)
			continue
		}
		dims = append(dims, dimSym)
	}

	var sym *symbol.Symbol
	if len(dimNames) > 0 {
		sym = symbol.NewArray(name, vt, dims)
	} else {
		sym = symbol.NewScalar(name, vt)
	}

	if s.IsDeclaredInCurrentScope(name) {
		a.addError(cerrors.DuplicateSymbol, pos, "%q is already declared in this scope", name)
		return sym
	}

	sym.OffsetInScope = s.NextLocalOffset()
	if err := s.Insert(name, sym); err != nil {
		a.addError(cerrors.DuplicateSymbol, pos, "%s", err)
	}
	return sym
}
