package errors

import (
	"strings"
	"testing"

	"github.com/civc-lang/civc/internal/ast"
)

func TestCompilerErrorFormat(t *testing.T) {
	err := NewCompilerError(TypeMismatch, ast.Position{Line: 2, Column: 5}, "cannot assign float to bool", "int x = 1\nbool b = 2.0", "main.civ")

	got := err.Format(false)
	if !strings.Contains(got, "TypeMismatch") {
		t.Errorf("expected kind in output, got %q", got)
	}
	if !strings.Contains(got, "main.civ:2:5") {
		t.Errorf("expected file:line:col in output, got %q", got)
	}
	if !strings.Contains(got, "bool b = 2.0") {
		t.Errorf("expected source line in output, got %q", got)
	}
	if !strings.Contains(got, "^") {
		t.Errorf("expected caret in output, got %q", got)
	}
}

func TestFormatErrorsSortsByPosition(t *testing.T) {
	errs := []*CompilerError{
		NewCompilerError(UndeclaredSymbol, ast.Position{Line: 10, Column: 1}, "b", "", "f.civ"),
		NewCompilerError(UndeclaredSymbol, ast.Position{Line: 2, Column: 1}, "a", "", "f.civ"),
	}

	sorted := SortedErrors(errs)
	if sorted[0].Message != "a" || sorted[1].Message != "b" {
		t.Fatalf("expected natural-sorted order [a b], got [%s %s]", sorted[0].Message, sorted[1].Message)
	}
}

func TestFormatErrorsEmpty(t *testing.T) {
	if got := FormatErrors(nil, false); got != "" {
		t.Errorf("expected empty string for no errors, got %q", got)
	}
}

func TestFormatErrorsMultiple(t *testing.T) {
	errs := []*CompilerError{
		NewCompilerError(DuplicateSymbol, ast.Position{Line: 1, Column: 1}, "x redeclared", "", "f.civ"),
		NewCompilerError(MissingReturn, ast.Position{Line: 5, Column: 1}, "f has no return", "", "f.civ"),
	}

	got := FormatErrors(errs, false)
	if !strings.Contains(got, "2 error(s)") {
		t.Errorf("expected error count header, got %q", got)
	}
}
