package diag_test

import (
	"strings"
	"testing"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/diag"
	cerrors "github.com/civc-lang/civc/internal/errors"
)

func TestBuildReportRoundTrip(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int x = 1 + 2;
			int y = x * 2;
		}
	`)
	identCounts := diag.CountIdentifiers(prog)
	binopCounts := diag.CountBinops(prog)

	errs := []*cerrors.CompilerError{
		cerrors.NewCompilerError(cerrors.TypeMismatch, ast.Position{Line: 3, Column: 5}, "boom", "", "test.civc"),
	}

	doc, err := diag.BuildReport(errs, identCounts, binopCounts)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}

	if !strings.Contains(doc, `"TypeMismatch"`) {
		t.Fatalf("doc = %s, want it to mention TypeMismatch", doc)
	}

	count, ok := diag.ReadIdentifierCount(doc, "x")
	if !ok || count != identCounts["x"] {
		t.Fatalf("ReadIdentifierCount(x) = (%d, %v), want (%d, true)", count, ok, identCounts["x"])
	}

	mulCount, ok := diag.ReadBinopCount(doc, "*")
	if !ok || mulCount != binopCounts["*"] {
		t.Fatalf("ReadBinopCount(*) = (%d, %v), want (%d, true)", mulCount, ok, binopCounts["*"])
	}
}

// TestBuildReportEscapesPathMetacharacters proves sjsonKey's escaping:
// "*" is a gjson wildcard and "/" sits next to gjson's path-delimiter
// characters, so both must round-trip as literal operator keys rather
// than being swallowed by path matching.
func TestBuildReportEscapesPathMetacharacters(t *testing.T) {
	binopCounts := map[string]int{"*": 3, "/": 2, "+": 1, "-": 1, "%": 1}

	doc, err := diag.BuildReport(nil, nil, binopCounts)
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}

	for op, want := range binopCounts {
		got, ok := diag.ReadBinopCount(doc, op)
		if !ok || got != want {
			t.Fatalf("ReadBinopCount(%q) = (%d, %v), want (%d, true)", op, got, ok, want)
		}
	}
}

func TestBuildReportWithNoErrors(t *testing.T) {
	doc, err := diag.BuildReport(nil, map[string]int{"a": 1}, map[string]int{"+": 1})
	if err != nil {
		t.Fatalf("BuildReport() error = %v", err)
	}
	if count, ok := diag.ReadIdentifierCount(doc, "a"); !ok || count != 1 {
		t.Fatalf("ReadIdentifierCount(a) = (%d, %v), want (1, true)", count, ok)
	}
	if _, ok := diag.ReadIdentifierCount(doc, "missing"); ok {
		t.Fatalf("ReadIdentifierCount(missing) = found, want not found")
	}
}
