package diag_test

import (
	"testing"

	"github.com/civc-lang/civc/internal/ast"
	"github.com/civc-lang/civc/internal/diag"
)

func parseOrFatal(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, err := ast.Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return prog
}

func TestCountIdentifiers(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int total = 0;
			int i = 0;
			while (i < 10) {
				total = total + i;
				i = i + 1;
			}
		}
	`)
	counts := diag.CountIdentifiers(prog)

	// total: written once and read once by "total = total + i"
	if counts["total"] != 2 {
		t.Fatalf(`counts["total"] = %d, want 2`, counts["total"])
	}
	// i: read in the loop condition, read in "total + i", then written and
	// read again by "i = i + 1"
	if counts["i"] != 4 {
		t.Fatalf(`counts["i"] = %d, want 4`, counts["i"])
	}
}

func TestCountBinopsOnlyCountsArithmetic(t *testing.T) {
	prog := parseOrFatal(t, `
		export void run() {
			int x = 1 + 2 - 3;
			int y = x * 4 / 2 % 3;
			bool ok = x < y && y > 0;
		}
	`)
	counts := diag.CountBinops(prog)

	if counts["+"] != 1 || counts["-"] != 1 {
		t.Fatalf("counts = %#v, want one + and one -", counts)
	}
	if counts["*"] != 1 || counts["/"] != 1 || counts["%"] != 1 {
		t.Fatalf("counts = %#v, want one each of * / %%", counts)
	}
	if _, ok := counts["<"]; ok {
		t.Fatalf("counts = %#v, comparison operators should not be tallied", counts)
	}
	if _, ok := counts["&&"]; ok {
		t.Fatalf("counts = %#v, logical operators should not be tallied", counts)
	}
}

func TestCountIdentifiersIncludesGlobalInitializers(t *testing.T) {
	prog := parseOrFatal(t, `
		int base = 10;
		export int twice = base + base;
	`)
	counts := diag.CountIdentifiers(prog)
	if counts["base"] != 2 {
		t.Fatalf(`counts["base"] = %d, want 2`, counts["base"])
	}
}
