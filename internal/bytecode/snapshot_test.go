package bytecode_test

import (
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// TestCompiledOutputSnapshot golden-files the full serialized assembly for a
// small program exercising globals, a nested function, array indexing, and
// a for-loop — the teacher's own bytecode tests lean on go-snaps rather than
// asserting byte-for-byte in line, and this mirrors that habit.
func TestCompiledOutputSnapshot(t *testing.T) {
	out := compileToText(t, `
		export int table = 0;

		export int sumSquares(int n) {
			int[n] xs = {1, 2, 3};
			int acc = 0;
			int squareOf(int v) {
				return v * v;
			}
			for (i = 0 to n) {
				acc = acc + squareOf(xs[i]);
			}
			table = acc;
			return acc;
		}
	`)
	snaps.MatchSnapshot(t, strings.TrimSpace(out))
}
