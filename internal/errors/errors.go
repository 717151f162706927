// Package errors provides the compiler's error taxonomy and formatting:
// it renders a CompilerError with source context and a caret pointing at
// the offending column, and orders cumulative diagnostics for display.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"golang.org/x/text/width"

	"github.com/civc-lang/civc/internal/ast"
)

// Kind is the closed taxonomy from spec §7. It is a classification, not a
// Go type: every CompilerError carries exactly one.
type Kind uint8

const (
	DuplicateSymbol Kind = iota
	UndeclaredSymbol
	TypeMismatch
	ArgumentCountMismatch
	ArrayShape
	InvalidCast
	InvalidOperator
	InvalidType
	MissingReturn
	IOError
)

func (k Kind) String() string {
	names := [...]string{
		"DuplicateSymbol", "UndeclaredSymbol", "TypeMismatch",
		"ArgumentCountMismatch", "ArrayShape", "InvalidCast",
		"InvalidOperator", "InvalidType", "MissingReturn", "IOError",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// CompilerError represents a single compilation error with position and
// source context.
type CompilerError struct {
	Kind    Kind
	Message string
	Source  string
	File    string
	Pos     ast.Position
}

// NewCompilerError creates a new compiler error of the given kind.
func NewCompilerError(kind Kind, pos ast.Position, message, source, file string) *CompilerError {
	return &CompilerError{
		Kind:    kind,
		Pos:     pos,
		Message: message,
		Source:  source,
		File:    file,
	}
}

// Error implements the error interface.
func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format formats the error message with source context. If color is true,
// ANSI color codes are used for terminal output.
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s: error in %s:%d:%d\n", e.Kind, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s: error at %d:%d\n", e.Kind, e.Pos.Line, e.Pos.Column))
	}

	sourceLine := e.getSourceLine(e.Pos.Line)
	if sourceLine != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(sourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+caretOffset(sourceLine, e.Pos.Column)))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

// getSourceLine extracts a specific line from the source code (1-indexed).
func (e *CompilerError) getSourceLine(lineNum int) string {
	if e.Source == "" {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if lineNum < 1 || lineNum > len(lines) {
		return ""
	}

	return lines[lineNum-1]
}

// caretOffset measures the display width (not byte count) of the source
// runes before column col, so the caret lands under the right glyph even
// when the line mixes single- and double-width runes.
func caretOffset(line string, col int) int {
	runes := []rune(line)
	if col-1 > len(runes) {
		col = len(runes) + 1
	}
	offset := 0
	for _, r := range runes[:col-1] {
		if width.LookupRune(r).Kind() == width.EastAsianWide || width.LookupRune(r).Kind() == width.EastAsianFullwidth {
			offset += 2
		} else {
			offset++
		}
	}
	return offset
}

// FormatErrors formats multiple compiler errors, sorted into a stable,
// human-friendly order (file, then line/column using natural-sort so that
// line "10" sorts after line "2" rather than before it).
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}

	sorted := SortedErrors(errs)

	if len(sorted) == 1 {
		return sorted[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("compilation failed with %d error(s):\n\n", len(sorted)))

	for i, err := range sorted {
		sb.WriteString(fmt.Sprintf("[error %d of %d]\n", i+1, len(sorted)))
		sb.WriteString(err.Format(color))
		if i < len(sorted)-1 {
			sb.WriteString("\n\n")
		}
	}

	return sb.String()
}

// SortedErrors returns errs ordered by file then by a natural-sort of their
// "line:column" position string (github.com/maruel/natural), so diagnostics
// read top-to-bottom the way a human scanning the source would expect and
// line 10 sorts after line 2 instead of before it.
func SortedErrors(errs []*CompilerError) []*CompilerError {
	sorted := make([]*CompilerError, len(errs))
	copy(sorted, errs)

	key := func(e *CompilerError) string {
		return fmt.Sprintf("%s:%d:%d", e.File, e.Pos.Line, e.Pos.Column)
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return natural.Less(key(sorted[i]), key(sorted[j]))
	})
	return sorted
}
