// Package types implements the value-type facade: the small, closed set of
// types the source language supports, and the total functions the rest of
// the compiler uses to reason about them (promotion, demotion, stringification).
package types

import "fmt"

// ValueType is the tagged enumeration of every type a symbol or expression
// can carry. Null is a sentinel used by the analyzer alone, meaning "no
// expression was evaluated" (e.g. the synthetic type of a statement).
type ValueType uint8

const (
	Null ValueType = iota
	Int
	Float
	Bool
	Void
	IntArray
	FloatArray
	BoolArray
)

// String renders the stable spelling used both in diagnostics and in the
// emitted assembly's directive tokens.
func (v ValueType) String() string {
	switch v {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Void:
		return "void"
	case IntArray:
		return "int[]"
	case FloatArray:
		return "float[]"
	case BoolArray:
		return "bool[]"
	case Null:
		return "<null>"
	default:
		return fmt.Sprintf("<invalid value type %d>", uint8(v))
	}
}

// IsArray reports whether v is one of the three array types.
func (v ValueType) IsArray() bool {
	switch v {
	case IntArray, FloatArray, BoolArray:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether v supports +, -, *, / etc as a scalar.
func (v ValueType) IsArithmetic() bool {
	return v == Int || v == Float
}

// IsArithmetic is the free-function spelling used by callers that don't
// already hold a ValueType receiver (mirrors spec's is_arithmetic(v)).
func IsArithmetic(v ValueType) bool {
	return v.IsArithmetic()
}

// ElementPrefix returns the one-letter opcode type prefix ("i", "f", "b")
// for a scalar type, or "a" for any array type (the VM addresses arrays
// uniformly regardless of element type once a reference is on the stack).
func (v ValueType) ElementPrefix() string {
	switch v {
	case Int:
		return "i"
	case Float:
		return "f"
	case Bool:
		return "b"
	case IntArray, FloatArray, BoolArray:
		return "a"
	default:
		return ""
	}
}

// DemoteArrayType returns the element type of an array type. It panics if
// called on a non-array type: this is a developer-asserted invariant, not
// a user-facing error, since callers are expected to have already checked
// IsArray().
func DemoteArrayType(array ValueType) ValueType {
	switch array {
	case IntArray:
		return Int
	case FloatArray:
		return Float
	case BoolArray:
		return Bool
	default:
		panic(fmt.Sprintf("types: DemoteArrayType called on non-array type %s", array))
	}
}

// PromoteArrayType returns the array type corresponding to a scalar element
// type. It is the inverse of DemoteArrayType, used when an array literal's
// element type has been inferred and the declared array type must be built.
func PromoteArrayType(elem ValueType) (ValueType, error) {
	switch elem {
	case Int:
		return IntArray, nil
	case Float:
		return FloatArray, nil
	case Bool:
		return BoolArray, nil
	default:
		return Null, fmt.Errorf("types: cannot form an array of %s", elem)
	}
}

// SourceTypeToValueType maps a syntactic type name plus an array flag onto
// a ValueType, failing when a Void is combined with isArray (spec §4.1).
func SourceTypeToValueType(syntacticType string, isArray bool) (ValueType, error) {
	var scalar ValueType
	switch syntacticType {
	case "int":
		scalar = Int
	case "float":
		scalar = Float
	case "bool":
		scalar = Bool
	case "void":
		scalar = Void
	default:
		return Null, fmt.Errorf("types: unknown syntactic type %q", syntacticType)
	}

	if !isArray {
		return scalar, nil
	}

	if scalar == Void {
		return Null, fmt.Errorf("types: void cannot be used as an array element type")
	}

	return PromoteArrayType(scalar)
}

// CanCast reports whether src is a legal cast source type (spec §4.4.3:
// legal source types are Int, Float, Bool).
func CanCast(src ValueType) bool {
	return src == Int || src == Float || src == Bool
}
