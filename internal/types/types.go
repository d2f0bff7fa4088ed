// Package types is the external type engine the checker treats as a
// black box per spec.md §6 ("type_build_from_ast", "types_are_compatible",
// "type_size_of", ...). It supplies the concrete Type kinds of spec.md
// §3 (Basic, Pointer, Array, Slice, DynArray, VarArgs, Struct, Enum,
// Function, Compound) and one reference implementation of the Engine
// contract the checker calls through.
//
// Grounded on the shape of the teacher's internal/types package (a
// Type interface with String/Equals, a substitution-driven unifier in
// unification.go, a scope-chain environment in env.go) but built around
// spec.md's structural/nominal kinds instead of the teacher's
// Hindley-Milner row-polymorphic ones — this is a different type
// system, not the teacher's, so the kind hierarchy below is new.
package types

import "fmt"

// Kind distinguishes the concrete shape of a Type value.
type Kind int

const (
	KindBasic Kind = iota
	KindPointer
	KindArray
	KindSlice
	KindDynArray
	KindVarArgs
	KindStruct
	KindEnum
	KindFunction
	KindCompound
	KindTypeIndex // a type reified as a value (spec.md §4.3)
)

func (k Kind) String() string {
	switch k {
	case KindBasic:
		return "basic"
	case KindPointer:
		return "pointer"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindDynArray:
		return "dyn_array"
	case KindVarArgs:
		return "varargs"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindFunction:
		return "function"
	case KindCompound:
		return "compound"
	case KindTypeIndex:
		return "type_index"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Type is a resolved, interned semantic type. It satisfies ast.SemType
// structurally (String() string) without this package importing ast.
type Type interface {
	String() string
	Kind() Kind
}

// autoReturnType is the singleton placeholder for an as-yet-unresolved
// automatic return type (spec.md §3 "type_auto_return"). Equality
// against this exact pointer is significant: the checker tests
// `*expected_return_type == AutoReturn` to know whether a function's
// return type is still waiting on its first `return expr`.
type autoReturnType struct{}

func (*autoReturnType) String() string { return "<auto-return>" }
func (*autoReturnType) Kind() Kind     { return KindBasic }

// AutoReturn is the sentinel placeholder type for an unresolved
// automatic return type. Compare by identity (==), never by value.
var AutoReturn Type = &autoReturnType{}

// IsAutoReturn reports whether t is the AutoReturn sentinel.
func IsAutoReturn(t Type) bool { return t == AutoReturn }
