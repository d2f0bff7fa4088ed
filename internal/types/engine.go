package types

import "github.com/sunholo/onyxcheck/internal/ast"

// TypeMatch is the three-way result of a unification attempt, per
// spec.md §4.2 ("unify(expr_ref, target_type) -> {Success, Yield,
// Failed}").
type TypeMatch int

const (
	MatchSuccess TypeMatch = iota
	MatchYield
	MatchFailed
)

// Engine is the external type-engine contract of spec.md §6. The
// checker never constructs or mutates a Type by hand — every type fact
// it needs is asked of an Engine. This package's StdEngine is the one
// concrete implementation; a real compiler would swap in a production
// type interner behind the same interface.
type Engine interface {
	// BuildFromAST constructs (or looks up, if already interned) the
	// semantic Type denoted by a type AST node.
	BuildFromAST(typeNode ast.Node) (Type, error)

	// TypesCompatible reports whether a value of type b may be used
	// where a is expected, without inserting any coercion.
	TypesCompatible(a, b Type) bool

	// UnifyNodeAndType attempts to make the expression in slot conform
	// to target, rewriting slot in place (implicit casts, numeric
	// literal promotion, auto-cast, unary-field-access resolution) as
	// needed.
	UnifyNodeAndType(slot *ast.Slot, target Type) TypeMatch

	SizeOf(t Type) int
	AlignOf(t Type) int

	IsInteger(t Type) bool
	IsBool(t Type) bool
	IsPointer(t Type) bool
	IsCompound(t Type) bool
	IsNumeric(t Type) bool
	IsSmallInteger(t Type) bool
	IsArrayAccessible(t Type) bool
	IsZeroSized(t Type) bool

	// StructMemberApplyUse flattens `use` members of s into its member
	// list. May return (false, nil) to request a yield when a `use`
	// member's own type isn't finished yet.
	StructMemberApplyUse(s *Struct) (bool, error)

	LookupMember(t Type, name string) (*StructMember, bool)
	LookupMemberByIdx(t Type, idx int) (*StructMember, bool)

	// CastIsLegal reports whether an explicit `cast(dst) src_expr` is
	// legal, and if not, an explanatory message.
	CastIsLegal(src, dst Type) (bool, string)
}
