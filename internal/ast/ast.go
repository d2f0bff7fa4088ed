// Package ast defines the polymorphic AST node model the checker walks.
//
// Every node carries a kind tag, a source position, an optional semantic
// type, an optional unresolved type AST, and a flag set — exactly the
// shape described in spec.md §3. Unlike the teacher's expression/statement/
// type interface split (internal/ast in the teacher repo), this package
// gives every node kind the same embedded Base, because the checker's
// kind set is closed and flag-heavy: node-specific behavior lives in the
// checker's per-kind dispatch, not in per-kind interface methods.
package ast

import "fmt"

// Pos is a source position used for diagnostics.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// SemType is the minimal surface the checker needs from a resolved
// semantic type. It is satisfied structurally by types.Type so that
// this package never imports internal/types (which itself needs to
// refer to ast.Node in its Engine contract).
type SemType interface {
	String() string
}

// Kind tags every node with its concrete AST shape. The set is closed;
// internal/check dispatches with one large type switch over the concrete
// node structs (Design Notes §9: kept as a giant switch on purpose, not
// an open interface hierarchy).
type Kind int

const (
	KInvalid Kind = iota

	// Expressions
	KNumLit
	KStrLit
	KBoolLit
	KIdent
	KBinOp
	KUnaryOp
	KCall
	KMethodCall
	KFieldAccess
	KSubscript
	KSlice
	KAddressOf
	KDereference
	KStructLiteral
	KArrayLiteral
	KRangeLiteral
	KCompound
	KIfExpr
	KDoBlock
	KCodeBlock
	KSizeOf
	KAlignOf
	KCast
	KPackageRef
	KEnumValue
	KTypeExpr // a reference that resolved to a type (reified TypeIndex)
	KDirectiveInsert
	KDirectiveSolidify
	KDirectiveDefined
	KCallSite // #callsite
	KAlias

	// Statements
	KBlock
	KReturn
	KIf
	KStaticIf
	KWhile
	KFor
	KSwitch
	KSwitchCase
	KLocal
	KExprStmt
	KDefer
	KDirectiveRemove

	// Declarations / entities
	KFunction
	KOverloadedFunction
	KGlobal
	KStructType
	KMacro
	KConstraint
	KPolyQuery
	KDirectiveInit
	KDirectiveExport
	KDirectiveLibrary

	// Type AST nodes (unresolved types, consumed by types.Engine.BuildFromAST)
	KTypeName
	KTypePointer
	KTypeArray
	KTypeSlice
	KTypeDynArray
	KTypeVarArgs
	KTypeStruct
	KTypePolyCall
	KTypeCompound
)

var kindNames = map[Kind]string{
	KInvalid: "invalid", KNumLit: "num_lit", KStrLit: "str_lit", KBoolLit: "bool_lit",
	KIdent: "ident", KBinOp: "binop", KUnaryOp: "unop", KCall: "call",
	KMethodCall: "method_call", KFieldAccess: "field_access", KSubscript: "subscript",
	KSlice: "slice", KAddressOf: "address_of", KDereference: "dereference",
	KStructLiteral: "struct_literal", KArrayLiteral: "array_literal",
	KRangeLiteral: "range_literal", KCompound: "compound", KIfExpr: "if_expr",
	KDoBlock: "do_block", KCodeBlock: "code_block", KSizeOf: "size_of",
	KAlignOf: "align_of", KCast: "cast", KPackageRef: "package",
	KEnumValue: "enum_value", KTypeExpr: "type_expr",
	KDirectiveInsert: "#insert", KDirectiveSolidify: "#solidify",
	KDirectiveDefined: "#defined", KCallSite: "#callsite", KAlias: "alias",
	KBlock: "block", KReturn: "return", KIf: "if", KStaticIf: "#static_if",
	KWhile: "while", KFor: "for", KSwitch: "switch", KSwitchCase: "case",
	KLocal: "local", KExprStmt: "expr_stmt", KDefer: "defer",
	KDirectiveRemove: "#remove",
	KFunction:        "function", KOverloadedFunction: "overloaded_function",
	KGlobal: "global", KStructType: "struct_type", KMacro: "macro",
	KConstraint: "constraint", KPolyQuery: "polyquery",
	KDirectiveInit: "#init", KDirectiveExport: "#export", KDirectiveLibrary: "#library",
	KTypeName: "type_name", KTypePointer: "type_pointer", KTypeArray: "type_array",
	KTypeSlice: "type_slice", KTypeDynArray: "type_dynarray", KTypeVarArgs: "type_varargs",
	KTypeStruct: "type_struct", KTypePolyCall: "type_polycall", KTypeCompound: "type_compound",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Flag is the node flag set from spec.md §3.
type Flag uint32

const (
	HasBeenChecked Flag = 1 << iota
	Comptime
	CannotTakeAddr
	AddressTaken
	FunctionUsed
	DeclFollowedByInit
	ExprIgnored
	ArrayLiteralTyped
	StaticIfResolved
	HeaderCheckNoError
	CanBeRemoved   // implicit self on a method call can be silently elided
	BlockRuleMacro // a static-if's selected branch block
	NoClose        // #no_close applied to a for loop
)

// Flags is a small bitset with the usual set/has/clear vocabulary.
type Flags uint32

func (f *Flags) Has(bit Flag) bool { return uint32(*f)&uint32(bit) != 0 }
func (f *Flags) Set(bit Flag)      { *f = Flags(uint32(*f) | uint32(bit)) }
func (f *Flags) Clear(bit Flag)    { *f = Flags(uint32(*f) &^ uint32(bit)) }

// Node is the common interface every AST node satisfies.
type Node interface {
	Kind() Kind
	Pos() Pos
	Type() SemType
	SetType(SemType)
	TypeNode() Node
	SetTypeNode(Node)
	Flags() *Flags
	String() string
}

// Base is embedded in every concrete node and implements the
// kind/position/type/flag bookkeeping common to all of them.
type Base struct {
	KindTag  Kind
	At       Pos
	Typ      SemType
	TNode    Node
	FlagBits Flags
}

func (b *Base) Kind() Kind           { return b.KindTag }
func (b *Base) Pos() Pos             { return b.At }
func (b *Base) Type() SemType        { return b.Typ }
func (b *Base) SetType(t SemType)    { b.Typ = t }
func (b *Base) TypeNode() Node       { return b.TNode }
func (b *Base) SetTypeNode(n Node)   { b.TNode = n }
func (b *Base) Flags() *Flags        { return &b.FlagBits }
func (b *Base) Checked() bool        { return b.FlagBits.Has(HasBeenChecked) }
func (b *Base) MarkChecked()         { b.FlagBits.Set(HasBeenChecked) }
