package ast

import "fmt"

// Slot is a mutable AST edge. Per Design Notes §9, rewrites ("macro
// expansion, call->binop swaps, constraint re-clone") are expressed as
// replace(parent_slot, new_node) rather than mutating a node's kind in
// place — a slot's identity is stable even when the node it points at
// is swapped out from under it.
type Slot struct{ N Node }

// NewSlot wraps n in a freshly allocated slot.
func NewSlot(n Node) *Slot { return &Slot{N: n} }

// Get returns the current node, or nil for a nil slot.
func (s *Slot) Get() Node {
	if s == nil {
		return nil
	}
	return s.N
}

// Set replaces the node the slot points at.
func (s *Slot) Set(n Node) { s.N = n }

// Type is a convenience accessor for s.Get().Type().
func (s *Slot) Type() SemType {
	if n := s.Get(); n != nil {
		return n.Type()
	}
	return nil
}

func (b *Base) String() string { return b.KindTag.String() }

// ---------------------------------------------------------------------
// Literals & identifiers
// ---------------------------------------------------------------------

// NumLit is an integer or float literal.
type NumLit struct {
	Base
	IsFloat  bool
	IntVal   int64
	FloatVal float64
}

func NewNumLitInt(pos Pos, v int64) *NumLit {
	return &NumLit{Base: Base{KindTag: KNumLit, At: pos}, IntVal: v}
}

func NewNumLitFloat(pos Pos, v float64) *NumLit {
	return &NumLit{Base: Base{KindTag: KNumLit, At: pos}, IsFloat: true, FloatVal: v}
}

func (n *NumLit) String() string {
	if n.IsFloat {
		return fmt.Sprintf("%g", n.FloatVal)
	}
	return fmt.Sprintf("%d", n.IntVal)
}

// StrLit is a string literal.
type StrLit struct {
	Base
	Value string
}

func NewStrLit(pos Pos, v string) *StrLit {
	return &StrLit{Base: Base{KindTag: KStrLit, At: pos}, Value: v}
}

// BoolLit is a boolean literal.
type BoolLit struct {
	Base
	Value bool
}

func NewBoolLit(pos Pos, v bool) *BoolLit {
	return &BoolLit{Base: Base{KindTag: KBoolLit, At: pos}, Value: v}
}

// Ident is a bare name; Resolved is filled by the (external) symbol
// resolution pass before the checker ever sees it, except that the
// checker itself may set it when a name turns out to denote a type
// (spec.md §4.3: "Type nodes masquerading as expressions").
type Ident struct {
	Base
	Name     string
	Resolved Node
}

func NewIdent(pos Pos, name string) *Ident {
	return &Ident{Base: Base{KindTag: KIdent, At: pos}, Name: name}
}

func (i *Ident) String() string { return i.Name }

// Alias is a `name :: alias_of(Target)` binding. StripAliases in
// internal/resolve follows chains of these down to the underlying node.
type Alias struct {
	Base
	Name   string
	Target *Slot
}

func NewAlias(pos Pos, name string, target Node) *Alias {
	return &Alias{Base: Base{KindTag: KAlias, At: pos}, Name: name, Target: NewSlot(target)}
}

// signalNode backs the sentinel values below; only ever compared by
// pointer identity, never inspected otherwise.
type signalNode struct{ Base }

// SignalYield and SignalFailure are the sentinel node values spec.md §3
// calls out as "node_that_signals_a_yield" / "node_that_signals_failure"
// — returned by the overload/macro/polymorph lookup helpers in
// internal/resolve when no concrete node can be produced yet (or ever).
// Equality against these exact values is significant.
var (
	SignalYield   Node = &signalNode{Base: Base{KindTag: KInvalid}}
	SignalFailure Node = &signalNode{Base: Base{KindTag: KInvalid}}
)

// ---------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------

// BinOp is a binary operator application, including assignment and
// compound assignment (`=`, `+=`, ...).
type BinOp struct {
	Base
	Op           string
	Left, Right  *Slot
	OverloadArgs []Node // cached argument tuple; see C6 idempotence note
}

func NewBinOp(pos Pos, op string, left, right Node) *BinOp {
	return &BinOp{Base: Base{KindTag: KBinOp, At: pos}, Op: op, Left: NewSlot(left), Right: NewSlot(right)}
}

func (b *BinOp) String() string { return fmt.Sprintf("(%s %s %s)", b.Left.Get(), b.Op, b.Right.Get()) }

// UnaryOp covers cast, logical-not, bitwise-not, and negate.
type UnaryOp struct {
	Base
	Op           string // "cast" | "not" | "bitwise_not" | "negate"
	Operand      *Slot
	CastTypeExpr Node // only set when Op == "cast"
}

func NewUnaryOp(pos Pos, op string, operand Node) *UnaryOp {
	return &UnaryOp{Base: Base{KindTag: KUnaryOp, At: pos}, Op: op, Operand: NewSlot(operand)}
}

// ---------------------------------------------------------------------
// Calls
// ---------------------------------------------------------------------

// Arg is one call argument, positional or named.
type Arg struct {
	Name  string // "" for positional
	Value *Slot
	Baked bool // macro baked-argument, stripped before expansion
}

// Call is a function/macro/intrinsic call.
type Call struct {
	Base
	Callee      *Slot
	Args        []*Arg
	IntrinsicID string // set once resolved to an intrinsic (C5 step 7)
	VAKind      string // varargs classification from check_arguments_against_type
}

func NewCall(pos Pos, callee Node, args ...*Arg) *Call {
	return &Call{Base: Base{KindTag: KCall, At: pos}, Callee: NewSlot(callee), Args: args}
}

func (c *Call) String() string { return fmt.Sprintf("%s(...)", c.Callee.Get()) }

// MethodCall is `x->foo(a)`, elaborated into a Call with self prepended
// (spec.md §4.3 "Method call").
type MethodCall struct {
	Base
	Target *Slot
	Name   string
	Args   []*Arg
}

func NewMethodCall(pos Pos, target Node, name string, args ...*Arg) *MethodCall {
	return &MethodCall{Base: Base{KindTag: KMethodCall, At: pos}, Target: NewSlot(target), Name: name, Args: args}
}

// FieldAccess is `x.field`.
type FieldAccess struct {
	Base
	Target *Slot
	Field  string
}

func NewFieldAccess(pos Pos, target Node, field string) *FieldAccess {
	return &FieldAccess{Base: Base{KindTag: KFieldAccess, At: pos}, Target: NewSlot(target), Field: field}
}

func (f *FieldAccess) String() string { return fmt.Sprintf("%s.%s", f.Target.Get(), f.Field) }

// Subscript is `x[i]`.
type Subscript struct {
	Base
	Target *Slot
	Index  *Slot
}

func NewSubscript(pos Pos, target, index Node) *Subscript {
	return &Subscript{Base: Base{KindTag: KSubscript, At: pos}, Target: NewSlot(target), Index: NewSlot(index)}
}

// Slice is `x[lo .. hi]`, produced by rewriting a Subscript whose index
// is a RangeLiteral (spec.md §4.3 "Subscript").
type Slice struct {
	Base
	Target    *Slot
	Low, High *Slot
}

// AddressOf is `^x`.
type AddressOf struct {
	Base
	Operand *Slot
}

func NewAddressOf(pos Pos, operand Node) *AddressOf {
	return &AddressOf{Base: Base{KindTag: KAddressOf, At: pos}, Operand: NewSlot(operand)}
}

// Dereference is `x->` used as an expression (pointer indirection).
type Dereference struct {
	Base
	Operand *Slot
}

func NewDereference(pos Pos, operand Node) *Dereference {
	return &Dereference{Base: Base{KindTag: KDereference, At: pos}, Operand: NewSlot(operand)}
}

// ---------------------------------------------------------------------
// Aggregate literals & compound expressions
// ---------------------------------------------------------------------

// StructLiteral covers the three cases of spec.md §4.3: untyped with
// no stnode (deferred), untyped-generic-zero-value, and typed.
type StructLiteral struct {
	Base
	TypeExpr   Node // "stnode"; nil until known
	Positional []*Slot
	Named      map[string]*Slot
	NamedOrder []string // preserves source order for diagnostics
}

func NewStructLiteral(pos Pos) *StructLiteral {
	return &StructLiteral{Base: Base{KindTag: KStructLiteral, At: pos}, Named: map[string]*Slot{}}
}

// ArrayLiteral requires an element type expression ("atnode").
type ArrayLiteral struct {
	Base
	ElemTypeExpr Node
	Values       []*Slot
}

func NewArrayLiteral(pos Pos, elemType Node, values ...*Slot) *ArrayLiteral {
	return &ArrayLiteral{Base: Base{KindTag: KArrayLiteral, At: pos}, ElemTypeExpr: elemType, Values: values}
}

// RangeLiteral is `low .. high` with an optional `step`.
type RangeLiteral struct {
	Base
	Low, High, Step *Slot
}

func NewRangeLiteral(pos Pos, low, high Node) *RangeLiteral {
	return &RangeLiteral{Base: Base{KindTag: KRangeLiteral, At: pos}, Low: NewSlot(low), High: NewSlot(high)}
}

// Compound is a tuple-like `x, y, z` used in destructuring assignment.
type Compound struct {
	Base
	Exprs []*Slot
}

// IfExpr is the ternary-like `cond ? then : else` expression form.
type IfExpr struct {
	Base
	Cond, Then, Else *Slot
}

// DoBlock installs a fresh expected-return-type scope for its body
// (spec.md §4.3).
type DoBlock struct {
	Base
	Body *Block
}

// CodeBlock captures raw, unchecked code for later `#insert`.
type CodeBlock struct {
	Base
	Captured Node
}

// SizeOf / AlignOf are comptime queries over a type expression.
type SizeOf struct {
	Base
	OperandType Node
}

type AlignOf struct {
	Base
	OperandType Node
}

// PackageRef is a reference to an imported package/namespace.
type PackageRef struct {
	Base
	Name string
}

// EnumValue is `EnumName.Member`.
type EnumValue struct {
	Base
	EnumName string
	Member   string
}

// DirectiveInsert is `#insert code_expr`.
type DirectiveInsert struct {
	Base
	Code *Slot
}

// DirectiveSolidify is `#solidify proc { T = i32, ... }`.
type DirectiveSolidify struct {
	Base
	Proc      *Slot
	KnownArgs map[string]*Slot
}

// DirectiveDefined is `#defined(x)`; Value is supplied by the parser
// and the node rewrites itself to a bool literal of that value.
type DirectiveDefined struct {
	Base
	Target Node
	Value  bool
}

// CallSite is the implicit `#callsite` parameter rewritten at call
// resolution time to carry the caller's filename/line/column.
type CallSite struct {
	Base
	Filename, Line, Column string
}

func NewCallSite(pos Pos, filename, line, column string) *CallSite {
	return &CallSite{Base: Base{KindTag: KCallSite, At: pos}, Filename: filename, Line: line, Column: column}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

// Block tracks StatementIdx, the index of the last successfully
// checked statement, per spec.md §3 invariant 5.
type Block struct {
	Base
	Stmts        []*Slot
	StatementIdx int
}

func NewBlock(pos Pos, stmts ...*Slot) *Block {
	return &Block{Base: Base{KindTag: KBlock, At: pos}, Stmts: stmts}
}

// Return is `return expr` or a bare `return`.
type Return struct {
	Base
	Expr *Slot // nil for bare return
}

// If is an if/else chain, with an optional C-style init statement.
type If struct {
	Base
	Init       *Slot
	Cond       *Slot
	Then, Else *Block
}

// StaticIf is `#static_if cond { ... } else { ... }`; the unchosen
// branch is never scheduled (spec.md glossary "Static-if").
type StaticIf struct {
	Base
	Cond                        *Slot
	TrueEntities, FalseEntities []Node
	Selected                    *Block
}

// While is a while loop; BottomTest marks a do/while-style loop, which
// cannot be combined with an else clause (spec.md §4.4).
type While struct {
	Base
	Init       *Slot
	Cond       *Slot
	Body, Else *Block
	BottomTest bool
}

// LoopType classifies a for-loop's iterable (spec.md §4.4).
type LoopType int

const (
	LoopInvalid LoopType = iota
	LoopRange
	LoopArray
	LoopSlice
	LoopDynArr
	LoopVarArgs
	LoopIterator
)

func (l LoopType) String() string {
	switch l {
	case LoopRange:
		return "range"
	case LoopArray:
		return "array"
	case LoopSlice:
		return "slice"
	case LoopDynArr:
		return "dyn_array"
	case LoopVarArgs:
		return "vararg"
	case LoopIterator:
		return "iterator"
	default:
		return "invalid"
	}
}

// For is the for-loop state machine described in spec.md §4.4.
type For struct {
	Base
	VarName   string
	ByPointer bool
	Iterable  *Slot
	Body      *Block
	Kind      LoopType
}

// SwitchKind classifies a switch's scrutinee (spec.md §4.4).
type SwitchKind int

const (
	SwitchInvalid SwitchKind = iota
	SwitchInteger
	SwitchUseEquals
)

// SwitchCase is one hoisted `case` arm. Comparisons holds, for
// Switch_Use_Equals mode, the synthesized `scrutinee == value` binop
// for each entry of Values (same index), so re-entry after a yield
// reuses the same comparison node instead of resynthesizing it.
type SwitchCase struct {
	Base
	Values      []*Slot
	Comparisons []*BinOp
	Block       *Block
	IsDefault   bool
}

// Switch hoists Ast_Kind_Switch_Case nodes out of RawBody into Cases,
// tracking YieldReturnIndex to resume mid-switch after a yield.
// CollisionsChecked guards the one-time Switch_Integer duplicate-value
// pre-pass so it runs exactly once regardless of how many times this
// switch is re-entered across yields.
type Switch struct {
	Base
	Scrutinee         *Slot
	RawBody           *Block
	Cases             []*SwitchCase
	Default           *SwitchCase
	Kind              SwitchKind
	YieldReturnIndex  int
	CollisionsChecked bool
}

// Local is a local variable declaration, optionally typed and/or
// immediately initialized (DeclFollowedByInit).
type Local struct {
	Base
	Name string
	Init *Slot // nil if this Local has no `= expr` attached
}

// ExprStmt / Defer / DirectiveRemove round out the statement kinds.
type ExprStmt struct {
	Base
	Expr *Slot
}

type Defer struct {
	Base
	Stmt *Slot
}

type DirectiveRemove struct {
	Base
}

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

// Param is one formal parameter.
type Param struct {
	Name         string
	TypeExpr     Node
	ResolvedType SemType // bypasses TypeExpr when a poly-solidify already solved this param
	Default      *Slot
	IsVarArgs    bool
	IsPolyVar    bool   // `$T`-style implicit polymorphic parameter
	PolyVarName  string // set when IsPolyVar; the `$T` variable's name
}

// Function is a function header + body (spec.md §4.7). Overload sets
// and polymorphic procs are built from Function values too.
type Function struct {
	Base
	Name            string
	Params          []*Param
	ReturnTypeExpr  Node
	ReturnType      SemType
	Body            *Block
	IsPolymorphic   bool
	PolyParams      []string
	Constraints     []*Slot
	HeaderCheckedOK bool
	ConstraintsMet  bool
}

// OverloadedFunction groups candidates sharing a name.
type OverloadedFunction struct {
	Base
	Name       string
	Candidates []*Function
}

// Global is a `memres` top-level variable, possibly thread-local.
type Global struct {
	Base
	Name        string
	TypeExpr    Node
	Init        *Slot
	ThreadLocal bool
}

// Member is one struct member, possibly a `use` member with tags and
// a default initializer.
type Member struct {
	Name     string
	TypeExpr Node
	Tags     []*Slot
	Default  *Slot
	Use      bool
}

// StructType is a (possibly polymorphic) struct declaration.
type StructType struct {
	Base
	Name             string
	PolyParams       []string
	PolyArgs         []Node
	Members          []*Member
	Constraints      []*Slot
	ConstraintsMet   bool
	ReadyToBuildType bool
}

// Macro is a macro declaration: a header plus an unexpanded body.
type Macro struct {
	Base
	Name   string
	Header *Function
	Body   *Block
}

// Constraint is one interface-predicate check inside a `where` clause,
// driven through the two-phase machine of spec.md §4.9.
type Constraint struct {
	Base
	InterfaceName    string
	TypeArgs         []Node
	Exprs            []*Slot
	Invert           []bool
	ExpectedTypeExpr Node
	Phase            string // "cloning" | "checking"
}

// PolyQuery solves the poly-variables of a polymorphic procedure.
type PolyQuery struct {
	Base
	Proc   *Function
	Solved map[string]Node // poly-var name -> resolved type AST
}

// DirectiveInit, DirectiveExport, DirectiveLibrary round out C8.
// Finalized is set once this #init node's own dependency chain has
// been verified and it has been appended to the global init-procedure
// list, so dependents can check it without re-walking its proc's body.
type DirectiveInit struct {
	Base
	Proc         *Function
	Dependencies []*DirectiveInit
	Finalized    bool
}

type DirectiveExport struct {
	Base
	Name   *Slot
	Target Node
}

type DirectiveLibrary struct {
	Base
	Name string
}

// ---------------------------------------------------------------------
// Type AST (unresolved types, consumed by types.Engine.BuildFromAST)
// ---------------------------------------------------------------------

type TypeName struct {
	Base
	Name string
}

type TypePointer struct {
	Base
	Elem Node
}

type TypeArray struct {
	Base
	Elem   Node
	Length *Slot
}

type TypeSlice struct {
	Base
	Elem Node
}

type TypeDynArray struct {
	Base
	Elem Node
}

type TypeVarArgs struct {
	Base
	Elem Node
}

type TypeStructRef struct {
	Base
	Decl *StructType
}

type TypePolyCall struct {
	Base
	Callee Node
	Args   []Node
}

type TypeCompound struct {
	Base
	Elems []Node
}
