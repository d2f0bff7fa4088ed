package types

import (
	"fmt"

	"github.com/sunholo/onyxcheck/internal/ast"
)

// StdEngine is the reference Engine implementation. It interns built
// types by the AST node that produced them (so repeated BuildFromAST
// calls on the same type_node — inevitable under the checker's
// re-entrant scheduling — return the identical *Type pointer), and
// keeps a name -> *StructType decl table so TypeName can resolve
// struct/enum names declared elsewhere in the entity population.
//
// Grounded on the scope-chain / cache idiom of the teacher's
// internal/types/env.go (TypeEnv.bindings), adapted from a name->scheme
// environment into a node->Type intern cache, since this engine's job
// is interning concrete structural types rather than generalizing
// Hindley-Milner schemes.
type StdEngine struct {
	interned map[ast.Node]Type
	named    map[string]Type // struct/enum declarations visible by name
}

// NewStdEngine creates an engine with the builtin basics pre-registered.
func NewStdEngine() *StdEngine {
	e := &StdEngine{
		interned: make(map[ast.Node]Type),
		named:    make(map[string]Type),
	}
	for name, b := range Builtins {
		e.named[name] = b
	}
	return e
}

// DeclareNamed registers a named type (struct, enum) so TypeName nodes
// referring to it can be built. Overwriting an existing name is legal
// — re-declaring the same struct across checker re-entries must be
// idempotent, not an error.
func (e *StdEngine) DeclareNamed(name string, t Type) { e.named[name] = t }

// BuildFromAST implements Engine.
func (e *StdEngine) BuildFromAST(node ast.Node) (Type, error) {
	if node == nil {
		return nil, fmt.Errorf("nil type node")
	}
	if t, ok := e.interned[node]; ok {
		return t, nil
	}

	var built Type
	var err error

	switch n := node.(type) {
	case *ast.TypeName:
		if t, ok := e.named[n.Name]; ok {
			built = t
		} else {
			err = fmt.Errorf("unknown type '%s'", n.Name)
		}

	case *ast.TypePointer:
		elem, e2 := e.BuildFromAST(n.Elem)
		if e2 != nil {
			return nil, e2
		}
		built = &Pointer{Elem: elem}

	case *ast.TypeArray:
		elem, e2 := e.BuildFromAST(n.Elem)
		if e2 != nil {
			return nil, e2
		}
		length := 0
		if lit, ok := n.Length.Get().(*ast.NumLit); ok {
			length = int(lit.IntVal)
		}
		built = &Array{Elem: elem, Length: length}

	case *ast.TypeSlice:
		elem, e2 := e.BuildFromAST(n.Elem)
		if e2 != nil {
			return nil, e2
		}
		built = &Slice{Elem: elem}

	case *ast.TypeDynArray:
		elem, e2 := e.BuildFromAST(n.Elem)
		if e2 != nil {
			return nil, e2
		}
		built = &DynArray{Elem: elem}

	case *ast.TypeVarArgs:
		elem, e2 := e.BuildFromAST(n.Elem)
		if e2 != nil {
			return nil, e2
		}
		built = &VarArgs{Elem: elem}

	case *ast.TypeStructRef:
		if n.Decl == nil {
			return nil, fmt.Errorf("struct type reference with no declaration")
		}
		if existing, ok := e.named[n.Decl.Name]; ok {
			built = existing
		} else {
			s := &Struct{Name: n.Decl.Name, Status: StructPending}
			e.named[n.Decl.Name] = s
			built = s
		}

	case *ast.TypeCompound:
		elems := make([]Type, len(n.Elems))
		for i, el := range n.Elems {
			t, e2 := e.BuildFromAST(el)
			if e2 != nil {
				return nil, e2
			}
			elems[i] = t
		}
		built = &Compound{Types: elems}

	default:
		return nil, fmt.Errorf("BuildFromAST: unhandled type node kind %s", node.Kind())
	}

	if err != nil {
		return nil, err
	}
	e.interned[node] = built
	return built, nil
}

// TypesCompatible implements Engine. Structural equality for composite
// kinds, identity/name equality for nominal ones.
func (e *StdEngine) TypesCompatible(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.Kind() != b.Kind() {
		// rawptr (a Pointer with IsRawPtr, or the builtin pointer-like
		// Basic) compares compatible with any pointer.
		if pa, ok := a.(*Pointer); ok && pa.IsRawPtr && b.Kind() == KindPointer {
			return true
		}
		if pb, ok := b.(*Pointer); ok && pb.IsRawPtr && a.Kind() == KindPointer {
			return true
		}
		if ba, ok := a.(*Basic); ok && ba.Flags.Has(FlagPointerLike) && b.Kind() == KindPointer {
			return true
		}
		if bb, ok := b.(*Basic); ok && bb.Flags.Has(FlagPointerLike) && a.Kind() == KindPointer {
			return true
		}
		return false
	}
	switch at := a.(type) {
	case *Basic:
		return at == b.(*Basic)
	case *Pointer:
		bt := b.(*Pointer)
		if at.IsRawPtr || bt.IsRawPtr {
			return true
		}
		return e.TypesCompatible(at.Elem, bt.Elem)
	case *Array:
		bt := b.(*Array)
		return at.Length == bt.Length && e.TypesCompatible(at.Elem, bt.Elem)
	case *Slice:
		return e.TypesCompatible(at.Elem, b.(*Slice).Elem)
	case *DynArray:
		return e.TypesCompatible(at.Elem, b.(*DynArray).Elem)
	case *VarArgs:
		return e.TypesCompatible(at.Elem, b.(*VarArgs).Elem)
	case *Struct:
		return at == b.(*Struct) // nominal
	case *Enum:
		return at == b.(*Enum) // nominal
	case *Compound:
		bt := b.(*Compound)
		if len(at.Types) != len(bt.Types) {
			return false
		}
		for i := range at.Types {
			if !e.TypesCompatible(at.Types[i], bt.Types[i]) {
				return false
			}
		}
		return true
	case *Function:
		bt := b.(*Function)
		if len(at.Params) != len(bt.Params) || at.HasVarArgs != bt.HasVarArgs {
			return false
		}
		for i := range at.Params {
			if !e.TypesCompatible(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return e.TypesCompatible(at.Return, bt.Return)
	default:
		return false
	}
}

// UnifyNodeAndType implements Engine. It performs the literal coercions
// spec.md §4.2 names (numeric/bool/string literal promotion) and
// otherwise defers to TypesCompatible; there is no implicit widening
// between distinct Basic types. It yields only
// when the node is non-literal and still genuinely untyped — anything
// the checker's own expression pass leaves typeless on purpose
// (literals, per checkLiteral) is resolved here instead, since this is
// the first place a concrete target type becomes available to them.
func (e *StdEngine) UnifyNodeAndType(slot *ast.Slot, target Type) TypeMatch {
	n := slot.Get()
	if n == nil || target == nil {
		return MatchFailed
	}
	cur := n.Type()
	if cur == nil {
		// Untyped literals (spec.md §4.2 "numeric literal promotion")
		// stay typeless until a unify() call gives them a concrete
		// target; this is that moment, so it must run before the
		// "type not known yet" yield below, not after it.
		if lit, ok := n.(*ast.NumLit); ok {
			if tb, ok := target.(*Basic); ok {
				if !lit.IsFloat && tb.Flags.Has(FlagNumeric) {
					n.SetType(target)
					return MatchSuccess
				}
				if lit.IsFloat && tb.Flags.Has(FlagNumeric) && !tb.Flags.Has(FlagInteger) {
					n.SetType(target)
					return MatchSuccess
				}
			}
			return MatchFailed
		}
		if _, ok := n.(*ast.BoolLit); ok {
			if e.IsBool(target) {
				n.SetType(target)
				return MatchSuccess
			}
			return MatchFailed
		}
		if _, ok := n.(*ast.StrLit); ok {
			n.SetType(target)
			return MatchSuccess
		}
		return MatchYield
	}
	if e.TypesCompatible(target, cur) {
		return MatchSuccess
	}
	return MatchFailed
}

func (e *StdEngine) SizeOf(t Type) int {
	switch tt := t.(type) {
	case *Basic:
		return tt.SizeBytes
	case *Pointer:
		return 8
	case *Array:
		return tt.Length * e.SizeOf(tt.Elem)
	case *Slice:
		return 16
	case *DynArray:
		return 24
	case *Struct:
		return tt.SizeBytes
	case *Enum:
		return e.SizeOf(tt.Backing)
	default:
		return 0
	}
}

func (e *StdEngine) AlignOf(t Type) int {
	switch tt := t.(type) {
	case *Basic:
		return tt.AlignBytes
	case *Pointer:
		return 8
	case *Array:
		return e.AlignOf(tt.Elem)
	case *Struct:
		return tt.AlignBytes
	case *Enum:
		return e.AlignOf(tt.Backing)
	default:
		return 1
	}
}

func (e *StdEngine) IsInteger(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.Flags.Has(FlagInteger)
}

func (e *StdEngine) IsBool(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.Flags.Has(FlagBoolean)
}

func (e *StdEngine) IsPointer(t Type) bool {
	if _, ok := t.(*Pointer); ok {
		return true
	}
	b, ok := t.(*Basic)
	return ok && b.Flags.Has(FlagPointerLike)
}

func (e *StdEngine) IsCompound(t Type) bool {
	_, ok := t.(*Compound)
	return ok
}

func (e *StdEngine) IsNumeric(t Type) bool {
	b, ok := t.(*Basic)
	return ok && b.Flags.Has(FlagNumeric)
}

func (e *StdEngine) IsSmallInteger(t Type) bool { return IsSmallInteger(t) }

func (e *StdEngine) IsArrayAccessible(t Type) bool {
	_, ok := ArrayAccessible(t)
	return ok
}

func (e *StdEngine) IsZeroSized(t Type) bool {
	if t == Void {
		return true
	}
	return e.SizeOf(t) == 0
}

// StructMemberApplyUse flattens `use` members into s.Members in place.
// Each `use`d member must itself be a fully-built Struct (StructUsesDone)
// or this yields by returning (false, nil).
func (e *StdEngine) StructMemberApplyUse(s *Struct) (bool, error) {
	var flattened []*StructMember
	for _, m := range s.Members {
		if !m.Use {
			flattened = append(flattened, m)
			continue
		}
		inner, ok := m.Type.(*Struct)
		if !ok {
			if p, ok := m.Type.(*Pointer); ok {
				inner, ok = p.Elem.(*Struct)
				if !ok {
					return false, fmt.Errorf("'use' member '%s' is not a struct or pointer to struct", m.Name)
				}
			} else {
				return false, fmt.Errorf("'use' member '%s' is not a struct or pointer to struct", m.Name)
			}
		}
		if inner.Status != StructUsesDone {
			return false, nil // yield: inner struct not finished yet
		}
		flattened = append(flattened, m)
		flattened = append(flattened, inner.Members...)
	}
	s.Members = flattened
	return true, nil
}

func (e *StdEngine) LookupMember(t Type, name string) (*StructMember, bool) {
	s, ok := t.(*Struct)
	if !ok {
		if p, ok := t.(*Pointer); ok {
			s, ok = p.Elem.(*Struct)
			if !ok {
				return nil, false
			}
		} else {
			return nil, false
		}
	}
	m, idx := s.MemberByName(name)
	return m, idx >= 0
}

func (e *StdEngine) LookupMemberByIdx(t Type, idx int) (*StructMember, bool) {
	s, ok := t.(*Struct)
	if !ok {
		return nil, false
	}
	m := s.MemberByIdx(idx)
	return m, m != nil
}

// CastIsLegal implements Engine. Numeric<->numeric, pointer<->pointer,
// pointer<->rawptr, and integer<->enum casts are legal; everything else
// is rejected with an explanatory message.
func (e *StdEngine) CastIsLegal(src, dst Type) (bool, string) {
	if e.TypesCompatible(dst, src) {
		return true, ""
	}
	srcNum, dstNum := e.IsNumeric(src), e.IsNumeric(dst)
	if srcNum && dstNum {
		return true, ""
	}
	if e.IsPointer(src) && e.IsPointer(dst) {
		return true, ""
	}
	if _, ok := src.(*Enum); ok && dstNum {
		return true, ""
	}
	if _, ok := dst.(*Enum); ok && srcNum {
		return true, ""
	}
	if srcNum && e.IsBool(dst) {
		return false, fmt.Sprintf("cannot cast '%s' to '%s'; use a comparison instead", src, dst)
	}
	return false, fmt.Sprintf("cannot cast '%s' to '%s'", src, dst)
}
