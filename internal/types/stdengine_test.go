package types

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
)

func TestBuildFromASTResolvesBasicAndPointer(t *testing.T) {
	e := NewStdEngine()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	name := &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: "i32"}
	built, err := e.BuildFromAST(name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built != Type(I32) {
		t.Fatalf("expected the I32 singleton, got %v", built)
	}

	ptr := &ast.TypePointer{Base: ast.Base{KindTag: ast.KTypePointer, At: pos}, Elem: name}
	builtPtr, err := e.BuildFromAST(ptr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, ok := builtPtr.(*Pointer)
	if !ok || p.Elem != Type(I32) {
		t.Fatalf("expected *Pointer{Elem: I32}, got %+v", builtPtr)
	}

	// Interning: building the same node again returns the identical pointer.
	again, _ := e.BuildFromAST(ptr)
	if again != builtPtr {
		t.Fatalf("expected BuildFromAST to return the interned pointer on repeat calls")
	}
}

func TestBuildFromASTUnknownTypeName(t *testing.T) {
	e := NewStdEngine()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	name := &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: "NoSuchType"}
	if _, err := e.BuildFromAST(name); err == nil {
		t.Fatalf("expected an error for an undeclared type name")
	}
}

func TestTypesCompatibleRawptr(t *testing.T) {
	e := NewStdEngine()
	p1 := &Pointer{Elem: I32}
	if !e.TypesCompatible(p1, Rawptr) || !e.TypesCompatible(Rawptr, p1) {
		t.Fatalf("expected rawptr to be compatible with any pointer type")
	}
	p2 := &Pointer{Elem: Bool}
	if e.TypesCompatible(p1, p2) {
		t.Fatalf("pointers to different element types must not be compatible")
	}
}

func TestCastIsLegal(t *testing.T) {
	e := NewStdEngine()
	if ok, _ := e.CastIsLegal(I32, F64); !ok {
		t.Fatalf("expected numeric-to-numeric cast to be legal")
	}
	if ok, msg := e.CastIsLegal(I32, Bool); ok {
		t.Fatalf("expected numeric-to-bool cast to be rejected, got ok with message %q", msg)
	}
}

func TestUnifyNodeAndTypePromotesIntLiteral(t *testing.T) {
	e := NewStdEngine()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	lit := ast.NewNumLitInt(pos, 5)
	slot := ast.NewSlot(lit)

	if m := e.UnifyNodeAndType(slot, I64); m != MatchSuccess {
		t.Fatalf("expected MatchSuccess widening an int literal to i64, got %v", m)
	}
	if lit.Type() != Type(I64) {
		t.Fatalf("expected the literal's type to be set to i64 after unification")
	}
}

func TestSizeOfArray(t *testing.T) {
	e := NewStdEngine()
	arr := &Array{Elem: I32, Length: 4}
	if got := e.SizeOf(arr); got != 16 {
		t.Fatalf("expected size 16 for [4]i32, got %d", got)
	}
}
