package check

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/types"
)

func TestRewriteMethodCallTakesAddressOfNonPointerReceiver(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	recv := ast.NewNumLitInt(pos, 1)
	recv.SetType(types.I32)
	mc := ast.NewMethodCall(pos, recv, "foo")
	slot := ast.NewSlot(mc)

	if st := rewriteMethodCall(ctx, slot, mc); st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	call, ok := slot.Get().(*ast.Call)
	if !ok {
		t.Fatalf("expected method call to rewrite into a call, got %T", slot.Get())
	}
	callee, ok := call.Callee.Get().(*ast.Ident)
	if !ok || callee.Name != "foo" {
		t.Fatalf("expected callee foo, got %v", call.Callee.Get())
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected 1 argument (self), got %d", len(call.Args))
	}
	self := call.Args[0].Value.Get()
	addr, ok := self.(*ast.AddressOf)
	if !ok {
		t.Fatalf("expected self argument to be an address-of the receiver, got %T", self)
	}
	if addr.Operand.Get() != ast.Node(recv) {
		t.Fatalf("expected address-of to wrap the original receiver")
	}
	if !self.Flags().Has(ast.CanBeRemoved) {
		t.Fatalf("expected self argument to be flagged CanBeRemoved")
	}
}

func TestRewriteMethodCallPassesThroughExistingPointerReceiver(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 2, Column: 1}

	recv := ast.NewNumLitInt(pos, 1)
	recv.SetType(&types.Pointer{Elem: types.I32})
	mc := ast.NewMethodCall(pos, recv, "foo")
	slot := ast.NewSlot(mc)

	if st := rewriteMethodCall(ctx, slot, mc); st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	call := slot.Get().(*ast.Call)
	self := call.Args[0].Value.Get()
	if _, wrapped := self.(*ast.AddressOf); wrapped {
		t.Fatalf("expected an already-pointer receiver to pass through unwrapped, got %T", self)
	}
	if self != ast.Node(recv) {
		t.Fatalf("expected self argument to be the original pointer receiver")
	}
	if !self.Flags().Has(ast.CanBeRemoved) {
		t.Fatalf("expected self argument to be flagged CanBeRemoved even when already a pointer")
	}
}
