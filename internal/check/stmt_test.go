package check

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/types"
)

func newIntCase(pos ast.Pos, value int64, block *ast.Block) *ast.SwitchCase {
	v := ast.NewNumLitInt(pos, value)
	v.SetType(types.I32)
	return &ast.SwitchCase{Base: ast.Base{KindTag: ast.KSwitchCase, At: pos}, Values: []*ast.Slot{ast.NewSlot(v)}, Block: block}
}

func newRangeCase(pos ast.Pos, lo, hi int64, block *ast.Block) *ast.SwitchCase {
	low := ast.NewNumLitInt(pos, lo)
	low.SetType(types.I32)
	high := ast.NewNumLitInt(pos, hi)
	high.SetType(types.I32)
	rl := ast.NewRangeLiteral(pos, low, high)
	return &ast.SwitchCase{Base: ast.Base{KindTag: ast.KSwitchCase, At: pos}, Values: []*ast.Slot{ast.NewSlot(rl)}, Block: block}
}

func TestCheckSwitchReportsIntegerCaseCollision(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	scrutinee := ast.NewNumLitInt(pos, 4)
	scrutinee.SetType(types.I32)

	emptyBlock := ast.NewBlock(pos)
	rangeCase := newRangeCase(pos, 1, 5, emptyBlock)
	overlapCase := newIntCase(pos, 4, emptyBlock)

	sw := &ast.Switch{
		Base:      ast.Base{KindTag: ast.KSwitch, At: pos},
		Scrutinee: ast.NewSlot(scrutinee),
		Cases:     []*ast.SwitchCase{rangeCase, overlapCase},
	}

	st := checkSwitch(ctx, sw)
	if st != Error {
		t.Fatalf("expected Error for an overlapping case, got %v", st)
	}
	found := false
	for _, r := range ctx.Sink.Reports() {
		if r.Code == diag.CHK036 && r.Message == "Multiple cases for values '4'." {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CHK036 'Multiple cases for values' diagnostic, got %v", ctx.Sink.Reports())
	}
}

func TestCheckSwitchUseEqualsSynthesizesComparisons(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 2, Column: 1}

	scrutinee := ast.NewBoolLit(pos, true)
	scrutinee.SetType(types.Bool)

	value := ast.NewBoolLit(pos, true)
	value.SetType(types.Bool)
	emptyBlock := ast.NewBlock(pos)
	c := &ast.SwitchCase{Base: ast.Base{KindTag: ast.KSwitchCase, At: pos}, Values: []*ast.Slot{ast.NewSlot(value)}, Block: emptyBlock}

	sw := &ast.Switch{
		Base:      ast.Base{KindTag: ast.KSwitch, At: pos},
		Scrutinee: ast.NewSlot(scrutinee),
		Cases:     []*ast.SwitchCase{c},
	}

	if st := checkSwitch(ctx, sw); st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if sw.Kind != ast.SwitchUseEquals {
		t.Fatalf("expected a bool scrutinee to classify as Switch_Use_Equals, got %v", sw.Kind)
	}
	if len(c.Comparisons) != 1 || c.Comparisons[0] == nil {
		t.Fatalf("expected a synthesized comparison binop, got %v", c.Comparisons)
	}
	if c.Comparisons[0].Op != "==" {
		t.Fatalf("expected the synthesized comparison to use ==, got %q", c.Comparisons[0].Op)
	}
	if c.Comparisons[0].Type() != ast.SemType(types.Bool) {
		t.Fatalf("expected the synthesized comparison to type as bool, got %v", c.Comparisons[0].Type())
	}
}

func TestCheckForSugarsIntegerIterableIntoRange(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 3, Column: 1}

	n := ast.NewNumLitInt(pos, 10)
	n.SetType(types.I32)

	body := ast.NewBlock(pos)
	f := &ast.For{Base: ast.Base{KindTag: ast.KFor, At: pos}, VarName: "i", Iterable: ast.NewSlot(n), Body: body}

	if st := checkFor(ctx, f); st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if f.Kind != ast.LoopRange {
		t.Fatalf("expected an integer iterable to classify as LoopRange, got %v", f.Kind)
	}
}

func TestCheckForRejectsByPointerOverRange(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 4, Column: 1}

	n := ast.NewNumLitInt(pos, 10)
	n.SetType(types.I32)

	body := ast.NewBlock(pos)
	f := &ast.For{Base: ast.Base{KindTag: ast.KFor, At: pos}, VarName: "i", ByPointer: true, Iterable: ast.NewSlot(n), Body: body}

	st := checkFor(ctx, f)
	if st != Error {
		t.Fatalf("expected Error iterating a range by pointer, got %v", st)
	}
	found := false
	for _, r := range ctx.Sink.Reports() {
		if r.Code == diag.CHK035 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CHK035 diagnostic, got %v", ctx.Sink.Reports())
	}
}

// TestCheckForByPointerOverArrayIsAllowed confirms the CHK035
// by-pointer restriction is specific to range/vararg/iterator
// iterables (spec.md §4.4): an array is exactly the case that must
// keep working by pointer.
func TestCheckForByPointerOverArrayIsAllowed(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 5, Column: 1}

	arr := &ast.NumLit{Base: ast.Base{KindTag: ast.KNumLit, At: pos}}
	arr.SetType(&types.Array{Elem: types.I32, Length: 3})

	body := ast.NewBlock(pos)
	f := &ast.For{Base: ast.Base{KindTag: ast.KFor, At: pos}, VarName: "i", ByPointer: true, Iterable: ast.NewSlot(arr), Body: body}

	if st := checkFor(ctx, f); st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if f.Kind != ast.LoopArray {
		t.Fatalf("expected LoopArray classification, got %v", f.Kind)
	}
}

// TestLoopVarByPointerIsPointerTypedAndCannotTakeAddr builds the
// induction-variable symbol the way checkFor does for a by-pointer loop
// and checks that its declared type gains a pointer indirection and it
// is flagged Cannot_Take_Addr (spec.md §4.4). The flag sits on the
// symbol only: checkIdent does not copy it onto an Ident referring to
// the symbol, so `^i` is not rejected through that path.
func TestLoopVarByPointerIsPointerTypedAndCannotTakeAddr(t *testing.T) {
	lv := &loopVar{typ: types.I32}
	lv.typ = &types.Pointer{Elem: types.I32}
	lv.Flags().Set(ast.CannotTakeAddr)

	p, ok := lv.Type().(*types.Pointer)
	if !ok {
		t.Fatalf("expected loopVar.Type() to be a pointer once ByPointer wraps it, got %v", lv.Type())
	}
	if p.Elem != types.Type(types.I32) {
		t.Fatalf("expected pointer element type i32, got %v", p.Elem)
	}
	if !lv.Flags().Has(ast.CannotTakeAddr) {
		t.Fatalf("expected a by-pointer loop variable to be flagged CannotTakeAddr")
	}
}
