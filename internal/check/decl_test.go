package check

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
)

func satisfiedConstraint(pos ast.Pos) *ast.Constraint {
	return &ast.Constraint{
		Base:          ast.Base{KindTag: ast.KConstraint, At: pos},
		InterfaceName: "Comparable",
		Phase:         "checking",
	}
}

func TestCheckFunctionHeaderGatesOnConstraintContext(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	fn := &ast.Function{
		Base:        ast.Base{KindTag: ast.KFunction, At: pos},
		Name:        "cmp",
		Constraints: []*ast.Slot{ast.NewSlot(satisfiedConstraint(pos))},
	}

	st := checkFunctionHeader(ctx, fn)
	if st != ReturnToSymres {
		t.Fatalf("expected ReturnToSymres once constraints are satisfied, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if !fn.ConstraintsMet {
		t.Fatalf("expected ConstraintsMet to be set")
	}
	if fn.HeaderCheckedOK {
		t.Fatalf("expected header checking proper to wait for the re-entry this ReturnToSymres triggers")
	}

	// Re-entry: constraints already satisfied, so the header check runs for real.
	st = checkFunctionHeader(ctx, fn)
	if st != Success {
		t.Fatalf("expected Success on re-entry with ConstraintsMet, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if !fn.HeaderCheckedOK {
		t.Fatalf("expected HeaderCheckedOK to be set after a full header check")
	}
}

func TestCheckStructTypeGatesOnConstraintContext(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 2, Column: 1}

	st := &ast.StructType{
		Base:        ast.Base{KindTag: ast.KStructType, At: pos},
		Name:        "Box",
		Constraints: []*ast.Slot{ast.NewSlot(satisfiedConstraint(pos))},
	}

	status := checkStructType(ctx, st)
	if status != ReturnToSymres {
		t.Fatalf("expected ReturnToSymres once constraints are satisfied, got %v (%d reports)", status, len(ctx.Sink.Reports()))
	}
	if !st.ConstraintsMet {
		t.Fatalf("expected ConstraintsMet to be set")
	}
}
