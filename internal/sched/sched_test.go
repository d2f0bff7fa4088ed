package sched

import (
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/check"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

func newTestSink() *diag.Sink {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return diag.NewSink(logger)
}

func TestDriveFinalizesSimpleGlobal(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	g := &ast.Global{
		Base:     ast.Base{KindTag: ast.KGlobal, At: pos},
		Name:     "x",
		TypeExpr: &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: "i32"},
		Init:     ast.NewSlot(ast.NewNumLitInt(pos, 10)),
	}

	engine := types.NewStdEngine()
	sink := newTestSink()
	opts := check.Options{}

	q := New()
	scope := resolve.NewScope(nil)
	q.AddRoot(g, scope)

	if len(q.entities) != 1 {
		t.Fatalf("expected 1 seeded entity, got %d", len(q.entities))
	}

	ok := Drive(engine, sink, opts, q)
	if !ok {
		for _, r := range sink.Reports() {
			t.Logf("report: %s", r.Message)
		}
		t.Fatalf("expected Drive to succeed with no errors")
	}
	if len(q.entities) != 0 {
		t.Fatalf("expected no pending entities after fixpoint, got %d", len(q.entities))
	}
}

func TestDriveReportsErrorOnUnresolvedGlobal(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 3, Column: 1}
	g := &ast.Global{
		Base: ast.Base{KindTag: ast.KGlobal, At: pos},
		Name: "y",
	}

	engine := types.NewStdEngine()
	sink := newTestSink()
	opts := check.Options{}

	q := New()
	scope := resolve.NewScope(nil)
	q.AddRoot(g, scope)

	ok := Drive(engine, sink, opts, q)
	if ok {
		t.Fatalf("expected Drive to fail for a global with no type and no initializer")
	}
	if !sink.HasErrors() {
		t.Fatalf("expected at least one diagnostic")
	}
}

func TestFlattenTopLevelUnwrapsBlock(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	a := &ast.Global{Base: ast.Base{KindTag: ast.KGlobal, At: pos}, Name: "a"}
	b := &ast.Global{Base: ast.Base{KindTag: ast.KGlobal, At: pos}, Name: "b"}
	block := ast.NewBlock(pos, ast.NewSlot(a), ast.NewSlot(b))

	nodes := flattenTopLevel(block)
	if len(nodes) != 2 {
		t.Fatalf("expected 2 flattened nodes, got %d", len(nodes))
	}
	if nodes[0] != ast.Node(a) || nodes[1] != ast.Node(b) {
		t.Fatalf("flattened nodes out of order or wrong identity")
	}
}
