package parser

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/lexer"
)

func parse(t *testing.T, src string) []ast.Node {
	t.Helper()
	l := lexer.New(string(lexer.Normalize([]byte(src))), "test.onyx")
	p := New(l, "test.onyx")
	decls := p.ParseFile()
	if len(p.Errors()) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors())
	}
	return decls
}

func TestParseProcWithReturn(t *testing.T) {
	decls := parse(t, `
proc add(a: i32, b: i32) -> i32 {
  return a + b
}
`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(decls))
	}
	fn, ok := decls[0].(*ast.Function)
	if !ok {
		t.Fatalf("expected *ast.Function, got %T", decls[0])
	}
	if fn.Name != "add" {
		t.Fatalf("expected name 'add', got %q", fn.Name)
	}
	if len(fn.Params) != 2 || fn.Params[0].Name != "a" || fn.Params[1].Name != "b" {
		t.Fatalf("unexpected params: %+v", fn.Params)
	}
	if tn, ok := fn.ReturnTypeExpr.(*ast.TypeName); !ok || tn.Name != "i32" {
		t.Fatalf("unexpected return type expr: %+v", fn.ReturnTypeExpr)
	}
	if len(fn.Body.Stmts) != 1 {
		t.Fatalf("expected 1 statement in body, got %d", len(fn.Body.Stmts))
	}
	ret, ok := fn.Body.Stmts[0].Get().(*ast.Return)
	if !ok {
		t.Fatalf("expected *ast.Return, got %T", fn.Body.Stmts[0].Get())
	}
	bin, ok := ret.Expr.Get().(*ast.BinOp)
	if !ok {
		t.Fatalf("expected *ast.BinOp, got %T", ret.Expr.Get())
	}
	if bin.Op != "+" {
		t.Fatalf("expected op '+', got %q", bin.Op)
	}
}

func TestParseStructAndMemres(t *testing.T) {
	decls := parse(t, `
struct Point {
  x: i32
  y: i32 = 0
}

memres origin: Point
`)
	if len(decls) != 2 {
		t.Fatalf("expected 2 decls, got %d", len(decls))
	}
	st, ok := decls[0].(*ast.StructType)
	if !ok {
		t.Fatalf("expected *ast.StructType, got %T", decls[0])
	}
	if st.Name != "Point" || len(st.Members) != 2 {
		t.Fatalf("unexpected struct: %+v", st)
	}
	if st.Members[1].Default == nil {
		t.Fatalf("expected member 'y' to have a default")
	}

	g, ok := decls[1].(*ast.Global)
	if !ok {
		t.Fatalf("expected *ast.Global, got %T", decls[1])
	}
	if g.Name != "origin" {
		t.Fatalf("expected global name 'origin', got %q", g.Name)
	}
	if tn, ok := g.TypeExpr.(*ast.TypeName); !ok || tn.Name != "Point" {
		t.Fatalf("unexpected global type expr: %+v", g.TypeExpr)
	}
}

func TestParseIfWhileCompoundAssign(t *testing.T) {
	decls := parse(t, `
proc clamp() {
  x: i32 = 0
  while x < 10 {
    x += 1
  }
  if x >= 10 {
    x -= 1
  } else {
    x = 0
  }
}
`)
	fn := decls[0].(*ast.Function)
	if len(fn.Body.Stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(fn.Body.Stmts))
	}
	local, ok := fn.Body.Stmts[0].Get().(*ast.Local)
	if !ok || local.Name != "x" {
		t.Fatalf("expected local 'x', got %+v", fn.Body.Stmts[0].Get())
	}
	wh, ok := fn.Body.Stmts[1].Get().(*ast.While)
	if !ok {
		t.Fatalf("expected *ast.While, got %T", fn.Body.Stmts[1].Get())
	}
	if len(wh.Body.Stmts) != 1 {
		t.Fatalf("expected 1 stmt in while body, got %d", len(wh.Body.Stmts))
	}
	ifNode, ok := fn.Body.Stmts[2].Get().(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", fn.Body.Stmts[2].Get())
	}
	if ifNode.Else == nil {
		t.Fatalf("expected an else block")
	}
}

func TestParseFieldAccessSubscriptAndCall(t *testing.T) {
	decls := parse(t, `
proc access(p: ^Point, xs: []i32) -> i32 {
  return p.*.x + xs[0] + add(1, 2)
}
`)
	fn := decls[0].(*ast.Function)
	if _, ok := fn.Params[0].TypeExpr.(*ast.TypePointer); !ok {
		t.Fatalf("expected pointer param type, got %T", fn.Params[0].TypeExpr)
	}
	if _, ok := fn.Params[1].TypeExpr.(*ast.TypeSlice); !ok {
		t.Fatalf("expected slice param type, got %T", fn.Params[1].TypeExpr)
	}
	ret := fn.Body.Stmts[0].Get().(*ast.Return)
	// outermost is "+": (p.*.x + xs[0]) + add(1,2)
	outer, ok := ret.Expr.Get().(*ast.BinOp)
	if !ok || outer.Op != "+" {
		t.Fatalf("expected outer '+' binop, got %+v", ret.Expr.Get())
	}
}

func TestParseStructLiteralAndDirectives(t *testing.T) {
	decls := parse(t, `
proc make() -> Point {
  return Point.{ x = 1, y = #size_of(i32) }
}
`)
	fn := decls[0].(*ast.Function)
	ret := fn.Body.Stmts[0].Get().(*ast.Return)
	lit, ok := ret.Expr.Get().(*ast.StructLiteral)
	if !ok {
		t.Fatalf("expected *ast.StructLiteral, got %T", ret.Expr.Get())
	}
	if tn, ok := lit.TypeExpr.(*ast.TypeName); !ok || tn.Name != "Point" {
		t.Fatalf("unexpected struct literal type: %+v", lit.TypeExpr)
	}
	if len(lit.NamedOrder) != 2 {
		t.Fatalf("expected 2 named fields, got %d", len(lit.NamedOrder))
	}
	if _, ok := lit.Named["y"].Get().(*ast.SizeOf); !ok {
		t.Fatalf("expected #size_of expr for field y, got %T", lit.Named["y"].Get())
	}
}

func TestParseStaticIf(t *testing.T) {
	decls := parse(t, `
#static_if true {
  memres debug_flag: bool = true
} else {
  memres debug_flag: bool = false
}
`)
	if len(decls) != 1 {
		t.Fatalf("expected 1 decl, got %d", len(decls))
	}
	si, ok := decls[0].(*ast.StaticIf)
	if !ok {
		t.Fatalf("expected *ast.StaticIf, got %T", decls[0])
	}
	if len(si.TrueEntities) != 1 || len(si.FalseEntities) != 1 {
		t.Fatalf("expected 1 entity per branch, got true=%d false=%d", len(si.TrueEntities), len(si.FalseEntities))
	}
}
