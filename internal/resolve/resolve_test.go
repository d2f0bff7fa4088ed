package resolve

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/types"
)

func TestScopeLookupWalksParentChain(t *testing.T) {
	root := NewScope(nil)
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	outer := ast.NewIdent(pos, "outer_val")
	root.Introduce("x", outer)

	child := NewScope(root)
	inner := ast.NewIdent(pos, "inner_val")
	child.Introduce("y", inner)

	if n, ok := child.Lookup("x"); !ok || n != ast.Node(outer) {
		t.Fatalf("expected child scope to find 'x' in its parent")
	}
	if n, ok := child.Lookup("y"); !ok || n != ast.Node(inner) {
		t.Fatalf("expected child scope to find its own 'y'")
	}
	if _, ok := root.Lookup("y"); ok {
		t.Fatalf("parent scope must not see child-only bindings")
	}
	if _, ok := child.Lookup("nonexistent"); ok {
		t.Fatalf("expected lookup of an unbound name to fail")
	}
}

func TestScopeShadowing(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	root := NewScope(nil)
	root.Introduce("x", ast.NewIdent(pos, "outer"))

	child := NewScope(root)
	inner := ast.NewIdent(pos, "inner")
	child.Introduce("x", inner)

	if n, _ := child.Lookup("x"); n != ast.Node(inner) {
		t.Fatalf("expected child's binding of 'x' to shadow the parent's")
	}
}

func TestStripAliasesFollowsChain(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	target := ast.NewIdent(pos, "real")
	mid := ast.NewAlias(pos, "mid", target)
	outer := ast.NewAlias(pos, "outer", mid)

	if got := StripAliases(outer); got != ast.Node(target) {
		t.Fatalf("expected StripAliases to reach the final target, got %T", got)
	}
	if got := StripAliases(target); got != ast.Node(target) {
		t.Fatalf("StripAliases on a non-alias must return it unchanged")
	}
}

func TestFindClosestSymbol(t *testing.T) {
	candidates := []string{"length", "width", "height"}
	if got, ok := FindClosestSymbol("lenght", candidates); !ok || got != "length" {
		t.Fatalf("expected 'lenght' to suggest 'length', got %q (ok=%v)", got, ok)
	}
	if _, ok := FindClosestSymbol("completely_unrelated_name", candidates); ok {
		t.Fatalf("expected no suggestion for a name with no close match")
	}
}

func TestFindMatchingOverloadYieldsOnUncheckedHeader(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	fn := &ast.Function{Base: ast.Base{KindTag: ast.KFunction, At: pos}, Name: "f"}
	eng := types.NewStdEngine()

	_, outcome := FindMatchingOverload([]*ast.Function{fn}, nil, eng)
	if outcome != OverloadYield {
		t.Fatalf("expected OverloadYield for a function whose header isn't checked yet, got %v", outcome)
	}
}

func TestFindMatchingOverloadResolvesSingleViableCandidate(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	fn := &ast.Function{
		Base:            ast.Base{KindTag: ast.KFunction, At: pos},
		Name:            "f",
		HeaderCheckedOK: true,
		Params: []*ast.Param{
			{Name: "a", TypeExpr: &ast.TypeName{Base: ast.Base{KindTag: ast.KTypeName, At: pos}, Name: "i32"}},
		},
	}
	eng := types.NewStdEngine()

	match, outcome := FindMatchingOverload([]*ast.Function{fn}, []types.Type{types.I32}, eng)
	if outcome != OverloadResolved || match != fn {
		t.Fatalf("expected the single candidate to resolve, got match=%v outcome=%v", match, outcome)
	}

	_, outcome2 := FindMatchingOverload([]*ast.Function{fn}, []types.Type{types.Bool}, eng)
	if outcome2 != OverloadNoMatch {
		t.Fatalf("expected no match for an incompatible argument type, got %v", outcome2)
	}
}
