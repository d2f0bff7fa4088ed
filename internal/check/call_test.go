package check

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/types"
)

func TestResolveMacroCallExpandsBodyInPlace(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	header := &ast.Function{
		Base:            ast.Base{KindTag: ast.KFunction, At: pos},
		Name:            "double",
		Params:          []*ast.Param{{Name: "x"}},
		HeaderCheckedOK: true,
	}
	body := ast.NewBlock(pos, ast.NewSlot(&ast.ExprStmt{
		Base: ast.Base{KindTag: ast.KExprStmt, At: pos},
		Expr: ast.NewSlot(ast.NewIdent(pos, "x")),
	}))
	m := &ast.Macro{Base: ast.Base{KindTag: ast.KMacro, At: pos}, Name: "double", Header: header, Body: body}

	argVal := ast.NewNumLitInt(pos, 5)
	argVal.SetType(types.I32)
	call := ast.NewCall(pos, ast.NewIdent(pos, "double"), &ast.Arg{Value: ast.NewSlot(argVal)})
	slot := ast.NewSlot(call)

	st := resolveMacroCall(ctx, slot, call, m, []types.Type{types.I32})
	if st != ReturnToSymres {
		t.Fatalf("expected ReturnToSymres, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	db, ok := slot.Get().(*ast.DoBlock)
	if !ok {
		t.Fatalf("expected macro call to rewrite into a do-block, got %T", slot.Get())
	}
	if len(db.Body.Stmts) != 2 {
		t.Fatalf("expected a prologue local plus the cloned body statement, got %d statements", len(db.Body.Stmts))
	}
	local, ok := db.Body.Stmts[0].Get().(*ast.Local)
	if !ok || local.Name != "x" {
		t.Fatalf("expected first statement to be a local binding parameter x, got %v", db.Body.Stmts[0].Get())
	}
	if local.Init.Get() != ast.Node(argVal) {
		t.Fatalf("expected local x to be initialized from the call argument")
	}
	bodyStmt, ok := db.Body.Stmts[1].Get().(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected second statement to be the cloned body expr statement, got %T", db.Body.Stmts[1].Get())
	}
	if bodyStmt == body.Stmts[0].Get() {
		t.Fatalf("expected macro body to be cloned per call site, not shared with the declaration")
	}
	if !header.Flags().Has(ast.FunctionUsed) {
		t.Fatalf("expected the macro header to be flagged FunctionUsed")
	}
}

func TestResolveMacroCallVoidBodyIsNoOp(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 2, Column: 1}

	header := &ast.Function{Base: ast.Base{KindTag: ast.KFunction, At: pos}, Name: "noop", HeaderCheckedOK: true}
	m := &ast.Macro{Base: ast.Base{KindTag: ast.KMacro, At: pos}, Name: "noop", Header: header}

	call := ast.NewCall(pos, ast.NewIdent(pos, "noop"))
	slot := ast.NewSlot(call)

	st := resolveMacroCall(ctx, slot, call, m, nil)
	if st != Success {
		t.Fatalf("expected Success for a macro with no body, got %v", st)
	}
	if call.Type() != ast.SemType(types.Void) {
		t.Fatalf("expected a bodyless macro call to type as void, got %v", call.Type())
	}
}

func TestRewriteCallSiteArgsUsesCallsOwnPosition(t *testing.T) {
	declPos := ast.Pos{File: "macro.onyx", Line: 1, Column: 1}
	callPos := ast.Pos{File: "caller.onyx", Line: 42, Column: 7}

	cs := ast.NewCallSite(declPos, declPos.File, "1", "1")
	call := ast.NewCall(callPos, ast.NewIdent(callPos, "m"), &ast.Arg{Value: ast.NewSlot(cs)})

	rewriteCallSiteArgs(call)

	got, ok := call.Args[0].Value.Get().(*ast.CallSite)
	if !ok {
		t.Fatalf("expected #callsite argument to remain a CallSite, got %T", call.Args[0].Value.Get())
	}
	if got.Filename != callPos.File {
		t.Fatalf("expected filename %q, got %q", callPos.File, got.Filename)
	}
	if got.Line != "42" || got.Column != "7" {
		t.Fatalf("expected line/column 42/7, got %s/%s", got.Line, got.Column)
	}
}
