package check

import (
	"testing"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
)

func TestUnescapeLibraryName(t *testing.T) {
	cases := map[string]string{
		`plain`:              `plain`,
		`foo\nbar`:           "foo\nbar",
		`foo\tbar`:           "foo\tbar",
		`say \"hi\"`:         `say "hi"`,
		`back\\slash`:        `back\slash`,
		`no escapes here...`: `no escapes here...`,
	}
	for in, want := range cases {
		if got := unescapeLibraryName(in); got != want {
			t.Fatalf("unescapeLibraryName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckDirectiveLibraryUnescapesName(t *testing.T) {
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}
	dl := &ast.DirectiveLibrary{Base: ast.Base{KindTag: ast.KDirectiveLibrary, At: pos}, Name: `foo\nbar`}

	ctx := newTestContext()
	if st := checkDirectiveLibrary(ctx, dl); st != Success {
		t.Fatalf("expected Success, got %v", st)
	}
	if dl.Name != "foo\nbar" {
		t.Fatalf("expected escaped name to be unescaped, got %q", dl.Name)
	}
}

func TestCheckDirectiveInitRejectsNonZeroArgProc(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 1, Column: 1}

	proc := &ast.Function{
		Base:   ast.Base{KindTag: ast.KFunction, At: pos},
		Name:   "setup",
		Params: []*ast.Param{{Name: "x"}},
	}
	di := &ast.DirectiveInit{Base: ast.Base{KindTag: ast.KDirectiveInit, At: pos}, Proc: proc}

	st := checkDirectiveInit(ctx, di)
	if st != Error {
		t.Fatalf("expected Error for a non-zero-arg #init proc, got %v", st)
	}
	found := false
	for _, r := range ctx.Sink.Reports() {
		if r.Code == diag.CHK062 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a CHK062 diagnostic, got %v", ctx.Sink.Reports())
	}
}

func TestCheckDirectiveInitYieldsOnUnfinalizedDependency(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 2, Column: 1}

	dep := &ast.DirectiveInit{Base: ast.Base{KindTag: ast.KDirectiveInit, At: pos}, Finalized: false}
	proc := &ast.Function{Base: ast.Base{KindTag: ast.KFunction, At: pos}, Name: "setup"}
	di := &ast.DirectiveInit{
		Base:         ast.Base{KindTag: ast.KDirectiveInit, At: pos},
		Proc:         proc,
		Dependencies: []*ast.DirectiveInit{dep},
	}

	st := checkDirectiveInit(ctx, di)
	if st != YieldMacro {
		t.Fatalf("expected a yield while a dependency is unfinalized, got %v", st)
	}
	if di.Finalized {
		t.Fatalf("expected #init to stay unfinalized while waiting on its dependency")
	}
}

func TestCheckDirectiveInitAppendsToInitProcedures(t *testing.T) {
	ctx := newTestContext()
	pos := ast.Pos{File: "t.onyx", Line: 3, Column: 1}

	dep := &ast.DirectiveInit{Base: ast.Base{KindTag: ast.KDirectiveInit, At: pos}, Finalized: true}
	proc := &ast.Function{Base: ast.Base{KindTag: ast.KFunction, At: pos}, Name: "setup"}
	di := &ast.DirectiveInit{
		Base:         ast.Base{KindTag: ast.KDirectiveInit, At: pos},
		Proc:         proc,
		Dependencies: []*ast.DirectiveInit{dep},
	}

	st := checkDirectiveInit(ctx, di)
	if st != Success {
		t.Fatalf("expected Success, got %v (%d reports)", st, len(ctx.Sink.Reports()))
	}
	if !di.Finalized {
		t.Fatalf("expected #init to be marked Finalized")
	}
	if len(*ctx.InitProcedures) != 1 || (*ctx.InitProcedures)[0] != proc {
		t.Fatalf("expected the proc to be appended to InitProcedures exactly once, got %v", *ctx.InitProcedures)
	}

	// Re-entry after Finalized must not append a second time.
	if st := checkDirectiveInit(ctx, di); st != Success {
		t.Fatalf("expected Success on re-entry, got %v", st)
	}
	if len(*ctx.InitProcedures) != 1 {
		t.Fatalf("expected re-entry to be a no-op, got %d entries", len(*ctx.InitProcedures))
	}
}
