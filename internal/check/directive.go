package check

import (
	"strings"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkStaticIf is spec.md §4.8: the condition must resolve to a
// compile-time bool. Once resolved (StaticIfResolved), the unchosen
// branch is never scheduled at all — its entities simply never get
// pushed — rather than scheduled and then discarded.
func checkStaticIf(ctx *Context, slot *ast.Slot, si *ast.StaticIf) Status {
	if si.Flags().Has(ast.StaticIfResolved) {
		if si.Selected != nil {
			return checkBlock(ctx, si.Selected)
		}
		return Success
	}
	if st := Check(func() Status { return checkExpr(ctx, si.Cond) }); st.IsTerminal() {
		return st
	}
	cond := si.Cond.Get()
	if !cond.Flags().Has(ast.Comptime) {
		return ctx.ReportError(diag.CHK070, si.Pos(), "#static_if condition must be a compile-time constant")
	}
	boolLit, ok := cond.(*ast.BoolLit)
	if !ok {
		return ctx.Yield(diag.CHK070, si.Pos(), "#static_if condition not yet resolved to a constant bool")
	}

	chosen := si.FalseEntities
	if boolLit.Value {
		chosen = si.TrueEntities
	}
	if ctx.Sched != nil && ctx.Entity != nil {
		for _, n := range chosen {
			ctx.Sched.AddEntitiesForNode(ctx.Entity, n, ctx.Scope)
		}
	}
	if ctx.Options.PrintStaticIfResults {
		ctx.Sink.Warning(diag.CHK070, si.Pos(), "#static_if resolved to %v", boolLit.Value)
	}
	si.Flags().Set(ast.StaticIfResolved)

	if si.Selected != nil {
		return checkBlock(ctx, si.Selected)
	}
	return Success
}

// checkDirectiveInsert evaluates a `#insert code_expr` by checking the
// code expression (which must produce a CodeBlock) and handing its
// captured, unchecked AST to the scheduler as fresh entities under the
// current entity, per spec.md §4.8.
func checkDirectiveInsert(ctx *Context, slot *ast.Slot, di *ast.DirectiveInsert) Status {
	if st := Check(func() Status { return checkExpr(ctx, di.Code) }); st.IsTerminal() {
		return st
	}
	cb, ok := di.Code.Get().(*ast.CodeBlock)
	if !ok {
		return ctx.ReportError(diag.CHK010, di.Pos(), "#insert requires a code block value")
	}
	if ctx.Sched != nil && ctx.Entity != nil && cb.Captured != nil {
		ctx.Sched.AddEntitiesForNode(ctx.Entity, cb.Captured, ctx.Scope)
	}
	di.SetType(types.Void)
	return Success
}

// checkDirectiveSolidify implements `#solidify proc { T = i32, ... }`:
// every known argument's type expression is built and handed to
// PolymorphicProcTrySolidify, producing a concrete instantiation
// without waiting for a call site to supply the bindings.
func checkDirectiveSolidify(ctx *Context, slot *ast.Slot, ds *ast.DirectiveSolidify) Status {
	proc, ok := ds.Proc.Get().(*ast.Function)
	if !ok || !proc.IsPolymorphic {
		return ctx.ReportError(diag.CHK010, ds.Pos(), "#solidify target is not a polymorphic procedure")
	}
	bindings := make(map[string]types.Type, len(ds.KnownArgs))
	for name, expr := range ds.KnownArgs {
		t, err := ctx.Engine.BuildFromAST(expr.Get())
		if err != nil {
			return ctx.Yield(diag.CHK080, ds.Pos(), "#solidify argument %q not yet ready: %v", name, err)
		}
		bindings[name] = t
	}
	for _, name := range proc.PolyParams {
		if _, ok := bindings[name]; !ok {
			return ctx.ReportError(diag.CHK080, ds.Pos(), "#solidify did not provide a binding for %q", name)
		}
	}
	solid := resolve.PolymorphicProcTrySolidify(proc, bindings)
	ds.Proc.Set(solid)
	ds.SetType(types.Void)
	return Success
}

// checkDirectiveInit validates a `#init` procedure (spec.md §4.8): it
// must take no arguments, every dependency must itself be Finalized
// (relying on the scheduler's own cycle detection for the "circular
// #init dependency" diagnostic, CHK002, rather than walking the
// dependency graph here), and once satisfied the procedure is appended
// to the shared init_procedures list exactly once.
func checkDirectiveInit(ctx *Context, di *ast.DirectiveInit) Status {
	if di.Finalized {
		return Success
	}
	if di.Proc != nil && len(di.Proc.Params) > 0 {
		return ctx.ReportError(diag.CHK062, di.Pos(), "#init procedure %q must take no arguments", di.Proc.Name)
	}
	for _, dep := range di.Dependencies {
		if !dep.Finalized {
			return ctx.Yield(diag.CHK002, di.Pos(), "waiting on #init dependency to finalize")
		}
	}
	if di.Proc != nil {
		if st := Check(func() Status { return checkFunctionHeader(ctx, di.Proc) }); st.IsTerminal() {
			return st
		}
		if ctx.InitProcedures != nil {
			*ctx.InitProcedures = append(*ctx.InitProcedures, di.Proc)
		}
	}
	di.Finalized = true
	return Success
}

// checkDirectiveExport validates `#export "name" target`: the name
// must be a string literal known at check time.
func checkDirectiveExport(ctx *Context, de *ast.DirectiveExport) Status {
	if st := Check(func() Status { return checkExpr(ctx, de.Name) }); st.IsTerminal() {
		return st
	}
	if _, ok := de.Name.Get().(*ast.StrLit); !ok {
		return ctx.ReportError(diag.CHK071, de.Pos(), "#export name must be a string literal")
	}
	return Success
}

// checkDirectiveLibrary processes escape sequences in a `#library`
// string literal's name (spec.md §4.8).
func checkDirectiveLibrary(ctx *Context, dl *ast.DirectiveLibrary) Status {
	dl.Name = unescapeLibraryName(dl.Name)
	return Success
}

// unescapeLibraryName mirrors the lexer's own string-escape handling
// (\n \t \" \\, anything else passed through) so a #library name built
// by something other than the tokenizer (e.g. #insert-generated code)
// is normalized the same way a source literal would be.
func unescapeLibraryName(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			default:
				b.WriteByte(raw[i])
			}
			continue
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}
