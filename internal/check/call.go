package check

import (
	"fmt"

	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkCall is C5: call resolution in the order spec.md §4.5 lays out
// — strip aliases off the callee, try a plain overloaded function,
// fall back to a polymorphic procedure, then a macro, and only then
// ask whether the callee names an intrinsic. Each step may yield
// rather than fail outright when a candidate's own header isn't
// finished checking yet.
func checkCall(ctx *Context, slot *ast.Slot, call *ast.Call) Status {
	callee := resolve.StripAliases(call.Callee.Get())
	call.Callee.Set(callee)

	for _, a := range call.Args {
		if st := Check(func() Status { return checkExpr(ctx, a.Value) }); st.IsTerminal() {
			return st
		}
	}
	argTypes := make([]types.Type, 0, len(call.Args))
	for _, a := range call.Args {
		if a.Baked {
			continue
		}
		t, _ := a.Value.Type().(types.Type)
		argTypes = append(argTypes, t)
	}

	switch target := callee.(type) {
	case *ast.OverloadedFunction:
		return resolveOverloadedCall(ctx, slot, call, target.Candidates, argTypes)
	case *ast.Function:
		if target.IsPolymorphic {
			return resolveOverloadedCall(ctx, slot, call, []*ast.Function{target}, argTypes)
		}
		return checkArgumentsAgainstFunction(ctx, call, target, argTypes)
	case *ast.Macro:
		return resolveMacroCall(ctx, slot, call, target, argTypes)
	case *ast.Ident:
		if id, ok := intrinsicTable[target.Name]; ok {
			call.IntrinsicID = id
			return checkArgumentsAgainstIntrinsic(ctx, call, id, argTypes)
		}
		return ctx.Yield(diag.CHK001, call.Pos(), "callee %q not yet resolved", target.Name)
	default:
		return ctx.ReportError(diag.CHK040, call.Pos(), "%s is not callable", callee)
	}
}

// intrinsicTable names the small set of compiler intrinsics the
// checker recognizes by identifier when nothing else claims the call
// (spec.md §4.5 step 7, "rekind to an intrinsic call").
var intrinsicTable = map[string]string{
	"type_of":      "intrinsic.type_of",
	"initializer_of": "intrinsic.initializer_of",
	"offset_of":    "intrinsic.offset_of",
}

func resolveOverloadedCall(ctx *Context, slot *ast.Slot, call *ast.Call, candidates []*ast.Function, argTypes []types.Type) Status {
	fn, outcome := resolve.FindMatchingOverload(candidates, argTypes, ctx.Engine)
	switch outcome {
	case resolve.OverloadResolved:
		return checkArgumentsAgainstFunction(ctx, call, fn, argTypes)
	case resolve.OverloadYield:
		return ctx.Yield(diag.CHK040, call.Pos(), "waiting on an overload candidate's header")
	}

	// No plain overload matched; try polymorphic instantiation before
	// giving up (spec.md §4.5 step 3 -> step 4).
	polyFn, polyOutcome := resolve.PolymorphicProcLookup(candidates, len(argTypes))
	switch polyOutcome {
	case resolve.OverloadResolved:
		return resolvePolymorphicCall(ctx, slot, call, polyFn, argTypes)
	case resolve.OverloadYield:
		return ctx.Yield(diag.CHK040, call.Pos(), "waiting on polymorphic overload resolution")
	}

	return ctx.ReportError(diag.CHK040, call.Pos(), "no matching overload for this call")
}

// resolvePolymorphicCall drives spec.md §4.9's find_polymorphic_sln
// over every poly-variable fn declares, then solidifies a concrete
// Function via polymorphic_proc_try_solidify once all are bound.
func resolvePolymorphicCall(ctx *Context, slot *ast.Slot, call *ast.Call, fn *ast.Function, argTypes []types.Type) Status {
	bindings := make(map[string]types.Type, len(fn.PolyParams))
	for _, name := range fn.PolyParams {
		t, outcome := resolve.FindPolymorphicSln(fn, name, argTypes)
		switch outcome {
		case resolve.SlnSuccess:
			bindings[name] = t
		case resolve.SlnYield:
			return ctx.Yield(diag.CHK080, call.Pos(), "waiting on polymorphic parameter %q", name)
		default:
			return ctx.ReportError(diag.CHK080, call.Pos(), "could not solve polymorphic parameter %q", name)
		}
	}
	solid := resolve.PolymorphicProcTrySolidify(fn, bindings)
	return checkArgumentsAgainstFunction(ctx, call, solid, argTypes)
}

func resolveMacroCall(ctx *Context, slot *ast.Slot, call *ast.Call, m *ast.Macro, argTypes []types.Type) Status {
	header, ok := resolve.MacroResolveHeader(m)
	if !ok {
		return ctx.Yield(diag.CHK040, call.Pos(), "waiting on macro header")
	}
	baked := resolve.BakedArgCount(call.Args)
	effective := argTypes
	if baked > 0 && baked <= len(argTypes) {
		effective = argTypes[baked:]
	}
	if st := checkArgumentsAgainstFunction(ctx, call, header, effective); st.IsTerminal() {
		return st
	}
	rewriteCallSiteArgs(call)
	return expandMacroCall(ctx, slot, call, m, header)
}

// rewriteCallSiteArgs is spec.md §4.5 step 6: a bare #callsite argument
// stands for the call's own position, so it is replaced with a fresh
// clone carrying this call's filename/line/column rather than the
// macro declaration's.
func rewriteCallSiteArgs(call *ast.Call) {
	pos := call.Pos()
	for _, a := range call.Args {
		if _, ok := a.Value.Get().(*ast.CallSite); !ok {
			continue
		}
		a.Value.Set(ast.NewCallSite(pos, pos.File, fmt.Sprintf("%d", pos.Line), fmt.Sprintf("%d", pos.Column)))
	}
}

// expandMacroCall is spec.md §4.5 step 10: rather than generating a
// call to the macro the way an ordinary function would, the macro's
// body is cloned per call site, its parameters bound to this call's
// argument expressions as a prologue of locals, and the whole thing
// rewritten in place as a do-block expression. Return_To_Symres sends
// the freshly spliced-in nodes back through symbol resolution before
// anything tries to check them.
func expandMacroCall(ctx *Context, slot *ast.Slot, call *ast.Call, m *ast.Macro, header *ast.Function) Status {
	if m.Body == nil {
		call.SetType(types.Void)
		return Success
	}
	body, ok := ast.CloneNode(m.Body).(*ast.Block)
	if !ok {
		return ctx.ReportError(diag.CHK010, call.Pos(), "macro %q has no expandable body", m.Name)
	}
	prologue := make([]*ast.Slot, 0, len(header.Params))
	for i, p := range header.Params {
		if p.IsVarArgs || i >= len(call.Args) {
			break
		}
		local := &ast.Local{Base: ast.Base{KindTag: ast.KLocal, At: call.Pos()}, Name: p.Name, Init: call.Args[i].Value}
		prologue = append(prologue, ast.NewSlot(local))
	}
	body.Stmts = append(prologue, body.Stmts...)
	slot.Set(&ast.DoBlock{Base: ast.Base{KindTag: ast.KDoBlock, At: call.Pos()}, Body: body})
	return ReturnToSymres
}

// checkArgumentsAgainstFunction is spec.md §6's
// check_arguments_against_type: bind each argument's expression (or
// its default) against the callee's declared parameter types, filling
// in any omitted trailing defaulted arguments via fill_in_arguments,
// and classifies the callee's vararg handling into call.VAKind.
func checkArgumentsAgainstFunction(ctx *Context, call *ast.Call, fn *ast.Function, argTypes []types.Type) Status {
	fn.Flags().Set(ast.FunctionUsed)
	for i, p := range fn.Params {
		if p.IsVarArgs {
			call.VAKind = "typed"
			if p.TypeExpr == nil {
				call.VAKind = "untyped"
			}
			break
		}
		if i >= len(call.Args) {
			if p.Default == nil {
				return ctx.ReportError(diag.CHK043, call.Pos(), "missing required argument %q", p.Name)
			}
			call.Args = append(call.Args, &ast.Arg{Name: p.Name, Value: p.Default})
			continue
		}
		var pt types.Type
		if p.ResolvedType != nil {
			pt, _ = p.ResolvedType.(types.Type)
		} else if p.TypeExpr != nil {
			t, err := ctx.Engine.BuildFromAST(p.TypeExpr)
			if err != nil {
				return ctx.Yield(diag.CHK010, call.Pos(), "parameter %q type not yet ready: %v", p.Name, err)
			}
			pt = t
		}
		if pt == nil {
			continue
		}
		if status := unifyOrError(ctx, call.Args[i].Value, pt, call.Pos(),
			"argument %d does not match parameter %q of type %s", i+1, p.Name, pt); status.IsTerminal() {
			return status
		}
	}
	if len(call.Args) > len(fn.Params) && !hasTrailingVarArgs(fn) {
		return ctx.ReportError(diag.CHK041, call.Pos(), "too many arguments: expected %d, got %d", len(fn.Params), len(call.Args))
	}
	if fn.ReturnType != nil {
		call.SetType(fn.ReturnType)
	} else if fn.ReturnTypeExpr != nil {
		if t, err := ctx.Engine.BuildFromAST(fn.ReturnTypeExpr); err == nil {
			call.SetType(t)
		}
	}
	return Success
}

func hasTrailingVarArgs(fn *ast.Function) bool {
	return len(fn.Params) > 0 && fn.Params[len(fn.Params)-1].IsVarArgs
}

func checkArgumentsAgainstIntrinsic(ctx *Context, call *ast.Call, id string, argTypes []types.Type) Status {
	switch id {
	case "intrinsic.type_of":
		if len(argTypes) != 1 {
			return ctx.ReportError(diag.CHK042, call.Pos(), "type_of takes exactly one argument")
		}
		call.SetType(&types.TypeIndex{Of: argTypes[0]})
	default:
		call.SetType(types.Void)
	}
	return Success
}
