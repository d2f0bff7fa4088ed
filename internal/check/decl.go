package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkFunctionHeader validates a function's parameter list and return
// type expression without touching its body (spec.md §4.7): default-
// valued parameters must all trail the required ones, at most one
// vararg parameter is allowed, and no parameter may have a zero-sized
// type. Polymorphic procedures (IsPolymorphic) skip parameter type
// resolution entirely — their params are resolved per call site by C5.
func checkFunctionHeader(ctx *Context, fn *ast.Function) Status {
	if len(fn.Constraints) > 0 && !fn.ConstraintsMet {
		if st := checkConstraintContext(ctx, fn.Constraints); st.IsTerminal() {
			return st
		}
		fn.ConstraintsMet = true
		return ReturnToSymres
	}
	seenDefault := false
	seenVarArgs := false
	for i, p := range fn.Params {
		if p.IsVarArgs {
			if seenVarArgs {
				return ctx.ReportError(diag.CHK061, fn.Pos(), "function %q has more than one vararg parameter", fn.Name)
			}
			seenVarArgs = true
			if i != len(fn.Params)-1 {
				return ctx.ReportError(diag.CHK061, fn.Pos(), "vararg parameter %q must be the last parameter", p.Name)
			}
			continue
		}
		if p.Default != nil {
			seenDefault = true
		} else if seenDefault {
			return ctx.ReportError(diag.CHK060, fn.Pos(), "parameter %q without a default follows a defaulted parameter", p.Name)
		}
		if fn.IsPolymorphic || p.IsPolyVar {
			continue
		}
		if p.TypeExpr == nil {
			continue
		}
		t, err := ctx.Engine.BuildFromAST(p.TypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK010, fn.Pos(), "parameter %q type not yet ready: %v", p.Name, err)
		}
		if ctx.Engine.IsZeroSized(t) {
			return ctx.ReportError(diag.CHK062, fn.Pos(), "parameter %q has a zero-sized type %s", p.Name, t)
		}
	}
	if !fn.IsPolymorphic && fn.ReturnTypeExpr != nil && fn.ReturnType == nil {
		t, err := ctx.Engine.BuildFromAST(fn.ReturnTypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK010, fn.Pos(), "return type not yet ready: %v", err)
		}
		fn.ReturnType = t
	} else if fn.ReturnTypeExpr == nil && fn.ReturnType == nil {
		fn.ReturnType = types.AutoReturn
	}
	fn.HeaderCheckedOK = true
	return Success
}

// checkFunctionBody checks a non-polymorphic function's body under a
// ReturnSlot seeded from its (by now resolved) header return type,
// writing the solved auto-return type back into the header afterward.
func checkFunctionBody(ctx *Context, fn *ast.Function) Status {
	if !fn.HeaderCheckedOK {
		return ctx.Yield(diag.CHK001, fn.Pos(), "waiting on function header")
	}
	if fn.Body == nil {
		return Success
	}
	retSlot := &ReturnSlot{T: fn.ReturnType}
	sub := ctx.WithScope()
	sub.ExpectedReturnType = retSlot
	for _, p := range fn.Params {
		sub.Scope.Introduce(p.Name, newParamSymbol(p))
	}
	if st := Check(func() Status { return checkBlock(sub, fn.Body) }); st.IsTerminal() {
		return st
	}
	fn.ReturnType = retSlot.T
	return Success
}

// paramSymbol wraps a parameter as the ast.Node a scope lookup needs;
// its Type() reflects ResolvedType when a polymorph solidify already
// set it, falling back to the type engine otherwise.
type paramSymbol struct {
	ast.Base
	p *ast.Param
}

func newParamSymbol(p *ast.Param) *paramSymbol { return &paramSymbol{p: p} }

func (s *paramSymbol) Type() ast.SemType {
	if s.p.ResolvedType != nil {
		return s.p.ResolvedType
	}
	return s.Base.Type()
}

// checkOverloadedFunction checks every candidate's header independently
// (spec.md §4.5: overload resolution needs every candidate's header
// finished before it can pick one), then each candidate's body.
func checkOverloadedFunction(ctx *Context, of *ast.OverloadedFunction) Status {
	for _, c := range of.Candidates {
		if !c.HeaderCheckedOK {
			if st := Check(func() Status { return checkFunctionHeader(ctx, c) }); st.IsTerminal() {
				return st
			}
		}
	}
	for _, c := range of.Candidates {
		if !c.IsPolymorphic {
			if st := Check(func() Status { return checkFunctionBody(ctx, c) }); st.IsTerminal() {
				return st
			}
		}
	}
	return Success
}

// checkGlobal validates a `memres` declaration's type and, when
// present, that its initializer is a comptime expression (spec.md
// §4.7, "global initializer not comptime").
func checkGlobal(ctx *Context, g *ast.Global) Status {
	var declared types.Type
	if g.TypeExpr != nil {
		t, err := ctx.Engine.BuildFromAST(g.TypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK010, g.Pos(), "global %q type not yet ready: %v", g.Name, err)
		}
		declared = t
	}
	if g.Init != nil {
		if st := Check(func() Status { return checkExpr(ctx, g.Init) }); st.IsTerminal() {
			return st
		}
		if !g.Init.Get().Flags().Has(ast.Comptime) {
			return ctx.ReportError(diag.CHK063, g.Pos(), "global %q initializer is not a compile-time constant", g.Name)
		}
		if declared != nil {
			if status := unifyOrError(ctx, g.Init, declared, g.Pos(), "cannot initialize global %q with %s", g.Name, g.Init.Type()); status.IsTerminal() {
				return status
			}
		} else {
			t, ok := g.Init.Type().(types.Type)
			if !ok || t == nil {
				return ctx.Yield(diag.CHK001, g.Pos(), "global %q initializer type not yet known", g.Name)
			}
			declared = t
		}
	}
	if declared == nil {
		return ctx.ReportError(diag.CHK010, g.Pos(), "cannot infer type for global %q", g.Name)
	}
	g.SetType(declared)
	return Success
}

// checkStructType builds a Struct's member layout from its Member
// declarations (spec.md §4.7), including defaults via
// checkStructDefaults and `use` flattening deferred to the type
// engine's StructMemberApplyUse once every member's own type is ready.
// A polymorphic struct (PolyParams non-empty) is only built once
// ReadyToBuildType is set by its instantiation site.
func checkStructType(ctx *Context, st *ast.StructType) Status {
	if len(st.PolyParams) > 0 && !st.ReadyToBuildType {
		return Success // instantiated lazily; nothing to check until then
	}
	if len(st.Constraints) > 0 && !st.ConstraintsMet {
		if status := checkConstraintContext(ctx, st.Constraints); status.IsTerminal() {
			return status
		}
		st.ConstraintsMet = true
		return ReturnToSymres
	}
	built, err := ctx.Engine.BuildFromAST(&ast.TypeStructRef{Decl: st})
	if err != nil {
		return ctx.Yield(diag.CHK010, st.Pos(), "struct %q not yet buildable: %v", st.Name, err)
	}
	sem := built.(*types.Struct)

	members := make([]*types.StructMember, 0, len(st.Members))
	offset := 0
	for _, m := range st.Members {
		if m.TypeExpr == nil {
			continue
		}
		t, err := ctx.Engine.BuildFromAST(m.TypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK010, st.Pos(), "member %q of %q not yet ready: %v", m.Name, st.Name, err)
		}
		if ctx.Engine.IsCompound(t) {
			return ctx.ReportError(diag.CHK064, st.Pos(), "member %q of %q cannot have a compound type", m.Name, st.Name)
		}
		members = append(members, &types.StructMember{Name: m.Name, Type: t, Offset: offset, Use: m.Use})
		offset += ctx.Engine.SizeOf(t)
	}
	sem.Members = members
	sem.SizeBytes = offset

	if status := checkStructDefaults(ctx, st); status.IsTerminal() {
		return status
	}
	if ok, err := ctx.Engine.StructMemberApplyUse(sem); !ok {
		return ctx.Yield(diag.CHK010, st.Pos(), "struct %q 'use' members not yet ready: %v", st.Name, err)
	}
	sem.Status = types.StructUsesDone
	st.SetType(sem)
	return Success
}

// checkStructDefaults type-checks each member's default initializer
// expression against that member's own declared type, independent of
// any particular struct-literal use site.
func checkStructDefaults(ctx *Context, st *ast.StructType) Status {
	for _, m := range st.Members {
		if m.Default == nil || m.TypeExpr == nil {
			continue
		}
		t, err := ctx.Engine.BuildFromAST(m.TypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK010, st.Pos(), "member %q default not yet ready: %v", m.Name, err)
		}
		if status := unifyOrError(ctx, m.Default, t, st.Pos(),
			"default value for member %q does not match its type %s", m.Name, t); status.IsTerminal() {
			return status
		}
	}
	return Success
}

// checkMacro checks a macro's header the same way as an ordinary
// function (spec.md §6's macro_resolve_header reuses header checking
// verbatim); the macro's body stays unchecked until #insert or a call
// site actually expands it (spec.md §4.8).
func checkMacro(ctx *Context, m *ast.Macro) Status {
	if m.Header == nil {
		return ctx.ReportError(diag.CHK010, m.Pos(), "macro %q has no header", m.Name)
	}
	return checkFunctionHeader(ctx, m.Header)
}
