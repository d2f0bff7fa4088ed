package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/types"
)

// unify is C2: a thin wrapper over types.Engine.UnifyNodeAndType that
// folds the three-way TypeMatch result into the checker's own Status
// protocol. It is oblivious to overload/macro logic (those live in C5
// and C6's call sites), and yields at the caller's own source position
// rather than the unified expression's — spec.md §4.2: "On Yield, the
// caller re-yields at its own source position."
func unify(ctx *Context, slot *ast.Slot, target types.Type, pos ast.Pos) Status {
	switch ctx.Engine.UnifyNodeAndType(slot, target) {
	case types.MatchSuccess:
		return Success
	case types.MatchYield:
		return ctx.Yield(diag.CHK010, pos, "waiting on type checking")
	default:
		return Failed
	}
}

// unifyOrError is unify, but reports a hard error (rather than
// returning Failed silently) when unification fails outright — the
// TYPE_CHECK(expr, type) { ERROR(...) } pattern from the source.
func unifyOrError(ctx *Context, slot *ast.Slot, target types.Type, pos ast.Pos, format string, args ...any) Status {
	st := unify(ctx, slot, target, pos)
	if st == Failed {
		return ctx.ReportError(diag.CHK010, pos, format, args...)
	}
	return st
}
