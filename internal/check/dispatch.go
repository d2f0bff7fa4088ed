package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
)

// onceChecked is the supplemented onceChecked(node, fn) helper: no
// matter which check_X function a given node kind routes through,
// Has_Been_Checked is only ever set once, and a node already marked is
// never re-entered — mirroring the source's scattered
// `if (node->flags & Ast_Flag_Has_Been_Checked) return Check_Success;`
// guards, collapsed into one place instead of repeated at every call site.
func onceChecked(ctx *Context, n ast.Node, fn func() Status) Status {
	if n.Checked() {
		return Success
	}
	st := fn()
	if !st.IsTerminal() && ctx.AllChecksAreFinal {
		n.Flags().Set(ast.HasBeenChecked)
	}
	return st
}

// CheckEntity is the top-level dispatcher the scheduler drives: one
// call per entity per round, per spec.md §6. It threads the entity and
// its scope onto ctx before dispatching to the C7-C9 checker for the
// entity's concrete node kind, and folds the result into the entity's
// lifecycle state (spec.md §3: Resolve_Symbols -> Check_Types ->
// Code_Gen -> Finalized, or Failed).
func CheckEntity(ctx *Context, e *Entity) Status {
	sub := ctx.Fork()
	sub.Entity = e
	sub.Scope = e.Scope

	st := dispatchEntity(sub, e.Node)

	switch {
	case st == Complete:
		e.State = StateFinalized
	case st == Error || st == Failed:
		e.State = StateFailed
	case st == ReturnToSymres:
		e.State = StateResolveSymbols
		e.Retries = 0
	case st == YieldMacro:
		e.Retries++
	case st == Success:
		if e.State < StateCodeGen {
			e.State = StateCodeGen
		}
	}
	return st
}

func dispatchEntity(ctx *Context, n ast.Node) Status {
	switch node := n.(type) {
	case *ast.Function:
		return onceChecked(ctx, node, func() Status {
			if !node.HeaderCheckedOK {
				if st := checkFunctionHeader(ctx, node); st.IsTerminal() {
					return st
				}
			}
			if node.IsPolymorphic {
				return Complete
			}
			if st := checkFunctionBody(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.OverloadedFunction:
		return onceChecked(ctx, node, func() Status {
			if st := checkOverloadedFunction(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.Global:
		return onceChecked(ctx, node, func() Status {
			if st := checkGlobal(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.StructType:
		return onceChecked(ctx, node, func() Status {
			if st := checkStructType(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.Macro:
		return onceChecked(ctx, node, func() Status {
			if st := checkMacro(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.StaticIf:
		// A top-level #static_if entity has no surrounding block to
		// resume into, so once it resolves (or its nested Selected
		// block finishes, for the rare top-level do-block case) it is
		// simply done.
		if st := checkStaticIf(ctx, ast.NewSlot(node), node); st.IsTerminal() {
			return st
		}
		return Complete
	case *ast.Constraint:
		return checkConstraint(ctx, node)
	case *ast.PolyQuery:
		return checkPolyQuery(ctx, node)
	case *ast.DirectiveInit:
		return onceChecked(ctx, node, func() Status {
			if st := checkDirectiveInit(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.DirectiveExport:
		return onceChecked(ctx, node, func() Status {
			if st := checkDirectiveExport(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.DirectiveLibrary:
		return onceChecked(ctx, node, func() Status {
			if st := checkDirectiveLibrary(ctx, node); st.IsTerminal() {
				return st
			}
			return Complete
		})
	case *ast.ExprStmt, *ast.Local:
		slot := ast.NewSlot(node)
		if st := checkStmt(ctx, slot); st.IsTerminal() {
			return st
		}
		return Complete
	default:
		return ctx.ReportError(diag.CHK010, n.Pos(), "unexpected node kind %s at entity scope", n.Kind())
	}
}
