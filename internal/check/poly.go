package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkPolyQuery drives spec.md §4.9's iterative polyquery solving
// loop: attempt find_polymorphic_sln for every poly-variable the
// target procedure declares that isn't already in PolyQuery.Solved,
// looping until either every variable is solved (Complete) or a round
// makes no progress (Yield, letting the scheduler's cycle detection
// eventually escalate it).
func checkPolyQuery(ctx *Context, pq *ast.PolyQuery) Status {
	if pq.Proc == nil {
		return ctx.ReportError(diag.CHK080, pq.Pos(), "polyquery has no target procedure")
	}
	if pq.Solved == nil {
		pq.Solved = make(map[string]ast.Node)
	}
	allSolved := true
	progressed := false
	for _, name := range pq.Proc.PolyParams {
		if _, done := pq.Solved[name]; done {
			continue
		}
		allSolved = false
		argTypes := collectParamTypes(pq.Proc)
		t, outcome := resolve.FindPolymorphicSln(pq.Proc, name, argTypes)
		switch outcome {
		case resolve.SlnSuccess:
			pq.Solved[name] = &typeValueNode{t: t}
			progressed = true
		case resolve.SlnFailed:
			return ctx.ReportError(diag.CHK080, pq.Pos(), "could not solve polymorphic variable %q", name)
		case resolve.SlnSpecial:
			return ctx.Yield(diag.CHK080, pq.Pos(), "polymorphic variable %q requires external input", name)
		case resolve.SlnYield:
			// no progress on this variable this round
		}
	}
	if allSolved {
		return Complete
	}
	if !progressed {
		return ctx.Yield(diag.CHK080, pq.Pos(), "no progress solving remaining polymorphic variables")
	}
	return Success
}

func collectParamTypes(fn *ast.Function) []types.Type {
	out := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		if p.ResolvedType != nil {
			out[i], _ = p.ResolvedType.(types.Type)
		}
	}
	return out
}

// typeValueNode wraps a solved types.Type as the ast.Node PolyQuery's
// Solved map is declared to hold, since the poly-variable binding
// itself carries no further source position or expression structure.
type typeValueNode struct {
	ast.Base
	t types.Type
}

func (n *typeValueNode) Type() ast.SemType { return n.t }

// checkConstraint is the two-phase constraint machine of spec.md §4.9:
// "cloning" instantiates the constraint's expressions against its type
// arguments (nothing to resolve yet, since the body is checked under a
// trial scope), and "checking" actually type-checks them inside a
// diag.Probe so a failed constraint reports Failed rather than a hard
// error — the surrounding polymorphic overload resolution decides
// whether that failure disqualifies the candidate or is itself an error.
func checkConstraint(ctx *Context, c *ast.Constraint) Status {
	switch c.Phase {
	case "", "cloning":
		for _, arg := range c.TypeArgs {
			if _, err := ctx.Engine.BuildFromAST(arg); err != nil {
				return ctx.Yield(diag.CHK081, c.Pos(), "constraint type argument not yet ready: %v", err)
			}
		}
		c.Phase = "checking"
		return Success
	case "checking":
		return checkConstraintExprs(ctx, c)
	default:
		return ctx.ReportError(diag.CHK081, c.Pos(), "unknown constraint phase %q", c.Phase)
	}
}

// checkConstraintContext is spec.md §4.9's per-entity constraint
// supervisor, driving every interface constraint a function or struct
// header declares to completion. The source registers each constraint
// as a fresh scheduler entity and polls their statuses; this checker's
// Scheduler interface has no entity-status query, so instead this
// drives each Constraint's own two-phase machine directly and inline —
// behaviorally equivalent, since re-entry into checkFunctionHeader/
// checkStructType on the next round re-invokes this the same way a
// polled entity would be re-inspected. wasChecking must be captured
// before calling checkConstraint: a round that only performs the
// "cloning" phase already reports Phase=="checking" and Success by the
// time it returns, so without that snapshot a single cloning-only round
// would be mistaken for a fully satisfied constraint.
func checkConstraintContext(ctx *Context, constraints []*ast.Slot) Status {
	if len(constraints) == 0 {
		return Success
	}
	done := true
	for _, slot := range constraints {
		c, ok := slot.Get().(*ast.Constraint)
		if !ok {
			continue
		}
		wasChecking := c.Phase == "checking"
		st := checkConstraint(ctx, c)
		if st.IsTerminal() && st != YieldMacro {
			if st == Failed {
				return ctx.ReportError(diag.CHK081, c.Pos(), "constraint %q is not satisfied", c.InterfaceName)
			}
			return st
		}
		if !(wasChecking && st == Success) {
			done = false
		}
	}
	if !done {
		return ctx.Yield(diag.CHK081, constraints[0].Pos(), "waiting on constraint resolution")
	}
	return Success
}

func checkConstraintExprs(ctx *Context, c *ast.Constraint) Status {
	for i, e := range c.Exprs {
		sub, probe := ctx.Probing()
		st := Check(func() Status { return checkExpr(sub, e) })
		satisfied := !st.IsTerminal() && !probe.Failed()
		invert := i < len(c.Invert) && c.Invert[i]
		if invert {
			satisfied = !satisfied
		}
		if satisfied {
			probe.Commit()
		} else {
			probe.Discard()
			return Failed
		}
	}
	if c.ExpectedTypeExpr != nil {
		t, err := ctx.Engine.BuildFromAST(c.ExpectedTypeExpr)
		if err != nil {
			return ctx.Yield(diag.CHK081, c.Pos(), "constraint expected type not yet ready: %v", err)
		}
		for _, e := range c.Exprs {
			et, eok := e.Type().(types.Type)
			if eok && et != nil && !ctx.Engine.TypesCompatible(t, et) {
				return Failed
			}
		}
	}
	return Success
}
