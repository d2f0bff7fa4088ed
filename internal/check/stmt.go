package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkBlock is C4's block walker. It resumes from block.StatementIdx
// rather than statement zero (spec.md §3 invariant 5: "a yielded block
// resumes at the statement it yielded on, not from the top"), and only
// advances that index once a statement fully completes.
func checkBlock(ctx *Context, block *ast.Block) Status {
	sub := ctx.WithScope()
	for i := block.StatementIdx; i < len(block.Stmts); i++ {
		if st := Check(func() Status { return checkStmt(sub, block.Stmts[i]) }); st.IsTerminal() {
			return st
		}
		block.StatementIdx = i + 1
	}
	return Success
}

// checkStmt dispatches one statement slot. Unlike checkExpr it does
// not itself mark Has_Been_Checked on Success — a statement's
// "checked" status is carried entirely by its block's StatementIdx.
func checkStmt(ctx *Context, slot *ast.Slot) Status {
	n := slot.Get()
	if n == nil {
		return Success
	}
	switch node := n.(type) {
	case *ast.Return:
		return checkReturn(ctx, node)
	case *ast.If:
		return checkIf(ctx, node)
	case *ast.StaticIf:
		return checkStaticIf(ctx, slot, node)
	case *ast.While:
		return checkWhile(ctx, node)
	case *ast.For:
		return checkFor(ctx, node)
	case *ast.Switch:
		return checkSwitch(ctx, node)
	case *ast.Local:
		return checkLocal(ctx, node)
	case *ast.ExprStmt:
		return checkExprStmt(ctx, node)
	case *ast.Defer:
		return checkStmt(ctx, node.Stmt)
	case *ast.DirectiveRemove:
		return checkDirectiveRemove(ctx, node)
	case *ast.Block:
		return checkBlock(ctx, node)
	default:
		return ctx.ReportError(diag.CHK010, n.Pos(), "unexpected node kind %s in statement position", n.Kind())
	}
}

// checkReturn is spec.md §4.2's auto-return machinery: the first
// `return expr` in a function whose return type is still AutoReturn
// defines that type by rewriting *ctx.ExpectedReturnType through the
// ReturnSlot indirection; every later return unifies against it instead.
func checkReturn(ctx *Context, ret *ast.Return) Status {
	if ctx.ExpectedReturnType == nil {
		return ctx.ReportError(diag.CHK030, ret.Pos(), "return outside of a function body")
	}
	if ret.Expr == nil {
		if !types.IsAutoReturn(ctx.ExpectedReturnType.T) && ctx.ExpectedReturnType.T != types.Void {
			return ctx.ReportError(diag.CHK030, ret.Pos(), "missing return value, expected %s", ctx.ExpectedReturnType.T)
		}
		if types.IsAutoReturn(ctx.ExpectedReturnType.T) {
			ctx.ExpectedReturnType.T = types.Void
		}
		return Success
	}
	if st := Check(func() Status { return checkExpr(ctx, ret.Expr) }); st.IsTerminal() {
		return st
	}
	if types.IsAutoReturn(ctx.ExpectedReturnType.T) {
		t, ok := ret.Expr.Type().(types.Type)
		if !ok || t == nil {
			return ctx.Yield(diag.CHK011, ret.Pos(), "cannot yet determine automatic return type")
		}
		ctx.ExpectedReturnType.T = t
		return Success
	}
	if !ctx.Engine.TypesCompatible(ctx.ExpectedReturnType.T, mustType(ret.Expr.Type())) {
		if status := unifyOrError(ctx, ret.Expr, ctx.ExpectedReturnType.T, ret.Pos(),
			"return type mismatch: expected %s, got %s", ctx.ExpectedReturnType.T, ret.Expr.Type()); status.IsTerminal() {
			return status
		}
	}
	return Success
}

func mustType(t ast.SemType) types.Type {
	if tt, ok := t.(types.Type); ok {
		return tt
	}
	return nil
}

func checkIf(ctx *Context, n *ast.If) Status {
	sub := ctx.WithScope()
	if n.Init != nil {
		if st := Check(func() Status { return checkStmt(sub, n.Init) }); st.IsTerminal() {
			return st
		}
	}
	if st := Check(func() Status { return checkExpr(sub, n.Cond) }); st.IsTerminal() {
		return st
	}
	if status := unifyOrError(sub, n.Cond, types.Bool, n.Pos(), "if condition must be bool"); status.IsTerminal() {
		return status
	}
	if st := Check(func() Status { return checkBlock(sub, n.Then) }); st.IsTerminal() {
		return st
	}
	if n.Else != nil {
		if st := Check(func() Status { return checkBlock(sub, n.Else) }); st.IsTerminal() {
			return st
		}
	}
	return Success
}

func checkWhile(ctx *Context, n *ast.While) Status {
	sub := ctx.WithScope()
	if n.Init != nil {
		if st := Check(func() Status { return checkStmt(sub, n.Init) }); st.IsTerminal() {
			return st
		}
	}
	if n.BottomTest && n.Else != nil {
		return ctx.ReportError(diag.CHK033, n.Pos(), "a bottom-tested while loop cannot have an else clause")
	}
	if st := Check(func() Status { return checkExpr(sub, n.Cond) }); st.IsTerminal() {
		return st
	}
	if status := unifyOrError(sub, n.Cond, types.Bool, n.Pos(), "while condition must be bool"); status.IsTerminal() {
		return status
	}
	if st := Check(func() Status { return checkBlock(sub, n.Body) }); st.IsTerminal() {
		return st
	}
	if n.Else != nil {
		if st := Check(func() Status { return checkBlock(sub, n.Else) }); st.IsTerminal() {
			return st
		}
	}
	return Success
}

// checkFor is the for-loop state machine of spec.md §4.4: classify the
// iterable's type once, then check the body under InsideForIterator
// set only when that classification is LoopIterator (it gates whether
// #remove is legal).
func checkFor(ctx *Context, n *ast.For) Status {
	sub := ctx.WithScope()
	if st := Check(func() Status { return checkExpr(sub, n.Iterable) }); st.IsTerminal() {
		return st
	}
	it, ok := n.Iterable.Type().(types.Type)
	if !ok || it == nil {
		return ctx.Yield(diag.CHK001, n.Pos(), "for-loop iterable type not yet known")
	}
	var elem types.Type
	switch tt := it.(type) {
	case *types.Basic:
		if !tt.Flags.Has(types.FlagInteger) {
			return ctx.ReportError(diag.CHK034, n.Pos(), "%s is not a valid for-loop iterable", it)
		}
		// An integer iterable sugars to `for i in 0 .. n` (spec.md §4.4):
		// the loop runs over that range, rather than over the integer itself.
		n.Kind, elem = ast.LoopRange, tt
		if n.ByPointer {
			return ctx.ReportError(diag.CHK035, n.Pos(), "cannot iterate a range by pointer")
		}
	case *types.Array:
		n.Kind, elem = ast.LoopArray, tt.Elem
	case *types.Slice:
		n.Kind, elem = ast.LoopSlice, tt.Elem
	case *types.DynArray:
		n.Kind, elem = ast.LoopDynArr, tt.Elem
	case *types.VarArgs:
		n.Kind, elem = ast.LoopVarArgs, tt.Elem
		if n.ByPointer {
			return ctx.ReportError(diag.CHK035, n.Pos(), "cannot iterate a vararg by pointer")
		}
	case *types.Struct:
		n.Kind = ast.LoopIterator
		sub.InsideForIterator = true
		if n.ByPointer {
			return ctx.ReportError(diag.CHK035, n.Pos(), "cannot iterate an Iterator by pointer")
		}
	default:
		return ctx.ReportError(diag.CHK034, n.Pos(), "%s is not a valid for-loop iterable", it)
	}
	if n.Kind != ast.LoopIterator {
		lv := &loopVar{typ: elem}
		if n.ByPointer {
			lv.typ = &types.Pointer{Elem: elem}
			lv.Flags().Set(ast.CannotTakeAddr)
		}
		sub.Scope.Introduce(n.VarName, lv)
	}
	if st := Check(func() Status { return checkBlock(sub, n.Body) }); st.IsTerminal() {
		return st
	}
	return Success
}

// loopVar is a synthetic symbol-table entry for a for-loop's induction
// variable; it is never itself checked, only looked up by name.
type loopVar struct {
	ast.Base
	typ types.Type
}

func (l *loopVar) Type() ast.SemType { return l.typ }

// checkSwitch is the switch state machine of spec.md §4.4: cases are
// hoisted out of RawBody into Cases once (RawBody becomes empty after
// the first successful pass), then each case's values are checked
// against the scrutinee's classification (integer ranges vs. ==
// comparisons), tracking YieldReturnIndex so a yield mid-switch resumes
// at the right case instead of re-checking completed ones.
func checkSwitch(ctx *Context, n *ast.Switch) Status {
	sub := ctx.WithScope()
	if st := Check(func() Status { return checkExpr(sub, n.Scrutinee) }); st.IsTerminal() {
		return st
	}
	scrutType, ok := n.Scrutinee.Type().(types.Type)
	if !ok || scrutType == nil {
		return ctx.Yield(diag.CHK001, n.Pos(), "switch scrutinee type not yet known")
	}
	if ctx.Engine.IsInteger(scrutType) {
		n.Kind = ast.SwitchInteger
	} else {
		n.Kind = ast.SwitchUseEquals
	}
	if n.RawBody != nil {
		hoistSwitchCases(n)
	}
	if n.Kind == ast.SwitchInteger && !n.CollisionsChecked {
		if status := checkIntegerCaseCollisions(ctx, n); status.IsTerminal() {
			return status
		}
		n.CollisionsChecked = true
	}
	seenDefault := false
	for i := n.YieldReturnIndex; i < len(n.Cases); i++ {
		c := n.Cases[i]
		if c.IsDefault {
			if seenDefault {
				return ctx.ReportError(diag.CHK037, c.Pos(), "switch has more than one default case")
			}
			seenDefault = true
		}
		for _, v := range c.Values {
			if rl, isRange := v.Get().(*ast.RangeLiteral); isRange {
				if st := Check(func() Status { return checkExpr(sub, rl.Low) }); st.IsTerminal() {
					return st
				}
				if st := Check(func() Status { return checkExpr(sub, rl.High) }); st.IsTerminal() {
					return st
				}
				if status := unifyOrError(sub, rl.Low, scrutType, c.Pos(), "case value does not match switch type %s", scrutType); status.IsTerminal() {
					return status
				}
				if status := unifyOrError(sub, rl.High, scrutType, c.Pos(), "case value does not match switch type %s", scrutType); status.IsTerminal() {
					return status
				}
				continue
			}
			if st := Check(func() Status { return checkExpr(sub, v) }); st.IsTerminal() {
				return st
			}
			if status := unifyOrError(sub, v, scrutType, c.Pos(), "case value does not match switch type %s", scrutType); status.IsTerminal() {
				return status
			}
		}
		if n.Kind == ast.SwitchUseEquals {
			if status := checkSwitchCaseEquals(sub, n, c); status.IsTerminal() {
				return status
			}
		}
		if st := Check(func() Status { return checkBlock(sub, c.Block) }); st.IsTerminal() {
			return st
		}
		n.YieldReturnIndex = i + 1
	}
	return Success
}

// checkSwitchCaseEquals synthesizes and checks `scrutinee == value` for
// every value of a Switch_Use_Equals case (spec.md §4.4). The synthetic
// binop is cached on c.Comparisons so re-entry after a yield rechecks
// the same node instead of allocating a fresh one each round.
func checkSwitchCaseEquals(ctx *Context, n *ast.Switch, c *ast.SwitchCase) Status {
	if c.Comparisons == nil {
		c.Comparisons = make([]*ast.BinOp, len(c.Values))
	}
	for i, v := range c.Values {
		if c.Comparisons[i] == nil {
			c.Comparisons[i] = ast.NewBinOp(v.Pos(), "==", n.Scrutinee.Get(), v.Get())
		}
		cmp := c.Comparisons[i]
		cmpSlot := ast.NewSlot(cmp)
		if st := Check(func() Status { return checkBinOp(ctx, cmpSlot, cmp) }); st.IsTerminal() {
			return st
		}
	}
	return Success
}

// checkIntegerCaseCollisions is spec.md §4.4's Switch_Integer
// duplicate-value check: every case value, literal or range, expands
// to the concrete integers it covers, and any integer claimed by more
// than one case produces exactly one diagnostic naming that value. It
// runs once per switch directly over the case syntax — the values
// involved are integer literals and need no type-checking to read, so
// this never yields.
func checkIntegerCaseCollisions(ctx *Context, n *ast.Switch) Status {
	seen := make(map[int64]bool)
	reported := make(map[int64]bool)
	collided := false
	for _, c := range n.Cases {
		if c.IsDefault {
			continue
		}
		for _, v := range c.Values {
			for _, iv := range caseIntValues(v.Get()) {
				if seen[iv] {
					if !reported[iv] {
						ctx.Sink.Error(diag.CHK036, c.Pos(), "Multiple cases for values '%d'.", iv)
						reported[iv] = true
					}
					collided = true
					continue
				}
				seen[iv] = true
			}
		}
	}
	if collided {
		return Error
	}
	return Success
}

// caseIntValues expands a case value node into the integers it covers:
// a plain integer literal (optionally negated) covers itself; a range
// literal between two integer bounds covers every integer in [low,
// high]. Anything else (an identifier naming a constant, say) isn't
// resolvable from syntax alone and is simply skipped by the collision
// pass — it still gets its normal type-checked comparison above.
func caseIntValues(n ast.Node) []int64 {
	switch t := n.(type) {
	case *ast.NumLit:
		if !t.IsFloat {
			return []int64{t.IntVal}
		}
	case *ast.UnaryOp:
		if t.Op == "negate" {
			if v, ok := caseIntValue(t.Operand.Get()); ok {
				return []int64{-v}
			}
		}
	case *ast.RangeLiteral:
		lo, lok := caseIntValue(t.Low.Get())
		hi, hok := caseIntValue(t.High.Get())
		if lok && hok && lo <= hi {
			out := make([]int64, 0, hi-lo+1)
			for i := lo; i <= hi; i++ {
				out = append(out, i)
			}
			return out
		}
	}
	return nil
}

func caseIntValue(n ast.Node) (int64, bool) {
	vs := caseIntValues(n)
	if len(vs) == 1 {
		return vs[0], true
	}
	return 0, false
}

func hoistSwitchCases(n *ast.Switch) {
	for _, s := range n.RawBody.Stmts {
		if c, ok := s.Get().(*ast.SwitchCase); ok {
			sc := &ast.SwitchCase{Base: c.Base, Values: c.Values, Block: c.Block, IsDefault: c.IsDefault}
			if sc.IsDefault {
				n.Default = sc
			}
			n.Cases = append(n.Cases, sc)
		}
	}
	n.RawBody = nil
}

func checkLocal(ctx *Context, n *ast.Local) Status {
	var declared types.Type
	if n.TypeNode() != nil {
		t, err := ctx.Engine.BuildFromAST(n.TypeNode())
		if err != nil {
			return ctx.Yield(diag.CHK010, n.Pos(), "local type not yet resolvable: %v", err)
		}
		declared = t
	}
	if n.Init != nil {
		if st := Check(func() Status { return checkExpr(ctx, n.Init) }); st.IsTerminal() {
			return st
		}
		if declared != nil {
			if status := unifyOrError(ctx, n.Init, declared, n.Pos(), "cannot initialize %s with %s", declared, n.Init.Type()); status.IsTerminal() {
				return status
			}
		} else {
			t, ok := n.Init.Type().(types.Type)
			if !ok || t == nil {
				return ctx.Yield(diag.CHK001, n.Pos(), "local initializer type not yet known")
			}
			declared = t
		}
		n.Flags().Set(ast.DeclFollowedByInit)
	}
	if declared == nil {
		return ctx.ReportError(diag.CHK010, n.Pos(), "cannot infer type for local %q", n.Name)
	}
	n.SetType(declared)
	ctx.Scope.Introduce(n.Name, n)
	return Success
}

// checkExprStmt checks a bare expression statement; a call whose
// result goes unused is flagged via Expr_Ignored rather than an error
// (spec.md glossary), since ignoring a call's return value is legal.
func checkExprStmt(ctx *Context, n *ast.ExprStmt) Status {
	if st := Check(func() Status { return checkExpr(ctx, n.Expr) }); st.IsTerminal() {
		return st
	}
	n.Expr.Get().Flags().Set(ast.ExprIgnored)
	return Success
}

// checkDirectiveRemove enforces spec.md §4.4/§4.8: `#remove` is only
// legal inside the body of a for-loop whose iterable is an Iterator
// instance (spec.md §4.8, "#remove outside a for-iterator body").
func checkDirectiveRemove(ctx *Context, n *ast.DirectiveRemove) Status {
	if !ctx.InsideForIterator {
		return ctx.ReportError(diag.CHK038, n.Pos(), "#remove is only legal inside a for-loop over an Iterator")
	}
	n.Flags().Set(ast.CanBeRemoved)
	return Success
}
