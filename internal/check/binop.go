package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/types"
)

// comparisonOps and booleanOps classify which BasicFlag an operand's
// type must carry for an operator to apply natively (spec.md §4.6's
// allow-matrix); arithmeticOps also requires FlagNumeric, and
// orderedOps additionally requires FlagOrdered.
var comparisonOps = map[string]bool{"==": true, "!=": true}
var orderedOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}
var arithmeticOps = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
var bitwiseOps = map[string]bool{"&": true, "|": true, "^": true, "<<": true, ">>": true}
var booleanOps = map[string]bool{"&&": true, "||": true}
var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// operatorOverloadNames maps a binary operator to the user-overload
// function name binaryop_try_operator_overload looks up once a native
// rule doesn't apply (spec.md §4.6 step 5). Naming follows the
// codebase's existing Subscript_Equals convention.
var operatorOverloadNames = map[string]string{
	"+": "Op_Add", "-": "Op_Sub", "*": "Op_Mul", "/": "Op_Div", "%": "Op_Mod",
	"&": "Op_BitAnd", "|": "Op_BitOr", "^": "Op_BitXor", "<<": "Op_Shl", ">>": "Op_Shr",
	"==": "Op_Eq", "!=": "Op_Ne", "<": "Op_Lt", "<=": "Op_Le", ">": "Op_Gt", ">=": "Op_Ge",
	"&&": "Op_And", "||": "Op_Or",
}

// subscriptEqualsOverload is the well-known name spec.md §8 scenario 3
// names directly: `a[i] = v` rewrites to Subscript_Equals(^a, i, v) when
// that function is in scope.
const subscriptEqualsOverload = "Subscript_Equals"

// checkBinOp is C6: assignment (including compound and destructuring),
// the subscript-assign overload, pointer arithmetic, the scalar
// operator allow-matrix, and operator-overload dispatch for non-basic
// or SIMD operands (spec.md §4.6). The Op_* overload lookup runs before
// the native rules, but only for an operand pair that is non-basic or
// SIMD and only when a matching Op_* function is actually declared in
// scope, so pointer arithmetic and enum-flags `&` keep their native
// meaning in the ordinary case where no such overload shadows them.
func checkBinOp(ctx *Context, slot *ast.Slot, b *ast.BinOp) Status {
	if b.Op == "=" {
		if sub, ok := b.Left.Get().(*ast.Subscript); ok {
			if st, applies := trySubscriptAssignOverload(ctx, slot, b, sub); applies {
				return st
			} else if st.IsTerminal() {
				return st
			}
		}
	}

	if assignOps[b.Op] {
		return checkAssignment(ctx, b)
	}

	if st := Check(func() Status { return checkExpr(ctx, b.Left) }); st.IsTerminal() {
		return st
	}
	if st := Check(func() Status { return checkExpr(ctx, b.Right) }); st.IsTerminal() {
		return st
	}

	lt, lok := b.Left.Type().(types.Type)
	rt, rok := b.Right.Type().(types.Type)
	if !lok || !rok || lt == nil || rt == nil {
		return ctx.Yield(diag.CHK001, b.Pos(), "operand type not yet known")
	}

	// spec.md §4.6 step 3, unary-field-access coercion, has no AST node
	// or parser production anywhere in this front end to coerce from, so
	// there is nothing for this step to act on; see DESIGN.md.

	if name, ok := operatorOverloadNames[b.Op]; ok && isNonBasicOrSIMD(lt, rt) {
		if _, found := ctx.Scope.Lookup(name); found {
			return binaryOpTryOperatorOverload(ctx, slot, b, name, nil)
		}
	}

	if comparisonOps[b.Op] {
		return checkComparison(ctx, b, lt, rt)
	}
	if orderedOps[b.Op] {
		return checkOrdered(ctx, b, lt, rt)
	}
	if booleanOps[b.Op] {
		return checkBooleanOp(ctx, b, lt, rt)
	}
	if arithmeticOps[b.Op] || bitwiseOps[b.Op] {
		return checkArithmetic(ctx, b, lt, rt)
	}
	return ctx.ReportError(diag.CHK050, b.Pos(), "unknown operator %q", b.Op)
}

// isNonBasicOrSIMD is spec.md §4.6 step 5's gate on when a binop is
// even eligible for operator-overload dispatch: either operand isn't a
// plain scalar Basic type, or it is a Basic carrying FlagSIMD.
func isNonBasicOrSIMD(lt, rt types.Type) bool {
	for _, t := range [...]types.Type{lt, rt} {
		b, ok := t.(*types.Basic)
		if !ok {
			return true
		}
		if b.Flags.Has(types.FlagSIMD) {
			return true
		}
	}
	return false
}

// binaryOpTryOperatorOverload rewrites slot into a call to the named
// overload function, passing (^left, right, third?) — a non-nil third
// adds a third argument; checkBinOp, its only caller, passes nil, and
// the subscript-assign path builds its own 3-argument
// Subscript_Equals(self, index, value) call. The argument tuple
// is cached on the BinOp node so re-entry after a yield reuses the same
// synthesized nodes instead of rebuilding them.
func binaryOpTryOperatorOverload(ctx *Context, slot *ast.Slot, b *ast.BinOp, name string, third ast.Node) Status {
	if b.OverloadArgs == nil {
		self := selfArgument(b.Left)
		args := []ast.Node{self, b.Right.Get()}
		if third != nil {
			args = append(args, third)
		}
		b.OverloadArgs = args
	}
	slot.Set(ast.NewCall(b.Pos(), ast.NewIdent(b.Pos(), name), overloadCallArgs(b.OverloadArgs)...))
	return Success
}

func overloadCallArgs(nodes []ast.Node) []*ast.Arg {
	args := make([]*ast.Arg, len(nodes))
	for i, n := range nodes {
		args[i] = &ast.Arg{Value: ast.NewSlot(n)}
	}
	return args
}

// trySubscriptAssignOverload is spec.md §8 scenario 3: `a[i] = v`
// rewrites to Subscript_Equals(^a, i, v) when that name is in scope.
// The bool return reports whether the overload applied at all; when it
// didn't (no such function declared), the caller falls through to
// ordinary native subscript assignment.
func trySubscriptAssignOverload(ctx *Context, slot *ast.Slot, b *ast.BinOp, sub *ast.Subscript) (Status, bool) {
	if _, found := ctx.Scope.Lookup(subscriptEqualsOverload); !found {
		return Success, false
	}
	if st := Check(func() Status { return checkExpr(ctx, sub.Target) }); st.IsTerminal() {
		return st, true
	}
	if st := Check(func() Status { return checkExpr(ctx, sub.Index) }); st.IsTerminal() {
		return st, true
	}
	if st := Check(func() Status { return checkExpr(ctx, b.Right) }); st.IsTerminal() {
		return st, true
	}
	if b.OverloadArgs == nil {
		self := selfArgument(sub.Target)
		b.OverloadArgs = []ast.Node{self, sub.Index.Get(), b.Right.Get()}
	}
	slot.Set(ast.NewCall(b.Pos(), ast.NewIdent(b.Pos(), subscriptEqualsOverload), overloadCallArgs(b.OverloadArgs)...))
	return Success, true
}

func checkComparison(ctx *Context, b *ast.BinOp, lt, rt types.Type) Status {
	lt, rt = erasePointersToRawptr(lt, rt)
	if !ctx.Engine.TypesCompatible(lt, rt) && !ctx.Engine.TypesCompatible(rt, lt) {
		return ctx.ReportError(diag.CHK050, b.Pos(), "cannot compare %s and %s", lt, rt)
	}
	b.SetType(types.Bool)
	setBinOpComptime(b)
	return Success
}

// setBinOpComptime is spec.md §4.6 step 4: a binop's result is
// Comptime iff both operands are.
func setBinOpComptime(b *ast.BinOp) {
	if b.Left.Get().Flags().Has(ast.Comptime) && b.Right.Get().Flags().Has(ast.Comptime) {
		b.Flags().Set(ast.Comptime)
	}
}

// erasePointersToRawptr implements spec.md §4.6's "erases pointers to
// rawptr" comparison rule: `^T == rawptr` is legal regardless of T.
func erasePointersToRawptr(lt, rt types.Type) (types.Type, types.Type) {
	lp, lIsPtr := lt.(*types.Pointer)
	rp, rIsPtr := rt.(*types.Pointer)
	if lIsPtr && rIsPtr && (lp.IsRawPtr || rp.IsRawPtr) {
		return types.Rawptr, types.Rawptr
	}
	return lt, rt
}

func checkOrdered(ctx *Context, b *ast.BinOp, lt, rt types.Type) Status {
	lb, lok := lt.(*types.Basic)
	rb, rok := rt.(*types.Basic)
	if !lok || !rok || !lb.Flags.Has(types.FlagOrdered) || !rb.Flags.Has(types.FlagOrdered) {
		return ctx.ReportError(diag.CHK050, b.Pos(), "operator %q is not allowed between %s and %s", b.Op, lt, rt)
	}
	if !ctx.Engine.TypesCompatible(lt, rt) && !ctx.Engine.TypesCompatible(rt, lt) {
		return ctx.ReportError(diag.CHK050, b.Pos(), "cannot compare %s and %s", lt, rt)
	}
	b.SetType(types.Bool)
	setBinOpComptime(b)
	return Success
}

func checkBooleanOp(ctx *Context, b *ast.BinOp, lt, rt types.Type) Status {
	if !ctx.Engine.IsBool(lt) || !ctx.Engine.IsBool(rt) {
		return ctx.ReportError(diag.CHK050, b.Pos(), "operator %q requires bool operands", b.Op)
	}
	b.SetType(types.Bool)
	setBinOpComptime(b)
	return Success
}

// checkArithmetic handles both numeric arithmetic and the spec.md
// §4.6 special cases: pointer arithmetic (`^T + int -> ^T`, `^T - ^T
// -> int` via the "pointer subtraction hack" over a Struct's ordered
// member sequence is not applicable here — that hack lives in
// types.Struct.MemberByIdx for struct layout, not pointer arithmetic
// itself) and enum flag intersection (`EnumA & EnumA -> bool` when the
// enum is a bit-flag set).
func checkArithmetic(ctx *Context, b *ast.BinOp, lt, rt types.Type) Status {
	if lp, ok := lt.(*types.Pointer); ok && (b.Op == "+" || b.Op == "-") {
		if ctx.Engine.IsInteger(rt) {
			b.SetType(lp)
			setBinOpComptime(b)
			return Success
		}
		if rp, ok := rt.(*types.Pointer); ok && b.Op == "-" {
			if !ctx.Engine.TypesCompatible(lp, rp) {
				return ctx.ReportError(diag.CHK050, b.Pos(), "cannot subtract pointers to different types")
			}
			b.SetType(types.I64)
			setBinOpComptime(b)
			return Success
		}
	}
	if en, ok := lt.(*types.Enum); ok && en.IsFlags && b.Op == "&" {
		if ctx.Engine.TypesCompatible(lt, rt) {
			b.SetType(types.Bool)
			setBinOpComptime(b)
			return Success
		}
	}
	lb, lok := lt.(*types.Basic)
	rb, rok := rt.(*types.Basic)
	if !lok || !rok || !lb.Flags.Has(types.FlagNumeric) || !rb.Flags.Has(types.FlagNumeric) {
		if arithmeticOps[b.Op] {
			return ctx.ReportError(diag.CHK050, b.Pos(), "operator %q not allowed between %s and %s", b.Op, lt, rt)
		}
	}
	if bitwiseOps[b.Op] && (!lok || !lb.Flags.Has(types.FlagInteger) || !rok || !rb.Flags.Has(types.FlagInteger)) {
		return ctx.ReportError(diag.CHK050, b.Pos(), "bitwise operator %q requires integer operands", b.Op)
	}
	if !ctx.Engine.TypesCompatible(lt, rt) {
		if status := unify(ctx, b.Right, lt, b.Pos()); status == Success {
			b.SetType(lt)
			setBinOpComptime(b)
			return Success
		}
		return ctx.ReportError(diag.CHK050, b.Pos(), "mismatched operand types %s and %s", lt, rt)
	}
	b.SetType(lt)
	setBinOpComptime(b)
	return Success
}

// checkAssignment covers plain and compound assignment, plus
// destructuring (`a, b = f()`) against a Compound right-hand side
// (spec.md §4.6).
func checkAssignment(ctx *Context, b *ast.BinOp) Status {
	if ctx.CurrentCheckingLevel == LevelExpression {
		return ctx.ReportError(diag.CHK051, b.Pos(), "assignment is not allowed in expression position")
	}
	if compound, ok := b.Left.Get().(*ast.Compound); ok {
		return checkDestructuringAssignment(ctx, b, compound)
	}
	if st := Check(func() Status { return checkExpr(ctx, b.Left) }); st.IsTerminal() {
		return st
	}
	left := b.Left.Get()
	if left.Flags().Has(ast.CannotTakeAddr) {
		return ctx.ReportError(diag.CHK051, b.Pos(), "cannot assign to this expression")
	}
	lt, ok := left.Type().(types.Type)
	if !ok || lt == nil {
		return ctx.Yield(diag.CHK001, b.Pos(), "assignment target type not yet known")
	}
	if b.Op != "=" {
		op := b.Op[:len(b.Op)-1] // "+=" -> "+"
		synSlot := ast.NewSlot(left)
		synthetic := ast.NewBinOp(b.Pos(), op, left, b.Right.Get())
		if st := Check(func() Status { return checkBinOp(ctx, synSlot, synthetic) }); st.IsTerminal() {
			return st
		}
		if synthetic.Type() == nil {
			return ctx.Yield(diag.CHK001, b.Pos(), "compound assignment operand type not yet known")
		}
		if !ctx.Engine.TypesCompatible(lt, mustType(synthetic.Type())) {
			return ctx.ReportError(diag.CHK010, b.Pos(), "cannot assign %s to %s", synthetic.Type(), lt)
		}
		b.SetType(lt)
		return Success
	}
	if status := unifyOrError(ctx, b.Right, lt, b.Pos(), "cannot assign %s to %s", b.Right.Type(), lt); status.IsTerminal() {
		return status
	}
	b.SetType(lt)
	return Success
}

func checkDestructuringAssignment(ctx *Context, b *ast.BinOp, targets *ast.Compound) Status {
	if st := Check(func() Status { return checkExpr(ctx, b.Right) }); st.IsTerminal() {
		return st
	}
	rhs, ok := b.Right.Type().(*types.Compound)
	if !ok || rhs == nil {
		return ctx.ReportError(diag.CHK053, b.Pos(), "right-hand side of destructuring assignment is not a compound value")
	}
	if len(rhs.Types) != len(targets.Exprs) {
		return ctx.ReportError(diag.CHK053, b.Pos(), "destructuring assignment arity mismatch: %d targets, %d values", len(targets.Exprs), len(rhs.Types))
	}
	for i, target := range targets.Exprs {
		if st := Check(func() Status { return checkExpr(ctx, target) }); st.IsTerminal() {
			return st
		}
		if target.Get().Flags().Has(ast.CannotTakeAddr) {
			return ctx.ReportError(diag.CHK051, b.Pos(), "cannot assign to this expression")
		}
		tt, _ := target.Type().(types.Type)
		if tt != nil && rhs.Types[i] != nil && !ctx.Engine.TypesCompatible(tt, rhs.Types[i]) {
			return ctx.ReportError(diag.CHK010, b.Pos(), "cannot assign %s to %s", rhs.Types[i], tt)
		}
	}
	b.SetType(types.Void)
	return Success
}

// checkUnaryOp handles cast, logical-not, bitwise-not, and negate.
func checkUnaryOp(ctx *Context, slot *ast.Slot, u *ast.UnaryOp) Status {
	if u.Op == "cast" {
		return checkCast(ctx, u)
	}
	if st := Check(func() Status { return checkExpr(ctx, u.Operand) }); st.IsTerminal() {
		return st
	}
	t, ok := u.Operand.Type().(types.Type)
	if !ok || t == nil {
		return ctx.Yield(diag.CHK001, u.Pos(), "operand type not yet known")
	}
	switch u.Op {
	case "not":
		if !ctx.Engine.IsBool(t) {
			return ctx.ReportError(diag.CHK050, u.Pos(), "! requires a bool operand, got %s", t)
		}
		u.SetType(types.Bool)
	case "bitwise_not":
		if !ctx.Engine.IsInteger(t) {
			return ctx.ReportError(diag.CHK050, u.Pos(), "~ requires an integer operand, got %s", t)
		}
		u.SetType(t)
	case "negate":
		if !ctx.Engine.IsNumeric(t) {
			return ctx.ReportError(diag.CHK050, u.Pos(), "unary - requires a numeric operand, got %s", t)
		}
		u.SetType(t)
	default:
		return ctx.ReportError(diag.CHK050, u.Pos(), "unknown unary operator %q", u.Op)
	}
	if u.Operand.Get().Flags().Has(ast.Comptime) {
		u.Flags().Set(ast.Comptime)
	}
	return Success
}

func checkCast(ctx *Context, u *ast.UnaryOp) Status {
	if st := Check(func() Status { return checkExpr(ctx, u.Operand) }); st.IsTerminal() {
		return st
	}
	dst, err := ctx.Engine.BuildFromAST(u.CastTypeExpr)
	if err != nil {
		return ctx.Yield(diag.CHK010, u.Pos(), "cast target type not yet ready: %v", err)
	}
	src, ok := u.Operand.Type().(types.Type)
	if !ok || src == nil {
		return ctx.Yield(diag.CHK001, u.Pos(), "cast source type not yet known")
	}
	if ok, reason := ctx.Engine.CastIsLegal(src, dst); !ok {
		return ctx.ReportError(diag.CHK050, u.Pos(), "cannot cast %s to %s: %s", src, dst, reason)
	}
	u.SetType(dst)
	return Success
}
