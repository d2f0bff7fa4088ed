package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// checkExpr is C3: the expression checker. It dispatches on the node
// currently in slot, and may rewrite slot in place (method call ->
// call, range-subscript -> slice, #defined -> bool literal) the way
// spec.md §4.3 describes. Every case that successfully produces a
// type ends by calling slot.Get().SetType(...) before returning
// Success, except when ctx.AllChecksAreFinal is false, in which case
// marking the node Has_Been_Checked is skipped (spec.md §3 invariant 4).
func checkExpr(ctx *Context, slot *ast.Slot) Status {
	n := slot.Get()
	if n == nil {
		return Success
	}
	if n.Checked() {
		return Success
	}

	if st := fillInType(ctx, n); st.IsTerminal() {
		return st
	}

	var st Status
	switch node := n.(type) {
	case *ast.NumLit, *ast.StrLit, *ast.BoolLit:
		st = checkLiteral(ctx, n)
	case *ast.Ident:
		st = checkIdent(ctx, slot, node)
	case *ast.Alias:
		slot.Set(resolve.StripAliases(node))
		return checkExpr(ctx, slot)
	case *ast.BinOp:
		st = checkBinOp(ctx, slot, node)
		if st == Success && slot.Get() != ast.Node(node) {
			return checkExpr(ctx, slot)
		}
	case *ast.UnaryOp:
		st = checkUnaryOp(ctx, slot, node)
	case *ast.Call:
		st = checkCall(ctx, slot, node)
	case *ast.MethodCall:
		st = rewriteMethodCall(ctx, slot, node)
		if st == Success {
			return checkExpr(ctx, slot)
		}
	case *ast.FieldAccess:
		st = checkFieldAccess(ctx, slot, node)
	case *ast.Subscript:
		st = checkSubscript(ctx, slot, node)
	case *ast.Slice:
		st = checkSlice(ctx, node)
	case *ast.AddressOf:
		st = checkAddressOf(ctx, node)
	case *ast.Dereference:
		st = checkDereference(ctx, node)
	case *ast.StructLiteral:
		st = checkStructLiteral(ctx, node)
	case *ast.ArrayLiteral:
		st = checkArrayLiteral(ctx, node)
	case *ast.RangeLiteral:
		st = checkRangeLiteral(ctx, node)
	case *ast.Compound:
		st = checkCompoundExpr(ctx, node)
	case *ast.IfExpr:
		st = checkIfExpr(ctx, node)
	case *ast.DoBlock:
		st = checkDoBlock(ctx, node)
	case *ast.CodeBlock:
		st = Success // captured verbatim for #insert; checked lazily at insertion site
	case *ast.SizeOf:
		st = checkSizeOf(ctx, node)
	case *ast.AlignOf:
		st = checkAlignOf(ctx, node)
	case *ast.PackageRef:
		st = Success
	case *ast.EnumValue:
		st = Success // enum member identity is resolved by symbol resolution, not here
	case *ast.CallSite:
		st = Success
	case *ast.DirectiveInsert:
		st = checkDirectiveInsert(ctx, slot, node)
	case *ast.DirectiveSolidify:
		st = checkDirectiveSolidify(ctx, slot, node)
	case *ast.DirectiveDefined:
		slot.Set(ast.NewBoolLit(node.Pos(), node.Value))
		return checkExpr(ctx, slot)
	default:
		return ctx.ReportError(diag.CHK010, n.Pos(), "unexpected node kind %s in expression position", n.Kind())
	}

	if st.IsTerminal() {
		return st
	}
	if ctx.AllChecksAreFinal {
		n.Flags().Set(ast.HasBeenChecked)
	}
	return Success
}

// fillInType is spec.md §4.3's "fill_in_type": if a node carries an
// unresolved type AST (TypeNode) but no semantic Type yet, build and
// attach it before the node's own checking logic runs.
func fillInType(ctx *Context, n ast.Node) Status {
	if n.Type() != nil {
		return Success
	}
	tn := n.TypeNode()
	if tn == nil {
		return Success
	}
	t, err := ctx.Engine.BuildFromAST(tn)
	if err != nil {
		return ctx.Yield(diag.CHK010, n.Pos(), "type not yet resolvable: %v", err)
	}
	n.SetType(t)
	return Success
}

func checkLiteral(ctx *Context, n ast.Node) Status {
	// Numeric/string/bool literals stay untyped (nil Type) until a
	// surrounding unify() call gives them a concrete target — assigning
	// a default type here would defeat numeric-literal promotion (C2).
	// Every literal is, by definition, known at compile time.
	n.Flags().Set(ast.Comptime)
	return Success
}

// checkIdent implements the "type nodes masquerading as expressions"
// case of spec.md §4.3: an identifier that resolved to a type
// declaration reifies into a KTypeExpr carrying a TypeIndex, rather
// than reporting a type error.
func checkIdent(ctx *Context, slot *ast.Slot, id *ast.Ident) Status {
	resolved, ok := resolve.TryResolveFromNode(id)
	if !ok {
		if ctx.ExpressionTypesMustBeKnown {
			return ctx.ReportError(diag.CHK010, id.Pos(), "unresolved identifier %q", id.Name)
		}
		return ctx.Yield(diag.CHK001, id.Pos(), "identifier %q not yet resolved", id.Name)
	}
	switch decl := resolved.(type) {
	case *ast.StructType:
		t, err := ctx.Engine.BuildFromAST(&ast.TypeStructRef{Decl: decl})
		if err != nil {
			return ctx.Yield(diag.CHK010, id.Pos(), "struct type not yet ready: %v", err)
		}
		id.SetType(&types.TypeIndex{Of: t})
		id.Base.KindTag = ast.KTypeExpr
		return Success
	default:
		id.SetType(resolved.Type())
		return Success
	}
}

func checkFieldAccess(ctx *Context, slot *ast.Slot, fa *ast.FieldAccess) Status {
	if st := checkExpr(ctx, fa.Target); st.IsTerminal() {
		return st
	}
	targetType := fa.Target.Type()
	if targetType == nil {
		return ctx.Yield(diag.CHK001, fa.Pos(), "field access target type not yet known")
	}
	sem, ok := targetType.(types.Type)
	if !ok {
		return ctx.ReportError(diag.CHK010, fa.Pos(), "%s has no fields", targetType)
	}
	member, found := ctx.Engine.LookupMember(sem, fa.Field)
	if !found {
		if names := memberNames(sem); len(names) > 0 {
			if close, ok := resolve.FindClosestSymbol(fa.Field, names); ok {
				return ctx.ReportError(diag.CHK020, fa.Pos(), "%s has no field %q, did you mean %q?", sem, fa.Field, close)
			}
		}
		return ctx.ReportError(diag.CHK020, fa.Pos(), "%s has no field %q", sem, fa.Field)
	}
	fa.SetType(member.Type)
	if member.Use || !addressableFieldTarget(fa.Target) {
		fa.Flags().Set(ast.CannotTakeAddr)
	}
	return Success
}

func memberNames(t types.Type) []string {
	s, ok := t.(*types.Struct)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(s.Members))
	for _, m := range s.Members {
		names = append(names, m.Name)
	}
	return names
}

func addressableFieldTarget(slot *ast.Slot) bool {
	n := slot.Get()
	return n != nil && !n.Flags().Has(ast.CannotTakeAddr)
}

// checkSubscript rewrites `x[lo .. hi]` into a Slice node (spec.md
// §4.3 "Subscript") before checking continues; otherwise it validates
// x supports native subscripting and that the index is a small integer.
func checkSubscript(ctx *Context, slot *ast.Slot, sub *ast.Subscript) Status {
	if rl, ok := sub.Index.Get().(*ast.RangeLiteral); ok {
		slice := &ast.Slice{Base: ast.Base{KindTag: ast.KSlice, At: sub.Pos()}, Target: sub.Target, Low: rl.Low, High: rl.High}
		slot.Set(slice)
		return checkExpr(ctx, slot)
	}
	if st := Check(func() Status { return checkExpr(ctx, sub.Target) }); st.IsTerminal() {
		return st
	}
	if st := Check(func() Status { return checkExpr(ctx, sub.Index) }); st.IsTerminal() {
		return st
	}
	targetType, ok := sub.Target.Type().(types.Type)
	if !ok || targetType == nil {
		return ctx.Yield(diag.CHK001, sub.Pos(), "subscript target type not yet known")
	}
	elem, accessible := types.ArrayAccessible(targetType)
	if !accessible {
		// No subscript operator overload is consulted; a target without
		// native indexing is reported as an error here.
		return ctx.ReportError(diag.CHK050, sub.Pos(), "%s does not support indexing", targetType)
	}
	idxType, _ := sub.Index.Type().(types.Type)
	if idxType != nil && !ctx.Engine.IsSmallInteger(idxType) {
		return ctx.ReportError(diag.CHK026, sub.Pos(), "subscript index must be a small integer, got %s", idxType)
	}
	sub.SetType(elem)
	return Success
}

func checkSlice(ctx *Context, sl *ast.Slice) Status {
	if st := Check(func() Status { return checkExpr(ctx, sl.Target) }); st.IsTerminal() {
		return st
	}
	targetType, ok := sl.Target.Type().(types.Type)
	if !ok || targetType == nil {
		return ctx.Yield(diag.CHK001, sl.Pos(), "slice target type not yet known")
	}
	elem, accessible := types.ArrayAccessible(targetType)
	if !accessible {
		return ctx.ReportError(diag.CHK050, sl.Pos(), "%s cannot be sliced", targetType)
	}
	sl.SetType(&types.Slice{Elem: elem})
	return Success
}

func checkAddressOf(ctx *Context, ao *ast.AddressOf) Status {
	if st := Check(func() Status { return checkExpr(ctx, ao.Operand) }); st.IsTerminal() {
		return st
	}
	op := ao.Operand.Get()
	if op.Flags().Has(ast.CannotTakeAddr) {
		return ctx.ReportError(diag.CHK021, ao.Pos(), "cannot take the address of this expression")
	}
	t, ok := op.Type().(types.Type)
	if !ok || t == nil {
		return ctx.Yield(diag.CHK001, ao.Pos(), "operand type not yet known")
	}
	ao.SetType(&types.Pointer{Elem: t})
	op.Flags().Set(ast.AddressTaken)
	return Success
}

func checkDereference(ctx *Context, de *ast.Dereference) Status {
	if st := Check(func() Status { return checkExpr(ctx, de.Operand) }); st.IsTerminal() {
		return st
	}
	t, ok := de.Operand.Type().(types.Type)
	if !ok || t == nil {
		return ctx.Yield(diag.CHK001, de.Pos(), "operand type not yet known")
	}
	elem, ok := types.Dereferenceable(t)
	if !ok {
		return ctx.ReportError(diag.CHK022, de.Pos(), "cannot dereference %s", t)
	}
	de.SetType(elem)
	return Success
}

// checkStructLiteral covers spec.md §4.3's three struct-literal cases:
// untyped-deferred (no TypeExpr, yield), untyped-generic-zero-value
// (TypeExpr present but no fields given, builds zero value), and the
// ordinary typed-with-members case.
func checkStructLiteral(ctx *Context, sl *ast.StructLiteral) Status {
	if sl.TypeExpr == nil {
		return ctx.Yield(diag.CHK023, sl.Pos(), "struct literal needs a type from context")
	}
	t, err := ctx.Engine.BuildFromAST(sl.TypeExpr)
	if err != nil {
		return ctx.Yield(diag.CHK023, sl.Pos(), "struct type not yet ready: %v", err)
	}
	st, ok := t.(*types.Struct)
	if !ok {
		return ctx.ReportError(diag.CHK023, sl.Pos(), "%s is not a struct type", t)
	}
	if st.Status != types.StructUsesDone {
		if ok, err := ctx.Engine.StructMemberApplyUse(st); !ok {
			return ctx.Yield(diag.CHK023, sl.Pos(), "struct members not yet ready: %v", err)
		}
	}
	for i, vs := range sl.Positional {
		m := st.MemberByIdx(i)
		if m == nil {
			return ctx.ReportError(diag.CHK023, sl.Pos(), "too many positional members for %s", st)
		}
		if status := unify(ctx, vs, m.Type, sl.Pos()); status.IsTerminal() {
			return status
		}
	}
	for _, name := range sl.NamedOrder {
		m, idx := st.MemberByName(name)
		if idx < 0 {
			if close, ok := resolve.FindClosestSymbol(name, memberNames(st)); ok {
				return ctx.ReportError(diag.CHK023, sl.Pos(), "%s has no member %q, did you mean %q?", st, name, close)
			}
			return ctx.ReportError(diag.CHK023, sl.Pos(), "%s has no member %q", st, name)
		}
		if status := unify(ctx, sl.Named[name], m.Type, sl.Pos()); status.IsTerminal() {
			return status
		}
	}
	sl.SetType(st)
	if allComptime(sl.Positional) && allComptimeSlots(sl.Named) {
		sl.Flags().Set(ast.Comptime)
	}
	return Success
}

func allComptime(slots []*ast.Slot) bool {
	for _, s := range slots {
		if n := s.Get(); n == nil || !n.Flags().Has(ast.Comptime) {
			return false
		}
	}
	return true
}

func allComptimeSlots(slots map[string]*ast.Slot) bool {
	for _, s := range slots {
		if n := s.Get(); n == nil || !n.Flags().Has(ast.Comptime) {
			return false
		}
	}
	return true
}

func checkArrayLiteral(ctx *Context, al *ast.ArrayLiteral) Status {
	if al.ElemTypeExpr == nil {
		return ctx.ReportError(diag.CHK024, al.Pos(), "array literal requires an element type")
	}
	elem, err := ctx.Engine.BuildFromAST(al.ElemTypeExpr)
	if err != nil {
		return ctx.Yield(diag.CHK024, al.Pos(), "element type not yet ready: %v", err)
	}
	for _, v := range al.Values {
		if status := unify(ctx, v, elem, al.Pos()); status.IsTerminal() {
			return status
		}
	}
	al.SetType(&types.Array{Elem: elem, Length: len(al.Values)})
	al.Flags().Set(ast.ArrayLiteralTyped)
	if allComptime(al.Values) {
		al.Flags().Set(ast.Comptime)
	}
	return Success
}

func checkRangeLiteral(ctx *Context, rl *ast.RangeLiteral) Status {
	if st := Check(func() Status { return checkExpr(ctx, rl.Low) }); st.IsTerminal() {
		return st
	}
	if st := Check(func() Status { return checkExpr(ctx, rl.High) }); st.IsTerminal() {
		return st
	}
	if rl.Step != nil {
		if st := Check(func() Status { return checkExpr(ctx, rl.Step) }); st.IsTerminal() {
			return st
		}
	}
	return Success
}

func checkCompoundExpr(ctx *Context, c *ast.Compound) Status {
	elems := make([]types.Type, 0, len(c.Exprs))
	for _, e := range c.Exprs {
		if st := Check(func() Status { return checkExpr(ctx, e) }); st.IsTerminal() {
			return st
		}
		t, _ := e.Type().(types.Type)
		elems = append(elems, t)
	}
	for _, t := range elems {
		if t == nil {
			return ctx.Yield(diag.CHK001, c.Pos(), "compound element type not yet known")
		}
	}
	c.SetType(&types.Compound{Types: elems})
	return Success
}

func checkIfExpr(ctx *Context, ie *ast.IfExpr) Status {
	if st := Check(func() Status { return checkExpr(ctx, ie.Cond) }); st.IsTerminal() {
		return st
	}
	if status := unifyOrError(ctx, ie.Cond, types.Bool, ie.Pos(), "if-expression condition must be bool"); status.IsTerminal() {
		return status
	}
	if st := Check(func() Status { return checkExpr(ctx, ie.Then) }); st.IsTerminal() {
		return st
	}
	thenType, ok := ie.Then.Type().(types.Type)
	if !ok || thenType == nil {
		return ctx.Yield(diag.CHK001, ie.Pos(), "if-expression branch type not yet known")
	}
	if status := unify(ctx, ie.Else, thenType, ie.Pos()); status.IsTerminal() {
		return status
	}
	ie.SetType(thenType)
	return Success
}

// checkDoBlock forks a fresh ReturnSlot per spec.md §4.3: a `do { ... }`
// expression's embedded returns target the do-block's own auto-return
// type, not the enclosing function's, and must not leak back into it.
func checkDoBlock(ctx *Context, db *ast.DoBlock) Status {
	slot := &ReturnSlot{T: types.AutoReturn}
	sub := ctx.Fork()
	sub.ExpectedReturnType = slot
	if status := checkBlock(sub, db.Body); status.IsTerminal() {
		return status
	}
	if types.IsAutoReturn(slot.T) {
		db.SetType(types.Void)
	} else {
		db.SetType(slot.T)
	}
	return Success
}

func checkSizeOf(ctx *Context, so *ast.SizeOf) Status {
	t, err := ctx.Engine.BuildFromAST(so.OperandType)
	if err != nil {
		return ctx.Yield(diag.CHK025, so.Pos(), "size_of operand not yet resolvable: %v", err)
	}
	_ = ctx.Engine.SizeOf(t) // validated eagerly so a malformed type surfaces here, not at codegen
	so.SetType(types.I32)
	so.Flags().Set(ast.Comptime)
	return Success
}

func checkAlignOf(ctx *Context, ao *ast.AlignOf) Status {
	t, err := ctx.Engine.BuildFromAST(ao.OperandType)
	if err != nil {
		return ctx.Yield(diag.CHK025, ao.Pos(), "align_of operand not yet resolvable: %v", err)
	}
	_ = ctx.Engine.AlignOf(t)
	ao.SetType(types.I32)
	ao.Flags().Set(ast.Comptime)
	return Success
}

// rewriteMethodCall implements "Method call" (spec.md §4.3, §8 scenario
// 4): `x->foo(a)` becomes `foo(^x, a)` — or `foo(x, a)` when x is
// already a pointer — with the receiver argument marked Can_Be_Removed.
// Neither checkCall (C5) nor checkAddressOf consults that flag: the
// receiver is always passed, and its `^` is never elided.
func rewriteMethodCall(ctx *Context, slot *ast.Slot, mc *ast.MethodCall) Status {
	if st := Check(func() Status { return checkExpr(ctx, mc.Target) }); st.IsTerminal() {
		return st
	}
	args := make([]*ast.Arg, 0, len(mc.Args)+1)
	args = append(args, &ast.Arg{Value: ast.NewSlot(selfArgument(mc.Target))})
	args = append(args, mc.Args...)
	callee := ast.NewIdent(mc.Pos(), mc.Name)
	call := ast.NewCall(mc.Pos(), callee, args...)
	slot.Set(call)
	return Success
}

// selfArgument builds the implicit receiver `^self`/`self` a method
// call elaborates its target into: already-pointer receivers pass
// through untouched, everything else has its address taken.
func selfArgument(target *ast.Slot) ast.Node {
	recv := target.Get()
	self := recv
	if t, ok := recv.Type().(types.Type); !ok || t == nil {
		self = ast.NewAddressOf(recv.Pos(), recv)
	} else if _, isPtr := t.(*types.Pointer); !isPtr {
		self = ast.NewAddressOf(recv.Pos(), recv)
	}
	self.Flags().Set(ast.CanBeRemoved)
	return self
}
