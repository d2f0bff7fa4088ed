package ast

// CloneNode is a best-effort recursive AST clone, used by macro
// expansion (spec.md §4.5 step 10: a macro body is re-instantiated per
// call site, never shared, since two call sites must be able to check
// and yield independently). It covers the node kinds that actually
// appear inside a macro body/statement tree; anything outside that set
// is returned unclonned, since cloning the checker's own entity-level
// declarations (Function, StructType, ...) is not a macro-expansion
// concern and the AST's mutation discipline never requires it here.
func CloneNode(n Node) Node {
	if n == nil {
		return nil
	}
	switch t := n.(type) {
	case *NumLit:
		c := *t
		return &c
	case *StrLit:
		c := *t
		return &c
	case *BoolLit:
		c := *t
		return &c
	case *Ident:
		c := *t
		return &c
	case *CallSite:
		c := *t
		return &c
	case *EnumValue:
		c := *t
		return &c
	case *BinOp:
		return NewBinOp(t.At, t.Op, CloneNode(t.Left.Get()), CloneNode(t.Right.Get()))
	case *UnaryOp:
		c := &UnaryOp{Base: Base{KindTag: KUnaryOp, At: t.At}, Op: t.Op, Operand: cloneSlot(t.Operand), CastTypeExpr: t.CastTypeExpr}
		return c
	case *Call:
		args := make([]*Arg, len(t.Args))
		for i, a := range t.Args {
			args[i] = &Arg{Name: a.Name, Value: cloneSlot(a.Value), Baked: a.Baked}
		}
		return NewCall(t.At, CloneNode(t.Callee.Get()), args...)
	case *MethodCall:
		args := make([]*Arg, len(t.Args))
		for i, a := range t.Args {
			args[i] = &Arg{Name: a.Name, Value: cloneSlot(a.Value), Baked: a.Baked}
		}
		return NewMethodCall(t.At, CloneNode(t.Target.Get()), t.Name, args...)
	case *FieldAccess:
		return NewFieldAccess(t.At, CloneNode(t.Target.Get()), t.Field)
	case *Subscript:
		return NewSubscript(t.At, CloneNode(t.Target.Get()), CloneNode(t.Index.Get()))
	case *Slice:
		return &Slice{Base: Base{KindTag: KSlice, At: t.At}, Target: cloneSlot(t.Target), Low: cloneSlot(t.Low), High: cloneSlot(t.High)}
	case *AddressOf:
		return NewAddressOf(t.At, CloneNode(t.Operand.Get()))
	case *Dereference:
		return NewDereference(t.At, CloneNode(t.Operand.Get()))
	case *RangeLiteral:
		rl := NewRangeLiteral(t.At, CloneNode(t.Low.Get()), CloneNode(t.High.Get()))
		if t.Step != nil {
			rl.Step = cloneSlot(t.Step)
		}
		return rl
	case *Compound:
		exprs := make([]*Slot, len(t.Exprs))
		for i, e := range t.Exprs {
			exprs[i] = cloneSlot(e)
		}
		return &Compound{Base: Base{KindTag: KCompound, At: t.At}, Exprs: exprs}
	case *IfExpr:
		return &IfExpr{Base: Base{KindTag: KIfExpr, At: t.At}, Cond: cloneSlot(t.Cond), Then: cloneSlot(t.Then), Else: cloneSlot(t.Else)}
	case *DoBlock:
		return &DoBlock{Base: Base{KindTag: KDoBlock, At: t.At}, Body: CloneNode(t.Body).(*Block)}
	case *Block:
		stmts := make([]*Slot, len(t.Stmts))
		for i, s := range t.Stmts {
			stmts[i] = cloneSlot(s)
		}
		return NewBlock(t.At, stmts...)
	case *Return:
		return &Return{Base: Base{KindTag: KReturn, At: t.At}, Expr: cloneSlot(t.Expr)}
	case *If:
		c := &If{Base: Base{KindTag: KIf, At: t.At}, Init: cloneSlot(t.Init), Cond: cloneSlot(t.Cond)}
		if t.Then != nil {
			c.Then = CloneNode(t.Then).(*Block)
		}
		if t.Else != nil {
			c.Else = CloneNode(t.Else).(*Block)
		}
		return c
	case *While:
		c := &While{Base: Base{KindTag: KWhile, At: t.At}, Init: cloneSlot(t.Init), Cond: cloneSlot(t.Cond), BottomTest: t.BottomTest}
		if t.Body != nil {
			c.Body = CloneNode(t.Body).(*Block)
		}
		if t.Else != nil {
			c.Else = CloneNode(t.Else).(*Block)
		}
		return c
	case *For:
		c := &For{Base: Base{KindTag: KFor, At: t.At}, VarName: t.VarName, ByPointer: t.ByPointer, Iterable: cloneSlot(t.Iterable)}
		if t.Body != nil {
			c.Body = CloneNode(t.Body).(*Block)
		}
		return c
	case *Local:
		return &Local{Base: Base{KindTag: KLocal, At: t.At}, Name: t.Name, Init: cloneSlot(t.Init)}
	case *ExprStmt:
		return &ExprStmt{Base: Base{KindTag: KExprStmt, At: t.At}, Expr: cloneSlot(t.Expr)}
	case *Defer:
		return &Defer{Base: Base{KindTag: KDefer, At: t.At}, Stmt: cloneSlot(t.Stmt)}
	case *DirectiveRemove:
		return &DirectiveRemove{Base: Base{KindTag: KDirectiveRemove, At: t.At}}
	case *SwitchCase:
		values := make([]*Slot, len(t.Values))
		for i, v := range t.Values {
			values[i] = cloneSlot(v)
		}
		c := &SwitchCase{Base: Base{KindTag: KSwitchCase, At: t.At}, Values: values, IsDefault: t.IsDefault}
		if t.Block != nil {
			c.Block = CloneNode(t.Block).(*Block)
		}
		return c
	case *Switch:
		cases := make([]*SwitchCase, len(t.Cases))
		var def *SwitchCase
		for i, c := range t.Cases {
			cc := CloneNode(c).(*SwitchCase)
			cases[i] = cc
			if c.IsDefault {
				def = cc
			}
		}
		return &Switch{Base: Base{KindTag: KSwitch, At: t.At}, Scrutinee: cloneSlot(t.Scrutinee), Cases: cases, Default: def}
	default:
		// Declarations/entities and anything else a macro body cannot
		// itself contain (Function, StructType, Macro, directives, ...)
		// are returned as-is: expanding a macro never needs to duplicate
		// a top-level entity, only the statement/expression tree calling it.
		return n
	}
}

func cloneSlot(s *Slot) *Slot {
	if s == nil {
		return nil
	}
	return NewSlot(CloneNode(s.Get()))
}
