package resolve

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/types"
)

// OverloadOutcome is the three-way result of resolving an overload (or
// polymorph) set against a concrete argument list.
type OverloadOutcome int

const (
	OverloadNoMatch OverloadOutcome = iota
	OverloadResolved
	OverloadYield
)

// FindMatchingOverload implements spec.md §6's
// find_matching_overload_by_arguments: pick the single candidate whose
// parameter types accept argTypes. If any candidate's header hasn't
// finished type-checking, this yields (spec.md §4.5 step 3) rather
// than risk picking against incomplete information.
func FindMatchingOverload(candidates []*ast.Function, argTypes []types.Type, eng types.Engine) (*ast.Function, OverloadOutcome) {
	var viable []*ast.Function
	for _, c := range candidates {
		if !c.HeaderCheckedOK {
			return nil, OverloadYield
		}
		if paramsMatch(c, argTypes, eng) {
			viable = append(viable, c)
		}
	}
	if len(viable) == 1 {
		return viable[0], OverloadResolved
	}
	return nil, OverloadNoMatch
}

func paramsMatch(fn *ast.Function, argTypes []types.Type, eng types.Engine) bool {
	required := 0
	hasVarArgs := false
	for i, p := range fn.Params {
		if p.IsVarArgs && i == len(fn.Params)-1 {
			hasVarArgs = true
			continue
		}
		if p.Default == nil {
			required++
		}
	}
	if len(argTypes) < required {
		return false
	}
	if !hasVarArgs && len(argTypes) > len(fn.Params) {
		return false
	}
	for i, at := range argTypes {
		if i >= len(fn.Params) {
			continue // absorbed by trailing varargs
		}
		p := fn.Params[i]
		if p.IsVarArgs {
			continue
		}
		if at == nil {
			continue
		}
		var pt types.Type
		if p.ResolvedType != nil {
			pt, _ = p.ResolvedType.(types.Type)
		} else if p.TypeExpr != nil {
			built, err := eng.BuildFromAST(p.TypeExpr)
			if err != nil {
				continue
			}
			pt = built
		}
		if pt == nil {
			continue
		}
		if !eng.TypesCompatible(pt, at) {
			return false
		}
	}
	return true
}
