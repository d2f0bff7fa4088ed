package resolve

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/types"
)

// SlnOutcome is the result of attempting to solve one polymorphic
// variable, mirroring spec.md §4.9's find_polymorphic_sln outcomes.
type SlnOutcome int

const (
	SlnFailed SlnOutcome = iota
	SlnSuccess
	SlnSpecial // requires external input the checker must yield for
	SlnYield
)

// PolymorphicProcLookup is the poly-proc analog of FindMatchingOverload:
// a poly proc "matches" an argument list when its parameter count is
// compatible; full solving happens afterward via FindPolymorphicSln.
func PolymorphicProcLookup(candidates []*ast.Function, argCount int) (*ast.Function, OverloadOutcome) {
	var viable []*ast.Function
	for _, c := range candidates {
		if !c.IsPolymorphic {
			continue
		}
		required := 0
		hasVarArgs := false
		for i, p := range c.Params {
			if p.IsVarArgs && i == len(c.Params)-1 {
				hasVarArgs = true
				continue
			}
			if p.Default == nil {
				required++
			}
		}
		if argCount < required {
			continue
		}
		if !hasVarArgs && argCount > len(c.Params) {
			continue
		}
		viable = append(viable, c)
	}
	if len(viable) == 1 {
		return viable[0], OverloadResolved
	}
	if len(viable) == 0 {
		return nil, OverloadNoMatch
	}
	return nil, OverloadYield
}

// FindPolymorphicSln solves one poly-variable of proc against the
// actual argument types at the call site, by unifying it with the
// first parameter declared `$varName`.
func FindPolymorphicSln(proc *ast.Function, varName string, argTypes []types.Type) (types.Type, SlnOutcome) {
	for i, p := range proc.Params {
		if !p.IsPolyVar || p.PolyVarName != varName {
			continue
		}
		if i >= len(argTypes) {
			return nil, SlnFailed
		}
		if argTypes[i] == nil {
			return nil, SlnYield
		}
		return argTypes[i], SlnSuccess
	}
	return nil, SlnFailed
}

// PolymorphicProcTrySolidify builds a concrete (non-polymorphic)
// Function from proc with every poly-variable substituted by its
// solved binding (spec.md §6 "polymorphic_proc_try_solidify"). The
// returned Function is a fresh value — the original proc, and its
// other instantiations, are left untouched (spec.md §3 invariant 3:
// idempotence under re-entry).
func PolymorphicProcTrySolidify(proc *ast.Function, bindings map[string]types.Type) *ast.Function {
	solid := *proc
	solid.IsPolymorphic = false
	solid.PolyParams = nil
	solid.Params = make([]*ast.Param, len(proc.Params))
	for i, p := range proc.Params {
		np := *p
		if p.IsPolyVar {
			if t, ok := bindings[p.PolyVarName]; ok {
				np.ResolvedType = t
			}
		}
		solid.Params[i] = &np
	}
	return &solid
}
