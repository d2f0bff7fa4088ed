package resolve

import "github.com/sunholo/onyxcheck/internal/ast"

// StripAliases follows a chain of ast.Alias bindings down to the
// first non-alias node, per spec.md §6's "strip_aliases". A call's
// callee and a struct-literal's type expression are both stripped
// before further classification (spec.md §4.5 step 1).
func StripAliases(n ast.Node) ast.Node {
	for {
		a, ok := n.(*ast.Alias)
		if !ok {
			return n
		}
		target := a.Target.Get()
		if target == nil {
			return n
		}
		n = target
	}
}
