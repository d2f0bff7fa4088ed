package resolve

import "github.com/sunholo/onyxcheck/internal/ast"

// MacroResolveHeader implements spec.md §6's macro_resolve_header: a
// macro's header is just its wrapped Function header, already checked
// independently of its (unexpanded) body.
func MacroResolveHeader(m *ast.Macro) (*ast.Function, bool) {
	if m == nil || m.Header == nil {
		return nil, false
	}
	return m.Header, m.Header.HeaderCheckedOK
}

// BakedArgCount reports how many of a macro call's arguments are
// compile-time "baked" and must be stripped before the ordinary
// argument-matching machinery of C5 step 5 runs.
func BakedArgCount(args []*ast.Arg) int {
	n := 0
	for _, a := range args {
		if a.Baked {
			n++
		}
	}
	return n
}
