// Package resolve is the external symbol/overload engine of spec.md
// §6: scope_create, symbol_introduce, try_symbol_raw_resolve_from_type/
// node, find_closest_symbol_in_node, strip_aliases,
// find_matching_overload_by_arguments, polymorphic_proc_lookup,
// macro_resolve_header, polymorphic_proc_try_solidify,
// find_polymorphic_sln. The checker (internal/check) calls through
// this package's exported functions and never reaches into scope
// internals directly.
//
// Grounded on the scope-chain idiom of the teacher's
// internal/types/env.go (TypeEnv.bindings + parent pointer), adapted
// from a type-environment to a general symbol scope over ast.Node.
package resolve

import "github.com/sunholo/onyxcheck/internal/ast"

// Scope is a lexical symbol table with a parent chain.
type Scope struct {
	parent  *Scope
	symbols map[string]ast.Node
}

// NewScope creates a scope nested under parent (nil for the root/file scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]ast.Node)}
}

// Introduce binds name to node in this scope, shadowing any outer binding.
func (s *Scope) Introduce(name string, node ast.Node) { s.symbols[name] = node }

// Lookup walks the parent chain outward looking for name.
func (s *Scope) Lookup(name string) (ast.Node, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if n, ok := cur.symbols[name]; ok {
			return n, true
		}
	}
	return nil, false
}

// Names returns every name visible from this scope, used by
// FindClosestSymbol to build its candidate list.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)
	var out []string
	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.symbols {
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

// TryResolveFromNode asks whether node denotes a symbol reachable by
// name (spec.md §6 "try_symbol_raw_resolve_from_node"), e.g. an Ident
// whose Resolved field a prior symbol-resolution pass already filled in.
func TryResolveFromNode(node ast.Node) (ast.Node, bool) {
	id, ok := node.(*ast.Ident)
	if !ok || id.Resolved == nil {
		return nil, false
	}
	return id.Resolved, true
}
