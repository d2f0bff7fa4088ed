package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/resolve"
)

// EntityState is spec.md §3's entity lifecycle:
// Resolve_Symbols -> Check_Types -> Code_Gen -> Finalized, or Failed.
type EntityState int

const (
	StateResolveSymbols EntityState = iota
	StateCheckTypes
	StateCodeGen
	StateFinalized
	StateFailed
)

func (s EntityState) String() string {
	switch s {
	case StateResolveSymbols:
		return "resolve_symbols"
	case StateCheckTypes:
		return "check_types"
	case StateCodeGen:
		return "code_gen"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return "unknown_state"
	}
}

// Entity is a scheduler work item wrapping one top-level construct:
// a function header, a function body, a global, a static-if, a
// constraint, a polyquery, a directive, or a bare expression.
type Entity struct {
	ID    int
	Node  ast.Node
	State EntityState
	Scope *resolve.Scope

	// Retries counts re-entries into Check_Types since the entity last
	// changed state, used by the scheduler's progress measurement.
	Retries int
}

// Scheduler is the external entity-heap contract of spec.md §6:
// entity_heap_insert_existing and add_entities_for_node. The checker
// depends only on this interface (dependency inversion) so that
// internal/sched — which implements it and drives the fixpoint loop —
// can freely import internal/check without a cycle.
type Scheduler interface {
	// InsertExisting requeues an already-constructed entity, e.g. the
	// true/false branch entities #static_if pushes (spec.md §4.8).
	InsertExisting(e *Entity)

	// AddEntitiesForNode schedules fresh entities for everything a
	// rewrite just introduced under node (spec.md §6
	// add_entities_for_node), e.g. a macro expansion's nested declarations.
	AddEntitiesForNode(parent *Entity, node ast.Node, scope *resolve.Scope)
}
