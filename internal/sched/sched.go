// Package sched is the entity scheduler spec.md §6 treats as an
// external collaborator: entity_heap_insert_existing, add_entities_for_node,
// and the drive-to-fixpoint loop that calls check.CheckEntity one entity
// at a time until no entity is left queued (an entity leaves the queue
// once Finalized or failed; one entity's hard error does not stop the
// loop) or a full round makes no progress (at which point cycle_detected promotes
// the next round's yields into hard errors, per spec.md's Progress
// guarantee).
//
// Grounded on the teacher's internal/elaborate/scc.go Tarjan-SCC cycle
// detector, adapted from "find mutually-recursive function groups" to
// "did any entity change state this round" — this checker doesn't need
// the SCC grouping itself (the scheduler here requeues individual
// entities, not groups), only the same no-progress-means-cycle signal
// the teacher's elaborator uses to decide when to stop retrying.
package sched

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/check"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// Queue is the entity heap: a FIFO work queue plus the bookkeeping
// needed to detect a no-progress round. It is not a priority heap in
// the data-structure sense (spec.md doesn't mandate an ordering beyond
// "pick the next Check_Types-state entity") — a plain slice is enough
// to satisfy the contract.
type Queue struct {
	entities []*check.Entity
	nextID   int
}

// New creates an empty entity queue.
func New() *Queue {
	return &Queue{}
}

// InsertExisting implements check.Scheduler: requeue an
// already-constructed entity (e.g. a #static_if branch's pre-built
// entities, or an entity returning Return_To_Symres).
func (q *Queue) InsertExisting(e *check.Entity) {
	q.entities = append(q.entities, e)
}

// AddEntitiesForNode implements check.Scheduler: wrap node as one fresh
// entity (or, for a Block, one entity per top-level declaration it
// carries) under scope, and enqueue it/them. parent is accepted for
// interface symmetry with spec.md's add_entities_for_node(parent, ...)
// signature but this scheduler does not track parent/child links
// beyond what the caller already threads through the AST itself.
func (q *Queue) AddEntitiesForNode(parent *check.Entity, node ast.Node, scope *resolve.Scope) {
	for _, n := range flattenTopLevel(node) {
		q.nextID++
		q.entities = append(q.entities, &check.Entity{
			ID:    q.nextID,
			Node:  n,
			State: check.StateCheckTypes,
			Scope: scope,
		})
	}
}

// AddRoot is the entry point for entities built directly from a parsed
// file's top-level declarations, before any checker entity exists to
// be their "parent" — the initial population add_entities_for_node
// seeds the scheduler with.
func (q *Queue) AddRoot(node ast.Node, scope *resolve.Scope) {
	q.AddEntitiesForNode(nil, node, scope)
}

// flattenTopLevel expands a Block into its statement list (so #insert
// and #static_if's captured code blocks, which typically wrap several
// sibling declarations in one Block node, become one entity each) and
// otherwise returns the node itself as a single unit.
func flattenTopLevel(node ast.Node) []ast.Node {
	if block, ok := node.(*ast.Block); ok {
		out := make([]ast.Node, 0, len(block.Stmts))
		for _, s := range block.Stmts {
			out = append(out, flattenTopLevel(s.Get())...)
		}
		return out
	}
	return []ast.Node{node}
}

// Drive runs the cooperative fixpoint loop of spec.md §4.1/§6: pop
// entities in Check_Types (or Resolve_Symbols, treated identically
// here since external symbol resolution is a black box this scheduler
// assumes already ran), call check.CheckEntity, and requeue anything
// that isn't Finalized or Failed. A round that finalizes or fails
// nothing is a stuck cycle: cycle_detected is set on ctx and the round
// is re-run once so every still-stuck entity reports its yield as a
// hard error, matching spec.md's Progress guarantee (repeated rounds
// either complete, produce ≥1 hard error, or detect-then-error).
func Drive(engine types.Engine, sink *diag.Sink, opts check.Options, q *Queue) bool {
	ctx := check.NewContext(engine, sink, q, opts)

	for len(q.entities) > 0 {
		round := q.entities
		q.entities = nil

		progressed := false
		var stillPending []*check.Entity

		for _, e := range round {
			before := e.State
			check.CheckEntity(ctx, e)
			switch e.State {
			case check.StateFinalized, check.StateFailed:
				progressed = true
			default:
				if e.State != before {
					progressed = true
				}
				stillPending = append(stillPending, e)
			}
		}

		q.entities = append(q.entities, stillPending...)

		if !progressed && len(q.entities) > 0 {
			if ctx.CycleDetected {
				// Already gave the stuck entities one more round to
				// surface a hard error; if they're still here the
				// checker itself swallowed the yield, which is a bug
				// in a check_X procedure, not a schedulable condition.
				return !sink.HasErrors()
			}
			ctx.CycleDetected = true
		} else {
			ctx.CycleDetected = false
		}
	}

	return !sink.HasErrors()
}
