package check

import (
	"github.com/sunholo/onyxcheck/internal/ast"
	"github.com/sunholo/onyxcheck/internal/diag"
	"github.com/sunholo/onyxcheck/internal/resolve"
	"github.com/sunholo/onyxcheck/internal/types"
)

// CheckingLevel distinguishes statement position from expression
// position (spec.md §3: "disallows assignments in expression position").
type CheckingLevel int

const (
	LevelStatement CheckingLevel = iota
	LevelExpression
)

// ReturnSlot is the checker's Go rendering of the source's
// `Type** expected_return_type` — a function body needs to *rewrite*
// its header's return type the first time it sees `return expr` while
// that type is still the AutoReturn sentinel (spec.md §4.2, "Auto-return").
// A plain *types.Type local can't be reassigned through two levels of
// nesting the way C's double pointer can, so this indirection plays
// the same role explicitly.
type ReturnSlot struct{ T types.Type }

// Options carries the configuration flags spec.md §6 calls out:
// context.options.print_static_if_results and
// context.options.no_file_contents.
type Options struct {
	PrintStaticIfResults bool
	NoFileContents       bool
}

// Context replaces the source's hand-written global mutable state
// (Design Notes §9) with one explicit value threaded through every
// check_X call. The save/restore discipline the source writes by hand
// around speculative sections becomes ordinary scoped mutation of a
// local copy: `sub := *ctx; sub.AllChecksAreFinal = false; check(&sub)`.
type Context struct {
	Engine types.Engine
	Sink   *diag.Sink
	Sched  Scheduler

	Options Options

	// ExpectedReturnType points at the enclosing function's return
	// type slot so it can be rewritten when AutoReturn resolves.
	ExpectedReturnType *ReturnSlot

	// InsideForIterator is true within a for-body whose iterable is an
	// Iterator instance; controls #remove's legality (spec.md §4.4, §4.8).
	InsideForIterator bool

	// ExpressionTypesMustBeKnown: when true, a typeless expression is a
	// hard error rather than a yield.
	ExpressionTypesMustBeKnown bool

	// AllChecksAreFinal: when false, the checker may be speculatively
	// probing (e.g. for operator-overload resolution) and must not mark
	// nodes Has_Been_Checked (spec.md §3 invariant 4).
	AllChecksAreFinal bool

	// CurrentCheckingLevel disallows assignments in expression position.
	CurrentCheckingLevel CheckingLevel

	// CycleDetected is set by the scheduler when a full round made no
	// progress; it promotes YIELD/YIELD_ERROR into hard Error (spec.md §4.1).
	CycleDetected bool

	Scope *resolve.Scope

	// Entity is the work item currently being checked, threaded through
	// so a #static_if (or any other directive that introduces new
	// top-level constructs) can hand fresh entities to the Scheduler
	// under the right parent.
	Entity *Entity

	// InitProcedures is the global `init_procedures` list spec.md §4.8
	// describes: every #init node appends its function here once its
	// own dependencies finalize. A pointer-to-slice so it stays shared
	// across every Fork()'d sub-context, the same indirection ReturnSlot
	// uses to share the auto-return type across nested body contexts.
	InitProcedures *[]*ast.Function
}

// NewContext builds the top-level context an entity is first checked
// under: all checks final, statement level, no enclosing return type.
func NewContext(engine types.Engine, sink *diag.Sink, sched Scheduler, opts Options) *Context {
	inits := make([]*ast.Function, 0)
	return &Context{
		Engine:               engine,
		Sink:                 sink,
		Sched:                sched,
		Options:              opts,
		AllChecksAreFinal:    true,
		CurrentCheckingLevel: LevelStatement,
		Scope:                resolve.NewScope(nil),
		InitProcedures:       &inits,
	}
}

// Fork returns a shallow copy of ctx for scoped mutation — the
// replacement for the source's manual store/mutate/restore dance
// around speculative or nested-context sections.
func (ctx *Context) Fork() *Context {
	sub := *ctx
	return &sub
}

// WithScope forks ctx with a fresh child scope.
func (ctx *Context) WithScope() *Context {
	sub := ctx.Fork()
	sub.Scope = resolve.NewScope(ctx.Scope)
	return sub
}

// Probing forks ctx into a speculative sub-context: checks performed
// under it must not mark nodes Has_Been_Checked (AllChecksAreFinal =
// false) and report into an isolated diag.Probe rather than ctx.Sink.
func (ctx *Context) Probing() (*Context, *diag.Probe) {
	probe := ctx.Sink.BeginProbe()
	sub := ctx.Fork()
	sub.AllChecksAreFinal = false
	sub.Sink = probe.Sink()
	return sub, probe
}

// Yield is the source's YIELD(loc, msg) macro (spec.md §4.1): normally
// it requeues the entity, but once the scheduler has observed a full
// cycle with no progress, the same condition becomes a hard error so
// the user sees a message instead of a livelock.
func (ctx *Context) Yield(code diag.Code, pos ast.Pos, format string, args ...any) Status {
	if ctx.CycleDetected {
		ctx.Sink.Error(code, pos, format, args...)
		return Error
	}
	return YieldMacro
}

// YieldError is the source's YIELD_ERROR(loc, msg). It delegates to
// Yield and behaves identically: a yield while cycle_detected is unset,
// a reported error once it fires.
func (ctx *Context) YieldError(code diag.Code, pos ast.Pos, format string, args ...any) Status {
	return ctx.Yield(code, pos, format, args...)
}

// ReportError is the source's ERROR(loc, msg): always a hard error.
func (ctx *Context) ReportError(code diag.Code, pos ast.Pos, format string, args ...any) Status {
	ctx.Sink.Error(code, pos, format, args...)
	return Error
}
