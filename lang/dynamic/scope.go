// Package dynamic implements the dynamic evaluation pass (spec §4.2-§4.4):
// expression evaluation, module-call building, argument binding, and
// `$`-prefixed dynamic scoping, all layered over the static.Scope tree
// built by lang/static.
package dynamic

import (
	"io"

	"github.com/dolthub/swiss"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/trace"
	"github.com/mna/sdlcad/lang/values"
)

type evalState int

const (
	unevaluated evalState = iota
	inProgress
	evaluated
)

type binding struct {
	state evalState
	value values.Value
}

// childSlot is one memoized entry of a Scope's child cache (spec §3's
// "sparse array of Evaluated(Shape?) | Unevaluated").
type childSlot struct {
	built bool
	shape kernel.Shape
}

// Scope is one dynamic evaluation frame (spec §3's DynamicScope).
//
// Two distinct parent-like links are threaded through every Scope:
//   - Lexical points to the dynamic instance whose Static is this scope's
//     Static.Parent, within the *same* evaluation tree. It lets variable
//     lookups climb the static chain while still landing on a stable,
//     memoizing Scope instance per (static scope, invocation) pair — a
//     mechanism the spec's prose implies (lazy, memoized, cycle-detecting
//     lookup) but does not name; see DESIGN.md.
//   - Caller is the dynamic scope that invoked this one, used purely for
//     `$`-variable resolution (spec §3, §4.2, §9).
type Scope struct {
	Static    *static.Scope
	Lexical   *Scope
	Caller    *Scope
	Child     *ChildRef
	Evaluator *Evaluator

	// values is the per-scope variable binding cache (spec §3's EvalState
	// map), looked up on every pr_Sym reference; backed by a swiss-table
	// hash map for the same hot-path reason the teacher's lang/machine.Map
	// uses one for its dict value.
	values     *swiss.Map[string, *binding]
	childCache []childSlot

	// rawPos/rawKw carry this call's evaluated arguments before declared-
	// parameter filtering, for built-ins whose parameter names aren't known
	// ahead of time (e.g. for/intersection_for's loop variables; spec §4.3).
	rawPos []values.Value
	rawKw  map[string]values.Value
}

// ChildRef is the captured child block of the module call that produced
// this Scope (spec §3's `child: Option<WorkItem | StaticScope>`).
type ChildRef struct {
	// Scope is set when the child was a brace-delimited block; its Work
	// list is the sequence of children. Caller is the dynamic scope
	// active at the call site, which children() must build against.
	Scope  *static.Scope
	Caller *Scope

	// Item/ItemCaller are set instead of Scope/Caller when the child was a
	// single bare sub-invocation (`foo() bar();`).
	Item       *static.WorkItem
	ItemCaller *Scope
}

// Len reports how many children this ref exposes to children(i).
func (c *ChildRef) Len() int {
	if c == nil {
		return 0
	}
	if c.Scope != nil {
		return len(c.Scope.Work)
	}
	if c.Item != nil {
		return 1
	}
	return 0
}

func newScope(static_ *static.Scope, lexical, caller *Scope, child *ChildRef, ev *Evaluator) *Scope {
	return &Scope{
		Static:    static_,
		Lexical:   lexical,
		Caller:    caller,
		Child:     child,
		Evaluator: ev,
		values:    swiss.NewMap[string, *binding](4),
	}
}

// NewRoot creates the single top-level dynamic scope for a program run,
// threading a Lexical chain up through root's static ancestors (normally
// just the built-ins root) so instanceFor can still find a canonical
// instance for names declared there (spec §2's root environment).
func NewRoot(root *static.Scope, ev *Evaluator) *Scope {
	var lexical *Scope
	if root.Parent != nil {
		lexical = NewRoot(root.Parent, ev)
	}
	return newScope(root, lexical, nil, nil, ev)
}

// WithBindings returns a sibling call scope sharing d's static scope and
// lexical/caller chain, but with its own evaluated variable bindings
// pre-populated from vars and its own captured child block — used by
// for()/intersection_for() to build the child block once per loop tuple
// (spec §4.3), each tuple getting both a fresh childCache and a child
// block that evaluates against the tuple's own bindings (the loop
// variable must be visible to the captured child's expressions, e.g.
// `for (x = [0:2]) translate([x, 0, 0]) ...`).
func (d *Scope) WithBindings(vars map[string]values.Value) *Scope {
	s := newScope(d.Static, d.Lexical, d.Caller, nil, d.Evaluator)
	for name, v := range vars {
		s.values.Put(name, &binding{state: evaluated, value: v})
	}
	if d.Child != nil {
		child := *d.Child
		if child.Scope != nil {
			child.Caller = s
		}
		if child.Item != nil {
			child.ItemCaller = s
		}
		s.Child = &child
	}
	return s
}

// instanceFor climbs the Lexical chain until it finds the Scope instance
// whose Static is target, or nil if none exists (a static-tree bug).
func (d *Scope) instanceFor(target *static.Scope) *Scope {
	s := d
	for s != nil && s.Static != target {
		s = s.Lexical
	}
	return s
}

// childScope creates a nested Scope sharing this invocation's Caller and
// Child context, for a brace-block inlined into the same build (spec
// §3's Scope work item — lexical grouping, not a new module call).
func (d *Scope) childScope(inner *static.Scope) *Scope {
	return newScope(inner, d, d.Caller, d.Child, d.Evaluator)
}

func (d *Scope) file() string { return "" } // ast.Node carries no filename; see DESIGN.md.

func (d *Scope) errorf(kind errs.Kind, n *ast.Node, format string, args ...any) error {
	line, col := 0, 0
	if n != nil {
		line, col = n.Pos.LineCol()
	}
	return errs.New(kind, d.file(), line, col, format, args...)
}

func (d *Scope) warnf(n *ast.Node, format string, args ...any) {
	line, col := 0, 0
	if n != nil {
		line, col = n.Pos.LineCol()
	}
	errs.Warnf(d.Evaluator.Warn, d.file(), line, col, format, args...)
}

func (d *Scope) tracef(label string, v values.Value) {
	if d.Evaluator.Trace == nil {
		return
	}
	dollarTrace, _ := d.lookupDollar("$trace")
	if dollarTrace == nil || !dollarTrace.Truth() {
		return
	}
	d.Evaluator.Trace.Emit(trace.Entry{Label: label, Value: v.String()})
}

func (d *Scope) lookupDollar(name string) (values.Value, bool) {
	v, err := d.Resolve(name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Warn emits a non-fatal warning from a built-in (spec §7); built-ins have
// no parse-node position of their own to attach, so it is reported at the
// call's implicit position.
func (d *Scope) Warn(format string, args ...any) {
	d.warnf(nil, format, args...)
}

// Errorf builds a typed *errs.Error for a built-in to return, positioned
// like Warn.
func (d *Scope) Errorf(kind errs.Kind, format string, args ...any) error {
	return d.errorf(kind, nil, format, args...)
}

// Trace emits a $trace entry labeled label for v, a no-op unless $trace is
// truthy in the current dynamic chain (spec §6).
func (d *Scope) Trace(label string, v values.Value) {
	d.tracef(label, v)
}

// Stdout returns the writer echo() (spec §7) should write to, defaulting
// to os.Stdout when the Evaluator has none configured.
func (d *Scope) Stdout() io.Writer {
	return d.Evaluator.stdout()
}

// Args returns this call's raw evaluated positional and keyword arguments,
// before declared-parameter filtering.
func (d *Scope) Args() ([]values.Value, map[string]values.Value) {
	return d.rawPos, d.rawKw
}
