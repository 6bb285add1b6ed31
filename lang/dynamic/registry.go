package dynamic

import (
	"io"
	"os"

	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/trace"
	"github.com/mna/sdlcad/lang/values"
)

// FuncBuiltin is a built-in or preload-injected SDL function, called with
// its own fresh call scope already populated with bound arguments (spec
// §4.2's "call it with the current dynamic scope bound as implicit
// receiver").
type FuncBuiltin func(dyn *Scope) (values.Value, error)

// ModBuiltin is a built-in or preload-injected SDL module.
type ModBuiltin func(dyn *Scope) (kernel.Shape, error)

// Registry is the fixed table of built-in functions and modules (spec
// §2's "built-in registry"), keyed by name. Entries here back any
// static.FunctionDef/ModuleDef marked Native.
type Registry struct {
	Funcs map[string]FuncBuiltin
	Mods  map[string]ModBuiltin
}

// NewRegistry returns a Registry with empty Funcs and Mods maps.
func NewRegistry() *Registry {
	return &Registry{Funcs: map[string]FuncBuiltin{}, Mods: map[string]ModBuiltin{}}
}

// Evaluator bundles the services shared by every Scope in one evaluation
// run: the built-in registry, the warning sink, the trace sink, and the
// process-wide current-environment slot (spec §5).
type Evaluator struct {
	Registry *Registry
	Warn     errs.WarnFunc
	Trace    trace.Sink

	// Stdout is where echo() (spec §7) writes. If nil, os.Stdout is used,
	// mirroring the teacher's Thread.Stdout default.
	Stdout io.Writer

	current *Scope
}

// NewEvaluator returns an Evaluator wired with reg (never nil; use
// NewRegistry() for an empty one).
func NewEvaluator(reg *Registry, warn errs.WarnFunc, sink trace.Sink) *Evaluator {
	return &Evaluator{Registry: reg, Warn: warn, Trace: sink}
}

func (ev *Evaluator) stdout() io.Writer {
	if ev.Stdout != nil {
		return ev.Stdout
	}
	return os.Stdout
}
