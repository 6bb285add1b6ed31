// Package preload lets a Go embedder extend or override the built-in
// function/module surface before any user source is lowered (spec §6's
// preload hook; SPEC_FULL.md §2's library-caller API). It reuses the same
// static.Scope/dynamic.Registry pairing lang/builtins wires its own
// closures into, so a preloaded name behaves exactly like a built-in one:
// the static pass sees a Native FunctionDef/ModuleDef, the dynamic pass
// dispatches to the registered Go closure.
package preload

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/static"
)

// Hook registers additional or overriding functions/modules into a root
// static.Scope and dynamic.Registry pair, typically the ones lang/builtins
// itself produced via builtins.Root().
type Hook struct {
	Root     *static.Scope
	Registry *dynamic.Registry
}

// NewHook wraps an existing root scope and registry for preload
// registration, e.g. the pair returned by builtins.Root().
func NewHook(root *static.Scope, reg *dynamic.Registry) *Hook {
	return &Hook{Root: root, Registry: reg}
}

// Func installs or replaces a native function named name.
func (h *Hook) Func(name string, params static.Params, f dynamic.FuncBuiltin) {
	h.Root.Funcs[name] = &static.FunctionDef{Name: name, Params: params, DefiningScope: h.Root, Native: true}
	h.Registry.Funcs[name] = f
}

// Module installs or replaces a native module named name.
func (h *Hook) Module(name string, params static.Params, f dynamic.ModBuiltin) {
	h.Root.Mods[name] = &static.ModuleDef{Name: name, Params: params, DefiningScope: h.Root, Native: true}
	h.Registry.Mods[name] = f
}
