package builtins

import (
	"github.com/mna/sdlcad/lang/config"
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/static"
	"github.com/mna/sdlcad/lang/values"
)

// shapeValue wraps a possibly-nil kernel.Shape as a values.Value for
// tracing (spec §6's "$trace" labeled assignments).
func shapeValue(s kernel.Shape) values.Value {
	return values.Shape{Shape: s}
}

// builder wires a single native name into both the static root scope (so
// LookupFunc/LookupMod and argument-arity bookkeeping work exactly like a
// user declaration) and the dynamic registry (so the Native dispatch in
// lang/dynamic finds the actual Go closure), keeping the two in lockstep.
type builder struct {
	root *static.Scope
	reg  *dynamic.Registry
}

func (b *builder) fn(name string, params static.Params, f dynamic.FuncBuiltin) {
	b.root.Funcs[name] = &static.FunctionDef{Name: name, Params: params, DefiningScope: b.root, Native: true}
	b.reg.Funcs[name] = f
}

func (b *builder) mod(name string, params static.Params, f dynamic.ModBuiltin) {
	b.root.Mods[name] = &static.ModuleDef{Name: name, Params: params, DefiningScope: b.root, Native: true}
	b.reg.Mods[name] = f
}

// Root returns a fresh static root scope and dynamic registry with the
// full built-in function/module surface of spec §6 installed, ready to be
// handed to static.Lower as builtinsRoot and to dynamic.NewEvaluator as
// the Registry (spec §2's "built-in registry ... wired into the root
// static environment").
func Root() (*static.Scope, *dynamic.Registry) {
	root := static.NewRootScope()
	reg := dynamic.NewRegistry()
	b := &builder{root: root, reg: reg}

	installDefaultVars(root)
	registerFuncs(b)
	registerMods(b)

	return root, reg
}

// installDefaultVars installs the default $-variables of spec §6 directly
// as root-scope var expressions ($children is computed dynamically by
// lang/dynamic.Resolve instead, see DESIGN.md).
func installDefaultVars(root *static.Scope) {
	root.Vars["$fn"] = numLit(999)
	root.Vars["$fa"] = numLit(0.001)
	root.Vars["$fs"] = numLit(0.001)
	root.Vars["$t"] = numLit(0)
	root.Vars["$preview"] = boolLit(false)
	root.Vars["$trace"] = boolLit(false)
}

// Configure applies cfg's overrides onto root, replacing the defaults
// installDefaultVars set: Fn/Fa/Fs override spec §6's `$fn`/`$fa`/`$fs`,
// and Trace sets `$trace` to true. A zero field means "not overridden",
// per config.Config's own doc comment, so it's left untouched.
func Configure(root *static.Scope, cfg config.Config) {
	if cfg.Trace {
		root.Vars["$trace"] = boolLit(true)
	}
	if cfg.Fn != 0 {
		root.Vars["$fn"] = numLit(cfg.Fn)
	}
	if cfg.Fa != 0 {
		root.Vars["$fa"] = numLit(cfg.Fa)
	}
	if cfg.Fs != 0 {
		root.Vars["$fs"] = numLit(cfg.Fs)
	}
}
