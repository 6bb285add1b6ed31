package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/values"
)

// numArg resolves a bound parameter as a float, returning def if it is
// undef, unbound, or non-numeric.
func numArg(dyn *dynamic.Scope, name string, def float64) float64 {
	v, err := dyn.Resolve(name)
	if err != nil {
		return def
	}
	f, ok := values.AsFloat(v)
	if !ok {
		return def
	}
	return f
}

// numArgOk is like numArg but reports whether the parameter was actually
// bound to a number (as opposed to falling back to def), for built-ins
// that must distinguish "not given" from "given as zero" (the r/d
// disambiguation, spec §4).
func numArgOk(dyn *dynamic.Scope, name string) (float64, bool) {
	v, err := dyn.Resolve(name)
	if err != nil {
		return 0, false
	}
	return values.AsFloat(v)
}

func boolArg(dyn *dynamic.Scope, name string, def bool) bool {
	v, err := dyn.Resolve(name)
	if err != nil {
		return def
	}
	if _, ok := v.(values.Undef); ok {
		return def
	}
	return v.Truth()
}

func strArg(dyn *dynamic.Scope, name, def string) string {
	v, err := dyn.Resolve(name)
	if err != nil {
		return def
	}
	s, ok := v.(values.String)
	if !ok {
		return def
	}
	return string(s)
}

// vec3Arg resolves a parameter that may be a scalar (uniform on all three
// axes, OpenSCAD-style) or a up-to-3-element Vector, missing trailing
// components falling back to def's.
func vec3Arg(dyn *dynamic.Scope, name string, def [3]float64) [3]float64 {
	v, err := dyn.Resolve(name)
	if err != nil {
		return def
	}
	return toVec3(v, def)
}

func toVec3(v values.Value, def [3]float64) [3]float64 {
	switch x := v.(type) {
	case values.Vector:
		out := def
		for i := 0; i < len(x) && i < 3; i++ {
			if f, ok := values.AsFloat(x[i]); ok {
				out[i] = f
			}
		}
		return out
	default:
		if f, ok := values.AsFloat(v); ok {
			return [3]float64{f, f, f}
		}
	}
	return def
}

// rawArgs returns every raw positional argument of the current call
// (pre-declared-parameter-name filtering), for built-ins like echo() that
// accept an arbitrary number of arguments.
func rawArgs(dyn *dynamic.Scope) []values.Value {
	pos, _ := dyn.Args()
	return pos
}
