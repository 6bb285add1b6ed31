package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/values"
)

// registerControl installs the control modules for/intersection_for and
// children(). The two loop modules read the caller's raw keyword
// arguments rather than a fixed parameter list; children() takes one
// optional parameter, i.
func registerControl(b *builder) {
	b.mod("for", mkParams(), loopBuiltin(false))
	b.mod("intersection_for", mkParams(), loopBuiltin(true))

	b.mod("children", mkParams(opt("i")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		iv, err := dyn.Resolve("i")
		if err != nil {
			return nil, err
		}
		// children() has no child block of its own; it reads the children
		// captured by the enclosing module invocation, which live on the
		// calling scope (the Caller field this call was dispatched from), not
		// on this call's own (always childless) scope.
		caller := dyn.Caller
		if _, isUndef := iv.(values.Undef); isUndef {
			return caller.EvalChildUnion()
		}
		f, ok := values.AsFloat(iv)
		if !ok {
			return nil, nil
		}
		return caller.EvalChild(int(f))
	})
}

// loopBuiltin builds for()/intersection_for(): each keyword argument names
// a loop variable ranging over a Vector or Range; the child is built once
// per tuple of the Cartesian product of all loop variables and the
// results combined by union (for) or intersection (intersection_for),
// grounded on original_source's recursive `_for(**vs)` (spec §4 supplement).
func loopBuiltin(intersect bool) dynamic.ModBuiltin {
	return func(dyn *dynamic.Scope) (kernel.Shape, error) {
		_, kw := dyn.Args()
		if len(kw) == 0 {
			return dyn.EvalChildUnion()
		}
		var shapes []kernel.Shape
		for _, tuple := range loopTuples(kw) {
			iter := dyn.WithBindings(tuple)
			s, err := iter.EvalChildUnion()
			if err != nil {
				return nil, err
			}
			if s != nil {
				shapes = append(shapes, s)
			}
		}
		if intersect {
			return kernel.Intersection(shapes...), nil
		}
		return kernel.Union(shapes...), nil
	}
}

type loopAxis struct {
	name string
	vals []values.Value
}

// loopTuples expands kw into every combination of its loop variables'
// member values. Map iteration order over kw is not source order (Go maps
// don't preserve insertion order); since union/intersection are
// commutative this does not change the resulting shape, only the (here
// unobserved) order in which tuples are built.
func loopTuples(kw map[string]values.Value) []map[string]values.Value {
	axes := make([]loopAxis, 0, len(kw))
	for name, v := range kw {
		axes = append(axes, loopAxis{name: name, vals: loopValues(v)})
	}
	var out []map[string]values.Value
	var rec func(i int, acc map[string]values.Value)
	rec = func(i int, acc map[string]values.Value) {
		if i == len(axes) {
			cp := make(map[string]values.Value, len(acc))
			for k, v := range acc {
				cp[k] = v
			}
			out = append(out, cp)
			return
		}
		for _, v := range axes[i].vals {
			acc[axes[i].name] = v
			rec(i+1, acc)
		}
	}
	rec(0, map[string]values.Value{})
	return out
}

func loopValues(v values.Value) []values.Value {
	switch x := v.(type) {
	case values.Vector:
		return x
	case values.Range:
		fs := x.Values()
		out := make([]values.Value, len(fs))
		for i, f := range fs {
			out[i] = values.Number(f)
		}
		return out
	default:
		return []values.Value{v}
	}
}
