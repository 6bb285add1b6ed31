package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
)

// registerBoolean installs union/difference/intersection (spec §4.3: "all
// three skip None children"; difference/intersection with exactly one
// child return it unchanged rather than invoking a degenerate kernel
// boolean, per original_source's actual code path, spec §4 supplement).
func registerBoolean(b *builder) {
	b.mod("union", mkParams(), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		return dyn.EvalChildUnion()
	})

	b.mod("difference", mkParams(), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		n := dyn.ChildrenCount()
		if n == 0 {
			return nil, nil
		}
		base, err := dyn.EvalChild(0)
		if err != nil || n == 1 {
			return base, err
		}
		subs := make([]kernel.Shape, 0, n-1)
		for i := 1; i < n; i++ {
			s, err := dyn.EvalChild(i)
			if err != nil {
				return nil, err
			}
			subs = append(subs, s)
		}
		return kernel.Difference(base, subs...), nil
	})

	b.mod("intersection", mkParams(), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		n := dyn.ChildrenCount()
		if n <= 1 {
			if n == 0 {
				return nil, nil
			}
			return dyn.EvalChild(0)
		}
		shapes := make([]kernel.Shape, 0, n)
		for i := 0; i < n; i++ {
			s, err := dyn.EvalChild(i)
			if err != nil {
				return nil, err
			}
			shapes = append(shapes, s)
		}
		return kernel.Intersection(shapes...), nil
	})
}
