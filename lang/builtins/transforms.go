package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/values"
)

func registerTransforms(b *builder) {
	b.mod("translate", mkParams(req("v")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		v := vec3Arg(dyn, "v", [3]float64{0, 0, 0})
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		s := kernel.Translate(child, v)
		dyn.Trace("translate", values.Shape{Shape: s})
		return s, nil
	})

	b.mod("rotate", mkParams(withNum("a", 0), opt("v")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		vVal, _ := dyn.Resolve("v")
		if vec, ok := vVal.(values.Vector); ok && len(vec) == 3 {
			// axis + scalar angle form: rotate around an arbitrary axis
			// (spec §4.3's Rodrigues path; axis-aligned axes need no special
			// case since kernel.RotateAxis already normalizes its axis).
			angle := numArg(dyn, "a", 0)
			axis := toVec3(vec, [3]float64{0, 0, 1})
			s := kernel.RotateAxis(child, axis, angle)
			dyn.Trace("rotate", values.Shape{Shape: s})
			return s, nil
		}
		// no axis given: a is either a scalar (rotate around Z) or a 3-vector
		// of X,Y,Z angles composed in order (spec §4.3).
		aVal, _ := dyn.Resolve("a")
		if vec, ok := aVal.(values.Vector); ok {
			angles := toVec3(vec, [3]float64{0, 0, 0})
			s := child
			s = kernel.RotateAxis(s, [3]float64{1, 0, 0}, angles[0])
			s = kernel.RotateAxis(s, [3]float64{0, 1, 0}, angles[1])
			s = kernel.RotateAxis(s, [3]float64{0, 0, 1}, angles[2])
			dyn.Trace("rotate", values.Shape{Shape: s})
			return s, nil
		}
		s := kernel.RotateAxis(child, [3]float64{0, 0, 1}, numArg(dyn, "a", 0))
		dyn.Trace("rotate", values.Shape{Shape: s})
		return s, nil
	})

	b.mod("scale", mkParams(req("v")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		v := vec3Arg(dyn, "v", [3]float64{1, 1, 1})
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		return kernel.Scale(child, v), nil
	})

	b.mod("mirror", mkParams(req("v")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		v := vec3Arg(dyn, "v", [3]float64{1, 0, 0})
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		return kernel.Mirror(child, v), nil
	})

	b.mod("color", mkParams(opt("c"), opt("a")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		return kernel.Color(child), nil
	})
}
