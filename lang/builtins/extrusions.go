package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
)

func registerExtrusions(b *builder) {
	b.mod("linear_extrude", mkParams(req("height"), withBool("center", false), opt("convexity"),
		withNum("twist", 0), withNum("slices", 0), withNum("scale", 1)),
		func(dyn *dynamic.Scope) (kernel.Shape, error) {
			child, err := dyn.EvalChildUnion()
			if err != nil || child == nil {
				return child, err
			}
			height := numArg(dyn, "height", 1)
			twist := numArg(dyn, "twist", 0)
			scale := numArg(dyn, "scale", 1)
			if twist != 0 && scale != 1 {
				// the reference implementation warns and silently ignores
				// scale in this combination (spec §9 open question, resolved
				// toward matching the original rather than the more general
				// kernel.LinearExtrude, which does support both at once).
				dyn.Warn("linear_extrude(): twist and scale given together, ignoring scale")
				scale = 1
			}
			s := kernel.LinearExtrude(child, height, twist, scale)
			if boolArg(dyn, "center", false) {
				s = kernel.Translate(s, [3]float64{0, 0, -height / 2})
			}
			dyn.Trace("linear_extrude", shapeValue(s))
			return s, nil
		})

	b.mod("rotate_extrude", mkParams(withNum("angle", 360), opt("convexity")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		child, err := dyn.EvalChildUnion()
		if err != nil || child == nil {
			return child, err
		}
		angle := numArg(dyn, "angle", 360)
		s := kernel.RotateExtrude(child, angle)
		dyn.Trace("rotate_extrude", shapeValue(s))
		return s, nil
	})
}
