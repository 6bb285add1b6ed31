package builtins

import (
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/values"
)

// registerMods installs the built-in module surface of spec §6:
// primitives, transforms, boolean composition, extrusions, the control
// modules (for, intersection_for, children), and import().
func registerMods(b *builder) {
	registerPrimitives(b)
	registerTransforms(b)
	registerBoolean(b)
	registerExtrusions(b)
	registerControl(b)
}

func registerPrimitives(b *builder) {
	b.mod("cube", mkParams(withNum("size", 1), withBool("center", false)), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		sz := vec3Arg(dyn, "size", [3]float64{1, 1, 1})
		s := kernel.Box(sz[0], sz[1], sz[2])
		if boolArg(dyn, "center", false) {
			s = kernel.Translate(s, [3]float64{-sz[0] / 2, -sz[1] / 2, -sz[2] / 2})
		}
		dyn.Trace("cube", values.Shape{Shape: s})
		return s, nil
	})

	b.mod("sphere", mkParams(opt("r"), opt("d")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		r := resolveRadius(dyn, "sphere", "r", "d", 1)
		s := kernel.Sphere(r)
		dyn.Trace("sphere", values.Shape{Shape: s})
		return s, nil
	})

	b.mod("cylinder", mkParams(withNum("h", 1), opt("r"), opt("r1"), opt("r2"), opt("d"), opt("d1"), opt("d2"), withBool("center", false)),
		func(dyn *dynamic.Scope) (kernel.Shape, error) {
			h := numArg(dyn, "h", 1)
			r1, r2 := resolveCylinderRadii(dyn)
			s := kernel.Cylinder(h, r1, r2)
			if boolArg(dyn, "center", false) {
				s = kernel.Translate(s, [3]float64{0, 0, -h / 2})
			}
			dyn.Trace("cylinder", values.Shape{Shape: s})
			return s, nil
		})

	b.mod("square", mkParams(withNum("size", 1), withBool("center", false)), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		sz := vec3Arg(dyn, "size", [3]float64{1, 1, 0})
		s := kernel.Rectangle(sz[0], sz[1])
		if boolArg(dyn, "center", false) {
			s = kernel.Translate(s, [3]float64{-sz[0] / 2, -sz[1] / 2, 0})
		}
		return s, nil
	})

	b.mod("circle", mkParams(opt("r"), opt("d")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		r := resolveRadius(dyn, "circle", "r", "d", 1)
		return kernel.Circle(r), nil
	})

	b.mod("polygon", mkParams(req("points"), opt("paths")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		pointsV, err := dyn.Resolve("points")
		if err != nil {
			return nil, err
		}
		outer, holes := polygonLoops(dyn, pointsV)
		return kernel.Polygon(outer, holes), nil
	})

	b.mod("polyhedron", mkParams(req("points"), req("faces"), opt("convexity")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		pointsV, err := dyn.Resolve("points")
		if err != nil {
			return nil, err
		}
		facesV, err := dyn.Resolve("faces")
		if err != nil {
			return nil, err
		}
		pts := points3D(pointsV)
		faces := faceIndices(facesV)
		return kernel.Polyhedron(pts, faces), nil
	})

	b.mod("text", mkParams(req("t"), withNum("size", 10), opt("font"), withStr("halign", "left"), withStr("valign", "baseline"),
		withNum("spacing", 1), withStr("direction", "ltr"), opt("language"), opt("script")),
		func(dyn *dynamic.Scope) (kernel.Shape, error) {
			t := strArg(dyn, "t", "")
			size := numArg(dyn, "size", 10)
			dyn.Warn("text() glyph outlines are not modeled by the reference kernel, using a width estimate")
			return kernel.Text(float64(len([]rune(t)))*size*0.6, size), nil
		})

	b.mod("import", mkParams(req("name")), func(dyn *dynamic.Scope) (kernel.Shape, error) {
		name := strArg(dyn, "name", "")
		return importSTL(dyn, name)
	})
}

// resolveRadius picks between an r and a d parameter, warning when both
// are given and preferring d (matching the reference implementation's
// _Mods.sphere/circle ambiguity handling, spec §4 supplement).
func resolveRadius(dyn *dynamic.Scope, modName, rName, dName string, def float64) float64 {
	r, rok := numArgOk(dyn, rName)
	d, dok := numArgOk(dyn, dName)
	switch {
	case dok && rok:
		dyn.Warn("%s(): both %s and %s given, using %s", modName, rName, dName, dName)
		return d / 2
	case dok:
		return d / 2
	case rok:
		return r
	default:
		return def
	}
}

func resolveCylinderRadii(dyn *dynamic.Scope) (r1, r2 float64) {
	r1, r2 = 1, 1
	if r, ok := numArgOk(dyn, "r"); ok {
		r1, r2 = r, r
	}
	if d, ok := numArgOk(dyn, "d"); ok {
		if _, rok := numArgOk(dyn, "r"); rok {
			dyn.Warn("cylinder(): both r and d given, using d")
		}
		r1, r2 = d/2, d/2
	}
	if v, ok := numArgOk(dyn, "r1"); ok {
		r1 = v
	}
	if v, ok := numArgOk(dyn, "r2"); ok {
		r2 = v
	}
	if v, ok := numArgOk(dyn, "d1"); ok {
		if _, rok := numArgOk(dyn, "r1"); rok {
			dyn.Warn("cylinder(): both r1 and d1 given, using d1")
		}
		r1 = v / 2
	}
	if v, ok := numArgOk(dyn, "d2"); ok {
		if _, rok := numArgOk(dyn, "r2"); rok {
			dyn.Warn("cylinder(): both r2 and d2 given, using d2")
		}
		r2 = v / 2
	}
	return r1, r2
}

func polygonLoops(dyn *dynamic.Scope, pointsV values.Value) ([]kernel.Point2D, [][]kernel.Point2D) {
	pts := points2D(pointsV)
	pathsV, _ := dyn.Resolve("paths")
	paths, ok := pathsV.(values.Vector)
	if !ok || len(paths) == 0 {
		return pts, nil
	}
	loops := make([][]kernel.Point2D, 0, len(paths))
	for _, pathV := range paths {
		idxVec, ok := pathV.(values.Vector)
		if !ok {
			continue
		}
		loop := make([]kernel.Point2D, 0, len(idxVec))
		for _, iv := range idxVec {
			if f, ok := values.AsFloat(iv); ok {
				i := int(f)
				if i >= 0 && i < len(pts) {
					loop = append(loop, pts[i])
				}
			}
		}
		loops = append(loops, loop)
	}
	if len(loops) == 0 {
		return pts, nil
	}
	return loops[0], loops[1:]
}

func points2D(v values.Value) []kernel.Point2D {
	vec, ok := v.(values.Vector)
	if !ok {
		return nil
	}
	out := make([]kernel.Point2D, 0, len(vec))
	for _, pv := range vec {
		p, ok := pv.(values.Vector)
		if !ok || len(p) < 2 {
			continue
		}
		x, _ := values.AsFloat(p[0])
		y, _ := values.AsFloat(p[1])
		out = append(out, kernel.Point2D{X: x, Y: y})
	}
	return out
}

func points3D(v values.Value) []kernel.Point3D {
	vec, ok := v.(values.Vector)
	if !ok {
		return nil
	}
	out := make([]kernel.Point3D, 0, len(vec))
	for _, pv := range vec {
		p, ok := pv.(values.Vector)
		if !ok || len(p) < 3 {
			continue
		}
		x, _ := values.AsFloat(p[0])
		y, _ := values.AsFloat(p[1])
		z, _ := values.AsFloat(p[2])
		out = append(out, kernel.Point3D{X: x, Y: y, Z: z})
	}
	return out
}

func faceIndices(v values.Value) [][]int {
	vec, ok := v.(values.Vector)
	if !ok {
		return nil
	}
	out := make([][]int, 0, len(vec))
	for _, fv := range vec {
		idxVec, ok := fv.(values.Vector)
		if !ok {
			continue
		}
		face := make([]int, 0, len(idxVec))
		for _, iv := range idxVec {
			if f, ok := values.AsFloat(iv); ok {
				face = append(face, int(f))
			}
		}
		out = append(out, face)
	}
	return out
}
