package kernel

import "math"

// Union returns the boolean union of shapes, skipping nils (spec §4.3:
// "All three skip None children").
func Union(shapes ...Shape) Shape {
	shapes = compact(shapes)
	if len(shapes) == 0 {
		return nil
	}
	if len(shapes) == 1 {
		return shapes[0]
	}
	bb := shapes[0].BoundingBox()
	solid := shapes[0].Solid()
	for _, s := range shapes[1:] {
		bb = bb.Union(s.BoundingBox())
	}
	return &node{
		kind: "union", bb: bb, solid: solid, exact: nan(),
		contains: func(p [3]float64) bool {
			for _, s := range shapes {
				if containsOf(s, p) {
					return true
				}
			}
			return false
		},
	}
}

// Difference returns base minus every subtrahend in order (spec §4.3,
// §4/§9: a single child returns that child unchanged).
func Difference(base Shape, subs ...Shape) Shape {
	if base == nil {
		return nil
	}
	subs = compact(subs)
	if len(subs) == 0 {
		return base
	}
	bb := base.BoundingBox()
	return &node{
		kind: "difference", bb: bb, solid: base.Solid(), exact: nan(),
		contains: func(p [3]float64) bool {
			if !containsOf(base, p) {
				return false
			}
			for _, s := range subs {
				if containsOf(s, p) {
					return false
				}
			}
			return true
		},
	}
}

// Intersection returns the boolean intersection of shapes, skipping nils.
func Intersection(shapes ...Shape) Shape {
	shapes = compact(shapes)
	if len(shapes) == 0 {
		return nil
	}
	if len(shapes) == 1 {
		return shapes[0]
	}
	bb := shapes[0].BoundingBox()
	solid := shapes[0].Solid()
	for _, s := range shapes[1:] {
		bb = intersectBBox(bb, s.BoundingBox())
	}
	return &node{
		kind: "intersection", bb: bb, solid: solid, exact: nan(),
		contains: func(p [3]float64) bool {
			for _, s := range shapes {
				if !containsOf(s, p) {
					return false
				}
			}
			return true
		},
	}
}

func compact(shapes []Shape) []Shape {
	out := shapes[:0:0]
	for _, s := range shapes {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func intersectBBox(a, b BBox) BBox {
	var out BBox
	for i := 0; i < 3; i++ {
		out.Min[i] = math.Max(a.Min[i], b.Min[i])
		out.Max[i] = math.Min(a.Max[i], b.Max[i])
		if out.Max[i] < out.Min[i] {
			out.Max[i] = out.Min[i]
		}
	}
	return out
}

// containsOf evaluates a shape's containment predicate, falling back to a
// bounding-box test for primitives that only carry a closed-form volume
// (e.g. a plain cube, which needs no predicate of its own).
func containsOf(s Shape, p [3]float64) bool {
	n, ok := s.(*node)
	if !ok {
		return false
	}
	if n.contains != nil {
		return n.contains(p)
	}
	bb := n.bb
	return p[0] >= bb.Min[0] && p[0] <= bb.Max[0] &&
		p[1] >= bb.Min[1] && p[1] <= bb.Max[1] &&
		p[2] >= bb.Min[2] && p[2] <= bb.Max[2]
}

// Translate moves s by v.
func Translate(s Shape, v [3]float64) Shape {
	if s == nil {
		return nil
	}
	bb := s.BoundingBox()
	nb := BBox{
		Min: [3]float64{bb.Min[0] + v[0], bb.Min[1] + v[1], bb.Min[2] + v[2]},
		Max: [3]float64{bb.Max[0] + v[0], bb.Max[1] + v[1], bb.Max[2] + v[2]},
	}
	return &node{
		kind: "translate", bb: nb, solid: s.Solid(), exact: exactOrNaN(s),
		contains: func(p [3]float64) bool {
			return containsOf(s, [3]float64{p[0] - v[0], p[1] - v[1], p[2] - v[2]})
		},
	}
}

func exactOrNaN(s Shape) float64 {
	if n, ok := s.(*node); ok && !math.IsNaN(n.exact) {
		return n.exact
	}
	return math.NaN()
}

// RotateAxis rotates s by angleDeg degrees around the given (unit-length
// after normalization) axis, using the Rodrigues rotation formula (spec
// §4.3: "rotate with axis v and scalar a rotates around arbitrary axis").
func RotateAxis(s Shape, axis [3]float64, angleDeg float64) Shape {
	if s == nil {
		return nil
	}
	l := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if l == 0 {
		return s
	}
	ax := [3]float64{axis[0] / l, axis[1] / l, axis[2] / l}
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)

	rotate := func(p [3]float64) [3]float64 {
		// Rodrigues' rotation formula: v_rot = v cosθ + (k×v) sinθ + k (k·v)(1-cosθ)
		kxv := [3]float64{
			ax[1]*p[2] - ax[2]*p[1],
			ax[2]*p[0] - ax[0]*p[2],
			ax[0]*p[1] - ax[1]*p[0],
		}
		kdotv := ax[0]*p[0] + ax[1]*p[1] + ax[2]*p[2]
		return [3]float64{
			p[0]*cos + kxv[0]*sin + ax[0]*kdotv*(1-cos),
			p[1]*cos + kxv[1]*sin + ax[1]*kdotv*(1-cos),
			p[2]*cos + kxv[2]*sin + ax[2]*kdotv*(1-cos),
		}
	}
	inv := func(p [3]float64) [3]float64 {
		// the inverse rotation is the same formula with -θ
		s2, c2 := math.Sin(-theta), math.Cos(-theta)
		kxv := [3]float64{
			ax[1]*p[2] - ax[2]*p[1],
			ax[2]*p[0] - ax[0]*p[2],
			ax[0]*p[1] - ax[1]*p[0],
		}
		kdotv := ax[0]*p[0] + ax[1]*p[1] + ax[2]*p[2]
		return [3]float64{
			p[0]*c2 + kxv[0]*s2 + ax[0]*kdotv*(1-c2),
			p[1]*c2 + kxv[1]*s2 + ax[1]*kdotv*(1-c2),
			p[2]*c2 + kxv[2]*s2 + ax[2]*kdotv*(1-c2),
		}
	}

	bb := s.BoundingBox()
	corners := bboxCorners(bb)
	nb := BBox{Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}, Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}}
	for _, c := range corners {
		r := rotate(c)
		for i := 0; i < 3; i++ {
			nb.Min[i] = math.Min(nb.Min[i], r[i])
			nb.Max[i] = math.Max(nb.Max[i], r[i])
		}
	}
	return &node{
		kind: "rotate", bb: nb, solid: s.Solid(), exact: exactOrNaN(s),
		contains: func(p [3]float64) bool { return containsOf(s, inv(p)) },
	}
}

func bboxCorners(bb BBox) [][3]float64 {
	out := make([][3]float64, 0, 8)
	for _, x := range [2]float64{bb.Min[0], bb.Max[0]} {
		for _, y := range [2]float64{bb.Min[1], bb.Max[1]} {
			for _, z := range [2]float64{bb.Min[2], bb.Max[2]} {
				out = append(out, [3]float64{x, y, z})
			}
		}
	}
	return out
}

// Scale scales s by v (per-axis).
func Scale(s Shape, v [3]float64) Shape {
	if s == nil {
		return nil
	}
	bb := s.BoundingBox()
	nb := BBox{
		Min: [3]float64{bb.Min[0] * v[0], bb.Min[1] * v[1], bb.Min[2] * v[2]},
		Max: [3]float64{bb.Max[0] * v[0], bb.Max[1] * v[1], bb.Max[2] * v[2]},
	}
	var exact float64 = math.NaN()
	if n, ok := s.(*node); ok && !math.IsNaN(n.exact) {
		exact = n.exact * v[0] * v[1] * v[2]
	}
	return &node{
		kind: "scale", bb: nb, solid: s.Solid(), exact: exact,
		contains: func(p [3]float64) bool {
			return containsOf(s, [3]float64{p[0] / v[0], p[1] / v[1], safeDiv(p[2], v[2])})
		},
	}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// Mirror reflects s across the plane through the origin with normal v.
func Mirror(s Shape, v [3]float64) Shape {
	if s == nil {
		return nil
	}
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return s
	}
	n := [3]float64{v[0] / l, v[1] / l, v[2] / l}
	reflect := func(p [3]float64) [3]float64 {
		d := 2 * (p[0]*n[0] + p[1]*n[1] + p[2]*n[2])
		return [3]float64{p[0] - d*n[0], p[1] - d*n[1], p[2] - d*n[2]}
	}
	bb := s.BoundingBox()
	corners := bboxCorners(bb)
	nb := BBox{Min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}, Max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}}
	for _, c := range corners {
		r := reflect(c)
		for i := 0; i < 3; i++ {
			nb.Min[i] = math.Min(nb.Min[i], r[i])
			nb.Max[i] = math.Max(nb.Max[i], r[i])
		}
	}
	return &node{
		kind: "mirror", bb: nb, solid: s.Solid(), exact: exactOrNaN(s),
		contains: func(p [3]float64) bool { return containsOf(s, reflect(p)) }, // reflection is its own inverse
	}
}

// Color wraps s without changing its geometry; color is display-only
// metadata and is not modeled by this reference kernel (spec §9).
func Color(s Shape) Shape { return s }

// LinearExtrude extrudes a 2D sketch to the given height, optionally
// twisting around Z as it rises and scaling its footprint linearly toward
// scaleTop (spec §4.3). Per the reference implementation's own behavior
// (spec §9 open question), combined twist+scale collapses to plain
// extrusion at the caller's discretion; this kernel supports the combined
// case directly since the point-containment model makes it no harder than
// either alone.
func LinearExtrude(sketch Shape, height, twistDeg, scaleTop float64) Shape {
	if sketch == nil {
		return nil
	}
	bb := sketch.BoundingBox()
	nb := BBox{Min: [3]float64{bb.Min[0], bb.Min[1], 0}, Max: [3]float64{bb.Max[0], bb.Max[1], height}}
	// account for footprint growth/shrink when locating the bounding box
	if scaleTop != 1 {
		cx, cy := (bb.Min[0]+bb.Max[0])/2, (bb.Min[1]+bb.Max[1])/2
		for _, s := range []float64{1, scaleTop} {
			nb.Min[0] = math.Min(nb.Min[0], cx+(bb.Min[0]-cx)*s)
			nb.Max[0] = math.Max(nb.Max[0], cx+(bb.Max[0]-cx)*s)
			nb.Min[1] = math.Min(nb.Min[1], cy+(bb.Min[1]-cy)*s)
			nb.Max[1] = math.Max(nb.Max[1], cy+(bb.Max[1]-cy)*s)
		}
	}
	return &node{
		kind: "linear_extrude", bb: nb, solid: true, exact: nan(),
		contains: func(p [3]float64) bool {
			if p[2] < 0 || p[2] > height {
				return false
			}
			t := p[2] / height
			scale := 1 + (scaleTop-1)*t
			theta := -twistDeg * t * math.Pi / 180
			// undo twist+scale to map back to the footprint's own frame
			x, y := p[0], p[1]
			cos, sin := math.Cos(-theta), math.Sin(-theta)
			rx := x*cos - y*sin
			ry := x*sin + y*cos
			if scale == 0 {
				return false
			}
			return containsOf(sketch, [3]float64{rx / scale, ry / scale, 0})
		},
	}
}

// RotateExtrude revolves a 2D sketch around the Y axis by angleDeg, then
// rotates the result 90° around X so the revolution lies in the XY plane,
// matching the reference implementation's coordinate convention (spec
// §4.3, §9).
func RotateExtrude(sketch Shape, angleDeg float64) Shape {
	if sketch == nil {
		return nil
	}
	bb := sketch.BoundingBox()
	rOuter := math.Max(math.Abs(bb.Min[0]), math.Abs(bb.Max[0]))
	nb := BBox{Min: [3]float64{-rOuter, -rOuter, bb.Min[1]}, Max: [3]float64{rOuter, rOuter, bb.Max[1]}}
	absAngle := math.Abs(angleDeg) * math.Pi / 180

	revolved := &node{
		kind: "rotate_extrude", bb: nb, solid: true, exact: nan(),
		contains: func(p [3]float64) bool {
			// pre-rotation frame: revolution is around Y, sketch lies on XY
			// (its local x maps to revolved radius, its local y maps to z).
			radius := math.Sqrt(p[0]*p[0] + p[2]*p[2])
			phi := math.Atan2(p[2], p[0])
			if phi < 0 {
				phi += 2 * math.Pi
			}
			if phi > absAngle {
				return false
			}
			return containsOf(sketch, [3]float64{radius, p[1], 0})
		},
	}
	out := RotateAxis(revolved, [3]float64{1, 0, 0}, 90)
	if angleDeg < 0 {
		out = RotateAxis(out, [3]float64{0, 0, 1}, angleDeg)
	}
	return out
}
