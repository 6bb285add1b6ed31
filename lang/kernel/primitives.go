package kernel

import "math"

// Box returns an axis-aligned box of the given dimensions with one corner
// at the origin (callers translate to center it, matching spec §6's
// cube(size, center)).
func Box(x, y, z float64) Shape {
	bb := BBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{x, y, z}}
	return &node{kind: "cube", bb: bb, solid: true, exact: x * y * z}
}

// Sphere returns a sphere of radius r centered at the origin.
func Sphere(r float64) Shape {
	bb := BBox{Min: [3]float64{-r, -r, -r}, Max: [3]float64{r, r, r}}
	return &node{
		kind: "sphere", bb: bb, solid: true,
		exact: 4.0 / 3.0 * math.Pi * r * r * r,
		contains: func(p [3]float64) bool {
			return p[0]*p[0]+p[1]*p[1]+p[2]*p[2] <= r*r
		},
	}
}

// Cylinder returns a (possibly conical, when r1 != r2) cylinder of height h
// standing on the XY plane, base radius r1, top radius r2.
func Cylinder(h, r1, r2 float64) Shape {
	rmax := math.Max(r1, r2)
	bb := BBox{Min: [3]float64{-rmax, -rmax, 0}, Max: [3]float64{rmax, rmax, h}}
	n := &node{kind: "cylinder", bb: bb, solid: true, exact: nan()}
	n.contains = func(p [3]float64) bool {
		if p[2] < 0 || p[2] > h {
			return false
		}
		r := r1 + (r2-r1)*(p[2]/h)
		return p[0]*p[0]+p[1]*p[1] <= r*r
	}
	if r1 == r2 {
		n.exact = math.Pi * r1 * r1 * h
	} else {
		// Frustum volume, closed form.
		n.exact = math.Pi * h / 3 * (r1*r1 + r1*r2 + r2*r2)
	}
	return n
}

// Circle returns a 2D disc of radius r on the XY plane (a sketch: Solid()
// is false, Volume() is always zero per spec §4.3's 2D/3D distinction).
func Circle(r float64) Shape {
	bb := BBox{Min: [3]float64{-r, -r, 0}, Max: [3]float64{r, r, 0}}
	return &node{
		kind: "circle", bb: bb, solid: false, exact: nan(),
		contains: func(p [3]float64) bool { return p[0]*p[0]+p[1]*p[1] <= r*r },
	}
}

// Rectangle returns a 2D rectangle with one corner at the origin.
func Rectangle(x, y float64) Shape {
	bb := BBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{x, y, 0}}
	return &node{kind: "square", bb: bb, solid: false, exact: nan(),
		contains: func(p [3]float64) bool { return p[0] >= 0 && p[0] <= x && p[1] >= 0 && p[1] <= y }}
}

// Point2D is a 2D point used by Polygon.
type Point2D struct{ X, Y float64 }

// Polygon returns a 2D sketch bounded by outer (and, if present, inner
// hole loops). Winding order is not validated (spec §9 open question).
func Polygon(outer []Point2D, holes [][]Point2D) Shape {
	bb := bboxOfPoints(outer)
	for _, h := range holes {
		bb = bb.Union(bboxOfPoints(h))
	}
	return &node{
		kind: "polygon", bb: bb, solid: false, exact: nan(),
		contains: func(p [3]float64) bool {
			pt := Point2D{p[0], p[1]}
			if !pointInPolygon(pt, outer) {
				return false
			}
			for _, h := range holes {
				if pointInPolygon(pt, h) {
					return false
				}
			}
			return true
		},
	}
}

func bboxOfPoints(pts []Point2D) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	bb := BBox{Min: [3]float64{pts[0].X, pts[0].Y, 0}, Max: [3]float64{pts[0].X, pts[0].Y, 0}}
	for _, p := range pts[1:] {
		bb.Min[0] = min(bb.Min[0], p.X)
		bb.Min[1] = min(bb.Min[1], p.Y)
		bb.Max[0] = max(bb.Max[0], p.X)
		bb.Max[1] = max(bb.Max[1], p.Y)
	}
	return bb
}

// pointInPolygon implements the standard ray-casting test.
func pointInPolygon(p Point2D, poly []Point2D) bool {
	in := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) &&
			p.X < (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y)+a.X {
			in = !in
		}
	}
	return in
}

// Point3D is a 3D point used by Polyhedron.
type Point3D struct{ X, Y, Z float64 }

// Polyhedron returns a 3D solid from a point list and face index lists.
// Inside/outside is approximated from the points alone (see
// inConvexProxy); faces and their winding are not used.
func Polyhedron(points []Point3D, faces [][]int) Shape {
	bb := bboxOfPoints3D(points)
	hull := points // treat the point cloud as its own convex proxy
	n := &node{kind: "polyhedron", bb: bb, solid: true, exact: nan()}
	n.contains = func(p [3]float64) bool { return inConvexProxy(p, hull, bb) }
	return n
}

func bboxOfPoints3D(pts []Point3D) BBox {
	if len(pts) == 0 {
		return BBox{}
	}
	bb := BBox{Min: [3]float64{pts[0].X, pts[0].Y, pts[0].Z}, Max: [3]float64{pts[0].X, pts[0].Y, pts[0].Z}}
	for _, p := range pts[1:] {
		bb.Min[0], bb.Max[0] = min(bb.Min[0], p.X), max(bb.Max[0], p.X)
		bb.Min[1], bb.Max[1] = min(bb.Min[1], p.Y), max(bb.Max[1], p.Y)
		bb.Min[2], bb.Max[2] = min(bb.Min[2], p.Z), max(bb.Max[2], p.Z)
	}
	return bb
}

// inConvexProxy approximates containment for an arbitrary point cloud by
// checking distance to the centroid against the cloud's average radius;
// adequate for the reference kernel's approximate-volume contract, not for
// geometric correctness of odd non-convex shapes (a real kernel replaces
// this entirely).
func inConvexProxy(p [3]float64, pts []Point3D, bb BBox) bool {
	if len(pts) == 0 {
		return false
	}
	cx := (bb.Min[0] + bb.Max[0]) / 2
	cy := (bb.Min[1] + bb.Max[1]) / 2
	cz := (bb.Min[2] + bb.Max[2]) / 2
	var avg float64
	for _, pt := range pts {
		dx, dy, dz := pt.X-cx, pt.Y-cy, pt.Z-cz
		avg += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	avg /= float64(len(pts))
	dx, dy, dz := p[0]-cx, p[1]-cy, p[2]-cz
	return math.Sqrt(dx*dx+dy*dy+dz*dz) <= avg
}

// Text returns a placeholder 2D sketch sized by the given bounding box
// estimate; real glyph outlines require a font-rendering bridge out of
// scope for this reference kernel (spec §1 non-goals).
func Text(widthEstimate, size float64) Shape {
	bb := BBox{Min: [3]float64{0, 0, 0}, Max: [3]float64{widthEstimate, size, 0}}
	return &node{kind: "text", bb: bb, solid: false, exact: nan(),
		contains: func(p [3]float64) bool { return false }}
}
