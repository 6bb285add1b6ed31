package kernel

import "math"

// GridResolution bounds the number of samples per axis used by Volume()'s
// numerical fallback. It trades accuracy for the O(n^3) cost of sampling a
// bounding box; 48 keeps even deep CSG trees fast while remaining within
// the ~1% relative tolerance SPEC_FULL.md documents for this reference
// kernel (a real B-Rep kernel would compute exact volumes instead).
var GridResolution = 48

// node is the reference kernel's concrete Shape implementation: every
// primitive, boolean combination, and transform is a node in an explicit
// CSG expression tree. Booleans and transforms never eagerly mesh their
// operands; they close over a point-containment predicate and evaluate it
// lazily, only when Volume() needs it.
type node struct {
	kind     string
	bb       BBox
	solid    bool
	contains func(p [3]float64) bool
	exact    float64 // NaN when no closed form is known
}

func (n *node) Kind() string        { return n.kind }
func (n *node) BoundingBox() BBox   { return n.bb }
func (n *node) Solid() bool         { return n.solid }

func (n *node) Volume() float64 {
	if !math.IsNaN(n.exact) {
		return n.exact
	}
	if n.contains == nil {
		return 0
	}
	return gridVolume(n.bb, n.contains)
}

func gridVolume(bb BBox, contains func([3]float64) bool) float64 {
	dx := bb.Max[0] - bb.Min[0]
	dy := bb.Max[1] - bb.Min[1]
	dz := bb.Max[2] - bb.Min[2]
	if dx <= 0 || dy <= 0 {
		return 0
	}
	res := GridResolution
	if dz <= 0 {
		// 2D sketch: classic CSG convention is that sketches have zero
		// volume; area is not part of the Shape contract.
		return 0
	}

	cellVol := (dx / float64(res)) * (dy / float64(res)) * (dz / float64(res))
	count := 0
	for i := 0; i < res; i++ {
		x := bb.Min[0] + (float64(i)+0.5)*dx/float64(res)
		for j := 0; j < res; j++ {
			y := bb.Min[1] + (float64(j)+0.5)*dy/float64(res)
			for k := 0; k < res; k++ {
				z := bb.Min[2] + (float64(k)+0.5)*dz/float64(res)
				if contains([3]float64{x, y, z}) {
					count++
				}
			}
		}
	}
	return float64(count) * cellVol
}

func nan() float64 { return math.NaN() }
