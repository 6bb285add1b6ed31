// Package kernel defines the opaque geometry handle the interpreter core
// composes (spec §1, §3: "the geometry kernel ... provides primitives and
// boolean operators ... returning opaque Shape handles"). It also ships a
// small, dependency-free reference kernel so the interpreter can be
// exercised end-to-end without a real B-Rep library wired in; see
// SPEC_FULL.md §3 for why this kernel's Volume() is approximate rather
// than exact.
package kernel

// Shape is the opaque handle the CAD kernel hands back to the interpreter.
// The interpreter never inspects a Shape's internals: it only composes
// shapes via the boolean/transform operators below and forwards the result
// upward (spec §3's "Shape handles are owned by the kernel").
type Shape interface {
	// Kind is a short label identifying the shape's constructor, used for
	// display and tracing (spec §6's "$trace" feature).
	Kind() string
	// BoundingBox returns the shape's axis-aligned bounding box.
	BoundingBox() BBox
	// Volume returns the shape's volume (2D sketches report zero).
	Volume() float64
	// Solid reports whether this is a 3D solid as opposed to a 2D sketch.
	Solid() bool
}

// BBox is an axis-aligned bounding box.
type BBox struct {
	Min, Max [3]float64
}

// Union returns the smallest box containing both a and b.
func (a BBox) Union(b BBox) BBox {
	var out BBox
	for i := 0; i < 3; i++ {
		out.Min[i] = min(a.Min[i], b.Min[i])
		out.Max[i] = max(a.Max[i], b.Max[i])
	}
	return out
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
