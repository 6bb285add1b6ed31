package builtins_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/sdlcad/lang/ast"
	"github.com/mna/sdlcad/lang/builtins"
	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
	"github.com/mna/sdlcad/lang/parser"
	"github.com/mna/sdlcad/lang/static"
)

type noopLoader struct{}

func (noopLoader) Load(fromFile, path string) (string, *ast.Node, error) {
	return path, ast.New("Input", 0), nil
}

// build lowers and evaluates src against the full built-in surface,
// returning the resulting shape plus every warning raised along the way.
func build(t *testing.T, src string) (kernel.Shape, []string, error) {
	t.Helper()
	root, err := parser.ParseFile("t", []byte(src))
	require.NoError(t, err)

	bRoot, reg := builtins.Root()
	var warnings []string
	scope, err := static.Lower(root, "t", bRoot, noopLoader{}, nil)
	require.NoError(t, err)

	ev := dynamic.NewEvaluator(reg, func(w errs.Warning) { warnings = append(warnings, w.String()) }, nil)
	d := dynamic.NewRoot(scope, ev)
	shape, err := d.Build()
	return shape, warnings, err
}

// buildWithStdout is like build, but routes echo() output to a buffer
// instead of the process's real stdout.
func buildWithStdout(t *testing.T, src string) (kernel.Shape, string, error) {
	t.Helper()
	root, err := parser.ParseFile("t", []byte(src))
	require.NoError(t, err)

	bRoot, reg := builtins.Root()
	scope, err := static.Lower(root, "t", bRoot, noopLoader{}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	ev := dynamic.NewEvaluator(reg, nil, nil)
	ev.Stdout = &buf
	d := dynamic.NewRoot(scope, ev)
	shape, err := d.Build()
	return shape, buf.String(), err
}

func TestEchoWritesToConfiguredStdout(t *testing.T) {
	_, out, err := buildWithStdout(t, `echo("hello", 1, true);`)
	require.NoError(t, err)
	require.Equal(t, "hello, 1, true\n", out)
}

func TestEchoDefaultsToOsStdoutWhenUnset(t *testing.T) {
	shape, _, err := build(t, `echo("unused"); cube(1);`)
	require.NoError(t, err)
	require.NotNil(t, shape)
}

func TestCubeDefaultAndCentered(t *testing.T) {
	shape, _, err := build(t, "cube(2);")
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 8.0, shape.Volume(), 1e-9)
	bb := shape.BoundingBox()
	require.Equal(t, [3]float64{0, 0, 0}, bb.Min)

	shape, _, err = build(t, "cube(2, center=true);")
	require.NoError(t, err)
	bb = shape.BoundingBox()
	require.InDelta(t, -1, bb.Min[0], 1e-9)
	require.InDelta(t, 1, bb.Max[0], 1e-9)
}

func TestSphereDPreferredOverR(t *testing.T) {
	shape, warnings, err := build(t, "sphere(r=2, d=10);")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	// d wins per resolveRadius, so effective radius is 5 (d/2), not 2.
	bb := shape.BoundingBox()
	require.InDelta(t, 5, bb.Max[0], 1e-9)
}

func TestSphereDOnlyNoWarning(t *testing.T) {
	shape, warnings, err := build(t, "sphere(d=4);")
	require.NoError(t, err)
	require.Empty(t, warnings)
	bb := shape.BoundingBox()
	require.InDelta(t, 2, bb.Max[0], 1e-9)
}

func TestCylinderMixedRadiusOverridesWarn(t *testing.T) {
	_, warnings, err := build(t, "cylinder(h=1, r=1, d1=4);")
	require.NoError(t, err)
	// d1 overrides the r-derived r1 but does not itself conflict with an
	// explicit r1, so no warning is expected here.
	require.Empty(t, warnings)

	_, warnings, err = build(t, "cylinder(h=1, r1=1, d1=4);")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestLinearExtrudeTwistAndScaleWarns(t *testing.T) {
	_, warnings, err := build(t, "linear_extrude(height=2, twist=90, scale=2) square(1);")
	require.NoError(t, err)
	require.Len(t, warnings, 1)
}

func TestLinearExtrudeTwistOnlyNoWarning(t *testing.T) {
	_, warnings, err := build(t, "linear_extrude(height=2, twist=90) square(1);")
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestUnionSingleChildReturnsItUnchanged(t *testing.T) {
	shape, _, err := build(t, "union() { cube(1); }")
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 1.0, shape.Volume(), 1e-9)
}

func TestUnionSkipsNilChildren(t *testing.T) {
	shape, _, err := build(t, "union() { if (0) cube(1); cube(2); }")
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 8.0, shape.Volume(), 1e-9)
}

func TestDifferenceSingleChildReturnsUnchanged(t *testing.T) {
	shape, _, err := build(t, "difference() { cube(2); }")
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 8.0, shape.Volume(), 1e-9)
}

func TestDifferenceSubtractsRemainingChildren(t *testing.T) {
	shape, _, err := build(t, "difference() { cube(4, center=true); cube(2, center=true); }")
	require.NoError(t, err)
	require.NotNil(t, shape)
	// difference() has no closed-form volume, so Volume() falls back to the
	// reference kernel's grid-sampling approximation; allow for its
	// documented sampling error rather than asserting an exact figure.
	require.InDelta(t, 64-8, shape.Volume(), 3.0)
}

func TestIntersectionNoChildrenIsNil(t *testing.T) {
	shape, _, err := build(t, "intersection() {}")
	require.NoError(t, err)
	require.Nil(t, shape)
}

func TestForUnionsEachLoopIteration(t *testing.T) {
	shape, _, err := build(t, "for (x = [0:2]) translate([x*3, 0, 0]) cube(1);")
	require.NoError(t, err)
	require.NotNil(t, shape)
	// three iterations (0, 1, 2), each translated far enough apart that the
	// reference kernel's union bounding box spans all three.
	bb := shape.BoundingBox()
	require.InDelta(t, 0, bb.Min[0], 1e-9)
	require.InDelta(t, 7, bb.Max[0], 1e-9)
}

func TestForCartesianProductOverTwoAxes(t *testing.T) {
	shape, _, err := build(t, `
module mark() cube(1);
for (x = [0, 10], y = [0, 20]) translate([x, y, 0]) mark();
`)
	require.NoError(t, err)
	require.NotNil(t, shape)
	bb := shape.BoundingBox()
	require.InDelta(t, 0, bb.Min[0], 1e-9)
	require.InDelta(t, 11, bb.Max[0], 1e-9)
	require.InDelta(t, 0, bb.Min[1], 1e-9)
	require.InDelta(t, 21, bb.Max[1], 1e-9)
}

func TestIntersectionForNarrowsToOverlap(t *testing.T) {
	shape, _, err := build(t, "intersection_for(x = [0]) cube(2, center=true);")
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.InDelta(t, 8.0, shape.Volume(), 1e-6)
}

func TestChildrenWithoutIndexUnionsAll(t *testing.T) {
	shape, _, err := build(t, `
module wrapper() { children(); }
wrapper() { cube(1); translate([5,0,0]) cube(1); }
`)
	require.NoError(t, err)
	require.NotNil(t, shape)
	bb := shape.BoundingBox()
	require.InDelta(t, 6, bb.Max[0], 1e-9)
}

func TestChildrenWithIndexSelectsOne(t *testing.T) {
	shape, _, err := build(t, `
module wrapper() { children(1); }
wrapper() { cube(1); translate([5,0,0]) cube(2); }
`)
	require.NoError(t, err)
	require.NotNil(t, shape)
	bb := shape.BoundingBox()
	require.InDelta(t, 5, bb.Min[0], 1e-9)
	require.InDelta(t, 7, bb.Max[0], 1e-9)
}

func TestImportSTLParsesAsciiFacets(t *testing.T) {
	path := writeTempSTL(t)
	shape, warnings, err := build(t, `import("`+path+`");`)
	require.NoError(t, err)
	require.NotNil(t, shape)
	require.Len(t, warnings, 1)
}

func TestImportSTLMissingFileErrors(t *testing.T) {
	_, _, err := build(t, `import("does-not-exist.stl");`)
	require.Error(t, err)
}

func writeTempSTL(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := dir + "/tri.stl"
	content := `solid tri
facet normal 0 0 1
  outer loop
    vertex 0 0 0
    vertex 1 0 0
    vertex 0 1 0
  endloop
endfacet
endsolid tri
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
