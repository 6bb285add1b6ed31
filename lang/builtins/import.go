package builtins

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/mna/sdlcad/lang/dynamic"
	"github.com/mna/sdlcad/lang/errs"
	"github.com/mna/sdlcad/lang/kernel"
)

// importSTL reads an ASCII STL file and lowers it to a kernel.Polyhedron.
// Binary STL and other mesh formats are out of scope (spec §1 non-goals
// treat the geometry kernel as an external collaborator); name is resolved
// relative to the process's working directory since dynamic.Scope does not
// track a source file path (see DESIGN.md).
func importSTL(dyn *dynamic.Scope, name string) (kernel.Shape, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, dyn.Errorf(errs.KindKernel, "import(): %v", err)
	}
	defer f.Close()

	var pts []kernel.Point3D
	var faces [][]int

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var cur []int
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "vertex":
			if len(fields) < 4 {
				continue
			}
			x, _ := strconv.ParseFloat(fields[1], 64)
			y, _ := strconv.ParseFloat(fields[2], 64)
			z, _ := strconv.ParseFloat(fields[3], 64)
			pts = append(pts, kernel.Point3D{X: x, Y: y, Z: z})
			cur = append(cur, len(pts)-1)
		case "endfacet":
			if len(cur) >= 3 {
				faces = append(faces, cur)
			}
			cur = nil
		case "endsolid", "solid":
			// no-op markers
		}
	}
	if err := sc.Err(); err != nil {
		return nil, dyn.Errorf(errs.KindKernel, "import(): %v", err)
	}
	if len(faces) == 0 {
		return nil, dyn.Errorf(errs.KindKernel, "import(): %q has no facets, binary STL is not supported", name)
	}
	dyn.Warn("import(): %d facets read from %s (ASCII STL only)", len(faces), name)
	return kernel.Polyhedron(pts, faces), nil
}
