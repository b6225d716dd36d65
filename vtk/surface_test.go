package vtk

import (
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestUnstructuredSurfaceSharedFaces(t *testing.T) {
	// Two hexahedra sharing the x=1 face
	var points []r3.Vec
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				points = append(points, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	id := func(x, y, z int) int { return x + 3*y + 6*z }
	hex := func(x int) []int {
		return []int{
			id(x, 0, 0), id(x+1, 0, 0), id(x+1, 1, 0), id(x, 1, 0),
			id(x, 0, 1), id(x+1, 0, 1), id(x+1, 1, 1), id(x, 1, 1),
		}
	}

	ug := &UnstructuredGrid{
		Points: points,
		Types:  []CellType{Hexahedron, Hexahedron, CellType(99)},
	}
	cells, err := cellArrayFromOffsets([]int{8, 16, 17}, append(append(hex(0), hex(1)...), 0), false)
	if err != nil {
		t.Fatal(err)
	}
	ug.Cells = *cells
	if err = ug.validate(); err != nil {
		t.Fatal(err)
	}

	surf := ug.Surface()
	if len(surf.Polys) != 10 {
		t.Fatalf("expected 10 external faces; got %d", len(surf.Polys))
	}
	if surf.Skipped != 1 {
		t.Fatalf("expected 1 skipped cell; got %d", surf.Skipped)
	}
}

func TestUnstructuredSurfacePolyhedra(t *testing.T) {
	// A hexahedron and a polyhedron cube sharing the x=1 face plus a
	// polyhedron without face definitions
	var points []r3.Vec
	for z := 0; z < 2; z++ {
		for y := 0; y < 2; y++ {
			for x := 0; x < 3; x++ {
				points = append(points, r3.Vec{X: float64(x), Y: float64(y), Z: float64(z)})
			}
		}
	}
	id := func(x, y, z int) int { return x + 3*y + 6*z }
	hex := []int{
		id(0, 0, 0), id(1, 0, 0), id(1, 1, 0), id(0, 1, 0),
		id(0, 0, 1), id(1, 0, 1), id(1, 1, 1), id(0, 1, 1),
	}
	cube := [][]int{
		{id(1, 0, 0), id(1, 1, 0), id(1, 1, 1), id(1, 0, 1)},
		{id(2, 0, 0), id(2, 0, 1), id(2, 1, 1), id(2, 1, 0)},
		{id(1, 0, 0), id(1, 0, 1), id(2, 0, 1), id(2, 0, 0)},
		{id(1, 1, 0), id(2, 1, 0), id(2, 1, 1), id(1, 1, 1)},
		{id(1, 0, 0), id(2, 0, 0), id(2, 1, 0), id(1, 1, 0)},
		{id(1, 0, 1), id(1, 1, 1), id(2, 1, 1), id(2, 0, 1)},
	}
	cubeIDs := uniqueFaceIDs(cube)

	ug := &UnstructuredGrid{
		Points: points,
		Types:  []CellType{Hexahedron, Polyhedron, Polyhedron},
		Faces:  map[int][][]int{1: cube},
	}
	cells, err := cellArrayFromOffsets([]int{8, 16, 17}, append(append(hex, cubeIDs...), 0), false)
	if err != nil {
		t.Fatal(err)
	}
	ug.Cells = *cells
	if err = ug.validate(); err != nil {
		t.Fatal(err)
	}

	surf := ug.Surface()
	if len(surf.Polys) != 10 {
		t.Fatalf("expected 10 external faces; got %d", len(surf.Polys))
	}
	if surf.Skipped != 1 {
		t.Fatalf("expected the polyhedron without faces to be skipped; got %d skipped cells", surf.Skipped)
	}
	var polyFaces int
	for _, cell := range surf.PolyCells {
		if cell == 1 {
			polyFaces++
		}
	}
	if polyFaces != 5 {
		t.Fatalf("expected 5 external faces from the polyhedron; got %d", polyFaces)
	}
}

func TestDecodeFaceStream(t *testing.T) {
	faces, err := decodeFaceStream([]int{2, 3, 0, 1, 2, 4, 0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(faces) != 2 || len(faces[0]) != 3 || len(faces[1]) != 4 || faces[1][3] != 3 {
		t.Fatalf("expected a triangle and a quad; got %v", faces)
	}
	if ids := uniqueFaceIDs(faces); len(ids) != 4 {
		t.Fatalf("expected 4 unique point ids; got %v", ids)
	}

	specs := []struct {
		stream []int
		expErr string
	}{
		{nil, "empty polyhedron face stream"},
		{[]int{5, 3, 0, 1, 2}, "cannot hold 5 faces"},
		{[]int{1, 4, 0, 1, 2}, "face 0 declares 4 points"},
		{[]int{1, 3, 0, 1, 2, 7}, "size mismatch"},
	}
	for specIndex, spec := range specs {
		_, err := decodeFaceStream(spec.stream)
		if err == nil || !strings.Contains(err.Error(), spec.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestUnstructuredGridInvalidFaces(t *testing.T) {
	ug := &UnstructuredGrid{
		Points: make([]r3.Vec, 3),
		Types:  []CellType{Polyhedron},
		Faces:  map[int][][]int{0: {{0, 1, 5}}},
	}
	ug.Cells = CellArray{Offsets: []int{0, 3}, Connectivity: []int{0, 1, 2}}
	if err := ug.validate(); err == nil || !strings.Contains(err.Error(), "point id 5 in face 0 of cell 0") {
		t.Fatalf("expected an out of range face id error; got %v", err)
	}
}

func TestPolyDataSurfaceCellIDs(t *testing.T) {
	pd := &PolyData{Points: make([]r3.Vec, 5)}
	pd.Verts = mustPacked(t, []int{1, 0}, 1)
	pd.Lines = mustPacked(t, []int{2, 0, 1}, 1)
	pd.Strips = mustPacked(t, []int{5, 0, 1, 2, 3, 4}, 1)

	surf := pd.Surface()
	if len(surf.Verts) != 1 || surf.VertCells[0] != 0 {
		t.Fatalf("expected vertex to map to cell 0; got %v", surf.VertCells)
	}
	if len(surf.Lines) != 1 || surf.LineCells[0] != 1 {
		t.Fatalf("expected line to map to cell 1; got %v", surf.LineCells)
	}
	if len(surf.Polys) != 3 {
		t.Fatalf("expected strip to produce 3 triangles; got %d", len(surf.Polys))
	}
	for _, cell := range surf.PolyCells {
		if cell != 2 {
			t.Fatalf("expected strip triangles to map to cell 2; got %v", surf.PolyCells)
		}
	}
}

func TestStructuredSurface(t *testing.T) {
	img := NewImageData([6]int{0, 2, 0, 2, 0, 2}, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	surf := img.Surface()

	// 6 sides with 2x2 quads each
	if len(surf.Polys) != 24 {
		t.Fatalf("expected 24 boundary quads; got %d", len(surf.Polys))
	}
	for i, cell := range surf.PolyCells {
		if cell < 0 || cell >= img.NumberOfCells() {
			t.Fatalf("quad %d maps to invalid cell %d", i, cell)
		}
	}
}

func TestCellArrayFromPackedErrors(t *testing.T) {
	specs := []struct {
		values   []int
		numCells int
	}{
		{[]int{3, 0, 1}, 1},
		{[]int{1, 0, 7}, 1},
		{[]int{1, 0}, -1},
		{[]int{1, 0}, 5},
	}
	for specIndex, spec := range specs {
		if _, err := cellArrayFromPacked(spec.values, spec.numCells); err == nil {
			t.Errorf("[spec %d] expected an error", specIndex)
		}
	}
}

func mustPacked(t *testing.T, values []int, numCells int) CellArray {
	t.Helper()
	cells, err := cellArrayFromPacked(values, numCells)
	if err != nil {
		t.Fatal(err)
	}
	return *cells
}
