package vtk

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/achilleasa/vtkshot/asset"
	"gonum.org/v1/gonum/spatial/r3"
)

const legacyHeader = "# vtk DataFile Version 3.0\ntest file\n"

func readLegacy(t *testing.T, payload []byte) (Dataset, error) {
	t.Helper()
	res := asset.NewResourceFromStream("test.vtk", bytes.NewReader(payload))
	defer res.Close()
	return newLegacyReader().Read(res)
}

func TestLegacyASCIIPolyData(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET POLYDATA
POINTS 4 float
0 0 0 1 0 0
1 1 0 0 1 0
POLYGONS 2 8
3 0 1 2
3 0 2 3
POINT_DATA 4
SCALARS temperature float 1
LOOKUP_TABLE default
0 1 2 3
CELL_DATA 2
FIELD extra 1
pressure 1 2 double
0.5 1.5
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	if ds.Kind() != KindPolyData {
		t.Fatalf("expected dataset kind to be %s; got %s", KindPolyData, ds.Kind())
	}
	if ds.NumberOfPoints() != 4 || ds.NumberOfCells() != 2 {
		t.Fatalf("expected 4 points and 2 cells; got %d and %d", ds.NumberOfPoints(), ds.NumberOfCells())
	}

	scalars := ds.PointData().Scalars()
	if scalars == nil || scalars.Name != "temperature" {
		t.Fatalf("expected active point scalars to be 'temperature'; got %v", scalars)
	}
	if min, max := scalars.Range(0); min != 0 || max != 3 {
		t.Fatalf("expected scalar range to be [0, 3]; got [%f, %f]", min, max)
	}

	pressure := ds.CellData().Array("pressure")
	if pressure == nil || pressure.Type != Float64 || pressure.Values[1] != 1.5 {
		t.Fatalf("expected cell field array 'pressure' with 2 float64 values; got %v", pressure)
	}
	if ds.CellData().Scalars() != nil {
		t.Fatal("expected field arrays not to become the active scalars")
	}

	surf := ds.Surface()
	if len(surf.Polys) != 2 {
		t.Fatalf("expected surface to contain 2 polygons; got %d", len(surf.Polys))
	}

	expBounds := r3.Box{Max: r3.Vec{X: 1, Y: 1}}
	if ds.Bounds() != expBounds {
		t.Fatalf("expected bounds to be %v; got %v", expBounds, ds.Bounds())
	}
}

func TestLegacyBinaryUnstructuredGrid(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(legacyHeader + "BINARY\nDATASET UNSTRUCTURED_GRID\nPOINTS 4 float\n")
	binary.Write(&buf, binary.BigEndian, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1})
	buf.WriteString("\nCELLS 1 5\n")
	binary.Write(&buf, binary.BigEndian, []int32{4, 0, 1, 2, 3})
	buf.WriteString("\nCELL_TYPES 1\n")
	binary.Write(&buf, binary.BigEndian, []int32{int32(Tetra)})
	buf.WriteString("\nCELL_DATA 1\nSCALARS id int\nLOOKUP_TABLE default\n")
	binary.Write(&buf, binary.BigEndian, []int32{7})
	buf.WriteString("\n")

	ds, err := readLegacy(t, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	ug, ok := ds.(*UnstructuredGrid)
	if !ok {
		t.Fatalf("expected an unstructured grid; got %T", ds)
	}
	if len(ug.Types) != 1 || ug.Types[0] != Tetra {
		t.Fatalf("expected a single tetra cell; got %v", ug.Types)
	}
	if p := ug.Point(3); p != (r3.Vec{Z: 1}) {
		t.Fatalf("expected point 3 to be (0, 0, 1); got %v", p)
	}
	if scalars := ug.CellData().Scalars(); scalars == nil || scalars.Values[0] != 7 {
		t.Fatalf("expected active cell scalars with value 7; got %v", scalars)
	}

	surf := ug.Surface()
	if len(surf.Polys) != 4 {
		t.Fatalf("expected a tetra to expose 4 faces; got %d", len(surf.Polys))
	}
	for i, cell := range surf.PolyCells {
		if cell != 0 {
			t.Fatalf("expected face %d to originate from cell 0; got %d", i, cell)
		}
	}
}

func TestLegacyOffsetsConnectivity(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET UNSTRUCTURED_GRID
POINTS 3 float
0 0 0 1 0 0 0 1 0
CELLS 2 3
OFFSETS vtktypeint64
0 3
CONNECTIVITY vtktypeint64
0 1 2
CELL_TYPES 1
5
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	ug := ds.(*UnstructuredGrid)
	if got := ug.Cells.Cell(0); len(got) != 3 || got[2] != 2 {
		t.Fatalf("expected cell 0 to be [0 1 2]; got %v", got)
	}
	if surf := ug.Surface(); len(surf.Polys) != 1 {
		t.Fatalf("expected a single surface triangle; got %d", len(surf.Polys))
	}
}

func TestLegacyPolyhedron(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET UNSTRUCTURED_GRID
POINTS 4 float
0 0 0 1 0 0 0 1 0 0 0 1
CELLS 1 18
17 4 3 0 2 1 3 0 1 3 3 1 2 3 3 2 0 3
CELL_TYPES 1
42
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	ug := ds.(*UnstructuredGrid)
	expIDs := []int{0, 2, 1, 3}
	got := ug.Cells.Cell(0)
	if len(got) != len(expIDs) {
		t.Fatalf("expected polyhedron point ids %v; got %v", expIDs, got)
	}
	for i, id := range expIDs {
		if got[i] != id {
			t.Fatalf("expected polyhedron point ids %v; got %v", expIDs, got)
		}
	}
	if faces := ug.Faces[0]; len(faces) != 4 || len(faces[3]) != 3 || faces[3][0] != 2 {
		t.Fatalf("expected 4 triangular faces; got %v", faces)
	}

	surf := ug.Surface()
	if len(surf.Polys) != 4 || surf.Skipped != 0 {
		t.Fatalf("expected 4 surface faces and no skipped cells; got %d faces and %d skipped", len(surf.Polys), surf.Skipped)
	}
}

func TestLegacyPolyhedronBadFaceStream(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET UNSTRUCTURED_GRID
POINTS 4 float
0 0 0 1 0 0 0 1 0 0 0 1
CELLS 1 6
5 2 3 0 2 1
CELL_TYPES 1
42
`
	if _, err := readLegacy(t, []byte(payload)); err == nil || !strings.Contains(err.Error(), "face stream ended after 1 of 2 faces") {
		t.Fatalf("expected a truncated face stream error; got %v", err)
	}
}

func TestLegacyBinaryOffsetsConnectivity(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString(legacyHeader + "BINARY\nDATASET POLYDATA\nPOINTS 3 double\n")
	binary.Write(&buf, binary.BigEndian, []float64{0, 0, 0, 1, 0, 0, 0, 1, 0})
	buf.WriteString("\nLINES 2 3\nOFFSETS vtktypeint64\n")
	binary.Write(&buf, binary.BigEndian, []int64{0, 3})
	buf.WriteString("\nCONNECTIVITY vtktypeint64\n")
	binary.Write(&buf, binary.BigEndian, []int64{0, 1, 2})
	buf.WriteString("\n")

	ds, err := readLegacy(t, buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}

	pd := ds.(*PolyData)
	if pd.Lines.Len() != 1 || len(pd.Lines.Cell(0)) != 3 {
		t.Fatalf("expected a single polyline with 3 points; got %v", pd.Lines)
	}
}

func TestLegacyStructuredPoints(t *testing.T) {
	payload := legacyHeader + `ascii
dataset structured_points
DIMENSIONS 3 2 1
ORIGIN 1 2 3
SPACING 0.5 1 1
POINT_DATA 6
SCALARS s double
LOOKUP_TABLE default
0 1 2
3 4 5
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	if ds.Kind() != KindImageData {
		t.Fatalf("expected dataset kind to be %s; got %s", KindImageData, ds.Kind())
	}
	if ds.NumberOfCells() != 2 {
		t.Fatalf("expected 2 cells; got %d", ds.NumberOfCells())
	}
	if p := ds.Point(5); p != (r3.Vec{X: 2, Y: 3, Z: 3}) {
		t.Fatalf("expected point 5 to be (2, 3, 3); got %v", p)
	}
	if surf := ds.Surface(); len(surf.Polys) != 2 {
		t.Fatalf("expected a 2-D grid surface to contain 2 quads; got %d", len(surf.Polys))
	}
}

func TestLegacyRectilinearGrid(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET RECTILINEAR_GRID
DIMENSIONS 2 2 2
X_COORDINATES 2 float
0 1
Y_COORDINATES 2 float
0 2
Z_COORDINATES 2 float
0 3
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	expBounds := r3.Box{Max: r3.Vec{X: 1, Y: 2, Z: 3}}
	if ds.Bounds() != expBounds {
		t.Fatalf("expected bounds to be %v; got %v", expBounds, ds.Bounds())
	}
	if surf := ds.Surface(); len(surf.Polys) != 6 {
		t.Fatalf("expected a single voxel to expose 6 faces; got %d", len(surf.Polys))
	}
}

func TestLegacyColorScalars(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET POLYDATA
POINTS 2 float
0 0 0 1 1 1
VERTICES 2 4
1 0
1 1
CELL_DATA 2
COLOR_SCALARS rgb 3
1 0 0
0 0.5 1
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}

	colors := ds.CellData().Scalars()
	if colors == nil || !colors.IsColor() {
		t.Fatalf("expected active cell scalars to be direct colors; got %v", colors)
	}
	exp := []float64{255, 0, 0, 0, 128, 255}
	for i, v := range exp {
		if colors.Values[i] != v {
			t.Fatalf("expected color component %d to be %f; got %f", i, v, colors.Values[i])
		}
	}
}

func TestLegacyNaNScalars(t *testing.T) {
	payload := legacyHeader + `ASCII
DATASET POLYDATA
POINTS 2 float
0 0 0 1 1 1
POINT_DATA 2
SCALARS s float
LOOKUP_TABLE default
nan 2
`
	ds, err := readLegacy(t, []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	scalars := ds.PointData().Scalars()
	if !math.IsNaN(scalars.Values[0]) {
		t.Fatalf("expected first scalar to be NaN; got %f", scalars.Values[0])
	}
	if min, max := scalars.Range(0); min != 2 || max != 2 {
		t.Fatalf("expected NaN values to be ignored by Range; got [%f, %f]", min, max)
	}
}

func TestLegacyErrors(t *testing.T) {
	specs := []struct {
		payload string
		expErr  string
	}{
		{
			"not a vtk file\n",
			"unrecognized file header",
		},
		{
			legacyHeader + "XML\n",
			"unsupported file format",
		},
		{
			legacyHeader + "ASCII\nDATASET POLYDATA\nPOINTS 2 float\n0 0 0\n",
			"unexpected end of file",
		},
		{
			legacyHeader + "ASCII\nDATASET POLYDATA\nBOGUS 1\n",
			`unsupported keyword "BOGUS"`,
		},
		{
			legacyHeader + "ASCII\nDATASET POLYDATA\nPOINTS 3 float\n0 0 0 1 0 0 0 1 0\nPOLYGONS 1 4\n3 0 1 5\n",
			"out of range",
		},
		{
			legacyHeader + "ASCII\nDATASET POLYDATA\nPOINTS 1 string\n",
			`unsupported data type "string"`,
		},
		{
			legacyHeader + "ASCII\nDATASET POLYDATA\nPOINTS 1 float\n0 0 0\nPOINT_DATA 2\nSCALARS s float\n1 2\n",
			"has 2 tuples; expected 1",
		},
		{
			legacyHeader + "ASCII\nDATASET UNSTRUCTURED_GRID\nPOINTS 1 float\n0 0 0\nCELLS 1 2\n1 0\n",
			"1 cells but 0 cell types",
		},
	}

	for specIndex, spec := range specs {
		_, err := readLegacy(t, []byte(spec.payload))
		if err == nil || !strings.Contains(err.Error(), spec.expErr) {
			t.Errorf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
			continue
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Errorf("[spec %d] expected a *ParseError; got %T", specIndex, err)
		}
	}
}

func TestLegacyNotDataset(t *testing.T) {
	_, err := readLegacy(t, []byte(legacyHeader+"ASCII\n"))
	if !errors.Is(err, ErrNotDataset) {
		t.Fatalf("expected ErrNotDataset; got %v", err)
	}
}
