package vtk

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Kind identifies the concrete representation of a dataset.
type Kind uint8

// The supported dataset kinds.
const (
	KindImageData Kind = iota
	KindRectilinearGrid
	KindStructuredGrid
	KindPolyData
	KindUnstructuredGrid
)

var kindNames = [...]string{
	KindImageData:        "ImageData",
	KindRectilinearGrid:  "RectilinearGrid",
	KindStructuredGrid:   "StructuredGrid",
	KindPolyData:         "PolyData",
	KindUnstructuredGrid: "UnstructuredGrid",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Dataset is implemented by all in-memory dataset representations. Renderers
// only depend on the drawable surface returned by Surface.
type Dataset interface {
	Kind() Kind

	NumberOfPoints() int
	NumberOfCells() int

	// Get the coordinates of a point.
	Point(id int) r3.Vec

	// Get the axis aligned bounds of all points.
	Bounds() r3.Box

	PointData() *Attributes
	CellData() *Attributes

	// Extract the drawable surface of the dataset.
	Surface() *Surface
}

type dataAttributes struct {
	pointData Attributes
	cellData  Attributes
}

func (d *dataAttributes) PointData() *Attributes { return &d.pointData }
func (d *dataAttributes) CellData() *Attributes  { return &d.cellData }

// Calculate the bounds of a point set. Empty point sets yield a zero box.
func boundsOf(n int, point func(int) r3.Vec) r3.Box {
	if n == 0 {
		return r3.Box{}
	}
	inf := math.Inf(1)
	box := r3.Box{
		Min: r3.Vec{X: inf, Y: inf, Z: inf},
		Max: r3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
	for i := 0; i < n; i++ {
		p := point(i)
		box.Min = r3.Vec{X: math.Min(box.Min.X, p.X), Y: math.Min(box.Min.Y, p.Y), Z: math.Min(box.Min.Z, p.Z)}
		box.Max = r3.Vec{X: math.Max(box.Max.X, p.X), Y: math.Max(box.Max.Y, p.Y), Z: math.Max(box.Max.Z, p.Z)}
	}
	return box
}

// structured implements the implicit topology shared by image data,
// rectilinear grids and structured grids.
type structured struct {
	// Number of points along each axis.
	Dims [3]int
}

func (s *structured) NumberOfPoints() int {
	return s.Dims[0] * s.Dims[1] * s.Dims[2]
}

func (s *structured) NumberOfCells() int {
	n := 1
	for _, d := range s.Dims {
		if d <= 0 {
			return 0
		}
		if d > 1 {
			n *= d - 1
		}
	}
	return n
}

// Map a point id to its i, j, k grid coordinates.
func (s *structured) ijk(id int) [3]int {
	nx, ny := s.Dims[0], s.Dims[1]
	return [3]int{id % nx, (id / nx) % ny, id / (nx * ny)}
}

func (s *structured) pointID(ijk [3]int) int {
	return ijk[0] + ijk[1]*s.Dims[0] + ijk[2]*s.Dims[0]*s.Dims[1]
}

func (s *structured) cellID(ijk [3]int) int {
	var cdims [3]int
	for axis, d := range s.Dims {
		cdims[axis] = d - 1
		if cdims[axis] < 1 {
			cdims[axis] = 1
		}
	}
	return ijk[0] + ijk[1]*cdims[0] + ijk[2]*cdims[0]*cdims[1]
}

func (s *structured) validateDims() error {
	for axis, d := range s.Dims {
		if d < 1 {
			return fmt.Errorf("invalid grid dimension %d along axis %d", d, axis)
		}
	}
	return nil
}

// ImageData is a uniform grid defined by an origin, a spacing and an extent.
type ImageData struct {
	structured
	dataAttributes

	// Index extent as [xmin, xmax, ymin, ymax, zmin, zmax].
	Extent  [6]int
	Origin  r3.Vec
	Spacing r3.Vec

	// Optional orientation matrix (row-major); nil means identity.
	Direction *[9]float64
}

// Create image data for the given extent.
func NewImageData(extent [6]int, origin, spacing r3.Vec) *ImageData {
	img := &ImageData{Extent: extent, Origin: origin, Spacing: spacing}
	img.Dims = extentDims(extent)
	return img
}

func (img *ImageData) Kind() Kind { return KindImageData }

func (img *ImageData) Point(id int) r3.Vec {
	ijk := img.ijk(id)
	local := r3.Vec{
		X: float64(ijk[0]+img.Extent[0]) * img.Spacing.X,
		Y: float64(ijk[1]+img.Extent[2]) * img.Spacing.Y,
		Z: float64(ijk[2]+img.Extent[4]) * img.Spacing.Z,
	}
	if d := img.Direction; d != nil {
		local = r3.Vec{
			X: d[0]*local.X + d[1]*local.Y + d[2]*local.Z,
			Y: d[3]*local.X + d[4]*local.Y + d[5]*local.Z,
			Z: d[6]*local.X + d[7]*local.Y + d[8]*local.Z,
		}
	}
	return r3.Add(img.Origin, local)
}

func (img *ImageData) Bounds() r3.Box { return boundsOf(img.NumberOfPoints(), img.Point) }

func (img *ImageData) Surface() *Surface { return structuredSurface(&img.structured, img.Point) }

// RectilinearGrid is an axis aligned grid with arbitrary coordinates along
// each axis.
type RectilinearGrid struct {
	structured
	dataAttributes

	XCoordinates []float64
	YCoordinates []float64
	ZCoordinates []float64
}

// Create a rectilinear grid from its axis coordinates.
func NewRectilinearGrid(x, y, z []float64) *RectilinearGrid {
	grid := &RectilinearGrid{XCoordinates: x, YCoordinates: y, ZCoordinates: z}
	grid.Dims = [3]int{len(x), len(y), len(z)}
	return grid
}

func (g *RectilinearGrid) Kind() Kind { return KindRectilinearGrid }

func (g *RectilinearGrid) Point(id int) r3.Vec {
	ijk := g.ijk(id)
	return r3.Vec{X: g.XCoordinates[ijk[0]], Y: g.YCoordinates[ijk[1]], Z: g.ZCoordinates[ijk[2]]}
}

func (g *RectilinearGrid) Bounds() r3.Box { return boundsOf(g.NumberOfPoints(), g.Point) }

func (g *RectilinearGrid) Surface() *Surface { return structuredSurface(&g.structured, g.Point) }

// StructuredGrid is a curvilinear grid with explicit point coordinates.
type StructuredGrid struct {
	structured
	dataAttributes

	Points []r3.Vec
}

// Create a structured grid. The number of points must match the dimensions.
func NewStructuredGrid(dims [3]int, points []r3.Vec) (*StructuredGrid, error) {
	grid := &StructuredGrid{Points: points}
	grid.Dims = dims
	if err := grid.validateDims(); err != nil {
		return nil, err
	}
	if len(points) != grid.NumberOfPoints() {
		return nil, fmt.Errorf("structured grid with dimensions %v requires %d points; got %d", dims, grid.NumberOfPoints(), len(points))
	}
	return grid, nil
}

func (g *StructuredGrid) Kind() Kind { return KindStructuredGrid }

func (g *StructuredGrid) Point(id int) r3.Vec { return g.Points[id] }

func (g *StructuredGrid) Bounds() r3.Box { return boundsOf(len(g.Points), g.Point) }

func (g *StructuredGrid) Surface() *Surface { return structuredSurface(&g.structured, g.Point) }

// PolyData stores vertices, lines, polygons and triangle strips. Cell ids are
// assigned in that order.
type PolyData struct {
	dataAttributes

	Points []r3.Vec
	Verts  CellArray
	Lines  CellArray
	Polys  CellArray
	Strips CellArray
}

func (pd *PolyData) Kind() Kind { return KindPolyData }

func (pd *PolyData) NumberOfPoints() int { return len(pd.Points) }

func (pd *PolyData) NumberOfCells() int {
	return pd.Verts.Len() + pd.Lines.Len() + pd.Polys.Len() + pd.Strips.Len()
}

func (pd *PolyData) Point(id int) r3.Vec { return pd.Points[id] }

func (pd *PolyData) Bounds() r3.Box { return boundsOf(len(pd.Points), pd.Point) }

func (pd *PolyData) validate() error {
	for name, cells := range map[string]*CellArray{"vertex": &pd.Verts, "line": &pd.Lines, "polygon": &pd.Polys, "strip": &pd.Strips} {
		if err := cells.validate(len(pd.Points)); err != nil {
			return fmt.Errorf("invalid %s cells: %w", name, err)
		}
	}
	return nil
}

// Merge another piece. Cell ids run through the verts, lines, polys and strips
// in order so cell data is merged section by section.
func (pd *PolyData) merge(other *PolyData) {
	own := pd.sectionSizes()
	theirs := other.sectionSizes()

	offset := len(pd.Points)
	pd.Points = append(pd.Points, other.Points...)
	pd.Verts.append(&other.Verts, offset)
	pd.Lines.append(&other.Lines, offset)
	pd.Polys.append(&other.Polys, offset)
	pd.Strips.append(&other.Strips, offset)
	pd.pointData.merge(&other.pointData)
	pd.cellData.mergeSections(&other.cellData, own, theirs)
}

func (pd *PolyData) sectionSizes() []int {
	return []int{pd.Verts.Len(), pd.Lines.Len(), pd.Polys.Len(), pd.Strips.Len()}
}

// UnstructuredGrid stores arbitrary cells with explicit types.
type UnstructuredGrid struct {
	dataAttributes

	Points []r3.Vec
	Cells  CellArray
	Types  []CellType

	// Faces of polyhedron cells keyed by cell id. Each face lists the point
	// ids of a polygon.
	Faces map[int][][]int
}

func (ug *UnstructuredGrid) Kind() Kind { return KindUnstructuredGrid }

func (ug *UnstructuredGrid) NumberOfPoints() int { return len(ug.Points) }

func (ug *UnstructuredGrid) NumberOfCells() int { return len(ug.Types) }

func (ug *UnstructuredGrid) Point(id int) r3.Vec { return ug.Points[id] }

func (ug *UnstructuredGrid) Bounds() r3.Box { return boundsOf(len(ug.Points), ug.Point) }

func (ug *UnstructuredGrid) validate() error {
	if ug.Cells.Len() != len(ug.Types) {
		return fmt.Errorf("grid defines %d cells but %d cell types", ug.Cells.Len(), len(ug.Types))
	}
	if err := ug.Cells.validate(len(ug.Points)); err != nil {
		return err
	}
	for cellID, typ := range ug.Types {
		shape, known := cellShapes[typ]
		if !known {
			continue
		}
		if n := len(ug.Cells.Cell(cellID)); n < shape.corners {
			return fmt.Errorf("cell %d of type %d requires %d points; got %d", cellID, typ, shape.corners, n)
		}
	}
	for cellID, faces := range ug.Faces {
		if cellID < 0 || cellID >= len(ug.Types) || ug.Types[cellID] != Polyhedron {
			return fmt.Errorf("faces defined for cell %d which is not a polyhedron", cellID)
		}
		for faceID, face := range faces {
			for _, id := range face {
				if id < 0 || id >= len(ug.Points) {
					return fmt.Errorf("point id %d in face %d of cell %d is out of range [0, %d)", id, faceID, cellID, len(ug.Points))
				}
			}
		}
	}
	return nil
}

// Decode the face stream of a polyhedron cell and store its faces.
func (ug *UnstructuredGrid) setFaces(cellID int, stream []int) error {
	faces, err := decodeFaceStream(stream)
	if err != nil {
		return fmt.Errorf("cell %d: %w", cellID, err)
	}
	if ug.Faces == nil {
		ug.Faces = make(map[int][][]int)
	}
	ug.Faces[cellID] = faces
	return nil
}

// Legacy files store the face stream of polyhedron cells in place of their
// point list. Move the streams to Faces and replace each polyhedron point
// list with its unique point ids.
func (ug *UnstructuredGrid) unpackPolyhedra() error {
	if ug.Cells.Len() != len(ug.Types) {
		return nil
	}

	var found bool
	for _, typ := range ug.Types {
		if typ == Polyhedron {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	cells := CellArray{Offsets: []int{0}}
	for cellID, typ := range ug.Types {
		ids := ug.Cells.Cell(cellID)
		if typ == Polyhedron {
			if err := ug.setFaces(cellID, ids); err != nil {
				return err
			}
			ids = uniqueFaceIDs(ug.Faces[cellID])
		}
		cells.Connectivity = append(cells.Connectivity, ids...)
		cells.Offsets = append(cells.Offsets, len(cells.Connectivity))
	}
	ug.Cells = cells
	return nil
}

// Append the contents of another grid piece.
func (ug *UnstructuredGrid) merge(other *UnstructuredGrid) {
	offset := len(ug.Points)
	cellOffset := len(ug.Types)
	ug.Points = append(ug.Points, other.Points...)
	ug.Cells.append(&other.Cells, offset)
	ug.Types = append(ug.Types, other.Types...)
	for cellID, faces := range other.Faces {
		shifted := make([][]int, len(faces))
		for i, face := range faces {
			shifted[i] = make([]int, len(face))
			for j, id := range face {
				shifted[i][j] = id + offset
			}
		}
		if ug.Faces == nil {
			ug.Faces = make(map[int][][]int)
		}
		ug.Faces[cellOffset+cellID] = shifted
	}
	ug.pointData.merge(&other.pointData)
	ug.cellData.merge(&other.cellData)
}

// Convert an extent to point dimensions.
func extentDims(extent [6]int) [3]int {
	return [3]int{
		extent[1] - extent[0] + 1,
		extent[3] - extent[2] + 1,
		extent[5] - extent[4] + 1,
	}
}

// Validate attribute array sizes against the dataset.
func validateAttributes(ds Dataset) error {
	if err := ds.PointData().validate("point data", ds.NumberOfPoints()); err != nil {
		return err
	}
	return ds.CellData().validate("cell data", ds.NumberOfCells())
}
