package vtk

import (
	"errors"
	"fmt"
)

// CellType identifies the shape of an unstructured grid cell. The values
// match the VTK cell type ids used by both file formats.
type CellType uint8

// Supported cell types.
const (
	EmptyCell                      CellType = 0
	Vertex                         CellType = 1
	PolyVertex                     CellType = 2
	Line                           CellType = 3
	PolyLine                       CellType = 4
	Triangle                       CellType = 5
	TriangleStrip                  CellType = 6
	Polygon                        CellType = 7
	Pixel                          CellType = 8
	Quad                           CellType = 9
	Tetra                          CellType = 10
	Voxel                          CellType = 11
	Hexahedron                     CellType = 12
	Wedge                          CellType = 13
	Pyramid                        CellType = 14
	PentagonalPrism                CellType = 15
	HexagonalPrism                 CellType = 16
	QuadraticEdge                  CellType = 21
	QuadraticTriangle              CellType = 22
	QuadraticQuad                  CellType = 23
	QuadraticTetra                 CellType = 24
	QuadraticHexahedron            CellType = 25
	QuadraticWedge                 CellType = 26
	QuadraticPyramid               CellType = 27
	BiquadraticQuad                CellType = 28
	TriquadraticHexahedron         CellType = 29
	QuadraticLinearQuad            CellType = 30
	QuadraticLinearWedge           CellType = 31
	BiquadraticQuadraticWedge      CellType = 32
	BiquadraticQuadraticHexahedron CellType = 33
	BiquadraticTriangle            CellType = 34
	CubicLine                      CellType = 35
	Polyhedron                     CellType = 42
)

// cellShape describes how a cell contributes to the dataset surface. Higher
// order cells are drawn using their corner points only.
type cellShape struct {
	// Topological dimension of the cell.
	dim int

	// Minimum number of point ids; 0 for variable sized cells.
	corners int

	// Faces of 3-D cells or the outline of 2-D cells, as indices into the
	// cell point list.
	faces [][]int
}

var (
	tetraFaces   = [][]int{{0, 1, 3}, {1, 2, 3}, {2, 0, 3}, {0, 2, 1}}
	voxelFaces   = [][]int{{0, 4, 6, 2}, {1, 3, 7, 5}, {0, 1, 5, 4}, {2, 6, 7, 3}, {0, 2, 3, 1}, {4, 5, 7, 6}}
	hexFaces     = [][]int{{0, 4, 7, 3}, {1, 2, 6, 5}, {0, 1, 5, 4}, {3, 7, 6, 2}, {0, 3, 2, 1}, {4, 5, 6, 7}}
	wedgeFaces   = [][]int{{0, 1, 2}, {3, 5, 4}, {0, 3, 4, 1}, {1, 4, 5, 2}, {2, 5, 3, 0}}
	pyramidFaces = [][]int{{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4}}
	triOutline   = [][]int{{0, 1, 2}}
	quadOutline  = [][]int{{0, 1, 2, 3}}
	edgeOutline  = [][]int{{0, 1}}
)

var cellShapes = map[CellType]cellShape{
	Vertex:                         {dim: 0, corners: 1},
	PolyVertex:                     {dim: 0},
	Line:                           {dim: 1, corners: 2, faces: edgeOutline},
	PolyLine:                       {dim: 1},
	QuadraticEdge:                  {dim: 1, corners: 3, faces: edgeOutline},
	CubicLine:                      {dim: 1, corners: 4, faces: edgeOutline},
	Triangle:                       {dim: 2, corners: 3, faces: triOutline},
	TriangleStrip:                  {dim: 2},
	Polygon:                        {dim: 2},
	Pixel:                          {dim: 2, corners: 4, faces: [][]int{{0, 1, 3, 2}}},
	Quad:                           {dim: 2, corners: 4, faces: quadOutline},
	QuadraticTriangle:              {dim: 2, corners: 6, faces: triOutline},
	BiquadraticTriangle:            {dim: 2, corners: 7, faces: triOutline},
	QuadraticQuad:                  {dim: 2, corners: 8, faces: quadOutline},
	BiquadraticQuad:                {dim: 2, corners: 9, faces: quadOutline},
	QuadraticLinearQuad:            {dim: 2, corners: 6, faces: quadOutline},
	Tetra:                          {dim: 3, corners: 4, faces: tetraFaces},
	QuadraticTetra:                 {dim: 3, corners: 10, faces: tetraFaces},
	Voxel:                          {dim: 3, corners: 8, faces: voxelFaces},
	Hexahedron:                     {dim: 3, corners: 8, faces: hexFaces},
	QuadraticHexahedron:            {dim: 3, corners: 20, faces: hexFaces},
	TriquadraticHexahedron:         {dim: 3, corners: 27, faces: hexFaces},
	BiquadraticQuadraticHexahedron: {dim: 3, corners: 24, faces: hexFaces},
	Wedge:                          {dim: 3, corners: 6, faces: wedgeFaces},
	QuadraticWedge:                 {dim: 3, corners: 15, faces: wedgeFaces},
	QuadraticLinearWedge:           {dim: 3, corners: 12, faces: wedgeFaces},
	BiquadraticQuadraticWedge:      {dim: 3, corners: 18, faces: wedgeFaces},
	Pyramid:                        {dim: 3, corners: 5, faces: pyramidFaces},
	QuadraticPyramid:               {dim: 3, corners: 13, faces: pyramidFaces},
	PentagonalPrism:                {dim: 3, corners: 10, faces: prismFaces(5)},
	HexagonalPrism:                 {dim: 3, corners: 12, faces: prismFaces(6)},
	Polyhedron:                     {dim: 3},
}

// Generate the faces of an n-gonal prism whose bottom ring uses ids [0, n)
// and top ring uses ids [n, 2n).
func prismFaces(n int) [][]int {
	bottom := make([]int, n)
	top := make([]int, n)
	for i := 0; i < n; i++ {
		bottom[i] = n - 1 - i
		top[i] = n + i
	}
	faces := [][]int{bottom, top}
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		faces = append(faces, []int{i, next, n + next, n + i})
	}
	return faces
}

// CellArray stores variable sized cells as a flat connectivity list and an
// offsets list with one more entry than the number of cells.
type CellArray struct {
	Offsets      []int
	Connectivity []int
}

// Get the number of cells.
func (c *CellArray) Len() int {
	if len(c.Offsets) == 0 {
		return 0
	}
	return len(c.Offsets) - 1
}

// Get the point ids of a cell.
func (c *CellArray) Cell(i int) []int {
	return c.Connectivity[c.Offsets[i]:c.Offsets[i+1]]
}

// Append the cells of another array, shifting its point ids by pointOffset.
func (c *CellArray) append(other *CellArray, pointOffset int) {
	if other.Len() == 0 {
		return
	}
	if len(c.Offsets) == 0 {
		c.Offsets = []int{0}
	}
	base := len(c.Connectivity)
	for _, id := range other.Connectivity {
		c.Connectivity = append(c.Connectivity, id+pointOffset)
	}
	for _, off := range other.Offsets[1:] {
		c.Offsets = append(c.Offsets, base+off)
	}
}

// Ensure all point ids are within [0, numPoints).
func (c *CellArray) validate(numPoints int) error {
	for i, id := range c.Connectivity {
		if id < 0 || id >= numPoints {
			return fmt.Errorf("point id %d at connectivity index %d is out of range [0, %d)", id, i, numPoints)
		}
	}
	return nil
}

// Build a cell array from the legacy packed layout where each cell is
// encoded as a point count followed by that many point ids.
func cellArrayFromPacked(values []int, numCells int) (*CellArray, error) {
	if numCells < 0 || numCells > len(values) {
		return nil, fmt.Errorf("cell list with %d values cannot hold %d cells", len(values), numCells)
	}
	c := &CellArray{
		Offsets:      make([]int, 1, numCells+1),
		Connectivity: make([]int, 0, len(values)-numCells),
	}
	pos := 0
	for cell := 0; cell < numCells; cell++ {
		if pos >= len(values) {
			return nil, fmt.Errorf("cell list ended after %d of %d cells", cell, numCells)
		}
		n := values[pos]
		pos++
		if n < 0 || pos+n > len(values) {
			return nil, fmt.Errorf("cell %d declares %d points but only %d values remain", cell, n, len(values)-pos)
		}
		c.Connectivity = append(c.Connectivity, values[pos:pos+n]...)
		c.Offsets = append(c.Offsets, len(c.Connectivity))
		pos += n
	}
	if pos != len(values) {
		return nil, fmt.Errorf("cell list size mismatch; consumed %d of %d values", pos, len(values))
	}
	return c, nil
}

// Build a cell array from an offsets list. If leadingZero is false the
// offsets list only contains the end offset of each cell (XML layout).
func cellArrayFromOffsets(offsets, connectivity []int, leadingZero bool) (*CellArray, error) {
	if !leadingZero {
		offsets = append([]int{0}, offsets...)
	}
	if len(offsets) == 0 {
		return &CellArray{}, nil
	}
	if offsets[0] != 0 {
		return nil, fmt.Errorf("first cell offset must be 0; got %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("cell offsets must be non-decreasing; offset %d is %d after %d", i, offsets[i], offsets[i-1])
		}
	}
	if last := offsets[len(offsets)-1]; last > len(connectivity) {
		return nil, fmt.Errorf("cell offsets reference %d connectivity entries but only %d are available", last, len(connectivity))
	}
	return &CellArray{Offsets: offsets, Connectivity: connectivity}, nil
}

// Decode a polyhedron face stream: the number of faces followed by the point
// count and point ids of each face.
func decodeFaceStream(stream []int) ([][]int, error) {
	if len(stream) == 0 {
		return nil, errors.New("empty polyhedron face stream")
	}
	numFaces := stream[0]
	if numFaces < 0 || numFaces > len(stream)-1 {
		return nil, fmt.Errorf("face stream with %d values cannot hold %d faces", len(stream), numFaces)
	}

	faces := make([][]int, 0, numFaces)
	pos := 1
	for face := 0; face < numFaces; face++ {
		if pos >= len(stream) {
			return nil, fmt.Errorf("face stream ended after %d of %d faces", face, numFaces)
		}
		n := stream[pos]
		pos++
		if n < 0 || pos+n > len(stream) {
			return nil, fmt.Errorf("face %d declares %d points but only %d values remain", face, n, len(stream)-pos)
		}
		faces = append(faces, append([]int(nil), stream[pos:pos+n]...))
		pos += n
	}
	if pos != len(stream) {
		return nil, fmt.Errorf("face stream size mismatch; consumed %d of %d values", pos, len(stream))
	}
	return faces, nil
}

// Collect the point ids referenced by a set of faces in order of first use.
func uniqueFaceIDs(faces [][]int) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, face := range faces {
		for _, id := range face {
			if _, exists := seen[id]; !exists {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	return ids
}
