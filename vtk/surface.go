package vtk

import (
	"encoding/binary"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// Surface is the drawable representation of a dataset: the external faces of
// 3-D cells plus any lower dimensional cells. For every primitive the id of
// the dataset cell it originates from is tracked so that cell data can be
// mapped onto it.
type Surface struct {
	Points []r3.Vec

	Polys     [][]int
	PolyCells []int

	Lines     [][]int
	LineCells []int

	Verts     []int
	VertCells []int

	// Number of cells that were skipped because their type is not supported.
	Skipped int
}

func (s *Surface) addPoly(ids []int, cell int) {
	s.Polys = append(s.Polys, ids)
	s.PolyCells = append(s.PolyCells, cell)
}

func (s *Surface) addLine(ids []int, cell int) {
	s.Lines = append(s.Lines, ids)
	s.LineCells = append(s.LineCells, cell)
}

func (s *Surface) addVert(id int, cell int) {
	s.Verts = append(s.Verts, id)
	s.VertCells = append(s.VertCells, cell)
}

// Split a triangle strip into triangles with consistent winding.
func (s *Surface) addStrip(ids []int, cell int) {
	for i := 0; i+2 < len(ids); i++ {
		if i%2 == 0 {
			s.addPoly([]int{ids[i], ids[i+1], ids[i+2]}, cell)
		} else {
			s.addPoly([]int{ids[i+1], ids[i], ids[i+2]}, cell)
		}
	}
}

// Surface returns the polydata primitives as they are.
func (pd *PolyData) Surface() *Surface {
	surf := &Surface{Points: pd.Points}

	cellID := 0
	for i := 0; i < pd.Verts.Len(); i++ {
		for _, id := range pd.Verts.Cell(i) {
			surf.addVert(id, cellID)
		}
		cellID++
	}
	for i := 0; i < pd.Lines.Len(); i++ {
		surf.addLine(pd.Lines.Cell(i), cellID)
		cellID++
	}
	for i := 0; i < pd.Polys.Len(); i++ {
		surf.addPoly(pd.Polys.Cell(i), cellID)
		cellID++
	}
	for i := 0; i < pd.Strips.Len(); i++ {
		surf.addStrip(pd.Strips.Cell(i), cellID)
		cellID++
	}
	return surf
}

// Encode the sorted point ids of a face. Faces shared by two cells map to the
// same key regardless of their winding or size.
func makeFaceKey(ids []int) string {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)
	key := make([]byte, 0, 2*len(sorted))
	for _, id := range sorted {
		key = binary.AppendUvarint(key, uint64(id))
	}
	return string(key)
}

type faceRecord struct {
	ids   []int
	cell  int
	count int
}

// Surface returns the external faces of 3-D cells together with all 0-D, 1-D
// and 2-D cells. A face is external if it belongs to exactly one cell.
// Polyhedra without face definitions are skipped.
func (ug *UnstructuredGrid) Surface() *Surface {
	surf := &Surface{Points: ug.Points}

	faces := make(map[string]*faceRecord)
	order := make([]string, 0)
	addFace := func(faceIDs []int, cellID int) {
		key := makeFaceKey(faceIDs)
		if rec, exists := faces[key]; exists {
			rec.count++
			return
		}
		faces[key] = &faceRecord{ids: faceIDs, cell: cellID, count: 1}
		order = append(order, key)
	}

	for cellID, typ := range ug.Types {
		ids := ug.Cells.Cell(cellID)
		shape, known := cellShapes[typ]
		if !known {
			surf.Skipped++
			continue
		}

		switch {
		case typ == PolyVertex:
			for _, id := range ids {
				surf.addVert(id, cellID)
			}
		case typ == Vertex:
			surf.addVert(ids[0], cellID)
		case typ == PolyLine:
			surf.addLine(ids, cellID)
		case typ == Polygon:
			surf.addPoly(ids, cellID)
		case typ == TriangleStrip:
			surf.addStrip(ids, cellID)
		case shape.dim == 1:
			surf.addLine(pick(ids, shape.faces[0]), cellID)
		case shape.dim == 2:
			surf.addPoly(pick(ids, shape.faces[0]), cellID)
		case typ == Polyhedron:
			polyFaces := ug.Faces[cellID]
			if len(polyFaces) == 0 {
				surf.Skipped++
				continue
			}
			for _, face := range polyFaces {
				addFace(face, cellID)
			}
		case shape.dim == 3:
			for _, local := range shape.faces {
				addFace(pick(ids, local), cellID)
			}
		}
	}

	for _, key := range order {
		if rec := faces[key]; rec.count == 1 {
			surf.addPoly(rec.ids, rec.cell)
		}
	}
	return surf
}

func pick(ids []int, local []int) []int {
	out := make([]int, len(local))
	for i, l := range local {
		out[i] = ids[l]
	}
	return out
}

// Extract the surface of a structured topology: the boundary quads of 3-D
// grids, all quads of 2-D grids, the line segments of 1-D grids and the
// single vertex of 0-D grids.
func structuredSurface(s *structured, point func(int) r3.Vec) *Surface {
	numPoints := s.NumberOfPoints()
	surf := &Surface{Points: make([]r3.Vec, numPoints)}
	for id := range surf.Points {
		surf.Points[id] = point(id)
	}
	if numPoints == 0 {
		return surf
	}

	axes := make([]int, 0, 3)
	for axis, d := range s.Dims {
		if d > 1 {
			axes = append(axes, axis)
		}
	}

	switch len(axes) {
	case 0:
		surf.addVert(0, 0)
	case 1:
		a := axes[0]
		for t := 0; t < s.Dims[a]-1; t++ {
			var p0, p1 [3]int
			p0[a], p1[a] = t, t+1
			surf.addLine([]int{s.pointID(p0), s.pointID(p1)}, s.cellID(p0))
		}
	case 2:
		addStructuredQuads(s, surf, axes[0], axes[1], -1, 0)
	case 3:
		for fixed := 0; fixed < 3; fixed++ {
			a, b := (fixed+1)%3, (fixed+2)%3
			if a > b {
				a, b = b, a
			}
			addStructuredQuads(s, surf, a, b, fixed, 0)
			addStructuredQuads(s, surf, a, b, fixed, s.Dims[fixed]-1)
		}
	}
	return surf
}

// Emit the quads spanned by axes a and b. If fixed is a valid axis, its
// coordinate is held at value.
func addStructuredQuads(s *structured, surf *Surface, a, b, fixed, value int) {
	for v := 0; v < s.Dims[b]-1; v++ {
		for u := 0; u < s.Dims[a]-1; u++ {
			var corner [3]int
			corner[a], corner[b] = u, v
			cell := corner
			if fixed >= 0 {
				corner[fixed] = value
				cell[fixed] = value
				if value > 0 {
					cell[fixed] = value - 1
				}
			}

			quad := make([]int, 4)
			for i, delta := range [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
				p := corner
				p[a] += delta[0]
				p[b] += delta[1]
				quad[i] = s.pointID(p)
			}
			surf.addPoly(quad, s.cellID(cell))
		}
	}
}
