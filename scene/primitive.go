package scene

import (
	"math"

	"github.com/achilleasa/vtkshot/types"
	"github.com/achilleasa/vtkshot/vtk"
	"gonum.org/v1/gonum/spatial/r3"
)

// A primitive vertex in scene-local coordinates.
type Vertex struct {
	Position types.Vec3

	// RGBA color with components in [0, 1].
	Color types.Vec4
}

// A triangle with the unit normal of the polygon it was split from.
type Triangle struct {
	V      [3]Vertex
	Normal types.Vec3
}

// A line segment.
type Segment struct {
	V [2]Vertex
}

// Actor holds the drawable primitives generated from a dataset surface.
type Actor struct {
	Triangles []Triangle
	Segments  []Segment
	Points    []Vertex

	// Number of degenerate polygons that were dropped.
	Degenerate int

	// Number of cells that could not be drawn.
	Skipped int
}

// Build an actor from a dataset surface. Points are translated by -center
// before being converted to single precision.
func newActor(surf *vtk.Surface, center r3.Vec, pointColor, cellColor colorSource) *Actor {
	actor := &Actor{Skipped: surf.Skipped}

	local := make([]types.Vec3, len(surf.Points))
	for i, p := range surf.Points {
		d := r3.Sub(p, center)
		local[i] = types.XYZ(float32(d.X), float32(d.Y), float32(d.Z))
	}

	vertex := func(id int, color types.Vec4) Vertex {
		if pointColor != nil {
			color = pointColor(id)
		}
		return Vertex{Position: local[id], Color: color}
	}
	primColor := func(cell int) types.Vec4 {
		if cellColor != nil {
			return cellColor(cell)
		}
		return white
	}

	for i, ids := range surf.Polys {
		if len(ids) < 3 {
			actor.Degenerate++
			continue
		}
		normal, ok := polygonNormal(surf.Points, ids)
		if !ok {
			actor.Degenerate++
			continue
		}

		color := primColor(surf.PolyCells[i])
		v0 := vertex(ids[0], color)
		for j := 1; j+1 < len(ids); j++ {
			v1, v2 := vertex(ids[j], color), vertex(ids[j+1], color)
			if v1.Position.Sub(v0.Position).Cross(v2.Position.Sub(v0.Position)).Len() == 0 {
				continue
			}
			actor.Triangles = append(actor.Triangles, Triangle{V: [3]Vertex{v0, v1, v2}, Normal: normal})
		}
	}

	for i, ids := range surf.Lines {
		color := primColor(surf.LineCells[i])
		for j := 0; j+1 < len(ids); j++ {
			actor.Segments = append(actor.Segments, Segment{V: [2]Vertex{vertex(ids[j], color), vertex(ids[j+1], color)}})
		}
	}

	for i, id := range surf.Verts {
		actor.Points = append(actor.Points, vertex(id, primColor(surf.VertCells[i])))
	}

	return actor
}

// Calculate the unit normal of a polygon using Newell's method. Returns false
// for polygons with zero area.
func polygonNormal(points []r3.Vec, ids []int) (types.Vec3, bool) {
	var n r3.Vec
	for i, id := range ids {
		cur, next := points[id], points[ids[(i+1)%len(ids)]]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
	}
	l := r3.Norm(n)
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return types.Vec3{}, false
	}
	n = r3.Scale(1/l, n)
	return types.XYZ(float32(n.X), float32(n.Y), float32(n.Z)), true
}
