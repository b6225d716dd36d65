package scene

import (
	"math"

	"github.com/achilleasa/vtkshot/types"
	"github.com/unixpickle/model3d/model3d"
)

const (
	// Width in pixels of the ribbons and quads used to draw lines and points.
	overlayPixels = 1.5

	// Relative offset that pulls lines and points towards the camera so they
	// stay visible on top of coincident surfaces.
	overlayDepthBias = 1e-4
)

type meshTriangle struct {
	colors [3]types.Vec4

	// Camera space normal of lit triangles.
	normal model3d.Coord3D
	lit    bool
}

// RenderMesh holds the scene geometry in camera space: the camera sits at the
// origin looking down +Y with +Z as the up vector. Lines and points are
// expanded into camera facing ribbons and quads so that the whole scene can
// be ray cast as a single triangle mesh.
type RenderMesh struct {
	Mesh *model3d.Mesh

	// Number of actor primitives that made it into the mesh.
	Triangles int
	Segments  int
	Points    int

	triangles map[*model3d.Triangle]*meshTriangle
}

// Build the camera space mesh. pixelSize is the size of a single pixel on a
// plane at unit distance from the camera.
func (s *Scene) RenderMesh(pixelSize float64) *RenderMesh {
	m := &RenderMesh{
		Mesh:      model3d.NewMesh(),
		triangles: make(map[*model3d.Triangle]*meshTriangle),
	}

	for _, tri := range s.Actor.Triangles {
		var pts [3]model3d.Coord3D
		var colors [3]types.Vec4
		for i, v := range tri.V {
			pts[i] = toCamera(s.Camera.ToEye(v.Position))
			colors[i] = v.Color
		}
		normal := toCamera(s.Camera.DirToEye(tri.Normal))
		if m.add(pts, colors, &normal) {
			m.Triangles++
		}
	}

	for _, seg := range s.Actor.Segments {
		a := toCamera(s.Camera.ToEye(seg.V[0].Position))
		b := toCamera(s.Camera.ToEye(seg.V[1].Position))
		if a.Y <= 0 || b.Y <= 0 {
			continue
		}
		m.addRibbon(a, b, seg.V[0].Color, seg.V[1].Color, pixelSize)
		m.Segments++
	}

	for _, pt := range s.Actor.Points {
		p := toCamera(s.Camera.ToEye(pt.Position))
		if p.Y <= 0 {
			continue
		}
		m.addQuad(p, pt.Color, pixelSize)
		m.Points++
	}
	return m
}

// Empty returns true if the mesh contains no triangles.
func (m *RenderMesh) Empty() bool {
	return len(m.triangles) == 0
}

// Shade a ray hit. Surface triangles are lit by a directional headlight
// shining down the view axis; lines and points are unlit. Returns false if the collision does not belong to this mesh.
func (m *RenderMesh) Shade(ray *model3d.Ray, rc model3d.RayCollision) (types.Vec4, bool) {
	tc, ok := rc.Extra.(*model3d.TriangleCollision)
	if !ok {
		return types.Vec4{}, false
	}
	info, ok := m.triangles[tc.Triangle]
	if !ok {
		return types.Vec4{}, false
	}

	w := barycentric(tc.Triangle, ray.Origin.Add(ray.Direction.Scale(rc.Scale)))
	var c types.Vec4
	for i := range c {
		c[i] = float32(w[0])*info.colors[0][i] + float32(w[1])*info.colors[1][i] + float32(w[2])*info.colors[2][i]
	}

	if info.lit {
		shade := float32(math.Abs(info.normal.Dot(model3d.Y(1))))
		c[0], c[1], c[2] = c[0]*shade, c[1]*shade, c[2]*shade
	}
	return c, true
}

// Add a triangle. A nil normal marks the triangle as unlit. Returns false for
// zero area triangles.
func (m *RenderMesh) add(pts [3]model3d.Coord3D, colors [3]types.Vec4, normal *model3d.Coord3D) bool {
	if pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Norm() == 0 {
		return false
	}

	t := &model3d.Triangle{pts[0], pts[1], pts[2]}
	info := &meshTriangle{colors: colors}
	if normal != nil {
		info.normal, info.lit = *normal, true
	}
	m.Mesh.Add(t)
	m.triangles[t] = info
	return true
}

// Expand a segment into a ribbon that is perpendicular to the view ray
// through its midpoint.
func (m *RenderMesh) addRibbon(a, b model3d.Coord3D, ca, cb types.Vec4, pixelSize float64) {
	side := b.Sub(a).Cross(a.Add(b))
	if side.Norm() == 0 {
		// Degenerate or parallel to the view ray; it projects to a point
		if b.Y < a.Y {
			a, ca = b, cb
		}
		m.addQuad(a, ca, pixelSize)
		return
	}
	side = side.Normalize()

	a, b = pullTowardsCamera(a), pullTowardsCamera(b)
	ha := side.Scale(0.5 * overlayPixels * pixelSize * a.Y)
	hb := side.Scale(0.5 * overlayPixels * pixelSize * b.Y)
	a0, a1 := a.Sub(ha), a.Add(ha)
	b0, b1 := b.Sub(hb), b.Add(hb)
	m.add([3]model3d.Coord3D{a0, b0, b1}, [3]types.Vec4{ca, cb, cb}, nil)
	m.add([3]model3d.Coord3D{a0, b1, a1}, [3]types.Vec4{ca, cb, ca}, nil)
}

// Expand a point into a square that faces the camera.
func (m *RenderMesh) addQuad(p model3d.Coord3D, c types.Vec4, pixelSize float64) {
	p = pullTowardsCamera(p)
	h := 0.5 * overlayPixels * pixelSize * p.Y

	u := p.Cross(model3d.Z(1))
	if u.Norm() == 0 {
		u = model3d.X(1)
	}
	u = u.Normalize().Scale(h)
	v := u.Cross(p).Normalize().Scale(h)

	p0, p1 := p.Sub(u).Sub(v), p.Add(u).Sub(v)
	p2, p3 := p.Add(u).Add(v), p.Sub(u).Add(v)
	colors := [3]types.Vec4{c, c, c}
	m.add([3]model3d.Coord3D{p0, p1, p2}, colors, nil)
	m.add([3]model3d.Coord3D{p0, p2, p3}, colors, nil)
}

// Map eye space (camera looking down -Z, up +Y) to the camera space used by
// the mesh (camera looking down +Y, up +Z).
func toCamera(eye types.Vec3) model3d.Coord3D {
	return model3d.XYZ(float64(eye[0]), float64(-eye[2]), float64(eye[1]))
}

func pullTowardsCamera(p model3d.Coord3D) model3d.Coord3D {
	return p.Scale(1 - overlayDepthBias)
}

// Calculate the barycentric coordinates of a point on a triangle.
func barycentric(t *model3d.Triangle, p model3d.Coord3D) [3]float64 {
	v0, v1, v2 := t[1].Sub(t[0]), t[2].Sub(t[0]), p.Sub(t[0])
	d00, d01, d11 := v0.Dot(v0), v0.Dot(v1), v1.Dot(v1)
	d20, d21 := v2.Dot(v0), v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if denom == 0 {
		return [3]float64{1, 0, 0}
	}
	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom
	return [3]float64{1 - v - w, v, w}
}
