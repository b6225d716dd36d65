package scene

import (
	"math"
	"testing"

	"github.com/achilleasa/vtkshot/vtk"
	"github.com/unixpickle/model3d/model3d"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRenderMeshTriangles(t *testing.T) {
	sc, err := New(triangleDataset(), Options{Width: 100, Height: 100})
	if err != nil {
		t.Fatal(err)
	}

	m := sc.RenderMesh(0.01)
	if m.Triangles != 1 || len(m.Mesh.TriangleSlice()) != 1 || m.Empty() {
		t.Fatalf("expected mesh to contain 1 triangle; got %d", len(m.Mesh.TriangleSlice()))
	}

	// The camera looks down +Y with +Z as the up vector
	dist := float64(sc.Camera.Position.Sub(sc.Camera.LookAt).Len())
	tri := m.Mesh.TriangleSlice()[0]
	exp := model3d.XYZ(-1, dist, -1)
	if tri[0].Dist(exp) > 1e-4 {
		t.Fatalf("expected first vertex to be mapped to %v; got %v", exp, tri[0])
	}

	ray := &model3d.Ray{Direction: model3d.XYZ(-0.5, dist, -0.5)}
	rc, ok := model3d.MeshToCollider(m.Mesh).FirstRayCollision(ray)
	if !ok {
		t.Fatal("expected ray to hit the triangle")
	}
	c, ok := m.Shade(ray, rc)
	if !ok {
		t.Fatal("expected collision to belong to the mesh")
	}

	// The headlight shines down the view axis so the facing surface keeps
	// its full color off-axis
	if math.Abs(float64(c[0])-1) > 1e-3 || c[0] != c[1] || c[1] != c[2] || c[3] != 1 {
		t.Fatalf("expected a fully lit white surface; got %v", c)
	}
}

func TestRenderMeshHeadlight(t *testing.T) {
	sc, err := New(triangleDataset(), Options{Width: 100, Height: 100, Azimuth: 60})
	if err != nil {
		t.Fatal(err)
	}

	m := sc.RenderMesh(0.01)
	tri := m.Mesh.TriangleSlice()[0]
	ray := &model3d.Ray{Direction: tri[0].Add(tri[1]).Add(tri[2]).Scale(1.0 / 3)}
	rc, ok := model3d.MeshToCollider(m.Mesh).FirstRayCollision(ray)
	if !ok {
		t.Fatal("expected ray to hit the triangle")
	}
	c, _ := m.Shade(ray, rc)
	if math.Abs(float64(c[0])-0.5) > 1e-3 {
		t.Fatalf("expected a surface viewed at 60 degrees to be shaded by 0.5; got %v", c)
	}
}

func TestRenderMeshOverlays(t *testing.T) {
	pd := &vtk.PolyData{
		Points: []r3.Vec{{X: -1}, {X: 1}, {}},
		Verts:  vtk.CellArray{Offsets: []int{0, 1}, Connectivity: []int{2}},
		Lines:  vtk.CellArray{Offsets: []int{0, 2}, Connectivity: []int{0, 1}},
	}
	sc, err := New(pd, Options{Width: 100, Height: 100})
	if err != nil {
		t.Fatal(err)
	}

	pixelSize := 0.01
	m := sc.RenderMesh(pixelSize)
	if m.Segments != 1 || m.Points != 1 || m.Triangles != 0 {
		t.Fatalf("expected 1 segment and 1 point; got %d segments, %d points and %d triangles", m.Segments, m.Points, m.Triangles)
	}
	if got := len(m.Mesh.TriangleSlice()); got != 4 {
		t.Fatalf("expected lines and points to expand to 4 triangles; got %d", got)
	}

	// Overlays are a fixed number of pixels wide at any depth
	dist := float64(sc.Camera.Position.Sub(sc.Camera.LookAt).Len())
	maxOffset := 0.5*overlayPixels*pixelSize*dist + 1e-6
	for _, tri := range m.Mesh.TriangleSlice() {
		for _, p := range tri {
			if p.Y >= dist || math.Abs(p.Z) > maxOffset {
				t.Fatalf("expected overlay vertex %v to be pulled towards the camera within %f of the view plane", p, maxOffset)
			}
		}
	}
}

func TestBarycentric(t *testing.T) {
	tri := &model3d.Triangle{model3d.XYZ(0, 0, 0), model3d.XYZ(1, 0, 0), model3d.XYZ(0, 1, 0)}

	specs := []struct {
		p   model3d.Coord3D
		exp [3]float64
	}{
		{model3d.XYZ(0, 0, 0), [3]float64{1, 0, 0}},
		{model3d.XYZ(1, 0, 0), [3]float64{0, 1, 0}},
		{model3d.XYZ(0.25, 0.5, 0), [3]float64{0.25, 0.25, 0.5}},
	}
	for specIndex, spec := range specs {
		got := barycentric(tri, spec.p)
		for i := range got {
			if math.Abs(got[i]-spec.exp[i]) > 1e-9 {
				t.Errorf("[spec %d] expected weights %v; got %v", specIndex, spec.exp, got)
				break
			}
		}
	}
}
