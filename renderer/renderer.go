package renderer

import (
	"image"
	"math"
	"time"

	"github.com/achilleasa/vtkshot/log"
	"github.com/achilleasa/vtkshot/scene"
	"github.com/unixpickle/model3d/model3d"
	"github.com/unixpickle/model3d/render3d"
)

type Renderer interface {
	// Render frame.
	Render(sc *scene.Scene) (*image.NRGBA, error)

	// Get render statistics.
	Stats() FrameStats
}

// defaultRenderer ray casts the scene geometry. Triangles are shaded by a
// headlight; lines and points are drawn unlit.
type defaultRenderer struct {
	logger log.Logger
	opts   Options
	stats  FrameStats
}

// Create a new renderer.
func NewDefault(opts Options) (Renderer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &defaultRenderer{
		logger: log.New("renderer"),
		opts:   opts,
	}, nil
}

// Render the scene at the window size multiplied by the capture scale.
func (r *defaultRenderer) Render(sc *scene.Scene) (*image.NRGBA, error) {
	if sc == nil || sc.Camera == nil || sc.Actor == nil {
		return nil, ErrSceneNotDefined
	}
	opts := r.opts
	opts.FrameW, opts.FrameH = uint32(sc.Window.Width), uint32(sc.Window.Height)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	w, h := opts.CaptureSize()
	frame := NewFrame(w, h, sc.Window.Background)

	// The mesh lives in camera space: camera at the origin looking down +Y
	// with +Z as up. Image rows grow downwards.
	cam := &render3d.Camera{
		ScreenX:     model3d.X(1),
		ScreenY:     model3d.Z(-1),
		FieldOfView: float64(sc.Camera.FOV) * math.Pi / 180,
	}
	caster := cam.Caster(math.Max(float64(w-1), 1), math.Max(float64(h-1), 1))
	mesh := sc.RenderMesh(pixelSize(caster, w, h))

	stats := FrameStats{
		FrameW:    w,
		FrameH:    h,
		Triangles: mesh.Triangles,
		Segments:  mesh.Segments,
		Points:    mesh.Points,
	}

	if !mesh.Empty() {
		obj := render3d.Objectify(model3d.MeshToCollider(mesh.Mesh), nil)
		ray := &model3d.Ray{Origin: cam.Origin}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				ray.Direction = caster(float64(x), float64(y))
				rc, _, ok := obj.Cast(ray)
				if !ok || rc.Scale <= 0 {
					continue
				}
				if c, ok := mesh.Shade(ray, rc); ok {
					frame.set(x, y, c)
					stats.CoveredPixels++
				}
			}
		}
	}

	img := frame.Image(opts.OpaqueBackground)
	stats.RenderTime = time.Since(start)
	r.stats = stats

	r.logger.Debugf(
		"rendered %dx%d frame (%d triangles, %d segments, %d points, %d covered pixels) in %d ms",
		w, h, stats.Triangles, stats.Segments, stats.Points, stats.CoveredPixels, stats.RenderTime.Nanoseconds()/1e6,
	)
	return img, nil
}

// Get render statistics for the last frame.
func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

// Get the size of a pixel at the image center on a plane at unit distance
// from the camera.
func pixelSize(caster func(x, y float64) model3d.Coord3D, w, h int) float64 {
	cx, cy := float64(w)/2, float64(h)/2
	d0, d1 := caster(cx, cy), caster(cx+1, cy)
	return d1.Scale(1 / d1.Y).Sub(d0.Scale(1 / d0.Y)).Norm()
}
