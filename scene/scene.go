package scene

import (
	"errors"
	"fmt"

	"github.com/achilleasa/vtkshot/log"
	"github.com/achilleasa/vtkshot/types"
	"github.com/achilleasa/vtkshot/vtk"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrNilDataset = errors.New("scene: no dataset specified")
	ErrEmptyView  = errors.New("scene: invalid window size")
)

var logger = log.New("scene")

// Window describes the off-screen render window.
type Window struct {
	Title string

	// Logical window size.
	Width  int
	Height int

	Borders bool

	// Background color.
	Background types.Vec3
}

// Options controls scene construction.
type Options struct {
	// Logical window size.
	Width  int
	Height int

	// Camera rotation in degrees applied after resetting the camera.
	Azimuth   float32
	Elevation float32

	// Map scalars over their data range instead of [0, 1].
	AutoRange bool
}

type Scene struct {
	Window Window
	Camera *Camera
	Actor  *Actor

	// World space position of the local coordinate origin.
	Center r3.Vec

	// Dataset bounds in local coordinates.
	Bounds r3.Box
}

// Build a scene containing a single actor for the dataset surface together
// with a default camera that frames the dataset.
func New(ds vtk.Dataset, opts Options) (*Scene, error) {
	if ds == nil {
		return nil, ErrNilDataset
	}
	if opts.Width < 1 || opts.Height < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyView, opts.Width, opts.Height)
	}

	bounds := ds.Bounds()
	center := r3.Scale(0.5, r3.Add(bounds.Min, bounds.Max))
	local := r3.Box{Min: r3.Sub(bounds.Min, center), Max: r3.Sub(bounds.Max, center)}

	pointColor, cellColor := selectColoring(ds, opts.AutoRange)
	actor := newActor(ds.Surface(), center, pointColor, cellColor)
	if actor.Skipped > 0 {
		logger.Warningf("skipped %d cells with unsupported types", actor.Skipped)
	}
	if actor.Degenerate > 0 {
		logger.Debugf("dropped %d degenerate polygons", actor.Degenerate)
	}

	camera := NewCamera(DefaultViewAngle)
	camera.Reset(local)
	if opts.Azimuth != 0 {
		camera.Azimuth(opts.Azimuth)
	}
	if opts.Elevation != 0 {
		camera.Elevation(opts.Elevation)
	}
	camera.ResetClippingRange(local)
	camera.Update()
	logger.Debugf("camera: %s", camera)

	return &Scene{
		Window: Window{
			Title:      "Screenshot",
			Width:      opts.Width,
			Height:     opts.Height,
			Borders:    true,
			Background: types.Vec3{1, 1, 1},
		},
		Camera: camera,
		Actor:  actor,
		Center: center,
		Bounds: local,
	}, nil
}

// Stats returns a summary of the scene contents.
func (s *Scene) Stats() string {
	return fmt.Sprintf(
		"%d triangles, %d segments, %d points, %d skipped cells",
		len(s.Actor.Triangles), len(s.Actor.Segments), len(s.Actor.Points), s.Actor.Skipped,
	)
}
