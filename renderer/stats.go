package renderer

import "time"

type FrameStats struct {
	// Frame dims.
	FrameW int
	FrameH int

	// Number of primitives in the ray cast mesh.
	Triangles int
	Segments  int
	Points    int

	// Number of pixels covered by scene geometry.
	CoveredPixels int

	// Time spent building the scene from the dataset.
	SceneTime time.Duration

	// Total render time for entire frame.
	RenderTime time.Duration

	// Time spent encoding and writing the image.
	WriteTime time.Duration
}
