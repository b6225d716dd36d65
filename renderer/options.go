package renderer

// Default window settings.
const (
	DefaultWidth  = 300
	DefaultHeight = 300
	DefaultScale  = 3
)

// Upper bound for the number of pixels in a captured frame.
const maxFramePixels = 1 << 26

type Options struct {
	// Logical window dims.
	FrameW uint32
	FrameH uint32

	// Supersampling factor applied to the window dims when capturing.
	Scale uint32

	// Write background pixels with full alpha. By default the background is
	// captured with zero alpha.
	OpaqueBackground bool

	// Map scalars over their data range instead of [0, 1].
	AutoRange bool

	// Camera rotation (in degrees) applied after the camera is reset.
	Azimuth   float32
	Elevation float32
}

// Get the default options.
func DefaultOptions() Options {
	return Options{
		FrameW: DefaultWidth,
		FrameH: DefaultHeight,
		Scale:  DefaultScale,
	}
}

// Validate the options.
func (o Options) Validate() error {
	if o.FrameW == 0 || o.FrameH == 0 {
		return ErrInvalidSize
	}
	if o.Scale == 0 {
		return ErrInvalidScale
	}
	if uint64(o.FrameW)*uint64(o.Scale)*uint64(o.FrameH)*uint64(o.Scale) > maxFramePixels {
		return ErrFrameTooLarge
	}
	return nil
}

// Get the dims of the captured image.
func (o Options) CaptureSize() (w, h int) {
	return int(o.FrameW * o.Scale), int(o.FrameH * o.Scale)
}
