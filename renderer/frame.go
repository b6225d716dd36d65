package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/achilleasa/vtkshot/types"
	"github.com/unixpickle/model3d/render3d"
)

// Frame is an off-screen color buffer that tracks which pixels were covered
// by scene geometry.
type Frame struct {
	W int
	H int

	Background types.Vec3

	color   *render3d.Image
	covered []bool
}

// Create a frame cleared to the background color.
func NewFrame(w, h int, background types.Vec3) *Frame {
	f := &Frame{
		W:          w,
		H:          h,
		Background: background,
		color:      render3d.NewImage(w, h),
		covered:    make([]bool, w*h),
	}
	bg := render3d.NewColorRGB(float64(background[0]), float64(background[1]), float64(background[2]))
	for i := range f.color.Data {
		f.color.Data[i] = bg
	}
	return f
}

// Write the color of a covered pixel.
func (f *Frame) set(x, y int, c types.Vec4) {
	if x < 0 || y < 0 || x >= f.W || y >= f.H {
		return
	}
	i := y*f.W + x
	f.color.Data[i] = render3d.NewColorRGB(float64(c[0]), float64(c[1]), float64(c[2]))
	f.covered[i] = true
}

// Check whether any geometry covers the given pixel.
func (f *Frame) Covered(x, y int) bool {
	return f.covered[y*f.W+x]
}

// Convert the frame to an image. Covered pixels are opaque; background pixels
// have zero alpha unless opaqueBackground is set.
func (f *Frame) Image(opaqueBackground bool) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.W, f.H))
	var bgAlpha uint8
	if opaqueBackground {
		bgAlpha = 255
	}

	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			i := y*f.W + x
			c := f.color.Data[i]
			alpha := bgAlpha
			if f.covered[i] {
				alpha = 255
			}
			img.SetNRGBA(x, y, color.NRGBA{toByte(c.X), toByte(c.Y), toByte(c.Z), alpha})
		}
	}
	return img
}

func toByte(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
