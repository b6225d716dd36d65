package renderer

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"

	"github.com/achilleasa/vtkshot/asset"
)

// Open the output stream for an encoded image.
var createOutput = asset.Create

// rgbaImage reports itself as translucent so the encoder always emits an RGBA
// (color type 6) image even when every pixel is opaque.
type rgbaImage struct {
	*image.NRGBA
}

func (rgbaImage) Opaque() bool { return false }

// Encode an image as an 8-bit RGBA PNG.
func encodePNG(w io.Writer, img *image.NRGBA) error {
	return png.Encode(w, rgbaImage{img})
}

// Encode an image as PNG and write it to path. The image is encoded in
// memory first so encoding failures never touch the output; a failed write
// removes the partial file. All failures wrap ErrWrite.
func WritePNG(path string, img *image.NRGBA) error {
	var buf bytes.Buffer
	if err := encodePNG(&buf, img); err != nil {
		return fmt.Errorf("%w %q: %w", ErrWrite, path, err)
	}

	w, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrWrite, path, err)
	}

	_, err = buf.WriteTo(w)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("%w %q: %w", ErrWrite, path, err)
	}
	return nil
}
