package renderer

import (
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"
)

var errDiskFull = errors.New("disk full")

type failingWriter struct {
	io.WriteCloser
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errDiskFull
}

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestWritePNGColorType(t *testing.T) {
	dir := t.TempDir()
	defer leakChecks(t)()

	specs := []struct {
		img *image.NRGBA
	}{
		{solidImage(4, 4, color.NRGBA{255, 255, 255, 0})},
		// Fully opaque images still carry an alpha channel
		{solidImage(4, 4, color.NRGBA{255, 0, 0, 255})},
	}

	for specIndex, spec := range specs {
		outFile := filepath.Join(dir, "out.png")
		if err := WritePNG(outFile, spec.img); err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		data, err := os.ReadFile(outFile)
		if err != nil {
			t.Fatalf("[spec %d] %v", specIndex, err)
		}
		if len(data) < 26 || string(data[12:16]) != "IHDR" {
			t.Fatalf("[spec %d] expected file to start with an IHDR chunk", specIndex)
		}
		if bitDepth, colorType := data[24], data[25]; bitDepth != 8 || colorType != 6 {
			t.Errorf("[spec %d] expected an 8-bit RGBA image (color type 6); got bit depth %d, color type %d", specIndex, bitDepth, colorType)
		}
	}
}

func TestEncodePNGWriterError(t *testing.T) {
	err := encodePNG(failingWriter{}, solidImage(4, 4, color.NRGBA{A: 255}))
	if err == nil {
		t.Fatal("expected encoding into a failing writer to return an error")
	}
}

func TestWritePNGRemovesPartialFile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "out.png")

	defer func(orig func(string) (io.WriteCloser, error)) { createOutput = orig }(createOutput)
	createOutput = func(path string) (io.WriteCloser, error) {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		return failingWriter{f}, nil
	}

	err := WritePNG(outFile, solidImage(4, 4, color.NRGBA{A: 255}))
	if !errors.Is(err, ErrWrite) || !errors.Is(err, errDiskFull) {
		t.Fatalf("expected ErrWrite wrapping the write failure; got %v", err)
	}
	if _, err = os.Stat(outFile); !os.IsNotExist(err) {
		t.Fatalf("expected partial output file to be removed; got %v", err)
	}
}
