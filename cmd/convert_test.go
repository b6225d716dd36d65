package cmd

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli"
)

func runApp(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	app := NewApp()
	app.Writer = &outBuf
	app.ErrWriter = &errBuf
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		if exitErr, ok := err.(cli.ExitCoder); ok {
			exitCode = exitErr.ExitCode()
		}
	}

	err := app.Run(append([]string{"vtkshot"}, args...))
	if err != nil && exitCode == 0 {
		t.Fatalf("unexpected error: %v", err)
	}
	return outBuf.String(), errBuf.String(), exitCode
}

func TestUsageRequest(t *testing.T) {
	_, stderr, exitCode := runApp(t, "MyFile-", "1")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0; got %d", exitCode)
	}
	for _, exp := range []string{"InputBaseFilename", "FileExtension", "vtkshot MyFile- 1 20 vtk", "vtu"} {
		if !strings.Contains(stderr, exp) {
			t.Fatalf("expected usage text to contain %q; got:\n%s", exp, stderr)
		}
	}
}

func TestExitCodes(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing-")

	specs := []struct {
		args    []string
		expCode int
	}{
		{[]string{"f", "5", "3", "vtk"}, 2},
		{[]string{"--width", "0", "f", "1", "2", "vtk"}, 2},
		{[]string{"f", "1", "2", "obj"}, 3},
		{[]string{missing, "1", "2", "vtk"}, 4},
	}

	for specIndex, spec := range specs {
		stdout, _, exitCode := runApp(t, spec.args...)
		if exitCode != spec.expCode {
			t.Errorf("[spec %d] expected exit code %d; got %d", specIndex, spec.expCode, exitCode)
		}
		if stdout != "" {
			t.Errorf("[spec %d] expected no conversion output; got %q", specIndex, stdout)
		}
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	payload := "# vtk DataFile Version 3.0\nline\nASCII\nDATASET POLYDATA\nPOINTS 2 float\n0 0 0 1 1 0\nLINES 1 3\n2 0 1\n"
	for _, name := range []string{"frame-0.vtk", "frame-1.vtk"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}
	}

	base := filepath.Join(dir, "frame-")
	stdout, stderr, exitCode := runApp(t, "--width", "40", "--height", "30", "--scale", "1", "--stats", base, "0", "1", "vtk")
	if exitCode != 0 {
		t.Fatalf("expected exit code 0; got %d (%s)", exitCode, stderr)
	}

	expOut := base + "0.vtk converted to " + base + "0.png.\n" +
		base + "1.vtk converted to " + base + "1.png.\n"
	if stdout != expOut {
		t.Fatalf("expected output:\n%s\ngot:\n%s", expOut, stdout)
	}
	if !strings.Contains(stderr, "conversion statistics") || !strings.Contains(stderr, "PolyData") {
		t.Fatalf("expected stats table on stderr; got:\n%s", stderr)
	}

	for _, name := range []string{"frame-0.png", "frame-1.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to be written; got %v", name, err)
		}
	}
}

func TestConvertBackgroundAlpha(t *testing.T) {
	dir := t.TempDir()
	payload := "# vtk DataFile Version 3.0\npoint\nASCII\nDATASET POLYDATA\nPOINTS 1 float\n0 0 0\nVERTICES 1 2\n1 0\n"
	if err := os.WriteFile(filepath.Join(dir, "frame-0.vtk"), []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}
	base := filepath.Join(dir, "frame-")

	specs := []struct {
		args     []string
		expAlpha uint32
	}{
		{[]string{"--width", "10", "--height", "10", "--scale", "1", base, "0", "0", "vtk"}, 0},
		{[]string{"--width", "10", "--height", "10", "--scale", "1", "--opaque-background", base, "0", "0", "vtk"}, 0xffff},
	}

	for specIndex, spec := range specs {
		if _, _, exitCode := runApp(t, spec.args...); exitCode != 0 {
			t.Fatalf("[spec %d] expected exit code 0; got %d", specIndex, exitCode)
		}

		f, err := os.Open(base + "0.png")
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			t.Fatal(err)
		}
		if _, _, _, a := img.At(0, 0).RGBA(); a != spec.expAlpha {
			t.Errorf("[spec %d] expected background alpha %d; got %d", specIndex, spec.expAlpha, a)
		}
	}
}
