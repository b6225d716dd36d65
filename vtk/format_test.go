package vtk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fortytw2/leaktest"
	"github.com/wader/osleaktest"
)

func leakChecks(t *testing.T) func() {
	leakFn := leaktest.Check(t)
	osLeakFn := osleaktest.Check(t)
	return func() {
		leakFn()
		osLeakFn()
	}
}

func TestDetectFormat(t *testing.T) {
	specs := []struct {
		ext       string
		expFamily Family
		expErr    bool
	}{
		{"vtk", Legacy, false},
		{"vtp", XML, false},
		{"vtu", XML, false},
		{"vti", XML, false},
		{"vtr", XML, false},
		{"vts", XML, false},
		{"VTK", 0, true},
		{"stl", 0, true},
		{"", 0, true},
	}

	for specIndex, spec := range specs {
		family, err := DetectFormat(spec.ext)
		if spec.expErr {
			var formatErr *FormatError
			if !errors.As(err, &formatErr) || formatErr.Extension != spec.ext {
				t.Errorf("[spec %d] expected a FormatError for %q; got %v", specIndex, spec.ext, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			continue
		}
		if family != spec.expFamily {
			t.Errorf("[spec %d] expected family %s; got %s", specIndex, spec.expFamily, family)
		}
	}
}

func TestFormatErrorMessage(t *testing.T) {
	err := &FormatError{Extension: "stl"}
	if exp := `file type "stl" is not supported`; err.Error() != exp {
		t.Fatalf("expected error message %q; got %q", exp, err.Error())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	defer leakChecks(t)()

	path := filepath.Join(dir, "sphere0.vtk")
	payload := legacyHeader + "ASCII\nDATASET POLYDATA\nPOINTS 2 float\n0 0 0 1 1 1\nLINES 1 3\n2 0 1\n"
	if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
		t.Fatal(err)
	}

	ds, err := Load(path, Legacy)
	if err != nil {
		t.Fatal(err)
	}
	if ds.NumberOfCells() != 1 {
		t.Fatalf("expected 1 cell; got %d", ds.NumberOfCells())
	}
}

func TestLoadMissingFile(t *testing.T) {
	defer leakChecks(t)()

	path := filepath.Join(t.TempDir(), "missing.vtk")
	_, err := Load(path, Legacy)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen; got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected error to wrap os.ErrNotExist; got %v", err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.vtp")
	if err := os.WriteFile(path, []byte("<VTKFile type=\"PolyData\"><PolyData>"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path, XML)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a ParseError; got %v", err)
	}
	if errors.Is(err, ErrOpen) {
		t.Fatal("expected parse errors not to be reported as open errors")
	}
}
