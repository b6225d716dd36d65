package vtk

import (
	"fmt"
	"time"

	"github.com/achilleasa/vtkshot/asset"
	"github.com/achilleasa/vtkshot/log"
)

// Family selects the reader used for a dataset file.
type Family uint8

// The supported format families.
const (
	// Single file legacy format (.vtk).
	Legacy Family = iota

	// XML container format (.vti, .vtp, .vtu, .vtr, .vts).
	XML
)

func (f Family) String() string {
	switch f {
	case Legacy:
		return "legacy"
	case XML:
		return "xml"
	}
	return fmt.Sprintf("Family(%d)", f)
}

// Map a file extension (without the leading dot) to a format family.
func DetectFormat(extension string) (Family, error) {
	switch extension {
	case "vtk":
		return Legacy, nil
	case "vti", "vtp", "vtu", "vtr", "vts":
		return XML, nil
	}
	return 0, &FormatError{Extension: extension}
}

// The Reader interface is implemented by all dataset readers.
type Reader interface {
	// Read a dataset from a resource.
	Read(*asset.Resource) (Dataset, error)
}

var logger = log.New("vtk")

// Load a dataset from a local file or http(s) URL. The concrete dataset kind
// is detected from the file contents.
func Load(path string, family Family) (Dataset, error) {
	var reader Reader
	switch family {
	case Legacy:
		reader = newLegacyReader()
	case XML:
		reader = newXMLReader()
	default:
		return nil, fmt.Errorf("vtk: invalid format family %d", family)
	}

	res, err := asset.NewResource(path)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpen, path, err)
	}
	defer res.Close()

	logger.Infof(`parsing %s dataset from "%s"`, family, res.Path())
	start := time.Now()

	ds, err := reader.Read(res)
	if err != nil {
		return nil, err
	}

	logger.Infof(
		"parsed %s with %d points and %d cells in %d ms",
		ds.Kind(), ds.NumberOfPoints(), ds.NumberOfCells(), time.Since(start).Nanoseconds()/1e6,
	)
	return ds, nil
}
