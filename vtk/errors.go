package vtk

import (
	"errors"
	"fmt"
)

var (
	ErrOpen       = errors.New("vtk: could not open input")
	ErrNotDataset = errors.New("vtk: input is not a dataset")
)

// ParseError reports malformed dataset contents.
type ParseError struct {
	Path string

	// The 1-based line where the error was detected; 0 if unknown.
	Line int

	Msg string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("vtk: [%s: %d] %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("vtk: [%s] %s", e.Path, e.Msg)
}

// FormatError is returned for file extensions that do not map to a supported
// format family.
type FormatError struct {
	Extension string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("file type %q is not supported", e.Extension)
}
