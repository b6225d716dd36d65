package batch

import (
	"fmt"
	"strconv"
	"strings"
)

// Generate the input filename for an index. The ".vtk" suffix is appended
// regardless of the requested format.
func GenerateInputFilename(base string, index uint) string {
	return GenerateInputFilenameExt(base, index, "vtk")
}

// Generate the input filename for an index using the given extension.
func GenerateInputFilenameExt(base string, index uint, extension string) string {
	return base + strconv.FormatUint(uint64(index), 10) + "." + extension
}

// Generate the output filename by replacing everything after the last dot of
// the input filename with "png".
func GenerateOutputFilename(input string) (string, error) {
	dot := strings.LastIndex(input, ".")
	if dot == -1 {
		return "", &Error{Kind: KindNaming, Err: fmt.Errorf("cannot derive output filename from %q: no file extension", input)}
	}
	return input[:dot] + ".png", nil
}
