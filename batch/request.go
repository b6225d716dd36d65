package batch

import (
	"math"
	"strconv"

	"github.com/achilleasa/vtkshot/vtk"
)

// Request describes a batch conversion over a closed index range.
type Request struct {
	BaseFilename string
	StartIndex   uint
	EndIndex     uint

	// The requested file extension and the format family it maps to.
	Extension string
	Family    vtk.Family
}

// Number of files covered by the request. Saturates at math.MaxUint64 when the
// range spans every uint64 index.
func (r *Request) Count() uint64 {
	n := uint64(r.EndIndex - r.StartIndex)
	if n == math.MaxUint64 {
		return n
	}
	return n + 1
}

// Resolve the positional arguments (base filename, start index, end index and
// extension) into a request. No I/O is performed.
func Resolve(args []string) (*Request, error) {
	if len(args) < 4 {
		return nil, ErrUsage
	}

	req := &Request{
		BaseFilename: args[0],
		Extension:    args[3],
	}
	if req.BaseFilename == "" {
		return nil, usageErrorf("input base filename is empty")
	}

	start, err := parseIndex("start", args[1])
	if err != nil {
		return nil, err
	}
	end, err := parseIndex("end", args[2])
	if err != nil {
		return nil, err
	}
	if start > end {
		return nil, usageErrorf("start index should be less than or equal to the end index")
	}
	req.StartIndex, req.EndIndex = start, end

	if req.Family, err = vtk.DetectFormat(req.Extension); err != nil {
		return nil, &Error{Kind: KindFormat, Err: err}
	}
	return req, nil
}

func parseIndex(name, value string) (uint, error) {
	v, err := strconv.ParseUint(value, 10, strconv.IntSize)
	if err != nil {
		return 0, usageErrorf("invalid %s index %q; expected a non-negative integer", name, value)
	}
	return uint(v), nil
}
