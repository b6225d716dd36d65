package vtk

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// ScalarType enumerates the value types that can be stored in a DataArray.
type ScalarType uint8

// The supported scalar types.
const (
	Bit ScalarType = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Int64
	UInt64
	Float32
	Float64
)

var scalarTypeNames = [...]string{
	Bit:     "Bit",
	Int8:    "Int8",
	UInt8:   "UInt8",
	Int16:   "Int16",
	UInt16:  "UInt16",
	Int32:   "Int32",
	UInt32:  "UInt32",
	Int64:   "Int64",
	UInt64:  "UInt64",
	Float32: "Float32",
	Float64: "Float64",
}

func (t ScalarType) String() string {
	if int(t) < len(scalarTypeNames) {
		return scalarTypeNames[t]
	}
	return fmt.Sprintf("ScalarType(%d)", t)
}

// Size returns the encoded size of a single value in bytes. Bit values are
// packed and report a size of 0.
func (t ScalarType) Size() int {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64:
		return 8
	}
	return 0
}

// Map a legacy format type name to a ScalarType.
func legacyScalarType(name string) (ScalarType, bool) {
	switch strings.ToLower(name) {
	case "bit":
		return Bit, true
	case "char":
		return Int8, true
	case "unsigned_char":
		return UInt8, true
	case "short":
		return Int16, true
	case "unsigned_short":
		return UInt16, true
	case "int":
		return Int32, true
	case "unsigned_int":
		return UInt32, true
	case "long", "vtktypeint64", "vtkidtype":
		return Int64, true
	case "unsigned_long", "vtktypeuint64":
		return UInt64, true
	case "float":
		return Float32, true
	case "double":
		return Float64, true
	}
	return 0, false
}

// Map an XML format type name to a ScalarType.
func xmlScalarType(name string) (ScalarType, bool) {
	switch name {
	case "Int8", "Char":
		return Int8, true
	case "UInt8", "UnsignedChar":
		return UInt8, true
	case "Int16":
		return Int16, true
	case "UInt16":
		return UInt16, true
	case "Int32":
		return Int32, true
	case "UInt32":
		return UInt32, true
	case "Int64", "IdType":
		return Int64, true
	case "UInt64":
		return UInt64, true
	case "Float32":
		return Float32, true
	case "Float64":
		return Float64, true
	}
	return 0, false
}

// DataArray stores a named array of tuples. Values are widened to float64
// regardless of the on-disk type which is kept in Type.
type DataArray struct {
	Name               string
	Type               ScalarType
	NumberOfComponents int
	Values             []float64
}

// Get the number of tuples in the array.
func (a *DataArray) NumberOfTuples() int {
	if a.NumberOfComponents <= 0 {
		return 0
	}
	return len(a.Values) / a.NumberOfComponents
}

// Get a single component of a tuple.
func (a *DataArray) Component(tuple, comp int) float64 {
	return a.Values[tuple*a.NumberOfComponents+comp]
}

// Get the value range of a component. NaN values are ignored. If the array
// holds no finite values, both min and max are 0.
func (a *DataArray) Range(comp int) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for tuple := 0; tuple < a.NumberOfTuples(); tuple++ {
		v := a.Component(tuple, comp)
		if math.IsNaN(v) {
			continue
		}
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if min > max {
		return 0, 0
	}
	return min, max
}

// IsColor returns true if the array values can be used directly as colors
// instead of being mapped through a lookup table.
func (a *DataArray) IsColor() bool {
	return a.Type == UInt8 && a.NumberOfComponents >= 1 && a.NumberOfComponents <= 4
}

// Convert a slice of values to ints, ensuring they are integral.
func (a *DataArray) Ints() ([]int, error) {
	return toInts(a.Values)
}

func toInts(values []float64) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("expected an integer value at index %d; got %v", i, v)
		}
		out[i] = int(v)
	}
	return out, nil
}

// Decode count values of type typ from buf.
func decodeBinary(buf []byte, typ ScalarType, order binary.ByteOrder, count int) ([]float64, error) {
	if typ == Bit {
		if need := (count + 7) / 8; len(buf) < need {
			return nil, fmt.Errorf("expected %d bytes of bit data; got %d", need, len(buf))
		}
		out := make([]float64, count)
		for i := range out {
			out[i] = float64((buf[i/8] >> (7 - uint(i%8))) & 1)
		}
		return out, nil
	}

	size := typ.Size()
	if len(buf) < count*size {
		return nil, fmt.Errorf("expected %d bytes of %s data; got %d", count*size, typ, len(buf))
	}

	out := make([]float64, count)
	for i := range out {
		b := buf[i*size : (i+1)*size]
		switch typ {
		case Int8:
			out[i] = float64(int8(b[0]))
		case UInt8:
			out[i] = float64(b[0])
		case Int16:
			out[i] = float64(int16(order.Uint16(b)))
		case UInt16:
			out[i] = float64(order.Uint16(b))
		case Int32:
			out[i] = float64(int32(order.Uint32(b)))
		case UInt32:
			out[i] = float64(order.Uint32(b))
		case Int64:
			out[i] = float64(int64(order.Uint64(b)))
		case UInt64:
			out[i] = float64(order.Uint64(b))
		case Float32:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case Float64:
			out[i] = math.Float64frombits(order.Uint64(b))
		}
	}
	return out, nil
}

// Attributes holds the point or cell data arrays of a dataset.
type Attributes struct {
	Arrays []*DataArray

	// The name of the array that acts as the active scalars.
	ActiveScalars string
}

// Add an array. If active is true and no active scalars have been set, the
// array becomes the active scalars.
func (a *Attributes) Add(arr *DataArray, active bool) {
	a.Arrays = append(a.Arrays, arr)
	if active && a.ActiveScalars == "" {
		a.ActiveScalars = arr.Name
	}
}

// Lookup an array by name.
func (a *Attributes) Array(name string) *DataArray {
	for _, arr := range a.Arrays {
		if arr.Name == name {
			return arr
		}
	}
	return nil
}

// Get the active scalars or nil if none are defined.
func (a *Attributes) Scalars() *DataArray {
	if a.ActiveScalars == "" {
		return nil
	}
	return a.Array(a.ActiveScalars)
}

// Ensure that all arrays contain the expected number of tuples.
func (a *Attributes) validate(section string, tuples int) error {
	for _, arr := range a.Arrays {
		if arr.NumberOfTuples() != tuples {
			return fmt.Errorf("%s array %q has %d tuples; expected %d", section, arr.Name, arr.NumberOfTuples(), tuples)
		}
	}
	return nil
}

// Append the arrays of another attribute set. Arrays that are not present in
// both sets with the same component count are dropped.
func (a *Attributes) merge(other *Attributes) {
	a.mergeSections(other, nil, nil)
}

// Merge the arrays of another attribute set whose tuples are grouped into
// consecutive sections (e.g. poly data verts, lines, polys and strips). own
// and theirs hold the tuple count of each section; the merged arrays list the
// tuples of each section from both sets before moving to the next section.
// Nil sections append the other set's tuples at the end.
func (a *Attributes) mergeSections(other *Attributes, own, theirs []int) {
	kept := a.Arrays[:0]
	for _, arr := range a.Arrays {
		src := other.Array(arr.Name)
		if src == nil || src.NumberOfComponents != arr.NumberOfComponents {
			if arr.Name == a.ActiveScalars {
				a.ActiveScalars = ""
			}
			continue
		}
		arr.Values = interleaveSections(arr.Values, src.Values, arr.NumberOfComponents, own, theirs)
		kept = append(kept, arr)
	}
	a.Arrays = kept
}

func interleaveSections(dst, src []float64, numComponents int, own, theirs []int) []float64 {
	if len(own) == 0 || len(own) != len(theirs) || sum(own)*numComponents != len(dst) || sum(theirs)*numComponents != len(src) {
		return append(dst, src...)
	}

	out := make([]float64, 0, len(dst)+len(src))
	var dstOff, srcOff int
	for i := range own {
		n, m := own[i]*numComponents, theirs[i]*numComponents
		out = append(out, dst[dstOff:dstOff+n]...)
		out = append(out, src[srcOff:srcOff+m]...)
		dstOff += n
		srcOff += m
	}
	return out
}

func sum(values []int) int {
	var total int
	for _, v := range values {
		total += v
	}
	return total
}
