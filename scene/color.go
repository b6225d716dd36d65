package scene

import (
	"math"

	"github.com/achilleasa/vtkshot/types"
	"github.com/achilleasa/vtkshot/vtk"
)

// LookupTable maps scalar values to colors by linearly interpolating a range
// of HSV values.
type LookupTable struct {
	HueRange        [2]float64
	SaturationRange [2]float64
	ValueRange      [2]float64
	AlphaRange      [2]float64

	// The scalar range mapped to the first and last table entries. Values
	// outside the range are clamped.
	Range [2]float64

	NumberOfColors int

	// Color for NaN values.
	NaNColor types.Vec4

	table []types.Vec4
}

// Create the default rainbow table that maps [0, 1] from red to blue.
func DefaultLookupTable() *LookupTable {
	lut := &LookupTable{
		HueRange:        [2]float64{0, 0.6667},
		SaturationRange: [2]float64{1, 1},
		ValueRange:      [2]float64{1, 1},
		AlphaRange:      [2]float64{1, 1},
		Range:           [2]float64{0, 1},
		NumberOfColors:  256,
		NaNColor:        types.Vec4{0.5, 0, 0, 1},
	}
	lut.Build()
	return lut
}

// Build the color table.
func (lut *LookupTable) Build() {
	n := lut.NumberOfColors
	if n < 1 {
		n = 1
	}
	lut.table = make([]types.Vec4, n)
	for i := range lut.table {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		h := lerp(lut.HueRange, t)
		s := lerp(lut.SaturationRange, t)
		v := lerp(lut.ValueRange, t)
		r, g, b := hsvToRGB(h, s, v)
		lut.table[i] = types.Vec4{float32(r), float32(g), float32(b), float32(lerp(lut.AlphaRange, t))}
	}
}

// Map a scalar value to a color.
func (lut *LookupTable) Map(value float64) types.Vec4 {
	if math.IsNaN(value) {
		return lut.NaNColor
	}
	if lut.table == nil {
		lut.Build()
	}

	maxIndex := len(lut.table) - 1
	lo, hi := lut.Range[0], lut.Range[1]
	if hi <= lo {
		if value > lo {
			return lut.table[maxIndex]
		}
		return lut.table[0]
	}

	index := int(math.Floor((value - lo) * float64(len(lut.table)) / (hi - lo)))
	if index < 0 {
		index = 0
	} else if index > maxIndex {
		index = maxIndex
	}
	return lut.table[index]
}

func lerp(r [2]float64, t float64) float64 {
	return r[0] + t*(r[1]-r[0])
}

// Convert a HSV color with all components in [0, 1] to RGB.
func hsvToRGB(h, s, v float64) (r, g, b float64) {
	const sixth, third, twoThirds, fiveSixths = 1.0 / 6.0, 1.0 / 3.0, 2.0 / 3.0, 5.0 / 6.0
	switch {
	case h > sixth && h <= third:
		r, g, b = (third-h)/sixth, 1, 0
	case h > third && h <= 0.5:
		r, g, b = 0, 1, (h-third)/sixth
	case h > 0.5 && h <= twoThirds:
		r, g, b = 0, (twoThirds-h)/sixth, 1
	case h > twoThirds && h <= fiveSixths:
		r, g, b = (h-twoThirds)/sixth, 0, 1
	case h > fiveSixths && h <= 1:
		r, g, b = 1, 0, (1-h)/sixth
	default:
		r, g, b = 1, h/sixth, 0
	}
	// Blend with white based on saturation and scale by value
	r = (s*r + (1 - s)) * v
	g = (s*g + (1 - s)) * v
	b = (s*b + (1 - s)) * v
	return r, g, b
}

// colorSource yields the color of a point or cell.
type colorSource func(id int) types.Vec4

var white = types.Vec4{1, 1, 1, 1}

// Select the coloring for a dataset: active point scalars take precedence
// over active cell scalars. Returns nil sources if the respective attribute
// does not drive the color.
func selectColoring(ds vtk.Dataset, autoRange bool) (pointColor, cellColor colorSource) {
	if arr := ds.PointData().Scalars(); arr != nil && arr.NumberOfTuples() > 0 {
		return scalarColors(arr, autoRange), nil
	}
	if arr := ds.CellData().Scalars(); arr != nil && arr.NumberOfTuples() > 0 {
		return nil, scalarColors(arr, autoRange)
	}
	return nil, nil
}

func scalarColors(arr *vtk.DataArray, autoRange bool) colorSource {
	if arr.IsColor() {
		return func(id int) types.Vec4 { return directColor(arr, id) }
	}

	lut := DefaultLookupTable()
	value := func(id int) float64 { return arr.Component(id, 0) }
	if arr.NumberOfComponents > 1 {
		value = func(id int) float64 { return magnitude(arr, id) }
	}

	if autoRange {
		lo, hi := math.Inf(1), math.Inf(-1)
		for id := 0; id < arr.NumberOfTuples(); id++ {
			if v := value(id); !math.IsNaN(v) {
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
		}
		if lo <= hi {
			lut.Range = [2]float64{lo, hi}
		}
	}

	return func(id int) types.Vec4 { return lut.Map(value(id)) }
}

// Interpret an unsigned char tuple as luminance, luminance+alpha, RGB or RGBA.
func directColor(arr *vtk.DataArray, id int) types.Vec4 {
	c := func(comp int) float32 { return float32(arr.Component(id, comp) / 255) }
	switch arr.NumberOfComponents {
	case 1:
		return types.Vec4{c(0), c(0), c(0), 1}
	case 2:
		return types.Vec4{c(0), c(0), c(0), c(1)}
	case 3:
		return types.Vec4{c(0), c(1), c(2), 1}
	}
	return types.Vec4{c(0), c(1), c(2), c(3)}
}

func magnitude(arr *vtk.DataArray, id int) float64 {
	var sum float64
	for comp := 0; comp < arr.NumberOfComponents; comp++ {
		v := arr.Component(id, comp)
		sum += v * v
	}
	return math.Sqrt(sum)
}
