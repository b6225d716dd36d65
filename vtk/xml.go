package vtk

import (
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/achilleasa/vtkshot/asset"
	"github.com/achilleasa/vtkshot/log"
	"gonum.org/v1/gonum/spatial/r3"
)

var appendedEncodingRegex = regexp.MustCompile(`encoding\s*=\s*"([^"]*)"`)

type xmlFile struct {
	XMLName    xml.Name `xml:"VTKFile"`
	Type       string   `xml:"type,attr"`
	Version    string   `xml:"version,attr"`
	ByteOrder  string   `xml:"byte_order,attr"`
	HeaderType string   `xml:"header_type,attr"`
	Compressor string   `xml:"compressor,attr"`

	ImageData        *xmlGrid `xml:"ImageData"`
	RectilinearGrid  *xmlGrid `xml:"RectilinearGrid"`
	StructuredGrid   *xmlGrid `xml:"StructuredGrid"`
	PolyData         *xmlGrid `xml:"PolyData"`
	UnstructuredGrid *xmlGrid `xml:"UnstructuredGrid"`
}

type xmlGrid struct {
	WholeExtent string     `xml:"WholeExtent,attr"`
	Origin      string     `xml:"Origin,attr"`
	Spacing     string     `xml:"Spacing,attr"`
	Direction   string     `xml:"Direction,attr"`
	Pieces      []xmlPiece `xml:"Piece"`
}

type xmlPiece struct {
	Extent         string `xml:"Extent,attr"`
	NumberOfPoints int    `xml:"NumberOfPoints,attr"`
	NumberOfCells  int    `xml:"NumberOfCells,attr"`
	NumberOfVerts  int    `xml:"NumberOfVerts,attr"`
	NumberOfLines  int    `xml:"NumberOfLines,attr"`
	NumberOfStrips int    `xml:"NumberOfStrips,attr"`
	NumberOfPolys  int    `xml:"NumberOfPolys,attr"`

	PointData   xmlSection `xml:"PointData"`
	CellData    xmlSection `xml:"CellData"`
	Points      xmlSection `xml:"Points"`
	Coordinates xmlSection `xml:"Coordinates"`
	Cells       xmlSection `xml:"Cells"`
	Verts       xmlSection `xml:"Verts"`
	Lines       xmlSection `xml:"Lines"`
	Strips      xmlSection `xml:"Strips"`
	Polys       xmlSection `xml:"Polys"`
}

type xmlSection struct {
	Scalars string         `xml:"Scalars,attr"`
	Arrays  []xmlDataArray `xml:"DataArray"`
}

// Lookup an array by its name.
func (s *xmlSection) array(name string) *xmlDataArray {
	for i := range s.Arrays {
		if s.Arrays[i].Name == name {
			return &s.Arrays[i]
		}
	}
	return nil
}

type xmlDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr"`
	NumberOfTuples     int    `xml:"NumberOfTuples,attr"`
	Format             string `xml:"format,attr"`
	Offset             int    `xml:"offset,attr"`
	Data               string `xml:",chardata"`
}

func (da *xmlDataArray) components() int {
	if da.NumberOfComponents < 1 {
		return 1
	}
	return da.NumberOfComponents
}

type xmlReader struct {
	logger log.Logger
	path   string
	dec    *xmlDecoder
}

// Create a new XML format reader.
func newXMLReader() *xmlReader {
	return &xmlReader{
		logger: log.New("vtk xml reader"),
	}
}

// Read an XML dataset.
func (r *xmlReader) Read(res *asset.Resource) (Dataset, error) {
	r.path = res.Path()

	data, err := io.ReadAll(res)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrOpen, r.path, err)
	}

	body, appended, encoding, err := splitAppended(data)
	if err != nil {
		return nil, r.errorf("%v", err)
	}

	var file xmlFile
	if err = xml.Unmarshal(body, &file); err != nil {
		var syntaxErr *xml.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &ParseError{Path: r.path, Line: syntaxErr.Line, Msg: syntaxErr.Msg}
		}
		if strings.Contains(err.Error(), "expected element type <VTKFile>") {
			return nil, fmt.Errorf("%w: %s", ErrNotDataset, r.path)
		}
		return nil, r.errorf("%v", err)
	}

	if r.dec, err = newXMLDecoder(&file, appended, encoding); err != nil {
		return nil, r.errorf("%v", err)
	}
	r.logger.Debugf(
		`file type %s, version %s, compressor "%s", %d bytes of appended data`,
		file.Type, file.Version, file.Compressor, len(appended),
	)

	var ds Dataset
	switch file.Type {
	case "ImageData":
		ds, err = r.readImageData(file.ImageData)
	case "RectilinearGrid":
		ds, err = r.readRectilinearGrid(file.RectilinearGrid)
	case "StructuredGrid":
		ds, err = r.readStructuredGrid(file.StructuredGrid)
	case "PolyData":
		ds, err = r.readPolyData(file.PolyData)
	case "UnstructuredGrid":
		ds, err = r.readUnstructuredGrid(file.UnstructuredGrid)
	default:
		return nil, fmt.Errorf("%w: unsupported XML file type %q in %s", ErrNotDataset, file.Type, r.path)
	}
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			return nil, err
		}
		return nil, r.errorf("%v", err)
	}

	if err = validateAttributes(ds); err != nil {
		return nil, r.errorf("%v", err)
	}
	return ds, nil
}

func (r *xmlReader) errorf(format string, args ...interface{}) error {
	return &ParseError{Path: r.path, Msg: fmt.Sprintf(format, args...)}
}

// Separate the raw appended data block from the XML markup so the markup can
// be handled by a regular XML decoder. Returns the markup, the appended bytes
// (following the leading underscore) and the appended data encoding.
func splitAppended(data []byte) (body, appended []byte, encoding string, err error) {
	start := bytes.Index(data, []byte("<AppendedData"))
	if start == -1 {
		return data, nil, "", nil
	}

	tagEnd := bytes.IndexByte(data[start:], '>')
	if tagEnd == -1 {
		return nil, nil, "", errors.New("unterminated AppendedData element")
	}
	tagEnd += start

	if m := appendedEncodingRegex.FindSubmatch(data[start:tagEnd]); m != nil {
		encoding = string(m[1])
	}

	marker := bytes.IndexByte(data[tagEnd:], '_')
	if marker == -1 {
		return nil, nil, "", errors.New("missing '_' marker in AppendedData element")
	}
	marker += tagEnd

	end := bytes.LastIndex(data, []byte("</AppendedData>"))
	if end < marker {
		return nil, nil, "", errors.New("unterminated AppendedData element")
	}

	body = make([]byte, 0, start+len("</VTKFile>"))
	body = append(body, data[:start]...)
	body = append(body, "</VTKFile>"...)
	return body, data[marker+1 : end], encoding, nil
}

func (r *xmlReader) checkGrid(grid *xmlGrid, kind string) error {
	if grid == nil {
		return fmt.Errorf("missing %s element", kind)
	}
	if len(grid.Pieces) == 0 {
		return fmt.Errorf("%s element does not contain any pieces", kind)
	}
	return nil
}

// Structured files are expected to contain a single piece covering the
// whole extent.
func (r *xmlReader) structuredPiece(grid *xmlGrid, kind string) (*xmlPiece, [6]int, error) {
	var extent [6]int
	if err := r.checkGrid(grid, kind); err != nil {
		return nil, extent, err
	}
	if len(grid.Pieces) > 1 {
		return nil, extent, fmt.Errorf("%s files with %d pieces are not supported", kind, len(grid.Pieces))
	}
	piece := &grid.Pieces[0]

	extentAttr := piece.Extent
	if extentAttr == "" {
		extentAttr = grid.WholeExtent
	}
	values, err := parseInts(extentAttr, 6)
	if err != nil {
		return nil, extent, fmt.Errorf("invalid extent: %w", err)
	}
	copy(extent[:], values)
	return piece, extent, nil
}

func (r *xmlReader) readImageData(grid *xmlGrid) (Dataset, error) {
	piece, extent, err := r.structuredPiece(grid, "ImageData")
	if err != nil {
		return nil, err
	}

	origin, spacing := r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}
	if grid.Origin != "" {
		if origin, err = parseVec(grid.Origin); err != nil {
			return nil, fmt.Errorf("invalid origin: %w", err)
		}
	}
	if grid.Spacing != "" {
		if spacing, err = parseVec(grid.Spacing); err != nil {
			return nil, fmt.Errorf("invalid spacing: %w", err)
		}
	}

	img := NewImageData(extent, origin, spacing)
	if err = img.validateDims(); err != nil {
		return nil, err
	}
	if grid.Direction != "" {
		values, err := parseFloats(grid.Direction, 9)
		if err != nil {
			return nil, fmt.Errorf("invalid direction: %w", err)
		}
		img.Direction = new([9]float64)
		copy(img.Direction[:], values)
	}

	if err = r.readAttributes(piece, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (r *xmlReader) readRectilinearGrid(grid *xmlGrid) (Dataset, error) {
	piece, extent, err := r.structuredPiece(grid, "RectilinearGrid")
	if err != nil {
		return nil, err
	}

	if len(piece.Coordinates.Arrays) != 3 {
		return nil, fmt.Errorf("expected 3 coordinate arrays; got %d", len(piece.Coordinates.Arrays))
	}
	dims := extentDims(extent)
	var coords [3][]float64
	for axis := range coords {
		if coords[axis], err = r.dec.decodeArray(&piece.Coordinates.Arrays[axis], dims[axis]); err != nil {
			return nil, fmt.Errorf("%c coordinates: %w", 'x'+axis, err)
		}
	}

	rg := NewRectilinearGrid(coords[0], coords[1], coords[2])
	if err = rg.validateDims(); err != nil {
		return nil, err
	}
	if err = r.readAttributes(piece, rg); err != nil {
		return nil, err
	}
	return rg, nil
}

func (r *xmlReader) readStructuredGrid(grid *xmlGrid) (Dataset, error) {
	piece, extent, err := r.structuredPiece(grid, "StructuredGrid")
	if err != nil {
		return nil, err
	}

	dims := extentDims(extent)
	points, err := r.readPoints(piece, dims[0]*dims[1]*dims[2])
	if err != nil {
		return nil, err
	}

	sg, err := NewStructuredGrid(dims, points)
	if err != nil {
		return nil, err
	}
	if err = r.readAttributes(piece, sg); err != nil {
		return nil, err
	}
	return sg, nil
}

func (r *xmlReader) readPolyData(grid *xmlGrid) (Dataset, error) {
	if err := r.checkGrid(grid, "PolyData"); err != nil {
		return nil, err
	}

	var out *PolyData
	for i := range grid.Pieces {
		piece := &grid.Pieces[i]
		points, err := r.readPoints(piece, piece.NumberOfPoints)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}

		pd := &PolyData{Points: points}
		for _, sec := range []struct {
			name  string
			src   *xmlSection
			count int
			dst   *CellArray
		}{
			{"Verts", &piece.Verts, piece.NumberOfVerts, &pd.Verts},
			{"Lines", &piece.Lines, piece.NumberOfLines, &pd.Lines},
			{"Strips", &piece.Strips, piece.NumberOfStrips, &pd.Strips},
			{"Polys", &piece.Polys, piece.NumberOfPolys, &pd.Polys},
		} {
			if sec.count == 0 {
				continue
			}
			cells, err := r.readCells(sec.src, sec.count)
			if err != nil {
				return nil, fmt.Errorf("piece %d %s: %w", i, sec.name, err)
			}
			*sec.dst = *cells
		}
		if err = pd.validate(); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if err = r.readAttributes(piece, pd); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}

		if out == nil {
			out = pd
			continue
		}
		out.merge(pd)
	}
	return out, nil
}

func (r *xmlReader) readUnstructuredGrid(grid *xmlGrid) (Dataset, error) {
	if err := r.checkGrid(grid, "UnstructuredGrid"); err != nil {
		return nil, err
	}

	var out *UnstructuredGrid
	for i := range grid.Pieces {
		piece := &grid.Pieces[i]
		points, err := r.readPoints(piece, piece.NumberOfPoints)
		if err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}

		ug := &UnstructuredGrid{Points: points}
		if piece.NumberOfCells > 0 {
			cells, err := r.readCells(&piece.Cells, piece.NumberOfCells)
			if err != nil {
				return nil, fmt.Errorf("piece %d: %w", i, err)
			}
			ug.Cells = *cells

			da := piece.Cells.array("types")
			if da == nil {
				return nil, fmt.Errorf(`piece %d: missing "types" array`, i)
			}
			values, err := r.dec.decodeArray(da, piece.NumberOfCells)
			if err != nil {
				return nil, fmt.Errorf("piece %d types: %w", i, err)
			}
			ug.Types = make([]CellType, len(values))
			for j, v := range values {
				if v < 0 || v > 255 || v != float64(int(v)) {
					return nil, fmt.Errorf("piece %d: invalid cell type %v for cell %d", i, v, j)
				}
				ug.Types[j] = CellType(v)
			}
			if err = r.readFaces(&piece.Cells, ug); err != nil {
				return nil, fmt.Errorf("piece %d: %w", i, err)
			}
		}
		if err = ug.validate(); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}
		if err = r.readAttributes(piece, ug); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i, err)
		}

		if out == nil {
			out = ug
			continue
		}
		out.merge(ug)
	}
	return out, nil
}

// Decode the "faces" and "faceoffsets" arrays of a cell section. Each face
// offset marks the end of a cell's face stream or is -1 for cells that are
// not polyhedra.
func (r *xmlReader) readFaces(sec *xmlSection, ug *UnstructuredGrid) error {
	offsetsArr, facesArr := sec.array("faceoffsets"), sec.array("faces")
	if offsetsArr == nil || facesArr == nil {
		return nil
	}

	offsetValues, err := r.dec.decodeArray(offsetsArr, len(ug.Types))
	if err != nil {
		return fmt.Errorf("faceoffsets: %w", err)
	}
	offsets, err := toInts(offsetValues)
	if err != nil {
		return fmt.Errorf("faceoffsets: %w", err)
	}
	faceValues, err := r.dec.decodeArray(facesArr, -1)
	if err != nil {
		return fmt.Errorf("faces: %w", err)
	}
	stream, err := toInts(faceValues)
	if err != nil {
		return fmt.Errorf("faces: %w", err)
	}

	start := 0
	for cellID, end := range offsets {
		if end < 0 {
			continue
		}
		if end < start || end > len(stream) {
			return fmt.Errorf("face offset %d of cell %d is out of range [%d, %d]", end, cellID, start, len(stream))
		}
		if ug.Types[cellID] == Polyhedron {
			if err = ug.setFaces(cellID, stream[start:end]); err != nil {
				return err
			}
		}
		start = end
	}
	return nil
}

func (r *xmlReader) readPoints(piece *xmlPiece, numPoints int) ([]r3.Vec, error) {
	if numPoints == 0 {
		return nil, nil
	}
	if len(piece.Points.Arrays) == 0 {
		return nil, errors.New("missing Points array")
	}
	da := &piece.Points.Arrays[0]
	if da.components() != 3 {
		return nil, fmt.Errorf("points array must have 3 components; got %d", da.components())
	}
	values, err := r.dec.decodeArray(da, numPoints*3)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	points := make([]r3.Vec, numPoints)
	for i := range points {
		points[i] = r3.Vec{X: values[3*i], Y: values[3*i+1], Z: values[3*i+2]}
	}
	return points, nil
}

// Read a connectivity/offsets pair. XML offsets only store the end offset of
// each cell.
func (r *xmlReader) readCells(sec *xmlSection, numCells int) (*CellArray, error) {
	offsetsArr, connArr := sec.array("offsets"), sec.array("connectivity")
	if offsetsArr == nil || connArr == nil {
		return nil, errors.New(`cell section requires "connectivity" and "offsets" arrays`)
	}

	offsetValues, err := r.dec.decodeArray(offsetsArr, numCells)
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}
	offsets, err := toInts(offsetValues)
	if err != nil {
		return nil, fmt.Errorf("offsets: %w", err)
	}

	connValues, err := r.dec.decodeArray(connArr, -1)
	if err != nil {
		return nil, fmt.Errorf("connectivity: %w", err)
	}
	conn, err := toInts(connValues)
	if err != nil {
		return nil, fmt.Errorf("connectivity: %w", err)
	}

	return cellArrayFromOffsets(offsets, conn, false)
}

// Decode the point and cell data arrays of a piece. Arrays with types that
// cannot be represented numerically are skipped.
func (r *xmlReader) readAttributes(piece *xmlPiece, ds Dataset) error {
	for _, sec := range []struct {
		src    *xmlSection
		dst    *Attributes
		tuples int
	}{
		{&piece.PointData, ds.PointData(), ds.NumberOfPoints()},
		{&piece.CellData, ds.CellData(), ds.NumberOfCells()},
	} {
		for i := range sec.src.Arrays {
			da := &sec.src.Arrays[i]
			typ, ok := xmlScalarType(da.Type)
			if !ok {
				r.logger.Warningf(`skipping array "%s" with unsupported type "%s"`, da.Name, da.Type)
				continue
			}
			values, err := r.dec.decodeArray(da, sec.tuples*da.components())
			if err != nil {
				return fmt.Errorf("array %q: %w", da.Name, err)
			}
			sec.dst.Add(&DataArray{
				Name:               da.Name,
				Type:               typ,
				NumberOfComponents: da.components(),
				Values:             values,
			}, da.Name == sec.src.Scalars)
		}
	}
	return nil
}

// Parse a whitespace separated list of exactly n ints.
func parseInts(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values; got %d", n, len(fields))
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// Parse a whitespace separated list of exactly n floats.
func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values; got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q", f)
		}
		out[i] = v
	}
	return out, nil
}

func parseVec(s string) (r3.Vec, error) {
	v, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vec{}, err
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Collect the sorted, de-duplicated offsets of all appended arrays.
func appendedOffsets(file *xmlFile) []int {
	seen := make(map[int]struct{})
	visit := func(sec *xmlSection) {
		for _, da := range sec.Arrays {
			if da.Format == "appended" {
				seen[da.Offset] = struct{}{}
			}
		}
	}
	for _, grid := range []*xmlGrid{file.ImageData, file.RectilinearGrid, file.StructuredGrid, file.PolyData, file.UnstructuredGrid} {
		if grid == nil {
			continue
		}
		for i := range grid.Pieces {
			p := &grid.Pieces[i]
			for _, sec := range []*xmlSection{&p.PointData, &p.CellData, &p.Points, &p.Coordinates, &p.Cells, &p.Verts, &p.Lines, &p.Strips, &p.Polys} {
				visit(sec)
			}
		}
	}

	offsets := make([]int, 0, len(seen))
	for off := range seen {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	return offsets
}

func byteOrder(name string) (binary.ByteOrder, error) {
	switch name {
	case "", "LittleEndian":
		return binary.LittleEndian, nil
	case "BigEndian":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unsupported byte order %q", name)
}
