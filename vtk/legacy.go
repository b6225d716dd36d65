package vtk

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/achilleasa/vtkshot/asset"
	"github.com/achilleasa/vtkshot/log"
	"gonum.org/v1/gonum/spatial/r3"
)

// Upper bound for a single binary block; larger sizes indicate corrupt headers.
const maxBlockSize = 1 << 31

// legacyScanner tokenizes legacy files which mix keyword lines, whitespace
// separated ASCII values and raw big-endian binary blocks.
type legacyScanner struct {
	r    *bufio.Reader
	path string
	line int

	// Unconsumed tokens of the current line.
	fields []string
}

func (s *legacyScanner) errorf(format string, args ...interface{}) error {
	return &ParseError{Path: s.path, Line: s.line, Msg: fmt.Sprintf(format, args...)}
}

// Read a raw line without its line terminator.
func (s *legacyScanner) rawLine() (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	s.line++
	return strings.TrimRight(line, "\r\n"), nil
}

// Get the next non-empty line. Any unconsumed tokens of the current line are
// returned first.
func (s *legacyScanner) nextLine() (string, error) {
	if len(s.fields) != 0 {
		line := strings.Join(s.fields, " ")
		s.fields = nil
		return line, nil
	}
	for {
		line, err := s.rawLine()
		if err != nil {
			return "", err
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed, nil
		}
	}
}

// Get the next whitespace separated token.
func (s *legacyScanner) nextToken() (string, error) {
	for len(s.fields) == 0 {
		line, err := s.rawLine()
		if err == io.EOF {
			return "", s.errorf("unexpected end of file")
		} else if err != nil {
			return "", err
		}
		s.fields = strings.Fields(line)
	}
	tok := s.fields[0]
	s.fields = s.fields[1:]
	return tok, nil
}

// Check whether the upcoming input starts with keyword without consuming it.
// Leading whitespace is only skipped if skipSpace is set as it may belong to
// a binary block.
func (s *legacyScanner) peekKeyword(keyword string, skipSpace bool) bool {
	if len(s.fields) != 0 {
		return strings.EqualFold(s.fields[0], keyword)
	}
	for skipSpace {
		b, err := s.r.Peek(1)
		if err != nil {
			return false
		}
		switch b[0] {
		case '\n':
			s.line++
		case ' ', '\t', '\r':
		default:
			skipSpace = false
			continue
		}
		s.r.ReadByte()
	}
	b, err := s.r.Peek(len(keyword))
	if err != nil {
		return false
	}
	return strings.EqualFold(string(b), keyword)
}

// Skip lines up to and including the next blank line.
func (s *legacyScanner) skipBlock() error {
	for {
		line, err := s.rawLine()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			return nil
		}
	}
}

// Read count values of the given type, either as ASCII tokens or as a
// big-endian binary block.
func (s *legacyScanner) readValues(count int, typ ScalarType, isBinary bool) ([]float64, error) {
	if count < 0 {
		return nil, s.errorf("invalid value count %d", count)
	}

	if isBinary {
		size := count * typ.Size()
		if typ == Bit {
			size = (count + 7) / 8
		}
		if size > maxBlockSize {
			return nil, s.errorf("binary block of %d bytes is too large", size)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(s.r, buf); err != nil {
			return nil, s.errorf("truncated binary data: %v", err)
		}
		values, err := decodeBinary(buf, typ, binary.BigEndian, count)
		if err != nil {
			return nil, s.errorf("%v", err)
		}
		return values, nil
	}

	initialCap := count
	if initialCap > 1<<20 {
		initialCap = 1 << 20
	}
	out := make([]float64, 0, initialCap)
	for i := 0; i < count; i++ {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, s.errorf("invalid %s value %q", typ, tok)
		}
		out = append(out, v)
	}
	return out, nil
}

type legacyReader struct {
	logger log.Logger
	scan   *legacyScanner

	version string
	title   string
	binary  bool
	kind    string

	// Geometry for the various dataset kinds.
	dims       *[3]int
	origin     r3.Vec
	spacing    r3.Vec
	points     []r3.Vec
	coords     [3][]float64
	hasCoords  [3]bool
	verts      *CellArray
	lines      *CellArray
	polys      *CellArray
	strips     *CellArray
	cells      *CellArray
	cellTypes  []CellType
	fieldData  Attributes
	pointData  Attributes
	cellData   Attributes
	section    *Attributes
	sectionLen int
}

// Create a new legacy format reader.
func newLegacyReader() *legacyReader {
	return &legacyReader{
		logger:  log.New("vtk legacy reader"),
		spacing: r3.Vec{X: 1, Y: 1, Z: 1},
	}
}

// Read a legacy dataset.
func (r *legacyReader) Read(res *asset.Resource) (Dataset, error) {
	r.scan = &legacyScanner{r: bufio.NewReader(res), path: res.Path()}

	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	r.logger.Debugf(`file version %s, title "%s", binary: %t`, r.version, r.title, r.binary)

	if err := r.parseBody(); err != nil {
		return nil, err
	}

	ds, err := r.assemble()
	if err != nil {
		if errors.Is(err, ErrNotDataset) {
			return nil, fmt.Errorf("%w: %s", err, res.Path())
		}
		return nil, &ParseError{Path: res.Path(), Msg: err.Error()}
	}
	return ds, nil
}

func (r *legacyReader) parseHeader() error {
	line, err := r.scan.rawLine()
	if err != nil {
		return r.scan.errorf("missing file header")
	}
	const magic = "# vtk datafile version"
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), magic) {
		return r.scan.errorf("unrecognized file header %q", line)
	}
	r.version = strings.TrimSpace(strings.TrimSpace(line)[len(magic):])

	if r.title, err = r.scan.rawLine(); err != nil {
		return r.scan.errorf("missing title line")
	}

	format, err := r.scan.nextLine()
	if err != nil {
		return r.scan.errorf("missing file format line")
	}
	switch strings.ToUpper(format) {
	case "ASCII":
	case "BINARY":
		r.binary = true
	default:
		return r.scan.errorf(`unsupported file format %q; expected "ASCII" or "BINARY"`, format)
	}
	return nil
}

func (r *legacyReader) parseBody() error {
	for {
		line, err := r.scan.nextLine()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		fields := strings.Fields(line)
		keyword := strings.ToUpper(fields[0])
		switch keyword {
		case "DATASET":
			if len(fields) != 2 {
				return r.scan.errorf(`unsupported syntax for "DATASET"; expected 1 argument; got %d`, len(fields)-1)
			}
			r.kind = strings.ToUpper(fields[1])
		case "DIMENSIONS":
			v, err := r.parseInts(fields, 3)
			if err != nil {
				return err
			}
			r.dims = &[3]int{v[0], v[1], v[2]}
		case "ORIGIN":
			r.origin, err = r.parseVec(fields)
		case "SPACING", "ASPECT_RATIO":
			r.spacing, err = r.parseVec(fields)
		case "POINTS":
			r.points, err = r.readPoints(fields)
		case "X_COORDINATES", "Y_COORDINATES", "Z_COORDINATES":
			axis := int(keyword[0] - 'X')
			r.coords[axis], err = r.readCoordinates(fields)
			r.hasCoords[axis] = true
		case "VERTICES":
			r.verts, err = r.readCells(fields)
		case "LINES":
			r.lines, err = r.readCells(fields)
		case "POLYGONS":
			r.polys, err = r.readCells(fields)
		case "TRIANGLE_STRIPS":
			r.strips, err = r.readCells(fields)
		case "CELLS":
			r.cells, err = r.readCells(fields)
		case "CELL_TYPES":
			r.cellTypes, err = r.readCellTypes(fields)
		case "POINT_DATA", "CELL_DATA":
			v, err := r.parseInts(fields, 1)
			if err != nil {
				return err
			}
			r.section, r.sectionLen = &r.pointData, v[0]
			if keyword == "CELL_DATA" {
				r.section = &r.cellData
			}
		case "FIELD":
			target, tuples := &r.fieldData, -1
			if r.section != nil {
				target, tuples = r.section, r.sectionLen
			}
			err = r.readField(fields, target, tuples)
		case "METADATA":
			err = r.scan.skipBlock()
		case "LOOKUP_TABLE":
			err = r.skipLookupTable(fields)
		case "SCALARS", "COLOR_SCALARS", "VECTORS", "NORMALS", "TEXTURE_COORDINATES", "TENSORS", "TENSORS6", "GLOBAL_IDS", "PEDIGREE_IDS":
			if r.section == nil {
				return r.scan.errorf(`"%s" must follow a POINT_DATA or CELL_DATA section`, keyword)
			}
			err = r.readAttribute(keyword, fields)
		default:
			return r.scan.errorf("unsupported keyword %q", fields[0])
		}

		if err != nil {
			return err
		}
	}
}

func (r *legacyReader) parseInts(fields []string, count int) ([]int, error) {
	if len(fields) < count+1 {
		return nil, r.scan.errorf(`unsupported syntax for "%s"; expected %d arguments; got %d`, fields[0], count, len(fields)-1)
	}
	out := make([]int, count)
	for i := range out {
		v, err := strconv.Atoi(fields[i+1])
		if err != nil {
			return nil, r.scan.errorf(`invalid integer argument %q for "%s"`, fields[i+1], fields[0])
		}
		out[i] = v
	}
	return out, nil
}

func (r *legacyReader) parseVec(fields []string) (r3.Vec, error) {
	if len(fields) < 4 {
		return r3.Vec{}, r.scan.errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, fields[0], len(fields)-1)
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return r3.Vec{}, r.scan.errorf(`invalid float argument %q for "%s"`, fields[i+1], fields[0])
		}
		v[i] = f
	}
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}, nil
}

// Parse a value type argument.
func (r *legacyReader) parseType(fields []string, index int) (ScalarType, error) {
	if len(fields) <= index {
		return 0, r.scan.errorf(`missing data type for "%s"`, fields[0])
	}
	typ, ok := legacyScalarType(fields[index])
	if !ok {
		return 0, r.scan.errorf("unsupported data type %q", fields[index])
	}
	return typ, nil
}

// Parse "POINTS n type".
func (r *legacyReader) readPoints(fields []string) ([]r3.Vec, error) {
	n, err := r.parseInts(fields, 1)
	if err != nil {
		return nil, err
	}
	typ, err := r.parseType(fields, 2)
	if err != nil {
		return nil, err
	}
	values, err := r.scan.readValues(n[0]*3, typ, r.binary)
	if err != nil {
		return nil, err
	}
	points := make([]r3.Vec, n[0])
	for i := range points {
		points[i] = r3.Vec{X: values[3*i], Y: values[3*i+1], Z: values[3*i+2]}
	}
	return points, nil
}

// Parse "[XYZ]_COORDINATES n type".
func (r *legacyReader) readCoordinates(fields []string) ([]float64, error) {
	n, err := r.parseInts(fields, 1)
	if err != nil {
		return nil, err
	}
	typ, err := r.parseType(fields, 2)
	if err != nil {
		return nil, err
	}
	return r.scan.readValues(n[0], typ, r.binary)
}

// Parse a cell list. Both the classic "KEYWORD n size" packed layout and the
// offsets/connectivity layout of version 5 files are supported.
func (r *legacyReader) readCells(fields []string) (*CellArray, error) {
	v, err := r.parseInts(fields, 2)
	if err != nil {
		return nil, err
	}
	n, size := v[0], v[1]

	if r.scan.peekKeyword("OFFSETS", !r.binary) {
		offsets, err := r.readIndexArray("OFFSETS", n)
		if err != nil {
			return nil, err
		}
		if !r.scan.peekKeyword("CONNECTIVITY", true) {
			return nil, r.scan.errorf(`expected "CONNECTIVITY" after "OFFSETS" in "%s" section`, fields[0])
		}
		connectivity, err := r.readIndexArray("CONNECTIVITY", size)
		if err != nil {
			return nil, err
		}
		cells, err := cellArrayFromOffsets(offsets, connectivity, true)
		if err != nil {
			return nil, r.scan.errorf("%v", err)
		}
		return cells, nil
	}

	values, err := r.scan.readValues(size, Int32, r.binary)
	if err != nil {
		return nil, err
	}
	ints, err := toInts(values)
	if err != nil {
		return nil, r.scan.errorf("%v", err)
	}
	cells, err := cellArrayFromPacked(ints, n)
	if err != nil {
		return nil, r.scan.errorf("%v", err)
	}
	return cells, nil
}

// Parse an "OFFSETS type" or "CONNECTIVITY type" block.
func (r *legacyReader) readIndexArray(keyword string, count int) ([]int, error) {
	line, err := r.scan.nextLine()
	if err != nil {
		return nil, r.scan.errorf(`missing "%s" block`, keyword)
	}
	fields := strings.Fields(line)
	typ, err := r.parseType(fields, 1)
	if err != nil {
		return nil, err
	}
	values, err := r.scan.readValues(count, typ, r.binary)
	if err != nil {
		return nil, err
	}
	ints, err := toInts(values)
	if err != nil {
		return nil, r.scan.errorf("%v", err)
	}
	return ints, nil
}

// Parse "CELL_TYPES n".
func (r *legacyReader) readCellTypes(fields []string) ([]CellType, error) {
	n, err := r.parseInts(fields, 1)
	if err != nil {
		return nil, err
	}
	values, err := r.scan.readValues(n[0], Int32, r.binary)
	if err != nil {
		return nil, err
	}
	types := make([]CellType, len(values))
	for i, v := range values {
		if v < 0 || v > 255 || v != float64(int(v)) {
			return nil, r.scan.errorf("invalid cell type %v for cell %d", v, i)
		}
		types[i] = CellType(v)
	}
	return types, nil
}

// Parse a point or cell attribute array.
func (r *legacyReader) readAttribute(keyword string, fields []string) error {
	if len(fields) < 2 {
		return r.scan.errorf(`unsupported syntax for "%s"; expected an array name`, keyword)
	}

	arr := &DataArray{Name: fields[1], NumberOfComponents: 1}
	typeIndex := 2
	active := false
	switch keyword {
	case "SCALARS":
		active = true
		if len(fields) > 3 {
			ncomp, err := strconv.Atoi(fields[3])
			if err != nil || ncomp < 1 || ncomp > 4 {
				return r.scan.errorf("invalid scalar component count %q", fields[3])
			}
			arr.NumberOfComponents = ncomp
		}
	case "COLOR_SCALARS":
		active = true
		typeIndex = -1
		ncomp, err := r.parseInts(fields[1:], 1)
		if err != nil {
			return err
		}
		arr.NumberOfComponents = ncomp[0]
	case "VECTORS", "NORMALS":
		arr.NumberOfComponents = 3
	case "TEXTURE_COORDINATES":
		dim, err := r.parseInts(fields[1:], 1)
		if err != nil {
			return err
		}
		arr.NumberOfComponents = dim[0]
		typeIndex = 3
	case "TENSORS":
		arr.NumberOfComponents = 9
	case "TENSORS6":
		arr.NumberOfComponents = 6
	}

	if typeIndex > 0 {
		typ, err := r.parseType(fields, typeIndex)
		if err != nil {
			return err
		}
		arr.Type = typ
	}

	if keyword == "SCALARS" && r.scan.peekKeyword("LOOKUP_TABLE", !r.binary) {
		if _, err := r.scan.nextLine(); err != nil {
			return err
		}
	}

	count := r.sectionLen * arr.NumberOfComponents
	var err error
	if keyword == "COLOR_SCALARS" {
		arr.Type = UInt8
		if arr.Values, err = r.scan.readValues(count, UInt8, r.binary); err != nil {
			return err
		}
		// ASCII colors are stored as floats in [0, 1]
		if !r.binary {
			for i, v := range arr.Values {
				arr.Values[i] = float64(int(v*255 + 0.5))
			}
		}
	} else if arr.Values, err = r.scan.readValues(count, arr.Type, r.binary); err != nil {
		return err
	}

	r.section.Add(arr, active)
	return nil
}

// Parse "FIELD name n" followed by n arrays.
func (r *legacyReader) readField(fields []string, target *Attributes, tuples int) error {
	n, err := r.parseInts(fields[1:], 1)
	if err != nil {
		return err
	}

	for i := 0; i < n[0]; i++ {
		line, err := r.scan.nextLine()
		if err != nil {
			return r.scan.errorf("expected %d field arrays; got %d", n[0], i)
		}
		af := strings.Fields(line)
		if strings.EqualFold(af[0], "NULL_ARRAY") {
			continue
		}
		if len(af) != 4 {
			return r.scan.errorf("unsupported syntax for field array; expected: name numComponents numTuples type; got %q", line)
		}
		v, err := r.parseInts(af[:3], 2)
		if err != nil {
			return err
		}
		ncomp, ntuples := v[0], v[1]
		if ncomp < 1 || ntuples < 0 {
			return r.scan.errorf("invalid dimensions for field array %q", af[0])
		}
		if tuples >= 0 && ntuples != tuples {
			return r.scan.errorf("field array %q has %d tuples; expected %d", af[0], ntuples, tuples)
		}
		typ, err := r.parseType(af, 3)
		if err != nil {
			return err
		}
		values, err := r.scan.readValues(ncomp*ntuples, typ, r.binary)
		if err != nil {
			return err
		}
		target.Add(&DataArray{Name: af[0], Type: typ, NumberOfComponents: ncomp, Values: values}, false)

		if r.scan.peekKeyword("METADATA", true) {
			if _, err = r.scan.nextLine(); err != nil {
				return err
			}
			if err = r.scan.skipBlock(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Skip a standalone "LOOKUP_TABLE name size" block.
func (r *legacyReader) skipLookupTable(fields []string) error {
	if len(fields) < 3 {
		return r.scan.errorf(`unsupported syntax for "LOOKUP_TABLE"; expected 2 arguments; got %d`, len(fields)-1)
	}
	size, err := r.parseInts(fields[1:], 1)
	if err != nil {
		return err
	}
	typ := Float32
	if r.binary {
		typ = UInt8
	}
	_, err = r.scan.readValues(size[0]*4, typ, r.binary)
	return err
}

// Assemble the parsed sections into a dataset.
func (r *legacyReader) assemble() (Dataset, error) {
	var ds Dataset
	switch r.kind {
	case "":
		return nil, fmt.Errorf("%w: missing DATASET section", ErrNotDataset)
	case "STRUCTURED_POINTS":
		if r.dims == nil {
			return nil, errors.New(`structured points require a "DIMENSIONS" section`)
		}
		img := NewImageData([6]int{0, r.dims[0] - 1, 0, r.dims[1] - 1, 0, r.dims[2] - 1}, r.origin, r.spacing)
		if err := img.validateDims(); err != nil {
			return nil, err
		}
		img.pointData, img.cellData = r.pointData, r.cellData
		ds = img
	case "STRUCTURED_GRID":
		if r.dims == nil {
			return nil, errors.New(`structured grids require a "DIMENSIONS" section`)
		}
		grid, err := NewStructuredGrid(*r.dims, r.points)
		if err != nil {
			return nil, err
		}
		grid.pointData, grid.cellData = r.pointData, r.cellData
		ds = grid
	case "RECTILINEAR_GRID":
		for axis, ok := range r.hasCoords {
			if !ok {
				return nil, fmt.Errorf("rectilinear grid is missing %c coordinates", 'X'+axis)
			}
		}
		grid := NewRectilinearGrid(r.coords[0], r.coords[1], r.coords[2])
		if r.dims != nil && *r.dims != grid.Dims {
			return nil, fmt.Errorf("rectilinear grid dimensions %v do not match coordinate counts %v", *r.dims, grid.Dims)
		}
		if err := grid.validateDims(); err != nil {
			return nil, err
		}
		grid.pointData, grid.cellData = r.pointData, r.cellData
		ds = grid
	case "POLYDATA":
		pd := &PolyData{Points: r.points}
		for _, pair := range []struct {
			dst *CellArray
			src *CellArray
		}{{&pd.Verts, r.verts}, {&pd.Lines, r.lines}, {&pd.Polys, r.polys}, {&pd.Strips, r.strips}} {
			if pair.src != nil {
				*pair.dst = *pair.src
			}
		}
		if err := pd.validate(); err != nil {
			return nil, err
		}
		pd.pointData, pd.cellData = r.pointData, r.cellData
		ds = pd
	case "UNSTRUCTURED_GRID":
		ug := &UnstructuredGrid{Points: r.points, Types: r.cellTypes}
		if r.cells != nil {
			ug.Cells = *r.cells
		}
		if err := ug.unpackPolyhedra(); err != nil {
			return nil, err
		}
		if err := ug.validate(); err != nil {
			return nil, err
		}
		ug.pointData, ug.cellData = r.pointData, r.cellData
		ds = ug
	default:
		return nil, fmt.Errorf("%w: unsupported dataset type %q", ErrNotDataset, r.kind)
	}

	if err := validateAttributes(ds); err != nil {
		return nil, err
	}
	return ds, nil
}
