package vtk

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz"
)

// Supported block compressors.
const (
	compressorZLib = "vtkZLibDataCompressor"
	compressorLZ4  = "vtkLZ4DataCompressor"
	compressorLZMA = "vtkLZMADataCompressor"
)

// Upper bound for the number of compressed blocks in a single array.
const maxCompressedBlocks = 1 << 24

// xmlDecoder converts the inline or appended payload of data arrays to
// values.
type xmlDecoder struct {
	order      binary.ByteOrder
	headerSize int
	compressor string

	appended       []byte
	appendedBase64 bool

	// Sorted offsets of all appended arrays; used to delimit base64 blocks.
	offsets []int
}

func newXMLDecoder(file *xmlFile, appended []byte, encoding string) (*xmlDecoder, error) {
	order, err := byteOrder(file.ByteOrder)
	if err != nil {
		return nil, err
	}

	d := &xmlDecoder{
		order:      order,
		headerSize: 4,
		compressor: file.Compressor,
		appended:   appended,
	}

	switch file.HeaderType {
	case "", "UInt32":
	case "UInt64":
		d.headerSize = 8
	default:
		return nil, fmt.Errorf("unsupported header type %q", file.HeaderType)
	}

	switch d.compressor {
	case "", compressorZLib, compressorLZ4, compressorLZMA:
	default:
		return nil, fmt.Errorf("unsupported compressor %q", d.compressor)
	}

	switch encoding {
	case "raw":
	case "base64":
		d.appendedBase64 = true
		d.appended = stripSpace(appended)
	case "":
		if appended != nil {
			return nil, errors.New("missing AppendedData encoding")
		}
	default:
		return nil, fmt.Errorf("unsupported AppendedData encoding %q", encoding)
	}

	if d.appended != nil {
		d.offsets = appendedOffsets(file)
	}
	return d, nil
}

// Decode the values of an array. If count is negative, all values present in
// the payload are returned; otherwise exactly count values are expected.
func (d *xmlDecoder) decodeArray(da *xmlDataArray, count int) ([]float64, error) {
	typ, ok := xmlScalarType(da.Type)
	if !ok {
		return nil, fmt.Errorf("unsupported data type %q", da.Type)
	}

	if da.Format == "ascii" {
		return decodeASCII(da.Data, count)
	}

	var (
		payload []byte
		err     error
	)
	switch da.Format {
	case "binary":
		var raw []byte
		if raw, err = decodeBase64Chunks(da.Data); err != nil {
			return nil, err
		}
		payload, _, err = d.unpack(raw)
	case "appended":
		payload, err = d.appendedPayload(da.Offset)
	default:
		return nil, fmt.Errorf("unsupported array format %q", da.Format)
	}
	if err != nil {
		return nil, err
	}

	if count < 0 {
		count = len(payload) / typ.Size()
	}
	return decodeBinary(payload, typ, d.order, count)
}

func decodeASCII(text string, count int) ([]float64, error) {
	fields := strings.Fields(text)
	if count >= 0 && len(fields) < count {
		return nil, fmt.Errorf("expected %d values; got %d", count, len(fields))
	}
	if count < 0 {
		count = len(fields)
	}
	out := make([]float64, count)
	for i := range out {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q at index %d", fields[i], i)
		}
		out[i] = v
	}
	return out, nil
}

// Get the uncompressed payload of the appended block at offset.
func (d *xmlDecoder) appendedPayload(offset int) ([]byte, error) {
	if offset < 0 || offset >= len(d.appended) {
		return nil, fmt.Errorf("appended data offset %d is out of range [0, %d)", offset, len(d.appended))
	}

	if !d.appendedBase64 {
		payload, _, err := d.unpack(d.appended[offset:])
		return payload, err
	}

	end := len(d.appended)
	if next := sort.SearchInts(d.offsets, offset+1); next < len(d.offsets) {
		end = d.offsets[next]
	}
	raw, err := decodeBase64Chunks(string(d.appended[offset:end]))
	if err != nil {
		return nil, err
	}
	payload, _, err := d.unpack(raw)
	return payload, err
}

// Read the index-th header word.
func (d *xmlDecoder) header(buf []byte, index int) (int, error) {
	start := index * d.headerSize
	if start+d.headerSize > len(buf) {
		return 0, fmt.Errorf("truncated block header; need %d bytes; got %d", start+d.headerSize, len(buf))
	}
	var v uint64
	if d.headerSize == 8 {
		v = d.order.Uint64(buf[start:])
	} else {
		v = uint64(d.order.Uint32(buf[start:]))
	}
	if v > maxBlockSize {
		return 0, fmt.Errorf("block header value %d is too large", v)
	}
	return int(v), nil
}

// Unpack a binary block consisting of a header and (optionally compressed)
// data. Returns the uncompressed data and the number of bytes consumed.
func (d *xmlDecoder) unpack(buf []byte) ([]byte, int, error) {
	if d.compressor == "" {
		size, err := d.header(buf, 0)
		if err != nil {
			return nil, 0, err
		}
		end := d.headerSize + size
		if end > len(buf) {
			return nil, 0, fmt.Errorf("truncated data block; need %d bytes; got %d", size, len(buf)-d.headerSize)
		}
		return buf[d.headerSize:end], end, nil
	}

	numBlocks, err := d.header(buf, 0)
	if err != nil {
		return nil, 0, err
	}
	if numBlocks > maxCompressedBlocks {
		return nil, 0, fmt.Errorf("invalid compressed block count %d", numBlocks)
	}
	blockSize, err := d.header(buf, 1)
	if err != nil {
		return nil, 0, err
	}
	lastSize, err := d.header(buf, 2)
	if err != nil {
		return nil, 0, err
	}

	pos := (3 + numBlocks) * d.headerSize
	var out []byte
	for block := 0; block < numBlocks; block++ {
		compressedSize, err := d.header(buf, 3+block)
		if err != nil {
			return nil, 0, err
		}
		if pos+compressedSize > len(buf) {
			return nil, 0, fmt.Errorf("truncated compressed block %d", block)
		}

		size := blockSize
		if block == numBlocks-1 && lastSize != 0 {
			size = lastSize
		}
		data, err := d.decompress(buf[pos:pos+compressedSize], size)
		if err != nil {
			return nil, 0, fmt.Errorf("block %d: %w", block, err)
		}
		out = append(out, data...)
		pos += compressedSize
	}
	return out, pos, nil
}

// Decompress a single block that is expected to expand to size bytes.
func (d *xmlDecoder) decompress(block []byte, size int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch d.compressor {
	case compressorZLib:
		var zr io.ReadCloser
		if zr, err = zlib.NewReader(bytes.NewReader(block)); err != nil {
			return nil, err
		}
		defer zr.Close()
		out, err = io.ReadAll(io.LimitReader(zr, int64(size)+1))
	case compressorLZ4:
		out = make([]byte, size)
		var n int
		n, err = lz4.UncompressBlock(block, out)
		out = out[:max(n, 0)]
	case compressorLZMA:
		var xr *xz.Reader
		if xr, err = xz.NewReader(bytes.NewReader(block)); err != nil {
			return nil, err
		}
		out, err = io.ReadAll(io.LimitReader(xr, int64(size)+1))
	}
	if err != nil {
		return nil, err
	}
	if len(out) != size {
		return nil, fmt.Errorf("expected %d uncompressed bytes; got %d", size, len(out))
	}
	return out, nil
}

// Decode base64 text that may consist of several independently encoded
// chunks, each terminated by padding.
func decodeBase64Chunks(text string) ([]byte, error) {
	clean := stripSpace([]byte(text))

	var out []byte
	for len(clean) > 0 {
		end := bytes.IndexByte(clean, '=')
		if end == -1 {
			end = len(clean)
		} else {
			for end < len(clean) && clean[end] == '=' {
				end++
			}
		}

		chunk := clean[:end]
		buf := make([]byte, base64.StdEncoding.DecodedLen(len(chunk)))
		n, err := base64.StdEncoding.Decode(buf, chunk)
		if err != nil {
			return nil, fmt.Errorf("invalid base64 data: %w", err)
		}
		out = append(out, buf[:n]...)
		clean = clean[end:]
	}
	return out, nil
}

func stripSpace(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		out = append(out, b)
	}
	return out
}
