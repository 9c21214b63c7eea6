package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

// LoadNPY reads a NumPy .npy array as one or more traces. 1-D arrays
// yield a single trace, 2-D arrays one trace per row. Integer and
// float dtypes up to 8 bytes are cast to float32.
func LoadNPY(r io.Reader) ([][]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	if len(data) < 10 || string(data[:6]) != string(npyMagic) {
		return nil, fmt.Errorf("trace: not a numpy file")
	}
	major := data[6]

	var headerLen, headerStart int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		headerStart = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, fmt.Errorf("trace: truncated numpy header")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		headerStart = 12
	default:
		return nil, fmt.Errorf("trace: unsupported numpy version %d", major)
	}
	if headerStart+headerLen > len(data) {
		return nil, fmt.Errorf("trace: truncated numpy header")
	}

	header := string(data[headerStart : headerStart+headerLen])
	descr, fortran, shape, err := parseNPYHeader(header)
	if err != nil {
		return nil, err
	}

	var count int
	switch len(shape) {
	case 1:
		count = shape[0]
	case 2:
		count = shape[0] * shape[1]
		if fortran {
			return nil, fmt.Errorf("trace: fortran order 2-D numpy arrays not supported")
		}
	default:
		return nil, fmt.Errorf("trace: unsupported numpy array dimension %v", shape)
	}

	flat, err := decodeNPYData(data[headerStart+headerLen:], descr, count)
	if err != nil {
		return nil, err
	}

	if len(shape) == 1 {
		return [][]float32{flat}, nil
	}
	rows, cols := shape[0], shape[1]
	traces := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		traces[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return traces, nil
}

// parseNPYHeader extracts descr, fortran_order and shape from the
// python dict literal in the header.
func parseNPYHeader(header string) (descr string, fortran bool, shape []int, err error) {
	descr, err = npyHeaderField(header, "'descr':")
	if err != nil {
		return "", false, nil, err
	}
	descr = strings.Trim(descr, "' ")

	order, err := npyHeaderField(header, "'fortran_order':")
	if err != nil {
		return "", false, nil, err
	}
	fortran = strings.HasPrefix(strings.TrimSpace(order), "True")

	i := strings.Index(header, "'shape':")
	if i < 0 {
		return "", false, nil, fmt.Errorf("trace: numpy header missing shape")
	}
	open := strings.Index(header[i:], "(")
	closing := strings.Index(header[i:], ")")
	if open < 0 || closing < 0 || closing < open {
		return "", false, nil, fmt.Errorf("trace: malformed numpy shape")
	}
	for _, dim := range strings.Split(header[i+open+1:i+closing], ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}
		n, err := strconv.Atoi(dim)
		if err != nil || n < 0 {
			return "", false, nil, fmt.Errorf("trace: malformed numpy shape dimension %q", dim)
		}
		shape = append(shape, n)
	}
	if len(shape) == 0 {
		return "", false, nil, fmt.Errorf("trace: scalar numpy arrays not supported")
	}
	return descr, fortran, shape, nil
}

// npyHeaderField returns the raw value following a dict key, up to the
// next comma.
func npyHeaderField(header, key string) (string, error) {
	i := strings.Index(header, key)
	if i < 0 {
		return "", fmt.Errorf("trace: numpy header missing %s", strings.Trim(key, "':"))
	}
	rest := header[i+len(key):]
	if j := strings.IndexAny(rest, ",}"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest), nil
}

// decodeNPYData casts count raw elements to float32 according to the
// dtype descr.
func decodeNPYData(data []byte, descr string, count int) ([]float32, error) {
	if len(descr) < 2 {
		return nil, fmt.Errorf("trace: malformed numpy dtype %q", descr)
	}

	var order binary.ByteOrder = binary.LittleEndian
	switch descr[0] {
	case '<', '|', '=':
	case '>':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("trace: unsupported numpy byte order %q", descr)
	}

	kind := descr[1:]
	size := 1
	if len(kind) > 1 {
		n, err := strconv.Atoi(kind[1:])
		if err != nil {
			return nil, fmt.Errorf("trace: malformed numpy dtype %q", descr)
		}
		size = n
	}
	if len(data) < count*size {
		return nil, fmt.Errorf("trace: numpy data truncated: want %d bytes, have %d", count*size, len(data))
	}

	out := make([]float32, count)
	for i := 0; i < count; i++ {
		chunk := data[i*size:]
		switch kind {
		case "i1":
			out[i] = float32(int8(chunk[0]))
		case "u1":
			out[i] = float32(chunk[0])
		case "i2":
			out[i] = float32(int16(order.Uint16(chunk)))
		case "u2":
			out[i] = float32(order.Uint16(chunk))
		case "i4":
			out[i] = float32(int32(order.Uint32(chunk)))
		case "u4":
			out[i] = float32(order.Uint32(chunk))
		case "f4":
			out[i] = math.Float32frombits(order.Uint32(chunk))
		case "f8":
			out[i] = float32(math.Float64frombits(order.Uint64(chunk)))
		default:
			return nil, fmt.Errorf("trace: unsupported numpy dtype %q", descr)
		}
	}
	return out, nil
}
