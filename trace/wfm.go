package trace

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gogpu/traceview"
)

// Tektronix WFM parser, versions 1 to 3, single frame and FastFrame.
// Reference: Tektronix "Reference Waveform File Format" manual
// (077-0220-11).

type wfmVersion int

const (
	wfmV1 wfmVersion = 1
	wfmV2 wfmVersion = 2
	wfmV3 wfmVersion = 3
)

// wfmFormat is the explicit dimension curve encoding.
type wfmFormat int

const (
	wfmInt16 wfmFormat = iota
	wfmInt32
	wfmUint32
	wfmUint64
	wfmFp32
	wfmFp64
	wfmUint8
	wfmInt8
)

func (f wfmFormat) bytesPerPoint() int {
	switch f {
	case wfmInt8, wfmUint8:
		return 1
	case wfmInt16:
		return 2
	case wfmInt32, wfmUint32, wfmFp32:
		return 4
	default:
		return 8
	}
}

func (f wfmFormat) String() string {
	switch f {
	case wfmInt16:
		return "int16"
	case wfmInt32:
		return "int32"
	case wfmUint32:
		return "uint32"
	case wfmUint64:
		return "uint64"
	case wfmFp32:
		return "fp32"
	case wfmFp64:
		return "fp64"
	case wfmUint8:
		return "uint8"
	case wfmInt8:
		return "int8"
	default:
		return "unknown"
	}
}

// wfmParser reads the header sequentially with a sticky error, so the
// field-by-field walk reads like the format manual instead of a wall
// of bounds checks.
type wfmParser struct {
	data  []byte
	pos   int
	order binary.ByteOrder
	err   error
}

func (p *wfmParser) fail(pos, n int) {
	if p.err == nil {
		p.err = fmt.Errorf("trace: wfm file truncated at offset %d (+%d)", pos, n)
	}
}

func (p *wfmParser) skip(n int) {
	if p.err != nil {
		return
	}
	if p.pos+n > len(p.data) {
		p.fail(p.pos, n)
		return
	}
	p.pos += n
}

func (p *wfmParser) readU8() uint8 {
	if p.err != nil {
		return 0
	}
	if p.pos+1 > len(p.data) {
		p.fail(p.pos, 1)
		return 0
	}
	v := p.data[p.pos]
	p.pos++
	return v
}

func (p *wfmParser) readU32() uint32 {
	if p.err != nil {
		return 0
	}
	if p.pos+4 > len(p.data) {
		p.fail(p.pos, 4)
		return 0
	}
	v := p.order.Uint32(p.data[p.pos:])
	p.pos += 4
	return v
}

func (p *wfmParser) readF64() float64 {
	if p.err != nil {
		return 0
	}
	if p.pos+8 > len(p.data) {
		p.fail(p.pos, 8)
		return 0
	}
	v := math.Float64frombits(p.order.Uint64(p.data[p.pos:]))
	p.pos += 8
	return v
}

func (p *wfmParser) readString(n int) string {
	if p.err != nil {
		return ""
	}
	if p.pos+n > len(p.data) {
		p.fail(p.pos, n)
		return ""
	}
	raw := p.data[p.pos : p.pos+n]
	p.pos += n
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

// readSampleAt reads one raw curve point at an absolute byte offset.
func (p *wfmParser) readSampleAt(offset int, format wfmFormat) float64 {
	switch format {
	case wfmInt8:
		return float64(int8(p.data[offset]))
	case wfmUint8:
		return float64(p.data[offset])
	case wfmInt16:
		return float64(int16(p.order.Uint16(p.data[offset:])))
	case wfmInt32:
		return float64(int32(p.order.Uint32(p.data[offset:])))
	case wfmUint32:
		return float64(p.order.Uint32(p.data[offset:]))
	case wfmUint64:
		return float64(p.order.Uint64(p.data[offset:]))
	case wfmFp32:
		return float64(math.Float32frombits(p.order.Uint32(p.data[offset:])))
	default:
		return math.Float64frombits(p.order.Uint64(p.data[offset:]))
	}
}

// wfmCurve is one WfmCurveObject: curve data offsets local to the
// frame's portion of the curve buffer.
type wfmCurve struct {
	dataStart       int
	postchargeStart int
	postchargeStop  int
}

// readCurveObject reads a 30 byte WfmCurveObject.
func (p *wfmParser) readCurveObject() wfmCurve {
	p.skip(4 + 4 + 2) // state_flags, type_of_checksum, checksum
	p.skip(4)         // precharge_start
	c := wfmCurve{}
	c.dataStart = int(p.readU32())
	c.postchargeStart = int(p.readU32())
	c.postchargeStop = int(p.readU32())
	p.skip(4) // end_of_curve
	return c
}

// skipUserView skips an explicit or implicit dimension user view.
func (p *wfmParser) skipUserView(version wfmVersion) {
	p.skip(8)  // user_scale
	p.skip(20) // user_units
	p.skip(8)  // user_offset
	if version == wfmV3 {
		p.skip(8) // point_density (f64 in V3)
	} else {
		p.skip(4) // point_density (u32 in V1/V2)
	}
	p.skip(8) // href
	p.skip(8) // trig_delay
}

// LoadWFM reads a Tektronix WFM file and returns all frames as
// separate traces. Single-frame files yield one trace; FastFrame
// files one per frame.
//
// Raw curve values are converted with voltage = raw*scale + offset
// using the explicit dimension 1 header.
func LoadWFM(r io.Reader) ([][]float32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	if len(data) < 78 {
		return nil, fmt.Errorf("trace: wfm file too small for static file header")
	}

	p := &wfmParser{data: data, order: binary.LittleEndian}

	// Static file information (78 bytes). The first two bytes select
	// the byte order for everything that follows.
	switch binary.LittleEndian.Uint16(data[0:2]) {
	case 0x0F0F:
		p.order = binary.LittleEndian
	case 0xF0F0:
		p.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("trace: invalid wfm byte order 0x%04X", binary.LittleEndian.Uint16(data[0:2]))
	}
	p.pos = 2

	versionStr := p.readString(8)
	var version wfmVersion
	switch {
	case strings.Contains(versionStr, "WFM#001"):
		version = wfmV1
	case strings.Contains(versionStr, "WFM#002"):
		version = wfmV2
	case strings.Contains(versionStr, "WFM#003"):
		version = wfmV3
	default:
		return nil, fmt.Errorf("trace: unsupported wfm version %q", versionStr)
	}

	p.skip(1 + 4) // num_digits_in_byte_count, bytes_to_eof
	bytesPerPoint := int(p.readU8())
	curveBufferOffset := int(p.readU32())
	p.skip(4 + 4 + 8 + 4) // hz_zoom_scale, hz_zoom_pos, vt_zoom_scale, vt_zoom_pos
	p.skip(32)            // waveform_label
	fastFramesMinusOne := int(p.readU32())
	p.skip(2) // wfm_header_size

	// Waveform header.
	p.skip(4 + 4 + 8 + 8 + 4 + 4 + 4 + 4 + 4)
	dataType := p.readU32()
	p.skip(8 + 4 + 4 + 4 + 4 + 4)
	if version != wfmV1 {
		p.skip(2) // summary_frame (V2/V3 only)
	}
	p.skip(4 + 8) // pix_map_display_format, pix_map_max_value

	// Explicit dimension 1 (voltage axis).
	expDim1Scale := p.readF64()
	expDim1Offset := p.readF64()
	p.skip(4 + 20)         // dim_size, units
	p.skip(8 + 8 + 8 + 8)  // extent_min, extent_max, resolution, ref_point
	formatRaw := p.readU32()
	p.skip(4 + 4*5) // storage_type, n_value, over_range, under_range, high_range, low_range
	p.skipUserView(version)

	// Explicit dimension 2, skipped entirely.
	p.skip(8 + 8 + 4 + 20 + 8 + 8 + 8 + 8 + 4 + 4 + 4*5)
	p.skipUserView(version)

	// Implicit dimension 1 (time axis).
	impDim1Scale := p.readF64()
	p.skip(8 + 4 + 20 + 8 + 8 + 8 + 8 + 4)
	p.skipUserView(version)

	// Implicit dimension 2, skipped entirely.
	p.skip(8 + 8 + 4 + 20 + 8 + 8 + 8 + 8 + 4)
	p.skipUserView(version)

	p.skip(12 + 12) // time base 1 and 2
	p.skip(24)      // WfmUpdateSpec of the first frame

	curves := []wfmCurve{p.readCurveObject()}
	if fastFramesMinusOne > 0 {
		p.skip(fastFramesMinusOne * 24) // N-1 additional WfmUpdateSpecs
		for i := 0; i < fastFramesMinusOne; i++ {
			curves = append(curves, p.readCurveObject())
		}
	}
	if p.err != nil {
		return nil, p.err
	}

	var format wfmFormat
	switch formatRaw {
	case 0:
		format = wfmInt16
	case 1:
		format = wfmInt32
	case 2:
		format = wfmUint32
	case 3:
		format = wfmUint64
	case 4:
		format = wfmFp32
	case 5:
		format = wfmFp64
	case 6, 7:
		if version == wfmV1 {
			return nil, fmt.Errorf("trace: explicit format %d invalid for wfm version 1", formatRaw)
		}
		if formatRaw == 6 {
			format = wfmUint8
		} else {
			format = wfmInt8
		}
	default:
		return nil, fmt.Errorf("trace: unsupported wfm explicit format %d", formatRaw)
	}
	if bytesPerPoint != format.bytesPerPoint() {
		return nil, fmt.Errorf("trace: wfm bytes per point mismatch: header says %d but format %v requires %d",
			bytesPerPoint, format, format.bytesPerPoint())
	}
	if dataType == 5 {
		return nil, fmt.Errorf("trace: wfm waveform database format not supported")
	}

	// Curve offsets in each WfmCurveObject are local to that frame's
	// region of the contiguous curve buffer. postcharge_stop of frame 0
	// is the per-frame stride.
	frameStride := curves[0].postchargeStop
	frames := make([][]float32, 0, len(curves))
	for i, c := range curves {
		frameBase := curveBufferOffset + i*frameStride
		start := frameBase + c.dataStart
		end := frameBase + c.postchargeStart
		if start < 0 || end < start || end > len(data) {
			return nil, fmt.Errorf("trace: wfm frame %d curve data extends beyond file: end offset %d > file size %d",
				i, end, len(data))
		}
		points := (end - start) / bytesPerPoint
		samples := make([]float32, points)
		for j := 0; j < points; j++ {
			raw := p.readSampleAt(start+j*bytesPerPoint, format)
			samples[j] = float32(raw*expDim1Scale + expDim1Offset)
		}
		frames = append(frames, samples)
	}

	samplingRate := math.NaN()
	if impDim1Scale > 0 {
		samplingRate = 1 / impDim1Scale
	}
	points := 0
	if len(frames) > 0 {
		points = len(frames[0])
	}
	traceview.Logger().Info("wfm trace loaded",
		"version", int(version),
		"format", format.String(),
		"samplingRateMS", samplingRate/1e6,
		"frames", len(frames),
		"points", points)

	return frames, nil
}
