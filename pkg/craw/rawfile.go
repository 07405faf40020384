// Package craw reads sensor RAW files (DNG, and the TIFF-structured
// vendor formats: NEF, ARW, CR2) and demosaics them into small RGB
// previews. It deliberately trades fidelity for throughput: no
// edge-aware interpolation, no color matrices, no white balance.
package craw

import(
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// A RawFrame is the sensor data pulled out of a RAW container: the
// full Bayer mosaic, one sample per photosite. Exactly one of the two
// sample slices is populated, depending on how the container stored
// its data.
type RawFrame struct {
	Width, Height int
	UintData      []uint16  // sensor values, scaled up to 16-bit depth
	FloatData     []float32 // normalized [0.0, 1.0] samples (floating-point DNG)
}

// TIFF tag IDs we care about. The vendor RAW formats are all TIFF
// containers underneath, so one IFD walker covers DNG/NEF/ARW/CR2.
const (
	tagImageWidth       = 256
	tagImageLength      = 257
	tagBitsPerSample    = 258
	tagCompression      = 259
	tagPhotometric      = 262
	tagStripOffsets     = 273
	tagRowsPerStrip     = 278
	tagStripByteCounts  = 279
	tagSubIFDs          = 330
	tagSampleFormat     = 339
)

const (
	photometricCFA       = 32803 // color filter array, i.e. un-demosaiced sensor data
	photometricLinearRaw = 34892
	compressionNone      = 1
	sampleFormatUint     = 1
	sampleFormatFloat    = 3
)

type ifdEntry struct {
	typ    uint16
	count  uint32
	raw    [4]byte // inline value, or offset to it
}

type tiffReader struct {
	buf   []byte
	order binary.ByteOrder
}

// ReadFrame parses a RAW container and returns the sensor mosaic. It
// only handles uncompressed CFA strips; vendor-compressed mosaics
// (lossless JPEG CR2, packed NEF etc) come back as an error, which the
// batch layer reports and moves on from.
func ReadFrame(filename string) (*RawFrame, error) {
	buf, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("raw open '%s': %v", filename, err)
	}

	frame, err := parseTIFF(buf)
	if err != nil {
		return nil, fmt.Errorf("raw decode '%s': %v", filename, err)
	}
	return frame, nil
}

func parseTIFF(buf []byte) (*RawFrame, error) {
	if len(buf) < 8 {
		return nil, fmt.Errorf("truncated header (%d bytes)", len(buf))
	}

	tr := tiffReader{buf: buf}
	switch {
	case buf[0] == 'I' && buf[1] == 'I':
		tr.order = binary.LittleEndian
	case buf[0] == 'M' && buf[1] == 'M':
		tr.order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a TIFF container (bad byte-order mark %q)", buf[0:2])
	}

	if magic := tr.order.Uint16(buf[2:4]); magic != 42 {
		return nil, fmt.Errorf("not a TIFF container (magic %d)", magic)
	}

	ifd := tr.findCFA(tr.order.Uint32(buf[4:8]), 0)
	if ifd == nil {
		return nil, fmt.Errorf("no uncompressed CFA image found in container")
	}

	return tr.readMosaic(ifd)
}

// findCFA walks the IFD chain (and any SubIFDs) looking for the IFD
// that holds the sensor mosaic. Thumbnails and embedded previews use
// ordinary RGB/YCbCr photometrics, so keying on CFA skips past them.
func (tr tiffReader)findCFA(offset uint32, depth int) map[uint16]ifdEntry {
	if depth > 4 { // vendor files nest a couple of levels at most
		return nil
	}

	for offset != 0 {
		ifd, next, ok := tr.readIFD(offset)
		if !ok {
			return nil
		}

		if pm, ok := tr.scalar(ifd, tagPhotometric); ok && (pm == photometricCFA || pm == photometricLinearRaw) {
			return ifd
		}

		if sub, ok := ifd[tagSubIFDs]; ok {
			for _, subOff := range tr.values(sub) {
				if found := tr.findCFA(subOff, depth+1); found != nil {
					return found
				}
			}
		}

		offset = next
	}

	return nil
}

func (tr tiffReader)readIFD(offset uint32) (map[uint16]ifdEntry, uint32, bool) {
	buf := tr.buf
	if int(offset)+2 > len(buf) {
		return nil, 0, false
	}
	n := int(tr.order.Uint16(buf[offset : offset+2]))
	base := int(offset) + 2
	if base+n*12+4 > len(buf) {
		return nil, 0, false
	}

	ifd := make(map[uint16]ifdEntry, n)
	for i := 0; i < n; i++ {
		e := buf[base+i*12 : base+i*12+12]
		entry := ifdEntry{
			typ:   tr.order.Uint16(e[2:4]),
			count: tr.order.Uint32(e[4:8]),
		}
		copy(entry.raw[:], e[8:12])
		ifd[tr.order.Uint16(e[0:2])] = entry
	}

	next := tr.order.Uint32(buf[base+n*12 : base+n*12+4])
	return ifd, next, true
}

// values flattens an entry into uint32s, following the offset
// indirection when the payload doesn't fit in the 4 inline bytes.
// Only SHORT and LONG entries appear among the tags we read.
func (tr tiffReader)values(e ifdEntry) []uint32 {
	var size int
	switch e.typ {
	case 3: // SHORT
		size = 2
	case 4: // LONG
		size = 4
	default:
		return nil
	}

	total := size * int(e.count)
	var data []byte
	if total <= 4 {
		data = e.raw[:]
	} else {
		off := int(tr.order.Uint32(e.raw[:]))
		if off+total > len(tr.buf) {
			return nil
		}
		data = tr.buf[off : off+total]
	}

	out := make([]uint32, e.count)
	for i := range out {
		if size == 2 {
			out[i] = uint32(tr.order.Uint16(data[i*2:]))
		} else {
			out[i] = tr.order.Uint32(data[i*4:])
		}
	}
	return out
}

func (tr tiffReader)scalar(ifd map[uint16]ifdEntry, tag uint16) (uint32, bool) {
	e, ok := ifd[tag]
	if !ok {
		return 0, false
	}
	vals := tr.values(e)
	if len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// readMosaic pulls the strip data out of the CFA IFD and normalizes it
// into a RawFrame. 8/16-bit unsigned and 32-bit float samples are
// supported; the packed 12/14-bit layouts some cameras write are not.
func (tr tiffReader)readMosaic(ifd map[uint16]ifdEntry) (*RawFrame, error) {
	width, okW := tr.scalar(ifd, tagImageWidth)
	height, okH := tr.scalar(ifd, tagImageLength)
	if !okW || !okH || width == 0 || height == 0 {
		return nil, fmt.Errorf("CFA image has no usable dimensions")
	}

	if comp, ok := tr.scalar(ifd, tagCompression); ok && comp != compressionNone {
		return nil, fmt.Errorf("unsupported CFA compression %d (only uncompressed strips handled)", comp)
	}

	bits := uint32(16)
	if b, ok := tr.scalar(ifd, tagBitsPerSample); ok {
		bits = b
	}
	format := uint32(sampleFormatUint)
	if f, ok := tr.scalar(ifd, tagSampleFormat); ok {
		format = f
	}

	offsets := tr.values(ifd[tagStripOffsets])
	counts := tr.values(ifd[tagStripByteCounts])
	if len(offsets) == 0 || len(offsets) != len(counts) {
		return nil, fmt.Errorf("CFA strip layout malformed (%d offsets, %d byte counts)", len(offsets), len(counts))
	}

	var data []byte
	for i := range offsets {
		lo, hi := int(offsets[i]), int(offsets[i])+int(counts[i])
		if hi > len(tr.buf) || lo > hi {
			return nil, fmt.Errorf("CFA strip %d out of bounds", i)
		}
		data = append(data, tr.buf[lo:hi]...)
	}

	wantSamples := int(width) * int(height)
	frame := &RawFrame{Width: int(width), Height: int(height)}

	switch {
	case format == sampleFormatUint && bits == 16:
		if len(data) < wantSamples*2 {
			return nil, fmt.Errorf("CFA data truncated: %d bytes for %dx%d @16bpp", len(data), width, height)
		}
		frame.UintData = make([]uint16, wantSamples)
		for i := range frame.UintData {
			frame.UintData[i] = tr.order.Uint16(data[i*2:])
		}

	case format == sampleFormatUint && bits == 8:
		if len(data) < wantSamples {
			return nil, fmt.Errorf("CFA data truncated: %d bytes for %dx%d @8bpp", len(data), width, height)
		}
		frame.UintData = make([]uint16, wantSamples)
		for i := range frame.UintData {
			frame.UintData[i] = uint16(data[i]) << 8 // scale to 16-bit depth
		}

	case format == sampleFormatFloat && bits == 32:
		if len(data) < wantSamples*4 {
			return nil, fmt.Errorf("CFA data truncated: %d bytes for %dx%d @32bpp float", len(data), width, height)
		}
		frame.FloatData = make([]float32, wantSamples)
		for i := range frame.FloatData {
			frame.FloatData[i] = math.Float32frombits(tr.order.Uint32(data[i*4:]))
		}

	default:
		return nil, fmt.Errorf("unsupported CFA sample layout: %d bits, format %d", bits, format)
	}

	return frame, nil
}
