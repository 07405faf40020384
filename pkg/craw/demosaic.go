package craw

import(
	"fmt"
	"image"
	"runtime"
	"sync"
)

// Decode reads a RAW file and returns an RGB image at half the sensor
// resolution in each dimension. This is the bulk/preview path: good
// enough color, a quarter of the pixels, no interpolation cost.
func Decode(filename string) (*image.RGBA, error) {
	frame, err := ReadFrame(filename)
	if err != nil {
		return nil, err
	}

	img, err := Demosaic(frame)
	if err != nil {
		return nil, fmt.Errorf("raw decode '%s': %v", filename, err)
	}
	return img, nil
}

// Demosaic collapses each 2x2 Bayer quad into one output pixel:
// top-left is R, the two greens are averaged, bottom-right is B.
// Every output row depends only on its own two sensor rows, so the
// rows are fanned out across the CPUs with no locking.
func Demosaic(frame *RawFrame) (*image.RGBA, error) {
	outW, outH := frame.Width/2, frame.Height/2
	if outW < 1 || outH < 1 {
		return nil, fmt.Errorf("sensor grid %dx%d too small to demosaic", frame.Width, frame.Height)
	}

	switch {
	case frame.UintData != nil:
		if len(frame.UintData) < frame.Width*frame.Height {
			return nil, fmt.Errorf("integer sample buffer has %d samples, want %d", len(frame.UintData), frame.Width*frame.Height)
		}
	case frame.FloatData != nil:
		if len(frame.FloatData) < frame.Width*frame.Height {
			return nil, fmt.Errorf("float sample buffer has %d samples, want %d", len(frame.FloatData), frame.Width*frame.Height)
		}
	default:
		return nil, fmt.Errorf("frame has no sample data")
	}

	img := image.NewRGBA(image.Rect(0, 0, outW, outH))

	eachRowBand(outH, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			if frame.UintData != nil {
				demosaicUintRow(frame, img, y, outW)
			} else {
				demosaicFloatRow(frame, img, y, outW)
			}
		}
	})

	return img, nil
}

func demosaicUintRow(frame *RawFrame, img *image.RGBA, y, outW int) {
	data := frame.UintData
	stride := frame.Width
	row := img.Pix[y*img.Stride:]

	for x := 0; x < outW; x++ {
		idx := (y*2)*stride + x*2
		row[x*4+0] = uint8(data[idx] >> 8)
		row[x*4+1] = uint8((uint32(data[idx+1]) + uint32(data[idx+stride])) >> 9)
		row[x*4+2] = uint8(data[idx+stride+1] >> 8)
		row[x*4+3] = 0xFF
	}
}

func demosaicFloatRow(frame *RawFrame, img *image.RGBA, y, outW int) {
	data := frame.FloatData
	stride := frame.Width
	row := img.Pix[y*img.Stride:]

	for x := 0; x < outW; x++ {
		idx := (y*2)*stride + x*2
		row[x*4+0] = uint8(clampF(float64(data[idx]), 0, 1) * 255.0)
		row[x*4+1] = uint8(clampF(float64(data[idx+1]+data[idx+stride])*127.5, 0, 255))
		row[x*4+2] = uint8(clampF(float64(data[idx+stride+1]), 0, 1) * 255.0)
		row[x*4+3] = 0xFF
	}
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// eachRowBand splits [0,h) into contiguous bands, one goroutine per
// band, and joins before returning.
func eachRowBand(h int, f func(y0, y1 int)) {
	workers := runtime.NumCPU()
	if workers > h {
		workers = h
	}
	if workers < 1 {
		workers = 1
	}
	rowsPer := (h + workers - 1) / workers

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		y0 := i * rowsPer
		if y0 >= h {
			break
		}
		y1 := y0 + rowsPer
		if y1 > h {
			y1 = h
		}

		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			f(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}
