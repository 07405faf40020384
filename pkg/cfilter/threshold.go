package cfilter

import "image"

// The threshold neighborhood is fixed: a block radius of 10 gives a
// 21x21 window (clamped at the edges), which suits document scans and
// high-contrast conversions without needing a knob.
const adaptiveBlockRadius = 10

// adaptiveThreshold flattens the buffer to 8-bit luma and binarizes
// each pixel against the mean of its local window. This always yields
// a single-channel result, whatever the earlier stages produced.
//
// The window means come from an integral image, so the whole pass is
// two sweeps regardless of window size.
func adaptiveThreshold(img image.Image) *image.Gray {
	gray := toGray(img)
	bounds := gray.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	// integral[y][x] = sum of all luma values above and left of (x,y),
	// with a one-cell border of zeros to keep the lookup branch-free.
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(gray.Pix[y*gray.Stride+x])
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	out := image.NewGray(image.Rect(0, 0, w, h))

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			top := clampInt(y-adaptiveBlockRadius, 0, h-1)
			bot := clampInt(y+adaptiveBlockRadius, 0, h-1)

			for x := 0; x < w; x++ {
				left := clampInt(x-adaptiveBlockRadius, 0, w-1)
				right := clampInt(x+adaptiveBlockRadius, 0, w-1)

				sum := integral[(bot+1)*(w+1)+(right+1)] -
					integral[top*(w+1)+(right+1)] -
					integral[(bot+1)*(w+1)+left] +
					integral[top*(w+1)+left]
				count := uint64((bot - top + 1) * (right - left + 1))
				mean := uint8(sum / count)

				if gray.Pix[y*gray.Stride+x] >= mean {
					out.Pix[y*out.Stride+x] = 0xFF
				}
			}
		}
	})

	return out
}

// toGray flattens to luma with the same 601 weights the saturation
// stage uses.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				px := rgba.Pix[y*rgba.Stride+x*4:]
				l := lumaOf(float64(px[0]), float64(px[1]), float64(px[2]))
				gray.Pix[y*gray.Stride+x] = uint8(clamp255(l))
			}
		}
		return gray
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			l := lumaOf(float64(r>>8), float64(g>>8), float64(b>>8))
			gray.Pix[y*gray.Stride+x] = uint8(clamp255(l))
		}
	}
	return gray
}
