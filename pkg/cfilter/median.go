package cfilter

import "image"

// median3x3 applies a 3x3 median filter independently per channel.
// Neighbor reads come from the untouched source buffer while results
// land in a fresh one, so the pass is safe to parallelize by rows.
// Borders replicate their nearest in-bounds neighbor.
func median3x3(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))

	parallelRows(h, func(y0, y1 int) {
		var window [9]uint8
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				for ch := 0; ch < 3; ch++ {
					n := 0
					for dy := -1; dy <= 1; dy++ {
						sy := clampInt(y+dy, 0, h-1)
						for dx := -1; dx <= 1; dx++ {
							sx := clampInt(x+dx, 0, w-1)
							window[n] = src.Pix[sy*src.Stride+sx*4+ch]
							n++
						}
					}
					dst.Pix[y*dst.Stride+x*4+ch] = median9(window)
				}
				dst.Pix[y*dst.Stride+x*4+3] = 0xFF
			}
		}
	})

	return dst
}

// median9 sorts the window in place with an insertion sort and takes
// the middle value. Cheaper than a sort.Slice per pixel per channel.
func median9(v [9]uint8) uint8 {
	for i := 1; i < 9; i++ {
		x := v[i]
		j := i - 1
		for j >= 0 && v[j] > x {
			v[j+1] = v[j]
			j--
		}
		v[j+1] = x
	}
	return v[4]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
