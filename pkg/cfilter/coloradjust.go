package cfilter

import "image"

// adjustColor is the fused brightness/contrast/saturation pass: one
// parallel sweep over the buffer, mutating it in place. Brightness and
// contrast land first; saturation then reads the *adjusted* channel
// values when computing luma. That ordering is observable in the
// output and must not be swapped.
func adjustColor(img *image.RGBA, p Params) {
	b := p.Brightness * 255.0
	c := p.Contrast
	s := p.Saturation

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := img.Pix[y*img.Stride : y*img.Stride+w*4]
			for x := 0; x < w; x++ {
				px := row[x*4 : x*4+4 : x*4+4]

				for ch := 0; ch < 3; ch++ {
					v := float64(px[ch])
					v = (v-128.0)*c + 128.0 + b
					px[ch] = uint8(clamp255(v))
				}

				if s != 1.0 {
					r := float64(px[0])
					g := float64(px[1])
					bl := float64(px[2])
					l := lumaOf(r, g, bl)
					px[0] = uint8(clamp255(l + (r-l)*s))
					px[1] = uint8(clamp255(l + (g-l)*s))
					px[2] = uint8(clamp255(l + (bl-l)*s))
				}
			}
		}
	})
}
