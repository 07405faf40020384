package cfilter

import(
	"image"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

const wmMargin = 12.0

// watermark draws the branding text into the bottom-right corner.
// Text color flips between white and black based on the lightness of
// the corner it lands on, so the mark stays legible over both dark and
// bright footage. A grayscale buffer stays grayscale: the text is
// rendered and then flattened back to luma.
func watermark(img image.Image, text string) image.Image {
	_, wasGray := img.(*image.Gray)

	dc := gg.NewContextForImage(img)
	w := float64(dc.Width())
	h := float64(dc.Height())

	if cornerLightness(img) > 0.5 {
		dc.SetRGB(0, 0, 0)
	} else {
		dc.SetRGB(1, 1, 1)
	}
	dc.DrawStringAnchored(text, w-wmMargin, h-wmMargin, 1, 1)

	out := dc.Image()
	if wasGray {
		return toGray(out)
	}
	return out
}

// cornerLightness samples the bottom-right quarter and returns its
// mean perceptual lightness in [0,1].
func cornerLightness(img image.Image) float64 {
	bounds := img.Bounds()
	x0 := bounds.Min.X + bounds.Dx()*3/4
	y0 := bounds.Min.Y + bounds.Dy()*3/4

	var r, g, b float64
	n := 0
	for y := y0; y < bounds.Max.Y; y++ {
		for x := x0; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += float64(cr) / 0xFFFF
			g += float64(cg) / 0xFFFF
			b += float64(cb) / 0xFFFF
			n++
		}
	}
	if n == 0 {
		return 0
	}

	mean := colorful.Color{R: r / float64(n), G: g / float64(n), B: b / float64(n)}
	l, _, _ := mean.Lab()
	return l
}
