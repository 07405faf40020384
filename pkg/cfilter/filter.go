// Package cfilter is the per-image adjustment pipeline. Stages run in
// a fixed order, each as one full pass over the buffer: color adjust
// (brightness/contrast/saturation, fused into a single pass), optional
// 3D LUT, optional median denoise, optional adaptive threshold, and an
// optional watermark. It is pure: numeric edge cases clamp, they never
// error.
package cfilter

import(
	"image"
	"image/draw"
	"runtime"
	"sync"
)

// Params configures one batch's pipeline. Shared read-only across all
// workers, so it carries pre-parsed state (the LUT) rather than paths.
type Params struct {
	Brightness float64 // -1.0 .. 1.0
	Contrast   float64 // 0.0 .. 3.0, 1.0 neutral
	Saturation float64 // 0.0 .. 2.0, 1.0 neutral

	Denoise           bool
	AdaptiveThreshold bool

	LUT       *CubeLUT // nil = no LUT stage
	Watermark string   // "" = no watermark stage
}

// Neutral reports whether the fused color-adjust pass can be skipped
// entirely.
func (p Params)Neutral() bool {
	return p.Brightness == 0 && p.Contrast == 1 && p.Saturation == 1
}

// Apply runs the pipeline over img. The result is RGB, or grayscale
// when thresholding is enabled (thresholding flattens to luma first,
// discarding any color the earlier stages produced).
func Apply(img image.Image, p Params) image.Image {
	rgba := toRGBA(img)

	if !p.Neutral() {
		adjustColor(rgba, p)
	}

	if p.LUT != nil {
		p.LUT.Apply(rgba)
	}

	out := image.Image(rgba)

	if p.Denoise {
		out = median3x3(rgba)
	}

	if p.AdaptiveThreshold {
		out = adaptiveThreshold(out)
	}

	if p.Watermark != "" {
		out = watermark(out, p.Watermark)
	}

	return out
}

// toRGBA always copies, so the pipeline owns its working buffer and
// the caller's image is never mutated.
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// lumaOf is the ITU-R 601 weighting used throughout the pipeline.
func lumaOf(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// parallelRows runs f over contiguous bands of [0,h), one goroutine
// per band, joining before it returns.
func parallelRows(h int, f func(y0, y1 int)) {
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
