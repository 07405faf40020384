package cliobulk

import (
	"image"
	"image/color"
	"testing"
)

func TestIsRawPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/shoot/IMG_0001.ARW", true},
		{"/shoot/img_0002.cr2", true},
		{"/shoot/d750.NEF", true},
		{"/shoot/scan.dng", true},
		{"/shoot/holiday.jpg", false},
		{"/shoot/holiday.jpeg", false},
		{"/shoot/render.hdr", false},
		{"/shoot/noext", false},
	}
	for _, c := range cases {
		if got := IsRawPath(c.path); got != c.want {
			t.Errorf("IsRawPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestApplyOrientation(t *testing.T) {
	// 2x1 source: red on the left, blue on the right.
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, blue)

	at := func(img image.Image, x, y int) color.RGBA {
		r, g, b, a := img.At(x, y).RGBA()
		return color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
	}

	cases := []struct {
		name    string
		orient  int
		wantW   int
		wantH   int
		wantRed [2]int // where the red pixel lands
	}{
		{"upright untouched", 1, 2, 1, [2]int{0, 0}},
		{"mirror horizontal", 2, 2, 1, [2]int{1, 0}},
		{"rotate 180", 3, 2, 1, [2]int{1, 0}},
		{"mirror vertical", 4, 2, 1, [2]int{0, 0}},
		{"transpose", 5, 1, 2, [2]int{0, 0}},
		{"rotate 90 cw", 6, 1, 2, [2]int{0, 0}},
		{"transverse", 7, 1, 2, [2]int{0, 1}},
		{"rotate 270 cw", 8, 1, 2, [2]int{0, 1}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := applyOrientation(src, c.orient)
			b := out.Bounds()
			if b.Dx() != c.wantW || b.Dy() != c.wantH {
				t.Fatalf("dimensions %dx%d, want %dx%d", b.Dx(), b.Dy(), c.wantW, c.wantH)
			}
			if got := at(out, c.wantRed[0], c.wantRed[1]); got != red {
				t.Errorf("pixel (%d,%d) = %v, want red", c.wantRed[0], c.wantRed[1], got)
			}
		})
	}
}
