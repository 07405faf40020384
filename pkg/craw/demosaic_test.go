package craw

import (
	"testing"
)

func TestDemosaicUintQuad(t *testing.T) {
	// One 2x2 quad: R at top-left, the greens averaged, B at
	// bottom-right.
	frame := &RawFrame{
		Width: 2, Height: 2,
		UintData: []uint16{
			0x8000, 0x4000,
			0x4000, 0xFFFF,
		},
	}

	img, err := Demosaic(frame)
	if err != nil {
		t.Fatalf("Demosaic: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 1 || got.Dy() != 1 {
		t.Fatalf("output %dx%d, want 1x1", got.Dx(), got.Dy())
	}

	r, g, b, a := img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3]
	if r != 0x80 {
		t.Errorf("R = %#x, want 0x80", r)
	}
	if g != 0x40 { // (0x4000+0x4000)>>9
		t.Errorf("G = %#x, want 0x40", g)
	}
	if b != 0xFF {
		t.Errorf("B = %#x, want 0xFF", b)
	}
	if a != 0xFF {
		t.Errorf("A = %#x, want 0xFF", a)
	}
}

func TestDemosaicFloatQuad(t *testing.T) {
	frame := &RawFrame{
		Width: 2, Height: 2,
		FloatData: []float32{
			0.5, 1.0,
			1.0, 2.0, // out of range, must clamp
		},
	}

	img, err := Demosaic(frame)
	if err != nil {
		t.Fatalf("Demosaic: %v", err)
	}

	if r := img.Pix[0]; r != 127 { // 0.5*255 truncated
		t.Errorf("R = %d, want 127", r)
	}
	if g := img.Pix[1]; g != 255 { // (1.0+1.0)*127.5
		t.Errorf("G = %d, want 255", g)
	}
	if b := img.Pix[2]; b != 255 { // clamped
		t.Errorf("B = %d, want 255", b)
	}
}

func TestDemosaicOddDimensionsFloor(t *testing.T) {
	frame := &RawFrame{
		Width: 5, Height: 3,
		UintData: make([]uint16, 15),
	}

	img, err := Demosaic(frame)
	if err != nil {
		t.Fatalf("Demosaic: %v", err)
	}
	if got := img.Bounds(); got.Dx() != 2 || got.Dy() != 1 {
		t.Errorf("output %dx%d, want 2x1 (dimensions floor)", got.Dx(), got.Dy())
	}
}

func TestDemosaicRejectsBadFrames(t *testing.T) {
	cases := []struct {
		name  string
		frame *RawFrame
	}{
		{"too small", &RawFrame{Width: 1, Height: 1, UintData: make([]uint16, 1)}},
		{"no samples", &RawFrame{Width: 4, Height: 4}},
		{"short buffer", &RawFrame{Width: 4, Height: 4, UintData: make([]uint16, 3)}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Demosaic(c.frame); err == nil {
				t.Errorf("Demosaic succeeded, want error")
			}
		})
	}
}
