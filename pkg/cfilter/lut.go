package cfilter

import(
	"bufio"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"
)

// A CubeLUT is a parsed Adobe .cube 3D lookup table. Entries are laid
// out with red varying fastest, the order the .cube format defines.
type CubeLUT struct {
	Size      int
	DomainMin [3]float64
	DomainMax [3]float64
	Data      []float64 // 3 * Size^3 values, RGB triples
}

// LoadCube parses a .cube file. Only the 3D form (LUT_3D_SIZE) is
// handled; 1D LUTs are rejected. A broken LUT is a batch-level
// configuration error, so this returns err rather than clamping.
func LoadCube(filename string) (*CubeLUT, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("lut open '%s': %v", filename, err)
	}
	defer f.Close()

	lut := &CubeLUT{
		DomainMin: [3]float64{0, 0, 0},
		DomainMax: [3]float64{1, 1, 1},
	}

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "TITLE":
			// informational only

		case "LUT_1D_SIZE":
			return nil, fmt.Errorf("lut '%s': 1D LUTs not supported", filename)

		case "LUT_3D_SIZE":
			if len(fields) != 2 {
				return nil, fmt.Errorf("lut '%s' line %d: malformed LUT_3D_SIZE", filename, lineNo)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil || n < 2 || n > 256 {
				return nil, fmt.Errorf("lut '%s' line %d: bad LUT_3D_SIZE '%s'", filename, lineNo, fields[1])
			}
			lut.Size = n
			lut.Data = make([]float64, 0, 3*n*n*n)

		case "DOMAIN_MIN", "DOMAIN_MAX":
			if len(fields) != 4 {
				return nil, fmt.Errorf("lut '%s' line %d: malformed %s", filename, lineNo, fields[0])
			}
			var vals [3]float64
			for i := 0; i < 3; i++ {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("lut '%s' line %d: %v", filename, lineNo, err)
				}
				vals[i] = v
			}
			if fields[0] == "DOMAIN_MIN" {
				lut.DomainMin = vals
			} else {
				lut.DomainMax = vals
			}

		default:
			// data row: three floats
			if len(fields) != 3 {
				return nil, fmt.Errorf("lut '%s' line %d: expected RGB triple, got %q", filename, lineNo, line)
			}
			for _, fs := range fields {
				v, err := strconv.ParseFloat(fs, 64)
				if err != nil {
					return nil, fmt.Errorf("lut '%s' line %d: %v", filename, lineNo, err)
				}
				lut.Data = append(lut.Data, v)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("lut read '%s': %v", filename, err)
	}

	if lut.Size == 0 {
		return nil, fmt.Errorf("lut '%s': missing LUT_3D_SIZE", filename)
	}
	if want := 3 * lut.Size * lut.Size * lut.Size; len(lut.Data) != want {
		return nil, fmt.Errorf("lut '%s': %d values, want %d for size %d", filename, len(lut.Data), want, lut.Size)
	}

	return lut, nil
}

// Apply maps every pixel through the LUT with trilinear interpolation,
// in place. Out-of-domain values clamp to the lattice edge.
func (lut *CubeLUT)Apply(img *image.RGBA) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	parallelRows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				px := img.Pix[y*img.Stride+x*4 : y*img.Stride+x*4+4 : y*img.Stride+x*4+4]
				r, g, b := lut.lookup(float64(px[0])/255.0, float64(px[1])/255.0, float64(px[2])/255.0)
				px[0] = uint8(clamp255(r * 255.0))
				px[1] = uint8(clamp255(g * 255.0))
				px[2] = uint8(clamp255(b * 255.0))
			}
		}
	})
}

func (lut *CubeLUT)lookup(r, g, b float64) (float64, float64, float64) {
	n := lut.Size

	// Map each channel into lattice coordinates [0, n-1].
	coord := func(v float64, ch int) (int, int, float64) {
		span := lut.DomainMax[ch] - lut.DomainMin[ch]
		if span <= 0 {
			span = 1
		}
		t := (v - lut.DomainMin[ch]) / span * float64(n-1)
		t = clampF64(t, 0, float64(n-1))
		i0 := int(t)
		i1 := i0 + 1
		if i1 > n-1 {
			i1 = n - 1
		}
		return i0, i1, t - float64(i0)
	}

	r0, r1, fr := coord(r, 0)
	g0, g1, fg := coord(g, 1)
	b0, b1, fb := coord(b, 2)

	at := func(ri, gi, bi, ch int) float64 {
		return lut.Data[3*((bi*n+gi)*n+ri)+ch]
	}

	var out [3]float64
	for ch := 0; ch < 3; ch++ {
		c000 := at(r0, g0, b0, ch)
		c100 := at(r1, g0, b0, ch)
		c010 := at(r0, g1, b0, ch)
		c110 := at(r1, g1, b0, ch)
		c001 := at(r0, g0, b1, ch)
		c101 := at(r1, g0, b1, ch)
		c011 := at(r0, g1, b1, ch)
		c111 := at(r1, g1, b1, ch)

		c00 := c000 + (c100-c000)*fr
		c10 := c010 + (c110-c010)*fr
		c01 := c001 + (c101-c001)*fr
		c11 := c011 + (c111-c011)*fr

		c0 := c00 + (c10-c00)*fg
		c1 := c01 + (c11-c01)*fg

		out[ch] = c0 + (c1-c0)*fb
	}

	return out[0], out[1], out[2]
}

func clampF64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
