package cliobulk

import(
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/mdouchement/hdr"
	_ "github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/tmo"
	"github.com/rwcarlsen/goexif/exif"
)

// Sensor RAW formats that go through the craw fast path. Everything
// else is handed to the registered stdlib/x-image decoders.
var rawExtensions = map[string]bool{
	".arw": true, // Sony
	".cr2": true, // Canon
	".nef": true, // Nikon
	".dng": true, // Adobe
}

func IsRawPath(filename string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(filename))]
}

// loadStandard decodes a non-RAW image. Radiance .hdr input comes back
// from the rgbe codec as an hdr.Image and gets a linear tonemap down
// to LDR; camera JPEGs/TIFFs are re-oriented per their EXIF tag.
func loadStandard(filename string) (image.Image, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open+r '%s': %v", filename, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding '%s': %v", filename, err)
	}

	if hdrImg, ok := img.(hdr.Image); ok {
		img = tmo.NewLinear(hdrImg).Perform()
	}

	if orient := readOrientation(filename); orient > 1 {
		img = applyOrientation(img, orient)
	}

	return img, nil
}

// readOrientation pulls the EXIF Orientation tag, or 1 (upright) when
// the file has no usable EXIF block. Only the container formats that
// actually carry EXIF are worth opening twice for.
func readOrientation(filename string) int {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg", ".tif", ".tiff":
	default:
		return 1
	}

	f, err := os.Open(filename)
	if err != nil {
		return 1
	}
	defer f.Close()

	ex, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := ex.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orient, err := tag.Int(0)
	if err != nil || orient < 1 || orient > 8 {
		return 1
	}
	return orient
}

// applyOrientation maps the eight EXIF orientations onto the upright
// image. Cases 2-8 cover mirror, 180, and the four transposed forms.
func applyOrientation(img image.Image, orient int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	var dst *image.RGBA
	set := func(dx, dy, sx, sy int) {
		dst.Set(dx, dy, img.At(b.Min.X+sx, b.Min.Y+sy))
	}

	switch orient {
	case 2: // mirror horizontal
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(w-1-x, y, x, y)
			}
		}
	case 3: // rotate 180
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(w-1-x, h-1-y, x, y)
			}
		}
	case 4: // mirror vertical
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(x, h-1-y, x, y)
			}
		}
	case 5: // mirror horizontal + rotate 270 CW
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(y, x, x, y)
			}
		}
	case 6: // rotate 90 CW
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(h-1-y, x, x, y)
			}
		}
	case 7: // mirror horizontal + rotate 90 CW
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(h-1-y, w-1-x, x, y)
			}
		}
	case 8: // rotate 270 CW
		dst = image.NewRGBA(image.Rect(0, 0, h, w))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				set(y, w-1-x, x, y)
			}
		}
	default:
		return img
	}

	return dst
}
