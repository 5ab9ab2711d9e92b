package capture

import (
	"errors"
	"fmt"
	"image"
	"strconv"

	"golang.org/x/image/draw"
)

var errBadPPM = errors.New("malformed PPM")

// maxDimension bounds each side of a decoded frame, well above any output
// resolution.
const maxDimension = 1 << 15

// DecodePPM decodes a binary (P6) PPM image with 8-bit samples, the format
// grim writes with -t ppm.
func DecodePPM(data []byte) (*image.RGBA, error) {
	if len(data) < 2 || data[0] != 'P' || data[1] != '6' {
		return nil, fmt.Errorf("%w: missing P6 magic", errBadPPM)
	}
	pos := 2

	var fields [3]int
	for i := range fields {
		n, next, err := ppmInt(data, pos)
		if err != nil {
			return nil, err
		}
		fields[i], pos = n, next
	}
	width, height, maxval := fields[0], fields[1], fields[2]
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", errBadPPM, width, height)
	}
	if maxval <= 0 || maxval > 255 {
		return nil, fmt.Errorf("%w: unsupported maxval %d", errBadPPM, maxval)
	}

	// Exactly one whitespace byte separates the header from the raster.
	if pos >= len(data) || !isPPMSpace(data[pos]) {
		return nil, fmt.Errorf("%w: truncated header", errBadPPM)
	}
	pos++

	// Divide rather than multiply so a bogus header cannot overflow.
	if width > (len(data)-pos)/3/height {
		return nil, fmt.Errorf("%w: raster has %d bytes, want %d", errBadPPM, len(data)-pos, width*height*3)
	}
	need := width * height * 3

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	src := data[pos : pos+need]
	for i, j := 0, 0; i < need; i, j = i+3, j+4 {
		img.Pix[j] = scaleSample(src[i], maxval)
		img.Pix[j+1] = scaleSample(src[i+1], maxval)
		img.Pix[j+2] = scaleSample(src[i+2], maxval)
		img.Pix[j+3] = 0xff
	}
	return img, nil
}

// ppmInt skips whitespace and comments and reads one decimal field.
func ppmInt(data []byte, pos int) (int, int, error) {
	for pos < len(data) {
		switch {
		case isPPMSpace(data[pos]):
			pos++
		case data[pos] == '#':
			for pos < len(data) && data[pos] != '\n' {
				pos++
			}
		default:
			start := pos
			for pos < len(data) && data[pos] >= '0' && data[pos] <= '9' {
				pos++
			}
			if start == pos {
				return 0, pos, fmt.Errorf("%w: unexpected byte %q in header", errBadPPM, data[pos])
			}
			n, err := strconv.Atoi(string(data[start:pos]))
			if err != nil {
				return 0, pos, fmt.Errorf("%w: %v", errBadPPM, err)
			}
			return n, pos, nil
		}
	}
	return 0, pos, fmt.Errorf("%w: truncated header", errBadPPM)
}

func isPPMSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}

func scaleSample(v byte, maxval int) byte {
	if maxval == 255 {
		return v
	}
	return byte(int(v) * 255 / maxval)
}

// Thumbnail scales src to width, keeping its aspect ratio. Images already
// narrower than width are copied unscaled.
func Thumbnail(src image.Image, width int) *image.RGBA {
	b := src.Bounds()
	if width <= 0 || b.Dx() <= width {
		dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		return dst
	}

	height := max(1, b.Dy()*width/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
