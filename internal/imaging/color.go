package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidFill is returned when a fill colour cannot be parsed.
var ErrInvalidFill = errors.New("invalid fill colour")

// Transparent is the fill used for PNG sources.
var Transparent = color.NRGBA{0, 0, 0, 0}

// namedColors holds the colour names accepted by ParseFill.
var namedColors = map[string]color.NRGBA{
	"white":       {255, 255, 255, 255},
	"black":       {0, 0, 0, 255},
	"transparent": Transparent,
	"red":         {255, 0, 0, 255},
	"green":       {0, 128, 0, 255},
	"blue":        {0, 0, 255, 255},
	"yellow":      {255, 255, 0, 255},
	"gray":        {128, 128, 128, 255},
	"grey":        {128, 128, 128, 255},
	"silver":      {192, 192, 192, 255},
}

// ParseFill converts a fill colour string into an NRGBA colour.
//
// Accepted forms:
//   - Names: "white", "black", "transparent", "red", "gray", ...
//   - Hex: "#rgb" or "#rrggbb"
//   - Functional: "rgba(r, g, b, a)" with a in 0-1 or 0-255, and "rgb(r, g, b)"
//
// Anything else returns an error wrapping ErrInvalidFill; no default colour is
// substituted.
func ParseFill(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))

	if c, ok := namedColors[s]; ok {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		if len(s) != 4 && len(s) != 7 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
		}
		c, err := colorful.Hex(s)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
		}
		r, g, b := c.RGB255()
		return color.NRGBA{r, g, b, 255}, nil
	}

	if strings.HasPrefix(s, "rgb") {
		return parseFunctional(s)
	}

	return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
}

// parseFunctional handles "rgb(r, g, b)" and "rgba(r, g, b, a)".
func parseFunctional(s string) (color.NRGBA, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}
	fn := s[:open]
	parts := strings.Split(s[open+1:len(s)-1], ",")

	want := 3
	if fn == "rgba" {
		want = 4
	} else if fn != "rgb" {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}
	if len(parts) != want {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || n < 0 || n > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
		}
		channels[i] = uint8(n)
	}

	alpha := uint8(255)
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 255 {
			return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidFill, s)
		}
		if a <= 1 {
			a *= 255
		}
		alpha = uint8(a + 0.5)
	}

	return color.NRGBA{channels[0], channels[1], channels[2], alpha}, nil
}

// ColorSpace classifies the pixel layout of a decoded image.
type ColorSpace int

const (
	// ColorSpaceOther covers layouts the fit engine does not work in
	// directly, such as paletted or CMYK images.
	ColorSpaceOther ColorSpace = iota
	// ColorSpaceGray is single-channel luminance.
	ColorSpaceGray
	// ColorSpaceRGB is opaque colour.
	ColorSpaceRGB
	// ColorSpaceRGBA is colour with an alpha channel.
	ColorSpaceRGBA
)

// String returns the colour space name.
func (c ColorSpace) String() string {
	switch c {
	case ColorSpaceGray:
		return "gray"
	case ColorSpaceRGB:
		return "rgb"
	case ColorSpaceRGBA:
		return "rgba"
	default:
		return "other"
	}
}

// ColorSpaceOf reports the colour space of img based on its concrete type.
//
// Type mapping:
//   - *image.Gray, *image.Gray16 -> ColorSpaceGray
//   - *image.YCbCr -> ColorSpaceRGB
//   - *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA -> ColorSpaceRGBA
//   - everything else -> ColorSpaceOther
func ColorSpaceOf(img image.Image) ColorSpace {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return ColorSpaceGray
	case *image.YCbCr:
		return ColorSpaceRGB
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return ColorSpaceRGBA
	default:
		return ColorSpaceOther
	}
}

// ToRGB returns an opaque copy of img. Alpha is discarded, not composited:
// each pixel keeps its straight (non-premultiplied) colour values.
func ToRGB(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			c.A = 255
			dst.SetNRGBA(x-bounds.Min.X, y-bounds.Min.Y, c)
		}
	}
	return dst
}

// Normalize converts images outside the supported colour spaces to RGB and
// returns all others unchanged.
func Normalize(img image.Image) image.Image {
	if ColorSpaceOf(img) == ColorSpaceOther {
		return ToRGB(img)
	}
	return img
}
