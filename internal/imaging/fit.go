package imaging

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"

	"github.com/ironsheep/imagefit/internal/preset"
)

// Thumbnail scales img down so that it fits inside width x height, keeping
// the aspect ratio. Images that already fit are returned unchanged; the
// result is a bounding-box fit, not an exact size.
//
// Resampling uses Lanczos3.
func Thumbnail(img image.Image, width, height int) image.Image {
	return resize.Thumbnail(uint(width), uint(height), img, resize.Lanczos3)
}

// Apply fits src to the box described by d and returns the new image.
//
// The directive must already be validated (positive dimensions, at most one
// of Crop and Cropbox). For cropbox directives the fill colour is parsed
// first; a fill that cannot be parsed returns an error wrapping
// ErrInvalidFill. PNG sources always pad with Transparent regardless of the
// directive's fill, so their fill is never parsed.
func Apply(src *Source, d preset.Directive) (image.Image, error) {
	switch d.Strategy() {
	case preset.StrategyCrop:
		return CropToFit(src.Image, d.Width, d.Height), nil
	case preset.StrategyCropbox:
		fill, err := fillFor(src, d)
		if err != nil {
			return nil, err
		}
		return Cropbox(src.Image, d.Width, d.Height, fill), nil
	default:
		return Thumbnail(src.Image, d.Width, d.Height), nil
	}
}

func fillFor(src *Source, d preset.Directive) (color.Color, error) {
	if src.IsPNG() {
		return Transparent, nil
	}
	fill := d.Fill
	if fill == "" {
		fill = preset.DefaultFill
	}
	return ParseFill(fill)
}
