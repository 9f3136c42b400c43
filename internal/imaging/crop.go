package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// CropToFit returns an image of exactly width x height cut from the center
// of img after scaling it to cover the box.
//
// The image is never enlarged:
//   - If img is smaller than the box in both dimensions it is returned as is.
//   - If img is smaller in one dimension, that box dimension is clamped to the
//     image's own size first, so the result is smaller than requested.
//
// # Algorithm
//
//  1. deltaW = imgW / width, deltaH = imgH / height
//  2. delta = min(deltaW, deltaH); the smaller ratio gives the larger scaled
//     image, which is the one that covers the whole box
//  3. scale the image by 1/delta, rounding to whole pixels but never below
//     the box
//  4. trim floor(overflow/2) from the left and top, keeping width x height
//
// Width and height must be positive.
func CropToFit(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	imgW, imgH := bounds.Dx(), bounds.Dy()

	// don't crop an image that is smaller than the requested size
	if imgW < width && imgH < height {
		return img
	}
	if imgW < width {
		width = imgW
	} else if imgH < height {
		height = imgH
	}

	deltaW := float64(imgW) / float64(width)
	deltaH := float64(imgH) / float64(height)
	delta := math.Min(deltaW, deltaH)

	scaledW := max(int(math.Round(float64(imgW)/delta)), width)
	scaledH := max(int(math.Round(float64(imgH)/delta)), height)

	scaled := img
	if scaledW != imgW || scaledH != imgH {
		scaled = imaging.Resize(img, scaledW, scaledH, imaging.Lanczos)
	}

	left, top := CenterOffsets(scaledW, scaledH, width, height)
	origin := scaled.Bounds().Min
	box := image.Rect(left, top, left+width, top+height).Add(origin)
	return imaging.Crop(scaled, box)
}

// CenterOffsets returns the left and top margin that center a box of
// width x height inside an image of imgW x imgH. Odd overflow leaves the
// extra pixel on the right or bottom.
func CenterOffsets(imgW, imgH, width, height int) (left, top int) {
	return (imgW - width) / 2, (imgH - height) / 2
}

// Borders is the padding added to each side of an image.
type Borders struct {
	Left, Top, Right, Bottom int
}

// IsZero reports whether no padding is needed.
func (b Borders) IsZero() bool {
	return b == Borders{}
}

// SplitPadding divides deficit pixels between two opposite sides. The
// leading side gets deficit/2 and the trailing side the remainder, so
// trailing - leading is always 0 or 1.
func SplitPadding(deficit int) (leading, trailing int) {
	if deficit <= 0 {
		return 0, 0
	}
	leading = deficit / 2
	return leading, deficit - leading
}

// BordersFor returns the padding that grows an imgW x imgH image to at least
// width x height. Dimensions already at or beyond the target get no padding.
func BordersFor(imgW, imgH, width, height int) Borders {
	var b Borders
	b.Left, b.Right = SplitPadding(width - imgW)
	b.Top, b.Bottom = SplitPadding(height - imgH)
	return b
}

// Pad surrounds img with borders filled with fill. The original pixels are
// copied unchanged, including their alpha.
func Pad(img image.Image, b Borders, fill color.Color) *image.NRGBA {
	bounds := img.Bounds()
	canvas := imaging.New(bounds.Dx()+b.Left+b.Right, bounds.Dy()+b.Top+b.Bottom, fill)
	return imaging.Paste(canvas, img, image.Pt(b.Left, b.Top))
}

// Cropbox scales img to the target width and pads it with fill until it
// reaches width x height.
//
// The height is derived from the same scale factor and truncated to whole
// pixels. Images that are already no wider than width are returned as is.
// When the scaled height exceeds the target height no vertical padding is
// added and the result is taller than requested.
//
// Width and height must be positive.
func Cropbox(img image.Image, width, height int, fill color.Color) image.Image {
	bounds := img.Bounds()
	widthPercent := float64(width) / float64(bounds.Dx())
	if widthPercent >= 1.0 {
		return img
	}

	scaledH := max(int(float64(bounds.Dy())*widthPercent), 1)
	scaled := imaging.Resize(img, width, scaledH, imaging.Lanczos)

	b := BordersFor(width, scaledH, width, height)
	if b.IsZero() {
		return scaled
	}
	return Pad(scaled, b, fill)
}
