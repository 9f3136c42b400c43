// Package imaging implements the fit engine: decoding source images, fitting
// them to a target box, and encoding the result.
//
// All operations work with standard Go image.Image values and never modify
// the image they are given; each strategy returns a new image (or the source
// itself when no change is needed).
//
// # Fit Strategies
//
// A preset.Directive selects one of three strategies:
//
//   - Resize: scale down so the image fits inside (width, height), keeping
//     the aspect ratio. Images already inside the box are returned as is.
//   - Crop: produce exactly (width, height) by scaling the image until it
//     covers the box and trimming the overflow evenly from both sides.
//     Images smaller than the box in both dimensions are returned as is;
//     when only one dimension is smaller, the box is clamped to it first.
//   - Cropbox: scale to the box width, then pad with a fill colour until the
//     box is reached. Images narrower than the box are returned as is.
//     PNG sources are always padded with transparent pixels.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner.
// Regions follow the image.Rectangle convention: Min is inclusive and Max is
// exclusive.
//
// # Colour Spaces
//
// Decoded images are classified with ColorSpaceOf. Grayscale, RGB and RGBA
// images are kept; anything else (paletted, CMYK, ...) is converted to opaque
// RGB by ToRGB before fitting.
//
// # Error Handling
//
// Decode and encode failures are returned wrapped with %w so callers can
// inspect the underlying codec error. Zero or negative target dimensions are
// a caller precondition: validate the directive before calling Apply.
package imaging
