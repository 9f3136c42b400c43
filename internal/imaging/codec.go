package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG and WebP quality used when none is configured.
const DefaultQuality = 85

// DefaultExtToFormat maps file extensions to output format names.
var DefaultExtToFormat = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".gif":  "gif",
	".bmp":  "bmp",
	".tif":  "tiff",
	".tiff": "tiff",
	".webp": "webp",
}

// formatInfo describes an output format.
type formatInfo struct {
	ext      string
	mimeType string
	encoder  func(quality int) imgio.Encoder
}

var formats = map[string]formatInfo{
	"jpeg": {".jpg", "image/jpeg", jpegEncoder},
	"png":  {".png", "image/png", func(int) imgio.Encoder { return imgio.PNGEncoder() }},
	"gif":  {".gif", "image/gif", func(int) imgio.Encoder { return imagingEncoder(imaging.GIF) }},
	"bmp":  {".bmp", "image/bmp", func(int) imgio.Encoder { return imgio.BMPEncoder() }},
	"tiff": {".tiff", "image/tiff", func(int) imgio.Encoder { return imagingEncoder(imaging.TIFF) }},
	"webp": {".webp", "image/webp", webpEncoder},
}

// SupportedFormat reports whether format can be encoded.
func SupportedFormat(format string) bool {
	_, ok := formats[format]
	return ok
}

// FormatExt returns the canonical file extension for format, or "" if the
// format is unknown.
func FormatExt(format string) string {
	return formats[format].ext
}

// FormatMIMEType returns the MIME type for format, or
// "application/octet-stream" if the format is unknown.
func FormatMIMEType(format string) string {
	if info, ok := formats[format]; ok {
		return info.mimeType
	}
	return "application/octet-stream"
}

// FormatForPath chooses the output format from the extension of path.
//
// Extensions are matched case-insensitively against extToFormat (which
// falls back to DefaultExtToFormat when nil). Unknown extensions yield
// fallback.
func FormatForPath(path string, extToFormat map[string]string, fallback string) string {
	if extToFormat == nil {
		extToFormat = DefaultExtToFormat
	}
	ext := strings.ToLower(filepath.Ext(path))
	if format, ok := extToFormat[ext]; ok {
		return format
	}
	return fallback
}

// Encode writes img to w in the named format.
//
// Quality applies to JPEG and WebP and defaults to DefaultQuality when not in
// 1-100. JPEG has no alpha channel, so translucent pixels are composited onto
// white first.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	info, ok := formats[format]
	if !ok {
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	if err := info.encoder(quality)(w, img); err != nil {
		return fmt.Errorf("failed to encode %s image: %w", format, err)
	}
	return nil
}

// EncodeBytes is Encode into a new byte slice.
func EncodeBytes(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func jpegEncoder(quality int) imgio.Encoder {
	enc := imgio.JPEGEncoder(quality)
	return func(w io.Writer, img image.Image) error {
		return enc(w, flatten(img))
	}
}

func webpEncoder(quality int) imgio.Encoder {
	return func(w io.Writer, img image.Image) error {
		return webp.Encode(w, img, &webp.Options{Quality: float32(quality)})
	}
}

func imagingEncoder(format imaging.Format) imgio.Encoder {
	return func(w io.Writer, img image.Image) error {
		return imaging.Encode(w, img, format)
	}
}

// flatten composites images with an alpha channel onto opaque white.
func flatten(img image.Image) image.Image {
	if ColorSpaceOf(img) != ColorSpaceRGBA {
		return img
	}
	bounds := img.Bounds()
	bg := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
