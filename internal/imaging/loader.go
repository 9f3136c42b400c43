package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Source is a decoded image together with what is known about its origin.
//
// The Image is treated as immutable: fit strategies return new images rather
// than drawing into it.
type Source struct {
	// Image is the decoded bitmap, already normalized by Normalize.
	Image image.Image

	// Format is the format name reported by the decoder ("png", "jpeg",
	// "gif", "bmp", "tiff" or "webp"). It is detected from the file
	// contents, not the extension.
	Format string

	// ColorSpace is the colour space the file decoded to, before
	// normalization. Image may have been converted from it.
	ColorSpace ColorSpace

	// Path is the file the image was loaded from. Empty for Decode.
	Path string

	// ModTime is the file modification time. Zero for Decode.
	ModTime time.Time
}

// Width returns the source width in pixels.
func (s *Source) Width() int {
	return s.Image.Bounds().Dx()
}

// Height returns the source height in pixels.
func (s *Source) Height() int {
	return s.Image.Bounds().Dy()
}

// IsPNG reports whether the source was decoded from PNG data.
func (s *Source) IsPNG() bool {
	return s.Format == "png"
}

// Load opens and decodes the image file at path.
//
// EXIF orientation is applied for JPEG files so the returned image is the
// right way up. Images in an unsupported colour space are converted to RGB.
//
// # Errors
//
//   - Returns an error wrapping fs.ErrNotExist if the file does not exist
//   - Returns an error if the file is not a supported image
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("failed to open image: %s is a directory", path)
	}

	src, err := Decode(f)
	if err != nil {
		return nil, err
	}
	src.Path = path
	src.ModTime = stat.ModTime()
	return src, nil
}

// Decode reads an image from r and detects its format.
func Decode(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return &Source{
		Image:      Normalize(img),
		Format:     format,
		ColorSpace: ColorSpaceOf(img),
	}, nil
}
