package video

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"strings"
)

// ImageFormat is the encoding used for extracted frames.
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpg"
	FormatPNG  ImageFormat = "png"
)

// ParseImageFormat accepts "jpg", "jpeg" or "png" in any case.
func ParseImageFormat(s string) (ImageFormat, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "jpg", "jpeg", "":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

// WriteImage encodes img to path, replacing any existing file.
func WriteImage(path string, img image.Image, format ImageFormat, quality int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	switch format {
	case FormatPNG:
		err = png.Encode(f, img)
	default:
		if quality <= 0 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
