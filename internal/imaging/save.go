package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Flatten composites img over an opaque backdrop and returns a fully opaque
// RGBA image. Output formats without alpha (JPEG) would otherwise drop the
// alpha channel without blending it.
func Flatten(img image.Image, backdrop color.Color) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(backdrop), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}

// Extension returns the file extension (without the dot) used for format.
func Extension(format string) string {
	switch strings.ToLower(format) {
	case "jpeg":
		return "jpg"
	default:
		return strings.ToLower(format)
	}
}

// Save encodes img to path in the given format ("jpg", "jpeg", "png" or
// "webp"). Quality applies to the lossy formats and is ignored for PNG.
func Save(img image.Image, path, format string, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		if err := imaging.Save(img, path, imaging.JPEGQuality(quality)); err != nil {
			return fmt.Errorf("failed to save JPEG %s: %w", path, err)
		}
	case "png":
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save PNG %s: %w", path, err)
		}
	case "webp":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		if err := webp.Encode(f, img, &webp.Options{Quality: float32(quality)}); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode WebP %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	return nil
}
