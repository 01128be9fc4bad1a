package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// OpaqueBounds returns the smallest rectangle containing every pixel whose
// alpha is at least threshold. The second result is false when no pixel
// qualifies.
func OpaqueBounds(img image.Image, threshold uint8) (image.Rectangle, bool) {
	bounds := img.Bounds()
	minX, minY := bounds.Max.X, bounds.Max.Y
	maxX, maxY := bounds.Min.X-1, bounds.Min.Y-1

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			if uint8(a>>8) < threshold {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX || maxY < minY {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// TrimTransparent crops a cutout to its non-transparent content.
//
// Cutouts exported from annotation or matting tools often carry wide
// transparent borders; trimming them keeps the collision box tight around
// the visible object. A fully transparent image is returned unchanged (as a
// copy).
func TrimTransparent(img image.Image, threshold uint8) *image.NRGBA {
	rect, ok := OpaqueBounds(img, threshold)
	if !ok || rect == img.Bounds() {
		return imaging.Clone(img)
	}
	return imaging.Crop(img, rect)
}
