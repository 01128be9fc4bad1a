package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blur"

	"github.com/ironsheep/scene-synth/internal/config"
)

// ShadowMask turns an object's alpha channel into a flat shadow silhouette:
// pixels with alpha below threshold stay transparent, every other pixel gets
// the same gray level at the same opacity.
func ShadowMask(obj *image.NRGBA, threshold, gray, opacity uint8) *image.NRGBA {
	b := obj.Bounds()
	mask := image.NewNRGBA(b)
	shade := color.NRGBA{R: gray, G: gray, B: gray, A: opacity}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if obj.NRGBAAt(x, y).A >= threshold {
				mask.SetNRGBA(x, y, shade)
			}
		}
	}
	return mask
}

// SoftShadow blurs the shadow mask of obj. The mask is padded by three sigmas
// on each side so the blurred edge is not clipped; the returned point is that
// padding, to be subtracted from the paste position.
func SoftShadow(obj *image.NRGBA, cfg config.ShadowConfig) (image.Image, image.Point) {
	mask := ShadowMask(obj, cfg.AlphaThreshold, cfg.Gray, cfg.Opacity)
	if cfg.BlurSigma <= 0 {
		return mask, image.Point{}
	}

	pad := int(math.Ceil(3 * cfg.BlurSigma))
	b := mask.Bounds()
	padded := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	draw.Draw(padded, b.Sub(b.Min).Add(image.Pt(pad, pad)), mask, b.Min, draw.Src)

	return blur.Gaussian(padded, gaussianRadius(cfg.BlurSigma)), image.Pt(pad, pad)
}

// gaussianRadius converts a standard deviation into the radius bild's
// Gaussian expects. Its kernel is exp(-x²/4r), so sigma² = 2r.
func gaussianRadius(sigma float64) float64 {
	return sigma * sigma / 2
}

// DrawShadow composites a soft shadow of obj onto canvas, offset down and to
// the right of the object position at by a random displacement. It returns
// the displacement used.
func DrawShadow(canvas draw.Image, obj *image.NRGBA, at image.Point, cfg config.ShadowConfig, rng Rand) image.Point {
	shadow, pad := SoftShadow(obj, cfg)

	offset := image.Pt(
		intInRange(rng, cfg.Offset.Min, cfg.Offset.Max),
		intInRange(rng, cfg.Offset.Min, cfg.Offset.Max),
	)

	origin := at.Add(offset).Sub(pad)
	sb := shadow.Bounds()
	draw.Draw(canvas, sb.Sub(sb.Min).Add(origin), shadow, sb.Min, draw.Over)

	return offset
}

// Paste composites obj onto canvas with its top-left corner at at, honouring
// the object's alpha.
func Paste(canvas draw.Image, obj image.Image, at image.Point) {
	b := obj.Bounds()
	draw.Draw(canvas, b.Sub(b.Min).Add(at), obj, b.Min, draw.Over)
}

// Occlude blends between Count.Min and Count.Max black rectangles over the
// finished canvas to imitate foreign objects in front of the scene. Their
// top-left corners are uniform over the whole canvas (inclusive of the far
// edges), so rectangles may be partly or entirely clipped. The unclipped
// rectangles are returned.
//
// Occlusions are purely cosmetic: boxes already placed on the scene are not
// adjusted and may end up partially hidden.
func Occlude(canvas draw.Image, cfg config.OcclusionConfig, rng Rand) []image.Rectangle {
	b := canvas.Bounds()
	n := intInRange(rng, cfg.Count.Min, cfg.Count.Max)

	rects := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		x := b.Min.X + rng.IntN(b.Dx()+1)
		y := b.Min.Y + rng.IntN(b.Dy()+1)
		w := intInRange(rng, cfg.Size.Min, cfg.Size.Max)
		h := intInRange(rng, cfg.Size.Min, cfg.Size.Max)
		alpha := uint8(intInRange(rng, cfg.Alpha.Min, cfg.Alpha.Max))

		r := image.Rect(x, y, x+w, y+h)
		draw.Draw(canvas, r, image.NewUniform(color.NRGBA{A: alpha}), image.Point{}, draw.Over)
		rects = append(rects, r)
	}
	return rects
}
