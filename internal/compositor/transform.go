package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/scene-synth/internal/config"
	imgutil "github.com/ironsheep/scene-synth/internal/imaging"
)

// TransformResult describes what TransformObject did to a cutout.
type TransformResult struct {
	Image       *image.NRGBA
	Scale       float64
	Compression float64 // 1 when no perspective compression was applied
	Angle       float64
}

// ScaleWidth returns the pixel width of an object scaled to a fraction of the
// background width, never less than one pixel.
func ScaleWidth(bgWidth int, scale float64) int {
	return max(1, int(math.Round(float64(bgWidth)*scale)))
}

// TransformObject prepares a cutout for placement on a background of width
// bgWidth: optional trimming, tiered scaling, optional vertical compression
// and rotation, in that order. The cutout itself is not modified.
func TransformObject(obj image.Image, bgWidth int, cfg config.Config, rng Rand) TransformResult {
	if cfg.Transform.TrimCutouts {
		obj = imgutil.TrimTransparent(obj, 1)
	}

	tier := cfg.ScaleRange(bgWidth)
	scale := uniform(rng, tier.Min, tier.Max)
	out := Resize(obj, ScaleWidth(bgWidth, scale))

	compression := 1.0
	if rng.Float64() < cfg.Transform.PerspectiveProbability {
		compression = uniform(rng, cfg.Transform.PerspectiveFactor.Min, cfg.Transform.PerspectiveFactor.Max)
		out = Compress(out, compression)
	}

	angle := uniform(rng, cfg.Transform.Rotation.Min, cfg.Transform.Rotation.Max)
	out = Rotate(out, angle)

	return TransformResult{Image: out, Scale: scale, Compression: compression, Angle: angle}
}

// Resize scales obj to width pixels, keeping its aspect ratio.
func Resize(obj image.Image, width int) *image.NRGBA {
	b := obj.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return imaging.Clone(obj)
	}
	height := max(1, int(math.Round(float64(width)*float64(b.Dy())/float64(b.Dx()))))
	return imaging.Resize(obj, width, height, imaging.Lanczos)
}

// Compress squeezes obj vertically by factor, simulating an oblique view.
func Compress(obj image.Image, factor float64) *image.NRGBA {
	b := obj.Bounds()
	height := max(1, int(math.Round(float64(b.Dy())*factor)))
	return imaging.Resize(obj, b.Dx(), height, imaging.CatmullRom)
}

// Rotate turns obj by angle degrees counter-clockwise. The canvas grows to
// hold the whole rotated object and the uncovered corners are transparent.
func Rotate(obj image.Image, angle float64) *image.NRGBA {
	return imaging.Rotate(obj, angle, color.Transparent)
}

func uniform(rng Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// intInRange draws an integer from the closed interval [lo, hi].
func intInRange(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
