// Package augment applies photometric augmentation to scene backgrounds.
//
// The pipeline mirrors what a camera does to a real capture: exposure
// differences (brightness/contrast), sensor noise, motion blur and cast
// shadows from off-frame objects. Each step is gated by its own probability
// and draws all of its randomness from the caller's generator, so a seeded
// generator reproduces the same background.
//
// Every step returns a new *image.RGBA or edits one the package allocated
// itself; source images are never written to.
package augment

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/scene-synth/internal/config"
)

// Rand is the subset of *rand.Rand (math/rand/v2) the pipeline consumes.
type Rand interface {
	Float64() float64
	IntN(n int) int
	NormFloat64() float64
}

// Applied records which steps ran on a background.
type Applied struct {
	BrightnessContrast bool
	Noise              bool
	MotionBlur         bool
	CastShadow         bool
}

// Apply runs the background pipeline over img and returns an opaque RGBA
// image with its origin at (0, 0).
//
// Steps run in a fixed order: brightness/contrast, sensor noise, motion blur,
// cast shadows. The gate for each step is drawn whether or not the step runs,
// keeping the random stream aligned across configurations that only change
// probabilities.
func Apply(img image.Image, cfg config.BackgroundConfig, rng Rand) (*image.RGBA, Applied) {
	var applied Applied
	out := ToOpaqueRGBA(img)

	if rng.Float64() < cfg.BrightnessContrast.Probability {
		b := uniform(rng, -cfg.BrightnessContrast.BrightnessLimit, cfg.BrightnessContrast.BrightnessLimit)
		c := uniform(rng, -cfg.BrightnessContrast.ContrastLimit, cfg.BrightnessContrast.ContrastLimit)
		out = BrightnessContrast(out, b, c)
		applied.BrightnessContrast = true
	}

	if rng.Float64() < cfg.Noise.Probability {
		shift := uniform(rng, cfg.Noise.ColorShift.Min, cfg.Noise.ColorShift.Max)
		intensity := uniform(rng, cfg.Noise.Intensity.Min, cfg.Noise.Intensity.Max)
		ISONoise(out, shift, intensity, rng)
		applied.Noise = true
	}

	if rng.Float64() < cfg.MotionBlur.Probability {
		size := oddInRange(rng, cfg.MotionBlur.KernelSize.Min, cfg.MotionBlur.KernelSize.Max)
		angle := rng.Float64() * 180
		out = MotionBlur(out, size, angle)
		applied.MotionBlur = true
	}

	if rng.Float64() < cfg.CastShadow.Probability {
		n := intInRange(rng, cfg.CastShadow.Count.Min, cfg.CastShadow.Count.Max)
		polys := make([][]image.Point, 0, n)
		for i := 0; i < n; i++ {
			polys = append(polys, RandomPolygon(out.Bounds(), cfg.CastShadow.ROI, cfg.CastShadow.Vertices, rng))
		}
		CastShadows(out, polys, cfg.CastShadow.Darkness)
		applied.CastShadow = true
	}

	return out, applied
}

// ToOpaqueRGBA copies img into a new RGBA image at the origin and forces every
// pixel opaque. Transparent areas of the source come out black.
func ToOpaqueRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
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

// oddInRange draws an odd integer from [lo, hi], widening to the nearest odd
// bounds. The result is at least 1.
func oddInRange(rng Rand, lo, hi int) int {
	if lo < 1 {
		lo = 1
	}
	if lo%2 == 0 {
		lo++
	}
	if hi%2 == 0 {
		hi--
	}
	if hi < lo {
		return lo
	}
	return lo + 2*rng.IntN((hi-lo)/2+1)
}
