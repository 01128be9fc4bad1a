package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/convolution"
	"github.com/lucasb-eyer/go-colorful"
)

// BrightnessContrast shifts brightness and contrast by the given fractions.
// Both values are in [-1, 1]; 0 leaves the channel unchanged.
func BrightnessContrast(img image.Image, brightness, contrast float64) *image.RGBA {
	out := adjust.Brightness(img, brightness)
	return adjust.Contrast(out, contrast)
}

// ISONoise adds camera-sensor style noise in place: a per-pixel hue jitter
// scaled by colorShift and a luminance jitter proportional to the image's own
// luminance spread, scaled by intensity.
func ISONoise(img *image.RGBA, colorShift, intensity float64, rng Rand) {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return
	}

	hue := make([]float64, n)
	sat := make([]float64, n)
	lum := make([]float64, n)

	var sum, sumSq float64
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, _ := colorful.MakeColor(img.RGBAAt(x, y))
			hue[i], sat[i], lum[i] = c.Hsl()
			sum += lum[i]
			sumSq += lum[i] * lum[i]
			i++
		}
	}

	mean := sum / float64(n)
	std := math.Sqrt(math.Max(0, sumSq/float64(n)-mean*mean))
	hueSigma := colorShift * 360 * intensity
	lumSigma := std * intensity

	i = 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			h := math.Mod(hue[i]+rng.NormFloat64()*hueSigma+360, 360)
			l := clamp01(lum[i] + rng.NormFloat64()*lumSigma)
			r, g, bl := colorful.Hsl(h, sat[i], l).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: 255})
			i++
		}
	}
}

// MotionBlur averages each pixel along a line of size pixels at angle degrees
// (0 is horizontal). Size 1 or less returns an unblurred copy.
func MotionBlur(img image.Image, size int, angle float64) *image.RGBA {
	k := MotionKernel(size, angle)
	return convolution.Convolve(img, k.Normalized(), &convolution.Options{Bias: 0, Wrap: false, KeepAlpha: true})
}

// MotionKernel builds the size×size line kernel used by MotionBlur.
func MotionKernel(size int, angle float64) *convolution.Kernel {
	if size < 1 {
		size = 1
	}
	k := convolution.NewKernel(size, size)
	r := size / 2
	sin, cos := math.Sincos(angle * math.Pi / 180)
	for d := -r; d <= r; d++ {
		x := r + int(math.Round(float64(d)*cos))
		y := r + int(math.Round(float64(d)*sin))
		if x < 0 || x >= size || y < 0 || y >= size {
			continue
		}
		k.Matrix[y*size+x] = 1
	}
	return k
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
