package augment

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/vector"
)

// RandomPolygon draws vertices uniformly inside roi, given as fractions
// (x_min, y_min, x_max, y_max) of bounds.
func RandomPolygon(bounds image.Rectangle, roi [4]float64, vertices int, rng Rand) []image.Point {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	x0, y0 := int(roi[0]*w), int(roi[1]*h)
	x1, y1 := int(roi[2]*w), int(roi[3]*h)

	pts := make([]image.Point, vertices)
	for i := range pts {
		pts[i] = image.Point{
			X: bounds.Min.X + intInRange(rng, x0, max(x0, x1-1)),
			Y: bounds.Min.Y + intInRange(rng, y0, max(y0, y1-1)),
		}
	}
	return pts
}

// ShadowMask rasterizes the polygons into an anti-aliased coverage mask the
// size of bounds. Polygons with fewer than three vertices are skipped.
func ShadowMask(bounds image.Rectangle, polys [][]image.Point) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	if bounds.Empty() {
		return mask
	}

	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		z := vector.NewRasterizer(bounds.Dx(), bounds.Dy())
		first := poly[0].Sub(bounds.Min)
		z.MoveTo(float32(first.X), float32(first.Y))
		for _, p := range poly[1:] {
			p = p.Sub(bounds.Min)
			z.LineTo(float32(p.X), float32(p.Y))
		}
		z.ClosePath()
		z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	}
	return mask
}

// CastShadows darkens img in place under the polygons. Lightness is scaled by
// (1 - darkness) at full coverage, proportionally less on anti-aliased edges;
// hue and saturation are kept.
func CastShadows(img *image.RGBA, polys [][]image.Point, darkness float64) {
	b := img.Bounds()
	mask := ShadowMask(b, polys)

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			cov := mask.AlphaAt(x-b.Min.X, y-b.Min.Y).A
			if cov == 0 {
				continue
			}
			px := img.RGBAAt(x, y)
			c, _ := colorful.MakeColor(px)
			h, s, l := c.Hsl()
			l *= 1 - darkness*float64(cov)/255
			r, g, bl := colorful.Hsl(h, s, clamp01(l)).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: px.A})
		}
	}
}
