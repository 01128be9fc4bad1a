package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/ironsheep/scene-synth/internal/config"
)

func whiteCanvas(w, h int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	return canvas
}

func TestShadowMask(t *testing.T) {
	obj := image.NewNRGBA(image.Rect(0, 0, 4, 1))
	for x, a := range []uint8{0, 9, 10, 255} {
		obj.SetNRGBA(x, 0, color.NRGBA{R: 255, G: 255, B: 255, A: a})
	}

	mask := ShadowMask(obj, 10, 30, 120)

	want := []uint8{0, 0, 120, 120}
	for x, a := range want {
		got := mask.NRGBAAt(x, 0)
		if got.A != a {
			t.Errorf("pixel %d: alpha = %d, want %d", x, got.A, a)
		}
		if a > 0 && (got.R != 30 || got.G != 30 || got.B != 30) {
			t.Errorf("pixel %d: color = %v, want gray 30", x, got)
		}
	}
}

func TestSoftShadow(t *testing.T) {
	obj := solidNRGBA(20, 10, color.NRGBA{R: 255, A: 255})
	cfg := config.Default().Shadow

	t.Run("no blur", func(t *testing.T) {
		cfg := cfg
		cfg.BlurSigma = 0
		shadow, pad := SoftShadow(obj, cfg)
		if pad != (image.Point{}) {
			t.Errorf("pad = %v, want zero", pad)
		}
		if shadow.Bounds().Size() != image.Pt(20, 10) {
			t.Errorf("size = %v, want 20x10", shadow.Bounds().Size())
		}
	})

	t.Run("blur pads three sigma", func(t *testing.T) {
		cfg := cfg
		cfg.BlurSigma = 2
		shadow, pad := SoftShadow(obj, cfg)
		if pad != image.Pt(6, 6) {
			t.Errorf("pad = %v, want (6,6)", pad)
		}
		if shadow.Bounds().Size() != image.Pt(32, 22) {
			t.Errorf("size = %v, want 32x22", shadow.Bounds().Size())
		}

		// The blur spreads into the padding.
		_, _, _, a := shadow.At(pad.X-1, pad.Y+5).RGBA()
		if a == 0 {
			t.Error("expected blurred alpha just outside the silhouette")
		}
	})
}

func TestSoftShadow_Falloff(t *testing.T) {
	const side = 100
	obj := solidNRGBA(side, side, color.NRGBA{A: 255})
	cfg := config.Default().Shadow
	sigma := cfg.BlurSigma

	shadow, pad := SoftShadow(obj, cfg)
	if pad != image.Pt(54, 54) {
		t.Fatalf("pad = %v, want (54,54)", pad)
	}

	// Outside a straight edge a Gaussian blur leaves opacity × Q(d/σ), scaled
	// by the share of the kernel that still covers the edge vertically.
	rowCover := math.Erf(side / 2 / (sigma * math.Sqrt2))
	y := pad.Y + side/2
	prev := 256
	for _, d := range []int{6, 12, 18, 24} {
		dist := float64(d) + 0.5
		want := float64(cfg.Opacity) * 0.5 * math.Erfc(dist/(sigma*math.Sqrt2)) * rowCover

		_, _, _, a := shadow.At(pad.X+side+d, y).RGBA()
		got := int(a >> 8)
		if math.Abs(float64(got)-want) > 4 {
			t.Errorf("%d px outside: alpha = %d, want about %.0f", d, got, want)
		}
		if got >= prev {
			t.Errorf("%d px outside: alpha %d does not fall off (previous %d)", d, got, prev)
		}
		prev = got
	}

	// The left edge mirrors the right one.
	_, _, _, right := shadow.At(pad.X+side+18, y).RGBA()
	_, _, _, left := shadow.At(pad.X-1-18, y).RGBA()
	if diff := int(right>>8) - int(left>>8); diff < -1 || diff > 1 {
		t.Errorf("asymmetric falloff: left %d, right %d", left>>8, right>>8)
	}
}

func TestGaussianRadius(t *testing.T) {
	tests := []struct {
		sigma, want float64
	}{
		{2, 2},
		{6, 18},
		{18, 162},
	}
	for _, tt := range tests {
		r := gaussianRadius(tt.sigma)
		if r != tt.want {
			t.Errorf("gaussianRadius(%g) = %g, want %g", tt.sigma, r, tt.want)
		}
		// exp(-x²/4r) must equal exp(-x²/2σ²).
		if math.Abs(4*r-2*tt.sigma*tt.sigma) > 1e-9 {
			t.Errorf("sigma %g: kernel width does not match", tt.sigma)
		}
	}
}

func TestDrawShadow(t *testing.T) {
	obj := solidNRGBA(20, 20, color.NRGBA{R: 255, A: 255})
	cfg := config.Default().Shadow
	cfg.BlurSigma = 0
	cfg.Offset = config.IntRange{Min: 15, Max: 15}

	canvas := whiteCanvas(200, 200)
	offset := DrawShadow(canvas, obj, image.Pt(50, 50), cfg, newRand(1))

	if offset != image.Pt(15, 15) {
		t.Fatalf("offset = %v, want (15,15)", offset)
	}
	if c := canvas.RGBAAt(75, 75); c.R >= 255 {
		t.Errorf("shadowed pixel not darkened: %v", c)
	}
	if c := canvas.RGBAAt(10, 10); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel outside the shadow changed: %v", c)
	}
}

func TestDrawShadow_OffsetRange(t *testing.T) {
	obj := solidNRGBA(10, 10, color.NRGBA{A: 255})
	cfg := config.Default().Shadow
	cfg.BlurSigma = 1

	for seed := uint64(0); seed < 20; seed++ {
		canvas := whiteCanvas(120, 120)
		offset := DrawShadow(canvas, obj, image.Pt(20, 20), cfg, newRand(seed))
		for _, v := range []int{offset.X, offset.Y} {
			if v < cfg.Offset.Min || v > cfg.Offset.Max {
				t.Errorf("seed %d: offset %v outside [%d, %d]", seed, offset, cfg.Offset.Min, cfg.Offset.Max)
			}
		}
	}
}

func TestPaste(t *testing.T) {
	obj := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			obj.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	canvas := whiteCanvas(50, 50)
	Paste(canvas, obj, image.Pt(20, 30))

	if c := canvas.RGBAAt(22, 35); c != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("opaque object pixel: got %v, want red", c)
	}
	if c := canvas.RGBAAt(27, 35); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("transparent object pixel should keep the canvas: got %v", c)
	}
	if c := canvas.RGBAAt(19, 29); c != (color.RGBA{255, 255, 255, 255}) {
		t.Errorf("pixel outside the object changed: %v", c)
	}
}

func TestOcclude(t *testing.T) {
	cfg := config.OcclusionConfig{
		Probability: 1,
		Count:       config.IntRange{Min: 1, Max: 2},
		Size:        config.IntRange{Min: 30, Max: 100},
		Alpha:       config.IntRange{Min: 255, Max: 255},
	}

	for seed := uint64(0); seed < 30; seed++ {
		canvas := whiteCanvas(120, 80)
		rects := Occlude(canvas, cfg, newRand(seed))

		if len(rects) < 1 || len(rects) > 2 {
			t.Fatalf("seed %d: got %d rectangles, want 1 or 2", seed, len(rects))
		}
		for _, r := range rects {
			if r.Dx() < 30 || r.Dx() > 100 || r.Dy() < 30 || r.Dy() > 100 {
				t.Errorf("seed %d: rectangle %v outside the size range", seed, r)
			}
			if r.Min.X < 0 || r.Min.X > 120 || r.Min.Y < 0 || r.Min.Y > 80 {
				t.Errorf("seed %d: rectangle corner %v outside the canvas", seed, r.Min)
			}
			if r.Min.In(canvas.Bounds()) {
				if c := canvas.RGBAAt(r.Min.X, r.Min.Y); c != (color.RGBA{0, 0, 0, 255}) {
					t.Errorf("seed %d: opaque occlusion pixel = %v, want black", seed, c)
				}
			}
		}
	}
}
