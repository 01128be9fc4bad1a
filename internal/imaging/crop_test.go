package imaging

import (
	"image"
	"image/color"
	"testing"
)

// createCutout returns a transparent canvas with an opaque block at r.
func createCutout(width, height int, r image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, color.NRGBA{200, 50, 50, 255})
		}
	}
	return img
}

func TestOpaqueBounds(t *testing.T) {
	tests := []struct {
		name   string
		img    image.Image
		want   image.Rectangle
		wantOK bool
	}{
		{
			name:   "inner block",
			img:    createCutout(100, 80, image.Rect(10, 20, 40, 50)),
			want:   image.Rect(10, 20, 40, 50),
			wantOK: true,
		},
		{
			name:   "fully opaque",
			img:    createInMemoryImage(30, 30, color.RGBA{1, 2, 3, 255}),
			want:   image.Rect(0, 0, 30, 30),
			wantOK: true,
		},
		{
			name:   "fully transparent",
			img:    image.NewNRGBA(image.Rect(0, 0, 30, 30)),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := OpaqueBounds(tt.img, 10)
			if ok != tt.wantOK {
				t.Fatalf("ok: got %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("bounds: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOpaqueBounds_Threshold(t *testing.T) {
	img := createCutout(20, 20, image.Rect(5, 5, 10, 10))
	img.SetNRGBA(0, 0, color.NRGBA{0, 0, 0, 5})

	got, ok := OpaqueBounds(img, 10)
	if !ok || got != image.Rect(5, 5, 10, 10) {
		t.Errorf("faint pixel below threshold should be ignored, got %v %v", got, ok)
	}

	got, ok = OpaqueBounds(img, 1)
	if !ok || got != image.Rect(0, 0, 10, 10) {
		t.Errorf("faint pixel above threshold should count, got %v %v", got, ok)
	}
}

func TestTrimTransparent(t *testing.T) {
	img := createCutout(100, 80, image.Rect(10, 20, 40, 50))

	trimmed := TrimTransparent(img, 10)
	if trimmed.Bounds() != image.Rect(0, 0, 30, 30) {
		t.Errorf("trimmed bounds: got %v, want 30x30 at origin", trimmed.Bounds())
	}
	if a := trimmed.NRGBAAt(0, 0).A; a != 255 {
		t.Errorf("trimmed corner alpha: got %d, want 255", a)
	}

	empty := image.NewNRGBA(image.Rect(0, 0, 12, 7))
	if got := TrimTransparent(empty, 10).Bounds(); got != empty.Bounds() {
		t.Errorf("transparent image should be kept, got %v", got)
	}
}
