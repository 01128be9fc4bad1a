package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestDrawBoxes(t *testing.T) {
	img := createInMemoryImage(100, 100, color.RGBA{0, 0, 0, 255})
	boxes := []image.Rectangle{
		image.Rect(10, 10, 40, 40),
		image.Rect(-5, 60, 120, 90), // extends past the edges
	}

	result, err := DrawBoxes(img, boxes, "#00FF00")
	if err != nil {
		t.Fatalf("DrawBoxes failed: %v", err)
	}

	if result.Bounds() != img.Bounds() {
		t.Errorf("bounds: got %v, want %v", result.Bounds(), img.Bounds())
	}

	// Right edge of the first box (clear of its label)
	if got := result.RGBAAt(39, 30); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("outline pixel at (39,30): got %v, want green", got)
	}

	// Box interior away from the label stays untouched
	if got := result.RGBAAt(30, 30); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("interior pixel at (30,30): got %v, want black", got)
	}

	// Clipped box: top edge is drawn inside the image
	if got := result.RGBAAt(50, 60); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("clipped outline at (50,60): got %v, want green", got)
	}

	// Input is not modified
	if got := img.RGBAAt(39, 30); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("input was modified at (39,30): %v", got)
	}
}

func TestDrawBoxes_InvalidColor(t *testing.T) {
	img := createInMemoryImage(10, 10, color.Black)
	if _, err := DrawBoxes(img, nil, "#12"); err == nil {
		t.Error("DrawBoxes should fail for an invalid color")
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.RGBA
		wantErr bool
	}{
		{"#FF0000", color.RGBA{255, 0, 0, 255}, false},
		{"00FF0080", color.RGBA{0, 255, 0, 128}, false},
		{"", color.RGBA{}, true},
		{"#GGGGGG", color.RGBA{}, true},
		{"#FFF", color.RGBA{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseHexColor(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err: got %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
