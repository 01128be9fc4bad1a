package compositor

import (
	"fmt"
	"image"
)

// Rand is the subset of *rand.Rand (math/rand/v2) the compositor consumes.
// Every random decision of a scene goes through one value of this type.
type Rand interface {
	Float64() float64
	IntN(n int) int
	NormFloat64() float64
}

// Box is an axis-aligned rectangle in background pixel coordinates.
//
// Unlike image.Rectangle, collision tests on Box are closed: two boxes that
// share an edge coordinate intersect.
type Box struct {
	MinX int `json:"x_min"`
	MinY int `json:"y_min"`
	MaxX int `json:"x_max"`
	MaxY int `json:"y_max"`
}

// Intersects reports whether a and b overlap or touch. It is false only when
// one box lies strictly left of, right of, above or below the other.
func (a Box) Intersects(b Box) bool {
	return !(a.MaxX < b.MinX ||
		a.MinX > b.MaxX ||
		a.MaxY < b.MinY ||
		a.MinY > b.MaxY)
}

// Expand grows the box by margin pixels on every side.
func (a Box) Expand(margin int) Box {
	return Box{
		MinX: a.MinX - margin,
		MinY: a.MinY - margin,
		MaxX: a.MaxX + margin,
		MaxY: a.MaxY + margin,
	}
}

// Rect converts the box to an image.Rectangle for drawing.
func (a Box) Rect() image.Rectangle {
	return image.Rect(a.MinX, a.MinY, a.MaxX, a.MaxY)
}

func (a Box) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", a.MinX, a.MinY, a.MaxX, a.MaxY)
}

// Placement is an accepted position for an object.
type Placement struct {
	// At is the top-left pixel of the object on the background.
	At image.Point

	// Box is the object's bounding box expanded by the placement margin.
	Box Box
}

// FindPosition searches for a top-left position where an object of size obj
// fits on a background of size bg without its margin-expanded box
// intersecting any of placed.
//
// Up to maxAttempts candidates are drawn uniformly from
// [0, bg.X-obj.X] × [0, bg.Y-obj.Y]; the first one that collides with nothing
// is returned. The boolean is false when the search gives up, or immediately
// (without drawing) when the object is at least as large as the background in
// either dimension. A false result means "skip this object"; it is not an
// error.
func FindPosition(rng Rand, bg, obj image.Point, placed []Box, margin, maxAttempts int) (Placement, bool) {
	if obj.X <= 0 || obj.Y <= 0 || obj.X >= bg.X || obj.Y >= bg.Y {
		return Placement{}, false
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		x := rng.IntN(bg.X - obj.X + 1)
		y := rng.IntN(bg.Y - obj.Y + 1)

		box := Box{MinX: x, MinY: y, MaxX: x + obj.X, MaxY: y + obj.Y}.Expand(margin)
		if !collides(box, placed) {
			return Placement{At: image.Pt(x, y), Box: box}, true
		}
	}

	return Placement{}, false
}

func collides(box Box, placed []Box) bool {
	for _, p := range placed {
		if box.Intersects(p) {
			return true
		}
	}
	return false
}
