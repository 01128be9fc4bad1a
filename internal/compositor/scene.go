package compositor

import (
	"fmt"
	"image"

	"github.com/ironsheep/scene-synth/internal/augment"
	"github.com/ironsheep/scene-synth/internal/config"
)

// ObjectSource yields private, modifiable copies of object cutouts.
// *imaging.SourceSet implements it.
type ObjectSource interface {
	Len() int
	LoadNRGBA(i int) (*image.NRGBA, error)
}

// Scene is one composited image together with what was placed on it.
type Scene struct {
	// Index is the scene's position in the run; it names the output file.
	Index int

	// Image is the opaque composited canvas.
	Image *image.RGBA

	// Boxes are the margin-expanded boxes of the placed objects, in placement
	// order. No two of them intersect.
	Boxes []Box

	// Requested is the object count drawn for this scene; len(Boxes) may be
	// lower when placements were skipped.
	Requested int

	// Shadows counts the placed objects that received a drop shadow.
	Shadows int

	// Occlusions are the rectangles drawn by the final occlusion step.
	Occlusions []image.Rectangle

	// Background names the source background, when known.
	Background string

	// Augment records the background augmentation steps that ran.
	Augment augment.Applied

	// Quality is the encoder quality drawn for this scene.
	Quality int
}

// Placed returns the number of objects actually pasted.
func (s *Scene) Placed() int {
	return len(s.Boxes)
}

// Skipped returns the number of objects that found no free position.
func (s *Scene) Skipped() int {
	return s.Requested - len(s.Boxes)
}

// Compose builds a scene on top of bg using cutouts from objects.
//
// The background is augmented first, then between 1 and
// cfg.MaxObjectsPerImage objects are transformed and placed; objects without
// a free position are silently dropped. Shadows are drawn before their
// object, and the optional occlusion step runs last. bg is not modified.
//
// Only a failure to load a cutout is returned as an error.
func Compose(bg image.Image, objects ObjectSource, cfg config.Config, rng Rand) (*Scene, error) {
	if objects.Len() == 0 {
		return nil, ErrNoObjects
	}

	canvas, applied := augment.Apply(bg, cfg.Background, rng)
	size := canvas.Bounds().Size()

	scene := &Scene{
		Image:     canvas,
		Requested: 1 + rng.IntN(cfg.MaxObjectsPerImage),
		Augment:   applied,
	}

	for i := 0; i < scene.Requested; i++ {
		idx := rng.IntN(objects.Len())
		obj, err := objects.LoadNRGBA(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to load object %d: %w", idx, err)
		}

		tr := TransformObject(obj, size.X, cfg, rng)
		p, ok := FindPosition(rng, size, tr.Image.Bounds().Size(), scene.Boxes, cfg.Placement.Margin, cfg.Placement.MaxAttempts)
		if !ok {
			continue
		}

		if rng.Float64() < cfg.Shadow.Probability {
			DrawShadow(canvas, tr.Image, p.At, cfg.Shadow, rng)
			scene.Shadows++
		}
		Paste(canvas, tr.Image, p.At)
		scene.Boxes = append(scene.Boxes, p.Box)
	}

	if rng.Float64() < cfg.Occlusion.Probability {
		scene.Occlusions = Occlude(canvas, cfg.Occlusion, rng)
	}

	scene.Quality = intInRange(rng, cfg.Output.Quality.Min, cfg.Output.Quality.Max)

	return scene, nil
}
