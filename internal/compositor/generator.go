package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/scene-synth/internal/config"
	imgutil "github.com/ironsheep/scene-synth/internal/imaging"
)

var (
	// ErrNoObjects is returned when no object cutout is available.
	ErrNoObjects = errors.New("no object cutouts found")

	// ErrNoBackgrounds is returned when no background image is available.
	ErrNoBackgrounds = errors.New("no background images found")
)

// previewColor outlines boxes on preview images.
const previewColor = "#00FF00"

// Summary totals a generation run.
type Summary struct {
	Images    int
	Requested int
	Placed    int
	Skipped   int
	Shadows   int
	Occluded  int
	Duration  time.Duration
}

// Generator writes synthetic scenes from a fixed pair of source sets.
type Generator struct {
	cfg         config.Config
	objects     *imgutil.SourceSet
	backgrounds *imgutil.SourceSet
	cache       *imgutil.ImageCache
	logger      *log.Logger
}

// New validates cfg and reads both source directories. An empty object or
// background directory fails with ErrNoObjects or ErrNoBackgrounds before
// anything is written. A nil logger uses log.Default().
func New(cfg config.Config, logger *log.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Seed == 0 {
		cfg.Seed = freshSeed()
		logger.Info("no seed given, picked one", "seed", cfg.Seed)
	}

	var cache *imgutil.ImageCache
	if cfg.Input.CacheSources {
		cache = imgutil.NewImageCache()
	}

	objects, err := imgutil.ListSources(cfg.Input.ObjectsDir, cfg.Input.ObjectExtensions, cache)
	if err != nil {
		if errors.Is(err, imgutil.ErrEmptySource) {
			return nil, fmt.Errorf("%w: %v", ErrNoObjects, err)
		}
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	backgrounds, err := imgutil.ListSources(cfg.Input.BackgroundsDir, cfg.Input.BackgroundExtensions, cache)
	if err != nil {
		if errors.Is(err, imgutil.ErrEmptySource) {
			return nil, fmt.Errorf("%w: %v", ErrNoBackgrounds, err)
		}
		return nil, fmt.Errorf("failed to list backgrounds: %w", err)
	}

	logger.Debug("sources loaded", "objects", objects.Len(), "backgrounds", backgrounds.Len())

	return &Generator{
		cfg:         cfg,
		objects:     objects,
		backgrounds: backgrounds,
		cache:       cache,
		logger:      logger,
	}, nil
}

// Close releases decoded source images held by the cache.
func (g *Generator) Close() {
	if g.cache == nil {
		return
	}
	g.logger.Debug("releasing source cache", "images", g.cache.Len())
	g.cache.Clear()
}

func freshSeed() uint64 {
	for {
		if s := rand.Uint64(); s != 0 {
			return s
		}
	}
}

// Config returns the configuration the generator runs with, including the
// seed picked when none was configured.
func (g *Generator) Config() config.Config {
	return g.cfg
}

// Rand returns the generator for scene index. Scenes draw from independent
// streams keyed by (Seed, index), so the output does not depend on the order
// or concurrency in which scenes are rendered.
func (g *Generator) Rand(index int) *rand.Rand {
	return rand.New(rand.NewPCG(g.cfg.Seed, uint64(index)))
}

// Render composes scene index without writing it.
func (g *Generator) Render(index int) (*Scene, error) {
	rng := g.Rand(index)

	bgIdx := rng.IntN(g.backgrounds.Len())
	bg, err := g.backgrounds.Load(bgIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to load background %s: %w", g.backgrounds.Names[bgIdx], err)
	}

	scene, err := Compose(bg, g.objects, g.cfg, rng)
	if err != nil {
		return nil, err
	}
	scene.Index = index
	scene.Background = g.backgrounds.Names[bgIdx]
	return scene, nil
}

// Filename returns the output file name of scene index.
func (g *Generator) Filename(index int) string {
	return fmt.Sprintf("%s%04d.%s", g.cfg.Output.Prefix, index, imgutil.Extension(g.cfg.Output.Format))
}

// Write flattens the scene and saves it into the output directory, plus a
// box preview when a preview directory is configured. It returns the scene's
// output path.
func (g *Generator) Write(scene *Scene) (string, error) {
	path := filepath.Join(g.cfg.Output.Dir, g.Filename(scene.Index))
	flat := imgutil.Flatten(scene.Image, color.Black)
	if err := imgutil.Save(flat, path, g.cfg.Output.Format, scene.Quality); err != nil {
		return "", err
	}

	if g.cfg.Output.PreviewDir != "" {
		rects := make([]image.Rectangle, len(scene.Boxes))
		for i, b := range scene.Boxes {
			rects[i] = b.Rect()
		}
		preview, err := imgutil.DrawBoxes(flat, rects, previewColor)
		if err != nil {
			return "", err
		}
		name := fmt.Sprintf("%s%04d.png", g.cfg.Output.Prefix, scene.Index)
		if err := imgutil.Save(preview, filepath.Join(g.cfg.Output.PreviewDir, name), "png", 0); err != nil {
			return "", err
		}
	}

	return path, nil
}

// Run renders and writes cfg.TotalImages scenes on up to cfg.Workers
// goroutines. The first error (unreadable source, unwritable output) cancels
// the remaining work and is returned; files already written stay on disk.
func (g *Generator) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var summary Summary

	if err := os.MkdirAll(g.cfg.Output.Dir, 0o755); err != nil {
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}
	if g.cfg.Output.PreviewDir != "" {
		if err := os.MkdirAll(g.cfg.Output.PreviewDir, 0o755); err != nil {
			return summary, fmt.Errorf("failed to create preview directory: %w", err)
		}
	}

	g.logger.Info("generating scenes", "count", g.cfg.TotalImages, "workers", g.cfg.Workers, "out", g.cfg.Output.Dir)

	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)

	for i := 0; i < g.cfg.TotalImages; i++ {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}

			scene, err := g.Render(i)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			path, err := g.Write(scene)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}

			g.logger.Debug("scene written",
				"path", path,
				"background", scene.Background,
				"placed", scene.Placed(),
				"requested", scene.Requested,
				"quality", scene.Quality,
			)

			mu.Lock()
			summary.Images++
			summary.Requested += scene.Requested
			summary.Placed += scene.Placed()
			summary.Skipped += scene.Skipped()
			summary.Shadows += scene.Shadows
			if len(scene.Occlusions) > 0 {
				summary.Occluded++
			}
			mu.Unlock()
			return nil
		})
	}

	err := eg.Wait()
	if err == nil {
		err = ctx.Err()
	}
	summary.Duration = time.Since(start)
	return summary, err
}
