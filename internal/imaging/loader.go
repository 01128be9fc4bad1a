package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// ErrEmptySource is returned when a source directory holds no usable images.
var ErrEmptySource = errors.New("no source images found")

// ImageCache provides thread-safe caching of decoded source images.
//
// Source sets are read-only for the lifetime of a run, so every scene worker
// shares one cache and pays the decode cost once per file. Callers must treat
// returned images as immutable: every transform in this module allocates a
// new image instead of writing into its input.
//
// # Memory Management
//
// Cached images remain in memory until Clear() is called.
// Large background sets can hold a lot of pixels; disable caching with a nil
// cache in that case (see SourceSet.Load).
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. The image is cached
// using the exact path string provided.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := decodeFile(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// SourceSet is the flat, read-only list of images a run draws from.
type SourceSet struct {
	// Dir is the directory the set was read from.
	Dir string

	// Names holds the file names (not paths), sorted for reproducible draws.
	Names []string

	cache *ImageCache
}

// ListSources reads a flat directory and keeps the regular files whose
// extension matches one of exts (case-insensitive). An empty exts keeps every
// regular file, leaving format detection to the decoder.
//
// Subdirectories are ignored. A directory with no matching files returns
// ErrEmptySource wrapped with the directory name.
func ListSources(dir string, exts []string, cache *ImageCache) (*SourceSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if len(exts) > 0 && !hasExtension(e.Name(), exts) {
			continue
		}
		names = append(names, e.Name())
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptySource, dir)
	}
	sort.Strings(names)

	return &SourceSet{Dir: dir, Names: names, cache: cache}, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

// Len returns the number of images in the set.
func (s *SourceSet) Len() int {
	return len(s.Names)
}

// Path returns the full path of the i-th image.
func (s *SourceSet) Path(i int) string {
	return filepath.Join(s.Dir, s.Names[i])
}

// Load decodes the i-th image, through the cache when one was given.
func (s *SourceSet) Load(i int) (image.Image, error) {
	if i < 0 || i >= len(s.Names) {
		return nil, fmt.Errorf("source index %d out of range [0, %d)", i, len(s.Names))
	}
	if s.cache != nil {
		return s.cache.Load(s.Path(i))
	}
	return decodeFile(s.Path(i))
}

// LoadNRGBA decodes the i-th image and returns a private NRGBA copy with its
// origin at (0, 0). The copy is safe to modify.
func (s *SourceSet) LoadNRGBA(i int) (*image.NRGBA, error) {
	img, err := s.Load(i)
	if err != nil {
		return nil, err
	}
	return imaging.Clone(img), nil
}
